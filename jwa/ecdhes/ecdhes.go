// Package ecdhes implements Key Agreement with Elliptic Curve Diffie-Hellman Ephemeral Static (ECDH-ES).
package ecdhes

import (
	"crypto"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/rand"
	_ "crypto/sha256" // for crypto.SHA256
	"errors"
	"fmt"
	"hash"
	"io"

	"github.com/kentaro-m/jwtx/jwa"
	"github.com/kentaro-m/jwtx/jwa/akw"
	"github.com/kentaro-m/jwtx/keymanage"
)

// encryptionAlgorithmGetter is implemented by the opts passed to WrapKey/
// UnwrapKey to carry the "enc" (Encryption Algorithm) Header Parameter,
// used as the AlgorithmID input to Concat KDF when the agreement result
// is the CEK directly (plain ECDH-ES).
type encryptionAlgorithmGetter interface {
	EncryptionAlgorithm() jwa.EncryptionAlgorithm
}

// ephemeralPublicKeyGetter carries the "epk" (Ephemeral Public Key) Header
// Parameter: the sender's ephemeral public key when unwrapping, or a
// destination for the freshly generated ephemeral key pair when wrapping.
type ephemeralPublicKeyGetter interface {
	EphemeralPublicKey() any
}

type ephemeralPublicKeySetter interface {
	SetEphemeralPublicKey(pub any)
}

// agreementPartyInfoGetter carries the "apu"/"apv" Header Parameters.
type agreementPartyInfoGetter interface {
	AgreementPartyUInfo() []byte
	AgreementPartyVInfo() []byte
}

var alg = &Algorithm{
	wrap: func(key []byte) keymanage.KeyWrapper {
		return directKeyWrapper{cek: key}
	},
}

// New returns a new algorithm
// Elliptic Curve Diffie-Hellman Ephemeral Static key agreement using Concat KDF.
func New() keymanage.Algorithm {
	return alg
}

var a128kw = &Algorithm{
	size: 16,
	wrap: func(key []byte) keymanage.KeyWrapper {
		return akw.NewKeyWrapper(key)
	},
}

// NewA128KW returns a new algorithm ECDH-ES using Concat KDF and CEK wrapped with "A128KW".
func NewA128KW() keymanage.Algorithm {
	return a128kw
}

var a192kw = &Algorithm{
	size: 24,
	wrap: func(key []byte) keymanage.KeyWrapper {
		return akw.NewKeyWrapper(key)
	},
}

// NewA192KW returns a new algorithm ECDH-ES using Concat KDF and CEK wrapped with "A192KW".
func NewA192KW() keymanage.Algorithm {
	return a192kw
}

var a256kw = &Algorithm{
	size: 32,
	wrap: func(key []byte) keymanage.KeyWrapper {
		return akw.NewKeyWrapper(key)
	},
}

// NewA256KW returns a new algorithm ECDH-ES using Concat KDF and CEK wrapped with "A256KW".
func NewA256KW() keymanage.Algorithm {
	return a256kw
}

func init() {
	jwa.RegisterKeyManagementAlgorithm(jwa.ECDH_ES, New)
	jwa.RegisterKeyManagementAlgorithm(jwa.ECDH_ES_A128KW, NewA128KW)
	jwa.RegisterKeyManagementAlgorithm(jwa.ECDH_ES_A192KW, NewA192KW)
	jwa.RegisterKeyManagementAlgorithm(jwa.ECDH_ES_A256KW, NewA256KW)
}

var _ keymanage.Algorithm = (*Algorithm)(nil)

type Algorithm struct {
	// size is the CEK size in bytes for the key-wrapping variants
	// ("A128KW"/"A192KW"/"A256KW"). Zero for plain "ECDH-ES", where the
	// size is instead taken from the "enc" algorithm's CEK size.
	size int
	wrap func([]byte) keymanage.KeyWrapper
}

// NewKeyWrapper implements [github.com/kentaro-m/jwtx/keymanage.Algorithm].
func (alg *Algorithm) NewKeyWrapper(key keymanage.Key) keymanage.KeyWrapper {
	return &KeyWrapper{
		alg:  alg,
		priv: key.PrivateKey(),
		pub:  key.PublicKey(),
	}
}

var _ keymanage.KeyWrapper = (*KeyWrapper)(nil)

type KeyWrapper struct {
	alg  *Algorithm
	priv any
	pub  any
}

func (w *KeyWrapper) WrapKey(cek []byte, opts any) ([]byte, error) {
	epkSetter, ok := opts.(ephemeralPublicKeySetter)
	if !ok {
		return nil, errors.New("ecdhes: SetEphemeralPublicKey not found")
	}
	derived, err := w.deriveKEK(opts, w.pub, epkSetter)
	if err != nil {
		return nil, err
	}
	return w.alg.wrap(derived).WrapKey(cek, opts)
}

func (w *KeyWrapper) UnwrapKey(data []byte, opts any) ([]byte, error) {
	epkGetter, ok := opts.(ephemeralPublicKeyGetter)
	if !ok {
		return nil, errors.New("ecdhes: EphemeralPublicKey not found")
	}
	derived, err := w.deriveKEK(opts, epkGetter.EphemeralPublicKey(), nil)
	if err != nil {
		return nil, err
	}
	return w.alg.wrap(derived).UnwrapKey(data, opts)
}

func (w *KeyWrapper) deriveKEK(opts any, peer any, epkSetter ephemeralPublicKeySetter) ([]byte, error) {
	var apu, apv []byte
	if info, ok := opts.(agreementPartyInfoGetter); ok {
		apu = info.AgreementPartyUInfo()
		apv = info.AgreementPartyVInfo()
	}

	size := w.alg.size
	algID := []byte(jwa.ECDH_ES.String())
	if size == 0 {
		enc, ok := opts.(encryptionAlgorithmGetter)
		if !ok {
			return nil, errors.New("ecdhes: EncryptionAlgorithm not found")
		}
		size = enc.EncryptionAlgorithm().New().CEKSize()
		algID = []byte(enc.EncryptionAlgorithm().String())
	} else {
		switch size {
		case 16:
			algID = []byte(jwa.ECDH_ES_A128KW.String())
		case 24:
			algID = []byte(jwa.ECDH_ES_A192KW.String())
		case 32:
			algID = []byte(jwa.ECDH_ES_A256KW.String())
		}
	}

	if epkSetter != nil {
		z, epk, err := generateZ(peer)
		if err != nil {
			return nil, err
		}
		epkSetter.SetEphemeralPublicKey(epk)
		return deriveECDHES(algID, apu, apv, z, size)
	}

	z, err := deriveZ(w.priv, peer)
	if err != nil {
		return nil, err
	}
	return deriveECDHES(algID, apu, apv, z, size)
}

func deriveECDHES(alg, apu, apv, z []byte, keySize int) ([]byte, error) {
	var pubinfo [4]byte
	bits := keySize * 8
	pubinfo[0] = byte(bits >> 24)
	pubinfo[1] = byte(bits >> 16)
	pubinfo[2] = byte(bits >> 8)
	pubinfo[3] = byte(bits)

	r := newKDF(crypto.SHA256, z, alg, apu, apv, pubinfo[:], []byte{})
	key := make([]byte, keySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}

// directKeyWrapper treats the Concat KDF output as the CEK directly,
// used by plain "ECDH-ES" (no additional key wrapping step).
type directKeyWrapper struct {
	cek []byte
}

func (w directKeyWrapper) WrapKey(cek []byte, opts any) ([]byte, error) {
	return []byte{}, nil
}

func (w directKeyWrapper) UnwrapKey(data []byte, opts any) ([]byte, error) {
	return w.cek, nil
}

type kdf struct {
	hash hash.Hash

	z []byte

	// AlgorithmID
	alg []byte

	// PartyUInfo, PartyVInfo
	apu, apv []byte

	// SuppPubInfo, SuppPrivInfo
	pub, priv []byte

	round uint32
	n     int
	buf   []byte
}

func newKDF(hash crypto.Hash, z, alg, apu, apv, pub, priv []byte) *kdf {
	h := hash.New()
	size := h.Size()
	if size < 4 {
		size = 4
	}
	return &kdf{
		z:    z,
		hash: h,
		alg:  alg,
		apu:  apu,
		apv:  apv,
		pub:  pub,
		priv: priv,
		buf:  make([]byte, size),
	}
}

func (r *kdf) Read(data []byte) (n int, err error) {
	if r.n == 0 {
		r.round++
		r.hash.Reset()

		r.putUint32(r.round)
		r.hash.Write(r.z)
		r.putUint32(uint32(len(r.alg)))
		r.hash.Write(r.alg)
		r.putUint32(uint32(len(r.apu)))
		r.hash.Write(r.apu)
		r.putUint32(uint32(len(r.apv)))
		r.hash.Write(r.apv)
		r.hash.Write(r.pub)
		r.hash.Write(r.priv)

		r.buf = r.hash.Sum(r.buf[:0])
		r.n = len(r.buf)
	}
	n = copy(data, r.buf[len(r.buf)-r.n:])
	r.n -= n
	return
}

func (r *kdf) putUint32(v uint32) {
	buf := r.buf[:4]
	buf[0] = byte(v >> 24)
	buf[1] = byte(v >> 16)
	buf[2] = byte(v >> 8)
	buf[3] = byte(v)
	r.hash.Write(buf)
}

// generateZ generates a fresh ephemeral key pair on the same curve as peer
// and derives the shared secret against peer's static public key, for use
// when wrapping (the sender side of ECDH-ES).
func generateZ(peer any) (z []byte, epk any, err error) {
	switch pub := peer.(type) {
	case *ecdsa.PublicKey:
		ephPriv, err := ecdsa.GenerateKey(pub.Curve, rand.Reader)
		if err != nil {
			return nil, nil, err
		}
		z, err = deriveZ(ephPriv, pub)
		if err != nil {
			return nil, nil, err
		}
		return z, &ephPriv.PublicKey, nil
	case *ecdh.PublicKey:
		ephPriv, err := pub.Curve().GenerateKey(rand.Reader)
		if err != nil {
			return nil, nil, err
		}
		z, err = deriveZ(ephPriv, pub)
		if err != nil {
			return nil, nil, err
		}
		return z, ephPriv.PublicKey(), nil
	default:
		return nil, nil, fmt.Errorf("ecdhes: unsupported public key type: %T", peer)
	}
}

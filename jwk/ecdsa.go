package jwk

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"errors"
	"fmt"
	"math/big"

	"github.com/kentaro-m/jwtx/internal/jsonutils"
	"github.com/kentaro-m/jwtx/jwa"
)

// coordinateSize returns the byte size of an EC point coordinate for crv,
// as fixed by RFC7518 6.2.1.2/6.2.1.3.
func coordinateSize(crv elliptic.Curve) int {
	return (crv.Params().BitSize + 7) / 8
}

// RFC7518 6.2.2. Parameters for Elliptic Curve Private Keys
func parseEcdsaKey(d *jsonutils.Decoder, key *Key) {
	var pub ecdsa.PublicKey
	crv := jwa.EllipticCurve(d.MustString("crv"))
	switch crv {
	case jwa.P256:
		pub.Curve = elliptic.P256()
	case jwa.P384:
		pub.Curve = elliptic.P384()
	case jwa.P521:
		pub.Curve = elliptic.P521()
	default:
		d.SaveError(fmt.Errorf("jwk: unknown crv: %q", crv))
		return
	}

	pub.X = new(big.Int).SetBytes(d.MustBytes("x"))
	pub.Y = new(big.Int).SetBytes(d.MustBytes("y"))
	if err := d.Err(); err != nil {
		return
	}
	if err := validateEcdsaPublicKey(&pub); err != nil {
		d.SaveError(err)
		return
	}
	key.pub = &pub

	if d.Has("d") {
		priv := &ecdsa.PrivateKey{
			PublicKey: pub,
			D:         new(big.Int).SetBytes(d.MustBytes("d")),
		}
		if err := d.Err(); err != nil {
			return
		}
		if err := validateEcdsaPrivateKey(priv); err != nil {
			d.SaveError(err)
			return
		}
		key.priv = priv
	}

	// sanity check of the certificate
	if certs := key.x5c; len(certs) > 0 {
		cert := certs[0]
		certPub, ok := cert.PublicKey.(*ecdsa.PublicKey)
		if !ok {
			d.SaveError(errors.New("jwk: public key types are mismatch"))
			return
		}
		if !pub.Equal(certPub) {
			d.SaveError(errors.New("jwk: public keys are mismatch"))
		}
	}
}

func encodeEcdsaKey(e *jsonutils.Encoder, priv *ecdsa.PrivateKey, pub *ecdsa.PublicKey) {
	e.Set("kty", jwa.EC.String())

	size := coordinateSize(pub.Curve)
	switch pub.Curve {
	case elliptic.P256():
		e.Set("crv", jwa.P256.String())
	case elliptic.P384():
		e.Set("crv", jwa.P384.String())
	case elliptic.P521():
		e.Set("crv", jwa.P521.String())
	default:
		e.SaveError(fmt.Errorf("jwk: unsupported elliptic curve: %s", pub.Curve.Params().Name))
		return
	}
	e.SetBytes("x", fixedSizeBytes(pub.X, size))
	e.SetBytes("y", fixedSizeBytes(pub.Y, size))

	if priv != nil {
		e.SetBytes("d", fixedSizeBytes(priv.D, size))
	}
}

// fixedSizeBytes returns the big-endian encoding of n, left-padded with
// zero bytes to exactly size bytes.
func fixedSizeBytes(n *big.Int, size int) []byte {
	buf := make([]byte, size)
	b := n.Bytes()
	copy(buf[size-len(b):], b)
	return buf
}

// validateEcdsaPrivateKey checks that key uses one of the curves defined
// by RFC7518 6.2.1.1 and that the key pair is internally consistent.
func validateEcdsaPrivateKey(key *ecdsa.PrivateKey) error {
	if err := validateEcdsaPublicKey(&key.PublicKey); err != nil {
		return err
	}
	if key.D == nil || key.D.Sign() == 0 {
		return errors.New("jwk: invalid ecdsa private key: d is zero")
	}
	if x, y := key.Curve.ScalarBaseMult(key.D.Bytes()); x.Cmp(key.X) != 0 || y.Cmp(key.Y) != 0 {
		return errors.New("jwk: invalid ecdsa private key: d does not match the public key")
	}
	return nil
}

func validateEcdsaPublicKey(key *ecdsa.PublicKey) error {
	switch key.Curve {
	case elliptic.P256(), elliptic.P384(), elliptic.P521():
	default:
		return fmt.Errorf("jwk: unsupported elliptic curve: %s", key.Curve.Params().Name)
	}
	if key.X == nil || key.Y == nil || !key.Curve.IsOnCurve(key.X, key.Y) {
		return errors.New("jwk: invalid ecdsa public key: point is not on the curve")
	}
	return nil
}

// Package akw implements AES Key Wrap key management algorithm.
package akw

import (
	"fmt"

	"github.com/kentaro-m/jwtx/internal/aeskw"
	"github.com/kentaro-m/jwtx/jwa"
	"github.com/kentaro-m/jwtx/keymanage"
)

var a128 = &Algorithm{
	keySize: 16,
}

func New128() keymanage.Algorithm {
	return a128
}

var a192 = &Algorithm{
	keySize: 24,
}

func New192() keymanage.Algorithm {
	return a192
}

var a256 = &Algorithm{
	keySize: 32,
}

func New256() keymanage.Algorithm {
	return a256
}

func init() {
	jwa.RegisterKeyManagementAlgorithm(jwa.A128KW, New128)
	jwa.RegisterKeyManagementAlgorithm(jwa.A192KW, New192)
	jwa.RegisterKeyManagementAlgorithm(jwa.A256KW, New256)
}

// NewKeyWrapper returns a key wrapper that wraps/unwraps a CEK with kek,
// without going through the [keymanage.Algorithm]/[keymanage.Key] factory.
// It is used by algorithms that derive kek themselves, such as ecdhes.
func NewKeyWrapper(kek []byte) keymanage.KeyWrapper {
	switch len(kek) {
	case 16, 24, 32:
		return &KeyWrapper{key: kek}
	}
	return keymanage.NewInvalidKeyWrapper(fmt.Errorf("akw: invalid key size: %d", len(kek)))
}

var _ keymanage.Algorithm = (*Algorithm)(nil)

type Algorithm struct {
	keySize int
}

// NewKeyWrapper implements [github.com/kentaro-m/jwtx/keymanage.Algorithm].
func (alg *Algorithm) NewKeyWrapper(key keymanage.Key) keymanage.KeyWrapper {
	privateKey := key.PrivateKey()
	kek, ok := privateKey.([]byte)
	if !ok {
		return keymanage.NewInvalidKeyWrapper(fmt.Errorf("akw: invalid private key type: []byte is required but got %T", privateKey))
	}
	if len(kek) != alg.keySize {
		return keymanage.NewInvalidKeyWrapper(fmt.Errorf("akw: invalid key size: %d is required but got %d", alg.keySize, len(kek)))
	}
	return &KeyWrapper{
		key: kek,
	}
}

var _ keymanage.KeyWrapper = (*KeyWrapper)(nil)

type KeyWrapper struct {
	key []byte
}

// WrapKey wraps cek with AES Key Wrap algorithm defined in [RFC 3394].
//
// [RFC 3394]: https://www.rfc-editor.org/rfc/rfc3394
func (w *KeyWrapper) WrapKey(cek []byte, opts any) ([]byte, error) {
	return aeskw.Wrap(w.key, cek)
}

// UnwrapKey unwraps data with AES Key Wrap algorithm defined in [RFC 3394].
//
// [RFC 3394]: https://www.rfc-editor.org/rfc/rfc3394
func (w *KeyWrapper) UnwrapKey(data []byte, opts any) ([]byte, error) {
	return aeskw.Unwrap(w.key, data)
}

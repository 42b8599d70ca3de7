// Package agcm implements content encryption with AES GCM.
package agcm

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"math"
	"sync"

	"github.com/kentaro-m/jwtx/enc"
	"github.com/kentaro-m/jwtx/internal/aesgcm"
	"github.com/kentaro-m/jwtx/jwa"
)

var a128gcm = &algorithm{
	keyLen: 16,
}

func New128() enc.Algorithm {
	return a128gcm
}

var a192gcm = &algorithm{
	keyLen: 24,
}

func New192() enc.Algorithm {
	return a192gcm
}

var a256gcm = &algorithm{
	keyLen: 32,
}

func New256() enc.Algorithm {
	return a256gcm
}

func init() {
	jwa.RegisterEncryptionAlgorithm(jwa.A128GCM, New128)
	jwa.RegisterEncryptionAlgorithm(jwa.A192GCM, New192)
	jwa.RegisterEncryptionAlgorithm(jwa.A256GCM, New256)
}

var _ enc.Algorithm = (*algorithm)(nil)

// algorithm tracks a nonce counter per content encryption key so that
// GenerateIV never repeats a nonce for the key produced by the most
// recent GenerateCEK call.
type algorithm struct {
	keyLen int

	mu      sync.Mutex
	fixed   [4]byte
	counter uint64
}

func (alg *algorithm) CEKSize() int {
	return alg.keyLen
}

func (alg *algorithm) IVSize() int {
	return aesgcm.NonceSize
}

// GenerateCEK generates a new random content encryption key and resets
// the nonce counter used by GenerateIV.
func (alg *algorithm) GenerateCEK() ([]byte, error) {
	cek := make([]byte, alg.keyLen)
	if _, err := rand.Read(cek); err != nil {
		return nil, err
	}

	alg.mu.Lock()
	defer alg.mu.Unlock()
	if _, err := rand.Read(alg.fixed[:]); err != nil {
		return nil, err
	}
	alg.counter = 0
	return cek, nil
}

// GenerateIV returns the next nonce for the current key: a random
// 4-byte prefix fixed at the last GenerateCEK call, followed by an
// 8-byte big-endian counter.
func (alg *algorithm) GenerateIV() ([]byte, error) {
	alg.mu.Lock()
	defer alg.mu.Unlock()
	if alg.counter == math.MaxUint64 {
		return nil, errors.New("agcm: nonce counter exhausted, generate a new key")
	}
	alg.counter++

	iv := make([]byte, aesgcm.NonceSize)
	copy(iv, alg.fixed[:])
	binary.BigEndian.PutUint64(iv[4:], alg.counter)
	return iv, nil
}

func (alg *algorithm) Decrypt(cek, iv, aad, ciphertext, authTag []byte) (plaintext []byte, err error) {
	sealed := make([]byte, 0, len(ciphertext)+len(authTag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, authTag...)
	return aesgcm.Open(cek, iv, sealed, aad)
}

func (alg *algorithm) Encrypt(cek, iv, aad, plaintext []byte) (ciphertext, authTag []byte, err error) {
	sealed, err := aesgcm.Seal(cek, iv, plaintext, aad)
	if err != nil {
		return nil, nil, err
	}
	n := len(sealed) - aesgcm.TagSize
	return sealed[:n], sealed[n:], nil
}

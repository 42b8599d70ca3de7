// Package aescbc implements CBC mode with PKCS#7 padding on top of
// internal/aes. It provides the block-chaining half of the
// AES-CBC-HMAC-SHA2 composite content encryption algorithms; the MAC half
// lives in internal/hmac2 and is composed by the caller.
package aescbc

import (
	"errors"

	"github.com/kentaro-m/jwtx/internal/aes"
)

var (
	ErrInvalidIVSize         = errors.New("aescbc: iv must be BlockSize bytes")
	ErrInvalidCiphertextSize = errors.New("aescbc: ciphertext is not a multiple of BlockSize")
	ErrInvalidPadding        = errors.New("aescbc: invalid padding")
)

// Encrypt PKCS#7-pads plaintext and encrypts it in CBC mode under key and
// iv. The returned ciphertext is always a multiple of aes.BlockSize.
func Encrypt(key, iv, plaintext []byte) ([]byte, error) {
	cipher, err := aes.New(key)
	if err != nil {
		return nil, err
	}
	if len(iv) != aes.BlockSize {
		return nil, ErrInvalidIVSize
	}

	padded := pad(plaintext, aes.BlockSize)
	prev := iv
	for i := 0; i < len(padded); i += aes.BlockSize {
		block := padded[i : i+aes.BlockSize]
		xorInto(block, prev)
		if err := cipher.Encrypt(block, block); err != nil {
			return nil, err
		}
		prev = block
	}
	return padded, nil
}

// Decrypt decrypts ciphertext in CBC mode under key and iv and strips the
// PKCS#7 padding, rejecting malformed padding in constant time.
func Decrypt(key, iv, ciphertext []byte) ([]byte, error) {
	cipher, err := aes.New(key)
	if err != nil {
		return nil, err
	}
	if len(iv) != aes.BlockSize {
		return nil, ErrInvalidIVSize
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, ErrInvalidCiphertextSize
	}

	plaintext := make([]byte, len(ciphertext))
	prev := iv
	for i := 0; i < len(ciphertext); i += aes.BlockSize {
		in := ciphertext[i : i+aes.BlockSize]
		out := plaintext[i : i+aes.BlockSize]
		if err := cipher.Decrypt(out, in); err != nil {
			return nil, err
		}
		xorInto(out, prev)
		prev = in
	}

	toRemove, good := extractPadding(plaintext)
	if good != 0xff {
		return nil, ErrInvalidPadding
	}
	return plaintext[:len(plaintext)-toRemove], nil
}

func xorInto(dst, src []byte) {
	for i := range dst {
		dst[i] ^= src[i]
	}
}

func pad(data []byte, size int) []byte {
	paddingLen := size - (len(data) % size)
	out := make([]byte, len(data)+paddingLen)
	copy(out, data)
	for i := len(data); i < len(out); i++ {
		out[i] = byte(paddingLen)
	}
	return out
}

// extractPadding returns, in constant time, the length of PKCS#7 padding to
// remove from the end of payload, and a byte equal to 0xff if the padding
// was well-formed or 0x00 otherwise. Modeled on the POODLE-era constant-time
// TLS CBC padding check (RFC 2246 6.2.3.2 discusses the same construction).
func extractPadding(payload []byte) (toRemove int, good byte) {
	if len(payload) < 1 {
		return 0, 0
	}

	paddingLen := payload[len(payload)-1]
	t := uint(len(payload)) - uint(paddingLen)
	good = byte(int32(^t) >> 31)
	// PKCS#7 padding is 1..BlockSize bytes: reject 0 and anything larger.
	good &^= byte(int32(uint32(paddingLen)-1) >> 31)
	good &^= byte(int32(uint32(aes.BlockSize)-uint32(paddingLen)) >> 31)

	toCheck := 256
	if toCheck > len(payload) {
		toCheck = len(payload)
	}

	for i := 1; i <= toCheck; i++ {
		t := uint(paddingLen) - uint(i)
		mask := byte(int32(^t) >> 31)
		b := payload[len(payload)-i]
		good &^= mask&paddingLen ^ mask&b
	}

	good &= good << 4
	good &= good << 2
	good &= good << 1
	good = uint8(int8(good) >> 7)

	paddingLen &= good
	toRemove = int(paddingLen)
	return
}

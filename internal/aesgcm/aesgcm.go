// Package aesgcm implements AES-GCM (NIST SP 800-38D) from scratch on top
// of internal/aes: CTR-mode keystream generation, GHASH over GF(2^128),
// and authenticated encryption/decryption with a 96-bit IV and 128-bit tag,
// as required by the JOSE A128GCM/A192GCM/A256GCM content encryption
// algorithms.
package aesgcm

import (
	"errors"

	"github.com/kentaro-m/jwtx/internal/aes"
)

const (
	NonceSize = 12
	TagSize   = 16
)

var (
	ErrInvalidNonceSize = errors.New("aesgcm: nonce must be NonceSize bytes")
	ErrAuthFailed        = errors.New("aesgcm: message authentication failed")
)

// Seal encrypts and authenticates plaintext, authenticating aad alongside
// it, and returns ciphertext followed by a TagSize-byte tag.
func Seal(key, nonce, plaintext, aad []byte) ([]byte, error) {
	cipher, h, err := newGHashCipher(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != NonceSize {
		return nil, ErrInvalidNonceSize
	}

	j0 := j0Block(nonce)
	ciphertext := make([]byte, len(plaintext)+TagSize)
	gctr(cipher, incr32(j0), plaintext, ciphertext)

	tag := ghashTag(h, cipher, j0, aad, ciphertext[:len(plaintext)])
	copy(ciphertext[len(plaintext):], tag)
	return ciphertext, nil
}

// Open authenticates and decrypts ciphertext (which must include the
// trailing TagSize-byte tag), authenticating aad alongside it.
func Open(key, nonce, ciphertext, aad []byte) ([]byte, error) {
	cipher, h, err := newGHashCipher(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != NonceSize {
		return nil, ErrInvalidNonceSize
	}
	if len(ciphertext) < TagSize {
		return nil, ErrAuthFailed
	}

	ct := ciphertext[:len(ciphertext)-TagSize]
	wantTag := ciphertext[len(ciphertext)-TagSize:]

	j0 := j0Block(nonce)
	gotTag := ghashTag(h, cipher, j0, aad, ct)
	if !constantTimeEqual(gotTag, wantTag) {
		return nil, ErrAuthFailed
	}

	plaintext := make([]byte, len(ct))
	gctr(cipher, incr32(j0), ct, plaintext)
	return plaintext, nil
}

func newGHashCipher(key []byte) (*aes.Cipher, [16]byte, error) {
	c, err := aes.New(key)
	if err != nil {
		return nil, [16]byte{}, err
	}
	var zero, h [16]byte
	if err := c.Encrypt(h[:], zero[:]); err != nil {
		return nil, [16]byte{}, err
	}
	return c, h, nil
}

func j0Block(nonce []byte) [16]byte {
	var j0 [16]byte
	copy(j0[:12], nonce)
	j0[15] = 1
	return j0
}

func incr32(block [16]byte) [16]byte {
	for i := 15; i >= 12; i-- {
		block[i]++
		if block[i] != 0 {
			break
		}
	}
	return block
}

// gctr XORs src with the AES-CTR keystream generated starting at counter
// block ctr (whose last 4 bytes form the 32-bit counter), writing into dst.
func gctr(c *aes.Cipher, ctr [16]byte, src, dst []byte) {
	var ks [16]byte
	for i := 0; i < len(src); i += 16 {
		_ = c.Encrypt(ks[:], ctr[:])
		end := i + 16
		if end > len(src) {
			end = len(src)
		}
		for j := i; j < end; j++ {
			dst[j] = src[j] ^ ks[j-i]
		}
		ctr = incr32(ctr)
	}
}

func ghashTag(h [16]byte, c *aes.Cipher, j0 [16]byte, aad, ciphertext []byte) []byte {
	y := ghash(h, aad, ciphertext)
	var e [16]byte
	_ = c.Encrypt(e[:], j0[:])
	for i := range y {
		y[i] ^= e[i]
	}
	return y[:]
}

// ghash implements GHASH_H(A || pad || C || pad || [len(A)]64 || [len(C)]64)
// per SP 800-38D section 6.4.
func ghash(h [16]byte, aad, ciphertext []byte) [16]byte {
	var y [16]byte
	y = ghashBlocks(y, h, aad)
	y = ghashBlocks(y, h, ciphertext)

	var lenBlock [16]byte
	putBigEndian64(lenBlock[0:8], uint64(len(aad))*8)
	putBigEndian64(lenBlock[8:16], uint64(len(ciphertext))*8)
	xorBlock(&y, lenBlock)
	y = gmul(y, h)
	return y
}

func ghashBlocks(y [16]byte, h [16]byte, data []byte) [16]byte {
	for i := 0; i < len(data); i += 16 {
		var block [16]byte
		n := copy(block[:], data[i:])
		_ = n
		xorBlock(&y, block)
		y = gmul(y, h)
	}
	return y
}

func xorBlock(dst *[16]byte, src [16]byte) {
	for i := range dst {
		dst[i] ^= src[i]
	}
}

// gmul multiplies x and y as elements of GF(2^128) under the GCM
// reduction polynomial (SP 800-38D Algorithm 1), using the standard
// bit-at-a-time shift-and-reduce construction.
func gmul(x, y [16]byte) [16]byte {
	var z, v [16]byte
	v = y
	for i := 0; i < 128; i++ {
		byteIdx := i / 8
		bitIdx := 7 - uint(i%8)
		if (x[byteIdx]>>bitIdx)&1 == 1 {
			xorBlock(&z, v)
		}
		lsb := v[15] & 1
		shiftRight(&v)
		if lsb == 1 {
			v[0] ^= 0xe1
		}
	}
	return z
}

func shiftRight(v *[16]byte) {
	var carry byte
	for i := 0; i < 16; i++ {
		next := v[i] & 1
		v[i] = v[i]>>1 | carry<<7
		carry = next
	}
}

func putBigEndian64(b []byte, v uint64) {
	b[0] = byte(v >> 56)
	b[1] = byte(v >> 48)
	b[2] = byte(v >> 40)
	b[3] = byte(v >> 32)
	b[4] = byte(v >> 24)
	b[5] = byte(v >> 16)
	b[6] = byte(v >> 8)
	b[7] = byte(v)
}

func constantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var v byte
	for i := range a {
		v |= a[i] ^ b[i]
	}
	return v == 0
}

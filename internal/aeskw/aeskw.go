// Package aeskw implements the AES Key Wrap algorithm (RFC 3394) on top
// of internal/aes, used to wrap/unwrap content encryption keys for the
// A128KW/A192KW/A256KW key management algorithms.
package aeskw

import (
	"errors"

	"github.com/kentaro-m/jwtx/internal/aes"
)

const chunkLen = 8

// defaultIV is the RFC 3394 Section 2.2.3.1 default initial value.
var defaultIV = [chunkLen]byte{0xa6, 0xa6, 0xa6, 0xa6, 0xa6, 0xa6, 0xa6, 0xa6}

var (
	ErrInvalidLength = errors.New("aeskw: key length must be a multiple of 8 bytes")
	ErrIntegrity     = errors.New("aeskw: integrity check failed")
)

// Wrap wraps cek under kek, returning len(cek)+8 bytes.
func Wrap(kek, cek []byte) ([]byte, error) {
	if len(cek)%chunkLen != 0 || len(cek) == 0 {
		return nil, ErrInvalidLength
	}
	block, err := aes.New(kek)
	if err != nil {
		return nil, err
	}

	n := len(cek) / chunkLen
	buf := make([]byte, len(cek)+chunkLen*2)
	r := buf[chunkLen*2:]
	copy(r, cek)

	a := buf[:chunkLen]
	b := buf[chunkLen : chunkLen*2]
	ab := buf[:chunkLen*2]
	copy(a, defaultIV[:])

	for t := 0; t < 6*n; t++ {
		copy(b, r[(t%n)*chunkLen:])
		if err := block.Encrypt(ab, ab); err != nil {
			return nil, err
		}

		u := t + 1
		a[0] ^= byte(u >> 56)
		a[1] ^= byte(u >> 48)
		a[2] ^= byte(u >> 40)
		a[3] ^= byte(u >> 32)
		a[4] ^= byte(u >> 24)
		a[5] ^= byte(u >> 16)
		a[6] ^= byte(u >> 8)
		a[7] ^= byte(u)

		copy(r[(t%n)*chunkLen:], b)
	}

	copy(b, a)
	return buf[chunkLen:], nil
}

// Unwrap reverses Wrap, returning an error if the integrity check fails.
func Unwrap(kek, data []byte) ([]byte, error) {
	if len(data)%chunkLen != 0 || len(data) < chunkLen*2 {
		return nil, ErrInvalidLength
	}
	block, err := aes.New(kek)
	if err != nil {
		return nil, err
	}

	n := (len(data) / chunkLen) - 1
	buf := make([]byte, len(data)+chunkLen)
	r := buf[chunkLen*2:]
	copy(r, data[chunkLen:])

	a := buf[:chunkLen]
	b := buf[chunkLen : chunkLen*2]
	ab := buf[:chunkLen*2]
	copy(a, data)

	for t := 0; t < 6*n; t++ {
		u := 6*n - t
		a[0] ^= byte(u >> 56)
		a[1] ^= byte(u >> 48)
		a[2] ^= byte(u >> 40)
		a[3] ^= byte(u >> 32)
		a[4] ^= byte(u >> 24)
		a[5] ^= byte(u >> 16)
		a[6] ^= byte(u >> 8)
		a[7] ^= byte(u)

		copy(b, r[((u-1)%n)*chunkLen:])
		if err := block.Decrypt(ab, ab); err != nil {
			return nil, err
		}
		copy(r[((u-1)%n)*chunkLen:], b)
	}

	var v byte
	for i := 0; i < chunkLen; i++ {
		v |= a[i] ^ defaultIV[i]
	}
	if v != 0 {
		return nil, ErrIntegrity
	}

	return buf[chunkLen*2:], nil
}

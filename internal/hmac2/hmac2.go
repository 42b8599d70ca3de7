// Package hmac2 implements HMAC over internal/sha2, the standard
// construction used by the HS* signature algorithms and by the
// AES-CBC-HMAC-SHA2 composite content encryption algorithms.
package hmac2

import "github.com/kentaro-m/jwtx/internal/sha2"

// Hash identifies which SHA-2 variant to use.
type Hash int

const (
	SHA256 Hash = iota
	SHA384
	SHA512
)

func (h Hash) size() int {
	switch h {
	case SHA256:
		return sha2.Size256
	case SHA384:
		return sha2.Size384
	default:
		return sha2.Size512
	}
}

func (h Hash) blockSize() int {
	if h == SHA256 {
		return sha2.BlockSize256
	}
	return sha2.BlockSize512
}

func (h Hash) sum(dst, src, prepend []byte) {
	switch h {
	case SHA256:
		_ = sha2.Sum256(dst, src, prepend, nil)
	case SHA384:
		_ = sha2.Sum384(dst, src, prepend, nil)
	default:
		_ = sha2.Sum512(dst, src, prepend, nil)
	}
}

// Size returns the output size in bytes of the underlying hash.
func (h Hash) Size() int { return h.size() }

// Compute writes the HMAC of data under key into dst (which must be at
// least h.Size() bytes).
func Compute(h Hash, key, data, dst []byte) {
	blockSize := h.blockSize()
	size := h.size()

	var keyBlock []byte
	if len(key) > blockSize {
		sum := make([]byte, size)
		h.sum(sum, key, nil)
		keyBlock = make([]byte, blockSize)
		copy(keyBlock, sum)
	} else {
		keyBlock = make([]byte, blockSize)
		copy(keyBlock, key)
	}

	ipad := make([]byte, blockSize)
	opad := make([]byte, blockSize)
	for i := 0; i < blockSize; i++ {
		ipad[i] = keyBlock[i] ^ 0x36
		opad[i] = keyBlock[i] ^ 0x5c
	}

	inner := make([]byte, size)
	h.sum(inner, data, ipad)

	h.sum(dst[:size], inner, opad)
}

// Sum returns the HMAC of data under key as a freshly allocated slice.
func Sum(h Hash, key, data []byte) []byte {
	dst := make([]byte, h.size())
	Compute(h, key, data, dst)
	return dst
}

// Verify reports whether tag is the correct HMAC of data under key, in
// constant time with respect to the comparison.
func Verify(h Hash, key, data, tag []byte) bool {
	want := Sum(h, key, data)
	if len(tag) != len(want) {
		return false
	}
	var v byte
	for i := range want {
		v |= want[i] ^ tag[i]
	}
	return v == 0
}

// Package sha2 implements the SHA-256/384/512 hash functions as a
// from-scratch, allocation-free primitive: the library's own measured
// bottleneck, invoked once per token on the sign/verify and encrypt/decrypt
// hot paths.
//
// Two entry points are provided for SHA-256: a scalar one-block-at-a-time
// transform, and a four-block entry point taken once golang.org/x/sys/cpu
// reports vector extensions. The four-block entry point runs the scalar
// transform over four consecutive blocks of the same message, in order; it
// has no vector or parallel implementation, so both paths produce identical
// output with the same per-block work.
package sha2

import "errors"

// ErrDestinationTooSmall is returned when dst is smaller than the digest size.
var ErrDestinationTooSmall = errors.New("sha2: destination too small")

// ErrPrependMustEqualBlockSize is returned when a non-nil prepend block is
// not exactly one block long.
var ErrPrependMustEqualBlockSize = errors.New("sha2: prepend must equal block size")

const (
	Size256 = 32
	Size384 = 48
	Size512 = 64

	BlockSize256 = 64
	BlockSize512 = 128
)

// Sum256 computes the SHA-256 digest of src and writes it into dst.
// prepend, if non-nil, must be exactly BlockSize256 bytes and is transformed
// before src (used by HMAC to fold in the padded key block without an extra
// copy). scratch, if non-nil, must have length >= 64 and is used as the
// message-schedule working memory instead of a stack allocation.
func Sum256(dst, src, prepend []byte, scratch []uint32) error {
	if len(dst) < Size256 {
		return ErrDestinationTooSmall
	}
	if prepend != nil && len(prepend) != BlockSize256 {
		return ErrPrependMustEqualBlockSize
	}
	if scratch != nil && len(scratch) < 64 {
		return errors.New("sha2: scratch must have length >= 64")
	}
	d := digest256{}
	d.reset()
	if scratch == nil {
		scratch = make([]uint32, 64)
	}
	w := (*[64]uint32)(scratch[:64])

	if prepend != nil {
		blockScalar256(&d.h, prepend, w)
	}

	n := len(src)
	i := 0
	if hasVectorSupport() {
		for ; i+4*BlockSize256 <= n; i += 4 * BlockSize256 {
			block4x256(&d.h, src[i:i+4*BlockSize256], w)
		}
	}
	for ; i+BlockSize256 <= n; i += BlockSize256 {
		blockScalar256(&d.h, src[i:i+BlockSize256], w)
	}

	// padding
	var buf [BlockSize256 * 2]byte
	copy(buf[:], src[i:])
	rem := n - i
	buf[rem] = 0x80
	bitLen := uint64(n) * 8
	if prepend != nil {
		bitLen += uint64(BlockSize256) * 8
	}
	if rem < BlockSize256-8 {
		putBigEndian64(buf[BlockSize256-8:BlockSize256], bitLen)
		blockScalar256(&d.h, buf[:BlockSize256], w)
	} else {
		putBigEndian64(buf[2*BlockSize256-8:2*BlockSize256], bitLen)
		blockScalar256(&d.h, buf[:BlockSize256], w)
		blockScalar256(&d.h, buf[BlockSize256:2*BlockSize256], w)
	}

	for i, v := range d.h {
		putBigEndian32(dst[i*4:i*4+4], v)
	}
	return nil
}

// Sum384 computes the SHA-384 digest of src into dst.
func Sum384(dst, src, prepend []byte, scratch []uint64) error {
	if len(dst) < Size384 {
		return ErrDestinationTooSmall
	}
	var full [Size512]byte
	if err := sum512generic(full[:], src, prepend, scratch, iv384); err != nil {
		return err
	}
	copy(dst, full[:Size384])
	return nil
}

// Sum512 computes the SHA-512 digest of src into dst.
func Sum512(dst, src, prepend []byte, scratch []uint64) error {
	if len(dst) < Size512 {
		return ErrDestinationTooSmall
	}
	return sum512generic(dst, src, prepend, scratch, iv512)
}

func sum512generic(dst, src, prepend []byte, scratch []uint64, iv [8]uint64) error {
	if prepend != nil && len(prepend) != BlockSize512 {
		return ErrPrependMustEqualBlockSize
	}
	if scratch != nil && len(scratch) < 80 {
		return errors.New("sha2: scratch must have length >= 80")
	}
	h := iv
	if scratch == nil {
		scratch = make([]uint64, 80)
	}
	w := (*[80]uint64)(scratch[:80])

	if prepend != nil {
		blockScalar512(&h, prepend, w)
	}

	n := len(src)
	i := 0
	for ; i+BlockSize512 <= n; i += BlockSize512 {
		blockScalar512(&h, src[i:i+BlockSize512], w)
	}

	var buf [BlockSize512 * 2]byte
	copy(buf[:], src[i:])
	rem := n - i
	buf[rem] = 0x80
	bitLen := uint64(n) * 8
	if prepend != nil {
		bitLen += uint64(BlockSize512) * 8
	}
	if rem < BlockSize512-8 {
		putBigEndian64(buf[BlockSize512-8:BlockSize512], bitLen)
		blockScalar512(&h, buf[:BlockSize512], w)
	} else {
		putBigEndian64(buf[2*BlockSize512-8:2*BlockSize512], bitLen)
		blockScalar512(&h, buf[:BlockSize512], w)
		blockScalar512(&h, buf[BlockSize512:2*BlockSize512], w)
	}

	for i, v := range h {
		putBigEndian64(dst[i*8:i*8+8], v)
	}
	return nil
}

type digest256 struct {
	h [8]uint32
}

func (d *digest256) reset() {
	d.h = iv256
}

func putBigEndian32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
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

// Package aes implements the AES block cipher (FIPS-197) from scratch:
// key expansion for 128/192/256-bit keys and single-block encrypt/decrypt.
// Callers needing a mode of operation use internal/aescbc, internal/aesgcm,
// or internal/aeskw, which are built on top of this package.
package aes

import "errors"

const BlockSize = 16

var (
	ErrKeySize       = errors.New("aes: invalid key size")
	ErrInputSize     = errors.New("aes: input must be exactly BlockSize bytes")
	ErrOutputTooSmall = errors.New("aes: output buffer smaller than BlockSize")
)

// Cipher holds an expanded AES key schedule.
type Cipher struct {
	roundKeys [][4]byte // len = 4 * (nr+1) words of 4 bytes each
	nr        int
}

// New expands key (16, 24, or 32 bytes, selecting AES-128/192/256) into a
// Cipher ready for block encryption/decryption.
func New(key []byte) (*Cipher, error) {
	var nk, nr int
	switch len(key) {
	case 16:
		nk, nr = 4, 10
	case 24:
		nk, nr = 6, 12
	case 32:
		nk, nr = 8, 14
	default:
		return nil, ErrKeySize
	}

	nb := 4
	words := make([][4]byte, nb*(nr+1))
	for i := 0; i < nk; i++ {
		words[i] = [4]byte{key[4*i], key[4*i+1], key[4*i+2], key[4*i+3]}
	}

	var temp [4]byte
	for i := nk; i < nb*(nr+1); i++ {
		temp = words[i-1]
		if i%nk == 0 {
			temp = subWord(rotWord(temp))
			temp[0] ^= rcon[i/nk]
		} else if nk > 6 && i%nk == 4 {
			temp = subWord(temp)
		}
		words[i] = [4]byte{
			words[i-nk][0] ^ temp[0],
			words[i-nk][1] ^ temp[1],
			words[i-nk][2] ^ temp[2],
			words[i-nk][3] ^ temp[3],
		}
	}

	return &Cipher{roundKeys: words, nr: nr}, nil
}

func rotWord(w [4]byte) [4]byte {
	return [4]byte{w[1], w[2], w[3], w[0]}
}

func subWord(w [4]byte) [4]byte {
	return [4]byte{sbox[w[0]], sbox[w[1]], sbox[w[2]], sbox[w[3]]}
}

// state is the 4x4 column-major byte matrix FIPS-197 operates on:
// state[r][c] corresponds to input byte r+4*c.
type state [4][4]byte

func toState(in []byte) state {
	var s state
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			s[r][c] = in[r+4*c]
		}
	}
	return s
}

func (s state) writeTo(out []byte) {
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			out[r+4*c] = s[r][c]
		}
	}
}

func (s *state) addRoundKey(roundKeys [][4]byte, round int) {
	for c := 0; c < 4; c++ {
		w := roundKeys[round*4+c]
		for r := 0; r < 4; r++ {
			s[r][c] ^= w[r]
		}
	}
}

func (s *state) subBytes() {
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			s[r][c] = sbox[s[r][c]]
		}
	}
}

func (s *state) invSubBytes() {
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			s[r][c] = invSBox[s[r][c]]
		}
	}
}

func (s *state) shiftRows() {
	s[1][0], s[1][1], s[1][2], s[1][3] = s[1][1], s[1][2], s[1][3], s[1][0]
	s[2][0], s[2][1], s[2][2], s[2][3] = s[2][2], s[2][3], s[2][0], s[2][1]
	s[3][0], s[3][1], s[3][2], s[3][3] = s[3][3], s[3][0], s[3][1], s[3][2]
}

func (s *state) invShiftRows() {
	s[1][0], s[1][1], s[1][2], s[1][3] = s[1][3], s[1][0], s[1][1], s[1][2]
	s[2][0], s[2][1], s[2][2], s[2][3] = s[2][2], s[2][3], s[2][0], s[2][1]
	s[3][0], s[3][1], s[3][2], s[3][3] = s[3][1], s[3][2], s[3][3], s[3][0]
}

// gmul multiplies two bytes in GF(2^8) modulo the AES reduction
// polynomial x^8+x^4+x^3+x+1 (0x11b).
func gmul(a, b byte) byte {
	var p byte
	for i := 0; i < 8; i++ {
		if b&1 != 0 {
			p ^= a
		}
		hi := a & 0x80
		a <<= 1
		if hi != 0 {
			a ^= 0x1b
		}
		b >>= 1
	}
	return p
}

func (s *state) mixColumns() {
	for c := 0; c < 4; c++ {
		a0, a1, a2, a3 := s[0][c], s[1][c], s[2][c], s[3][c]
		s[0][c] = gmul(a0, 2) ^ gmul(a1, 3) ^ a2 ^ a3
		s[1][c] = a0 ^ gmul(a1, 2) ^ gmul(a2, 3) ^ a3
		s[2][c] = a0 ^ a1 ^ gmul(a2, 2) ^ gmul(a3, 3)
		s[3][c] = gmul(a0, 3) ^ a1 ^ a2 ^ gmul(a3, 2)
	}
}

func (s *state) invMixColumns() {
	for c := 0; c < 4; c++ {
		a0, a1, a2, a3 := s[0][c], s[1][c], s[2][c], s[3][c]
		s[0][c] = gmul(a0, 0x0e) ^ gmul(a1, 0x0b) ^ gmul(a2, 0x0d) ^ gmul(a3, 0x09)
		s[1][c] = gmul(a0, 0x09) ^ gmul(a1, 0x0e) ^ gmul(a2, 0x0b) ^ gmul(a3, 0x0d)
		s[2][c] = gmul(a0, 0x0d) ^ gmul(a1, 0x09) ^ gmul(a2, 0x0e) ^ gmul(a3, 0x0b)
		s[3][c] = gmul(a0, 0x0b) ^ gmul(a1, 0x0d) ^ gmul(a2, 0x09) ^ gmul(a3, 0x0e)
	}
}

// Encrypt encrypts the single block in into out (FIPS-197 Algorithm 1).
func (c *Cipher) Encrypt(out, in []byte) error {
	if len(in) != BlockSize {
		return ErrInputSize
	}
	if len(out) < BlockSize {
		return ErrOutputTooSmall
	}

	s := toState(in)
	s.addRoundKey(c.roundKeys, 0)
	for round := 1; round < c.nr; round++ {
		s.subBytes()
		s.shiftRows()
		s.mixColumns()
		s.addRoundKey(c.roundKeys, round)
	}
	s.subBytes()
	s.shiftRows()
	s.addRoundKey(c.roundKeys, c.nr)

	s.writeTo(out[:BlockSize])
	return nil
}

// Decrypt decrypts the single block in into out (FIPS-197 Algorithm 2,
// the straightforward inverse cipher).
func (c *Cipher) Decrypt(out, in []byte) error {
	if len(in) != BlockSize {
		return ErrInputSize
	}
	if len(out) < BlockSize {
		return ErrOutputTooSmall
	}

	s := toState(in)
	s.addRoundKey(c.roundKeys, c.nr)
	for round := c.nr - 1; round >= 1; round-- {
		s.invShiftRows()
		s.invSubBytes()
		s.addRoundKey(c.roundKeys, round)
		s.invMixColumns()
	}
	s.invShiftRows()
	s.invSubBytes()
	s.addRoundKey(c.roundKeys, 0)

	s.writeTo(out[:BlockSize])
	return nil
}

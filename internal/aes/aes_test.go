package aes

import (
	"bytes"
	"encoding/hex"
	"testing"
)

// FIPS-197 Appendix C known-answer vectors.
func TestEncryptVectors(t *testing.T) {
	cases := []struct {
		key        string
		plaintext  string
		ciphertext string
	}{
		{
			"000102030405060708090a0b0c0d0e0f",
			"00112233445566778899aabbccddeeff",
			"69c4e0d86a7b0430d8cdb78070b4c55a",
		},
		{
			"000102030405060708090a0b0c0d0e0f1011121314151617",
			"00112233445566778899aabbccddeeff",
			"dda97ca4864cdfe06eaf70a0ec0d7191",
		},
		{
			"000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f",
			"00112233445566778899aabbccddeeff",
			"8ea2b7ca516745bfeafc49904b496089",
		},
	}

	for _, c := range cases {
		key, _ := hex.DecodeString(c.key)
		pt, _ := hex.DecodeString(c.plaintext)
		want, _ := hex.DecodeString(c.ciphertext)

		cipher, err := New(key)
		if err != nil {
			t.Fatalf("New(%d bytes): %v", len(key), err)
		}

		got := make([]byte, BlockSize)
		if err := cipher.Encrypt(got, pt); err != nil {
			t.Fatalf("Encrypt: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("Encrypt with %d-bit key = %x, want %x", len(key)*8, got, want)
		}

		back := make([]byte, BlockSize)
		if err := cipher.Decrypt(back, got); err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		if !bytes.Equal(back, pt) {
			t.Errorf("Decrypt(Encrypt(pt)) = %x, want %x", back, pt)
		}
	}
}

func TestInvalidKeySize(t *testing.T) {
	if _, err := New(make([]byte, 20)); err != ErrKeySize {
		t.Errorf("expected ErrKeySize, got %v", err)
	}
}

func TestInvalidBlockSize(t *testing.T) {
	c, err := New(make([]byte, 16))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Encrypt(make([]byte, BlockSize), make([]byte, 10)); err != ErrInputSize {
		t.Errorf("expected ErrInputSize, got %v", err)
	}
	if err := c.Encrypt(make([]byte, 4), make([]byte, BlockSize)); err != ErrOutputTooSmall {
		t.Errorf("expected ErrOutputTooSmall, got %v", err)
	}
}

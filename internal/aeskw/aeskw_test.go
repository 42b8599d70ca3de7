package aeskw

import (
	"bytes"
	"encoding/hex"
	"testing"
)

// RFC 3394 Section 4.1 and 4.3 known-answer vectors.
func TestWrapVectors(t *testing.T) {
	cases := []struct {
		kek     string
		keyData string
		wrapped string
	}{
		{
			kek:     "000102030405060708090A0B0C0D0E0F",
			keyData: "00112233445566778899AABBCCDDEEFF",
			wrapped: "1FA68B0A8112B447AEF34BD8FB5A7B829D3E862371D2CFE5",
		},
		{
			kek:     "000102030405060708090A0B0C0D0E0F101112131415161718191A1B1C1D1E1F",
			keyData: "00112233445566778899AABBCCDDEEFF",
			wrapped: "64E8C3F9CE0F5BA263E9777905818A2A93C8191E7D6E8AE7",
		},
	}

	for _, c := range cases {
		kek, _ := hex.DecodeString(c.kek)
		keyData, _ := hex.DecodeString(c.keyData)
		want, _ := hex.DecodeString(c.wrapped)

		got, err := Wrap(kek, keyData)
		if err != nil {
			t.Fatalf("Wrap: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("Wrap(%d-bit kek) = %x, want %x", len(kek)*8, got, want)
		}

		back, err := Unwrap(kek, got)
		if err != nil {
			t.Fatalf("Unwrap: %v", err)
		}
		if !bytes.Equal(back, keyData) {
			t.Errorf("Unwrap(Wrap(key)) = %x, want %x", back, keyData)
		}
	}
}

func TestUnwrapIntegrityFailure(t *testing.T) {
	kek, _ := hex.DecodeString("000102030405060708090A0B0C0D0E0F")
	keyData, _ := hex.DecodeString("00112233445566778899AABBCCDDEEFF")

	wrapped, err := Wrap(kek, keyData)
	if err != nil {
		t.Fatal(err)
	}
	wrapped[0] ^= 0x01

	if _, err := Unwrap(kek, wrapped); err != ErrIntegrity {
		t.Errorf("expected ErrIntegrity, got %v", err)
	}
}

func TestInvalidLength(t *testing.T) {
	kek, _ := hex.DecodeString("000102030405060708090A0B0C0D0E0F")
	if _, err := Wrap(kek, make([]byte, 5)); err != ErrInvalidLength {
		t.Errorf("expected ErrInvalidLength, got %v", err)
	}
}

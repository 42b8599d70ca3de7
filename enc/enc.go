// package enc provides interfaces for Content Encryption.
package enc

// Algorithm is an algorithm for encryption.
type Algorithm interface {
	// CEKSize returns the byte size of CEK(Content Encryption Key) for the algorithm.
	CEKSize() int

	// IVSize returns the byte size of IV(Initialization Vector) for the algorithm.
	IVSize() int

	// GenerateCEK generates a new random Content Encryption Key.
	GenerateCEK() ([]byte, error)

	// GenerateIV generates a new Initialization Vector: random for AES-CBC,
	// a random per-key prefix followed by a counter for AES-GCM.
	GenerateIV() ([]byte, error)

	// Decrypt decrypts and verifies ciphertext.
	Decrypt(cek, iv, aad, ciphertext, authTag []byte) (plaintext []byte, err error)

	// Encrypt encrypts and signs plaintext.
	Encrypt(cek, iv, aad, plaintext []byte) (ciphertext, authTag []byte, err error)
}

package models

// -----------------------------------------------------------------------------

// Cipher is the minimal interface that must be implemented by all field encryption engines.
type Cipher interface {
	// KeyLen returns the length of the key the cipher was created from.
	KeyLen() int

	// Encrypt encrypts the given plaintext and returns a self-contained envelope.
	Encrypt(plaintext []byte) ([]byte, error)
	// Decrypt decrypts an envelope produced by Encrypt.
	Decrypt(ciphertext []byte) ([]byte, error)

	// Zeroize wipes the key material held by the cipher. The cipher must not be used afterward.
	Zeroize()
}

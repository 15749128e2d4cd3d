package aes_cbc

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"io"
	"sync"

	"github.com/mxmauro/cryptodb/crypto/cbc"
	"github.com/mxmauro/cryptodb/models"
	"github.com/mxmauro/cryptodb/util"
)

// -----------------------------------------------------------------------------

const (
	aesKeyLen = 32
)

// -----------------------------------------------------------------------------

type aesCbcCipher struct {
	r io.Reader

	mtx   sync.RWMutex
	block cipher.Block
}

// -----------------------------------------------------------------------------

// GenerateKey generates a new AES-256 key. A nil reader selects crypto/rand.Reader.
func GenerateKey(r io.Reader) ([]byte, error) {
	if r == nil {
		r = rand.Reader
	}

	// Generate a 256bit key.
	key := make([]byte, aesKeyLen)
	_, err := io.ReadFull(r, key)
	if err != nil {
		util.SafeZeroMem(key)
		return nil, util.NewExtendedError(models.ErrEntropySourceUnavailable, "unable to generate aes key")
	}

	// Done.
	return key, nil
}

// NewFromKey creates a new AES-256-CBC cipher object from the given key.
func NewFromKey(key []byte, r io.Reader) (models.Cipher, error) {
	if len(key) != aesKeyLen {
		return nil, util.NewExtendedError(models.ErrInvalidKey, "key must be 32 bytes long")
	}

	// Create the AES cipher.
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, util.NewExtendedError(err, "failed to create cipher")
	}

	// Create a cipher object.
	c := &aesCbcCipher{
		r:     r,
		block: block,
	}

	// Done.
	return c, nil
}

// KeyLen returns the length of the key used by the AES-CBC cipher.
func (c *aesCbcCipher) KeyLen() int {
	return aesKeyLen
}

// Encrypt encrypts the given plaintext using the AES-CBC cipher, returning IV || ciphertext.
func (c *aesCbcCipher) Encrypt(plaintext []byte) ([]byte, error) {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	if c.block == nil {
		return nil, models.ErrCipherZeroized
	}
	return cbc.Encrypt(c.block, plaintext, nil, c.r)
}

// Decrypt decrypts the given envelope using the AES-CBC cipher.
func (c *aesCbcCipher) Decrypt(ciphertext []byte) ([]byte, error) {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	if c.block == nil {
		return nil, models.ErrCipherZeroized
	}
	return cbc.Decrypt(c.block, ciphertext)
}

// Zeroize drops the AES block. The expanded schedule lives inside crypto/aes and is released to the
// garbage collector rather than wiped.
func (c *aesCbcCipher) Zeroize() {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	c.block = nil
}

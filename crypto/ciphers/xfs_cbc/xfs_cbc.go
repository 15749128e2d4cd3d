package xfs_cbc

import (
	"crypto/rand"
	"io"
	"sync"

	"github.com/mxmauro/cryptodb/crypto/cbc"
	"github.com/mxmauro/cryptodb/crypto/xfs"
	"github.com/mxmauro/cryptodb/models"
	"github.com/mxmauro/cryptodb/util"
)

// -----------------------------------------------------------------------------

const (
	generatedKeyLen = 32
)

// -----------------------------------------------------------------------------

type xfsCbcCipher struct {
	r      io.Reader
	keyLen int

	mtx sync.RWMutex
	ctx *xfs.Context
}

// -----------------------------------------------------------------------------

// GenerateKey generates a new random XFS key. A nil reader selects crypto/rand.Reader.
func GenerateKey(r io.Reader) ([]byte, error) {
	if r == nil {
		r = rand.Reader
	}

	key := make([]byte, generatedKeyLen)

	_, err := io.ReadFull(r, key)
	if err != nil {
		util.SafeZeroMem(key)
		return nil, util.NewExtendedError(models.ErrEntropySourceUnavailable, "unable to generate xfs key")
	}

	// Done.
	return key, nil
}

// NewFromKey creates a new XFS-CBC cipher object from the given key using the default number of
// rounds. The key can be between 1 and 64 bytes long. The caller keeps ownership of key.
func NewFromKey(key []byte, r io.Reader) (models.Cipher, error) {
	return NewFromKeyWithRounds(key, xfs.DefaultRounds, r)
}

// NewFromKeyWithRounds is like NewFromKey but with a custom number of rounds.
func NewFromKeyWithRounds(key []byte, rounds int, r io.Reader) (models.Cipher, error) {
	ctx, err := xfs.New(key, rounds)
	if err != nil {
		return nil, err
	}

	// Create a cipher object.
	c := &xfsCbcCipher{
		r:      r,
		keyLen: len(key),
		ctx:    ctx,
	}

	// Done.
	return c, nil
}

// KeyLen returns the length of the key the cipher was created from.
func (c *xfsCbcCipher) KeyLen() int {
	return c.keyLen
}

// Encrypt encrypts the given plaintext, returning IV || ciphertext.
func (c *xfsCbcCipher) Encrypt(plaintext []byte) ([]byte, error) {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	if c.ctx == nil {
		return nil, models.ErrCipherZeroized
	}
	return cbc.Encrypt(c.ctx, plaintext, nil, c.r)
}

// Decrypt decrypts an envelope produced by Encrypt.
func (c *xfsCbcCipher) Decrypt(ciphertext []byte) ([]byte, error) {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	if c.ctx == nil {
		return nil, models.ErrCipherZeroized
	}
	return cbc.Decrypt(c.ctx, ciphertext)
}

// Zeroize wipes the expanded key. Later calls to Encrypt or Decrypt fail.
func (c *xfsCbcCipher) Zeroize() {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.ctx != nil {
		c.ctx.Zeroize()
		c.ctx = nil
	}
}

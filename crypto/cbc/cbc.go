// Package cbc implements PKCS#7 padded cipher block chaining over any cipher.Block.
package cbc

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"
	"io"

	"github.com/mxmauro/cryptodb/crypto/padding"
	"github.com/mxmauro/cryptodb/models"
	"github.com/mxmauro/cryptodb/util"
)

// -----------------------------------------------------------------------------

// Encrypt pads plaintext and encrypts it in CBC mode, returning IV || ciphertext.
//
// If iv is nil, a fresh IV is read from rg, or from crypto/rand.Reader when rg is nil. A supplied
// IV must be exactly one block long and must never be reused with the same key. The output carries
// no integrity tag.
func Encrypt(block cipher.Block, plaintext []byte, iv []byte, rg io.Reader) ([]byte, error) {
	var padded []byte

	blockSize := block.BlockSize()
	if iv != nil && len(iv) != blockSize {
		return nil, util.NewExtendedError(models.ErrInvalidLength, "iv length must equal block size")
	}

	envelopeSize, err := EnvelopeSize(len(plaintext), blockSize)
	if err != nil {
		return nil, err
	}

	// Zero-ize on exit.
	defer func() {
		util.SafeZeroMem(padded)
	}()

	// Pad the plaintext.
	padded, err = padding.Pad(plaintext, blockSize)
	if err != nil {
		return nil, err
	}

	// Set up the IV.
	envelope := make([]byte, envelopeSize)
	if iv != nil {
		copy(envelope[:blockSize], iv)
	} else {
		if rg == nil {
			rg = rand.Reader
		}
		_, err = io.ReadFull(rg, envelope[:blockSize])
		if err != nil {
			return nil, util.NewExtendedError(models.ErrEntropySourceUnavailable, "unable to generate iv")
		}
	}

	// Chain blocks. The padded buffer is XORed in place and wiped on exit.
	prev := envelope[:blockSize]
	for ofs := 0; ofs < len(padded); ofs += blockSize {
		chunk := padded[ofs : ofs+blockSize]
		subtle.XORBytes(chunk, chunk, prev)

		out := envelope[blockSize+ofs : blockSize+ofs+blockSize]
		block.Encrypt(out, chunk)
		prev = out
	}

	// Done.
	return envelope, nil
}

// Decrypt decrypts an envelope produced by Encrypt and strips its padding.
//
// Envelope length is validated before any block is decrypted. Every failure past that point is
// reported as models.ErrInvalidPadding: a wrong key and corrupted data are indistinguishable.
func Decrypt(block cipher.Block, envelope []byte) ([]byte, error) {
	var work []byte

	blockSize := block.BlockSize()
	iv, ciphertext, err := SplitEnvelope(envelope, blockSize)
	if err != nil {
		return nil, err
	}

	// Zero-ize on exit.
	defer func() {
		util.SafeZeroMem(work)
	}()

	// Unchain blocks. The chaining value is always the previous ciphertext block.
	work = make([]byte, len(ciphertext))
	prev := iv
	for ofs := 0; ofs < len(ciphertext); ofs += blockSize {
		in := ciphertext[ofs : ofs+blockSize]
		out := work[ofs : ofs+blockSize]

		block.Decrypt(out, in)
		subtle.XORBytes(out, out, prev)
		prev = in
	}

	// Remove padding.
	unpadded, err := padding.Unpad(work, blockSize)
	if err != nil {
		return nil, err
	}

	// Done.
	return util.CloneBytes(unpadded), nil
}

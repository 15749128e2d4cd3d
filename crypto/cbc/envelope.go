package cbc

import (
	"math"

	"github.com/mxmauro/cryptodb/models"
	"github.com/mxmauro/cryptodb/util"
)

// -----------------------------------------------------------------------------

// EnvelopeSize returns the size of the envelope produced when encrypting plaintextLen bytes with a
// block cipher of the given block size: one IV block plus the padded ciphertext.
func EnvelopeSize(plaintextLen int, blockSize int) (int, error) {
	if plaintextLen < 0 || blockSize < 1 {
		return 0, models.ErrInvalidLength
	}
	if plaintextLen > math.MaxInt-2*blockSize {
		return 0, models.ErrAllocationFailure
	}
	padded := plaintextLen + blockSize - (plaintextLen % blockSize)
	return blockSize + padded, nil
}

// ValidateEnvelope checks that envelope holds an IV followed by at least one full ciphertext block.
func ValidateEnvelope(envelope []byte, blockSize int) error {
	envelopeLen := len(envelope)
	if blockSize < 1 || envelopeLen < 2*blockSize || (envelopeLen-blockSize)%blockSize != 0 {
		return util.NewExtendedError(models.ErrInvalidLength, "malformed envelope")
	}
	return nil
}

// SplitEnvelope validates envelope and returns its IV and ciphertext parts. Both alias envelope.
func SplitEnvelope(envelope []byte, blockSize int) (iv []byte, ciphertext []byte, err error) {
	err = ValidateEnvelope(envelope, blockSize)
	if err != nil {
		return nil, nil, err
	}
	return envelope[:blockSize], envelope[blockSize:], nil
}

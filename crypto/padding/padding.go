// Package padding implements PKCS#7 padding for block sizes between 1 and 255 bytes.
package padding

import (
	"crypto/subtle"
	"errors"
	"math"

	"github.com/mxmauro/cryptodb/models"
)

// -----------------------------------------------------------------------------

const (
	// MaxBlockSize is the largest block size PKCS#7 can express, since the pad count is a single byte.
	MaxBlockSize = 255
)

// -----------------------------------------------------------------------------

var ErrInvalidBlockSize = errors.New("block size must be between 1 and 255")

// -----------------------------------------------------------------------------

// Pad returns a new buffer holding data followed by 1..blockSize bytes, each set to the number of
// bytes appended. A buffer that is already block-aligned gets a full extra block. The input is
// never modified nor aliased.
func Pad(data []byte, blockSize int) ([]byte, error) {
	if blockSize < 1 || blockSize > MaxBlockSize {
		return nil, ErrInvalidBlockSize
	}

	dataLen := len(data)
	if dataLen > math.MaxInt-blockSize {
		return nil, models.ErrAllocationFailure
	}

	// The remainder is always in 0..blockSize-1, so pad is at least 1.
	pad := blockSize - (dataLen % blockSize)

	padded := make([]byte, dataLen+pad)
	copy(padded, data)
	for idx := dataLen; idx < len(padded); idx++ {
		padded[idx] = byte(pad)
	}

	// Done.
	return padded, nil
}

// Unpad validates the PKCS#7 padding of data and returns the unpadded prefix. The returned slice
// aliases data.
//
// The whole last block is inspected and mismatches are accumulated with constant-time primitives,
// so the time taken does not depend on which padding byte differs.
func Unpad(data []byte, blockSize int) ([]byte, error) {
	if blockSize < 1 || blockSize > MaxBlockSize {
		return nil, ErrInvalidBlockSize
	}

	dataLen := len(data)
	if dataLen == 0 || dataLen%blockSize != 0 {
		return nil, models.ErrInvalidPadding
	}

	pad := int(data[dataLen-1])
	good := subtle.ConstantTimeLessOrEq(1, pad) & subtle.ConstantTimeLessOrEq(pad, blockSize)

	lastBlock := data[dataLen-blockSize:]
	for idx := 0; idx < blockSize; idx++ {
		// Distance from the end of the buffer, the last byte being 1.
		distance := blockSize - idx

		inPadding := subtle.ConstantTimeLessOrEq(distance, pad)
		matches := subtle.ConstantTimeByteEq(lastBlock[idx], byte(pad))
		good &= subtle.ConstantTimeSelect(inPadding, matches, 1)
	}
	if good != 1 {
		return nil, models.ErrInvalidPadding
	}

	// Done.
	return data[:dataLen-pad], nil
}

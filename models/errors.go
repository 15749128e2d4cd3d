package models

import (
	"errors"
)

// -----------------------------------------------------------------------------

// Failure taxonomy shared by the cipher core packages. Each value is returned as-is or wrapped with
// util.NewExtendedError, so callers must match them with errors.Is.
var (
	// ErrInvalidKey is returned when a key is empty or too long, or the requested round count is
	// outside the supported range.
	ErrInvalidKey = errors.New("invalid key")

	// ErrInvalidLength is returned when an envelope or an IV does not have a valid size.
	ErrInvalidLength = errors.New("invalid length")

	// ErrInvalidPadding is returned when the padding of a decrypted buffer is inconsistent. With no
	// integrity tag, a wrong key and corrupted data both end up here.
	ErrInvalidPadding = errors.New("invalid padding")

	// ErrAllocationFailure is returned when an output buffer size cannot be represented.
	ErrAllocationFailure = errors.New("allocation failure")

	// ErrEntropySourceUnavailable is returned when an IV cannot be read from the random source.
	ErrEntropySourceUnavailable = errors.New("entropy source unavailable")

	// ErrCipherZeroized is returned by engine ciphers used after their key material was wiped.
	ErrCipherZeroized = errors.New("cipher zeroized")
)

package cryptodb

import (
	"errors"

	"github.com/mxmauro/cryptodb/crypto/ciphers"
	"github.com/mxmauro/cryptodb/models"
)

// -----------------------------------------------------------------------------

var (
	// ErrNoEncryptionKeysAvailable is returned by `Seal` when no key was added to the protector.
	ErrNoEncryptionKeysAvailable = errors.New("no encryption keys available")

	// ErrKeyNotFound is returned when a key ID is not known by the protector.
	ErrKeyNotFound = errors.New("encryption key not found")

	// ErrActiveKeyRemoval is returned by `RemoveKey` when trying to remove the active key.
	ErrActiveKeyRemoval = errors.New("cannot remove the active encryption key")

	// ErrInvalidKeyShares is returned by `AddKeyFromShares` when the shares do not rebuild a valid key,
	// for example because fewer shares than the threshold were provided.
	ErrInvalidKeyShares = errors.New("invalid key shares")

	// ErrDuplicatedKeyID is returned when restoring a key whose ID is already in use.
	ErrDuplicatedKeyID = errors.New("duplicated encryption key ID")

	ErrInvalidShareParameters = errors.New("invalid shares or threshold parameter")
	ErrInvalidSealedData      = errors.New("invalid sealed data")
	ErrInvalidFieldPath       = errors.New("invalid record or field name")
	ErrNotFound               = errors.New("not found")
	ErrNoStorage              = errors.New("no storage configured")
)

// Errors raised by the cipher core, re-exported for callers of this package.
var (
	ErrEngineNotSupported       = ciphers.ErrEngineNotSupported
	ErrInvalidKey               = models.ErrInvalidKey
	ErrInvalidLength            = models.ErrInvalidLength
	ErrInvalidPadding           = models.ErrInvalidPadding
	ErrAllocationFailure        = models.ErrAllocationFailure
	ErrEntropySourceUnavailable = models.ErrEntropySourceUnavailable
)

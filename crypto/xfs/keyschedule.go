package xfs

import (
	"github.com/mxmauro/cryptodb/models"
	"github.com/mxmauro/cryptodb/util"
	"golang.org/x/crypto/blake2b"
)

// -----------------------------------------------------------------------------

var keyScheduleLabel = []byte("xfs/key-schedule/v1")

// -----------------------------------------------------------------------------

// ExpandKey derives rounds independent 16-byte subkeys from key. The same key and round count
// always yield the same schedule.
//
// Each subkey is a keyed BLAKE2b-128 digest of a fixed label, the round count and the round index.
// The user key is the BLAKE2b key, which is why keys are capped at 64 bytes. The hasher keeps a
// padded copy of the key in unexported state that cannot be wiped, so a single hasher is shared by
// all rounds and that copy lives until the hasher is garbage collected.
func ExpandKey(key []byte, rounds int) ([][]byte, error) {
	var info [2]byte

	if len(key) == 0 || len(key) > MaxKeySize {
		return nil, util.NewExtendedError(models.ErrInvalidKey, "key must be between 1 and 64 bytes long")
	}
	if rounds < 1 || rounds > MaxRounds {
		return nil, util.NewExtendedError(models.ErrInvalidKey, "rounds must be between 1 and 32")
	}

	roundKeys := make([][]byte, 0, rounds)

	// Zero-ize on failure.
	success := false
	defer func() {
		if !success {
			util.SafeZeroMemArray(roundKeys)
		}
	}()

	h, err := blake2b.New(SubkeySize, key)
	if err != nil {
		return nil, util.NewExtendedError(models.ErrInvalidKey, "unable to initialize key schedule")
	}

	info[0] = byte(rounds)
	for idx := 0; idx < rounds; idx++ {
		// Reset re-absorbs the key, so every subkey is an independent keyed digest.
		h.Reset()

		info[1] = byte(idx)
		_, _ = h.Write(keyScheduleLabel)
		_, _ = h.Write(info[:])
		roundKeys = append(roundKeys, h.Sum(nil))
	}

	// Done
	success = true
	return roundKeys, nil
}

package cryptodb

import (
	bstd "github.com/deneonet/benc/std"
	"github.com/google/uuid"
	"github.com/mxmauro/cryptodb/util"
)

// -----------------------------------------------------------------------------

const (
	sealedRecordVersion = 1
)

// -----------------------------------------------------------------------------

// sealedRecord is the persisted form of a protected field value: the ID of the key that sealed it
// and the engine envelope.
type sealedRecord struct {
	keyID    uuid.UUID
	envelope []byte
}

// -----------------------------------------------------------------------------

func deserializeSealedRecord(buf []byte) (sealedRecord, error) {
	var keyID []byte

	bufSize := len(buf)
	if bufSize <= bstd.SizeUint16() {
		return sealedRecord{}, ErrInvalidSealedData
	}

	// Initialize record.
	sr := sealedRecord{}

	// Deserialize data.
	ofs, version, err := bstd.UnmarshalUint16(0, buf)
	if err != nil {
		return sealedRecord{}, ErrInvalidSealedData
	}
	switch version {
	case 1:
		ofs, keyID, err = bstd.UnmarshalBytesCopied(ofs, buf)
		if err != nil {
			return sealedRecord{}, ErrInvalidSealedData
		}
		sr.keyID, err = uuid.FromBytes(keyID)
		if err != nil {
			return sealedRecord{}, ErrInvalidSealedData
		}
		ofs, sr.envelope, err = bstd.UnmarshalBytesCopied(ofs, buf)
		if err != nil {
			return sealedRecord{}, ErrInvalidSealedData
		}

	default:
		return sealedRecord{}, util.NewExtendedError(ErrInvalidSealedData, "unsupported sealed record version")
	}

	// Check if we reached the end of the buffer.
	if ofs != bufSize {
		return sealedRecord{}, ErrInvalidSealedData
	}

	// Done
	return sr, nil
}

func (sr *sealedRecord) Serialize() []byte {
	bufSize := bstd.SizeUint16() + bstd.SizeBytes(sr.keyID[:]) + bstd.SizeBytes(sr.envelope)
	buf := make([]byte, bufSize)

	ofs := bstd.MarshalUint16(0, buf, sealedRecordVersion)
	ofs = bstd.MarshalBytes(ofs, buf, sr.keyID[:])
	_ = bstd.MarshalBytes(ofs, buf, sr.envelope)

	// Done
	return buf
}

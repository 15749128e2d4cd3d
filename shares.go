package cryptodb

import (
	bstd "github.com/deneonet/benc/std"
	"github.com/google/uuid"
	"github.com/mxmauro/cryptodb/crypto/ciphers"
	"github.com/mxmauro/cryptodb/util"
	"github.com/mxmauro/shamir"
)

// -----------------------------------------------------------------------------

const (
	keyShareVersion = 1

	maxKeyShares = 255
)

// -----------------------------------------------------------------------------

// sharedKey is the secret split into shares: the key ID, so restored keys keep opening values
// sealed before, plus the engine and the raw key.
type sharedKey struct {
	id     uuid.UUID
	engine string
	key    []byte
}

// -----------------------------------------------------------------------------

// GenerateKeyShares creates a random key for the given engine, adds it as the active key and
// returns it split into the given number of shares. Any threshold-many shares rebuild it with
// AddKeyFromShares. The protector keeps none of the shares.
func (p *Protector) GenerateKeyShares(engine string, shares int, threshold int) (uuid.UUID, [][]byte, error) {
	var pk *protectorKey
	var serialized []byte
	var splitKey [][]byte

	if !ciphers.IsEngineSupported(engine) {
		return uuid.Nil, nil, ErrEngineNotSupported
	}

	// Verify key split parameters.
	if shares == 1 {
		if threshold != 1 {
			return uuid.Nil, nil, ErrInvalidShareParameters
		}
	} else if shares < 2 || shares > maxKeyShares || threshold < 2 || threshold > shares {
		return uuid.Nil, nil, ErrInvalidShareParameters
	}

	// Generate a new key.
	key, err := ciphers.GenerateKey(engine, p.rg)
	if err != nil {
		return uuid.Nil, nil, err
	}

	// Zero-ize on exit.
	success := false
	defer func() {
		util.SafeZeroMem(key)
		util.SafeZeroMem(serialized)
		if !success {
			if pk != nil {
				pk.Zeroize()
			}
			util.SafeZeroMemArray(splitKey)
		}
	}()

	// Lock access.
	p.mtx.Lock()
	defer p.mtx.Unlock()

	pk, err = newProtectorKey(p.keys, p.nextSeq, uuid.Nil, engine, key, p.rg)
	if err != nil {
		return uuid.Nil, nil, err
	}

	// Split it.
	sk := sharedKey{
		id:     pk.ID,
		engine: engine,
		key:    key,
	}
	serialized = sk.Serialize()
	if shares == 1 {
		splitKey = [][]byte{util.CloneBytes(serialized)}
	} else {
		splitKey, err = shamir.Split(serialized, shares, threshold)
		if err != nil {
			return uuid.Nil, nil, util.NewExtendedError(err, "unable to split key")
		}
	}

	// Make it the active key.
	p.nextSeq += 1
	p.keys[pk.ID] = pk
	p.activeKeyID = pk.ID

	p.logger.Debug("split encryption key added", "keyID", pk.ID.String(), "engine", engine,
		"shares", shares, "threshold", threshold)

	// Done
	success = true
	return pk.ID, splitKey, nil
}

// AddKeyFromShares rebuilds a key produced by GenerateKeyShares and adds it, with its original ID,
// as the active key. At least threshold shares must be provided.
func (p *Protector) AddKeyFromShares(engine string, shares [][]byte) (uuid.UUID, error) {
	var mergedKey []byte
	var sk sharedKey
	var err error

	if !ciphers.IsEngineSupported(engine) {
		return uuid.Nil, ErrEngineNotSupported
	}
	if len(shares) == 0 {
		return uuid.Nil, ErrInvalidKeyShares
	}

	// Zero-ize on exit.
	defer func() {
		util.SafeZeroMem(mergedKey)
		sk.Zeroize()
	}()

	// Join shares and recreate the key.
	if len(shares) == 1 {
		mergedKey = util.CloneBytes(shares[0])
	} else {
		mergedKey, err = shamir.Combine(shares)
		if err != nil {
			return uuid.Nil, util.NewExtendedError(ErrInvalidKeyShares, err.Error())
		}
	}
	sk, err = deserializeSharedKey(mergedKey)
	if err != nil {
		return uuid.Nil, err
	}
	if sk.engine != engine {
		return uuid.Nil, util.NewExtendedError(ErrInvalidKeyShares, "engine mismatch")
	}

	// Lock access.
	p.mtx.Lock()
	defer p.mtx.Unlock()

	pk, err := newProtectorKey(p.keys, p.nextSeq, sk.id, engine, sk.key, p.rg)
	if err != nil {
		return uuid.Nil, err
	}
	p.nextSeq += 1
	p.keys[pk.ID] = pk
	p.activeKeyID = pk.ID

	p.logger.Debug("encryption key restored from shares", "keyID", pk.ID.String(), "engine", engine,
		"shares", len(shares))

	// Done
	return pk.ID, nil
}

// -----------------------------------------------------------------------------

func deserializeSharedKey(buf []byte) (sharedKey, error) {
	var id []byte

	bufSize := len(buf)
	if bufSize <= bstd.SizeUint16() {
		return sharedKey{}, ErrInvalidKeyShares
	}

	// Initialize key.
	sk := sharedKey{}

	success := false
	defer func() {
		if !success {
			sk.Zeroize()
		}
	}()

	// Deserialize data.
	ofs, version, err := bstd.UnmarshalUint16(0, buf)
	if err != nil || version != keyShareVersion {
		return sharedKey{}, ErrInvalidKeyShares
	}
	ofs, id, err = bstd.UnmarshalBytesCopied(ofs, buf)
	if err != nil {
		return sharedKey{}, ErrInvalidKeyShares
	}
	sk.id, err = uuid.FromBytes(id)
	if err != nil || sk.id == uuid.Nil {
		return sharedKey{}, ErrInvalidKeyShares
	}
	ofs, sk.engine, err = bstd.UnmarshalString(ofs, buf)
	if err != nil {
		return sharedKey{}, ErrInvalidKeyShares
	}
	ofs, sk.key, err = bstd.UnmarshalBytesCopied(ofs, buf)
	if err != nil {
		return sharedKey{}, ErrInvalidKeyShares
	}

	// Check if we reached the end of the buffer.
	if ofs != bufSize {
		return sharedKey{}, ErrInvalidKeyShares
	}

	// Done
	success = true
	return sk, nil
}

func (sk *sharedKey) Serialize() []byte {
	bufSize := bstd.SizeUint16() + bstd.SizeBytes(sk.id[:]) + bstd.SizeString(sk.engine) + bstd.SizeBytes(sk.key)
	buf := make([]byte, bufSize)

	ofs := bstd.MarshalUint16(0, buf, keyShareVersion)
	ofs = bstd.MarshalBytes(ofs, buf, sk.id[:])
	ofs = bstd.MarshalString(ofs, buf, sk.engine)
	_ = bstd.MarshalBytes(ofs, buf, sk.key)

	// Done
	return buf
}

func (sk *sharedKey) Zeroize() {
	sk.id = uuid.Nil
	sk.engine = ""
	util.SafeZeroMem(sk.key)
	sk.key = nil
}

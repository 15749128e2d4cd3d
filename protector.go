// Package cryptodb encrypts individual field values before they are persisted.
package cryptodb

import (
	"cmp"
	"crypto/rand"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/mxmauro/cryptodb/crypto/ciphers"
	"github.com/mxmauro/cryptodb/util"
)

// -----------------------------------------------------------------------------

// Protector holds a set of field encryption keys, one of them active for new seals.
type Protector struct {
	rg         io.Reader
	logger     *slog.Logger
	beginStgTx BeginStorageTransactionFunc

	mtx sync.RWMutex

	keys        protectorKeyMap
	activeKeyID uuid.UUID
	nextSeq     uint64
}

// Options configure the Protector parameters.
type Options struct {
	// An optional transactional-enabled storage that holds sealed field values. Only required by
	// the StoreFields family of methods.
	BeginStorageTX BeginStorageTransactionFunc

	// An optional random number generator reader. If nil, the protector will use crypto/rand.Reader.
	RandomGeneratorReader io.Reader

	// An optional logger for key lifecycle events. Field values and key bytes are never logged.
	Logger *slog.Logger
}

// -----------------------------------------------------------------------------

// New creates a new field protector with no keys.
func New(opts Options) (*Protector, error) {
	rg := opts.RandomGeneratorReader
	if rg == nil {
		rg = rand.Reader
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	// Done
	return &Protector{
		rg:         rg,
		logger:     logger,
		beginStgTx: opts.BeginStorageTX,
		keys:       make(protectorKeyMap),
	}, nil
}

// Destroy zeroizes all key material. The protector can be reused by adding new keys.
func (p *Protector) Destroy() {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	count := len(p.keys)
	p.keys.zeroizeAll()
	p.activeKeyID = uuid.Nil

	p.logger.Debug("protector destroyed", "keys", count)
}

// AddKey adds the given key for the given engine and makes it the active one. The caller keeps
// ownership of key and is responsible for storing it.
func (p *Protector) AddKey(engine string, key []byte) (uuid.UUID, error) {
	if !ciphers.IsEngineSupported(engine) {
		return uuid.Nil, ErrEngineNotSupported
	}

	// Lock access.
	p.mtx.Lock()
	defer p.mtx.Unlock()

	pk, err := newProtectorKey(p.keys, p.nextSeq, uuid.Nil, engine, key, p.rg)
	if err != nil {
		return uuid.Nil, err
	}
	p.nextSeq += 1
	p.keys[pk.ID] = pk
	p.activeKeyID = pk.ID

	p.logger.Debug("encryption key added", "keyID", pk.ID.String(), "engine", engine)

	// Done
	return pk.ID, nil
}

// GenerateKey creates a random key for the given engine, adds it as the active key and returns it
// so the caller can store it.
func (p *Protector) GenerateKey(engine string) (uuid.UUID, []byte, error) {
	key, err := ciphers.GenerateKey(engine, p.rg)
	if err != nil {
		return uuid.Nil, nil, err
	}

	id, err := p.AddKey(engine, key)
	if err != nil {
		util.SafeZeroMem(key)
		return uuid.Nil, nil, err
	}

	// Done
	return id, key, nil
}

// SetActiveKey selects the key used by later Seal calls.
func (p *Protector) SetActiveKey(id uuid.UUID) error {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	if !p.keys.containsID(id) {
		return ErrKeyNotFound
	}
	p.activeKeyID = id

	p.logger.Debug("active encryption key changed", "keyID", id.String())

	// Done
	return nil
}

// RemoveKey zeroizes and forgets a non-active key. Values sealed with it can no longer be opened.
func (p *Protector) RemoveKey(id uuid.UUID) error {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	pk, ok := p.keys[id]
	if !ok {
		return ErrKeyNotFound
	}
	if id == p.activeKeyID {
		return ErrActiveKeyRemoval
	}
	pk.Zeroize()
	delete(p.keys, id)

	p.logger.Debug("encryption key removed", "keyID", id.String())

	// Done
	return nil
}

// ActiveKeyID returns the ID of the active key, if any.
func (p *Protector) ActiveKeyID() (uuid.UUID, bool) {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	return p.activeKeyID, p.activeKeyID != uuid.Nil
}

// KeyIDs returns the IDs of all known keys, oldest first.
func (p *Protector) KeyIDs() []uuid.UUID {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	list := make([]*protectorKey, 0, len(p.keys))
	for _, pk := range p.keys {
		list = append(list, pk)
	}
	slices.SortFunc(list, func(a, b *protectorKey) int {
		return cmp.Compare(a.seq, b.seq)
	})

	ids := make([]uuid.UUID, len(list))
	for idx, pk := range list {
		ids[idx] = pk.ID
	}
	return ids
}

// Seal encrypts the given plaintext with the active key.
func (p *Protector) Seal(plaintext []byte) ([]byte, error) {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	return p.seal(plaintext)
}

// Open decrypts a value produced by Seal with the key that sealed it.
func (p *Protector) Open(sealed []byte) ([]byte, error) {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	return p.open(sealed)
}

// SealString is a convenience wrapper of Seal for text values.
func (p *Protector) SealString(plaintext string) ([]byte, error) {
	return p.Seal([]byte(plaintext))
}

// OpenString is a convenience wrapper of Open for text values.
func (p *Protector) OpenString(sealed []byte) (string, error) {
	plaintext, err := p.Open(sealed)
	if err != nil {
		return "", err
	}
	defer util.SafeZeroMem(plaintext)

	return string(plaintext), nil
}

// Reseal opens a sealed value and seals it again with the active key. Values already sealed with
// the active key are returned unchanged.
func (p *Protector) Reseal(sealed []byte) ([]byte, error) {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	return p.reseal(sealed)
}

func (p *Protector) seal(plaintext []byte) ([]byte, error) {
	// Get the active encryption key.
	pk, ok := p.keys[p.activeKeyID]
	if !ok {
		return nil, ErrNoEncryptionKeysAvailable
	}

	// Encrypt data.
	envelope, err := pk.cipher.Encrypt(plaintext)
	if err != nil {
		return nil, err
	}

	// Build result.
	sr := sealedRecord{
		keyID:    pk.ID,
		envelope: envelope,
	}

	// Done
	return sr.Serialize(), nil
}

func (p *Protector) open(sealed []byte) ([]byte, error) {
	sr, err := deserializeSealedRecord(sealed)
	if err != nil {
		return nil, err
	}

	// Get the encryption key based on the ID stored in the record.
	pk, ok := p.keys[sr.keyID]
	if !ok {
		return nil, ErrKeyNotFound
	}

	// Done
	return pk.cipher.Decrypt(sr.envelope)
}

func (p *Protector) reseal(sealed []byte) ([]byte, error) {
	var plaintext []byte

	sr, err := deserializeSealedRecord(sealed)
	if err != nil {
		return nil, err
	}
	if !p.keys.containsID(p.activeKeyID) {
		return nil, ErrNoEncryptionKeysAvailable
	}
	if sr.keyID == p.activeKeyID {
		return util.CloneBytes(sealed), nil
	}

	// Zero-ize on exit.
	defer func() {
		util.SafeZeroMem(plaintext)
	}()

	plaintext, err = p.open(sealed)
	if err != nil {
		return nil, err
	}

	// Done
	return p.seal(plaintext)
}

package cryptodb

import (
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/mxmauro/cryptodb/crypto/ciphers"
	"github.com/mxmauro/cryptodb/models"
)

// -----------------------------------------------------------------------------

type protectorKey struct {
	ID           uuid.UUID
	Engine       string
	CreationTime time.Time

	seq    uint64
	cipher models.Cipher
}

type protectorKeyMap map[uuid.UUID]*protectorKey

// -----------------------------------------------------------------------------

func newProtectorKey(km protectorKeyMap, seq uint64, id uuid.UUID, engine string, key []byte, rg io.Reader) (*protectorKey, error) {
	if id != uuid.Nil && km.containsID(id) {
		return nil, ErrDuplicatedKeyID
	}

	// Create the cipher first so an invalid key never gets an ID.
	cipher, err := ciphers.NewFromKey(engine, key, rg)
	if err != nil {
		return nil, err
	}

	// Pick an ID not in use unless one was given.
	for id == uuid.Nil {
		id, err = uuid.NewRandomFromReader(rg)
		if err != nil {
			cipher.Zeroize()
			return nil, ErrEntropySourceUnavailable
		}
		if km.containsID(id) {
			id = uuid.Nil
		}
	}

	// Done
	return &protectorKey{
		ID:           id,
		Engine:       engine,
		CreationTime: time.Now().UTC(),
		seq:          seq,
		cipher:       cipher,
	}, nil
}

func (pk *protectorKey) Zeroize() {
	if pk.cipher != nil {
		pk.cipher.Zeroize()
		pk.cipher = nil
	}
	pk.ID = uuid.Nil
	pk.Engine = ""
	pk.CreationTime = time.Time{}
}

func (km protectorKeyMap) containsID(id uuid.UUID) bool {
	_, ok := km[id]
	return ok
}

func (km protectorKeyMap) zeroizeAll() {
	for id, pk := range km {
		pk.Zeroize()
		delete(km, id)
	}
}

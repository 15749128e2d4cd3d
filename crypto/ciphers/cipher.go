package ciphers

import (
	"errors"
	"io"
	"sort"
	"sync"

	"github.com/mxmauro/cryptodb/crypto/ciphers/aes_cbc"
	"github.com/mxmauro/cryptodb/crypto/ciphers/xfs_cbc"
	"github.com/mxmauro/cryptodb/models"
)

// -----------------------------------------------------------------------------

const (
	// EngineXfsCbc is the XFS Feistel cipher in CBC mode with PKCS#7 padding.
	EngineXfsCbc = "xfs-cbc"
	// EngineAesCbc is AES-256 in CBC mode with PKCS#7 padding, used as a reference.
	EngineAesCbc = "aes-cbc"
)

// -----------------------------------------------------------------------------

type GenerateKeyFunc func(io.Reader) ([]byte, error)
type NewFromKeyFunc func([]byte, io.Reader) (models.Cipher, error)

type engineFunc struct {
	GenerateKey GenerateKeyFunc
	NewFromKey  NewFromKeyFunc
}

// -----------------------------------------------------------------------------

var enginesMtx = sync.RWMutex{}
var enginesList = map[string]engineFunc{
	EngineXfsCbc: {
		GenerateKey: xfs_cbc.GenerateKey,
		NewFromKey:  xfs_cbc.NewFromKey,
	},
	EngineAesCbc: {
		GenerateKey: aes_cbc.GenerateKey,
		NewFromKey:  aes_cbc.NewFromKey,
	},
}

var (
	ErrEngineNotSupported     = errors.New("engine not supported")
	ErrEngineAlreadyExists    = errors.New("engine already exists")
	ErrInvalidEngineName      = errors.New("engine name cannot be empty")
	ErrInvalidEngineFunctions = errors.New("generateKey and newFromKey cannot be nil")
)

// -----------------------------------------------------------------------------

// SupportedEngines returns a sorted list of supported encryption engines.
func SupportedEngines() []string {
	enginesMtx.RLock()
	defer enginesMtx.RUnlock()

	list := make([]string, 0, len(enginesList))
	for name := range enginesList {
		list = append(list, name)
	}
	sort.Strings(list)
	return list
}

// IsEngineSupported returns true if the given encryption engine is supported.
func IsEngineSupported(engine string) bool {
	enginesMtx.RLock()
	defer enginesMtx.RUnlock()

	_, ok := enginesList[engine]
	return ok
}

// RegisterEngine registers a custom encryption engine.
func RegisterEngine(engine string, generateKey GenerateKeyFunc, newFromKey NewFromKeyFunc) error {
	if len(engine) == 0 {
		return ErrInvalidEngineName
	}
	if generateKey == nil || newFromKey == nil {
		return ErrInvalidEngineFunctions
	}

	// Lock access.
	enginesMtx.Lock()
	defer enginesMtx.Unlock()

	// Check if the engine is already registered
	if _, ok := enginesList[engine]; ok {
		return ErrEngineAlreadyExists
	}

	// Add the engine to the list.
	enginesList[engine] = engineFunc{
		GenerateKey: generateKey,
		NewFromKey:  newFromKey,
	}

	// Done
	return nil
}

// GenerateKey generates a new key for the given encryption engine.
func GenerateKey(engine string, r io.Reader) ([]byte, error) {
	e, ok := getEngine(engine)
	if !ok {
		return nil, ErrEngineNotSupported
	}
	return e.GenerateKey(r)
}

// NewFromKey creates a new cipher object from the given key and encryption engine.
func NewFromKey(engine string, key []byte, r io.Reader) (models.Cipher, error) {
	e, ok := getEngine(engine)
	if !ok {
		return nil, ErrEngineNotSupported
	}
	return e.NewFromKey(key, r)
}

func getEngine(engine string) (engineFunc, bool) {
	enginesMtx.RLock()
	defer enginesMtx.RUnlock()

	e, ok := enginesList[engine]
	return e, ok
}

package cryptodb_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/mxmauro/cryptodb"
)

// -----------------------------------------------------------------------------

type TestStorage struct {
	mtx sync.Mutex
	kv  map[string][]byte

	failNextPut bool
}

type TestStorageTx struct {
	stg       *TestStorage
	readOnly  bool
	kvChanges map[string][]byte
}

// -----------------------------------------------------------------------------

var errTestStorageFailure = errors.New("simulated storage failure")

// -----------------------------------------------------------------------------

func newTestStorage() *TestStorage {
	return &TestStorage{
		kv: make(map[string][]byte),
	}
}

func (stg *TestStorage) BeginTX(_ context.Context, readOnly bool) (cryptodb.StorageTx, error) {
	tx := TestStorageTx{
		stg:       stg,
		readOnly:  readOnly,
		kvChanges: make(map[string][]byte),
	}
	return &tx, nil
}

func (stg *TestStorage) Len() int {
	stg.mtx.Lock()
	defer stg.mtx.Unlock()

	return len(stg.kv)
}

func (stg *TestStorage) Raw(key string) []byte {
	stg.mtx.Lock()
	defer stg.mtx.Unlock()

	return stg.kv[key]
}

func (stg *TestStorage) SetRaw(key string, value []byte) {
	stg.mtx.Lock()
	defer stg.mtx.Unlock()

	stg.kv[key] = value
}

func (stg *TestStorage) FailNextPut() {
	stg.mtx.Lock()
	defer stg.mtx.Unlock()

	stg.failNextPut = true
}

func (stg *TestStorage) Dump(t *testing.T) {
	stg.mtx.Lock()
	defer stg.mtx.Unlock()

	t.Log("Storage dump:")
	for k, v := range stg.kv {
		t.Log("  key:", k, "=", bytesToHexString(v))
	}
}

func (tx *TestStorageTx) Commit(_ context.Context) error {
	tx.stg.mtx.Lock()
	defer tx.stg.mtx.Unlock()

	for k, v := range tx.kvChanges {
		if v != nil {
			tx.stg.kv[k] = v
		} else {
			delete(tx.stg.kv, k)
		}
	}
	return nil
}

func (tx *TestStorageTx) Rollback(_ context.Context) {
	tx.kvChanges = make(map[string][]byte)
}

func (tx *TestStorageTx) Get(_ context.Context, key string) ([]byte, error) {
	value, ok := tx.kvChanges[key]
	if !ok {
		tx.stg.mtx.Lock()
		value, ok = tx.stg.kv[key]
		tx.stg.mtx.Unlock()
	}
	if ok && value != nil {
		valueCopy := make([]byte, len(value))
		copy(valueCopy, value)
		return valueCopy, nil
	}
	return nil, nil
}

func (tx *TestStorageTx) Put(_ context.Context, key string, value []byte) error {
	if tx.readOnly {
		return errors.New("read only transaction")
	}

	tx.stg.mtx.Lock()
	fail := tx.stg.failNextPut
	tx.stg.failNextPut = false
	tx.stg.mtx.Unlock()
	if fail {
		return errTestStorageFailure
	}

	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)
	tx.kvChanges[key] = valueCopy
	return nil
}

func (tx *TestStorageTx) Delete(_ context.Context, key string) error {
	if tx.readOnly {
		return errors.New("read only transaction")
	}
	tx.kvChanges[key] = nil
	return nil
}

func bytesToHexString(data []byte) string {
	var builder strings.Builder

	for idx, b := range data {
		if idx > 0 {
			_, _ = builder.WriteString(", ")
		}
		_, _ = builder.WriteString(fmt.Sprintf("0x%02x", b))
	}
	return builder.String()
}

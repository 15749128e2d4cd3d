package cryptodb

import (
	"context"
	"slices"

	"github.com/mxmauro/cryptodb/util"
)

// -----------------------------------------------------------------------------

// BeginStorageTransactionFunc defines a function that creates a transaction in the underlying storage.
type BeginStorageTransactionFunc func(ctx context.Context, readOnly bool) (StorageTx, error)

// StorageTx is an interface that represent a storage transaction.
type StorageTx interface {
	// Get retrieves the value of the given key. Returns nil and no error if the key is not found.
	// Also, the implementation must return a copy of the value if the underlying implementation
	// overwrites its contents.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put saves the given value under the provided key. The implementation MUST make a copy of the
	// value parameter if it needs to keep it until the commit call.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes the given key from the database. Don't return an error if the key is not found.
	Delete(ctx context.Context, key string) error

	// Commit saves all changes into the storage.
	Commit(ctx context.Context) error

	// Rollback discards pending changes.
	Rollback(ctx context.Context)
}

// -----------------------------------------------------------------------------

// StoreFields seals every given field value with the active key and saves them, all or nothing,
// under the given record.
func (p *Protector) StoreFields(ctx context.Context, recordID string, fields map[string][]byte) error {
	paths, names, err := fieldPaths(recordID, mapKeys(fields))
	if err != nil {
		return err
	}

	// Lock access.
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	// Seal outside the transaction so a failure leaves storage untouched.
	sealedValues := make([][]byte, len(names))
	for idx, name := range names {
		sealedValues[idx], err = p.seal(fields[name])
		if err != nil {
			return err
		}
	}

	err = p.withinTx(ctx, false, func(ctx context.Context, tx StorageTx) (err error) {
		for idx, path := range paths {
			err = tx.Put(ctx, path, sealedValues[idx])
			if err != nil {
				return
			}
		}
		return
	})
	if err != nil {
		return util.NewExtendedError(err, "unable to store fields")
	}

	// Done
	return nil
}

// LoadFields reads and opens the given fields of a record. A missing field fails the whole call
// with ErrNotFound.
func (p *Protector) LoadFields(ctx context.Context, recordID string, names ...string) (map[string][]byte, error) {
	var sealedValues [][]byte

	paths, names, err := fieldPaths(recordID, names)
	if err != nil {
		return nil, err
	}

	err = p.withinTx(ctx, true, func(ctx context.Context, tx StorageTx) (err error) {
		sealedValues, err = getSealedValues(ctx, tx, paths)
		return
	})
	if err != nil {
		return nil, err
	}

	// Lock access.
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	fields := make(map[string][]byte, len(names))
	success := false
	defer func() {
		if !success {
			for _, v := range fields {
				util.SafeZeroMem(v)
			}
		}
	}()

	for idx, name := range names {
		fields[name], err = p.open(sealedValues[idx])
		if err != nil {
			return nil, util.NewExtendedError(err, "unable to open field '"+name+"'")
		}
	}

	// Done
	success = true
	return fields, nil
}

// DeleteFields removes the given fields of a record. Missing fields are ignored.
func (p *Protector) DeleteFields(ctx context.Context, recordID string, names ...string) error {
	paths, _, err := fieldPaths(recordID, names)
	if err != nil {
		return err
	}

	return p.withinTx(ctx, false, func(ctx context.Context, tx StorageTx) (err error) {
		for _, path := range paths {
			err = tx.Delete(ctx, path)
			if err != nil {
				return
			}
		}
		return
	})
}

// ResealFields re-encrypts the given stored fields of a record with the active key, in a single
// transaction. It is the storage side of a key rotation.
func (p *Protector) ResealFields(ctx context.Context, recordID string, names ...string) error {
	paths, _, err := fieldPaths(recordID, names)
	if err != nil {
		return err
	}

	// Lock access.
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	return p.withinTx(ctx, false, func(ctx context.Context, tx StorageTx) error {
		sealedValues, err := getSealedValues(ctx, tx, paths)
		if err != nil {
			return err
		}

		for idx, path := range paths {
			var resealed []byte

			resealed, err = p.reseal(sealedValues[idx])
			if err != nil {
				return err
			}
			err = tx.Put(ctx, path, resealed)
			if err != nil {
				return err
			}
		}

		// Done
		return nil
	})
}

// -----------------------------------------------------------------------------

type withinTxCallback func(ctx context.Context, tx StorageTx) error

func (p *Protector) withinTx(ctx context.Context, readOnly bool, cb withinTxCallback) error {
	if p.beginStgTx == nil {
		return ErrNoStorage
	}

	tx, err := p.beginStgTx(ctx, readOnly)
	if err == nil {
		err = cb(ctx, tx)
		if err == nil {
			err = tx.Commit(ctx)
		}
		if err != nil {
			tx.Rollback(ctx)
		}
	}
	return err
}

func getSealedValues(ctx context.Context, tx StorageTx, paths []string) ([][]byte, error) {
	values := make([][]byte, len(paths))
	for idx, path := range paths {
		value, err := tx.Get(ctx, path)
		if err != nil {
			return nil, err
		}
		if len(value) == 0 {
			return nil, util.NewExtendedError(ErrNotFound, "field '"+path+"' not found")
		}
		values[idx] = value
	}
	return values, nil
}

// fieldPaths returns the storage keys of the given fields, with field names sorted and deduplicated
// so transactions always touch keys in the same order.
func fieldPaths(recordID string, names []string) ([]string, []string, error) {
	if len(names) == 0 {
		return nil, nil, ErrInvalidFieldPath
	}

	uniqueNames := slices.Clone(names)
	slices.Sort(uniqueNames)
	uniqueNames = slices.Compact(uniqueNames)

	paths := make([]string, len(uniqueNames))
	for idx, name := range uniqueNames {
		path, err := fieldPath(recordID, name)
		if err != nil {
			return nil, nil, err
		}
		paths[idx] = path
	}
	return paths, uniqueNames, nil
}

func mapKeys(m map[string][]byte) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

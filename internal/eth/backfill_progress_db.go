package eth

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// BackfillProgressDb remembers, per chain and listener, the last block whose
// sale events have been fully processed by a historical run.
type BackfillProgressDb interface {
	GetProgress(key string) (uint64, bool, error)
	SetProgress(key string, blockNumber uint64) error
}

func NewBackfillProgressDb(db *badger.DB) BackfillProgressDb {
	return &BackfillProgressDbImpl{db: db}
}

type BackfillProgressDbImpl struct {
	mu sync.RWMutex
	db *badger.DB
}

const backfillProgressPrefix = "sales:backfillProgress:"

func (b *BackfillProgressDbImpl) GetProgress(key string) (uint64, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var blockNumber uint64
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(progressKey(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) != 8 {
				return fmt.Errorf("corrupt progress value of length %d", len(val))
			}
			blockNumber = binary.BigEndian.Uint64(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return blockNumber, true, nil
}

// SetProgress only ever moves the checkpoint forward.
func (b *BackfillProgressDbImpl) SetProgress(key string, blockNumber uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.db.Update(func(txn *badger.Txn) error {
		k := progressKey(key)
		item, err := txn.Get(k)
		switch {
		case err == nil:
			var current uint64
			if err := item.Value(func(val []byte) error {
				if len(val) == 8 {
					current = binary.BigEndian.Uint64(val)
				}
				return nil
			}); err != nil {
				return err
			}
			if current >= blockNumber {
				return nil
			}
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		val := make([]byte, 8)
		binary.BigEndian.PutUint64(val, blockNumber)
		return txn.Set(k, val)
	})
}

func progressKey(key string) []byte {
	return []byte(backfillProgressPrefix + key)
}

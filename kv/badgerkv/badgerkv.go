// Package badgerkv is the production, on-disk kv.Store implementation.
// Grounded on the teacher's hive.go adaptor (hiveadaptor.go,
// hive_adaptor/hiveadaptor.go) and its Badger-backed driver
// (examples/trie_bench/main.go): hive.go's kvstore.KVStore wraps
// github.com/dgraph-io/badger/v2, and this package adapts that interface to
// kv.Store's pure-read / atomic-batch contract.
package badgerkv

import (
	"errors"

	hivekvstore "github.com/iotaledger/hive.go/core/kvstore"
	"github.com/iotaledger/hive.go/core/kvstore/badger"

	"github.com/cdyfng/svm/kv"
)

// Store adapts a hive.go kvstore.KVStore (backed by Badger) to kv.Store.
type Store struct {
	kvs hivekvstore.KVStore
	db  *badger.BadgerDB
}

var _ kv.Store = (*Store)(nil)

// Open creates or opens a Badger database rooted at dir and wraps it as a
// kv.Store.
func Open(dir string) (*Store, error) {
	db, err := badger.CreateDB(dir)
	if err != nil {
		return nil, err
	}
	return &Store{kvs: badger.New(db), db: db}, nil
}

// Close releases the underlying Badger database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(key []byte) ([]byte, bool) {
	v, err := s.kvs.Get(key)
	if errors.Is(err, hivekvstore.ErrKeyNotFound) {
		return nil, false
	}
	if err != nil {
		panic(err)
	}
	return v, true
}

// Store applies batch atomically via a single hive.go batched mutation,
// mirroring HiveBatchedUpdater.Commit in the teacher's hive_adaptor package.
func (s *Store) Store(batch []kv.Entry) error {
	if len(batch) == 0 {
		return nil
	}
	mutation, err := s.kvs.Batched()
	if err != nil {
		return err
	}
	for _, e := range batch {
		if err := mutation.Set(e.Key, e.Value); err != nil {
			return err
		}
	}
	if err := mutation.Commit(); err != nil {
		return err
	}
	return s.kvs.Flush()
}

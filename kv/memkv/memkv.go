// Package memkv is an in-memory kv.Store, used for tests and for the
// testing::page fixtures the property tests build on (spec §2, "Test
// fixtures"). Grounded on the teacher's inMemoryKVStore (kv.go).
package memkv

import "github.com/cdyfng/svm/kv"

// Store is a map-backed kv.Store. The zero value is not usable; construct
// with New. Not safe for concurrent use without external synchronization,
// matching the single-threaded-per-transaction model of spec §5.
type Store struct {
	data map[string][]byte
}

var _ kv.Store = (*Store)(nil)

// New returns an empty in-memory Store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

func (s *Store) Get(key []byte) ([]byte, bool) {
	v, ok := s.data[string(key)]
	if !ok {
		return nil, false
	}
	// return a copy: callers must not observe mutations through aliasing.
	out := make([]byte, len(v))
	copy(out, v)
	return out, true
}

func (s *Store) Store(batch []kv.Entry) error {
	for _, e := range batch {
		v := make([]byte, len(e.Value))
		copy(v, e.Value)
		s.data[string(e.Key)] = v
	}
	return nil
}

// Len returns the number of keys currently stored. Used by tests to assert
// on the exact KV footprint of a commit (spec §8 scenarios).
func (s *Store) Len() int {
	return len(s.data)
}

// Keys returns a snapshot of the stored keys, in unspecified order. Used by
// tests only; the core never relies on iteration.
func (s *Store) Keys() [][]byte {
	out := make([][]byte, 0, len(s.data))
	for k := range s.data {
		out = append(out, []byte(k))
	}
	return out
}

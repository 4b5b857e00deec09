// Package kv defines the flat key/value store contract the Merkle page
// storage layer is built on (spec §4.1): a pure read and an atomic batched
// write, nothing else. The core never iterates, ranges over, or deletes a
// key; those are left to operator tooling built on top of an implementation.
//
// The split mirrors the teacher's KVReader/KVWriter interfaces
// (github.com/iotaledger/trie.go/common), generalized to the single
// batched-write method the spec requires instead of per-key Set.
package kv

// Entry is one (key, value) pair within a Store.Store batch.
type Entry struct {
	Key   []byte
	Value []byte
}

// Reader is a pure key/value read.
type Reader interface {
	// Get retrieves the value for key. ok is false if the key is absent.
	Get(key []byte) (value []byte, ok bool)
}

// Store is the flat byte-keyed, byte-valued key/value contract. A single
// Store call either fully succeeds or fails with a fatal I/O error; there is
// no partial application. Within one call, last write wins for duplicate
// keys.
type Store interface {
	Reader
	// Store atomically applies every entry in batch, in order.
	Store(batch []Entry) error
}

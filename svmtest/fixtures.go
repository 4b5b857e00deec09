// Package svmtest collects deterministic fixtures shared by the property
// tests (spec §2 "Test fixtures", §8): a fixed hasher pair, a memory KV
// constructor, and small helpers for building expected digests by hand.
//
// Grounded on the original implementation's own testing helpers
// (original_source/crates/svm-storage/src/testing/page.rs: default_page_hash,
// concat_pages_hash, compute_pages_state) and on the teacher's in-memory KV
// used throughout its own test suite.
package svmtest

import (
	"github.com/cdyfng/svm"
	"github.com/cdyfng/svm/hashing"
	"github.com/cdyfng/svm/kv/memkv"
)

// Hasher is the deterministic hasher pair every property test uses.
var Hasher = hashing.Blake2b256{}

// NewMemStore returns a fresh in-memory kv.Store for a test.
func NewMemStore() *memkv.Store {
	return memkv.New()
}

// PageHash computes the page digest a test expects for (addr, idx, data),
// using the same Hasher the storage under test is configured with.
func PageHash(addr svm.Address, idx svm.PageIndex, data []byte) svm.PageHash {
	return Hasher.HashPage(addr, idx, data)
}

// ZeroPageHash computes the zero-page digest for (addr, idx).
func ZeroPageHash(addr svm.Address, idx svm.PageIndex) svm.PageHash {
	return hashing.ZeroPageHash(Hasher, addr, idx)
}

// StateFor computes the expected state root for an ordered slice of page
// hashes, mirroring compute_pages_state from the original implementation's
// test helpers.
func StateFor(pageHashes []svm.PageHash) svm.State {
	return Hasher.HashState(pageHashes)
}


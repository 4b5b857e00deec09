// Package hashing provides the two pluggable hash capabilities the storage
// layer is parameterized over (spec §4.2, §9 "Pluggable hashers"): a page
// hasher and a state hasher. The core never hard-codes a hash family; it
// depends only on these two interfaces.
//
// Grounded on the teacher's CommitmentModel capability-parameter pattern
// (common/model.go) and concretely on models/trie_blake2b_32/model.go's use
// of golang.org/x/crypto/blake2b for domain-separated hashing.
package hashing

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"

	"github.com/cdyfng/svm"
)

// PageHasher computes the digest of one page's content, domain-separated by
// contract address and page index (spec §4.2, §6: bit-exact encoding
// `address_bytes || page_index_be_u16 || page_bytes`).
type PageHasher interface {
	HashPage(addr svm.Address, idx svm.PageIndex, pageBytes []byte) svm.PageHash
}

// StateHasher computes the root digest over the byte-concatenation of page
// hashes in ascending page-index order (spec §4.2, §6).
type StateHasher interface {
	HashState(pageHashes []svm.PageHash) svm.State
}

// Blake2b256 implements both PageHasher and StateHasher with blake2b-256,
// following the teacher's choice of hash family for its hash-based
// commitment model (trie_blake2b_32).
type Blake2b256 struct{}

var (
	_ PageHasher  = Blake2b256{}
	_ StateHasher = Blake2b256{}
)

// HashPage computes blake2b-256(address || page_index_be_u16 || page_bytes).
func (Blake2b256) HashPage(addr svm.Address, idx svm.PageIndex, pageBytes []byte) svm.PageHash {
	var idxBuf [2]byte
	binary.BigEndian.PutUint16(idxBuf[:], uint16(idx))

	h, err := blake2b.New256(nil)
	if err != nil {
		// blake2b.New256 only fails for an oversized key, and we pass none.
		panic(err)
	}
	h.Write(addr.Bytes())
	h.Write(idxBuf[:])
	h.Write(pageBytes)
	return svm.PageHashFromBytes(h.Sum(nil))
}

// HashState computes blake2b-256(page_hash_0 || page_hash_1 || ... ), with no
// length prefix: N is known to the verifier from contract metadata.
func (Blake2b256) HashState(pageHashes []svm.PageHash) svm.State {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(err)
	}
	for _, ph := range pageHashes {
		h.Write(ph.Bytes())
	}
	return svm.StateFromBytes(h.Sum(nil))
}

// ZeroPageHash computes the zero-page digest for page idx of contract addr:
// PageHasher.HashPage(addr, idx, zeros(PageSize)). Implementations may
// instead hash a 32-byte zero buffer (spec §4.2); a deployment must pick one
// choice and keep it forever. This module always hashes a full zero page.
func ZeroPageHash(ph PageHasher, addr svm.Address, idx svm.PageIndex) svm.PageHash {
	var zeros [svm.PageSize]byte
	return ph.HashPage(addr, idx, zeros[:])
}

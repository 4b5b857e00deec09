package svm

import "encoding/hex"

// HashSize is the fixed width, in bytes, of a PageHash and a State root.
const HashSize = 32

// PageHash is the 32-byte digest of a single page's content, domain-separated
// by contract address and page index (spec §3, §6).
type PageHash [HashSize]byte

// Bytes returns the raw digest bytes.
func (h PageHash) Bytes() []byte { return h[:] }

func (h PageHash) String() string { return hex.EncodeToString(h[:]) }

// PageHashFromBytes reads a PageHash out of a 32-byte slice. The caller must
// ensure len(b) == HashSize.
func PageHashFromBytes(b []byte) PageHash {
	var h PageHash
	copy(h[:], b)
	return h
}

// State is the 32-byte root digest committing to every page of a contract at
// a point in time (spec §3). The all-zero State is reserved: it means "fresh
// contract, no prior commit".
type State [HashSize]byte

// Empty is the all-zero state, meaning "no prior commit".
func Empty() State { return State{} }

// IsEmpty reports whether s is the reserved all-zero state.
func (s State) IsEmpty() bool { return s == State{} }

// Bytes returns the raw digest bytes.
func (s State) Bytes() []byte { return s[:] }

func (s State) String() string { return hex.EncodeToString(s[:]) }

// StateFromBytes reads a State out of a 32-byte slice. The caller must ensure
// len(b) == HashSize.
func StateFromBytes(b []byte) State {
	var s State
	copy(s[:], b)
	return s
}

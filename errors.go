package svm

import "github.com/cockroachdb/errors"

// Error kinds for the fatal taxonomy of spec §7. Every one of these aborts
// the current transaction; none are recoverable inside the core. Call sites
// add context with errors.Wrapf; callers should use errors.Is against these
// sentinels to tell the kinds apart.
var (
	// ErrOutOfRange: page index >= page_count, or a slice exceeds its page.
	ErrOutOfRange = errors.New("svm: out of range")

	// ErrStateNotFound: KV has no entry for the opening state root.
	ErrStateNotFound = errors.New("svm: state not found")

	// ErrPageBytesMissing: a non-zero page digest referenced by a committed
	// state has no KV entry (violates invariant I2).
	ErrPageBytesMissing = errors.New("svm: page bytes missing")

	// ErrDirtyRead: a page with unflushed writes was read through a path
	// that requires a clean slot.
	ErrDirtyRead = errors.New("svm: dirty read attempt")

	// ErrKVIO: the underlying store failed.
	ErrKVIO = errors.New("svm: kv i/o failure")
)

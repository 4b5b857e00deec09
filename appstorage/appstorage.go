// Package appstorage is the App Storage facade of spec §4.5: a thin
// composition of the page slice cache over Merkle page storage, exposing
// the five operations the execution sandbox calls. Construction is
// delegated to a Builder (spec §4.6), the only seam through which the core
// is configured.
//
// Grounded on the teacher's immutable.Trie / immutable.TrieReader split (a
// read/write facade that owns a single buffered node store) and on its
// constructor-closure idiom (immutable.NewTrieUpdatable, mutable.New): a
// package-level constructor function held by the caller as a value, which
// spec §9 ("Builder closure") asks to be modeled as an opaque callable.
package appstorage

import (
	"go.uber.org/zap"

	"github.com/cdyfng/svm"
	"github.com/cdyfng/svm/hashing"
	"github.com/cdyfng/svm/kv"
	svmlog "github.com/cdyfng/svm/log"
	"github.com/cdyfng/svm/pagecache"
	"github.com/cdyfng/svm/pagestorage"
)

// Settings carries the per-contract configuration a Builder needs beyond
// (address, state): at minimum the fixed page count (spec §4.6).
type Settings struct {
	// PageCount is the fixed number of pages this contract's storage spans.
	PageCount uint16
	// CacheCapacity bounds the page slice cache's resident working set.
	// <= 0 selects pagecache.DefaultCapacity.
	CacheCapacity int
}

// Storage is the sandbox-facing facade: it owns a Page Slice Cache and,
// transitively, a Merkle Page Storage. A Storage is scoped to one
// transaction (spec §5); dropping it releases its page buffers without
// persisting anything that wasn't Committed.
type Storage struct {
	cache *pagecache.Cache
}

// ReadPageSlice reads the bytes addressed by layout (spec §6
// read_page_slice).
func (s *Storage) ReadPageSlice(layout svm.Layout) ([]byte, error) {
	return s.cache.ReadSlice(layout)
}

// WritePageSlice overwrites the bytes addressed by layout (spec §6
// write_page_slice).
func (s *Storage) WritePageSlice(layout svm.Layout, data []byte) error {
	return s.cache.WriteSlice(layout, data)
}

// Commit flushes buffered writes and persists a new state root (spec §6
// commit).
func (s *Storage) Commit() (svm.State, error) {
	return s.cache.Commit()
}

// GetState returns the state root this Storage is currently at (spec §6
// get_state).
func (s *Storage) GetState() svm.State {
	return s.cache.GetState()
}

// GetPageHash returns the current digest of page i (spec §6 get_page_hash).
func (s *Storage) GetPageHash(i svm.PageIndex) (svm.PageHash, error) {
	return s.cache.GetPageHash(i)
}

// Builder is the storage factory held by the runtime as an opaque callable
// (spec §4.6, §9). The runtime holds exactly one Builder per process; tests
// supply one over an in-memory kv.Store, production one over badgerkv.
type Builder func(addr svm.Address, state svm.State, settings Settings) (*Storage, error)

// NewBuilder returns a Builder closed over a shared KV handle and hash
// capabilities. Multiple contracts in the same process may share one store,
// passed by reference (spec §4.5: "The runtime holds ... by shared
// reference").
func NewBuilder(store kv.Store, pageHasher hashing.PageHasher, stateHasher hashing.StateHasher, logger *zap.Logger) Builder {
	logger = svmlog.OrNop(logger)
	return func(addr svm.Address, state svm.State, settings Settings) (*Storage, error) {
		ps, err := pagestorage.Open(addr, state, settings.PageCount, store, pageHasher, stateHasher, logger)
		if err != nil {
			return nil, err
		}
		return &Storage{cache: pagecache.New(ps, settings.CacheCapacity, logger)}, nil
	}
}

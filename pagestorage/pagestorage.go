// Package pagestorage implements the Merkle Page Storage component of spec
// §4.3: a per-contract, state-aware page store with load-on-demand,
// dirty-tracking, and a commit protocol that produces new state roots.
//
// It is a direct translation of the original svm-storage
// merkle_page_storage.rs (original_source/crates/svm-storage/src/
// merkle_page_storage.rs) into the teacher's own node-state idiom: a tagged
// union of page slots (trie/nodestore.go's nodeStore / nodeStoreBuffered
// split, here collapsed into one type since pages, unlike trie nodes, are a
// flat fixed-size array rather than a tree).
package pagestorage

import (
	"sort"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/cdyfng/svm"
	"github.com/cdyfng/svm/hashing"
	"github.com/cdyfng/svm/kv"
	svmlog "github.com/cdyfng/svm/log"
)

// slotKind tags a page slot's variant (spec §3 "Page slot (in-memory)").
// Uninitialized is a constructor-only intermediate: no slot is observably
// Uninitialized once Open returns.
type slotKind uint8

const (
	slotUninitialized slotKind = iota
	slotClean
	slotDirty
)

// pageSlot is the tagged-union page state: Clean(hash) or Dirty(hash, bytes,
// priorHash). priorHash is only meaningful for Dirty slots and records the
// hash to restore on Clear (spec §4.3, §9 "the design fixes clear to revert
// Dirty slots to the pre-write digest").
type pageSlot struct {
	kind      slotKind
	hash      svm.PageHash
	bytes     []byte
	priorHash svm.PageHash
}

// Storage is a single contract's Merkle page store, opened at a particular
// state root. It is not safe for concurrent use: spec §5 scopes one Storage
// to one transaction held exclusively by its caller.
type Storage struct {
	addr        svm.Address
	state       svm.State
	pageCount   uint16
	pages       []pageSlot
	store       kv.Store
	pageHasher  hashing.PageHasher
	stateHasher hashing.StateHasher
	log         *zap.Logger
}

// Open constructs a Storage for (addr, state, pageCount). If state is the
// empty state, every slot is initialized to Clean(zero-page hash) without
// any KV I/O (spec §3 lifecycle, §4.3). Otherwise the state's digest vector
// is loaded from store; a missing entry is the fatal ErrStateNotFound.
func Open(
	addr svm.Address,
	state svm.State,
	pageCount uint16,
	store kv.Store,
	pageHasher hashing.PageHasher,
	stateHasher hashing.StateHasher,
	logger *zap.Logger,
) (*Storage, error) {
	s := &Storage{
		addr:        addr,
		state:       state,
		pageCount:   pageCount,
		pages:       make([]pageSlot, pageCount),
		store:       store,
		pageHasher:  pageHasher,
		stateHasher: stateHasher,
		log:         svmlog.OrNop(logger),
	}

	if state.IsEmpty() {
		for i := range s.pages {
			s.pages[i] = pageSlot{
				kind: slotClean,
				hash: hashing.ZeroPageHash(pageHasher, addr, svm.PageIndex(i)),
			}
		}
		return s, nil
	}

	digests, ok := store.Get(state.Bytes())
	if !ok {
		return nil, errors.Wrapf(svm.ErrStateNotFound, "state %s", state)
	}
	if len(digests)%svm.HashSize != 0 {
		return nil, errors.Wrapf(svm.ErrStateNotFound, "state %s: malformed digest vector (%d bytes)", state, len(digests))
	}
	if len(digests) != int(pageCount)*svm.HashSize {
		return nil, errors.Wrapf(svm.ErrStateNotFound, "state %s: digest vector has %d pages, want %d", state, len(digests)/svm.HashSize, pageCount)
	}
	for i := 0; i < int(pageCount); i++ {
		start := i * svm.HashSize
		s.pages[i] = pageSlot{
			kind: slotClean,
			hash: svm.PageHashFromBytes(digests[start : start+svm.HashSize]),
		}
	}
	return s, nil
}

// GetState returns the state root this Storage was opened at (updated only
// by Commit).
func (s *Storage) GetState() svm.State {
	return s.state
}

// PageCount returns the fixed page count this Storage was opened with.
func (s *Storage) PageCount() uint16 {
	return s.pageCount
}

// HashPageBytes computes the digest page i would get if written with
// pageData, without mutating any slot. Used by layers above Storage (the
// page slice cache) that need an up-to-date digest for a buffer not yet
// flushed into a Dirty slot.
func (s *Storage) HashPageBytes(i svm.PageIndex, pageData []byte) svm.PageHash {
	return s.pageHasher.HashPage(s.addr, i, pageData)
}

func (s *Storage) checkIndex(i svm.PageIndex) error {
	if int(i) >= len(s.pages) {
		return errors.Wrapf(svm.ErrOutOfRange, "page index %d, page count %d", i, len(s.pages))
	}
	return nil
}

// GetPageHash returns the current digest of page i, whether Clean or Dirty.
func (s *Storage) GetPageHash(i svm.PageIndex) (svm.PageHash, error) {
	if err := s.checkIndex(i); err != nil {
		return svm.PageHash{}, err
	}
	return s.pages[i].hash, nil
}

// ReadPage returns the persisted bytes of page i. A nil slice with a nil
// error means an implicit zero page (spec §4.3: "For Clean with the
// zero-page digest the result may be None"). Reading a Dirty page is fatal
// (spec invariant I4): the caller must Clear or Commit first.
func (s *Storage) ReadPage(i svm.PageIndex) ([]byte, error) {
	if err := s.checkIndex(i); err != nil {
		return nil, err
	}
	slot := s.pages[i]
	switch slot.kind {
	case slotDirty:
		return nil, errors.Wrapf(svm.ErrDirtyRead, "page %d", i)
	case slotClean:
		if slot.hash == hashing.ZeroPageHash(s.pageHasher, s.addr, i) {
			return nil, nil
		}
		v, ok := s.store.Get(slot.hash.Bytes())
		if !ok {
			return nil, errors.Wrapf(svm.ErrPageBytesMissing, "page %d, digest %s", i, slot.hash)
		}
		return v, nil
	default:
		// slotUninitialized is never observable outside Open.
		return nil, errors.Newf("svm: page %d in uninitialized slot", i)
	}
}

// DirtyBytes returns page i's buffered bytes if its slot is currently Dirty,
// and whether it was. Unlike ReadPage it never fatals on a Dirty slot: it
// exists for a layer above Storage (the page slice cache) that needs to
// repopulate its own buffer for a page it evicted earlier in the same
// transaction, without mistaking "evicted but still locally dirty" for the
// bypass-the-cache misuse ReadPage's ErrDirtyRead guards against.
func (s *Storage) DirtyBytes(i svm.PageIndex) ([]byte, bool) {
	if err := s.checkIndex(i); err != nil {
		return nil, false
	}
	slot := s.pages[i]
	if slot.kind != slotDirty {
		return nil, false
	}
	return slot.bytes, true
}

// WritePage buffers page_data as the new content of page i. The slot
// transitions to Dirty; its digest is recomputed over the modified bytes.
// The previous Clean hash is remembered so Clear can restore it.
func (s *Storage) WritePage(i svm.PageIndex, pageData []byte) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	newHash := s.pageHasher.HashPage(s.addr, i, pageData)
	buf := make([]byte, len(pageData))
	copy(buf, pageData)

	slot := &s.pages[i]
	prior := slot.priorHash
	if slot.kind != slotDirty {
		prior = slot.hash
	}
	*slot = pageSlot{
		kind:      slotDirty,
		hash:      newHash,
		bytes:     buf,
		priorHash: prior,
	}
	return nil
}

// Clear discards every Dirty buffer, restoring each Dirty slot to
// Clean(priorHash) — the hash that was current before the write (spec §9:
// reverting to the post-write hash would leave a digest with no bytes behind
// it, an unreadable page; this is the source-bug fix the spec mandates).
func (s *Storage) Clear() {
	for i := range s.pages {
		if s.pages[i].kind == slotDirty {
			s.pages[i] = pageSlot{kind: slotClean, hash: s.pages[i].priorHash}
		}
	}
}

// Commit builds the new digest vector, derives the new state root, and
// atomically persists (new_state -> digests) plus (page_hash -> bytes) for
// every Dirty page (spec §4.3, §6). On success every Dirty slot becomes
// Clean and Commit returns the new state. Called with no dirty pages on a
// Storage at a committed state, it reproduces that state (invariant I5); at
// the empty state it returns the root of the all-zero-page digest vector.
func (s *Storage) Commit() (svm.State, error) {
	digests := make([]svm.PageHash, len(s.pages))
	for i, slot := range s.pages {
		digests[i] = slot.hash
	}
	newState := s.stateHasher.HashState(digests)

	joined := make([]byte, 0, len(digests)*svm.HashSize)
	for _, d := range digests {
		joined = append(joined, d.Bytes()...)
	}

	// Deterministic ordering: the state-root entry first, then page entries
	// in ascending page-index order (spec §9 "Deterministic iteration
	// order").
	dirtyIndices := make([]int, 0, len(s.pages))
	for i, slot := range s.pages {
		if slot.kind == slotDirty {
			dirtyIndices = append(dirtyIndices, i)
		}
	}
	sort.Ints(dirtyIndices)

	batch := make([]kv.Entry, 0, 1+len(dirtyIndices))
	batch = append(batch, kv.Entry{Key: newState.Bytes(), Value: joined})
	for _, i := range dirtyIndices {
		batch = append(batch, kv.Entry{Key: s.pages[i].hash.Bytes(), Value: s.pages[i].bytes})
	}

	if err := s.store.Store(batch); err != nil {
		return svm.State{}, errors.Wrapf(svm.ErrKVIO, "commit: %v", err)
	}

	for _, i := range dirtyIndices {
		s.pages[i] = pageSlot{kind: slotClean, hash: s.pages[i].hash}
	}
	s.state = newState

	s.log.Debug("storage commit",
		zap.String("addr", s.addr.String()),
		zap.String("state", newState.String()),
		zap.Int("dirty_pages", len(dirtyIndices)),
	)
	return newState, nil
}

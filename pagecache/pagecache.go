// Package pagecache implements the Page Slice Cache of spec §4.4: a
// sub-page read/write buffering layer above pagestorage.Storage that lets
// callers touch arbitrary byte ranges without forcing a whole-page load on
// every small access, and coalesces slice writes into full-page writes on
// commit.
//
// Grounded on the teacher's nodeStoreBuffered dirty-tracking cache
// (mutable/nodestore.go: a map-backed buffer of mutated entries, flushed to
// the underlying read-only store on PersistMutations), generalized here from
// whole-node buffering to sub-page slice buffering, and bounded with an LRU
// eviction policy using github.com/hashicorp/golang-lru/v2 — the same
// library the erigon/go-ethereum family in the retrieved pack uses to bound
// resident caches with an eviction callback.
package pagecache

import (
	"github.com/cockroachdb/errors"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/cdyfng/svm"
	svmlog "github.com/cdyfng/svm/log"
	"github.com/cdyfng/svm/pagestorage"
)

// DefaultCapacity bounds how many page buffers the cache keeps resident
// before evicting the least recently used one.
const DefaultCapacity = 64

type pageBuffer struct {
	data  []byte
	dirty bool
}

// Cache is the sub-page read/write buffer sitting above a pagestorage.Storage.
// Not safe for concurrent use, matching the single-threaded-per-transaction
// model of spec §5.
type Cache struct {
	storage *pagestorage.Storage
	buffers *lru.Cache[svm.PageIndex, *pageBuffer]
	log     *zap.Logger
}

// New wraps storage with a bounded page-slice cache. capacity <= 0 uses
// DefaultCapacity.
func New(storage *pagestorage.Storage, capacity int, logger *zap.Logger) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &Cache{storage: storage, log: svmlog.OrNop(logger)}

	// Evicting a clean buffer is safe and just drops the copy; evicting a
	// dirty buffer must flush it into Page Storage first, so its digest
	// survives in storage's own Dirty slot until the final Commit.
	onEvict := func(idx svm.PageIndex, buf *pageBuffer) {
		if !buf.dirty {
			return
		}
		if err := c.storage.WritePage(idx, buf.data); err != nil {
			// WritePage only fails for an out-of-range index, which the
			// cache never produces: every index reaching here already
			// passed checkLayout.
			panic(err)
		}
		c.log.Debug("pagecache evict flush", zap.Uint16("page", uint16(idx)))
	}
	buffers, err := lru.NewWithEvict[svm.PageIndex, *pageBuffer](capacity, onEvict)
	if err != nil {
		// only fails for capacity <= 0, excluded above.
		panic(err)
	}
	c.buffers = buffers
	return c
}

func (c *Cache) checkLayout(l svm.Layout) error {
	if int(l.PageIndex) >= int(c.storage.PageCount()) {
		return errors.Wrapf(svm.ErrOutOfRange, "page index %d >= page count %d", l.PageIndex, c.storage.PageCount())
	}
	if l.Length == 0 {
		return errors.Wrapf(svm.ErrOutOfRange, "page %d: zero-length slice", l.PageIndex)
	}
	if l.End() > svm.PageSize {
		return errors.Wrapf(svm.ErrOutOfRange, "page %d: slice [%d,%d) exceeds page size %d", l.PageIndex, l.Offset, l.End(), svm.PageSize)
	}
	return nil
}

// ensure returns the resident buffer for idx, loading it from pagestorage on
// first touch (or initializing it to zeros, for a never-written page of a
// fresh contract). A page dirtied earlier in this transaction and since
// evicted from the LRU is repopulated from its still-Dirty pagestorage slot
// rather than through ReadPage, which fatals on Dirty by design for callers
// that bypass the cache entirely.
func (c *Cache) ensure(idx svm.PageIndex) (*pageBuffer, error) {
	if buf, ok := c.buffers.Get(idx); ok {
		return buf, nil
	}
	buf := &pageBuffer{data: make([]byte, svm.PageSize)}
	if dirty, ok := c.storage.DirtyBytes(idx); ok {
		copy(buf.data, dirty)
		c.buffers.Add(idx, buf)
		return buf, nil
	}
	data, err := c.storage.ReadPage(idx)
	if err != nil {
		return nil, err
	}
	if data != nil {
		copy(buf.data, data)
	}
	c.buffers.Add(idx, buf)
	return buf, nil
}

// ReadSlice returns a copy of the bytes addressed by l. A never-written
// slice of a fresh contract reads back as zeros.
func (c *Cache) ReadSlice(l svm.Layout) ([]byte, error) {
	if err := c.checkLayout(l); err != nil {
		return nil, err
	}
	buf, err := c.ensure(l.PageIndex)
	if err != nil {
		return nil, err
	}
	out := make([]byte, l.Length)
	copy(out, buf.data[l.Offset:l.End()])
	return out, nil
}

// WriteSlice overwrites the bytes addressed by l and marks the page locally
// dirty.
func (c *Cache) WriteSlice(l svm.Layout, data []byte) error {
	if err := c.checkLayout(l); err != nil {
		return err
	}
	if uint32(len(data)) != l.Length {
		return errors.Wrapf(svm.ErrOutOfRange, "page %d: data length %d does not match layout length %d", l.PageIndex, len(data), l.Length)
	}
	buf, err := c.ensure(l.PageIndex)
	if err != nil {
		return err
	}
	copy(buf.data[l.Offset:l.End()], data)
	buf.dirty = true
	// Re-insert to refresh recency and keep the buffer authoritative.
	c.buffers.Add(l.PageIndex, buf)
	return nil
}

// Commit flushes every resident dirty page into Page Storage and commits
// Page Storage, returning the new state (spec §4.4).
func (c *Cache) Commit() (svm.State, error) {
	flushed := 0
	for _, idx := range c.buffers.Keys() {
		buf, ok := c.buffers.Peek(idx)
		if !ok || !buf.dirty {
			continue
		}
		if err := c.storage.WritePage(idx, buf.data); err != nil {
			return svm.State{}, err
		}
		buf.dirty = false
		flushed++
	}
	state, err := c.storage.Commit()
	if err != nil {
		return svm.State{}, err
	}
	c.log.Debug("pagecache commit", zap.Int("flushed_pages", flushed), zap.String("state", state.String()))
	return state, nil
}

// GetState returns the state root of the underlying Page Storage.
func (c *Cache) GetState() svm.State {
	return c.storage.GetState()
}

// GetPageHash returns the current digest of page i. If the page has a
// resident buffer (committed or not), the digest is recomputed from it
// directly so a write that hasn't yet been flushed into Page Storage (by
// eviction or Commit) is still reflected; otherwise it falls through to the
// underlying Page Storage slot.
func (c *Cache) GetPageHash(i svm.PageIndex) (svm.PageHash, error) {
	if int(i) >= int(c.storage.PageCount()) {
		return svm.PageHash{}, errors.Wrapf(svm.ErrOutOfRange, "page index %d >= page count %d", i, c.storage.PageCount())
	}
	if buf, ok := c.buffers.Peek(i); ok {
		return c.storage.HashPageBytes(i, buf.data), nil
	}
	return c.storage.GetPageHash(i)
}

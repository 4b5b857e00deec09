package pagecache_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/cdyfng/svm"
	"github.com/cdyfng/svm/kv/memkv"
	"github.com/cdyfng/svm/pagecache"
	"github.com/cdyfng/svm/pagestorage"
	"github.com/cdyfng/svm/svmtest"
)

var addr = svm.AddressFromUint32(0xAA_BB_CC_DD)

func newCache(t *testing.T, capacity int) *pagecache.Cache {
	t.Helper()
	ps, err := pagestorage.Open(addr, svm.Empty(), 3, memkv.New(), svmtest.Hasher, svmtest.Hasher, nil)
	require.NoError(t, err)
	return pagecache.New(ps, capacity, nil)
}

func TestReadSliceOfNeverWrittenPageIsZero(t *testing.T) {
	c := newCache(t, pagecache.DefaultCapacity)
	out, err := c.ReadSlice(svm.Layout{PageIndex: 0, Offset: 10, Length: 4})
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 0, 0}, out)
}

func TestWriteSliceThenReadBack(t *testing.T) {
	c := newCache(t, pagecache.DefaultCapacity)
	l := svm.Layout{PageIndex: 1, Offset: 100, Length: 3}
	require.NoError(t, c.WriteSlice(l, []byte{7, 8, 9}))

	out, err := c.ReadSlice(l)
	require.NoError(t, err)
	require.Equal(t, []byte{7, 8, 9}, out)

	// neighboring bytes remain zero.
	neighbor, err := c.ReadSlice(svm.Layout{PageIndex: 1, Offset: 0, Length: 4})
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 0, 0}, neighbor)
}

func TestWriteSliceOutOfRange(t *testing.T) {
	c := newCache(t, pagecache.DefaultCapacity)

	err := c.WriteSlice(svm.Layout{PageIndex: 99, Offset: 0, Length: 1}, []byte{1})
	require.Error(t, err)
	require.True(t, errors.Is(err, svm.ErrOutOfRange))

	err = c.WriteSlice(svm.Layout{PageIndex: 0, Offset: svm.PageSize - 2, Length: 4}, []byte{1, 2, 3, 4})
	require.Error(t, err)
	require.True(t, errors.Is(err, svm.ErrOutOfRange))
}

func TestWriteSliceLengthMismatch(t *testing.T) {
	c := newCache(t, pagecache.DefaultCapacity)
	err := c.WriteSlice(svm.Layout{PageIndex: 0, Offset: 0, Length: 4}, []byte{1, 2, 3})
	require.Error(t, err)
	require.True(t, errors.Is(err, svm.ErrOutOfRange))
}

func TestGetPageHashReflectsUncommittedBufferedWrite(t *testing.T) {
	c := newCache(t, pagecache.DefaultCapacity)

	before, err := c.GetPageHash(0)
	require.NoError(t, err)

	require.NoError(t, c.WriteSlice(svm.Layout{PageIndex: 0, Offset: 0, Length: 3}, []byte{1, 2, 3}))

	after, err := c.GetPageHash(0)
	require.NoError(t, err)
	require.NotEqual(t, before, after)

	want := make([]byte, svm.PageSize)
	copy(want, []byte{1, 2, 3})
	require.Equal(t, svmtest.PageHash(addr, 0, want), after)
}

func TestCommitFlushesDirtyBuffersAndPersistsState(t *testing.T) {
	c := newCache(t, pagecache.DefaultCapacity)
	require.NoError(t, c.WriteSlice(svm.Layout{PageIndex: 0, Offset: 0, Length: 3}, []byte{1, 2, 3}))
	require.NoError(t, c.WriteSlice(svm.Layout{PageIndex: 2, Offset: 10, Length: 2}, []byte{9, 9}))

	state, err := c.Commit()
	require.NoError(t, err)
	require.Equal(t, state, c.GetState())

	page0 := make([]byte, svm.PageSize)
	copy(page0, []byte{1, 2, 3})
	page2 := make([]byte, svm.PageSize)
	copy(page2[10:], []byte{9, 9})

	want := svmtest.StateFor([]svm.PageHash{
		svmtest.PageHash(addr, 0, page0),
		svmtest.ZeroPageHash(addr, 1),
		svmtest.PageHash(addr, 2, page2),
	})
	require.Equal(t, want, state)
}

func TestEvictionFlushesDirtyBufferIntoPageStorage(t *testing.T) {
	// capacity 1 forces every new touch to evict the previous buffer.
	c := newCache(t, 1)

	require.NoError(t, c.WriteSlice(svm.Layout{PageIndex: 0, Offset: 0, Length: 1}, []byte{42}))
	// touching page 1 evicts page 0's dirty buffer, flushing it into
	// pagestorage so its digest is preserved.
	_, err := c.ReadSlice(svm.Layout{PageIndex: 1, Offset: 0, Length: 1})
	require.NoError(t, err)

	h, err := c.GetPageHash(0)
	require.NoError(t, err)

	want := make([]byte, svm.PageSize)
	want[0] = 42
	require.Equal(t, svmtest.PageHash(addr, 0, want), h)
}

func TestReadSliceAfterEvictionOfDirtyPageReturnsBufferedBytes(t *testing.T) {
	// capacity 1 forces page 0's dirty buffer out as soon as page 1 is
	// touched, before either page is committed.
	c := newCache(t, 1)

	l0 := svm.Layout{PageIndex: 0, Offset: 10, Length: 3}
	require.NoError(t, c.WriteSlice(l0, []byte{1, 2, 3}))

	// evicts page 0's dirty buffer, flushing it into pagestorage as a Dirty
	// slot rather than discarding it.
	_, err := c.ReadSlice(svm.Layout{PageIndex: 1, Offset: 0, Length: 1})
	require.NoError(t, err)

	// re-touching page 0 within the same, still-uncommitted transaction must
	// recover the buffered bytes, not fatal as if the cache had been
	// bypassed on a Dirty page.
	out, err := c.ReadSlice(l0)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, out)

	require.NoError(t, c.WriteSlice(svm.Layout{PageIndex: 0, Offset: 0, Length: 1}, []byte{9}))
	out2, err := c.ReadSlice(l0)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, out2)

	state, err := c.Commit()
	require.NoError(t, err)

	page0 := make([]byte, svm.PageSize)
	page0[0] = 9
	copy(page0[10:], []byte{1, 2, 3})
	page1 := make([]byte, svm.PageSize)

	want := svmtest.StateFor([]svm.PageHash{
		svmtest.PageHash(addr, 0, page0),
		svmtest.PageHash(addr, 1, page1),
		svmtest.ZeroPageHash(addr, 2),
	})
	require.Equal(t, want, state)
}

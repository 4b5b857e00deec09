package appstorage_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cdyfng/svm"
	"github.com/cdyfng/svm/appstorage"
	"github.com/cdyfng/svm/kv/memkv"
	"github.com/cdyfng/svm/svmtest"
)

var addr = svm.AddressFromUint32(42)

func TestBuilderOpensFreshStorageAtEmptyState(t *testing.T) {
	builder := appstorage.NewBuilder(memkv.New(), svmtest.Hasher, svmtest.Hasher, nil)

	st, err := builder(addr, svm.Empty(), appstorage.Settings{PageCount: 2})
	require.NoError(t, err)
	require.Equal(t, svm.Empty(), st.GetState())
}

func TestWriteCommitReopenRoundTrip(t *testing.T) {
	store := memkv.New()
	builder := appstorage.NewBuilder(store, svmtest.Hasher, svmtest.Hasher, nil)

	st, err := builder(addr, svm.Empty(), appstorage.Settings{PageCount: 2})
	require.NoError(t, err)

	l := svm.Layout{PageIndex: 0, Offset: 4, Length: 3}
	require.NoError(t, st.WritePageSlice(l, []byte{1, 2, 3}))

	state, err := st.Commit()
	require.NoError(t, err)

	st2, err := builder(addr, state, appstorage.Settings{PageCount: 2})
	require.NoError(t, err)
	out, err := st2.ReadPageSlice(l)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, out)
}

func TestSmallCacheCapacityStillRoundTrips(t *testing.T) {
	store := memkv.New()
	builder := appstorage.NewBuilder(store, svmtest.Hasher, svmtest.Hasher, nil)

	st, err := builder(addr, svm.Empty(), appstorage.Settings{PageCount: 4, CacheCapacity: 1})
	require.NoError(t, err)

	for i := svm.PageIndex(0); i < 4; i++ {
		require.NoError(t, st.WritePageSlice(svm.Layout{PageIndex: i, Offset: 0, Length: 1}, []byte{byte(i) + 1}))
	}

	state, err := st.Commit()
	require.NoError(t, err)
	require.NotEqual(t, svm.Empty(), state)

	st2, err := builder(addr, state, appstorage.Settings{PageCount: 4, CacheCapacity: 1})
	require.NoError(t, err)
	for i := svm.PageIndex(0); i < 4; i++ {
		out, err := st2.ReadPageSlice(svm.Layout{PageIndex: i, Offset: 0, Length: 1})
		require.NoError(t, err)
		require.Equal(t, []byte{byte(i) + 1}, out)
	}
}

func TestGetPageHashBeforeAnyWriteIsZeroPageDigest(t *testing.T) {
	builder := appstorage.NewBuilder(memkv.New(), svmtest.Hasher, svmtest.Hasher, nil)
	st, err := builder(addr, svm.Empty(), appstorage.Settings{PageCount: 1})
	require.NoError(t, err)

	h, err := st.GetPageHash(0)
	require.NoError(t, err)
	require.Equal(t, svmtest.ZeroPageHash(addr, 0), h)
}

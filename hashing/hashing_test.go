package hashing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cdyfng/svm"
	"github.com/cdyfng/svm/hashing"
)

func TestHashPageIsDeterministic(t *testing.T) {
	h := hashing.Blake2b256{}
	addr := svm.AddressFromUint32(1)
	a := h.HashPage(addr, 0, []byte{1, 2, 3})
	b := h.HashPage(addr, 0, []byte{1, 2, 3})
	require.Equal(t, a, b)
}

func TestHashPageDomainSeparatesOnAddress(t *testing.T) {
	h := hashing.Blake2b256{}
	a := h.HashPage(svm.AddressFromUint32(1), 0, []byte{1, 2, 3})
	b := h.HashPage(svm.AddressFromUint32(2), 0, []byte{1, 2, 3})
	require.NotEqual(t, a, b)
}

func TestHashPageDomainSeparatesOnIndex(t *testing.T) {
	h := hashing.Blake2b256{}
	addr := svm.AddressFromUint32(1)
	a := h.HashPage(addr, 0, []byte{1, 2, 3})
	b := h.HashPage(addr, 1, []byte{1, 2, 3})
	require.NotEqual(t, a, b)
}

func TestHashPageDomainSeparatesOnBytes(t *testing.T) {
	h := hashing.Blake2b256{}
	addr := svm.AddressFromUint32(1)
	a := h.HashPage(addr, 0, []byte{1, 2, 3})
	b := h.HashPage(addr, 0, []byte{1, 2, 4})
	require.NotEqual(t, a, b)
}

func TestHashStateOrderSensitive(t *testing.T) {
	h := hashing.Blake2b256{}
	p1 := h.HashPage(svm.AddressFromUint32(1), 0, []byte{1})
	p2 := h.HashPage(svm.AddressFromUint32(1), 1, []byte{2})

	s1 := h.HashState([]svm.PageHash{p1, p2})
	s2 := h.HashState([]svm.PageHash{p2, p1})
	require.NotEqual(t, s1, s2)
}

func TestHashStateEmptyIsStable(t *testing.T) {
	h := hashing.Blake2b256{}
	a := h.HashState(nil)
	b := h.HashState([]svm.PageHash{})
	require.Equal(t, a, b)
}

func TestZeroPageHashMatchesHashingZeroBuffer(t *testing.T) {
	h := hashing.Blake2b256{}
	addr := svm.AddressFromUint32(7)
	var zeros [svm.PageSize]byte
	want := h.HashPage(addr, 3, zeros[:])
	got := hashing.ZeroPageHash(h, addr, 3)
	require.Equal(t, want, got)
}

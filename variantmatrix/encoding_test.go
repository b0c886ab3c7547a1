package variantmatrix

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinaryRoundTrip(t *testing.T) {
	src, err := New([]int8{0, 1, Mask, 2, 1, 0}, []float64{10.5, 3}, WithMaxAllele(4))
	require.NoError(t, err)

	data, err := src.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, "VMAT", string(data[:4]))
	assert.Len(t, data, binaryHeaderSize+6+2*8)

	var back VariantMatrix
	require.NoError(t, back.UnmarshalBinary(data))
	assert.True(t, src.Equal(&back))
	assert.Equal(t, int8(4), back.MaxAllele())
	assert.False(t, back.PositionsAscending())
	assert.True(t, back.Resizable())

	// The decoded matrix does not alias the input.
	data[binaryHeaderSize] = 1
	code, err := back.At(0, 0)
	require.NoError(t, err)
	assert.Equal(t, int8(0), code)
}

func TestBinaryRoundTripEmpty(t *testing.T) {
	m, err := FromTreeSequence(fakeTreeSequence{nsam: 3}, 1)
	require.NoError(t, err)
	data, err := m.MarshalBinary()
	require.NoError(t, err)

	var back VariantMatrix
	require.NoError(t, back.UnmarshalBinary(data))
	assert.Equal(t, 0, back.NSites())
	assert.Equal(t, 3, back.NSam())
}

func TestUnmarshalInvalidatesViews(t *testing.T) {
	m := twoByTwo(t)
	site, err := m.Site(0)
	require.NoError(t, err)

	data, err := twoByFour(t).MarshalBinary()
	require.NoError(t, err)
	require.NoError(t, m.UnmarshalBinary(data))
	assert.Equal(t, 4, m.NSam())

	_, err = site.AsList()
	assert.ErrorIs(t, err, ErrUseAfterInvalidation)
}

func TestUnmarshalRejectsBadInput(t *testing.T) {
	good, err := twoByFour(t).MarshalBinary()
	require.NoError(t, err)

	corrupt := func(f func([]byte) []byte) []byte {
		b := make([]byte, len(good))
		copy(b, good)
		return f(b)
	}

	cases := map[string][]byte{
		"short":     good[:10],
		"magic":     corrupt(func(b []byte) []byte { b[0] = 'X'; return b }),
		"version":   corrupt(func(b []byte) []byte { b[4] = 9; return b }),
		"truncated": good[:len(good)-1],
		"trailing":  append(corrupt(func(b []byte) []byte { return b }), 0),
		"huge":      corrupt(func(b []byte) []byte { b[13] = 0x7f; return b }),
		"bad code":  corrupt(func(b []byte) []byte { b[binaryHeaderSize] = 0xff; return b }),
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			var m VariantMatrix
			assert.ErrorIs(t, m.UnmarshalBinary(data), ErrInvalidArgument)
		})
	}
}

// header builds a bodyless encoding of an empty matrix.
func header(nsites, nsam uint64) []byte {
	b := make([]byte, binaryHeaderSize)
	copy(b, binaryMagic[:])
	b[4] = binaryVersion
	b[5] = 1
	binary.LittleEndian.PutUint64(b[6:14], nsites)
	binary.LittleEndian.PutUint64(b[14:22], nsam)
	return b
}

func TestUnmarshalBoundsSampleCount(t *testing.T) {
	for _, nsam := range []uint64{1 << 63, 1 << 40, math.MaxInt32 + 1} {
		var m VariantMatrix
		assert.ErrorIs(t, m.UnmarshalBinary(header(0, nsam)), ErrInvalidArgument, "nsam %d", nsam)
		assert.Zero(t, m.NSam())
	}

	var m VariantMatrix
	require.NoError(t, m.UnmarshalBinary(header(0, 6)))
	assert.Equal(t, 0, m.NSites())
	assert.Equal(t, 6, m.NSam())
}

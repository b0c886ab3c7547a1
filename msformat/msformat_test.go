package msformat

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/carbocation/varmatrix/variantmatrix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoReplicates = `ms 4 2 -t 1.0
1234 5678 91011

//
segsites: 3
positions: 0.0123 0.5 0.9876
010
110
00N
001

//
segsites: 0

//
segsites: 1
positions: 0.25
1
0
`

func TestReadReplicates(t *testing.T) {
	r := NewReader(strings.NewReader(twoReplicates))

	m, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, 3, m.NSites())
	assert.Equal(t, 4, m.NSam())
	assert.Equal(t, []float64{0.0123, 0.5, 0.9876}, m.Positions())

	site, err := m.Site(1)
	require.NoError(t, err)
	got, err := site.AsList()
	require.NoError(t, err)
	assert.Equal(t, []int8{1, 1, 0, 0}, got)

	code, err := m.At(2, 2)
	require.NoError(t, err)
	assert.Equal(t, variantmatrix.Mask, code)

	empty, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, 0, empty.NSites())
	assert.Equal(t, 4, empty.NSam())

	last, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, 2, last.NSam())

	_, err = r.Read()
	assert.Equal(t, io.EOF, err)
}

func TestReadAll(t *testing.T) {
	all, err := NewReader(strings.NewReader(twoReplicates)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestWriteThenRead(t *testing.T) {
	m, err := variantmatrix.NewFromRows([][]int8{
		{0, 1, variantmatrix.Mask},
		{2, 0, 0},
	}, []float64{0.125, 0.75})
	require.NoError(t, err)

	text, err := Format(m)
	require.NoError(t, err)
	assert.Contains(t, text, "segsites: 2\npositions: 0.125 0.75\n02\n10\nN0\n")

	back, err := NewReader(strings.NewReader(text)).Read()
	require.NoError(t, err)
	assert.True(t, m.Equal(back))
}

func TestWriteRejectsWideCodes(t *testing.T) {
	m, err := variantmatrix.New([]int8{10, 0}, []float64{0.5})
	require.NoError(t, err)
	_, err = Format(m)
	assert.Error(t, err)
}

func TestMalformed(t *testing.T) {
	for name, in := range map[string]string{
		"no segsites":      "//\npositions: 0.1\n",
		"count mismatch":   "//\nsegsites: 2\npositions: 0.1\n01\n",
		"short haplotype":  "//\nsegsites: 2\npositions: 0.1 0.2\n0\n",
		"bad character":    "//\nsegsites: 1\npositions: 0.1\nx\n",
		"bad position":     "//\nsegsites: 1\npositions: abc\n1\n",
		"missing position": "//\nsegsites: 1\n1\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewReader(strings.NewReader(in)).Read()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrFormat), err.Error())
		})
	}
}

func TestInvariantReplicateSampleCount(t *testing.T) {
	// The command line gives the count before any haplotypes are seen.
	r := NewReader(strings.NewReader("ms 6 1 -t 0.1\n1 2 3\n\n//\nsegsites: 0\n"))
	m, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, 0, m.NSites())
	assert.Equal(t, 6, m.NSam())

	// Without one, the latest replicate with haplotypes supplies it.
	r = NewReader(strings.NewReader("//\nsegsites: 0\n\n//\nsegsites: 1\npositions: 0.5\n0\n1\n1\n\n//\nsegsites: 0\n"))
	first, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, 0, first.NSam())
	_, err = r.Read()
	require.NoError(t, err)
	last, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, 3, last.NSam())
}

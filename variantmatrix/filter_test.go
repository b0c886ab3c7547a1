package variantmatrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isSingleton reports whether exactly two states are present and one of them
// is seen only once.
func isSingleton(v View) bool {
	sc := NewStateCounts()
	if err := sc.Count(v); err != nil {
		return false
	}
	if sc.NStates() != 2 {
		return false
	}
	for _, c := range sc.Counts() {
		if c == 1 {
			return true
		}
	}
	return false
}

// removeNonRefSingletons treats 0 as the reference state.
type removeNonRefSingletons struct {
	sc *StateCounts
}

func (r removeNonRefSingletons) remove(v View) bool {
	if err := r.sc.Count(v); err != nil {
		return false
	}
	return r.sc.NonReference() == 1
}

func TestFilterSites(t *testing.T) {
	m := twoByFour(t)
	removed, err := FilterSites(m, isSingleton)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, m.NSites())
	assert.Equal(t, []float64{0.1}, m.Positions())

	site, err := m.Site(0)
	require.NoError(t, err)
	assert.Equal(t, []int8{0, 1, 1, 0}, collect(t, site))
}

func TestFilterSitesWithReferenceCounter(t *testing.T) {
	sc, err := NewStateCountsWithReference(0)
	require.NoError(t, err)
	f := removeNonRefSingletons{sc: sc}

	m := twoByFour(t)
	removed, err := FilterSites(m, f.remove)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, []float64{0.1}, m.Positions())

	// The counter last saw the dropped site: three reference calls, one not.
	ref, ok := sc.RefState()
	require.True(t, ok)
	assert.Equal(t, int8(0), ref)
	assert.Equal(t, int32(3), sc.Reference())
	assert.Equal(t, int32(1), sc.NonReference())
	assert.Equal(t, sc.N(), sc.Reference()+sc.NonReference())

	// Same result on a copy built from the exported buffers.
	g, p := twoByFour(t).Export()
	m2, err := New(g, p)
	require.NoError(t, err)
	removed, err = FilterSites(m2, f.remove)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestFilterSitesArithmetic(t *testing.T) {
	rows := [][]int8{
		{0, 0, 0}, {0, 1, 0}, {1, 1, 1}, {0, 0, 1}, {Mask, 0, 0}, {1, 0, 1},
	}
	pos := []float64{1, 2, 3, 4, 5, 6}
	m, err := NewFromRows(rows, pos)
	require.NoError(t, err)

	// Drop monomorphic sites.
	monomorphic := func(v View) bool {
		sc := NewStateCounts()
		require.NoError(t, sc.Count(v))
		return sc.NStates() < 2
	}

	want := 0
	for i := 0; i < m.NSites(); i++ {
		site, err := m.Site(i)
		require.NoError(t, err)
		if monomorphic(site) {
			want++
		}
	}

	before := m.NSites()
	removed, err := FilterSites(m, monomorphic)
	require.NoError(t, err)
	assert.Equal(t, want, removed)
	assert.Equal(t, before-want, m.NSites())
	assert.Equal(t, []float64{2, 4, 6}, m.Positions())
	assert.Len(t, m.GenotypeBuffer(), m.NSites()*m.NSam())
}

func TestFilterNothingStillInvalidates(t *testing.T) {
	m := twoByFour(t)
	gen := m.Generation()
	removed, err := FilterSites(m, func(View) bool { return false })
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.Greater(t, m.Generation(), gen)
}

func TestFilterHaplotypes(t *testing.T) {
	m := twoByFour(t)

	// Remove samples that never carry state 1.
	removed, err := FilterHaplotypes(m, func(v View) bool {
		list, err := v.AsList()
		require.NoError(t, err)
		for _, c := range list {
			if c == 1 {
				return false
			}
		}
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 3, m.NSam())
	assert.Equal(t, 2, m.NSites())

	site0, err := m.Site(0)
	require.NoError(t, err)
	assert.Equal(t, []int8{1, 1, 0}, collect(t, site0))
	site1, err := m.Site(1)
	require.NoError(t, err)
	assert.Equal(t, []int8{0, 0, 1}, collect(t, site1))
}

func TestFilterHaplotypesOnBorrowed(t *testing.T) {
	m, err := NewBorrowed([]int8{0, 1}, []float64{1})
	require.NoError(t, err)
	_, err = FilterHaplotypes(m, func(View) bool { return true })
	assert.ErrorIs(t, err, ErrNotResizable)
	assert.Equal(t, 2, m.NSam())
}

func TestFilterAfterWindowOfBorrowed(t *testing.T) {
	m, err := NewBorrowed([]int8{0, 1, 1, 0, 0, 0, 0, 1}, []float64{0.1, 0.2})
	require.NoError(t, err)

	w, err := m.Window(0, 1)
	require.NoError(t, err)
	assert.True(t, w.Resizable())
	removed, err := FilterSites(w, isSingleton)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 2, m.NSites())
}

package variantmatrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, v View) []int8 {
	t.Helper()
	out := make([]int8, 0, v.Len())
	c := v.Iter()
	for c.Next() {
		out = append(out, c.Value())
	}
	require.NoError(t, c.Err())
	return out
}

func TestIterateSitesAndSamples(t *testing.T) {
	data := []int8{0, 1, 1, 0, 0, 0, 0, 1}
	m := twoByFour(t)

	for i := 0; i < m.NSites(); i++ {
		site, err := m.Site(i)
		require.NoError(t, err)
		assert.Equal(t, m.NSam(), site.Len())
		assert.Equal(t, data[i*m.NSam():(i+1)*m.NSam()], collect(t, site))
	}

	for j := 0; j < m.NSam(); j++ {
		sample, err := m.Sample(j)
		require.NoError(t, err)
		assert.Equal(t, m.NSites(), sample.Len())
		assert.Equal(t, []int8{data[j], data[m.NSam()+j]}, collect(t, sample))
	}
}

func TestIterationRestarts(t *testing.T) {
	site, err := twoByFour(t).Site(1)
	require.NoError(t, err)

	first := collect(t, site)
	second := collect(t, site)
	assert.Equal(t, first, second)
}

func TestAsListOutlivesMatrixMutation(t *testing.T) {
	m := twoByFour(t)
	site, err := m.Site(0)
	require.NoError(t, err)
	list, err := site.AsList()
	require.NoError(t, err)

	_, err = FilterSites(m, func(View) bool { return true })
	require.NoError(t, err)

	assert.Equal(t, []int8{0, 1, 1, 0}, list)
}

func TestViewsInvalidatedByFiltering(t *testing.T) {
	m := twoByFour(t)
	site, err := m.Site(0)
	require.NoError(t, err)
	sample, err := m.Sample(0)
	require.NoError(t, err)
	cursor := site.Iter()
	require.True(t, cursor.Next())

	var seen []View
	_, err = FilterSites(m, func(v View) bool {
		seen = append(seen, v)
		return false
	})
	require.NoError(t, err)

	assert.False(t, site.Valid())
	assert.False(t, sample.Valid())
	assert.Equal(t, 4, site.Len())
	assert.Equal(t, 2, sample.Len())
	_, err = site.At(site.Len() - 1)
	assert.ErrorIs(t, err, ErrUseAfterInvalidation)
	_, err = site.AsList()
	assert.ErrorIs(t, err, ErrUseAfterInvalidation)
	_, err = sample.At(0)
	assert.ErrorIs(t, err, ErrUseAfterInvalidation)
	assert.False(t, cursor.Next())
	assert.ErrorIs(t, cursor.Err(), ErrUseAfterInvalidation)
	for _, v := range seen {
		_, err := v.AsList()
		assert.ErrorIs(t, err, ErrUseAfterInvalidation)
	}

	// Fresh views work.
	site, err = m.Site(0)
	require.NoError(t, err)
	assert.True(t, site.Valid())
	assert.Equal(t, []int8{0, 1, 1, 0}, collect(t, site))
}

func TestWritableViews(t *testing.T) {
	m := twoByFour(t)
	row, err := m.SiteMut(1)
	require.NoError(t, err)
	require.NoError(t, row.Set(0, 1))
	require.NoError(t, row.Set(1, Mask))
	assert.ErrorIs(t, row.Set(2, 5), ErrInvalidArgument)
	assert.ErrorIs(t, row.Set(4, 0), ErrIndex)

	col, err := m.SampleMut(3)
	require.NoError(t, err)
	require.NoError(t, col.Set(0, 1))

	got, err := m.Site(1)
	require.NoError(t, err)
	assert.Equal(t, []int8{1, Mask, 0, 1}, collect(t, got))
	code, err := m.At(0, 3)
	require.NoError(t, err)
	assert.Equal(t, int8(1), code)

	// Setting values is not a structural change.
	_, err = row.AsList()
	assert.NoError(t, err)
}

func TestViewElementIndex(t *testing.T) {
	site, err := twoByTwo(t).Site(0)
	require.NoError(t, err)
	v, err := site.At(1)
	require.NoError(t, err)
	assert.Equal(t, int8(1), v)
	_, err = site.At(2)
	assert.ErrorIs(t, err, ErrIndex)
}

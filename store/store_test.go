package store

import (
	"path/filepath"
	"testing"

	"github.com/carbocation/varmatrix/summary"
	"github.com/carbocation/varmatrix/variantmatrix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"
)

func open(t *testing.T, path string) *DB {
	t.Helper()
	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSummariesRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.sqlite")
	db := open(t, path)

	m, err := variantmatrix.NewFromRows([][]int8{
		{0, 1, 0, 1},
		{0, 0, 0, 1},
		{0, 0, 0, 0},
	}, []float64{0.1, 0.5, 0.9})
	require.NoError(t, err)

	whole, err := summary.Compute(m, 0)
	require.NoError(t, err)
	windows, err := summary.ComputeWindows(m, 1, 0.5, 0.5, 0, 1)
	require.NoError(t, err)

	require.NoError(t, db.InsertSummaries([]summary.Row{whole}))
	require.NoError(t, db.InsertSummaries(windows))

	got, err := db.Summaries()
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, whole, got[0])
	assert.Equal(t, windows, got[1:])

	// Reopening keeps what was written.
	got, err = open(t, path).Summaries()
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestAlleleCounts(t *testing.T) {
	db := open(t, filepath.Join(t.TempDir(), "counts.sqlite"))

	m, err := variantmatrix.New([]int8{0, 1, variantmatrix.Mask, 2, 2, 0}, []float64{10, 20})
	require.NoError(t, err)
	ac := m.CountAlleles()

	rows, err := AlleleCountRows("chr1", ac)
	require.NoError(t, err)
	// Three states per site plus one missing row for the first site.
	require.Len(t, rows, 7)
	assert.Equal(t, AlleleCount{Label: "chr1", Site: 0, Position: 10, Count: 1}, rows[3])

	require.NoError(t, db.InsertAlleleCounts("chr1", ac))
	require.NoError(t, db.InsertAlleleCounts("chr2", ac))

	got, err := db.AlleleCounts("chr1")
	require.NoError(t, err)
	assert.Equal(t, rows, got)

	assert.Equal(t, null.IntFrom(2), got[6].State)
	assert.Equal(t, int64(2), got[6].Count)

	none, err := db.AlleleCounts("chr3")
	require.NoError(t, err)
	assert.Empty(t, none)
}

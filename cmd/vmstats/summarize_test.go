package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/carbocation/varmatrix/msformat"
	"github.com/carbocation/varmatrix/variantmatrix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMS(t *testing.T, reps ...*variantmatrix.VariantMatrix) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sim.ms")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := msformat.NewWriter(f)
	require.NoError(t, w.WriteHeader("ms 4 2 -t 5", 1, 2, 3))
	for _, m := range reps {
		require.NoError(t, w.Write(m))
	}
	require.NoError(t, w.Flush())
	return path
}

func replicate(t *testing.T) *variantmatrix.VariantMatrix {
	t.Helper()
	m, err := variantmatrix.NewFromRows([][]int8{
		{0, 1, 0, 1},
		{0, 0, 0, 1},
		{1, 1, 0, 0},
	}, []float64{0.1, 0.4, 0.7})
	require.NoError(t, err)
	return m
}

func TestSummarizeInput(t *testing.T) {
	path := writeMS(t, replicate(t), replicate(t))

	res, err := summarizeInput(context.Background(), path, nil, config{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.replicates)
	require.Len(t, res.rows, 2)
	assert.Equal(t, 1, res.rows[1].Replicate)
	assert.Equal(t, 3, res.rows[0].Segregating)
	assert.Equal(t, 1, res.rows[0].Singletons)
}

func TestSummarizeInputWindowsAndFilters(t *testing.T) {
	path := writeMS(t, replicate(t))

	cfg := config{window: 0.5, step: 0.5, start: 0, end: 1, dropSingletons: true}
	res, err := summarizeInput(context.Background(), path, nil, cfg)
	require.NoError(t, err)
	require.Len(t, res.rows, 2)

	// The singleton at 0.4 is gone before windowing.
	assert.Equal(t, 1, res.rows[0].NSites)
	assert.Equal(t, 1, res.rows[1].NSites)
	assert.True(t, res.rows[0].WindowStart.Valid)
}

func TestSiteFilter(t *testing.T) {
	assert.Nil(t, siteFilter(config{}))
	assert.NotNil(t, siteFilter(config{minMAF: 0.1}))
}

func TestSummarizeInputMissingFile(t *testing.T) {
	_, err := summarizeInput(context.Background(), filepath.Join(t.TempDir(), "nope.ms"), nil, config{})
	assert.Error(t, err)
}

func TestHistogram(t *testing.T) {
	path := writeMS(t, replicate(t))

	res, err := summarizeInput(context.Background(), path, nil, config{histBins: 5})
	require.NoError(t, err)
	assert.Len(t, res.mafs, 3)

	var buf bytes.Buffer
	require.NoError(t, printHistogram(&buf, res.mafs, 5))
	assert.Contains(t, buf.String(), "3 segregating sites")

	buf.Reset()
	require.NoError(t, printHistogram(&buf, nil, 5))
	assert.Empty(t, buf.String())
}

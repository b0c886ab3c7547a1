package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/carbocation/varmatrix/matfile"
	"github.com/carbocation/varmatrix/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestInputValidation(t *testing.T) {
	assert.Error(t, inputConfig{}.validate())
	assert.Error(t, inputConfig{vcf: "a.vcf", bgen: "a.bgen"}.validate())
	assert.Error(t, inputConfig{table: "t.tsv", regions: "1:1-10"}.validate())
	assert.Error(t, inputConfig{vcf: "a.vcf", bgenRegion: "1:1-10"}.validate())
	assert.NoError(t, inputConfig{vcf: "a.vcf", regions: "1:1-10"}.validate())
	assert.NoError(t, inputConfig{bgen: "a.bgen", bgenRegion: "1:1-10"}.validate())
}

func TestFilterSelection(t *testing.T) {
	names := func(c filterConfig) []string {
		out := []string{}
		for _, f := range c.filters() {
			out = append(out, f.name)
		}
		return out
	}

	assert.Empty(t, names(filterConfig{maxMissing: 1}))
	assert.Equal(t, []string{"missingness", "biallelic", "maf", "hwe"},
		names(filterConfig{maxMissing: 0.1, biallelic: true, dropMonomorphic: true, minMAF: 0.01, minHWE: 1e-6}))
	assert.Equal(t, []string{"monomorphic"}, names(filterConfig{maxMissing: 1, dropMonomorphic: true}))
}

func TestTableToMatfileAndSqlite(t *testing.T) {
	dir := t.TempDir()
	table := writeFile(t, dir, "geno.tsv", "0\t1\t1\t0\n0\t0\t0\t0\n1\t.\t1\t0\n")
	bim := writeFile(t, dir, "geno.bim", "1\trs1\t0\t100\tA\tG\n1\trs2\t0\t200\tC\tT\n1\trs3\t0\t300\tG\tA\n")

	ctx := context.Background()
	l, err := load(ctx, inputConfig{table: table, bim: bim}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, l.matrix.NSites())
	assert.Equal(t, 4, l.matrix.NSam())

	require.NoError(t, applyFilters(l.matrix, filterConfig{maxMissing: 1, dropMonomorphic: true}))
	assert.Equal(t, []float64{100, 300}, l.matrix.Positions())

	out := outputConfig{
		path:       filepath.Join(dir, "geno"+matfile.Extension),
		samplesOut: filepath.Join(dir, "columns.tsv"),
		sqlite:     filepath.Join(dir, "counts.sqlite"),
		label:      "geno",
	}
	require.NoError(t, write(ctx, l, out))

	back, err := matfile.Load(ctx, out.path, nil)
	require.NoError(t, err)
	assert.True(t, l.matrix.Equal(back))

	db, err := store.Open(out.sqlite)
	require.NoError(t, err)
	defer db.Close()
	rows, err := db.AlleleCounts("geno")
	require.NoError(t, err)
	// Two states per site plus the missing row of the third site.
	assert.Len(t, rows, 5)

	columns, err := os.ReadFile(out.samplesOut)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(columns)), "\n")
	assert.Len(t, lines, 5)
	assert.Equal(t, "3\t3\t0", lines[4])
}

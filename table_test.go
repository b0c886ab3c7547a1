package varmatrix

import (
	"bufio"
	"strings"
	"testing"

	"github.com/carbocation/varmatrix/variantmatrix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadGenotypeTableWithPositionColumn(t *testing.T) {
	in := "pos\ts1\ts2\ts3\n100\t0\t1\t.\n250\t1\t1\t2\n"
	m, err := ReadGenotypeTable(strings.NewReader(in), TableOptions{Header: true})
	require.NoError(t, err)
	assert.Equal(t, 2, m.NSites())
	assert.Equal(t, 3, m.NSam())
	assert.Equal(t, []float64{100, 250}, m.Positions())
	assert.Equal(t, int8(2), m.MaxAllele())

	code, err := m.At(0, 2)
	require.NoError(t, err)
	assert.Equal(t, variantmatrix.Mask, code)
}

func TestReadGenotypeTableWithBIM(t *testing.T) {
	bim := "1\trs1\t0\t1000\tA\tG\n\n1\trs2\t0\t2000\tC\tT\n"
	rows, err := NewBIM(strings.NewReader(bim)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "rs2", rows[1].VariantID)

	in := "0,1,1,0\n0,0,0,NA\n"
	m, err := ReadGenotypeTable(strings.NewReader(in), TableOptions{Positions: BIMPositions(rows)})
	require.NoError(t, err)
	assert.Equal(t, 4, m.NSam())
	assert.Equal(t, []float64{1000, 2000}, m.Positions())

	_, err = ReadGenotypeTable(strings.NewReader(in), TableOptions{Positions: []float64{1}})
	assert.Error(t, err)
}

func TestReadGenotypeTableFailures(t *testing.T) {
	for name, in := range map[string]string{
		"ragged":       "1\t0\t1\n2\t0\n",
		"bad position": "x\t0\t1\n",
		"bad code":     "1\t0\tz\n",
		"negative":     "1\t0\t-3\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ReadGenotypeTable(strings.NewReader(in), TableOptions{Delimiter: '\t'})
			assert.Error(t, err)
		})
	}

	maxAllele := int8(1)
	_, err := ReadGenotypeTable(strings.NewReader("1\t0\t2\n"), TableOptions{MaxAllele: &maxAllele})
	assert.ErrorIs(t, err, variantmatrix.ErrInvalidArgument)
}

func TestBIMErrors(t *testing.T) {
	_, err := NewBIM(strings.NewReader("1 rs1 0 1000 A\n")).ReadAll()
	assert.Error(t, err)

	_, err = NewBIM(strings.NewReader("1 rs1 0 x A G\n")).ReadAll()
	assert.Error(t, err)
}

func TestDetermineDelimiter(t *testing.T) {
	assert.Equal(t, ',', DetermineDelimiter(bufio.NewReader(strings.NewReader("a,b,c\n1,2,3\n4,5,6\n"))))
	assert.Equal(t, '\t', DetermineDelimiter(bufio.NewReader(strings.NewReader("a\tb\tc\n1\t2\t3\n4\t5\t6\n"))))
}

func TestSplitGSPath(t *testing.T) {
	bucket, object, err := SplitGSPath("gs://bucket/dir/file.vcf.gz")
	require.NoError(t, err)
	assert.Equal(t, "bucket", bucket)
	assert.Equal(t, "dir/file.vcf.gz", object)

	_, _, err = SplitGSPath("gs://bucket")
	assert.Error(t, err)
	assert.True(t, IsGSPath("gs://x/y"))
	assert.False(t, IsGSPath("/tmp/x"))
}

package varmatrix

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Map columns in the BIM file to their positions
const (
	Chromosome int = iota
	VariantID
	Morgans
	Coordinate
	Allele1
	Allele2
)

type BIMRow struct {
	Chromosome string
	Coordinate uint32 // Labeled "position" by most applications
	VariantID  string // E.g., RSID
	Allele1    string // Can contain > 1 character
	Allele2    string // Can contain > 1 character
}

// BIM reads PLINK .bim rows one at a time.
type BIM struct {
	scanner *bufio.Scanner
	line    int
	err     error
}

func NewBIM(r io.Reader) *BIM {
	return &BIM{scanner: bufio.NewScanner(r)}
}

func (b *BIM) Err() error {
	if b.err != nil {
		return b.err
	}

	return b.scanner.Err()
}

// Read returns the next row, or nil at the end of input or on error. Blank
// lines are skipped.
func (b *BIM) Read() *BIMRow {
	for b.err == nil && b.scanner.Scan() {
		b.line++
		cols := strings.Fields(b.scanner.Text())
		if len(cols) == 0 {
			continue
		}
		if len(cols) < Allele2+1 {
			b.err = fmt.Errorf("bim line %d: expected %d columns, found %d", b.line, Allele2+1, len(cols))
			return nil
		}

		coord64, err := strconv.ParseUint(cols[Coordinate], 10, 32)
		if err != nil {
			b.err = fmt.Errorf("bim line %d: %w", b.line, err)
			return nil
		}

		return &BIMRow{
			Chromosome: cols[Chromosome],
			VariantID:  cols[VariantID],
			Coordinate: uint32(coord64),
			Allele1:    cols[Allele1],
			Allele2:    cols[Allele2],
		}
	}

	return nil
}

// ReadAll returns every remaining row.
func (b *BIM) ReadAll() ([]BIMRow, error) {
	var out []BIMRow
	for row := b.Read(); row != nil; row = b.Read() {
		out = append(out, *row)
	}

	return out, b.Err()
}

// BIMPositions returns the coordinate of every row as a site position.
func BIMPositions(rows []BIMRow) []float64 {
	out := make([]float64, len(rows))
	for i, row := range rows {
		out[i] = float64(row.Coordinate)
	}
	return out
}

package varmatrix

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/carbocation/varmatrix/variantmatrix"
)

// TableOptions describes a delimited genotype table: one line per site, one
// column per sample.
type TableOptions struct {
	// Header skips the first line.
	Header bool

	// Positions, if set, supplies one position per site and every column is
	// a genotype. Otherwise the first column of each line is the position.
	Positions []float64

	// Delimiter is guessed from the data when zero.
	Delimiter rune

	MaxAllele *int8
}

// IsMissingToken reports whether a table cell denotes missing data.
func IsMissingToken(s string) bool {
	switch strings.ToUpper(s) {
	case "", ".", "N", "NA", "-", "?":
		return true
	}
	return false
}

// ParseGenotypeCode parses one table cell into a genotype code.
func ParseGenotypeCode(s string) (int8, error) {
	s = strings.TrimSpace(s)
	if IsMissingToken(s) {
		return variantmatrix.Mask, nil
	}

	v, err := strconv.ParseInt(s, 10, 8)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("genotype code %d is negative", v)
	}

	return int8(v), nil
}

// ReadGenotypeTable builds a matrix from a delimited table.
func ReadGenotypeTable(r io.Reader, opts TableOptions) (*variantmatrix.VariantMatrix, error) {
	br := bufio.NewReaderSize(r, BufferSize)

	delim := opts.Delimiter
	if delim == 0 {
		delim = DetermineDelimiter(br)
	}

	cr := csv.NewReader(br)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	cr.TrimLeadingSpace = true

	var genotypes []int8
	var positions []float64
	nsam := -1

	for line := 1; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, pfx.Err(err)
		}
		if line == 1 && opts.Header {
			continue
		}

		cells := rec
		if opts.Positions == nil {
			if len(rec) < 1 {
				return nil, fmt.Errorf("line %d: no position column", line)
			}
			pos, err := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: position: %w", line, err)
			}
			positions = append(positions, pos)
			cells = rec[1:]
		}

		if nsam < 0 {
			nsam = len(cells)
		} else if len(cells) != nsam {
			return nil, fmt.Errorf("line %d: found %d samples, expected %d", line, len(cells), nsam)
		}

		for col, cell := range cells {
			code, err := ParseGenotypeCode(cell)
			if err != nil {
				return nil, fmt.Errorf("line %d, sample %d: %w", line, col, err)
			}
			genotypes = append(genotypes, code)
		}
	}

	if opts.Positions != nil {
		positions = append([]float64(nil), opts.Positions...)
		if nsam > 0 && len(genotypes)/nsam != len(positions) {
			return nil, fmt.Errorf("table has %d sites but %d positions were supplied", len(genotypes)/nsam, len(positions))
		}
	}

	var mopts []variantmatrix.Option
	if opts.MaxAllele != nil {
		mopts = append(mopts, variantmatrix.WithMaxAllele(*opts.MaxAllele))
	}

	return variantmatrix.New(genotypes, positions, mopts...)
}

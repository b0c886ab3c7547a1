package variantmatrix

import (
	"fmt"
	"math"
)

// AlleleCountMatrix tallies, for every site, how many samples carry each
// allele code. Column k of a row counts code k; missing genotypes are kept in a
// separate per-site tally, so Row(i) sums to NSam() minus Missing(i).
//
// An AlleleCountMatrix is a snapshot: it never changes and does not follow
// later mutation of the matrix it was counted from.
type AlleleCountMatrix struct {
	counts    []int32
	missing   []int32
	positions []float64
	nrow      int
	ncol      int
	nsam      int
}

// NewAlleleCountMatrix counts alleles at every site of m. There is one column
// per code from 0 to m.MaxAllele().
func NewAlleleCountMatrix(m *VariantMatrix) *AlleleCountMatrix {
	ncol := int(m.maxAllele) + 1
	ac := &AlleleCountMatrix{
		counts:    make([]int32, m.nsites*ncol),
		missing:   make([]int32, m.nsites),
		positions: m.Positions(),
		nrow:      m.nsites,
		ncol:      ncol,
		nsam:      m.nsam,
	}

	g := m.geno.Genotypes()
	for site := 0; site < m.nsites; site++ {
		row := ac.counts[site*ncol : (site+1)*ncol]
		for _, code := range g[site*m.nsam : (site+1)*m.nsam] {
			if code == Mask {
				ac.missing[site]++
				continue
			}
			row[code]++
		}
	}

	return ac
}

// CountAlleles is shorthand for NewAlleleCountMatrix(m).
func (m *VariantMatrix) CountAlleles() *AlleleCountMatrix {
	return NewAlleleCountMatrix(m)
}

func (ac *AlleleCountMatrix) NRow() int { return ac.nrow }
func (ac *AlleleCountMatrix) NCol() int { return ac.ncol }
func (ac *AlleleCountMatrix) NSam() int { return ac.nsam }

// Counts returns a copy of the flat nrow × ncol count buffer.
func (ac *AlleleCountMatrix) Counts() []int32 {
	out := make([]int32, len(ac.counts))
	copy(out, ac.counts)
	return out
}

// Row returns a copy of the per-allele counts at site i.
func (ac *AlleleCountMatrix) Row(i int) ([]int32, error) {
	if i < 0 || i >= ac.nrow {
		return nil, fmt.Errorf("%w: row %d, nrow is %d", ErrIndex, i, ac.nrow)
	}
	out := make([]int32, ac.ncol)
	copy(out, ac.counts[i*ac.ncol:(i+1)*ac.ncol])
	return out, nil
}

// Missing is the number of samples with missing data at site i.
func (ac *AlleleCountMatrix) Missing(i int) (int32, error) {
	if i < 0 || i >= ac.nrow {
		return 0, fmt.Errorf("%w: row %d, nrow is %d", ErrIndex, i, ac.nrow)
	}
	return ac.missing[i], nil
}

// Position is the position of the site behind row i.
func (ac *AlleleCountMatrix) Position(i int) (float64, error) {
	if i < 0 || i >= ac.nrow {
		return 0, fmt.Errorf("%w: row %d, nrow is %d", ErrIndex, i, ac.nrow)
	}
	return ac.positions[i], nil
}

// Rows returns a new matrix made of the listed rows, in the listed order.
// Indexes may repeat.
func (ac *AlleleCountMatrix) Rows(indexes []int) (*AlleleCountMatrix, error) {
	for _, i := range indexes {
		if i < 0 || i >= ac.nrow {
			return nil, fmt.Errorf("%w: row %d, nrow is %d", ErrIndex, i, ac.nrow)
		}
	}
	return ac.pick(indexes), nil
}

// SliceRows selects rows start, start+step, ... below stop. Negative start and
// stop count back from the end and out of range bounds are clamped, as with a
// Python slice. step must be positive.
func (ac *AlleleCountMatrix) SliceRows(start, stop, step int) (*AlleleCountMatrix, error) {
	if step <= 0 {
		return nil, fmt.Errorf("%w: slice step must be positive, got %d", ErrInvalidArgument, step)
	}

	clamp := func(i int) int {
		if i < 0 {
			i += ac.nrow
		}
		return min(max(i, 0), ac.nrow)
	}
	start, stop = clamp(start), clamp(stop)

	indexes := make([]int, 0)
	for i := start; i < stop; i += step {
		indexes = append(indexes, i)
	}
	return ac.pick(indexes), nil
}

// WindowRows selects the rows whose site position lies in [begin, end).
func (ac *AlleleCountMatrix) WindowRows(begin, end float64) (*AlleleCountMatrix, error) {
	if math.IsNaN(begin) || math.IsNaN(end) || end < begin {
		return nil, fmt.Errorf("%w: bad window [%v, %v)", ErrInvalidArgument, begin, end)
	}
	indexes := make([]int, 0)
	for i, p := range ac.positions {
		if p >= begin && p < end {
			indexes = append(indexes, i)
		}
	}
	return ac.pick(indexes), nil
}

func (ac *AlleleCountMatrix) pick(indexes []int) *AlleleCountMatrix {
	out := &AlleleCountMatrix{
		counts:    make([]int32, 0, len(indexes)*ac.ncol),
		missing:   make([]int32, 0, len(indexes)),
		positions: make([]float64, 0, len(indexes)),
		nrow:      len(indexes),
		ncol:      ac.ncol,
		nsam:      ac.nsam,
	}
	for _, i := range indexes {
		out.counts = append(out.counts, ac.counts[i*ac.ncol:(i+1)*ac.ncol]...)
		out.missing = append(out.missing, ac.missing[i])
		out.positions = append(out.positions, ac.positions[i])
	}
	return out
}

// Merge returns the rows of ac followed by the rows of other. Both must come
// from the same samples. The result has as many columns as the wider input;
// the narrower one is padded with zero counts. Merging into an empty zero
// value, or into nil, simply copies other.
func (ac *AlleleCountMatrix) Merge(other *AlleleCountMatrix) (*AlleleCountMatrix, error) {
	if other == nil {
		return nil, fmt.Errorf("%w: cannot merge a nil allele count matrix", ErrInvalidArgument)
	}
	if ac == nil || (ac.nrow == 0 && ac.nsam == 0 && ac.ncol == 0) {
		return other.pick(seq(other.nrow)), nil
	}
	if ac.nsam != other.nsam {
		return nil, fmt.Errorf("%w: cannot merge allele counts over %d and %d samples", ErrInvalidArgument, ac.nsam, other.nsam)
	}

	ncol := max(ac.ncol, other.ncol)
	out := &AlleleCountMatrix{
		counts:    make([]int32, 0, (ac.nrow+other.nrow)*ncol),
		missing:   make([]int32, 0, ac.nrow+other.nrow),
		positions: make([]float64, 0, ac.nrow+other.nrow),
		nrow:      ac.nrow + other.nrow,
		ncol:      ncol,
		nsam:      ac.nsam,
	}
	for _, src := range []*AlleleCountMatrix{ac, other} {
		pad := make([]int32, ncol-src.ncol)
		for i := 0; i < src.nrow; i++ {
			out.counts = append(out.counts, src.counts[i*src.ncol:(i+1)*src.ncol]...)
			out.counts = append(out.counts, pad...)
		}
		out.missing = append(out.missing, src.missing...)
		out.positions = append(out.positions, src.positions...)
	}

	return out, nil
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

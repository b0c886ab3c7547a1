package variantmatrix

import (
	"fmt"
	"math"
	"sort"

	"github.com/carbocation/varmatrix/capsule"
)

// Window returns a new matrix holding the sites whose position lies in
// [begin, end), in their original order, with every sample. The result always
// owns its storage, so windowing is the way to get a filterable matrix out of
// borrowed buffers.
//
// Positions are expected to be ascending. When they are not, the sites are
// found with a linear scan instead of a binary search.
func (m *VariantMatrix) Window(begin, end float64) (*VariantMatrix, error) {
	return m.Slice(begin, end, 0, m.nsam)
}

// Slice is Window restricted to samples [i, j).
func (m *VariantMatrix) Slice(begin, end float64, i, j int) (*VariantMatrix, error) {
	if math.IsNaN(begin) || math.IsNaN(end) {
		return nil, fmt.Errorf("%w: window bounds must not be NaN", ErrInvalidArgument)
	}
	if end < begin {
		return nil, fmt.Errorf("%w: window end %v is before its beginning %v", ErrInvalidArgument, end, begin)
	}
	if i < 0 || j > m.nsam || i > j {
		return nil, fmt.Errorf("%w: sample range [%d, %d) with nsam %d", ErrIndex, i, j, m.nsam)
	}

	sites := m.sitesIn(begin, end)
	nsam := j - i

	src := m.geno.Genotypes()
	srcPos := m.pos.Positions()
	g := make([]int8, 0, len(sites)*nsam)
	p := make([]float64, 0, len(sites))
	for _, s := range sites {
		row := s * m.nsam
		g = append(g, src[row+i:row+j]...)
		p = append(p, srcPos[s])
	}

	return build(capsule.NewVectorGenotypeCapsule(g), capsule.NewVectorPositionCapsule(p), nsam, m.maxAllele), nil
}

// sitesIn lists the indexes of sites with begin <= position < end.
func (m *VariantMatrix) sitesIn(begin, end float64) []int {
	pos := m.pos.Positions()

	if m.ascending {
		lo := sort.SearchFloat64s(pos, begin)
		hi := sort.SearchFloat64s(pos, end)
		out := make([]int, 0, hi-lo)
		for s := lo; s < hi; s++ {
			out = append(out, s)
		}
		return out
	}

	out := make([]int, 0)
	for s, p := range pos {
		if p >= begin && p < end {
			out = append(out, s)
		}
	}
	return out
}

// SlidingWindows cuts [start, end) into windows of width size whose left edges
// are step apart: [start+k*step, start+k*step+size) for every k with
// start+k*step < end. Windows may overlap and may be empty.
func SlidingWindows(m *VariantMatrix, size, step, start, end float64) ([]*VariantMatrix, error) {
	if !(size > 0) {
		return nil, fmt.Errorf("%w: window size must be positive, got %v", ErrInvalidArgument, size)
	}
	if !(step > 0) {
		return nil, fmt.Errorf("%w: step length must be positive, got %v", ErrInvalidArgument, step)
	}
	if math.IsNaN(start) || math.IsNaN(end) || math.IsInf(start, 0) || math.IsInf(end, 0) || end < start {
		return nil, fmt.Errorf("%w: bad window range [%v, %v)", ErrInvalidArgument, start, end)
	}

	out := make([]*VariantMatrix, 0)
	for k := 0; ; k++ {
		left := start + float64(k)*step
		if left >= end {
			break
		}
		w, err := m.Window(left, left+size)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}

	return out, nil
}

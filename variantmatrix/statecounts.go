package variantmatrix

import (
	"fmt"
	"math"
)

// NumStates is the size of the StateCounts buffer: one slot for every
// non-negative int8 code.
const NumStates = math.MaxInt8 + 1

// StateCounts tallies the genotype codes seen along one view. It may carry a
// reference state, in which case the non-missing total is also split into
// reference and non-reference counts.
//
// A StateCounts is reusable: every call to Count starts from zero.
type StateCounts struct {
	counts   [NumStates]int32
	refstate int8
	n        int32
	missing  int32
}

// NewStateCounts returns a counter without a reference state.
func NewStateCounts() *StateCounts {
	return &StateCounts{refstate: Mask}
}

// NewStateCountsWithReference returns a counter that treats ref as the
// reference state.
func NewStateCountsWithReference(ref int8) (*StateCounts, error) {
	if ref < 0 {
		return nil, fmt.Errorf("%w: reference state %d is negative", ErrInvalidArgument, ref)
	}
	return &StateCounts{refstate: ref}, nil
}

// Count resets the counter and tallies every element of v.
func (sc *StateCounts) Count(v View) error {
	sc.reset()

	c := v.Iter()
	for c.Next() {
		sc.add(c.Value())
	}

	return c.Err()
}

func (sc *StateCounts) reset() {
	sc.counts = [NumStates]int32{}
	sc.n = 0
	sc.missing = 0
}

func (sc *StateCounts) add(code int8) {
	if code < 0 {
		sc.missing++
		return
	}
	sc.counts[code]++
	sc.n++
}

// NStates is the number of distinct non-missing codes observed.
func (sc *StateCounts) NStates() int {
	out := 0
	for _, c := range sc.counts {
		if c > 0 {
			out++
		}
	}
	return out
}

// Len is the fixed size of the count buffer.
func (sc *StateCounts) Len() int { return NumStates }

// At is the count of one state code.
func (sc *StateCounts) At(state int) (int32, error) {
	if state < 0 || state >= NumStates {
		return 0, fmt.Errorf("%w: state %d, valid states are 0-%d", ErrIndex, state, NumStates-1)
	}
	return sc.counts[state], nil
}

// Counts returns a copy of the full buffer, indexed by state code.
func (sc *StateCounts) Counts() []int32 {
	out := make([]int32, NumStates)
	copy(out, sc.counts[:])
	return out
}

// N is the number of non-missing elements counted.
func (sc *StateCounts) N() int32 { return sc.n }

// Missing is the number of missing elements counted.
func (sc *StateCounts) Missing() int32 { return sc.missing }

// RefState returns the reference state, if there is one.
func (sc *StateCounts) RefState() (int8, bool) {
	return sc.refstate, sc.refstate != Mask
}

// Reference is the count of the reference state, or zero without one.
func (sc *StateCounts) Reference() int32 {
	if sc.refstate == Mask {
		return 0
	}
	return sc.counts[sc.refstate]
}

// NonReference is the count of every non-missing state other than the
// reference, or zero without a reference.
func (sc *StateCounts) NonReference() int32 {
	if sc.refstate == Mask {
		return 0
	}
	return sc.n - sc.counts[sc.refstate]
}

// ProcessSites returns one StateCounts per site of m.
func ProcessSites(m *VariantMatrix, refs RefStates) ([]StateCounts, error) {
	if refs.kind == refPerSite && len(refs.perSite) != m.nsites {
		return nil, fmt.Errorf("%w: got %d reference states for %d sites", ErrArityMismatch, len(refs.perSite), m.nsites)
	}

	out := make([]StateCounts, m.nsites)
	g := m.geno.Genotypes()
	for site := range out {
		sc := &out[site]
		sc.refstate = refs.at(site)
		for _, code := range g[site*m.nsam : (site+1)*m.nsam] {
			sc.add(code)
		}
	}

	return out, nil
}

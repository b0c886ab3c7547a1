package variantmatrix

import (
	"fmt"
	"math"
)

type refKind uint8

const (
	refNone refKind = iota
	refShared
	refPerSite
)

// RefStates says which reference state, if any, ProcessSites should use for
// each site: none at all, one shared by every site, or one per site.
type RefStates struct {
	kind    refKind
	shared  int8
	perSite []int8
}

// NoReference counts states without a reference.
func NoReference() RefStates { return RefStates{kind: refNone} }

// SharedReference uses the same reference state at every site.
func SharedReference(state int8) RefStates {
	return RefStates{kind: refShared, shared: state}
}

// PerSiteReference uses states[i] as the reference at site i. An entry equal
// to Mask means that site has no reference.
func PerSiteReference(states []int8) RefStates {
	return RefStates{kind: refPerSite, perSite: states}
}

func (r RefStates) at(site int) int8 {
	var s int8
	switch r.kind {
	case refShared:
		s = r.shared
	case refPerSite:
		s = r.perSite[site]
	default:
		return Mask
	}
	if s < 0 {
		return Mask
	}
	return s
}

// RefStatesFrom interprets a loosely typed value: nil means no reference, an
// integer is a shared reference and an integer slice is one reference per
// site. Anything else fails with ErrTypeConversion.
func RefStatesFrom(v interface{}) (RefStates, error) {
	switch x := v.(type) {
	case nil:
		return NoReference(), nil
	case RefStates:
		return x, nil
	case int8:
		return sharedFromInt(int64(x))
	case int:
		return sharedFromInt(int64(x))
	case int16:
		return sharedFromInt(int64(x))
	case int32:
		return sharedFromInt(int64(x))
	case int64:
		return sharedFromInt(x)
	case uint8:
		return sharedFromInt(int64(x))
	case []int8:
		return PerSiteReference(x), nil
	case []int:
		states := make([]int8, len(x))
		for i, s := range x {
			if s < math.MinInt8 || s > math.MaxInt8 {
				return RefStates{}, fmt.Errorf("%w: reference state %d at site %d does not fit in int8", ErrInvalidArgument, s, i)
			}
			states[i] = int8(s)
		}
		return PerSiteReference(states), nil
	}

	return RefStates{}, fmt.Errorf("%w: reference states of type %T", ErrTypeConversion, v)
}

func sharedFromInt(s int64) (RefStates, error) {
	if s < 0 || s > math.MaxInt8 {
		return RefStates{}, fmt.Errorf("%w: reference state %d is outside 0-%d", ErrInvalidArgument, s, math.MaxInt8)
	}
	return SharedReference(int8(s)), nil
}

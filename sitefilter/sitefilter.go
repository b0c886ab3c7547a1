// Package sitefilter builds site predicates for variantmatrix.FilterSites.
// Every predicate reports true for a site that should be removed. Predicates
// carry a reusable counter and must not be shared across goroutines.
package sitefilter

import (
	"github.com/carbocation/varmatrix/variantmatrix"
)

// Predicate reports whether a site should be removed.
type Predicate func(variantmatrix.View) bool

// Any removes a site if any of the predicates would.
func Any(preds ...Predicate) Predicate {
	return func(v variantmatrix.View) bool {
		for _, p := range preds {
			if p(v) {
				return true
			}
		}
		return false
	}
}

// Monomorphic removes sites with fewer than two observed states.
func Monomorphic() Predicate {
	sc := variantmatrix.NewStateCounts()
	return func(v variantmatrix.View) bool {
		if sc.Count(v) != nil {
			return true
		}
		return sc.NStates() < 2
	}
}

// NotBiallelic removes sites that do not carry exactly two states.
func NotBiallelic() Predicate {
	sc := variantmatrix.NewStateCounts()
	return func(v variantmatrix.View) bool {
		if sc.Count(v) != nil {
			return true
		}
		return sc.NStates() != 2
	}
}

// Singleton removes sites where some state is carried by one haplotype only.
func Singleton() Predicate {
	sc := variantmatrix.NewStateCounts()
	return func(v variantmatrix.View) bool {
		if sc.Count(v) != nil {
			return true
		}
		for _, c := range sc.Counts() {
			if c == 1 {
				return true
			}
		}
		return false
	}
}

// MinorAlleleFrequency is the fraction of called haplotypes that do not carry
// the most common state. A site with no calls has frequency 0.
func MinorAlleleFrequency(sc *variantmatrix.StateCounts) float64 {
	if sc.N() == 0 {
		return 0
	}

	var major int32
	for _, c := range sc.Counts() {
		if c > major {
			major = c
		}
	}

	return float64(sc.N()-major) / float64(sc.N())
}

// MAFBelow removes sites whose minor allele frequency is below min.
func MAFBelow(min float64) Predicate {
	sc := variantmatrix.NewStateCounts()
	return func(v variantmatrix.View) bool {
		if sc.Count(v) != nil {
			return true
		}
		return MinorAlleleFrequency(sc) < min
	}
}

// MissingnessAbove removes sites where more than max of the haplotypes are
// missing.
func MissingnessAbove(max float64) Predicate {
	sc := variantmatrix.NewStateCounts()
	return func(v variantmatrix.View) bool {
		if sc.Count(v) != nil {
			return true
		}
		total := sc.N() + sc.Missing()
		if total == 0 {
			return true
		}
		return float64(sc.Missing())/float64(total) > max
	}
}

// HWEBelow removes sites whose Hardy-Weinberg P value is below min. Columns
// are read as diploid haplotype pairs. The chi square approximation is used
// unless it falls below min, in which case the exact test decides.
func HWEBelow(min float64) Predicate {
	return func(v variantmatrix.View) bool {
		d, err := CountDiploid(v)
		if err != nil {
			return true
		}
		if d.N() == 0 {
			return false
		}
		return HWEFast(d.HomRef, d.Het, d.HomAlt, min) < min
	}
}

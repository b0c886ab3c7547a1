package main

import (
	"log"

	"github.com/carbocation/varmatrix/sitefilter"
	"github.com/carbocation/varmatrix/variantmatrix"
)

type filterConfig struct {
	minMAF          float64
	maxMissing      float64
	minHWE          float64
	biallelic       bool
	dropMonomorphic bool
}

type namedFilter struct {
	name string
	pred sitefilter.Predicate
}

func (c filterConfig) filters() []namedFilter {
	out := make([]namedFilter, 0)
	if c.maxMissing < 1 {
		out = append(out, namedFilter{"missingness", sitefilter.MissingnessAbove(c.maxMissing)})
	}
	if c.biallelic {
		out = append(out, namedFilter{"biallelic", sitefilter.NotBiallelic()})
	} else if c.dropMonomorphic {
		out = append(out, namedFilter{"monomorphic", sitefilter.Monomorphic()})
	}
	if c.minMAF > 0 {
		out = append(out, namedFilter{"maf", sitefilter.MAFBelow(c.minMAF)})
	}
	if c.minHWE > 0 {
		out = append(out, namedFilter{"hwe", sitefilter.HWEBelow(c.minHWE)})
	}

	return out
}

// applyFilters runs each filter in turn so that each one's removals can be
// reported.
func applyFilters(m *variantmatrix.VariantMatrix, c filterConfig) error {
	for _, f := range c.filters() {
		removed, err := variantmatrix.FilterSites(m, f.pred)
		if err != nil {
			return err
		}
		log.Printf("Filter %s removed %d sites, %d remain\n", f.name, removed, m.NSites())
	}

	return nil
}

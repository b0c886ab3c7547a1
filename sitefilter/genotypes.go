package sitefilter

import (
	"github.com/carbocation/varmatrix/variantmatrix"
)

// DiploidCounts tallies the genotype classes of a site whose columns hold
// consecutive haplotype pairs, as the VCF and BGEN loaders lay them out.
// State 0 is the reference; any other state counts as alternate. Individuals with a
// missing haplotype are counted in missing. A trailing unpaired haplotype is
// ignored.
type DiploidCounts struct {
	HomRef, Het, HomAlt int64
	Missing             int64
}

// N is the number of individuals with both haplotypes called.
func (d DiploidCounts) N() int64 { return d.HomRef + d.Het + d.HomAlt }

// CountDiploid classifies the individuals of a site view.
func CountDiploid(v variantmatrix.View) (DiploidCounts, error) {
	var out DiploidCounts

	codes, err := v.AsList()
	if err != nil {
		return out, err
	}

	for i := 0; i+1 < len(codes); i += 2 {
		h1, h2 := codes[i], codes[i+1]
		if h1 < 0 || h2 < 0 {
			out.Missing++
			continue
		}

		switch alt := nonzero(h1) + nonzero(h2); alt {
		case 0:
			out.HomRef++
		case 1:
			out.Het++
		default:
			out.HomAlt++
		}
	}

	return out, nil
}

func nonzero(code int8) int {
	if code != 0 {
		return 1
	}
	return 0
}

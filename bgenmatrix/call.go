package bgenmatrix

import (
	"errors"
	"fmt"
	"math"

	"github.com/carbocation/varmatrix/variantmatrix"
)

// ErrUnsupportedLayout is returned for unphased records that are not
// biallelic. Those carry genotype probabilities over unordered allele
// combinations, which cannot be split into haplotypes.
var ErrUnsupportedLayout = errors.New("bgenmatrix: unphased multiallelic genotypes cannot be split into haplotypes")

// Call describes how one sample at one variant is hard called.
type Call struct {
	Missing       bool
	Ploidy        int
	Phased        bool
	NAlleles      int
	Probabilities []float64
}

// AppendHaplotypes hard calls c into ploidy haplotype codes and appends them
// to dst. A call whose best probability is below minProb is missing. Phased
// data is called one haplotype at a time. Unphased biallelic data is called
// as a count of alt alleles, and the haplotypes are written reference first.
func AppendHaplotypes(dst []int8, c Call, ploidy int, minProb float64) ([]int8, error) {
	if c.Missing || c.Ploidy == 0 {
		return appendMissing(dst, ploidy), nil
	}
	if c.Ploidy > ploidy {
		return dst, fmt.Errorf("sample ploidy %d exceeds the matrix ploidy %d", c.Ploidy, ploidy)
	}
	if c.NAlleles > math.MaxInt8+1 {
		return dst, fmt.Errorf("%d alleles do not fit in a genotype code", c.NAlleles)
	}

	if c.Phased {
		k := c.NAlleles
		if len(c.Probabilities) != c.Ploidy*k {
			return dst, fmt.Errorf("phased call has %d probabilities, expected %d", len(c.Probabilities), c.Ploidy*k)
		}
		for h := 0; h < c.Ploidy; h++ {
			code, ok := argmax(c.Probabilities[h*k:(h+1)*k], minProb)
			if !ok {
				dst = append(dst, variantmatrix.Mask)
				continue
			}
			dst = append(dst, int8(code))
		}
		return appendMissing(dst, ploidy-c.Ploidy), nil
	}

	if c.NAlleles != 2 {
		return dst, ErrUnsupportedLayout
	}
	if len(c.Probabilities) != c.Ploidy+1 {
		return dst, fmt.Errorf("unphased call has %d probabilities, expected %d", len(c.Probabilities), c.Ploidy+1)
	}
	alts, ok := argmax(c.Probabilities, minProb)
	if !ok {
		return appendMissing(dst, ploidy), nil
	}
	for h := 0; h < c.Ploidy; h++ {
		if h < c.Ploidy-alts {
			dst = append(dst, 0)
		} else {
			dst = append(dst, 1)
		}
	}

	return appendMissing(dst, ploidy-c.Ploidy), nil
}

func appendMissing(dst []int8, n int) []int8 {
	for i := 0; i < n; i++ {
		dst = append(dst, variantmatrix.Mask)
	}
	return dst
}

// argmax returns the index of the largest probability. Ties go to the lower
// index.
func argmax(probs []float64, minProb float64) (int, bool) {
	best, bestP := -1, math.Inf(-1)
	for i, p := range probs {
		if p > bestP {
			best, bestP = i, p
		}
	}
	if best < 0 || math.IsNaN(bestP) || bestP < minProb {
		return 0, false
	}
	return best, true
}

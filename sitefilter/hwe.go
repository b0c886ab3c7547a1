package sitefilter

import (
	"math"
	"math/big"

	"github.com/BenLubar/memoize"
	"github.com/tokenme/probab/dst"
)

var (
	memoizedExactFor  = memoize.Memoize(exactFor).(func(int64, int64, int64) float64)
	memoizedFactorial = memoize.Memoize(factorial).(func(int64, int64) *big.Int)
	memoizedExact     = memoize.Memoize(HWEExact).(func(int64, int64, int64) float64)
	memoizedApprox    = memoize.Memoize(HWEApproximate).(func(float64, float64, float64) float64)
)

// HWEExact computes an exact Hardy-Weinberg equilibrium P-value from the
// counts of homozygous reference (AA), heterozygous (Aa) and homozygous
// alternate (aa) individuals, following Wigginton, Cutler and Abecasis
// (2005). It is safe to call from concurrent goroutines. See
// http://courses.washington.edu/b516/lectures_2009/HWE_Lecture.pdf slides
// 21-22 and https://www.cog-genomics.org/software/stats for sanity checks.
func HWEExact(AA, Aa, aa int64) float64 {
	// Enforce AA common, aa rare
	if aa > AA {
		AA, aa = aa, AA
	}

	baseP := memoizedExactFor(AA, Aa, aa)

	// The P value is the sum of the probabilities of every configuration at
	// least as extreme as the observed one. Walk away from it in both
	// directions: trading two homozygotes for two heterozygotes, and back.
	return baseP + tailP(AA, Aa, aa, 1, baseP) + tailP(AA, Aa, aa, -1, baseP)
}

func tailP(AA, Aa, aa, dir int64, baseP float64) float64 {
	sum := 0.0
	for {
		AA, Aa, aa = AA-dir, Aa+2*dir, aa-dir
		if aa < 0 || Aa < 0 {
			return sum
		}

		p := memoizedExactFor(AA, Aa, aa)
		if p > baseP {
			continue
		}
		if p <= math.SmallestNonzeroFloat64 {
			return sum
		}
		sum += p
	}
}

// exactFor yields the probability of observing exactly Aa heterozygotes in a
// sample of AA+Aa+aa individuals with Aa+2*aa minor alleles.
func exactFor(AA, Aa, aa int64) float64 {
	A := AA*2 + Aa
	a := aa*2 + Aa
	N := AA + Aa + aa

	var num, denom big.Int
	num.Exp(big.NewInt(2), big.NewInt(Aa), nil)
	num.Mul(&num, memoizedFactorial(1, A))
	num.Mul(&num, memoizedFactorial(1, a))

	denom.Set(memoizedFactorial(N+1, 2*N))
	denom.Mul(&denom, memoizedFactorial(1, AA))
	denom.Mul(&denom, memoizedFactorial(1, Aa))
	denom.Mul(&denom, memoizedFactorial(1, aa))

	p, _ := new(big.Rat).SetFrac(&num, &denom).Float64()

	return p
}

func factorial(a, b int64) *big.Int {
	return big.NewInt(1).MulRange(a, b)
}

// HWEApproximate uses the 1 degree of freedom chi square test. Degenerate
// input yields 1.
func HWEApproximate(AA, Aa, aa float64) (p float64) {
	p = 1.0
	defer func() { recover() }()

	p = 1.0 - dst.ChiSquareCDF(1)(chiSquare(AA, Aa, aa))

	return
}

// chiSquare compares the observed genotype counts to those expected under
// Hardy-Weinberg proportions given the observed allele frequencies.
func chiSquare(AA, Aa, aa float64) float64 {
	A := AA*2 + Aa
	a := aa*2 + Aa

	// A site that is not biallelic in this population is trivially in
	// equilibrium. Returning 0 also avoids dividing by zero below.
	if A == 0 || a == 0 {
		return 0.0
	}

	N := AA + Aa + aa
	p := A / (A + a)
	q := a / (A + a)

	eAA := p * p * N
	eAa := 2.0 * p * q * N
	eaa := q * q * N

	return math.Pow(eAA-AA, 2)/eAA +
		math.Pow(eAa-Aa, 2)/eAa +
		math.Pow(eaa-aa, 2)/eaa
}

// HWEFast returns the chi square P value unless it is below cutoff, in which
// case the exact P value is computed instead.
func HWEFast(AA, Aa, aa int64, cutoff float64) float64 {
	p := memoizedApprox(float64(AA), float64(Aa), float64(aa))
	if p < cutoff {
		return memoizedExact(AA, Aa, aa)
	}

	return p
}

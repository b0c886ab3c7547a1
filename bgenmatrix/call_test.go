package bgenmatrix

import (
	"testing"

	"github.com/carbocation/varmatrix/variantmatrix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const M = variantmatrix.Mask

func TestAppendHaplotypes(t *testing.T) {
	for _, v := range []struct {
		name    string
		call    Call
		ploidy  int
		minProb float64
		want    []int8
	}{
		{"unphased hom ref", Call{Ploidy: 2, NAlleles: 2, Probabilities: []float64{0.9, 0.1, 0}}, 2, 0, []int8{0, 0}},
		{"unphased het", Call{Ploidy: 2, NAlleles: 2, Probabilities: []float64{0.1, 0.8, 0.1}}, 2, 0, []int8{0, 1}},
		{"unphased hom alt", Call{Ploidy: 2, NAlleles: 2, Probabilities: []float64{0, 0.05, 0.95}}, 2, 0, []int8{1, 1}},
		{"below threshold", Call{Ploidy: 2, NAlleles: 2, Probabilities: []float64{0.4, 0.35, 0.25}}, 2, 0.9, []int8{M, M}},
		{"missing", Call{Missing: true, Ploidy: 2, NAlleles: 2}, 2, 0, []int8{M, M}},
		{"phased", Call{Ploidy: 2, Phased: true, NAlleles: 2, Probabilities: []float64{0.2, 0.8, 1, 0}}, 2, 0, []int8{1, 0}},
		{"phased triallelic", Call{Ploidy: 2, Phased: true, NAlleles: 3, Probabilities: []float64{0, 0, 1, 0.5, 0.3, 0.2}}, 2, 0, []int8{2, 0}},
		{"phased uncertain haplotype", Call{Ploidy: 2, Phased: true, NAlleles: 2, Probabilities: []float64{0.5, 0.5, 0, 1}}, 2, 0.6, []int8{M, 1}},
		{"haploid in diploid matrix", Call{Ploidy: 1, NAlleles: 2, Probabilities: []float64{0, 1}}, 2, 0, []int8{1, M}},
	} {
		t.Run(v.name, func(t *testing.T) {
			got, err := AppendHaplotypes(nil, v.call, v.ploidy, v.minProb)
			require.NoError(t, err)
			assert.Equal(t, v.want, got)
		})
	}
}

func TestAppendHaplotypesErrors(t *testing.T) {
	_, err := AppendHaplotypes(nil, Call{Ploidy: 2, NAlleles: 3, Probabilities: make([]float64, 6)}, 2, 0)
	assert.ErrorIs(t, err, ErrUnsupportedLayout)

	_, err = AppendHaplotypes(nil, Call{Ploidy: 3, NAlleles: 2, Probabilities: make([]float64, 4)}, 2, 0)
	assert.Error(t, err)

	_, err = AppendHaplotypes(nil, Call{Ploidy: 2, Phased: true, NAlleles: 2, Probabilities: make([]float64, 3)}, 2, 0)
	assert.Error(t, err)

	_, err = AppendHaplotypes(nil, Call{Ploidy: 2, NAlleles: 2, Probabilities: make([]float64, 2)}, 2, 0)
	assert.Error(t, err)
}

func TestAppendHaplotypesAppends(t *testing.T) {
	dst := []int8{7}
	dst, err := AppendHaplotypes(dst, Call{Ploidy: 2, NAlleles: 2, Probabilities: []float64{0, 1, 0}}, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, []int8{7, 0, 1}, dst)
}

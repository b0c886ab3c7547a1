package variantmatrix

import (
	"fmt"
)

// DefaultTreeSequenceMaxAllele is the max allele assumed for simulated,
// infinitely-many-sites tree sequences.
const DefaultTreeSequenceMaxAllele int8 = 1

// TreeSequenceMissing is the missing data code used by tree sequence
// genotypes. It is translated to Mask on the way in.
const TreeSequenceMissing int8 = -1

// Variant is one site as yielded by a tree sequence.
type Variant struct {
	Position  float64
	Genotypes []int8
}

// VariantIterator yields the sites of a tree sequence in order.
type VariantIterator interface {
	Next() bool
	Variant() Variant
	Err() error
}

// TreeSequence is the subset of a tree sequence that a matrix can be built
// from.
type TreeSequence interface {
	NumSamples() int
	NumSites() int
	Variants() VariantIterator
}

// GenotypeMatrixSource exposes a whole genotype matrix (one row per site) and
// the matching site positions.
type GenotypeMatrixSource interface {
	GenotypeMatrix() [][]int8
	SitePositions() []float64
}

// FromTreeSequence copies every variant of ts into a new matrix. The declared
// sample and site counts must agree with what the iterator yields.
func FromTreeSequence(ts TreeSequence, maxAllele int8) (*VariantMatrix, error) {
	if ts == nil {
		return nil, fmt.Errorf("%w: nil tree sequence", ErrTypeConversion)
	}

	nsam, nsites := ts.NumSamples(), ts.NumSites()
	if nsam < 0 || nsites < 0 {
		return nil, fmt.Errorf("%w: tree sequence reports %d samples and %d sites", ErrTypeConversion, nsam, nsites)
	}

	data := make([]int8, 0, nsam*nsites)
	pos := make([]float64, 0, nsites)

	it := ts.Variants()
	if it == nil {
		return nil, fmt.Errorf("%w: tree sequence has no variant iterator", ErrTypeConversion)
	}
	for it.Next() {
		v := it.Variant()
		if len(v.Genotypes) != nsam {
			return nil, fmt.Errorf("%w: variant at %v has %d genotypes, expected %d", ErrTypeConversion, v.Position, len(v.Genotypes), nsam)
		}
		for _, code := range v.Genotypes {
			if code == TreeSequenceMissing {
				code = Mask
			}
			data = append(data, code)
		}
		pos = append(pos, v.Position)
	}
	if err := it.Err(); err != nil {
		return nil, err
	}

	if len(pos) != nsites {
		return nil, fmt.Errorf("%w: tree sequence reports %d sites but yielded %d", ErrTypeConversion, nsites, len(pos))
	}

	if nsites == 0 {
		// Nothing to infer nsam from, so keep it explicitly.
		m, err := New(nil, nil, WithMaxAllele(maxAllele))
		if err != nil {
			return nil, err
		}
		m.nsam = nsam
		return m, nil
	}

	return New(data, pos, WithMaxAllele(maxAllele))
}

// FromGenotypeSource builds a matrix from anything that is a TreeSequence or
// a GenotypeMatrixSource. A negative maxAllele means "use the largest code
// observed"; a TreeSequence then gets DefaultTreeSequenceMaxAllele.
func FromGenotypeSource(src interface{}, maxAllele int8) (*VariantMatrix, error) {
	switch s := src.(type) {
	case TreeSequence:
		if maxAllele < 0 {
			maxAllele = DefaultTreeSequenceMaxAllele
		}
		return FromTreeSequence(s, maxAllele)
	case GenotypeMatrixSource:
		rows, pos := s.GenotypeMatrix(), s.SitePositions()
		if len(rows) != len(pos) {
			return nil, fmt.Errorf("%w: genotype matrix has %d rows but %d positions", ErrTypeConversion, len(rows), len(pos))
		}
		for i := range rows {
			if len(rows[i]) != len(rows[0]) {
				return nil, fmt.Errorf("%w: genotype matrix is not rectangular at row %d", ErrTypeConversion, i)
			}
		}
		var opts []Option
		if maxAllele >= 0 {
			opts = append(opts, WithMaxAllele(maxAllele))
		}
		return NewFromRows(rows, pos, opts...)
	}

	return nil, fmt.Errorf("%w: %T exposes neither a tree sequence nor a genotype matrix", ErrTypeConversion, src)
}

// CountTreeSequence builds an AlleleCountMatrix from ts without ever holding
// more than chunkSize sites of genotypes in memory. A negative maxAllele means
// DefaultTreeSequenceMaxAllele.
func CountTreeSequence(ts TreeSequence, chunkSize int, maxAllele int8) (*AlleleCountMatrix, error) {
	if ts == nil {
		return nil, fmt.Errorf("%w: nil tree sequence", ErrTypeConversion)
	}
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidArgument, chunkSize)
	}
	if maxAllele < 0 {
		maxAllele = DefaultTreeSequenceMaxAllele
	}

	nsam := ts.NumSamples()
	ac := &AlleleCountMatrix{ncol: int(maxAllele) + 1, nsam: nsam}

	data := make([]int8, 0, chunkSize*nsam)
	pos := make([]float64, 0, chunkSize)
	flush := func() error {
		if len(pos) == 0 {
			return nil
		}
		m, err := New(data, pos, WithMaxAllele(maxAllele))
		if err != nil {
			return err
		}
		ac, err = ac.Merge(NewAlleleCountMatrix(m))
		if err != nil {
			return err
		}
		data = make([]int8, 0, chunkSize*nsam)
		pos = make([]float64, 0, chunkSize)
		return nil
	}

	it := ts.Variants()
	if it == nil {
		return nil, fmt.Errorf("%w: tree sequence has no variant iterator", ErrTypeConversion)
	}
	for it.Next() {
		v := it.Variant()
		if len(v.Genotypes) != nsam {
			return nil, fmt.Errorf("%w: variant at %v has %d genotypes, expected %d", ErrTypeConversion, v.Position, len(v.Genotypes), nsam)
		}
		for _, code := range v.Genotypes {
			if code == TreeSequenceMissing {
				code = Mask
			}
			data = append(data, code)
		}
		pos = append(pos, v.Position)

		if len(pos) == chunkSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}

	return ac, nil
}

// Package variantmatrix holds genetic variation data as a sites × samples matrix
// of small integer genotype codes paired with per-site positions.
//
// A VariantMatrix is not safe for concurrent mutation. Any number of views may
// read from it at once, but FilterSites and FilterHaplotypes require exclusive
// access and invalidate every outstanding view: each view remembers the
// matrix generation it was created at and fails with ErrUseAfterInvalidation
// once that generation has passed.
package variantmatrix

import (
	"fmt"
	"math"
	"sort"
	"unsafe"

	"github.com/carbocation/varmatrix/capsule"
)

// Mask is the reserved genotype code for missing data.
const Mask int8 = math.MinInt8

// VariantMatrix stores genotype codes in row-major order: site i occupies
// elements [i*NSam(), (i+1)*NSam()) of the genotype buffer.
type VariantMatrix struct {
	geno capsule.GenotypeCapsule
	pos  capsule.PositionCapsule

	nsites    int
	nsam      int
	maxAllele int8

	// generation is bumped on every structural mutation.
	generation uint64

	// ascending caches whether positions are sorted, which lets windowing use
	// binary search.
	ascending bool
}

type config struct {
	maxAllele    int8
	maxAlleleSet bool
}

// Option configures matrix construction.
type Option func(*config)

// WithMaxAllele fixes the largest legal genotype code. Without it, the largest
// observed code is used.
func WithMaxAllele(maxAllele int8) Option {
	return func(c *config) {
		c.maxAllele = maxAllele
		c.maxAlleleSet = true
	}
}

// New builds a matrix from a flat, row-major genotype slice. The number of
// samples is len(genotypes)/len(positions). New takes ownership of both
// slices.
func New(genotypes []int8, positions []float64, opts ...Option) (*VariantMatrix, error) {
	return NewFromCapsules(capsule.NewVectorGenotypeCapsule(genotypes), capsule.NewVectorPositionCapsule(positions), opts...)
}

// NewEmpty builds a matrix with no sites over nsam samples, such as an
// invariant simulation replicate.
func NewEmpty(nsam int, opts ...Option) (*VariantMatrix, error) {
	if nsam < 0 {
		return nil, fmt.Errorf("%w: sample count %d is negative", ErrInvalidArgument, nsam)
	}

	m, err := New(nil, nil, opts...)
	if err != nil {
		return nil, err
	}
	m.nsam = nsam

	return m, nil
}

// NewBorrowed builds a matrix directly over caller owned buffers. Nothing is
// copied, the buffers must outlive the matrix, and the matrix cannot be
// filtered in place until Materialize is called.
func NewBorrowed(genotypes []int8, positions []float64, opts ...Option) (*VariantMatrix, error) {
	return NewFromCapsules(capsule.NewBufferGenotypeCapsule(genotypes), capsule.NewBufferPositionCapsule(positions), opts...)
}

// NewFromRows builds a matrix from one slice per site. Every row must have
// the same length, and there must be exactly one position per row.
func NewFromRows(rows [][]int8, positions []float64, opts ...Option) (*VariantMatrix, error) {
	if len(rows) != len(positions) {
		return nil, fmt.Errorf("%w: len(positions)=%d must equal the number of genotype rows (%d)", ErrInvalidArgument, len(positions), len(rows))
	}

	nsam := 0
	if len(rows) > 0 {
		nsam = len(rows[0])
	}

	flat := make([]int8, 0, nsam*len(rows))
	for i, row := range rows {
		if len(row) != nsam {
			return nil, fmt.Errorf("%w: genotype data must be 2-dimensional, row %d has %d samples but row 0 has %d", ErrInvalidArgument, i, len(row), nsam)
		}
		flat = append(flat, row...)
	}

	pos := make([]float64, len(positions))
	copy(pos, positions)

	return New(flat, pos, opts...)
}

// NewFromCapsules builds a matrix over arbitrary storage.
func NewFromCapsules(g capsule.GenotypeCapsule, p capsule.PositionCapsule, opts ...Option) (*VariantMatrix, error) {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}

	nsam, maxAllele, err := validate(g.Genotypes(), p.Positions(), cfg)
	if err != nil {
		return nil, err
	}

	return build(g, p, nsam, maxAllele), nil
}

// build assembles a matrix from storage that is already known to be valid.
func build(g capsule.GenotypeCapsule, p capsule.PositionCapsule, nsam int, maxAllele int8) *VariantMatrix {
	return &VariantMatrix{
		geno:      g,
		pos:       p,
		nsites:    p.NSites(),
		nsam:      nsam,
		maxAllele: maxAllele,
		ascending: sort.Float64sAreSorted(p.Positions()),
	}
}

func validate(genotypes []int8, positions []float64, cfg config) (nsam int, maxAllele int8, err error) {
	nsites := len(positions)

	if nsites == 0 {
		if len(genotypes) != 0 {
			return 0, 0, fmt.Errorf("%w: %d genotypes supplied without any positions", ErrInvalidArgument, len(genotypes))
		}
	} else if len(genotypes)%nsites != 0 {
		return 0, 0, fmt.Errorf("%w: len(genotypes)=%d is not a multiple of len(positions)=%d", ErrInvalidArgument, len(genotypes), nsites)
	} else {
		nsam = len(genotypes) / nsites
	}

	for i, p := range positions {
		if math.IsNaN(p) {
			return 0, 0, fmt.Errorf("%w: position %d is NaN", ErrInvalidArgument, i)
		}
	}

	if cfg.maxAlleleSet && cfg.maxAllele < 0 {
		return 0, 0, fmt.Errorf("%w: max allele %d is negative", ErrInvalidArgument, cfg.maxAllele)
	}

	var observed int8
	for i, code := range genotypes {
		if code == Mask {
			continue
		}
		if code < 0 {
			return 0, 0, fmt.Errorf("%w: genotype %d (site %d) has code %d, which is negative and not the missing data mask", ErrInvalidArgument, i, i/max(nsam, 1), code)
		}
		if cfg.maxAlleleSet && code > cfg.maxAllele {
			return 0, 0, fmt.Errorf("%w: genotype %d (site %d) has code %d, above the max allele %d", ErrInvalidArgument, i, i/max(nsam, 1), code, cfg.maxAllele)
		}
		if code > observed {
			observed = code
		}
	}

	if cfg.maxAlleleSet {
		return nsam, cfg.maxAllele, nil
	}

	return nsam, observed, nil
}

// NSites is the number of rows.
func (m *VariantMatrix) NSites() int { return m.nsites }

// NSam is the number of columns.
func (m *VariantMatrix) NSam() int { return m.nsam }

// MaxAllele is the largest legal non-missing genotype code.
func (m *VariantMatrix) MaxAllele() int8 { return m.maxAllele }

// Generation increments whenever the matrix is structurally mutated.
func (m *VariantMatrix) Generation() uint64 { return m.generation }

// Resizable reports whether in-place filtering is permitted. It is false for
// matrices that borrow caller storage.
func (m *VariantMatrix) Resizable() bool {
	return m.geno.Resizable() && m.pos.Resizable()
}

// PositionsAscending reports whether positions are in non-decreasing order.
func (m *VariantMatrix) PositionsAscending() bool { return m.ascending }

// GenotypeBuffer returns the backing row-major genotype storage without
// copying. Callers must treat it as read only.
func (m *VariantMatrix) GenotypeBuffer() []int8 { return m.geno.Genotypes() }

// GenotypeBytes is GenotypeBuffer reinterpreted as raw bytes, matching the
// on-disk layout bit for bit.
func (m *VariantMatrix) GenotypeBytes() []byte {
	g := m.geno.Genotypes()
	if len(g) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&g[0])), len(g))
}

// PositionBuffer returns the backing position storage without copying.
// Callers must treat it as read only.
func (m *VariantMatrix) PositionBuffer() []float64 { return m.pos.Positions() }

// Positions returns a copy of the site positions.
func (m *VariantMatrix) Positions() []float64 {
	out := make([]float64, m.nsites)
	copy(out, m.pos.Positions())
	return out
}

// Position returns the position of site i.
func (m *VariantMatrix) Position(i int) (float64, error) {
	if i < 0 || i >= m.nsites {
		return 0, fmt.Errorf("%w: site %d, nsites is %d", ErrIndex, i, m.nsites)
	}
	return m.pos.Positions()[i], nil
}

// At returns the genotype code of one sample at one site.
func (m *VariantMatrix) At(site, sample int) (int8, error) {
	if site < 0 || site >= m.nsites {
		return 0, fmt.Errorf("%w: site %d, nsites is %d", ErrIndex, site, m.nsites)
	}
	if sample < 0 || sample >= m.nsam {
		return 0, fmt.Errorf("%w: sample %d, nsam is %d", ErrIndex, sample, m.nsam)
	}
	return m.geno.Genotypes()[site*m.nsam+sample], nil
}

// Export returns copies of the genotype and position buffers. Passing them
// back to New reproduces an Equal matrix.
func (m *VariantMatrix) Export() ([]int8, []float64) {
	g := make([]int8, len(m.geno.Genotypes()))
	copy(g, m.geno.Genotypes())
	return g, m.Positions()
}

// Clone returns an independent, owned copy.
func (m *VariantMatrix) Clone() *VariantMatrix {
	g, p := capsule.Own(m.geno, m.pos)
	return build(g, p, m.nsam, m.maxAllele)
}

// Materialize converts borrowed storage into owned storage so that the matrix
// becomes resizable. It is a no-op on matrices that already own their data.
// Outstanding views are invalidated when a copy is made.
func (m *VariantMatrix) Materialize() {
	if m.Resizable() {
		return
	}
	m.geno, m.pos = capsule.Own(m.geno, m.pos)
	m.generation++
}

// Equal reports whether two matrices have the same shape, genotype codes and
// bit-identical positions.
func (m *VariantMatrix) Equal(o *VariantMatrix) bool {
	if m == nil || o == nil {
		return m == o
	}
	if m.nsites != o.nsites || m.nsam != o.nsam {
		return false
	}

	mg, og := m.geno.Genotypes(), o.geno.Genotypes()
	for i := range mg {
		if mg[i] != og[i] {
			return false
		}
	}

	mp, op := m.pos.Positions(), o.pos.Positions()
	for i := range mp {
		if math.Float64bits(mp[i]) != math.Float64bits(op[i]) {
			return false
		}
	}

	return true
}

func (m *VariantMatrix) String() string {
	return fmt.Sprintf("VariantMatrix{nsites: %d, nsam: %d, max_allele: %d}", m.nsites, m.nsam, m.maxAllele)
}

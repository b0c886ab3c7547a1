package variantmatrix

import "fmt"

// View is the read surface shared by row and column views.
type View interface {
	// Len is the number of elements, fixed when the view was created. It
	// keeps reporting that length after the view is invalidated; use Valid
	// to tell whether the elements can still be read.
	Len() int
	// Valid reports whether the matrix is unchanged since the view was made.
	Valid() bool
	At(i int) (int8, error)
	Iter() *Cursor
	AsList() ([]int8, error)
}

// view addresses n elements of the genotype buffer starting at base and
// separated by stride: stride 1 for a site, stride nsam for a sample.
type view struct {
	m      *VariantMatrix
	gen    uint64
	base   int
	stride int
	n      int
}

func (v view) check() error {
	if v.m.generation != v.gen {
		return ErrUseAfterInvalidation
	}
	return nil
}

func (v view) Len() int { return v.n }

func (v view) Valid() bool { return v.m.generation == v.gen }

func (v view) At(i int) (int8, error) {
	if err := v.check(); err != nil {
		return 0, err
	}
	if i < 0 || i >= v.n {
		return 0, fmt.Errorf("%w: element %d of a view of length %d", ErrIndex, i, v.n)
	}
	return v.m.geno.Genotypes()[v.base+i*v.stride], nil
}

// Iter returns a fresh cursor positioned before the first element. Every call
// starts over.
func (v view) Iter() *Cursor {
	return &Cursor{v: v}
}

// AsList copies the view's contents into a new slice that does not depend on
// the matrix afterwards.
func (v view) AsList() ([]int8, error) {
	if err := v.check(); err != nil {
		return nil, err
	}
	g := v.m.geno.Genotypes()
	out := make([]int8, v.n)
	for i := range out {
		out[i] = g[v.base+i*v.stride]
	}
	return out, nil
}

func (v view) set(i int, code int8) error {
	if err := v.check(); err != nil {
		return err
	}
	if i < 0 || i >= v.n {
		return fmt.Errorf("%w: element %d of a view of length %d", ErrIndex, i, v.n)
	}
	if code != Mask && (code < 0 || code > v.m.maxAllele) {
		return fmt.Errorf("%w: code %d is outside [0, %d] and is not the missing data mask", ErrInvalidArgument, code, v.m.maxAllele)
	}
	v.m.geno.Genotypes()[v.base+i*v.stride] = code
	return nil
}

// Cursor walks a view. Use it like a scanner:
//
//	c := v.Iter()
//	for c.Next() {
//		use(c.Value())
//	}
//	if err := c.Err(); err != nil { ... }
type Cursor struct {
	v   view
	i   int
	cur int8
	err error
}

func (c *Cursor) Next() bool {
	if c.err != nil || c.i >= c.v.n {
		return false
	}
	if err := c.v.check(); err != nil {
		c.err = err
		return false
	}
	c.cur = c.v.m.geno.Genotypes()[c.v.base+c.i*c.v.stride]
	c.i++
	return true
}

func (c *Cursor) Value() int8 { return c.cur }

// Err is non-nil if iteration stopped because the matrix was mutated.
func (c *Cursor) Err() error { return c.err }

// ConstRowView is a read only view of one site across all samples.
type ConstRowView struct{ view }

// ConstColView is a read only view of one sample across all sites.
type ConstColView struct{ view }

// RowView is a writable view of one site.
type RowView struct{ view }

// Set overwrites the genotype of sample i at this site.
func (r RowView) Set(i int, code int8) error { return r.set(i, code) }

// ColView is a writable view of one sample.
type ColView struct{ view }

// Set overwrites the genotype of this sample at site i.
func (c ColView) Set(i int, code int8) error { return c.set(i, code) }

func (m *VariantMatrix) rowView(i int) view {
	return view{m: m, gen: m.generation, base: i * m.nsam, stride: 1, n: m.nsam}
}

func (m *VariantMatrix) colView(i int) view {
	return view{m: m, gen: m.generation, base: i, stride: m.nsam, n: m.nsites}
}

// Site returns a read only view of site i.
func (m *VariantMatrix) Site(i int) (ConstRowView, error) {
	if i < 0 || i >= m.nsites {
		return ConstRowView{}, fmt.Errorf("%w: site %d, nsites is %d", ErrIndex, i, m.nsites)
	}
	return ConstRowView{m.rowView(i)}, nil
}

// Sample returns a read only view of sample i.
func (m *VariantMatrix) Sample(i int) (ConstColView, error) {
	if i < 0 || i >= m.nsam {
		return ConstColView{}, fmt.Errorf("%w: sample %d, nsam is %d", ErrIndex, i, m.nsam)
	}
	return ConstColView{m.colView(i)}, nil
}

// SiteMut returns a writable view of site i. Borrowed storage is never
// written through, so this fails with ErrNotResizable for such matrices.
func (m *VariantMatrix) SiteMut(i int) (RowView, error) {
	if !m.Resizable() {
		return RowView{}, fmt.Errorf("%w: matrix borrows its storage", ErrNotResizable)
	}
	if i < 0 || i >= m.nsites {
		return RowView{}, fmt.Errorf("%w: site %d, nsites is %d", ErrIndex, i, m.nsites)
	}
	return RowView{m.rowView(i)}, nil
}

// SampleMut returns a writable view of sample i.
func (m *VariantMatrix) SampleMut(i int) (ColView, error) {
	if !m.Resizable() {
		return ColView{}, fmt.Errorf("%w: matrix borrows its storage", ErrNotResizable)
	}
	if i < 0 || i >= m.nsam {
		return ColView{}, fmt.Errorf("%w: sample %d, nsam is %d", ErrIndex, i, m.nsam)
	}
	return ColView{m.colView(i)}, nil
}

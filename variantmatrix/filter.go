package variantmatrix

import (
	"fmt"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

// FilterSites removes, in place, every site for which remove returns true, and
// reports how many sites were removed. remove is handed a writable RowView of
// each site in order. Every view taken before the call, including those handed
// to remove, is invalid afterwards.
//
// Matrices over borrowed storage fail with ErrNotResizable; call Materialize
// first, or use Window, which always returns owned storage.
func FilterSites(m *VariantMatrix, remove func(View) bool) (int, error) {
	if !m.Resizable() {
		return 0, fmt.Errorf("%w: cannot filter sites of a matrix over borrowed storage", ErrNotResizable)
	}

	gen := m.generation
	drop := roaring.New()
	for i := 0; i < m.nsites; i++ {
		if remove(RowView{m.rowView(i)}) {
			drop.Add(uint32(i))
		}
	}
	if m.generation != gen {
		return 0, fmt.Errorf("%w: matrix changed shape while filtering sites", ErrUseAfterInvalidation)
	}

	removed := int(drop.GetCardinality())
	defer m.invalidate()
	if removed == 0 {
		return 0, nil
	}

	g := m.geno.Genotypes()
	p := m.pos.Positions()
	kept := 0
	for i := 0; i < m.nsites; i++ {
		if drop.Contains(uint32(i)) {
			continue
		}
		if kept != i {
			copy(g[kept*m.nsam:(kept+1)*m.nsam], g[i*m.nsam:(i+1)*m.nsam])
			p[kept] = p[i]
		}
		kept++
	}

	if err := m.truncate(kept*m.nsam, kept); err != nil {
		return 0, err
	}
	m.nsites = kept

	return removed, nil
}

// FilterHaplotypes removes, in place, every sample for which remove returns
// true. It follows the same ownership and invalidation rules as FilterSites.
func FilterHaplotypes(m *VariantMatrix, remove func(View) bool) (int, error) {
	if !m.Resizable() {
		return 0, fmt.Errorf("%w: cannot filter samples of a matrix over borrowed storage", ErrNotResizable)
	}

	gen := m.generation
	drop := roaring.New()
	for j := 0; j < m.nsam; j++ {
		if remove(ColView{m.colView(j)}) {
			drop.Add(uint32(j))
		}
	}
	if m.generation != gen {
		return 0, fmt.Errorf("%w: matrix changed shape while filtering samples", ErrUseAfterInvalidation)
	}

	removed := int(drop.GetCardinality())
	defer m.invalidate()
	if removed == 0 {
		return 0, nil
	}

	// The write cursor never passes the read cursor, so one forward pass
	// compacts the buffer.
	g := m.geno.Genotypes()
	w := 0
	for s := 0; s < m.nsites; s++ {
		for j := 0; j < m.nsam; j++ {
			if drop.Contains(uint32(j)) {
				continue
			}
			g[w] = g[s*m.nsam+j]
			w++
		}
	}

	if err := m.truncate(w, m.nsites); err != nil {
		return 0, err
	}
	m.nsam -= removed

	return removed, nil
}

func (m *VariantMatrix) truncate(ngeno, nsites int) error {
	if err := m.geno.Truncate(ngeno); err != nil {
		return err
	}
	if err := m.pos.Truncate(nsites); err != nil {
		return err
	}
	m.ascending = sort.Float64sAreSorted(m.pos.Positions())
	return nil
}

func (m *VariantMatrix) invalidate() {
	m.generation++
}

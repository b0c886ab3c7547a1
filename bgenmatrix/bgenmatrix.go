// Package bgenmatrix builds variant matrices from BGEN files by hard calling
// each sample's genotype probabilities. Each sample contributes one column
// per haplotype. Variants can be streamed from the start of the file or
// selected by region through the BGEN index (.bgi).
package bgenmatrix

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/storage"
	"github.com/carbocation/bgen"
	"github.com/carbocation/pfx"
	"github.com/carbocation/varmatrix/variantmatrix"
)

// Site describes one BGEN variant that became a matrix row.
type Site struct {
	Chromosome string
	Position   uint32
	RSID       string
	Alleles    []string
}

type Result struct {
	Matrix *variantmatrix.VariantMatrix
	Ploidy int
	Sites  []Site
}

type Options struct {
	// Ploidy is taken from the first non-missing sample when zero.
	Ploidy int

	// MinProbability is the smallest probability accepted for a hard call.
	MinProbability float64

	// SkipUnsupported drops unphased multiallelic variants instead of
	// failing.
	SkipUnsupported bool
}

type Builder struct {
	opts      Options
	ploidy    int
	genotypes []int8
	positions []float64
	sites     []Site
	nsam      int
	skipped   int
	row       []int8
}

func NewBuilder(opts Options) *Builder {
	return &Builder{opts: opts, ploidy: opts.Ploidy, nsam: -1}
}

// Add hard calls every sample of v and appends the result as a row.
func (b *Builder) Add(v *bgen.Variant) error {
	calls := make([]Call, len(v.SampleProbabilities))
	for i, sp := range v.SampleProbabilities {
		calls[i] = Call{
			Missing:       sp.Missing,
			Ploidy:        int(sp.Ploidy),
			Phased:        v.Phased,
			NAlleles:      int(v.NAlleles),
			Probabilities: sp.Probabilities,
		}
	}

	alleles := make([]string, len(v.Alleles))
	for i, a := range v.Alleles {
		alleles[i] = string(a)
	}

	return b.AddCalls(Site{
		Chromosome: v.Chromosome,
		Position:   v.Position,
		RSID:       v.RSID,
		Alleles:    alleles,
	}, calls)
}

// AddCalls appends one row from already extracted per-sample calls.
func (b *Builder) AddCalls(site Site, calls []Call) error {
	if b.nsam < 0 {
		b.nsam = len(calls)
	} else if len(calls) != b.nsam {
		return fmt.Errorf("%s has %d samples, expected %d", site.RSID, len(calls), b.nsam)
	}

	if b.ploidy == 0 {
		for _, c := range calls {
			if !c.Missing && c.Ploidy > 0 {
				b.ploidy = c.Ploidy
				break
			}
		}
		if b.ploidy == 0 {
			b.skipped++
			return nil
		}
	}

	b.row = b.row[:0]
	for i, c := range calls {
		var err error
		b.row, err = AppendHaplotypes(b.row, c, b.ploidy, b.opts.MinProbability)
		if errors.Is(err, ErrUnsupportedLayout) && b.opts.SkipUnsupported {
			b.skipped++
			return nil
		} else if err != nil {
			return fmt.Errorf("%s sample %d: %w", site.RSID, i, err)
		}
	}

	b.genotypes = append(b.genotypes, b.row...)
	b.positions = append(b.positions, float64(site.Position))
	b.sites = append(b.sites, site)

	return nil
}

func (b *Builder) Skipped() int { return b.skipped }

func (b *Builder) Result() (*Result, error) {
	var m *variantmatrix.VariantMatrix
	var err error
	if len(b.positions) == 0 {
		m, err = variantmatrix.New(nil, nil)
	} else {
		m, err = variantmatrix.New(b.genotypes, b.positions)
	}
	if err != nil {
		return nil, err
	}

	return &Result{Matrix: m, Ploidy: max(b.ploidy, 1), Sites: b.sites}, nil
}

// Load reads every variant in the BGEN at bgenPath.
func Load(bgenPath string, opts Options) (*Result, error) {
	bg, err := bgen.Open(bgenPath)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer bg.Close()

	b := NewBuilder(opts)
	rdr := bg.NewVariantReader()
	for i := 0; ; i++ {
		variant := rdr.Read()
		if err := rdr.Error(); err != nil {
			return nil, pfx.Err(err)
		} else if variant == nil {
			break
		}

		if i%10000 == 0 && i > 0 {
			log.Printf("Processed %d variants. Last %s:%d\n", i, variant.Chromosome, variant.Position)
		}

		if err := b.Add(variant); err != nil {
			return nil, pfx.Err(err)
		}
	}

	return b.Result()
}

// LoadRegion reads the variants on chromosome between from and to
// (inclusive), located through the index at bgiPath. A gs:// index is copied
// locally first.
func LoadRegion(ctx context.Context, bgenPath, bgiPath string, client *storage.Client, chromosome string, from, to uint32, opts Options) (*Result, error) {
	if bgiPath == "" {
		bgiPath = bgenPath + ".bgi"
	}

	localBGI, fetched, err := LocalizeBGI(ctx, bgiPath, client)
	if err != nil {
		return nil, err
	}
	if fetched {
		log.Printf("Copied file from %s to %s\n", bgiPath, localBGI)
	}

	bgi, bg, err := OpenWithRetry(bgenPath, localBGI, 5, 5*time.Second)
	if err != nil {
		return nil, err
	}
	defer bgi.Close()
	defer bg.Close()

	sites, err := Region(bgi, chromosome, from, to)
	if err != nil {
		return nil, err
	}
	log.Printf("Found %d variants in %s:%d-%d\n", len(sites), chromosome, from, to)

	b := NewBuilder(opts)
	rdr := bg.NewVariantReader()
	for _, site := range sites {
		variant := rdr.ReadAt(int64(site.FileStartPosition))
		if err := rdr.Error(); err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: %w", site.RSID, err))
		}
		if err := b.Add(variant); err != nil {
			return nil, pfx.Err(err)
		}
	}

	return b.Result()
}

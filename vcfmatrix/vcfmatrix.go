// Package vcfmatrix builds variant matrices from VCF files, either streaming
// the whole file or querying tabix indexed regions. Each sample contributes
// one column per haplotype, so a diploid VCF with n samples yields a matrix
// with 2n columns. Alleles keep their VCF numbering: 0 is the reference.
package vcfmatrix

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"math"

	"cloud.google.com/go/storage"
	"github.com/brentp/irelate/interfaces"
	"github.com/carbocation/bix"
	"github.com/carbocation/pfx"
	"github.com/carbocation/varmatrix"
	"github.com/carbocation/varmatrix/variantmatrix"
	"github.com/carbocation/vcfgo"
)

// Site describes one VCF record that became a matrix row.
type Site struct {
	Chrom string
	Pos   uint64
	ID    string
	Ref   string
	Alt   []string
}

// Result is a matrix together with what is needed to interpret its rows and
// columns.
type Result struct {
	Matrix      *variantmatrix.VariantMatrix
	SampleNames []string
	Ploidy      int
	Sites       []Site
}

// ColumnSample maps a matrix column back to its sample and haplotype.
func (r *Result) ColumnSample(col int) (name string, haplotype int) {
	return r.SampleNames[col/r.Ploidy], col % r.Ploidy
}

// Builder accumulates VCF records into a matrix.
type Builder struct {
	// Ploidy is taken from the first called genotype when zero.
	Ploidy int

	// SkipMultiallelic drops records with more than one alt allele.
	SkipMultiallelic bool

	sampleNames []string
	genotypes   []int8
	positions   []float64
	sites       []Site
	nsam        int
	skipped     int
}

func NewBuilder(sampleNames []string) *Builder {
	return &Builder{sampleNames: sampleNames, nsam: len(sampleNames)}
}

func (b *Builder) inferPloidy(v *vcfgo.Variant) {
	for _, s := range v.Samples {
		if s != nil && len(s.GT) > 0 {
			b.Ploidy = len(s.GT)
			return
		}
	}
}

// Add appends one record. Records without any called genotype cannot fix the
// ploidy, so they are skipped until it is known.
func (b *Builder) Add(v *vcfgo.Variant) error {
	if len(v.Samples) != b.nsam {
		return fmt.Errorf("%s:%d has %d samples, the header lists %d", v.Chromosome, v.Pos, len(v.Samples), b.nsam)
	}
	if b.SkipMultiallelic && len(v.Alt()) > 1 {
		b.skipped++
		return nil
	}
	if b.Ploidy == 0 {
		b.inferPloidy(v)
		if b.Ploidy == 0 {
			b.skipped++
			return nil
		}
	}

	for i, s := range v.Samples {
		var gt []int
		if s != nil {
			gt = s.GT
		}
		if len(gt) > b.Ploidy {
			return fmt.Errorf("%s:%d sample %s has ploidy %d, expected at most %d", v.Chromosome, v.Pos, b.sampleNames[i], len(gt), b.Ploidy)
		}
		for h := 0; h < b.Ploidy; h++ {
			if h >= len(gt) || gt[h] < 0 {
				b.genotypes = append(b.genotypes, variantmatrix.Mask)
				continue
			}
			if gt[h] > math.MaxInt8 {
				return fmt.Errorf("%s:%d allele %d does not fit in a genotype code", v.Chromosome, v.Pos, gt[h])
			}
			b.genotypes = append(b.genotypes, int8(gt[h]))
		}
	}

	b.positions = append(b.positions, float64(v.Pos))
	b.sites = append(b.sites, Site{
		Chrom: v.Chromosome,
		Pos:   v.Pos,
		ID:    v.Id(),
		Ref:   v.Ref(),
		Alt:   v.Alt(),
	})

	return nil
}

// Skipped is the number of records that were not added.
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

	return &Result{
		Matrix:      m,
		SampleNames: b.sampleNames,
		Ploidy:      max(b.Ploidy, 1),
		Sites:       b.sites,
	}, nil
}

// NewReader parses the VCF header from r. Genotypes are parsed eagerly.
func NewReader(r io.Reader) (*vcfgo.Reader, error) {
	rdr, err := vcfgo.NewReader(bufio.NewReaderSize(r, varmatrix.BufferSize), false)
	if err != nil {
		if rdr == nil {
			return nil, pfx.Err(err)
		}
		log.Println("Invalid VCF. Attempting to continue. Invalid features include:")
		log.Println(err)
		rdr.Clear()
	}

	return rdr, nil
}

// ReadAll streams every record of rdr into a matrix.
func ReadAll(rdr *vcfgo.Reader, b *Builder) (*Result, error) {
	i := 0
	for ; ; i++ {
		variant := rdr.Read()
		if variant == nil {
			break
		}

		if i%10000 == 0 && i > 0 {
			log.Printf("Processed %d variants. Last %s:%d\n", i, variant.Chrom(), variant.Pos)
		}

		if err := b.Add(variant); err != nil {
			return nil, pfx.Err(err)
		}
	}
	if err := rdr.Error(); err != nil {
		return nil, pfx.Err(err)
	}

	return b.Result()
}

// Load reads a whole VCF, optionally compressed, from a local path, a gs://
// path or stdin.
func Load(ctx context.Context, path string, client *storage.Client, skipMultiallelic bool) (*Result, error) {
	f, err := varmatrix.OpenInput(ctx, path, client)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rdr, err := NewReader(f)
	if err != nil {
		return nil, err
	}

	b := NewBuilder(rdr.Header.SampleNames)
	b.SkipMultiallelic = skipMultiallelic
	log.Println(len(rdr.Header.SampleNames), "samples found in", path)

	return ReadAll(rdr, b)
}

// LoadRegions reads only the records overlapping loci from a bgzipped,
// tabix indexed VCF. gs:// paths are read through client.
func LoadRegions(path string, client *storage.Client, loci []TabixLocus, skipMultiallelic bool) (*Result, error) {
	var tbx *bix.Bix
	var err error
	if client != nil && varmatrix.IsGSPath(path) {
		tbx, err = bix.NewGCP(path, client)
	} else {
		tbx, err = bix.New(path)
	}
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer tbx.Close()

	b := NewBuilder(tbx.VReader.Header.SampleNames)
	b.SkipMultiallelic = skipMultiallelic

	j := 0
	for _, locus := range loci {
		if err := queryLocus(tbx, locus, b, &j); err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: %w", locus, err))
		}
	}
	log.Printf("Processed %d variants.\n", j)

	return b.Result()
}

func queryLocus(tbx *bix.Bix, locus TabixLocus, b *Builder, j *int) error {
	vals, err := tbx.Query(locus)
	if err != nil {
		return err
	}
	defer vals.Close()

	for {
		v, err := vals.Next()
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}

		// Unwrap multiple layers to get to vcfgo.Variant{}
		v2, ok := v.(interfaces.VarWrap)
		if !ok {
			return fmt.Errorf("%s:%d: not a valid VarWrap", v.Chrom(), v.End())
		}
		snp, ok := v2.IVariant.(*vcfgo.Variant)
		if !ok {
			return fmt.Errorf("%s:%d: not a valid vcfgo.Variant", v.Chrom(), v.End())
		}

		if err := tbx.VReader.Header.ParseSamples(snp); err != nil {
			return err
		}

		*j++
		if err := b.Add(snp); err != nil {
			return err
		}
	}
}

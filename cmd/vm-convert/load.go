package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/carbocation/varmatrix"
	"github.com/carbocation/varmatrix/bgenmatrix"
	"github.com/carbocation/varmatrix/variantmatrix"
	"github.com/carbocation/varmatrix/vcfmatrix"
)

type inputConfig struct {
	vcf              string
	regions          string
	skipMultiallelic bool

	bgen            string
	bgi             string
	sample          string
	bgenRegion      string
	minProb         float64
	skipUnsupported bool

	table  string
	bim    string
	header bool
}

func (c inputConfig) validate() error {
	n := 0
	for _, p := range []string{c.vcf, c.bgen, c.table} {
		if p != "" {
			n++
		}
	}
	if n != 1 {
		return errors.New("pass exactly one of -vcf, -bgen or -table")
	}
	if c.regions != "" && c.vcf == "" {
		return errors.New("-region needs -vcf")
	}
	if c.bgenRegion != "" && c.bgen == "" {
		return errors.New("-bgen-region needs -bgen")
	}

	return nil
}

// loaded is a matrix plus the names of its samples, when the input has any.
type loaded struct {
	matrix      *variantmatrix.VariantMatrix
	sampleNames []string
	ploidy      int
}

func load(ctx context.Context, c inputConfig, client *storage.Client) (loaded, error) {
	switch {
	case c.vcf != "":
		return loadVCF(ctx, c, client)
	case c.bgen != "":
		return loadBGEN(ctx, c, client)
	default:
		return loadTable(ctx, c, client)
	}
}

func loadVCF(ctx context.Context, c inputConfig, client *storage.Client) (loaded, error) {
	var res *vcfmatrix.Result
	var err error

	if c.regions == "" {
		res, err = vcfmatrix.Load(ctx, c.vcf, client, c.skipMultiallelic)
	} else {
		loci := make([]vcfmatrix.TabixLocus, 0)
		for _, region := range strings.Split(c.regions, ",") {
			locus, err := vcfmatrix.ParseLocus(region)
			if err != nil {
				return loaded{}, err
			}
			loci = append(loci, locus)
		}
		res, err = vcfmatrix.LoadRegions(c.vcf, client, loci, c.skipMultiallelic)
	}
	if err != nil {
		return loaded{}, err
	}

	return loaded{matrix: res.Matrix, sampleNames: res.SampleNames, ploidy: res.Ploidy}, nil
}

func loadBGEN(ctx context.Context, c inputConfig, client *storage.Client) (loaded, error) {
	opts := bgenmatrix.Options{
		MinProbability:  c.minProb,
		SkipUnsupported: c.skipUnsupported,
	}

	var res *bgenmatrix.Result
	var err error
	if c.bgenRegion == "" {
		res, err = bgenmatrix.Load(c.bgen, opts)
	} else {
		locus, perr := vcfmatrix.ParseLocus(c.bgenRegion)
		if perr != nil {
			return loaded{}, perr
		}
		// The index stores 1-based positions.
		res, err = bgenmatrix.LoadRegion(ctx, c.bgen, c.bgi, client, locus.Chrom(), locus.Start()+1, locus.End(), opts)
	}
	if err != nil {
		return loaded{}, err
	}

	out := loaded{matrix: res.Matrix, ploidy: res.Ploidy}
	if c.sample == "" {
		return out, nil
	}

	f, err := varmatrix.OpenInput(ctx, c.sample, client)
	if err != nil {
		return out, err
	}
	defer f.Close()

	if out.sampleNames, err = bgenmatrix.ReadSampleFile(f); err != nil {
		return out, err
	}
	if out.ploidy > 0 && len(out.sampleNames)*out.ploidy != out.matrix.NSam() {
		return out, pfx.Err(fmt.Errorf("%s lists %d samples but the matrix has %d columns at ploidy %d", c.sample, len(out.sampleNames), out.matrix.NSam(), out.ploidy))
	}

	return out, nil
}

func loadTable(ctx context.Context, c inputConfig, client *storage.Client) (loaded, error) {
	opts := varmatrix.TableOptions{Header: c.header}

	if c.bim != "" {
		f, err := varmatrix.OpenInput(ctx, c.bim, client)
		if err != nil {
			return loaded{}, err
		}
		rows, err := varmatrix.NewBIM(f).ReadAll()
		f.Close()
		if err != nil {
			return loaded{}, err
		}
		opts.Positions = varmatrix.BIMPositions(rows)
		log.Printf("Read %d positions from %s\n", len(rows), c.bim)
	}

	f, err := varmatrix.OpenInput(ctx, c.table, client)
	if err != nil {
		return loaded{}, err
	}
	defer f.Close()

	m, err := varmatrix.ReadGenotypeTable(f, opts)
	if err != nil {
		return loaded{}, pfx.Err(err)
	}

	return loaded{matrix: m}, nil
}

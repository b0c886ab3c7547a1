package main

import (
	"context"
	"io"
	"log"

	"cloud.google.com/go/storage"
	"github.com/carbocation/varmatrix"
	"github.com/carbocation/varmatrix/msformat"
	"github.com/carbocation/varmatrix/sitefilter"
	"github.com/carbocation/varmatrix/summary"
	"github.com/carbocation/varmatrix/variantmatrix"
)

type inputSummary struct {
	rows       []summary.Row
	replicates int

	// mafs pools site frequencies across replicates when a histogram was
	// requested.
	mafs []float64
}

func summarizeInput(ctx context.Context, path string, client *storage.Client, cfg config) (inputSummary, error) {
	var out inputSummary

	f, err := varmatrix.OpenInput(ctx, path, client)
	if err != nil {
		return out, err
	}
	defer f.Close()

	filter := siteFilter(cfg)

	rdr := msformat.NewReader(f)
	for rep := 0; ; rep++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		m, err := rdr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return out, err
		}
		out.replicates++

		if filter != nil {
			if _, err := variantmatrix.FilterSites(m, filter); err != nil {
				return out, err
			}
		}

		rows, err := summarizeReplicate(m, rep, cfg)
		if err != nil {
			return out, err
		}
		out.rows = append(out.rows, rows...)

		if cfg.histBins > 0 {
			mafs, err := summary.SiteMAFs(m)
			if err != nil {
				return out, err
			}
			out.mafs = append(out.mafs, mafs...)
		}

		if rep%1000 == 0 && rep > 0 {
			log.Printf("%s: processed %d replicates\n", path, rep)
		}
	}

	log.Printf("%s: %d replicates\n", path, out.replicates)

	return out, nil
}

func summarizeReplicate(m *variantmatrix.VariantMatrix, rep int, cfg config) ([]summary.Row, error) {
	if cfg.windowed() {
		return summary.ComputeWindows(m, rep, cfg.window, cfg.step, cfg.start, cfg.end)
	}

	row, err := summary.Compute(m, rep)
	if err != nil {
		return nil, err
	}

	return []summary.Row{row}, nil
}

// siteFilter combines the requested filters, or returns nil if none were.
func siteFilter(cfg config) sitefilter.Predicate {
	preds := make([]sitefilter.Predicate, 0)
	if cfg.minMAF > 0 {
		preds = append(preds, sitefilter.MAFBelow(cfg.minMAF))
	}
	if cfg.dropSingletons {
		preds = append(preds, sitefilter.Singleton())
	}
	if len(preds) == 0 {
		return nil
	}

	return sitefilter.Any(preds...)
}

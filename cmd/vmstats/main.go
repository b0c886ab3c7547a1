// vmstats reads ms-format replicates and writes one summary row per
// replicate, or per window of each replicate, as TSV on stdout and
// optionally into a sqlite stats table.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"strings"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/carbocation/pfx"
	"github.com/carbocation/varmatrix"
	_ "github.com/carbocation/varmatrix/compileinfoprint"
	"github.com/carbocation/varmatrix/store"
	"github.com/carbocation/varmatrix/summary"
	"golang.org/x/sync/errgroup"
)

var STDOUT = bufio.NewWriterSize(os.Stdout, varmatrix.BufferSize)

type config struct {
	window, step, start, end float64
	minMAF                   float64
	dropSingletons           bool
	histBins                 int
}

func (c config) windowed() bool { return c.window > 0 }

func main() {
	defer STDOUT.Flush()

	var inputs, outfile string
	var cfg config
	var workers int
	flag.StringVar(&inputs, "ms", varmatrix.StdinPath, "Comma-separated ms-format inputs. Local paths, gs:// paths and - (stdin) are accepted, optionally compressed.")
	flag.StringVar(&outfile, "outfile", "", "(Optional) sqlite3 file. Rows are appended to its stats table.")
	flag.Float64Var(&cfg.window, "window", 0, "(Optional) Window size in position units. If 0, each replicate is summarized whole.")
	flag.Float64Var(&cfg.step, "step", 0, "Window step. Defaults to the window size.")
	flag.Float64Var(&cfg.start, "start", 0, "Left edge of the first window.")
	flag.Float64Var(&cfg.end, "end", 1, "Windows start before this position. ms positions lie in [0,1).")
	flag.Float64Var(&cfg.minMAF, "maf", 0, "(Optional) Drop sites with a minor allele frequency below this before summarizing.")
	flag.BoolVar(&cfg.dropSingletons, "drop-singletons", false, "Drop sites where some state is carried once.")
	flag.IntVar(&cfg.histBins, "hist", 0, "(Optional) Print a histogram of site minor allele frequencies with this many bins to stderr.")
	flag.IntVar(&workers, "workers", runtime.NumCPU(), "Inputs read concurrently.")
	flag.Parse()

	if inputs == "" {
		flag.PrintDefaults()
		log.Fatalln("Please pass at least one -ms input")
	}
	if cfg.windowed() && cfg.step <= 0 {
		cfg.step = cfg.window
	}

	paths := strings.Split(inputs, ",")
	stdin := 0
	for _, p := range paths {
		if p == varmatrix.StdinPath {
			stdin++
		}
	}
	if stdin > 1 {
		log.Fatalln("stdin can be read only once")
	}

	ctx := context.Background()
	client, err := varmatrix.NewStorageClientIfNeeded(ctx, paths...)
	if err != nil {
		log.Fatalln(err)
	}

	results := make([]inputSummary, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			res, err := summarizeInput(ctx, path, client, cfg)
			if err != nil {
				return pfx.Err(fmt.Errorf("%s: %w", path, err))
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalln(err)
	}

	// Replicates are numbered across all inputs in the order given.
	all := make([]summary.Row, 0)
	mafs := make([]float64, 0)
	offset := 0
	for _, res := range results {
		for _, r := range res.rows {
			r.Replicate += offset
			all = append(all, r)
		}
		offset += res.replicates
		mafs = append(mafs, res.mafs...)
	}

	if cfg.histBins > 0 {
		if err := printHistogram(os.Stderr, mafs, cfg.histBins); err != nil {
			log.Fatalln(err)
		}
	}

	fmt.Fprintln(STDOUT, summary.Header())
	for _, r := range all {
		fmt.Fprintln(STDOUT, r.TSV())
	}

	if outfile != "" {
		db, err := store.Open(outfile)
		if err != nil {
			log.Fatalln(err)
		}
		defer db.Close()

		if err := db.InsertSummaries(all); err != nil {
			log.Fatalln(err)
		}
		log.Printf("Wrote %d rows to %s\n", len(all), outfile)
	}
}

// printHistogram draws the pooled frequencies as a text histogram.
func printHistogram(w io.Writer, mafs []float64, bins int) error {
	if len(mafs) == 0 {
		log.Println("No segregating sites; skipping the histogram")
		return nil
	}

	fmt.Fprintf(w, "Minor allele frequencies of %d segregating sites:\n", len(mafs))
	return histogram.Fprint(w, histogram.Hist(bins, mafs), histogram.Linear(40))
}

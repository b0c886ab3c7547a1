// Package summary reduces a variant matrix, or each of its windows, to one
// row of descriptive counts. Population-genetic estimators are left to
// downstream tools; these rows are what they would be joined against.
package summary

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/carbocation/varmatrix/sitefilter"
	"github.com/carbocation/varmatrix/variantmatrix"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/guregu/null.v3"
)

// Row describes one replicate, or one window of a replicate. Window bounds
// are null when the whole replicate was summarized.
type Row struct {
	Replicate   int        `db:"rep"`
	WindowStart null.Float `db:"window_start"`
	WindowEnd   null.Float `db:"window_end"`
	NSites      int        `db:"nsites"`
	NSam        int        `db:"nsam"`
	Segregating int        `db:"segsites"`
	Singletons  int        `db:"singletons"`
	Missing     float64    `db:"missing"`
	MeanMAF     null.Float `db:"mean_maf"`
	SDMAF       null.Float `db:"sd_maf"`
	MedianMAF   null.Float `db:"median_maf"`
}

// Columns are the names of Row's fields in output order.
var Columns = []string{
	"rep", "window_start", "window_end", "nsites", "nsam", "segsites",
	"singletons", "missing", "mean_maf", "sd_maf", "median_maf",
}

// Compute summarizes all of m.
func Compute(m *variantmatrix.VariantMatrix, rep int) (Row, error) {
	out := Row{
		Replicate: rep,
		NSites:    m.NSites(),
		NSam:      m.NSam(),
	}

	counts, err := variantmatrix.ProcessSites(m, variantmatrix.NoReference())
	if err != nil {
		return out, err
	}

	var missing, total int64
	mafs := make([]float64, 0, len(counts))
	for i := range counts {
		sc := &counts[i]
		missing += int64(sc.Missing())
		total += int64(sc.N() + sc.Missing())

		if sc.NStates() < 2 {
			continue
		}
		out.Segregating++
		mafs = append(mafs, sitefilter.MinorAlleleFrequency(sc))

		for _, c := range sc.Counts() {
			if c == 1 {
				out.Singletons++
				break
			}
		}
	}

	if total > 0 {
		out.Missing = float64(missing) / float64(total)
	}

	if len(mafs) > 0 {
		mean, sd := stat.MeanStdDev(mafs, nil)
		out.MeanMAF = null.FloatFrom(mean)
		if len(mafs) > 1 {
			out.SDMAF = null.FloatFrom(sd)
		}

		median, err := stats.Median(stats.Float64Data(mafs))
		if err != nil {
			return out, fmt.Errorf("median of %d frequencies: %w", len(mafs), err)
		}
		out.MedianMAF = null.FloatFrom(median)
	}

	return out, nil
}

// SiteMAFs lists the minor allele frequency of every segregating site of m.
func SiteMAFs(m *variantmatrix.VariantMatrix) ([]float64, error) {
	counts, err := variantmatrix.ProcessSites(m, variantmatrix.NoReference())
	if err != nil {
		return nil, err
	}

	out := make([]float64, 0, len(counts))
	for i := range counts {
		if counts[i].NStates() < 2 {
			continue
		}
		out = append(out, sitefilter.MinorAlleleFrequency(&counts[i]))
	}

	return out, nil
}

// ComputeWindows summarizes each window of m produced by
// variantmatrix.SlidingWindows.
func ComputeWindows(m *variantmatrix.VariantMatrix, rep int, size, step, start, end float64) ([]Row, error) {
	windows, err := variantmatrix.SlidingWindows(m, size, step, start, end)
	if err != nil {
		return nil, err
	}

	out := make([]Row, 0, len(windows))
	for k, w := range windows {
		row, err := Compute(w, rep)
		if err != nil {
			return nil, err
		}
		left := start + float64(k)*step
		row.WindowStart = null.FloatFrom(left)
		row.WindowEnd = null.FloatFrom(left + size)
		out = append(out, row)
	}

	return out, nil
}

// Header is the tab-delimited column line matching TSV.
func Header() string {
	return strings.Join(Columns, "\t")
}

// TSV formats r as a tab-delimited line without a trailing newline. Null
// values are written as NA.
func (r Row) TSV() string {
	return strings.Join([]string{
		strconv.Itoa(r.Replicate),
		NullFloatFormatter(r.WindowStart),
		NullFloatFormatter(r.WindowEnd),
		strconv.Itoa(r.NSites),
		strconv.Itoa(r.NSam),
		strconv.Itoa(r.Segregating),
		strconv.Itoa(r.Singletons),
		formatFloat(r.Missing),
		NullFloatFormatter(r.MeanMAF),
		NullFloatFormatter(r.SDMAF),
		NullFloatFormatter(r.MedianMAF),
	}, "\t")
}

// NullMarker stands in for null values in TSV output.
const NullMarker = "NA"

func NullFloatFormatter(n null.Float) string {
	if !n.Valid || math.IsNaN(n.Float64) {
		return NullMarker
	}

	return formatFloat(n.Float64)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

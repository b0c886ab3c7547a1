// vm-convert builds a variant matrix from a VCF, a BGEN or a delimited
// genotype table, filters its sites and writes it as a .vmz file. Allele
// counts can also be written to sqlite and streamed to BigQuery.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/carbocation/varmatrix"
	_ "github.com/carbocation/varmatrix/compileinfoprint"
	"github.com/carbocation/varmatrix/matfile"
)

// Special value that is to be set using ldflags
// E.g.: go build -ldflags "-X main.builddate=`date -u +%Y-%m-%d:%H:%M:%S%Z`"
var builddate string

var STDOUT = bufio.NewWriterSize(os.Stdout, varmatrix.BufferSize)

func main() {
	defer STDOUT.Flush()

	var in inputConfig
	var filt filterConfig
	var out outputConfig

	flag.StringVar(&in.vcf, "vcf", "", "VCF input: local, gs:// or - for stdin. May be compressed.")
	flag.StringVar(&in.regions, "region", "", "(Optional) Comma-separated chrom:from-to regions. Requires a bgzipped, tabix indexed -vcf.")
	flag.BoolVar(&in.skipMultiallelic, "skip-multiallelic", false, "Drop VCF records with more than one alt allele.")
	flag.StringVar(&in.bgen, "bgen", "", "BGEN input. Must be a local path.")
	flag.StringVar(&in.bgi, "bgi", "", "(Optional) BGEN index, local or gs://. Defaults to the BGEN path suffixed with .bgi")
	flag.StringVar(&in.sample, "sample", "", "(Optional) Oxford .sample file naming the BGEN samples.")
	flag.StringVar(&in.bgenRegion, "bgen-region", "", "(Optional) chrom:from-to region looked up in the BGEN index.")
	flag.Float64Var(&in.minProb, "min-prob", 0.9, "Smallest BGEN probability accepted as a hard call. Others are missing.")
	flag.BoolVar(&in.skipUnsupported, "skip-unsupported", false, "Drop unphased multiallelic BGEN variants instead of failing.")
	flag.StringVar(&in.table, "table", "", "Delimited genotype table: one line per site, one column per haplotype.")
	flag.StringVar(&in.bim, "bim", "", "(Optional) PLINK .bim file giving one position per -table line. Otherwise the first column is the position.")
	flag.BoolVar(&in.header, "header", false, "The -table has a header line.")

	flag.Float64Var(&filt.minMAF, "maf", 0, "(Optional) Drop sites with a minor allele frequency below this.")
	flag.Float64Var(&filt.maxMissing, "max-missing", 1, "Drop sites where more than this fraction of haplotypes is missing.")
	flag.Float64Var(&filt.minHWE, "hwe", 0, "(Optional) Drop sites with a Hardy-Weinberg P value below this. Columns are read as diploid pairs.")
	flag.BoolVar(&filt.biallelic, "biallelic", false, "Keep only sites with exactly two observed states.")
	flag.BoolVar(&filt.dropMonomorphic, "drop-monomorphic", false, "Drop sites with fewer than two observed states.")

	flag.StringVar(&out.path, "out", "", "Output path. "+matfile.Extension+" is appended if missing.")
	flag.StringVar(&out.samplesOut, "samples-out", "", "(Optional) TSV mapping each matrix column to its sample and haplotype.")
	flag.StringVar(&out.sqlite, "sqlite", "", "(Optional) sqlite3 file that receives the allele counts.")
	flag.StringVar(&out.label, "label", "", "Label for the allele count rows. Defaults to the output file name.")
	flag.StringVar(&out.bqProject, "bq-project", "", "(Optional) BigQuery project that receives the allele counts.")
	flag.StringVar(&out.bqDataset, "bq-dataset", "", "BigQuery dataset.")
	flag.StringVar(&out.bqTable, "bq-table", "allele_counts", "BigQuery table. Created if absent.")
	flag.BoolVar(&out.bqSkipExisting, "bq-skip-existing", false, "Skip the BigQuery upload when the label is already present.")
	flag.Parse()

	if builddate != "" {
		log.Println("Built", builddate)
	}

	if err := in.validate(); err != nil {
		flag.PrintDefaults()
		log.Fatalln(err)
	}
	if out.path == "" {
		flag.PrintDefaults()
		log.Fatalln("Please pass -out")
	}
	if !strings.HasSuffix(out.path, matfile.Extension) {
		out.path += matfile.Extension
	}
	if out.label == "" {
		out.label = strings.TrimSuffix(filepath.Base(out.path), matfile.Extension)
	}
	if out.bqProject != "" && out.bqDataset == "" {
		flag.PrintDefaults()
		log.Fatalln("-bq-project needs -bq-dataset")
	}

	ctx := context.Background()
	client, err := varmatrix.NewStorageClientIfNeeded(ctx, in.vcf, in.bgi, in.table, in.bim, in.sample)
	if err != nil {
		log.Fatalln(err)
	}

	loaded, err := load(ctx, in, client)
	if err != nil {
		log.Fatalln(err)
	}
	log.Printf("Loaded %d sites x %d haplotypes\n", loaded.matrix.NSites(), loaded.matrix.NSam())

	if err := applyFilters(loaded.matrix, filt); err != nil {
		log.Fatalln(err)
	}

	if err := write(ctx, loaded, out); err != nil {
		log.Fatalln(err)
	}

	fmt.Fprintf(STDOUT, "%s\t%d\t%d\n", out.path, loaded.matrix.NSites(), loaded.matrix.NSam())
}

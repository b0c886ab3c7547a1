package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/carbocation/pfx"
	"github.com/carbocation/varmatrix/bqexport"
	"github.com/carbocation/varmatrix/matfile"
	"github.com/carbocation/varmatrix/store"
)

type outputConfig struct {
	path       string
	samplesOut string

	sqlite string
	label  string

	bqProject      string
	bqDataset      string
	bqTable        string
	bqSkipExisting bool
}

func write(ctx context.Context, l loaded, c outputConfig) error {
	if err := matfile.Save(c.path, l.matrix); err != nil {
		return err
	}
	log.Println("Wrote", c.path)

	if c.samplesOut != "" {
		if err := writeSamples(c.samplesOut, l); err != nil {
			return err
		}
	}

	if c.sqlite == "" && c.bqProject == "" {
		return nil
	}

	ac := l.matrix.CountAlleles()
	counts, err := store.AlleleCountRows(c.label, ac)
	if err != nil {
		return err
	}

	if c.sqlite != "" {
		db, err := store.Open(c.sqlite)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.InsertAlleleCounts(c.label, ac); err != nil {
			return err
		}
		log.Printf("Wrote %d allele count rows to %s\n", len(counts), c.sqlite)
	}

	if c.bqProject != "" {
		if err := upload(ctx, c, bqexport.FromStore(counts)); err != nil {
			return err
		}
	}

	return nil
}

func upload(ctx context.Context, c outputConfig, rows []bqexport.AlleleCountRow) error {
	wbq, err := bqexport.New(ctx, c.bqProject, c.bqDataset)
	if err != nil {
		return err
	}
	defer wbq.Close()

	if err := wbq.EnsureTable(c.bqTable); err != nil {
		return err
	}

	if c.bqSkipExisting {
		existing, err := wbq.ExistingLabels(c.bqTable)
		if err != nil {
			return err
		}
		if _, exists := existing[c.label]; exists {
			log.Printf("%s is already in %s.%s, skipping the upload\n", c.label, c.bqDataset, c.bqTable)
			return nil
		}
	}

	if err := wbq.Insert(c.bqTable, rows, bqexport.DefaultBatchSize); err != nil {
		return err
	}
	log.Printf("Streamed %d rows to %s.%s.%s\n", len(rows), c.bqProject, c.bqDataset, c.bqTable)

	return nil
}

// writeSamples maps each matrix column to its sample name and haplotype.
// Without sample names the column index stands in for the name.
func writeSamples(path string, l loaded) error {
	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}

	ploidy := l.ploidy
	if ploidy < 1 {
		ploidy = 1
	}

	fmt.Fprintln(f, "column\tsample\thaplotype")
	for col := 0; col < l.matrix.NSam(); col++ {
		name := fmt.Sprint(col / ploidy)
		if idx := col / ploidy; idx < len(l.sampleNames) {
			name = l.sampleNames[idx]
		}
		fmt.Fprintf(f, "%d\t%s\t%d\n", col, name, col%ploidy)
	}

	if err := f.Close(); err != nil {
		return pfx.Err(err)
	}

	return nil
}

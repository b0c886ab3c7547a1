package bgenmatrix

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/carbocation/pfx"
)

// ReadSampleFile returns the sample IDs from an Oxford .sample file, in BGEN
// order. The file has two header rows: the column names and then the column
// types.
func ReadSampleFile(r io.Reader) ([]string, error) {
	sampleKeyCSV := csv.NewReader(r)
	sampleKeyCSV.Comma = ' '
	sampleKeyCSV.FieldsPerRecord = -1

	recs, err := sampleKeyCSV.ReadAll()
	if err != nil {
		return nil, pfx.Err(err)
	}
	if len(recs) < 2 {
		return nil, fmt.Errorf("sample file has %d lines, expected at least the 2 header lines", len(recs))
	}

	out := make([]string, 0, len(recs)-2)
	for i, line := range recs[2:] {
		if len(line) == 0 || line[0] == "" {
			return nil, fmt.Errorf("sample file line %d has no ID", i+3)
		}
		out = append(out, line[0])
	}

	return out, nil
}

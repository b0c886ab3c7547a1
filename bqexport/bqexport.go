// Package bqexport streams allele counts into a BigQuery table.
package bqexport

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"cloud.google.com/go/bigquery"
	"github.com/carbocation/pfx"
	"github.com/carbocation/varmatrix/store"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

// DefaultBatchSize bounds the rows sent per streaming insert request.
const DefaultBatchSize = 5000

type WrappedBigQuery struct {
	Context  context.Context
	Client   *bigquery.Client
	Project  string
	Database string
}

// New connects to project and targets the dataset named database.
func New(ctx context.Context, project, database string) (*WrappedBigQuery, error) {
	client, err := bigquery.NewClient(ctx, project)
	if err != nil {
		return nil, pfx.Err(err)
	}

	return &WrappedBigQuery{
		Context:  ctx,
		Client:   client,
		Project:  project,
		Database: database,
	}, nil
}

func (wbq *WrappedBigQuery) Close() error {
	return wbq.Client.Close()
}

// AlleleCountRow mirrors store.AlleleCount with BigQuery column names.
type AlleleCountRow struct {
	Label    string             `bigquery:"label"`
	Site     int64              `bigquery:"site"`
	Position float64            `bigquery:"position"`
	State    bigquery.NullInt64 `bigquery:"state"`
	Count    int64              `bigquery:"count"`
}

// FromStore converts sqlite rows to BigQuery rows.
func FromStore(rows []store.AlleleCount) []AlleleCountRow {
	out := make([]AlleleCountRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, AlleleCountRow{
			Label:    r.Label,
			Site:     r.Site,
			Position: r.Position,
			State:    bigquery.NullInt64{Int64: r.State.Int64, Valid: r.State.Valid},
			Count:    r.Count,
		})
	}

	return out
}

// EnsureTable creates table with the AlleleCountRow schema if it does not
// exist yet.
func (wbq *WrappedBigQuery) EnsureTable(table string) error {
	t := wbq.Client.Dataset(wbq.Database).Table(table)

	_, err := t.Metadata(wbq.Context)
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusNotFound {
		return pfx.Err(err)
	}

	schema, err := bigquery.InferSchema(AlleleCountRow{})
	if err != nil {
		return pfx.Err(err)
	}

	log.Printf("Creating table %s.%s.%s\n", wbq.Project, wbq.Database, table)
	if err := t.Create(wbq.Context, &bigquery.TableMetadata{Schema: schema}); err != nil {
		return pfx.Err(err)
	}

	return nil
}

// Insert streams rows into table in batches of at most batchSize.
func (wbq *WrappedBigQuery) Insert(table string, rows []AlleleCountRow, batchSize int) error {
	ins := wbq.Client.Dataset(wbq.Database).Table(table).Inserter()

	for _, b := range Batches(len(rows), batchSize) {
		if err := ins.Put(wbq.Context, rows[b[0]:b[1]]); err != nil {
			return pfx.Err(fmt.Errorf("rows %d-%d: %w", b[0], b[1], err))
		}
	}

	return nil
}

// Batches splits n items into consecutive half-open [from, to) ranges of at
// most size items. A non-positive size means DefaultBatchSize.
func Batches(n, size int) [][2]int {
	if size <= 0 {
		size = DefaultBatchSize
	}

	out := make([][2]int, 0, (n+size-1)/size)
	for from := 0; from < n; from += size {
		to := from + size
		if to > n {
			to = n
		}
		out = append(out, [2]int{from, to})
	}

	return out
}

// ExistingLabels lists the labels already present in table, so that a rerun
// can skip them.
func (wbq *WrappedBigQuery) ExistingLabels(table string) (map[string]struct{}, error) {
	query := wbq.Client.Query(fmt.Sprintf("SELECT DISTINCT label FROM `%s.%s.%s`", wbq.Project, wbq.Database, table))

	itr, err := query.Read(wbq.Context)
	if err != nil {
		return nil, pfx.Err(err)
	}

	out := make(map[string]struct{})
	for {
		var values struct {
			Label string `bigquery:"label"`
		}
		err := itr.Next(&values)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, pfx.Err(err)
		}
		out[values.Label] = struct{}{}
	}

	return out, nil
}

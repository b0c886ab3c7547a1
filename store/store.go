// Package store keeps summary rows and allele counts in a sqlite file.
package store

import (
	"fmt"

	"github.com/carbocation/pfx"
	"github.com/carbocation/varmatrix/summary"
	"github.com/carbocation/varmatrix/variantmatrix"
	"github.com/jmoiron/sqlx"
	"gopkg.in/guregu/null.v3"

	_ "github.com/mattn/go-sqlite3"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS stats (
	rep INTEGER NOT NULL,
	window_start REAL,
	window_end REAL,
	nsites INTEGER NOT NULL,
	nsam INTEGER NOT NULL,
	segsites INTEGER NOT NULL,
	singletons INTEGER NOT NULL,
	missing REAL NOT NULL,
	mean_maf REAL,
	sd_maf REAL,
	median_maf REAL
)`,
	`CREATE TABLE IF NOT EXISTS allele_counts (
	label TEXT NOT NULL,
	site INTEGER NOT NULL,
	position REAL NOT NULL,
	state INTEGER,
	count INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS allele_counts_label ON allele_counts (label, site)`,
}

// AlleleCount is one cell of an allele count matrix. State is null on the
// row carrying the site's missing tally.
type AlleleCount struct {
	Label    string   `db:"label"`
	Site     int64    `db:"site"`
	Position float64  `db:"position"`
	State    null.Int `db:"state"`
	Count    int64    `db:"count"`
}

// AlleleCountRows flattens ac into one row per site and state, plus one
// missing row per site that has missing data.
func AlleleCountRows(label string, ac *variantmatrix.AlleleCountMatrix) ([]AlleleCount, error) {
	out := make([]AlleleCount, 0, ac.NRow()*ac.NCol())
	for i := 0; i < ac.NRow(); i++ {
		row, err := ac.Row(i)
		if err != nil {
			return nil, err
		}
		pos, err := ac.Position(i)
		if err != nil {
			return nil, err
		}
		missing, err := ac.Missing(i)
		if err != nil {
			return nil, err
		}

		for state, c := range row {
			out = append(out, AlleleCount{
				Label:    label,
				Site:     int64(i),
				Position: pos,
				State:    null.IntFrom(int64(state)),
				Count:    int64(c),
			})
		}
		if missing > 0 {
			out = append(out, AlleleCount{
				Label:    label,
				Site:     int64(i),
				Position: pos,
				Count:    int64(missing),
			})
		}
	}

	return out, nil
}

// DB wraps a sqlite handle whose tables have been created.
type DB struct {
	*sqlx.DB
}

// Open creates or opens the sqlite file at path and ensures the tables
// exist.
func Open(path string) (*DB, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, pfx.Err(err)
		}
	}

	return &DB{DB: db}, nil
}

// InsertSummaries appends rows to the stats table in one transaction.
func (db *DB) InsertSummaries(rows []summary.Row) error {
	return db.insert(`INSERT INTO stats
	(rep, window_start, window_end, nsites, nsam, segsites, singletons, missing, mean_maf, sd_maf, median_maf)
	VALUES
	(:rep, :window_start, :window_end, :nsites, :nsam, :segsites, :singletons, :missing, :mean_maf, :sd_maf, :median_maf)`, len(rows), func(i int) interface{} { return rows[i] })
}

// Summaries reads the stats table ordered by replicate and window.
func (db *DB) Summaries() ([]summary.Row, error) {
	out := make([]summary.Row, 0)
	if err := db.Select(&out, "SELECT * FROM stats ORDER BY rep, window_start"); err != nil {
		return nil, pfx.Err(err)
	}

	return out, nil
}

// InsertAlleleCounts stores ac under label.
func (db *DB) InsertAlleleCounts(label string, ac *variantmatrix.AlleleCountMatrix) error {
	rows, err := AlleleCountRows(label, ac)
	if err != nil {
		return err
	}

	return db.insert(`INSERT INTO allele_counts
	(label, site, position, state, count)
	VALUES
	(:label, :site, :position, :state, :count)`, len(rows), func(i int) interface{} { return rows[i] })
}

// AlleleCounts reads back the rows stored under label in site order, with
// each site's missing row last.
func (db *DB) AlleleCounts(label string) ([]AlleleCount, error) {
	out := make([]AlleleCount, 0)
	if err := db.Select(&out, "SELECT * FROM allele_counts WHERE label=? ORDER BY site, state IS NULL, state", label); err != nil {
		return nil, pfx.Err(err)
	}

	return out, nil
}

// insert executes the named query once per row inside a transaction.
func (db *DB) insert(query string, n int, row func(int) interface{}) error {
	tx, err := db.Beginx()
	if err != nil {
		return pfx.Err(err)
	}

	stmt, err := tx.PrepareNamed(query)
	if err != nil {
		tx.Rollback()
		return pfx.Err(err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.Exec(row(i)); err != nil {
			tx.Rollback()
			return pfx.Err(fmt.Errorf("row %d: %w", i, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return pfx.Err(err)
	}

	return nil
}

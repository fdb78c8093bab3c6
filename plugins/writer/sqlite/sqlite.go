// Package sqlite appends runs and their bins to an SQLite database, so that
// repeated invocations with different seeds or settings can be compared.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Sergeyir/HardProcessesLO/pkg/contract"
	"github.com/Sergeyir/HardProcessesLO/plugins/writer/filesystem"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	pdfset      TEXT NOT NULL,
	energy      REAL NOT NULL,
	pthatmin    REAL NOT NULL,
	abs_max_y   REAL NOT NULL,
	samples     INTEGER NOT NULL,
	seed        INTEGER NOT NULL,
	error_model TEXT NOT NULL,
	units       TEXT NOT NULL,
	started     TEXT NOT NULL,
	finished    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS bins (
	run_id    TEXT NOT NULL REFERENCES runs(id),
	histogram TEXT NOT NULL,
	idx       INTEGER NOT NULL,
	low       REAL NOT NULL,
	high      REAL NOT NULL,
	value     REAL NOT NULL,
	error     REAL NOT NULL,
	accepted  INTEGER NOT NULL,
	samples   INTEGER NOT NULL,
	skipped   INTEGER NOT NULL,
	PRIMARY KEY (run_id, histogram, idx)
);`

type Options struct {
	Dir  string `json:"dir"`
	Name string `json:"name"`
}

type Writer struct {
	fs   *filesystem.FS
	name string
}

var _ contract.HistogramWriter = (*Writer)(nil)

func New(opts *Options) (*Writer, error) {
	if opts == nil || strings.TrimSpace(opts.Name) == "" {
		return nil, fmt.Errorf("%w: sqlite writer needs a file name", contract.ErrConfig)
	}
	fs, err := filesystem.New(&filesystem.Options{OutputDir: opts.Dir})
	if err != nil {
		return nil, fmt.Errorf("%w: sqlite writer: %v", contract.ErrConfig, err)
	}
	return &Writer{fs: fs, name: opts.Name}, nil
}

func (w *Writer) ID() contract.ArtifactID { return contract.ArtifactID(w.name + ".db") }

// Open opens (creating if needed) the database with the schema applied.
func (w *Writer) Open(ctx context.Context) (*sql.DB, error) {
	path, err := w.fs.Path(w.ID())
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// WriteHistograms inserts the run and all bins in one transaction. A run
// without an id gets a fresh UUID. Seeds must fit the signed INTEGER column.
func (w *Writer) WriteHistograms(ctx context.Context, run contract.RunInfo, hs []contract.Histogram) (err error) {
	if run.Seed > math.MaxInt64 {
		return fmt.Errorf("%w: seed %d does not fit an sqlite integer", contract.ErrInvalidInput, run.Seed)
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	db, err := w.Open(ctx)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, db.Close()) }()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, pdfset, energy, pthatmin, abs_max_y, samples, seed, error_model, units, started, finished)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.PDFSet, run.SqrtS, run.PTHatMin, run.AbsMaxY, run.Samples, int64(run.Seed),
		run.ErrorModel, run.Units, run.Started.UTC().Format(time.RFC3339Nano), run.Finished.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO bins (run_id, histogram, idx, low, high, value, error, accepted, samples, skipped)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, h := range hs {
		for i, b := range h.Bins {
			skipped := 0
			if b.Skipped {
				skipped = 1
			}
			if _, err = stmt.ExecContext(ctx, run.ID, h.Name, i, b.Low, b.High, b.Value, b.Error, b.Accepted, b.Samples, skipped); err != nil {
				return fmt.Errorf("insert bin %s[%d]: %w", h.Name, i, err)
			}
		}
	}
	return tx.Commit()
}

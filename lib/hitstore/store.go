// Package hitstore persists the outcome of availability scans: one row
// per run plus the hits and per-date failures it produced. History is
// append-only, every run is kept.
package hitstore

import (
	"context"
	"database/sql"
	"time"

	"gymwatch-backend/lib/hitstore/db"
	"gymwatch-backend/lib/timezone"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

type Store struct {
	db  *sql.DB
	qry *db.Queries
}

func NewStore(database *sql.DB) Store {
	return Store{
		db:  database,
		qry: db.New(database),
	}
}

type Window struct {
	Start string
	End   string
}

type Hit struct {
	Date   time.Time
	Window Window
}

type Failure struct {
	Date     time.Time
	Attempts int
	Reason   string
}

type PushRequest struct {
	StartedAt  time.Time
	FinishedAt time.Time
	// empty when the run completed, the abort reason otherwise
	FatalError string
	Hits       []Hit
	Failures   []Failure
}

func (s Store) Push(ctx context.Context, req PushRequest) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	runId, err := txqry.CreateScanRun(ctx, db.CreateScanRunParams{
		StartedAt:  req.StartedAt.Unix(),
		FinishedAt: req.FinishedAt.Unix(),
		FatalError: req.FatalError,
	})
	if err != nil {
		return 0, err
	}

	for _, hit := range req.Hits {
		err := txqry.CreateHit(ctx, db.CreateHitParams{
			RunID:     runId,
			Date:      hit.Date.Format(dateLayout),
			StartTime: hit.Window.Start,
			EndTime:   hit.Window.End,
		})
		if err != nil {
			return 0, err
		}
	}
	for _, failure := range req.Failures {
		err := txqry.CreateScanFailure(ctx, db.CreateScanFailureParams{
			RunID:    runId,
			Date:     failure.Date.Format(dateLayout),
			Attempts: int64(failure.Attempts),
			Reason:   failure.Reason,
		})
		if err != nil {
			return 0, err
		}
	}

	return runId, tx.Commit()
}

type Run struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time
	FatalError string
	Hits       []Hit
	Failures   []Failure
}

// Latest returns the most recent run with its hits and failures.
// sql.ErrNoRows when nothing has been pushed yet.
func (s Store) Latest(ctx context.Context) (Run, error) {
	row, err := s.qry.GetLatestRun(ctx)
	if err != nil {
		return Run{}, err
	}
	return s.hydrateRun(ctx, row)
}

// Recent returns up to limit runs, newest first, with their hits and
// failures.
func (s Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.qry.GetRecentRuns(ctx, int64(limit))
	if err != nil {
		return nil, err
	}

	var runs []Run
	for _, r := range rows {
		run, err := s.hydrateRun(ctx, r)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func (s Store) hydrateRun(ctx context.Context, row db.ScanRun) (Run, error) {
	run := Run{
		ID:         row.ID,
		StartedAt:  time.Unix(row.StartedAt, 0).In(timezone.Location),
		FinishedAt: time.Unix(row.FinishedAt, 0).In(timezone.Location),
		FatalError: row.FatalError,
	}

	hits, err := s.qry.GetRunHits(ctx, row.ID)
	if err != nil {
		return Run{}, err
	}
	for _, h := range hits {
		date, err := time.ParseInLocation(dateLayout, h.Date, timezone.Location)
		if err != nil {
			return Run{}, err
		}
		run.Hits = append(run.Hits, Hit{
			Date: date,
			Window: Window{
				Start: h.StartTime,
				End:   h.EndTime,
			},
		})
	}

	failures, err := s.qry.GetRunFailures(ctx, row.ID)
	if err != nil {
		return Run{}, err
	}
	for _, f := range failures {
		date, err := time.ParseInLocation(dateLayout, f.Date, timezone.Location)
		if err != nil {
			return Run{}, err
		}
		run.Failures = append(run.Failures, Failure{
			Date:     date,
			Attempts: int(f.Attempts),
			Reason:   f.Reason,
		})
	}

	return run, nil
}

// Package maintenance schedules periodic upkeep against the reference
// SQLite store while the ingest daemon (cmd/pyreport serve) is running:
// WAL checkpointing so the -wal file doesn't grow unbounded, and a less
// frequent VACUUM to reclaim space from merged/superseded uploads.
package maintenance

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	_ "modernc.org/sqlite"

	coreerrors "git.home.luguber.info/inful/pyreport/internal/errors"
)

// Scheduler wraps a gocron.Scheduler running two jobs against a SQLite
// database opened independently of the ingest builder's own connection.
type Scheduler struct {
	sched gocron.Scheduler
	db    *sql.DB
}

// New opens its own connection to dbPath (the builder holds its own) and
// registers the checkpoint and vacuum jobs, matching gocron's
// schedule-then-Start usage.
func New(dbPath string, checkpointEvery, vacuumEvery time.Duration) (*Scheduler, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, coreerrors.DbError("open maintenance connection", err)
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		_ = db.Close()
		return nil, coreerrors.Wrap(err, coreerrors.KindDb, coreerrors.SeverityFatal, "create gocron scheduler")
	}

	s := &Scheduler{sched: sched, db: db}

	if _, err := sched.NewJob(
		gocron.DurationJob(checkpointEvery),
		gocron.NewTask(s.checkpoint),
	); err != nil {
		_ = db.Close()
		return nil, coreerrors.Wrap(err, coreerrors.KindDb, coreerrors.SeverityFatal, "schedule wal checkpoint job")
	}

	if _, err := sched.NewJob(
		gocron.DurationJob(vacuumEvery),
		gocron.NewTask(s.vacuum),
	); err != nil {
		_ = db.Close()
		return nil, coreerrors.Wrap(err, coreerrors.KindDb, coreerrors.SeverityFatal, "schedule vacuum job")
	}

	return s, nil
}

// Start runs the scheduler until ctx is cancelled, then shuts it down and
// closes its own database connection.
func (s *Scheduler) Start(ctx context.Context) error {
	s.sched.Start()
	<-ctx.Done()
	if err := s.sched.Shutdown(); err != nil {
		slog.Warn("maintenance scheduler shutdown error", "error", err)
	}
	return s.db.Close()
}

func (s *Scheduler) checkpoint() {
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		slog.Warn("wal checkpoint failed", "error", err)
		return
	}
	slog.Debug("wal checkpoint completed")
}

func (s *Scheduler) vacuum() {
	if _, err := s.db.Exec("VACUUM"); err != nil {
		slog.Warn("vacuum failed", "error", err)
		return
	}
	slog.Debug("vacuum completed")
}

// Package ingest turns "bytes showed up somewhere" into a committed report:
// a filesystem watcher (watch.go) and a NATS JetStream consumer (nats.go)
// are two interchangeable front doors onto the same Job.Run path, the
// common pattern of several input sources feeding one build pipeline.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	coreerrors "git.home.luguber.info/inful/pyreport/internal/errors"
	"git.home.luguber.info/inful/pyreport/internal/eventstore"
	"git.home.luguber.info/inful/pyreport/internal/logfields"
	"git.home.luguber.info/inful/pyreport/internal/metrics"
	"git.home.luguber.info/inful/pyreport/internal/observability"
	"git.home.luguber.info/inful/pyreport/internal/pyreport"
	"git.home.luguber.info/inful/pyreport/internal/report/sqlite"
	"git.home.luguber.info/inful/pyreport/internal/retry"
)

// Pair is one report-JSON/chunks upload waiting to be parsed, regardless of
// which driver produced it.
type Pair struct {
	Source      string // inbox path or NATS subject, for IngestStarted.Meta.Source
	ReportJSON  []byte
	ChunksBytes []byte
}

// Job runs pair through ParsePyreport against a fresh sqlite.Builder at
// dbPath, recording IngestStarted/IngestCompleted/IngestFailed events and
// metrics along the way. Both drivers call this for every pair they see.
type Job struct {
	DBPath   string
	Driver   string // "fsnotify" or "nats", recorded on IngestStarted
	Events   eventstore.Store
	Recorder metrics.Recorder
	Retry    retry.Policy // backoff for opening the sqlite store under SQLITE_BUSY
}

// openBuilder retries sqlite.NewBuilder under j.Retry's backoff when the
// reference store reports a transient Db-kind fault (the single writer
// lock held by a concurrent emit/merge), per the ambient retry/backoff
// requirement for SQLITE_BUSY contention.
func (j *Job) openBuilder(ctx context.Context) (*sqlite.Builder, error) {
	var lastErr error
	for attempt := 0; attempt <= j.Retry.MaxRetries; attempt++ {
		if attempt > 0 {
			j.recorder().IncIngestRetry(j.Driver)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(j.Retry.Delay(attempt)):
			}
		}
		builder, err := sqlite.NewBuilder(j.DBPath)
		if err == nil {
			return builder, nil
		}
		lastErr = err
		ce, ok := err.(*coreerrors.CoreError)
		if !ok || ce.Kind != coreerrors.KindDb {
			return nil, err
		}
	}
	j.recorder().IncIngestRetryExhausted(j.Driver)
	return nil, lastErr
}

// Run parses pair into a fresh report store at j.DBPath and returns the job
// id assigned to it. A parse failure is recorded as IngestFailed and
// returned to the caller; the caller decides whether to retry.
func (j *Job) Run(ctx context.Context, pair Pair) (string, error) {
	jobID := uuid.NewString()
	ctx = observability.WithJobID(ctx, jobID)
	ctx = observability.WithStage(ctx, "ingest")

	started, err := eventstore.NewIngestStarted(jobID, eventstore.IngestStartedMeta{
		Driver:      j.Driver,
		Source:      pair.Source,
		ReportBytes: len(pair.ReportJSON),
		ChunksBytes: len(pair.ChunksBytes),
	})
	if err != nil {
		return jobID, err
	}
	if err := j.appendEvent(ctx, started); err != nil {
		return jobID, err
	}

	observability.InfoContext(ctx, "ingest started",
		logfields.Path(pair.Source))

	start := time.Now()
	builder, err := j.openBuilder(ctx)
	if err != nil {
		return jobID, j.fail(ctx, jobID, err)
	}

	if err := pyreport.ParsePyreport(pair.ReportJSON, pair.ChunksBytes, builder); err != nil {
		_ = builder.Abort()
		return jobID, j.fail(ctx, jobID, err)
	}

	r, err := builder.Build()
	if err != nil {
		return jobID, j.fail(ctx, jobID, err)
	}
	defer r.Close()

	totals, err := r.Totals()
	if err != nil {
		return jobID, j.fail(ctx, jobID, err)
	}

	duration := time.Since(start)
	j.recorder().ObserveParseDuration(duration)
	j.recorder().IncReportsParsed(metrics.ResultSuccess)
	j.recorder().IncSamplesInserted(totals.Lines)

	completed, err := eventstore.NewIngestCompleted(jobID, totals.Lines, duration)
	if err != nil {
		return jobID, err
	}
	if err := j.appendEvent(ctx, completed); err != nil {
		return jobID, err
	}

	observability.InfoContext(ctx, "ingest completed",
		logfields.Rows(totals.Lines),
		logfields.DurationMS(float64(duration.Milliseconds())))
	return jobID, nil
}

func (j *Job) fail(ctx context.Context, jobID string, cause error) error {
	j.recorder().IncReportsParsed(metrics.ResultFailed)

	kind := "unknown"
	if ce, ok := cause.(*coreerrors.CoreError); ok {
		kind = string(ce.Kind)
		j.recorder().IncParseError(kind)
	}

	failed, err := eventstore.NewIngestFailed(jobID, kind, cause.Error())
	if err == nil {
		_ = j.appendEvent(ctx, failed)
	}

	observability.ErrorContext(ctx, "ingest failed",
		logfields.Name(kind), logfields.Error(cause))
	return cause
}

func (j *Job) appendEvent(ctx context.Context, ev eventstore.Event) error {
	if j.Events == nil {
		return nil
	}
	if err := j.Events.Append(ctx, ev.JobID(), ev.Type(), ev.Payload(), nil); err != nil {
		return coreerrors.DbError(fmt.Sprintf("append %s event", ev.Type()), err)
	}
	return nil
}

func (j *Job) recorder() metrics.Recorder {
	if j.Recorder == nil {
		return metrics.NoopRecorder{}
	}
	return j.Recorder
}

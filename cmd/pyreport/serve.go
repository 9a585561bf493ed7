package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"git.home.luguber.info/inful/pyreport/internal/config"
	"git.home.luguber.info/inful/pyreport/internal/eventstore"
	"git.home.luguber.info/inful/pyreport/internal/ingest"
	"git.home.luguber.info/inful/pyreport/internal/maintenance"
	"git.home.luguber.info/inful/pyreport/internal/metrics"
	"git.home.luguber.info/inful/pyreport/internal/retry"
)

// ServeCmd implements `pyreport serve`: the long-lived ingest daemon running
// whichever drivers the config enables (fsnotify inbox watch, NATS
// JetStream consumer), plus scheduled maintenance and an optional
// Prometheus /metrics listener.
type ServeCmd struct {
	EventsDB string `help:"Path to the ingest audit event store" default:"./ingest-events.sqlite"`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	events, err := eventstore.NewSQLiteStore(s.EventsDB)
	if err != nil {
		return fmt.Errorf("open event store: %w", err)
	}
	defer events.Close()

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if cfg.Metrics.Enabled {
		reg := prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cfg.Metrics.ListenAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("metrics listener stopped", "error", err)
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		slog.Info("metrics listener started", "addr", cfg.Metrics.ListenAddr)
	}

	policy := retry.NewPolicy(cfg.Retry.Mode,
		time.Duration(cfg.Retry.InitialMS)*time.Millisecond,
		time.Duration(cfg.Retry.MaxMS)*time.Millisecond,
		cfg.Retry.MaxRetries)

	errs := make(chan error, 3)
	running := 0

	if cfg.Ingest.WatchDir != "" {
		job := &ingest.Job{DBPath: cfg.Database.Path, Driver: "fsnotify", Events: events, Recorder: recorder, Retry: policy}
		w := &ingest.Watcher{Dir: cfg.Ingest.WatchDir, Job: job}
		running++
		go func() { errs <- w.Watch(ctx) }()
		slog.Info("fsnotify ingest driver started", "dir", cfg.Ingest.WatchDir)
	}

	if cfg.Ingest.NATSURL != "" && cfg.Ingest.NATSSubject != "" {
		job := &ingest.Job{DBPath: cfg.Database.Path, Driver: "nats", Events: events, Recorder: recorder, Retry: policy}
		c := &ingest.Consumer{
			URL:         cfg.Ingest.NATSURL,
			Stream:      "PYREPORT_INGEST",
			Subject:     cfg.Ingest.NATSSubject,
			DurableName: "pyreport-ingest",
			Job:         job,
			Retry:       policy,
		}
		running++
		go func() { errs <- c.Run(ctx) }()
		slog.Info("nats ingest driver started", "url", cfg.Ingest.NATSURL, "subject", cfg.Ingest.NATSSubject)
	}

	if running == 0 {
		return fmt.Errorf("no ingest driver configured: set ingest.watch_dir and/or ingest.nats_url/nats_subject")
	}

	sched, err := maintenance.New(cfg.Database.Path, 5*time.Minute, time.Hour)
	if err != nil {
		return fmt.Errorf("start maintenance scheduler: %w", err)
	}
	running++
	go func() { errs <- sched.Start(ctx) }()
	slog.Info("maintenance scheduler started")

	for i := 0; i < running; i++ {
		if err := <-errs; err != nil {
			slog.Error("ingest daemon component stopped with error", "error", err)
		}
	}
	return nil
}

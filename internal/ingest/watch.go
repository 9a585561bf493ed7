package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	coreerrors "git.home.luguber.info/inful/pyreport/internal/errors"
)

// Watcher drains an inbox directory of <id>.json/<id>.chunks pairs dropped
// by an upload service with no message broker available. A pair is only
// ingested once both halves have landed; whichever file arrives second
// triggers the Run call.
type Watcher struct {
	Dir string
	Job *Job
}

// Watch blocks until ctx is cancelled, running Job.Run for every complete
// pair fsnotify reports in w.Dir. It scans w.Dir once up front to pick up
// pairs dropped before the watcher started.
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return coreerrors.IoError("create fsnotify watcher", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.Dir); err != nil {
		return coreerrors.IoError(fmt.Sprintf("watch %s", w.Dir), err)
	}

	w.drainExisting(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			w.maybeIngest(ctx, ev.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("fsnotify watch error", "error", err)
		}
	}
}

func (w *Watcher) drainExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.Dir)
	if err != nil {
		slog.Warn("initial inbox scan failed", "dir", w.Dir, "error", err)
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		w.maybeIngest(ctx, filepath.Join(w.Dir, e.Name()))
	}
}

// maybeIngest checks whether name's sibling half has also landed and, if
// so, ingests the pair. It is called once per file event, so the pair is
// attempted from both the .json and the .chunks side; whichever side is
// missing at the time simply no-ops.
func (w *Watcher) maybeIngest(ctx context.Context, name string) {
	id, ext := splitPairName(name)
	if id == "" {
		return
	}
	var jsonPath, chunksPath string
	switch ext {
	case ".json":
		jsonPath, chunksPath = name, filepath.Join(filepath.Dir(name), id+".chunks")
	case ".chunks":
		jsonPath, chunksPath = filepath.Join(filepath.Dir(name), id+".json"), name
	default:
		return
	}
	if _, err := os.Stat(jsonPath); err != nil {
		return
	}
	if _, err := os.Stat(chunksPath); err != nil {
		return
	}

	reportJSON, err := os.ReadFile(jsonPath)
	if err != nil {
		slog.Warn("read report json", "path", jsonPath, "error", err)
		return
	}
	chunksBytes, err := os.ReadFile(chunksPath)
	if err != nil {
		slog.Warn("read chunks", "path", chunksPath, "error", err)
		return
	}

	if _, err := w.Job.Run(ctx, Pair{Source: jsonPath, ReportJSON: reportJSON, ChunksBytes: chunksBytes}); err != nil {
		slog.Error("ingest pair failed", "id", id, "error", err)
	}
}

// splitPairName returns the shared <id> and the recognized extension
// (".json" or ".chunks") for an inbox file path, or ("", "") if name
// doesn't match either suffix.
func splitPairName(name string) (id, ext string) {
	base := filepath.Base(name)
	switch {
	case strings.HasSuffix(base, ".json"):
		return strings.TrimSuffix(base, ".json"), ".json"
	case strings.HasSuffix(base, ".chunks"):
		return strings.TrimSuffix(base, ".chunks"), ".chunks"
	default:
		return "", ""
	}
}

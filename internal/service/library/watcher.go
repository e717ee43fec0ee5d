package library

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sandevgo/medichat/pkg/log"
)

const defaultDebounce = 500 * time.Millisecond

type ingester interface {
	IngestFile(ctx context.Context, path string) (Document, error)
}

// Watcher ingests supported files that appear in a directory. Files already
// present when it starts are ingested once. The library only appends, so a
// path that has been indexed is never ingested again; edits to it are logged
// and ignored until the next start.
type Watcher struct {
	dir      string
	lib      ingester
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
	indexed map[string]struct{}
	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
}

func NewWatcher(dir string, lib ingester) *Watcher {
	return &Watcher{
		dir:      dir,
		lib:      lib,
		debounce: defaultDebounce,
		pending:  make(map[string]*time.Timer),
		indexed:  make(map[string]struct{}),
		done:     make(chan struct{}),
	}
}

func (w *Watcher) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx).With().Str("dir", w.dir).Logger()

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create watch dir: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(w.dir); err != nil {
		_ = fw.Close()
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	w.mu.Lock()
	w.watcher = fw
	w.mu.Unlock()

	w.ingestExisting(ctx)
	logger.Info().Msg("watching for documents")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.done:
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if path, ok := w.accept(event); ok {
				w.schedule(ctx, path)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Error().Err(err).Msg("watcher error")
		}
	}
}

func (w *Watcher) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	select {
	case <-w.done:
	default:
		close(w.done)
	}
	for path, t := range w.pending {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
	fw := w.watcher
	w.mu.Unlock()

	w.wg.Wait()
	if fw != nil {
		return fw.Close()
	}
	return nil
}

func (w *Watcher) ingestExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("failed to list watch dir")
		return
	}
	for _, e := range entries {
		if e.IsDir() || !supported(e.Name()) {
			continue
		}
		w.ingest(ctx, filepath.Join(w.dir, e.Name()))
	}
}

// accept filters events down to creations and writes of visible supported files.
func (w *Watcher) accept(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	if !supported(event.Name) {
		return "", false
	}
	info, err := os.Stat(event.Name)
	if err != nil || info.IsDir() {
		return "", false
	}
	return event.Name, true
}

// schedule coalesces the burst of write events a copy produces into one ingest.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok && t.Stop() {
		w.wg.Done()
	}
	w.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()
		w.mu.Lock()
		if w.pending[path] == t {
			delete(w.pending, path)
		}
		w.mu.Unlock()
		w.ingest(ctx, path)
	})
	w.pending[path] = t
}

// claim marks path as indexed. It reports false when the path already is.
func (w *Watcher) claim(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.indexed[path]; ok {
		return false
	}
	w.indexed[path] = struct{}{}
	return true
}

func (w *Watcher) release(path string) {
	w.mu.Lock()
	delete(w.indexed, path)
	w.mu.Unlock()
}

func (w *Watcher) ingest(ctx context.Context, path string) {
	path = filepath.Clean(path)
	if !w.claim(path) {
		log.FromCtx(ctx).Warn().Str("file", path).Msg("document already indexed, restart to re-index it")
		return
	}

	doc, err := w.lib.IngestFile(ctx, path)
	if err != nil {
		// a failed file may be retried by a later write
		w.release(path)
		if errors.Is(err, ErrEmptyDocument) || errors.Is(err, ErrUnsupportedFile) || errors.Is(err, ErrFileTooLarge) {
			log.FromCtx(ctx).Warn().Err(err).Str("file", path).Msg("skipping document")
			return
		}
		log.FromCtx(ctx).Error().Err(err).Str("file", path).Msg("failed to ingest document")
		return
	}
	log.FromCtx(ctx).Info().Str("file", path).Int("chunks", doc.Chunks).Msg("auto-ingested document")
}

func supported(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	_, err := DetectType(base)
	return err == nil
}

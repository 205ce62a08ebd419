package traces

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gotrs-io/pwharness/internal/logging"
	"github.com/gotrs-io/pwharness/session"
	"go.uber.org/zap"
)

// DefaultQuiet is how long a trace must go unwritten before the watcher reports it.
const DefaultQuiet = 500 * time.Millisecond

// Watcher reports traces as they are saved under a root directory.
type Watcher struct {
	root    string
	quiet   time.Duration
	log     *zap.Logger
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]time.Time
}

// NewWatcher watches root and every directory below it. root is created if
// it does not exist yet.
func NewWatcher(root string, quiet time.Duration, log *zap.Logger) (*Watcher, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	w := &Watcher{
		root:    root,
		quiet:   quiet,
		log:     logging.OrNop(log).Named("traces"),
		watcher: fw,
		pending: make(map[string]time.Time),
	}
	if err := w.addTree(root); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	})
}

// Run calls fn for every trace written under the root until ctx is done. A
// trace is reported once it has been quiet for the configured period, so
// archives still being written are not reported half done.
func (w *Watcher) Run(ctx context.Context, fn func(Trace)) error {
	defer w.watcher.Close()
	tick := time.NewTicker(w.quiet / 2)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("trace watcher error", zap.Error(err))
		case now := <-tick.C:
			w.flush(now, fn)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}
	info, err := os.Stat(ev.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		// Directories for a new package or class appear with the trace in them.
		if err := w.addTree(ev.Name); err != nil {
			w.log.Warn("could not watch directory", zap.String("dir", ev.Name), zap.Error(err))
		}
		_ = filepath.WalkDir(ev.Name, func(path string, d fs.DirEntry, err error) error {
			if err == nil && !d.IsDir() && filepath.Ext(path) == session.TraceExt {
				w.touch(path)
			}
			return nil
		})
		return
	}
	if filepath.Ext(ev.Name) == session.TraceExt {
		w.touch(ev.Name)
	}
}

func (w *Watcher) touch(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = time.Now()
}

func (w *Watcher) flush(now time.Time, fn func(Trace)) {
	w.mu.Lock()
	var ready []string
	for path, seen := range w.pending {
		if now.Sub(seen) >= w.quiet {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range ready {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		fn(parse(w.root, path, info))
	}
}

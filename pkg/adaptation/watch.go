package adaptation

import (
	"context"
	"path/filepath"
	"time"

	"github.com/Luminous-Dynamics/adaptive-engine/pkg/utils/logging"
	"github.com/fsnotify/fsnotify"
	"github.com/m-mizutani/goerr/v2"
)

const defaultDebounce = 300 * time.Millisecond

// Watcher reloads a RegoRule whenever a .rego file in its directory changes
type Watcher struct {
	rule     *RegoRule
	debounce time.Duration
	reloaded chan struct{}
}

// WatcherOption configures Watcher
type WatcherOption func(*Watcher)

// WithDebounce sets how long the watcher waits for writes to settle
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithReloadNotify makes the watcher send on ch after every reload attempt.
// Sends never block.
func WithReloadNotify(ch chan struct{}) WatcherOption {
	return func(w *Watcher) {
		w.reloaded = ch
	}
}

func NewWatcher(rule *RegoRule, opts ...WatcherOption) *Watcher {
	w := &Watcher{rule: rule, debounce: defaultDebounce}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run blocks until ctx is cancelled. A policy that fails to compile is
// logged and the previous policy stays active.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return goerr.Wrap(err, "failed to create policy watcher")
	}
	defer fw.Close()

	if err := fw.Add(w.rule.Dir()); err != nil {
		return goerr.Wrap(err, "failed to watch policy directory", goerr.V("dir", w.rule.Dir()))
	}

	logger := logging.From(ctx)
	logger.Info("watching adaptation policies", "dir", w.rule.Dir())

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !isPolicyEvent(event) {
				continue
			}
			logger.Debug("policy change detected", "file", event.Name, "op", event.Op.String())
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("policy watcher error", "error", err)

		case <-timer.C:
			if err := w.rule.Reload(ctx); err != nil {
				logger.Error("failed to reload adaptation policy", "error", err)
			} else {
				logger.Info("adaptation policy reloaded", "dir", w.rule.Dir())
			}
			w.notify()
		}
	}
}

func (w *Watcher) notify() {
	if w.reloaded == nil {
		return
	}
	select {
	case w.reloaded <- struct{}{}:
	default:
	}
}

func isPolicyEvent(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	return filepath.Ext(event.Name) == ".rego"
}

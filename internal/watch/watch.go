// Package watch regenerates documentation when input files change or on a
// fixed interval. Runs never overlap: triggers that arrive during a run
// are coalesced into one follow-up run.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/adocs/internal/logfields"
)

// Reasons passed to the run function.
const (
	ReasonStartup  = "startup"
	ReasonChange   = "change"
	ReasonInterval = "interval"
)

// RunFunc performs one regeneration.
type RunFunc func(ctx context.Context, reason string) error

// Watcher triggers RunFunc.
type Watcher struct {
	Files    []string      // watched input files, usually the descriptor and the config
	Debounce time.Duration // quiet period after the last change
	Interval time.Duration // periodic runs, disabled when zero
	Run      RunFunc
	Logger   *slog.Logger

	pending chan string
	mu      sync.Mutex
	timer   *time.Timer
}

// DefaultDebounce is used when Debounce is zero.
const DefaultDebounce = 2 * time.Second

// Start runs once, then watches until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	if w.Run == nil {
		return errors.New("watch: run function is required")
	}
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w.pending = make(chan string, 1)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()

	watched := map[string]bool{}
	dirs := map[string]bool{}
	for _, f := range w.Files {
		abs, aerr := filepath.Abs(f)
		if aerr != nil {
			return fmt.Errorf("failed to resolve %s: %w", f, aerr)
		}
		watched[abs] = true
		// Watching the directory survives editors that replace files on save.
		dir := filepath.Dir(abs)
		if !dirs[dir] {
			if err := fw.Add(dir); err != nil {
				return fmt.Errorf("failed to watch directory %s: %w", dir, err)
			}
			dirs[dir] = true
		}
	}

	if w.Interval > 0 {
		sched, err := gocron.NewScheduler()
		if err != nil {
			return fmt.Errorf("failed to create gocron scheduler: %w", err)
		}
		if _, err := sched.NewJob(
			gocron.DurationJob(w.Interval),
			gocron.NewTask(func() { w.trigger(ReasonInterval) }),
			gocron.WithName("adocs-regenerate"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		); err != nil {
			return fmt.Errorf("failed to create periodic job: %w", err)
		}
		sched.Start()
		defer func() { _ = sched.Shutdown() }()
		logger.Info("Scheduled periodic regeneration", "interval", w.Interval.String())
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.runLoop(ctx, logger)
	}()
	w.trigger(ReasonStartup)

	logger.Info("Watching for changes", logfields.Count(len(watched)))
	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			<-done
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				<-done
				return nil
			}
			abs, _ := filepath.Abs(ev.Name)
			if !watched[abs] || !anyOp(ev.Op) {
				continue
			}
			logger.Debug("Input change detected", logfields.Path(ev.Name), "op", ev.Op.String())
			w.debounce(debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				<-done
				return nil
			}
			logger.Error("File watcher error", logfields.Error(err))
		}
	}
}

func anyOp(op fsnotify.Op) bool {
	return op.Has(fsnotify.Write) || op.Has(fsnotify.Create) || op.Has(fsnotify.Rename)
}

func (w *Watcher) debounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(d, func() { w.trigger(ReasonChange) })
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

// trigger queues a run unless one is already pending.
func (w *Watcher) trigger(reason string) {
	select {
	case w.pending <- reason:
	default:
	}
}

func (w *Watcher) runLoop(ctx context.Context, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case reason := <-w.pending:
			start := time.Now()
			err := w.Run(ctx, reason)
			if err != nil {
				logger.Error("Regeneration failed", "reason", reason, logfields.Duration(time.Since(start)), logfields.Error(err))
				continue
			}
			logger.Info("Regeneration finished", "reason", reason, logfields.Duration(time.Since(start)))
		}
	}
}

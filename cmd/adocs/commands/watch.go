package commands

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/adocs/internal/config"
	"git.home.luguber.info/inful/adocs/internal/logfields"
	"git.home.luguber.info/inful/adocs/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	SourceFlags
	Out string `short:"o" help:"Output directory, overrides output.directory"`
}

func (w *WatchCmd) Run(global *Global, root *CLI) error {
	cfg := root.Cfg()
	w.apply(cfg)
	logger := global.Logger
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rt, err := newRuntime(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	files := []string{root.Config}
	if w.Descriptor != "" {
		files = append(files, w.Descriptor)
	}
	watcher := &watch.Watcher{
		Files:    files,
		Debounce: cfg.Watch.DebounceDuration(),
		Interval: cfg.Watch.IntervalDuration(),
		Logger:   logger,
		Run: func(ctx context.Context, reason string) error {
			logger.Info("Regenerating", "reason", reason)
			if reason == watch.ReasonChange {
				fresh, err := root.loadConfig()
				if err != nil {
					logger.Warn("Keeping previous configuration", logfields.Error(err))
				} else {
					w.apply(fresh)
					cfg = fresh
					rt.controller.Config = fresh
				}
			}
			desc, cleanup, err := w.Resolve(ctx, cfg)
			defer cleanup()
			if err != nil {
				return err
			}
			res, err := rt.controller.Run(ctx, desc)
			rt.flushMetrics(cfg, logger)
			printResult(res)
			return err
		},
	}
	if err := watcher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (w *WatchCmd) apply(cfg *config.Config) {
	if w.Out != "" {
		cfg.Output.Directory = w.Out
	}
}

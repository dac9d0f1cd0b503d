package commands

import (
	"context"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/adocs/internal/config"
	"git.home.luguber.info/inful/adocs/internal/pipeline"
)

// GenerateCmd implements the 'generate' command.
type GenerateCmd struct {
	SourceFlags
	Out   string `short:"o" help:"Output directory, overrides output.directory"`
	Clean bool   `help:"Remove documents of the previous run that are no longer generated"`
}

func (g *GenerateCmd) Run(global *Global, root *CLI) error {
	cfg := root.Cfg()
	g.apply(cfg)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	res, err := RunGenerate(ctx, cfg, g.SourceFlags, global)
	printResult(res)
	if err != nil {
		return err
	}
	return outcomeError(res)
}

func (g *GenerateCmd) apply(cfg *config.Config) {
	if g.Out != "" {
		cfg.Output.Directory = g.Out
	}
	if g.Clean {
		cfg.Output.Clean = true
	}
}

// RunGenerate performs a single regeneration.
func RunGenerate(ctx context.Context, cfg *config.Config, src SourceFlags, global *Global) (*pipeline.Result, error) {
	logger := global.Logger
	desc, cleanup, err := src.Resolve(ctx, cfg)
	defer cleanup()
	if err != nil {
		return nil, err
	}
	rt, err := newRuntime(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rt.Close() }()
	res, err := rt.controller.Run(ctx, desc)
	rt.flushMetrics(cfg, logger)
	return res, err
}

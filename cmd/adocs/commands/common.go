// Package commands implements the adocs command line.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/adocs/internal/authoring"
	"git.home.luguber.info/inful/adocs/internal/config"
	foundation "git.home.luguber.info/inful/adocs/internal/foundation/errors"
	"git.home.luguber.info/inful/adocs/internal/git"
	"git.home.luguber.info/inful/adocs/internal/history"
	"git.home.luguber.info/inful/adocs/internal/logfields"
	"git.home.luguber.info/inful/adocs/internal/metrics"
	"git.home.luguber.info/inful/adocs/internal/pipeline"
	"git.home.luguber.info/inful/adocs/internal/publish"
	"git.home.luguber.info/inful/adocs/internal/repometa"
)

// DefaultConfigPath is used when --config is not given.
const DefaultConfigPath = "adocs.yaml"

// Global is shared state bound into every command.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"adocs.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Generate GenerateCmd `cmd:"" help:"Generate the documentation set for a repository"`
	Plan     PlanCmd     `cmd:"" help:"Print the planned structure without generating content"`
	Init     InitCmd     `cmd:"" help:"Initialize a new configuration file"`
	Watch    WatchCmd    `cmd:"" help:"Regenerate when the descriptor or configuration changes"`
	History  HistoryCmd  `cmd:"" help:"List previous runs"`

	cfg *config.Config
}

// AfterApply runs after flag parsing; it loads the configuration and sets
// up logging once.
func (c *CLI) AfterApply(g *Global) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	c.cfg = cfg
	logger := cfg.Monitoring.Logging.NewLogger(os.Stderr, c.Verbose)
	slog.SetDefault(logger)
	g.Logger = logger
	return nil
}

// loadConfig reads the configured file. A missing file at the default path
// yields the defaults so adocs works without any setup.
func (c *CLI) loadConfig() (*config.Config, error) {
	if _, err := os.Stat(c.Config); errors.Is(err, os.ErrNotExist) && c.Config == DefaultConfigPath {
		return config.Default(), nil
	}
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, foundation.WrapError(err, foundation.CategoryConfig, "load configuration").
			WithContext("path", c.Config).
			Build()
	}
	return cfg, nil
}

// Cfg returns the loaded configuration.
func (c *CLI) Cfg() *config.Config {
	if c.cfg == nil {
		c.cfg = config.Default()
	}
	return c.cfg
}

// SourceFlags select the repository to document.
type SourceFlags struct {
	Repo       string `short:"r" help:"Repository URL or local directory"`
	Descriptor string `short:"d" help:"Repository descriptor file (YAML or JSON)" type:"path"`
}

// Resolve loads the descriptor or derives one from the repository. The
// cleanup removes temporary clones.
func (s SourceFlags) Resolve(ctx context.Context, cfg *config.Config) (repometa.Descriptor, func(), error) {
	noop := func() {}
	if s.Descriptor != "" {
		desc, err := repometa.LoadDescriptor(s.Descriptor)
		if err != nil {
			return desc, noop, foundation.WrapError(err, foundation.CategoryValidation, "invalid descriptor").
				WithContext("path", s.Descriptor).
				Build()
		}
		if desc.SourceURL == "" {
			desc.SourceURL = s.Repo
		}
		if desc.SourceURL == "" {
			return desc, noop, foundation.ValidationError("descriptor has no source_url and --repo is not set").Build()
		}
		return desc, noop, nil
	}
	if s.Repo == "" {
		return repometa.Descriptor{}, noop, foundation.ValidationError("either --repo or --descriptor is required").Build()
	}
	src, cleanup, err := git.NewClient(cfg.Source).Fetch(ctx, s.Repo)
	if err != nil {
		return repometa.Descriptor{}, cleanup, err
	}
	return src.Descriptor, cleanup, nil
}

// runtime holds the collaborators built from configuration.
type runtime struct {
	controller *pipeline.Controller
	prom       *metrics.PrometheusRecorder
	closers    []func() error
}

// newRuntime wires the controller. The same runtime serves every run of a
// watch session so the content cache survives between runs.
func newRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*runtime, error) {
	rt := &runtime{}
	author, err := newAuthor(ctx, cfg)
	if err != nil {
		return nil, err
	}
	ctrl := &pipeline.Controller{Config: cfg, Author: author, Logger: logger}

	if cfg.Monitoring.Metrics.Enabled {
		rt.prom = metrics.NewPrometheusRecorder(prometheus.NewRegistry())
		ctrl.Recorder = rt.prom
	}
	if cfg.History.Enabled {
		store, err := history.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			return nil, foundation.WrapError(err, foundation.CategoryHistory, "open history store").
				WithContext("path", cfg.History.Path).
				Build()
		}
		ctrl.History = store
		rt.closers = append(rt.closers, store.Close)
	}
	if cfg.Publish != nil {
		pub, err := publish.NewS3Publisher(cfg.Publish)
		if err != nil {
			_ = rt.Close()
			return nil, foundation.WrapError(err, foundation.CategoryPublish, "configure publisher").Build()
		}
		ctrl.Publisher = pub
	}
	if cfg.Events != nil {
		n, err := publish.NewNATSNotifier(cfg.Events)
		if err != nil {
			// Events are best effort; a missing broker never blocks generation.
			logger.Warn("Run events disabled", logfields.Error(err))
		} else {
			ctrl.Notifier = n
			rt.closers = append(rt.closers, n.Close)
		}
	}
	rt.controller = ctrl
	return rt, nil
}

// Close releases stores and connections.
func (rt *runtime) Close() error {
	var errs []error
	for _, c := range rt.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// flushMetrics writes the textfile when metrics are enabled.
func (rt *runtime) flushMetrics(cfg *config.Config, logger *slog.Logger) {
	if rt.prom == nil || cfg.Monitoring.Metrics.TextfilePath == "" {
		return
	}
	if err := rt.prom.WriteTextfile(cfg.Monitoring.Metrics.TextfilePath); err != nil {
		logger.Warn("Failed to write metrics", logfields.Path(cfg.Monitoring.Metrics.TextfilePath), logfields.Error(err))
	}
}

// newAuthor builds the configured author with its middlewares.
func newAuthor(ctx context.Context, cfg *config.Config) (authoring.Author, error) {
	var inner authoring.Author
	switch cfg.Author.Provider {
	case config.AuthorGemini:
		g, err := authoring.NewGeminiAuthor(ctx, authoring.GeminiConfig{
			APIKey:          cfg.Author.APIKey,
			Model:           cfg.Author.Model,
			Temperature:     cfg.Author.Temperature,
			MaxOutputTokens: cfg.Author.MaxOutputTokens,
		})
		if err != nil {
			return nil, foundation.WrapError(err, foundation.CategoryAuthoring, "configure gemini author").Build()
		}
		inner = g
	default:
		inner = authoring.NewStaticAuthor()
	}
	// Cache hits must not consume rate limit tokens.
	return authoring.Wrap(inner,
		authoring.Cache(cfg.Generation.CacheSize),
		authoring.RateLimit(cfg.Generation.RateLimitRPS, cfg.Generation.RateLimitBurst),
	), nil
}

// outcomeError turns a canceled run into an error so the exit code reflects it.
func outcomeError(res *pipeline.Result) error {
	if res != nil && res.Outcome == pipeline.OutcomeCanceled {
		return foundation.NewError(foundation.CategoryCanceled, "run canceled, remaining content stubbed").
			WithContext("run_id", res.RunID).
			Build()
	}
	return nil
}

func printResult(res *pipeline.Result) {
	if res == nil || res.Report == nil {
		return
	}
	fmt.Println(res.Report.Summary())
	fmt.Printf("Output written to %s\n", res.OutputDir)
}

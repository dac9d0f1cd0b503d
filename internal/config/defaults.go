package config

import "fmt"

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// ApplyDefaults runs every domain applier in order.
func ApplyDefaults(cfg *Config) error {
	for _, a := range defaultAppliers() {
		if err := a.ApplyDefaults(cfg); err != nil {
			return fmt.Errorf("%s defaults: %w", a.Domain(), err)
		}
	}
	return nil
}

func defaultAppliers() []DefaultApplier {
	return []DefaultApplier{
		&GenerationDefaultApplier{},
		&PlannerDefaultApplier{},
		&AuthorDefaultApplier{},
		&SourceDefaultApplier{},
		&OutputDefaultApplier{},
		&HistoryDefaultApplier{},
		&MonitoringDefaultApplier{},
		&WatchDefaultApplier{},
	}
}

// GenerationDefaultApplier handles content fan-out defaults.
type GenerationDefaultApplier struct{}

func (g *GenerationDefaultApplier) Domain() string { return "generation" }

func (g *GenerationDefaultApplier) ApplyDefaults(cfg *Config) error {
	gen := &cfg.Generation
	if gen.Concurrency <= 0 {
		gen.Concurrency = 4
	}
	if gen.MaxAttempts <= 0 {
		gen.MaxAttempts = 2
	}
	if gen.RetryBackoff == "" {
		gen.RetryBackoff = RetryBackoffLinear
	}
	if gen.RetryInitialDelay == "" {
		gen.RetryInitialDelay = "500ms"
	}
	if gen.RetryMaxDelay == "" {
		gen.RetryMaxDelay = "10s"
	}
	if gen.RequestTimeout == "" {
		gen.RequestTimeout = "60s"
	}
	if gen.RateLimitRPS < 0 {
		gen.RateLimitRPS = 0
	}
	if gen.RateLimitBurst <= 0 {
		gen.RateLimitBurst = 1
	}
	if gen.CacheSize < 0 {
		gen.CacheSize = 0
	}
	return nil
}

// PlannerDefaultApplier handles structure planner defaults.
type PlannerDefaultApplier struct{}

func (p *PlannerDefaultApplier) Domain() string { return "planner" }

func (p *PlannerDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Planner.MaxDepth <= 0 {
		cfg.Planner.MaxDepth = 2
	}
	return nil
}

// AuthorDefaultApplier handles authoring collaborator defaults.
type AuthorDefaultApplier struct{}

func (a *AuthorDefaultApplier) Domain() string { return "author" }

func (a *AuthorDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Author.Provider == "" {
		cfg.Author.Provider = AuthorStatic
	}
	if cfg.Author.Provider == AuthorGemini {
		if cfg.Author.Model == "" {
			cfg.Author.Model = DefaultGeminiModel
		}
		if cfg.Author.MaxOutputTokens <= 0 {
			cfg.Author.MaxOutputTokens = 4096
		}
	}
	return nil
}

// SourceDefaultApplier handles git source defaults.
type SourceDefaultApplier struct{}

func (s *SourceDefaultApplier) Domain() string { return "source" }

func (s *SourceDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Source.Depth <= 0 {
		cfg.Source.Depth = 1
	}
	return nil
}

// OutputDefaultApplier handles output defaults.
type OutputDefaultApplier struct{}

func (o *OutputDefaultApplier) Domain() string { return "output" }

func (o *OutputDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = "./docs"
	}
	if cfg.Output.FilenameStyle == "" {
		cfg.Output.FilenameStyle = FilenameSlug
	}
	return nil
}

// HistoryDefaultApplier handles run history defaults.
type HistoryDefaultApplier struct{}

func (h *HistoryDefaultApplier) Domain() string { return "history" }

func (h *HistoryDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.History.Path == "" {
		cfg.History.Path = "./.adocs/history.db"
	}
	return nil
}

// MonitoringDefaultApplier handles logging and metrics defaults.
type MonitoringDefaultApplier struct{}

func (m *MonitoringDefaultApplier) Domain() string { return "monitoring" }

func (m *MonitoringDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Monitoring.Logging.Level == "" {
		cfg.Monitoring.Logging.Level = LogLevelInfo
	}
	if cfg.Monitoring.Logging.Format == "" {
		cfg.Monitoring.Logging.Format = LogFormatText
	}
	return nil
}

// WatchDefaultApplier handles watch command defaults.
type WatchDefaultApplier struct{}

func (w *WatchDefaultApplier) Domain() string { return "watch" }

func (w *WatchDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = "2s"
	}
	return nil
}

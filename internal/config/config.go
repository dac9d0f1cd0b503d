package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// CurrentVersion is the only configuration schema version accepted by Load.
const CurrentVersion = "1"

// Config is the ADocS configuration file.
type Config struct {
	Version    string           `yaml:"version"`
	Generation GenerationConfig `yaml:"generation"`
	Planner    PlannerConfig    `yaml:"planner"`
	Author     AuthorConfig     `yaml:"author"`
	Source     SourceConfig     `yaml:"source"`
	Output     OutputConfig     `yaml:"output"`
	History    HistoryConfig    `yaml:"history"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Watch      WatchConfig      `yaml:"watch"`
	Publish    *PublishConfig   `yaml:"publish,omitempty"`
	Events     *EventsConfig    `yaml:"events,omitempty"`
}

// GenerationConfig controls the content fan-out.
type GenerationConfig struct {
	Concurrency       int              `yaml:"concurrency"`         // parallel authoring requests
	MaxAttempts       int              `yaml:"max_attempts"`        // attempts per node including the first
	RetryBackoff      RetryBackoffMode `yaml:"retry_backoff"`       // fixed|linear|exponential
	RetryInitialDelay string           `yaml:"retry_initial_delay"` // e.g. "500ms"
	RetryMaxDelay     string           `yaml:"retry_max_delay"`
	RequestTimeout    string           `yaml:"request_timeout"` // per attempt
	RateLimitRPS      float64          `yaml:"rate_limit_rps"`  // 0 disables limiting
	RateLimitBurst    int              `yaml:"rate_limit_burst"`
	CacheSize         int              `yaml:"cache_size"` // LRU entries kept across watch runs, 0 disables
}

// PlannerConfig controls the structure planner.
type PlannerConfig struct {
	MaxDepth int           `yaml:"max_depth"`
	Topics   []TopicConfig `yaml:"topics,omitempty"` // used when the descriptor has no topic hints
}

// TopicConfig is a configured section with optional subsections.
type TopicConfig struct {
	Title     string        `yaml:"title"`
	Subtopics []TopicConfig `yaml:"subtopics,omitempty"`
}

// AuthorConfig selects the authoring collaborator.
type AuthorConfig struct {
	Provider        AuthorProvider `yaml:"provider"` // static|gemini
	Model           string         `yaml:"model,omitempty"`
	APIKey          string         `yaml:"api_key,omitempty"`
	Temperature     float32        `yaml:"temperature,omitempty"`
	MaxOutputTokens int32          `yaml:"max_output_tokens,omitempty"`
}

// SourceConfig controls how --repo URLs are fetched when no descriptor is given.
type SourceConfig struct {
	WorkDir string `yaml:"workdir,omitempty"` // clone parent directory, temp dir when empty
	Branch  string `yaml:"branch,omitempty"`
	Depth   int    `yaml:"depth"`
	Token   string `yaml:"token,omitempty"`
}

// OutputConfig controls where and how documents are written.
type OutputConfig struct {
	Directory     string        `yaml:"directory"`
	Clean         bool          `yaml:"clean"`
	Timestamped   bool          `yaml:"timestamped"` // write each run under <directory>/<timestamp>
	FilenameStyle FilenameStyle `yaml:"filename_style"`
}

// HistoryConfig controls the run history store.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// MonitoringConfig groups logging and metrics.
type MonitoringConfig struct {
	Logging MonitoringLogging `yaml:"logging"`
	Metrics MonitoringMetrics `yaml:"metrics"`
}

// MonitoringLogging represents logging configuration.
type MonitoringLogging struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// MonitoringMetrics enables the prometheus textfile export.
type MonitoringMetrics struct {
	Enabled      bool   `yaml:"enabled"`
	TextfilePath string `yaml:"textfile_path,omitempty"`
}

// WatchConfig controls the watch command.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
	Interval string `yaml:"interval,omitempty"` // periodic regeneration, disabled when empty
}

// PublishConfig uploads the generated set to S3-compatible storage.
type PublishConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix,omitempty"`
	Region    string `yaml:"region,omitempty"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// EventsConfig publishes run events over NATS.
type EventsConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// Load reads, normalizes, defaults and validates a configuration file.
func Load(configPath string) (*Config, error) {
	if loaded := loadEnvFiles(); len(loaded) > 0 {
		fmt.Fprintf(os.Stderr, "Loaded environment variables from %v\n", loaded)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s", configPath)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse([]byte(os.ExpandEnv(string(data))))
}

// Parse decodes already-expanded YAML and runs normalization, defaults and validation.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported configuration version: %q (expected %s)", cfg.Version, CurrentVersion)
	}
	for _, w := range normalize(&cfg) {
		fmt.Fprintf(os.Stderr, "config normalization: %s\n", w)
	}
	if err := ApplyDefaults(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Default returns a fully defaulted configuration, used when no config file exists.
func Default() *Config {
	cfg := &Config{Version: CurrentVersion}
	_ = ApplyDefaults(cfg)
	return cfg
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	example := Default()
	example.Planner.Topics = []TopicConfig{
		{Title: "Architecture", Subtopics: []TopicConfig{{Title: "Components"}, {Title: "Data Flow"}}},
		{Title: "Getting Started"},
	}
	example.Monitoring.Metrics = MonitoringMetrics{Enabled: true, TextfilePath: "./docs/adocs.prom"}
	example.Events = &EventsConfig{URL: "nats://127.0.0.1:4222", Subject: "adocs.runs"}

	data, err := yaml.Marshal(example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// InitialDelay returns the parsed retry_initial_delay.
func (g GenerationConfig) InitialDelay() time.Duration { return parseDuration(g.RetryInitialDelay) }

// MaxDelay returns the parsed retry_max_delay.
func (g GenerationConfig) MaxDelay() time.Duration { return parseDuration(g.RetryMaxDelay) }

// Timeout returns the parsed request_timeout.
func (g GenerationConfig) Timeout() time.Duration { return parseDuration(g.RequestTimeout) }

// DebounceDuration returns the parsed watch debounce.
func (w WatchConfig) DebounceDuration() time.Duration { return parseDuration(w.Debounce) }

// IntervalDuration returns the parsed watch interval; zero disables periodic runs.
func (w WatchConfig) IntervalDuration() time.Duration { return parseDuration(w.Interval) }

func parseDuration(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0
	}
	return d
}

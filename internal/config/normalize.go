package config

import (
	"fmt"
	"strings"
)

// normalize case-folds enumerations and trims strings before defaults run.
// Unknown enumeration values are cleared so defaults can replace them; each
// replacement is reported as a warning.
func normalize(cfg *Config) []string {
	var warnings []string

	if raw := cfg.Generation.RetryBackoff; raw != "" {
		if cfg.Generation.RetryBackoff = NormalizeRetryBackoff(string(raw)); cfg.Generation.RetryBackoff == "" {
			warnings = append(warnings, fmt.Sprintf("unknown generation.retry_backoff %q, using default", raw))
		}
	}
	if raw := cfg.Output.FilenameStyle; raw != "" {
		if cfg.Output.FilenameStyle = NormalizeFilenameStyle(string(raw)); cfg.Output.FilenameStyle == "" {
			warnings = append(warnings, fmt.Sprintf("unknown output.filename_style %q, using default", raw))
		}
	}
	if raw := cfg.Author.Provider; raw != "" {
		if cfg.Author.Provider = NormalizeAuthorProvider(string(raw)); cfg.Author.Provider == "" {
			warnings = append(warnings, fmt.Sprintf("unknown author.provider %q, using default", raw))
		}
	}
	if raw := cfg.Monitoring.Logging.Level; raw != "" {
		cfg.Monitoring.Logging.Level = NormalizeLogLevel(string(raw))
	}
	if raw := cfg.Monitoring.Logging.Format; raw != "" {
		cfg.Monitoring.Logging.Format = NormalizeLogFormat(string(raw))
	}

	cfg.Output.Directory = strings.TrimSpace(cfg.Output.Directory)
	cfg.Author.Model = strings.TrimSpace(cfg.Author.Model)
	cfg.Planner.Topics = trimTopics(cfg.Planner.Topics)
	return warnings
}

func trimTopics(topics []TopicConfig) []TopicConfig {
	out := topics[:0]
	for _, t := range topics {
		t.Title = strings.TrimSpace(t.Title)
		if t.Title == "" {
			continue
		}
		t.Subtopics = trimTopics(t.Subtopics)
		out = append(out, t)
	}
	return out
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ValidateConfig validates a normalized and defaulted configuration.
func ValidateConfig(cfg *Config) error {
	v := &configurationValidator{config: cfg}
	for _, check := range []func() error{
		v.validateGeneration,
		v.validatePlanner,
		v.validateAuthor,
		v.validateWatch,
		v.validatePublish,
		v.validateEvents,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

type configurationValidator struct {
	config *Config
}

func (cv *configurationValidator) validateGeneration() error {
	g := cv.config.Generation
	for name, raw := range map[string]string{
		"retry_initial_delay": g.RetryInitialDelay,
		"retry_max_delay":     g.RetryMaxDelay,
		"request_timeout":     g.RequestTimeout,
	} {
		if err := validateDuration("generation."+name, raw); err != nil {
			return err
		}
	}
	if g.InitialDelay() > g.MaxDelay() {
		return fmt.Errorf("generation.retry_initial_delay (%s) exceeds retry_max_delay (%s)", g.RetryInitialDelay, g.RetryMaxDelay)
	}
	if g.Concurrency > 64 {
		return fmt.Errorf("generation.concurrency must be <= 64, got %d", g.Concurrency)
	}
	return nil
}

func (cv *configurationValidator) validatePlanner() error {
	if cv.config.Planner.MaxDepth > 2 {
		return fmt.Errorf("planner.max_depth must be 1 or 2, got %d", cv.config.Planner.MaxDepth)
	}
	return nil
}

func (cv *configurationValidator) validateAuthor() error {
	if cv.config.Author.Provider == AuthorGemini && strings.TrimSpace(cv.config.Author.APIKey) == "" {
		return errors.New("author.api_key is required for the gemini provider")
	}
	return nil
}

func (cv *configurationValidator) validateWatch() error {
	if err := validateDuration("watch.debounce", cv.config.Watch.Debounce); err != nil {
		return err
	}
	if cv.config.Watch.Interval == "" {
		return nil
	}
	if err := validateDuration("watch.interval", cv.config.Watch.Interval); err != nil {
		return err
	}
	if cv.config.Watch.IntervalDuration() < time.Minute {
		return fmt.Errorf("watch.interval must be at least 1m, got %s", cv.config.Watch.Interval)
	}
	return nil
}

func (cv *configurationValidator) validatePublish() error {
	p := cv.config.Publish
	if p == nil {
		return nil
	}
	if p.Endpoint == "" || p.Bucket == "" {
		return errors.New("publish.endpoint and publish.bucket are required when publish is configured")
	}
	return nil
}

func (cv *configurationValidator) validateEvents() error {
	e := cv.config.Events
	if e == nil {
		return nil
	}
	if e.URL == "" || e.Subject == "" {
		return errors.New("events.url and events.subject are required when events are configured")
	}
	return nil
}

func validateDuration(field, raw string) error {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q: %w", field, raw, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s must be positive, got %s", field, raw)
	}
	return nil
}

package config

import (
	"fmt"
	"strings"
)

// Validate checks the config for:
//   - Required fields
//   - Non-positive dispatcher sizes
//   - Unknown enum values (log level/format, dispatch policy)
//   - Unloadable scoring timezone
func Validate(cfg *Config) error {
	if cfg.Version == "" {
		return fmt.Errorf("config: version is required")
	}
	var errs []string

	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level: unknown level %q", cfg.Log.Level))
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format: unknown format %q", cfg.Log.Format))
	}

	d := cfg.Dispatcher
	if d.Threshold < 1 {
		errs = append(errs, fmt.Sprintf("dispatcher.threshold: must be >= 1, got %d", d.Threshold))
	}
	if d.Workers < 1 {
		errs = append(errs, fmt.Sprintf("dispatcher.workers: must be >= 1, got %d", d.Workers))
	}
	if d.QueueDepth < 1 {
		errs = append(errs, fmt.Sprintf("dispatcher.queue_depth: must be >= 1, got %d", d.QueueDepth))
	}
	switch d.Policy {
	case PolicyConcurrent, PolicySingleFlight:
	default:
		errs = append(errs, fmt.Sprintf("dispatcher.policy: must be %q or %q, got %q", PolicyConcurrent, PolicySingleFlight, d.Policy))
	}

	if _, err := cfg.Scoring.Location(); err != nil {
		errs = append(errs, err.Error())
	}

	r := cfg.Repository
	if r.SnapshotEvery < 1 {
		errs = append(errs, fmt.Sprintf("repository.snapshot_every: must be >= 1, got %d", r.SnapshotEvery))
	}
	if r.MaxSnapshots < 1 {
		errs = append(errs, fmt.Sprintf("repository.max_snapshots: must be >= 1, got %d", r.MaxSnapshots))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

package config

import (
	"fmt"
	"time"
)

// Config is the top-level YAML structure.
type Config struct {
	Version    string         `yaml:"version" json:"version"`
	Log        LogConf        `yaml:"log" json:"log"`
	Dispatcher DispatcherConf `yaml:"dispatcher" json:"dispatcher"`
	Scoring    ScoringConf    `yaml:"scoring" json:"scoring"`
	Repository RepositoryConf `yaml:"repository" json:"repository"`
}

// LogConf selects the slog handler.
type LogConf struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // text, json
}

// Policy decides what happens to a batch submitted while another is analyzing.
type Policy string

const (
	// PolicyConcurrent runs overlapping batches independently; each one
	// signals its own completion.
	PolicyConcurrent Policy = "concurrent"
	// PolicySingleFlight runs one batch at a time and queues the rest in
	// submission order.
	PolicySingleFlight Policy = "single_flight"
)

// DispatcherConf holds tunable settings for the background analyzer.
type DispatcherConf struct {
	Threshold  int    `yaml:"threshold" json:"threshold"`
	Workers    int    `yaml:"workers" json:"workers"`
	QueueDepth int    `yaml:"queue_depth" json:"queue_depth"`
	Policy     Policy `yaml:"policy" json:"policy"`
}

// PoolSize returns the number of workers implied by the policy.
func (d DispatcherConf) PoolSize() int {
	if d.Policy == PolicySingleFlight {
		return 1
	}
	return d.Workers
}

// ScoringConf holds settings shared by the scorers and report builders.
type ScoringConf struct {
	// Timezone is an IANA name, "Local" or "UTC". Hours and calendar dates
	// are read in this zone.
	Timezone string `yaml:"timezone" json:"timezone"`
}

// Location resolves Timezone.
func (s ScoringConf) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("scoring timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}

// RepositoryConf controls audit checkpoints of the transaction repository.
type RepositoryConf struct {
	SnapshotEvery int `yaml:"snapshot_every" json:"snapshot_every"` // appended transactions between checkpoints
	MaxSnapshots  int `yaml:"max_snapshots" json:"max_snapshots"`   // oldest checkpoints are dropped beyond this
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{Version: "v1"}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Dispatcher.Threshold == 0 {
		cfg.Dispatcher.Threshold = 1000
	}
	if cfg.Dispatcher.Workers == 0 {
		cfg.Dispatcher.Workers = 4
	}
	if cfg.Dispatcher.QueueDepth == 0 {
		cfg.Dispatcher.QueueDepth = 64
	}
	if cfg.Dispatcher.Policy == "" {
		cfg.Dispatcher.Policy = PolicyConcurrent
	}
	if cfg.Scoring.Timezone == "" {
		cfg.Scoring.Timezone = "Local"
	}
	if cfg.Repository.SnapshotEvery == 0 {
		cfg.Repository.SnapshotEvery = 1000
	}
	if cfg.Repository.MaxSnapshots == 0 {
		cfg.Repository.MaxSnapshots = 16
	}
}

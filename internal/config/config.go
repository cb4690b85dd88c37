// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Excalibur Contributors

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	xerr "github.com/excalibur-srs/excalibur/pkg/errors"
)

// Config is the top-level Excalibur configuration.
type Config struct {
	// DataDir holds the scheduling database and, by default, the deck
	// manifest. Empty resolves to ~/.local/share/excalibur at load time.
	DataDir   string          `mapstructure:"data_dir"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Deck      DeckConfig      `mapstructure:"deck"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Queue     QueueConfig     `mapstructure:"queue"`
}

// StorageConfig selects the scheduling store backend.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
}

// DeckConfig locates the card listing.
type DeckConfig struct {
	// Manifest is the path to the cards.yaml listing. Empty resolves to
	// <data_dir>/cards.yaml.
	Manifest string `mapstructure:"manifest"`
}

// SchedulerConfig holds the memory-model knobs.
type SchedulerConfig struct {
	TargetRetention     float64 `mapstructure:"target_retention"`
	GraduationStability float64 `mapstructure:"graduation_stability"`
	MaximumIntervalDays int     `mapstructure:"maximum_interval_days"`
	FuzzEnabled         bool    `mapstructure:"fuzz_enabled"`
}

// QueueConfig controls due-queue assembly.
type QueueConfig struct {
	// DuePerNew is how many due cards are shown between two new cards.
	DuePerNew int `mapstructure:"due_per_new"`
	// MaxSize truncates the queue; 0 means unlimited.
	MaxSize int `mapstructure:"max_size"`
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix EXCALIBUR_).
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("scheduler.target_retention", 0.9)
	v.SetDefault("scheduler.graduation_stability", 2.0)
	v.SetDefault("scheduler.maximum_interval_days", 36500)
	v.SetDefault("scheduler.fuzz_enabled", true)
	v.SetDefault("queue.due_per_new", 3)
	v.SetDefault("queue.max_size", 0)

	// Environment
	v.SetEnvPrefix("EXCALIBUR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// File
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, xerr.Errorf(xerr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, xerr.Errorf(xerr.CodeConfigValidateInvalidValue, "unmarshalling config: %w", err)
	}

	if cfg.DataDir == "" {
		dir, err := defaultDataDir()
		if err != nil {
			return nil, err
		}
		cfg.DataDir = dir
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, xerr.Errorf(xerr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// ManifestPath is the effective deck manifest location: deck.manifest when
// set, else cards.yaml inside the data directory. Resolved lazily so a
// data-dir override picks up the derived path too.
func (c *Config) ManifestPath() string {
	if c.Deck.Manifest != "" {
		return c.Deck.Manifest
	}
	return filepath.Join(c.DataDir, "cards.yaml")
}

func defaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", xerr.Errorf(xerr.CodeConfigLoadReadFailure, "resolving home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "excalibur"), nil
}

// Validate checks the configuration for logical errors.
// It returns a slice of all validation errors found, collecting all issues
// rather than stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateStorage()...)
	errs = append(errs, c.validateScheduler()...)
	errs = append(errs, c.validateQueue()...)

	return errs
}

func (c *Config) validateStorage() []error {
	var errs []error

	validBackends := map[string]bool{"sqlite": true, "memory": true}
	if !validBackends[c.Storage.Backend] {
		errs = append(errs, xerr.Errorf(xerr.CodeConfigValidateInvalidValue,
			"config: storage.backend must be one of [sqlite, memory], got %q",
			c.Storage.Backend,
		))
	}

	return errs
}

func (c *Config) validateScheduler() []error {
	var errs []error

	if r := c.Scheduler.TargetRetention; r <= 0 || r >= 1 {
		errs = append(errs, xerr.Errorf(xerr.CodeConfigValidateInvalidValue,
			"config: scheduler.target_retention must be strictly between 0 and 1, got %g",
			r,
		))
	}

	if c.Scheduler.GraduationStability <= 0 {
		errs = append(errs, xerr.Errorf(xerr.CodeConfigValidateInvalidValue,
			"config: scheduler.graduation_stability must be greater than 0, got %g",
			c.Scheduler.GraduationStability,
		))
	}

	if c.Scheduler.MaximumIntervalDays < 1 {
		errs = append(errs, xerr.Errorf(xerr.CodeConfigValidateInvalidValue,
			"config: scheduler.maximum_interval_days must be at least 1, got %d",
			c.Scheduler.MaximumIntervalDays,
		))
	}

	return errs
}

func (c *Config) validateQueue() []error {
	var errs []error

	if c.Queue.DuePerNew < 1 {
		errs = append(errs, xerr.Errorf(xerr.CodeConfigValidateInvalidValue,
			"config: queue.due_per_new must be at least 1, got %d",
			c.Queue.DuePerNew,
		))
	}

	if c.Queue.MaxSize < 0 {
		errs = append(errs, xerr.Errorf(xerr.CodeConfigValidateInvalidValue,
			"config: queue.max_size must not be negative, got %d",
			c.Queue.MaxSize,
		))
	}

	return errs
}

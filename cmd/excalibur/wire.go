// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Excalibur Contributors

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/excalibur-srs/excalibur/internal/config"
	"github.com/excalibur-srs/excalibur/internal/deck"
	"github.com/excalibur-srs/excalibur/internal/queue"
	"github.com/excalibur-srs/excalibur/internal/review"
	"github.com/excalibur-srs/excalibur/internal/scheduler"
	"github.com/excalibur-srs/excalibur/internal/store"
	_ "github.com/excalibur-srs/excalibur/internal/store/sqlite" // register sqlite backend
	xerr "github.com/excalibur-srs/excalibur/pkg/errors"
)

// App holds all wired subsystems and manages their lifecycle.
type App struct {
	Config  *config.Config
	Store   store.SchedulingStore
	Service *review.Service
}

// WireApp creates the scheduling store, the deck source and the memory
// model from the configuration and bundles them behind a review.Service.
func WireApp(cfg *config.Config) (*App, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, xerr.Errorf(xerr.CodeCLISetupFailure, "creating data directory: %w", err)
	}

	storeCfg := &store.StorageConfig{Backend: cfg.Storage.Backend}
	ss, err := store.New(storeCfg, cfg.DataDir)
	if err != nil {
		return nil, xerr.Wrapf(err, xerr.CodeCLISetupFailure, "creating scheduling store")
	}

	sched, err := scheduler.New(scheduler.Params{
		TargetRetention:     cfg.Scheduler.TargetRetention,
		GraduationStability: cfg.Scheduler.GraduationStability,
		MaxIntervalDays:     cfg.Scheduler.MaximumIntervalDays,
		FuzzEnabled:         cfg.Scheduler.FuzzEnabled,
		Weights:             scheduler.DefaultWeights(),
	})
	if err != nil {
		_ = ss.Close()
		return nil, xerr.Wrapf(err, xerr.CodeCLISetupFailure, "configuring scheduler")
	}

	src := deck.NewManifestSource(cfg.ManifestPath())
	svc := review.NewService(ss, sched, src, queue.WithDuePerNew(cfg.Queue.DuePerNew))

	return &App{Config: cfg, Store: ss, Service: svc}, nil
}

// Close releases the store and its writer lock.
func (a *App) Close() error {
	return a.Store.Close()
}

// wireFromCommand is the shared command preamble: load config, wire the app.
// The caller owns the returned App and must Close it.
func wireFromCommand(cmd *cobra.Command) (*App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return WireApp(cfg)
}

// EduPredict - Student Academic Risk and Course Recommendation Pipeline
// Copyright 2026 EduPredict Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edupredict/edupredict

// Command trainer runs the full training pipeline once and exits.
//
// It fetches the academic dataset, trains the performance and
// recommendation tasks, persists versioned model artifacts and writes the
// exported parameter snapshots. Exit code 0 means both tasks finished;
// either task failing fails the process so schedulers notice.
//
// Flags:
//
//	-task string   which task to run: performance, recommendation or all (default "all")
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/edupredict/edupredict/internal/config"
	"github.com/edupredict/edupredict/internal/logging"
	"github.com/edupredict/edupredict/internal/metrics"
	"github.com/edupredict/edupredict/internal/ml"
	"github.com/edupredict/edupredict/internal/ml/mlstore"
	"github.com/edupredict/edupredict/internal/store/postgres"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "trainer:", err)
		os.Exit(1)
	}
}

func run() error {
	task := flag.String("task", "all", "task to run: performance, recommendation or all")
	flag.Parse()

	switch *task {
	case "all", ml.TaskPerformance, ml.TaskRecommendation:
	default:
		return fmt.Errorf("unknown task %q", *task)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	}).With().Str("service", "trainer").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gateway, err := postgres.NewGateway(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer gateway.Close()

	store, err := mlstore.NewStore(cfg.Artifacts.ModelDir)
	if err != nil {
		return err
	}

	trainerCfg := cfg.TrainerConfig()

	if *task == "all" || *task == ml.TaskPerformance {
		if err := runPerformance(ctx, gateway, store, trainerCfg, logger); err != nil {
			return err
		}
	}
	if *task == "all" || *task == ml.TaskRecommendation {
		if err := runRecommendation(ctx, gateway, store, trainerCfg, logger); err != nil {
			return err
		}
	}

	pruneArtifacts(ctx, store, cfg.Artifacts.KeepVersions, logger)
	return nil
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func runPerformance(ctx context.Context, provider ml.EntityProvider, store *mlstore.Store, cfg ml.TrainerConfig, logger zerolog.Logger) error {
	trainer, err := ml.NewPerformanceTrainer(provider, store, cfg, logger)
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := trainer.Run(ctx)
	if err != nil {
		metrics.ObserveTrainingRun(ml.TaskPerformance, "error", time.Since(start))
		return fmt.Errorf("performance training: %w", err)
	}
	metrics.ObserveTrainingRun(ml.TaskPerformance, "ok", time.Since(start))

	logger.Info().
		Str("run_id", result.RunID).
		Int("samples", result.Samples).
		Str("snapshot", result.SnapshotPath).
		Msg("performance training finished")
	return nil
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func runRecommendation(ctx context.Context, provider ml.EntityProvider, store *mlstore.Store, cfg ml.TrainerConfig, logger zerolog.Logger) error {
	trainer, err := ml.NewRecommendationTrainer(provider, store, cfg, logger)
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := trainer.Run(ctx)
	if err != nil {
		metrics.ObserveTrainingRun(ml.TaskRecommendation, "error", time.Since(start))
		return fmt.Errorf("recommendation training: %w", err)
	}
	metrics.ObserveTrainingRun(ml.TaskRecommendation, "ok", time.Since(start))

	logger.Info().
		Str("run_id", result.RunID).
		Int("samples", result.Samples).
		Str("snapshot", result.SnapshotPath).
		Msg("recommendation training finished")
	return nil
}

// pruneArtifacts trims old artifact versions after a successful run.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func pruneArtifacts(ctx context.Context, store *mlstore.Store, keep int, logger zerolog.Logger) {
	artifacts, err := store.List(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("artifact listing failed, skipping prune")
		return
	}
	for _, meta := range artifacts {
		if err := store.Prune(ctx, meta.Name, keep); err != nil {
			logger.Warn().Err(err).Str("artifact", meta.Name).Msg("prune failed")
		}
	}
}

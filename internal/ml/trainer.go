// EduPredict - Student Academic Risk and Course Recommendation Pipeline
// Copyright 2026 EduPredict Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edupredict/edupredict

package ml

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/edupredict/edupredict/internal/entity"
)

// RunStage tracks where a training run currently is. Stages advance
// monotonically; a run that errors stays at the stage that failed.
type RunStage string

const (
	StageFetching   RunStage = "fetching"
	StageAssembling RunStage = "assembling"
	StageSplitting  RunStage = "splitting"
	StageFitting    RunStage = "fitting"
	StageEvaluating RunStage = "evaluating"
	StageExporting  RunStage = "exporting"
	StageDone       RunStage = "done"
	StageFailed     RunStage = "failed"
)

// Training task names, used in artifact names and snapshot metadata.
const (
	TaskPerformance    = "performance"
	TaskRecommendation = "recommendation"
)

// EntityProvider fetches the full academic dataset for a training run.
// Implemented by the postgres gateway; tests supply in-memory fakes.
type EntityProvider interface {
	FetchDataset(ctx context.Context) (*entity.Dataset, error)
}

// TrainerConfig holds the knobs shared by both training pipelines.
type TrainerConfig struct {
	// TestFraction is the held-out share of the stratified split.
	TestFraction float64

	// Seed drives every random choice in a run: splits, folds,
	// bootstraps. Identical seed and data reproduce a run exactly.
	Seed int64

	// CVFolds is the cross-validation fold count.
	CVFolds int

	// MinSamples is the minimum joined row count a run accepts.
	MinSamples int

	// SnapshotDir receives the exported parameter snapshots.
	SnapshotDir string

	// Timeout bounds one full training run.
	Timeout time.Duration
}

// DefaultTrainerConfig returns the standard pipeline settings.
func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{
		TestFraction: 0.2,
		Seed:         42,
		CVFolds:      5,
		MinSamples:   MinTrainingSamples,
		SnapshotDir:  "snapshots",
		Timeout:      10 * time.Minute,
	}
}

// Validate checks the configuration for consistency.
func (c TrainerConfig) Validate() error {
	if c.TestFraction <= 0 || c.TestFraction >= 1 {
		return fmt.Errorf("trainer config: test fraction must be in (0, 1), got %v", c.TestFraction)
	}
	if c.CVFolds < 2 {
		return fmt.Errorf("trainer config: need at least 2 cv folds, got %d", c.CVFolds)
	}
	if c.MinSamples < 2 {
		return fmt.Errorf("trainer config: min samples must be at least 2, got %d", c.MinSamples)
	}
	if c.SnapshotDir == "" {
		return fmt.Errorf("trainer config: snapshot directory is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("trainer config: timeout must be positive, got %v", c.Timeout)
	}
	return nil
}

// snapshotPath names the exported snapshot file for a task.
func (c TrainerConfig) snapshotPath(task string) string {
	return filepath.Join(c.SnapshotDir, task+"_params.json")
}

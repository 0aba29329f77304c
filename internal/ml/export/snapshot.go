// EduPredict - Student Academic Risk and Course Recommendation Pipeline
// Copyright 2026 EduPredict Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edupredict/edupredict

// Package export writes human-readable parameter snapshots after training.
//
// A snapshot is a single JSON document holding every family's exported
// hyperparameters and summary state for one task, plus metadata tying it to
// the run that produced it. Snapshots are the audit surface of the pipeline:
// they carry numbers and rule dumps, never fitted model objects. Serving
// integrity is enforced by a fingerprint over the task, schema version and
// feature column order.
package export

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// ModelVersion identifies the snapshot schema.
const ModelVersion = "2.0"

// MaxRuleDumpChars caps the decision-rule text carried in a snapshot.
const MaxRuleDumpChars = 2000

// Metadata identifies the run a snapshot came from.
type Metadata struct {
	// Task names the pipeline, "performance" or "recommendation".
	Task string `json:"task"`

	// ModelVersion is the snapshot schema version.
	ModelVersion string `json:"model_version"`

	// RunID is the training run identifier.
	RunID string `json:"run_id"`

	// TrainedAt is when the run started fitting.
	TrainedAt time.Time `json:"trained_at"`

	// TrainingSamples is the joined row count the run trained on.
	TrainingSamples int `json:"training_samples"`

	// FeatureNames is the feature column order the models were fitted
	// with. Serving must match it exactly.
	FeatureNames []string `json:"feature_names"`

	// Fingerprint binds Task, ModelVersion and FeatureNames together.
	Fingerprint string `json:"fingerprint"`
}

// Snapshot is the exported parameter document for one task.
type Snapshot struct {
	Metadata Metadata `json:"metadata"`

	// Models maps family name to its exported parameter map.
	Models map[string]map[string]any `json:"models"`

	// Metrics maps family name to its evaluation block.
	Metrics map[string]any `json:"metrics,omitempty"`
}

// Fingerprint computes the integrity fingerprint for a task, schema version
// and feature column order.
func Fingerprint(task, modelVersion string, featureNames []string) string {
	h := sha256.New()
	h.Write([]byte(task))
	h.Write([]byte{0})
	h.Write([]byte(modelVersion))
	for _, name := range featureNames {
		h.Write([]byte{0})
		h.Write([]byte(name))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// New builds a snapshot with a computed fingerprint.
func New(task, runID string, trainedAt time.Time, samples int, featureNames []string) *Snapshot {
	return &Snapshot{
		Metadata: Metadata{
			Task:            task,
			ModelVersion:    ModelVersion,
			RunID:           runID,
			TrainedAt:       trainedAt,
			TrainingSamples: samples,
			FeatureNames:    append([]string(nil), featureNames...),
			Fingerprint:     Fingerprint(task, ModelVersion, featureNames),
		},
		Models:  make(map[string]map[string]any),
		Metrics: make(map[string]any),
	}
}

// AddModel records one family's exported parameters. A rule dump longer
// than MaxRuleDumpChars is truncated before it enters the snapshot.
func (s *Snapshot) AddModel(family string, params map[string]any) {
	if rules, ok := params["rules"].(string); ok && len(rules) > MaxRuleDumpChars {
		params["rules"] = rules[:MaxRuleDumpChars]
	}
	s.Models[family] = params
}

// Write serializes the snapshot to path via a temp file and rename, so a
// reader never observes a partially written document.
func (s *Snapshot) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o640); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("publish snapshot: %w", err)
	}
	return nil
}

// Load reads a snapshot and verifies its fingerprint and schema version.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	if s.Metadata.ModelVersion != ModelVersion {
		return nil, fmt.Errorf("snapshot schema %q does not match supported %q",
			s.Metadata.ModelVersion, ModelVersion)
	}

	want := Fingerprint(s.Metadata.Task, s.Metadata.ModelVersion, s.Metadata.FeatureNames)
	if !strings.EqualFold(s.Metadata.Fingerprint, want) {
		return nil, fmt.Errorf("snapshot fingerprint mismatch for task %s", s.Metadata.Task)
	}
	return &s, nil
}

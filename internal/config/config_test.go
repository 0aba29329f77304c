// EduPredict - Student Academic Risk and Course Recommendation Pipeline
// Copyright 2026 EduPredict Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edupredict/edupredict

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server.port: expected 8080, got %d", cfg.Server.Port)
	}
	if cfg.Database.MaxConns != 8 {
		t.Errorf("database.max_conns: expected 8, got %d", cfg.Database.MaxConns)
	}
	if cfg.Training.TestFraction != 0.2 || cfg.Training.Seed != 42 {
		t.Errorf("unexpected training defaults: %+v", cfg.Training)
	}
	if cfg.Artifacts.KeepVersions != 3 {
		t.Errorf("artifacts.keep_versions: expected 3, got %d", cfg.Artifacts.KeepVersions)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if cfg.ListenAddr() != "0.0.0.0:8080" {
		t.Errorf("listen addr: got %s", cfg.ListenAddr())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("EDUPREDICT_SERVER_PORT", "9090")
	t.Setenv("EDUPREDICT_DATABASE_URL", "postgres://localhost:5432/edupredict")
	t.Setenv("EDUPREDICT_LOGGING_FORMAT", "console")
	t.Setenv("EDUPREDICT_TRAINING_TIMEOUT", "5m")

	// Unlisted variables under the prefix are ignored.
	t.Setenv("EDUPREDICT_UNKNOWN_KNOB", "whatever")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server.port: expected 9090, got %d", cfg.Server.Port)
	}
	if cfg.Database.URL != "postgres://localhost:5432/edupredict" {
		t.Errorf("database.url: got %q", cfg.Database.URL)
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("logging.format: got %q", cfg.Logging.Format)
	}
	if cfg.Training.Timeout != 5*time.Minute {
		t.Errorf("training.timeout: got %v", cfg.Training.Timeout)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
server:
  port: 7070
logging:
  level: debug
artifacts:
  model_dir: /tmp/models
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("server.port: expected 7070 from file, got %d", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging.level: got %q", cfg.Logging.Level)
	}
	if cfg.Artifacts.ModelDir != "/tmp/models" {
		t.Errorf("artifacts.model_dir: got %q", cfg.Artifacts.ModelDir)
	}

	// Untouched sections keep their defaults.
	if cfg.Database.MaxConns != 8 {
		t.Errorf("database.max_conns default lost: got %d", cfg.Database.MaxConns)
	}
}

func TestEnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 7070\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("EDUPREDICT_SERVER_PORT", "9191")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("environment should override the file, got port %d", cfg.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"bad max conns", func(c *Config) { c.Database.MaxConns = 0 }},
		{"min conns above max", func(c *Config) { c.Database.MinConns = 99 }},
		{"empty model dir", func(c *Config) { c.Artifacts.ModelDir = "" }},
		{"bad keep versions", func(c *Config) { c.Artifacts.KeepVersions = 0 }},
		{"bad logging format", func(c *Config) { c.Logging.Format = "xml" }},
		{"bad test fraction", func(c *Config) { c.Training.TestFraction = 1.5 }},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	if err := defaultConfig().Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestTrainerConfigBridge(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Artifacts.SnapshotDir = "/data/snap"
	tc := cfg.TrainerConfig()

	if tc.TestFraction != 0.2 || tc.Seed != 42 || tc.CVFolds != 5 {
		t.Errorf("unexpected trainer config: %+v", tc)
	}
	if tc.SnapshotDir != "/data/snap" {
		t.Errorf("snapshot dir: got %q", tc.SnapshotDir)
	}
}

// EduPredict - Student Academic Risk and Course Recommendation Pipeline
// Copyright 2026 EduPredict Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edupredict/edupredict

// Package mlstore persists fitted models and scalers between training runs.
//
// Artifacts are gob-encoded, gzip-compressed and written as
// {name}_v{version}.gob.gz under a base directory. Each file embeds its
// metadata and a SHA-256 checksum of the uncompressed payload, verified on
// load. Versions increase monotonically per artifact name, so a serving
// process can always ask for the latest without coordinating with the
// trainer.
package mlstore

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/edupredict/edupredict/internal/ml/models"
)

// Metadata describes one stored artifact.
type Metadata struct {
	// Name is the artifact name, e.g. "performance_random_forest" or
	// "performance_scaler".
	Name string `json:"name"`

	// Version increases monotonically per name.
	Version int `json:"version"`

	// RunID ties the artifact to the training run that produced it.
	RunID string `json:"run_id"`

	// TrainedAt is when the producing run started fitting.
	TrainedAt time.Time `json:"trained_at"`

	// SavedAt is when the artifact hit disk.
	SavedAt time.Time `json:"saved_at"`

	// TrainingSamples is the row count the artifact was fitted on.
	TrainingSamples int `json:"training_samples"`

	// Checksum is the SHA-256 of the uncompressed gob payload.
	Checksum string `json:"checksum"`

	// SizeBytes is the compressed payload size.
	SizeBytes int64 `json:"size_bytes"`
}

// Store manages artifact persistence under one directory.
type Store struct {
	baseDir string
	mu      sync.RWMutex

	// latest version per artifact name
	versions map[string]int
}

// NewStore opens (creating if needed) an artifact store at baseDir and
// indexes any artifacts already present.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}

	s := &Store{
		baseDir:  baseDir,
		versions: make(map[string]int),
	}
	if err := s.rescan(); err != nil {
		return nil, fmt.Errorf("scan existing artifacts: %w", err)
	}
	return s, nil
}

// rescan rebuilds the version index from the directory contents.
func (s *Store) rescan() error {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return err
	}

	s.versions = make(map[string]int)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name, version, ok := parseArtifactFilename(entry.Name())
		if !ok {
			continue
		}
		if current := s.versions[name]; version > current {
			s.versions[name] = version
		}
	}
	return nil
}

// parseArtifactFilename splits "{name}_v{version}.gob.gz" into its parts.
func parseArtifactFilename(filename string) (name string, version int, ok bool) {
	base, found := strings.CutSuffix(filename, ".gob.gz")
	if !found {
		return "", 0, false
	}

	sep := strings.LastIndex(base, "_v")
	if sep < 1 {
		return "", 0, false
	}

	if _, err := fmt.Sscanf(base[sep+2:], "%d", &version); err != nil || version < 1 {
		return "", 0, false
	}
	return base[:sep], version, true
}

// storedFile is the on-disk format.
type storedFile struct {
	Metadata       Metadata
	CompressedData []byte
}

// Save serializes the artifact and writes it as the next version of name.
// The assigned version is returned. Writes go through a temp file and a
// rename so a crashed trainer never leaves a torn artifact behind.
func (s *Store) Save(ctx context.Context, name string, artifact any, meta Metadata) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(artifact); err != nil {
		return 0, fmt.Errorf("encode artifact %s: %w", name, err)
	}
	raw := buf.Bytes()

	hash := sha256.Sum256(raw)
	meta.Checksum = hex.EncodeToString(hash[:])

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw); err != nil {
		return 0, fmt.Errorf("compress artifact %s: %w", name, err)
	}
	if err := gzw.Close(); err != nil {
		return 0, fmt.Errorf("finalize compression for %s: %w", name, err)
	}

	version := s.versions[name] + 1
	meta.Name = name
	meta.Version = version
	meta.SavedAt = time.Now()
	meta.SizeBytes = int64(compressed.Len())

	final := s.artifactPath(name, version)
	tmp := final + ".tmp"
	f, err := os.Create(tmp) //nolint:gosec // path built from trusted artifact name
	if err != nil {
		return 0, fmt.Errorf("create artifact file: %w", err)
	}

	sf := storedFile{Metadata: meta, CompressedData: compressed.Bytes()}
	if err := gob.NewEncoder(f).Encode(sf); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("write artifact file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("close artifact file: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("publish artifact file: %w", err)
	}

	s.versions[name] = version
	return version, nil
}

// Load reads an artifact into target. Version 0 means latest. The payload
// checksum is verified before decoding.
func (s *Store) Load(ctx context.Context, name string, version int, target any) (*Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if version == 0 {
		var ok bool
		version, ok = s.versions[name]
		if !ok {
			return nil, fmt.Errorf("no stored artifact named %s", name)
		}
	}

	f, err := os.Open(s.artifactPath(name, version)) //nolint:gosec // path built from trusted artifact name
	if err != nil {
		return nil, fmt.Errorf("open artifact file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var sf storedFile
	if err := gob.NewDecoder(f).Decode(&sf); err != nil {
		return nil, fmt.Errorf("read artifact file: %w", err)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		return nil, fmt.Errorf("decompress artifact %s: %w", name, err)
	}
	defer func() { _ = gzr.Close() }()

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return nil, fmt.Errorf("read decompressed artifact: %w", err)
	}

	hash := sha256.Sum256(raw)
	if got := hex.EncodeToString(hash[:]); got != sf.Metadata.Checksum {
		return nil, fmt.Errorf("artifact %s v%d checksum mismatch: expected %s, got %s",
			name, version, sf.Metadata.Checksum, got)
	}

	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(target); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", name, err)
	}
	return &sf.Metadata, nil
}

// LatestVersion returns the latest stored version of name.
func (s *Store) LatestVersion(name string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	version, ok := s.versions[name]
	return version, ok
}

// List returns metadata for the latest version of every artifact.
func (s *Store) List(ctx context.Context) ([]Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []Metadata
	for name, version := range s.versions {
		f, err := os.Open(s.artifactPath(name, version)) //nolint:gosec // path built from trusted artifact name
		if err != nil {
			continue
		}
		var sf storedFile
		decErr := gob.NewDecoder(f).Decode(&sf)
		_ = f.Close()
		if decErr != nil {
			continue
		}
		out = append(out, sf.Metadata)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Prune removes old versions of name, keeping the newest keep versions.
func (s *Store) Prune(ctx context.Context, name string, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if keep < 1 {
		keep = 1
	}

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return fmt.Errorf("read artifact directory: %w", err)
	}

	var versions []int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		entryName, v, ok := parseArtifactFilename(entry.Name())
		if !ok || entryName != name {
			continue
		}
		versions = append(versions, v)
	}

	sort.Sort(sort.Reverse(sort.IntSlice(versions)))
	for i := keep; i < len(versions); i++ {
		_ = os.Remove(s.artifactPath(name, versions[i])) //nolint:errcheck // best-effort cleanup
	}
	return nil
}

// artifactPath returns the file path for one artifact version.
func (s *Store) artifactPath(name string, version int) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("%s_v%d.gob.gz", name, version))
}

// Register every persisted model type so fitted artifacts round-trip
// through gob.
//
//nolint:gochecknoinits // gob.Register requires init-time registration
func init() {
	gob.Register(models.LogisticRegression{})
	gob.Register(models.DecisionTreeClassifier{})
	gob.Register(models.RandomForestClassifier{})
	gob.Register(models.RandomForestRegressor{})
	gob.Register(models.GradientBoostingClassifier{})
	gob.Register(models.AdaBoostClassifier{})
	gob.Register(models.KNNClassifier{})
	gob.Register(models.NearestNeighborsIndex{})
	gob.Register(Metadata{})
	gob.Register(storedFile{})
}

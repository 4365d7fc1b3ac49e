package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"AlphaPulse/internal/domain/models"
	applogger "AlphaPulse/pkg/logger"
)

// FilePredictionStore persists the prediction log as one JSON document
// keyed by asset, the same structure the historical pipeline kept in
// prediction_log.json. Pending entries simply omit the reconciliation
// fields.
type FilePredictionStore struct {
	path string
	mu   sync.Mutex
	log  *applogger.Logger
}

func NewFilePredictionStore(dir, file string, log *applogger.Logger) (*FilePredictionStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage dir: %w", err)
	}
	return &FilePredictionStore{path: filepath.Join(dir, file), log: log}, nil
}

// Load reads the full prediction log. A missing file is an empty log. A
// corrupt individual entry is skipped with a warning; a document that
// cannot be parsed at all is an error so the caller can retry next tick.
func (s *FilePredictionStore) Load(ctx context.Context) (map[string][]models.PredictionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string][]models.PredictionEntry{}, nil
		}
		return nil, fmt.Errorf("read prediction log: %w", err)
	}

	var raw map[string][]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse prediction log: %w", err)
	}

	out := make(map[string][]models.PredictionEntry, len(raw))
	for asset, entries := range raw {
		parsed := make([]models.PredictionEntry, 0, len(entries))
		for _, e := range entries {
			var p models.PredictionEntry
			if err := json.Unmarshal(e, &p); err != nil || p.IssuedAt.IsZero() {
				s.log.Warn("skipping corrupt prediction entry",
					applogger.String("asset", asset), applogger.Error(err))
				continue
			}
			p.Asset = asset
			parsed = append(parsed, p)
		}
		out[asset] = parsed
	}
	return out, nil
}

// Save replaces the prediction log atomically.
func (s *FilePredictionStore) Save(ctx context.Context, log map[string][]models.PredictionEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal prediction log: %w", err)
	}
	if err := replaceFile(s.path, b); err != nil {
		return models.Fatal(fmt.Errorf("write prediction log: %w", err))
	}
	return nil
}

// replaceFile writes b to a temp file and renames it over path.
func replaceFile(path string, b []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

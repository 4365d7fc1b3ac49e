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

// FileAlertStateStore persists the single alert-throttle record.
type FileAlertStateStore struct {
	path string
	mu   sync.Mutex
	log  *applogger.Logger
}

func NewFileAlertStateStore(dir, file string, log *applogger.Logger) (*FileAlertStateStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage dir: %w", err)
	}
	return &FileAlertStateStore{path: filepath.Join(dir, file), log: log}, nil
}

// Load reads the alert state. Missing or unreadable state reads as the zero
// state: the throttle then allows the next alert instead of suppressing it.
func (s *FileAlertStateStore) Load(ctx context.Context) (models.AlertState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("alert state unreadable, treating as empty", applogger.Error(err))
		}
		return models.AlertState{}, nil
	}
	var st models.AlertState
	if err := json.Unmarshal(b, &st); err != nil {
		s.log.Warn("alert state corrupt, treating as empty", applogger.Error(err))
		return models.AlertState{}, nil
	}
	return st, nil
}

// Save replaces the alert state atomically.
func (s *FileAlertStateStore) Save(ctx context.Context, st models.AlertState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal alert state: %w", err)
	}
	if err := replaceFile(s.path, b); err != nil {
		return fmt.Errorf("write alert state: %w", err)
	}
	return nil
}

package usecase

import (
	"context"
	"fmt"
	"time"

	"AlphaPulse/internal/domain/models"
	drepo "AlphaPulse/internal/domain/repository"
	"AlphaPulse/pkg/logger"
)

// Throttle gates outbound alerts to at most one per configured interval,
// persisting the last send time across process restarts.
type Throttle struct {
	store       drepo.AlertStateStore
	log         *logger.Logger
	minInterval time.Duration
}

// NewThrottle creates a new Throttle instance.
func NewThrottle(store drepo.AlertStateStore, log *logger.Logger, minInterval time.Duration) *Throttle {
	return &Throttle{store: store, log: log, minInterval: minInterval}
}

// ShouldAlert reports whether enough time has passed since the last alert.
// An unreadable state file counts as "never alerted" so a corrupt file
// cannot silence alerts forever.
func (t *Throttle) ShouldAlert(ctx context.Context, now time.Time) (bool, error) {
	state, err := t.store.Load(ctx)
	if err != nil {
		t.log.Warn("alert state unreadable, allowing alert", logger.Error(err))
		return true, nil
	}
	if state.LastAlertAt == nil {
		return true, nil
	}
	return now.Sub(*state.LastAlertAt) >= t.minInterval, nil
}

// RecordAlertSent persists the send time. Called only after the alert was
// actually delivered, so a failed delivery does not start the cooldown.
func (t *Throttle) RecordAlertSent(ctx context.Context, now time.Time) error {
	state := models.AlertState{LastAlertAt: &now}
	if err := t.store.Save(ctx, state); err != nil {
		return fmt.Errorf("save alert state: %w", err)
	}
	return nil
}

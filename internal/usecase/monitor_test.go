package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applogger "AlphaPulse/pkg/logger"
)

func newTestMonitor(notifier *spyNotifier) *Monitor {
	assets := []MonitoredAsset{{
		Name:             "Bitcoin",
		ThresholdUpPct:   5,
		ThresholdDownPct: 5,
		Upper:            100000,
		Lower:            40000,
	}}
	return NewMonitor(nil, nil, notifier, nopMetrics{}, applogger.Nop(),
		assets, time.Minute, time.Second, time.Hour)
}

func TestMonitorAlertsOnSharpMove(t *testing.T) {
	n := &spyNotifier{}
	m := newTestMonitor(n)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	m.observe(ctx, "Bitcoin", 67000, now)
	require.Empty(t, n.sent)

	// +3% is below the 5% threshold
	m.observe(ctx, "Bitcoin", 69010, now.Add(time.Minute))
	require.Empty(t, n.sent)

	// +6% from the last observation
	m.observe(ctx, "Bitcoin", 73150, now.Add(2*time.Minute))
	require.Len(t, n.sent, 1)
	assert.True(t, strings.Contains(n.sent[0], "Bitcoin"))
	assert.True(t, strings.Contains(n.sent[0], "up"))
}

func TestMonitorAlertsOnAbsoluteBound(t *testing.T) {
	n := &spyNotifier{}
	m := newTestMonitor(n)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	// first observation already below the lower bound
	m.observe(ctx, "Bitcoin", 39000, now)
	require.Len(t, n.sent, 1)
	assert.True(t, strings.Contains(n.sent[0], "below"))
}

func TestMonitorThrottlesPerAsset(t *testing.T) {
	n := &spyNotifier{}
	m := newTestMonitor(n)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	m.observe(ctx, "Bitcoin", 39000, now)
	m.observe(ctx, "Bitcoin", 38000, now.Add(time.Minute))
	require.Len(t, n.sent, 1)

	// after the alert interval a new breach alerts again
	m.observe(ctx, "Bitcoin", 37000, now.Add(2*time.Hour))
	require.Len(t, n.sent, 2)
}

func TestMonitorIgnoresUntrackedAssets(t *testing.T) {
	n := &spyNotifier{}
	m := newTestMonitor(n)

	m.observe(context.Background(), "Shiba", 0.00001, time.Now())
	assert.Empty(t, n.sent)
}

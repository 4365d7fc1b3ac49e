package usecase

import (
	"context"
	"errors"
	"sort"

	"AlphaPulse/internal/domain/models"
	drepo "AlphaPulse/internal/domain/repository"
)

// memRecordStore is an in-memory RecordStore with the same dedup and
// ordering behavior as the file-backed one.
type memRecordStore struct {
	obs  map[models.ObservationKey]models.Observation
	sums map[models.SummaryKey]models.SummaryRow

	appendObsErr error
	appendSumErr error
	queryErr     error
}

func newMemRecordStore() *memRecordStore {
	return &memRecordStore{
		obs:  make(map[models.ObservationKey]models.Observation),
		sums: make(map[models.SummaryKey]models.SummaryRow),
	}
}

func (m *memRecordStore) AppendObservations(_ context.Context, batch []models.Observation) error {
	if m.appendObsErr != nil {
		return m.appendObsErr
	}
	for _, o := range batch {
		m.obs[o.Key()] = o
	}
	return nil
}

func (m *memRecordStore) AppendSummaries(_ context.Context, rows []models.SummaryRow) error {
	if m.appendSumErr != nil {
		return m.appendSumErr
	}
	for _, r := range rows {
		m.sums[r.Key()] = r
	}
	return nil
}

func (m *memRecordStore) QueryObservations(_ context.Context, q drepo.ObservationQuery) ([]models.Observation, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	var out []models.Observation
	for _, o := range m.obs {
		if q.Asset != "" && o.Asset != q.Asset {
			continue
		}
		if q.Source != "" && o.Source != q.Source {
			continue
		}
		if !q.Since.IsZero() && o.Timestamp.Before(q.Since) {
			continue
		}
		if !q.Until.IsZero() && o.Timestamp.After(q.Until) {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (m *memRecordStore) QuerySummaries(_ context.Context, q drepo.SummaryQuery) ([]models.SummaryRow, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	var out []models.SummaryRow
	for _, r := range m.sums {
		if q.Asset != "" && r.Asset != q.Asset {
			continue
		}
		if q.Source != "" && r.Source != q.Source {
			continue
		}
		if !q.Since.IsZero() && r.Timestamp.Before(q.Since) {
			continue
		}
		if !q.Until.IsZero() && r.Timestamp.After(q.Until) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// memPredictionStore keeps the prediction log in memory.
type memPredictionStore struct {
	entries map[string][]models.PredictionEntry

	loadErr error
	saveErr error
}

func newMemPredictionStore() *memPredictionStore {
	return &memPredictionStore{entries: make(map[string][]models.PredictionEntry)}
}

func (m *memPredictionStore) Load(context.Context) (map[string][]models.PredictionEntry, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make(map[string][]models.PredictionEntry, len(m.entries))
	for k, v := range m.entries {
		out[k] = append([]models.PredictionEntry(nil), v...)
	}
	return out, nil
}

func (m *memPredictionStore) Save(_ context.Context, log map[string][]models.PredictionEntry) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.entries = log
	return nil
}

// memAlertStore keeps the alert state in memory.
type memAlertStore struct {
	state   models.AlertState
	loadErr error
	saveErr error
}

func (m *memAlertStore) Load(context.Context) (models.AlertState, error) {
	if m.loadErr != nil {
		return models.AlertState{}, m.loadErr
	}
	return m.state, nil
}

func (m *memAlertStore) Save(_ context.Context, state models.AlertState) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.state = state
	return nil
}

// nopMetrics satisfies repository.Metrics.
type nopMetrics struct{}

func (nopMetrics) RecordObservations(string, string, int) {}
func (nopMetrics) RecordSummaries(int) {}
func (nopMetrics) RecordPredictionIssued(string) {}
func (nopMetrics) RecordPredictionReconciled(string, bool) {}
func (nopMetrics) RecordAlertSent() {}
func (nopMetrics) RecordError(string) {}
func (nopMetrics) RecordLastPrice(string, float64) {}
func (nopMetrics) RecordTickDuration(float64) {}

// stubCollector returns a fixed batch per asset.
type stubCollector struct {
	source models.Source
	byName map[string][]models.Observation
	err    error
}

func (c *stubCollector) Source() models.Source { return c.source }

func (c *stubCollector) Collect(_ context.Context, asset string, _ []string, limit int) ([]models.Observation, error) {
	if c.err != nil {
		return nil, c.err
	}
	obs := c.byName[asset]
	if len(obs) > limit {
		obs = obs[:limit]
	}
	return obs, nil
}

// stubScorer maps text to a fixed score.
type stubScorer struct {
	scores map[string]float64
	calls  int
}

func (s *stubScorer) Score(text string) float64 {
	s.calls++
	return s.scores[text]
}

// stubPrices returns a fixed price map.
type stubPrices struct {
	prices map[string]float64
	err    error
}

func (s *stubPrices) Fetch(context.Context, []string) (map[string]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.prices, nil
}

// spyNotifier records sent messages.
type spyNotifier struct {
	sent []string
	err  error
}

func (n *spyNotifier) Send(_ context.Context, text string) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, text)
	return nil
}

var errBoom = errors.New("boom")

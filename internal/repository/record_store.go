package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"AlphaPulse/internal/domain/models"
	"AlphaPulse/internal/domain/repository"
	applogger "AlphaPulse/pkg/logger"
	"AlphaPulse/pkg/util"
)

// Canonical column sets. Historical files written by earlier pipeline
// versions use different names and extra columns; readers map those onto
// the optional-field model instead of failing, and the next append rewrites
// the file under the current field set.
var (
	observationHeader = []string{"timestamp", "asset", "source", "text", "sentiment", "link"}
	summaryHeader     = []string{"timestamp", "asset", "source", "count", "mean_sentiment", "price", "action"}
)

// Column aliases seen in historical store files.
var columnAliases = map[string]string{
	"coin":            "asset",
	"content":         "text",
	"mentions":        "count",
	"priceusd":        "price",
	"suggestedaction": "action",
}

// FileRecordStore is a CSV-backed RecordStore. Each append re-materializes
// the whole deduplicated collection and replaces the file atomically, so the
// on-disk store is always a complete, human-inspectable history.
type FileRecordStore struct {
	obsPath string
	sumPath string
	mu      sync.Mutex
	log     *applogger.Logger
}

// NewFileRecordStore creates a record store rooted at dir.
func NewFileRecordStore(dir, obsFile, sumFile string, log *applogger.Logger) (*FileRecordStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage dir: %w", err)
	}
	return &FileRecordStore{
		obsPath: filepath.Join(dir, obsFile),
		sumPath: filepath.Join(dir, sumFile),
		log:     log,
	}, nil
}

// AppendObservations merges batch into the observation store, deduplicating
// by identity key with the incoming batch winning over existing storage.
// Empty batches are a no-op. Write failures are fatal for the tick.
func (s *FileRecordStore) AppendObservations(ctx context.Context, batch []models.Observation) error {
	if len(batch) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.readObservations()
	merged := mergeObservations(existing, batch)

	rows := make([][]string, 0, len(merged))
	for _, o := range merged {
		rows = append(rows, encodeObservation(o))
	}
	if err := writeCSV(s.obsPath, observationHeader, rows); err != nil {
		return models.Fatal(fmt.Errorf("write observations: %w", err))
	}
	return nil
}

// AppendSummaries merges batch into the summary store with the same
// semantics as AppendObservations, keyed by (timestamp, asset, source).
func (s *FileRecordStore) AppendSummaries(ctx context.Context, batch []models.SummaryRow) error {
	if len(batch) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.readSummaries()
	merged := mergeSummaries(existing, batch)

	rows := make([][]string, 0, len(merged))
	for _, r := range merged {
		rows = append(rows, encodeSummary(r))
	}
	if err := writeCSV(s.sumPath, summaryHeader, rows); err != nil {
		return models.Fatal(fmt.Errorf("write summaries: %w", err))
	}
	return nil
}

// QueryObservations re-reads the store and returns matching observations
// ordered by timestamp ascending.
func (s *FileRecordStore) QueryObservations(ctx context.Context, q repository.ObservationQuery) ([]models.Observation, error) {
	s.mu.Lock()
	all := s.readObservations()
	s.mu.Unlock()

	out := make([]models.Observation, 0, len(all))
	for _, o := range all {
		if q.Asset != "" && o.Asset != q.Asset {
			continue
		}
		if q.Source != "" && o.Source != q.Source {
			continue
		}
		if !inRange(o.Timestamp, q.Since, q.Until) {
			continue
		}
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// QuerySummaries re-reads the store and returns matching summary rows
// ordered by timestamp ascending. An empty Source matches all sources.
func (s *FileRecordStore) QuerySummaries(ctx context.Context, q repository.SummaryQuery) ([]models.SummaryRow, error) {
	s.mu.Lock()
	all := s.readSummaries()
	s.mu.Unlock()

	out := make([]models.SummaryRow, 0, len(all))
	for _, r := range all {
		if q.Asset != "" && r.Asset != q.Asset {
			continue
		}
		if q.Source != "" && r.Source != q.Source {
			continue
		}
		if !inRange(r.Timestamp, q.Since, q.Until) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// --- merge/dedup ---

func mergeObservations(existing, batch []models.Observation) []models.Observation {
	out := make([]models.Observation, 0, len(existing)+len(batch))
	idx := make(map[models.ObservationKey]int, len(existing)+len(batch))
	for _, set := range [][]models.Observation{existing, batch} {
		for _, o := range set {
			k := o.Key()
			if i, ok := idx[k]; ok {
				out[i] = o // later insertion wins
				continue
			}
			idx[k] = len(out)
			out = append(out, o)
		}
	}
	return out
}

func mergeSummaries(existing, batch []models.SummaryRow) []models.SummaryRow {
	out := make([]models.SummaryRow, 0, len(existing)+len(batch))
	idx := make(map[models.SummaryKey]int, len(existing)+len(batch))
	for _, set := range [][]models.SummaryRow{existing, batch} {
		for _, r := range set {
			k := r.Key()
			if i, ok := idx[k]; ok {
				out[i] = r
				continue
			}
			idx[k] = len(out)
			out = append(out, r)
		}
	}
	return out
}

// --- encoding ---

func encodeObservation(o models.Observation) []string {
	return []string{
		o.Timestamp.UTC().Format(time.RFC3339Nano),
		o.Asset,
		string(o.Source),
		o.Text,
		strconv.FormatFloat(o.Sentiment, 'f', -1, 64),
		o.Link,
	}
}

func encodeSummary(r models.SummaryRow) []string {
	price := ""
	if r.Price != nil {
		price = strconv.FormatFloat(*r.Price, 'f', -1, 64)
	}
	return []string{
		r.Timestamp.UTC().Format(time.RFC3339Nano),
		r.Asset,
		string(r.Source),
		strconv.Itoa(r.Count),
		strconv.FormatFloat(r.MeanSentiment, 'f', -1, 64),
		price,
		string(r.Action),
	}
}

// --- reading ---

// readObservations loads the observation file. Unreadable or missing storage
// is not fatal: it reads as an empty store with a warning.
func (s *FileRecordStore) readObservations() []models.Observation {
	header, rows, ok := s.readCSV(s.obsPath)
	if !ok {
		return nil
	}
	cols := columnIndex(header)
	out := make([]models.Observation, 0, len(rows))
	for _, rec := range rows {
		o, err := decodeObservation(cols, rec)
		if err != nil {
			s.log.Warn("skipping malformed observation row", applogger.Error(err))
			continue
		}
		out = append(out, o)
	}
	return out
}

func (s *FileRecordStore) readSummaries() []models.SummaryRow {
	header, rows, ok := s.readCSV(s.sumPath)
	if !ok {
		return nil
	}
	cols := columnIndex(header)
	out := make([]models.SummaryRow, 0, len(rows))
	for _, rec := range rows {
		r, err := decodeSummary(cols, rec)
		if err != nil {
			s.log.Warn("skipping malformed summary row", applogger.Error(err))
			continue
		}
		out = append(out, r)
	}
	return out
}

func (s *FileRecordStore) readCSV(path string) (header []string, rows [][]string, ok bool) {
	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("store unreadable, treating as empty", applogger.String("path", path), applogger.Error(err))
		}
		return nil, nil, false
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // historical rows may carry fewer columns
	records, err := r.ReadAll()
	if err != nil {
		s.log.Warn("store corrupt, treating as empty", applogger.String("path", path), applogger.Error(err))
		return nil, nil, false
	}
	if len(records) == 0 {
		return nil, nil, false
	}
	return records[0], records[1:], true
}

// columnIndex maps normalized column names to positions, resolving aliases
// from historical field sets.
func columnIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		n := strings.ToLower(strings.TrimSpace(name))
		if alias, ok := columnAliases[n]; ok {
			n = alias
		}
		if _, seen := cols[n]; !seen {
			cols[n] = i
		}
	}
	return cols
}

func field(cols map[string]int, rec []string, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return rec[i]
}

func decodeObservation(cols map[string]int, rec []string) (models.Observation, error) {
	ts, ok := util.ParseTime(field(cols, rec, "timestamp"))
	if !ok {
		return models.Observation{}, fmt.Errorf("bad timestamp %q", field(cols, rec, "timestamp"))
	}
	asset := field(cols, rec, "asset")
	if asset == "" {
		return models.Observation{}, fmt.Errorf("missing asset")
	}
	sentiment, err := strconv.ParseFloat(field(cols, rec, "sentiment"), 64)
	if err != nil {
		return models.Observation{}, fmt.Errorf("bad sentiment: %w", err)
	}
	return models.Observation{
		Timestamp: ts.UTC(),
		Asset:     asset,
		Source:    normalizeSource(field(cols, rec, "source")),
		Text:      field(cols, rec, "text"),
		Sentiment: sentiment,
		Link:      field(cols, rec, "link"),
	}, nil
}

func decodeSummary(cols map[string]int, rec []string) (models.SummaryRow, error) {
	ts, ok := util.ParseTime(field(cols, rec, "timestamp"))
	if !ok {
		return models.SummaryRow{}, fmt.Errorf("bad timestamp %q", field(cols, rec, "timestamp"))
	}
	asset := field(cols, rec, "asset")
	if asset == "" {
		return models.SummaryRow{}, fmt.Errorf("missing asset")
	}
	mean, err := strconv.ParseFloat(field(cols, rec, "mean_sentiment"), 64)
	if err != nil {
		return models.SummaryRow{}, fmt.Errorf("bad mean sentiment: %w", err)
	}
	row := models.SummaryRow{
		Timestamp:     ts.UTC(),
		Asset:         asset,
		Source:        normalizeSource(field(cols, rec, "source")),
		Count:         util.ParseIntDefault(field(cols, rec, "count"), 0),
		MeanSentiment: mean,
		Action:        normalizeAction(field(cols, rec, "action")),
	}
	// Empty price cell means unknown, never 0.
	if p := field(cols, rec, "price"); p != "" {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return models.SummaryRow{}, fmt.Errorf("bad price: %w", err)
		}
		row.Price = &v
	}
	return row, nil
}

func normalizeSource(s string) models.Source {
	return models.Source(strings.ToLower(strings.TrimSpace(s)))
}

// normalizeAction maps historical action labels ("📈 Consider Buying",
// "Buy", "hold") onto the enum.
func normalizeAction(s string) models.Action {
	l := strings.ToLower(s)
	switch {
	case strings.Contains(l, "buy"):
		return models.ActionBuy
	case strings.Contains(l, "sell"):
		return models.ActionSell
	default:
		return models.ActionHold
	}
}

// --- writing ---

// writeCSV writes the full collection to a temp file and renames it over
// the target, so the store is never observed partially written.
func writeCSV(path string, header []string, rows [][]string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".store-*.csv")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("write rows: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush: %w", err)
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

func inRange(t, since, until time.Time) bool {
	if !since.IsZero() && t.Before(since) {
		return false
	}
	if !until.IsZero() && t.After(until) {
		return false
	}
	return true
}

package repository

import (
	"context"

	"AlphaPulse/internal/domain/models"
	"AlphaPulse/internal/domain/repository"
	pkgkafka "AlphaPulse/pkg/kafka"
)

// KafkaFeedPublisher implements FeedPublisher for Kafka. Each summary row
// and each reconciled forecast is mirrored onto the integration topic,
// keyed by asset so per-asset ordering is preserved downstream.
type KafkaFeedPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaFeedPublisher creates a Kafka feed publisher.
func NewKafkaFeedPublisher(producer *pkgkafka.Producer, topic string) repository.FeedPublisher {
	return &KafkaFeedPublisher{producer: producer, topic: topic}
}

func (p *KafkaFeedPublisher) PublishSummaries(ctx context.Context, rows []models.SummaryRow) error {
	if len(rows) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(rows))
	for i, r := range rows {
		msgs[i] = pkgkafka.Message{
			Key: []byte(r.Asset),
			Value: map[string]interface{}{
				"kind":           "summary",
				"timestamp":      r.Timestamp,
				"asset":          r.Asset,
				"source":         r.Source,
				"count":          r.Count,
				"mean_sentiment": r.MeanSentiment,
				"price":          r.Price,
				"action":         r.Action,
			},
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaFeedPublisher) PublishReconciliations(ctx context.Context, entries []models.PredictionEntry) error {
	if len(entries) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(entries))
	for i, e := range entries {
		msgs[i] = pkgkafka.Message{
			Key: []byte(e.Asset),
			Value: map[string]interface{}{
				"kind":      "reconciliation",
				"issued_at": e.IssuedAt,
				"asset":     e.Asset,
				"predicted": e.PredictedPrice,
				"baseline":  e.BaselinePrice,
				"actual":    e.ActualPrice,
				"error_pct": e.ErrorPct,
				"accurate":  e.Accurate,
			},
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaFeedPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

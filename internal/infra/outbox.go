package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/footballcurrency/portal/internal/domain"
)

// OutboxSource is the storage side of the relay.
type OutboxSource interface {
	FetchUnpublished(ctx context.Context, limit int) ([]domain.OutboxRow, error)
	MarkPublished(ctx context.Context, seqIDs []int64) error
}

// Publisher sends one message to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// OutboxPoller drains event_outbox and publishes each event to Kafka.
type OutboxPoller struct {
	source      OutboxSource
	publisher   Publisher
	logger      *slog.Logger
	topicPrefix string
	interval    time.Duration
	batchSize   int
}

// NewOutboxPoller creates a new outbox poller.
func NewOutboxPoller(source OutboxSource, publisher Publisher, topicPrefix string, interval time.Duration, batchSize int, logger *slog.Logger) *OutboxPoller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OutboxPoller{
		source:      source,
		publisher:   publisher,
		logger:      logger,
		topicPrefix: topicPrefix,
		interval:    interval,
		batchSize:   batchSize,
	}
}

// Run polls until ctx is cancelled.
func (p *OutboxPoller) Run(ctx context.Context) {
	p.logger.Info("outbox poller started", "interval", p.interval, "batch_size", p.batchSize)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("outbox poller stopped")
			return
		case <-ticker.C:
			if _, err := p.PollOnce(ctx); err != nil {
				p.logger.Error("outbox poll error", "error", err)
			}
		}
	}
}

// Topic returns the Kafka topic for an event.
func (p *OutboxPoller) Topic(row domain.OutboxRow) string {
	return p.topicPrefix + "." + string(row.AggregateType)
}

// PollOnce publishes one batch and returns how many events were marked
// published. Events that fail to publish stay in the outbox and are retried
// on the next tick; later events in the batch are held back to keep
// per-aggregate ordering.
func (p *OutboxPoller) PollOnce(ctx context.Context) (int, error) {
	rows, err := p.source.FetchUnpublished(ctx, p.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	published := make([]int64, 0, len(rows))
	for _, row := range rows {
		msg, err := json.Marshal(row.OutboxDraft)
		if err != nil {
			p.logger.Error("encode outbox event", "event_id", row.EventID, "error", err)
			break
		}
		if err := p.publisher.Publish(ctx, p.Topic(row), []byte(row.AggregateID), msg); err != nil {
			p.logger.Error("kafka publish failed", "event_id", row.EventID, "error", err)
			break
		}
		published = append(published, row.SeqID)
	}

	if len(published) == 0 {
		return 0, nil
	}
	if err := p.source.MarkPublished(ctx, published); err != nil {
		return 0, fmt.Errorf("mark published: %w", err)
	}

	p.logger.Debug("outbox poll complete", "published", len(published))
	return len(published), nil
}

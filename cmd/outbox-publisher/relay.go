package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/drinkroute/distribution-backend/pkg/db/models"
	"github.com/drinkroute/distribution-backend/pkg/enums"
	"github.com/drinkroute/distribution-backend/pkg/outbox"
	"github.com/drinkroute/distribution-backend/pkg/outbox/registry"
)

type relayOutcome int

const (
	outcomePublished relayOutcome = iota
	outcomeRetry
	outcomeDeadLetter
)

// relayResult is what happened to one row; settle turns it into writes.
type relayResult struct {
	outcome  relayOutcome
	reason   enums.OutboxDLQErrorReason
	err      error
	topic    string
	envelope outbox.PayloadEnvelope
}

// processBatch claims rows with FOR UPDATE SKIP LOCKED and settles each one
// in the same transaction, so a row is never marked by two replicas.
func (s *Service) processBatch(ctx context.Context) (bool, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveBatch(time.Since(start)) }()

	var claimed int
	var retries error
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := s.repo.Claim(tx, s.batchSize, s.maxAttempts)
		if err != nil {
			return err
		}
		claimed = len(events)

		for _, event := range events {
			res := s.relay(ctx, event)
			if err := s.settle(ctx, tx, event, res); err != nil {
				return err
			}
			if res.outcome == outcomeRetry {
				retries = multierr.Append(retries, fmt.Errorf("publish %s: %w", event.ID, res.err))
			}
		}
		return nil
	})

	if err == nil && retries != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"failed_count": len(multierr.Errors(retries)),
			"error":        retries.Error(),
		}), "outbox publish failures will be retried")
	}
	return claimed > 0, err
}

func (s *Service) relay(ctx context.Context, event models.OutboxEvent) relayResult {
	resolved, err := s.registry.Resolve(event)
	if err != nil {
		return relayResult{outcome: outcomeDeadLetter, reason: enums.OutboxDLQReasonNonRetryable, err: err}
	}

	res := relayResult{topic: resolved.Descriptor.Topic, envelope: resolved.Envelope}
	err = s.publishResolved(ctx, event, resolved)

	var nonRetry registry.NonRetryableError
	switch {
	case err == nil:
		res.outcome = outcomePublished
	case errors.As(err, &nonRetry):
		res.outcome, res.reason, res.err = outcomeDeadLetter, enums.OutboxDLQReasonNonRetryable, err
	case event.AttemptCount+1 >= s.maxAttempts:
		res.outcome, res.reason = outcomeDeadLetter, enums.OutboxDLQReasonMaxAttempts
		res.err = fmt.Errorf("max publish attempts reached: %w", err)
	default:
		res.outcome, res.err = outcomeRetry, err
	}
	return res
}

func (s *Service) settle(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, res relayResult) error {
	fields := s.eventFields(event, res.envelope, res.topic)

	switch res.outcome {
	case outcomePublished:
		if err := s.repo.MarkPublished(tx, event.ID); err != nil {
			return fmt.Errorf("mark published %s: %w", event.ID, err)
		}
		s.metrics.IncPublished(string(event.EventType))
		s.logg.Info(s.logg.WithFields(ctx, fields), "outbox event published")
		return nil

	case outcomeRetry:
		s.metrics.IncFailed(string(event.EventType))
		if err := s.repo.MarkFailed(tx, event.ID, res.err); err != nil {
			return fmt.Errorf("mark failure %s: %w", event.ID, err)
		}
		return nil
	}

	fields["attempt_count"] = event.AttemptCount + 1
	fields["error_reason"] = res.reason
	fields["error"] = res.err.Error()
	s.logg.Warn(s.logg.WithFields(ctx, fields), "outbox event will not be retried")

	if err := s.dlq.Bury(tx, event, res.reason, res.err); err != nil {
		return fmt.Errorf("dead letter %s: %w", event.ID, err)
	}
	if err := s.repo.MarkTerminal(tx, event.ID, res.err); err != nil {
		return fmt.Errorf("mark terminal %s: %w", event.ID, err)
	}
	s.metrics.IncDeadLettered(string(res.reason))
	return nil
}

// publishResolved sends the stored envelope unchanged; routing metadata
// travels as message attributes.
func (s *Service) publishResolved(ctx context.Context, event models.OutboxEvent, resolved *registry.ResolvedEvent) error {
	topic := resolved.Descriptor.Topic
	pub := s.publishers(topic)
	if pub == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher not configured for topic %s", topic))
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	result := pub.Publish(ctx, &gcppubsub.Message{
		Data: event.Payload,
		Attributes: map[string]string{
			"event_id":       resolved.Envelope.EventID,
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID.String(),
			"created_at":     event.CreatedAt.Format(time.RFC3339Nano),
		},
	})
	if result == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher returned nil for topic %s", topic))
	}
	_, err := result.Get(ctx)
	return err
}

func (s *Service) eventFields(event models.OutboxEvent, envelope outbox.PayloadEnvelope, topic string) map[string]any {
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID.String(),
		"attempt_count":  event.AttemptCount,
	}
	if envelope.EventID != "" {
		fields["event_id"] = envelope.EventID
		fields["occurred_at"] = envelope.OccurredAt.Format(time.RFC3339Nano)
	}
	if topic != "" {
		fields["topic"] = topic
	}
	if event.LastError != nil {
		fields["last_error"] = *event.LastError
	}
	return fields
}

// Package events adapts the classification pipeline to NATS JetStream:
// it consumes classifications, publishes backfill requests, and dispatches
// rule actions as messages.
package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/JaimeStill/caesar/pkg/messaging"
)

// Subject tokens under the configured prefix.
const (
	ClassificationsToken = "classifications"
	BackfillToken        = "backfill"
	ActionsToken         = "actions"
)

// EnsureStream creates the stream capturing every subject under the prefix,
// or updates its subject list when the stream already exists.
func EnsureStream(js nats.JetStreamContext, cfg *messaging.Config) (*nats.StreamInfo, error) {
	sc := &nats.StreamConfig{
		Name:       cfg.Stream,
		Subjects:   []string{cfg.Subject(">")},
		Storage:    nats.FileStorage,
		Retention:  nats.LimitsPolicy,
		Duplicates: 2 * time.Minute,
	}

	info, err := js.AddStream(sc)
	if errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		info, err = js.UpdateStream(sc)
	}
	if err != nil {
		return nil, fmt.Errorf("ensure stream %s: %w", cfg.Stream, err)
	}
	return info, nil
}

// EnsureConsumer creates or updates the durable pull consumer that feeds the
// pipeline from the classifications subject.
func EnsureConsumer(js nats.JetStreamContext, cfg *messaging.Config) (*nats.ConsumerInfo, error) {
	cc := &nats.ConsumerConfig{
		Durable:       cfg.Durable,
		FilterSubject: cfg.Subject(ClassificationsToken),
		DeliverPolicy: nats.DeliverAllPolicy,
		AckPolicy:     nats.AckExplicitPolicy,
		AckWait:       cfg.AckWaitDuration(),
		MaxDeliver:    cfg.MaxDeliver,
		MaxAckPending: cfg.Workers * cfg.FetchBatch,
	}

	_, err := js.ConsumerInfo(cfg.Stream, cfg.Durable)
	switch {
	case err == nil:
		info, err := js.UpdateConsumer(cfg.Stream, cc)
		if err != nil {
			return nil, fmt.Errorf("update consumer %s: %w", cfg.Durable, err)
		}
		return info, nil
	case errors.Is(err, nats.ErrConsumerNotFound):
		info, err := js.AddConsumer(cfg.Stream, cc)
		if err != nil {
			return nil, fmt.Errorf("add consumer %s: %w", cfg.Durable, err)
		}
		return info, nil
	default:
		return nil, fmt.Errorf("consumer info %s: %w", cfg.Durable, err)
	}
}

package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/JaimeStill/caesar/internal/classifications"
	"github.com/JaimeStill/caesar/internal/workflows"
	"github.com/JaimeStill/caesar/pkg/lifecycle"
	"github.com/JaimeStill/caesar/pkg/messaging"
)

// Consumer pulls classifications from JetStream and runs them through a
// Processor on a fixed pool of workers.
//
// A message is acked once processing succeeds and terminated when a retry
// cannot help (see terminal). Any other failure is negatively acked with a
// delay so the broker redelivers it.
type Consumer struct {
	js        nats.JetStreamContext
	cfg       *messaging.Config
	processor classifications.Processor
	limiter   *rate.Limiter
	logger    *slog.Logger
	ready     atomic.Bool
	done      chan struct{}
}

// NewConsumer creates a Consumer. A zero RateLimit leaves processing unthrottled.
func NewConsumer(
	js nats.JetStreamContext,
	cfg *messaging.Config,
	processor classifications.Processor,
	logger *slog.Logger,
) *Consumer {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	return &Consumer{
		js:        js,
		cfg:       cfg,
		processor: processor,
		limiter:   rate.NewLimiter(limit, cfg.RateBurst),
		logger:    logger.With("consumer", cfg.Durable),
		done:      make(chan struct{}),
	}
}

// Ready reports whether the consumer is bound and fetching.
func (c *Consumer) Ready() bool {
	return c.ready.Load()
}

// Start ensures the stream and consumer exist on startup, then runs the
// fetch loop until the coordinator shuts down.
func (c *Consumer) Start(lc *lifecycle.Coordinator) error {
	c.logger.Info("starting classification consumer", "workers", c.cfg.Workers)

	lc.OnStartup(func() {
		if _, err := EnsureStream(c.js, c.cfg); err != nil {
			c.logger.Error("stream setup failed", "error", err)
			close(c.done)
			return
		}

		go func() {
			defer close(c.done)
			if err := c.Run(lc.Context()); err != nil {
				c.logger.Error("consumer stopped", "error", err)
			}
		}()
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		<-c.done
		c.logger.Info("classification consumer stopped")
	})

	return nil
}

// Run binds to the durable consumer and processes messages until ctx is done.
// Messages still in flight at cancellation are redelivered after AckWait.
func (c *Consumer) Run(ctx context.Context) error {
	if _, err := EnsureConsumer(c.js, c.cfg); err != nil {
		return err
	}

	sub, err := c.js.PullSubscribe(
		c.cfg.Subject(ClassificationsToken),
		c.cfg.Durable,
		nats.Bind(c.cfg.Stream, c.cfg.Durable),
	)
	if err != nil {
		return fmt.Errorf("bind consumer %s: %w", c.cfg.Durable, err)
	}
	defer sub.Unsubscribe()

	c.ready.Store(true)
	defer c.ready.Store(false)

	msgs := make(chan *nats.Msg)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(msgs)
		return c.fetch(gctx, sub, msgs)
	})

	for range c.cfg.Workers {
		g.Go(func() error {
			for msg := range msgs {
				if err := c.limiter.Wait(gctx); err != nil {
					return nil
				}
				c.handle(gctx, msg)
			}
			return nil
		})
	}

	return g.Wait()
}

func (c *Consumer) fetch(ctx context.Context, sub *nats.Subscription, out chan<- *nats.Msg) error {
	wait := c.cfg.FetchWaitDuration()

	for {
		if ctx.Err() != nil {
			return nil
		}

		fctx, cancel := context.WithTimeout(ctx, wait)
		batch, err := sub.Fetch(c.cfg.FetchBatch, nats.Context(fctx))
		cancel()

		switch {
		case err == nil:
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, nats.ErrTimeout):
			continue
		case errors.Is(err, nats.ErrConnectionClosed), errors.Is(err, nats.ErrBadSubscription):
			return fmt.Errorf("fetch: %w", err)
		default:
			c.logger.Warn("fetch failed", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(wait):
			}
			continue
		}

		for _, msg := range batch {
			select {
			case out <- msg:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg *nats.Msg) {
	var delivered uint64
	if meta, err := msg.Metadata(); err == nil {
		delivered = meta.NumDelivered
	}

	cl, err := classifications.Decode(msg.Data)
	if err != nil {
		c.logger.Error("dropping malformed classification", "delivered", delivered, "error", err)
		c.settle(msg.Term())
		return
	}

	logger := c.logger.With(
		"classification_id", cl.ID,
		"workflow_id", cl.WorkflowID,
		"subject_id", cl.SubjectID,
		"delivered", delivered,
	)

	err = c.processor.Process(ctx, cl)
	switch {
	case err == nil:
		c.settle(msg.Ack())
	case terminal(err):
		logger.Error("dropping classification", "error", err)
		c.settle(msg.Term())
	default:
		logger.Warn("classification failed, redelivering", "delay", c.cfg.NakDelay, "error", err)
		c.settle(msg.NakWithDelay(c.cfg.NakDelayDuration()))
	}
}

func (c *Consumer) settle(err error) {
	if err != nil {
		c.logger.Warn("ack failed", "error", err)
	}
}

func terminal(err error) bool {
	return errors.Is(err, classifications.ErrInvalid) ||
		errors.Is(err, workflows.ErrInvalidConfig) ||
		errors.Is(err, ErrInvalidAction)
}

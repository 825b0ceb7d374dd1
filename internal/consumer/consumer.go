package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/boardpulse/boardpulse/internal/event"
	ikafka "github.com/boardpulse/boardpulse/internal/kafka"
	"github.com/boardpulse/boardpulse/internal/metrics"
	"github.com/boardpulse/boardpulse/internal/model"
)

// Fetcher is the slice of the broker client a receive loop needs.
type Fetcher interface {
	Fetch(ctx context.Context) (ikafka.Message, error)
	Commit(ctx context.Context, m ikafka.Message) error
	Close() error
}

type Config struct {
	Brokers        []string
	Topic          string
	MinBytes       int
	MaxBytes       int
	HandlerRetries int           // extra attempts after the first handler failure
	RetryBackoff   time.Duration // wait between handler attempts
}

// Handler processes one decoded event. An error after all retry attempts
// drops the message without redelivery.
type Handler func(ctx context.Context, ev model.DomainEvent) error

// Engine owns one receive loop per subscribed event type. Each loop has its
// own consumer group ({queuePrefix}.{EventType}) on the shared topic, so every
// subscribing service sees every event independently; instances sharing a
// prefix compete for messages within that group.
type Engine struct {
	cfg Config
	reg *event.Registry
	log *zap.Logger

	// dial is swapped in tests.
	dial func(groupID string) Fetcher

	wg sync.WaitGroup
}

func New(cfg Config, reg *event.Registry, log *zap.Logger) *Engine {
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 500 * time.Millisecond
	}
	e := &Engine{cfg: cfg, reg: reg, log: log}
	e.dial = func(groupID string) Fetcher {
		return ikafka.NewConsumerFromConfig(ikafka.Config{
			Brokers:  cfg.Brokers,
			Topic:    cfg.Topic,
			GroupID:  groupID,
			MinBytes: cfg.MinBytes,
			MaxBytes: cfg.MaxBytes,
		})
	}
	return e
}

// Subscribe starts the receive loop for one event type. An event type missing
// from the registry fails here, at startup, not per message.
func (e *Engine) Subscribe(ctx context.Context, queuePrefix, eventType string, h Handler) error {
	if _, err := e.reg.Classify(eventType); err != nil {
		return fmt.Errorf("subscribe %s: %w", eventType, err)
	}
	groupID := queuePrefix + "." + eventType
	e.wg.Add(1)
	go e.run(ctx, groupID, eventType, h)
	return nil
}

// SubscribeAll subscribes the same handler to a set of event types.
func (e *Engine) SubscribeAll(ctx context.Context, queuePrefix string, types []string, h Handler) error {
	for _, t := range types {
		if err := e.Subscribe(ctx, queuePrefix, t, h); err != nil {
			return err
		}
	}
	return nil
}

// Wait blocks until every receive loop has exited.
func (e *Engine) Wait() { e.wg.Wait() }

func (e *Engine) run(ctx context.Context, groupID, eventType string, h Handler) {
	defer e.wg.Done()

	metrics.ConsumerLoops.Inc()
	defer metrics.ConsumerLoops.Dec()

	log := e.log.With(zap.String("queue", groupID))
	f := e.dial(groupID)
	defer func() { _ = f.Close() }()

	log.Info("subscription loop started")

	// Fetch errors (including broker unreachable at startup) back off and
	// retry instead of killing the loop.
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		m, err := f.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("subscription loop stopped")
				return
			}
			log.Warn("fetch failed", zap.Error(err))
			if !sleep(ctx, backoff) {
				return
			}
			if backoff *= 2; backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = time.Second

		e.handle(ctx, f, log, eventType, m, h)

		if ctx.Err() != nil {
			log.Info("subscription loop stopped")
			return
		}
	}
}

// handle gives one message exactly one terminal disposition:
// acked, skipped (tag mismatch, handler not invoked), or dropped.
func (e *Engine) handle(ctx context.Context, f Fetcher, log *zap.Logger, eventType string, m ikafka.Message, h Handler) {
	terminal := func(disposition string) {
		if err := f.Commit(ctx, m); err != nil {
			log.Error("commit failed", zap.Error(err))
		}
		metrics.EventsTotal.WithLabelValues(eventType, disposition).Inc()
	}

	var env model.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		log.Warn("undecodable envelope", zap.Error(err))
		terminal("dropped")
		return
	}

	// Every group reads the whole topic; the tag check is the filter.
	if env.Type != eventType {
		terminal("skipped")
		return
	}

	ev, err := e.reg.Decode(env.Type, env.Payload)
	if err != nil {
		// Malformed or empty payloads never change on redelivery.
		log.Warn("payload rejected", zap.String("event", env.Type), zap.Error(err))
		terminal("dropped")
		return
	}

	if err := e.invoke(ctx, h, ev); err != nil {
		log.Error("handler failed, dropping message",
			zap.String("event", env.Type),
			zap.Int("attempts", e.cfg.HandlerRetries+1),
			zap.Error(err))
		terminal("dropped")
		return
	}

	terminal("acked")
}

// invoke runs the handler with bounded in-loop retry. Retry covers transient
// downstream failures (a store blip); the payload classes that can never
// succeed are rejected before we get here.
func (e *Engine) invoke(ctx context.Context, h Handler, ev model.DomainEvent) error {
	attempts := e.cfg.HandlerRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 && !sleep(ctx, e.cfg.RetryBackoff) {
			return err
		}
		if err = e.call(ctx, h, ev); err == nil {
			return nil
		}
	}
	return err
}

// call isolates handler panics from the receive loop.
func (e *Engine) call(ctx context.Context, h Handler, ev model.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, ev)
}

// sleep waits d or until ctx is done; reports whether the full wait elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

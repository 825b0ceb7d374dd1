package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/boardpulse/boardpulse/internal/event"
	ikafka "github.com/boardpulse/boardpulse/internal/kafka"
	"github.com/boardpulse/boardpulse/internal/model"
)

type fakeFetcher struct {
	msgs chan ikafka.Message

	mu      sync.Mutex
	commits int
	closed  bool
}

func newFakeFetcher(buf int) *fakeFetcher {
	return &fakeFetcher{msgs: make(chan ikafka.Message, buf)}
}

func (f *fakeFetcher) Fetch(ctx context.Context) (ikafka.Message, error) {
	select {
	case m := <-f.msgs:
		return m, nil
	case <-ctx.Done():
		return ikafka.Message{}, ctx.Err()
	}
}

func (f *fakeFetcher) Commit(ctx context.Context, m ikafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commits++
	return nil
}

func (f *fakeFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeFetcher) commitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.commits
}

func envelopeMsg(t *testing.T, typ, payload string) ikafka.Message {
	t.Helper()
	value, err := json.Marshal(model.Envelope{Type: typ, Payload: json.RawMessage(payload)})
	require.NoError(t, err)
	return ikafka.Message{Value: value}
}

func newTestEngine(retries int) *Engine {
	return New(Config{
		HandlerRetries: retries,
		RetryBackoff:   time.Millisecond,
	}, event.NewRegistry(), zap.NewNop())
}

func TestHandleAcksOnSuccess(t *testing.T) {
	e := newTestEngine(0)
	f := newFakeFetcher(1)

	var got model.DomainEvent
	h := func(ctx context.Context, ev model.DomainEvent) error {
		got = ev
		return nil
	}

	msg := envelopeMsg(t, model.EventBoardCreated, `{"workspaceId":"W1","boardId":"B1","actorUserId":"U1","name":"Roadmap"}`)
	e.handle(context.Background(), f, zap.NewNop(), model.EventBoardCreated, msg, h)

	assert.Equal(t, 1, f.commitCount())
	require.NotNil(t, got)
	bc, ok := got.(model.BoardCreated)
	require.True(t, ok)
	assert.Equal(t, "W1", bc.WorkspaceID)
}

func TestHandleSkipsMismatchedTag(t *testing.T) {
	e := newTestEngine(0)
	f := newFakeFetcher(1)

	calls := 0
	h := func(ctx context.Context, ev model.DomainEvent) error {
		calls++
		return nil
	}

	// A CardCreated envelope arriving on the BoardCreated subscription must
	// be acknowledged without invoking the handler.
	msg := envelopeMsg(t, model.EventCardCreated, `{"workspaceId":"W1","boardId":"B1","listId":"L1","cardId":"C1","actorUserId":"U1","title":"x"}`)
	e.handle(context.Background(), f, zap.NewNop(), model.EventBoardCreated, msg, h)

	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, f.commitCount())
}

func TestHandleDropsUndecodableEnvelope(t *testing.T) {
	e := newTestEngine(0)
	f := newFakeFetcher(1)

	calls := 0
	h := func(ctx context.Context, ev model.DomainEvent) error {
		calls++
		return nil
	}

	e.handle(context.Background(), f, zap.NewNop(), model.EventBoardCreated, ikafka.Message{Value: []byte("not json")}, h)

	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, f.commitCount())
}

func TestHandleDropsMalformedPayload(t *testing.T) {
	e := newTestEngine(3)
	f := newFakeFetcher(1)

	calls := 0
	h := func(ctx context.Context, ev model.DomainEvent) error {
		calls++
		return nil
	}

	msg := envelopeMsg(t, model.EventBoardCreated, `"a string, not an object"`)
	e.handle(context.Background(), f, zap.NewNop(), model.EventBoardCreated, msg, h)

	// No retry for payloads that can never decode.
	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, f.commitCount())
}

func TestHandleDropsEmptyPayload(t *testing.T) {
	e := newTestEngine(0)
	f := newFakeFetcher(1)

	calls := 0
	h := func(ctx context.Context, ev model.DomainEvent) error {
		calls++
		return nil
	}

	msg := envelopeMsg(t, model.EventBoardCreated, `{}`)
	e.handle(context.Background(), f, zap.NewNop(), model.EventBoardCreated, msg, h)

	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, f.commitCount())
}

func TestHandlerFailureRetriesThenDrops(t *testing.T) {
	e := newTestEngine(2)
	f := newFakeFetcher(1)

	calls := 0
	h := func(ctx context.Context, ev model.DomainEvent) error {
		calls++
		return errors.New("store down")
	}

	msg := envelopeMsg(t, model.EventBoardCreated, `{"workspaceId":"W1","boardId":"B1","actorUserId":"U1","name":"x"}`)
	e.handle(context.Background(), f, zap.NewNop(), model.EventBoardCreated, msg, h)

	// first attempt + 2 retries, then exactly one terminal disposition
	assert.Equal(t, 3, calls)
	assert.Equal(t, 1, f.commitCount())
}

func TestHandlerRecoversAfterTransientFailure(t *testing.T) {
	e := newTestEngine(2)
	f := newFakeFetcher(1)

	calls := 0
	h := func(ctx context.Context, ev model.DomainEvent) error {
		calls++
		if calls == 1 {
			return errors.New("blip")
		}
		return nil
	}

	msg := envelopeMsg(t, model.EventBoardCreated, `{"workspaceId":"W1","boardId":"B1","actorUserId":"U1","name":"x"}`)
	e.handle(context.Background(), f, zap.NewNop(), model.EventBoardCreated, msg, h)

	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, f.commitCount())
}

func TestHandlerPanicIsContained(t *testing.T) {
	e := newTestEngine(0)
	f := newFakeFetcher(1)

	h := func(ctx context.Context, ev model.DomainEvent) error {
		panic("boom")
	}

	msg := envelopeMsg(t, model.EventBoardCreated, `{"workspaceId":"W1","boardId":"B1","actorUserId":"U1","name":"x"}`)
	require.NotPanics(t, func() {
		e.handle(context.Background(), f, zap.NewNop(), model.EventBoardCreated, msg, h)
	})
	assert.Equal(t, 1, f.commitCount())
}

func TestSubscribeRejectsUnknownEventType(t *testing.T) {
	e := newTestEngine(0)

	err := e.Subscribe(context.Background(), "activity", "UnknownThing", func(ctx context.Context, ev model.DomainEvent) error {
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, event.ErrUnrecognized)
}

func TestSubscriptionLoopProcessesAndStops(t *testing.T) {
	e := newTestEngine(0)
	f := newFakeFetcher(4)
	e.dial = func(groupID string) Fetcher {
		assert.Equal(t, "activity.BoardCreated", groupID)
		return f
	}

	var mu sync.Mutex
	var handled []string
	h := func(ctx context.Context, ev model.DomainEvent) error {
		mu.Lock()
		defer mu.Unlock()
		handled = append(handled, ev.EventType())
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, e.Subscribe(ctx, "activity", model.EventBoardCreated, h))

	f.msgs <- envelopeMsg(t, model.EventBoardCreated, `{"workspaceId":"W1","boardId":"B1","actorUserId":"U1","name":"a"}`)
	f.msgs <- envelopeMsg(t, model.EventBoardCreated, `{"workspaceId":"W1","boardId":"B2","actorUserId":"U1","name":"b"}`)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(handled) == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	e.Wait()

	assert.Equal(t, 2, f.commitCount())
	f.mu.Lock()
	assert.True(t, f.closed)
	f.mu.Unlock()
}

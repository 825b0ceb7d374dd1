package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/boardpulse/boardpulse/internal/model"
)

var (
	// ErrUnrecognized means the type tag has no registered mapping. This is a
	// configuration/protocol defect, never silently defaulted.
	ErrUnrecognized = errors.New("unrecognized event type")
	// ErrBadPayload means the payload bytes do not decode into the expected
	// structure. Redelivery cannot fix the bytes, so it is terminal.
	ErrBadPayload = errors.New("malformed event payload")
	// ErrEmptyPayload means the payload decoded cleanly but carries no
	// workspace scope, i.e. a semantically empty event. Also terminal.
	ErrEmptyPayload = errors.New("empty event payload")
)

type entry struct {
	kind   model.ActivityKind
	decode func([]byte) (model.DomainEvent, error)
}

// Registry maps event-type names to their activity classification and typed
// decoder. It is populated once at startup and read-only afterwards, so it
// needs no locking.
type Registry struct {
	entries map[string]entry
}

// NewRegistry builds the full mapping for every event type this pipeline
// handles. Subscriptions are derived from this table, so an event type that
// is not here cannot be subscribed in the first place.
func NewRegistry() *Registry {
	r := &Registry{entries: make(map[string]entry)}
	register[model.WorkspaceCreated](r, model.KindWorkspaceCreated)
	register[model.BoardCreated](r, model.KindBoardCreated)
	register[model.BoardUpdated](r, model.KindBoardUpdated)
	register[model.ListCreated](r, model.KindListCreated)
	register[model.CardCreated](r, model.KindCardCreated)
	register[model.CardUpdated](r, model.KindCardUpdated)
	register[model.CardMoved](r, model.KindCardMoved)
	register[model.CardAssigned](r, model.KindCardAssigned)
	register[model.CommentAdded](r, model.KindCommentAdded)
	register[model.MemberAdded](r, model.KindMemberAdded)
	return r
}

func register[T model.DomainEvent](r *Registry, kind model.ActivityKind) {
	var zero T
	name := zero.EventType()
	r.entries[name] = entry{
		kind: kind,
		decode: func(b []byte) (model.DomainEvent, error) {
			var ev T
			if err := json.Unmarshal(b, &ev); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
			}
			if ev.Scope().WorkspaceID == "" {
				return nil, ErrEmptyPayload
			}
			return ev, nil
		},
	}
}

// Classify resolves an event-type name to its activity kind.
func (r *Registry) Classify(name string) (model.ActivityKind, error) {
	e, ok := r.entries[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnrecognized, name)
	}
	return e.kind, nil
}

// Decode parses the payload of the named event type into its structural form.
func (r *Registry) Decode(name string, payload []byte) (model.DomainEvent, error) {
	e, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnrecognized, name)
	}
	return e.decode(payload)
}

// Types returns every registered event-type name, sorted.
func (r *Registry) Types() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package activity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/boardpulse/boardpulse/internal/metrics"
	"github.com/boardpulse/boardpulse/internal/model"
	"github.com/boardpulse/boardpulse/internal/repository"
	"github.com/boardpulse/boardpulse/internal/util"
)

const DefaultMaxPageSize = 100

var (
	ErrMissingWorkspace = errors.New("activity: workspace id is required")
	ErrMissingKind      = errors.New("activity: kind is required")
)

// Service is the append-only activity ledger. Append never fails for
// business reasons, only for storage unavailability.
type Service struct {
	repo        repository.ActivitiesRepository
	maxPageSize int
}

func New(repo repository.ActivitiesRepository, maxPageSize int) *Service {
	if maxPageSize <= 0 {
		maxPageSize = DefaultMaxPageSize
	}
	return &Service{repo: repo, maxPageSize: maxPageSize}
}

// Append validates required fields, assigns the identifier and creation
// timestamp, and persists the record. The stored record is returned.
func (s *Service) Append(ctx context.Context, a model.Activity) (model.Activity, error) {
	if a.WorkspaceID == "" {
		return model.Activity{}, ErrMissingWorkspace
	}
	if a.Kind == "" {
		return model.Activity{}, ErrMissingKind
	}

	a.ID = util.NewID()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	a.UpdatedAt = a.CreatedAt

	if err := s.repo.Insert(ctx, nil, a); err != nil {
		return model.Activity{}, fmt.Errorf("append activity: %w", err)
	}
	metrics.ActivitiesAppended.Inc()
	return a, nil
}

// FromEvent builds the ledger record for a classified domain event.
func FromEvent(ev model.DomainEvent, kind model.ActivityKind) model.Activity {
	sc := ev.Scope()
	a := model.Activity{
		WorkspaceID: sc.WorkspaceID,
		Kind:        kind,
		Description: ev.Describe(),
	}
	a.BoardID = optional(sc.BoardID)
	a.ListID = optional(sc.ListID)
	a.CardID = optional(sc.CardID)
	a.UserID = optional(ev.Actor())
	return a
}

func (s *Service) ListByWorkspace(ctx context.Context, id string, page, pageSize int) ([]model.Activity, error) {
	limit, offset := s.pageBounds(page, pageSize)
	return s.repo.ListByWorkspace(ctx, id, limit, offset)
}

func (s *Service) ListByBoard(ctx context.Context, id string, page, pageSize int) ([]model.Activity, error) {
	limit, offset := s.pageBounds(page, pageSize)
	return s.repo.ListByBoard(ctx, id, limit, offset)
}

func (s *Service) ListByList(ctx context.Context, id string, page, pageSize int) ([]model.Activity, error) {
	limit, offset := s.pageBounds(page, pageSize)
	return s.repo.ListByList(ctx, id, limit, offset)
}

func (s *Service) ListByCard(ctx context.Context, id string, page, pageSize int) ([]model.Activity, error) {
	limit, offset := s.pageBounds(page, pageSize)
	return s.repo.ListByCard(ctx, id, limit, offset)
}

func (s *Service) ListByUser(ctx context.Context, id string, page, pageSize int) ([]model.Activity, error) {
	limit, offset := s.pageBounds(page, pageSize)
	return s.repo.ListByUser(ctx, id, limit, offset)
}

// pageBounds coerces page to >= 1 and clamps pageSize server-side.
func (s *Service) pageBounds(page, pageSize int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}
	if pageSize > s.maxPageSize {
		pageSize = s.maxPageSize
	}
	return pageSize, (page - 1) * pageSize
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

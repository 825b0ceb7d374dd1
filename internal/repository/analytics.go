package repository

import (
	"context"

	"github.com/boardpulse/boardpulse/internal/model"
	"github.com/jmoiron/sqlx"
)

// AnalyticsRepository mirrors activity records into ClickHouse and serves the
// per-workspace report. The mirror is best-effort: callers log insert
// failures instead of failing the event handler.
type AnalyticsRepository interface {
	InsertActivity(ctx context.Context, a model.Activity) error
	WorkspaceDailyCounts(ctx context.Context, workspaceID string, days int) ([]model.ActivityDailyCount, error)
}

type analyticsRepository struct {
	ch *sqlx.DB // ClickHouse connection
}

func NewAnalyticsRepository(ch *sqlx.DB) AnalyticsRepository {
	return &analyticsRepository{ch: ch}
}

func (r *analyticsRepository) InsertActivity(ctx context.Context, a model.Activity) error {
	const q = `
		INSERT INTO boardpulse.activity_events
		    (id, workspace_id, board_id, card_id, user_id, kind, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.ch.ExecContext(ctx, q,
		a.ID, a.WorkspaceID, deref(a.BoardID), deref(a.CardID), deref(a.UserID),
		a.Kind.String(), a.CreatedAt,
	)
	return err
}

func (r *analyticsRepository) WorkspaceDailyCounts(ctx context.Context, workspaceID string, days int) ([]model.ActivityDailyCount, error) {
	if days <= 0 || days > 90 {
		days = 30
	}

	const q = `
		SELECT toDate(created_at) AS day, kind, count() AS count
		FROM boardpulse.activity_events
		WHERE workspace_id = ? AND created_at >= now() - INTERVAL ? DAY
		GROUP BY day, kind
		ORDER BY day DESC, kind
	`
	var rows []model.ActivityDailyCount
	if err := r.ch.SelectContext(ctx, &rows, q, workspaceID, days); err != nil {
		return nil, err
	}
	return rows, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

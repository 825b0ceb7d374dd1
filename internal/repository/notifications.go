package repository

import (
	"context"

	"github.com/boardpulse/boardpulse/internal/model"
	"github.com/jmoiron/sqlx"
)

// NotificationsRepository defines persistence for the notifications table.
// Rows are created by the fan-out path; the only mutation is the recipient
// marking their own row read.
type NotificationsRepository interface {
	Insert(ctx context.Context, tx *sqlx.Tx, n model.Notification) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	// MarkRead flips read_flag on the recipient's own row; a foreign id or
	// foreign user is a no-op, not an error.
	MarkRead(ctx context.Context, userID, id string) error
}

type NotificationsRepositoryImpl struct {
	db *sqlx.DB
}

func NewNotificationsRepository(db *sqlx.DB) *NotificationsRepositoryImpl {
	return &NotificationsRepositoryImpl{db: db}
}

func (r *NotificationsRepositoryImpl) withTx(ctx context.Context, tx *sqlx.Tx, fn func(*sqlx.Tx) error) error {
	if tx != nil {
		return fn(tx)
	}
	t, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = t.Rollback() }()
	if err := fn(t); err != nil {
		return err
	}
	return t.Commit()
}

func (r *NotificationsRepositoryImpl) Insert(ctx context.Context, tx *sqlx.Tx, n model.Notification) error {
	const q = `
		INSERT INTO notifications
		    (id, user_id, kind, title, message, data, read_flag, workspace_id, board_id, list_id, card_id, related_user_id, created_at)
		VALUES
		    (?,  ?,       ?,    ?,     ?,       ?,    0,         ?,            ?,        ?,       ?,       ?,               ?)
	`
	return r.withTx(ctx, tx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, q,
			n.ID, n.UserID, n.Kind.String(), n.Title, n.Message, nullableJSON(n.Data),
			n.WorkspaceID, n.BoardID, n.ListID, n.CardID, n.RelatedUserID, n.CreatedAt,
		)
		return err
	})
}

func (r *NotificationsRepositoryImpl) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Notification, error) {
	const q = `
		SELECT id, user_id, kind, title, message, data, read_flag, workspace_id, board_id, list_id, card_id, related_user_id, created_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`
	rows := []model.Notification{}
	if err := r.db.SelectContext(ctx, &rows, q, userID, limit, offset); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *NotificationsRepositoryImpl) UnreadCount(ctx context.Context, userID string) (int64, error) {
	const q = `SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read_flag = 0`
	var n int64
	if err := r.db.GetContext(ctx, &n, q, userID); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *NotificationsRepositoryImpl) MarkRead(ctx context.Context, userID, id string) error {
	const q = `UPDATE notifications SET read_flag = 1 WHERE id = ? AND user_id = ?`
	_, err := r.db.ExecContext(ctx, q, id, userID)
	return err
}

package repository

import (
	"context"

	"github.com/boardpulse/boardpulse/internal/model"
	"github.com/jmoiron/sqlx"
)

// ActivitiesRepository defines persistence for the append-only activities
// table. There is no update or delete: rows are immutable once committed.
type ActivitiesRepository interface {
	// Insert writes one activity row. If tx is nil, it opens and commits an
	// internal transaction; otherwise it uses the given tx.
	Insert(ctx context.Context, tx *sqlx.Tx, a model.Activity) error
	ListByWorkspace(ctx context.Context, workspaceID string, limit, offset int) ([]model.Activity, error)
	ListByBoard(ctx context.Context, boardID string, limit, offset int) ([]model.Activity, error)
	ListByList(ctx context.Context, listID string, limit, offset int) ([]model.Activity, error)
	ListByCard(ctx context.Context, cardID string, limit, offset int) ([]model.Activity, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Activity, error)
}

type ActivitiesRepositoryImpl struct {
	db *sqlx.DB
}

func NewActivitiesRepository(db *sqlx.DB) *ActivitiesRepositoryImpl {
	return &ActivitiesRepositoryImpl{db: db}
}

func (r *ActivitiesRepositoryImpl) withTx(ctx context.Context, tx *sqlx.Tx, fn func(*sqlx.Tx) error) error {
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

func (r *ActivitiesRepositoryImpl) Insert(ctx context.Context, tx *sqlx.Tx, a model.Activity) error {
	const q = `
		INSERT INTO activities
		    (id, workspace_id, board_id, list_id, card_id, user_id, kind, description, metadata, created_at, updated_at)
		VALUES
		    (?,  ?,            ?,        ?,       ?,       ?,       ?,    ?,           ?,        ?,          ?)
	`
	return r.withTx(ctx, tx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, q,
			a.ID, a.WorkspaceID, a.BoardID, a.ListID, a.CardID, a.UserID,
			a.Kind.String(), a.Description, nullableJSON(a.Metadata), a.CreatedAt, a.CreatedAt,
		)
		return err
	})
}

// listBy runs the shared scope query. column comes from the fixed set below,
// never from caller input.
func (r *ActivitiesRepositoryImpl) listBy(ctx context.Context, column, id string, limit, offset int) ([]model.Activity, error) {
	q := `
		SELECT id, workspace_id, board_id, list_id, card_id, user_id, kind, description, metadata, created_at, updated_at
		FROM activities
		WHERE ` + column + ` = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`
	rows := []model.Activity{}
	if err := r.db.SelectContext(ctx, &rows, q, id, limit, offset); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ActivitiesRepositoryImpl) ListByWorkspace(ctx context.Context, workspaceID string, limit, offset int) ([]model.Activity, error) {
	return r.listBy(ctx, "workspace_id", workspaceID, limit, offset)
}

func (r *ActivitiesRepositoryImpl) ListByBoard(ctx context.Context, boardID string, limit, offset int) ([]model.Activity, error) {
	return r.listBy(ctx, "board_id", boardID, limit, offset)
}

func (r *ActivitiesRepositoryImpl) ListByList(ctx context.Context, listID string, limit, offset int) ([]model.Activity, error) {
	return r.listBy(ctx, "list_id", listID, limit, offset)
}

func (r *ActivitiesRepositoryImpl) ListByCard(ctx context.Context, cardID string, limit, offset int) ([]model.Activity, error) {
	return r.listBy(ctx, "card_id", cardID, limit, offset)
}

func (r *ActivitiesRepositoryImpl) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Activity, error) {
	return r.listBy(ctx, "user_id", userID, limit, offset)
}

// nullableJSON maps an absent JSON blob to SQL NULL instead of an empty blob.
func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return []byte(b)
}

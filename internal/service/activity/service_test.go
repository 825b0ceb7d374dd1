package activity

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boardpulse/boardpulse/internal/model"
)

type fakeActivitiesRepo struct {
	inserted []model.Activity

	lastColumn string
	lastID     string
	lastLimit  int
	lastOffset int
	rows       []model.Activity
	err        error
}

func (f *fakeActivitiesRepo) Insert(ctx context.Context, tx *sqlx.Tx, a model.Activity) error {
	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, a)
	return nil
}

func (f *fakeActivitiesRepo) list(column, id string, limit, offset int) ([]model.Activity, error) {
	f.lastColumn, f.lastID, f.lastLimit, f.lastOffset = column, id, limit, offset
	return f.rows, f.err
}

func (f *fakeActivitiesRepo) ListByWorkspace(ctx context.Context, id string, limit, offset int) ([]model.Activity, error) {
	return f.list("workspace_id", id, limit, offset)
}
func (f *fakeActivitiesRepo) ListByBoard(ctx context.Context, id string, limit, offset int) ([]model.Activity, error) {
	return f.list("board_id", id, limit, offset)
}
func (f *fakeActivitiesRepo) ListByList(ctx context.Context, id string, limit, offset int) ([]model.Activity, error) {
	return f.list("list_id", id, limit, offset)
}
func (f *fakeActivitiesRepo) ListByCard(ctx context.Context, id string, limit, offset int) ([]model.Activity, error) {
	return f.list("card_id", id, limit, offset)
}
func (f *fakeActivitiesRepo) ListByUser(ctx context.Context, id string, limit, offset int) ([]model.Activity, error) {
	return f.list("user_id", id, limit, offset)
}

func TestAppendAssignsIDAndTimestamp(t *testing.T) {
	repo := &fakeActivitiesRepo{}
	svc := New(repo, 0)

	stored, err := svc.Append(context.Background(), model.Activity{
		WorkspaceID: "W1",
		Kind:        model.KindBoardCreated,
		Description: "created board",
	})
	require.NoError(t, err)

	assert.Len(t, stored.ID, 26) // ULID
	assert.False(t, stored.CreatedAt.IsZero())
	assert.Equal(t, stored.CreatedAt, stored.UpdatedAt)
	require.Len(t, repo.inserted, 1)
	assert.Equal(t, stored, repo.inserted[0])
}

func TestAppendRequiresWorkspace(t *testing.T) {
	svc := New(&fakeActivitiesRepo{}, 0)

	_, err := svc.Append(context.Background(), model.Activity{Kind: model.KindBoardCreated})
	assert.ErrorIs(t, err, ErrMissingWorkspace)
}

func TestAppendRequiresKind(t *testing.T) {
	svc := New(&fakeActivitiesRepo{}, 0)

	_, err := svc.Append(context.Background(), model.Activity{WorkspaceID: "W1"})
	assert.ErrorIs(t, err, ErrMissingKind)
}

func TestFromEventMapsScope(t *testing.T) {
	ev := model.CardCreated{
		WorkspaceID: "W1",
		BoardID:     "B1",
		ListID:      "L1",
		CardID:      "C1",
		ActorUserID: "U1",
		Title:       "write tests",
	}

	a := FromEvent(ev, model.KindCardCreated)

	assert.Equal(t, "W1", a.WorkspaceID)
	require.NotNil(t, a.BoardID)
	assert.Equal(t, "B1", *a.BoardID)
	require.NotNil(t, a.ListID)
	assert.Equal(t, "L1", *a.ListID)
	require.NotNil(t, a.CardID)
	assert.Equal(t, "C1", *a.CardID)
	require.NotNil(t, a.UserID)
	assert.Equal(t, "U1", *a.UserID)
	assert.Equal(t, model.KindCardCreated, a.Kind)
}

func TestFromEventLeavesAbsentScopeNil(t *testing.T) {
	ev := model.WorkspaceCreated{WorkspaceID: "W1", Name: "acme"}

	a := FromEvent(ev, model.KindWorkspaceCreated)

	assert.Nil(t, a.BoardID)
	assert.Nil(t, a.ListID)
	assert.Nil(t, a.CardID)
	assert.Nil(t, a.UserID) // system-generated, no actor
}

func TestListPagination(t *testing.T) {
	repo := &fakeActivitiesRepo{}
	svc := New(repo, 0)

	_, err := svc.ListByWorkspace(context.Background(), "W1", 2, 10)
	require.NoError(t, err)
	assert.Equal(t, "workspace_id", repo.lastColumn)
	assert.Equal(t, 10, repo.lastLimit)
	assert.Equal(t, 10, repo.lastOffset)
}

func TestListClampsPageSize(t *testing.T) {
	repo := &fakeActivitiesRepo{}
	svc := New(repo, 100)

	_, err := svc.ListByBoard(context.Background(), "B1", 1, 5000)
	require.NoError(t, err)
	assert.Equal(t, 100, repo.lastLimit)
	assert.Equal(t, 0, repo.lastOffset)
}

func TestListCoercesBadPage(t *testing.T) {
	repo := &fakeActivitiesRepo{}
	svc := New(repo, 0)

	_, err := svc.ListByCard(context.Background(), "C1", -3, 0)
	require.NoError(t, err)
	assert.Equal(t, 50, repo.lastLimit) // default page size
	assert.Equal(t, 0, repo.lastOffset)
}

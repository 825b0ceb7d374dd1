package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/boardpulse/boardpulse/internal/model"
	"github.com/boardpulse/boardpulse/internal/ws"
)

type fakeNotificationsRepo struct {
	inserted  []model.Notification
	insertErr error

	unread    int64
	marked    [][2]string // userID, id
	listCalls int
}

func (f *fakeNotificationsRepo) Insert(ctx context.Context, tx *sqlx.Tx, n model.Notification) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, n)
	return nil
}

func (f *fakeNotificationsRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Notification, error) {
	f.listCalls++
	return nil, nil
}

func (f *fakeNotificationsRepo) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return f.unread, nil
}

func (f *fakeNotificationsRepo) MarkRead(ctx context.Context, userID, id string) error {
	f.marked = append(f.marked, [2]string{userID, id})
	return nil
}

// fakePusher records pushes in order, so tests can assert persist-then-push.
type fakePusher struct {
	order []string // "insert" entries come from the repo wrapper below
	pushes []push
}

type push struct {
	group   string
	payload []byte
	exclude string
}

func (f *fakePusher) Broadcast(group string, payload []byte, exclude ...string) {
	f.order = append(f.order, "push:"+group)
	f.pushes = append(f.pushes, push{group: group, payload: payload})
}

func (f *fakePusher) BroadcastExceptUser(group string, payload []byte, userID string) {
	f.order = append(f.order, "push:"+group)
	f.pushes = append(f.pushes, push{group: group, payload: payload, exclude: userID})
}

// orderedRepo tags insert order into the shared pusher's log.
type orderedRepo struct {
	fakeNotificationsRepo
	pusher *fakePusher
}

func (r *orderedRepo) Insert(ctx context.Context, tx *sqlx.Tx, n model.Notification) error {
	r.pusher.order = append(r.pusher.order, "insert")
	return r.fakeNotificationsRepo.Insert(ctx, tx, n)
}

func newTestService(repo *orderedRepo, pusher *fakePusher) *Service {
	return New(repo, pusher, nil, 0, zap.NewNop())
}

func TestCreateAndDispatchPersistsBeforePush(t *testing.T) {
	pusher := &fakePusher{}
	repo := &orderedRepo{pusher: pusher}
	svc := newTestService(repo, pusher)

	stored, err := svc.CreateAndDispatch(context.Background(), model.Notification{
		UserID:  "U1",
		Kind:    model.NotifyCardAssigned,
		Title:   "Card assigned to you",
		Message: "x",
	})
	require.NoError(t, err)

	require.Equal(t, []string{"insert", "push:" + ws.UserGroup("U1")}, pusher.order)
	assert.Len(t, stored.ID, 26)
	assert.False(t, stored.Read)
	require.Len(t, repo.inserted, 1)
	assert.Equal(t, stored.ID, repo.inserted[0].ID)
}

func TestCreateAndDispatchPushPayload(t *testing.T) {
	pusher := &fakePusher{}
	repo := &orderedRepo{pusher: pusher}
	svc := newTestService(repo, pusher)

	_, err := svc.CreateAndDispatch(context.Background(), model.Notification{
		UserID: "U1",
		Kind:   model.NotifyCommentAdded,
		Title:  "New comment on your card",
	})
	require.NoError(t, err)

	require.Len(t, pusher.pushes, 1)
	var frame struct {
		Type         string             `json:"type"`
		Notification model.Notification `json:"notification"`
	}
	require.NoError(t, json.Unmarshal(pusher.pushes[0].payload, &frame))
	assert.Equal(t, "notification", frame.Type)
	assert.Equal(t, "U1", frame.Notification.UserID)
}

func TestCreateAndDispatchValidation(t *testing.T) {
	pusher := &fakePusher{}
	repo := &orderedRepo{pusher: pusher}
	svc := newTestService(repo, pusher)

	_, err := svc.CreateAndDispatch(context.Background(), model.Notification{Kind: model.NotifyCardMoved})
	assert.ErrorIs(t, err, ErrMissingRecipient)

	_, err = svc.CreateAndDispatch(context.Background(), model.Notification{UserID: "U1"})
	assert.ErrorIs(t, err, ErrMissingKind)

	assert.Empty(t, pusher.pushes)
}

func TestFailedInsertNeverPushes(t *testing.T) {
	pusher := &fakePusher{}
	repo := &orderedRepo{pusher: pusher}
	repo.insertErr = errors.New("mysql down")
	svc := newTestService(repo, pusher)

	_, err := svc.CreateAndDispatch(context.Background(), model.Notification{
		UserID: "U1",
		Kind:   model.NotifyCardAssigned,
	})
	require.Error(t, err)
	assert.Empty(t, pusher.pushes)
}

func TestDispatchToBoardBroadcastsWithExclusion(t *testing.T) {
	pusher := &fakePusher{}
	repo := &orderedRepo{pusher: pusher}
	svc := newTestService(repo, pusher)

	stored, err := svc.DispatchToBoard(context.Background(), "B1", model.Notification{
		UserID: "U2",
		Kind:   model.NotifyCardAssigned,
	}, "U1")
	require.NoError(t, err)

	require.NotNil(t, stored.BoardID)
	assert.Equal(t, "B1", *stored.BoardID)

	// recipient push first, then the board broadcast excluding the actor
	require.Len(t, pusher.pushes, 2)
	assert.Equal(t, ws.UserGroup("U2"), pusher.pushes[0].group)
	assert.Equal(t, ws.BoardGroup("B1"), pusher.pushes[1].group)
	assert.Equal(t, "U1", pusher.pushes[1].exclude)
}

func TestMarkReadFlipsOwnRow(t *testing.T) {
	pusher := &fakePusher{}
	repo := &orderedRepo{pusher: pusher}
	svc := newTestService(repo, pusher)

	require.NoError(t, svc.MarkRead(context.Background(), "U1", "N1"))
	require.Len(t, repo.marked, 1)
	assert.Equal(t, [2]string{"U1", "N1"}, repo.marked[0])
}

func TestUnreadCountWithoutCache(t *testing.T) {
	pusher := &fakePusher{}
	repo := &orderedRepo{pusher: pusher}
	repo.unread = 7
	svc := newTestService(repo, pusher)

	n, err := svc.UnreadCount(context.Background(), "U1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}

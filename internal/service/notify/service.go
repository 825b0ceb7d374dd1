package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/boardpulse/boardpulse/internal/metrics"
	"github.com/boardpulse/boardpulse/internal/model"
	"github.com/boardpulse/boardpulse/internal/repository"
	"github.com/boardpulse/boardpulse/internal/util"
	"github.com/boardpulse/boardpulse/internal/ws"
)

var (
	ErrMissingRecipient = errors.New("notify: recipient user id is required")
	ErrMissingKind      = errors.New("notify: kind is required")
)

// Pusher is the slice of the connection-group registry the fan-out needs.
type Pusher interface {
	Broadcast(group string, payload []byte, exclude ...string)
	BroadcastExceptUser(group string, payload []byte, userID string)
}

// Service persists notifications and pushes them to live connections.
// Persistence strictly happens-before push: a client never sees a push for a
// notification it cannot then retrieve by query.
type Service struct {
	repo     repository.NotificationsRepository
	groups   Pusher
	rdb      *redis.Client // nil disables the unread-count cache
	cacheTTL time.Duration
	log      *zap.Logger
}

func New(repo repository.NotificationsRepository, groups Pusher, rdb *redis.Client, cacheTTL time.Duration, log *zap.Logger) *Service {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &Service{repo: repo, groups: groups, rdb: rdb, cacheTTL: cacheTTL, log: log}
}

// pushFrame is what goes down the socket for a server-initiated push.
type pushFrame struct {
	Type         string             `json:"type"`
	Notification model.Notification `json:"notification"`
}

// CreateAndDispatch persists n and pushes it to the recipient's user group.
// No live connection in the group is not an error: the row is there for a
// later poll.
func (s *Service) CreateAndDispatch(ctx context.Context, n model.Notification) (model.Notification, error) {
	if n.UserID == "" {
		return model.Notification{}, ErrMissingRecipient
	}
	if n.Kind == "" {
		return model.Notification{}, ErrMissingKind
	}

	n.ID = util.NewID()
	n.Read = false
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	if err := s.repo.Insert(ctx, nil, n); err != nil {
		return model.Notification{}, fmt.Errorf("insert notification: %w", err)
	}
	metrics.NotificationsTotal.WithLabelValues(n.Kind.String()).Inc()
	s.invalidateUnread(ctx, n.UserID)

	s.push(ws.UserGroup(n.UserID), n)
	return n, nil
}

// DispatchToWorkspace persists and pushes to the recipient, then broadcasts
// to the workspace group, excluding excludeUserID's connections.
func (s *Service) DispatchToWorkspace(ctx context.Context, workspaceID string, n model.Notification, excludeUserID string) (model.Notification, error) {
	n.WorkspaceID = &workspaceID
	stored, err := s.CreateAndDispatch(ctx, n)
	if err != nil {
		return model.Notification{}, err
	}
	s.broadcastExcept(ws.WorkspaceGroup(workspaceID), stored, excludeUserID)
	return stored, nil
}

// DispatchToBoard is DispatchToWorkspace at board scope.
func (s *Service) DispatchToBoard(ctx context.Context, boardID string, n model.Notification, excludeUserID string) (model.Notification, error) {
	n.BoardID = &boardID
	stored, err := s.CreateAndDispatch(ctx, n)
	if err != nil {
		return model.Notification{}, err
	}
	s.broadcastExcept(ws.BoardGroup(boardID), stored, excludeUserID)
	return stored, nil
}

func (s *Service) push(group string, n model.Notification) {
	payload, err := json.Marshal(pushFrame{Type: "notification", Notification: n})
	if err != nil {
		s.log.Error("marshal push frame", zap.Error(err))
		return
	}
	s.groups.Broadcast(group, payload)
}

func (s *Service) broadcastExcept(group string, n model.Notification, excludeUserID string) {
	payload, err := json.Marshal(pushFrame{Type: "notification", Notification: n})
	if err != nil {
		s.log.Error("marshal push frame", zap.Error(err))
		return
	}
	// The recipient already got a user-group push.
	s.groups.BroadcastExceptUser(group, payload, excludeUserID)
}

// UnreadCount returns the badge count, redis-cached for a short TTL. Cache
// trouble falls through to MySQL.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	key := unreadKey(userID)
	if s.rdb != nil {
		if v, err := s.rdb.Get(ctx, key).Result(); err == nil {
			if n, perr := strconv.ParseInt(v, 10, 64); perr == nil {
				return n, nil
			}
		}
	}

	n, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		return 0, err
	}

	if s.rdb != nil {
		if err := s.rdb.Set(ctx, key, strconv.FormatInt(n, 10), s.cacheTTL).Err(); err != nil {
			s.log.Debug("unread cache set failed", zap.Error(err))
		}
	}
	return n, nil
}

// MarkRead flips the recipient's own notification and invalidates the badge.
func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	if err := s.repo.MarkRead(ctx, userID, id); err != nil {
		return err
	}
	s.invalidateUnread(ctx, userID)
	return nil
}

func (s *Service) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]model.Notification, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 50
	}
	return s.repo.ListByUser(ctx, userID, pageSize, (page-1)*pageSize)
}

func (s *Service) invalidateUnread(ctx context.Context, userID string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, unreadKey(userID)).Err(); err != nil {
		s.log.Debug("unread cache del failed", zap.Error(err))
	}
}

func unreadKey(userID string) string { return "notify:unread:" + userID }

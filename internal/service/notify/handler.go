package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/boardpulse/boardpulse/internal/model"
	"github.com/boardpulse/boardpulse/internal/ws"
)

// EventTypes is the subset of the registry the notifier service subscribes.
func EventTypes() []string {
	return []string{
		model.EventCardAssigned,
		model.EventCommentAdded,
		model.EventMemberAdded,
		model.EventCardMoved,
		model.EventBoardCreated,
	}
}

// HandleEvent turns one decoded domain event into its notification, persists
// it, and pushes. Events whose recipient is the actor themselves, or has no
// recipient at all, are acked without a record.
func (s *Service) HandleEvent(ctx context.Context, ev model.DomainEvent) error {
	switch e := ev.(type) {
	case model.CardAssigned:
		if e.AssigneeUserID == "" || e.AssigneeUserID == e.ActorUserID {
			return nil
		}
		n := model.Notification{
			UserID:        e.AssigneeUserID,
			Kind:          model.NotifyCardAssigned,
			Title:         "Card assigned to you",
			Message:       fmt.Sprintf("You were assigned %q", e.Title),
			WorkspaceID:   &e.WorkspaceID,
			ListID:        optional(e.ListID),
			CardID:        optional(e.CardID),
			RelatedUserID: optional(e.ActorUserID),
		}
		_, err := s.DispatchToBoard(ctx, e.BoardID, n, e.ActorUserID)
		return err

	case model.CommentAdded:
		if e.OwnerUserID == "" || e.OwnerUserID == e.ActorUserID {
			return nil
		}
		n := model.Notification{
			UserID:        e.OwnerUserID,
			Kind:          model.NotifyCommentAdded,
			Title:         "New comment on your card",
			Message:       e.Excerpt,
			WorkspaceID:   &e.WorkspaceID,
			ListID:        optional(e.ListID),
			CardID:        optional(e.CardID),
			RelatedUserID: optional(e.ActorUserID),
		}
		_, err := s.DispatchToBoard(ctx, e.BoardID, n, e.ActorUserID)
		return err

	case model.MemberAdded:
		if e.MemberUserID == "" || e.MemberUserID == e.ActorUserID {
			return nil
		}
		n := model.Notification{
			UserID:        e.MemberUserID,
			Kind:          model.NotifyMemberAdded,
			Title:         "Added to workspace",
			Message:       fmt.Sprintf("You were added to %q", e.WorkspaceName),
			RelatedUserID: optional(e.ActorUserID),
		}
		_, err := s.DispatchToWorkspace(ctx, e.WorkspaceID, n, e.ActorUserID)
		return err

	case model.CardMoved:
		if e.OwnerUserID == "" || e.OwnerUserID == e.ActorUserID {
			return nil
		}
		n := model.Notification{
			UserID:        e.OwnerUserID,
			Kind:          model.NotifyCardMoved,
			Title:         "Your card was moved",
			Message:       fmt.Sprintf("%q moved to another list", e.Title),
			WorkspaceID:   &e.WorkspaceID,
			ListID:        optional(e.ToListID),
			CardID:        optional(e.CardID),
			RelatedUserID: optional(e.ActorUserID),
		}
		_, err := s.DispatchToBoard(ctx, e.BoardID, n, e.ActorUserID)
		return err

	case model.BoardCreated:
		// No single recipient is derivable without the membership table, so
		// there is no record to persist; live workspace viewers just get a
		// refresh hint.
		frame, err := json.Marshal(map[string]string{
			"type":    "boardCreated",
			"boardId": e.BoardID,
			"name":    e.Name,
		})
		if err != nil {
			return err
		}
		s.groups.BroadcastExceptUser(ws.WorkspaceGroup(e.WorkspaceID), frame, e.ActorUserID)
		return nil

	default:
		s.log.Warn("notifier got unhandled event type", zap.String("event", ev.EventType()))
		return nil
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

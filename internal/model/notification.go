package model

import (
	"encoding/json"
	"time"
)

type NotificationKind string

const (
	NotifyCardAssigned NotificationKind = "card_assigned"
	NotifyCommentAdded NotificationKind = "comment_added"
	NotifyMemberAdded  NotificationKind = "member_added"
	NotifyCardMoved    NotificationKind = "card_moved"
	NotifyBoardCreated NotificationKind = "board_created"
)

func (k NotificationKind) String() string {
	return string(k)
}

// Notification is one deliverable per-user item. Read is the only field that
// ever changes after insert, and only by the recipient.
type Notification struct {
	ID            string           `db:"id" json:"id"`
	UserID        string           `db:"user_id" json:"user_id"`
	Kind          NotificationKind `db:"kind" json:"kind"`
	Title         string           `db:"title" json:"title"`
	Message       string           `db:"message" json:"message"`
	Data          json.RawMessage  `db:"data" json:"data,omitempty"`
	Read          bool             `db:"read_flag" json:"read"`
	WorkspaceID   *string          `db:"workspace_id" json:"workspace_id,omitempty"`
	BoardID       *string          `db:"board_id" json:"board_id,omitempty"`
	ListID        *string          `db:"list_id" json:"list_id,omitempty"`
	CardID        *string          `db:"card_id" json:"card_id,omitempty"`
	RelatedUserID *string          `db:"related_user_id" json:"related_user_id,omitempty"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
}

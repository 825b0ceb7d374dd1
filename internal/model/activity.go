package model

import (
	"encoding/json"
	"time"
)

// ActivityKind classifies an activity record. There is exactly one kind per
// domain event type name, so the wire name doubles as the stored kind.
type ActivityKind string

const (
	KindWorkspaceCreated ActivityKind = "WorkspaceCreated"
	KindBoardCreated     ActivityKind = "BoardCreated"
	KindBoardUpdated     ActivityKind = "BoardUpdated"
	KindListCreated      ActivityKind = "ListCreated"
	KindCardCreated      ActivityKind = "CardCreated"
	KindCardUpdated      ActivityKind = "CardUpdated"
	KindCardMoved        ActivityKind = "CardMoved"
	KindCardAssigned     ActivityKind = "CardAssigned"
	KindCommentAdded     ActivityKind = "CommentAdded"
	KindMemberAdded      ActivityKind = "MemberAdded"
)

func (k ActivityKind) String() string {
	return string(k)
}

// Activity is one immutable audit-log row in the activities table.
// Board/list/card/user references are soft: they narrow the scope but carry
// no foreign-key cascade responsibility.
type Activity struct {
	ID          string          `db:"id" json:"id"`
	WorkspaceID string          `db:"workspace_id" json:"workspace_id"`
	BoardID     *string         `db:"board_id" json:"board_id,omitempty"`
	ListID      *string         `db:"list_id" json:"list_id,omitempty"`
	CardID      *string         `db:"card_id" json:"card_id,omitempty"`
	UserID      *string         `db:"user_id" json:"user_id,omitempty"`
	Kind        ActivityKind    `db:"kind" json:"kind"`
	Description string          `db:"description" json:"description"`
	Metadata    json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"-"`
}

// ActivityDailyCount is one row of the per-workspace report served from
// ClickHouse.
type ActivityDailyCount struct {
	Day   time.Time    `db:"day" json:"day"`
	Kind  ActivityKind `db:"kind" json:"kind"`
	Count uint64       `db:"count" json:"count"`
}

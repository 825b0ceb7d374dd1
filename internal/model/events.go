package model

import "fmt"

// Event type names as published on the shared topic. The tag on the wire
// must match one of these exactly; anything else is unrecognized.
const (
	EventWorkspaceCreated = "WorkspaceCreated"
	EventBoardCreated     = "BoardCreated"
	EventBoardUpdated     = "BoardUpdated"
	EventListCreated      = "ListCreated"
	EventCardCreated      = "CardCreated"
	EventCardUpdated      = "CardUpdated"
	EventCardMoved        = "CardMoved"
	EventCardAssigned     = "CardAssigned"
	EventCommentAdded     = "CommentAdded"
	EventMemberAdded      = "MemberAdded"
)

// Scope pins an event to the workspace/board/list/card hierarchy.
// WorkspaceID is always set on a valid event; the rest are empty when the
// event happened above that level.
type Scope struct {
	WorkspaceID string
	BoardID     string
	ListID      string
	CardID      string
}

// DomainEvent is the decoded form of an envelope payload.
type DomainEvent interface {
	EventType() string
	Scope() Scope
	Actor() string
	Describe() string
}

type WorkspaceCreated struct {
	WorkspaceID string `json:"workspaceId"`
	ActorUserID string `json:"actorUserId"`
	Name        string `json:"name"`
}

func (e WorkspaceCreated) EventType() string { return EventWorkspaceCreated }
func (e WorkspaceCreated) Scope() Scope      { return Scope{WorkspaceID: e.WorkspaceID} }
func (e WorkspaceCreated) Actor() string     { return e.ActorUserID }
func (e WorkspaceCreated) Describe() string {
	return fmt.Sprintf("created workspace %q", e.Name)
}

type BoardCreated struct {
	WorkspaceID string `json:"workspaceId"`
	BoardID     string `json:"boardId"`
	ActorUserID string `json:"actorUserId"`
	Name        string `json:"name"`
}

func (e BoardCreated) EventType() string { return EventBoardCreated }
func (e BoardCreated) Scope() Scope {
	return Scope{WorkspaceID: e.WorkspaceID, BoardID: e.BoardID}
}
func (e BoardCreated) Actor() string { return e.ActorUserID }
func (e BoardCreated) Describe() string {
	return fmt.Sprintf("created board %q", e.Name)
}

type BoardUpdated struct {
	WorkspaceID string `json:"workspaceId"`
	BoardID     string `json:"boardId"`
	ActorUserID string `json:"actorUserId"`
	Name        string `json:"name"`
}

func (e BoardUpdated) EventType() string { return EventBoardUpdated }
func (e BoardUpdated) Scope() Scope {
	return Scope{WorkspaceID: e.WorkspaceID, BoardID: e.BoardID}
}
func (e BoardUpdated) Actor() string { return e.ActorUserID }
func (e BoardUpdated) Describe() string {
	return fmt.Sprintf("updated board %q", e.Name)
}

type ListCreated struct {
	WorkspaceID string `json:"workspaceId"`
	BoardID     string `json:"boardId"`
	ListID      string `json:"listId"`
	ActorUserID string `json:"actorUserId"`
	Name        string `json:"name"`
}

func (e ListCreated) EventType() string { return EventListCreated }
func (e ListCreated) Scope() Scope {
	return Scope{WorkspaceID: e.WorkspaceID, BoardID: e.BoardID, ListID: e.ListID}
}
func (e ListCreated) Actor() string { return e.ActorUserID }
func (e ListCreated) Describe() string {
	return fmt.Sprintf("created list %q", e.Name)
}

type CardCreated struct {
	WorkspaceID string `json:"workspaceId"`
	BoardID     string `json:"boardId"`
	ListID      string `json:"listId"`
	CardID      string `json:"cardId"`
	ActorUserID string `json:"actorUserId"`
	Title       string `json:"title"`
}

func (e CardCreated) EventType() string { return EventCardCreated }
func (e CardCreated) Scope() Scope {
	return Scope{WorkspaceID: e.WorkspaceID, BoardID: e.BoardID, ListID: e.ListID, CardID: e.CardID}
}
func (e CardCreated) Actor() string { return e.ActorUserID }
func (e CardCreated) Describe() string {
	return fmt.Sprintf("created card %q", e.Title)
}

type CardUpdated struct {
	WorkspaceID string `json:"workspaceId"`
	BoardID     string `json:"boardId"`
	ListID      string `json:"listId"`
	CardID      string `json:"cardId"`
	ActorUserID string `json:"actorUserId"`
	Title       string `json:"title"`
}

func (e CardUpdated) EventType() string { return EventCardUpdated }
func (e CardUpdated) Scope() Scope {
	return Scope{WorkspaceID: e.WorkspaceID, BoardID: e.BoardID, ListID: e.ListID, CardID: e.CardID}
}
func (e CardUpdated) Actor() string { return e.ActorUserID }
func (e CardUpdated) Describe() string {
	return fmt.Sprintf("updated card %q", e.Title)
}

type CardMoved struct {
	WorkspaceID string `json:"workspaceId"`
	BoardID     string `json:"boardId"`
	CardID      string `json:"cardId"`
	FromListID  string `json:"fromListId"`
	ToListID    string `json:"toListId"`
	ActorUserID string `json:"actorUserId"`
	Title       string `json:"title"`
	OwnerUserID string `json:"ownerUserId"`
}

func (e CardMoved) EventType() string { return EventCardMoved }
func (e CardMoved) Scope() Scope {
	return Scope{WorkspaceID: e.WorkspaceID, BoardID: e.BoardID, ListID: e.ToListID, CardID: e.CardID}
}
func (e CardMoved) Actor() string { return e.ActorUserID }
func (e CardMoved) Describe() string {
	return fmt.Sprintf("moved card %q", e.Title)
}

type CardAssigned struct {
	WorkspaceID    string `json:"workspaceId"`
	BoardID        string `json:"boardId"`
	ListID         string `json:"listId"`
	CardID         string `json:"cardId"`
	ActorUserID    string `json:"actorUserId"`
	AssigneeUserID string `json:"assigneeUserId"`
	Title          string `json:"title"`
}

func (e CardAssigned) EventType() string { return EventCardAssigned }
func (e CardAssigned) Scope() Scope {
	return Scope{WorkspaceID: e.WorkspaceID, BoardID: e.BoardID, ListID: e.ListID, CardID: e.CardID}
}
func (e CardAssigned) Actor() string { return e.ActorUserID }
func (e CardAssigned) Describe() string {
	return fmt.Sprintf("assigned card %q", e.Title)
}

type CommentAdded struct {
	WorkspaceID string `json:"workspaceId"`
	BoardID     string `json:"boardId"`
	ListID      string `json:"listId"`
	CardID      string `json:"cardId"`
	CommentID   string `json:"commentId"`
	ActorUserID string `json:"actorUserId"`
	OwnerUserID string `json:"ownerUserId"`
	Excerpt     string `json:"excerpt"`
}

func (e CommentAdded) EventType() string { return EventCommentAdded }
func (e CommentAdded) Scope() Scope {
	return Scope{WorkspaceID: e.WorkspaceID, BoardID: e.BoardID, ListID: e.ListID, CardID: e.CardID}
}
func (e CommentAdded) Actor() string { return e.ActorUserID }
func (e CommentAdded) Describe() string {
	return "commented on a card"
}

type MemberAdded struct {
	WorkspaceID   string `json:"workspaceId"`
	ActorUserID   string `json:"actorUserId"`
	MemberUserID  string `json:"memberUserId"`
	WorkspaceName string `json:"workspaceName"`
}

func (e MemberAdded) EventType() string { return EventMemberAdded }
func (e MemberAdded) Scope() Scope      { return Scope{WorkspaceID: e.WorkspaceID} }
func (e MemberAdded) Actor() string     { return e.ActorUserID }
func (e MemberAdded) Describe() string {
	return fmt.Sprintf("added a member to workspace %q", e.WorkspaceName)
}

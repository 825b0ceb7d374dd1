package ws

import (
	"context"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/boardpulse/boardpulse/internal/metrics"
	"github.com/boardpulse/boardpulse/internal/util"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxRequestSize = 4 << 10
	sendBuffer     = 64
)

// ReadMarker is the slice of the notification service the read pump needs.
type ReadMarker interface {
	MarkRead(ctx context.Context, userID, id string) error
}

// Request is a client-initiated message on the socket.
type Request struct {
	Action string `json:"action"` // join | leave | markRead
	Group  string `json:"group,omitempty"`
	ID     string `json:"id,omitempty"`
}

// Client is one live websocket connection. The read pump handles client
// requests; the write pump serializes server pushes so only one goroutine
// ever writes to the socket.
type Client struct {
	id     string
	userID string
	sock   *websocket.Conn
	send   chan []byte
	reg    *Registry
	notes  ReadMarker
	log    *zap.Logger
}

func NewClient(sock *websocket.Conn, userID string, reg *Registry, notes ReadMarker, log *zap.Logger) *Client {
	c := &Client{
		id:     util.NewID(),
		userID: userID,
		sock:   sock,
		send:   make(chan []byte, sendBuffer),
		reg:    reg,
		notes:  notes,
	}
	c.log = log.With(zap.String("conn", c.id), zap.String("user", userID))
	return c
}

func (c *Client) ID() string { return c.id }

// Send queues a payload for the write pump; false means the buffer is full.
func (c *Client) Send(payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) Close() {
	_ = c.sock.Close()
}

// Run joins the user's own group, starts the pumps, and blocks until the
// connection is gone. On exit the registry no longer references this client.
func (c *Client) Run(ctx context.Context) {
	metrics.WSConnections.Inc()
	defer metrics.WSConnections.Dec()

	if c.userID != "" {
		c.reg.Join(c, UserGroup(c.userID))
	}
	defer func() {
		c.reg.Drop(c)
		_ = c.sock.Close()
	}()

	go c.writePump()
	c.readPump(ctx)
}

func (c *Client) readPump(ctx context.Context) {
	c.sock.SetReadLimit(maxRequestSize)
	_ = c.sock.SetReadDeadline(time.Now().Add(pongWait))
	c.sock.SetPongHandler(func(string) error {
		return c.sock.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var req Request
		if err := c.sock.ReadJSON(&req); err != nil {
			if closeErr, ok := err.(*websocket.CloseError); ok {
				if closeErr.Code != websocket.CloseNormalClosure && closeErr.Code != websocket.CloseGoingAway {
					c.log.Debug("websocket closed", zap.Error(closeErr))
				}
			}
			return
		}

		switch req.Action {
		case "join":
			if joinableGroup(req.Group) {
				c.reg.Join(c, req.Group)
			}
		case "leave":
			if joinableGroup(req.Group) {
				c.reg.Leave(c, req.Group)
			}
		case "markRead":
			if c.userID == "" || req.ID == "" {
				continue
			}
			if err := c.notes.MarkRead(ctx, c.userID, req.ID); err != nil {
				c.log.Warn("mark read failed", zap.String("notification", req.ID), zap.Error(err))
			}
		default:
			c.log.Debug("unknown ws action", zap.String("action", req.Action))
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.sock.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.sock.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.sock.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// joinableGroup limits explicit joins to workspace/board groups; user groups
// are handshake-only.
func joinableGroup(group string) bool {
	return strings.HasPrefix(group, "workspace:") || strings.HasPrefix(group, "board:")
}

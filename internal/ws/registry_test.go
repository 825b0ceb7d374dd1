package ws

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeConn struct {
	id string

	mu     sync.Mutex
	got    [][]byte
	full   bool
	closed bool
}

func newFakeConn(id string) *fakeConn { return &fakeConn{id: id} }

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return false
	}
	c.got = append(c.got, payload)
	return true
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) received() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.got)
}

func TestJoinThenBroadcastDelivers(t *testing.T) {
	r := NewRegistry()
	conn := newFakeConn("c1")

	r.Join(conn, WorkspaceGroup("W1"))
	r.Broadcast(WorkspaceGroup("W1"), []byte("hello"))

	assert.Equal(t, 1, conn.received())
}

func TestLeaveStopsDelivery(t *testing.T) {
	r := NewRegistry()
	conn := newFakeConn("c1")

	r.Join(conn, WorkspaceGroup("W1"))
	r.Leave(conn, WorkspaceGroup("W1"))
	r.Broadcast(WorkspaceGroup("W1"), []byte("hello"))

	assert.Equal(t, 0, conn.received())
	assert.Equal(t, 0, r.GroupSize(WorkspaceGroup("W1")))
}

func TestBroadcastToEmptyGroupIsNoop(t *testing.T) {
	r := NewRegistry()
	assert.NotPanics(t, func() {
		r.Broadcast(BoardGroup("nope"), []byte("x"))
	})
}

func TestBroadcastExcludesConnection(t *testing.T) {
	r := NewRegistry()
	a := newFakeConn("a")
	b := newFakeConn("b")

	r.Join(a, BoardGroup("B1"))
	r.Join(b, BoardGroup("B1"))
	r.Broadcast(BoardGroup("B1"), []byte("x"), "a")

	assert.Equal(t, 0, a.received())
	assert.Equal(t, 1, b.received())
}

func TestBroadcastExceptUser(t *testing.T) {
	r := NewRegistry()
	actor1 := newFakeConn("actor-phone")
	actor2 := newFakeConn("actor-laptop")
	other := newFakeConn("other")

	// the actor has two live connections, both in the workspace group
	r.Join(actor1, UserGroup("U1"))
	r.Join(actor2, UserGroup("U1"))
	r.Join(actor1, WorkspaceGroup("W1"))
	r.Join(actor2, WorkspaceGroup("W1"))
	r.Join(other, WorkspaceGroup("W1"))

	r.BroadcastExceptUser(WorkspaceGroup("W1"), []byte("x"), "U1")

	assert.Equal(t, 0, actor1.received())
	assert.Equal(t, 0, actor2.received())
	assert.Equal(t, 1, other.received())
}

func TestDropRemovesFromAllGroups(t *testing.T) {
	r := NewRegistry()
	conn := newFakeConn("c1")

	r.Join(conn, UserGroup("U1"))
	r.Join(conn, WorkspaceGroup("W1"))
	r.Join(conn, BoardGroup("B1"))

	r.Drop(conn)

	r.Broadcast(UserGroup("U1"), []byte("x"))
	r.Broadcast(WorkspaceGroup("W1"), []byte("x"))
	r.Broadcast(BoardGroup("B1"), []byte("x"))

	assert.Equal(t, 0, conn.received())
	assert.Equal(t, 0, r.GroupSize(UserGroup("U1")))
	assert.Equal(t, 0, r.GroupSize(WorkspaceGroup("W1")))
	assert.Equal(t, 0, r.GroupSize(BoardGroup("B1")))
}

func TestSlowConsumerIsDropped(t *testing.T) {
	r := NewRegistry()
	slow := newFakeConn("slow")
	slow.full = true
	ok := newFakeConn("ok")

	r.Join(slow, WorkspaceGroup("W1"))
	r.Join(ok, WorkspaceGroup("W1"))

	r.Broadcast(WorkspaceGroup("W1"), []byte("x"))

	assert.Equal(t, 1, ok.received())
	assert.Equal(t, 1, r.GroupSize(WorkspaceGroup("W1")))
	slow.mu.Lock()
	assert.True(t, slow.closed)
	slow.mu.Unlock()
}

func TestConcurrentJoinLeaveBroadcast(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			conn := newFakeConn(string(rune('a' + n)))
			for j := 0; j < 100; j++ {
				r.Join(conn, WorkspaceGroup("W1"))
				r.Broadcast(WorkspaceGroup("W1"), []byte("x"))
				r.Leave(conn, WorkspaceGroup("W1"))
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, r.GroupSize(WorkspaceGroup("W1")))
}

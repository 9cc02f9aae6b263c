package websocket_test

import (
	"errors"
	"sync"
	"testing"

	ws "pulse_chat_server/internal/gateway/websocket"
	"pulse_chat_server/internal/gateway/websocket/wstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindReplacesAndReturnsPrevious(t *testing.T) {
	reg := ws.NewRegistry()
	first := ws.NewConnection("U1", &wstest.FakeTransport{})
	second := ws.NewConnection("U1", &wstest.FakeTransport{})

	assert.Nil(t, reg.Bind(first))
	assert.Same(t, first, reg.Bind(second))

	got, ok := reg.Lookup("U1")
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Equal(t, 1, reg.OnlineCount())
}

func TestStaleUnbindIsNoop(t *testing.T) {
	reg := ws.NewRegistry()
	first := ws.NewConnection("U1", &wstest.FakeTransport{})
	second := ws.NewConnection("U1", &wstest.FakeTransport{})
	reg.Bind(first)
	reg.Bind(second)

	assert.False(t, reg.Unbind(first))
	assert.True(t, reg.IsOnline("U1"))

	assert.True(t, reg.Unbind(second))
	assert.False(t, reg.IsOnline("U1"))
	assert.False(t, reg.Unbind(second))
}

func TestPush(t *testing.T) {
	reg := ws.NewRegistry()
	_, tr := wstest.Connect(reg, "U1")

	require.NoError(t, reg.Push("U1", "getOnlineUsers", []string{"U2"}))
	frame, ok := tr.Last("getOnlineUsers")
	require.True(t, ok)
	var ids []string
	require.NoError(t, frame.Decode(&ids))
	assert.Equal(t, []string{"U2"}, ids)

	assert.ErrorIs(t, reg.Push("U9", "getOnlineUsers", nil), ws.ErrNotConnected)

	tr.SendErr = ws.ErrSendBufferFull
	assert.ErrorIs(t, reg.Push("U1", "newMessage", nil), ws.ErrSendBufferFull)
	assert.Equal(t, 1, len(tr.Frames()), "failed push is not retried")
}

func TestWatchUnbind(t *testing.T) {
	reg := ws.NewRegistry()
	conn, _ := wstest.Connect(reg, "U1")

	fired := 0
	cancelled := 0
	reg.WatchUnbind("U1", func() { fired++ })
	cancel := reg.WatchUnbind("U1", func() { cancelled++ })
	cancel()
	cancel() // idempotent

	reg.Unbind(conn)
	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, cancelled)
}

func TestReplacementFiresWatchers(t *testing.T) {
	reg := ws.NewRegistry()
	conn, _ := wstest.Connect(reg, "U1")

	fired := 0
	reg.WatchUnbind("U1", func() { fired++ })
	replacement := ws.NewConnection("U1", &wstest.FakeTransport{})
	assert.Same(t, conn, reg.Bind(replacement))
	assert.Equal(t, 1, fired)

	// 旧连接随后的解绑是过期操作，不会再次触发
	assert.False(t, reg.Unbind(conn))
	assert.Equal(t, 1, fired)
	assert.True(t, reg.IsOnline("U1"))
}

func TestWatcherMayTouchRegistry(t *testing.T) {
	reg := ws.NewRegistry()
	conn, _ := wstest.Connect(reg, "U1")
	_, peer := wstest.Connect(reg, "U2")

	var cancel func()
	cancel = reg.WatchUnbind("U1", func() {
		cancel()
		_ = reg.Push("U2", "call:end", map[string]string{"reason": "offline"})
	})
	reg.Unbind(conn)
	assert.Equal(t, 1, peer.Count("call:end"))
}

func TestConnectionFriendSnapshotIsCopied(t *testing.T) {
	conn := ws.NewConnection("U1", &wstest.FakeTransport{})
	ids := []string{"U2", "U3"}
	conn.SetFriendIDs(ids)
	ids[0] = "mutated"

	snap := conn.FriendIDs()
	assert.Equal(t, []string{"U2", "U3"}, snap)
	snap[1] = "mutated"
	assert.Equal(t, []string{"U2", "U3"}, conn.FriendIDs())
}

func TestConcurrentBindUnbind(t *testing.T) {
	reg := ws.NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := ws.NewConnection("U1", &wstest.FakeTransport{})
			reg.Bind(c)
			_ = reg.Push("U1", "ping", nil)
			reg.Unbind(c)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, reg.OnlineCount(), 1)
}

func TestFakeTransportClosed(t *testing.T) {
	tr := &wstest.FakeTransport{}
	require.NoError(t, tr.Close())
	assert.True(t, errors.Is(tr.Send([]byte(`{"event":"x"}`)), ws.ErrTransportClosed))
}

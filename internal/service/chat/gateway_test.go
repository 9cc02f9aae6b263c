package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"pulse_chat_server/internal/dto/event"
	ws "pulse_chat_server/internal/gateway/websocket"
	"pulse_chat_server/internal/gateway/websocket/wstest"
	"pulse_chat_server/internal/infrastructure/mq/mqtest"
	"pulse_chat_server/internal/model"
	"pulse_chat_server/internal/service/presence"
	"pulse_chat_server/internal/service/signaling"
	"pulse_chat_server/pkg/errorx"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticGraph map[string][]string

func (g staticGraph) FriendIDs(_ context.Context, userID string) ([]string, error) {
	return append([]string(nil), g[userID]...), nil
}

type profiles map[string]*model.UserInfo

func (p profiles) Profile(_ context.Context, userID string) (*model.UserInfo, error) {
	u, ok := p[userID]
	if !ok {
		return nil, errorx.New(errorx.CodeNotFound, "User not found")
	}
	return u, nil
}

func newGateway() (*Gateway, *ws.Registry, *signaling.Service) {
	reg := ws.NewRegistry()
	graph := staticGraph{"A": {"B"}, "B": {"A"}}
	sig := signaling.NewService(reg, mqtest.NewRecorder())
	users := profiles{
		"A": {Uuid: "A", FullName: "Alice"},
		"B": {Uuid: "B", FullName: "Bob"},
	}
	return NewGateway(reg, presence.NewService(reg, graph), sig, users, nil), reg, sig
}

func onlineList(t *testing.T, tr *wstest.FakeTransport) []string {
	t.Helper()
	f, ok := tr.Last(event.GetOnlineUsers)
	require.True(t, ok)
	var ids []string
	require.NoError(t, f.Decode(&ids))
	return ids
}

func TestAttachPublishesPresence(t *testing.T) {
	ctx := context.Background()
	g, reg, _ := newGateway()

	alice := &wstest.FakeTransport{}
	aliceConn := g.Attach(ctx, "A", alice)
	assert.Equal(t, []string{}, onlineList(t, alice))

	bob := &wstest.FakeTransport{}
	g.Attach(ctx, "B", bob)
	assert.Equal(t, []string{"A"}, onlineList(t, bob))
	assert.Equal(t, []string{"B"}, onlineList(t, alice))

	g.Detach(ctx, aliceConn)
	assert.True(t, alice.Closed())
	assert.False(t, reg.IsOnline("A"))
	assert.Equal(t, []string{}, onlineList(t, bob))
}

func TestReconnectClosesPreviousConnection(t *testing.T) {
	ctx := context.Background()
	g, reg, _ := newGateway()
	bob := &wstest.FakeTransport{}
	g.Attach(ctx, "B", bob)

	first := &wstest.FakeTransport{}
	firstConn := g.Attach(ctx, "A", first)
	second := &wstest.FakeTransport{}
	g.Attach(ctx, "A", second)
	assert.True(t, first.Closed())

	bob.Reset()
	g.Detach(ctx, firstConn)
	assert.True(t, reg.IsOnline("A"), "stale detach leaves the new connection bound")
	assert.Zero(t, bob.Count(event.GetOnlineUsers))
}

func TestReconnectEndsCallOfReplacedConnection(t *testing.T) {
	ctx := context.Background()
	g, _, sig := newGateway()
	first := &wstest.FakeTransport{}
	firstConn := g.Attach(ctx, "A", first)
	bob := &wstest.FakeTransport{}
	g.Attach(ctx, "B", bob)

	offer := `{"event":"call:offer","data":{"targetUserId":"B","callType":"audio","offer":{"type":"offer","sdp":"v=0\r\n"}}}`
	g.Dispatch(ctx, event.CallerInfo{ID: "A", FullName: "Alice"}, []byte(offer))
	require.Equal(t, 1, sig.ActiveCount())

	second := &wstest.FakeTransport{}
	g.Attach(ctx, "A", second)
	g.Detach(ctx, firstConn)

	assert.True(t, first.Closed())
	assert.Zero(t, sig.ActiveCount())
	f, ok := bob.Last(event.CallEnd)
	require.True(t, ok)
	assert.JSONEq(t, `{"reason":"offline"}`, string(f.Data))
	assert.Equal(t, 1, bob.Count(event.CallEnd))

	// 重连后的客户端不再被当作通话中
	g.Dispatch(ctx, event.CallerInfo{ID: "A", FullName: "Alice"}, []byte(offer))
	assert.Zero(t, second.Count(event.CallError))
	assert.Equal(t, 2, bob.Count(event.CallOffer))
}

func TestDispatchRoutesCallEvents(t *testing.T) {
	ctx := context.Background()
	g, _, sig := newGateway()
	alice := &wstest.FakeTransport{}
	bob := &wstest.FakeTransport{}
	g.Attach(ctx, "A", alice)
	g.Attach(ctx, "B", bob)

	frame := `{"event":"call:offer","data":{"targetUserId":"B","callType":"audio","offer":{"type":"offer","sdp":"v=0\r\n"}}}`
	g.Dispatch(ctx, event.CallerInfo{ID: "A", FullName: "Alice"}, []byte(frame))
	assert.Equal(t, 1, bob.Count(event.CallOffer))
	assert.Equal(t, 1, sig.ActiveCount())

	g.Dispatch(ctx, event.CallerInfo{ID: "A"}, []byte(`{"event":"typing","data":{}}`))
	g.Dispatch(ctx, event.CallerInfo{ID: "A"}, []byte(`not json`))
	assert.Zero(t, alice.Count(event.CallError))
}

// 端到端：真实 websocket 连接
func TestServeWSEndToEnd(t *testing.T) {
	g, reg, sig := newGateway()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := g.ServeWS(w, r, r.URL.Query().Get("uid")); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()
	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?uid="

	_, resp, err := websocket.DefaultDialer.Dial(base+"ghost", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	alice := dial(t, base+"A")
	defer alice.close()
	alice.expect(t, event.GetOnlineUsers)

	bob := dial(t, base+"B")
	defer bob.close()
	f := bob.expect(t, event.GetOnlineUsers)
	assert.JSONEq(t, `["A"]`, string(f.Data))
	f = alice.expect(t, event.GetOnlineUsers)
	assert.JSONEq(t, `["B"]`, string(f.Data))

	alice.send(t, `{"event":"call:offer","data":{"targetUserId":"B","callType":"video","offer":{"type":"offer","sdp":"v=0\r\n"}}}`)
	f = bob.expect(t, event.CallOffer)
	var offer event.CallOfferOut
	require.NoError(t, json.Unmarshal(f.Data, &offer))
	assert.Equal(t, "Alice", offer.Caller.FullName)

	// bob 掉线：alice 收到 call:end{offline} 和新的在线列表
	bob.close()
	f = alice.expect(t, event.CallEnd)
	assert.JSONEq(t, `{"reason":"offline"}`, string(f.Data))
	require.Eventually(t, func() bool { return !reg.IsOnline("B") }, time.Second, 10*time.Millisecond)
	assert.Zero(t, sig.ActiveCount())
}

type client struct {
	conn *websocket.Conn
	once sync.Once
}

func dial(t *testing.T, url string) *client {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return &client{conn: conn}
}

func (c *client) send(t *testing.T, frame string) {
	t.Helper()
	require.NoError(t, c.conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

// expect 读到指定事件为止，跳过其他事件
func (c *client) expect(t *testing.T, name string) wstest.Frame {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		require.NoError(t, c.conn.SetReadDeadline(deadline))
		_, raw, err := c.conn.ReadMessage()
		require.NoError(t, err, "waiting for %s", name)
		var f wstest.Frame
		require.NoError(t, json.Unmarshal(raw, &f))
		if f.Event == name {
			return f
		}
	}
}

func (c *client) close() {
	c.once.Do(func() { _ = c.conn.Close() })
}

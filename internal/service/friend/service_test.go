package friend

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"pulse_chat_server/internal/dao/mysql/mysqltest"
	"pulse_chat_server/internal/dao/mysql/repository"
	"pulse_chat_server/internal/dto/event"
	ws "pulse_chat_server/internal/gateway/websocket"
	"pulse_chat_server/internal/gateway/websocket/wstest"
	"pulse_chat_server/internal/infrastructure/mq"
	"pulse_chat_server/internal/infrastructure/mq/mqtest"
	"pulse_chat_server/internal/model"
	"pulse_chat_server/pkg/errorx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memCache 内存版 AsyncCacheService；deferTasks 为 true 时任务排队，由 flush 执行
type memCache struct {
	mu         sync.Mutex
	lists      map[string][]string
	kv         map[string]string
	gets       int
	deferTasks bool
	pending    []func()
}

func newMemCache() *memCache {
	return &memCache{lists: map[string][]string{}, kv: map[string]string{}}
}

func (m *memCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kv[key] = value
	return nil
}

func (m *memCache) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.kv[key], nil
}

func (m *memCache) Incr(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, _ := strconv.ParseInt(m.kv[key], 10, 64)
	n++
	m.kv[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.lists, key)
	delete(m.kv, key)
	return nil
}

func (m *memCache) SetList(_ context.Context, key string, values []string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists[key] = append([]string(nil), values...)
	return nil
}

func (m *memCache) GetList(_ context.Context, key string) ([]string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	v, ok := m.lists[key]
	return append([]string(nil), v...), ok, nil
}

func (m *memCache) SubmitTask(action func()) {
	m.mu.Lock()
	if m.deferTasks {
		m.pending = append(m.pending, action)
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()
	action()
}

func (m *memCache) flush() {
	m.mu.Lock()
	tasks := m.pending
	m.pending = nil
	m.mu.Unlock()
	for _, task := range tasks {
		task()
	}
}

type presenceCalls struct {
	mu    sync.Mutex
	pairs [][2]string
}

func (p *presenceCalls) OnFriendshipChanged(_ context.Context, a, b string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pairs = append(p.pairs, [2]string{a, b})
}

type fixture struct {
	repos    *repository.Repositories
	cache    *memCache
	registry *ws.Registry
	presence *presenceCalls
	events   *mqtest.Recorder
	svc      *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repos:    mysqltest.NewRepositories(t),
		cache:    newMemCache(),
		registry: ws.NewRegistry(),
		presence: &presenceCalls{},
		events:   mqtest.NewRecorder(),
	}
	f.svc = NewService(f.repos, NewIDReader(f.repos.Friendship, f.cache), f.registry, f.presence, f.events)
	for _, u := range []struct{ id, name string }{{"U1", "Alice"}, {"U2", "Bob"}, {"U3", "Carol"}} {
		require.NoError(t, f.repos.User.Create(context.Background(), &model.UserInfo{
			Uuid: u.id, FullName: u.name, Email: u.id + "@example.com", RawPassword: "secret123",
		}))
	}
	return f
}

func TestSendRequestValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.SendRequest(ctx, "U1", "")
	assert.Equal(t, errorx.CodeInvalidParam, errorx.GetCode(err))

	_, err = f.svc.SendRequest(ctx, "U1", "U1")
	assert.Equal(t, errorx.CodeInvalidParam, errorx.GetCode(err))

	_, err = f.svc.SendRequest(ctx, "U1", "ghost")
	assert.Equal(t, errorx.CodeNotFound, errorx.GetCode(err))
}

func TestSendRequestPushesToReceiver(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, bob := wstest.Connect(f.registry, "U2")

	out, err := f.svc.SendRequest(ctx, "U1", "U2")
	require.NoError(t, err)
	assert.Equal(t, model.FriendRequestPending, out.Status)
	require.NotNil(t, out.Sender)
	assert.Equal(t, "Alice", out.Sender.FullName)
	assert.Equal(t, byte('R'), out.ID[0])

	frame, ok := bob.Last(event.FriendRequestNew)
	require.True(t, ok)
	var pushed map[string]any
	require.NoError(t, frame.Decode(&pushed))
	assert.Equal(t, out.ID, pushed["id"])
	assert.Equal(t, "Alice", pushed["sender"].(map[string]any)["fullName"])

	assert.True(t, f.events.WaitFor(mq.EventFriendRequestSent, time.Second))
}

func TestSendRequestConflicts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.SendRequest(ctx, "U1", "U2")
	require.NoError(t, err)

	_, err = f.svc.SendRequest(ctx, "U1", "U2")
	assert.ErrorIs(t, err, errorx.ErrDuplicatePending)

	_, err = f.svc.SendRequest(ctx, "U2", "U1")
	assert.ErrorIs(t, err, errorx.ErrReverseRequestExists)

	require.NoError(t, f.repos.Friendship.CreatePair(ctx, "U1", "U3"))
	_, err = f.svc.SendRequest(ctx, "U3", "U1")
	assert.ErrorIs(t, err, errorx.ErrAlreadyFriends)
}

func TestDeclinedRequestIsRevived(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, alice := wstest.Connect(f.registry, "U1")

	first, err := f.svc.SendRequest(ctx, "U1", "U2")
	require.NoError(t, err)

	res, err := f.svc.Respond(ctx, "U2", first.ID, "decline")
	require.NoError(t, err)
	assert.Equal(t, model.FriendRequestDeclined, res.Status)
	assert.Nil(t, res.Friend)

	frame, ok := alice.Last(event.FriendRequestUpdate)
	require.True(t, ok)
	var upd event.FriendRequestUpdateOut
	require.NoError(t, frame.Decode(&upd))
	assert.Equal(t, model.FriendRequestDeclined, upd.Status)
	assert.Nil(t, upd.Friend)

	again, err := f.svc.SendRequest(ctx, "U1", "U2")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID, "same row is reused")
	assert.Equal(t, model.FriendRequestPending, again.Status)
}

func TestConcurrentResendRevivesOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	first, err := f.svc.SendRequest(ctx, "U1", "U2")
	require.NoError(t, err)
	_, err = f.svc.Respond(ctx, "U2", first.ID, "decline")
	require.NoError(t, err)
	_, bob := wstest.Connect(f.registry, "U2")

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.SendRequest(ctx, "U1", "U2")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, errorx.ErrDuplicatePending)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, bob.Count(event.FriendRequestNew))

	pending, err := f.svc.ListPending(ctx, "U2")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, first.ID, pending[0].ID)
}

func TestRespondGuards(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	req, err := f.svc.SendRequest(ctx, "U1", "U2")
	require.NoError(t, err)

	_, err = f.svc.Respond(ctx, "U2", req.ID, "maybe")
	assert.Equal(t, errorx.CodeInvalidParam, errorx.GetCode(err))

	_, err = f.svc.Respond(ctx, "U2", "R-missing", "accept")
	assert.Equal(t, errorx.CodeNotFound, errorx.GetCode(err))

	_, err = f.svc.Respond(ctx, "U3", req.ID, "accept")
	assert.Equal(t, errorx.CodeForbidden, errorx.GetCode(err))

	_, err = f.svc.Respond(ctx, "U2", req.ID, "ACCEPT")
	require.NoError(t, err)

	_, err = f.svc.Respond(ctx, "U2", req.ID, "decline")
	assert.ErrorIs(t, err, errorx.ErrAlreadyHandled)
}

func TestAcceptCreatesFriendshipAndNotifies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, alice := wstest.Connect(f.registry, "U1")

	req, err := f.svc.SendRequest(ctx, "U1", "U2")
	require.NoError(t, err)

	// stale entry, accept must drop it
	require.NoError(t, f.cache.SetList(ctx, cacheKey("U1", "0"), []string{"U3"}, time.Hour))

	res, err := f.svc.Respond(ctx, "U2", req.ID, "accept")
	require.NoError(t, err)
	assert.Equal(t, model.FriendRequestAccepted, res.Status)
	require.NotNil(t, res.Friend)
	assert.Equal(t, "U1", res.Friend.ID)

	ok, err := f.svc.IsFriend(ctx, "U2", "U1")
	require.NoError(t, err)
	assert.True(t, ok)

	ids, err := f.svc.FriendIDs(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, []string{"U2"}, ids)

	frame, found := alice.Last(event.FriendRequestUpdate)
	require.True(t, found)
	var upd struct {
		RequestID string `json:"requestId"`
		Status    string `json:"status"`
		Friend    struct {
			ID string `json:"id"`
		} `json:"friend"`
	}
	require.NoError(t, frame.Decode(&upd))
	assert.Equal(t, req.ID, upd.RequestID)
	assert.Equal(t, "accepted", upd.Status)
	assert.Equal(t, "U2", upd.Friend.ID)

	assert.Equal(t, [][2]string{{"U1", "U2"}}, f.presence.pairs)
	assert.True(t, f.events.WaitFor(mq.EventFriendAccepted, time.Second))
}

func TestConcurrentAcceptAppliesOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	req, err := f.svc.SendRequest(ctx, "U1", "U2")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Respond(ctx, "U2", req.ID, "accept")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, errorx.ErrAlreadyHandled)
	}
	assert.Equal(t, 1, succeeded)

	ids, err := f.repos.Friendship.FriendIDs(ctx, "U2")
	require.NoError(t, err)
	assert.Equal(t, []string{"U1"}, ids)
}

func TestListFriendsAndPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.repos.Friendship.CreatePair(ctx, "U1", "U3"))
	require.NoError(t, f.repos.Friendship.CreatePair(ctx, "U1", "U2"))

	friends, err := f.svc.ListFriends(ctx, "U1")
	require.NoError(t, err)
	require.Len(t, friends, 2)
	assert.Equal(t, "U3", friends[0].ID)
	assert.Equal(t, "U2", friends[1].ID)

	none, err := f.svc.ListFriends(ctx, "ghost")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	_, err = f.svc.SendRequest(ctx, "U2", "U3")
	require.NoError(t, err)
	pending, err := f.svc.ListPending(ctx, "U3")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.NotNil(t, pending[0].Sender)
	assert.Equal(t, "Bob", pending[0].Sender.FullName)
}

func TestIDReaderCachesInOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.repos.Friendship.CreatePair(ctx, "U1", "U3"))
	require.NoError(t, f.repos.Friendship.CreatePair(ctx, "U1", "U2"))

	reader := NewIDReader(f.repos.Friendship, f.cache)
	ids, err := reader.FriendIDs(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, []string{"U3", "U2"}, ids)

	cached, hit, err := f.cache.GetList(ctx, cacheKey("U1", "0"))
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, []string{"U3", "U2"}, cached)

	reader.Invalidate(ctx, "U1")
	_, hit, _ = f.cache.GetList(ctx, cacheKey("U1", "0"))
	assert.False(t, hit)
	_, hit, _ = f.cache.GetList(ctx, cacheKey("U1", "1"))
	assert.False(t, hit)
}

func TestLateWriteBackDoesNotUndoInvalidate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.repos.Friendship.CreatePair(ctx, "U1", "U3"))
	f.cache.deferTasks = true

	reader := NewIDReader(f.repos.Friendship, f.cache)
	ids, err := reader.FriendIDs(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, []string{"U3"}, ids)

	// 回写还在排队时好友关系发生变化
	require.NoError(t, f.repos.Friendship.CreatePair(ctx, "U1", "U2"))
	reader.Invalidate(ctx, "U1")
	f.cache.flush()

	ids, err = reader.FriendIDs(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, []string{"U3", "U2"}, ids)

	f.cache.flush()
	cached, hit, err := f.cache.GetList(ctx, cacheKey("U1", "1"))
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, []string{"U3", "U2"}, cached)
}

func TestIDReaderWithoutCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.repos.Friendship.CreatePair(ctx, "U2", "U1"))

	reader := NewIDReader(f.repos.Friendship, nil)
	ids, err := reader.FriendIDs(ctx, "U2")
	require.NoError(t, err)
	assert.Equal(t, []string{"U1"}, ids)
	reader.Invalidate(ctx, "U2")
}

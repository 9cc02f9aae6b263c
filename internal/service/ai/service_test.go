package ai

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"pulse_chat_server/internal/dao/mysql/mysqltest"
	"pulse_chat_server/internal/dao/mysql/repository"
	"pulse_chat_server/internal/model"
	"pulse_chat_server/pkg/errorx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	model, system, user string
}

// fakeGenerator 按模型返回预设结果
type fakeGenerator struct {
	mu      sync.Mutex
	calls   []call
	replies map[string]string
	errs    map[string]error
}

func (f *fakeGenerator) Generate(_ context.Context, model, system, user string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{model, system, user})
	if err := f.errs[model]; err != nil {
		return "", err
	}
	return f.replies[model], nil
}

func (f *fakeGenerator) models() []string {
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.model)
	}
	return out
}

func seed(t *testing.T) *repository.Repositories {
	t.Helper()
	ctx := context.Background()
	repos := mysqltest.NewRepositories(t)
	for _, u := range []*model.UserInfo{
		{Uuid: "U1", FullName: "Alice", Email: "a@example.com", RawPassword: "secret123"},
		{Uuid: "U2", FullName: "Bob", Email: "b@example.com", RawPassword: "secret123"},
	} {
		require.NoError(t, repos.User.Create(ctx, u))
	}
	require.NoError(t, repos.Friendship.CreatePair(ctx, "U1", "U2"))
	return repos
}

func TestModelOrderDeduplicates(t *testing.T) {
	assert.Equal(t, fallbackModels, modelOrder(""))
	order := modelOrder("models/gemini-1.5-pro")
	assert.Equal(t, "models/gemini-1.5-pro", order[0])
	assert.Len(t, order, len(fallbackModels))
	assert.Equal(t, "gemini-2.5-flash", modelOrder("gemini-2.5-flash")[0])
}

func TestSuggestReplyGuards(t *testing.T) {
	ctx := context.Background()
	repos := seed(t)

	_, err := NewService(repos, nil, "").SuggestReply(ctx, "U1", "U2", "friendly")
	assert.Equal(t, errorx.CodeNotConfigured, errorx.GetCode(err))

	svc := NewService(repos, &fakeGenerator{}, "m1")
	_, err = svc.SuggestReply(ctx, "U1", "U2", "sarcastic")
	assert.Equal(t, errorx.CodeInvalidParam, errorx.GetCode(err))

	_, err = svc.SuggestReply(ctx, "U1", "U3", "friendly")
	assert.Equal(t, errorx.CodeForbidden, errorx.GetCode(err))

	require.NoError(t, repos.Friendship.CreatePair(ctx, "U1", "ghost"))
	_, err = svc.SuggestReply(ctx, "U1", "ghost", "friendly")
	assert.Equal(t, errorx.CodeNotFound, errorx.GetCode(err))
}

func TestSuggestReplyFallsThroughMissingModels(t *testing.T) {
	ctx := context.Background()
	repos := seed(t)
	gen := &fakeGenerator{
		errs:    map[string]error{"m1": ErrModelNotFound, "models/gemini-1.5-flash-latest": ErrModelNotFound},
		replies: map[string]string{"models/gemini-1.5-flash": "  Sounds great, see you then!  "},
	}
	svc := NewService(repos, gen, "m1")

	out, err := svc.SuggestReply(ctx, "U1", "U2", " Friendly ")
	require.NoError(t, err)
	assert.Equal(t, "Sounds great, see you then!", out)
	assert.Equal(t, []string{"m1", "models/gemini-1.5-flash-latest", "models/gemini-1.5-flash"}, gen.models())
	assert.Contains(t, gen.calls[0].user, "There has been no prior conversation. You are helping the user message Bob.")
	assert.Contains(t, gen.calls[0].system, "friendly replies")
}

func TestSuggestReplyErrors(t *testing.T) {
	ctx := context.Background()
	repos := seed(t)

	hard := &fakeGenerator{errs: map[string]error{"m1": errors.New("quota exceeded")}}
	_, err := NewService(repos, hard, "m1").SuggestReply(ctx, "U1", "U2", "casual")
	assert.Equal(t, errorx.CodeUnavailable, errorx.GetCode(err))
	assert.Len(t, hard.calls, 1, "non not-found errors stop the fallback")

	empty := &fakeGenerator{}
	_, err = NewService(repos, empty, "m1").SuggestReply(ctx, "U1", "U2", "casual")
	assert.Equal(t, errorx.CodeUnavailable, errorx.GetCode(err))
	assert.Len(t, empty.calls, len(fallbackModels)+1)

	missing := &fakeGenerator{errs: map[string]error{}}
	for _, m := range modelOrder("m1") {
		missing.errs[m] = ErrModelNotFound
	}
	_, err = NewService(repos, missing, "m1").SuggestReply(ctx, "U1", "U2", "casual")
	assert.Equal(t, errorx.CodeNotConfigured, errorx.GetCode(err))
}

func TestBuildPromptsFormatsHistory(t *testing.T) {
	img := "/static/images/x.png"
	recent := []model.Message{
		{SenderID: "U1", Text: "hi"},
		{SenderID: "U2", Text: "look", Image: &img},
		{SenderID: "U2", IsDeleted: true},
		{SenderID: "U1", Image: &img},
	}
	_, user := BuildPrompts(recent, "U1", "Bob", "empathetic")

	want := "Conversation so far:\nYou: hi\nFriend: look [Image shared]\nYou: [Image shared]"
	assert.True(t, strings.HasPrefix(user, want), user)
	assert.True(t, strings.HasSuffix(user, "Write a single empathetic reply that the user could send next."))
}

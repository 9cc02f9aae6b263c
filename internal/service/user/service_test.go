package user

import (
	"context"
	"strings"
	"testing"

	"pulse_chat_server/internal/dao/mysql/mysqltest"
	"pulse_chat_server/internal/dto/request"
	"pulse_chat_server/internal/infrastructure/storage"
	"pulse_chat_server/internal/service/auth"
	"pulse_chat_server/pkg/errorx"
	"pulse_chat_server/pkg/util/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pngDataURL = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

func newService(t *testing.T) *Service {
	t.Helper()
	jwt.Init("user-secret", 15, 24)
	repos := mysqltest.NewRepositories(t)
	return NewUserService(repos, auth.NewAuthService(nil), storage.NewLocalImageStore(t.TempDir(), "/static/avatars"))
}

func signup(t *testing.T, svc *Service, name, email string) string {
	t.Helper()
	out, err := svc.Signup(context.Background(), request.SignupRequest{FullName: name, Email: email, Password: "secret123"})
	require.NoError(t, err)
	return out.ID
}

func TestSignupAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	out, err := svc.Signup(ctx, request.SignupRequest{FullName: " Alice ", Email: "Alice@Example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out.ID, "U"))
	assert.Equal(t, "Alice", out.FullName)
	assert.Equal(t, "alice@example.com", out.Email)
	assert.NotEmpty(t, out.AccessToken)
	assert.NotEmpty(t, out.RefreshToken)

	_, err = svc.Signup(ctx, request.SignupRequest{FullName: "A2", Email: "alice@example.com", Password: "secret123"})
	assert.Equal(t, errorx.CodeUserExist, errorx.GetCode(err))

	logged, err := svc.Login(ctx, request.LoginRequest{Email: "ALICE@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, out.ID, logged.ID)

	_, err = svc.Login(ctx, request.LoginRequest{Email: "alice@example.com", Password: "wrong-pass"})
	assert.Equal(t, errorx.CodeInvalidPassword, errorx.GetCode(err))

	_, err = svc.Login(ctx, request.LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	assert.Equal(t, errorx.CodeInvalidPassword, errorx.GetCode(err))
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	id := signup(t, svc, "Alice", "alice@example.com")

	u, err := svc.UpdateName(ctx, id, "  Alice L ")
	require.NoError(t, err)
	assert.Equal(t, "Alice L", u.FullName)

	_, err = svc.UpdateName(ctx, id, "  ")
	assert.Equal(t, errorx.CodeInvalidParam, errorx.GetCode(err))

	u, err = svc.UpdateProfilePic(ctx, id, pngDataURL)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u.ProfilePic, "/static/avatars/"))

	me, err := svc.Me(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, u.ProfilePic, me.ProfilePic)
	assert.Equal(t, "Alice L", me.FullName)

	// 密码不受资料更新影响
	_, err = svc.Login(ctx, request.LoginRequest{Email: "alice@example.com", Password: "secret123"})
	assert.NoError(t, err)

	_, err = svc.Me(ctx, "ghost")
	assert.Equal(t, errorx.CodeNotFound, errorx.GetCode(err))
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	alice := signup(t, svc, "Alice", "alice@example.com")
	signup(t, svc, "Bob", "bob@example.com")

	_, err := svc.Search(ctx, alice, " ")
	assert.Equal(t, errorx.CodeInvalidParam, errorx.GetCode(err))

	found, err := svc.Search(ctx, alice, "BOB")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Bob", found[0].FullName)

	_, err = svc.Search(ctx, alice, "alice")
	assert.Equal(t, errorx.CodeNotFound, errorx.GetCode(err), "self is excluded")
}

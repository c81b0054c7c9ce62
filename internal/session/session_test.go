package session

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/api"
	"fintrack/internal/log"
	"fintrack/internal/secrets"
)

type fakeAuth struct {
	loginResult    api.LoginResult
	loginErr       error
	registerResult api.LoginResult
	registerErr    error
	currentUser    api.User
	currentUserErr error

	currentUserCalls int
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (api.LoginResult, error) {
	return f.loginResult, f.loginErr
}

func (f *fakeAuth) Register(ctx context.Context, email, password string) (api.LoginResult, error) {
	return f.registerResult, f.registerErr
}

func (f *fakeAuth) CurrentUser(ctx context.Context) (api.User, error) {
	f.currentUserCalls++
	return f.currentUser, f.currentUserErr
}

func newHolder(t *testing.T, auth *fakeAuth, cfg Config) (*Holder, secrets.Store) {
	t.Helper()
	store := secrets.NewMemoryStore()
	logger := log.New(log.DefaultConfig())
	return NewHolder(auth, store, cfg, logger), store
}

func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

func TestBootstrapWithoutToken(t *testing.T) {
	auth := &fakeAuth{}
	h, _ := newHolder(t, auth, Config{})

	require.NoError(t, h.Bootstrap(context.Background()))
	assert.Equal(t, Unauthenticated, h.State())
	assert.Zero(t, auth.currentUserCalls)
}

func TestBootstrapWithValidToken(t *testing.T) {
	auth := &fakeAuth{currentUser: api.User{ID: 1, Email: "user@example.com"}}
	h, store := newHolder(t, auth, Config{})
	require.NoError(t, store.Set(secrets.KeyToken, signedToken(t, time.Now().Add(time.Hour))))

	require.NoError(t, h.Bootstrap(context.Background()))
	assert.Equal(t, Authenticated, h.State())
	assert.Equal(t, "user@example.com", h.User().Email)
	assert.Equal(t, 1, auth.currentUserCalls)
}

func TestBootstrapLocallyExpiredTokenSkipsNetwork(t *testing.T) {
	auth := &fakeAuth{currentUser: api.User{ID: 1}}
	h, store := newHolder(t, auth, Config{})
	require.NoError(t, store.Set(secrets.KeyToken, signedToken(t, time.Now().Add(-time.Hour))))

	require.NoError(t, h.Bootstrap(context.Background()))
	assert.Equal(t, Unauthenticated, h.State())
	assert.Zero(t, auth.currentUserCalls, "expired token must not hit the API")

	_, err := store.Get(secrets.KeyToken)
	assert.ErrorIs(t, err, secrets.ErrNotFound, "expired token should be dropped")
}

func TestBootstrapOpaqueTokenGoesToServer(t *testing.T) {
	auth := &fakeAuth{currentUser: api.User{ID: 1, Email: "user@example.com"}}
	h, store := newHolder(t, auth, Config{})
	require.NoError(t, store.Set(secrets.KeyToken, "not-a-jwt"))

	require.NoError(t, h.Bootstrap(context.Background()))
	assert.Equal(t, Authenticated, h.State())
	assert.Equal(t, 1, auth.currentUserCalls)
}

func TestBootstrapServerRejectsToken(t *testing.T) {
	auth := &fakeAuth{currentUserErr: api.ErrSessionExpired}
	h, store := newHolder(t, auth, Config{})
	require.NoError(t, store.Set(secrets.KeyToken, signedToken(t, time.Now().Add(time.Hour))))

	require.NoError(t, h.Bootstrap(context.Background()))
	assert.Equal(t, Unauthenticated, h.State())
}

func TestSignInSuccess(t *testing.T) {
	auth := &fakeAuth{loginResult: api.LoginResult{
		Token: "tok",
		User:  api.User{ID: 7, Email: "user@example.com"},
	}}
	h, _ := newHolder(t, auth, Config{})

	ok, err := h.SignIn(context.Background(), "user@example.com", "hunter2")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Authenticated, h.State())
	assert.Equal(t, int64(7), h.User().ID)
}

func TestSignInRejected(t *testing.T) {
	auth := &fakeAuth{loginErr: &api.APIError{Status: http.StatusUnauthorized, Msg: "Bad email or password"}}
	h, _ := newHolder(t, auth, Config{})

	ok, err := h.SignIn(context.Background(), "user@example.com", "wrong")
	require.NoError(t, err, "rejection is a result, not a fault")
	assert.False(t, ok)
	assert.Equal(t, Unauthenticated, h.State())
}

func TestSignInUnavailable(t *testing.T) {
	auth := &fakeAuth{loginErr: api.ErrUnavailable}
	h, _ := newHolder(t, auth, Config{})

	ok, err := h.SignIn(context.Background(), "user@example.com", "hunter2")
	assert.ErrorIs(t, err, api.ErrUnavailable)
	assert.False(t, ok)
	assert.Equal(t, Unauthenticated, h.State())
}

func TestSignUpWithoutAutoLogin(t *testing.T) {
	auth := &fakeAuth{registerResult: api.LoginResult{Token: "tok", User: api.User{ID: 2}}}
	h, store := newHolder(t, auth, Config{AutoLogin: false})

	ok, err := h.SignUp(context.Background(), "new@example.com", "hunter2")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEqual(t, Authenticated, h.State())

	_, err = store.Get(secrets.KeyToken)
	assert.ErrorIs(t, err, secrets.ErrNotFound)
}

func TestSignUpWithAutoLogin(t *testing.T) {
	auth := &fakeAuth{registerResult: api.LoginResult{
		Token: "tok",
		User:  api.User{ID: 2, Email: "new@example.com"},
	}}
	h, store := newHolder(t, auth, Config{AutoLogin: true})

	ok, err := h.SignUp(context.Background(), "new@example.com", "hunter2")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Authenticated, h.State())

	token, err := store.Get(secrets.KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
}

func TestSignOut(t *testing.T) {
	auth := &fakeAuth{loginResult: api.LoginResult{User: api.User{ID: 7}}}
	h, store := newHolder(t, auth, Config{})
	require.NoError(t, store.Set(secrets.KeyToken, "tok"))

	ok, err := h.SignIn(context.Background(), "user@example.com", "hunter2")
	require.NoError(t, err)
	require.True(t, ok)

	h.SignOut()
	assert.Equal(t, Unauthenticated, h.State())
	_, err = store.Get(secrets.KeyToken)
	assert.ErrorIs(t, err, secrets.ErrNotFound)
}

func TestHandleExpiry(t *testing.T) {
	auth := &fakeAuth{loginResult: api.LoginResult{User: api.User{ID: 7}}}
	h, _ := newHolder(t, auth, Config{})

	ok, err := h.SignIn(context.Background(), "user@example.com", "hunter2")
	require.NoError(t, err)
	require.True(t, ok)

	h.HandleExpiry()
	assert.Equal(t, Unauthenticated, h.State())
	assert.Zero(t, h.User().ID)
}

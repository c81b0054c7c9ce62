// Package session owns the authentication state machine:
//
//	uninitialized -> authenticating -> authenticated | unauthenticated
//
// It is the only writer of the current-user state; views read it and
// dispatch SignIn/SignUp/SignOut, never mutate it directly.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"fintrack/internal/api"
	"fintrack/internal/log"
	"fintrack/internal/secrets"
)

type State string

const (
	Uninitialized   State = "uninitialized"
	Authenticating  State = "authenticating"
	Authenticated   State = "authenticated"
	Unauthenticated State = "unauthenticated"
)

// Authenticator is the slice of the API client the session holder needs.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (api.LoginResult, error)
	Register(ctx context.Context, email, password string) (api.LoginResult, error)
	CurrentUser(ctx context.Context) (api.User, error)
}

// Config controls session behavior.
type Config struct {
	// AutoLogin signs the user in immediately after a successful
	// registration, using the token the register endpoint returns. The two
	// original clients disagreed on this; it is an explicit choice here.
	AutoLogin bool
}

// Holder tracks who is signed in. Safe for concurrent use.
type Holder struct {
	auth   Authenticator
	store  secrets.Store
	cfg    Config
	logger *log.Logger

	mu    sync.Mutex
	state State
	user  api.User
}

func NewHolder(auth Authenticator, store secrets.Store, cfg Config, logger *log.Logger) *Holder {
	return &Holder{
		auth:   auth,
		store:  store,
		cfg:    cfg,
		logger: logger.WithComponent(log.ComponentSession),
		state:  Uninitialized,
	}
}

// State returns the current session state.
func (h *Holder) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// User returns the signed-in user. Only meaningful when State() is
// Authenticated.
func (h *Holder) User() api.User {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.user
}

// Bootstrap resolves any stored token to a user. A token whose exp claim has
// already passed is dropped locally without a network round trip.
func (h *Holder) Bootstrap(ctx context.Context) error {
	h.setState(Authenticating, api.User{})

	token, err := h.store.Get(secrets.KeyToken)
	if errors.Is(err, secrets.ErrNotFound) || token == "" {
		h.setState(Unauthenticated, api.User{})
		return nil
	}
	if err != nil {
		h.setState(Unauthenticated, api.User{})
		return fmt.Errorf("read token: %w", err)
	}

	if tokenExpired(token, time.Now()) {
		h.logger.Info("Stored token is expired, dropping it", log.FieldOperation, log.OpBootstrap)
		_ = h.store.Remove(secrets.KeyToken)
		h.setState(Unauthenticated, api.User{})
		return nil
	}

	user, err := h.auth.CurrentUser(ctx)
	if err != nil {
		// Expired and unreachable both land unauthenticated; the distinction
		// only matters to the caller's messaging.
		h.setState(Unauthenticated, api.User{})
		if errors.Is(err, api.ErrSessionExpired) {
			return nil
		}
		return err
	}

	h.setState(Authenticated, user)
	h.logger.Info("Session restored", log.FieldUserEmail, user.Email)
	return nil
}

// SignIn authenticates with credentials. Returns false (with nil error) when
// the server rejects them; an error only for transport-level failures.
func (h *Holder) SignIn(ctx context.Context, email, password string) (bool, error) {
	h.setState(Authenticating, api.User{})

	res, err := h.auth.Login(ctx, email, password)
	if err != nil {
		h.setState(Unauthenticated, api.User{})
		var apiErr *api.APIError
		if errors.As(err, &apiErr) {
			h.logger.Warn("Sign-in rejected",
				log.FieldOperation, log.OpSignIn,
				log.FieldUserEmail, email,
				log.FieldStatusCode, apiErr.Status)
			return false, nil
		}
		return false, err
	}

	h.setState(Authenticated, res.User)
	h.logger.Info("Signed in", log.FieldUserEmail, res.User.Email)
	return true, nil
}

// SignUp registers a new account. With AutoLogin enabled and a token in the
// response, the user is signed in immediately; otherwise the caller must
// SignIn afterwards.
func (h *Holder) SignUp(ctx context.Context, email, password string) (bool, error) {
	res, err := h.auth.Register(ctx, email, password)
	if err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) {
			h.logger.Warn("Sign-up rejected",
				log.FieldOperation, log.OpSignUp,
				log.FieldUserEmail, email,
				log.FieldStatusCode, apiErr.Status)
			return false, nil
		}
		return false, err
	}

	if !h.cfg.AutoLogin || res.Token == "" {
		h.logger.Info("Account created", log.FieldUserEmail, email)
		return true, nil
	}

	if err := h.store.Set(secrets.KeyToken, res.Token); err != nil {
		return true, fmt.Errorf("persist token: %w", err)
	}
	h.setState(Authenticated, res.User)
	h.logger.Info("Account created and signed in", log.FieldUserEmail, email)
	return true, nil
}

// SignOut clears the persisted token and the in-memory user.
func (h *Holder) SignOut() {
	if err := h.store.Remove(secrets.KeyToken); err != nil {
		h.logger.Warn("Failed to remove token", log.FieldError, err.Error())
	}
	h.setState(Unauthenticated, api.User{})
	h.logger.Info("Signed out", log.FieldOperation, log.OpSignOut)
}

// HandleExpiry is wired as the API client's 401 hook: the token is already
// cleared by the client, only the in-memory state needs to fall.
func (h *Holder) HandleExpiry() {
	h.setState(Unauthenticated, api.User{})
	h.logger.Warn("Session expired")
}

func (h *Holder) setState(s State, u api.User) {
	h.mu.Lock()
	h.state = s
	h.user = u
	h.mu.Unlock()
}

// tokenExpired reports whether the JWT's exp claim is in the past. The
// signature is NOT verified; this is a shortcut to skip a doomed round trip,
// the server remains the authority. Opaque or claimless tokens pass through.
func tokenExpired(token string, now time.Time) bool {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Time.Before(now)
}

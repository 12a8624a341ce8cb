package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/raphaelgruber/adviser/internal/client"
)

// Authenticator exchanges credentials for an access token.
type Authenticator interface {
	Signup(ctx context.Context, email, password string) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
}

// AuthController drives signup, login and logout.
type AuthController struct {
	tokens   *TokenStore
	api      Authenticator
	msgs     Messages
	logger   *slog.Logger
	onLogout func()

	mu      sync.Mutex
	busy    bool
	status  StatusMessage
	flagged []Field
	focus   Field
}

// authOp describes the differences between signup and login.
type authOp struct {
	name     string
	call     func(ctx context.Context, email, password string) (string, error)
	progress string
	success  string
	fallback string
}

// NewAuthController creates an auth controller. onLogout, if set, runs after
// every logout to clear the rendered conversation.
func NewAuthController(tokens *TokenStore, api Authenticator, msgs Messages, logger *slog.Logger, onLogout func()) *AuthController {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthController{
		tokens:   tokens,
		api:      api,
		msgs:     msgs,
		logger:   logger,
		onLogout: onLogout,
	}
}

// State reads the current state from the token store.
func (a *AuthController) State(ctx context.Context) AuthState {
	if _, ok := a.tokens.Get(ctx); ok {
		return Authenticated
	}
	return Anonymous
}

// Visibility re-derives the auth affordances from the token store.
func (a *AuthController) Visibility(ctx context.Context) Visibility {
	return VisibilityFor(a.State(ctx))
}

// View returns a snapshot of the authentication surface.
func (a *AuthController) View(ctx context.Context) AuthView {
	state := a.State(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()

	return AuthView{
		State:            state,
		Visibility:       VisibilityFor(state),
		Status:           a.status,
		Flagged:          append([]Field(nil), a.flagged...),
		Focus:            a.focus,
		ControlsDisabled: a.busy,
	}
}

// Signup creates an account and stores its token.
func (a *AuthController) Signup(ctx context.Context, email, password string) error {
	return a.authenticate(ctx, authOp{
		name:     "signup",
		call:     a.api.Signup,
		progress: a.msgs.SigningUp,
		success:  a.msgs.SignedUp,
		fallback: a.msgs.SignupFailed,
	}, email, password)
}

// Login signs in and stores the returned token.
func (a *AuthController) Login(ctx context.Context, email, password string) error {
	return a.authenticate(ctx, authOp{
		name:     "login",
		call:     a.api.Login,
		progress: a.msgs.LoggingIn,
		success:  a.msgs.LoggedIn,
		fallback: a.msgs.LoginFailed,
	}, email, password)
}

func (a *AuthController) authenticate(ctx context.Context, op authOp, email, password string) error {
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)

	a.mu.Lock()
	if a.busy {
		a.mu.Unlock()
		return ErrBusy
	}

	var missing []Field
	if email == "" {
		missing = append(missing, FieldEmail)
	}
	if password == "" {
		missing = append(missing, FieldPassword)
	}
	if len(missing) > 0 {
		a.status = StatusMessage{Text: a.msgs.MissingCredentials, IsError: true}
		a.flagged = missing
		a.focus = missing[0]
		a.mu.Unlock()
		return &ValidationError{Fields: missing}
	}

	a.busy = true
	a.flagged = nil
	a.focus = ""
	a.status = StatusMessage{Text: op.progress}
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.busy = false
		a.mu.Unlock()
	}()

	token, err := op.call(ctx, email, password)
	if err == nil {
		err = a.tokens.Set(ctx, token)
	}
	if err != nil {
		msg, classified := classifyAuthError(err, op.fallback, a.msgs.Unexpected)
		a.setStatus(StatusMessage{Text: msg, IsError: true})
		a.logger.Warn("authentication failed", "op", op.name, "error", err)
		return classified
	}

	a.setStatus(StatusMessage{Text: op.success})
	a.logger.Info("authenticated", "op", op.name)
	return nil
}

// Logout clears the token and the rendered conversation. The history log is kept.
func (a *AuthController) Logout(ctx context.Context) error {
	if err := a.tokens.Clear(ctx); err != nil {
		return err
	}

	a.mu.Lock()
	a.status = StatusMessage{Text: a.msgs.LoggedOut}
	a.flagged = nil
	a.focus = ""
	a.mu.Unlock()

	if a.onLogout != nil {
		a.onLogout()
	}
	a.logger.Info("logged out")
	return nil
}

func (a *AuthController) setStatus(s StatusMessage) {
	a.mu.Lock()
	a.status = s
	a.mu.Unlock()
}

// classifyAuthError maps a backend failure to the user message and the
// returned error. Backend detail wins over the fallback text.
func classifyAuthError(err error, fallback, unexpected string) (string, error) {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		msg := fallback
		if apiErr.HasDetail {
			msg = apiErr.Detail
		}
		if apiErr.Unauthorized() {
			return msg, fmt.Errorf("%w: %s", ErrUnauthorized, msg)
		}
		return msg, &RequestFailedError{Status: apiErr.StatusCode, Detail: apiErr.Detail}
	}
	if errors.Is(err, ErrMalformedResponse) {
		return fallback, err
	}
	return unexpected, err
}

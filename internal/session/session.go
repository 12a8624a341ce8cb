// Package session implements the client session: the token store, the
// persisted conversation history, and the auth and conversation controllers
// that share them.
package session

import (
	"context"
	"log/slog"

	"github.com/raphaelgruber/adviser/internal/labels"
	"github.com/raphaelgruber/adviser/internal/storage"
)

// Backend is the remote API used by both controllers.
type Backend interface {
	Authenticator
	Asker
}

// Dependencies holds what a Session needs.
type Dependencies struct {
	Store    storage.Store
	Backend  Backend
	Labels   labels.Func
	Messages Messages
	Logger   *slog.Logger
}

// Session wires the controllers to shared stores.
type Session struct {
	Tokens       *TokenStore
	History      *HistoryLog
	Auth         *AuthController
	Conversation *ConversationController
}

// New builds a session. Logging out clears the rendered conversation.
func New(deps Dependencies) *Session {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tokens := NewTokenStore(deps.Store, logger)
	history := NewHistoryLog(deps.Store, logger)
	conv := NewConversationController(tokens, history, deps.Backend, deps.Labels, deps.Messages, logger)
	auth := NewAuthController(tokens, deps.Backend, deps.Messages, logger, conv.ResetDisplay)

	return &Session{
		Tokens:       tokens,
		History:      history,
		Auth:         auth,
		Conversation: conv,
	}
}

// Outcome is the result of bootstrapping a session.
type Outcome struct {
	State      AuthState
	Visibility Visibility

	// Redirect is set when no token is held and the auth surface must be shown.
	Redirect bool
}

// Bootstrap decides what to show on load: the auth surface when anonymous,
// otherwise the rendered history.
func (s *Session) Bootstrap(ctx context.Context) Outcome {
	state := s.Auth.State(ctx)
	out := Outcome{State: state, Visibility: VisibilityFor(state)}
	if state == Anonymous {
		out.Redirect = true
		return out
	}
	s.Conversation.Render(ctx)
	return out
}

package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/raphaelgruber/adviser/internal/client"
	"github.com/raphaelgruber/adviser/internal/labels"
	"github.com/raphaelgruber/adviser/internal/session"
	"github.com/raphaelgruber/adviser/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAskBlankIsIgnored(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{answer: &client.Answer{Category: "general", Advice: "x"}}
	s, _ := newSession(backend)

	for _, q := range []string{"", "   ", "\n\t"} {
		require.NoError(t, s.Conversation.Ask(ctx, q))
	}

	_, _, asks := backend.calls()
	assert.Zero(t, asks)
	assert.Empty(t, s.History.Load(ctx))
	assert.Empty(t, s.Conversation.View().Pane.Bubbles)
	_, ok := s.Conversation.Exchange()
	assert.False(t, ok, "no exchange is created for blank input")
}

func TestAskSuccessAppendsEntry(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{
		token:  "tok",
		answer: &client.Answer{Category: "phishing", Advice: "do not click", Sources: []string{"model"}},
	}
	s, _ := newSession(backend)
	require.NoError(t, s.Auth.Login(ctx, "a@b.co", "pw"))

	require.NoError(t, s.Conversation.Ask(ctx, "  is this a scam email?  "))

	entries := s.History.Load(ctx)
	require.Len(t, entries, 1)
	assert.Equal(t, "is this a scam email?", entries[0].Question)
	assert.Equal(t, "phishing", entries[0].Category)
	assert.Equal(t, "do not click", entries[0].Advice)
	assert.False(t, entries[0].CreatedAt.IsZero())

	view := s.Conversation.View()
	assert.False(t, view.Loading)
	assert.False(t, view.SubmitDisabled)
	assert.Equal(t, session.Result{
		Visible:  true,
		Category: "phishing",
		Label:    labels.Arabic("phishing"),
		Advice:   "do not click",
		Sources:  []string{"model"},
	}, view.Result)

	require.Len(t, view.Pane.Bubbles, 2)
	assert.Equal(t, session.Bubble{Kind: session.BubbleQuestion, Text: "is this a scam email?"}, view.Pane.Bubbles[0])
	assert.Equal(t, session.Bubble{
		Kind:     session.BubbleAnswer,
		Text:     "do not click",
		Category: "phishing",
		Label:    "التصيد",
	}, view.Pane.Bubbles[1])
	assert.Equal(t, 1, view.Pane.ScrollTo)

	ex, ok := s.Conversation.Exchange()
	require.True(t, ok)
	assert.Equal(t, session.ExchangeResolved, ex.State)
	require.NotNil(t, ex.Entry)
	assert.Equal(t, entries[0], *ex.Entry, "the kept entry equals the persisted one")
	assert.Equal(t, time.UTC, ex.Entry.CreatedAt.Location())

	assert.Equal(t, []string{"tok"}, backend.askTokens)
}

func TestAskFailureNeverPersists(t *testing.T) {
	ctx := context.Background()
	msgs := session.ArabicMessages()

	tests := []struct {
		name    string
		err     error
		wantMsg string
		check   func(t *testing.T, err error)
	}{
		{
			name:    "unauthorized",
			err:     &client.APIError{StatusCode: http.StatusUnauthorized, Detail: "Token required", HasDetail: true},
			wantMsg: msgs.SignInFirst,
			check:   func(t *testing.T, err error) { assert.ErrorIs(t, err, session.ErrUnauthorized) },
		},
		{
			name:    "server error without detail",
			err:     &client.APIError{StatusCode: http.StatusServiceUnavailable},
			wantMsg: "HTTP 503",
			check: func(t *testing.T, err error) {
				var rf *session.RequestFailedError
				require.True(t, errors.As(err, &rf))
				assert.Equal(t, http.StatusServiceUnavailable, rf.Status)
			},
		},
		{
			name:    "server error with detail",
			err:     &client.APIError{StatusCode: http.StatusUnprocessableEntity, Detail: "field required", HasDetail: true},
			wantMsg: "field required",
			check:   func(t *testing.T, err error) { assert.True(t, session.IsRequestFailed(err)) },
		},
		{
			name:    "malformed",
			err:     client.ErrMalformedResponse,
			wantMsg: msgs.AskFailed,
			check:   func(t *testing.T, err error) { assert.ErrorIs(t, err, session.ErrMalformedResponse) },
		},
		{
			name:    "transport",
			err:     context.DeadlineExceeded,
			wantMsg: msgs.AskFailed,
			check:   func(t *testing.T, err error) { assert.ErrorIs(t, err, context.DeadlineExceeded) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newSession(&fakeBackend{askErr: tt.err})

			err := s.Conversation.Ask(ctx, "valid question")
			tt.check(t, err)

			assert.Empty(t, s.History.Load(ctx))

			view := s.Conversation.View()
			assert.False(t, view.Loading, "loading indicator is hidden")
			assert.False(t, view.SubmitDisabled)
			assert.Empty(t, view.Pane.Bubbles, "pending placeholder is removed")
			assert.Equal(t, session.Result{Visible: true, Error: tt.wantMsg}, view.Result)

			ex, ok := s.Conversation.Exchange()
			require.True(t, ok)
			assert.Equal(t, session.ExchangeFailed, ex.State)
			assert.Error(t, ex.Err)
		})
	}
}

func TestAskShowsPendingAndSerializes(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{
		answer:  &client.Answer{Category: "malware", Advice: "scan"},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	s, _ := newSession(backend)

	done := make(chan error, 1)
	go func() { done <- s.Conversation.Ask(ctx, "first") }()
	<-backend.started

	view := s.Conversation.View()
	assert.True(t, view.Loading)
	assert.True(t, view.SubmitDisabled)
	assert.Equal(t, session.ArabicMessages().Processing, view.Status)
	assert.False(t, view.Result.Visible, "result area is hidden while waiting")
	require.Len(t, view.Pane.Bubbles, 1)
	pending := view.Pane.Bubbles[0]
	assert.Equal(t, session.BubblePending, pending.Kind)
	assert.Equal(t, session.ArabicMessages().Pending, pending.Text)

	ex, ok := s.Conversation.Exchange()
	require.True(t, ok)
	assert.Equal(t, session.ExchangePending, ex.State)
	assert.Equal(t, ex.ID, pending.RequestID)

	assert.ErrorIs(t, s.Conversation.Ask(ctx, "second"), session.ErrAskInFlight)
	assert.Len(t, s.Conversation.View().Pane.Bubbles, 1, "at most one pending placeholder")

	close(backend.release)
	require.NoError(t, <-done)

	view = s.Conversation.View()
	assert.False(t, view.Loading)
	for _, b := range view.Pane.Bubbles {
		assert.NotEqual(t, session.BubblePending, b.Kind)
	}

	_, _, asks := backend.calls()
	assert.Equal(t, 1, asks)

	// A fresh request gets a larger token.
	backend.mu.Lock()
	backend.started, backend.release = nil, nil
	backend.mu.Unlock()
	require.NoError(t, s.Conversation.Ask(ctx, "third"))
	next, _ := s.Conversation.Exchange()
	assert.Greater(t, next.ID, ex.ID)
}

func TestLogoutDuringAskKeepsDisplayCleared(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{
		token:   "tok",
		answer:  &client.Answer{Category: "malware", Advice: "scan"},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	s, _ := newSession(backend)
	require.NoError(t, s.Auth.Login(ctx, "a@b.co", "pw"))

	done := make(chan error, 1)
	go func() { done <- s.Conversation.Ask(ctx, "popups everywhere") }()
	<-backend.started

	require.NoError(t, s.Auth.Logout(ctx))
	close(backend.release)
	require.NoError(t, <-done)

	view := s.Conversation.View()
	assert.Empty(t, view.Pane.Bubbles)
	assert.False(t, view.Result.Visible)
	assert.False(t, view.Loading)
	assert.Len(t, s.History.Load(ctx), 1, "the answer is still logged")

	ex, ok := s.Conversation.Exchange()
	require.True(t, ok)
	assert.Equal(t, session.ExchangeResolved, ex.State)
}

func TestClearHistory(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{answer: &client.Answer{Category: "general", Advice: "x"}}
	s, _ := newSession(backend)

	require.NoError(t, s.Conversation.Ask(ctx, "q1"))
	require.NoError(t, s.Conversation.Ask(ctx, "q2"))
	require.Len(t, s.Conversation.View().Pane.Bubbles, 4)

	require.NoError(t, s.Conversation.ClearHistory(ctx))
	assert.Empty(t, s.History.Load(ctx))
	view := s.Conversation.View()
	assert.Empty(t, view.Pane.Bubbles)
	assert.Equal(t, -1, view.Pane.ScrollTo)
}

func TestBootstrap(t *testing.T) {
	ctx := context.Background()

	t.Run("fresh profile redirects", func(t *testing.T) {
		s, _ := newSession(&fakeBackend{})

		out := s.Bootstrap(ctx)
		assert.True(t, out.Redirect)
		assert.Equal(t, session.Anonymous, out.State)
		assert.Equal(t, session.Visibility{Signup: true, Login: true}, out.Visibility)

		pane := s.Conversation.View().Pane
		assert.False(t, pane.Visible)
		assert.Empty(t, pane.Bubbles)
	})

	t.Run("anonymous with history still redirects", func(t *testing.T) {
		s, _ := newSession(&fakeBackend{})
		require.NoError(t, s.History.Append(ctx, session.Entry{Question: "old", Category: "general"}))

		assert.True(t, s.Bootstrap(ctx).Redirect)
		assert.Empty(t, s.Conversation.View().Pane.Bubbles)
	})

	t.Run("token renders history", func(t *testing.T) {
		s, _ := newSession(&fakeBackend{})
		require.NoError(t, s.Tokens.Set(ctx, "tok"))
		require.NoError(t, s.History.Append(ctx, session.Entry{Question: "q1", Category: "passwords", Advice: "a1"}))
		require.NoError(t, s.History.Append(ctx, session.Entry{Question: "q2", Category: "unknown_tag", Advice: "a2"}))

		out := s.Bootstrap(ctx)
		assert.False(t, out.Redirect)
		assert.Equal(t, session.Visibility{Logout: true}, out.Visibility)

		pane := s.Conversation.View().Pane
		assert.True(t, pane.Visible)
		require.Len(t, pane.Bubbles, 4)
		assert.Equal(t, "q1", pane.Bubbles[0].Text)
		assert.Equal(t, "كلمات المرور", pane.Bubbles[1].Label)
		assert.Equal(t, "q2", pane.Bubbles[2].Text)
		assert.Equal(t, "unknown_tag", pane.Bubbles[3].Label, "unknown tags fall back to the raw tag")
		assert.Equal(t, 3, pane.ScrollTo)
	})
}

// newHTTPSession wires a session to a real client against a chi fake backend.
func newHTTPSession(t *testing.T, ask http.HandlerFunc) *session.Session {
	t.Helper()

	r := chi.NewRouter()
	r.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "jwt-token"})
	})
	r.Post("/ask", ask)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return session.New(session.Dependencies{
		Store:    storage.NewMemory(),
		Backend:  client.New(srv.URL, 5*time.Second),
		Labels:   labels.Arabic,
		Messages: session.ArabicMessages(),
		Logger:   discardLogger(),
	})
}

func TestAskOverHTTPUnauthorized(t *testing.T) {
	ctx := context.Background()
	s := newHTTPSession(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Token required"}`))
	})

	err := s.Conversation.Ask(ctx, "valid question")
	assert.ErrorIs(t, err, session.ErrUnauthorized)

	view := s.Conversation.View()
	assert.Empty(t, s.History.Load(ctx))
	assert.Equal(t, session.ArabicMessages().SignInFirst, view.Result.Error)
	assert.False(t, view.Loading)
	assert.Empty(t, view.Pane.Bubbles)
}

func TestAskOverHTTPPhishing(t *testing.T) {
	ctx := context.Background()
	s := newHTTPSession(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer jwt-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"category": "phishing",
			"advice":   "Verify the sender before clicking links.",
			"sources":  []string{"model", "built_in_advice"},
		})
	})

	require.NoError(t, s.Auth.Login(ctx, "a@b.co", "pw"))
	require.NoError(t, s.Conversation.Ask(ctx, "is this a scam email?"))

	entries := s.History.Load(ctx)
	require.Len(t, entries, 1)
	assert.Equal(t, "is this a scam email?", entries[0].Question)
	assert.Equal(t, "phishing", entries[0].Category)
	assert.Equal(t, "Verify the sender before clicking links.", entries[0].Advice)

	view := s.Conversation.View()
	assert.Equal(t, "التصيد", view.Result.Label)
	assert.Equal(t, "Verify the sender before clicking links.", view.Result.Advice)
	for _, b := range view.Pane.Bubbles {
		assert.NotEqual(t, session.BubblePending, b.Kind)
	}
}

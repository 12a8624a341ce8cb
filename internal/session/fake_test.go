package session_test

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/raphaelgruber/adviser/internal/client"
	"github.com/raphaelgruber/adviser/internal/labels"
	"github.com/raphaelgruber/adviser/internal/session"
	"github.com/raphaelgruber/adviser/internal/storage"
)

// fakeBackend is an in-process Backend with scripted responses.
type fakeBackend struct {
	mu sync.Mutex

	token   string
	authErr error
	answer  *client.Answer
	askErr  error

	// When release is set, Ask signals started and blocks until release is closed.
	started chan struct{}
	release chan struct{}

	signupCalls int
	loginCalls  int
	askCalls    int
	askTokens   []string
}

func (f *fakeBackend) Signup(ctx context.Context, email, password string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signupCalls++
	return f.token, f.authErr
}

func (f *fakeBackend) Login(ctx context.Context, email, password string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginCalls++
	return f.token, f.authErr
}

func (f *fakeBackend) Ask(ctx context.Context, token, question string) (*client.Answer, error) {
	f.mu.Lock()
	f.askCalls++
	f.askTokens = append(f.askTokens, token)
	started, release := f.started, f.release
	ans, err := f.answer, f.askErr
	f.mu.Unlock()

	if release != nil {
		started <- struct{}{}
		<-release
	}
	return ans, err
}

func (f *fakeBackend) calls() (signup, login, ask int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signupCalls, f.loginCalls, f.askCalls
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newSession builds a session on a fresh in-memory store.
func newSession(backend *fakeBackend) (*session.Session, *storage.Memory) {
	store := storage.NewMemory()
	s := session.New(session.Dependencies{
		Store:    store,
		Backend:  backend,
		Labels:   labels.Arabic,
		Messages: session.ArabicMessages(),
		Logger:   discardLogger(),
	})
	return s, store
}

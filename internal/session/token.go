package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/raphaelgruber/adviser/internal/storage"
)

const tokenKey = "token"

// TokenStore persists the single opaque auth token.
type TokenStore struct {
	store  storage.Store
	logger *slog.Logger
}

// NewTokenStore wraps s. A nil logger uses slog.Default().
func NewTokenStore(s storage.Store, logger *slog.Logger) *TokenStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenStore{store: s, logger: logger}
}

// Set persists token, replacing any existing one.
func (t *TokenStore) Set(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("empty token")
	}
	if err := t.store.Set(ctx, tokenKey, token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	return nil
}

// Get returns the persisted token. Unreadable values count as absent.
func (t *TokenStore) Get(ctx context.Context) (string, bool) {
	token, err := t.store.Get(ctx, tokenKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			t.logger.Debug("token unreadable, treating as absent",
				"error", fmt.Errorf("%w: %v", ErrPersistedStateCorrupt, err))
		}
		return "", false
	}
	return token, token != ""
}

// Clear removes the persisted token.
func (t *TokenStore) Clear(ctx context.Context) error {
	if err := t.store.Remove(ctx, tokenKey); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/raphaelgruber/adviser/internal/storage"
)

const historyKey = "qa_history"

// Entry is one answered question. Entries are never modified after creation.
type Entry struct {
	Question  string    `json:"question" yaml:"question"`
	Category  string    `json:"category" yaml:"category"`
	Advice    string    `json:"advice" yaml:"advice"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
}

// HistoryLog persists the ordered conversation history as one value.
// Every operation goes to the store; nothing is cached.
type HistoryLog struct {
	store  storage.Store
	logger *slog.Logger

	// mu serializes the read-modify-write in Append.
	mu sync.Mutex
}

// NewHistoryLog wraps s. A nil logger uses slog.Default().
func NewHistoryLog(s storage.Store, logger *slog.Logger) *HistoryLog {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryLog{store: s, logger: logger}
}

// Load returns the full log, oldest first. Absent or malformed data yields an
// empty log.
func (h *HistoryLog) Load(ctx context.Context) []Entry {
	raw, err := h.store.Get(ctx, historyKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			h.corrupt(err)
		}
		return []Entry{}
	}

	var entries []Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		h.corrupt(err)
		return []Entry{}
	}
	if entries == nil {
		return []Entry{}
	}
	return entries
}

// Append adds e to the end of the latest persisted log.
func (h *HistoryLog) Append(ctx context.Context, e Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	entries := append(h.Load(ctx), e)
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	if err := h.store.Set(ctx, historyKey, string(data)); err != nil {
		return fmt.Errorf("persist history: %w", err)
	}
	return nil
}

// Clear removes the persisted log.
func (h *HistoryLog) Clear(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.store.Remove(ctx, historyKey); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

func (h *HistoryLog) corrupt(err error) {
	h.logger.Debug("history unreadable, treating as empty",
		"error", fmt.Errorf("%w: %v", ErrPersistedStateCorrupt, err))
}

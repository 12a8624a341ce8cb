package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/raphaelgruber/adviser/internal/client"
	"github.com/raphaelgruber/adviser/internal/labels"
)

// Asker submits a question to the backend.
type Asker interface {
	Ask(ctx context.Context, token, question string) (*client.Answer, error)
}

// ConversationController drives the ask lifecycle and the history pane.
type ConversationController struct {
	tokens  *TokenStore
	history *HistoryLog
	api     Asker
	label   labels.Func
	msgs    Messages
	logger  *slog.Logger
	now     func() time.Time

	mu       sync.Mutex
	rendered []Bubble
	visible  bool
	result   Result
	loading  bool
	status   string
	exchange *Exchange
	lastID   uint64

	// resets counts ResetDisplay calls; an ask that outlives one leaves the
	// display alone.
	resets uint64
}

// NewConversationController creates a conversation controller.
func NewConversationController(tokens *TokenStore, history *HistoryLog, api Asker, label labels.Func, msgs Messages, logger *slog.Logger) *ConversationController {
	if logger == nil {
		logger = slog.Default()
	}
	if label == nil {
		label = labels.Identity
	}
	return &ConversationController{
		tokens:  tokens,
		history: history,
		api:     api,
		label:   label,
		msgs:    msgs,
		logger:  logger,
		now:     time.Now,
	}
}

// Ask submits question. Blank questions are ignored. Only one question may be
// in flight; a second call returns ErrAskInFlight without side effects.
func (c *ConversationController) Ask(ctx context.Context, question string) error {
	q := strings.TrimSpace(question)
	if q == "" {
		return nil
	}

	ex, resets, err := c.begin(q)
	if err != nil {
		return err
	}
	defer c.settle(ex)

	token, _ := c.tokens.Get(ctx)
	ans, err := c.api.Ask(ctx, token, q)
	if err != nil {
		msg, classified := c.classify(err)
		c.mu.Lock()
		ex.State = ExchangeFailed
		ex.Err = classified
		if c.resets == resets {
			c.result = Result{Visible: true, Error: msg}
		}
		c.mu.Unlock()
		c.logger.Warn("ask failed", "request_id", ex.ID, "error", err)
		return classified
	}

	entry := Entry{
		Question:  q,
		Category:  ans.Category,
		Advice:    ans.Advice,
		CreatedAt: c.now().UTC().Round(0),
	}

	c.mu.Lock()
	ex.State = ExchangeResolved
	ex.Entry = &entry
	stale := c.resets != resets
	if !stale {
		c.result = Result{
			Visible:  true,
			Category: ans.Category,
			Label:    c.label(ans.Category),
			Advice:   ans.Advice,
			Sources:  ans.Sources,
		}
	}
	c.mu.Unlock()

	if err := c.history.Append(ctx, entry); err != nil {
		c.logger.Error("failed to save history entry", "request_id", ex.ID, "error", err)
		return fmt.Errorf("save answer: %w", err)
	}
	c.logger.Info("question answered", "request_id", ex.ID, "category", ans.Category)

	if !stale {
		c.Render(ctx)
	}
	return nil
}

// begin registers a pending exchange and turns the loading indicator on.
func (c *ConversationController) begin(q string) (*Exchange, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.exchange != nil && c.exchange.State == ExchangePending {
		return nil, 0, ErrAskInFlight
	}

	c.lastID = nextRequestID(c.lastID, c.now())
	ex := &Exchange{ID: c.lastID, Question: q, State: ExchangePending}
	c.exchange = ex
	c.loading = true
	c.status = c.msgs.Processing
	c.result.Visible = false
	return ex, c.resets, nil
}

// settle runs on every exit path of Ask. It hides the loading indicator and
// makes sure the pending placeholder does not outlive the call.
func (c *ConversationController) settle(ex *Exchange) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ex.State == ExchangePending {
		ex.State = ExchangeFailed
		ex.Err = errors.New("ask aborted")
	}
	c.loading = false
	c.status = ""
}

// nextRequestID issues a monotonic request token based on the issue time.
func nextRequestID(last uint64, now time.Time) uint64 {
	id := uint64(now.UnixNano())
	if id <= last {
		id = last + 1
	}
	return id
}

// classify maps an ask failure to the displayed message and the returned error.
func (c *ConversationController) classify(err error) (string, error) {
	var apiErr *client.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.Unauthorized():
		return c.msgs.SignInFirst, ErrUnauthorized
	case errors.As(err, &apiErr):
		msg := fmt.Sprintf("HTTP %d", apiErr.StatusCode)
		if apiErr.HasDetail {
			msg = apiErr.Detail
		}
		return msg, &RequestFailedError{Status: apiErr.StatusCode, Detail: apiErr.Detail}
	default:
		return c.msgs.AskFailed, fmt.Errorf("ask: %w", err)
	}
}

// Render rebuilds the history pane from the persisted log: a question bubble
// and an answer bubble per entry, oldest first.
func (c *ConversationController) Render(ctx context.Context) {
	entries := c.history.Load(ctx)

	bubbles := make([]Bubble, 0, 2*len(entries))
	for _, e := range entries {
		bubbles = append(bubbles,
			Bubble{Kind: BubbleQuestion, Text: e.Question},
			Bubble{Kind: BubbleAnswer, Text: e.Advice, Category: e.Category, Label: c.label(e.Category)},
		)
	}

	c.mu.Lock()
	c.rendered = bubbles
	c.visible = true
	c.mu.Unlock()
}

// ClearHistory removes the persisted log and empties the pane.
func (c *ConversationController) ClearHistory(ctx context.Context) error {
	if err := c.history.Clear(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	c.rendered = nil
	c.mu.Unlock()
	c.logger.Info("history cleared")
	return nil
}

// ResetDisplay empties the rendered pane and result area without touching
// the persisted log.
func (c *ConversationController) ResetDisplay() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rendered = nil
	c.result = Result{}
	c.resets++
}

// Exchange returns a copy of the current or most recent exchange.
func (c *ConversationController) Exchange() (Exchange, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.exchange == nil {
		return Exchange{}, false
	}
	return *c.exchange, true
}

// View returns a snapshot of the conversation surface.
func (c *ConversationController) View() ConversationView {
	c.mu.Lock()
	defer c.mu.Unlock()

	bubbles := append([]Bubble(nil), c.rendered...)
	pending := c.exchange != nil && c.exchange.State == ExchangePending
	if pending {
		bubbles = append(bubbles, Bubble{
			Kind:      BubblePending,
			Text:      c.msgs.Pending,
			RequestID: c.exchange.ID,
		})
	}

	return ConversationView{
		Pane: Pane{
			Visible:  c.visible,
			Bubbles:  bubbles,
			ScrollTo: len(bubbles) - 1,
		},
		Result:         c.result,
		Loading:        c.loading,
		Status:         c.status,
		SubmitDisabled: pending,
	}
}

package session

// AuthState is the authentication state, derived from token presence.
type AuthState int

// Authentication states.
const (
	Anonymous AuthState = iota
	Authenticated
)

func (s AuthState) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

// Visibility says which auth affordances are shown.
type Visibility struct {
	Signup bool
	Login  bool
	Logout bool
}

// VisibilityFor projects a state onto the auth affordances.
func VisibilityFor(s AuthState) Visibility {
	authed := s == Authenticated
	return Visibility{Signup: !authed, Login: !authed, Logout: authed}
}

// StatusMessage is the inline status line. An empty Text means hidden.
type StatusMessage struct {
	Text    string
	IsError bool
}

// AuthView is a snapshot of the authentication surface.
type AuthView struct {
	State      AuthState
	Visibility Visibility
	Status     StatusMessage

	// Flagged lists inputs that failed validation; Focus is the first of them.
	Flagged []Field
	Focus   Field

	// ControlsDisabled is true while a signup or login is outstanding.
	ControlsDisabled bool
}

// BubbleKind tags a unit of the history pane.
type BubbleKind int

// Bubble kinds.
const (
	BubbleQuestion BubbleKind = iota
	BubbleAnswer
	BubblePending
)

// Bubble is one rendered unit of the history pane.
type Bubble struct {
	Kind BubbleKind
	Text string

	// Category and Label are set on answer bubbles.
	Category string
	Label    string

	// RequestID identifies the exchange a pending bubble stands for.
	RequestID uint64
}

// Pane is the history pane. ScrollTo is the index of the bubble that must be
// in view after a render pass, or -1 when the pane is empty.
type Pane struct {
	Visible  bool
	Bubbles  []Bubble
	ScrollTo int
}

// Result is the result area below the question input.
type Result struct {
	Visible  bool
	Category string
	Label    string
	Advice   string
	Sources  []string

	// Error is set instead of the answer fields when the request failed.
	Error string
}

// ConversationView is a snapshot of the conversation surface.
type ConversationView struct {
	Pane   Pane
	Result Result

	Loading bool
	Status  string

	// SubmitDisabled mirrors the single-outstanding-request guard.
	SubmitDisabled bool
}

// ExchangeState tags the lifecycle of one ask request.
type ExchangeState int

// Exchange states.
const (
	ExchangePending ExchangeState = iota
	ExchangeResolved
	ExchangeFailed
)

func (s ExchangeState) String() string {
	switch s {
	case ExchangeResolved:
		return "resolved"
	case ExchangeFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Exchange is one ask request keyed by a monotonic request token.
// Entry is set when Resolved, Err when Failed.
type Exchange struct {
	ID       uint64
	Question string
	State    ExchangeState
	Entry    *Entry
	Err      error
}

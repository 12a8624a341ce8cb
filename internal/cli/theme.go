package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/adviser/internal/session"
)

// Theme holds the color scheme for terminal output.
type Theme struct {
	Status   lipgloss.Color
	Success  lipgloss.Color
	Error    lipgloss.Color
	Hint     lipgloss.Color
	Question lipgloss.Color
	Pill     lipgloss.Color
	PillBg   lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:   lipgloss.Color("#5FAFD7"), // light blue
	Success:  lipgloss.Color("#00D787"), // green
	Error:    lipgloss.Color("#FCA5A5"), // soft red
	Hint:     lipgloss.Color("#6C6C6C"), // dim gray
	Question: lipgloss.Color("#D0D0D0"), // light gray
	Pill:     lipgloss.Color("#FFFFFF"),
	PillBg:   lipgloss.Color("#3A3A3A"), // dark gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) successStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) questionStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Question).PaddingLeft(8)
}

func (t Theme) answerStyle() lipgloss.Style {
	return lipgloss.NewStyle().PaddingLeft(2)
}

func (t Theme) pillStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Pill).Background(t.PillBg).Padding(0, 1)
}

// renderStatus renders an auth status line; empty messages render nothing.
func (t Theme) renderStatus(s session.StatusMessage) string {
	if s.Text == "" {
		return ""
	}
	if s.IsError {
		return t.errorStyle().Render(s.Text)
	}
	return t.successStyle().Render(s.Text)
}

// renderBubble renders one unit of the history pane.
func (t Theme) renderBubble(b session.Bubble) string {
	switch b.Kind {
	case session.BubbleQuestion:
		return t.questionStyle().Render("› " + b.Text)
	case session.BubblePending:
		return t.answerStyle().Render(t.hintStyle().Render(b.Text))
	default:
		return t.answerStyle().Render(t.pillStyle().Render(b.Label) + "\n" + b.Text)
	}
}

// renderPane renders the bubbles up to and including pane.ScrollTo, keeping
// at most the last maxBubbles of them so the latest entry is in view.
// A maxBubbles of 0 renders everything.
func (t Theme) renderPane(pane session.Pane, maxBubbles int) string {
	if len(pane.Bubbles) == 0 || pane.ScrollTo < 0 {
		return ""
	}

	end := pane.ScrollTo + 1
	start := 0
	if maxBubbles > 0 && end > maxBubbles {
		start = end - maxBubbles
	}

	var b strings.Builder
	for _, bubble := range pane.Bubbles[start:end] {
		b.WriteString(t.renderBubble(bubble))
		b.WriteString("\n\n")
	}
	return b.String()
}

// renderResult renders the result area.
func (t Theme) renderResult(r session.Result, withSources bool) string {
	if !r.Visible {
		return ""
	}
	if r.Error != "" {
		return t.errorStyle().Render(r.Error)
	}

	out := t.pillStyle().Render(r.Label) + "\n" + r.Advice
	if withSources && len(r.Sources) > 0 {
		out += "\n" + t.hintStyle().Render(fmt.Sprintf("sources: %s", strings.Join(r.Sources, ", ")))
	}
	return out
}

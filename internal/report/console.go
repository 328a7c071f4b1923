package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/udisondev/bubblebuff/internal/model"
)

// ConsoleSink renders pass reports for a terminal: a summary line followed by
// good, skipped and bad buffs.
type ConsoleSink struct {
	mu sync.Mutex
	w  io.Writer

	title  lipgloss.Style
	good   lipgloss.Style
	skip   lipgloss.Style
	bad    lipgloss.Style
	detail lipgloss.Style
}

// NewConsoleSink creates a sink writing to w. Colours follow the capabilities of w.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	r := lipgloss.NewRenderer(w)
	return &ConsoleSink{
		w: w,
		title: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")),
		good: r.NewStyle().
			Foreground(lipgloss.Color("42")),
		skip: r.NewStyle().
			Foreground(lipgloss.Color("241")),
		bad: r.NewStyle().
			Foreground(lipgloss.Color("196")),
		detail: r.NewStyle().
			Foreground(lipgloss.Color("245")),
	}
}

// Report implements buff.Sink.
func (s *ConsoleSink) Report(_ context.Context, r *model.PassReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := io.WriteString(s.w, s.Render(r)); err != nil {
		return fmt.Errorf("writing pass report: %w", err)
	}
	return nil
}

// Render formats r without writing it.
func (s *ConsoleSink) Render(r *model.PassReport) string {
	var b strings.Builder
	b.WriteString(s.title.Render("▶ " + r.Summary()))
	b.WriteByte('\n')

	for _, res := range r.Buffs {
		if res.Good > 0 {
			fmt.Fprintf(&b, "  %s\n", s.good.Render(fmt.Sprintf("✔ %s x%d", res.Name, res.Good)))
		}
	}
	for _, res := range r.Buffs {
		if res.Skip > 0 {
			fmt.Fprintf(&b, "  %s\n", s.skip.Render(fmt.Sprintf("- %s x%d", res.Name, res.Skip)))
		}
	}
	for _, res := range r.Buffs {
		if res.Bad == 0 && res.Fault == "" {
			continue
		}
		fmt.Fprintf(&b, "  %s\n", s.bad.Render("✘ "+res.Name))
		for _, rej := range res.Rejections {
			line := fmt.Sprintf("[%s] => [%s], %s", rej.Caster, rej.Target, reasonText(rej.Reason))
			fmt.Fprintf(&b, "    %s\n", s.detail.Render(line))
		}
		if res.Fault != "" {
			fmt.Fprintf(&b, "    %s\n", s.detail.Render("error: "+res.Fault))
		}
	}
	return b.String()
}

func reasonText(r model.RejectReason) string {
	switch r {
	case model.RejectNoSlot:
		return "no slot available"
	case model.RejectInsufficientPool:
		return "not enough arcanist pool"
	default:
		return string(r)
	}
}

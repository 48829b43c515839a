package notification

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var severityStyles = map[Severity]lipgloss.Style{
	SeveritySuccess: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
	SeverityError:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
	SeverityWarning: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
	SeverityInfo:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
}

var severityLabels = map[Severity]string{
	SeveritySuccess: "OK",
	SeverityError:   "ERROR",
	SeverityWarning: "WARN",
	SeverityInfo:    "INFO",
}

// ConsoleRenderer writes each visible notification as one styled line.
type ConsoleRenderer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleRenderer creates a renderer writing to out.
func NewConsoleRenderer(out io.Writer) *ConsoleRenderer {
	return &ConsoleRenderer{out: out}
}

// Show prints n.
func (r *ConsoleRenderer) Show(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, Format(n))
}

// Format renders n as "[LABEL] message".
func Format(n Notification) string {
	label, ok := severityLabels[n.Severity]
	if !ok {
		label = severityLabels[SeverityInfo]
	}
	style, ok := severityStyles[n.Severity]
	if !ok {
		style = severityStyles[SeverityInfo]
	}
	return style.Render("["+label+"]") + " " + n.Message
}

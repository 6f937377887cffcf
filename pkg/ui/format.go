package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/bjartek/keeper/pkg/supervisor"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

// Activity is one operation the user triggered and what came of it.
type Activity struct {
	At   time.Time
	Op   string
	OK   bool
	Text string
}

// FormatActivity renders an activity as "15:04:05 op → text", wrapping the
// text at maxWidth with continuation lines indented under the text. A
// maxWidth of 0 disables wrapping.
func FormatActivity(a Activity, maxWidth int) string {
	prefix := fmt.Sprintf("%s %s → ", a.At.Format("15:04:05"), a.Op)
	if maxWidth <= 0 {
		return prefix + a.Text
	}

	pad := len([]rune(prefix))
	width := maxWidth - pad
	if width < 10 {
		width = 10
	}

	wrapped := wordwrap.String(a.Text, width)
	lines := strings.SplitN(wrapped, "\n", 2)
	if len(lines) == 1 {
		return prefix + wrapped
	}
	return prefix + lines[0] + "\n" + indent.String(lines[1], uint(pad))
}

// StatusLine describes the worker state for the header.
func StatusLine(known bool, status supervisor.Status, pid int) string {
	switch {
	case !known:
		return "? unknown"
	case status == supervisor.StatusRunning && pid > 0:
		return fmt.Sprintf("● running (pid %d)", pid)
	case status == supervisor.StatusRunning:
		return "● running"
	default:
		return "○ stopped"
	}
}

// FormatBytes renders a byte count using binary units.
func FormatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// errorText flattens an error to a single line for the activity list.
func errorText(err error) string {
	return strings.ReplaceAll(err.Error(), "\n", " ")
}

// Package progress renders a single-line terminal progress bar.
package progress

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

const (
	barWidth   = 30
	labelWidth = 28
)

// Bar draws an in-place progress bar on one terminal line. It is not safe for
// concurrent use; the pipeline reports from a single goroutine.
type Bar struct {
	out     io.Writer
	enabled bool
	done    bool
}

// NewBar creates a bar writing to out. A disabled bar renders nothing, so
// callers never need to branch on the show_progress setting.
func NewBar(out io.Writer, enabled bool) *Bar {
	return &Bar{out: out, enabled: enabled}
}

// Update redraws the bar. The label (typically the current pair) is padded or
// truncated to a fixed display width so redraws never leave stale characters.
func (b *Bar) Update(done, total int, label string) {
	if !b.enabled || b.done || total <= 0 {
		return
	}

	filled := done * barWidth / total
	if filled > barWidth {
		filled = barWidth
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	pct := done * 100 / total

	label = runewidth.Truncate(label, labelWidth, "…")
	label = runewidth.FillRight(label, labelWidth)

	fmt.Fprintf(b.out, "\r%s %3d%% (%d/%d) %s", bar, pct, done, total, label)
}

// Finish terminates the bar line. Safe to call more than once.
func (b *Bar) Finish() {
	if !b.enabled || b.done {
		return
	}

	b.done = true

	fmt.Fprintln(b.out)
}

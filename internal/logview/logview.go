// Package logview keeps a bounded log pane that sticks to the newest line
// unless the user has scrolled away from the bottom.
package logview

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// DefaultMaxLines matches the log table length of the web dashboard.
const DefaultMaxLines = 250

// Follower is an append-only text pane with sticky-bottom scrolling.
type Follower struct {
	viewport viewport.Model
	lines    []string
	maxLines int
	follow   bool
}

// New creates a follower of the given size retaining at most maxLines.
func New(width, height, maxLines int) *Follower {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}

	return &Follower{
		viewport: viewport.New(width, height),
		maxLines: maxLines,
		follow:   true,
	}
}

// Append adds text, one entry per line. The pane scrolls to the newest
// line only while following.
func (f *Follower) Append(text string) {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return
	}
	f.lines = append(f.lines, strings.Split(text, "\n")...)

	trimmed := 0
	if over := len(f.lines) - f.maxLines; over > 0 {
		f.lines = append(f.lines[:0], f.lines[over:]...)
		trimmed = over
	}

	offset := f.viewport.YOffset
	f.viewport.SetContent(strings.Join(f.lines, "\n"))

	if f.follow {
		f.viewport.GotoBottom()
		return
	}

	// Keep the lines the user is reading in place when old ones fall off.
	f.viewport.SetYOffset(max(offset-trimmed, 0))
}

// Clear drops all lines and resumes following.
func (f *Follower) Clear() {
	f.lines = nil
	f.viewport.SetContent("")
	f.viewport.GotoTop()
	f.follow = true
}

// Update forwards scroll keys and mouse wheel events to the viewport and
// re-evaluates whether the pane follows new lines.
func (f *Follower) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.viewport, cmd = f.viewport.Update(msg)
	f.follow = f.viewport.AtBottom()

	return cmd
}

// ScrollUp moves n lines towards older entries and suspends following.
func (f *Follower) ScrollUp(n int) {
	f.viewport.LineUp(n)
	f.follow = f.viewport.AtBottom()
}

// ScrollDown moves n lines towards newer entries. Reaching the bottom
// resumes following.
func (f *Follower) ScrollDown(n int) {
	f.viewport.LineDown(n)
	f.follow = f.viewport.AtBottom()
}

// GotoBottom jumps to the newest line and resumes following.
func (f *Follower) GotoBottom() {
	f.viewport.GotoBottom()
	f.follow = true
}

// SetSize resizes the pane, keeping the bottom in view while following.
func (f *Follower) SetSize(width, height int) {
	f.viewport.Width = width
	f.viewport.Height = height
	if f.follow {
		f.viewport.GotoBottom()
	}
}

// Following reports whether new lines scroll the pane.
func (f *Follower) Following() bool {
	return f.follow
}

// Lines returns the retained lines, oldest first.
func (f *Follower) Lines() []string {
	out := make([]string, len(f.lines))
	copy(out, f.lines)

	return out
}

// Offset returns the index of the first visible line.
func (f *Follower) Offset() int {
	return f.viewport.YOffset
}

func (f *Follower) View() string {
	return f.viewport.View()
}

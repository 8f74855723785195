package logview

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fill(f *Follower, from, to int) {
	for i := from; i < to; i++ {
		f.Append(fmt.Sprintf("line %d", i))
	}
}

func TestFollowsNewLines(t *testing.T) {
	f := New(40, 5, 0)
	fill(f, 0, 10)

	assert.True(t, f.Following())
	assert.Equal(t, 5, f.Offset())
	assert.Contains(t, f.View(), "line 9")
}

func TestScrollUpSuspendsFollowing(t *testing.T) {
	f := New(40, 5, 0)
	fill(f, 0, 10)

	f.ScrollUp(3)
	assert.False(t, f.Following())
	assert.Equal(t, 2, f.Offset())

	fill(f, 10, 12)
	assert.Equal(t, 2, f.Offset(), "view must not jump while scrolled up")
	assert.NotContains(t, f.View(), "line 11")
}

func TestReturningToBottomResumesFollowing(t *testing.T) {
	f := New(40, 5, 0)
	fill(f, 0, 10)

	f.ScrollUp(2)
	f.ScrollDown(1)
	assert.False(t, f.Following(), "one line short of the bottom")

	f.ScrollDown(1)
	assert.True(t, f.Following())

	f.Append("line 10")
	assert.Equal(t, 6, f.Offset())
	assert.Contains(t, f.View(), "line 10")
}

func TestRetainsMaxLines(t *testing.T) {
	f := New(40, 5, 8)
	fill(f, 0, 20)

	lines := f.Lines()
	require.Len(t, lines, 8)
	assert.Equal(t, "line 12", lines[0])
	assert.Equal(t, "line 19", lines[7])
}

func TestTrimKeepsScrolledPosition(t *testing.T) {
	f := New(40, 3, 10)
	fill(f, 0, 10)

	f.ScrollUp(4)
	require.Equal(t, 3, f.Offset())

	f.Append("line 10")
	assert.Equal(t, 2, f.Offset())
	assert.Equal(t, "line 3", f.Lines()[f.Offset()])
}

func TestMultilineAndEmptyAppend(t *testing.T) {
	f := New(40, 5, 0)

	f.Append("first\nsecond\n")
	f.Append("")
	assert.Equal(t, []string{"first", "second"}, f.Lines())
}

func TestClear(t *testing.T) {
	f := New(40, 5, 0)
	fill(f, 0, 10)
	f.ScrollUp(3)

	f.Clear()
	assert.Empty(t, f.Lines())
	assert.True(t, f.Following())
}

func TestGotoBottom(t *testing.T) {
	f := New(40, 5, 0)
	fill(f, 0, 10)
	f.ScrollUp(5)

	f.GotoBottom()
	assert.True(t, f.Following())
	assert.Equal(t, 5, f.Offset())
}

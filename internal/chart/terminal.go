package chart

import (
	"math"
	"strconv"
	"strings"
	"time"

	"codeberg.org/mutker/meterdash/internal/device"
	"codeberg.org/mutker/meterdash/internal/errors"
	"codeberg.org/mutker/meterdash/internal/meter"
	"github.com/charmbracelet/lipgloss"
)

const (
	labelWidth    = 9
	minPlotWidth  = 10
	minPlotHeight = 3

	leftGlyph  = '•'
	rightGlyph = '×'
)

type cell uint8

const (
	cellEmpty cell = iota
	cellLeft
	cellRight
)

// TerminalSurface keeps the points of both series and draws them as a
// character plot with the left axis scale on the left edge and the right
// axis scale on the right edge.
type TerminalSurface struct {
	sel      meter.AxisSelection
	points   []meter.ChartPoint
	disposed bool

	left  lipgloss.Style
	right lipgloss.Style
	axis  lipgloss.Style
}

// NewTerminalSurface is the default SurfaceFactory.
func NewTerminalSurface(sel meter.AxisSelection) (Surface, error) {
	leftColor, rightColor := SeriesColors(sel)
	palette := PaletteFor(sel.ColorMode)

	return &TerminalSurface{
		sel:   sel,
		left:  lipgloss.NewStyle().Foreground(leftColor),
		right: lipgloss.NewStyle().Foreground(rightColor),
		axis:  lipgloss.NewStyle().Foreground(palette.Axis),
	}, nil
}

func (t *TerminalSurface) Load(points []meter.ChartPoint) error {
	if t.disposed {
		return errors.New().New(ErrDisposed)
	}
	t.points = append(t.points[:0], points...)

	return nil
}

func (t *TerminalSurface) Append(points []meter.ChartPoint) error {
	if t.disposed {
		return errors.New().New(ErrDisposed)
	}
	t.points = append(t.points, points...)

	return nil
}

func (t *TerminalSurface) Len() int {
	return len(t.points)
}

func (t *TerminalSurface) Dispose() {
	t.disposed = true
	t.points = nil
}

type scale struct {
	min, max float64
	ok       bool
}

func (s *scale) add(v float64) {
	if !s.ok {
		s.min, s.max, s.ok = v, v, true
		return
	}
	s.min = math.Min(s.min, v)
	s.max = math.Max(s.max, v)
}

func (s *scale) widen() {
	if s.ok && s.max == s.min {
		pad := math.Max(math.Abs(s.min)*0.1, 0.5)
		s.min -= pad
		s.max += pad
	}
}

// row maps v onto 0..height-1 with 0 at the top.
func (s scale) row(v float64, height int) int {
	frac := (v - s.min) / (s.max - s.min)
	return height - 1 - int(math.Round(frac*float64(height-1)))
}

func (t *TerminalSurface) Render(width, height int) string {
	plotWidth := width - 2*labelWidth
	plotHeight := height - 2
	if t.disposed || plotWidth < minPlotWidth || plotHeight < minPlotHeight {
		return ""
	}
	if len(t.points) == 0 {
		return t.axis.Render(strings.Repeat(" ", labelWidth) + "waiting for data")
	}

	var leftScale, rightScale scale
	for _, p := range t.points {
		if p.Left != nil {
			leftScale.add(*p.Left)
		}
		if p.Right != nil {
			rightScale.add(*p.Right)
		}
	}
	leftScale.widen()
	rightScale.widen()

	grid := make([][]cell, plotHeight)
	for i := range grid {
		grid[i] = make([]cell, plotWidth)
	}

	first, last := t.points[0].Timestamp, t.points[len(t.points)-1].Timestamp
	span := last - first
	for _, p := range t.points {
		col := 0
		if span > 0 {
			col = int((p.Timestamp - first) / span * float64(plotWidth-1))
		}
		if p.Right != nil && rightScale.ok {
			grid[rightScale.row(*p.Right, plotHeight)][col] = cellRight
		}
		if p.Left != nil && leftScale.ok {
			grid[leftScale.row(*p.Left, plotHeight)][col] = cellLeft
		}
	}

	var b strings.Builder
	b.WriteString(t.header(width))
	b.WriteByte('\n')
	for i, row := range grid {
		b.WriteString(t.axis.Render(padLeft(axisLabel(leftScale, i, plotHeight), labelWidth-1) + "┤"))
		t.writeRow(&b, row)
		b.WriteString(t.axis.Render("├" + padRight(axisLabel(rightScale, i, plotHeight), labelWidth-1)))
		b.WriteByte('\n')
	}
	b.WriteString(t.footer(first, last, plotWidth))

	return b.String()
}

func (t *TerminalSurface) header(width int) string {
	left := t.left.Render(string(leftGlyph) + " " + device.Label(t.sel.LeftMetric))
	right := t.right.Render(string(rightGlyph) + " " + device.Label(t.sel.RightMetric))
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}

	return left + strings.Repeat(" ", gap) + right
}

func (t *TerminalSurface) footer(first, last float64, plotWidth int) string {
	start := meter.ChartPoint{Timestamp: first}.Time().Format(time.TimeOnly)
	end := meter.ChartPoint{Timestamp: last}.Time().Format(time.TimeOnly)
	gap := plotWidth - len(start) - len(end)
	if gap < 1 {
		gap = 1
	}

	return t.axis.Render(strings.Repeat(" ", labelWidth) + start + strings.Repeat(" ", gap) + end)
}

// writeRow emits runs of equal cells with a single style call each.
func (t *TerminalSurface) writeRow(b *strings.Builder, row []cell) {
	for start := 0; start < len(row); {
		end := start
		for end < len(row) && row[end] == row[start] {
			end++
		}
		n := end - start
		switch row[start] {
		case cellLeft:
			b.WriteString(t.left.Render(strings.Repeat(string(leftGlyph), n)))
		case cellRight:
			b.WriteString(t.right.Render(strings.Repeat(string(rightGlyph), n)))
		default:
			b.WriteString(strings.Repeat(" ", n))
		}
		start = end
	}
}

// axisLabel labels the top, middle and bottom rows of an axis.
func axisLabel(s scale, row, height int) string {
	if !s.ok {
		return ""
	}

	var v float64
	switch row {
	case 0:
		v = s.max
	case height / 2:
		v = (s.max + s.min) / 2
	case height - 1:
		v = s.min
	default:
		return ""
	}

	return formatValue(v)
}

func formatValue(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1000:
		return strconv.FormatFloat(v, 'f', 0, 64)
	case abs >= 10:
		return strconv.FormatFloat(v, 'f', 1, 64)
	default:
		return strconv.FormatFloat(v, 'f', 3, 64)
	}
}

func padLeft(s string, n int) string {
	if w := lipgloss.Width(s); w < n {
		return strings.Repeat(" ", n-w) + s
	}

	return s
}

func padRight(s string, n int) string {
	if w := lipgloss.Width(s); w < n {
		return s + strings.Repeat(" ", n-w)
	}

	return s
}

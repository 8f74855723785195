package chart

import (
	"codeberg.org/mutker/meterdash/internal/errors"
	"codeberg.org/mutker/meterdash/internal/logger"
	"codeberg.org/mutker/meterdash/internal/meter"
)

// Sink owns the current rendering surface and the axis selection it was
// built for. Reconfiguration replaces the surface; the old one is disposed
// once its replacement has loaded. Sink is driven from a single event loop.
type Sink struct {
	factory SurfaceFactory
	log     logger.Logger

	surface    Surface
	surfaceSel meter.AxisSelection
	sel        meter.AxisSelection
	generation Token
	loading    bool

	newest      float64
	hasNewest   bool
	snapshotEnd float64
	// snapshot points stamped snapshotEnd; live points equal to one of
	// them are already on the surface
	snapshotTail []meter.ChartPoint
	hasSnapshot  bool
}

// NewSink creates a sink with no surface. It becomes ready after the first
// Initialize or Complete.
func NewSink(factory SurfaceFactory, sel meter.AxisSelection) *Sink {
	if factory == nil {
		factory = NewTerminalSurface
	}

	return &Sink{
		factory: factory,
		log:     logger.Get(),
		sel:     sel,
		loading: true,
	}
}

// Initialize builds a new surface for sel loaded with snapshot and
// disposes the current one. Any reconfiguration still in flight is superseded.
func (s *Sink) Initialize(snapshot []meter.ChartPoint, sel meter.AxisSelection) error {
	s.generation++
	s.sel = sel

	return s.rebuild(snapshot)
}

// Reconfigure starts an asynchronous reconfiguration. The sink stops
// accepting batches until Complete is called with the returned token; the
// previous surface keeps rendering meanwhile.
func (s *Sink) Reconfigure(sel meter.AxisSelection) Token {
	s.generation++
	s.sel = sel
	s.loading = true

	s.log.Debug().
		Uint64("generation", uint64(s.generation)).
		Str("left", sel.LeftMetric).
		Str("right", sel.RightMetric).
		Str("color_mode", string(sel.ColorMode)).
		Msg("Chart reconfiguration started")

	return s.generation
}

// Complete finishes the reconfiguration identified by token. A token that
// has been superseded yields ErrStaleSnapshot and leaves the sink untouched.
func (s *Sink) Complete(token Token, snapshot []meter.ChartPoint) error {
	if token != s.generation {
		s.log.Debug().
			Uint64("token", uint64(token)).
			Uint64("generation", uint64(s.generation)).
			Msg("Discarding stale snapshot")
		return errors.New().WithData(ErrStaleSnapshot, uint64(token))
	}

	return s.rebuild(snapshot)
}

// Generation returns the newest token handed out.
func (s *Sink) Generation() Token {
	return s.generation
}

// Ready reports whether the sink accepts batches.
func (s *Sink) Ready() bool {
	return !s.loading && s.surface != nil
}

// Selection returns the selection new points must be projected with.
func (s *Sink) Selection() meter.AxisSelection {
	return s.sel
}

// CurrentLength returns the number of points on the current surface.
func (s *Sink) CurrentLength() int {
	if s.surface == nil {
		return 0
	}

	return s.surface.Len()
}

// AppendBatch appends points in order. Points older than the newest point
// on the surface are skipped, as are points the loaded snapshot already
// holds.
func (s *Sink) AppendBatch(points []meter.ChartPoint) error {
	if !s.Ready() {
		return errors.New().New(ErrNotReady)
	}

	fresh := points[:0:0]
	for _, p := range points {
		if (s.hasNewest && p.Timestamp < s.newest) || s.inSnapshot(p) {
			continue
		}
		fresh = append(fresh, p)
		s.newest = p.Timestamp
		s.hasNewest = true
	}
	if len(fresh) == 0 {
		return nil
	}

	return s.surface.Append(fresh)
}

// Render draws the current surface.
func (s *Sink) Render(width, height int) string {
	if s.surface == nil {
		return ""
	}

	return s.surface.Render(width, height)
}

// Dispose releases the current surface. The sink must be initialized again
// before use.
func (s *Sink) Dispose() {
	if s.surface != nil {
		s.surface.Dispose()
		s.surface = nil
	}
	s.loading = true
}

func (s *Sink) inSnapshot(p meter.ChartPoint) bool {
	if !s.hasSnapshot || p.Timestamp != s.snapshotEnd {
		return s.hasSnapshot && p.Timestamp < s.snapshotEnd
	}
	for _, q := range s.snapshotTail {
		if p.Equal(q) {
			return true
		}
	}

	return false
}

// rebuild loads snapshot into a fresh surface for the current selection.
// When that fails the previous surface stays in service if it was built for
// the same selection; otherwise it is disposed and the sink stays not ready.
func (s *Sink) rebuild(snapshot []meter.ChartPoint) error {
	errFactory := errors.New()

	surface, err := s.factory(s.sel)
	if err != nil {
		s.keepOrDrop()
		return errFactory.Wrap(ErrSurfaceInit, err)
	}
	if err := surface.Load(snapshot); err != nil {
		surface.Dispose()
		s.keepOrDrop()
		return errFactory.Wrap(ErrSurfaceLoad, err)
	}

	s.Dispose()
	s.surface = surface
	s.surfaceSel = s.sel
	s.loading = false

	s.snapshotEnd, s.hasSnapshot = 0, false
	s.snapshotTail = nil
	for _, p := range snapshot {
		switch {
		case !s.hasSnapshot || p.Timestamp > s.snapshotEnd:
			s.snapshotEnd = p.Timestamp
			s.snapshotTail = append(s.snapshotTail[:0], p)
		case p.Timestamp == s.snapshotEnd:
			s.snapshotTail = append(s.snapshotTail, p)
		}
		s.hasSnapshot = true
	}
	s.newest, s.hasNewest = s.snapshotEnd, s.hasSnapshot

	s.log.Debug().
		Uint64("generation", uint64(s.generation)).
		Int("points", len(snapshot)).
		Msg("Chart surface initialized")

	return nil
}

func (s *Sink) keepOrDrop() {
	if s.surface != nil && s.surfaceSel.Equal(s.sel) {
		s.loading = false
		return
	}
	s.Dispose()
}

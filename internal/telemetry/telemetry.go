package telemetry

import (
	"fmt"

	"codeberg.org/mutker/meterdash/internal/errors"
	"codeberg.org/mutker/meterdash/internal/logger"
	"codeberg.org/mutker/meterdash/internal/meter"
)

// Buffer queues samples and releases them to the sink in batches whose
// size grows with the rendered length. It is driven from a single event
// loop and is not safe for concurrent use.
type Buffer struct {
	sink  Sink
	cfg   Config
	log   logger.Logger
	queue []meter.Sample
	stats Stats

	flushing bool
}

// Stats counts what the buffer did with the samples it received.
type Stats struct {
	Pushed    int
	Delivered int
	Skipped   int
	Batches   int
	Failed    int
	Discarded int
}

// New creates a buffer delivering to sink.
func New(sink Sink, cfg Config) (*Buffer, error) {
	errFactory := errors.New()

	if sink == nil {
		return nil, errFactory.New(ErrMissingSink)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Buffer{
		sink: sink,
		cfg:  cfg,
		log:  logger.Get(),
	}, nil
}

// Push enqueues a sample and flushes when the pending count reaches the
// batch size for the sink's current length. Samples are held while the
// sink is not ready. It reports whether a flush happened.
func (b *Buffer) Push(sample meter.Sample) bool {
	b.queue = append(b.queue, sample)
	b.stats.Pushed++

	if b.flushing || !b.sink.Ready() {
		return false
	}
	if len(b.queue) < b.cfg.BatchSize(b.sink.CurrentLength()) {
		return false
	}

	b.flush()
	return true
}

// Drain flushes everything pending regardless of the batch size. It is a
// no-op while the sink is not ready.
func (b *Buffer) Drain() {
	if b.flushing || len(b.queue) == 0 || !b.sink.Ready() {
		return
	}

	b.flush()
}

// Discard drops pending samples without delivering them.
func (b *Buffer) Discard() int {
	n := len(b.queue)
	b.queue = nil
	b.stats.Discarded += n

	return n
}

// Pending returns the number of queued samples.
func (b *Buffer) Pending() int {
	return len(b.queue)
}

// Stats returns the running counters.
func (b *Buffer) Stats() Stats {
	return b.stats
}

func (b *Buffer) flush() {
	b.flushing = true
	defer func() { b.flushing = false }()

	batch := b.queue
	sel := b.sink.Selection()

	points := make([]meter.ChartPoint, 0, len(batch))
	for _, sample := range batch {
		if point, ok := meter.Project(sample, sel); ok {
			points = append(points, point)
		}
	}
	b.stats.Skipped += len(batch) - len(points)

	if len(points) > 0 {
		if err := b.deliver(points); err != nil {
			b.stats.Failed++
			b.log.Debug().Err(err).Int("points", len(points)).Msg("Dropped batch the sink rejected")
		} else {
			b.stats.Delivered += len(points)
			b.stats.Batches++
		}
	}

	// Samples pushed from inside the sink call stay queued.
	if len(b.queue) > len(batch) {
		b.queue = b.queue[len(batch):]
	} else {
		b.queue = nil
	}
}

func (b *Buffer) deliver(points []meter.ChartPoint) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New().WithData(ErrSinkPanic, fmt.Sprint(r))
		}
	}()

	return b.sink.AppendBatch(points)
}

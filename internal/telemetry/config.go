package telemetry

import "codeberg.org/mutker/meterdash/internal/errors"

// Threshold sets the batch size used while the rendered length is at most
// UpTo points.
type Threshold struct {
	UpTo  int
	Batch int
}

type Config struct {
	Thresholds []Threshold
	// Beyond is the batch size once the rendered length exceeds the last
	// threshold.
	Beyond int
}

func DefaultConfig() Config {
	return Config{
		Thresholds: []Threshold{
			{UpTo: 1_000, Batch: 1},
			{UpTo: 10_000, Batch: 5},
			{UpTo: 100_000, Batch: 10},
		},
		Beyond: 60,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	prev := Threshold{UpTo: -1, Batch: 1}
	for _, t := range c.Thresholds {
		if t.UpTo <= prev.UpTo {
			return errFactory.WithMessage(ErrInvalidConfig, "thresholds must be strictly ascending")
		}
		if t.Batch < prev.Batch {
			return errFactory.WithMessage(ErrInvalidConfig, "batch sizes must not shrink as the chart grows")
		}
		prev = t
	}
	if c.Beyond < prev.Batch {
		return errFactory.WithMessage(ErrInvalidConfig, "batch size beyond the last threshold is too small")
	}

	return nil
}

// BatchSize returns how many samples must be pending before a flush, given
// the number of points already rendered.
func (c Config) BatchSize(rendered int) int {
	for _, t := range c.Thresholds {
		if rendered <= t.UpTo {
			return t.Batch
		}
	}

	return c.Beyond
}

package telemetry

import "codeberg.org/mutker/meterdash/internal/errors"

const (
	ErrInvalidConfig = errors.ErrorCode("telemetry_invalid_config")
	ErrMissingSink   = errors.ErrorCode("telemetry_missing_sink")
	ErrSinkPanic     = errors.ErrorCode("telemetry_sink_panic")
)

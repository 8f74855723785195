package chart

import "codeberg.org/mutker/meterdash/internal/errors"

const (
	ErrStaleSnapshot = errors.ErrorCode("chart_stale_snapshot")
	ErrNotReady      = errors.ErrorCode("chart_not_ready")
	ErrSurfaceInit   = errors.ErrorCode("chart_surface_init_failed")
	ErrSurfaceLoad   = errors.ErrorCode("chart_surface_load_failed")
	ErrDisposed      = errors.ErrorCode("chart_surface_disposed")
)

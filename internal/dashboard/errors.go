package dashboard

import "codeberg.org/mutker/meterdash/internal/errors"

const (
	ErrMissingTransport = errors.ErrorCode("dashboard_missing_transport")
	ErrMissingSource    = errors.ErrorCode("dashboard_missing_snapshot_source")
)

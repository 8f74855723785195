package wslink

import "codeberg.org/mutker/meterdash/internal/errors"

const (
	ErrInvalidEndpoint = errors.ErrorCode("wslink_invalid_endpoint")
	ErrDialFailed      = errors.ErrorCode("wslink_dial_failed")
	ErrClosed          = errors.ErrorCode("wslink_closed")
	ErrQueueFull       = errors.ErrorCode("wslink_queue_full")
)

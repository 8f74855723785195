package meter

import "codeberg.org/mutker/meterdash/internal/errors"

const (
	ErrDecode           = errors.ErrorCode("meter_decode_failed")
	ErrMissingTimestamp = errors.ErrorCode("meter_missing_timestamp")
	ErrInvalidColorMode = errors.ErrorCode("meter_invalid_color_mode")
)

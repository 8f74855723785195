package link

import "codeberg.org/mutker/meterdash/internal/errors"

const (
	ErrSendFailed    = errors.ErrorCode("link_send_failed")
	ErrInvalidParams = errors.ErrorCode("link_invalid_params")
	ErrDecodeFailed  = errors.ErrorCode("link_decode_failed")
	ErrDeviceFatal   = errors.ErrorCode("link_device_fatal")
	ErrNoTransport   = errors.ErrorCode("link_no_transport")
)

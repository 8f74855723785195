package device

import "codeberg.org/mutker/meterdash/internal/errors"

const (
	ErrUnknownModel    = errors.ErrorCode("device_unknown_model")
	ErrUnknownChannel  = errors.ErrorCode("device_unknown_channel")
	ErrUnknownMetric   = errors.ErrorCode("device_unknown_metric")
	ErrAddressRequired = errors.ErrorCode("device_address_required")
)

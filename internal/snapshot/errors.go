package snapshot

import "codeberg.org/mutker/meterdash/internal/errors"

const (
	ErrInvalidBackend   = errors.ErrorCode("snapshot_invalid_backend")
	ErrRequestFailed    = errors.ErrorCode("snapshot_request_failed")
	ErrUnexpectedStatus = errors.ErrorCode("snapshot_unexpected_status")
	ErrInvalidDataset   = errors.ErrorCode("snapshot_invalid_dataset")
)

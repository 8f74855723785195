package errors

// ErrorCode identifies a kind of failure. Codes are stable strings so they
// can be logged and matched across package boundaries.
type ErrorCode string

// Error is a coded error. The With* methods return a copy.
type Error interface {
	error
	Code() ErrorCode
	WithMessage(msg string) Error
	WithData(data any) Error
	GetData() any
	Unwrap() error
}

// Factory creates coded errors.
type Factory interface {
	New(code ErrorCode) Error
	Wrap(code ErrorCode, err error) Error
	WithMessage(code ErrorCode, msg string) Error
	WithData(code ErrorCode, data any) Error
}

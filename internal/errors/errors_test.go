package errors_test

import (
	"fmt"
	"testing"

	"codeberg.org/mutker/meterdash/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	errFactory := errors.New()

	err := errFactory.New(errors.ErrInvalidRate)
	assert.Equal(t, "Invalid sample rate", err.Error())
	assert.Equal(t, errors.ErrInvalidRate, err.Code())

	err = errFactory.WithMessage(errors.ErrInvalidRate, "rate must be positive")
	assert.Equal(t, "rate must be positive", err.Error())

	err = errFactory.WithData(errors.ErrInvalidRate, -1)
	assert.Equal(t, "Invalid sample rate: -1", err.Error())
}

func TestWrapUnwraps(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := errors.New().Wrap(errors.ErrOperationFailed, cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Operation failed: disk full", err.Error())
}

func TestHasCode(t *testing.T) {
	errFactory := errors.New()
	inner := errFactory.New(errors.ErrTimeout)
	outer := errFactory.Wrap(errors.ErrOperationFailed, inner)

	assert.True(t, errors.HasCode(outer, errors.ErrOperationFailed))
	assert.True(t, errors.HasCode(outer, errors.ErrTimeout))
	assert.False(t, errors.HasCode(outer, errors.ErrInternal))
	assert.False(t, errors.HasCode(fmt.Errorf("plain"), errors.ErrInternal))
	assert.False(t, errors.HasCode(nil, errors.ErrInternal))
}

func TestSentinelMatchesByCode(t *testing.T) {
	errFactory := errors.New()
	sentinel := errFactory.New(errors.ErrTimeout)
	err := fmt.Errorf("scan: %w", errFactory.WithMessage(errors.ErrTimeout, "no answer"))

	assert.ErrorIs(t, err, sentinel)
	assert.NotErrorIs(t, err, errFactory.New(errors.ErrInternal))
}

func TestCodeOf(t *testing.T) {
	errFactory := errors.New()
	err := fmt.Errorf("open: %w", errFactory.Wrap(errors.ErrInitApp, errFactory.New(errors.ErrTimeout)))

	assert.Equal(t, errors.ErrInitApp, errors.CodeOf(err))
	assert.Equal(t, errors.ErrorCode(""), errors.CodeOf(fmt.Errorf("plain")))
	assert.Equal(t, errors.ErrorCode(""), errors.CodeOf(nil))
}

func TestWithCopies(t *testing.T) {
	base := errors.New().New(errors.ErrInvalidRate)
	_ = base.WithMessage("changed")

	assert.Equal(t, "Invalid sample rate", base.Error())
}

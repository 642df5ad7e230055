package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"codeberg.org/mutker/dhtlogger/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	f := errors.New()

	assert.Equal(t, "InfluxDB not connected", f.New(errors.ErrNotConnected).Error())
	assert.Equal(t, "Failed to write to InfluxDB: boom", f.Wrap(errors.ErrWriteFault, stderrors.New("boom")).Error())
	assert.Equal(t, "Invalid interval value: -1", f.WithData(errors.ErrInvalidInterval, -1).Error())
	assert.Equal(t, "custom", f.WithMessage(errors.ErrInternal, "custom").Error())
	assert.Equal(t, "unknown_code", f.New(errors.ErrorCode("unknown_code")).Error())
}

func TestCodeMatching(t *testing.T) {
	f := errors.New()
	cause := stderrors.New("checksum mismatch")
	err := fmt.Errorf("read: %w", f.Wrap(errors.ErrTransientFault, cause))

	assert.True(t, errors.Is(err, f.New(errors.ErrTransientFault)))
	assert.False(t, errors.Is(err, f.New(errors.ErrHardwareFault)))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, errors.ErrTransientFault, errors.CodeOf(err))
	assert.True(t, errors.HasCode(err, errors.ErrTransientFault))
	assert.Equal(t, errors.ErrorCode(""), errors.CodeOf(cause))
}

func TestWithMessageKeepsCode(t *testing.T) {
	err := errors.New().Wrap(errors.ErrConnectFault, stderrors.New("dial")).WithMessage("ping failed")

	assert.Equal(t, errors.ErrConnectFault, err.Code())
	assert.Equal(t, "ping failed: dial", err.Error())
}

func TestHasCodeThroughJoin(t *testing.T) {
	factory := errors.New()
	joined := errors.Join(
		factory.Wrap(errors.ErrCleanup, stderrors.New("sensor")),
		stderrors.New("plain"),
	)

	assert.True(t, errors.HasCode(joined, errors.ErrCleanup))
	assert.False(t, errors.HasCode(joined, errors.ErrWriteFault))
	assert.False(t, errors.HasCode(nil, errors.ErrCleanup))
}

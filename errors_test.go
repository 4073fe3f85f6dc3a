package uvcore

import (
	"errors"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewError(t *testing.T) {
	e := NewError("aio_submit", CodeInvalid)
	require.Equal(t, "aio_submit", e.Op)
	require.Equal(t, CodeInvalid, e.Code)
	assert.Nil(t, e.Inner)
}

func TestWrapError(t *testing.T) {
	inner := syscall.EAGAIN
	e := WrapError("aio_setup", CodeResourceExhausted, inner)
	require.NotNil(t, e)
	assert.Equal(t, error(inner), e.Unwrap())
	assert.Equal(t, syscall.EAGAIN, e.Errno)
}

func TestWrapErrorNilInner(t *testing.T) {
	assert.Nil(t, WrapError("aio_setup", CodeResourceExhausted, nil))
}

func TestErrorIsMatchesByCode(t *testing.T) {
	a := NewError("aio_submit", CodeKernelAnomaly)
	b := NewError("timer_start", CodeKernelAnomaly)
	assert.True(t, errors.Is(a, b), "expected two errors with the same Code to satisfy errors.Is")

	c := NewError("aio_submit", CodeInvalid)
	assert.False(t, errors.Is(a, c), "expected errors with different Codes not to satisfy errors.Is")
}

func TestErrorMessageIncludesOpAndCode(t *testing.T) {
	e := NewError("aio_submit", CodeInvalid)
	assert.NotEmpty(t, e.Error())
}

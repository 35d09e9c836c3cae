package errors

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	e1 := New("cause1")
	e2 := New("cause2").Wrap(e1)
	e := New("dummy").Wrap(e2)
	e3 := e.Unwrap()
	assert.True(t, Is(e, e1))
	assert.True(t, Is(e, e2))
	assert.True(t, e3 == e2)
}

func TestWrapKeepsSentinel(t *testing.T) {
	sentinel := New("not found")

	wrapped := sentinel.Wrap(io.EOF)
	require.Error(t, wrapped)

	assert.NotSame(t, sentinel, wrapped)
	assert.Nil(t, sentinel.Unwrap(), "wrapping must not alter the sentinel")
	assert.True(t, Is(wrapped, sentinel))
	assert.True(t, Is(wrapped, io.EOF))
	assert.Equal(t, "not found: EOF", wrapped.Error())

	again := wrapped.Wrap(io.ErrUnexpectedEOF)
	assert.True(t, Is(again, sentinel))
	assert.False(t, Is(again, io.EOF))

	other := New("not found")
	assert.False(t, Is(wrapped, other))
}

func TestWrapMessage(t *testing.T) {
	sentinel := New("invalid")
	err := sentinel.WrapMessage("offset %d", 12)
	assert.True(t, Is(err, sentinel))
	assert.Equal(t, "invalid: offset 12", err.Error())
}

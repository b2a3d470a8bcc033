package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New("test error")
	require.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestWrap(t *testing.T) {
	original := New("original")
	wrapped := Wrap(original, "wrapped")

	assert.Contains(t, wrapped.Error(), "wrapped")
	assert.Contains(t, wrapped.Error(), "original")
	assert.True(t, Is(wrapped, original))
}

func TestIs(t *testing.T) {
	err1 := New("error 1")
	err2 := New("error 2")
	wrapped := Wrap(err1, "wrapped")

	assert.True(t, Is(wrapped, err1))
	assert.False(t, Is(wrapped, err2))
	assert.False(t, Is(nil, err1))
}

type customError struct {
	msg string
}

func (e *customError) Error() string {
	return e.msg
}

func TestAs(t *testing.T) {
	original := &customError{msg: "custom"}
	wrapped := Wrap(original, "wrapped")

	var target *customError
	require.True(t, As(wrapped, &target))
	assert.Equal(t, "custom", target.msg)
}

func TestNotFoundSentinel(t *testing.T) {
	err := NewNotFoundError("no entry with index %d", 7)

	assert.True(t, IsNotFoundError(err))
	assert.True(t, IsNotFoundError(Wrap(err, "outer")))
	assert.Contains(t, err.Error(), "no entry with index 7")

	assert.False(t, IsNotFoundError(New("something else")))
	assert.False(t, IsNotFoundError(nil))
}

func TestTimeoutSentinel(t *testing.T) {
	err := Wrap(ErrTimeout, "query pipeline")

	assert.True(t, IsTimeoutError(err))
	assert.False(t, IsTimeoutError(New("not a timeout")))
	assert.False(t, IsTimeoutError(nil))
}

func TestInvalidRequestSentinel(t *testing.T) {
	err := NewInvalidRequestError("malformed hash %q", "zz")

	assert.True(t, Is(err, ErrInvalidRequest))
	assert.Contains(t, err.Error(), `malformed hash "zz"`)
}

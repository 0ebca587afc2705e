package nomad

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "with body",
			err:      &Error{Kind: KindBadRequest, StatusCode: 400, Body: "missing job"},
			expected: "BadRequest (400): missing job",
		},
		{
			name:     "without body",
			err:      &Error{Kind: KindServerError, StatusCode: 503},
			expected: "ServerError (503)",
		},
		{
			name:     "timeout with cause",
			err:      NewTimeoutError(context.DeadlineExceeded),
			expected: "Timeout: context deadline exceeded",
		},
		{
			name:     "timeout without cause",
			err:      &Error{Kind: KindTimeout},
			expected: "Timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestError_IsMatchesOnlyItsKind(t *testing.T) {
	err := &Error{Kind: KindPermissionDenied, StatusCode: 403}

	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrAuthenticationDisabled)
}

func TestError_WrappedKeepsKind(t *testing.T) {
	err := fmt.Errorf("reading job: %w", &Error{Kind: KindNotFound, StatusCode: 404})

	assert.True(t, IsNotFound(err))

	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindNotFound, kind)
}

func TestTimeoutError_KeepsCause(t *testing.T) {
	err := NewTimeoutError(context.Canceled)

	assert.True(t, IsTimeout(err))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestKindOf_Unclassified(t *testing.T) {
	_, ok := KindOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "AuthenticationDisabled", KindAuthenticationDisabled.String())
	assert.Equal(t, "ErrorKind(42)", ErrorKind(42).String())
}

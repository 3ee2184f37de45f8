package common

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapError(t *testing.T) {
	tests := []struct {
		name            string
		originalError   error
		message         string
		expectedMessage string
	}{
		{
			name:            "wrap simple error",
			originalError:   errors.New("original error"),
			message:         "wrapper message",
			expectedMessage: "wrapper message: original error",
		},
		{
			name:            "empty wrapper message",
			originalError:   errors.New("original error"),
			message:         "",
			expectedMessage: ": original error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrappedError := WrapError(tt.originalError, tt.message)
			assert.Error(t, wrappedError)
			assert.Equal(t, tt.expectedMessage, wrappedError.Error())
			assert.ErrorIs(t, wrappedError, tt.originalError)
		})
	}

	assert.NoError(t, WrapError(nil, "wrapper message"))
	assert.NoError(t, WrapErrorf(nil, "wrapper %d", 1))
}

func TestFetchError(t *testing.T) {
	tests := []struct {
		name            string
		err             *FetchError
		expectedKind    FetchErrorKind
		expectedMessage string
	}{
		{
			name:            "status error",
			err:             NewStatusFetchError("https://example.com/forum", http.StatusNotFound),
			expectedKind:    FetchErrorStatus,
			expectedMessage: "fetch 'https://example.com/forum': unexpected status 404",
		},
		{
			name:            "network error",
			err:             NewNetworkFetchError("https://example.com/forum", errors.New("connection refused")),
			expectedKind:    FetchErrorNetwork,
			expectedMessage: "fetch 'https://example.com/forum': network error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedKind, tt.err.Kind)
			assert.Equal(t, tt.expectedMessage, tt.err.Error())

			wrapped := WrapError(tt.err, "poll cycle")
			fe, ok := IsFetchError(wrapped)
			require.True(t, ok)
			assert.Equal(t, tt.expectedKind, fe.Kind)
		})
	}
}

func TestStorageError(t *testing.T) {
	cause := errors.New("disk I/O error")
	err := NewStorageError("record match", cause)

	require.Error(t, err)
	assert.Equal(t, "storage record match failed: disk I/O error", err.Error())
	assert.True(t, IsStorageError(WrapError(err, "engine")))
	assert.ErrorIs(t, err, cause)
	assert.NoError(t, NewStorageError("noop", nil))
	assert.False(t, IsStorageError(cause))
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("check_interval_seconds", -5, "must be positive")
	assert.Equal(t, "validation failed for field 'check_interval_seconds': must be positive (value: -5)", err.Error())

	var vErr *ValidationError
	assert.True(t, errors.As(WrapError(err, "settings"), &vErr))
	assert.Equal(t, "check_interval_seconds", vErr.Field)
}

func TestErrorCollector(t *testing.T) {
	var ec ErrorCollector
	assert.False(t, ec.HasErrors())
	assert.NoError(t, ec.Error())

	ec.Add(nil)
	ec.Add(errors.New("discord down"))
	assert.Equal(t, "discord down", ec.Error().Error())

	ec.AddWithContext(errors.New("smtp refused"), "email")
	assert.True(t, ec.HasErrors())
	assert.Len(t, ec.Errors(), 2)
	assert.Equal(t, "discord down\nemail: smtp refused", ec.Error().Error())
}

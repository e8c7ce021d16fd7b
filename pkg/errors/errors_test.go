package errors

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorUnwrapsToKind(t *testing.T) {
	err := FetchFailed("http://i.imgur.com/abc.jpg", 503, nil)

	assert.True(t, errors.Is(err, ErrFetchFailed))
	assert.False(t, errors.Is(err, ErrWriteFailed))
	assert.Equal(t, ErrorTypeServerError, err.Type)
	assert.Contains(t, err.Error(), "code 503")
}

func TestErrorUnwrapsToCause(t *testing.T) {
	err := WriteFailed("/tmp/x.jpg", io.ErrShortWrite)

	assert.True(t, errors.Is(err, ErrWriteFailed))
	assert.True(t, errors.Is(err, io.ErrShortWrite))
	assert.Contains(t, err.Error(), "short write")
}

func TestTypeForStatusCode(t *testing.T) {
	tests := []struct {
		code int
		want ErrorType
	}{
		{0, ErrorTypeNetwork},
		{429, ErrorTypeRateLimit},
		{403, ErrorTypeAuth},
		{404, ErrorTypeNotFound},
		{502, ErrorTypeServerError},
		{418, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TypeForStatusCode(tt.code), "code %d", tt.code)
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrorTypeNetwork))
	assert.True(t, IsRetryable(ErrorTypeServerError))
	assert.False(t, IsRetryable(ErrorTypeNotFound))
	assert.False(t, IsRetryable(ErrorTypeIO))

	assert.True(t, IsRetryableStatusCode(429))
	assert.True(t, IsRetryableStatusCode(599))
	assert.False(t, IsRetryableStatusCode(404))
}

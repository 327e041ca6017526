package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsStandardError(t *testing.T) {
	stdErr := NewMissingEntityError("record_sale", "amount")
	wrapped := fmt.Errorf("resolve: %w", stdErr)

	got := AsStandardError(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, ErrCodeMissingEntity, got.Code)
	assert.Equal(t, "amount", got.Metadata["missingKind"])

	assert.Nil(t, AsStandardError(fmt.Errorf("plain error")))
	assert.Nil(t, AsStandardError(nil))
}

func TestIsValidation(t *testing.T) {
	assert.True(t, IsValidation(ErrCodeMissingEntity))
	assert.True(t, IsValidation(ErrCodeAmbiguousEntity))
	assert.False(t, IsValidation(ErrCodeStoreError))
	assert.False(t, IsValidation(ErrCodeUnrecognized))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeStoreError, http.StatusInternalServerError},
		{ErrCodeStoreConnectionFailed, http.StatusInternalServerError},
		{ErrCodeMissingEntity, http.StatusOK},
		{ErrCodeAmbiguousEntity, http.StatusOK},
		{ErrCodeAmbiguousTarget, http.StatusOK},
		{ErrCodeTargetNotFound, http.StatusOK},
		{ErrCodeUnrecognized, http.StatusOK},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.code), string(tt.code))
	}
}

func TestStoreErrorIsRetryable(t *testing.T) {
	err := NewStoreError("sum", fmt.Errorf("connection refused"))
	assert.True(t, err.Retryable)
	assert.Equal(t, ErrCodeStoreError, err.Code)
	assert.Contains(t, err.Details, "sum")
}

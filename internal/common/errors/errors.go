// Package errors provides the standardized error taxonomy for the command engine.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Validation errors: the input text could not be resolved into a
	// complete Action. Always recovered into a negative Result.
	ErrCodeMissingEntity   ErrorCode = "MISSING_ENTITY"
	ErrCodeAmbiguousEntity ErrorCode = "AMBIGUOUS_ENTITY"

	// Execution errors: a valid Action failed while being carried out.
	ErrCodeStoreError      ErrorCode = "STORE_ERROR"
	ErrCodeAmbiguousTarget ErrorCode = "AMBIGUOUS_TARGET"
	ErrCodeTargetNotFound  ErrorCode = "TARGET_NOT_FOUND"
	ErrCodeUnrecognized    ErrorCode = "UNRECOGNIZED_COMMAND"

	ErrCodeStoreConnectionFailed ErrorCode = "STORE_CONNECTION_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// AsStandardError unwraps err into a *StandardError, or returns nil.
func AsStandardError(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return nil
}

// ==========================
// 2. Error Constructors
// ==========================

// NewMissingEntityError reports that a required entity kind was absent from
// the input for the given intent.
func NewMissingEntityError(intent, missingKind string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingEntity,
		Message:   fmt.Sprintf("Required %s is missing for intent %s", missingKind, intent),
		Details:   fmt.Sprintf("intent: %s, missingKind: %s", intent, missingKind),
		Retryable: false,
		Metadata:  map[string]interface{}{"intent": intent, "missingKind": missingKind},
		Timestamp: time.Now().UTC(),
	}
}

// NewAmbiguousEntityError reports multiple candidates for a singleton entity
// kind that the disambiguation rule could not resolve.
func NewAmbiguousEntityError(intent, kind string, candidates []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAmbiguousEntity,
		Message:   fmt.Sprintf("Multiple %s candidates for intent %s", kind, intent),
		Details:   fmt.Sprintf("intent: %s, kind: %s, candidates: %v", intent, kind, candidates),
		Retryable: false,
		Metadata:  map[string]interface{}{"intent": intent, "kind": kind, "candidates": candidates},
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreError wraps a ledger store failure. Retryable is left to the
// caller; the engine itself never retries.
func NewStoreError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreError,
		Message:   "Ledger store operation failed",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAmbiguousTargetError reports more than one record matching a delete filter.
func NewAmbiguousTargetError(collection string, matches int) *StandardError {
	return &StandardError{
		Code:      ErrCodeAmbiguousTarget,
		Message:   "More than one record matches the delete request",
		Details:   fmt.Sprintf("collection: %s, matches: %d", collection, matches),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTargetNotFoundError reports that a delete filter matched nothing.
func NewTargetNotFoundError(collection string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTargetNotFound,
		Message:   "No record matches the delete request",
		Details:   fmt.Sprintf("collection: %s", collection),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnrecognizedError reports input that matched no known intent.
func NewUnrecognizedError(text string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnrecognized,
		Message:   "Command not recognized",
		Details:   fmt.Sprintf("text: %q", text),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreConnectionFailedError reports a connectivity failure at startup or ping.
func NewStoreConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreConnectionFailed,
		Message:   "Ledger store connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// IsValidation reports whether the code belongs to the validation family.
func IsValidation(code ErrorCode) bool {
	return code == ErrCodeMissingEntity || code == ErrCodeAmbiguousEntity
}

// HTTPStatus maps an error code to the HTTP status the chat route responds
// with. Only store-level failures are server errors; everything else is a
// well-formed negative resolution of the input.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeStoreError, ErrCodeStoreConnectionFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}

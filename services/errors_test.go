package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Error(t *testing.T) {
	err := NewDomainError(ErrorTypeValidation, "bad recipient", nil)
	assert.Equal(t, "validation: bad recipient", err.Error())

	wrapped := NewDomainError(ErrorTypeProvider, "send failed", errors.New("timeout"))
	assert.Contains(t, wrapped.Error(), "send failed")
	assert.Contains(t, wrapped.Error(), "timeout")
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewDomainError(ErrorTypeInternal, "db failed", cause)

	assert.ErrorIs(t, err, cause)
}

func TestDomainError_IsMatchesOnType(t *testing.T) {
	err := NewDomainError(ErrorTypeNotFound, "tenant missing", nil)

	assert.ErrorIs(t, err, ErrTenantNotFound)
	assert.NotErrorIs(t, err, ErrNotConfigured)
}

func TestDomainError_WithDetail(t *testing.T) {
	err := NewDomainError(ErrorTypeNoChannel, "unreachable", nil).
		WithDetail("tenant_id", "t-1").
		WithDetail("missing_phone", true)

	details := GetErrorDetails(err)
	assert.Equal(t, "t-1", details["tenant_id"])
	assert.Equal(t, true, details["missing_phone"])
}

func TestErrorTypeCheckers(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		checker func(error) bool
	}{
		{"configuration", ErrNotConfigured, IsConfigurationError},
		{"no channel", ErrNoChannelAvailable, IsNoChannelError},
		{"validation", ErrInvalidInput, IsValidationError},
		{"not found", ErrTenantNotFound, IsNotFoundError},
		{"provider", ErrDeliveryFailed, IsProviderError},
		{"cancelled", ErrRouteCancelled, IsCancelledError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, tc.checker(tc.err))
			assert.False(t, tc.checker(errors.New("plain")))

			// Checkers see through fmt wrapping
			assert.True(t, tc.checker(fmt.Errorf("outer: %w", tc.err)))
		})
	}
}

func TestGetErrorType(t *testing.T) {
	assert.Equal(t, ErrorTypeProvider, GetErrorType(ErrDeliveryFailed))
	assert.Equal(t, ErrorType(""), GetErrorType(errors.New("plain")))
}

func TestWrapInternal(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapInternal("snapshot write failed", cause)

	assert.Equal(t, ErrorTypeInternal, GetErrorType(err))
	assert.ErrorIs(t, err, cause)
}

package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Error(t *testing.T) {
	err := NewDomainError(ErrCodeValidation, "bad input")
	assert.Equal(t, "[VALIDATION_ERROR] bad input", err.Error())

	cause := errors.New("boom")
	wrapped := NewDomainErrorWithCause(ErrCodeUnavailable, "embedding failed", cause)
	assert.Equal(t, "[UNAVAILABLE] embedding failed: boom", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)
}

func TestDomainError_IsMatchesSentinelWithCause(t *testing.T) {
	err := fmt.Errorf("startup: %w", ErrNoDocuments.WithCause(errors.New("data/knowledge")))

	assert.ErrorIs(t, err, ErrNoDocuments)
	assert.NotErrorIs(t, err, ErrStyleProfileMissing)

	var de *DomainError
	assert.True(t, errors.As(err, &de))
	assert.Equal(t, ErrCodeConfiguration, de.Code)
}

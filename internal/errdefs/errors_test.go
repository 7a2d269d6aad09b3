package errdefs_test

import (
	"errors"
	"fmt"
	"testing"

	"edupro/internal/errdefs"

	"github.com/stretchr/testify/assert"
)

func TestValidationMatchesSentinel(t *testing.T) {
	err := errdefs.Validation("password confirmation does not match")
	assert.ErrorIs(t, err, errdefs.ErrValidation)
	assert.Equal(t, "password confirmation does not match", err.Error())

	wrapped := fmt.Errorf("sign up: %w", err)
	assert.ErrorIs(t, wrapped, errdefs.ErrValidation)
}

func TestUnansweredIsValidation(t *testing.T) {
	assert.ErrorIs(t, errdefs.ErrUnanswered, errdefs.ErrValidation)
	assert.ErrorIs(t, fmt.Errorf("%w: 2 missing", errdefs.ErrUnanswered), errdefs.ErrUnanswered)
	assert.False(t, errors.Is(errdefs.ErrNotFound, errdefs.ErrValidation))
}

package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesByKind(t *testing.T) {
	err := NewValidationError("age", "must be at least 18")
	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrDuplicateEmail)
	assert.Equal(t, "validation_error: age: must be at least 18", err.Error())

	wrapped := fmt.Errorf("begin: %w", ErrDuplicateEmail)
	assert.ErrorIs(t, wrapped, ErrDuplicateEmail)
	assert.Equal(t, KindDuplicateEmail, KindOf(wrapped))
}

func TestNewStorageError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewStorageError("insert resident", cause)
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, cause)

	assert.Same(t, ErrInvalidCode, NewStorageError("consume", ErrInvalidCode))
	assert.NoError(t, NewStorageError("noop", nil))
	assert.Equal(t, Kind(""), KindOf(cause))
}

func TestDeliveryErrorKeepsCause(t *testing.T) {
	cause := errors.New("amqp closed")
	err := NewDeliveryError(cause)
	assert.ErrorIs(t, err, ErrDelivery)
	assert.ErrorIs(t, err, cause)
}

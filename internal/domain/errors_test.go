package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	err := NotFoundf("user with id = %d not found", 42)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrConflict)
	assert.Equal(t, "user with id = 42 not found", err.Error())

	assert.ErrorIs(t, InvalidArgumentf("Unknown state: %s", "X"), ErrInvalidArgument)
	assert.ErrorIs(t, Conflictf("dup"), ErrConflict)
	assert.ErrorIs(t, ErrNotAvailable, ErrConflict)
	assert.ErrorIs(t, ErrConcurrentModification, ErrConflict)
}

func TestErrorKinds_Wrapped(t *testing.T) {
	err := fmt.Errorf("failed to create booking: %w", NotFoundf("item with id = 1 not found"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "item with id = 1 not found", Message(err))
}

func TestMessage_Internal(t *testing.T) {
	assert.Equal(t, "internal server error", Message(errors.New("disk I/O error")))
}

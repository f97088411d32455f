package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorWrapsUnknown(t *testing.T) {
	err := FromError(fmt.Errorf("boom"))
	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.Equal(t, 500, err.Status)
}

func TestCloneMatchesTemplate(t *testing.T) {
	err := Clone(ErrConflict, "nim already used")
	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "nim already used", err.Message)
	assert.Equal(t, "conflict", ErrConflict.Message)
}

func TestFieldError(t *testing.T) {
	err := FieldError("endYear", "endYear is required when no longer employed")
	assert.True(t, IsCode(err, ErrValidation.Code))
	assert.Equal(t, map[string]string{"endYear": "endYear is required when no longer employed"}, err.Fields)
}

package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	cause := fmt.Errorf("zip: not a valid zip file")

	assert.Equal(t, "[INPUT] invalid archive: zip: not a valid zip file",
		NewInputError("invalid archive", cause).Error())
	assert.Equal(t, "[NOT_FOUND] specialization report CSV not found",
		NewNotFoundError("specialization report CSV").Error())
}

func TestAppError_Unwrap(t *testing.T) {
	sentinel := errors.New("sentinel")
	err := fmt.Errorf("outer: %w", NewStorageError("save", sentinel))

	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, ErrTypeStorage, TypeOf(err))
	assert.Equal(t, ErrorType(""), TypeOf(sentinel))
}

func TestAppError_StatusCode(t *testing.T) {
	tests := []struct {
		errType ErrorType
		want    int
	}{
		{ErrTypeInput, http.StatusBadRequest},
		{ErrTypeValidation, http.StatusBadRequest},
		{ErrTypeNotFound, http.StatusNotFound},
		{ErrTypeTooLarge, http.StatusRequestEntityTooLarge},
		{ErrTypeStorage, http.StatusInternalServerError},
		{ErrTypeConfig, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.errType), func(t *testing.T) {
			assert.Equal(t, tt.want, NewAppError(tt.errType, "msg", nil).StatusCode())
		})
	}
}

func TestIsInputError(t *testing.T) {
	assert.True(t, IsInputError(NewInputError("bad", nil)))
	assert.True(t, IsInputError(NewNotFoundError("report")))
	assert.True(t, IsInputError(NewTooLargeError("big", nil)))
	assert.False(t, IsInputError(NewAppValidationError("missing column", nil)))
	assert.False(t, IsInputError(errors.New("plain")))
}

func TestAppError_WithContext(t *testing.T) {
	err := &AppError{Type: ErrTypeInput, Message: "bad"}
	err.WithContext("field", "completed_filter")
	assert.Equal(t, "completed_filter", err.Context["field"])
}

package dto

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleValidationError_SingleField(t *testing.T) {
	err := validator.New().Struct(UpdateWorkingTimeRequest{WorkingTime: -5})
	require.Error(t, err)

	detail := HandleValidationError(err)
	assert.Equal(t, ErrorCodeValidationFailed, detail.Code)
	assert.Equal(t, "WorkingTime", detail.Field)

	fields, ok := detail.Details.([]FieldError)
	require.True(t, ok)
	require.Len(t, fields, 1)
	assert.Equal(t, "gt", fields[0].Rule)
	assert.Equal(t, "WorkingTime must be greater than 0", fields[0].Message)
}

func TestHandleValidationError_MultipleFields(t *testing.T) {
	err := validator.New().Struct(CreateTestRunRequest{})
	require.Error(t, err)

	detail := HandleValidationError(err)
	assert.Empty(t, detail.Field)
	fields := detail.Details.([]FieldError)
	assert.Len(t, fields, 2)
}

func TestHandleValidationError_NotAValidationError(t *testing.T) {
	detail := HandleValidationError(errors.New("boom"))
	assert.Equal(t, "Invalid request", detail.Message)
	assert.Equal(t, "boom", detail.Details)
}

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRequest struct {
	Provider string `json:"provider" validate:"required"`
	Model    string `json:"model" validate:"required,max=10"`
	Mode     string `json:"mode,omitempty" validate:"omitempty,oneof=fast slow"`
	Internal string `json:"-" validate:"omitempty,min=3"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid struct", func(t *testing.T) {
		err := ValidateStruct(&testRequest{Provider: "openai", Model: "gpt-4"})
		assert.NoError(t, err)
	})

	t.Run("missing required fields use json names", func(t *testing.T) {
		err := ValidateStruct(&testRequest{})
		require.Error(t, err)
		assert.True(t, IsValidationError(err))

		fields := GetValidationFields(err)
		assert.Equal(t, "provider is required", fields["provider"])
		assert.Equal(t, "model is required", fields["model"])
	})

	t.Run("max and oneof", func(t *testing.T) {
		err := ValidateStruct(&testRequest{Provider: "openai", Model: "a-very-long-model", Mode: "medium"})
		require.Error(t, err)

		fields := GetValidationFields(err)
		assert.Equal(t, "model must be at most 10", fields["model"])
		assert.Equal(t, "mode must be one of: fast slow", fields["mode"])
	})

	t.Run("dash json tag falls back to field name", func(t *testing.T) {
		err := ValidateStruct(&testRequest{Provider: "openai", Model: "gpt-4", Internal: "x"})
		require.Error(t, err)
		assert.Contains(t, GetValidationFields(err), "Internal")
	})

	t.Run("non struct", func(t *testing.T) {
		err := ValidateStruct("not a struct")
		assert.Error(t, err)
		assert.False(t, IsValidationError(err))
	})
}

func TestGetValidationFields_NonValidationError(t *testing.T) {
	assert.Nil(t, GetValidationFields(assert.AnError))
	assert.False(t, IsValidationError(assert.AnError))
}

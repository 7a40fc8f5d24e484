package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createSessionInput struct {
	VideoURL string  `json:"video_url" validate:"required,url"`
	UserName string  `json:"user_name" validate:"required,max=32"`
	Avatar   *string `json:"avatar" validate:"omitempty,url"`
}

func TestValidate(t *testing.T) {
	v := NewValidator()

	errs, ok := v.Validate(createSessionInput{
		VideoURL: "https://youtu.be/dQw4w9WgXcQ",
		UserName: "alice",
	})
	assert.True(t, ok)
	assert.Empty(t, errs)
}

func TestValidateErrors(t *testing.T) {
	v := NewValidator()

	errs, ok := v.Validate(createSessionInput{
		VideoURL: "",
		UserName: "a very long user name that exceeds the limit",
	})
	require.False(t, ok)
	require.Len(t, errs, 2)

	assert.Equal(t, ValidationError{
		Field:   "video_url",
		Code:    "REQUIRED",
		Message: "video_url is required",
	}, errs[0])
	assert.Equal(t, "user_name", errs[1].Field)
	assert.Equal(t, "MAX", errs[1].Code)
}

package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Note  string `json:"note" validate:"max=5"`
}

func TestValidate(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(signup{Name: "Ana", Email: "a@x.com"}))

	err := v.Validate(signup{Email: "a@x.com"})
	require.Error(t, err)
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "name", fe.Field)
	assert.Equal(t, "name is required", err.Error())

	assert.EqualError(t, v.Validate(signup{Name: "Ana", Email: "nope"}), "email must be a valid email")
	assert.EqualError(t, v.Validate(signup{Name: "Ana", Email: "a@x.com", Note: "too long"}), "note must not exceed 5 characters")
}

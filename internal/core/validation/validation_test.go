package validation

import (
	"testing"

	"checkout-engine/internal/core/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Email  string `json:"email" validate:"required,email"`
	Name   string `json:"full_name" validate:"required,min=2"`
	Card   string `json:"number" validate:"omitempty,luhn"`
	Nested struct {
		City string `json:"city" validate:"required"`
	} `json:"address"`
}

func TestStruct(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		s := sample{Email: "ana@example.com", Name: "Ana", Card: "4242 4242 4242 4242"}
		s.Nested.City = "Bogotá"
		assert.NoError(t, Struct(s))
	})

	t.Run("FieldErrorsUseJSONNames", func(t *testing.T) {
		s := sample{Email: "not-an-email", Card: "4242424242424241"}

		err := Struct(s)
		require.Error(t, err)

		typed := apperror.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, apperror.CodeValidation, typed.Code())

		details, ok := typed.Details().(map[string]string)
		require.True(t, ok)
		assert.Equal(t, "must be a valid email", details["email"])
		assert.Equal(t, "is required", details["full_name"])
		assert.Equal(t, "is not a valid card number", details["number"])
		assert.Equal(t, "is required", details["address.city"])
	})
}

func TestLuhn(t *testing.T) {
	tests := []struct {
		number string
		valid  bool
	}{
		{"4242424242424242", true},
		{"4242 4242 4242 4242", true},
		{"5555-5555-5555-4444", true},
		{"4111111111111111", true},
		{"4111111111111112", false},
		{"1234", false},
		{"4242a24242424242", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.number, func(t *testing.T) {
			assert.Equal(t, tt.valid, Luhn(tt.number))
		})
	}
}

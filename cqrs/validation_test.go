package cqrs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type openAccountPayload struct {
	AccountID string `validate:"required"`
	Currency  string `validate:"required,len=3"`
}

type programmaticPayload struct {
	Amount int
}

func (p programmaticPayload) Validate() ValidationResult {
	if p.Amount < 0 {
		return ValidationResult{
			Valid:  false,
			Errors: []FieldError{{Field: "Amount", Code: "non_negative", Message: "amount must not be negative"}},
		}
	}

	return ValidationResult{Valid: true}
}

func TestValidationProcessor_DeclarativeSuccess(t *testing.T) {
	p := NewValidationProcessor()

	result := p.Process(openAccountPayload{AccountID: "acc-1", Currency: "USD"})

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidationProcessor_DeclarativeFailure(t *testing.T) {
	p := NewValidationProcessor()

	result := p.Process(openAccountPayload{Currency: "US"})

	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.Errors)
}

func TestValidationProcessor_ProgrammaticHookCombines(t *testing.T) {
	p := NewValidationProcessor()

	result := p.Process(programmaticPayload{Amount: -5})

	assert.False(t, result.Valid)
	assert.Len(t, result.Errors, 1)
	assert.Equal(t, "non_negative", result.Errors[0].Code)
}

func TestValidationProcessor_NilPayload(t *testing.T) {
	p := NewValidationProcessor()

	result := p.Process(nil)

	assert.True(t, result.Valid)
}

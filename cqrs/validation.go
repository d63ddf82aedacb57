package cqrs

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// ValidationProcessor runs declarative (struct-tag) validation plus an
// optional programmatic hook, producing a ValidationResult. Declarative
// validation is backed by go-playground/validator.
type ValidationProcessor struct {
	validate *validator.Validate
}

// NewValidationProcessor builds a ValidationProcessor using struct-tag
// validation rules.
func NewValidationProcessor() *ValidationProcessor {
	return &ValidationProcessor{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Programmatic is the optional `validate() ValidationResult` hook a payload
// may implement for validation beyond struct tags.
type Programmatic interface {
	Validate() ValidationResult
}

// Process runs declarative validation over payload via struct tags, then
// combines it with payload's Programmatic hook if implemented.
func (p *ValidationProcessor) Process(payload any) ValidationResult {
	result := ValidationResult{Valid: true}

	if payload != nil {
		if err := p.validate.Struct(payload); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) {
				result = declarativeResult(verrs)
			} else {
				// Non-struct payloads (e.g. validator.InvalidValidationError)
				// carry no field-level errors worth surfacing; skip them.
				result = ValidationResult{Valid: true}
			}
		}
	}

	if prog, ok := payload.(Programmatic); ok {
		result = result.Combine(prog.Validate())
	}

	return result
}

func declarativeResult(verrs validator.ValidationErrors) ValidationResult {
	errs := make([]FieldError, 0, len(verrs))

	for _, fe := range verrs {
		errs = append(errs, FieldError{
			Field:   fe.Field(),
			Code:    fe.Tag(),
			Message: fe.Error(),
		})
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

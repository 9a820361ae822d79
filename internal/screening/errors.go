package screening

import "errors"

// Validation failures: answered locally, never escalated.
var (
	ErrUnknownSymptom    = errors.New("unknown symptom")
	ErrUnknownAnswer     = errors.New("unknown answer")
	ErrInvalidConfidence = errors.New("invalid outcome confidence")
)

var (
	// ErrNoSession means a step that needs an inference session ran without one.
	ErrNoSession = errors.New("no screening session in progress")
	// ErrTermsRejected means the provider refused the terms-of-use acceptance.
	ErrTermsRejected = errors.New("inference provider rejected terms of use")
)

func IsValidation(err error) bool {
	return errors.Is(err, ErrUnknownSymptom) ||
		errors.Is(err, ErrUnknownAnswer) ||
		errors.Is(err, ErrInvalidConfidence)
}

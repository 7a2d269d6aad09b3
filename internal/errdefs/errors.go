package errdefs

import "errors"

var (
	ErrAlreadyExists    = errors.New("already exists")
	ErrValidation       = errors.New("validation error")
	ErrAuthentication   = errors.New("authentication error")
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")

	ErrConversationExists    = errors.New("conversation already exists")
	ErrAssessmentUnavailable = errors.New("assessment is not available")
	ErrInvalidTransition     = errors.New("invalid attempt transition")
)

// ErrUnanswered is a validation error: every question needs an answer
// before an attempt can be submitted.
var ErrUnanswered = &validationError{msg: "all questions must be answered before submitting"}

type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func (e *validationError) Is(target error) bool { return target == ErrValidation }

// Validation returns an error that matches ErrValidation and carries msg
// verbatim so it can be shown to the user.
func Validation(msg string) error {
	return &validationError{msg: msg}
}

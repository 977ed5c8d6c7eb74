package engine

import "fmt"

// InputError marks caller mistakes (blank topic, a plan with no queries).
// It is the only failure class that propagates out of Controller.Run; service
// and parse failures are absorbed by stage-local fallbacks so the machine
// keeps moving toward Done.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

// NewInputError builds an InputError with a formatted reason.
func NewInputError(format string, args ...interface{}) *InputError {
	return &InputError{Reason: fmt.Sprintf(format, args...)}
}

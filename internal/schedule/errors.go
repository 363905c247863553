package schedule

import "fmt"

// Reason classifies why a booking or appointment selection was rejected.
type Reason string

const (
	ReasonOutOfHours      Reason = "out_of_hours"
	ReasonConflict        Reason = "conflict"
	ReasonTooLong         Reason = "too_long"
	ReasonNotContiguous   Reason = "not_contiguous"
	ReasonUnavailable     Reason = "unavailable"
	ReasonInvalidInterval Reason = "invalid_interval"
)

// RejectionError is returned when a requested interval or slot selection
// cannot be accepted. Callers can switch on Reason to build a response.
type RejectionError struct {
	Reason  Reason
	Message string
}

func (e *RejectionError) Error() string {
	return e.Message
}

// Is allows errors.Is comparison against another RejectionError by reason.
func (e *RejectionError) Is(target error) bool {
	t, ok := target.(*RejectionError)
	return ok && t.Reason == e.Reason
}

func rejectf(reason Reason, format string, args ...interface{}) *RejectionError {
	return &RejectionError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// IsRejection reports whether err is a RejectionError and returns its reason.
func IsRejection(err error) (Reason, bool) {
	if re, ok := err.(*RejectionError); ok {
		return re.Reason, true
	}
	return "", false
}

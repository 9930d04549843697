package access

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound  = errors.New("resource not found")
	ErrForbidden = errors.New("access forbidden")
)

type Outcome int

const (
	Granted Outcome = iota
	NotFound
	Forbidden
)

func (o Outcome) String() string {
	switch o {
	case Granted:
		return "granted"
	case NotFound:
		return "not_found"
	case Forbidden:
		return "forbidden"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Reason tags a Forbidden decision so callers can show specific guidance.
type Reason string

const (
	ReasonNotYourCourse          Reason = "not your course"
	ReasonPaymentRequired        Reason = "payment required"
	ReasonNotEnrolled            Reason = "not enrolled"
	ReasonAuthenticationRequired Reason = "authentication required"
)

// Decision is the result of one access check. Reason is empty unless Outcome is Forbidden.
type Decision struct {
	Outcome Outcome
	Reason  Reason
}

func Grant() Decision { return Decision{Outcome: Granted} }

func Hide() Decision { return Decision{Outcome: NotFound} }

func Deny(reason Reason) Decision { return Decision{Outcome: Forbidden, Reason: reason} }

func (d Decision) Allowed() bool { return d.Outcome == Granted }

func (d Decision) String() string {
	if d.Outcome == Forbidden {
		return fmt.Sprintf("forbidden(%s)", d.Reason)
	}
	return d.Outcome.String()
}

// Err returns nil for a grant and a *DeniedError otherwise.
func (d Decision) Err() error {
	if d.Allowed() {
		return nil
	}
	return &DeniedError{Decision: d}
}

type DeniedError struct {
	Decision Decision
}

func (e *DeniedError) Error() string {
	if e.Decision.Outcome == NotFound {
		return ErrNotFound.Error()
	}
	return string(e.Decision.Reason)
}

func (e *DeniedError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Decision.Outcome == NotFound
	case ErrForbidden:
		return e.Decision.Outcome == Forbidden
	}
	return false
}

package advisory

import (
	"errors"
	"fmt"
)

// ErrorKind classifies advisory failures.
type ErrorKind string

const (
	// ValidationError is bad local input. It never reaches the network.
	ValidationError ErrorKind = "validation_error"
	// GatewayFailure covers transport, status, parse and schema failures
	// from the generative API.
	GatewayFailure ErrorKind = "gateway_failure"
	// EmergencyFallbackExhausted means neither curated nor generated content
	// is available for a situation.
	EmergencyFallbackExhausted ErrorKind = "emergency_fallback_exhausted"
)

// AdvisoryError is the single error type returned by the gateway and the
// orchestrator. Message is safe to show to end users; Cause is kept for logs.
type AdvisoryError struct {
	Kind     ErrorKind
	Advisory Kind
	Message  string
	Cause    error
}

func (e *AdvisoryError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Kind, e.Advisory, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Kind, e.Advisory, e.Message)
}

func (e *AdvisoryError) Unwrap() error {
	return e.Cause
}

// NewValidationError builds a ValidationError for the given kind.
func NewValidationError(kind Kind, message string) *AdvisoryError {
	return &AdvisoryError{Kind: ValidationError, Advisory: kind, Message: message}
}

// NewGatewayFailure builds a GatewayFailure with a user-facing message.
func NewGatewayFailure(kind Kind, cause error) *AdvisoryError {
	return &AdvisoryError{Kind: GatewayFailure, Advisory: kind, Message: FailureMessage(kind), Cause: cause}
}

// HasKind reports whether any AdvisoryError in err's chain has the given kind.
func HasKind(err error, kind ErrorKind) bool {
	for err != nil {
		var ae *AdvisoryError
		if !errors.As(err, &ae) {
			return false
		}
		if ae.Kind == kind {
			return true
		}
		err = ae.Cause
	}
	return false
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool { return HasKind(err, ValidationError) }

// IsGatewayFailure reports whether err is, or wraps, a GatewayFailure.
func IsGatewayFailure(err error) bool { return HasKind(err, GatewayFailure) }

// UserMessage returns the message to show for err without leaking causes.
func UserMessage(err error) string {
	var ae *AdvisoryError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "Something went wrong."
}

// FailureMessage is the generic message shown when a kind's gateway call fails.
func FailureMessage(kind Kind) string {
	switch kind {
	case KindMedicineLookup:
		return "Failed to retrieve medicine info."
	case KindSymptomAnalysis:
		return "Symptom analysis failed."
	case KindEmergencyAid:
		return "Failed to fetch emergency instructions."
	case KindInteractionCheck:
		return "Failed to check interactions."
	case KindDosageSchedule:
		return "Failed to generate schedule."
	case KindImageIdentify:
		return "Image identification failed."
	case KindPharmacyLookup:
		return "Failed to find nearby pharmacies."
	}
	return "Request failed."
}

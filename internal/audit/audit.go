// Package audit records who did what: advisory outcomes, sign-ins and
// inquiry transitions, for the admin dashboard.
package audit

import (
	"time"

	"github.com/mediguide-lk/mediguide/internal/advisory"
)

// ActorType identifies who performed an action.
type ActorType string

const (
	ActorUser      ActorType = "user"
	ActorAdmin     ActorType = "admin"
	ActorAnonymous ActorType = "anonymous"
	ActorSystem    ActorType = "system"
)

// Action describes what was done.
type Action string

const (
	ActionSignup        Action = "auth.signup"
	ActionLogin         Action = "auth.login"
	ActionOnboarding    Action = "auth.onboarding"
	ActionInquirySubmit Action = "inquiry.submit"
	ActionInquiryStatus Action = "inquiry.status"
	ActionThemeChanged  Action = "settings.theme"
)

const advisoryActionPrefix = "advisory."

// AdvisoryAction names the action recorded for an advisory request of kind.
func AdvisoryAction(kind advisory.Kind) Action {
	return Action(advisoryActionPrefix + string(kind))
}

// Outcome is how an action ended.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailure  Outcome = "failure"
	OutcomeRejected Outcome = "rejected"
	OutcomeStale    Outcome = "stale"
)

// Entry is a single audit trail record.
type Entry struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	ActorType  ActorType `json:"actorType"`
	ActorID    string    `json:"actorId,omitempty"`
	Action     Action    `json:"action"`
	Subject    string    `json:"subject,omitempty"`
	Outcome    Outcome   `json:"outcome"`
	Summary    string    `json:"summary,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	DurationMS int64     `json:"durationMs,omitempty"`
}

package enums

import "fmt"

// DispatchStatus maps to the dispatch_status enum in Postgres.
// A dispatch only ever moves pending -> sent.
type DispatchStatus string

const (
	DispatchStatusPending DispatchStatus = "pending"
	DispatchStatusSent    DispatchStatus = "sent"
)

var validDispatchStatuses = []DispatchStatus{
	DispatchStatusPending,
	DispatchStatusSent,
}

// String implements fmt.Stringer.
func (s DispatchStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known dispatch status.
func (s DispatchStatus) IsValid() bool {
	for _, candidate := range validDispatchStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (s DispatchStatus) IsTerminal() bool {
	return s == DispatchStatusSent
}

// CanTransitionTo reports whether the state machine permits s -> next.
func (s DispatchStatus) CanTransitionTo(next DispatchStatus) bool {
	switch s {
	case DispatchStatusPending:
		return next == DispatchStatusSent
	case DispatchStatusSent:
		return false
	}
	return false
}

// ParseDispatchStatus converts raw input into a DispatchStatus.
func ParseDispatchStatus(value string) (DispatchStatus, error) {
	for _, candidate := range validDispatchStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid dispatch status %q", value)
}

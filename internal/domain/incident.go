package domain

import "fmt"

// IncidentSeverity grades how serious a reported incident is.
// Only Catastrophic changes the trip's lifecycle (it aborts the trip).
type IncidentSeverity string

const (
	SeverityInformational IncidentSeverity = "Informational"
	SeverityWarning       IncidentSeverity = "Warning"
	SeverityCatastrophic  IncidentSeverity = "Catastrophic"
)

// ParseIncidentSeverity converts a wire string into an IncidentSeverity.
func ParseIncidentSeverity(s string) (IncidentSeverity, error) {
	switch IncidentSeverity(s) {
	case SeverityInformational, SeverityWarning, SeverityCatastrophic:
		return IncidentSeverity(s), nil
	default:
		return "", fmt.Errorf("%w: unknown incident severity %q", ErrValidation, s)
	}
}

// Incident describes a single event reported against an active trip.
type Incident struct {
	Type        string
	Severity    IncidentSeverity
	Description string
}

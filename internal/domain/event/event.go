// Package event describes the notifications emitted to external collaborators
// after a committed state change.
package event

import (
	"context"
	"time"
)

type Type string

const (
	TypeRegistrationCreated  Type = "registration.created"
	TypeRegistrationApproved Type = "registration.approved"
	TypeRegistrationPaid     Type = "registration.paid"
	TypeHeatAllocated        Type = "heat.allocated"
	TypeResultRecorded       Type = "result.recorded"
)

type Event struct {
	ID           string         `json:"id"`
	Type         Type           `json:"type"`
	TournamentID string         `json:"tournament_id"`
	SubjectID    string         `json:"subject_id"`
	OccurredAt   time.Time      `json:"occurred_at"`
	Data         map[string]any `json:"data,omitempty"`
}

// Publisher delivers an event. Callers treat failures as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Package events carries case lifecycle events between the API and the worker.
package events

import (
	"encoding/json"
	"time"
)

// Type names a lifecycle event.
type Type string

const (
	CaseCreated       Type = "case.created"
	CasePhaseUpdated  Type = "case.phase_updated"
	CasePhaseAdvanced Type = "case.phase_advanced"
	CaseStatusChanged Type = "case.status_changed"
	PaymentReceived   Type = "case.payment_received"
	DocumentUploaded  Type = "document.uploaded"
)

// SchemaVersion is bumped when Event changes incompatibly.
const SchemaVersion = 1

// Event is the payload sent to downstream consumers.
type Event struct {
	Type       Type      `json:"type"`
	CaseID     string    `json:"caseId"`
	UserID     string    `json:"userId,omitempty"`
	ActorID    string    `json:"actorId,omitempty"`
	Phase      int       `json:"phase,omitempty"`
	PhaseKey   string    `json:"phaseKey,omitempty"`
	Status     string    `json:"status,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	RequestID  string    `json:"requestId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
	Version    int       `json:"version"`
}

// Encode returns the JSON representation of an event.
func Encode(e Event) ([]byte, error) {
	if e.Version == 0 {
		e.Version = SchemaVersion
	}
	return json.Marshal(e)
}

// Decode parses a JSON payload into an Event.
func Decode(payload []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(payload, &e); err != nil {
		return Event{}, err
	}
	return e, nil
}

package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose so sinks
// can apply different retention and routing.
type EventCategory string

const (
	// CategoryCompliance covers changes to registry contents and ownership.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers refused mutations.
	CategorySecurity EventCategory = "security"

	// CategoryOperations is the default for events without a mapping.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted by the contract service after a call completes. It is
// observational: the registry never reads it back.
type Event struct {
	ID            string        `json:"id"`
	Category      EventCategory `json:"category"`
	Timestamp     time.Time     `json:"timestamp"`
	Action        string        `json:"action"`
	Caller        string        `json:"caller,omitempty"`
	ModelID       string        `json:"model_id,omitempty"`
	UpdateVersion string        `json:"update_version,omitempty"`
	Decision      string        `json:"decision,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	RequestID     string        `json:"request_id,omitempty"`
}

type AuditEvent string

const (
	EventContractInstantiated AuditEvent = "contract_instantiated"
	EventUpdateAdded          AuditEvent = "update_added"
	EventUpdateUnauthorized   AuditEvent = "update_unauthorized"
	EventUpdateRejected       AuditEvent = "update_rejected"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventContractInstantiated: CategoryCompliance,
	EventUpdateAdded:          CategoryCompliance,

	EventUpdateUnauthorized: CategorySecurity,
	EventUpdateRejected:     CategorySecurity,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

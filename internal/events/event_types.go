package events

import (
	"time"

	"github.com/spec-kit/intake-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated     EventType = "ticket_created"
	EventTicketResolved    EventType = "ticket_resolved"
	EventTicketPrioritized EventType = "ticket_prioritized"
	EventTicketReplied     EventType = "ticket_replied"
	EventIntakeAbuse       EventType = "intake_abuse"
)

// Event represents a lifecycle event emitted by the services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  int64     `json:"ticket_id"`
	AdminID   int64     `json:"admin_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Ticket domain.Ticket `json:"ticket"`
	// Limited is true when the submitter's quota applied; Remaining then
	// carries the slots left in the current window.
	Limited   bool `json:"limited"`
	Remaining int  `json:"remaining"`
}

// TicketResolvedPayload payload for terminal transitions.
type TicketResolvedPayload struct {
	Ticket  domain.Ticket       `json:"ticket"`
	Outcome domain.TicketStatus `json:"outcome"`
}

// TicketPrioritizedPayload payload.
type TicketPrioritizedPayload struct {
	Ticket domain.Ticket `json:"ticket"`
}

// TicketRepliedPayload payload.
type TicketRepliedPayload struct {
	Ticket domain.Ticket `json:"ticket"`
	Text   string        `json:"text"`
}

// IntakeAbusePayload marks a submitter over quota beyond the tolerated bound.
type IntakeAbusePayload struct {
	SubmitterID     int64  `json:"submitter_id"`
	SubmitterHandle string `json:"submitter_handle"`
	OriginChannelID int64  `json:"origin_channel_id"`
}

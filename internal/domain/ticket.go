package domain

import "time"

// TicketStatus enumerates lifecycle states for intake tickets.
type TicketStatus string

const (
	TicketStatusPending  TicketStatus = "pending"
	TicketStatusAccepted TicketStatus = "accepted"
	TicketStatusDenied   TicketStatus = "denied"
)

// Terminal reports whether the status ends the ticket lifecycle. A terminal
// ticket is archived by deletion and no longer appears in the active store.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusAccepted || s == TicketStatusDenied
}

// Ticket is the aggregate for a filed request. The JSON field names are part of
// the persisted document layout and must not change.
type Ticket struct {
	ID                int64        `json:"ticket_id"`
	SubmitterID       int64        `json:"submitter_id"`
	SubmitterHandle   string       `json:"submitter_handle"`
	Body              string       `json:"body"`
	OriginChannelID   int64        `json:"origin_channel_id"`
	OriginChannelName string       `json:"origin_channel_name"`
	CreatedAt         time.Time    `json:"created_at"`
	Priority          bool         `json:"priority"`
	Status            TicketStatus `json:"status"`
}

// BlacklistEntry records a banned submitter. Set semantics keyed by SubmitterID;
// the handle is display-only.
type BlacklistEntry struct {
	SubmitterID     int64  `json:"submitter_id"`
	SubmitterHandle string `json:"submitter_handle"`
}

package domain

// AdminAction is a typed lifecycle action constructed at the transport
// boundary. The variant carries everything the lifecycle needs, so transports
// never hand the core a raw action string to parse.
type AdminAction interface {
	isAdminAction()
}

// AcceptAction resolves a pending ticket as accepted.
type AcceptAction struct {
	TicketID int64
}

// DenyAction resolves a pending ticket as denied.
type DenyAction struct {
	TicketID int64
}

// PrioritizeAction escalates a pending ticket. Idempotent.
type PrioritizeAction struct {
	TicketID int64
}

// ReplyAction sends an admin message to the ticket's origin channel without
// changing ticket state.
type ReplyAction struct {
	TicketID int64
	Text     string
}

func (AcceptAction) isAdminAction()     {}
func (DenyAction) isAdminAction()       {}
func (PrioritizeAction) isAdminAction() {}
func (ReplyAction) isAdminAction()      {}

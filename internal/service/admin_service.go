package service

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/intake-service/internal/clock"
	"github.com/spec-kit/intake-service/internal/domain"
	"github.com/spec-kit/intake-service/internal/events"
	"github.com/spec-kit/intake-service/internal/membership"
	"github.com/spec-kit/intake-service/internal/observability"
	"github.com/spec-kit/intake-service/internal/store"
	apperrors "github.com/spec-kit/intake-service/pkg/util"
)

// AdminService executes lifecycle actions on behalf of administrators. Every
// action authorizes the actor through the membership collaborator before any
// state is touched; an unauthorized caller causes no side effects.
type AdminService struct {
	tickets    *store.TicketStore
	blacklist  *store.BlacklistStore
	members    membership.Service
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	clk        clock.Clock
	logger     *zap.Logger
}

// AdminDependencies bundles collaborators for the admin service.
type AdminDependencies struct {
	TicketStore    *store.TicketStore
	BlacklistStore *store.BlacklistStore
	Membership     membership.Service
	Dispatcher     events.Dispatcher
	Metrics        *observability.Metrics
	Clock          clock.Clock
	Logger         *zap.Logger
}

// NewAdminService constructs the service.
func NewAdminService(deps AdminDependencies) *AdminService {
	return &AdminService{
		tickets:    deps.TicketStore,
		blacklist:  deps.BlacklistStore,
		members:    deps.Membership,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		clk:        deps.Clock,
		logger:     deps.Logger,
	}
}

// Apply dispatches a typed admin action built at the transport boundary.
func (s *AdminService) Apply(ctx context.Context, actorID int64, action domain.AdminAction) error {
	switch a := action.(type) {
	case domain.AcceptAction:
		return s.Accept(ctx, actorID, a.TicketID)
	case domain.DenyAction:
		return s.Deny(ctx, actorID, a.TicketID)
	case domain.PrioritizeAction:
		return s.Prioritize(ctx, actorID, a.TicketID)
	case domain.ReplyAction:
		return s.Reply(ctx, actorID, a.TicketID, a.Text)
	default:
		return apperrors.NewValidationError("unknown admin action", nil)
	}
}

// Accept resolves a pending ticket as accepted: the ticket is removed from the
// active store (archival-by-deletion) and the outcome is announced.
func (s *AdminService) Accept(ctx context.Context, actorID, ticketID int64) error {
	return s.resolve(ctx, actorID, ticketID, domain.TicketStatusAccepted)
}

// Deny resolves a pending ticket as denied.
func (s *AdminService) Deny(ctx context.Context, actorID, ticketID int64) error {
	return s.resolve(ctx, actorID, ticketID, domain.TicketStatusDenied)
}

func (s *AdminService) resolve(ctx context.Context, actorID, ticketID int64, outcome domain.TicketStatus) error {
	if err := s.authorize(ctx, actorID); err != nil {
		return err
	}

	ticket, err := s.tickets.GetTicket(ctx, ticketID)
	if err != nil {
		return err
	}
	// Removal is the single persisted step; a concurrent resolve of the
	// same ticket loses here with not-found, which keeps accept and deny
	// mutually exclusive.
	if err := s.tickets.RemoveTicket(ctx, ticketID); err != nil {
		return err
	}

	resolved := *ticket
	resolved.Status = outcome

	if outcome == domain.TicketStatusAccepted {
		s.metrics.RecordIntake(observability.OutcomeAccepted)
	} else {
		s.metrics.RecordIntake(observability.OutcomeDenied)
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketResolved,
		TicketID: ticketID,
		AdminID:  actorID,
		Payload:  events.TicketResolvedPayload{Ticket: resolved, Outcome: outcome},
	})
	return nil
}

// Prioritize escalates a pending ticket. Repeating it on an already escalated
// ticket is a no-op success with no further notification.
func (s *AdminService) Prioritize(ctx context.Context, actorID, ticketID int64) error {
	if err := s.authorize(ctx, actorID); err != nil {
		return err
	}

	already := false
	ticket, err := s.tickets.UpdateTicket(ctx, ticketID, func(t *domain.Ticket) {
		if t.Priority {
			already = true
			return
		}
		t.Priority = true
	})
	if err != nil {
		return err
	}
	if already {
		return nil
	}

	s.metrics.RecordIntake(observability.OutcomePrioritized)
	s.publish(ctx, events.Event{
		Type:     events.EventTicketPrioritized,
		TicketID: ticketID,
		AdminID:  actorID,
		Payload:  events.TicketPrioritizedPayload{Ticket: *ticket},
	})
	return nil
}

// Reply sends an admin message to the ticket's origin channel without touching
// ticket state. It fails with not-found before any send when the ticket is
// gone.
func (s *AdminService) Reply(ctx context.Context, actorID, ticketID int64, text string) error {
	if err := s.authorize(ctx, actorID); err != nil {
		return err
	}
	if text == "" {
		return apperrors.NewValidationError("reply text must not be empty", nil)
	}

	ticket, err := s.tickets.GetTicket(ctx, ticketID)
	if err != nil {
		return err
	}

	s.metrics.RecordIntake(observability.OutcomeReplied)
	s.publish(ctx, events.Event{
		Type:     events.EventTicketReplied,
		TicketID: ticketID,
		AdminID:  actorID,
		Payload:  events.TicketRepliedPayload{Ticket: *ticket, Text: text},
	})
	return nil
}

// GetTicket returns one active ticket for the admin view.
func (s *AdminService) GetTicket(ctx context.Context, actorID, ticketID int64) (*domain.Ticket, error) {
	if err := s.authorize(ctx, actorID); err != nil {
		return nil, err
	}
	return s.tickets.GetTicket(ctx, ticketID)
}

// ListTickets returns the active queue, oldest first.
func (s *AdminService) ListTickets(ctx context.Context, actorID int64) ([]domain.Ticket, error) {
	if err := s.authorize(ctx, actorID); err != nil {
		return nil, err
	}
	return s.tickets.ListTickets(ctx)
}

// Block bans a submitter from intake.
func (s *AdminService) Block(ctx context.Context, actorID, submitterID int64, handle string) error {
	if err := s.authorize(ctx, actorID); err != nil {
		return err
	}
	return s.blacklist.Block(ctx, submitterID, handle)
}

// Unblock lifts a ban.
func (s *AdminService) Unblock(ctx context.Context, actorID, submitterID int64) error {
	if err := s.authorize(ctx, actorID); err != nil {
		return err
	}
	return s.blacklist.Unblock(ctx, submitterID)
}

// Blacklist returns the current ban set.
func (s *AdminService) Blacklist(ctx context.Context, actorID int64) ([]domain.BlacklistEntry, error) {
	if err := s.authorize(ctx, actorID); err != nil {
		return nil, err
	}
	return s.blacklist.Entries(ctx), nil
}

// SubmitterCount pairs a submitter handle with their active ticket count.
type SubmitterCount struct {
	Handle string `json:"handle"`
	Count  int    `json:"count"`
}

// Stats summarizes the active queue.
type Stats struct {
	Total         int              `json:"total"`
	ByChannel     map[string]int   `json:"by_channel"`
	TopSubmitters []SubmitterCount `json:"top_submitters"`
}

// Stats aggregates the active queue per origin channel and top submitters.
func (s *AdminService) Stats(ctx context.Context, actorID int64) (*Stats, error) {
	if err := s.authorize(ctx, actorID); err != nil {
		return nil, err
	}
	tickets, err := s.tickets.ListTickets(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{Total: len(tickets), ByChannel: make(map[string]int)}
	submitters := make(map[string]int)
	for _, ticket := range tickets {
		stats.ByChannel[ticket.OriginChannelName]++
		submitters[ticket.SubmitterHandle]++
	}
	for handle, count := range submitters {
		stats.TopSubmitters = append(stats.TopSubmitters, SubmitterCount{Handle: handle, Count: count})
	}
	sort.Slice(stats.TopSubmitters, func(i, j int) bool {
		if stats.TopSubmitters[i].Count == stats.TopSubmitters[j].Count {
			return stats.TopSubmitters[i].Handle < stats.TopSubmitters[j].Handle
		}
		return stats.TopSubmitters[i].Count > stats.TopSubmitters[j].Count
	})
	if len(stats.TopSubmitters) > 3 {
		stats.TopSubmitters = stats.TopSubmitters[:3]
	}
	return stats, nil
}

// Export returns the exact persisted ticket document for backup.
func (s *AdminService) Export(ctx context.Context, actorID int64) ([]byte, error) {
	if err := s.authorize(ctx, actorID); err != nil {
		return nil, err
	}
	return s.tickets.Snapshot(ctx)
}

func (s *AdminService) authorize(ctx context.Context, actorID int64) error {
	isAdmin, err := s.members.IsAdmin(ctx, actorID)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if !isAdmin {
		s.logger.Warn("unauthorized admin action attempt", zap.Int64("actor_id", actorID))
		return apperrors.NewUnauthorized("administrator required")
	}
	return nil
}

func (s *AdminService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = s.clk.Now()
	s.dispatcher.Publish(ctx, event)
}

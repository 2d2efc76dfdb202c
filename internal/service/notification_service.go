package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/intake-service/internal/domain"
	"github.com/spec-kit/intake-service/internal/events"
	"github.com/spec-kit/intake-service/internal/notify"
)

// Outbound is one planned notification: where and what.
type Outbound struct {
	ChannelID int64
	Text      string
	// Panel marks the admin-group panel message whose ref is tracked so a
	// later resolution can edit it in place.
	Panel bool
}

// NotificationService maps lifecycle events to outbound messages and hands
// them to the transport. Ticket state is persisted before any event reaches
// this service; delivery failures are logged and never propagate.
type NotificationService struct {
	transport    notify.Transport
	refs         notify.RefStore
	logger       *zap.Logger
	adminGroupID int64
	sendTimeout  time.Duration
}

// NewNotificationService creates the service.
func NewNotificationService(transport notify.Transport, refs notify.RefStore, adminGroupID int64, sendTimeout time.Duration, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		transport:    transport,
		refs:         refs,
		logger:       logger,
		adminGroupID: adminGroupID,
		sendTimeout:  sendTimeout,
	}
}

// RegisterHandlers subscribes to lifecycle events.
func (n *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	dispatcher.Subscribe(events.EventTicketResolved, n.handleTicketResolved)
	dispatcher.Subscribe(events.EventTicketPrioritized, n.handleTicketPrioritized)
	dispatcher.Subscribe(events.EventTicketReplied, n.handleTicketReplied)
	dispatcher.Subscribe(events.EventIntakeAbuse, n.handleIntakeAbuse)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return
	}
	for _, out := range PlanCreated(payload, n.adminGroupID) {
		ref, delivered := n.send(ctx, out)
		if delivered && out.Panel {
			if err := n.refs.Save(ctx, payload.Ticket.ID, ref); err != nil {
				n.logger.Warn("failed to track panel message ref",
					zap.Int64("ticket_id", payload.Ticket.ID), zap.Error(err))
			}
		}
	}
}

func (n *NotificationService) handleTicketResolved(ctx context.Context, event events.Event) {
	payload, ok := event.Payload.(events.TicketResolvedPayload)
	if !ok {
		return
	}
	for _, out := range PlanResolved(payload) {
		n.send(ctx, out)
	}
	n.updatePanel(ctx, payload)
}

func (n *NotificationService) handleTicketPrioritized(ctx context.Context, event events.Event) {
	payload, ok := event.Payload.(events.TicketPrioritizedPayload)
	if !ok {
		return
	}
	for _, out := range PlanPrioritized(payload) {
		n.send(ctx, out)
	}
}

func (n *NotificationService) handleTicketReplied(ctx context.Context, event events.Event) {
	payload, ok := event.Payload.(events.TicketRepliedPayload)
	if !ok {
		return
	}
	for _, out := range PlanReplied(payload) {
		n.send(ctx, out)
	}
}

func (n *NotificationService) handleIntakeAbuse(ctx context.Context, event events.Event) {
	payload, ok := event.Payload.(events.IntakeAbusePayload)
	if !ok {
		return
	}
	n.send(ctx, Outbound{
		ChannelID: n.adminGroupID,
		Text: fmt.Sprintf("Submitter @%s (%d) is filing requests beyond the daily quota. Consider a warning.",
			payload.SubmitterHandle, payload.SubmitterID),
	})
}

// updatePanel edits the tracked admin panel message to reflect the outcome,
// then drops the ref.
func (n *NotificationService) updatePanel(ctx context.Context, payload events.TicketResolvedPayload) {
	ref, found, err := n.refs.Get(ctx, payload.Ticket.ID)
	if err != nil {
		n.logger.Warn("panel ref lookup failed", zap.Int64("ticket_id", payload.Ticket.ID), zap.Error(err))
		return
	}
	if !found {
		return
	}

	sctx, cancel := n.sendContext(ctx)
	defer cancel()
	text := fmt.Sprintf("Ticket #%d resolved: %s.", payload.Ticket.ID, payload.Outcome)
	if err := n.transport.Edit(sctx, ref, text); err != nil {
		n.logger.Warn("panel message edit failed", zap.Int64("ticket_id", payload.Ticket.ID), zap.Error(err))
	}
	if err := n.refs.Delete(ctx, payload.Ticket.ID); err != nil {
		n.logger.Warn("panel ref delete failed", zap.Int64("ticket_id", payload.Ticket.ID), zap.Error(err))
	}
}

func (n *NotificationService) send(ctx context.Context, out Outbound) (notify.MessageRef, bool) {
	sctx, cancel := n.sendContext(ctx)
	defer cancel()

	ref, err := n.transport.Send(sctx, out.ChannelID, out.Text)
	if err != nil {
		n.logger.Warn("notification delivery failed",
			zap.Int64("channel_id", out.ChannelID), zap.Error(err))
		return notify.MessageRef{}, false
	}
	return ref, true
}

// sendContext bounds a delivery attempt and detaches it from request
// cancellation: persistence already happened, delivery should still be tried.
func (n *NotificationService) sendContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), n.sendTimeout)
}

// PlanCreated maps a creation event to its notifications: the origin channel
// hears the ticket is queued, the admin group gets the manage panel, and a
// quota-limited submitter learns how many requests they have left today.
func PlanCreated(payload events.TicketCreatedPayload, adminGroupID int64) []Outbound {
	ticket := payload.Ticket
	out := []Outbound{
		{
			ChannelID: ticket.OriginChannelID,
			Text: fmt.Sprintf("Ticket #%d registered for @%s. The admin team will review it shortly.",
				ticket.ID, ticket.SubmitterHandle),
		},
		{
			ChannelID: adminGroupID,
			Panel:     true,
			Text: fmt.Sprintf("New ticket #%d from @%s in %s:\n%s\nUse the manage commands to accept, deny or prioritize it.",
				ticket.ID, ticket.SubmitterHandle, ticket.OriginChannelName, ticket.Body),
		},
	}
	if payload.Limited {
		out = append(out, Outbound{
			ChannelID: ticket.SubmitterID,
			Text: fmt.Sprintf("Your request was registered as ticket #%d. You have %d requests remaining today.",
				ticket.ID, payload.Remaining),
		})
	}
	return out
}

// PlanResolved maps a terminal transition to its notifications: the origin
// channel and the submitter both hear the outcome with guidance text.
func PlanResolved(payload events.TicketResolvedPayload) []Outbound {
	ticket := payload.Ticket
	var text string
	if payload.Outcome == domain.TicketStatusAccepted {
		text = fmt.Sprintf("Ticket #%d (@%s): request accepted. Use the search in the target channel to find it.",
			ticket.ID, ticket.SubmitterHandle)
	} else {
		text = fmt.Sprintf("Ticket #%d (@%s): request was not accepted. Contact an administrator if you need help.",
			ticket.ID, ticket.SubmitterHandle)
	}
	return []Outbound{
		{ChannelID: ticket.OriginChannelID, Text: text},
		{ChannelID: ticket.SubmitterID, Text: text},
	}
}

// PlanPrioritized announces the escalation to the origin channel.
func PlanPrioritized(payload events.TicketPrioritizedPayload) []Outbound {
	return []Outbound{{
		ChannelID: payload.Ticket.OriginChannelID,
		Text:      fmt.Sprintf("Ticket #%d has been escalated and will be reviewed with priority.", payload.Ticket.ID),
	}}
}

// PlanReplied forwards the admin message verbatim, attributed to the ticket.
func PlanReplied(payload events.TicketRepliedPayload) []Outbound {
	return []Outbound{{
		ChannelID: payload.Ticket.OriginChannelID,
		Text:      fmt.Sprintf("Admin reply to ticket #%d:\n%s", payload.Ticket.ID, payload.Text),
	}}
}

package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/intake-service/internal/clock"
	"github.com/spec-kit/intake-service/internal/config"
	"github.com/spec-kit/intake-service/internal/domain"
	"github.com/spec-kit/intake-service/internal/events"
	"github.com/spec-kit/intake-service/internal/membership"
	"github.com/spec-kit/intake-service/internal/observability"
	"github.com/spec-kit/intake-service/internal/ratelimit"
	"github.com/spec-kit/intake-service/internal/store"
	apperrors "github.com/spec-kit/intake-service/pkg/util"
)

// IntakeService runs the submission path: blacklist gate, quota check, ticket
// creation, fan-out.
type IntakeService struct {
	tickets    *store.TicketStore
	blacklist  *store.BlacklistStore
	limiter    *ratelimit.Limiter
	members    membership.Service
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	clk        clock.Clock
	cfg        config.IntakeConfig
	logger     *zap.Logger
}

// IntakeDependencies bundles collaborators for the intake service.
type IntakeDependencies struct {
	TicketStore    *store.TicketStore
	BlacklistStore *store.BlacklistStore
	Limiter        *ratelimit.Limiter
	Membership     membership.Service
	Dispatcher     events.Dispatcher
	Metrics        *observability.Metrics
	Clock          clock.Clock
	Logger         *zap.Logger
}

// SubmitInput describes a submission arriving from an origin channel.
type SubmitInput struct {
	SubmitterID       int64
	SubmitterHandle   string
	Body              string
	OriginChannelID   int64
	OriginChannelName string
}

// NewIntakeService constructs the service.
func NewIntakeService(cfg config.IntakeConfig, deps IntakeDependencies) *IntakeService {
	return &IntakeService{
		tickets:    deps.TicketStore,
		blacklist:  deps.BlacklistStore,
		limiter:    deps.Limiter,
		members:    deps.Membership,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		clk:        deps.Clock,
		cfg:        cfg,
		logger:     deps.Logger,
	}
}

// Submit files a new ticket. The blacklist is checked strictly before the
// quota, so a blocked submitter never consumes a rate-limit slot; the quota is
// checked strictly before creation, so a denied submitter never advances the
// ticket counter.
func (s *IntakeService) Submit(ctx context.Context, input SubmitInput) (*domain.Ticket, error) {
	if strings.TrimSpace(input.Body) == "" {
		return nil, apperrors.NewValidationError("request body must not be empty", nil)
	}
	if input.SubmitterID <= 0 {
		return nil, apperrors.NewValidationError("submitter id required", nil)
	}

	if s.blacklist.IsBlocked(ctx, input.SubmitterID) {
		s.metrics.RecordIntake(observability.OutcomeBlocked)
		s.logger.Info("submission rejected, submitter blacklisted",
			zap.Int64("submitter_id", input.SubmitterID))
		return nil, apperrors.NewBlocked(input.SubmitterID)
	}

	exempt, err := s.exempt(ctx, input.SubmitterID)
	if err != nil {
		return nil, err
	}

	decision, err := s.limiter.CheckAndReserve(ctx, ratelimit.Request{
		SubmitterID: input.SubmitterID,
		Limit:       s.cfg.Limit,
		Window:      s.cfg.Window(),
		Exempt:      exempt,
	})
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		s.metrics.RecordIntake(observability.OutcomeRateLimited)
		if decision.Abuse {
			s.publish(ctx, events.Event{
				Type: events.EventIntakeAbuse,
				Payload: events.IntakeAbusePayload{
					SubmitterID:     input.SubmitterID,
					SubmitterHandle: input.SubmitterHandle,
					OriginChannelID: input.OriginChannelID,
				},
			})
		}
		return nil, apperrors.NewRateLimited(decision.RetryAfter, decision.Abuse)
	}

	ticket, err := s.tickets.CreateTicket(ctx, store.CreateTicketInput{
		SubmitterID:       input.SubmitterID,
		SubmitterHandle:   input.SubmitterHandle,
		Body:              strings.TrimSpace(input.Body),
		OriginChannelID:   input.OriginChannelID,
		OriginChannelName: input.OriginChannelName,
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordIntake(observability.OutcomeCreated)
	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			Ticket:    *ticket,
			Limited:   !exempt,
			Remaining: decision.Remaining,
		},
	})
	return ticket, nil
}

// exempt decides whether the quota applies. Administrators are exempt unless
// configuration applies the limit to them too.
func (s *IntakeService) exempt(ctx context.Context, submitterID int64) (bool, error) {
	if s.cfg.LimitAdmins {
		return false, nil
	}
	isAdmin, err := s.members.IsAdmin(ctx, submitterID)
	if err != nil {
		return false, apperrors.NewInternalError(err)
	}
	return isAdmin, nil
}

func (s *IntakeService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = s.clk.Now()
	s.dispatcher.Publish(ctx, event)
}

package ratelimit

import (
	"context"
	"time"

	"github.com/spec-kit/intake-service/internal/clock"
	"github.com/spec-kit/intake-service/internal/domain"
)

// TicketSource supplies the ticket snapshot the window is computed from. Rate
// windows are derived on demand and never persisted.
type TicketSource interface {
	ListTickets(ctx context.Context) ([]domain.Ticket, error)
}

// Request describes one quota check. Limit and Window come from configuration;
// Exempt is decided by the caller (the limiter itself is exemption-agnostic).
type Request struct {
	SubmitterID int64
	Limit       int
	Window      time.Duration
	Exempt      bool
}

// Decision is the outcome of a quota check.
type Decision struct {
	Allowed bool
	// Remaining counts slots left after the ticket about to be created.
	Remaining int
	// RetryAfter and ResetAt are set on denial: when the oldest ticket in
	// the window falls out of it.
	RetryAfter time.Duration
	ResetAt    time.Time
	// Abuse marks a count strictly above the limit, which only happens when
	// the limit was lowered after tickets were filed or a check-then-act
	// race let an extra ticket through. Callers escalate it.
	Abuse bool
}

// Limiter computes sliding-window intake quotas from the ticket store.
type Limiter struct {
	source TicketSource
	clk    clock.Clock
}

// NewLimiter constructs a limiter over the given ticket source.
func NewLimiter(source TicketSource, clk clock.Clock) *Limiter {
	return &Limiter{source: source, clk: clk}
}

// CheckAndReserve decides whether the submitter may file a new ticket within
// the trailing window ending now.
func (l *Limiter) CheckAndReserve(ctx context.Context, req Request) (Decision, error) {
	if req.Exempt {
		return Decision{Allowed: true, Remaining: req.Limit}, nil
	}

	tickets, err := l.source.ListTickets(ctx)
	if err != nil {
		return Decision{}, err
	}

	now := l.clk.Now()
	cutoff := now.Add(-req.Window)

	count := 0
	var oldest time.Time
	for _, ticket := range tickets {
		if ticket.SubmitterID != req.SubmitterID {
			continue
		}
		if !ticket.CreatedAt.After(cutoff) || ticket.CreatedAt.After(now) {
			continue
		}
		count++
		if oldest.IsZero() || ticket.CreatedAt.Before(oldest) {
			oldest = ticket.CreatedAt
		}
	}

	if count < req.Limit {
		return Decision{Allowed: true, Remaining: req.Limit - count - 1}, nil
	}

	resetAt := oldest.Add(req.Window)
	return Decision{
		Allowed:    false,
		RetryAfter: resetAt.Sub(now),
		ResetAt:    resetAt,
		Abuse:      count > req.Limit,
	}, nil
}

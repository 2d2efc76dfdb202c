package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/intake-service/internal/clock"
	"github.com/spec-kit/intake-service/internal/domain"
	apperrors "github.com/spec-kit/intake-service/pkg/util"
)

// ticketDocument is the persisted representation: the active ticket set keyed
// by ticket id plus the monotonic counter, replaced atomically as one file.
type ticketDocument struct {
	Tickets      map[int64]domain.Ticket `json:"tickets"`
	LastTicketID int64                   `json:"last_ticket_id"`
}

// CreateTicketInput carries the intake fields for a new ticket.
type CreateTicketInput struct {
	SubmitterID       int64
	SubmitterHandle   string
	Body              string
	OriginChannelID   int64
	OriginChannelName string
}

// TicketStore owns ticket and counter state. Every read-modify-write sequence
// runs under the store-wide mutex so id allocation and the counter increment
// land in the same atomic file replace as the record itself.
type TicketStore struct {
	mu        sync.Mutex
	path      string
	retention time.Duration
	clk       clock.Clock
	doc       ticketDocument
}

// NewTicketStore loads (or initializes) the backing document. Tickets past the
// retention horizon are swept at load.
func NewTicketStore(path string, retention time.Duration, clk clock.Clock) (*TicketStore, error) {
	s := &TicketStore{
		path:      path,
		retention: retention,
		clk:       clk,
		doc:       ticketDocument{Tickets: make(map[int64]domain.Ticket)},
	}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// first run, empty store
	case err != nil:
		return nil, apperrors.NewPersistenceError(err)
	default:
		if err := json.Unmarshal(raw, &s.doc); err != nil {
			return nil, apperrors.NewPersistenceError(err)
		}
		if s.doc.Tickets == nil {
			s.doc.Tickets = make(map[int64]domain.Ticket)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	return s, nil
}

// CreateTicket allocates the next ticket id and persists the new record. The
// counter advances by exactly one per successful creation and never rewinds,
// even after deletions. On a persistence failure the ticket was not created.
func (s *TicketStore) CreateTicket(ctx context.Context, input CreateTicketInput) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket := domain.Ticket{
		ID:                s.doc.LastTicketID + 1,
		SubmitterID:       input.SubmitterID,
		SubmitterHandle:   input.SubmitterHandle,
		Body:              input.Body,
		OriginChannelID:   input.OriginChannelID,
		OriginChannelName: input.OriginChannelName,
		CreatedAt:         s.clk.Now().UTC(),
		Priority:          false,
		Status:            domain.TicketStatusPending,
	}

	s.doc.Tickets[ticket.ID] = ticket
	s.doc.LastTicketID = ticket.ID
	if err := s.saveLocked(); err != nil {
		delete(s.doc.Tickets, ticket.ID)
		s.doc.LastTicketID = ticket.ID - 1
		return nil, err
	}
	return &ticket, nil
}

// GetTicket returns the ticket or not-found.
func (s *TicketStore) GetTicket(ctx context.Context, id int64) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.doc.Tickets[id]
	if !ok {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}
	return &ticket, nil
}

// ListTickets returns active tickets ordered by creation time ascending. The
// retention sweep runs first; it is a courtesy cleanup, so a failed persist of
// the swept document does not fail the listing.
func (s *TicketStore) ListTickets(ctx context.Context) ([]domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if removed := s.sweepLocked(); removed > 0 {
		_ = s.saveLocked()
	}

	tickets := make([]domain.Ticket, 0, len(s.doc.Tickets))
	for _, ticket := range s.doc.Tickets {
		tickets = append(tickets, ticket)
	}
	sort.Slice(tickets, func(i, j int) bool {
		if tickets[i].CreatedAt.Equal(tickets[j].CreatedAt) {
			return tickets[i].ID < tickets[j].ID
		}
		return tickets[i].CreatedAt.Before(tickets[j].CreatedAt)
	})
	return tickets, nil
}

// UpdateTicket applies the mutator to the stored record and persists the whole
// document. Identity and creation time are immutable.
func (s *TicketStore) UpdateTicket(ctx context.Context, id int64, mutate func(*domain.Ticket)) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.doc.Tickets[id]
	if !ok {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}

	next := prev
	mutate(&next)
	next.ID = prev.ID
	next.CreatedAt = prev.CreatedAt

	s.doc.Tickets[id] = next
	if err := s.saveLocked(); err != nil {
		s.doc.Tickets[id] = prev
		return nil, err
	}
	return &next, nil
}

// RemoveTicket deletes a ticket, used when it reaches a terminal status.
func (s *TicketStore) RemoveTicket(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.doc.Tickets[id]
	if !ok {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}

	delete(s.doc.Tickets, id)
	if err := s.saveLocked(); err != nil {
		s.doc.Tickets[id] = prev
		return err
	}
	return nil
}

// Purge removes tickets older than the horizon and reports how many went.
func (s *TicketStore) Purge(ctx context.Context, olderThan time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.clk.Now().Add(-olderThan)
	removed := make(map[int64]domain.Ticket)
	for id, ticket := range s.doc.Tickets {
		if ticket.CreatedAt.Before(cutoff) {
			removed[id] = ticket
			delete(s.doc.Tickets, id)
		}
	}
	if len(removed) == 0 {
		return 0, nil
	}
	if err := s.saveLocked(); err != nil {
		for id, ticket := range removed {
			s.doc.Tickets[id] = ticket
		}
		return 0, err
	}
	return len(removed), nil
}

// Snapshot returns the exact bytes of the persisted representation.
func (s *TicketStore) Snapshot(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := encodeDocument(s.doc)
	if err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	return raw, nil
}

// sweepLocked drops tickets past the retention horizon. Caller holds the lock.
func (s *TicketStore) sweepLocked() int {
	if s.retention <= 0 {
		return 0
	}
	cutoff := s.clk.Now().Add(-s.retention)
	removed := 0
	for id, ticket := range s.doc.Tickets {
		if ticket.CreatedAt.Before(cutoff) {
			delete(s.doc.Tickets, id)
			removed++
		}
	}
	return removed
}

func (s *TicketStore) saveLocked() error {
	raw, err := encodeDocument(s.doc)
	if err != nil {
		return apperrors.NewPersistenceError(err)
	}
	if err := writeFileAtomic(s.path, raw); err != nil {
		return apperrors.NewPersistenceError(err)
	}
	return nil
}

func encodeDocument(doc any) ([]byte, error) {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(raw, '\n'), nil
}

// writeFileAtomic writes to a temp file in the target directory and renames it
// over the destination, so a crash mid-write never leaves a partial document.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sort"
	"sync"

	"github.com/spec-kit/intake-service/internal/domain"
	apperrors "github.com/spec-kit/intake-service/pkg/util"
)

type blacklistDocument struct {
	Entries map[int64]domain.BlacklistEntry `json:"blacklist"`
}

// BlacklistStore owns the banned-submitter set, persisted as its own
// atomically replaced document. Entries never expire; removal is explicit.
type BlacklistStore struct {
	mu   sync.Mutex
	path string
	doc  blacklistDocument
}

// NewBlacklistStore loads (or initializes) the blacklist document.
func NewBlacklistStore(path string) (*BlacklistStore, error) {
	s := &BlacklistStore{
		path: path,
		doc:  blacklistDocument{Entries: make(map[int64]domain.BlacklistEntry)},
	}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, apperrors.NewPersistenceError(err)
	default:
		if err := json.Unmarshal(raw, &s.doc); err != nil {
			return nil, apperrors.NewPersistenceError(err)
		}
		if s.doc.Entries == nil {
			s.doc.Entries = make(map[int64]domain.BlacklistEntry)
		}
	}
	return s, nil
}

// IsBlocked reports whether the submitter is banned.
func (s *BlacklistStore) IsBlocked(ctx context.Context, submitterID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.doc.Entries[submitterID]
	return ok
}

// Block bans a submitter. Banning an already-banned submitter is a conflict.
func (s *BlacklistStore) Block(ctx context.Context, submitterID int64, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.doc.Entries[submitterID]; ok {
		return apperrors.NewConflict("submitter already blacklisted", map[string]any{"submitter_id": submitterID})
	}
	s.doc.Entries[submitterID] = domain.BlacklistEntry{SubmitterID: submitterID, SubmitterHandle: handle}
	if err := s.saveLocked(); err != nil {
		delete(s.doc.Entries, submitterID)
		return err
	}
	return nil
}

// Unblock lifts a ban.
func (s *BlacklistStore) Unblock(ctx context.Context, submitterID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.doc.Entries[submitterID]
	if !ok {
		return apperrors.NewNotFound("blacklist entry", map[string]any{"submitter_id": submitterID})
	}
	delete(s.doc.Entries, submitterID)
	if err := s.saveLocked(); err != nil {
		s.doc.Entries[submitterID] = prev
		return err
	}
	return nil
}

// Entries returns the current ban set ordered by submitter id.
func (s *BlacklistStore) Entries(ctx context.Context) []domain.BlacklistEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]domain.BlacklistEntry, 0, len(s.doc.Entries))
	for _, entry := range s.doc.Entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].SubmitterID < entries[j].SubmitterID })
	return entries
}

func (s *BlacklistStore) saveLocked() error {
	raw, err := encodeDocument(s.doc)
	if err != nil {
		return apperrors.NewPersistenceError(err)
	}
	if err := writeFileAtomic(s.path, raw); err != nil {
		return apperrors.NewPersistenceError(err)
	}
	return nil
}

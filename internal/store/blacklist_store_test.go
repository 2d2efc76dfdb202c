package store

import (
	"context"
	"path/filepath"
	"testing"

	apperrors "github.com/spec-kit/intake-service/pkg/util"
)

func TestBlacklistStore_BlockUnblock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blacklist.json")
	s, err := NewBlacklistStore(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	ctx := context.Background()

	if s.IsBlocked(ctx, 99) {
		t.Fatalf("fresh store should not block anyone")
	}
	if err := s.Block(ctx, 99, "spammer"); err != nil {
		t.Fatalf("block: %v", err)
	}
	if !s.IsBlocked(ctx, 99) {
		t.Fatalf("expected submitter 99 blocked")
	}

	if err := s.Block(ctx, 99, "spammer"); !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected conflict on repeated block, got %v", err)
	}

	if err := s.Unblock(ctx, 99); err != nil {
		t.Fatalf("unblock: %v", err)
	}
	if s.IsBlocked(ctx, 99) {
		t.Fatalf("expected submitter 99 unblocked")
	}
	if err := s.Unblock(ctx, 99); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected not found on repeated unblock, got %v", err)
	}
}

func TestBlacklistStore_SurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blacklist.json")
	ctx := context.Background()

	s, err := NewBlacklistStore(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := s.Block(ctx, 5, "banned"); err != nil {
		t.Fatalf("block: %v", err)
	}

	reloaded, err := NewBlacklistStore(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	if !reloaded.IsBlocked(ctx, 5) {
		t.Fatalf("block did not survive reload")
	}
	entries := reloaded.Entries(ctx)
	if len(entries) != 1 || entries[0].SubmitterHandle != "banned" {
		t.Fatalf("unexpected entries after reload: %+v", entries)
	}
}

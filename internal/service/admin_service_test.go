package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spec-kit/intake-service/internal/domain"
	apperrors "github.com/spec-kit/intake-service/pkg/util"
)

func TestAcceptRemovesTicketAndAnnounces(t *testing.T) {
	f := newFixture(t, defaultIntakeConfig())
	ctx := context.Background()

	ticket, err := f.intake.Submit(ctx, submission(7))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	before := len(f.transport.sent)

	if err := f.admin.Apply(ctx, testAdminID, domain.AcceptAction{TicketID: ticket.ID}); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	if _, err := f.tickets.GetTicket(ctx, ticket.ID); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("resolved ticket lookup err = %v, want not found", err)
	}

	// Outcome goes to origin channel and submitter.
	announced := f.transport.sent[before:]
	if len(announced) != 2 {
		t.Fatalf("resolution messages = %d, want 2", len(announced))
	}
	for _, msg := range announced {
		if !strings.Contains(msg.Text, "accepted") {
			t.Fatalf("resolution text = %q, want acceptance wording", msg.Text)
		}
	}
	// The tracked admin panel message is edited in place.
	if len(f.transport.edits) != 1 {
		t.Fatalf("panel edits = %d, want 1", len(f.transport.edits))
	}
	if f.transport.edits[0].ChannelID != testAdminGroup {
		t.Fatalf("panel edit channel = %d, want %d", f.transport.edits[0].ChannelID, testAdminGroup)
	}
	if !strings.Contains(f.transport.edits[0].Text, "accepted") {
		t.Fatalf("panel edit text = %q", f.transport.edits[0].Text)
	}
}

func TestResolutionIsTerminal(t *testing.T) {
	f := newFixture(t, defaultIntakeConfig())
	ctx := context.Background()

	ticket, err := f.intake.Submit(ctx, submission(7))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := f.admin.Apply(ctx, testAdminID, domain.DenyAction{TicketID: ticket.ID}); err != nil {
		t.Fatalf("Deny: %v", err)
	}

	// Any further action on the resolved ticket fails with not-found.
	actions := []domain.AdminAction{
		domain.AcceptAction{TicketID: ticket.ID},
		domain.DenyAction{TicketID: ticket.ID},
		domain.PrioritizeAction{TicketID: ticket.ID},
		domain.ReplyAction{TicketID: ticket.ID, Text: "still there?"},
	}
	for _, action := range actions {
		if err := f.admin.Apply(ctx, testAdminID, action); !apperrors.HasCode(err, apperrors.CodeNotFound) {
			t.Fatalf("%T on resolved ticket err = %v, want not found", action, err)
		}
	}
}

func TestPrioritizeIsIdempotent(t *testing.T) {
	f := newFixture(t, defaultIntakeConfig())
	ctx := context.Background()

	ticket, err := f.intake.Submit(ctx, submission(7))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	before := len(f.transport.sent)

	if err := f.admin.Prioritize(ctx, testAdminID, ticket.ID); err != nil {
		t.Fatalf("first Prioritize: %v", err)
	}
	if err := f.admin.Prioritize(ctx, testAdminID, ticket.ID); err != nil {
		t.Fatalf("repeated Prioritize: %v", err)
	}

	got, err := f.tickets.GetTicket(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("GetTicket: %v", err)
	}
	if !got.Priority {
		t.Fatal("ticket not marked priority")
	}
	// Only the first escalation notifies.
	if announced := f.transport.sent[before:]; len(announced) != 1 {
		t.Fatalf("escalation messages = %d, want 1", len(announced))
	}
}

func TestReplyForwardsTextWithoutMutatingTicket(t *testing.T) {
	f := newFixture(t, defaultIntakeConfig())
	ctx := context.Background()

	ticket, err := f.intake.Submit(ctx, submission(7))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	snapshotBefore, err := f.tickets.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	before := len(f.transport.sent)

	if err := f.admin.Apply(ctx, testAdminID, domain.ReplyAction{TicketID: ticket.ID, Text: "checking availability"}); err != nil {
		t.Fatalf("Reply: %v", err)
	}

	replies := f.transport.sent[before:]
	if len(replies) != 1 {
		t.Fatalf("reply messages = %d, want 1", len(replies))
	}
	if replies[0].ChannelID != ticket.OriginChannelID {
		t.Fatalf("reply channel = %d, want %d", replies[0].ChannelID, ticket.OriginChannelID)
	}
	if !strings.Contains(replies[0].Text, "checking availability") {
		t.Fatalf("reply text = %q", replies[0].Text)
	}

	snapshotAfter, err := f.tickets.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if !bytes.Equal(snapshotBefore, snapshotAfter) {
		t.Fatal("reply mutated persisted ticket state")
	}

	if err := f.admin.Reply(ctx, testAdminID, ticket.ID, ""); !apperrors.HasCode(err, apperrors.CodeValidationFailed) {
		t.Fatalf("empty reply err = %v, want validation failure", err)
	}
}

func TestUnauthorizedActorCausesNoSideEffects(t *testing.T) {
	f := newFixture(t, defaultIntakeConfig())
	ctx := context.Background()

	ticket, err := f.intake.Submit(ctx, submission(7))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	before := len(f.transport.sent)

	const intruder int64 = 9999
	actions := []domain.AdminAction{
		domain.AcceptAction{TicketID: ticket.ID},
		domain.DenyAction{TicketID: ticket.ID},
		domain.PrioritizeAction{TicketID: ticket.ID},
		domain.ReplyAction{TicketID: ticket.ID, Text: "hi"},
	}
	for _, action := range actions {
		if err := f.admin.Apply(ctx, intruder, action); !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
			t.Fatalf("%T by intruder err = %v, want unauthorized", action, err)
		}
	}
	if err := f.admin.Block(ctx, intruder, 7, "user_7"); !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
		t.Fatalf("Block by intruder err = %v, want unauthorized", err)
	}

	got, err := f.tickets.GetTicket(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("GetTicket: %v", err)
	}
	if got.Priority || got.Status != domain.TicketStatusPending {
		t.Fatalf("ticket changed by unauthorized actor: %+v", got)
	}
	if f.blacklist.IsBlocked(ctx, 7) {
		t.Fatal("blacklist changed by unauthorized actor")
	}
	if len(f.transport.sent) != before {
		t.Fatalf("unauthorized attempts sent %d messages", len(f.transport.sent)-before)
	}
}

func TestBlockUnblockRoundTrip(t *testing.T) {
	f := newFixture(t, defaultIntakeConfig())
	ctx := context.Background()

	if err := f.admin.Block(ctx, testAdminID, 7, "user_7"); err != nil {
		t.Fatalf("Block: %v", err)
	}
	entries, err := f.admin.Blacklist(ctx, testAdminID)
	if err != nil {
		t.Fatalf("Blacklist: %v", err)
	}
	if len(entries) != 1 || entries[0].SubmitterID != 7 {
		t.Fatalf("blacklist entries = %+v, want one entry for 7", entries)
	}
	if err := f.admin.Unblock(ctx, testAdminID, 7); err != nil {
		t.Fatalf("Unblock: %v", err)
	}
	if f.blacklist.IsBlocked(ctx, 7) {
		t.Fatal("submitter still blocked after unblock")
	}
}

func TestStatsAggregatesActiveQueue(t *testing.T) {
	f := newFixture(t, defaultIntakeConfig())
	ctx := context.Background()

	first := submission(7)
	second := submission(8)
	second.OriginChannelID = -43
	second.OriginChannelName = "other"
	third := submission(8)
	third.OriginChannelID = -43
	third.OriginChannelName = "other"

	for _, in := range []SubmitInput{first, second, third} {
		if _, err := f.intake.Submit(ctx, in); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	stats, err := f.admin.Stats(ctx, testAdminID)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 3 {
		t.Fatalf("Total = %d, want 3", stats.Total)
	}
	if stats.ByChannel["requests"] != 1 || stats.ByChannel["other"] != 2 {
		t.Fatalf("ByChannel = %v", stats.ByChannel)
	}
	if len(stats.TopSubmitters) != 2 || stats.TopSubmitters[0].Handle != "user_8" || stats.TopSubmitters[0].Count != 2 {
		t.Fatalf("TopSubmitters = %+v", stats.TopSubmitters)
	}
}

func TestExportMatchesPersistedDocument(t *testing.T) {
	f := newFixture(t, defaultIntakeConfig())
	ctx := context.Background()

	if _, err := f.intake.Submit(ctx, submission(7)); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	exported, err := f.admin.Export(ctx, testAdminID)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	snapshot, err := f.tickets.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if !bytes.Equal(exported, snapshot) {
		t.Fatal("export differs from persisted document")
	}
}

package service

import (
	"strings"
	"testing"
	"time"

	"github.com/spec-kit/intake-service/internal/domain"
	"github.com/spec-kit/intake-service/internal/events"
)

func sampleTicket() domain.Ticket {
	return domain.Ticket{
		ID:                12,
		SubmitterID:       7,
		SubmitterHandle:   "user_7",
		Body:              "please add the requested item",
		OriginChannelID:   -42,
		OriginChannelName: "requests",
		CreatedAt:         time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		Status:            domain.TicketStatusPending,
	}
}

func TestPlanCreatedTargets(t *testing.T) {
	payload := events.TicketCreatedPayload{Ticket: sampleTicket(), Limited: true, Remaining: 1}

	out := PlanCreated(payload, testAdminGroup)
	if len(out) != 3 {
		t.Fatalf("planned messages = %d, want 3", len(out))
	}
	if out[0].ChannelID != -42 || out[0].Panel {
		t.Fatalf("origin message = %+v", out[0])
	}
	if out[1].ChannelID != testAdminGroup || !out[1].Panel {
		t.Fatalf("admin panel message = %+v", out[1])
	}
	if out[2].ChannelID != 7 || !strings.Contains(out[2].Text, "1 requests remaining") {
		t.Fatalf("quota note = %+v", out[2])
	}

	// Exempt submitters get no quota note.
	payload.Limited = false
	out = PlanCreated(payload, testAdminGroup)
	if len(out) != 2 {
		t.Fatalf("planned messages for exempt submitter = %d, want 2", len(out))
	}
}

func TestPlanResolvedWording(t *testing.T) {
	accepted := PlanResolved(events.TicketResolvedPayload{Ticket: sampleTicket(), Outcome: domain.TicketStatusAccepted})
	if len(accepted) != 2 {
		t.Fatalf("accepted messages = %d, want 2", len(accepted))
	}
	if accepted[0].ChannelID != -42 || accepted[1].ChannelID != 7 {
		t.Fatalf("accepted targets = %d, %d", accepted[0].ChannelID, accepted[1].ChannelID)
	}
	for _, msg := range accepted {
		if !strings.Contains(msg.Text, "accepted") {
			t.Fatalf("accepted text = %q", msg.Text)
		}
	}

	denied := PlanResolved(events.TicketResolvedPayload{Ticket: sampleTicket(), Outcome: domain.TicketStatusDenied})
	for _, msg := range denied {
		if !strings.Contains(msg.Text, "not accepted") {
			t.Fatalf("denied text = %q", msg.Text)
		}
	}
}

func TestPlanRepliedForwardsVerbatim(t *testing.T) {
	out := PlanReplied(events.TicketRepliedPayload{Ticket: sampleTicket(), Text: "we are on it"})
	if len(out) != 1 || out[0].ChannelID != -42 {
		t.Fatalf("reply plan = %+v", out)
	}
	if !strings.Contains(out[0].Text, "we are on it") {
		t.Fatalf("reply text = %q", out[0].Text)
	}
}

func TestPlanPrioritizedTargetsOrigin(t *testing.T) {
	out := PlanPrioritized(events.TicketPrioritizedPayload{Ticket: sampleTicket()})
	if len(out) != 1 || out[0].ChannelID != -42 {
		t.Fatalf("escalation plan = %+v", out)
	}
}

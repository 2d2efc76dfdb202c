package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/intake-service/internal/config"
	"github.com/spec-kit/intake-service/internal/events"
	"github.com/spec-kit/intake-service/internal/membership"
	"github.com/spec-kit/intake-service/internal/notify"
	"github.com/spec-kit/intake-service/internal/observability"
	"github.com/spec-kit/intake-service/internal/ratelimit"
	"github.com/spec-kit/intake-service/internal/store"
)

const (
	testAdminID    int64 = 1000
	testAdminGroup int64 = -500
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock(t time.Time) *stepClock {
	return &stepClock{now: t.UTC()}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sentMessage struct {
	ChannelID int64
	MessageID string
	Text      string
}

type fakeTransport struct {
	mu     sync.Mutex
	nextID int
	sent   []sentMessage
	edits  []sentMessage
}

func (f *fakeTransport) Send(ctx context.Context, channelID int64, text string) (notify.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	msg := sentMessage{ChannelID: channelID, MessageID: fmt.Sprintf("m%d", f.nextID), Text: text}
	f.sent = append(f.sent, msg)
	return notify.MessageRef{ChannelID: channelID, MessageID: msg.MessageID}, nil
}

func (f *fakeTransport) Edit(ctx context.Context, ref notify.MessageRef, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, sentMessage{ChannelID: ref.ChannelID, MessageID: ref.MessageID, Text: text})
	return nil
}

func (f *fakeTransport) Delete(ctx context.Context, ref notify.MessageRef) error {
	return nil
}

func (f *fakeTransport) sentTo(channelID int64) []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentMessage
	for _, msg := range f.sent {
		if msg.ChannelID == channelID {
			out = append(out, msg)
		}
	}
	return out
}

type fixture struct {
	clk        *stepClock
	tickets    *store.TicketStore
	blacklist  *store.BlacklistStore
	transport  *fakeTransport
	metrics    *observability.Metrics
	dispatcher events.Dispatcher
	members    membership.Service
	intake     *IntakeService
	admin      *AdminService
}

// intakeWith builds a second intake service over the same stores, as after a
// restart with changed configuration.
func (f *fixture) intakeWith(cfg config.IntakeConfig) *IntakeService {
	return NewIntakeService(cfg, IntakeDependencies{
		TicketStore:    f.tickets,
		BlacklistStore: f.blacklist,
		Limiter:        ratelimit.NewLimiter(f.tickets, f.clk),
		Membership:     f.members,
		Dispatcher:     f.dispatcher,
		Metrics:        f.metrics,
		Clock:          f.clk,
		Logger:         zap.NewNop(),
	})
}

func newFixture(t *testing.T, intakeCfg config.IntakeConfig) *fixture {
	t.Helper()

	clk := newStepClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	dir := t.TempDir()

	tickets, err := store.NewTicketStore(filepath.Join(dir, "tickets.json"), intakeCfg.Retention(), clk)
	if err != nil {
		t.Fatalf("open ticket store: %v", err)
	}
	blacklist, err := store.NewBlacklistStore(filepath.Join(dir, "blacklist.json"))
	if err != nil {
		t.Fatalf("open blacklist store: %v", err)
	}

	transport := &fakeTransport{}
	refs := notify.NewMemoryRefStore(72*time.Hour, clk)
	members := membership.NewStatic([]int64{testAdminID})
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()
	logger := zap.NewNop()

	intake := NewIntakeService(intakeCfg, IntakeDependencies{
		TicketStore:    tickets,
		BlacklistStore: blacklist,
		Limiter:        ratelimit.NewLimiter(tickets, clk),
		Membership:     members,
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		Clock:          clk,
		Logger:         logger,
	})
	admin := NewAdminService(AdminDependencies{
		TicketStore:    tickets,
		BlacklistStore: blacklist,
		Membership:     members,
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		Clock:          clk,
		Logger:         logger,
	})
	NewNotificationService(transport, refs, testAdminGroup, time.Second, logger).RegisterHandlers(dispatcher)

	return &fixture{
		clk:        clk,
		tickets:    tickets,
		blacklist:  blacklist,
		transport:  transport,
		metrics:    metrics,
		dispatcher: dispatcher,
		members:    members,
		intake:     intake,
		admin:      admin,
	}
}

func defaultIntakeConfig() config.IntakeConfig {
	return config.IntakeConfig{
		Limit:         2,
		WindowHours:   24,
		RetentionDays: 30,
	}
}

func submission(submitterID int64) SubmitInput {
	return SubmitInput{
		SubmitterID:       submitterID,
		SubmitterHandle:   fmt.Sprintf("user_%d", submitterID),
		Body:              "please add the requested item",
		OriginChannelID:   -42,
		OriginChannelName: "requests",
	}
}

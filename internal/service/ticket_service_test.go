package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lvdashuaibi/eventpass/internal/artifact"
	"github.com/lvdashuaibi/eventpass/internal/model"
	"github.com/lvdashuaibi/eventpass/internal/repository"
)

// stubCache 永远未命中的缓存
type stubCache struct{}

func (stubCache) GetTicket(string) (*model.Ticket, bool, error) { return nil, false, nil }
func (stubCache) SetTicket(*model.Ticket) error                 { return nil }
func (stubCache) DeleteTicketCache(string) error                { return nil }

// stubArtifacts 记录生成次数，可在第failAt次生成时失败
type stubArtifacts struct {
	generated int
	failAt    int
}

func (a *stubArtifacts) Generate(ticket *model.Ticket) error {
	a.generated++
	if a.failAt > 0 && a.generated >= a.failAt {
		return fmt.Errorf("%w: renderer exploded", model.ErrArtifactGeneration)
	}
	return nil
}

func (a *stubArtifacts) Path(ticketID string, kind artifact.Kind) (string, error) {
	return "", model.ErrArtifactNotFound
}

// stubLock 总是成功的本地锁
type stubLock struct{}

func (stubLock) AcquireLock(string, time.Duration) (bool, error) { return true, nil }
func (stubLock) ReleaseLock(string) error                        { return nil }
func (stubLock) ReleaseAllLocks()                                {}
func (stubLock) Close() error                                    { return nil }

type stubProducer struct {
	err    error
	events []*model.CheckinEvent
}

func (p *stubProducer) SendCheckinEvent(event *model.CheckinEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

type stubLogStore struct {
	logs []*model.CheckinLog
}

func (s *stubLogStore) SaveCheckinLog(checkinLog *model.CheckinLog) error {
	s.logs = append(s.logs, checkinLog)
	return nil
}

type serviceFixture struct {
	svc       *TicketService
	store     *repository.MemoryRepository
	artifacts *stubArtifacts
	producer  *stubProducer
	logs      *stubLogStore
}

func newFixture() *serviceFixture {
	store := repository.NewMemoryRepository()
	artifacts := &stubArtifacts{}
	producer := &stubProducer{}
	logs := &stubLogStore{}
	svc := NewTicketService(store, stubCache{}, artifacts, stubLock{}, producer, logs, 1)
	return &serviceFixture{svc: svc, store: store, artifacts: artifacts, producer: producer, logs: logs}
}

func TestIssueTickets(t *testing.T) {
	t.Parallel()

	f := newFixture()
	tickets, err := f.svc.IssueTickets("Bob", "General", 3)
	if err != nil {
		t.Fatalf("IssueTickets: %v", err)
	}
	if len(tickets) != 3 {
		t.Fatalf("expected 3 tickets, got %d", len(tickets))
	}

	seen := make(map[string]bool)
	for _, ticket := range tickets {
		if ticket.Status != model.StatusValid {
			t.Fatalf("expected initial status valid, got %s", ticket.Status)
		}
		if ticket.Name != "Bob" || ticket.Type != "General" {
			t.Fatalf("unexpected ticket fields: %+v", ticket)
		}
		if seen[ticket.TicketID] {
			t.Fatalf("duplicate ticket id %s", ticket.TicketID)
		}
		seen[ticket.TicketID] = true
	}

	if f.artifacts.generated != 3 {
		t.Fatalf("expected 3 artifact generations, got %d", f.artifacts.generated)
	}

	all, err := f.svc.ListTickets()
	if err != nil {
		t.Fatalf("ListTickets: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected all 3 tickets listed, got %d", len(all))
	}
	// 返回顺序与签发顺序一致
	for i, ticket := range all {
		if ticket.TicketID != tickets[i].TicketID {
			t.Fatalf("listing order differs from issuance order at %d", i)
		}
	}
}

func TestIssueTicketsValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		attendee   string
		ticketType string
		quantity   int
	}{
		{"missing name", "", "VIP", 1},
		{"blank name", "   ", "VIP", 1},
		{"missing type", "Alice", "", 1},
		{"zero quantity", "Alice", "VIP", 0},
		{"negative quantity", "Alice", "VIP", -2},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture()

			_, err := f.svc.IssueTickets(tt.attendee, tt.ticketType, tt.quantity)
			if !errors.Is(err, model.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}

			// 校验失败不得产生任何票据和附件
			if f.artifacts.generated != 0 {
				t.Fatalf("artifacts generated on invalid input: %d", f.artifacts.generated)
			}
			all, _ := f.svc.ListTickets()
			if len(all) != 0 {
				t.Fatalf("tickets created on invalid input: %d", len(all))
			}
		})
	}
}

func TestIssueTicketsArtifactFailureAbortsBatch(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.artifacts.failAt = 2

	_, err := f.svc.IssueTickets("Alice", "VIP", 3)
	if !errors.Is(err, model.ErrArtifactGeneration) {
		t.Fatalf("expected ErrArtifactGeneration, got %v", err)
	}

	// 第一张票已持久化，不回滚；第二张之后不再签发
	all, _ := f.svc.ListTickets()
	if len(all) != 1 {
		t.Fatalf("expected 1 persisted ticket after abort, got %d", len(all))
	}
}

func TestCheckInLifecycle(t *testing.T) {
	t.Parallel()

	f := newFixture()
	tickets, err := f.svc.IssueTickets("Alice", "VIP", 1)
	if err != nil {
		t.Fatalf("IssueTickets: %v", err)
	}
	id := tickets[0].TicketID

	checked, err := f.svc.CheckIn(id)
	if err != nil {
		t.Fatalf("first CheckIn: %v", err)
	}
	if checked.Status != model.StatusCheckedIn {
		t.Fatalf("expected checked-in, got %s", checked.Status)
	}
	if len(f.producer.events) != 1 || f.producer.events[0].TicketID != id {
		t.Fatalf("expected one checkin event for %s, got %+v", id, f.producer.events)
	}

	// 重复检票失败且状态不变
	_, err = f.svc.CheckIn(id)
	already, ok := model.IsAlreadyCheckedIn(err)
	if !ok {
		t.Fatalf("expected AlreadyCheckedInError, got %v", err)
	}
	if already.Ticket.TicketID != id {
		t.Fatalf("snapshot carries wrong ticket: %+v", already.Ticket)
	}

	result, err := f.svc.ValidateTicket(id)
	if err != nil {
		t.Fatalf("ValidateTicket: %v", err)
	}
	if result.Valid || !result.AlreadyCheckedIn {
		t.Fatalf("expected {valid:false alreadyCheckedIn:true}, got %+v", result)
	}
}

func TestCheckInUnknownTicket(t *testing.T) {
	t.Parallel()

	f := newFixture()
	if _, err := f.svc.CheckIn("no-such-ticket"); !errors.Is(err, model.ErrTicketNotFound) {
		t.Fatalf("expected ErrTicketNotFound, got %v", err)
	}
}

func TestCheckInFallsBackToSyncAuditLog(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.producer.err = errors.New("kafka down")

	tickets, err := f.svc.IssueTickets("Alice", "VIP", 1)
	if err != nil {
		t.Fatalf("IssueTickets: %v", err)
	}

	if _, err := f.svc.CheckIn(tickets[0].TicketID); err != nil {
		t.Fatalf("CheckIn: %v", err)
	}

	// 事件发送失败时审计日志同步落库
	if len(f.logs.logs) != 1 || f.logs.logs[0].TicketID != tickets[0].TicketID {
		t.Fatalf("expected synchronous audit log, got %+v", f.logs.logs)
	}
}

func TestValidateTicketNeverMutates(t *testing.T) {
	t.Parallel()

	f := newFixture()
	tickets, err := f.svc.IssueTickets("Alice", "VIP", 1)
	if err != nil {
		t.Fatalf("IssueTickets: %v", err)
	}
	id := tickets[0].TicketID

	for i := 0; i < 3; i++ {
		result, err := f.svc.ValidateTicket(id)
		if err != nil {
			t.Fatalf("ValidateTicket #%d: %v", i, err)
		}
		if !result.Valid || result.AlreadyCheckedIn {
			t.Fatalf("validation mutated state on call %d: %+v", i, result)
		}
	}

	if _, err := f.svc.ValidateTicket("no-such-ticket"); !errors.Is(err, model.ErrTicketNotFound) {
		t.Fatalf("expected ErrTicketNotFound, got %v", err)
	}
}

func TestProcessCheckinEvent(t *testing.T) {
	t.Parallel()

	f := newFixture()
	event := &model.CheckinEvent{TicketID: "t-1", CheckedAt: time.Now(), InstanceID: 2}
	if err := f.svc.ProcessCheckinEvent(event); err != nil {
		t.Fatalf("ProcessCheckinEvent: %v", err)
	}
	if len(f.logs.logs) != 1 || f.logs.logs[0].TicketID != "t-1" {
		t.Fatalf("expected audit log row, got %+v", f.logs.logs)
	}
}

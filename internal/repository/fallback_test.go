package repository

import (
	"errors"
	"testing"

	"github.com/lvdashuaibi/eventpass/internal/model"
)

// failingStore 模拟主存储不可用
type failingStore struct {
	err error
}

func (s *failingStore) CreateTicket(*model.Ticket) error { return s.err }
func (s *failingStore) GetTicket(string) (*model.Ticket, error) {
	return nil, s.err
}
func (s *failingStore) GetAllTickets() ([]*model.Ticket, error) { return nil, s.err }
func (s *failingStore) UpdateTicket(*model.Ticket) error        { return s.err }
func (s *failingStore) CheckInTicket(string) (*model.Ticket, error) {
	return nil, s.err
}

func TestFallbackUsedOnInfrastructureError(t *testing.T) {
	t.Parallel()

	primary := &failingStore{err: errors.New("connection refused")}
	fallback := NewMemoryRepository()
	store := NewFallbackRepository(primary, fallback)

	ticket := newTestTicket("t-1")
	if err := store.CreateTicket(ticket); err != nil {
		t.Fatalf("CreateTicket should fall back, got %v", err)
	}

	// 后备存储的结果对本次调用即为权威结果
	got, err := store.GetTicket("t-1")
	if err != nil {
		t.Fatalf("GetTicket should fall back, got %v", err)
	}
	if got.TicketID != "t-1" {
		t.Fatalf("unexpected ticket %+v", got)
	}

	all, err := store.GetAllTickets()
	if err != nil || len(all) != 1 {
		t.Fatalf("GetAllTickets via fallback: tickets=%v err=%v", all, err)
	}

	checked, err := store.CheckInTicket("t-1")
	if err != nil {
		t.Fatalf("CheckInTicket should fall back, got %v", err)
	}
	if checked.Status != model.StatusCheckedIn {
		t.Fatalf("expected checked-in, got %s", checked.Status)
	}
}

func TestDomainErrorsPassThroughWithoutFallback(t *testing.T) {
	t.Parallel()

	// 主存储正常应答"票据不存在"时不得改用后备存储
	primary := &failingStore{err: model.ErrTicketNotFound}
	fallback := NewMemoryRepository()
	if err := fallback.CreateTicket(newTestTicket("t-1")); err != nil {
		t.Fatalf("seed fallback: %v", err)
	}

	store := NewFallbackRepository(primary, fallback)

	if _, err := store.GetTicket("t-1"); !errors.Is(err, model.ErrTicketNotFound) {
		t.Fatalf("expected ErrTicketNotFound passthrough, got %v", err)
	}
	if _, err := store.CheckInTicket("t-1"); !errors.Is(err, model.ErrTicketNotFound) {
		t.Fatalf("expected ErrTicketNotFound passthrough, got %v", err)
	}
}

func TestFallbackPassesAlreadyCheckedInThrough(t *testing.T) {
	t.Parallel()

	snapshot := newTestTicket("t-1")
	snapshot.Status = model.StatusCheckedIn
	primary := &failingStore{err: &model.AlreadyCheckedInError{Ticket: snapshot}}
	store := NewFallbackRepository(primary, NewMemoryRepository())

	_, err := store.CheckInTicket("t-1")
	already, ok := model.IsAlreadyCheckedIn(err)
	if !ok {
		t.Fatalf("expected AlreadyCheckedInError passthrough, got %v", err)
	}
	if already.Ticket.TicketID != "t-1" {
		t.Fatalf("unexpected snapshot %+v", already.Ticket)
	}
}

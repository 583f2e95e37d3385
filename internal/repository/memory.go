package repository

import (
	"sync"

	"github.com/lvdashuaibi/eventpass/internal/model"
)

// MemoryRepository 进程内票据存储，作为主存储不可用时的后备。
// 后备数据不会回写主存储。
type MemoryRepository struct {
	mu      sync.RWMutex
	tickets map[string]*model.Ticket
	order   []string // 保持插入顺序
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		tickets: make(map[string]*model.Ticket),
	}
}

// CreateTicket 保存新票据
func (r *MemoryRepository) CreateTicket(ticket *model.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tickets[ticket.TicketID]; !exists {
		r.order = append(r.order, ticket.TicketID)
	}
	copied := *ticket
	r.tickets[ticket.TicketID] = &copied
	return nil
}

// GetTicket 按票据ID查询票据
func (r *MemoryRepository) GetTicket(ticketID string) (*model.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ticket, exists := r.tickets[ticketID]
	if !exists {
		return nil, model.ErrTicketNotFound
	}

	copied := *ticket
	return &copied, nil
}

// GetAllTickets 按插入顺序查询所有票据
func (r *MemoryRepository) GetAllTickets() ([]*model.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tickets := make([]*model.Ticket, 0, len(r.order))
	for _, id := range r.order {
		copied := *r.tickets[id]
		tickets = append(tickets, &copied)
	}
	return tickets, nil
}

// UpdateTicket 更新已存在的票据
func (r *MemoryRepository) UpdateTicket(ticket *model.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tickets[ticket.TicketID]; !exists {
		return model.ErrTicketNotFound
	}

	copied := *ticket
	r.tickets[ticket.TicketID] = &copied
	return nil
}

// CheckInTicket 原子地将票据状态置为 checked-in
func (r *MemoryRepository) CheckInTicket(ticketID string) (*model.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, exists := r.tickets[ticketID]
	if !exists {
		return nil, model.ErrTicketNotFound
	}

	if ticket.Status == model.StatusCheckedIn {
		snapshot := *ticket
		return nil, &model.AlreadyCheckedInError{Ticket: &snapshot}
	}

	ticket.Status = model.StatusCheckedIn
	copied := *ticket
	return &copied, nil
}

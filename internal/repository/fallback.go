package repository

import (
	"errors"
	"log"

	"github.com/lvdashuaibi/eventpass/internal/model"
)

// FallbackRepository 双后端票据存储。主存储（MySQL）出现基础设施错误时，
// 同一逻辑操作会在进程内后备存储上重试，其结果对本次调用即为权威结果。
// 两个后端之间不做对账：主存储故障期间写入后备的票据在主存储恢复后
// 对其不可见，这是已知的一致性缺口。
type FallbackRepository struct {
	primary  TicketStore
	fallback TicketStore
}

func NewFallbackRepository(primary, fallback TicketStore) *FallbackRepository {
	return &FallbackRepository{
		primary:  primary,
		fallback: fallback,
	}
}

// isDomainError 区分业务错误与基础设施错误。
// 业务错误（票据不存在、重复检票）直接透传，不触发后备存储。
func isDomainError(err error) bool {
	if errors.Is(err, model.ErrTicketNotFound) {
		return true
	}
	if _, ok := model.IsAlreadyCheckedIn(err); ok {
		return true
	}
	return false
}

// CreateTicket 保存新票据，主存储失败时写入后备存储
func (r *FallbackRepository) CreateTicket(ticket *model.Ticket) error {
	err := r.primary.CreateTicket(ticket)
	if err == nil || isDomainError(err) {
		return err
	}

	log.Printf("主存储保存票据 %s 失败: %v，改用后备存储", ticket.TicketID, err)
	return r.fallback.CreateTicket(ticket)
}

// GetTicket 按票据ID查询票据，主存储失败时查询后备存储
func (r *FallbackRepository) GetTicket(ticketID string) (*model.Ticket, error) {
	ticket, err := r.primary.GetTicket(ticketID)
	if err == nil || isDomainError(err) {
		return ticket, err
	}

	log.Printf("主存储查询票据 %s 失败: %v，改用后备存储", ticketID, err)
	return r.fallback.GetTicket(ticketID)
}

// GetAllTickets 查询所有票据，主存储失败时查询后备存储
func (r *FallbackRepository) GetAllTickets() ([]*model.Ticket, error) {
	tickets, err := r.primary.GetAllTickets()
	if err == nil {
		return tickets, nil
	}

	log.Printf("主存储查询所有票据失败: %v，改用后备存储", err)
	return r.fallback.GetAllTickets()
}

// UpdateTicket 更新票据，主存储失败时更新后备存储
func (r *FallbackRepository) UpdateTicket(ticket *model.Ticket) error {
	err := r.primary.UpdateTicket(ticket)
	if err == nil || isDomainError(err) {
		return err
	}

	log.Printf("主存储更新票据 %s 失败: %v，改用后备存储", ticket.TicketID, err)
	return r.fallback.UpdateTicket(ticket)
}

// CheckInTicket 检票，主存储失败时在后备存储上执行
func (r *FallbackRepository) CheckInTicket(ticketID string) (*model.Ticket, error) {
	ticket, err := r.primary.CheckInTicket(ticketID)
	if err == nil || isDomainError(err) {
		return ticket, err
	}

	log.Printf("主存储检票 %s 失败: %v，改用后备存储", ticketID, err)
	return r.fallback.CheckInTicket(ticketID)
}

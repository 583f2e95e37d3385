package repository

import (
	"github.com/lvdashuaibi/eventpass/internal/model"
)

// TicketStore 票据存储接口
type TicketStore interface {
	// CreateTicket 保存新票据
	CreateTicket(ticket *model.Ticket) error

	// GetTicket 按票据ID查询票据，不存在时返回 model.ErrTicketNotFound
	GetTicket(ticketID string) (*model.Ticket, error)

	// GetAllTickets 查询所有票据，按插入顺序返回
	GetAllTickets() ([]*model.Ticket, error)

	// UpdateTicket 更新已存在的票据，不存在时返回 model.ErrTicketNotFound
	UpdateTicket(ticket *model.Ticket) error

	// CheckInTicket 原子地将票据状态从 valid 置为 checked-in。
	// 票据不存在时返回 model.ErrTicketNotFound；
	// 已检票时返回携带快照的 model.AlreadyCheckedInError。
	CheckInTicket(ticketID string) (*model.Ticket, error)
}

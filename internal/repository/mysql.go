package repository

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/lvdashuaibi/eventpass/config"
	"github.com/lvdashuaibi/eventpass/internal/model"
)

type MySQLRepository struct {
	masterDB *sql.DB
	slaveDB  *sql.DB
}

func NewMySQLRepository() (*MySQLRepository, error) {
	masterDB, err := sql.Open("mysql", config.AppConfig.MySQL.Master)
	if err != nil {
		return nil, fmt.Errorf("连接主数据库失败: %w", err)
	}

	masterDB.SetMaxOpenConns(config.AppConfig.MySQL.MaxOpenConns)
	masterDB.SetMaxIdleConns(config.AppConfig.MySQL.MaxIdleConns)
	masterDB.SetConnMaxLifetime(time.Hour)

	if err = masterDB.Ping(); err != nil {
		return nil, fmt.Errorf("主数据库连接测试失败: %w", err)
	}

	slaveDB, err := sql.Open("mysql", config.AppConfig.MySQL.Slave)
	if err != nil {
		return nil, fmt.Errorf("连接从数据库失败: %w", err)
	}

	slaveDB.SetMaxOpenConns(config.AppConfig.MySQL.MaxOpenConns)
	slaveDB.SetMaxIdleConns(config.AppConfig.MySQL.MaxIdleConns)
	slaveDB.SetConnMaxLifetime(time.Hour)

	if err = slaveDB.Ping(); err != nil {
		log.Printf("从数据库连接测试失败: %v，将使用主数据库代替", err)
		slaveDB = masterDB
	}

	return &MySQLRepository{
		masterDB: masterDB,
		slaveDB:  slaveDB,
	}, nil
}

// CreateTicket 保存新票据
func (r *MySQLRepository) CreateTicket(ticket *model.Ticket) error {
	query := "INSERT INTO tickets (ticket_id, name, type, status, created_at) VALUES (?, ?, ?, ?, ?)"
	_, err := r.masterDB.Exec(query,
		ticket.TicketID,
		ticket.Name,
		ticket.Type,
		ticket.Status,
		ticket.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("保存票据失败: %w", err)
	}
	return nil
}

// GetTicket 按票据ID查询票据
func (r *MySQLRepository) GetTicket(ticketID string) (*model.Ticket, error) {
	query := "SELECT ticket_id, name, type, status, created_at FROM tickets WHERE ticket_id = ?"
	row := r.slaveDB.QueryRow(query, ticketID)

	var ticket model.Ticket
	err := row.Scan(&ticket.TicketID, &ticket.Name, &ticket.Type, &ticket.Status, &ticket.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrTicketNotFound
		}
		return nil, fmt.Errorf("查询票据失败: %w", err)
	}

	return &ticket, nil
}

// GetAllTickets 查询所有票据
func (r *MySQLRepository) GetAllTickets() ([]*model.Ticket, error) {
	query := "SELECT ticket_id, name, type, status, created_at FROM tickets ORDER BY created_at, ticket_id"
	rows, err := r.slaveDB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("查询所有票据失败: %w", err)
	}
	defer rows.Close()

	var tickets []*model.Ticket
	for rows.Next() {
		var ticket model.Ticket
		if err := rows.Scan(&ticket.TicketID, &ticket.Name, &ticket.Type, &ticket.Status, &ticket.CreatedAt); err != nil {
			return nil, fmt.Errorf("扫描票据失败: %w", err)
		}
		tickets = append(tickets, &ticket)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("迭代票据失败: %w", err)
	}

	return tickets, nil
}

// UpdateTicket 更新已存在的票据
func (r *MySQLRepository) UpdateTicket(ticket *model.Ticket) error {
	query := "UPDATE tickets SET name = ?, type = ?, status = ? WHERE ticket_id = ?"
	result, err := r.masterDB.Exec(query,
		ticket.Name,
		ticket.Type,
		ticket.Status,
		ticket.TicketID,
	)
	if err != nil {
		return fmt.Errorf("更新票据失败: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("获取更新结果失败: %w", err)
	}
	if rowsAffected == 0 {
		return model.ErrTicketNotFound
	}

	return nil
}

// CheckInTicket 原子地将票据状态置为 checked-in
func (r *MySQLRepository) CheckInTicket(ticketID string) (*model.Ticket, error) {
	tx, err := r.masterDB.Begin()
	if err != nil {
		return nil, fmt.Errorf("开始事务失败: %w", err)
	}

	// 行锁内读取当前状态
	var ticket model.Ticket
	query := "SELECT ticket_id, name, type, status, created_at FROM tickets WHERE ticket_id = ? FOR UPDATE"
	err = tx.QueryRow(query, ticketID).Scan(&ticket.TicketID, &ticket.Name, &ticket.Type, &ticket.Status, &ticket.CreatedAt)
	if err != nil {
		tx.Rollback()
		if err == sql.ErrNoRows {
			return nil, model.ErrTicketNotFound
		}
		return nil, fmt.Errorf("查询票据状态失败: %w", err)
	}

	if ticket.Status == model.StatusCheckedIn {
		tx.Rollback()
		return nil, &model.AlreadyCheckedInError{Ticket: &ticket}
	}

	// 条件更新，仅当状态仍为 valid 时生效
	updateQuery := "UPDATE tickets SET status = ? WHERE ticket_id = ? AND status = ?"
	result, err := tx.Exec(updateQuery, model.StatusCheckedIn, ticketID, model.StatusValid)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("更新票据状态失败: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("获取更新结果失败: %w", err)
	}
	if rowsAffected == 0 {
		tx.Rollback()
		return nil, &model.AlreadyCheckedInError{Ticket: &ticket}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("提交事务失败: %w", err)
	}

	ticket.Status = model.StatusCheckedIn
	return &ticket, nil
}

// SaveCheckinLog 写入检票审计日志
func (r *MySQLRepository) SaveCheckinLog(checkinLog *model.CheckinLog) error {
	query := "INSERT INTO checkin_logs (ticket_id, checked_at) VALUES (?, ?)"
	_, err := r.masterDB.Exec(query, checkinLog.TicketID, checkinLog.CheckedAt)
	if err != nil {
		return fmt.Errorf("保存检票日志失败: %w", err)
	}
	return nil
}

// Close 关闭数据库连接
func (r *MySQLRepository) Close() {
	if r.masterDB != nil {
		r.masterDB.Close()
	}
	if r.slaveDB != nil && r.slaveDB != r.masterDB {
		r.slaveDB.Close()
	}
}

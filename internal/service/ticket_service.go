package service

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lvdashuaibi/eventpass/config"
	"github.com/lvdashuaibi/eventpass/internal/artifact"
	"github.com/lvdashuaibi/eventpass/internal/lock"
	"github.com/lvdashuaibi/eventpass/internal/model"
	"github.com/lvdashuaibi/eventpass/internal/repository"
)

// TicketCache 票据读缓存
type TicketCache interface {
	GetTicket(ticketID string) (*model.Ticket, bool, error)
	SetTicket(ticket *model.Ticket) error
	DeleteTicketCache(ticketID string) error
}

// ArtifactGenerator 票据附件生成器
type ArtifactGenerator interface {
	Generate(ticket *model.Ticket) error
	Path(ticketID string, kind artifact.Kind) (string, error)
}

// EventProducer 检票事件生产者
type EventProducer interface {
	SendCheckinEvent(event *model.CheckinEvent) error
}

// CheckinLogStore 检票审计日志存储
type CheckinLogStore interface {
	SaveCheckinLog(checkinLog *model.CheckinLog) error
}

type TicketService struct {
	store       repository.TicketStore
	cache       TicketCache
	artifacts   ArtifactGenerator
	locker      lock.Lock
	producer    EventProducer
	checkinLogs CheckinLogStore
	instanceID  int
}

func NewTicketService(
	store repository.TicketStore,
	cache TicketCache,
	artifacts ArtifactGenerator,
	locker lock.Lock,
	producer EventProducer,
	checkinLogs CheckinLogStore,
	instanceID int,
) *TicketService {
	return &TicketService{
		store:       store,
		cache:       cache,
		artifacts:   artifacts,
		locker:      locker,
		producer:    producer,
		checkinLogs: checkinLogs,
		instanceID:  instanceID,
	}
}

// IssueTickets 批量签发票据。每张票据独立生成ID和附件，签发顺序即返回顺序。
// 任一附件生成失败会中止整个请求，已签发的票据不回滚。
func (s *TicketService) IssueTickets(name, ticketType string, quantity int) ([]*model.Ticket, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: 持票人姓名不能为空", model.ErrValidation)
	}
	if strings.TrimSpace(ticketType) == "" {
		return nil, fmt.Errorf("%w: 票种不能为空", model.ErrValidation)
	}
	if quantity < 1 {
		return nil, fmt.Errorf("%w: 签发数量必须大于等于1", model.ErrValidation)
	}

	tickets := make([]*model.Ticket, 0, quantity)
	for i := 0; i < quantity; i++ {
		ticket := &model.Ticket{
			TicketID:  uuid.NewString(),
			Name:      name,
			Type:      ticketType,
			Status:    model.StatusValid,
			CreatedAt: time.Now(),
		}

		// 附件在持久化之前同步生成，保证每张已保存的票据都有二维码和PDF
		if err := s.artifacts.Generate(ticket); err != nil {
			return nil, err
		}

		if err := s.store.CreateTicket(ticket); err != nil {
			return nil, fmt.Errorf("保存票据 %s 失败: %w", ticket.TicketID, err)
		}

		if err := s.cache.SetTicket(ticket); err != nil {
			log.Printf("写入票据 %s 缓存失败: %v", ticket.TicketID, err)
		}

		tickets = append(tickets, ticket)
	}

	return tickets, nil
}

// ListTickets 查询所有票据
func (s *TicketService) ListTickets() ([]*model.Ticket, error) {
	return s.store.GetAllTickets()
}

// ArtifactPath 返回票据附件文件路径
func (s *TicketService) ArtifactPath(ticketID string, kind artifact.Kind) (string, error) {
	return s.artifacts.Path(ticketID, kind)
}

// CheckIn 检票。状态转移由存储层的条件更新保证原子性，
// 分布式锁用于在双后端之间收敛同一票据的并发检票请求。
func (s *TicketService) CheckIn(ticketID string) (*model.Ticket, error) {
	lockName := repository.CheckinLockKey + ticketID
	acquired, err := s.locker.AcquireLock(lockName, config.AppConfig.Checkin.LockTimeout)
	if err != nil {
		log.Printf("获取票据 %s 检票锁失败: %v，依赖存储层条件更新", ticketID, err)
	}
	if acquired {
		defer s.locker.ReleaseLock(lockName)
	}

	ticket, err := s.store.CheckInTicket(ticketID)
	if err != nil {
		return nil, err
	}

	// 清除缓存，确保校验读取到最新状态
	if err := s.cache.DeleteTicketCache(ticketID); err != nil {
		log.Printf("删除票据 %s 缓存失败: %v", ticketID, err)
	}

	event := &model.CheckinEvent{
		TicketID:   ticketID,
		CheckedAt:  time.Now(),
		InstanceID: s.instanceID,
	}

	if err := s.producer.SendCheckinEvent(event); err != nil {
		log.Printf("发送检票事件到Kafka失败: %v", err)
		// 消息发送失败时直接落库，保证审计日志不丢失
		if err := s.ProcessCheckinEvent(event); err != nil {
			log.Printf("同步写入检票日志失败: %v", err)
		}
	}

	return ticket, nil
}

// ValidateTicket 只读校验票据状态，不改变票据
func (s *TicketService) ValidateTicket(ticketID string) (*model.ValidateResult, error) {
	// 先从缓存获取
	ticket, found, err := s.cache.GetTicket(ticketID)
	if err != nil {
		log.Printf("获取票据 %s 缓存失败: %v", ticketID, err)
	}

	if !found || ticket == nil {
		// 缓存未命中，从存储获取
		ticket, err = s.store.GetTicket(ticketID)
		if err != nil {
			return nil, err
		}

		// 更新缓存
		if err := s.cache.SetTicket(ticket); err != nil {
			log.Printf("写入票据 %s 缓存失败: %v", ticketID, err)
		}
	}

	return &model.ValidateResult{
		Valid:            ticket.Status == model.StatusValid,
		AlreadyCheckedIn: ticket.Status == model.StatusCheckedIn,
		Ticket:           ticket,
	}, nil
}

// ProcessCheckinEvent 处理检票事件（消费者使用）
func (s *TicketService) ProcessCheckinEvent(event *model.CheckinEvent) error {
	checkinLog := &model.CheckinLog{
		TicketID:  event.TicketID,
		CheckedAt: event.CheckedAt,
	}

	if err := s.checkinLogs.SaveCheckinLog(checkinLog); err != nil {
		return fmt.Errorf("处理检票事件写入日志失败: %w", err)
	}

	return nil
}

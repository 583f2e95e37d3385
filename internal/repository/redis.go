package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/lvdashuaibi/eventpass/config"
	"github.com/lvdashuaibi/eventpass/internal/model"
)

const (
	// Redis键前缀
	TicketKey      = "ticket:"
	CheckinLockKey = "checkin:lock:"

	// 票据缓存有效期
	TicketCacheTTL = time.Hour
)

type RedisRepository struct {
	client *redis.Client
	ctx    context.Context
}

func NewRedisRepository() (*RedisRepository, error) {
	ctx := context.Background()

	// 创建Redis客户端（普通客户端，用于票据缓存）
	client := redis.NewClient(&redis.Options{
		Addr:         config.AppConfig.Redis.DataAddress,
		Password:     config.AppConfig.Redis.Password,
		DB:           config.AppConfig.Redis.DB,
		PoolSize:     config.AppConfig.Redis.PoolSize,
		MaxRetries:   config.AppConfig.Redis.MaxRetries,
		DialTimeout:  config.AppConfig.Redis.Timeout,
		ReadTimeout:  config.AppConfig.Redis.Timeout,
		WriteTimeout: config.AppConfig.Redis.Timeout,
	})

	// 测试连接
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis连接测试失败: %w", err)
	}

	return &RedisRepository{
		client: client,
		ctx:    ctx,
	}, nil
}

// GetTicket 从缓存获取票据，未命中时返回 (nil, false, nil)
func (r *RedisRepository) GetTicket(ticketID string) (*model.Ticket, bool, error) {
	key := TicketKey + ticketID
	data, err := r.client.HGetAll(r.ctx, key).Result()
	if err != nil {
		return nil, false, fmt.Errorf("获取票据缓存失败: %w", err)
	}

	if len(data) == 0 {
		return nil, false, nil // 缓存未命中
	}

	ticket := &model.Ticket{
		TicketID: ticketID,
		Name:     data["name"],
		Type:     data["type"],
		Status:   data["status"],
	}

	// 解析创建时间
	if data["createdAt"] != "" {
		createdAt, err := time.Parse(time.RFC3339, data["createdAt"])
		if err != nil {
			return nil, false, fmt.Errorf("解析票据创建时间失败: %w", err)
		}
		ticket.CreatedAt = createdAt
	}

	return ticket, true, nil
}

// SetTicket 写入票据缓存
func (r *RedisRepository) SetTicket(ticket *model.Ticket) error {
	key := TicketKey + ticket.TicketID

	data := map[string]interface{}{
		"name":      ticket.Name,
		"type":      ticket.Type,
		"status":    ticket.Status,
		"createdAt": ticket.CreatedAt.Format(time.RFC3339),
	}

	// 设置票据缓存，并设置过期时间
	pipe := r.client.Pipeline()
	pipe.HMSet(r.ctx, key, data)
	pipe.Expire(r.ctx, key, TicketCacheTTL)
	_, err := pipe.Exec(r.ctx)
	if err != nil {
		return fmt.Errorf("写入票据缓存失败: %w", err)
	}

	return nil
}

// DeleteTicketCache 删除票据缓存
func (r *RedisRepository) DeleteTicketCache(ticketID string) error {
	key := TicketKey + ticketID
	if err := r.client.Del(r.ctx, key).Err(); err != nil {
		return fmt.Errorf("删除票据 %s 缓存失败: %w", ticketID, err)
	}
	return nil
}

// Close 关闭Redis连接
func (r *RedisRepository) Close() error {
	return r.client.Close()
}

package model

import (
	"time"
)

// 票据状态
const (
	StatusValid     = "valid"
	StatusCheckedIn = "checked-in"
)

// Ticket 票据模型
type Ticket struct {
	TicketID  string    `json:"ticketId"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// IssuedTicket 签发结果，附带下载地址
type IssuedTicket struct {
	Ticket
	QRCodeURL string `json:"qrCodeUrl"`
	PDFURL    string `json:"pdfUrl"`
}

// IssueRequest 批量签发请求
type IssueRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Quantity int    `json:"quantity"`
}

// ValidateResult 票据校验结果（只读，不改变状态）
type ValidateResult struct {
	Valid            bool    `json:"valid"`
	AlreadyCheckedIn bool    `json:"alreadyCheckedIn"`
	Ticket           *Ticket `json:"ticket"`
}

// CheckinEvent Kafka检票事件
type CheckinEvent struct {
	TicketID   string    `json:"ticketId"`
	CheckedAt  time.Time `json:"checkedAt"`
	InstanceID int       `json:"instanceId"`
}

// CheckinLog 检票审计日志
type CheckinLog struct {
	ID        int64     `json:"id"`
	TicketID  string    `json:"ticketId"`
	CheckedAt time.Time `json:"checkedAt"`
}

package model

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("invalid request")
	ErrTicketNotFound     = errors.New("ticket not found")
	ErrArtifactNotFound   = errors.New("artifact not found")
	ErrArtifactGeneration = errors.New("artifact generation failed")
)

// AlreadyCheckedInError 重复检票错误，携带当前票据快照，
// 调用方据此区分"重复入场"和"无效票据"。
type AlreadyCheckedInError struct {
	Ticket *Ticket
}

func (e *AlreadyCheckedInError) Error() string {
	return fmt.Sprintf("票据 %s 已检票入场", e.Ticket.TicketID)
}

// IsAlreadyCheckedIn 判断错误链中是否为重复检票错误
func IsAlreadyCheckedIn(err error) (*AlreadyCheckedInError, bool) {
	var target *AlreadyCheckedInError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

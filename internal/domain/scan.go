package domain

import (
	"time"

	"github.com/google/uuid"
)

// ScanAttempt 表示一次已被接受的扫描提交（输入框非空且 relay 空闲）。
// 生命周期：创建于输入事件，响应处理完（输入框清空）即结束。
type ScanAttempt struct {
	ID        string
	RawUID    string
	StartedAt time.Time
}

// NewScanAttempt 为 rawUID 分配一个新的 attempt ID（同时用作 X-Request-ID）。
func NewScanAttempt(rawUID string, now time.Time) ScanAttempt {
	return ScanAttempt{
		ID:        uuid.NewString(),
		RawUID:    rawUID,
		StartedAt: now,
	}
}

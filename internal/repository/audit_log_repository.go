package repository

import (
	"context"

	"shopcart/internal/domain/model"
)

// 監査ログの絞り込み。nil は条件なし。
type AuditLogFilter struct {
	ResourceType *model.AuditResourceType
	ResourceID   *int64
	Limit        int // 1..200、範囲外は50
	Offset       int
}

type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error

	// 新しい順
	List(ctx context.Context, filter AuditLogFilter) ([]model.AuditLog, error)
}

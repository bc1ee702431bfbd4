package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文はチェックアウトの確定記録。作成後は更新しない。
type Order struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Reference     string          `gorm:"type:varchar(36);not null;uniqueIndex" json:"reference"`
	UserID        int64           `gorm:"not null;index" json:"user_id"`
	Subtotal      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	CartDiscount  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"cart_discount"`
	TotalDiscount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_discount"`
	TotalPayable  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_payable"`
	Notes         []string        `gorm:"type:jsonb;serializer:json" json:"notes"`
	CreatedAt     time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}

package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderItem struct {
	ID           int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID      int64           `gorm:"not null;index" json:"order_id"`
	ProductID    int64           `gorm:"not null;index" json:"product_id"`
	Quantity     int64           `gorm:"not null" json:"quantity"`
	PaidQuantity int64           `gorm:"not null" json:"paid_quantity"`
	UnitPrice    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	Discount     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"discount"`
	FinalPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"final_price"`
	Breakdown    []string        `gorm:"type:jsonb;serializer:json" json:"breakdown"`
	CreatedAt    time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}

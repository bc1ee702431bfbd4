package repository

import (
	"context"

	"shopcart/internal/domain/model"
)

// 注文は追記のみ。更新・削除は約束しない。
type OrderRepository interface {
	Create(ctx context.Context, order model.Order) (model.Order, error)
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
}

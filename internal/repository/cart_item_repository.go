package repository

import (
	"context"

	"shopcart/internal/domain/model"

	"github.com/shopspring/decimal"
)

type CartItemRepository interface {
	ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error)
	// 同一商品は数量を加算（価格スナップショットは最初の追加時のまま）
	UpsertByCartAndProduct(ctx context.Context, cartID int64, productID int64, addQty int64, unitPriceSnapshot decimal.Decimal) error
	// 数量と価格スナップショットを更新
	UpdateQuantity(ctx context.Context, cartID int64, productID int64, qty int64, unitPriceSnapshot decimal.Decimal) error
	DeleteByCartAndProduct(ctx context.Context, cartID int64, productID int64) error
}

package repository

import (
	"context"

	"shopcart/internal/domain/model"
)

type InventoryRepository interface {
	// 在庫が足りるときだけ減算（同じUPDATE文で条件判定する）
	DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error)

	// 調整履歴作成
	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error
}

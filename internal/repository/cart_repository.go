package repository

import (
	"context"
	"time"

	"shopcart/internal/domain/model"
)

type CartRepository interface {
	// ユーザーのカートを行ロック付きで取得し、無ければ作成
	GetOrCreateByUserID(ctx context.Context, userID int64, now time.Time) (model.Cart, error)
	FindByUserID(ctx context.Context, userID int64) (model.Cart, error)
	// 行ロック付き（チェックアウト用）
	FindByUserIDForUpdate(ctx context.Context, userID int64) (model.Cart, error)
	Touch(ctx context.Context, cartID int64, now time.Time) error
	Clear(ctx context.Context, cartID int64) error
}

package repository

import (
	"context"
	"errors"

	"shopcart/internal/domain/model"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
	ErrCacheMiss = errors.New("cache miss")
)

// 商品の参照だけを約束。商品の登録・編集はこのサービスの外。
type ProductRepository interface {
	FindByID(ctx context.Context, id int64) (model.Product, error)
}

// カテゴリは参照のみ。
type CategoryRepository interface {
	FindByID(ctx context.Context, id int64) (model.Category, error)
}

package repository

import (
	"context"
	"time"

	"shopcart/internal/domain/model"
)

// 管理画面の一覧の絞り込み条件。nilは条件なし。
type DiscountRuleFilter struct {
	Type       *model.DiscountType
	Active     *bool
	ProductID  *int64
	CategoryID *int64
}

type DiscountRuleRepository interface {
	Create(ctx context.Context, rule model.DiscountRule) (model.DiscountRule, error)
	FindByID(ctx context.Context, id int64) (model.DiscountRule, error)
	// priority降順、同じなら新しい順
	List(ctx context.Context, filter DiscountRuleFilter) ([]model.DiscountRule, error)
	Update(ctx context.Context, rule model.DiscountRule) error
	Delete(ctx context.Context, id int64) error

	// now時点で評価対象のルール（active・期間内・上限未到達）。priority降順、同じなら新しい順
	ListEligible(ctx context.Context, now time.Time) ([]model.DiscountRule, error)
	// active で上限未到達のルール。期間は見ない。並びは ListEligible と同じ
	ListActive(ctx context.Context) ([]model.DiscountRule, error)

	// 使用回数を n 加算。max_uses を超える場合は加算せず false
	IncrementUsage(ctx context.Context, id int64, n int64) (bool, error)
}

package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountTypeFixedAmount     DiscountType = "FIXED_AMOUNT"
	DiscountTypePercentCategory DiscountType = "PERCENT_CATEGORY"
	DiscountTypePercentProduct  DiscountType = "PERCENT_PRODUCT"
	DiscountTypeBOGO            DiscountType = "BOGO"
	DiscountTypeTwoForOne       DiscountType = "TWO_FOR_ONE"
	DiscountTypeBuyXGetY        DiscountType = "BUY_X_GET_Y"
)

// DiscountTypes は定義済みの割引種別を返す。
func DiscountTypes() []DiscountType {
	return []DiscountType{
		DiscountTypeFixedAmount,
		DiscountTypePercentCategory,
		DiscountTypePercentProduct,
		DiscountTypeBOGO,
		DiscountTypeTwoForOne,
		DiscountTypeBuyXGetY,
	}
}

func (t DiscountType) Valid() bool {
	for _, v := range DiscountTypes() {
		if v == t {
			return true
		}
	}
	return false
}

// 割引ルール。
// 対象は商品かカテゴリのどちらか（両方は不可）。
// current_uses はチェックアウトのトランザクション内でだけ加算する。
type DiscountRule struct {
	ID          int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string       `gorm:"type:varchar(255);not null" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	Type        DiscountType `gorm:"type:varchar(32);not null;index:idx_discount_rules_type_active" json:"type"`

	ProductID  *int64 `gorm:"index" json:"product_id"`
	CategoryID *int64 `gorm:"index" json:"category_id"`

	Percentage  decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"percentage"`
	FixedAmount decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"fixed_amount"`
	BuyQuantity *int64          `json:"buy_quantity"`
	GetQuantity *int64          `json:"get_quantity"`

	MinCartValue decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"min_cart_value"`
	MinQuantity  *int64              `json:"min_quantity"`
	MaxDiscount  decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"max_discount"`

	MaxUses     *int64 `json:"max_uses"`
	CurrentUses int64  `gorm:"not null;default:0" json:"current_uses"`

	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`

	Priority int  `gorm:"not null;default:0;index" json:"priority"`
	Active   bool `gorm:"not null;index:idx_discount_rules_type_active" json:"active"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// IsEligible は now 時点で評価対象になるか（有効・期間内・使用上限未到達）を返す。
func (r DiscountRule) IsEligible(now time.Time) bool {
	if !r.Active {
		return false
	}
	if r.StartDate != nil && r.StartDate.After(now) {
		return false
	}
	if r.EndDate != nil && r.EndDate.Before(now) {
		return false
	}
	return r.RemainingUses() != 0
}

// RemainingUses は残り使用回数。上限なしは -1。
func (r DiscountRule) RemainingUses() int64 {
	if r.MaxUses == nil {
		return -1
	}
	left := *r.MaxUses - r.CurrentUses
	if left < 0 {
		return 0
	}
	return left
}

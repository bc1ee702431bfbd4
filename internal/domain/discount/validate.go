package discount

import (
	"fmt"
	"strings"

	"shopcart/internal/domain/model"
)

// Validate はルール設定の不備をすべて返す。問題なしなら空。
// 種別ごとの必須項目に加えて、値の範囲と対象の排他も確認する。
func Validate(r model.DiscountRule) []string {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if strings.TrimSpace(r.Name) == "" {
		add("name is required")
	}
	if !r.Type.Valid() {
		add("type must be one of %s", joinTypes())
		return problems
	}

	hasProduct := r.ProductID != nil && *r.ProductID > 0
	hasCategory := r.CategoryID != nil && *r.CategoryID > 0
	hasTarget := hasProduct || hasCategory

	if hasProduct && hasCategory {
		add("product and category are mutually exclusive")
	}

	switch r.Type {
	case model.DiscountTypeBOGO, model.DiscountTypeTwoForOne:
		if !hasTarget {
			add("%s requires product or category", r.Type)
		}
	case model.DiscountTypePercentCategory:
		if !hasCategory {
			add("category is required")
		}
		if !r.Percentage.IsPositive() {
			add("percentage is required")
		}
	case model.DiscountTypePercentProduct:
		if !hasProduct {
			add("product is required")
		}
		if !r.Percentage.IsPositive() {
			add("percentage is required")
		}
	case model.DiscountTypeFixedAmount:
		if !r.FixedAmount.IsPositive() {
			add("fixed_amount is required")
		}
	case model.DiscountTypeBuyXGetY:
		if r.BuyQuantity == nil {
			add("buy_quantity is required")
		}
		if r.GetQuantity == nil {
			add("get_quantity is required")
		}
		if !hasTarget {
			add("%s requires product or category", r.Type)
		}
	}

	if r.Percentage.IsNegative() || r.Percentage.GreaterThan(hundred) {
		add("percentage must be between 0 and 100")
	}
	if r.FixedAmount.IsNegative() {
		add("fixed_amount must be >= 0")
	}
	if r.BuyQuantity != nil && *r.BuyQuantity < 1 {
		add("buy_quantity must be >= 1")
	}
	if r.GetQuantity != nil && *r.GetQuantity < 1 {
		add("get_quantity must be >= 1")
	}
	if r.MinCartValue.Valid && r.MinCartValue.Decimal.IsNegative() {
		add("min_cart_value must be >= 0")
	}
	if r.MinQuantity != nil && *r.MinQuantity < 1 {
		add("min_quantity must be >= 1")
	}
	if r.MaxDiscount.Valid && r.MaxDiscount.Decimal.IsNegative() {
		add("max_discount must be >= 0")
	}
	if r.MaxUses != nil && *r.MaxUses < 1 {
		add("max_uses must be >= 1")
	}
	if r.CurrentUses < 0 {
		add("current_uses must be >= 0")
	}
	if r.MaxUses != nil && r.CurrentUses > *r.MaxUses {
		add("current_uses must not exceed max_uses")
	}
	if r.StartDate != nil && r.EndDate != nil && r.EndDate.Before(*r.StartDate) {
		add("end_date must not be before start_date")
	}

	return problems
}

func joinTypes() string {
	types := model.DiscountTypes()
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}

package pricing

import (
	"testing"

	"shopcart/internal/domain/discount"
	"shopcart/internal/domain/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplicable(t *testing.T) {
	cat := int64(4)
	rules := []model.DiscountRule{
		{ID: 1, Name: "bogo", Type: model.DiscountTypeBOGO, ProductID: i64(1), Active: true},
		{ID: 2, Name: "other", Type: model.DiscountTypePercentProduct, ProductID: i64(99), Percentage: dec("10"), Active: true},
		{ID: 3, Name: "cat", Type: model.DiscountTypePercentCategory, CategoryID: &cat, Percentage: dec("10"), Active: true},
		{ID: 4, Name: "flat", Type: model.DiscountTypeFixedAmount, FixedAmount: dec("5"), MinCartValue: decimal.NewNullDecimal(dec("100")), Active: true},
	}
	lines := []discount.Line{
		{ProductID: 1, CategoryID: 4, Quantity: 2, UnitPrice: dec("10")},
	}

	got := Applicable(rules, lines, dec("20"))
	require.Len(t, got, 2)

	assert.Equal(t, int64(1), got[0].Rule.ID)
	assertMoney(t, "10", got[0].EstimatedDiscount)
	assert.Equal(t, int64(3), got[1].Rule.ID)
	assertMoney(t, "2", got[1].EstimatedDiscount)
}

func TestApplicable_FixedAmountCappedAtTotal(t *testing.T) {
	rules := []model.DiscountRule{
		{ID: 1, Name: "flat", Type: model.DiscountTypeFixedAmount, FixedAmount: dec("50"), Active: true},
	}

	got := Applicable(rules, nil, dec("30"))
	require.Len(t, got, 1)
	assertMoney(t, "30", got[0].EstimatedDiscount)
}

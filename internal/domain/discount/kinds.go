package discount

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FIXED_AMOUNT: カート合計から固定額。残額を超えない。
type fixedAmount struct {
	base
	value decimal.Decimal
}

func (fixedAmount) Scope() Scope { return ScopeCart }

func (f fixedAmount) amount(c Cart, _ Line) (decimal.Decimal, int64, bool) {
	return clamp(f.value, c.Payable), 0, true
}

func (fixedAmount) note(amt decimal.Decimal, _ int64) string {
	return fmt.Sprintf("%s off order", amt.StringFixed(2))
}

// PERCENT_CATEGORY: 明細の商品カテゴリが一致したら課金数量分に割合。
type percentCategory struct {
	base
	categoryID int64
	pct        decimal.Decimal
}

func (percentCategory) Scope() Scope { return ScopePercent }

func (p percentCategory) amount(_ Cart, l Line) (decimal.Decimal, int64, bool) {
	if l.CategoryID == 0 || l.CategoryID != p.categoryID {
		return decimal.Zero, 0, false
	}
	return percentOf(p.pct, l), 0, true
}

func (p percentCategory) note(decimal.Decimal, int64) string {
	return fmt.Sprintf("%s%% off category", p.pct.String())
}

// PERCENT_PRODUCT: 明細の商品が一致したら課金数量分に割合。
type percentProduct struct {
	base
	productID int64
	pct       decimal.Decimal
}

func (percentProduct) Scope() Scope { return ScopePercent }

func (p percentProduct) amount(_ Cart, l Line) (decimal.Decimal, int64, bool) {
	if l.ProductID != p.productID {
		return decimal.Zero, 0, false
	}
	return percentOf(p.pct, l), 0, true
}

func (p percentProduct) note(decimal.Decimal, int64) string {
	return fmt.Sprintf("%s%% off product", p.pct.String())
}

func percentOf(pct decimal.Decimal, l Line) decimal.Decimal {
	paid := l.PaidSubtotal()
	return clamp(paid.Mul(pct).Div(hundred), paid)
}

// BOGO: 2個目ごとに無料。
type bogo struct {
	base
	target target
}

func (bogo) Scope() Scope { return ScopeQuantity }

func (b bogo) amount(_ Cart, l Line) (decimal.Decimal, int64, bool) {
	if !b.target.matches(l) {
		return decimal.Zero, 0, false
	}
	return everySecondFree(l)
}

func (bogo) note(_ decimal.Decimal, free int64) string {
	return fmt.Sprintf("BOGO applied, %d free", free)
}

// TWO_FOR_ONE: 計算はBOGOと同じ。
type twoForOne struct {
	base
	target target
}

func (twoForOne) Scope() Scope { return ScopeQuantity }

func (t twoForOne) amount(_ Cart, l Line) (decimal.Decimal, int64, bool) {
	if !t.target.matches(l) {
		return decimal.Zero, 0, false
	}
	return everySecondFree(l)
}

func (twoForOne) note(_ decimal.Decimal, free int64) string {
	return fmt.Sprintf("TWO_FOR_ONE applied, %d free", free)
}

func everySecondFree(l Line) (decimal.Decimal, int64, bool) {
	free := l.Quantity / 2
	return freeUnits(l, free), free, true
}

// BUY_X_GET_Y: buy個ごとにget個無料。無料数は数量を超えない。
type buyXGetY struct {
	base
	target target
	buy    int64
	get    int64
}

func (buyXGetY) Scope() Scope { return ScopeQuantity }

func (b buyXGetY) amount(_ Cart, l Line) (decimal.Decimal, int64, bool) {
	if !b.target.matches(l) || l.Quantity < b.buy {
		return decimal.Zero, 0, false
	}
	free := (l.Quantity / b.buy) * b.get
	if free > l.Quantity {
		free = l.Quantity
	}
	return freeUnits(l, free), free, true
}

func (b buyXGetY) note(_ decimal.Decimal, free int64) string {
	return fmt.Sprintf("buy %d get %d applied, %d free", b.buy, b.get, free)
}

func freeUnits(l Line, free int64) decimal.Decimal {
	return clamp(l.UnitPrice.Mul(decimal.NewFromInt(free)), l.Subtotal())
}

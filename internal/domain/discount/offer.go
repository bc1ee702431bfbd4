// Package discount は割引ルール1件を明細/カートに当てたときの判定と金額計算。
// DB や時刻には依存しない。
package discount

import (
	"errors"
	"fmt"
	"strings"

	"shopcart/internal/domain/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Scope は割引がどこに効くか。
type Scope int

const (
	// 明細ごと、数量系（無料個数が出る）。1明細につき1つまで。
	ScopeQuantity Scope = iota + 1
	// 明細ごと、割合系。1明細につき1つまで。
	ScopePercent
	// カート全体。
	ScopeCart
)

func (s Scope) String() string {
	switch s {
	case ScopeQuantity:
		return "quantity"
	case ScopePercent:
		return "percent"
	case ScopeCart:
		return "cart"
	}
	return "unknown"
}

// Line は評価対象の明細。
type Line struct {
	ProductID  int64
	CategoryID int64 // カテゴリなしは0
	Quantity   int64
	// 数量系割引を当てた後の課金数量。未適用なら Quantity と同じ。
	PaidQuantity int64
	UnitPrice    decimal.Decimal
}

func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

func (l Line) PaidSubtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.PaidQuantity))
}

// Cart はゲート判定とカート全体割引に使う集計値。
type Cart struct {
	Subtotal decimal.Decimal
	Quantity int64
	// まだ値引きできる残額
	Payable decimal.Decimal
}

// Outcome は1ルールを1回当てた結果。
type Outcome struct {
	RuleID    int64
	RuleName  string
	Type      model.DiscountType
	Scope     Scope
	Amount    decimal.Decimal
	FreeUnits int64
	Note      string
}

// Offer は割引種別ごとの計算を持つ。
// 実装はこのパッケージ内の型だけで、種別を増やすときは amount/note の実装が必須になる。
type Offer interface {
	Rule() model.DiscountRule
	Scope() Scope
	// 割引額（上限・丸め前）と無料個数。対象外なら ok=false。
	amount(c Cart, l Line) (amt decimal.Decimal, free int64, ok bool)
	note(amt decimal.Decimal, free int64) string
}

// ConfigError はルール設定の不備をすべて列挙する。
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return "invalid discount rule: " + strings.Join(e.Problems, "; ")
}

// IsConfigError reports whether err carries rule configuration problems.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// Parse はルールを種別ごとの Offer に変換する。設定不備は *ConfigError。
func Parse(r model.DiscountRule) (Offer, error) {
	if problems := Validate(r); len(problems) > 0 {
		return nil, &ConfigError{Problems: problems}
	}

	b := base{rule: r}
	t := newTarget(r)

	switch r.Type {
	case model.DiscountTypeFixedAmount:
		return fixedAmount{base: b, value: r.FixedAmount}, nil
	case model.DiscountTypePercentCategory:
		return percentCategory{base: b, categoryID: *r.CategoryID, pct: r.Percentage}, nil
	case model.DiscountTypePercentProduct:
		return percentProduct{base: b, productID: *r.ProductID, pct: r.Percentage}, nil
	case model.DiscountTypeBOGO:
		return bogo{base: b, target: t}, nil
	case model.DiscountTypeTwoForOne:
		return twoForOne{base: b, target: t}, nil
	case model.DiscountTypeBuyXGetY:
		return buyXGetY{base: b, target: t, buy: *r.BuyQuantity, get: *r.GetQuantity}, nil
	}
	return nil, &ConfigError{Problems: []string{fmt.Sprintf("unknown discount type %q", r.Type)}}
}

// Evaluate はゲート条件を確認して1回分の割引を計算する。
// 金額は0以上・対象額以下・max_discount以下に収め、2桁に丸める。0円なら適用なし。
func Evaluate(o Offer, c Cart, l Line) (Outcome, bool) {
	r := o.Rule()

	if r.MinCartValue.Valid && c.Subtotal.LessThan(r.MinCartValue.Decimal) {
		return Outcome{}, false
	}
	if r.MinQuantity != nil && c.Quantity < *r.MinQuantity {
		return Outcome{}, false
	}

	amt, free, ok := o.amount(c, l)
	if !ok {
		return Outcome{}, false
	}
	if r.MaxDiscount.Valid && amt.GreaterThan(r.MaxDiscount.Decimal) {
		amt = r.MaxDiscount.Decimal
	}
	amt = amt.Round(2)
	if !amt.IsPositive() {
		return Outcome{}, false
	}

	return Outcome{
		RuleID:    r.ID,
		RuleName:  r.Name,
		Type:      r.Type,
		Scope:     o.Scope(),
		Amount:    amt,
		FreeUnits: free,
		Note:      r.Name + ": " + o.note(amt, free),
	}, true
}

// clamp は [0, ceiling] に収める。
func clamp(v, ceiling decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	if ceiling.IsNegative() {
		return decimal.Zero
	}
	return decimal.Min(v, ceiling)
}

type base struct {
	rule model.DiscountRule
}

func (b base) Rule() model.DiscountRule { return b.rule }

// target は商品またはカテゴリの一致判定。
type target struct {
	productID  int64
	categoryID int64
}

func newTarget(r model.DiscountRule) target {
	var t target
	if r.ProductID != nil {
		t.productID = *r.ProductID
	}
	if r.CategoryID != nil {
		t.categoryID = *r.CategoryID
	}
	return t
}

func (t target) matches(l Line) bool {
	if t.productID != 0 && l.ProductID == t.productID {
		return true
	}
	return t.categoryID != 0 && l.CategoryID == t.categoryID
}

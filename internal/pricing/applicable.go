package pricing

import (
	"shopcart/internal/domain/discount"
	"shopcart/internal/domain/model"

	"github.com/shopspring/decimal"
)

// ApplicableRule はルール単体で当てたときの見込み割引額。
type ApplicableRule struct {
	Rule              model.DiscountRule `json:"rule"`
	EstimatedDiscount decimal.Decimal    `json:"estimated_discount"`
	Notes             []string           `json:"notes"`
}

// Applicable は rules のうち、lines と cartTotal に対して0円より大きい割引になるものを返す。
// ルール同士の組み合わせ（1明細1つまで等）は考慮しない。順序は rules のまま。
func Applicable(rules []model.DiscountRule, lines []discount.Line, cartTotal decimal.Decimal) []ApplicableRule {
	var qty int64
	for _, l := range lines {
		qty += l.Quantity
	}
	cart := discount.Cart{Subtotal: cartTotal, Quantity: qty, Payable: cartTotal}

	out := []ApplicableRule{}
	for _, r := range rules {
		off, err := discount.Parse(r)
		if err != nil {
			continue
		}

		total := decimal.Zero
		notes := []string{}
		if off.Scope() == discount.ScopeCart {
			if o, ok := discount.Evaluate(off, cart, discount.Line{}); ok {
				total = o.Amount
				notes = append(notes, o.Note)
			}
		} else {
			for _, l := range lines {
				if l.PaidQuantity == 0 {
					l.PaidQuantity = l.Quantity
				}
				if o, ok := discount.Evaluate(off, cart, l); ok {
					total = total.Add(o.Amount)
					notes = append(notes, o.Note)
				}
			}
		}

		if r.MaxDiscount.Valid {
			total = decimal.Min(total, r.MaxDiscount.Decimal)
		}
		if !total.IsPositive() {
			continue
		}
		out = append(out, ApplicableRule{Rule: r, EstimatedDiscount: total.Round(2), Notes: notes})
	}
	return out
}

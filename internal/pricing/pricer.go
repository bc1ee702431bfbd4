package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopcart/internal/domain/discount"
	"shopcart/internal/domain/model"
	repo "shopcart/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductFinder は価格とカテゴリの参照に使う。
type ProductFinder interface {
	FindByID(ctx context.Context, id int64) (model.Product, error)
}

// Observer は計算時間の記録先。
type Observer interface {
	ObservePricing(d time.Duration)
}

// PricedLine はカート明細1行の計算結果。
type PricedLine struct {
	ProductID    int64           `json:"product_id"`
	Name         string          `json:"name"`
	Available    bool            `json:"available"`
	Quantity     int64           `json:"quantity"`
	PaidQuantity int64           `json:"paid_quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Discount     decimal.Decimal `json:"discount"`
	FinalPrice   decimal.Decimal `json:"final_price"`
	Breakdown    []string        `json:"breakdown"`

	// 計算時に読んだ在庫（チェックアウトの在庫確認用）
	Stock   int64              `json:"-"`
	Applied []discount.Outcome `json:"-"`
}

// CartDiscount はカート全体に効いた割引。
type CartDiscount struct {
	RuleID int64              `json:"rule_id"`
	Name   string             `json:"name"`
	Type   model.DiscountType `json:"type"`
	Amount decimal.Decimal    `json:"amount"`
	Note   string             `json:"note"`
}

// RuleUsage はルールごとの適用回数。初めて適用された順に並ぶ。
type RuleUsage struct {
	RuleID int64
	Name   string
	Type   model.DiscountType
	Count  int64
}

type PricedCart struct {
	Items           []PricedLine    `json:"items"`
	CartDiscounts   []CartDiscount  `json:"cart_discounts"`
	TotalQuantity   int64           `json:"total_quantity"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	CartDiscount    decimal.Decimal `json:"cart_discount"`
	TotalDiscount   decimal.Decimal `json:"total_discount"`
	TotalPayable    decimal.Decimal `json:"total_payable"`
	DiscountApplied bool            `json:"discount_applied"`

	Usage []RuleUsage `json:"-"`
}

// Pricer はカートの価格を計算する。読み取りのみで、同じ入力なら同じ結果を返す。
type Pricer struct {
	now      func() time.Time
	log      *zap.Logger
	observer Observer
}

// observer は nil でもよい。
func NewPricer(now func() time.Time, log *zap.Logger, observer Observer) *Pricer {
	return &Pricer{now: now, log: log, observer: observer}
}

// Price は明細ごとに数量系1つ・割合系1つまでを priority 順に当て、
// 最後にカート全体の固定額割引を残額の範囲で当てる。
func (p *Pricer) Price(ctx context.Context, rules RuleLister, products ProductFinder, items []model.CartItem) (PricedCart, error) {
	started := time.Now()
	defer func() {
		if p.observer != nil {
			p.observer.ObservePricing(time.Since(started))
		}
	}()

	out := PricedCart{
		Items:         make([]PricedLine, 0, len(items)),
		CartDiscounts: []CartDiscount{},
		Subtotal:      decimal.Zero,
		CartDiscount:  decimal.Zero,
		TotalDiscount: decimal.Zero,
		TotalPayable:  decimal.Zero,
	}
	if len(items) == 0 {
		return out, nil
	}

	lines := make([]discount.Line, 0, len(items))
	for _, it := range items {
		pl, line, err := p.resolve(ctx, products, it)
		if err != nil {
			return PricedCart{}, err
		}
		out.Items = append(out.Items, pl)
		lines = append(lines, line)
		out.Subtotal = out.Subtotal.Add(pl.Subtotal)
		out.TotalQuantity += it.Quantity
	}

	eligible, err := rules.ListEligible(ctx, p.now())
	if err != nil {
		return PricedCart{}, fmt.Errorf("list eligible rules: %w", err)
	}
	offers := p.parse(eligible)

	b := newBudget(eligible)
	cart := discount.Cart{Subtotal: out.Subtotal, Quantity: out.TotalQuantity}

	lineDiscount := decimal.Zero
	for i := range out.Items {
		pl := &out.Items[i]
		line := lines[i]

		for _, scope := range []discount.Scope{discount.ScopeQuantity, discount.ScopePercent} {
			o, ok := p.firstApplicable(offers, scope, cart, line, b)
			if !ok {
				continue
			}
			if o.Scope == discount.ScopeQuantity {
				line.PaidQuantity = line.Quantity - o.FreeUnits
			}
			pl.Discount = pl.Discount.Add(o.Amount)
			pl.Breakdown = append(pl.Breakdown, o.Note)
			pl.Applied = append(pl.Applied, o)
		}

		pl.PaidQuantity = line.PaidQuantity
		pl.Discount = decimal.Min(pl.Discount, pl.Subtotal).Round(2)
		pl.FinalPrice = pl.Subtotal.Sub(pl.Discount).Round(2)
		lineDiscount = lineDiscount.Add(pl.Discount)
	}

	cart.Payable = out.Subtotal.Sub(lineDiscount)
	for _, off := range offers {
		if off.Scope() != discount.ScopeCart || !cart.Payable.IsPositive() {
			continue
		}
		o, ok := b.apply(off, cart, discount.Line{})
		if !ok {
			continue
		}
		cart.Payable = cart.Payable.Sub(o.Amount)
		out.CartDiscount = out.CartDiscount.Add(o.Amount)
		out.CartDiscounts = append(out.CartDiscounts, CartDiscount{
			RuleID: o.RuleID,
			Name:   o.RuleName,
			Type:   o.Type,
			Amount: o.Amount,
			Note:   o.Note,
		})
	}

	out.Subtotal = out.Subtotal.Round(2)
	out.CartDiscount = out.CartDiscount.Round(2)
	out.TotalDiscount = lineDiscount.Add(out.CartDiscount).Round(2)
	out.TotalPayable = decimal.Max(decimal.Zero, out.Subtotal.Sub(out.TotalDiscount)).Round(2)
	out.Usage = b.usage()
	out.DiscountApplied = len(out.Usage) > 0

	return out, nil
}

// 商品が見つからなければ追加時の価格で計算する（カテゴリなし扱い）。
func (p *Pricer) resolve(ctx context.Context, products ProductFinder, it model.CartItem) (PricedLine, discount.Line, error) {
	pl := PricedLine{
		ProductID:    it.ProductID,
		Quantity:     it.Quantity,
		PaidQuantity: it.Quantity,
		UnitPrice:    it.UnitPriceSnapshot.Round(2),
		Discount:     decimal.Zero,
		Breakdown:    []string{},
	}

	prod, err := products.FindByID(ctx, it.ProductID)
	switch {
	case err == nil:
		pl.Name = prod.Name
		pl.Available = true
		pl.UnitPrice = prod.Price.Round(2)
		pl.Stock = prod.Stock
	case errors.Is(err, repo.ErrNotFound):
		p.log.Debug("product unavailable, using snapshot price", zap.Int64("product_id", it.ProductID))
	default:
		return PricedLine{}, discount.Line{}, fmt.Errorf("find product %d: %w", it.ProductID, err)
	}

	pl.Subtotal = pl.UnitPrice.Mul(decimal.NewFromInt(it.Quantity)).Round(2)
	pl.FinalPrice = pl.Subtotal

	line := discount.Line{
		ProductID:    it.ProductID,
		Quantity:     it.Quantity,
		PaidQuantity: it.Quantity,
		UnitPrice:    pl.UnitPrice,
	}
	if pl.Available && prod.CategoryID != nil {
		line.CategoryID = *prod.CategoryID
	}
	return pl, line, nil
}

// 設定不備のルールは計算に使わない（書き込み時に弾いているので通常は起きない）。
func (p *Pricer) parse(rules []model.DiscountRule) []discount.Offer {
	offers := make([]discount.Offer, 0, len(rules))
	for _, r := range rules {
		o, err := discount.Parse(r)
		if err != nil {
			p.log.Warn("skip misconfigured discount rule", zap.Int64("rule_id", r.ID), zap.Error(err))
			continue
		}
		offers = append(offers, o)
	}
	return offers
}

func (p *Pricer) firstApplicable(offers []discount.Offer, scope discount.Scope, c discount.Cart, l discount.Line, b *budget) (discount.Outcome, bool) {
	for _, off := range offers {
		if off.Scope() != scope {
			continue
		}
		if o, ok := b.apply(off, c, l); ok {
			return o, true
		}
	}
	return discount.Outcome{}, false
}

// budget はカート1回分の計算の中で、ルールごとの残り使用回数と max_discount の残額を追う。
type budget struct {
	uses  map[int64]int64
	caps  map[int64]decimal.Decimal
	order []int64
	count map[int64]int64
	first map[int64]discount.Outcome
}

func newBudget(rules []model.DiscountRule) *budget {
	b := &budget{
		uses:  make(map[int64]int64, len(rules)),
		caps:  make(map[int64]decimal.Decimal),
		count: make(map[int64]int64),
		first: make(map[int64]discount.Outcome),
	}
	for _, r := range rules {
		b.uses[r.ID] = r.RemainingUses()
		if r.MaxDiscount.Valid {
			b.caps[r.ID] = r.MaxDiscount.Decimal
		}
	}
	return b
}

func (b *budget) apply(off discount.Offer, c discount.Cart, l discount.Line) (discount.Outcome, bool) {
	id := off.Rule().ID
	if b.uses[id] == 0 {
		return discount.Outcome{}, false
	}

	o, ok := discount.Evaluate(off, c, l)
	if !ok {
		return discount.Outcome{}, false
	}
	if left, capped := b.caps[id]; capped {
		o.Amount = decimal.Min(o.Amount, left)
		if !o.Amount.IsPositive() {
			return discount.Outcome{}, false
		}
		b.caps[id] = left.Sub(o.Amount)
	}

	if b.uses[id] > 0 {
		b.uses[id]--
	}
	if _, seen := b.count[id]; !seen {
		b.order = append(b.order, id)
		b.first[id] = o
	}
	b.count[id]++
	return o, true
}

func (b *budget) usage() []RuleUsage {
	out := make([]RuleUsage, 0, len(b.order))
	for _, id := range b.order {
		o := b.first[id]
		out = append(out, RuleUsage{RuleID: id, Name: o.RuleName, Type: o.Type, Count: b.count[id]})
	}
	return out
}

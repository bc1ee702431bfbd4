package usecase

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"shopcart/internal/domain/model"
	"shopcart/internal/pricing"
	repo "shopcart/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CheckoutObserver はチェックアウト結果の記録先（メトリクス）。
type CheckoutObserver interface {
	CheckoutFinished(result string)
	DiscountApplied(t model.DiscountType, n int64)
}

// RuleInvalidator は使用回数が変わった後にルールのキャッシュを捨てる。
type RuleInvalidator interface {
	Invalidate(ctx context.Context)
}

type CheckoutUsecase struct {
	tx          repo.TransactionManager
	pricer      *pricing.Pricer
	invalidator RuleInvalidator
	observer    CheckoutObserver
	newRef      func() string
	now         func() time.Time
	log         *zap.Logger
}

// invalidator と observer は nil でもよい。
func NewCheckoutUsecase(
	tx repo.TransactionManager,
	pricer *pricing.Pricer,
	invalidator RuleInvalidator,
	observer CheckoutObserver,
	newRef func() string,
	now func() time.Time,
	log *zap.Logger,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		tx:          tx,
		pricer:      pricer,
		invalidator: invalidator,
		observer:    observer,
		newRef:      newRef,
		now:         now,
		log:         log,
	}
}

// OrderOutput は注文と明細。
type OrderOutput struct {
	model.Order
	Items []model.OrderItem `json:"items"`
}

// Checkout はカートを注文に確定する。
// 在庫減算・ルール使用回数の加算・注文作成・カートを空にする処理は1トランザクションで、
// どれかが失敗したら全部なかったことになる。
func (u *CheckoutUsecase) Checkout(ctx context.Context, userID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewUnauthorizedError()
	}

	var (
		out   OrderOutput
		usage []pricing.RuleUsage
	)
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// Pending: カートをロックして読む
		cart, err := r.Carts().FindByUserIDForUpdate(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFoundError("cart not found")
		}
		if err != nil {
			return NewStorageError(err)
		}

		now := u.now()
		if cart.IsExpired(now) {
			return NewValidationError("cart is empty")
		}

		items, err := r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			return NewStorageError(err)
		}
		if len(items) == 0 {
			return NewValidationError("cart is empty")
		}

		// StockChecked: トランザクション内で計算し直し、全明細の在庫を先に確認する
		priced, err := u.pricer.Price(ctx, r.DiscountRules(), r.Products(), items)
		if err != nil {
			return NewStorageError(err)
		}
		for _, line := range priced.Items {
			if !line.Available {
				return NewNotFoundError(fmt.Sprintf("product %d is no longer available", line.ProductID))
			}
			if line.Stock < line.PaidQuantity {
				return insufficientStock(line.Name, line.Stock, line.PaidQuantity)
			}
		}

		// Committed: 行ロックは商品ID・ルールIDの昇順で取る
		lines := slices.SortedFunc(slices.Values(priced.Items), func(a, b pricing.PricedLine) int {
			return cmp.Compare(a.ProductID, b.ProductID)
		})
		for _, line := range lines {
			if line.PaidQuantity == 0 {
				continue
			}
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, line.ProductID, line.PaidQuantity)
			if err != nil {
				return fmt.Errorf("decrease stock for product %d: %w", line.ProductID, err)
			}
			if !ok {
				// 確認後に他のチェックアウトが先に減らした
				return NewConflictError(fmt.Sprintf("insufficient stock for %s", line.Name))
			}
		}

		usages := slices.SortedFunc(slices.Values(priced.Usage), func(a, b pricing.RuleUsage) int {
			return cmp.Compare(a.RuleID, b.RuleID)
		})
		for _, ru := range usages {
			ok, err := r.DiscountRules().IncrementUsage(ctx, ru.RuleID, ru.Count)
			if err != nil {
				return fmt.Errorf("increment usage for rule %d: %w", ru.RuleID, err)
			}
			if !ok {
				return NewConflictError(fmt.Sprintf("discount %q has reached its usage limit", ru.Name))
			}
		}

		order, err := r.Orders().Create(ctx, buildOrder(userID, u.newRef(), priced))
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		orderItems := buildOrderItems(priced)
		if err := r.OrderItems().CreateBulk(ctx, order.ID, orderItems); err != nil {
			return fmt.Errorf("create order items: %w", err)
		}

		for _, line := range lines {
			if line.PaidQuantity == 0 {
				continue
			}
			if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
				ProductID: line.ProductID,
				OrderID:   order.ID,
				Delta:     -line.PaidQuantity,
				Reason:    "order " + order.Reference,
			}); err != nil {
				return fmt.Errorf("record inventory adjustment: %w", err)
			}
		}

		if err := r.Carts().Clear(ctx, cart.ID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		if err := r.Carts().Touch(ctx, cart.ID, now); err != nil {
			return fmt.Errorf("touch cart: %w", err)
		}

		out = OrderOutput{Order: order, Items: orderItems}
		usage = priced.Usage
		return nil
	})

	if err != nil {
		if _, ok := AsAppError(err); !ok {
			err = NewTransactionError(err)
		}
		ae, _ := AsAppError(err)
		u.finished(string(ae.Kind))
		if ae.Kind.Internal() {
			u.log.Error("checkout aborted", zap.Int64("user_id", userID), zap.Error(err))
		} else {
			u.log.Info("checkout aborted", zap.Int64("user_id", userID), zap.String("reason", ae.Message))
		}
		return OrderOutput{}, err
	}

	u.finished("committed")
	if u.observer != nil {
		for _, ru := range usage {
			u.observer.DiscountApplied(ru.Type, ru.Count)
		}
	}
	if u.invalidator != nil && len(usage) > 0 {
		u.invalidator.Invalidate(ctx)
	}
	u.log.Info("checkout committed",
		zap.Int64("user_id", userID),
		zap.Int64("order_id", out.ID),
		zap.String("reference", out.Reference),
		zap.String("total_payable", out.TotalPayable.StringFixed(2)),
	)
	return out, nil
}

func (u *CheckoutUsecase) finished(result string) {
	if u.observer != nil {
		u.observer.CheckoutFinished(result)
	}
}

func insufficientStock(name string, available, required int64) error {
	return NewConflictError(fmt.Sprintf("insufficient stock for %s: available %d, required %d", name, available, required))
}

func buildOrder(userID int64, ref string, priced pricing.PricedCart) model.Order {
	notes := make([]string, 0, len(priced.CartDiscounts))
	for _, cd := range priced.CartDiscounts {
		notes = append(notes, cd.Note)
	}
	return model.Order{
		Reference:     ref,
		UserID:        userID,
		Subtotal:      priced.Subtotal,
		CartDiscount:  priced.CartDiscount,
		TotalDiscount: priced.TotalDiscount,
		TotalPayable:  priced.TotalPayable,
		Notes:         notes,
	}
}

func buildOrderItems(priced pricing.PricedCart) []model.OrderItem {
	items := make([]model.OrderItem, 0, len(priced.Items))
	for _, line := range priced.Items {
		items = append(items, model.OrderItem{
			ProductID:    line.ProductID,
			Quantity:     line.Quantity,
			PaidQuantity: line.PaidQuantity,
			UnitPrice:    line.UnitPrice,
			Discount:     line.Discount,
			FinalPrice:   decimal.Max(decimal.Zero, line.FinalPrice),
			Breakdown:    line.Breakdown,
		})
	}
	return items
}

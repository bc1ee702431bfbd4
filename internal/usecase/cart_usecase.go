package usecase

import (
	"context"
	"errors"
	"time"

	"shopcart/internal/domain/model"
	"shopcart/internal/pricing"
	repo "shopcart/internal/repository"

	"go.uber.org/zap"
)

// CartUsecase は /cart の業務ロジック。
// 変更系は1操作1トランザクションで、カート行をロックしてから明細を触る。
// 返すカートは変更をcommitした後に計算し直したもの。
type CartUsecase struct {
	tx       repo.TransactionManager
	products repo.ProductRepository
	rules    pricing.RuleLister
	pricer   *pricing.Pricer
	now      func() time.Time
	log      *zap.Logger
}

func NewCartUsecase(
	tx repo.TransactionManager,
	products repo.ProductRepository,
	rules pricing.RuleLister,
	pricer *pricing.Pricer,
	now func() time.Time,
	log *zap.Logger,
) *CartUsecase {
	return &CartUsecase{
		tx:       tx,
		products: products,
		rules:    rules,
		pricer:   pricer,
		now:      now,
		log:      log,
	}
}

type AddCartItemInput struct {
	ProductID int64
	Quantity  int64
}

type UpdateCartItemInput struct {
	ProductID int64
	Quantity  int64
}

// GetCart はカート取得（無ければ作って空を返す）。
func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (pricing.PricedCart, error) {
	if userID <= 0 {
		return pricing.PricedCart{}, NewUnauthorizedError()
	}
	return u.mutate(ctx, userID, nil)
}

// AddItem はカートに追加（同一商品は数量加算）。在庫はチェックアウトで確認する。
func (u *CartUsecase) AddItem(ctx context.Context, userID int64, in AddCartItemInput) (pricing.PricedCart, error) {
	if userID <= 0 {
		return pricing.PricedCart{}, NewUnauthorizedError()
	}
	if in.ProductID <= 0 {
		return pricing.PricedCart{}, NewValidationError("invalid product_id")
	}
	if in.Quantity < 1 {
		return pricing.PricedCart{}, NewValidationError("quantity must be a positive integer")
	}

	return u.mutate(ctx, userID, func(r repo.TxRepos, cart model.Cart) error {
		p, err := findProduct(ctx, r.Products(), in.ProductID)
		if err != nil {
			return err
		}
		// 追加時点の価格を残す
		if err := r.CartItems().UpsertByCartAndProduct(ctx, cart.ID, p.ID, in.Quantity, p.Price); err != nil {
			return NewStorageError(err)
		}
		return nil
	})
}

// UpdateItem は数量変更。0なら削除と同じ。価格スナップショットは今の価格に更新する。
func (u *CartUsecase) UpdateItem(ctx context.Context, userID int64, in UpdateCartItemInput) (pricing.PricedCart, error) {
	if userID <= 0 {
		return pricing.PricedCart{}, NewUnauthorizedError()
	}
	if in.ProductID <= 0 {
		return pricing.PricedCart{}, NewValidationError("invalid product_id")
	}
	if in.Quantity < 0 {
		return pricing.PricedCart{}, NewValidationError("quantity must be zero or a positive integer")
	}
	if in.Quantity == 0 {
		return u.RemoveItem(ctx, userID, in.ProductID)
	}

	return u.mutate(ctx, userID, func(r repo.TxRepos, cart model.Cart) error {
		p, err := findProduct(ctx, r.Products(), in.ProductID)
		if err != nil {
			return err
		}
		err = r.CartItems().UpdateQuantity(ctx, cart.ID, in.ProductID, in.Quantity, p.Price)
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFoundError("item not in cart")
		}
		if err != nil {
			return NewStorageError(err)
		}
		return nil
	})
}

// RemoveItem は明細削除。
func (u *CartUsecase) RemoveItem(ctx context.Context, userID int64, productID int64) (pricing.PricedCart, error) {
	if userID <= 0 {
		return pricing.PricedCart{}, NewUnauthorizedError()
	}
	if productID <= 0 {
		return pricing.PricedCart{}, NewValidationError("invalid product_id")
	}

	return u.mutate(ctx, userID, func(r repo.TxRepos, cart model.Cart) error {
		err := r.CartItems().DeleteByCartAndProduct(ctx, cart.ID, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFoundError("item not in cart")
		}
		if err != nil {
			return NewStorageError(err)
		}
		return nil
	})
}

// ClearCart は明細を全削除。
func (u *CartUsecase) ClearCart(ctx context.Context, userID int64) (pricing.PricedCart, error) {
	if userID <= 0 {
		return pricing.PricedCart{}, NewUnauthorizedError()
	}

	return u.mutate(ctx, userID, func(r repo.TxRepos, cart model.Cart) error {
		if err := r.Carts().Clear(ctx, cart.ID); err != nil {
			return NewStorageError(err)
		}
		return nil
	})
}

// mutate はカートをロックして fn を実行し、commit後の明細で価格を計算する。
// 保持期間を過ぎたカートは fn の前に空にする。fn が nil なら読むだけ。
func (u *CartUsecase) mutate(ctx context.Context, userID int64, fn func(r repo.TxRepos, cart model.Cart) error) (pricing.PricedCart, error) {
	now := u.now()

	var items []model.CartItem
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().GetOrCreateByUserID(ctx, userID, now)
		if err != nil {
			return NewStorageError(err)
		}

		touched := false
		if cart.IsExpired(now) {
			if err := r.Carts().Clear(ctx, cart.ID); err != nil {
				return NewStorageError(err)
			}
			u.log.Info("expired cart cleared", zap.Int64("user_id", userID), zap.Int64("cart_id", cart.ID))
			touched = true
		}

		if fn != nil {
			if err := fn(r, cart); err != nil {
				return err
			}
			touched = true
		}

		if touched {
			if err := r.Carts().Touch(ctx, cart.ID, now); err != nil {
				return NewStorageError(err)
			}
		}

		items, err = r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			return NewStorageError(err)
		}
		return nil
	})
	if err != nil {
		return pricing.PricedCart{}, asAppError(err)
	}

	priced, err := u.pricer.Price(ctx, u.rules, u.products, items)
	if err != nil {
		return pricing.PricedCart{}, NewStorageError(err)
	}
	return priced, nil
}

func findProduct(ctx context.Context, products repo.ProductRepository, productID int64) (model.Product, error) {
	p, err := products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewNotFoundError("product not found")
	}
	if err != nil {
		return model.Product{}, NewStorageError(err)
	}
	return p, nil
}

// asAppError は AppError 以外を StorageError に包む。
func asAppError(err error) error {
	if _, ok := AsAppError(err); ok {
		return err
	}
	return NewStorageError(err)
}

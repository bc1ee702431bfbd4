package usecase

import (
	"context"
	"errors"

	"shopcart/internal/domain/model"
	repo "shopcart/internal/repository"
)

// OrderUsecase は注文の参照（本人の注文のみ）。
type OrderUsecase struct {
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
}

func NewOrderUsecase(orders repo.OrderRepository, orderItems repo.OrderItemRepository) *OrderUsecase {
	return &OrderUsecase{orders: orders, orderItems: orderItems}
}

type OrderListOutput struct {
	Items []model.Order `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

func (u *OrderUsecase) ListOrders(ctx context.Context, userID int64, page, limit int) (OrderListOutput, error) {
	if userID <= 0 {
		return OrderListOutput{}, NewUnauthorizedError()
	}
	if page < 1 {
		return OrderListOutput{}, NewValidationError("invalid page")
	}
	if limit < 1 || limit > 100 {
		return OrderListOutput{}, NewValidationError("invalid limit")
	}

	items, total, err := u.orders.ListByUserID(ctx, userID, page, limit)
	if err != nil {
		return OrderListOutput{}, NewStorageError(err)
	}
	return OrderListOutput{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// GetOrder は他人の注文を見つからない扱いにする。
func (u *OrderUsecase) GetOrder(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewUnauthorizedError()
	}
	if orderID <= 0 {
		return OrderOutput{}, NewValidationError("invalid id")
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return OrderOutput{}, NewNotFoundError("order not found")
	}
	if err != nil {
		return OrderOutput{}, NewStorageError(err)
	}
	if o.UserID != userID {
		return OrderOutput{}, NewNotFoundError("order not found")
	}

	items, err := u.orderItems.ListByOrderID(ctx, o.ID)
	if err != nil {
		return OrderOutput{}, NewStorageError(err)
	}
	return OrderOutput{Order: o, Items: items}, nil
}

package handler_test

import (
	"context"

	"shopcart/internal/domain/discount"
	"shopcart/internal/domain/model"
	"shopcart/internal/pricing"
	"shopcart/internal/repository"
	"shopcart/internal/usecase"

	"github.com/stretchr/testify/mock"
)

type CartServiceMock struct{ mock.Mock }

func (m *CartServiceMock) GetCart(ctx context.Context, userID int64) (pricing.PricedCart, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(pricing.PricedCart), args.Error(1)
}

func (m *CartServiceMock) AddItem(ctx context.Context, userID int64, in usecase.AddCartItemInput) (pricing.PricedCart, error) {
	args := m.Called(ctx, userID, in)
	return args.Get(0).(pricing.PricedCart), args.Error(1)
}

func (m *CartServiceMock) UpdateItem(ctx context.Context, userID int64, in usecase.UpdateCartItemInput) (pricing.PricedCart, error) {
	args := m.Called(ctx, userID, in)
	return args.Get(0).(pricing.PricedCart), args.Error(1)
}

func (m *CartServiceMock) RemoveItem(ctx context.Context, userID int64, productID int64) (pricing.PricedCart, error) {
	args := m.Called(ctx, userID, productID)
	return args.Get(0).(pricing.PricedCart), args.Error(1)
}

func (m *CartServiceMock) ClearCart(ctx context.Context, userID int64) (pricing.PricedCart, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(pricing.PricedCart), args.Error(1)
}

type CheckoutServiceMock struct{ mock.Mock }

func (m *CheckoutServiceMock) Checkout(ctx context.Context, userID int64) (usecase.OrderOutput, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(usecase.OrderOutput), args.Error(1)
}

type OrderServiceMock struct{ mock.Mock }

func (m *OrderServiceMock) ListOrders(ctx context.Context, userID int64, page, limit int) (usecase.OrderListOutput, error) {
	args := m.Called(ctx, userID, page, limit)
	return args.Get(0).(usecase.OrderListOutput), args.Error(1)
}

func (m *OrderServiceMock) GetOrder(ctx context.Context, userID int64, orderID int64) (usecase.OrderOutput, error) {
	args := m.Called(ctx, userID, orderID)
	return args.Get(0).(usecase.OrderOutput), args.Error(1)
}

type DiscountRuleServiceMock struct{ mock.Mock }

func (m *DiscountRuleServiceMock) Create(ctx context.Context, adminUserID int64, in usecase.DiscountRuleInput) (model.DiscountRule, error) {
	args := m.Called(ctx, adminUserID, in)
	return args.Get(0).(model.DiscountRule), args.Error(1)
}

func (m *DiscountRuleServiceMock) Get(ctx context.Context, id int64) (model.DiscountRule, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.DiscountRule), args.Error(1)
}

func (m *DiscountRuleServiceMock) List(ctx context.Context, filter repository.DiscountRuleFilter) ([]model.DiscountRule, error) {
	args := m.Called(ctx, filter)
	rules, _ := args.Get(0).([]model.DiscountRule)
	return rules, args.Error(1)
}

func (m *DiscountRuleServiceMock) Update(ctx context.Context, adminUserID int64, id int64, in usecase.DiscountRuleInput) (model.DiscountRule, error) {
	args := m.Called(ctx, adminUserID, id, in)
	return args.Get(0).(model.DiscountRule), args.Error(1)
}

func (m *DiscountRuleServiceMock) Remove(ctx context.Context, adminUserID int64, id int64) error {
	args := m.Called(ctx, adminUserID, id)
	return args.Error(0)
}

func (m *DiscountRuleServiceMock) History(ctx context.Context, id int64, limit, offset int) ([]model.AuditLog, error) {
	args := m.Called(ctx, id, limit, offset)
	logs, _ := args.Get(0).([]model.AuditLog)
	return logs, args.Error(1)
}

func (m *DiscountRuleServiceMock) Suggestions() []discount.Suggestion {
	args := m.Called()
	return args.Get(0).([]discount.Suggestion)
}

func (m *DiscountRuleServiceMock) ListApplicable(ctx context.Context, in usecase.ApplicableInput) ([]pricing.ApplicableRule, error) {
	args := m.Called(ctx, in)
	rules, _ := args.Get(0).([]pricing.ApplicableRule)
	return rules, args.Error(1)
}

func (m *DiscountRuleServiceMock) Calculate(ctx context.Context, in usecase.CalculateInput) (pricing.PricedCart, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(pricing.PricedCart), args.Error(1)
}

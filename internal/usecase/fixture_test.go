package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"shopcart/internal/domain/model"
	"shopcart/internal/pricing"
	"shopcart/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

type recordingObserver struct {
	mu      sync.Mutex
	results []string
	applied map[model.DiscountType]int64
}

func (o *recordingObserver) CheckoutFinished(result string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = append(o.results, result)
}

func (o *recordingObserver) DiscountApplied(t model.DiscountType, n int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.applied == nil {
		o.applied = map[model.DiscountType]int64{}
	}
	o.applied[t] += n
}

type countingInvalidator struct{ n atomic.Int64 }

func (c *countingInvalidator) Invalidate(context.Context) { c.n.Add(1) }

type fixture struct {
	store       *memStore
	observer    *recordingObserver
	invalidator *countingInvalidator

	cart     *usecase.CartUsecase
	checkout *usecase.CheckoutUsecase
	rules    *usecase.DiscountRuleUsecase
	orders   *usecase.OrderUsecase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	s := newMemStore()
	clock := func() time.Time { return testNow }
	log := zap.NewNop()
	pricer := pricing.NewPricer(clock, log, nil)
	ro := s.locked()

	var refs atomic.Int64
	newRef := func() string { return fmt.Sprintf("ref-%d", refs.Add(1)) }

	f := &fixture{
		store:       s,
		observer:    &recordingObserver{},
		invalidator: &countingInvalidator{},
	}
	f.cart = usecase.NewCartUsecase(s, ro.Products(), ro.DiscountRules(), pricer, clock, log)
	f.checkout = usecase.NewCheckoutUsecase(s, pricer, f.invalidator, f.observer, newRef, clock, log)
	f.rules = usecase.NewDiscountRuleUsecase(
		s, ro.DiscountRules(), ro.Products(), ro.Categories(), ro.AuditLogs(),
		ro.DiscountRules(), f.invalidator, pricer, clock, log,
	)
	f.orders = usecase.NewOrderUsecase(ro.Orders(), ro.OrderItems())
	return f
}

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr[T any](v T) *T { return &v }

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, money(want).Equal(got), "want %s, got %s", want, got.String())
}

func assertKind(t *testing.T, err error, kind usecase.ErrorKind) *usecase.AppError {
	t.Helper()
	require.Error(t, err)
	ae, ok := usecase.AsAppError(err)
	require.Truef(t, ok, "not an AppError: %v", err)
	assert.Equal(t, kind, ae.Kind)
	return ae
}

func (f *fixture) seedProduct(id int64, name, price string, stock int64, category *int64) {
	f.store.addProduct(model.Product{ID: id, Name: name, Price: money(price), Stock: stock, CategoryID: category})
}

func (f *fixture) add(t *testing.T, userID, productID, qty int64) pricing.PricedCart {
	t.Helper()
	out, err := f.cart.AddItem(context.Background(), userID, usecase.AddCartItemInput{ProductID: productID, Quantity: qty})
	require.NoError(t, err)
	return out
}

package usecase_test

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"shopcart/internal/domain/model"
	repo "shopcart/internal/repository"

	"github.com/shopspring/decimal"
)

// memStore はトランザクション付きのインメモリ実装。
// WithinTx は全体を1つのロックで直列化し、エラー時はスナップショットに戻す。
type memStore struct {
	mu sync.Mutex

	products    map[int64]model.Product
	categories  map[int64]model.Category
	carts       map[int64]model.Cart
	cartItems   map[int64][]model.CartItem
	rules       map[int64]model.DiscountRule
	orders      []model.Order
	orderItems  []model.OrderItem
	adjustments []model.InventoryAdjustment
	audits      []model.AuditLog
	nextID      int64

	// 注文・監査ログの作成で返すエラー（ロールバック確認用）
	failCreateOrder error
	failCreateAudit error

	// 在庫・使用回数を更新した順（"stock:1", "usage:50"）
	writes []string
}

func newMemStore() *memStore {
	return &memStore{
		products:   map[int64]model.Product{},
		categories: map[int64]model.Category{},
		carts:      map[int64]model.Cart{},
		cartItems:  map[int64][]model.CartItem{},
		rules:      map[int64]model.DiscountRule{},
		nextID:     1000,
	}
}

type memSnapshot struct {
	products    map[int64]model.Product
	carts       map[int64]model.Cart
	cartItems   map[int64][]model.CartItem
	rules       map[int64]model.DiscountRule
	orders      []model.Order
	orderItems  []model.OrderItem
	adjustments []model.InventoryAdjustment
	audits      []model.AuditLog
	nextID      int64
}

func (s *memStore) snapshot() memSnapshot {
	items := make(map[int64][]model.CartItem, len(s.cartItems))
	for k, v := range s.cartItems {
		items[k] = slices.Clone(v)
	}
	return memSnapshot{
		products:    maps.Clone(s.products),
		carts:       maps.Clone(s.carts),
		cartItems:   items,
		rules:       maps.Clone(s.rules),
		orders:      slices.Clone(s.orders),
		orderItems:  slices.Clone(s.orderItems),
		adjustments: slices.Clone(s.adjustments),
		audits:      slices.Clone(s.audits),
		nextID:      s.nextID,
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.products = snap.products
	s.carts = snap.carts
	s.cartItems = snap.cartItems
	s.rules = snap.rules
	s.orders = snap.orders
	s.orderItems = snap.orderItems
	s.adjustments = snap.adjustments
	s.audits = snap.audits
	s.nextID = snap.nextID
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(&memRepos{s: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// locked はトランザクション外から使う口。
func (s *memStore) locked() *memRepos {
	return &memRepos{s: s, locked: true}
}

// =====================
// seed / read helpers（テストから直接読む）
// =====================

func (s *memStore) addProduct(p model.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

func (s *memStore) addCategory(c model.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = c
}

func (s *memStore) addRule(r model.DiscountRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[r.ID] = r
}

func (s *memStore) stock(productID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[productID].Stock
}

func (s *memStore) uses(ruleID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rules[ruleID].CurrentUses
}

func (s *memStore) itemsOf(userID int64) []model.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.carts {
		if c.UserID == userID {
			return slices.Clone(s.cartItems[c.ID])
		}
	}
	return nil
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *memStore) setCartUpdatedAt(userID int64, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.carts {
		if c.UserID == userID {
			c.UpdatedAt = at
			s.carts[id] = c
		}
	}
}

// =====================
// repositories
// =====================

type memRepos struct {
	s      *memStore
	locked bool
}

func (r *memRepos) lock() func() {
	if !r.locked {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

func (r *memRepos) Orders() repo.OrderRepository               { return memOrders{r} }
func (r *memRepos) OrderItems() repo.OrderItemRepository       { return memOrderItems{r} }
func (r *memRepos) Carts() repo.CartRepository                 { return r }
func (r *memRepos) CartItems() repo.CartItemRepository         { return r }
func (r *memRepos) Inventory() repo.InventoryRepository        { return r }
func (r *memRepos) Products() repo.ProductRepository           { return r }
func (r *memRepos) DiscountRules() repo.DiscountRuleRepository { return memRules{r} }
func (r *memRepos) Categories() repo.CategoryRepository        { return memCategories{r} }
func (r *memRepos) AuditLogs() repo.AuditLogRepository         { return memAudits{r} }

// product

func (r *memRepos) FindByID(ctx context.Context, id int64) (model.Product, error) {
	defer r.lock()()
	p, ok := r.s.products[id]
	if !ok || p.DeletedAt.Valid {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

// inventory

func (r *memRepos) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	defer r.lock()()
	r.s.writes = append(r.s.writes, fmt.Sprintf("stock:%d", productID))
	p, ok := r.s.products[productID]
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	r.s.products[productID] = p
	return true, nil
}

func (r *memRepos) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	defer r.lock()()
	adj.ID = r.s.id()
	r.s.adjustments = append(r.s.adjustments, adj)
	return nil
}

// cart

func (r *memRepos) cartOf(userID int64) (model.Cart, bool) {
	for _, c := range r.s.carts {
		if c.UserID == userID {
			return c, true
		}
	}
	return model.Cart{}, false
}

func (r *memRepos) GetOrCreateByUserID(ctx context.Context, userID int64, now time.Time) (model.Cart, error) {
	defer r.lock()()
	if c, ok := r.cartOf(userID); ok {
		return c, nil
	}
	c := model.Cart{ID: r.s.id(), UserID: userID, CreatedAt: now, UpdatedAt: now}
	r.s.carts[c.ID] = c
	return c, nil
}

func (r *memRepos) FindByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	defer r.lock()()
	if c, ok := r.cartOf(userID); ok {
		return c, nil
	}
	return model.Cart{}, repo.ErrNotFound
}

func (r *memRepos) FindByUserIDForUpdate(ctx context.Context, userID int64) (model.Cart, error) {
	return r.FindByUserID(ctx, userID)
}

func (r *memRepos) Touch(ctx context.Context, cartID int64, now time.Time) error {
	defer r.lock()()
	c, ok := r.s.carts[cartID]
	if !ok {
		return repo.ErrNotFound
	}
	c.UpdatedAt = now
	r.s.carts[cartID] = c
	return nil
}

func (r *memRepos) Clear(ctx context.Context, cartID int64) error {
	defer r.lock()()
	delete(r.s.cartItems, cartID)
	return nil
}

// cart items

func (r *memRepos) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	defer r.lock()()
	items := slices.Clone(r.s.cartItems[cartID])
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	if items == nil {
		items = []model.CartItem{}
	}
	return items, nil
}

func (r *memRepos) UpsertByCartAndProduct(ctx context.Context, cartID int64, productID int64, addQty int64, snapshot decimal.Decimal) error {
	defer r.lock()()
	items := r.s.cartItems[cartID]
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity += addQty
			return nil
		}
	}
	r.s.cartItems[cartID] = append(items, model.CartItem{
		ID:                r.s.id(),
		CartID:            cartID,
		ProductID:         productID,
		Quantity:          addQty,
		UnitPriceSnapshot: snapshot,
	})
	return nil
}

func (r *memRepos) UpdateQuantity(ctx context.Context, cartID int64, productID int64, qty int64, snapshot decimal.Decimal) error {
	defer r.lock()()
	items := r.s.cartItems[cartID]
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity = qty
			items[i].UnitPriceSnapshot = snapshot
			return nil
		}
	}
	return repo.ErrNotFound
}

func (r *memRepos) DeleteByCartAndProduct(ctx context.Context, cartID int64, productID int64) error {
	defer r.lock()()
	items := r.s.cartItems[cartID]
	for i := range items {
		if items[i].ProductID == productID {
			r.s.cartItems[cartID] = slices.Delete(slices.Clone(items), i, i+1)
			return nil
		}
	}
	return repo.ErrNotFound
}

// orders

type memOrderItems struct{ r *memRepos }

func (m memOrderItems) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	defer m.r.lock()()
	for i := range items {
		items[i].ID = m.r.s.id()
		items[i].OrderID = orderID
	}
	m.r.s.orderItems = append(m.r.s.orderItems, items...)
	return nil
}

func (m memOrderItems) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	defer m.r.lock()()
	out := []model.OrderItem{}
	for _, it := range m.r.s.orderItems {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	return out, nil
}

type memOrders struct{ r *memRepos }

func (m memOrders) Create(ctx context.Context, o model.Order) (model.Order, error) {
	defer m.r.lock()()
	if m.r.s.failCreateOrder != nil {
		return model.Order{}, m.r.s.failCreateOrder
	}
	o.ID = m.r.s.id()
	o.CreatedAt = time.Now()
	m.r.s.orders = append(m.r.s.orders, o)
	return o, nil
}

func (m memOrders) FindByID(ctx context.Context, id int64) (model.Order, error) {
	defer m.r.lock()()
	for _, o := range m.r.s.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return model.Order{}, repo.ErrNotFound
}

func (m memOrders) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	defer m.r.lock()()
	var mine []model.Order
	for i := len(m.r.s.orders) - 1; i >= 0; i-- {
		if m.r.s.orders[i].UserID == userID {
			mine = append(mine, m.r.s.orders[i])
		}
	}
	total := int64(len(mine))
	start := (page - 1) * limit
	if start >= len(mine) {
		return []model.Order{}, total, nil
	}
	end := min(start+limit, len(mine))
	return mine[start:end], total, nil
}

// discount rules

type memRules struct{ r *memRepos }

func (m memRules) sorted(keep func(model.DiscountRule) bool) []model.DiscountRule {
	out := []model.DiscountRule{}
	for _, rule := range m.r.s.rules {
		if keep(rule) {
			out = append(out, rule)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (m memRules) Create(ctx context.Context, rule model.DiscountRule) (model.DiscountRule, error) {
	defer m.r.lock()()
	rule.ID = m.r.s.id()
	m.r.s.rules[rule.ID] = rule
	return rule, nil
}

func (m memRules) FindByID(ctx context.Context, id int64) (model.DiscountRule, error) {
	defer m.r.lock()()
	rule, ok := m.r.s.rules[id]
	if !ok {
		return model.DiscountRule{}, repo.ErrNotFound
	}
	return rule, nil
}

func (m memRules) List(ctx context.Context, f repo.DiscountRuleFilter) ([]model.DiscountRule, error) {
	defer m.r.lock()()
	return m.sorted(func(rule model.DiscountRule) bool {
		if f.Type != nil && rule.Type != *f.Type {
			return false
		}
		if f.Active != nil && rule.Active != *f.Active {
			return false
		}
		if f.ProductID != nil && (rule.ProductID == nil || *rule.ProductID != *f.ProductID) {
			return false
		}
		if f.CategoryID != nil && (rule.CategoryID == nil || *rule.CategoryID != *f.CategoryID) {
			return false
		}
		return true
	}), nil
}

func (m memRules) Update(ctx context.Context, rule model.DiscountRule) error {
	defer m.r.lock()()
	cur, ok := m.r.s.rules[rule.ID]
	if !ok {
		return repo.ErrNotFound
	}
	rule.CurrentUses = cur.CurrentUses
	m.r.s.rules[rule.ID] = rule
	return nil
}

func (m memRules) Delete(ctx context.Context, id int64) error {
	defer m.r.lock()()
	if _, ok := m.r.s.rules[id]; !ok {
		return repo.ErrNotFound
	}
	delete(m.r.s.rules, id)
	return nil
}

func (m memRules) ListEligible(ctx context.Context, now time.Time) ([]model.DiscountRule, error) {
	defer m.r.lock()()
	return m.sorted(func(rule model.DiscountRule) bool { return rule.IsEligible(now) }), nil
}

func (m memRules) ListActive(ctx context.Context) ([]model.DiscountRule, error) {
	defer m.r.lock()()
	return m.sorted(func(rule model.DiscountRule) bool { return rule.Active && rule.RemainingUses() != 0 }), nil
}

func (m memRules) IncrementUsage(ctx context.Context, id int64, n int64) (bool, error) {
	defer m.r.lock()()
	m.r.s.writes = append(m.r.s.writes, fmt.Sprintf("usage:%d", id))
	rule, ok := m.r.s.rules[id]
	if !ok {
		return false, nil
	}
	if rule.MaxUses != nil && rule.CurrentUses+n > *rule.MaxUses {
		return false, nil
	}
	rule.CurrentUses += n
	m.r.s.rules[id] = rule
	return true, nil
}

// categories

type memCategories struct{ r *memRepos }

func (m memCategories) FindByID(ctx context.Context, id int64) (model.Category, error) {
	defer m.r.lock()()
	c, ok := m.r.s.categories[id]
	if !ok {
		return model.Category{}, repo.ErrNotFound
	}
	return c, nil
}

// audit logs

type memAudits struct{ r *memRepos }

func (m memAudits) Create(ctx context.Context, log model.AuditLog) error {
	defer m.r.lock()()
	if m.r.s.failCreateAudit != nil {
		return m.r.s.failCreateAudit
	}
	log.ID = m.r.s.id()
	m.r.s.audits = append(m.r.s.audits, log)
	return nil
}

func (m memAudits) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	defer m.r.lock()()
	out := []model.AuditLog{}
	for i := len(m.r.s.audits) - 1; i >= 0; i-- {
		a := m.r.s.audits[i]
		if f.ResourceType != nil && a.ResourceType != *f.ResourceType {
			continue
		}
		if f.ResourceID != nil && a.ResourceID != *f.ResourceID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

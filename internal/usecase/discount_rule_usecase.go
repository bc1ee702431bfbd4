package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"shopcart/internal/domain/discount"
	"shopcart/internal/domain/model"
	"shopcart/internal/pricing"
	repo "shopcart/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DiscountRuleUsecase は割引ルールの管理（管理者向け）。
// 書き込みと監査ログは同じトランザクションで行い、確定後にルールのキャッシュを捨てる。
type DiscountRuleUsecase struct {
	tx          repo.TransactionManager
	rules       repo.DiscountRuleRepository
	products    repo.ProductRepository
	categories  repo.CategoryRepository
	audit       repo.AuditLogRepository
	eligible    pricing.RuleLister
	invalidator RuleInvalidator
	pricer      *pricing.Pricer
	now         func() time.Time
	log         *zap.Logger
}

func NewDiscountRuleUsecase(
	tx repo.TransactionManager,
	rules repo.DiscountRuleRepository,
	products repo.ProductRepository,
	categories repo.CategoryRepository,
	audit repo.AuditLogRepository,
	eligible pricing.RuleLister,
	invalidator RuleInvalidator,
	pricer *pricing.Pricer,
	now func() time.Time,
	log *zap.Logger,
) *DiscountRuleUsecase {
	return &DiscountRuleUsecase{
		tx:          tx,
		rules:       rules,
		products:    products,
		categories:  categories,
		audit:       audit,
		eligible:    eligible,
		invalidator: invalidator,
		pricer:      pricer,
		now:         now,
		log:         log,
	}
}

// DiscountRuleInput は作成・部分更新の入力。nil は「指定なし」。
// 更新で対象を商品⇔カテゴリに切り替えるときは、指定しなかった側を外す。
// 任意項目を外すときは Clear に JSON 名を並べる（例: ["max_uses", "end_date"]）。
type DiscountRuleInput struct {
	Name         *string             `json:"name"`
	Description  *string             `json:"description"`
	Type         *model.DiscountType `json:"type"`
	ProductID    *int64              `json:"product_id"`
	CategoryID   *int64              `json:"category_id"`
	Percentage   *decimal.Decimal    `json:"percentage"`
	FixedAmount  *decimal.Decimal    `json:"fixed_amount"`
	BuyQuantity  *int64              `json:"buy_quantity"`
	GetQuantity  *int64              `json:"get_quantity"`
	MinCartValue *decimal.Decimal    `json:"min_cart_value"`
	MinQuantity  *int64              `json:"min_quantity"`
	MaxDiscount  *decimal.Decimal    `json:"max_discount"`
	MaxUses      *int64              `json:"max_uses"`
	StartDate    *time.Time          `json:"start_date"`
	EndDate      *time.Time          `json:"end_date"`
	Priority     *int                `json:"priority"`
	Active       *bool               `json:"active"`
	Clear        []string            `json:"clear"`
}

// Clear で外せる項目。
var clearableFields = map[string]func(r *model.DiscountRule){
	"min_cart_value": func(r *model.DiscountRule) { r.MinCartValue = decimal.NullDecimal{} },
	"min_quantity":   func(r *model.DiscountRule) { r.MinQuantity = nil },
	"max_discount":   func(r *model.DiscountRule) { r.MaxDiscount = decimal.NullDecimal{} },
	"max_uses":       func(r *model.DiscountRule) { r.MaxUses = nil },
	"start_date":     func(r *model.DiscountRule) { r.StartDate = nil },
	"end_date":       func(r *model.DiscountRule) { r.EndDate = nil },
}

// checkClear は未知の項目と、同時に値も指定された項目を返す。
func (in DiscountRuleInput) checkClear() []string {
	set := map[string]bool{
		"min_cart_value": in.MinCartValue != nil,
		"min_quantity":   in.MinQuantity != nil,
		"max_discount":   in.MaxDiscount != nil,
		"max_uses":       in.MaxUses != nil,
		"start_date":     in.StartDate != nil,
		"end_date":       in.EndDate != nil,
	}
	var problems []string
	for _, name := range in.Clear {
		if _, ok := clearableFields[name]; !ok {
			problems = append(problems, "cannot clear "+name)
			continue
		}
		if set[name] {
			problems = append(problems, name+" cannot be set and cleared together")
		}
	}
	return problems
}

func (in DiscountRuleInput) applyTo(r *model.DiscountRule) {
	if in.Name != nil {
		r.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		r.Description = *in.Description
	}
	if in.Type != nil {
		r.Type = *in.Type
	}
	if in.ProductID != nil {
		r.ProductID = in.ProductID
		if in.CategoryID == nil {
			r.CategoryID = nil
		}
	}
	if in.CategoryID != nil {
		r.CategoryID = in.CategoryID
		if in.ProductID == nil {
			r.ProductID = nil
		}
	}
	if in.Percentage != nil {
		r.Percentage = *in.Percentage
	}
	if in.FixedAmount != nil {
		r.FixedAmount = *in.FixedAmount
	}
	if in.BuyQuantity != nil {
		r.BuyQuantity = in.BuyQuantity
	}
	if in.GetQuantity != nil {
		r.GetQuantity = in.GetQuantity
	}
	if in.MinCartValue != nil {
		r.MinCartValue = decimal.NewNullDecimal(*in.MinCartValue)
	}
	if in.MinQuantity != nil {
		r.MinQuantity = in.MinQuantity
	}
	if in.MaxDiscount != nil {
		r.MaxDiscount = decimal.NewNullDecimal(*in.MaxDiscount)
	}
	if in.MaxUses != nil {
		r.MaxUses = in.MaxUses
	}
	if in.StartDate != nil {
		r.StartDate = in.StartDate
	}
	if in.EndDate != nil {
		r.EndDate = in.EndDate
	}
	if in.Priority != nil {
		r.Priority = *in.Priority
	}
	if in.Active != nil {
		r.Active = *in.Active
	}
	for _, name := range in.Clear {
		if reset, ok := clearableFields[name]; ok {
			reset(r)
		}
	}
}

// Create はルールを検証して保存する。不備はまとめて ValidationError で返す。
func (u *DiscountRuleUsecase) Create(ctx context.Context, adminUserID int64, in DiscountRuleInput) (model.DiscountRule, error) {
	if adminUserID <= 0 {
		return model.DiscountRule{}, NewUnauthorizedError()
	}

	if problems := in.checkClear(); len(problems) > 0 {
		return model.DiscountRule{}, NewValidationError("invalid discount rule", problems...)
	}

	rule := model.DiscountRule{Active: true}
	in.applyTo(&rule)

	if err := u.check(ctx, rule); err != nil {
		return model.DiscountRule{}, err
	}

	var created model.DiscountRule
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		c, err := r.DiscountRules().Create(ctx, rule)
		if err != nil {
			return NewStorageError(err)
		}
		created = c
		return u.record(ctx, r.AuditLogs(), adminUserID, model.AuditActionCreateDiscountRule, c.ID, nil, &c)
	})
	if err != nil {
		return model.DiscountRule{}, err
	}

	u.invalidate(ctx)
	return created, nil
}

func (u *DiscountRuleUsecase) Get(ctx context.Context, id int64) (model.DiscountRule, error) {
	if id <= 0 {
		return model.DiscountRule{}, NewValidationError("invalid id")
	}
	return u.find(ctx, id)
}

func (u *DiscountRuleUsecase) List(ctx context.Context, filter repo.DiscountRuleFilter) ([]model.DiscountRule, error) {
	if filter.Type != nil && !filter.Type.Valid() {
		return nil, NewValidationError("invalid type")
	}
	rules, err := u.rules.List(ctx, filter)
	if err != nil {
		return nil, NewStorageError(err)
	}
	return rules, nil
}

// Update は指定された項目だけを変更する。current_uses は変更できない。
func (u *DiscountRuleUsecase) Update(ctx context.Context, adminUserID int64, id int64, in DiscountRuleInput) (model.DiscountRule, error) {
	if adminUserID <= 0 {
		return model.DiscountRule{}, NewUnauthorizedError()
	}
	if id <= 0 {
		return model.DiscountRule{}, NewValidationError("invalid id")
	}

	if problems := in.checkClear(); len(problems) > 0 {
		return model.DiscountRule{}, NewValidationError("invalid discount rule", problems...)
	}

	before, err := u.find(ctx, id)
	if err != nil {
		return model.DiscountRule{}, err
	}

	after := before
	in.applyTo(&after)

	if err := u.check(ctx, after); err != nil {
		return model.DiscountRule{}, err
	}

	var updated model.DiscountRule
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		err := r.DiscountRules().Update(ctx, after)
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFoundError("discount rule not found")
		}
		if err != nil {
			return NewStorageError(err)
		}

		// updated_at などDB側の値を返す
		got, err := r.DiscountRules().FindByID(ctx, id)
		if err != nil {
			return NewStorageError(err)
		}
		updated = got
		return u.record(ctx, r.AuditLogs(), adminUserID, model.AuditActionUpdateDiscountRule, id, &before, &got)
	})
	if err != nil {
		return model.DiscountRule{}, err
	}

	u.invalidate(ctx)
	return updated, nil
}

func (u *DiscountRuleUsecase) Remove(ctx context.Context, adminUserID int64, id int64) error {
	if adminUserID <= 0 {
		return NewUnauthorizedError()
	}
	if id <= 0 {
		return NewValidationError("invalid id")
	}

	before, err := u.find(ctx, id)
	if err != nil {
		return err
	}

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		err := r.DiscountRules().Delete(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFoundError("discount rule not found")
		}
		if err != nil {
			return NewStorageError(err)
		}
		return u.record(ctx, r.AuditLogs(), adminUserID, model.AuditActionDeleteDiscountRule, id, &before, nil)
	})
	if err != nil {
		return err
	}

	u.invalidate(ctx)
	return nil
}

// History はルールの監査ログ（新しい順）。
func (u *DiscountRuleUsecase) History(ctx context.Context, id int64, limit, offset int) ([]model.AuditLog, error) {
	if id <= 0 {
		return nil, NewValidationError("invalid id")
	}
	resource := model.AuditResourceDiscountRule
	logs, err := u.audit.List(ctx, repo.AuditLogFilter{
		ResourceType: &resource,
		ResourceID:   &id,
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		return nil, NewStorageError(err)
	}
	return logs, nil
}

func (u *DiscountRuleUsecase) Suggestions() []discount.Suggestion {
	return discount.Suggestions()
}

type ApplicableItem struct {
	ProductID  int64           `json:"product_id"`
	CategoryID *int64          `json:"category_id"`
	Quantity   int64           `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
}

type ApplicableInput struct {
	Items     []ApplicableItem `json:"cart_items"`
	CartTotal decimal.Decimal  `json:"cart_total"`
}

// ListApplicable は渡された明細と合計に対して割引になる有効ルールを返す。
// カテゴリ未指定の明細は商品から補う。
func (u *DiscountRuleUsecase) ListApplicable(ctx context.Context, in ApplicableInput) ([]pricing.ApplicableRule, error) {
	if len(in.Items) == 0 {
		return nil, NewValidationError("cart_items is required")
	}
	if in.CartTotal.IsNegative() {
		return nil, NewValidationError("cart_total must not be negative")
	}

	lines := make([]discount.Line, 0, len(in.Items))
	for _, it := range in.Items {
		if it.ProductID <= 0 {
			return nil, NewValidationError("invalid product_id")
		}
		if it.Quantity < 1 {
			return nil, NewValidationError("quantity must be a positive integer")
		}
		if it.Price.IsNegative() {
			return nil, NewValidationError("price must not be negative")
		}

		line := discount.Line{
			ProductID:    it.ProductID,
			Quantity:     it.Quantity,
			PaidQuantity: it.Quantity,
			UnitPrice:    it.Price,
		}
		if it.CategoryID != nil {
			line.CategoryID = *it.CategoryID
		} else {
			p, err := u.products.FindByID(ctx, it.ProductID)
			if err != nil && !errors.Is(err, repo.ErrNotFound) {
				return nil, NewStorageError(err)
			}
			if err == nil && p.CategoryID != nil {
				line.CategoryID = *p.CategoryID
			}
		}
		lines = append(lines, line)
	}

	rules, err := u.eligible.ListEligible(ctx, u.now())
	if err != nil {
		return nil, NewStorageError(err)
	}
	return pricing.Applicable(rules, lines, in.CartTotal), nil
}

type CalculateItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type CalculateInput struct {
	Items []CalculateItem `json:"items"`
}

// Calculate は任意の明細を今の価格とルールで試算する。何も書き込まない。
func (u *DiscountRuleUsecase) Calculate(ctx context.Context, in CalculateInput) (pricing.PricedCart, error) {
	if len(in.Items) == 0 {
		return pricing.PricedCart{}, NewValidationError("items is required")
	}

	items := make([]model.CartItem, 0, len(in.Items))
	for _, it := range in.Items {
		if it.ProductID <= 0 {
			return pricing.PricedCart{}, NewValidationError("invalid product_id")
		}
		if it.Quantity < 1 {
			return pricing.PricedCart{}, NewValidationError("quantity must be a positive integer")
		}
		p, err := findProduct(ctx, u.products, it.ProductID)
		if err != nil {
			return pricing.PricedCart{}, err
		}
		items = append(items, model.CartItem{ProductID: p.ID, Quantity: it.Quantity, UnitPriceSnapshot: p.Price})
	}

	priced, err := u.pricer.Price(ctx, u.eligible, u.products, items)
	if err != nil {
		return pricing.PricedCart{}, NewStorageError(err)
	}
	return priced, nil
}

func (u *DiscountRuleUsecase) find(ctx context.Context, id int64) (model.DiscountRule, error) {
	r, err := u.rules.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.DiscountRule{}, NewNotFoundError("discount rule not found")
	}
	if err != nil {
		return model.DiscountRule{}, NewStorageError(err)
	}
	return r, nil
}

// check は設定の検証と、対象の商品・カテゴリの存在確認。
func (u *DiscountRuleUsecase) check(ctx context.Context, r model.DiscountRule) error {
	if problems := discount.Validate(r); len(problems) > 0 {
		return NewValidationError("invalid discount rule", problems...)
	}

	if r.ProductID != nil {
		if _, err := findProduct(ctx, u.products, *r.ProductID); err != nil {
			return err
		}
	}
	if r.CategoryID != nil {
		_, err := u.categories.FindByID(ctx, *r.CategoryID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFoundError("category not found")
		}
		if err != nil {
			return NewStorageError(err)
		}
	}
	return nil
}

func (u *DiscountRuleUsecase) invalidate(ctx context.Context) {
	if u.invalidator != nil {
		u.invalidator.Invalidate(ctx)
	}
}

// 監査ログ。「誰が」「何を」「どの対象に」「どう変えたか」を残す。
func (u *DiscountRuleUsecase) record(ctx context.Context, audit repo.AuditLogRepository, actor int64, action model.AuditAction, id int64, before, after *model.DiscountRule) error {
	beforeJSON, err := marshalRule(before)
	if err != nil {
		return NewStorageError(err)
	}
	afterJSON, err := marshalRule(after)
	if err != nil {
		return NewStorageError(err)
	}

	if err := audit.Create(ctx, model.AuditLog{
		ActorUserID:  actor,
		Action:       action,
		ResourceType: model.AuditResourceDiscountRule,
		ResourceID:   id,
		BeforeJSON:   beforeJSON,
		AfterJSON:    afterJSON,
		CreatedAt:    u.now(),
	}); err != nil {
		u.log.Error("audit log write failed", zap.String("action", string(action)), zap.Int64("rule_id", id), zap.Error(err))
		return NewStorageError(err)
	}
	return nil
}

func marshalRule(r *model.DiscountRule) (string, error) {
	if r == nil {
		return "", nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

package repository

import (
	"context"
	"time"

	"shopcart/internal/domain/model"
	repo "shopcart/internal/repository"

	"gorm.io/gorm"
)

type DiscountRuleGormRepository struct {
	db *gorm.DB
}

func NewDiscountRuleGormRepository(db *gorm.DB) *DiscountRuleGormRepository {
	return &DiscountRuleGormRepository{db: db}
}

// priority降順 → 新しい順 → id降順
func byPriority(q *gorm.DB) *gorm.DB {
	return q.Order("priority desc").Order("created_at desc").Order("id desc")
}

func (r *DiscountRuleGormRepository) Create(ctx context.Context, rule model.DiscountRule) (model.DiscountRule, error) {
	if err := r.db.WithContext(ctx).Create(&rule).Error; err != nil {
		return model.DiscountRule{}, translate(err)
	}
	return rule, nil
}

func (r *DiscountRuleGormRepository) FindByID(ctx context.Context, id int64) (model.DiscountRule, error) {
	var rule model.DiscountRule
	if err := r.db.WithContext(ctx).First(&rule, id).Error; err != nil {
		return model.DiscountRule{}, translate(err)
	}
	return rule, nil
}

func (r *DiscountRuleGormRepository) List(ctx context.Context, filter repo.DiscountRuleFilter) ([]model.DiscountRule, error) {
	q := r.db.WithContext(ctx).Model(&model.DiscountRule{})

	if filter.Type != nil {
		q = q.Where("type = ?", *filter.Type)
	}
	if filter.Active != nil {
		q = q.Where("active = ?", *filter.Active)
	}
	if filter.ProductID != nil {
		q = q.Where("product_id = ?", *filter.ProductID)
	}
	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}

	var rules []model.DiscountRule
	if err := byPriority(q).Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// 全カラムを書き換える。current_uses はチェックアウトだけが動かすので触らない。
func (r *DiscountRuleGormRepository) Update(ctx context.Context, rule model.DiscountRule) error {
	res := r.db.WithContext(ctx).
		Model(&model.DiscountRule{}).
		Where("id = ?", rule.ID).
		Select("*").
		Omit("id", "created_at", "current_uses").
		Updates(&rule)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *DiscountRuleGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.DiscountRule{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *DiscountRuleGormRepository) ListEligible(ctx context.Context, now time.Time) ([]model.DiscountRule, error) {
	q := r.db.WithContext(ctx).
		Where("active = ?", true).
		Where("start_date IS NULL OR start_date <= ?", now).
		Where("end_date IS NULL OR end_date >= ?", now).
		Where("max_uses IS NULL OR current_uses < max_uses")

	var rules []model.DiscountRule
	if err := byPriority(q).Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *DiscountRuleGormRepository) ListActive(ctx context.Context) ([]model.DiscountRule, error) {
	q := r.db.WithContext(ctx).
		Where("active = ?", true).
		Where("max_uses IS NULL OR current_uses < max_uses")

	var rules []model.DiscountRule
	if err := byPriority(q).Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// 上限チェックと加算を同じUPDATE文で行う
func (r *DiscountRuleGormRepository) IncrementUsage(ctx context.Context, id int64, n int64) (bool, error) {
	if n <= 0 {
		return true, nil
	}
	res := r.db.WithContext(ctx).
		Model(&model.DiscountRule{}).
		Where("id = ?", id).
		Where("max_uses IS NULL OR current_uses + ? <= max_uses", n).
		Update("current_uses", gorm.Expr("current_uses + ?", n))

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

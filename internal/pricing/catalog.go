// Package pricing はカートの価格計算と、計算に使う割引ルールの取得をまとめる。
package pricing

import (
	"context"
	"errors"
	"time"

	"shopcart/internal/domain/model"
	repo "shopcart/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// RuleLister は now 時点で評価対象の割引ルールを priority 順に返す。
type RuleLister interface {
	ListEligible(ctx context.Context, now time.Time) ([]model.DiscountRule, error)
}

// RuleSource は有効で使用上限に達していないルールを、期間に関係なく priority 順に返す。
type RuleSource interface {
	ListActive(ctx context.Context) ([]model.DiscountRule, error)
}

// RuleCache は RuleSource の結果を置く。無いときは repo.ErrCacheMiss を返す。
type RuleCache interface {
	Get(ctx context.Context) ([]model.DiscountRule, error)
	Set(ctx context.Context, rules []model.DiscountRule) error
	Invalidate(ctx context.Context) error
}

// Catalog は RuleSource をキャッシュ付きで包み、読むたびに now で期間を判定する。
// キャッシュ中に開始日を迎えたルールもTTLを待たずに対象になる。
type Catalog struct {
	source RuleSource
	cache  RuleCache
	group  singleflight.Group
	log    *zap.Logger
}

// cache は nil でもよい（毎回 source を読む）。
func NewCatalog(source RuleSource, c RuleCache, log *zap.Logger) *Catalog {
	return &Catalog{source: source, cache: c, log: log}
}

func (c *Catalog) ListEligible(ctx context.Context, now time.Time) ([]model.DiscountRule, error) {
	if c.cache != nil {
		rules, err := c.cache.Get(ctx)
		if err == nil {
			return filterEligible(rules, now), nil
		}
		if !errors.Is(err, repo.ErrCacheMiss) {
			c.log.Warn("rule cache read failed", zap.Error(err))
		}
	}

	// 相乗りした呼び出しがあるので、最初の呼び出し元のキャンセルでは止めない
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do("active", func() (any, error) {
		rules, err := c.source.ListActive(loadCtx)
		if err != nil {
			return nil, err
		}
		if c.cache != nil {
			if err := c.cache.Set(loadCtx, rules); err != nil {
				c.log.Warn("rule cache write failed", zap.Error(err))
			}
		}
		return rules, nil
	})
	if err != nil {
		return nil, err
	}
	return filterEligible(v.([]model.DiscountRule), now), nil
}

// Invalidate はキャッシュを捨てる。失敗してもTTLで消えるのでログだけ残す。
func (c *Catalog) Invalidate(ctx context.Context) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Invalidate(ctx); err != nil {
		c.log.Warn("rule cache invalidate failed", zap.Error(err))
	}
}

func filterEligible(rules []model.DiscountRule, now time.Time) []model.DiscountRule {
	out := make([]model.DiscountRule, 0, len(rules))
	for _, r := range rules {
		if r.IsEligible(now) {
			out = append(out, r)
		}
	}
	return out
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shopcart/internal/domain/model"
	repo "shopcart/internal/repository"

	"github.com/redis/go-redis/v9"
)

const activeRulesKey = "discount_rules:active"

// RuleCache は有効な割引ルール一覧をRedisに短時間だけ置く。期間での絞り込みは読む側で行う。
// 書き込み系の操作とチェックアウトのcommit後に Invalidate する。
type RuleCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRuleCache(client *redis.Client, ttl time.Duration) *RuleCache {
	return &RuleCache{client: client, ttl: ttl}
}

func (c *RuleCache) Get(ctx context.Context) ([]model.DiscountRule, error) {
	data, err := c.client.Get(ctx, activeRulesKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repo.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var rules []model.DiscountRule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("unmarshal rules failed: %w", err)
	}
	return rules, nil
}

func (c *RuleCache) Set(ctx context.Context, rules []model.DiscountRule) error {
	data, err := json.Marshal(rules)
	if err != nil {
		return fmt.Errorf("marshal rules failed: %w", err)
	}
	if err := c.client.Set(ctx, activeRulesKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *RuleCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, activeRulesKey).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

package cache

import (
	"context"
	"testing"
	"time"

	"shopcart/internal/domain/model"
	repo "shopcart/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRuleCache(t *testing.T) (*RuleCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRuleCache(client, 30*time.Second), mr
}

func TestRuleCache_GetMiss(t *testing.T) {
	c, _ := setupRuleCache(t)

	_, err := c.Get(context.Background())
	assert.ErrorIs(t, err, repo.ErrCacheMiss)
}

func TestRuleCache_SetThenGet(t *testing.T) {
	c, _ := setupRuleCache(t)
	ctx := context.Background()

	pid := int64(7)
	maxUses := int64(10)
	rules := []model.DiscountRule{
		{
			ID:          1,
			Name:        "summer",
			Type:        model.DiscountTypePercentProduct,
			ProductID:   &pid,
			Percentage:  decimal.RequireFromString("12.5"),
			MaxDiscount: decimal.NewNullDecimal(decimal.NewFromInt(50)),
			MaxUses:     &maxUses,
			CurrentUses: 3,
			Priority:    5,
			Active:      true,
		},
	}

	require.NoError(t, c.Set(ctx, rules))

	got, err := c.Get(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "summer", got[0].Name)
	assert.Equal(t, int64(7), *got[0].ProductID)
	assert.True(t, got[0].Percentage.Equal(decimal.RequireFromString("12.5")))
	assert.True(t, got[0].MaxDiscount.Valid)
	assert.False(t, got[0].MinCartValue.Valid)
	assert.Equal(t, int64(3), got[0].CurrentUses)
}

func TestRuleCache_Expires(t *testing.T) {
	c, mr := setupRuleCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, []model.DiscountRule{{ID: 1, Name: "x"}}))
	mr.FastForward(31 * time.Second)

	_, err := c.Get(ctx)
	assert.ErrorIs(t, err, repo.ErrCacheMiss)
}

func TestRuleCache_Invalidate(t *testing.T) {
	c, mr := setupRuleCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, []model.DiscountRule{{ID: 1, Name: "x"}}))
	require.True(t, mr.Exists(activeRulesKey))

	require.NoError(t, c.Invalidate(ctx))
	assert.False(t, mr.Exists(activeRulesKey))
}

func TestRuleCache_CorruptedValue(t *testing.T) {
	c, mr := setupRuleCache(t)

	require.NoError(t, mr.Set(activeRulesKey, "not-json"))

	_, err := c.Get(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, repo.ErrCacheMiss)
}

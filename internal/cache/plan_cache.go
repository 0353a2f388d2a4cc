package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"paygate_backend/internal/logger"
	"paygate_backend/internal/models"
	"paygate_backend/internal/services"
)

const planTTL = 5 * time.Minute

// PlanCache is a read-through redis cache in front of the plan repository.
// The webhook hits the catalog on every amount check, so plan rows are the
// one hot read in the system.
type PlanCache struct {
	source services.PlanSource
	rdb    *redis.Client
	prefix string
}

func NewPlanCache(source services.PlanSource, addr, password string, db int) (*PlanCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     20,
		MinIdleConns: 5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &PlanCache{source: source, rdb: rdb, prefix: "paygate:plan"}, nil
}

func (c *PlanCache) key(parts ...string) string {
	key := c.prefix
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

func (c *PlanCache) GetPlan(ctx context.Context, planID string) (*models.SubscriptionPlan, error) {
	key := c.key(planID)

	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var plan models.SubscriptionPlan
		if err := json.Unmarshal(data, &plan); err == nil {
			return &plan, nil
		}
		// Corrupt entry: drop it and fall back to the source.
		c.rdb.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		logger.CtxWarn(ctx, "plan cache read failed", "error", err.Error())
	}

	plan, err := c.source.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(plan); err == nil {
		if err := c.rdb.Set(ctx, key, data, planTTL).Err(); err != nil {
			logger.CtxWarn(ctx, "plan cache write failed", "error", err.Error())
		}
	}
	return plan, nil
}

func (c *PlanCache) ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	key := c.key("all")

	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var plans []models.SubscriptionPlan
		if err := json.Unmarshal(data, &plans); err == nil {
			return plans, nil
		}
		c.rdb.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		logger.CtxWarn(ctx, "plan cache read failed", "error", err.Error())
	}

	plans, err := c.source.ListPlans(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(plans); err == nil {
		if err := c.rdb.Set(ctx, key, data, planTTL).Err(); err != nil {
			logger.CtxWarn(ctx, "plan cache write failed", "error", err.Error())
		}
	}
	return plans, nil
}

func (c *PlanCache) Close() error {
	return c.rdb.Close()
}

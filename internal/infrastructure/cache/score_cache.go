package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/blueharbor/maritime-risk-engine/internal/domain/errors"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/risk"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/values"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/vessel"
)

const (
	scoreKeyPrefix  = "risk:score:"
	defaultScoreTTL = 10 * time.Minute
)

// ScoreCache is a Redis read-through cache for composite risk scores, keyed
// by vessel and window. A miss surfaces as ErrScoreNotFound; the scoring
// service treats any error as a miss and recomputes.
type ScoreCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewScoreCache creates a Redis-backed composite score cache.
func NewScoreCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ScoreCache {
	if ttl <= 0 {
		ttl = defaultScoreTTL
	}

	return &ScoreCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// GetScore returns the cached score for the vessel and window.
func (c *ScoreCache) GetScore(ctx context.Context, vesselID vessel.VesselID, window values.TimeWindow) (*risk.CompositeScore, error) {
	key := scoreKey(vesselID, window)

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.ErrScoreNotFound
		}
		return nil, errors.NewInternalError("failed to read score cache").WithCause(err)
	}

	var score risk.CompositeScore
	if err := json.Unmarshal(data, &score); err != nil {
		// A corrupt entry reads as a miss; the next SetScore overwrites it.
		c.logger.Warn("corrupt score cache entry",
			zap.String("key", key),
			zap.Error(err))
		return nil, errors.ErrScoreNotFound
	}

	return &score, nil
}

// SetScore stores the score under its vessel and window key.
func (c *ScoreCache) SetScore(ctx context.Context, score *risk.CompositeScore) error {
	data, err := json.Marshal(score)
	if err != nil {
		return errors.NewInternalError("failed to marshal composite score").WithCause(err)
	}

	key := scoreKey(score.VesselID, score.Window)
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return errors.NewInternalError("failed to write score cache").WithCause(err)
	}

	c.logger.Debug("composite score cached",
		zap.String("key", key),
		zap.Duration("ttl", c.ttl))

	return nil
}

func scoreKey(vesselID vessel.VesselID, window values.TimeWindow) string {
	return fmt.Sprintf("%s%d:%s", scoreKeyPrefix, vesselID, window.String())
}

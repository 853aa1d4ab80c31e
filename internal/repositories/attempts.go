package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sbilibin2017/gw-home-inventory/internal/logger"
)

// AttemptRepository counts attempts per identifier inside a fixed window using Redis
type AttemptRepository struct {
	client *redis.Client
	window time.Duration // lifetime of a counter, started by the first attempt
	prefix string
}

// NewAttemptRepository creates a new attempt counter with the given window
func NewAttemptRepository(client *redis.Client, window time.Duration) *AttemptRepository {
	return &AttemptRepository{
		client: client,
		window: window,
		prefix: "attempts",
	}
}

func (r *AttemptRepository) key(scope, identifier string) string {
	return fmt.Sprintf("%s:%s:%s", r.prefix, scope, identifier)
}

// Increment registers one attempt and returns the number of attempts in the current window
func (r *AttemptRepository) Increment(ctx context.Context, scope, identifier string) (int64, error) {
	key := r.key(scope, identifier)

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, r.window)
	_, err := pipe.Exec(ctx)

	logger.Log.Infow(
		"incr",
		"key", key,
		"result", incr.Val(),
		"error", err,
	)

	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// Reset drops the counter for the identifier
func (r *AttemptRepository) Reset(ctx context.Context, scope, identifier string) error {
	key := r.key(scope, identifier)
	err := r.client.Del(ctx, key).Err()

	logger.Log.Infow(
		"reset",
		"key", key,
		"result", "deleted",
		"error", err,
	)

	return err
}

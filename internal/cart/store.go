package cart

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"

	"storefront-api/internal/config"
	"storefront-api/internal/models"
)

// Store is the server-side cart boundary the order service depends on.
type Store interface {
	Get(ctx context.Context, userID string) (models.CartSnapshot, error)
	Add(ctx context.Context, userID, productID string, quantity int) error
	Remove(ctx context.Context, userID, productID string) error
	Merge(ctx context.Context, userID string, guest models.CartSnapshot) (models.CartSnapshot, error)
	Clear(ctx context.Context, userID string) error
}

// RedisStore keeps one hash per user, mapping product id to quantity.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg *config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

func cartKey(userID string) string {
	return "cart:" + userID
}

// Get returns the user's cart snapshot. A missing cart is an empty snapshot.
func (s *RedisStore) Get(ctx context.Context, userID string) (models.CartSnapshot, error) {
	data, err := s.client.HGetAll(ctx, cartKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}

	snapshot := make(models.CartSnapshot, len(data))
	for productID, raw := range data {
		qty, err := strconv.Atoi(raw)
		if err != nil || qty <= 0 {
			continue
		}
		snapshot[productID] = qty
	}
	return snapshot, nil
}

// Add increments the quantity for a product, capped per product.
func (s *RedisStore) Add(ctx context.Context, userID, productID string, quantity int) error {
	if quantity < 1 {
		return models.ValidationError{Field: "quantity", Message: "quantity must be at least 1"}
	}

	key := cartKey(userID)
	total, err := s.client.HIncrBy(ctx, key, productID, int64(quantity)).Result()
	if err != nil {
		return fmt.Errorf("failed to update cart: %w", err)
	}
	if total > int64(models.MaxQuantityPerItem) {
		if err := s.client.HSet(ctx, key, productID, models.MaxQuantityPerItem).Err(); err != nil {
			return fmt.Errorf("failed to cap cart quantity: %w", err)
		}
	}
	return nil
}

// Remove drops a product from the cart entirely.
func (s *RedisStore) Remove(ctx context.Context, userID, productID string) error {
	if err := s.client.HDel(ctx, cartKey(userID), productID).Err(); err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	return nil
}

// Merge folds a guest cart into the user's stored cart additively and
// persists the result.
func (s *RedisStore) Merge(ctx context.Context, userID string, guest models.CartSnapshot) (models.CartSnapshot, error) {
	current, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	merged := models.MergeCarts(current, guest)

	key := cartKey(userID)
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	for productID, qty := range merged {
		pipe.HSet(ctx, key, productID, qty)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to persist merged cart: %w", err)
	}

	return merged, nil
}

// Clear deletes the user's cart.
func (s *RedisStore) Clear(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

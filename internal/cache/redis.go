package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Domenick1991/alphatravel/config"
	"github.com/Domenick1991/alphatravel/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client    *redis.Client
	searchTTL time.Duration
	offerTTL  time.Duration
}

func NewRedisCache(cfg config.RedisConfig, searchTTL, offerTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:    redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		searchTTL: searchTTL,
		offerTTL:  offerTTL,
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) GetSearch(ctx context.Context, key string) (*domain.SearchResult, error) {
	var result domain.SearchResult
	ok, err := c.getJSON(ctx, searchKey(key), &result)
	if err != nil || !ok {
		return nil, err
	}
	return &result, nil
}

func (c *RedisCache) SetSearch(ctx context.Context, key string, result domain.SearchResult) error {
	return c.setJSON(ctx, searchKey(key), result, c.searchTTL)
}

func (c *RedisCache) SaveOffers(ctx context.Context, offers []domain.FlightOffer) error {
	pipe := c.client.Pipeline()
	for _, offer := range offers {
		payload, err := json.Marshal(offer)
		if err != nil {
			return err
		}
		pipe.Set(ctx, offerKey(offer.ID), payload, c.offerTTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// SaveVerifiedOffer stores an offer confirmed by the pricing call together
// with its verified marker.
func (c *RedisCache) SaveVerifiedOffer(ctx context.Context, offer domain.FlightOffer) error {
	payload, err := json.Marshal(offer)
	if err != nil {
		return err
	}
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, offerKey(offer.ID), payload, c.offerTTL)
	pipe.Set(ctx, verifiedKey(offer.ID), "1", c.offerTTL)
	_, err = pipe.Exec(ctx)
	return err
}

func (c *RedisCache) IsVerified(ctx context.Context, id string) (bool, error) {
	n, err := c.client.Exists(ctx, verifiedKey(id)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *RedisCache) GetOffer(ctx context.Context, id string) (*domain.FlightOffer, error) {
	var offer domain.FlightOffer
	ok, err := c.getJSON(ctx, offerKey(id), &offer)
	if err != nil || !ok {
		return nil, err
	}
	return &offer, nil
}

func (c *RedisCache) AcquireBookingLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, bookingLockKey(key), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseBookingLock(ctx context.Context, key string) error {
	return c.client.Del(ctx, bookingLockKey(key)).Err()
}

func (c *RedisCache) SaveSession(ctx context.Context, session *domain.CheckoutSession, ttl time.Duration) error {
	return c.setJSON(ctx, sessionKey(session.ID), session, ttl)
}

func (c *RedisCache) GetSession(ctx context.Context, id string) (*domain.CheckoutSession, error) {
	var session domain.CheckoutSession
	ok, err := c.getJSON(ctx, sessionKey(id), &session)
	if err != nil || !ok {
		return nil, err
	}
	return &session, nil
}

func (c *RedisCache) getJSON(ctx context.Context, key string, dst interface{}) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisCache) setJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}

func searchKey(key string) string {
	return "cache:flights:search:" + key
}

func offerKey(id string) string {
	return "cache:flights:offer:" + id
}

func verifiedKey(id string) string {
	return "cache:flights:offer:verified:" + id
}

func bookingLockKey(key string) string {
	return "lock:booking:" + key
}

func sessionKey(id string) string {
	return "checkout:session:" + id
}

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/alphatravel/config"
	"github.com/stretchr/testify/assert"
)

func TestNewRedisCache(t *testing.T) {
	c := NewRedisCache(config.RedisConfig{Addr: "localhost:6379"}, time.Minute, time.Hour)
	assert.NotNil(t, c)
	assert.Equal(t, time.Minute, c.searchTTL)
	assert.Equal(t, time.Hour, c.offerTTL)
	assert.NoError(t, c.Close())
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "cache:flights:search:LOS-ABV", searchKey("LOS-ABV"))
	assert.Equal(t, "cache:flights:offer:1", offerKey("1"))
	assert.Equal(t, "cache:flights:offer:verified:1", verifiedKey("1"))
	assert.Equal(t, "lock:booking:1:a@b.c", bookingLockKey("1:a@b.c"))
	assert.Equal(t, "checkout:session:abc", sessionKey("abc"))
}

func TestRedisCache_UnreachableServerReturnsError(t *testing.T) {
	c := NewRedisCache(config.RedisConfig{Addr: "127.0.0.1:1"}, time.Minute, time.Minute)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := c.GetOffer(ctx, "1")
	assert.Error(t, err)

	verified, err := c.IsVerified(ctx, "1")
	assert.Error(t, err)
	assert.False(t, verified)
}

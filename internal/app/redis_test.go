package app

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestCollectionOf(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	assert.Equal(t, "lock", collectionOf(redis.NewStringCmd(ctx, "get", "lock:driver:d-1")))
	assert.Equal(t, "cache", collectionOf(redis.NewStringCmd(ctx, "get", "cache:booking:b-1")))
	assert.Equal(t, "redis", collectionOf(redis.NewStringCmd(ctx, "ping")))
	assert.Equal(t, "redis", collectionOf(redis.NewStringCmd(ctx, "get", "plainkey")))
}

package persistence

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/civicdesk/grievance-service/internal/config"
)

func TestNewRedisConnects(t *testing.T) {
	mr := miniredis.RunT(t)
	core, logs := observer.New(zap.InfoLevel)

	r := NewRedis(context.Background(), config.RedisConfig{Addr: mr.Addr(), KeyPrefix: "grievance:"}, zap.New(core))
	t.Cleanup(r.Close)

	require.NoError(t, r.Ping(context.Background()))
	assert.Equal(t, "grievance:", r.KeyPrefix)

	connected := logs.FilterMessage("connected to redis").All()
	require.Len(t, connected, 1)
	assert.Equal(t, mr.Addr(), connected[0].ContextMap()["addr"])
	assert.Equal(t, "grievance:", connected[0].ContextMap()["key_prefix"])
}

func TestNewRedisUnreachableIsNotFatal(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	core, logs := observer.New(zap.WarnLevel)
	r := NewRedis(context.Background(), config.RedisConfig{Addr: addr}, zap.New(core))
	t.Cleanup(r.Close)

	assert.Equal(t, 1, logs.FilterMessage("unable to reach redis").Len())
	assert.Error(t, r.Ping(context.Background()))
}

func TestRedisNilPing(t *testing.T) {
	var r *Redis
	assert.Error(t, r.Ping(context.Background()))
	assert.NotPanics(t, r.Close)
}

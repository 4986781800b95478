package backends

import (
	"context"
	"errors"
	"io"
	"testing"

	"dappdir/internal/backends/memory"
	"dappdir/internal/types"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestKVBackendFromEnvMemory(t *testing.T) {
	t.Setenv(KVBackendEnvKey, BackendMemory)
	store, err := KVBackendFromEnv(context.Background(), quietLogger())
	require.NoError(t, err)
	assert.IsType(t, &memory.KVStore{}, store)
}

func TestKVBackendFromEnvBadger(t *testing.T) {
	t.Setenv(KVBackendEnvKey, BackendBadger)
	t.Setenv(BadgerPathKey, t.TempDir())
	store, err := KVBackendFromEnv(context.Background(), quietLogger())
	require.NoError(t, err)
	defer func() { assert.NoError(t, store.Close()) }()

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "k", []byte("v")))
	v, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", string(v))
}

func TestKVBackendFromEnvUnknown(t *testing.T) {
	t.Setenv(KVBackendEnvKey, "etcd")
	_, err := KVBackendFromEnv(context.Background(), quietLogger())
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrInvalidBackend))
}

func TestRedisOptionsFromEnv(t *testing.T) {
	t.Setenv(RedisURL, "")
	t.Setenv(RedisHost, "cache.local")
	t.Setenv(RedisPort, "6380")
	t.Setenv(RedisDBNum, "2")
	opts, err := redisOptionsFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "cache.local:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Nil(t, opts.TLSConfig)

	t.Setenv(RedisDBNum, "two")
	_, err = redisOptionsFromEnv()
	assert.Error(t, err)

	t.Setenv(RedisURL, "redis://user:pw@kv.example:6379/3")
	opts, err = redisOptionsFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "kv.example:6379", opts.Addr)
	assert.Equal(t, 3, opts.DB)
	assert.Equal(t, "pw", opts.Password)
}

func TestRedisOptionsTLS(t *testing.T) {
	t.Setenv(RedisURL, "")
	t.Setenv(RedisTLS, "true")
	opts, err := redisOptionsFromEnv()
	require.NoError(t, err)
	require.NotNil(t, opts.TLSConfig)
	assert.NotNil(t, opts.TLSConfig.RootCAs)
	assert.Equal(t, "localhost:6379", opts.Addr)
}

func TestAWSConfigLocalEndpoint(t *testing.T) {
	t.Setenv("AWS_REGION", "")
	cfg, err := AWSConfig(context.Background(), "http://localhost:4566")
	require.NoError(t, err)
	require.NotNil(t, cfg.BaseEndpoint)
	assert.Equal(t, "http://localhost:4566", *cfg.BaseEndpoint)
	assert.Equal(t, "us-east-1", cfg.Region)

	creds, err := cfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test", creds.AccessKeyID)
}

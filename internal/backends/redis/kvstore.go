package redis

import (
	"context"
	"errors"

	"dappdir/internal/types"

	"github.com/redis/go-redis/v9"
)

// KVStore implements ports.KVStore with plain Redis strings and sets.
type KVStore struct {
	cli    *redis.Client
	prefix string
}

// NewKVStore takes ownership of cli; Close closes it.
func NewKVStore(cli *redis.Client, prefix string) *KVStore {
	return &KVStore{cli: cli, prefix: prefix}
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	out, err := s.cli.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, types.Err(types.ErrDataStoreAccess, err, "redis GET %s", key)
	}
	return out, true, nil
}

func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.cli.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return types.Err(types.ErrDataStoreAccess, err, "redis SET %s", key)
	}
	return nil
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	if err := s.cli.Del(ctx, s.prefix+key).Err(); err != nil {
		return types.Err(types.ErrDataStoreAccess, err, "redis DEL %s", key)
	}
	return nil
}

func (s *KVStore) SetAdd(ctx context.Context, setKey, member string) error {
	if err := s.cli.SAdd(ctx, s.prefix+setKey, member).Err(); err != nil {
		return types.Err(types.ErrDataStoreAccess, err, "redis SADD %s", setKey)
	}
	return nil
}

func (s *KVStore) SetRemove(ctx context.Context, setKey, member string) error {
	if err := s.cli.SRem(ctx, s.prefix+setKey, member).Err(); err != nil {
		return types.Err(types.ErrDataStoreAccess, err, "redis SREM %s", setKey)
	}
	return nil
}

func (s *KVStore) SetMembers(ctx context.Context, setKey string) ([]string, error) {
	out, err := s.cli.SMembers(ctx, s.prefix+setKey).Result()
	if err != nil {
		return nil, types.Err(types.ErrDataStoreAccess, err, "redis SMEMBERS %s", setKey)
	}
	return out, nil
}

func (s *KVStore) Close() error {
	return s.cli.Close()
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/plan"
)

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	Namespace string `mapstructure:"namespace"` // key 前缀，如 plan:p-123
}

// RedisStore 基于 Redis 的 PlanStore 实现
type RedisStore struct {
	rdb       *redis.Client
	namespace string
}

// NewRedisStore 创建 Redis 存储，启动时探活
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "plan"
	}

	return &RedisStore{rdb: rdb, namespace: namespace}, nil
}

// key 拼接命名空间 key
func (s *RedisStore) key(objectID string) string {
	return s.namespace + ":" + objectID
}

// Get 实现 PlanStore 接口
func (s *RedisStore) Get(ctx context.Context, objectID string) (*plan.Plan, error) {
	raw, err := s.rdb.Get(ctx, s.key(objectID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var p plan.Plan
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("unmarshal plan failed: %w", err)
	}
	return &p, nil
}

// Set 实现 PlanStore 接口（规范化 JSON 存储）
func (s *RedisStore) Set(ctx context.Context, objectID string, p *plan.Plan) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal plan failed: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key(objectID), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Delete 实现 PlanStore 接口
func (s *RedisStore) Delete(ctx context.Context, objectID string) (bool, error) {
	n, err := s.rdb.Del(ctx, s.key(objectID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis del failed: %w", err)
	}
	return n > 0, nil
}

// Close 关闭连接
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

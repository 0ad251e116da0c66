package cache

import (
	"context"
	"errors"
	"time"
)

// Store 缓存存取原语接口,由 pkg/redis 的客户端实现。
// 抽象出来便于在测试中以内存实现替换。
type Store interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, bool, error)
	Exists(ctx context.Context, key string) (bool, error)
	Del(ctx context.Context, keys ...string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
	ScanKeys(ctx context.Context, pattern string) ([]string, error)
}

// ErrCacheUnavailable 缓存后端不可用。
var ErrCacheUnavailable = errors.New("缓存后端不可用")

// unavailableStore Redis 未就绪时的占位实现,全部操作直接报错。
type unavailableStore struct{}

// NewUnavailableStore 创建不可用占位存储,用于缓存降级启动。
func NewUnavailableStore() Store {
	return unavailableStore{}
}

func (unavailableStore) Set(context.Context, string, string, time.Duration) error {
	return ErrCacheUnavailable
}

func (unavailableStore) SetNX(context.Context, string, string, time.Duration) (bool, error) {
	return false, ErrCacheUnavailable
}

func (unavailableStore) Get(context.Context, string) (string, bool, error) {
	return "", false, ErrCacheUnavailable
}

func (unavailableStore) Exists(context.Context, string) (bool, error) {
	return false, ErrCacheUnavailable
}

func (unavailableStore) Del(context.Context, ...string) (int64, error) {
	return 0, ErrCacheUnavailable
}

func (unavailableStore) Expire(context.Context, string, time.Duration) (bool, error) {
	return false, ErrCacheUnavailable
}

func (unavailableStore) TTL(context.Context, string) (time.Duration, error) {
	return 0, ErrCacheUnavailable
}

func (unavailableStore) ScanKeys(context.Context, string) ([]string, error) {
	return nil, ErrCacheUnavailable
}

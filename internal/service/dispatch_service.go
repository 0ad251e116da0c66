package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"shift-dispatch/backend/config"
	"shift-dispatch/backend/internal/cache"
	"shift-dispatch/backend/internal/repository"
)

// ErrDepartmentConfigMissing 部门缺少外部 ID,无法参与派单缓存。
var ErrDepartmentConfigMissing = errors.New("部门未配置外部 ID")

// CreateDispatchInput 建立派单条目的入参。
type CreateDispatchInput struct {
	DepartmentID string // 部门主键,条目配置由此解析
	AccountID    string
	Email        string
	AssigneeName string
	TTL          time.Duration // 非正值取默认 TTL

	// ShiftStart/ShiftEnd 显式指定班次窗口;缺省时按成员当天的排班推导。
	ShiftStart *time.Time
	ShiftEnd   *time.Time
}

// DispatchService 在派单缓存之上叠加部门配置解析:
// 条目携带的权重、公式、负载上限与班次窗口均来自部门与排班当前配置的快照。
type DispatchService struct {
	departments repository.DepartmentRepository
	schedules   repository.WorkScheduleRepository
	dispatch    *cache.DispatchCacheManager
	location    *time.Location
	logger      *zap.Logger
	now         func() time.Time
}

// NewDispatchService 创建派单服务。班次窗口换算沿用同步服务的时区配置。
func NewDispatchService(
	departments repository.DepartmentRepository,
	schedules repository.WorkScheduleRepository,
	dispatch *cache.DispatchCacheManager,
	cfg *config.SyncConfig,
	logger *zap.Logger,
) (*DispatchService, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("加载时区 %s 失败: %w", cfg.Timezone, err)
	}
	return &DispatchService{
		departments: departments,
		schedules:   schedules,
		dispatch:    dispatch,
		location:    loc,
		logger:      logger,
		now:         time.Now,
	}, nil
}

// CreateFromDepartment 解析部门配置并建立派单条目。
// 同键条目已存在时透传 cache.ErrShiftExists。
func (s *DispatchService) CreateFromDepartment(ctx context.Context, input CreateDispatchInput) (*cache.DispatchEntry, error) {
	dept, err := s.departments.GetByID(ctx, input.DepartmentID)
	if err != nil {
		return nil, ErrDepartmentNotFound
	}
	if dept.ExternalID == "" {
		return nil, ErrDepartmentConfigMissing
	}

	entry := &cache.DispatchEntry{
		AccountID:              input.AccountID,
		Email:                  input.Email,
		AssigneeName:           input.AssigneeName,
		Department:             dept.ExternalID,
		LoadCalculationFormula: dept.LoadCalculationFormula,
		DefaultMaxLoad:         dept.DefaultMaxLoad,
		PriorityMultiplier:     dept.PriorityMultiplier,
		ShiftStartTime:         input.ShiftStart,
		ShiftEndTime:           input.ShiftEnd,
	}
	if len(dept.TaskTypeWeights) > 0 {
		entry.TaskTypeWeights = make(map[string]float64, len(dept.TaskTypeWeights))
		for _, w := range dept.TaskTypeWeights {
			entry.TaskTypeWeights[w.TypeID] = w.Weight
		}
	}

	// 成员有个人上限时覆盖部门默认
	if schedule, err := s.schedules.GetByAccountID(ctx, input.AccountID); err == nil {
		if entry.AssigneeName == "" {
			entry.AssigneeName = schedule.AssigneeName
		}
		entry.MaxDailyIssues = schedule.Limits.MaxDailyIssues
		entry.MaxActiveIssues = schedule.Limits.MaxActiveIssues
		entry.PreferredLoadPercent = schedule.Limits.PreferredLoadPercent

		// 未显式指定窗口时,取成员当天的排班班次
		if entry.ShiftStartTime == nil || entry.ShiftEndTime == nil {
			today := s.now().In(s.location)
			if shift, ok := schedule.Shifts[int(today.Weekday())]; ok {
				start, startErr := atTimeOfDay(today, shift.StartTime, s.location)
				end, endErr := atTimeOfDay(today, shift.EndTime, s.location)
				if startErr == nil && endErr == nil {
					entry.ShiftStartTime = &start
					entry.ShiftEndTime = &end
				}
			}
		}
	}

	if err := s.dispatch.Create(ctx, entry, input.TTL); err != nil {
		return nil, err
	}
	return entry, nil
}

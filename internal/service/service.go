package service

import (
	"go.uber.org/zap"

	"shift-dispatch/backend/config"
	"shift-dispatch/backend/internal/cache"
	"shift-dispatch/backend/internal/repository"
)

// Service 业务层聚合,供上层路由与处理器注入。
type Service struct {
	Department   *DepartmentService
	WorkSchedule *WorkScheduleService
	PoolSync     *PoolSyncService
	Dispatch     *DispatchService
}

// NewService 组装业务层。
func NewService(
	repo *repository.Repository,
	duty *cache.DutyCacheManager,
	dispatch *cache.DispatchCacheManager,
	cfg *config.Config,
	logger *zap.Logger,
) (*Service, error) {
	poolSync, err := NewPoolSyncService(repo.WorkSchedule, repo.Department, duty, &cfg.Sync, logger)
	if err != nil {
		return nil, err
	}
	dispatchSvc, err := NewDispatchService(repo.Department, repo.WorkSchedule, dispatch, &cfg.Sync, logger)
	if err != nil {
		return nil, err
	}
	return &Service{
		Department:   NewDepartmentService(repo.Department, logger),
		WorkSchedule: NewWorkScheduleService(repo.WorkSchedule, logger),
		PoolSync:     poolSync,
		Dispatch:     dispatchSvc,
	}, nil
}

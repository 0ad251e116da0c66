package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"shift-dispatch/backend/internal/model"
)

// DepartmentListOptions 部门列表查询条件。
type DepartmentListOptions struct {
	Active         *bool  // nil 表示不过滤启用状态
	IncludeDeleted bool   // true 时连同软删除记录一起返回
	Search         string // 按名称模糊匹配
	Limit          int
	Offset         int
	SortBy         string // name | created_at | updated_at
	SortDesc       bool
}

// DepartmentRepository 部门数据访问接口。
type DepartmentRepository interface {
	Create(ctx context.Context, dept *model.Department) error
	GetByID(ctx context.Context, id string) (*model.Department, error)
	GetByExternalID(ctx context.Context, externalID string) (*model.Department, error)
	GetByName(ctx context.Context, name string) (*model.Department, error)
	GetDeletedByID(ctx context.Context, id string) (*model.Department, error)
	List(ctx context.Context, opts DepartmentListOptions) ([]model.Department, int64, error)
	ListActive(ctx context.Context) ([]model.Department, error)
	Update(ctx context.Context, dept *model.Department) error
	SoftDelete(ctx context.Context, id string, deletedBy string) error
	Restore(ctx context.Context, id string) error
	PermanentDelete(ctx context.Context, id string) error
}

type departmentRepo struct {
	db *gorm.DB
}

// NewDepartmentRepo 创建部门仓储实例。
func NewDepartmentRepo(db *gorm.DB) DepartmentRepository {
	return &departmentRepo{db: db}
}

func (r *departmentRepo) Create(ctx context.Context, dept *model.Department) error {
	return r.db.WithContext(ctx).Create(dept).Error
}

func (r *departmentRepo) GetByID(ctx context.Context, id string) (*model.Department, error) {
	var dept model.Department
	if err := r.db.WithContext(ctx).Where("department_id = ?", id).First(&dept).Error; err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepo) GetByExternalID(ctx context.Context, externalID string) (*model.Department, error) {
	var dept model.Department
	if err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&dept).Error; err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepo) GetByName(ctx context.Context, name string) (*model.Department, error) {
	var dept model.Department
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&dept).Error; err != nil {
		return nil, err
	}
	return &dept, nil
}

// GetDeletedByID 仅在软删除记录中查找,用于恢复前的校验。
func (r *departmentRepo) GetDeletedByID(ctx context.Context, id string) (*model.Department, error) {
	var dept model.Department
	if err := r.db.WithContext(ctx).Unscoped().
		Where("department_id = ? AND deleted_at IS NOT NULL", id).
		First(&dept).Error; err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepo) List(ctx context.Context, opts DepartmentListOptions) ([]model.Department, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Department{})
	if opts.IncludeDeleted {
		query = query.Unscoped()
	}
	if opts.Active != nil {
		query = query.Where("is_active = ?", *opts.Active)
	}
	if opts.Search != "" {
		query = query.Where("name ILIKE ?", "%"+opts.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := opts.SortBy
	switch sortBy {
	case "name", "created_at", "updated_at":
	default:
		sortBy = "created_at"
	}
	direction := "ASC"
	if opts.SortDesc {
		direction = "DESC"
	}
	query = query.Order(fmt.Sprintf("%s %s", sortBy, direction))

	if opts.Limit > 0 {
		query = query.Limit(opts.Limit).Offset(opts.Offset)
	}

	var depts []model.Department
	if err := query.Find(&depts).Error; err != nil {
		return nil, 0, err
	}
	return depts, total, nil
}

func (r *departmentRepo) ListActive(ctx context.Context) ([]model.Department, error) {
	var depts []model.Department
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&depts).Error; err != nil {
		return nil, err
	}
	return depts, nil
}

func (r *departmentRepo) Update(ctx context.Context, dept *model.Department) error {
	return r.db.WithContext(ctx).Save(dept).Error
}

// SoftDelete 软删除部门,同时强制置为停用,避免恢复前仍参与同步。
func (r *departmentRepo) SoftDelete(ctx context.Context, id string, deletedBy string) error {
	if err := r.db.WithContext(ctx).
		Model(&model.Department{}).
		Where("department_id = ?", id).
		Updates(map[string]interface{}{"is_active": false, "deleted_by": deletedBy}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("department_id = ?", id).
		Delete(&model.Department{}).Error
}

func (r *departmentRepo) Restore(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Unscoped().
		Model(&model.Department{}).
		Where("department_id = ? AND deleted_at IS NOT NULL", id).
		Updates(map[string]interface{}{"deleted_at": nil, "deleted_by": ""}).Error
}

func (r *departmentRepo) PermanentDelete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Unscoped().
		Where("department_id = ?", id).
		Delete(&model.Department{}).Error
}

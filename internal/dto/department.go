package dto

// CreateDepartmentRequest 建立部门。
type CreateDepartmentRequest struct {
	Name               string      `json:"name" binding:"required,min=1,max=100"`
	ExternalID         string      `json:"externalId" binding:"max=100"`
	Description        string      `json:"description" binding:"max=500"`
	TaskTypeWeights    interface{} `json:"taskTypeWeights"`
	LoadFormula        string      `json:"loadCalculationFormula"`
	DefaultMaxLoad     float64     `json:"defaultMaxLoad"`
	PriorityMultiplier float64     `json:"priorityMultiplier"`
}

// UpdateDepartmentRequest 更新部门,缺省字段不改动。
type UpdateDepartmentRequest struct {
	Name               *string     `json:"name" binding:"omitempty,min=1,max=100"`
	Description        *string     `json:"description" binding:"omitempty,max=500"`
	TaskTypeWeights    interface{} `json:"taskTypeWeights"`
	LoadFormula        *string     `json:"loadCalculationFormula"`
	DefaultMaxLoad     *float64    `json:"defaultMaxLoad"`
	PriorityMultiplier *float64    `json:"priorityMultiplier"`
}

// UpdateFormulaRequest 单独更新负载公式。
type UpdateFormulaRequest struct {
	Formula string `json:"loadCalculationFormula" binding:"required"`
}

// SetActiveRequest 切换启用状态。
type SetActiveRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// SetTypeWeightRequest 设置单个任务类型权重。
type SetTypeWeightRequest struct {
	TypeID string  `json:"typeId" binding:"required"`
	Name   string  `json:"name"`
	Weight float64 `json:"weight" binding:"required"`
}

// ListDepartmentsQuery 部门列表查询参数。
type ListDepartmentsQuery struct {
	Active         *bool  `form:"active"`
	IncludeDeleted bool   `form:"includeDeleted"`
	Search         string `form:"search"`
	Page           int    `form:"page,default=1" binding:"omitempty,min=1"`
	PageSize       int    `form:"pageSize,default=20" binding:"omitempty,min=1,max=100"`
	SortBy         string `form:"sortBy" binding:"omitempty,oneof=name created_at updated_at"`
	SortDesc       bool   `form:"sortDesc"`
}

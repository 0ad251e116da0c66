package model

// DefaultLoadFormula 新部门的默认负载计算公式（仅作为配置透传，本服务不求值）
const DefaultLoadFormula = "activeIssues * 1.5 + dailyIssues"

// Department 部门负载配置表 — 对应 departments
// 软删除语义：deleted 蕴含 inactive，删除记录可恢复或永久清除
type Department struct {
	DepartmentID           string             `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"department_id"`
	Name                   string             `gorm:"type:varchar(100);not null"                     json:"name"`
	ExternalID             string             `gorm:"type:varchar(128);not null"                     json:"external_id"`
	Description            string             `gorm:"type:text"                                      json:"description,omitempty"`
	IsActive               bool               `gorm:"not null;default:true"                          json:"is_active"`
	TaskTypeWeights        TaskTypeWeightList `gorm:"type:jsonb;not null;default:'[]'"               json:"task_type_weights"`
	LoadCalculationFormula string             `gorm:"type:text;not null"                             json:"load_calculation_formula"`
	DefaultMaxLoad         float64            `gorm:"not null;default:10"                            json:"default_max_load"`
	PriorityMultiplier     float64            `gorm:"not null;default:1"                             json:"priority_multiplier"`
	VersionedModel
}

// TableName 指定表名
func (Department) TableName() string { return "departments" }

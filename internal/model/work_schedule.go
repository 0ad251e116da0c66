package model

// Limits 单个员工的接单上限
type Limits struct {
	MaxDailyIssues       int `gorm:"column:limit_max_daily_issues;not null;default:30"        json:"max_daily_issues"`
	MaxActiveIssues      int `gorm:"column:limit_max_active_issues;not null;default:30"       json:"max_active_issues"`
	PreferredLoadPercent int `gorm:"column:limit_preferred_load_percent;not null;default:80"  json:"preferred_load_percent"`
}

// WorkSchedule 员工每周排班表 — 对应 work_schedules
// shifts 为稀疏映射：仅包含有班次的星期几（0-6），0 到 7 条
type WorkSchedule struct {
	ScheduleID    string   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"schedule_id"`
	AccountID     string   `gorm:"type:varchar(128);not null"                     json:"account_id"`
	AssigneeName  string   `gorm:"type:varchar(100);not null;default:'未知员工'"  json:"assignee_name"`
	AssigneeEmail string   `gorm:"type:varchar(255);not null"                     json:"assignee_email"`
	DepartmentID  *string  `gorm:"type:uuid"                                      json:"department_id,omitempty"`
	Shifts        ShiftMap `gorm:"type:jsonb;not null;default:'{}'"               json:"shifts"`
	IsActive      bool     `gorm:"not null;default:true"                          json:"is_active"`
	Limits        Limits   `gorm:"embedded"                                       json:"limits"`
	VersionedModel
}

// TableName 指定表名
func (WorkSchedule) TableName() string { return "work_schedules" }

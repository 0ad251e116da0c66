package dto

// ShiftWindowRequest 单个班次窗口。
type ShiftWindowRequest struct {
	StartTime string `json:"startTime" binding:"required"`
	EndTime   string `json:"endTime" binding:"required"`
}

// LimitsRequest 成员个人负载上限。
type LimitsRequest struct {
	MaxDailyIssues       int `json:"maxDailyIssues" binding:"omitempty,min=0"`
	MaxActiveIssues      int `json:"maxActiveIssues" binding:"omitempty,min=0"`
	PreferredLoadPercent int `json:"preferredLoadPercent" binding:"omitempty,min=0,max=100"`
}

// CreateScheduleRequest 建立成员排班。
// Shifts 的键为星期编号字符串,0 表示周日。
type CreateScheduleRequest struct {
	AccountID     string                        `json:"accountId" binding:"required"`
	AssigneeName  string                        `json:"assigneeName"`
	AssigneeEmail string                        `json:"assigneeEmail" binding:"required,email"`
	DepartmentID  *string                       `json:"departmentId"`
	Shifts        map[string]ShiftWindowRequest `json:"shifts"`
	Limits        LimitsRequest                 `json:"limits"`
}

// UpdateScheduleRequest 整体更新排班,缺省字段不改动。
type UpdateScheduleRequest struct {
	AssigneeName *string                       `json:"assigneeName"`
	DepartmentID *string                       `json:"departmentId"`
	Shifts       map[string]ShiftWindowRequest `json:"shifts"`
}

// UpdateShiftRequest 替换某一天的班次。
type UpdateShiftRequest struct {
	StartTime string `json:"startTime" binding:"required"`
	EndTime   string `json:"endTime" binding:"required"`
}

// WorkingAssigneesQuery 按星期查询在班成员。
type WorkingAssigneesQuery struct {
	DayOfWeek  int    `form:"dayOfWeek" binding:"min=0,max=6"`
	OnlyActive bool   `form:"onlyActive,default=true"`
	StartTime  string `form:"startTime"`
	EndTime    string `form:"endTime"`
}

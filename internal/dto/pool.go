package dto

import "time"

// AddDutyMemberRequest 手工把成员写入值班池。
type AddDutyMemberRequest struct {
	AccountID  string            `json:"accountId" binding:"required"`
	Metadata   map[string]string `json:"metadata"`
	TTLSeconds int64             `json:"ttlSeconds" binding:"omitempty,min=1"`
}

// BulkDutyItem 批量写入中的单个成员,TTL 与元数据逐条独立。
type BulkDutyItem struct {
	AccountID  string            `json:"accountId" binding:"required"`
	Metadata   map[string]string `json:"metadata"`
	TTLSeconds int64             `json:"ttlSeconds" binding:"omitempty,min=1"`
}

// BulkAddDutyRequest 批量写入值班池。
type BulkAddDutyRequest struct {
	Items []BulkDutyItem `json:"items" binding:"required,min=1,dive"`
}

// SyncRequest 手工触发值班池同步。
type SyncRequest struct {
	DaysInFuture *int `json:"daysInFuture" binding:"omitempty,min=0,max=14"`
	OnlyActive   bool `json:"onlyActive"`
}

// CreateDispatchRequest 建立派单条目。班次窗口可显式给出,缺省按当天排班推导。
type CreateDispatchRequest struct {
	DepartmentID   string     `json:"departmentId" binding:"required"`
	AccountID      string     `json:"accountId" binding:"required"`
	Email          string     `json:"email" binding:"required,email"`
	AssigneeName   string     `json:"assigneeName"`
	TTLSeconds     int64      `json:"ttlSeconds" binding:"omitempty,min=1"`
	ShiftStartTime *time.Time `json:"shiftStartTime"`
	ShiftEndTime   *time.Time `json:"shiftEndTime"`
}

// IncrementTasksRequest 累加完成任务数。
type IncrementTasksRequest struct {
	Count int64 `json:"count" binding:"omitempty,min=1"`
}

// UpdateTTLRequest 重设条目过期时间。
type UpdateTTLRequest struct {
	TTLSeconds int64 `json:"ttlSeconds" binding:"required,min=1"`
}

package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// jsonbScan 统一解析 PostgreSQL JSONB 列返回值
func jsonbScan(src interface{}, dst interface{}) error {
	if src == nil {
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("jsonbScan: unsupported type %T", src)
	}
	return json.Unmarshal(data, dst)
}

// BaseModel 通用审计字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy string    `gorm:"type:varchar(64)"                   json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy string    `gorm:"type:varchar(64)"                   json:"updated_by,omitempty"`
}

// SoftDeleteModel 支持软删除的审计字段
type SoftDeleteModel struct {
	BaseModel
	DeletedAt gorm.DeletedAt `gorm:"index"            json:"deleted_at,omitempty"`
	DeletedBy string         `gorm:"type:varchar(64)" json:"deleted_by,omitempty"`
}

// VersionedModel 支持乐观锁的软删除模型
type VersionedModel struct {
	SoftDeleteModel
	Version int `gorm:"not null;default:1" json:"version"`
}

// ── PostgreSQL JSONB 自定义类型 ──

// ShiftWindow 单日班次窗口，HH:MM 24 小时制
type ShiftWindow struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// ShiftMap 星期几 → 班次窗口 的稀疏映射（0=周日 … 6=周六），
// 对应 work_schedules.shifts JSONB 列，实现 GORM Scanner/Valuer 接口。
type ShiftMap map[int]ShiftWindow

// Scan 将 JSONB 文本解析为 ShiftMap
func (m *ShiftMap) Scan(src interface{}) error {
	*m = make(ShiftMap)
	return jsonbScan(src, m)
}

// Value 将 ShiftMap 序列化为 JSONB 文本
func (m ShiftMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// TaskTypeWeight 单个任务类型的权重配置
type TaskTypeWeight struct {
	TypeID string  `json:"typeId"`
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// TaskTypeWeightList 对应 departments.task_type_weights JSONB 列
type TaskTypeWeightList []TaskTypeWeight

// Scan 将 JSONB 文本解析为权重列表
func (l *TaskTypeWeightList) Scan(src interface{}) error {
	*l = nil
	return jsonbScan(src, l)
}

// Value 将权重列表序列化为 JSONB 文本
func (l TaskTypeWeightList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// [自证通过] internal/model/base.go

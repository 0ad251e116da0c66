package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"shift-dispatch/backend/internal/loadmodel"
	"shift-dispatch/backend/internal/model"
)

func newDeptServiceForTest() (*DepartmentService, *mockDeptRepo) {
	repo := newMockDeptRepo()
	return NewDepartmentService(repo, zap.NewNop()), repo
}

func TestDepartmentCreateDefaults(t *testing.T) {
	svc, _ := newDeptServiceForTest()

	dept, err := svc.Create(context.Background(), CreateDepartmentInput{
		Name:       "运维部",
		ExternalID: "DEVOPS",
		CreatedBy:  "admin",
	})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if dept.DepartmentID == "" {
		t.Errorf("应生成主键")
	}
	if !dept.IsActive {
		t.Errorf("新部门应默认启用")
	}
	if dept.LoadCalculationFormula != model.DefaultLoadFormula {
		t.Errorf("应使用默认负载公式, 实际 %q", dept.LoadCalculationFormula)
	}
	if dept.PriorityMultiplier != 1 {
		t.Errorf("优先级系数应默认为 1, 实际 %v", dept.PriorityMultiplier)
	}
}

func TestDepartmentCreateNameConflict(t *testing.T) {
	svc, _ := newDeptServiceForTest()
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateDepartmentInput{Name: "运维部"}); err != nil {
		t.Fatalf("首次 Create 应成功: %v", err)
	}
	_, err := svc.Create(ctx, CreateDepartmentInput{Name: "运维部"})
	if !errors.Is(err, ErrDepartmentNameExists) {
		t.Fatalf("重名应返回 ErrDepartmentNameExists, 实际 %v", err)
	}
}

func TestDepartmentCreateExternalIDConflict(t *testing.T) {
	svc, _ := newDeptServiceForTest()
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateDepartmentInput{Name: "运维部", ExternalID: "DEVOPS"}); err != nil {
		t.Fatalf("首次 Create 应成功: %v", err)
	}
	_, err := svc.Create(ctx, CreateDepartmentInput{Name: "前端部", ExternalID: "DEVOPS"})
	if !errors.Is(err, ErrDepartmentExternalIDExists) {
		t.Fatalf("外部 ID 冲突应返回 ErrDepartmentExternalIDExists, 实际 %v", err)
	}
}

func TestDepartmentCreateRejectsOutOfRangeWeight(t *testing.T) {
	svc, _ := newDeptServiceForTest()

	_, err := svc.Create(context.Background(), CreateDepartmentInput{
		Name:            "运维部",
		TaskTypeWeights: map[string]interface{}{"10001": float64(15)},
	})
	var ve *loadmodel.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("权重 15 应被拒绝, 实际 %v", err)
	}
}

func TestDepartmentCreateRejectsDangerousFormula(t *testing.T) {
	svc, _ := newDeptServiceForTest()

	_, err := svc.Create(context.Background(), CreateDepartmentInput{
		Name:        "运维部",
		LoadFormula: "activeIssues; require('fs')",
	})
	var ve *loadmodel.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("危险公式应被拒绝, 实际 %v", err)
	}
}

func TestDepartmentUpdate(t *testing.T) {
	svc, _ := newDeptServiceForTest()
	ctx := context.Background()

	dept, err := svc.Create(ctx, CreateDepartmentInput{Name: "运维部"})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	newName := "平台运维部"
	formula := "activeIssues * 2 + dailyIssues"
	updated, err := svc.Update(ctx, dept.DepartmentID, UpdateDepartmentInput{
		Name:        &newName,
		LoadFormula: &formula,
		UpdatedBy:   "admin",
	})
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if updated.Name != newName || updated.LoadCalculationFormula != formula {
		t.Errorf("更新未生效: %+v", updated)
	}
	if updated.Version != dept.Version+1 {
		t.Errorf("版本应自增: %d -> %d", dept.Version, updated.Version)
	}
}

func TestDepartmentUpdateFormula(t *testing.T) {
	svc, _ := newDeptServiceForTest()
	ctx := context.Background()

	dept, err := svc.Create(ctx, CreateDepartmentInput{Name: "运维部"})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	updated, err := svc.UpdateFormula(ctx, dept.DepartmentID, "activeIssues + dailyIssues * 0.5", "admin")
	if err != nil {
		t.Fatalf("UpdateFormula 应成功: %v", err)
	}
	if updated.LoadCalculationFormula != "activeIssues + dailyIssues * 0.5" {
		t.Errorf("公式未更新: %q", updated.LoadCalculationFormula)
	}

	if _, err := svc.UpdateFormula(ctx, dept.DepartmentID, "eval('x')", "admin"); err == nil {
		t.Fatalf("危险公式应被拒绝")
	}
}

func TestDepartmentSetAndRemoveTypeWeight(t *testing.T) {
	svc, _ := newDeptServiceForTest()
	ctx := context.Background()

	dept, err := svc.Create(ctx, CreateDepartmentInput{Name: "运维部"})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	updated, err := svc.SetTypeWeight(ctx, dept.DepartmentID, model.TaskTypeWeight{
		TypeID: "10001", Name: "bug", Weight: 2.5,
	}, "admin")
	if err != nil {
		t.Fatalf("SetTypeWeight 应成功: %v", err)
	}
	if len(updated.TaskTypeWeights) != 1 || updated.TaskTypeWeights[0].Weight != 2.5 {
		t.Errorf("权重未写入: %+v", updated.TaskTypeWeights)
	}

	// 同类型覆盖
	updated, err = svc.SetTypeWeight(ctx, dept.DepartmentID, model.TaskTypeWeight{
		TypeID: "10001", Weight: 3,
	}, "admin")
	if err != nil {
		t.Fatalf("SetTypeWeight 覆盖应成功: %v", err)
	}
	if len(updated.TaskTypeWeights) != 1 || updated.TaskTypeWeights[0].Weight != 3 {
		t.Errorf("权重应被覆盖: %+v", updated.TaskTypeWeights)
	}

	updated, err = svc.RemoveTypeWeight(ctx, dept.DepartmentID, "10001", "admin")
	if err != nil {
		t.Fatalf("RemoveTypeWeight 应成功: %v", err)
	}
	if len(updated.TaskTypeWeights) != 0 {
		t.Errorf("权重应已删除: %+v", updated.TaskTypeWeights)
	}

	if _, err := svc.RemoveTypeWeight(ctx, dept.DepartmentID, "10001", "admin"); !errors.Is(err, ErrTypeWeightNotFound) {
		t.Fatalf("删除不存在的权重应返回 ErrTypeWeightNotFound, 实际 %v", err)
	}
}

func TestDepartmentDeleteAndRestore(t *testing.T) {
	svc, _ := newDeptServiceForTest()
	ctx := context.Background()

	dept, err := svc.Create(ctx, CreateDepartmentInput{Name: "运维部"})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	if err := svc.Delete(ctx, dept.DepartmentID, "admin"); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if _, err := svc.Get(ctx, dept.DepartmentID); !errors.Is(err, ErrDepartmentNotFound) {
		t.Fatalf("删除后 Get 应返回 ErrDepartmentNotFound, 实际 %v", err)
	}

	restored, err := svc.Restore(ctx, dept.DepartmentID)
	if err != nil {
		t.Fatalf("Restore 应成功: %v", err)
	}
	if restored.IsActive {
		t.Errorf("恢复后的部门应保持停用,需显式重新启用")
	}

	// 再次恢复应失败
	if _, err := svc.Restore(ctx, dept.DepartmentID); !errors.Is(err, ErrDepartmentNotDeleted) {
		t.Fatalf("重复 Restore 应返回 ErrDepartmentNotDeleted, 实际 %v", err)
	}
}

func TestDepartmentSetActive(t *testing.T) {
	svc, _ := newDeptServiceForTest()
	ctx := context.Background()

	dept, err := svc.Create(ctx, CreateDepartmentInput{Name: "运维部"})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	updated, err := svc.SetActive(ctx, dept.DepartmentID, false, "admin")
	if err != nil {
		t.Fatalf("SetActive 应成功: %v", err)
	}
	if updated.IsActive {
		t.Errorf("部门应已停用")
	}
}

package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shift-dispatch/backend/internal/dto"
	"shift-dispatch/backend/internal/model"
	"shift-dispatch/backend/internal/repository"
	"shift-dispatch/backend/internal/service"
	"shift-dispatch/backend/pkg/response"
)

// DepartmentHandler 部门配置接口。
type DepartmentHandler struct {
	svc    *service.DepartmentService
	logger *zap.Logger
}

// NewDepartmentHandler 创建部门处理器。
func NewDepartmentHandler(svc *service.DepartmentService, logger *zap.Logger) *DepartmentHandler {
	return &DepartmentHandler{svc: svc, logger: logger}
}

// operator 取请求方标识,暂以请求头代替认证主体。
func operator(c *gin.Context) string {
	if v := c.GetHeader("X-Operator"); v != "" {
		return v
	}
	return "system"
}

// Create POST /api/v1/departments
func (h *DepartmentHandler) Create(c *gin.Context) {
	var req dto.CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, CodeParamInvalid, "参数校验失败: "+err.Error())
		return
	}

	dept, err := h.svc.Create(c.Request.Context(), service.CreateDepartmentInput{
		Name:               req.Name,
		ExternalID:         req.ExternalID,
		Description:        req.Description,
		TaskTypeWeights:    req.TaskTypeWeights,
		LoadFormula:        req.LoadFormula,
		DefaultMaxLoad:     req.DefaultMaxLoad,
		PriorityMultiplier: req.PriorityMultiplier,
		CreatedBy:          operator(c),
	})
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	response.Created(c, dept)
}

// Get GET /api/v1/departments/:id
func (h *DepartmentHandler) Get(c *gin.Context) {
	dept, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	response.OK(c, dept)
}

// List GET /api/v1/departments
func (h *DepartmentHandler) List(c *gin.Context) {
	var q dto.ListDepartmentsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, CodeParamInvalid, "参数校验失败: "+err.Error())
		return
	}

	depts, total, err := h.svc.List(c.Request.Context(), repository.DepartmentListOptions{
		Active:         q.Active,
		IncludeDeleted: q.IncludeDeleted,
		Search:         q.Search,
		Limit:          q.PageSize,
		Offset:         (q.Page - 1) * q.PageSize,
		SortBy:         q.SortBy,
		SortDesc:       q.SortDesc,
	})
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{
		"items":    depts,
		"total":    total,
		"page":     q.Page,
		"pageSize": q.PageSize,
	})
}

// Update PUT /api/v1/departments/:id
func (h *DepartmentHandler) Update(c *gin.Context) {
	var req dto.UpdateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, CodeParamInvalid, "参数校验失败: "+err.Error())
		return
	}

	dept, err := h.svc.Update(c.Request.Context(), c.Param("id"), service.UpdateDepartmentInput{
		Name:               req.Name,
		Description:        req.Description,
		TaskTypeWeights:    req.TaskTypeWeights,
		LoadFormula:        req.LoadFormula,
		DefaultMaxLoad:     req.DefaultMaxLoad,
		PriorityMultiplier: req.PriorityMultiplier,
		UpdatedBy:          operator(c),
	})
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	response.OK(c, dept)
}

// UpdateFormula PUT /api/v1/departments/:id/formula
func (h *DepartmentHandler) UpdateFormula(c *gin.Context) {
	var req dto.UpdateFormulaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, CodeParamInvalid, "参数校验失败: "+err.Error())
		return
	}

	dept, err := h.svc.UpdateFormula(c.Request.Context(), c.Param("id"), req.Formula, operator(c))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	response.OK(c, dept)
}

// SetActive PATCH /api/v1/departments/:id/active
func (h *DepartmentHandler) SetActive(c *gin.Context) {
	var req dto.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, CodeParamInvalid, "参数校验失败: "+err.Error())
		return
	}

	dept, err := h.svc.SetActive(c.Request.Context(), c.Param("id"), *req.IsActive, operator(c))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	response.OK(c, dept)
}

// SetTypeWeight PUT /api/v1/departments/:id/weights
func (h *DepartmentHandler) SetTypeWeight(c *gin.Context) {
	var req dto.SetTypeWeightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, CodeParamInvalid, "参数校验失败: "+err.Error())
		return
	}

	dept, err := h.svc.SetTypeWeight(c.Request.Context(), c.Param("id"), model.TaskTypeWeight{
		TypeID: req.TypeID,
		Name:   req.Name,
		Weight: req.Weight,
	}, operator(c))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	response.OK(c, dept)
}

// RemoveTypeWeight DELETE /api/v1/departments/:id/weights/:typeId
func (h *DepartmentHandler) RemoveTypeWeight(c *gin.Context) {
	dept, err := h.svc.RemoveTypeWeight(c.Request.Context(), c.Param("id"), c.Param("typeId"), operator(c))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	response.OK(c, dept)
}

// Delete DELETE /api/v1/departments/:id
func (h *DepartmentHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), operator(c)); err != nil {
		handleError(c, h.logger, err)
		return
	}
	response.OK(c, nil)
}

// Restore POST /api/v1/departments/:id/restore
func (h *DepartmentHandler) Restore(c *gin.Context) {
	dept, err := h.svc.Restore(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	response.OK(c, dept)
}

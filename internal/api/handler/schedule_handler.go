package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shift-dispatch/backend/internal/dto"
	"shift-dispatch/backend/internal/model"
	"shift-dispatch/backend/internal/repository"
	"shift-dispatch/backend/internal/service"
	"shift-dispatch/backend/pkg/response"
)

// ScheduleHandler 成员排班接口。
type ScheduleHandler struct {
	svc    *service.WorkScheduleService
	logger *zap.Logger
}

// NewScheduleHandler 创建排班处理器。
func NewScheduleHandler(svc *service.WorkScheduleService, logger *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{svc: svc, logger: logger}
}

// shiftMapFromRequest 把请求里的字符串星期键转为内部表示。
func shiftMapFromRequest(raw map[string]dto.ShiftWindowRequest) (model.ShiftMap, error) {
	if raw == nil {
		return nil, nil
	}
	shifts := make(model.ShiftMap, len(raw))
	for key, win := range raw {
		day, err := strconv.Atoi(key)
		if err != nil {
			return nil, service.ErrInvalidDayOfWeek
		}
		shifts[day] = model.ShiftWindow{StartTime: win.StartTime, EndTime: win.EndTime}
	}
	return shifts, nil
}

// Create POST /api/v1/schedules
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req dto.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, CodeParamInvalid, "参数校验失败: "+err.Error())
		return
	}

	shifts, err := shiftMapFromRequest(req.Shifts)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	schedule, err := h.svc.Create(c.Request.Context(), service.CreateScheduleInput{
		AccountID:     req.AccountID,
		AssigneeName:  req.AssigneeName,
		AssigneeEmail: req.AssigneeEmail,
		DepartmentID:  req.DepartmentID,
		Shifts:        shifts,
		Limits: model.Limits{
			MaxDailyIssues:       req.Limits.MaxDailyIssues,
			MaxActiveIssues:      req.Limits.MaxActiveIssues,
			PreferredLoadPercent: req.Limits.PreferredLoadPercent,
		},
		CreatedBy: operator(c),
	})
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	response.Created(c, schedule)
}

// Get GET /api/v1/schedules/:id
func (h *ScheduleHandler) Get(c *gin.Context) {
	schedule, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	response.OK(c, schedule)
}

// List GET /api/v1/schedules
func (h *ScheduleHandler) List(c *gin.Context) {
	onlyActive := c.DefaultQuery("onlyActive", "false") == "true"
	schedules, err := h.svc.List(c.Request.Context(), onlyActive)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	response.OK(c, schedules)
}

// Update PUT /api/v1/schedules/:id
func (h *ScheduleHandler) Update(c *gin.Context) {
	var req dto.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, CodeParamInvalid, "参数校验失败: "+err.Error())
		return
	}

	shifts, err := shiftMapFromRequest(req.Shifts)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	schedule, err := h.svc.Update(c.Request.Context(), c.Param("id"), service.UpdateScheduleInput{
		AssigneeName: req.AssigneeName,
		DepartmentID: req.DepartmentID,
		Shifts:       shifts,
		UpdatedBy:    operator(c),
	})
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	response.OK(c, schedule)
}

// UpdateShift PUT /api/v1/schedules/:id/shifts/:day
func (h *ScheduleHandler) UpdateShift(c *gin.Context) {
	day, err := strconv.Atoi(c.Param("day"))
	if err != nil {
		handleError(c, h.logger, service.ErrInvalidDayOfWeek)
		return
	}
	var req dto.UpdateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, CodeParamInvalid, "参数校验失败: "+err.Error())
		return
	}

	schedule, err := h.svc.UpdateShiftForDay(c.Request.Context(), c.Param("id"), day,
		model.ShiftWindow{StartTime: req.StartTime, EndTime: req.EndTime}, operator(c))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	response.OK(c, schedule)
}

// RemoveShift DELETE /api/v1/schedules/:id/shifts/:day
func (h *ScheduleHandler) RemoveShift(c *gin.Context) {
	day, err := strconv.Atoi(c.Param("day"))
	if err != nil {
		handleError(c, h.logger, service.ErrInvalidDayOfWeek)
		return
	}
	schedule, err := h.svc.RemoveShiftForDay(c.Request.Context(), c.Param("id"), day, operator(c))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	response.OK(c, schedule)
}

// UpdateLimits PUT /api/v1/schedules/:id/limits
func (h *ScheduleHandler) UpdateLimits(c *gin.Context) {
	var req dto.LimitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, CodeParamInvalid, "参数校验失败: "+err.Error())
		return
	}

	schedule, err := h.svc.UpdateLimits(c.Request.Context(), c.Param("id"), model.Limits{
		MaxDailyIssues:       req.MaxDailyIssues,
		MaxActiveIssues:      req.MaxActiveIssues,
		PreferredLoadPercent: req.PreferredLoadPercent,
	}, operator(c))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	response.OK(c, schedule)
}

// SetActive PATCH /api/v1/schedules/:id/active
func (h *ScheduleHandler) SetActive(c *gin.Context) {
	var req dto.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, CodeParamInvalid, "参数校验失败: "+err.Error())
		return
	}

	schedule, err := h.svc.SetActive(c.Request.Context(), c.Param("id"), *req.IsActive, operator(c))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	response.OK(c, schedule)
}

// WorkingAssignees GET /api/v1/schedules/working
func (h *ScheduleHandler) WorkingAssignees(c *gin.Context) {
	var q dto.WorkingAssigneesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, CodeParamInvalid, "参数校验失败: "+err.Error())
		return
	}

	schedules, err := h.svc.GetWorkingAssigneesForDay(c.Request.Context(), q.DayOfWeek, repository.DayQueryOptions{
		OnlyActive: q.OnlyActive,
		StartTime:  q.StartTime,
		EndTime:    q.EndTime,
	})
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	response.OK(c, schedules)
}

// Delete DELETE /api/v1/schedules/:id
func (h *ScheduleHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), operator(c)); err != nil {
		handleError(c, h.logger, err)
		return
	}
	response.OK(c, nil)
}

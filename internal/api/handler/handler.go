// Package handler 把 HTTP 请求翻译为业务调用,并把业务错误
// 映射到统一响应码。
package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shift-dispatch/backend/internal/cache"
	"shift-dispatch/backend/internal/loadmodel"
	"shift-dispatch/backend/internal/service"
	"shift-dispatch/backend/pkg/response"
)

// 业务错误码,0 成功,10xxx 通用,20xxx 部门,21xxx 排班,22xxx 缓存。
const (
	CodeParamInvalid = 10001

	CodeDepartmentNotFound = 20001
	CodeDepartmentConflict = 20002
	CodeWeightInvalid      = 20003
	CodeDepartmentInvalid  = 20004

	CodeScheduleNotFound = 21001
	CodeScheduleConflict = 21002
	CodeShiftInvalid     = 21003

	CodeEntryNotFound = 22001
	CodeEntryConflict = 22002
)

// Handler HTTP 处理器聚合。
type Handler struct {
	Department *DepartmentHandler
	Schedule   *ScheduleHandler
	Pool       *PoolHandler
}

// New 组装处理器。
func New(svc *service.Service, duty *cache.DutyCacheManager, dispatch *cache.DispatchCacheManager, logger *zap.Logger) *Handler {
	return &Handler{
		Department: NewDepartmentHandler(svc.Department, logger),
		Schedule:   NewScheduleHandler(svc.WorkSchedule, logger),
		Pool:       NewPoolHandler(svc, duty, dispatch, logger),
	}
}

// handleError 统一的业务错误落点,未识别的错误按内部错误处理。
func handleError(c *gin.Context, logger *zap.Logger, err error) {
	var ve *loadmodel.ValidationError
	switch {
	case errors.Is(err, service.ErrDepartmentNotFound):
		response.NotFound(c, CodeDepartmentNotFound, err.Error())
	case errors.Is(err, service.ErrDepartmentNameExists),
		errors.Is(err, service.ErrDepartmentExternalIDExists):
		response.Conflict(c, CodeDepartmentConflict, err.Error())
	case errors.Is(err, service.ErrDepartmentNotDeleted),
		errors.Is(err, service.ErrDepartmentConfigMissing):
		response.BadRequest(c, CodeDepartmentInvalid, err.Error())
	case errors.Is(err, service.ErrTypeWeightNotFound):
		response.NotFound(c, CodeWeightInvalid, err.Error())
	case errors.As(err, &ve):
		response.BadRequest(c, CodeWeightInvalid, ve.Error())
	case errors.Is(err, service.ErrScheduleNotFound):
		response.NotFound(c, CodeScheduleNotFound, err.Error())
	case errors.Is(err, service.ErrScheduleAccountExists),
		errors.Is(err, service.ErrScheduleEmailExists):
		response.Conflict(c, CodeScheduleConflict, err.Error())
	case errors.Is(err, service.ErrInvalidShiftTime),
		errors.Is(err, service.ErrInvalidDayOfWeek):
		response.BadRequest(c, CodeShiftInvalid, err.Error())
	case errors.Is(err, cache.ErrShiftNotFound):
		response.NotFound(c, CodeEntryNotFound, err.Error())
	case errors.Is(err, cache.ErrShiftExists):
		response.Conflict(c, CodeEntryConflict, err.Error())
	default:
		logger.Error("未处理的业务错误", zap.Error(err))
		response.InternalError(c)
	}
}

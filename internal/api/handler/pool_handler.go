package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shift-dispatch/backend/internal/cache"
	"shift-dispatch/backend/internal/dto"
	"shift-dispatch/backend/internal/metrics"
	"shift-dispatch/backend/internal/service"
	"shift-dispatch/backend/pkg/response"
)

// PoolHandler 值班池与派单缓存接口。
type PoolHandler struct {
	svc      *service.Service
	duty     *cache.DutyCacheManager
	dispatch *cache.DispatchCacheManager
	logger   *zap.Logger
}

// NewPoolHandler 创建缓存处理器。
func NewPoolHandler(svc *service.Service, duty *cache.DutyCacheManager, dispatch *cache.DispatchCacheManager, logger *zap.Logger) *PoolHandler {
	return &PoolHandler{svc: svc, duty: duty, dispatch: dispatch, logger: logger}
}

// ── 同步触发 ──

// SyncAll POST /api/v1/pool/sync
func (h *PoolHandler) SyncAll(c *gin.Context) {
	var req dto.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.BadRequest(c, CodeParamInvalid, "参数校验失败: "+err.Error())
		return
	}

	results, err := h.svc.PoolSync.SyncAll(c.Request.Context(), service.SyncOptions{
		DaysInFuture: req.DaysInFuture,
		OnlyActive:   req.OnlyActive,
	})
	if err != nil {
		metrics.SyncRunsTotal.WithLabelValues("error").Inc()
		handleError(c, h.logger, err)
		return
	}
	metrics.SyncRunsTotal.WithLabelValues("ok").Inc()
	response.OK(c, results)
}

// SyncDepartment POST /api/v1/pool/sync/:departmentId
func (h *PoolHandler) SyncDepartment(c *gin.Context) {
	var req dto.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.BadRequest(c, CodeParamInvalid, "参数校验失败: "+err.Error())
		return
	}

	dept, err := h.svc.Department.Get(c.Request.Context(), c.Param("departmentId"))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	stats, err := h.svc.PoolSync.Sync(c.Request.Context(), dept, service.SyncOptions{
		DaysInFuture: req.DaysInFuture,
		OnlyActive:   req.OnlyActive,
	})
	if err != nil {
		metrics.SyncRunsTotal.WithLabelValues("error").Inc()
		handleError(c, h.logger, err)
		return
	}
	metrics.SyncRunsTotal.WithLabelValues("ok").Inc()
	response.OK(c, stats)
}

// ── 值班池 ──

// AddDutyMember POST /api/v1/pool/duty/:department/members
func (h *PoolHandler) AddDutyMember(c *gin.Context) {
	var req dto.AddDutyMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, CodeParamInvalid, "参数校验失败: "+err.Error())
		return
	}

	added, err := h.duty.Add(c.Request.Context(), c.Param("department"), req.AccountID,
		req.Metadata, time.Duration(req.TTLSeconds)*time.Second)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	metrics.CacheOpsTotal.WithLabelValues("duty", "add").Inc()
	response.OK(c, gin.H{"added": added})
}

// BulkAddDutyMembers POST /api/v1/pool/duty/:department/members/bulk
func (h *PoolHandler) BulkAddDutyMembers(c *gin.Context) {
	var req dto.BulkAddDutyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, CodeParamInvalid, "参数校验失败: "+err.Error())
		return
	}

	items := make([]cache.BulkAddItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, cache.BulkAddItem{
			AccountID: item.AccountID,
			Metadata:  item.Metadata,
			TTL:       time.Duration(item.TTLSeconds) * time.Second,
		})
	}
	stats, err := h.duty.BulkAdd(c.Request.Context(), c.Param("department"), items)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	metrics.CacheOpsTotal.WithLabelValues("duty", "bulk_add").Inc()
	response.OK(c, stats)
}

// ListDutyMembers GET /api/v1/pool/duty/:department/members
func (h *PoolHandler) ListDutyMembers(c *gin.Context) {
	entries, err := h.duty.ListByDepartment(c.Request.Context(), c.Param("department"))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"items": entries, "count": len(entries)})
}

// GetDutyMember GET /api/v1/pool/duty/:department/members/:accountId
func (h *PoolHandler) GetDutyMember(c *gin.Context) {
	entry, err := h.duty.Get(c.Request.Context(), c.Param("department"), c.Param("accountId"))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	if entry == nil {
		response.NotFound(c, CodeEntryNotFound, "成员不在值班池中")
		return
	}
	response.OK(c, entry)
}

// RemoveDutyMember DELETE /api/v1/pool/duty/:department/members/:accountId
func (h *PoolHandler) RemoveDutyMember(c *gin.Context) {
	removed, err := h.duty.Remove(c.Request.Context(), c.Param("department"), c.Param("accountId"))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	if !removed {
		response.NotFound(c, CodeEntryNotFound, "成员不在值班池中")
		return
	}
	metrics.CacheOpsTotal.WithLabelValues("duty", "remove").Inc()
	response.OK(c, nil)
}

// ClearDutyPool DELETE /api/v1/pool/duty/:department
func (h *PoolHandler) ClearDutyPool(c *gin.Context) {
	removed, err := h.duty.Clear(c.Request.Context(), c.Param("department"))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	metrics.CacheOpsTotal.WithLabelValues("duty", "clear").Inc()
	response.OK(c, gin.H{"removed": removed})
}

// ── 派单缓存 ──

// CreateDispatchEntry POST /api/v1/pool/dispatch
func (h *PoolHandler) CreateDispatchEntry(c *gin.Context) {
	var req dto.CreateDispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, CodeParamInvalid, "参数校验失败: "+err.Error())
		return
	}

	entry, err := h.svc.Dispatch.CreateFromDepartment(c.Request.Context(), service.CreateDispatchInput{
		DepartmentID: req.DepartmentID,
		AccountID:    req.AccountID,
		Email:        req.Email,
		AssigneeName: req.AssigneeName,
		TTL:          time.Duration(req.TTLSeconds) * time.Second,
		ShiftStart:   req.ShiftStartTime,
		ShiftEnd:     req.ShiftEndTime,
	})
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	metrics.CacheOpsTotal.WithLabelValues("dispatch", "create").Inc()
	response.Created(c, entry)
}

// ListDispatchEntries GET /api/v1/pool/dispatch
// 支持 department / accountId / email 三个互斥的过滤参数。
func (h *PoolHandler) ListDispatchEntries(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		entries []cache.DispatchEntry
		err     error
	)
	switch {
	case c.Query("department") != "":
		entries, err = h.dispatch.ListByDepartment(ctx, c.Query("department"))
	case c.Query("accountId") != "":
		entries, err = h.dispatch.ListByAccount(ctx, c.Query("accountId"))
	case c.Query("email") != "":
		entries, err = h.dispatch.ListByEmail(ctx, c.Query("email"))
	default:
		entries, err = h.dispatch.ListAll(ctx)
	}
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"items": entries, "count": len(entries)})
}

// DispatchStats GET /api/v1/pool/dispatch/stats
func (h *PoolHandler) DispatchStats(c *gin.Context) {
	stats, err := h.dispatch.Stats(c.Request.Context())
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	response.OK(c, stats)
}

// GetDispatchEntry GET /api/v1/pool/dispatch/:department/:accountId/:email
func (h *PoolHandler) GetDispatchEntry(c *gin.Context) {
	entry, err := h.dispatch.Get(c.Request.Context(),
		c.Param("department"), c.Param("accountId"), c.Param("email"))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	ttl, err := h.dispatch.GetTTL(c.Request.Context(),
		c.Param("department"), c.Param("accountId"), c.Param("email"))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"entry": entry, "ttlSeconds": int64(ttl.Seconds())})
}

// DispatchEntryExists GET /api/v1/pool/dispatch/:department/:accountId/:email/exists
func (h *PoolHandler) DispatchEntryExists(c *gin.Context) {
	exists, err := h.dispatch.Exists(c.Request.Context(),
		c.Param("department"), c.Param("accountId"), c.Param("email"))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"exists": exists})
}

// GetDispatchTTL GET /api/v1/pool/dispatch/:department/:accountId/:email/ttl
func (h *PoolHandler) GetDispatchTTL(c *gin.Context) {
	ttl, err := h.dispatch.GetTTL(c.Request.Context(),
		c.Param("department"), c.Param("accountId"), c.Param("email"))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"ttlSeconds": int64(ttl.Seconds())})
}

// IncrementTasks POST /api/v1/pool/dispatch/:department/:accountId/:email/increment
func (h *PoolHandler) IncrementTasks(c *gin.Context) {
	var req dto.IncrementTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.BadRequest(c, CodeParamInvalid, "参数校验失败: "+err.Error())
		return
	}
	count := req.Count
	if count <= 0 {
		count = 1
	}

	entry, err := h.dispatch.IncrementCompletedTasks(c.Request.Context(),
		c.Param("department"), c.Param("accountId"), c.Param("email"), count)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	metrics.CacheOpsTotal.WithLabelValues("dispatch", "increment").Inc()
	response.OK(c, entry)
}

// UpdateDispatchTTL PUT /api/v1/pool/dispatch/:department/:accountId/:email/ttl
func (h *PoolHandler) UpdateDispatchTTL(c *gin.Context) {
	var req dto.UpdateTTLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, CodeParamInvalid, "参数校验失败: "+err.Error())
		return
	}

	err := h.dispatch.UpdateTTL(c.Request.Context(),
		c.Param("department"), c.Param("accountId"), c.Param("email"),
		time.Duration(req.TTLSeconds)*time.Second)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	response.OK(c, nil)
}

// RemoveDispatchEntry DELETE /api/v1/pool/dispatch/:department/:accountId/:email
func (h *PoolHandler) RemoveDispatchEntry(c *gin.Context) {
	removed, err := h.dispatch.Remove(c.Request.Context(),
		c.Param("department"), c.Param("accountId"), c.Param("email"))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	if !removed {
		response.NotFound(c, CodeEntryNotFound, "派单条目不存在")
		return
	}
	metrics.CacheOpsTotal.WithLabelValues("dispatch", "remove").Inc()
	response.OK(c, nil)
}

// RemoveDispatchByDepartment DELETE /api/v1/pool/dispatch/department/:department
func (h *PoolHandler) RemoveDispatchByDepartment(c *gin.Context) {
	removed, err := h.dispatch.RemoveAllByDepartment(c.Request.Context(), c.Param("department"))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	metrics.CacheOpsTotal.WithLabelValues("dispatch", "clear").Inc()
	response.OK(c, gin.H{"removed": removed})
}

// [自证通过] internal/api/handler/pool_handler.go

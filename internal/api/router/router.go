// Package router 注册 HTTP 路由。
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"shift-dispatch/backend/config"
	"shift-dispatch/backend/internal/api/handler"
	"shift-dispatch/backend/internal/api/middleware"
	"shift-dispatch/backend/pkg/redis"
	"shift-dispatch/backend/pkg/response"
)

// New 组装 gin 引擎与全部路由。
func New(h *handler.Handler, cfg *config.Config, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(&cfg.Server.CORS))

	// ── 运维端点 ──
	r.GET("/health", func(c *gin.Context) {
		response.OK(c, gin.H{"status": "ok", "time": time.Now().Format(time.RFC3339)})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, 10002, "接口不存在")
	})

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(rdb, 300, time.Minute, logger))

	// ── 部门 ──
	departments := api.Group("/departments")
	{
		departments.POST("", h.Department.Create)
		departments.GET("", h.Department.List)
		departments.GET("/:id", h.Department.Get)
		departments.PUT("/:id", h.Department.Update)
		departments.DELETE("/:id", h.Department.Delete)
		departments.PATCH("/:id/active", h.Department.SetActive)
		departments.PUT("/:id/formula", h.Department.UpdateFormula)
		departments.PUT("/:id/weights", h.Department.SetTypeWeight)
		departments.DELETE("/:id/weights/:typeId", h.Department.RemoveTypeWeight)
		departments.POST("/:id/restore", h.Department.Restore)
	}

	// ── 排班 ──
	schedules := api.Group("/schedules")
	{
		schedules.POST("", h.Schedule.Create)
		schedules.GET("", h.Schedule.List)
		schedules.GET("/working", h.Schedule.WorkingAssignees)
		schedules.GET("/:id", h.Schedule.Get)
		schedules.PUT("/:id", h.Schedule.Update)
		schedules.DELETE("/:id", h.Schedule.Delete)
		schedules.PUT("/:id/shifts/:day", h.Schedule.UpdateShift)
		schedules.DELETE("/:id/shifts/:day", h.Schedule.RemoveShift)
		schedules.PUT("/:id/limits", h.Schedule.UpdateLimits)
		schedules.PATCH("/:id/active", h.Schedule.SetActive)
	}

	// ── 值班池与派单缓存 ──
	pool := api.Group("/pool")
	{
		pool.POST("/sync", h.Pool.SyncAll)
		pool.POST("/sync/:departmentId", h.Pool.SyncDepartment)

		pool.POST("/duty/:department/members", h.Pool.AddDutyMember)
		pool.POST("/duty/:department/members/bulk", h.Pool.BulkAddDutyMembers)
		pool.GET("/duty/:department/members", h.Pool.ListDutyMembers)
		pool.GET("/duty/:department/members/:accountId", h.Pool.GetDutyMember)
		pool.DELETE("/duty/:department/members/:accountId", h.Pool.RemoveDutyMember)
		pool.DELETE("/duty/:department", h.Pool.ClearDutyPool)

		pool.POST("/dispatch", h.Pool.CreateDispatchEntry)
		pool.GET("/dispatch", h.Pool.ListDispatchEntries)
		pool.GET("/dispatch/stats", h.Pool.DispatchStats)
		pool.DELETE("/dispatch/department/:department", h.Pool.RemoveDispatchByDepartment)
		pool.GET("/dispatch/:department/:accountId/:email", h.Pool.GetDispatchEntry)
		pool.GET("/dispatch/:department/:accountId/:email/exists", h.Pool.DispatchEntryExists)
		pool.GET("/dispatch/:department/:accountId/:email/ttl", h.Pool.GetDispatchTTL)
		pool.POST("/dispatch/:department/:accountId/:email/increment", h.Pool.IncrementTasks)
		pool.PUT("/dispatch/:department/:accountId/:email/ttl", h.Pool.UpdateDispatchTTL)
		pool.DELETE("/dispatch/:department/:accountId/:email", h.Pool.RemoveDispatchEntry)
	}

	return r
}

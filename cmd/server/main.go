package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"shift-dispatch/backend/config"
	"shift-dispatch/backend/internal/api/handler"
	"shift-dispatch/backend/internal/api/router"
	"shift-dispatch/backend/internal/cache"
	"shift-dispatch/backend/internal/events"
	"shift-dispatch/backend/internal/repository"
	"shift-dispatch/backend/internal/scheduler"
	"shift-dispatch/backend/internal/service"
	"shift-dispatch/backend/pkg/database"
	"shift-dispatch/backend/pkg/logger"
	"shift-dispatch/backend/pkg/redis"
	"shift-dispatch/backend/pkg/retry"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径")
	flag.Parse()

	// ── 配置 ──
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// ── 日志 ──
	zapLogger, err := logger.NewLogger(&cfg.Log)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer zapLogger.Sync()

	// ── 数据库(带重试,等待依赖就绪)──
	var db *gorm.DB
	connectPolicy := retry.Policy{
		MaxAttempts: 5,
		Backoff:     retry.ExponentialBackoff(time.Second, 30*time.Second),
		Jitter:      500 * time.Millisecond,
	}
	err = connectPolicy.Do(context.Background(), "连接数据库", func() error {
		var connErr error
		db, connErr = database.NewDB(&cfg.Database, zapLogger)
		return connErr
	})
	if err != nil {
		zapLogger.Fatal("连接数据库失败", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		zapLogger.Fatal("获取底层连接失败", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := database.RunMigrations(sqlDB, zapLogger); err != nil {
		zapLogger.Fatal("执行数据库迁移失败", zap.Error(err))
	}

	// ── Redis(不可用时降级:缓存接口返回错误,限流放行)──
	rdb, err := redis.NewClient(&cfg.Redis, zapLogger)
	if err != nil {
		zapLogger.Warn("连接 Redis 失败,缓存功能降级", zap.Error(err))
		rdb = nil
	} else {
		defer rdb.Close()
	}

	// ── 事件发布 ──
	var publisher events.Publisher = events.NewNopPublisher()
	if cfg.Events.Enabled && rdb != nil {
		publisher = events.NewStreamPublisher(rdb, cfg.Events.Stream, zapLogger)
	}

	// ── 缓存管理器 ──
	var store cache.Store = cache.NewUnavailableStore()
	if rdb != nil {
		store = rdb
	}
	duty := cache.NewDutyCacheManager(store, cfg.Cache.DutyDefaultTTL, zapLogger)
	dispatch := cache.NewDispatchCacheManager(store, publisher, cfg.Cache.DispatchDefaultTTL, zapLogger)

	// ── 业务层 ──
	repo := repository.NewRepository(db)
	svc, err := service.NewService(repo, duty, dispatch, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("初始化业务层失败", zap.Error(err))
	}

	// ── 定时同步 ──
	if cfg.Sync.Enabled {
		sched, err := scheduler.New(svc.PoolSync, &cfg.Sync, zapLogger)
		if err != nil {
			zapLogger.Fatal("初始化同步定时器失败", zap.Error(err))
		}
		sched.Start()
		defer sched.Stop()
	}

	// ── HTTP 服务 ──
	h := handler.New(svc, duty, dispatch, zapLogger)
	engine := router.New(h, cfg, rdb, zapLogger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		zapLogger.Info("HTTP 服务启动", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("HTTP 服务异常退出", zap.Error(err))
		}
	}()

	// ── 优雅停机 ──
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("收到停机信号,开始优雅停机")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("优雅停机失败", zap.Error(err))
	}
	zapLogger.Info("服务已退出")
}

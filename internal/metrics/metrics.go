// Package metrics 暴露 Prometheus 指标。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal HTTP 请求计数,按方法、路由与状态码分维。
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shift_dispatch",
		Name:      "http_requests_total",
		Help:      "HTTP 请求总数",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration HTTP 请求耗时直方图。
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "shift_dispatch",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP 请求耗时(秒)",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	// SyncRunsTotal 值班池同步次数,按结果分维。
	SyncRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shift_dispatch",
		Name:      "pool_sync_runs_total",
		Help:      "值班池同步执行总数",
	}, []string{"result"})

	// SyncMembersTotal 同步处理的成员数,按处理结果分维。
	SyncMembersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shift_dispatch",
		Name:      "pool_sync_members_total",
		Help:      "值班池同步处理的成员总数",
	}, []string{"outcome"})

	// CacheOpsTotal 缓存操作计数,按缓存类别与操作分维。
	CacheOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shift_dispatch",
		Name:      "cache_ops_total",
		Help:      "缓存操作总数",
	}, []string{"cache", "op"})
)

package ringcache

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer HTTP 监控服务器
type MetricsServer struct {
	addr   string
	role   string
	server *http.Server
	// 以下两项只在协调者上设置
	nodes   func() []string
	hotKeys func() []string
}

// NewMetricsServer 创建一个新的监控服务器。svc 为协调者时额外提供 /nodes 和 /hotkeys
func NewMetricsServer(addr string, svc Service) *MetricsServer {
	ms := &MetricsServer{addr: addr, role: roleNode}
	if c, ok := svc.(*Coordinator); ok {
		ms.role = roleCoordinator
		ms.nodes = c.ListNodes
		ms.hotKeys = c.HotKeys
	}
	ms.server = &http.Server{
		Addr:              addr,
		Handler:           ms.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return ms
}

// Handler 返回监控端点的路由
func (ms *MetricsServer) Handler() http.Handler {
	mux := http.NewServeMux()
	// Prometheus 指标端点
	mux.Handle("/metrics", promhttp.Handler())
	// 健康检查端点
	mux.HandleFunc("/health", ms.healthHandler)
	if ms.nodes != nil {
		mux.HandleFunc("/nodes", ms.nodesHandler)
	}
	if ms.hotKeys != nil {
		mux.HandleFunc("/hotkeys", ms.hotKeysHandler)
	}
	return mux
}

// Start 启动监控服务器（阻塞）
func (ms *MetricsServer) Start() error {
	Logger().Infof("metrics server listening on %s", ms.addr)
	return ms.server.ListenAndServe()
}

// Stop 停止监控服务器
func (ms *MetricsServer) Stop() error {
	return ms.server.Close()
}

func (ms *MetricsServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"status":    "healthy",
		"role":      ms.role,
		"timestamp": time.Now().Unix(),
	})
}

func (ms *MetricsServer) nodesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"nodes": ms.nodes(),
	})
}

func (ms *MetricsServer) hotKeysHandler(w http.ResponseWriter, r *http.Request) {
	keys := ms.hotKeys()
	writeJSON(w, map[string]interface{}{
		"enabled":  keys != nil,
		"hot_keys": keys,
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		Logger().WithError(err).Warn("write metrics response")
	}
}

// StartMetricsServerAsync 异步启动监控服务器
func StartMetricsServerAsync(addr string, svc Service) *MetricsServer {
	server := NewMetricsServer(addr, svc)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			Logger().WithError(err).Error("metrics server stopped")
		}
	}()
	return server
}

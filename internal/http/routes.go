package http

import "github.com/gin-gonic/gin"

// Register mounts every handler on r
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	r.GET("/services", h.ListServices)
	r.POST("/services/discover", h.DiscoverServices)
	r.POST("/services/execute", h.ExecuteService)

	bridge := r.Group("/bridge")
	{
		bridge.GET("/state", h.BridgeState)
		bridge.POST("/reset", h.ResetBridge)
		bridge.GET("/history", h.History)
		bridge.POST("/optimize", h.Optimize)
		bridge.POST("/search", h.Search)
		bridge.POST("/key", h.GenerateKey)
	}

	perf := r.Group("/performance")
	{
		perf.GET("/summary", h.PerformanceSummary)
		perf.GET("/network", h.NetworkPlan)
		perf.POST("/network", h.OptimizeNetwork)
		perf.GET("/strategy", h.NetworkStrategy)
		perf.POST("/page", h.OptimizePage)
		perf.POST("/page/metrics", h.RecordPageMetrics)
	}

	r.GET("/metrics/json", h.MetricsJSON)
}

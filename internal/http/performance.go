package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/performance"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/shared/utils"
)

// PageRequest asks for a loading strategy. Resources win over HTML, and
// HTML wins over fetching URL.
type PageRequest struct {
	URL       string                     `json:"url"`
	HTML      string                     `json:"html"`
	Resources []performance.PageResource `json:"resources"`
}

// PageMetricsRequest reports render timings measured by a page
type PageMetricsRequest struct {
	RenderTime      *float64 `json:"renderTime"`
	InteractiveTime *float64 `json:"interactiveTime"`
	ResourceCount   *float64 `json:"resourceCount"`
}

// PerformanceSummary returns windowed averages of every metric
func (h *Handlers) PerformanceSummary(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"summary":        h.store.Summarize(h.window),
		"window_seconds": h.window.Seconds(),
	})
}

// NetworkPlan returns the most recent network plan
func (h *Handlers) NetworkPlan(c *gin.Context) {
	plan := h.network.Last()
	if plan == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no network plan yet"})
		return
	}
	c.JSON(http.StatusOK, plan)
}

// OptimizeNetwork runs a network optimization now
func (h *Handlers) OptimizeNetwork(c *gin.Context) {
	timer := monitoring.NewTimer(h.metrics, "performance", "network")
	plan, err := h.network.Optimize(c.Request.Context())
	if err != nil {
		timer.Stop("error")
		h.bridgeError(c, "optimize_network", err)
		return
	}
	timer.Stop(string(plan.Source))
	c.JSON(http.StatusOK, plan)
}

// NetworkStrategy picks a real-time strategy for ?url=
func (h *Handlers) NetworkStrategy(c *gin.Context) {
	c.JSON(http.StatusOK, h.network.RealTime(c.Query("url")))
}

// OptimizePage builds a loading strategy for a page
func (h *Handlers) OptimizePage(c *gin.Context) {
	var req PageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := utils.ValidateURL(req.URL, "url", false); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Resources) > utils.MaxVariables || len(req.HTML) > utils.MaxHTMLSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "page is too large to optimize"})
		return
	}

	resources := req.Resources
	if len(resources) == 0 {
		html := req.HTML
		if html == "" {
			if req.URL == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "one of url, html or resources is required"})
				return
			}
			if h.fetcher == nil {
				c.JSON(http.StatusNotImplemented, gin.H{"error": "page fetching is not enabled"})
				return
			}
			body, err := h.fetcher.FetchPage(c.Request.Context(), req.URL)
			if err != nil {
				h.logger.Warn("Page fetch failed", zap.String("url", req.URL), zap.Error(err))
				c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
				return
			}
			html = body
		}

		extracted, err := performance.ExtractResources(html, req.URL)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		resources = extracted
	}

	timer := monitoring.NewTimer(h.metrics, "performance", "page")
	strategy, err := h.pages.Optimize(c.Request.Context(), req.URL, resources)
	if err != nil {
		timer.Stop("error")
		h.bridgeError(c, "optimize_page", err)
		return
	}
	timer.Stop("success")
	c.JSON(http.StatusOK, strategy)
}

// RecordPageMetrics stores page timings for the summary
func (h *Handlers) RecordPageMetrics(c *gin.Context) {
	var req PageMetricsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	values := map[string]*float64{
		performance.MetricRenderTime:      req.RenderTime,
		performance.MetricInteractiveTime: req.InteractiveTime,
		performance.MetricResourceCount:   req.ResourceCount,
	}
	recorded := 0
	for metric, v := range values {
		if v == nil {
			continue
		}
		if *v < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": metric + " must not be negative"})
			return
		}
		if err := h.store.Record(performance.CategoryPage, metric, *v); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		recorded++
	}
	if recorded == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no page metrics given"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"recorded": recorded})
}

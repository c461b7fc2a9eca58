package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/api/middleware"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/history"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/performance"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/quantum"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/quantum/problem"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/service"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/shared/types"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/shared/utils"
)

const (
	serviceName    = "Quantum Optimization Bridge"
	serviceVersion = "0.3.0"
	discoverLimit  = 5
)

// PageFetcher downloads a page body
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (string, error)
}

// Deps are the components the handlers serve
type Deps struct {
	Registry *service.Registry
	Bridge   *quantum.Bridge
	History  history.Store
	Store    *performance.Store
	Network  *performance.NetworkOptimizer
	Pages    *performance.PageLoadOptimizer
	Fetcher  PageFetcher
	Metrics  *monitoring.Metrics
	Window   time.Duration
	Logger   *zap.Logger
}

// Handlers contains all HTTP handlers
type Handlers struct {
	registry *service.Registry
	bridge   *quantum.Bridge
	history  history.Store
	store    *performance.Store
	network  *performance.NetworkOptimizer
	pages    *performance.PageLoadOptimizer
	fetcher  PageFetcher
	metrics  *monitoring.Metrics
	window   time.Duration
	logger   *zap.Logger
	started  time.Time
}

// NewHandlers creates a new handler set
func NewHandlers(d Deps) *Handlers {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Window <= 0 {
		d.Window = performance.DefaultWindow
	}
	return &Handlers{
		registry: d.Registry,
		bridge:   d.Bridge,
		history:  d.History,
		store:    d.Store,
		network:  d.Network,
		pages:    d.Pages,
		fetcher:  d.Fetcher,
		metrics:  d.Metrics,
		window:   d.Window,
		logger:   d.Logger,
		started:  time.Now(),
	}
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": serviceName,
		"version": serviceVersion,
	})
}

// Health reports the bridge variant alongside registry stats. A bridge
// running on the fallback build is degraded but still serving.
func (h *Handlers) Health(c *gin.Context) {
	state := h.bridge.State()
	status := "healthy"
	if state.Variant != resilience.VariantPrimary.String() {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":           status,
		"bridge":           state,
		"service_registry": h.registry.Stats(),
		"uptime_seconds":   time.Since(h.started).Seconds(),
	})
}

// ListServices lists registered services
func (h *Handlers) ListServices(c *gin.Context) {
	categoryStr := c.Query("category")
	if err := utils.ValidateCategory(categoryStr); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var category *types.Category
	if categoryStr != "" {
		cat := types.Category(categoryStr)
		category = &cat
	}

	c.JSON(http.StatusOK, gin.H{
		"services": h.registry.List(category),
		"stats":    h.registry.Stats(),
	})
}

// DiscoverServices discovers relevant services for a query
func (h *Handlers) DiscoverServices(c *gin.Context) {
	var req types.DiscoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := utils.ValidateQuery(req.Query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = discoverLimit
	}

	c.JSON(http.StatusOK, gin.H{
		"query":    req.Query,
		"services": h.registry.Discover(req.Query, limit),
	})
}

// ExecuteService executes a service tool
func (h *Handlers) ExecuteService(c *gin.Context) {
	var req types.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := utils.ValidateToolID(req.ToolID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	timer := monitoring.NewTimer(h.metrics, "registry", req.ToolID)
	result, err := h.registry.Execute(c.Request.Context(), req.ToolID, req.Params, h.appContext(c))
	if err != nil {
		timer.Stop("error")
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrServiceNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, service.ErrInvalidToolID) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	if result.Success {
		timer.Stop("success")
	} else {
		timer.Stop("failure")
	}
	c.JSON(http.StatusOK, result)
}

// MetricsJSON returns a JSON snapshot of the Prometheus counters
func (h *Handlers) MetricsJSON(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}

func (h *Handlers) appContext(c *gin.Context) *types.Context {
	return &types.Context{
		RequestID: middleware.GetRequestID(c),
		ClientIP:  c.ClientIP(),
	}
}

// bridgeError maps a bridge error to a status code: bad input is the
// caller's fault, an exhausted backend is unavailable.
func (h *Handlers) bridgeError(c *gin.Context, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, problem.ErrDimensionMismatch),
		errors.Is(err, problem.ErrEmptyProblem),
		errors.Is(err, problem.ErrInvalidKeyLength),
		errors.Is(err, problem.ErrNonFinite):
		status = http.StatusBadRequest
	case errors.Is(err, problem.ErrTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, resilience.ErrExhausted):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("Bridge operation failed", zap.String("op", op), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

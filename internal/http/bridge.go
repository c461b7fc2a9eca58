package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/history"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/quantum"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/shared/types"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/shared/utils"
)

// AllocationResponse is an outcome with its fallback reason spelled out
type AllocationResponse struct {
	*quantum.Outcome
	DurationMs     float64 `json:"durationMs"`
	FallbackReason string  `json:"fallbackReason,omitempty"`
}

// BridgeState returns the active variant and call counts
func (h *Handlers) BridgeState(c *gin.Context) {
	c.JSON(http.StatusOK, h.bridge.State())
}

// ResetBridge returns the bridge to the primary variant
func (h *Handlers) ResetBridge(c *gin.Context) {
	h.bridge.Reset()
	c.JSON(http.StatusOK, h.bridge.State())
}

// Optimize allocates resources under constraints
func (h *Handlers) Optimize(c *gin.Context) {
	var req types.OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := utils.ValidateVector(req.Resources, "resources"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := utils.ValidateMatrix(req.Constraints, len(req.Resources), "constraints"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	timer := monitoring.NewTimer(h.metrics, "bridge", "optimize")
	out, err := h.bridge.Allocate(c.Request.Context(), req.Resources, req.Constraints)
	if err != nil {
		timer.Stop("error")
		h.bridgeError(c, "optimize", err)
		return
	}
	timer.Stop(string(out.Source))

	resp := AllocationResponse{
		Outcome:    out,
		DurationMs: float64(out.Duration.Microseconds()) / 1000,
	}
	if out.Cause != nil {
		resp.FallbackReason = out.Cause.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// Search looks a target up in a database
func (h *Handlers) Search(c *gin.Context) {
	var req types.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := utils.ValidateDatabase(req.Database); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	timer := monitoring.NewTimer(h.metrics, "bridge", "search")
	result, found, err := h.bridge.RunSearch(c.Request.Context(), req.Database, req.Target)
	if err != nil {
		timer.Stop("error")
		h.bridgeError(c, "search", err)
		return
	}
	timer.Stop("success")

	resp := gin.H{"found": found}
	if found {
		resp["result"] = result
	}
	c.JSON(http.StatusOK, resp)
}

// GenerateKey returns a random bit-string key
func (h *Handlers) GenerateKey(c *gin.Context) {
	var req types.KeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := utils.ValidateKeyBits(req.Bits); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	timer := monitoring.NewTimer(h.metrics, "bridge", "generate_key")
	key, err := h.bridge.GenerateKey(c.Request.Context(), req.Bits)
	if err != nil {
		timer.Stop("error")
		h.bridgeError(c, "generate_key", err)
		return
	}
	timer.Stop("success")

	c.JSON(http.StatusOK, gin.H{"key": key, "bits": len(key)})
}

// History lists recent allocations, newest first
func (h *Handlers) History(c *gin.Context) {
	limit := history.DefaultLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	records, err := h.history.Recent(c.Request.Context(), limit)
	if err != nil {
		h.bridgeError(c, "history", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"count":   len(records),
	})
}

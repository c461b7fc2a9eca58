package system

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/performance"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/providers/common"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/shared/types"
)

const defaultLogCapacity = 1000

// Provider implements host information and the bridge event log
type Provider struct {
	startTime time.Time
	logs      *CircularLogBuffer
	sampler   performance.SystemSampler
}

// CircularLogBuffer is a thread-safe circular buffer for log entries
type CircularLogBuffer struct {
	entries []*LogEntry
	head    int
	size    int
	maxSize int
	mu      sync.RWMutex
}

// LogEntry represents a system log entry
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	RequestID string                 `json:"request_id,omitempty"`
	Context   map[string]interface{} `json:"context,omitempty"`
}

// NewProvider creates a system provider. sampler may be nil when /proc
// is unavailable; system.load then fails.
func NewProvider(sampler performance.SystemSampler) *Provider {
	return &Provider{
		startTime: time.Now(),
		logs:      NewCircularLogBuffer(defaultLogCapacity),
		sampler:   sampler,
	}
}

// NewCircularLogBuffer creates a new circular buffer for logs
func NewCircularLogBuffer(maxSize int) *CircularLogBuffer {
	if maxSize <= 0 {
		maxSize = defaultLogCapacity
	}
	return &CircularLogBuffer{
		entries: make([]*LogEntry, maxSize),
		maxSize: maxSize,
	}
}

// Add inserts a log entry into the circular buffer
func (cb *CircularLogBuffer) Add(entry *LogEntry) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.entries[cb.head] = entry
	cb.head = (cb.head + 1) % cb.maxSize
	if cb.size < cb.maxSize {
		cb.size++
	}
}

// GetRecent retrieves the most recent N entries, optionally filtered by level
func (cb *CircularLogBuffer) GetRecent(limit int, levelFilter string) []LogEntry {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	if limit > cb.size {
		limit = cb.size
	}

	result := make([]LogEntry, 0, limit)
	for i := 0; i < cb.size && len(result) < limit; i++ {
		idx := (cb.head - 1 - i + cb.maxSize) % cb.maxSize
		entry := cb.entries[idx]
		if entry != nil && (levelFilter == "" || entry.Level == levelFilter) {
			result = append(result, *entry)
		}
	}
	return result
}

// Record appends an event to the log, e.g. a backend variant change
func (s *Provider) Record(level, message string, fields map[string]interface{}) {
	s.logs.Add(&LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
		Context:   fields,
	})
}

// Definition returns service metadata
func (s *Provider) Definition() types.Service {
	return types.Service{
		ID:          "system",
		Name:        "System Service",
		Description: "Host load, runtime information and the bridge event log",
		Category:    types.CategorySystem,
		Capabilities: []string{
			"info",
			"load",
			"logging",
		},
		Tools: []types.Tool{
			{
				ID:          "system.info",
				Name:        "System Info",
				Description: "Get runtime information",
				Parameters:  []types.Parameter{},
				Returns:     "object",
			},
			{
				ID:          "system.load",
				Name:        "Host Load",
				Description: "Sample CPU, memory and storage load",
				Parameters:  []types.Parameter{},
				Returns:     "object",
			},
			{
				ID:          "system.time",
				Name:        "Current Time",
				Description: "Get current server time",
				Parameters:  []types.Parameter{},
				Returns:     "object",
			},
			{
				ID:          "system.log",
				Name:        "Log Message",
				Description: "Append a message to the event log",
				Parameters: []types.Parameter{
					{Name: "message", Type: "string", Description: "Log message", Required: true},
					{Name: "level", Type: "string", Description: "Log level (info/warn/error)", Required: false},
				},
				Returns: "boolean",
			},
			{
				ID:          "system.getLogs",
				Name:        "Get Logs",
				Description: "Retrieve recent events, newest first",
				Parameters: []types.Parameter{
					{Name: "limit", Type: "number", Description: "Number of logs to retrieve", Required: false},
					{Name: "level", Type: "string", Description: "Filter by log level", Required: false},
				},
				Returns: "array",
			},
			{
				ID:          "system.ping",
				Name:        "Ping",
				Description: "Test service availability",
				Parameters:  []types.Parameter{},
				Returns:     "object",
			},
		},
	}
}

// Execute runs a system operation
func (s *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "system.info":
		return s.info()
	case "system.load":
		return s.load(ctx)
	case "system.time":
		return s.currentTime()
	case "system.log":
		return s.log(params, appCtx)
	case "system.getLogs":
		return s.getLogs(params)
	case "system.ping":
		return s.ping()
	default:
		return common.Failuref("unknown tool: %s", toolID)
	}
}

func (s *Provider) info() (*types.Result, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return common.Success(map[string]interface{}{
		"go_version":     runtime.Version(),
		"os":             runtime.GOOS,
		"arch":           runtime.GOARCH,
		"cpus":           runtime.NumCPU(),
		"goroutines":     runtime.NumGoroutine(),
		"memory_alloc":   m.Alloc / 1024 / 1024, // MB
		"memory_sys":     m.Sys / 1024 / 1024,   // MB
		"uptime_seconds": time.Since(s.startTime).Seconds(),
	})
}

func (s *Provider) load(ctx context.Context) (*types.Result, error) {
	if s.sampler == nil {
		return common.Failure("host load sampling is not available")
	}
	sample, err := s.sampler.SampleSystem(ctx)
	if err != nil {
		return common.Failure(err.Error())
	}
	return common.Success(map[string]interface{}{
		"cpu_percent":    sample.CPU,
		"memory_percent": sample.Memory,
		"storage_mbps":   sample.Storage,
	})
}

func (s *Provider) currentTime() (*types.Result, error) {
	now := time.Now()
	return common.Success(map[string]interface{}{
		"timestamp": now.Unix(),
		"iso":       now.Format(time.RFC3339),
		"unix_ms":   now.UnixMilli(),
	})
}

func (s *Provider) log(params map[string]interface{}, ctx *types.Context) (*types.Result, error) {
	message, err := common.GetString(params, "message", true)
	if err != nil {
		return common.Failure(err.Error())
	}

	level := "info"
	if l, _ := common.GetString(params, "level", false); l != "" {
		level = l
	}

	entry := &LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
	}
	if ctx != nil {
		entry.RequestID = ctx.RequestID
	}
	s.logs.Add(entry)

	return common.Success(map[string]interface{}{"logged": true})
}

func (s *Provider) getLogs(params map[string]interface{}) (*types.Result, error) {
	limit := 100
	if l, _ := common.GetNumber(params, "limit", false); l > 0 {
		limit = int(l)
	}
	levelFilter, _ := common.GetString(params, "level", false)

	logs := s.logs.GetRecent(limit, levelFilter)
	return common.Success(map[string]interface{}{
		"logs":  logs,
		"count": len(logs),
	})
}

func (s *Provider) ping() (*types.Result, error) {
	return common.Success(map[string]interface{}{
		"pong":      true,
		"timestamp": time.Now().Unix(),
	})
}

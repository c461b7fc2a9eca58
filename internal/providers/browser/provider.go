package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/performance"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/providers/common"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/shared/types"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/shared/utils"
)

// PageFetcher downloads a page body
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (string, error)
}

// Provider exposes page-load and network optimization as tools
type Provider struct {
	pages   *performance.PageLoadOptimizer
	network *performance.NetworkOptimizer
	store   *performance.Store
	fetcher PageFetcher
	window  time.Duration
	logger  *zap.Logger
}

// Config wires a Provider
type Config struct {
	Pages   *performance.PageLoadOptimizer
	Network *performance.NetworkOptimizer
	Store   *performance.Store
	// Fetcher is optional; without it optimize_page needs html or resources
	Fetcher PageFetcher
	Window  time.Duration
	Logger  *zap.Logger
}

// New creates a browser optimization provider
func New(cfg Config) *Provider {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Window <= 0 {
		cfg.Window = performance.DefaultWindow
	}
	return &Provider{
		pages:   cfg.Pages,
		network: cfg.Network,
		store:   cfg.Store,
		fetcher: cfg.Fetcher,
		window:  cfg.Window,
		logger:  cfg.Logger,
	}
}

// Definition returns service metadata
func (p *Provider) Definition() types.Service {
	return types.Service{
		ID:          "browser",
		Name:        "Browser Optimization",
		Description: "Page load ordering and network tuning driven by the allocation bridge",
		Category:    types.CategoryBrowser,
		Capabilities: []string{
			"page_load",
			"network",
			"metrics",
		},
		Tools: []types.Tool{
			{
				ID:          "browser.optimize_page",
				Name:        "Optimize Page",
				Description: "Build a preconnect, preload, prefetch and defer plan for a page",
				Parameters: []types.Parameter{
					{Name: "url", Type: "string", Description: "Page URL; fetched when neither html nor resources is given", Required: false},
					{Name: "html", Type: "string", Description: "Page HTML to extract resources from", Required: false},
					{Name: "resources", Type: "array", Description: "Explicit resource descriptions", Required: false},
				},
				Returns: "object",
			},
			{
				ID:          "browser.optimize_network",
				Name:        "Optimize Network",
				Description: "Allocate network toggles for current conditions",
				Parameters:  []types.Parameter{},
				Returns:     "object",
			},
			{
				ID:          "browser.network_strategy",
				Name:        "Network Strategy",
				Description: "Pick a real-time loading strategy for a page",
				Parameters: []types.Parameter{
					{Name: "url", Type: "string", Description: "Page URL", Required: false},
				},
				Returns: "object",
			},
			{
				ID:          "browser.metrics",
				Name:        "Performance Metrics",
				Description: "Averaged network, system and page metrics",
				Parameters:  []types.Parameter{},
				Returns:     "object",
			},
			{
				ID:          "browser.record_page_metrics",
				Name:        "Record Page Metrics",
				Description: "Record render timings reported by a page",
				Parameters: []types.Parameter{
					{Name: "render_time", Type: "number", Description: "Render time in ms", Required: false},
					{Name: "interactive_time", Type: "number", Description: "Time to interactive in ms", Required: false},
					{Name: "resource_count", Type: "number", Description: "Number of loaded resources", Required: false},
				},
				Returns: "boolean",
			},
		},
	}
}

// Execute runs a browser optimization
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "browser.optimize_page":
		return p.optimizePage(ctx, params)
	case "browser.optimize_network":
		return p.optimizeNetwork(ctx)
	case "browser.network_strategy":
		return p.strategy(params)
	case "browser.metrics":
		return p.metrics()
	case "browser.record_page_metrics":
		return p.recordPageMetrics(params)
	default:
		return common.Failuref("unknown tool: %s", toolID)
	}
}

func (p *Provider) optimizePage(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	pageURL, err := common.GetString(params, "url", false)
	if err != nil {
		return common.Failure(err.Error())
	}
	if err := utils.ValidateURL(pageURL, "url", false); err != nil {
		return common.Failure(err.Error())
	}

	resources, err := p.pageResources(ctx, pageURL, params)
	if err != nil {
		return common.Failure(err.Error())
	}

	strategy, err := p.pages.Optimize(ctx, pageURL, resources)
	if err != nil {
		return p.failure("page optimization", err)
	}
	return common.Success(map[string]interface{}{
		"strategy":  strategy,
		"resources": len(resources),
	})
}

// pageResources takes explicit resources first, then inline html, then
// fetches pageURL.
func (p *Provider) pageResources(ctx context.Context, pageURL string, params map[string]interface{}) ([]performance.PageResource, error) {
	if raw, ok := params["resources"]; ok && raw != nil {
		return DecodeResources(raw)
	}

	html, err := common.GetString(params, "html", false)
	if err != nil {
		return nil, err
	}
	if html == "" {
		if pageURL == "" {
			return nil, errors.New("one of url, html or resources is required")
		}
		if p.fetcher == nil {
			return nil, errors.New("page fetching is not enabled")
		}
		if html, err = p.fetcher.FetchPage(ctx, pageURL); err != nil {
			return nil, fmt.Errorf("failed to fetch page: %w", err)
		}
	}
	if len(html) > utils.MaxHTMLSize {
		return nil, fmt.Errorf("html must not exceed %d bytes", utils.MaxHTMLSize)
	}
	return performance.ExtractResources(html, pageURL)
}

// DecodeResources converts a JSON-shaped value into page resources
func DecodeResources(raw interface{}) ([]performance.PageResource, error) {
	if rs, ok := raw.([]performance.PageResource); ok {
		return rs, nil
	}
	data, err := sonic.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("resources are not encodable: %w", err)
	}
	var resources []performance.PageResource
	if err := sonic.Unmarshal(data, &resources); err != nil {
		return nil, fmt.Errorf("resources must be an array of resource objects: %w", err)
	}
	if len(resources) > utils.MaxVariables {
		return nil, fmt.Errorf("resources must not exceed %d entries", utils.MaxVariables)
	}
	for i, r := range resources {
		if r.URL == "" {
			return nil, fmt.Errorf("resources[%d].url is required", i)
		}
	}
	return resources, nil
}

func (p *Provider) optimizeNetwork(ctx context.Context) (*types.Result, error) {
	plan, err := p.network.Optimize(ctx)
	if err != nil {
		return p.failure("network optimization", err)
	}
	return common.Success(map[string]interface{}{"plan": plan})
}

func (p *Provider) strategy(params map[string]interface{}) (*types.Result, error) {
	pageURL, err := common.GetString(params, "url", false)
	if err != nil {
		return common.Failure(err.Error())
	}
	return common.Success(map[string]interface{}{"strategy": p.network.RealTime(pageURL)})
}

func (p *Provider) metrics() (*types.Result, error) {
	data := map[string]interface{}{
		"summary":        p.store.Summarize(p.window),
		"window_seconds": p.window.Seconds(),
	}
	if last := p.network.Last(); last != nil {
		data["network_plan"] = last
	}
	return common.Success(data)
}

func (p *Provider) recordPageMetrics(params map[string]interface{}) (*types.Result, error) {
	fields := []struct {
		param  string
		metric string
	}{
		{"render_time", performance.MetricRenderTime},
		{"interactive_time", performance.MetricInteractiveTime},
		{"resource_count", performance.MetricResourceCount},
	}

	recorded := 0
	for _, f := range fields {
		if _, ok := params[f.param]; !ok {
			continue
		}
		v, err := common.GetNumber(params, f.param, true)
		if err != nil {
			return common.Failure(err.Error())
		}
		if v < 0 {
			return common.Failuref("%s must not be negative", f.param)
		}
		if err := p.store.Record(performance.CategoryPage, f.metric, v); err != nil {
			return common.Failure(err.Error())
		}
		recorded++
	}
	if recorded == 0 {
		return common.Failure("no page metrics given")
	}
	return common.Success(map[string]interface{}{"recorded": recorded})
}

func (p *Provider) failure(op string, err error) (*types.Result, error) {
	p.logger.Warn("Browser tool failed", zap.String("op", op), zap.Error(err))
	if errors.Is(err, resilience.ErrExhausted) {
		return common.Failuref("%s failed: backend unavailable", op)
	}
	return common.Failuref("%s failed: %v", op, err)
}

package performance

import (
	"context"
	"net/url"
	"slices"
	"sort"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/quantum"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/quantum/problem"
)

// ResourceType is the kind of a page subresource
type ResourceType string

const (
	ResourceDocument ResourceType = "document"
	ResourceStyle    ResourceType = "style"
	ResourceFont     ResourceType = "font"
	ResourceScript   ResourceType = "script"
	ResourceImage    ResourceType = "image"
	ResourceFetch    ResourceType = "fetch"
	ResourceOther    ResourceType = "other"
)

// Importance buckets resources by how much they gate first render
type Importance string

const (
	Critical  Importance = "critical"
	Important Importance = "important"
	Optional  Importance = "optional"
)

const (
	priorityCritical  = 1.0
	priorityImportant = 0.7
	priorityDefault   = 0.3
	// dependencyCoupling is the constraint weight between dependent resources
	dependencyCoupling = 0.5
)

// Tier sizes of the loading strategy
const (
	preconnectCount = 3
	preloadCount    = 5
	prefetchEnd     = 10
)

// PageResource describes one candidate subresource of a page
type PageResource struct {
	URL                string       `json:"url"`
	Type               ResourceType `json:"type"`
	Blocking           bool         `json:"blocking"`
	ViewportVisibility float64      `json:"viewportVisibility"`
	Priority           string       `json:"priority,omitempty"` // fetch priority hint
	ExecutionOrder     int          `json:"executionOrder"`
	Dependencies       []string     `json:"dependencies,omitempty"`
}

// Classify buckets a resource. Blocking documents, styles, fonts and
// scripts are critical; visible images, async scripts and high priority
// fetches are important.
func Classify(r PageResource) Importance {
	switch r.Type {
	case ResourceDocument, ResourceStyle, ResourceFont, ResourceScript:
		if r.Blocking {
			return Critical
		}
	}
	switch {
	case r.Type == ResourceImage && r.ViewportVisibility > 0.5:
		return Important
	case r.Type == ResourceScript && !r.Blocking:
		return Important
	case r.Type == ResourceFetch && r.Priority == "high":
		return Important
	}
	return Optional
}

// Priority maps a resource to [0,1]
func Priority(r PageResource) float64 {
	switch Classify(r) {
	case Critical:
		return priorityCritical
	case Important:
		return priorityImportant
	}
	if r.Type == ResourceImage && r.ViewportVisibility > 0 {
		return clamp01(r.ViewportVisibility)
	}
	return priorityDefault
}

// DependsOn reports whether a needs b: an explicit dependency, a script
// running after another script, or a stylesheet referencing a font.
func DependsOn(a, b PageResource) bool {
	if slices.Contains(a.Dependencies, b.URL) {
		return true
	}
	if a.Type == ResourceScript && b.Type == ResourceScript && a.ExecutionOrder > b.ExecutionOrder {
		return true
	}
	return a.Type == ResourceStyle && b.Type == ResourceFont
}

// DependencyMatrix couples every dependent pair symmetrically
func DependencyMatrix(resources []PageResource) [][]float64 {
	n := len(resources)
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if DependsOn(resources[i], resources[j]) || DependsOn(resources[j], resources[i]) {
				m[i][j] = dependencyCoupling
				m[j][i] = dependencyCoupling
			}
		}
	}
	return m
}

// LoadingStrategy is the tiered loading plan of a page
type LoadingStrategy struct {
	URL        string         `json:"url,omitempty"`
	Preconnect []string       `json:"preconnect"`
	Preload    []string       `json:"preload"`
	Prefetch   []string       `json:"prefetch"`
	Defer      []string       `json:"defer"`
	Order      []string       `json:"order"`
	Source     quantum.Source `json:"source,omitempty"`
}

// PageLoadOptimizer orders page resources with an allocation
type PageLoadOptimizer struct {
	allocator Allocator
	logger    *zap.Logger
}

// NewPageLoadOptimizer creates a page-load optimizer
func NewPageLoadOptimizer(allocator Allocator, logger *zap.Logger) *PageLoadOptimizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageLoadOptimizer{allocator: allocator, logger: logger}
}

// Optimize builds the loading strategy for the resources of pageURL
func (o *PageLoadOptimizer) Optimize(ctx context.Context, pageURL string, resources []PageResource) (*LoadingStrategy, error) {
	if len(resources) == 0 {
		return GenerateStrategy(pageURL, nil), nil
	}

	priorities := make([]float64, len(resources))
	for i, r := range resources {
		priorities[i] = Priority(r)
	}

	// only the highest-priority resources take part in the allocation
	picked := topPriorities(priorities, problem.MaxVariables)
	subset := make([]PageResource, len(picked))
	subPriorities := make([]float64, len(picked))
	for k, i := range picked {
		subset[k] = resources[i]
		subPriorities[k] = priorities[i]
	}

	out, err := o.allocator.Allocate(ctx, subPriorities, DependencyMatrix(subset))
	if err != nil {
		return nil, err
	}

	alloc := make([]int, len(resources))
	for k, i := range picked {
		alloc[i] = bitAt(out.Allocation, k)
	}

	ordered := order(resources, priorities, alloc)
	strategy := GenerateStrategy(pageURL, ordered)
	strategy.Source = out.Source

	o.logger.Debug("Page load optimized",
		zap.String("url", pageURL),
		zap.Int("resources", len(resources)),
		zap.String("source", string(out.Source)))

	return strategy, nil
}

// order puts allocated resources first, each group by descending priority,
// keeping document order among equals.
func order(resources []PageResource, priorities []float64, alloc []int) []PageResource {
	idx := make([]int, len(resources))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ia, ib := idx[a], idx[b]
		if ba, bb := bitAt(alloc, ia), bitAt(alloc, ib); ba != bb {
			return ba > bb
		}
		return priorities[ia] > priorities[ib]
	})

	out := make([]PageResource, len(idx))
	for i, j := range idx {
		out[i] = resources[j]
	}
	return out
}

// topPriorities returns the indices of the n highest priorities in
// document order. Equal priorities keep the earlier resource.
func topPriorities(priorities []float64, n int) []int {
	idx := make([]int, len(priorities))
	for i := range idx {
		idx[i] = i
	}
	if len(idx) <= n {
		return idx
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return priorities[idx[a]] > priorities[idx[b]]
	})
	idx = idx[:n]
	sort.Ints(idx)
	return idx
}

func bitAt(alloc []int, i int) int {
	if i < len(alloc) {
		return alloc[i]
	}
	return 0
}

// GenerateStrategy splits ordered resources into tiers: origins of the
// first three are preconnected, the first five preloaded, the next five
// prefetched and everything after that deferred unless critical.
func GenerateStrategy(pageURL string, ordered []PageResource) *LoadingStrategy {
	s := &LoadingStrategy{
		URL:        pageURL,
		Preconnect: []string{},
		Preload:    []string{},
		Prefetch:   []string{},
		Defer:      []string{},
		Order:      make([]string, 0, len(ordered)),
	}

	for i, r := range ordered {
		s.Order = append(s.Order, r.URL)
		if i < preconnectCount {
			if o := origin(r.URL); !slices.Contains(s.Preconnect, o) {
				s.Preconnect = append(s.Preconnect, o)
			}
		}
		switch {
		case i < preloadCount:
			s.Preload = append(s.Preload, r.URL)
		case i < prefetchEnd:
			s.Prefetch = append(s.Prefetch, r.URL)
		case Classify(r) != Critical:
			s.Defer = append(s.Defer, r.URL)
		}
	}
	return s
}

// origin returns scheme://host of raw, or raw itself when it has neither
func origin(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return raw
	}
	return u.Scheme + "://" + u.Host
}

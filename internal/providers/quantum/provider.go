package quantum

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/history"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/providers/common"
	bridge "github.com/GriffinCanCode/QuantumBrowser/backend/internal/quantum"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/quantum/problem"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/shared/types"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/shared/utils"
)

// Bridge is the part of the optimization bridge the provider drives
type Bridge interface {
	RunSearch(ctx context.Context, database []string, target string) (string, bool, error)
	GenerateKey(ctx context.Context, bits int) (string, error)
	Allocate(ctx context.Context, resources []float64, constraints [][]float64) (*bridge.Outcome, error)
	State() bridge.State
	Reset()
}

// Provider exposes the optimization bridge as tools
type Provider struct {
	bridge  Bridge
	history history.Store
	logger  *zap.Logger
}

// NewProvider creates a quantum provider. store may be nil, which disables
// quantum.history.
func NewProvider(b Bridge, store history.Store, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{bridge: b, history: store, logger: logger}
}

// Definition returns service metadata
func (p *Provider) Definition() types.Service {
	return types.Service{
		ID:          "quantum",
		Name:        "Quantum Optimization",
		Description: "Binary resource allocation, search and key generation on the quantum backend with classical fallback",
		Category:    types.CategoryOptimization,
		Capabilities: []string{
			"resource_allocation",
			"search",
			"key_generation",
			"fallback",
		},
		Tools: []types.Tool{
			{
				ID:          "quantum.optimize_allocation",
				Name:        "Optimize Allocation",
				Description: "Choose which resources to allocate under pairwise constraints",
				Parameters: []types.Parameter{
					{Name: "resources", Type: "array", Description: "Resource values, one per variable", Required: true},
					{Name: "constraints", Type: "array", Description: "Square matrix of pairwise couplings", Required: false},
				},
				Returns: "object",
			},
			{
				ID:          "quantum.search",
				Name:        "Search",
				Description: "Look a target up in a database",
				Parameters: []types.Parameter{
					{Name: "database", Type: "array", Description: "Candidate items", Required: true},
					{Name: "target", Type: "string", Description: "Item to find", Required: true},
				},
				Returns: "object",
			},
			{
				ID:          "quantum.generate_key",
				Name:        "Generate Key",
				Description: "Generate a random bit-string key",
				Parameters: []types.Parameter{
					{Name: "bits", Type: "number", Description: "Key length in bits", Required: true},
				},
				Returns: "object",
			},
			{
				ID:          "quantum.state",
				Name:        "Bridge State",
				Description: "Get the active backend variant and call counts",
				Parameters:  []types.Parameter{},
				Returns:     "object",
			},
			{
				ID:          "quantum.reset",
				Name:        "Reset Bridge",
				Description: "Return the bridge to the primary backend",
				Parameters:  []types.Parameter{},
				Returns:     "object",
			},
			{
				ID:          "quantum.history",
				Name:        "Allocation History",
				Description: "List recent allocations, newest first",
				Parameters: []types.Parameter{
					{Name: "limit", Type: "number", Description: "Maximum records to return", Required: false},
				},
				Returns: "array",
			},
		},
	}
}

// Execute runs a bridge operation
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "quantum.optimize_allocation":
		return p.optimizeAllocation(ctx, params)
	case "quantum.search":
		return p.search(ctx, params)
	case "quantum.generate_key":
		return p.generateKey(ctx, params)
	case "quantum.state":
		return p.state()
	case "quantum.reset":
		return p.reset()
	case "quantum.history":
		return p.recent(ctx, params)
	default:
		return common.Failuref("unknown tool: %s", toolID)
	}
}

func (p *Provider) optimizeAllocation(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	resources, err := common.GetFloats(params, "resources", true)
	if err != nil {
		return common.Failure(err.Error())
	}
	constraints, err := common.GetMatrix(params, "constraints")
	if err != nil {
		return common.Failure(err.Error())
	}
	if err := utils.ValidateVector(resources, "resources"); err != nil {
		return common.Failure(err.Error())
	}
	if err := utils.ValidateMatrix(constraints, len(resources), "constraints"); err != nil {
		return common.Failure(err.Error())
	}

	out, err := p.bridge.Allocate(ctx, resources, constraints)
	if err != nil {
		return p.failure("allocation", err)
	}
	return common.Success(OutcomeData(out))
}

func (p *Provider) search(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	database, err := common.GetStrings(params, "database", true)
	if err != nil {
		return common.Failure(err.Error())
	}
	target, err := common.GetString(params, "target", true)
	if err != nil {
		return common.Failure(err.Error())
	}
	if err := utils.ValidateDatabase(database); err != nil {
		return common.Failure(err.Error())
	}

	result, found, err := p.bridge.RunSearch(ctx, database, target)
	if err != nil {
		return p.failure("search", err)
	}
	data := map[string]interface{}{"found": found}
	if found {
		data["result"] = result
	}
	return common.Success(data)
}

func (p *Provider) generateKey(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	bits, err := common.GetInt(params, "bits", true)
	if err != nil {
		return common.Failure(err.Error())
	}
	if err := utils.ValidateKeyBits(bits); err != nil {
		return common.Failure(err.Error())
	}

	key, err := p.bridge.GenerateKey(ctx, bits)
	if err != nil {
		return p.failure("key generation", err)
	}
	return common.Success(map[string]interface{}{
		"key":  key,
		"bits": len(key),
	})
}

func (p *Provider) state() (*types.Result, error) {
	s := p.bridge.State()
	return common.Success(map[string]interface{}{
		"variant": s.Variant,
		"counts":  s.Counts,
	})
}

func (p *Provider) reset() (*types.Result, error) {
	p.bridge.Reset()
	return common.Success(map[string]interface{}{
		"variant": resilience.VariantPrimary.String(),
	})
}

func (p *Provider) recent(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	if p.history == nil {
		return common.Failure("history is not enabled")
	}
	limit, err := common.GetInt(params, "limit", false)
	if err != nil {
		return common.Failure(err.Error())
	}

	records, err := p.history.Recent(ctx, limit)
	if err != nil {
		return p.failure("history", err)
	}
	return common.Success(map[string]interface{}{
		"records": records,
		"count":   len(records),
	})
}

// failure reports a bridge error as a failed result. Callers see the
// message; the log carries the cause.
func (p *Provider) failure(op string, err error) (*types.Result, error) {
	p.logger.Warn("Quantum tool failed", zap.String("op", op), zap.Error(err))
	switch {
	case errors.Is(err, resilience.ErrExhausted):
		return common.Failuref("%s failed: backend unavailable", op)
	case errors.Is(err, problem.ErrDimensionMismatch), errors.Is(err, problem.ErrEmptyProblem), errors.Is(err, problem.ErrInvalidKeyLength),
		errors.Is(err, problem.ErrTooLarge), errors.Is(err, problem.ErrNonFinite):
		return common.Failure(err.Error())
	default:
		return common.Failuref("%s failed: %v", op, err)
	}
}

// OutcomeData renders an allocation outcome as tool data
func OutcomeData(out *bridge.Outcome) map[string]interface{} {
	data := map[string]interface{}{
		"allocation":           out.Allocation,
		"source":               string(out.Source),
		"used_primary_backend": out.UsedPrimaryBackend,
		"duration_ms":          float64(out.Duration) / float64(time.Millisecond),
	}
	if out.Energy != nil {
		data["energy"] = *out.Energy
	}
	if out.Cause != nil {
		data["fallback_reason"] = fmt.Sprint(out.Cause)
	}
	return data
}

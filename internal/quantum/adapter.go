package quantum

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/quantum/problem"
)

const (
	defaultTimeout = 30 * time.Second
	// maxDiagnostics bounds how much stderr is carried in a Failure
	maxDiagnostics = 4096
)

// Backend executes problem instances on a variant
type Backend interface {
	Invoke(ctx context.Context, variant resilience.Variant, in *problem.Instance) (*BackendResult, error)
}

// ProcessConfig describes the solver executable
type ProcessConfig struct {
	Executable    string
	Args          []string // prepended before the entry point
	PrimaryEntry  string
	FallbackEntry string
	Timeout       time.Duration
	Env           []string // appended to the inherited environment
}

// DefaultProcessConfig returns the qsolver defaults
func DefaultProcessConfig() ProcessConfig {
	return ProcessConfig{
		Executable:    "qsolver",
		PrimaryEntry:  "primary",
		FallbackEntry: "fallback",
		Timeout:       defaultTimeout,
	}
}

// ProcessAdapter runs one solver child process per invocation:
//
//	<executable> [args...] <entry> <problem-json>
//
// The child writes a single JSON object to stdout. Stderr is kept apart and
// only used for diagnostics. The adapter never retries.
type ProcessAdapter struct {
	cfg    ProcessConfig
	logger *zap.Logger
}

// NewProcessAdapter creates a process adapter
func NewProcessAdapter(cfg ProcessConfig, logger *zap.Logger) *ProcessAdapter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.PrimaryEntry == "" {
		cfg.PrimaryEntry = "primary"
	}
	if cfg.FallbackEntry == "" {
		cfg.FallbackEntry = "fallback"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProcessAdapter{cfg: cfg, logger: logger}
}

// Entry returns the entry point name for a variant
func (a *ProcessAdapter) Entry(v resilience.Variant) string {
	if v == resilience.VariantFallback {
		return a.cfg.FallbackEntry
	}
	return a.cfg.PrimaryEntry
}

// Invoke spawns the solver, waits for it and decodes its output
func (a *ProcessAdapter) Invoke(ctx context.Context, v resilience.Variant, in *problem.Instance) (*BackendResult, error) {
	payload, err := problem.Marshal(in)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	entry := a.Entry(v)
	args := make([]string, 0, len(a.cfg.Args)+2)
	args = append(args, a.cfg.Args...)
	args = append(args, entry, string(payload))

	cmd := exec.CommandContext(ctx, a.cfg.Executable, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second
	if len(a.cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), a.cfg.Env...)
	}

	start := time.Now()
	runErr := cmd.Run()
	diagnostics := truncate(strings.TrimSpace(stderr.String()), maxDiagnostics)

	a.logger.Debug("Solver process finished",
		zap.String("entry", entry),
		zap.String("kind", string(in.Kind)),
		zap.Duration("duration", time.Since(start)),
		zap.Error(runErr))

	if ctxErr := ctx.Err(); ctxErr != nil {
		msg := fmt.Sprintf("%s cancelled", entry)
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			msg = fmt.Sprintf("%s timed out", entry)
		}
		return nil, backendFailure(msg, diagnostics, ctxErr)
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return nil, backendFailure(fmt.Sprintf("%s exited with code %d", entry, exitErr.ExitCode()), diagnostics, runErr)
		}
		return nil, backendFailure(fmt.Sprintf("failed to start %s", a.cfg.Executable), diagnostics, runErr)
	}

	res, err := DecodeReply(in, stdout.Bytes())
	if err != nil {
		var f *Failure
		if errors.As(err, &f) && f.Diagnostics == "" {
			f.Diagnostics = diagnostics
		}
		return nil, err
	}
	res.Variant = v
	return res, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Package solver runs optimization drivers over catalogue problems and
// records per-iteration trajectories. Gradient descent (fixed step and
// Armijo backtracking) is implemented directly; Newton and L-BFGS delegate
// to gonum's optimize package while still capturing per-iteration state
// through an injected recorder.
package solver

import (
	"math"

	"go.uber.org/zap"

	xerrors "github.com/copyleftdev/XVAL/internal/errors"
	"github.com/copyleftdev/XVAL/internal/problems"
)

// Algorithm is a validated token from the closed algorithm vocabulary.
type Algorithm string

const (
	// GDFixed is gradient descent with a constant step size.
	GDFixed Algorithm = "gd-fixed"
	// GDLineSearch is steepest descent with Armijo backtracking.
	GDLineSearch Algorithm = "gd-linesearch"
	// Newton delegates to gonum's Newton method.
	Newton Algorithm = "newton"
	// LBFGS delegates to gonum's L-BFGS method.
	LBFGS Algorithm = "lbfgs"
)

// Algorithms lists the closed vocabulary in reporting order.
func Algorithms() []Algorithm {
	return []Algorithm{GDFixed, GDLineSearch, Newton, LBFGS}
}

// ParseAlgorithm validates a token against the closed vocabulary.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case GDFixed, GDLineSearch, Newton, LBFGS:
		return Algorithm(s), nil
	}
	return "", xerrors.Newf(xerrors.KindUnknownAlgorithm, "unknown algorithm: %s", s).
		WithComponent("solver")
}

// RunConfig holds one run's hyperparameters.
type RunConfig struct {
	// Initial is the starting position; its length fixes the dimension.
	Initial []float64 `json:"initial"`
	// MaxIter caps the number of iterations.
	MaxIter int `json:"max_iter"`
	// Tol is the gradient-norm convergence threshold.
	Tol float64 `json:"tol"`
	// Alpha is the fixed step size (gd-fixed only).
	Alpha float64 `json:"alpha,omitempty"`
	// C1 is the Armijo sufficient-decrease constant (gd-linesearch only).
	C1 float64 `json:"c1,omitempty"`
}

// Backtracking line-search constants shared by both implementations under test.
const (
	defaultAlpha       = 0.01
	defaultC1          = 1e-4
	defaultTol         = 1e-6
	backtrackRho       = 0.5
	maxLineSearchTrial = 20
)

// withDefaults fills unset hyperparameters.
func (c RunConfig) withDefaults() RunConfig {
	if c.Tol <= 0 {
		c.Tol = defaultTol
	}
	if c.Alpha <= 0 {
		c.Alpha = defaultAlpha
	}
	if c.C1 <= 0 {
		c.C1 = defaultC1
	}
	return c
}

// IterationRecord captures one optimizer step.
type IterationRecord struct {
	Iter     int       `json:"iter"`
	W        []float64 `json:"w"`
	Loss     float64   `json:"loss"`
	GradNorm float64   `json:"grad_norm"`
}

// Result is the immutable outcome of one optimization run.
type Result struct {
	Converged     bool              `json:"converged"`
	Iterations    int               `json:"iterations"`
	FinalLoss     float64           `json:"final_loss"`
	FinalW        []float64         `json:"final_w"`
	FinalGradNorm float64           `json:"final_grad_norm"`
	Message       string            `json:"message"`
	History       []IterationRecord `json:"history,omitempty"`
}

// Run executes the named algorithm on the problem. An unknown algorithm is
// the only error path; numerical failures (including delegate failures) are
// absorbed into a non-converged Result with infinite metrics.
func Run(p *problems.Problem, alg Algorithm, cfg RunConfig, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()

	var res *Result
	switch alg {
	case GDFixed:
		res = gradientDescentFixed(p, cfg)
	case GDLineSearch:
		res = gradientDescentLineSearch(p, cfg)
	case Newton, LBFGS:
		res = runDelegated(p, alg, cfg)
	default:
		return nil, xerrors.Newf(xerrors.KindUnknownAlgorithm, "unknown algorithm: %s", alg).
			WithComponent("solver").WithOperation("Run")
	}

	logger.Debug("Run finished",
		zap.String("problem", p.Name),
		zap.String("algorithm", string(alg)),
		zap.Bool("converged", res.Converged),
		zap.Int("iterations", res.Iterations),
		zap.Float64("final_loss", res.FinalLoss),
		zap.Float64("final_grad_norm", res.FinalGradNorm),
	)
	return res, nil
}

// failSoft builds the non-converged, infinite-metric result used whenever a
// run blows up. Divergence is a first-class outcome here, not an error.
func failSoft(initial []float64, history []IterationRecord, message string) *Result {
	return &Result{
		Converged:     false,
		Iterations:    len(history),
		FinalLoss:     math.Inf(1),
		FinalW:        cloneVec(initial),
		FinalGradNorm: math.Inf(1),
		Message:       message,
		History:       history,
	}
}

func cloneVec(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}

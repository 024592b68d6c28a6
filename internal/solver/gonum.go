package solver

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/copyleftdev/XVAL/internal/problems"
)

// trajectory implements optimize.Recorder, appending one IterationRecord per
// major iteration of the delegate. It is owned by a single runDelegated call
// and discarded with it, so the captured history has the same shape as the
// hand-rolled drivers'.
type trajectory struct {
	problem *problems.Problem
	records []IterationRecord
}

// Init implements optimize.Recorder.
func (t *trajectory) Init() error { return nil }

// Record implements optimize.Recorder.
func (t *trajectory) Record(loc *optimize.Location, op optimize.Operation, _ *optimize.Stats) error {
	if op&optimize.MajorIteration == 0 {
		return nil
	}
	gradNorm := math.NaN()
	if loc.Gradient != nil {
		gradNorm = floats.Norm(loc.Gradient, 2)
	} else if t.problem.Grad != nil {
		gradNorm = floats.Norm(t.problem.Grad(loc.X), 2)
	}
	t.records = append(t.records, IterationRecord{
		Iter:     len(t.records),
		W:        cloneVec(loc.X),
		Loss:     loc.F,
		GradNorm: gradNorm,
	})
	return nil
}

// runDelegated hands the problem to gonum's minimizer. The newton token maps
// to optimize.Newton and lbfgs to optimize.LBFGS; both use the same
// gradient-threshold convergence test as the hand-rolled drivers. Any
// delegate error or panic (singular Hessian, non-finite step) is converted
// to a non-converged result rather than propagated.
func runDelegated(p *problems.Problem, alg Algorithm, cfg RunConfig) (res *Result) {
	rec := &trajectory{problem: p}

	defer func() {
		if r := recover(); r != nil {
			res = failSoft(cfg.Initial, rec.records, fmt.Sprintf("Error: %v", r))
		}
	}()

	prob := optimize.Problem{
		Func: p.Func,
		Grad: func(grad, x []float64) {
			copy(grad, p.Grad(x))
		},
	}
	if p.Hess != nil {
		prob.Hess = func(dst *mat.SymDense, x []float64) {
			dst.CopySym(p.Hess(x))
		}
	}

	var method optimize.Method
	switch alg {
	case Newton:
		method = &optimize.Newton{}
	default:
		method = &optimize.LBFGS{}
	}

	settings := &optimize.Settings{
		GradientThreshold: cfg.Tol,
		MajorIterations:   cfg.MaxIter,
		Recorder:          rec,
		Converger:         optimize.NeverTerminate{},
	}

	result, err := optimize.Minimize(prob, cloneVec(cfg.Initial), settings, method)
	if err != nil {
		return failSoft(cfg.Initial, rec.records, fmt.Sprintf("Error: %v", err))
	}

	finalLoss := result.F
	finalGradNorm := floats.Norm(p.Grad(result.X), 2)
	converged := delegateConverged(result.Status)
	if !isFinite(finalLoss) || !isFinite(finalGradNorm) {
		converged = false
	}

	return &Result{
		Converged:     converged,
		Iterations:    len(rec.records),
		FinalLoss:     finalLoss,
		FinalW:        cloneVec(result.X),
		FinalGradNorm: finalGradNorm,
		Message:       result.Status.String(),
		History:       rec.records,
	}
}

// delegateConverged maps gonum termination statuses onto the boolean
// convergence flag of the result contract. Hitting the iteration cap or any
// failure status counts as non-convergence.
func delegateConverged(status optimize.Status) bool {
	switch status {
	case optimize.Success,
		optimize.GradientThreshold,
		optimize.FunctionThreshold,
		optimize.FunctionConvergence,
		optimize.StepConvergence,
		optimize.MethodConverge:
		return true
	}
	return false
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

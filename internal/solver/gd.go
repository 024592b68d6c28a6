package solver

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/copyleftdev/XVAL/internal/problems"
)

// gradientDescentFixed iterates w <- w - alpha*grad(w). Convergence is
// tested on the pre-update gradient; on exhaustion a trailing record is
// appended so the history covers the final position.
func gradientDescentFixed(p *problems.Problem, cfg RunConfig) *Result {
	w := cloneVec(cfg.Initial)
	history := make([]IterationRecord, 0, cfg.MaxIter+1)

	for i := 0; i < cfg.MaxIter; i++ {
		grad := p.Grad(w)
		gradNorm := floats.Norm(grad, 2)
		loss := p.Func(w)

		history = append(history, IterationRecord{
			Iter:     i,
			W:        cloneVec(w),
			Loss:     loss,
			GradNorm: gradNorm,
		})

		if gradNorm < cfg.Tol {
			return &Result{
				Converged:     true,
				Iterations:    i + 1,
				FinalLoss:     loss,
				FinalW:        cloneVec(w),
				FinalGradNorm: gradNorm,
				Message:       fmt.Sprintf("Converged: grad_norm < %g", cfg.Tol),
				History:       history,
			}
		}

		for j := range w {
			w[j] -= cfg.Alpha * grad[j]
		}
	}

	grad := p.Grad(w)
	gradNorm := floats.Norm(grad, 2)
	loss := p.Func(w)
	history = append(history, IterationRecord{
		Iter:     cfg.MaxIter,
		W:        cloneVec(w),
		Loss:     loss,
		GradNorm: gradNorm,
	})

	return &Result{
		Converged:     false,
		Iterations:    cfg.MaxIter,
		FinalLoss:     loss,
		FinalW:        cloneVec(w),
		FinalGradNorm: gradNorm,
		Message:       "Max iterations reached",
		History:       history,
	}
}

// gradientDescentLineSearch is steepest descent with Armijo backtracking:
// start at step 1.0, halve up to maxLineSearchTrial times, and accept the
// first step satisfying f(w+a*d) <= f(w) + c1*a*(d.grad). If no trial
// satisfies the condition, the last (smallest) step is taken anyway.
func gradientDescentLineSearch(p *problems.Problem, cfg RunConfig) *Result {
	w := cloneVec(cfg.Initial)
	history := make([]IterationRecord, 0, cfg.MaxIter+1)

	for i := 0; i < cfg.MaxIter; i++ {
		loss := p.Func(w)
		grad := p.Grad(w)
		gradNorm := floats.Norm(grad, 2)

		history = append(history, IterationRecord{
			Iter:     i,
			W:        cloneVec(w),
			Loss:     loss,
			GradNorm: gradNorm,
		})

		if gradNorm < cfg.Tol {
			return &Result{
				Converged:     true,
				Iterations:    i + 1,
				FinalLoss:     loss,
				FinalW:        cloneVec(w),
				FinalGradNorm: gradNorm,
				Message:       fmt.Sprintf("Converged: grad_norm < %g", cfg.Tol),
				History:       history,
			}
		}

		direction := make([]float64, len(grad))
		for j := range grad {
			direction[j] = -grad[j]
		}
		dirGrad := floats.Dot(direction, grad)

		alpha := 1.0
		trial := make([]float64, len(w))
		for t := 0; t < maxLineSearchTrial; t++ {
			floats.AddScaledTo(trial, w, alpha, direction)
			if p.Func(trial) <= loss+cfg.C1*alpha*dirGrad {
				break
			}
			alpha *= backtrackRho
		}

		floats.AddScaled(w, alpha, direction)
	}

	loss := p.Func(w)
	grad := p.Grad(w)
	gradNorm := floats.Norm(grad, 2)
	history = append(history, IterationRecord{
		Iter:     cfg.MaxIter,
		W:        cloneVec(w),
		Loss:     loss,
		GradNorm: gradNorm,
	})

	return &Result{
		Converged:     false,
		Iterations:    cfg.MaxIter,
		FinalLoss:     loss,
		FinalW:        cloneVec(w),
		FinalGradNorm: gradNorm,
		Message:       "Max iterations reached",
		History:       history,
	}
}

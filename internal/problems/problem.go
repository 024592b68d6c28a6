// Package problems supplies the closed catalogue of optimization problems
// used for cross-implementation validation: four analytic 2-D problems and
// four data-fitted 3-D classifiers (two weights plus a bias coordinate).
package problems

import (
	"gonum.org/v1/gonum/mat"

	xerrors "github.com/copyleftdev/XVAL/internal/errors"
)

// Objective is a scalar function of the weight vector.
type Objective func(w []float64) float64

// Gradient is the exact first derivative of an objective.
type Gradient func(w []float64) []float64

// Hessian is the exact second derivative of an objective.
type Hessian func(w []float64) *mat.SymDense

// Problem is an immutable bundle of an objective and its derivatives.
// Hess is nil for objectives that are not twice differentiable
// (hinge and perceptron losses).
type Problem struct {
	Name string
	Dim  int
	Func Objective
	Grad Gradient
	Hess Hessian
}

// SaddleName is the designated unbounded problem used to test correct
// non-convergence detection. The comparator special-cases it.
const SaddleName = "non-convex-saddle"

// AnalyticNames lists the catalogue's closed-form 2-D problems.
func AnalyticNames() []string {
	return []string{"quadratic", "ill-conditioned-quadratic", "rosenbrock", SaddleName}
}

// Get returns the analytic problem with the given name.
func Get(name string) (*Problem, error) {
	switch name {
	case "quadratic":
		return quadratic(), nil
	case "ill-conditioned-quadratic":
		return illConditionedQuadratic(), nil
	case "rosenbrock":
		return rosenbrock(), nil
	case SaddleName:
		return nonConvexSaddle(), nil
	default:
		return nil, xerrors.Newf(xerrors.KindUnknownProblem, "unknown problem: %s", name).
			WithComponent("problems")
	}
}

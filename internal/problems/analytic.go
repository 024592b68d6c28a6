package problems

import "gonum.org/v1/gonum/mat"

// quadratic is the well-conditioned bowl f(w) = w0^2 + w1^2.
func quadratic() *Problem {
	return &Problem{
		Name: "quadratic",
		Dim:  2,
		Func: func(w []float64) float64 {
			return w[0]*w[0] + w[1]*w[1]
		},
		Grad: func(w []float64) []float64 {
			return []float64{2 * w[0], 2 * w[1]}
		},
		Hess: func(w []float64) *mat.SymDense {
			return mat.NewSymDense(2, []float64{2, 0, 0, 2})
		},
	}
}

// illConditionedQuadratic is f(w) = w0^2 + 100*w1^2, condition number 100.
func illConditionedQuadratic() *Problem {
	return &Problem{
		Name: "ill-conditioned-quadratic",
		Dim:  2,
		Func: func(w []float64) float64 {
			return w[0]*w[0] + 100*w[1]*w[1]
		},
		Grad: func(w []float64) []float64 {
			return []float64{2 * w[0], 200 * w[1]}
		},
		Hess: func(w []float64) *mat.SymDense {
			return mat.NewSymDense(2, []float64{2, 0, 0, 200})
		},
	}
}

// rosenbrock is the banana function f(w) = (1-w0)^2 + 100*(w1-w0^2)^2.
func rosenbrock() *Problem {
	return &Problem{
		Name: "rosenbrock",
		Dim:  2,
		Func: func(w []float64) float64 {
			a := 1 - w[0]
			b := w[1] - w[0]*w[0]
			return a*a + 100*b*b
		},
		Grad: func(w []float64) []float64 {
			return []float64{
				-2*(1-w[0]) - 400*w[0]*(w[1]-w[0]*w[0]),
				200 * (w[1] - w[0]*w[0]),
			}
		},
		Hess: func(w []float64) *mat.SymDense {
			h00 := 2 - 400*(w[1]-w[0]*w[0]) + 800*w[0]*w[0]
			h01 := -400 * w[0]
			return mat.NewSymDense(2, []float64{h00, h01, h01, 200})
		},
	}
}

// nonConvexSaddle is f(w) = w0^2 - w1^2, unbounded below. Gradient descent
// from a generic start must diverge; both implementations reporting
// non-convergence here is the expected outcome.
func nonConvexSaddle() *Problem {
	return &Problem{
		Name: SaddleName,
		Dim:  2,
		Func: func(w []float64) float64 {
			return w[0]*w[0] - w[1]*w[1]
		},
		Grad: func(w []float64) []float64 {
			return []float64{2 * w[0], -2 * w[1]}
		},
		Hess: func(w []float64) *mat.SymDense {
			return mat.NewSymDense(2, []float64{2, 0, 0, -2})
		},
	}
}

package problems

import (
	"math"

	"gonum.org/v1/gonum/mat"

	xerrors "github.com/copyleftdev/XVAL/internal/errors"
)

// GetData returns a data-fitted problem over the dataset at datasetPath.
// Recognized names are "logistic-regression" and "separating-hyperplane";
// the latter requires a variant of "soft-margin", "perceptron" or
// "squared-hinge". Regularization never touches the bias coordinate w2.
func GetData(name, variant, datasetPath string, lambda float64) (*Problem, error) {
	ds, err := LoadDataset(datasetPath)
	if err != nil {
		return nil, err
	}

	switch name {
	case "logistic-regression":
		return logisticRegression(ds, lambda), nil
	case "separating-hyperplane":
		switch variant {
		case "soft-margin":
			return softMarginSVM(ds, lambda), nil
		case "perceptron":
			return perceptronSVM(ds, lambda), nil
		case "squared-hinge":
			return squaredHingeSVM(ds, lambda), nil
		default:
			return nil, xerrors.Newf(xerrors.KindUnknownVariant, "unknown variant: %s", variant).
				WithComponent("problems")
		}
	default:
		return nil, xerrors.Newf(xerrors.KindUnknownProblem, "unknown data problem: %s", name).
			WithComponent("problems")
	}
}

// sigmoid clamps its argument to avoid overflow in exp.
func sigmoid(z float64) float64 {
	if z > 500 {
		z = 500
	} else if z < -500 {
		z = -500
	}
	return 1.0 / (1.0 + math.Exp(-z))
}

// scores computes z = X*w.
func scores(ds *Dataset, w []float64) *mat.VecDense {
	z := mat.NewVecDense(ds.N(), nil)
	z.MulVec(ds.X, mat.NewVecDense(len(w), w))
	return z
}

// logisticRegression is mean cross-entropy with an L2 penalty on the two
// non-bias weights.
func logisticRegression(ds *Dataset, lambda float64) *Problem {
	n := float64(ds.N())

	return &Problem{
		Name: "logistic-regression",
		Dim:  3,
		Func: func(w []float64) float64 {
			z := scores(ds, w)
			loss := 0.0
			for i := 0; i < ds.N(); i++ {
				s := sigmoid(z.AtVec(i))
				// Keep log finite at saturated predictions
				s = math.Min(math.Max(s, 1e-10), 1-1e-10)
				y := ds.Y.AtVec(i)
				loss -= y*math.Log(s) + (1-y)*math.Log(1-s)
			}
			loss /= n
			return loss + (lambda/2)*(w[0]*w[0]+w[1]*w[1])
		},
		Grad: func(w []float64) []float64 {
			z := scores(ds, w)
			grad := make([]float64, 3)
			for i := 0; i < ds.N(); i++ {
				e := sigmoid(z.AtVec(i)) - ds.Y.AtVec(i)
				for j := 0; j < 3; j++ {
					grad[j] += e * ds.X.At(i, j)
				}
			}
			for j := range grad {
				grad[j] /= n
			}
			grad[0] += lambda * w[0]
			grad[1] += lambda * w[1]
			return grad
		},
		Hess: func(w []float64) *mat.SymDense {
			z := scores(ds, w)
			h := mat.NewSymDense(3, nil)
			for i := 0; i < ds.N(); i++ {
				s := sigmoid(z.AtVec(i))
				d := s * (1 - s) / n
				for j := 0; j < 3; j++ {
					for k := j; k < 3; k++ {
						h.SetSym(j, k, h.At(j, k)+d*ds.X.At(i, j)*ds.X.At(i, k))
					}
				}
			}
			h.SetSym(0, 0, h.At(0, 0)+lambda)
			h.SetSym(1, 1, h.At(1, 1)+lambda)
			return h
		},
	}
}

// softMarginSVM is 0.5*||w||^2 + lambda*sum(max(0, 1-y*z)) with the norm
// taken over the non-bias weights. The hinge is not twice differentiable,
// so no Hessian is defined.
func softMarginSVM(ds *Dataset, lambda float64) *Problem {
	return &Problem{
		Name: "separating-hyperplane[soft-margin]",
		Dim:  3,
		Func: func(w []float64) float64 {
			z := scores(ds, w)
			total := 0.5 * (w[0]*w[0] + w[1]*w[1])
			for i := 0; i < ds.N(); i++ {
				if m := 1 - ds.YSigned.AtVec(i)*z.AtVec(i); m > 0 {
					total += lambda * m
				}
			}
			return total
		},
		Grad: func(w []float64) []float64 {
			z := scores(ds, w)
			grad := []float64{w[0], w[1], 0}
			for i := 0; i < ds.N(); i++ {
				y := ds.YSigned.AtVec(i)
				if 1-y*z.AtVec(i) > 0 {
					for j := 0; j < 3; j++ {
						grad[j] -= lambda * y * ds.X.At(i, j)
					}
				}
			}
			return grad
		},
	}
}

// perceptronSVM is sum(max(0, -y*z)) + (lambda/2)*||w||^2, again excluding
// the bias from the penalty. Subgradient only.
func perceptronSVM(ds *Dataset, lambda float64) *Problem {
	return &Problem{
		Name: "separating-hyperplane[perceptron]",
		Dim:  3,
		Func: func(w []float64) float64 {
			z := scores(ds, w)
			total := (lambda / 2) * (w[0]*w[0] + w[1]*w[1])
			for i := 0; i < ds.N(); i++ {
				if m := -ds.YSigned.AtVec(i) * z.AtVec(i); m > 0 {
					total += m
				}
			}
			return total
		},
		Grad: func(w []float64) []float64 {
			z := scores(ds, w)
			grad := []float64{lambda * w[0], lambda * w[1], 0}
			for i := 0; i < ds.N(); i++ {
				y := ds.YSigned.AtVec(i)
				if y*z.AtVec(i) < 0 {
					for j := 0; j < 3; j++ {
						grad[j] -= y * ds.X.At(i, j)
					}
				}
			}
			return grad
		},
	}
}

// squaredHingeSVM is the smooth hinge variant: 0.5*||w||^2 +
// lambda*sum(max(0, 1-y*z)^2). Its Hessian is piecewise, assembled from the
// outer products of the margin-violating samples.
func squaredHingeSVM(ds *Dataset, lambda float64) *Problem {
	return &Problem{
		Name: "separating-hyperplane[squared-hinge]",
		Dim:  3,
		Func: func(w []float64) float64 {
			z := scores(ds, w)
			total := 0.5 * (w[0]*w[0] + w[1]*w[1])
			for i := 0; i < ds.N(); i++ {
				if m := 1 - ds.YSigned.AtVec(i)*z.AtVec(i); m > 0 {
					total += lambda * m * m
				}
			}
			return total
		},
		Grad: func(w []float64) []float64 {
			z := scores(ds, w)
			grad := []float64{w[0], w[1], 0}
			for i := 0; i < ds.N(); i++ {
				y := ds.YSigned.AtVec(i)
				if m := 1 - y*z.AtVec(i); m > 0 {
					for j := 0; j < 3; j++ {
						grad[j] -= 2 * lambda * m * y * ds.X.At(i, j)
					}
				}
			}
			return grad
		},
		Hess: func(w []float64) *mat.SymDense {
			z := scores(ds, w)
			h := mat.NewSymDense(3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 0})
			for i := 0; i < ds.N(); i++ {
				if 1-ds.YSigned.AtVec(i)*z.AtVec(i) > 0 {
					for j := 0; j < 3; j++ {
						for k := j; k < 3; k++ {
							h.SetSym(j, k, h.At(j, k)+2*lambda*ds.X.At(i, j)*ds.X.At(i, k))
						}
					}
				}
			}
			return h
		},
	}
}

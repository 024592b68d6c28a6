package problems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"

	xerrors "github.com/copyleftdev/XVAL/internal/errors"
)

const testDataset = "testdata/linearly_separable.json"

// checkGradient compares the analytic gradient against a central
// finite-difference stencil at the given point.
func checkGradient(t *testing.T, p *Problem, w []float64) {
	t.Helper()

	numeric := fd.Gradient(nil, p.Func, w, &fd.Settings{Formula: fd.Central})
	analytic := p.Grad(w)

	require.Len(t, analytic, p.Dim)
	for i := range analytic {
		assert.True(t,
			scalar.EqualWithinAbsOrRel(analytic[i], numeric[i], 1e-6, 1e-4),
			"gradient component %d at %v: analytic=%v numeric=%v", i, w, analytic[i], numeric[i])
	}
}

// checkHessian compares the analytic Hessian against a symmetric
// finite-difference stencil.
func checkHessian(t *testing.T, p *Problem, w []float64) {
	t.Helper()

	numeric := mat.NewSymDense(p.Dim, nil)
	fd.Hessian(numeric, p.Func, w, nil)
	analytic := p.Hess(w)

	for i := 0; i < p.Dim; i++ {
		for j := 0; j < p.Dim; j++ {
			assert.True(t,
				scalar.EqualWithinAbsOrRel(analytic.At(i, j), numeric.At(i, j), 1e-3, 1e-3),
				"hessian (%d,%d) at %v: analytic=%v numeric=%v", i, j, w, analytic.At(i, j), numeric.At(i, j))
		}
	}
}

func TestAnalyticDerivatives(t *testing.T) {
	// Sample points away from any symmetry axis
	points := [][]float64{
		{1, 1},
		{0.5, -0.3},
		{-1.2, 0.7},
		{2, -2},
	}

	for _, name := range AnalyticNames() {
		t.Run(name, func(t *testing.T) {
			p, err := Get(name)
			require.NoError(t, err)
			require.Equal(t, 2, p.Dim)

			for _, w := range points {
				checkGradient(t, p, w)
				checkHessian(t, p, w)
			}
		})
	}
}

func TestDataDerivatives(t *testing.T) {
	// Points chosen so no sample sits on a hinge kink, where the
	// subgradient and the finite difference legitimately disagree.
	points := [][]float64{
		{0.4, 0.3, 0.05},
		{-0.2, 0.5, -0.1},
	}

	cases := []struct {
		name    string
		variant string
		hess    bool
	}{
		{"logistic-regression", "", true},
		{"separating-hyperplane", "soft-margin", false},
		{"separating-hyperplane", "perceptron", false},
		{"separating-hyperplane", "squared-hinge", true},
	}

	for _, tc := range cases {
		label := tc.name
		if tc.variant != "" {
			label += "/" + tc.variant
		}
		t.Run(label, func(t *testing.T) {
			p, err := GetData(tc.name, tc.variant, testDataset, 0.01)
			require.NoError(t, err)
			require.Equal(t, 3, p.Dim)

			if tc.hess {
				require.NotNil(t, p.Hess)
			} else {
				assert.Nil(t, p.Hess, "hinge-family losses are not twice differentiable")
			}

			for _, w := range points {
				checkGradient(t, p, w)
				if tc.hess {
					checkHessian(t, p, w)
				}
			}
		})
	}
}

// TestRegularizationExcludesBias pins the convention that the penalty never
// touches the bias coordinate: moving only the bias must leave the
// regularization contribution of the gradient unchanged.
func TestRegularizationExcludesBias(t *testing.T) {
	p, err := GetData("logistic-regression", "", testDataset, 10.0)
	require.NoError(t, err)

	small, err := GetData("logistic-regression", "", testDataset, 0.0)
	require.NoError(t, err)

	w := []float64{0.5, -0.25, 2.0}
	g10 := p.Grad(w)
	g0 := small.Grad(w)

	// Heavy regularization shifts the weight components but not the bias
	assert.InDelta(t, g0[2], g10[2], 1e-12)
	assert.InDelta(t, g0[0]+10.0*w[0], g10[0], 1e-12)
	assert.InDelta(t, g0[1]+10.0*w[1], g10[1], 1e-12)
}

func TestMarginLabelRecoding(t *testing.T) {
	ds, err := LoadDataset(testDataset)
	require.NoError(t, err)

	for i, pt := range ds.Points {
		want := float64(2*pt.Y - 1)
		assert.Equal(t, want, ds.YSigned.AtVec(i))
		assert.Equal(t, 1.0, ds.X.At(i, 2), "bias column must be 1")
	}
}

func TestUnknownNames(t *testing.T) {
	_, err := Get("does-not-exist")
	require.Error(t, err)
	assert.True(t, xerrors.IsKind(err, xerrors.KindUnknownProblem))

	_, err = GetData("does-not-exist", "", testDataset, 0.01)
	require.Error(t, err)
	assert.True(t, xerrors.IsKind(err, xerrors.KindUnknownProblem))

	_, err = GetData("separating-hyperplane", "hard-margin", testDataset, 0.01)
	require.Error(t, err)
	assert.True(t, xerrors.IsKind(err, xerrors.KindUnknownVariant))
}

func TestLoadDatasetErrors(t *testing.T) {
	_, err := LoadDataset("testdata/missing.json")
	require.Error(t, err)
	assert.True(t, xerrors.IsKind(err, xerrors.KindBadDataset))
}

// TestSaddleUnbounded sanity-checks the problem used for divergence
// detection: it decreases without bound along w1.
func TestSaddleUnbounded(t *testing.T) {
	p, err := Get(SaddleName)
	require.NoError(t, err)

	assert.Greater(t, p.Func([]float64{0, 1}), p.Func([]float64{0, 10}))
	assert.Greater(t, p.Func([]float64{0, 10}), p.Func([]float64{0, 100}))
}

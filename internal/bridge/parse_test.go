package bridge

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const convergedReport = `Running logistic-regression with gd-fixed...
✅ CONVERGED in 42 iterations
   Final loss: 3.527540e-02
   Final grad norm: 8.920000e-07
   Final position: [0.812345, 0.798765, -0.012345]
`

const notConvergedReport = `Running rosenbrock with gd-fixed...
❌ DID NOT CONVERGE (reached maxIter=100)
   Iterations: 100
   Final loss: 3.527540e+00
   Final grad norm: 2.950000e-01
   Final position: [0.412000, 0.161000]
`

func TestParseConvergedReport(t *testing.T) {
	res := ParseOutput(convergedReport, []float64{0, 0, 0})

	assert.True(t, res.Converged)
	assert.Equal(t, 42, res.Iterations)
	assert.InDelta(t, 3.527540e-02, res.FinalLoss, 1e-12)
	assert.InDelta(t, 8.92e-07, res.FinalGradNorm, 1e-15)
	require.Len(t, res.FinalW, 3)
	assert.InDelta(t, 0.812345, res.FinalW[0], 1e-12)
	assert.InDelta(t, -0.012345, res.FinalW[2], 1e-12)
}

func TestParseNotConvergedReport(t *testing.T) {
	res := ParseOutput(notConvergedReport, []float64{0, 0})

	assert.False(t, res.Converged)
	assert.Equal(t, 100, res.Iterations)
	assert.InDelta(t, 3.527540, res.FinalLoss, 1e-12)
	assert.Equal(t, []float64{0.412, 0.161}, res.FinalW)
}

func TestParseIterationPhrasings(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want int
	}{
		{"in-n-iterations", "CONVERGED in 7 iterations\nFinal loss: 1.0e-8\nFinal grad norm: 1e-7\n", 7},
		{"singular", "CONVERGED in 1 iteration\nFinal loss: 1.0e-8\nFinal grad norm: 1e-7\n", 1},
		{"after-n-iterations", "CONVERGED after 12 iterations\nFinal loss: 1.0e-8\nFinal grad norm: 1e-7\n", 12},
		{"labeled", "CONVERGED\nIterations: 33\nFinal loss: 1.0e-8\nFinal grad norm: 1e-7\n", 33},
		{"missing", "CONVERGED\nFinal loss: 1.0e-8\nFinal grad norm: 1e-7\n", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ParseOutput(tt.out, []float64{0, 0})
			assert.Equal(t, tt.want, res.Iterations)
			assert.True(t, res.Converged)
		})
	}
}

// TestParseNonFiniteTokens: NaN or Infinity anywhere in the report forces a
// non-converged result, and non-finite metric tokens map to +Inf.
func TestParseNonFiniteTokens(t *testing.T) {
	out := `CONVERGED in 5 iterations
   Final loss: NaN
   Final grad norm: Infinity
   Final position: [0.1, 0.2]
`
	res := ParseOutput(out, []float64{0, 0})

	assert.False(t, res.Converged)
	assert.True(t, math.IsInf(res.FinalLoss, 1))
	assert.True(t, math.IsInf(res.FinalGradNorm, 1))
}

func TestParseDivergedMarker(t *testing.T) {
	out := `DIVERGED (loss exploded)
   Iterations: 17
   Final loss: 1.0e+30
   Final grad norm: 5.0e+29
`
	res := ParseOutput(out, []float64{1, 1})

	assert.False(t, res.Converged)
	assert.Equal(t, 17, res.Iterations)
	assert.Equal(t, 1.0e+30, res.FinalLoss)
	// No position line: falls back to the initial point
	assert.Equal(t, []float64{1, 1}, res.FinalW)
}

func TestParseMissingFieldsDegrade(t *testing.T) {
	res := ParseOutput("some unrelated chatter\n", []float64{0.5, -0.5})

	assert.False(t, res.Converged)
	assert.Equal(t, 0, res.Iterations)
	assert.True(t, math.IsInf(res.FinalLoss, 1))
	assert.True(t, math.IsInf(res.FinalGradNorm, 1))
	assert.Equal(t, []float64{0.5, -0.5}, res.FinalW)
}

func TestParseMalformedPositionKeepsInitial(t *testing.T) {
	out := `CONVERGED in 3 iterations
   Final loss: 1.0e-9
   Final grad norm: 1.0e-8
   Final position: [0.1, oops]
`
	res := ParseOutput(out, []float64{0, 0})

	assert.True(t, res.Converged)
	assert.Equal(t, []float64{0, 0}, res.FinalW)
}

// The word CONVERGED inside DID NOT CONVERGE must not read as success.
func TestParseConvergedMarkerAnchored(t *testing.T) {
	res := ParseOutput(notConvergedReport, []float64{0, 0})
	assert.False(t, res.Converged)

	res = ParseOutput("the run CONVERGED eventually\nFinal loss: 1e-9\nFinal grad norm: 1e-8\n", []float64{0, 0})
	assert.False(t, res.Converged, "marker must start its line")
}

func TestUnrunnable(t *testing.T) {
	res := unrunnable([]float64{0.1, 0.2}, "Timeout after 5s")

	assert.False(t, res.Converged)
	assert.Zero(t, res.Iterations)
	assert.True(t, math.IsInf(res.FinalLoss, 1))
	assert.True(t, math.IsInf(res.FinalGradNorm, 1))
	assert.Equal(t, []float64{0.1, 0.2}, res.FinalW)
	assert.Equal(t, "Timeout after 5s", res.Message)
}

package runner

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/XVAL/internal/bridge"
	"github.com/copyleftdev/XVAL/internal/compare"
	"github.com/copyleftdev/XVAL/internal/solver"
)

// echoBridge answers every invocation with the same canned report.
func echoBridge(report string) *bridge.Bridge {
	return bridge.New(bridge.Config{
		Command: "/bin/sh",
		Args:    []string{"-c", "printf '%b' \"" + report + "\""},
		Timeout: 5 * time.Second,
	}, nil)
}

// agreeingReport matches what the in-process drivers find on the quadratic
// from [1,1]: near-zero loss at the origin in a comparable iteration count.
const agreeingReport = `CONVERGED in 70 iterations\n   Final loss: 0.0\n   Final grad norm: 1.0e-07\n   Final position: [0.000000, 0.000000]\n`

func quadraticCase() Case {
	return Case{
		Problem:   "quadratic",
		Algorithm: solver.GDFixed,
		Initial:   []float64{1, 1},
		MaxIter:   200,
		Tol:       1e-6,
		Alpha:     0.1,
	}
}

func TestCaseName(t *testing.T) {
	c := Case{Problem: "quadratic", Algorithm: solver.Newton}
	assert.Equal(t, "quadratic + newton", c.Name())

	c = Case{Problem: "separating-hyperplane", Variant: "perceptron", Algorithm: solver.LBFGS}
	assert.Equal(t, "separating-hyperplane[perceptron] + lbfgs", c.Name())
}

func TestDefaultMatrix(t *testing.T) {
	cases := DefaultMatrix(0.01)

	// 4 analytic problems and 4 data-fitted classifiers, each crossed with
	// the 4 algorithms
	require.Len(t, cases, 32)

	byName := map[string]Case{}
	for _, c := range cases {
		byName[c.Name()] = c
	}

	rb := byName["rosenbrock + gd-fixed"]
	assert.Equal(t, 0.001, rb.Alpha)
	assert.Equal(t, 100, rb.MaxIter)

	ill := byName["ill-conditioned-quadratic + gd-fixed"]
	assert.Equal(t, 0.01, ill.Alpha)
	assert.Equal(t, 1000, ill.MaxIter)

	lr := byName["logistic-regression + newton"]
	assert.Equal(t, []float64{0, 0, 0}, lr.Initial)
	assert.Equal(t, 0.01, lr.Lambda)
	assert.Zero(t, lr.Alpha, "step size is a gd-fixed concern")

	svm := byName["separating-hyperplane[soft-margin] + gd-fixed"]
	assert.Equal(t, 0.1, svm.Alpha)
}

func TestFilter(t *testing.T) {
	cases := DefaultMatrix(0.01)

	only := Filter(cases, "quadratic", "")
	require.Len(t, only, 4)
	for _, c := range only {
		assert.Equal(t, "quadratic", c.Problem)
	}

	only = Filter(cases, "", "newton")
	require.Len(t, only, 8)

	only = Filter(cases, "rosenbrock", "lbfgs")
	require.Len(t, only, 1)

	assert.Empty(t, Filter(cases, "no-such-problem", ""))
	assert.Len(t, Filter(cases, "", ""), 32)
}

func TestRunCaseAgreement(t *testing.T) {
	r := New(Options{Bridge: echoBridge(agreeingReport)})

	cr := r.RunCase(context.Background(), quadraticCase())

	assert.Equal(t, compare.Pass, cr.Verdict)
	require.NotNil(t, cr.Details)
	assert.True(t, cr.Details.Reference.Converged)
	assert.True(t, cr.Details.Candidate.Converged)
}

func TestRunCaseUnknownProblemFailsSoft(t *testing.T) {
	r := New(Options{Bridge: echoBridge(agreeingReport)})

	cr := r.RunCase(context.Background(), Case{
		Problem:   "no-such-problem",
		Algorithm: solver.GDFixed,
		Initial:   []float64{1, 1},
		MaxIter:   10,
		Alpha:     0.1,
	})

	assert.Equal(t, compare.Fail, cr.Verdict)
	require.NotEmpty(t, cr.Details.Issues)
	assert.Contains(t, cr.Details.Issues[0], "Configuration error")
}

func TestRunCaseBrokenCandidate(t *testing.T) {
	b := bridge.New(bridge.Config{Command: "false", Timeout: 5 * time.Second}, nil)
	r := New(Options{Bridge: b})

	cr := r.RunCase(context.Background(), quadraticCase())

	// Reference converges, candidate is unrunnable: a convergence mismatch
	assert.Equal(t, compare.Fail, cr.Verdict)
	assert.True(t, cr.Details.Reference.Converged)
	assert.False(t, cr.Details.Candidate.Converged)
}

func TestRunAllSummaryAndReport(t *testing.T) {
	var out bytes.Buffer
	r := New(Options{Bridge: echoBridge(agreeingReport), Out: &out})

	cases := []Case{
		quadraticCase(),
		{Problem: "no-such-problem", Algorithm: solver.GDFixed, Initial: []float64{1, 1}, MaxIter: 10, Alpha: 0.1},
	}

	summary, results := r.RunAll(context.Background(), cases)

	assert.Equal(t, Summary{Pass: 1, Fail: 1}, summary)
	assert.True(t, summary.AnyFailed())
	require.Len(t, results, 2)

	report := out.String()
	assert.Contains(t, report, "Running 2 test cases...")
	assert.Contains(t, report, "quadratic + gd-fixed")
	assert.Contains(t, report, "no-such-problem + gd-fixed")
	assert.Contains(t, report, "Configuration error")
	assert.Contains(t, report, "PASS 1, SUSPICIOUS 0, FAIL 1")
}

func TestRunAllQuietPrintsOnlySummary(t *testing.T) {
	var out bytes.Buffer
	r := New(Options{Bridge: echoBridge(agreeingReport), Out: &out, Quiet: true})

	summary, _ := r.RunAll(context.Background(), []Case{quadraticCase()})

	assert.False(t, summary.AnyFailed())
	assert.Equal(t, "PASS 1, SUSPICIOUS 0, FAIL 0\n", out.String())
}

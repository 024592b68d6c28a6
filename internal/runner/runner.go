// Package runner executes batches of (problem, algorithm) configurations,
// running each on the in-process reference drivers and on the external
// candidate, comparing the pair, and reporting a per-case verdict plus a
// tri-count summary. Cases run strictly sequentially; each comparison is
// independent of the others.
package runner

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/copyleftdev/XVAL/internal/bridge"
	"github.com/copyleftdev/XVAL/internal/compare"
	"github.com/copyleftdev/XVAL/internal/metrics"
	"github.com/copyleftdev/XVAL/internal/problems"
	"github.com/copyleftdev/XVAL/internal/solver"
)

// Case is one batch configuration.
type Case struct {
	Problem   string
	Variant   string
	Algorithm solver.Algorithm
	Initial   []float64
	MaxIter   int
	Tol       float64
	// Alpha is set only for gd-fixed; Lambda only for data-fitted problems.
	Alpha  float64
	Lambda float64
}

// Name formats the case for the report, e.g.
// "separating-hyperplane[perceptron] + newton".
func (c Case) Name() string {
	if c.Variant != "" {
		return fmt.Sprintf("%s[%s] + %s", c.Problem, c.Variant, c.Algorithm)
	}
	return fmt.Sprintf("%s + %s", c.Problem, c.Algorithm)
}

// DefaultMatrix mirrors the reference validation suite: every analytic
// problem and every data-fitted classifier crossed with the full algorithm
// vocabulary, with the step-size overrides the analytic problems need.
func DefaultMatrix(lambda float64) []Case {
	var cases []Case

	for _, problem := range problems.AnalyticNames() {
		for _, alg := range solver.Algorithms() {
			c := Case{
				Problem:   problem,
				Algorithm: alg,
				Initial:   []float64{1, 1},
				MaxIter:   100,
				Tol:       1e-6,
			}
			if alg == solver.GDFixed {
				switch problem {
				case "rosenbrock":
					// The banana valley blows up under larger fixed steps
					c.Alpha = 0.001
				case "ill-conditioned-quadratic":
					c.Alpha = 0.01
					c.MaxIter = 1000
				default:
					c.Alpha = 0.1
				}
			}
			cases = append(cases, c)
		}
	}

	dataCases := []struct {
		problem string
		variant string
	}{
		{"logistic-regression", ""},
		{"separating-hyperplane", "soft-margin"},
		{"separating-hyperplane", "perceptron"},
		{"separating-hyperplane", "squared-hinge"},
	}
	for _, dc := range dataCases {
		for _, alg := range solver.Algorithms() {
			c := Case{
				Problem:   dc.problem,
				Variant:   dc.variant,
				Algorithm: alg,
				Initial:   []float64{0, 0, 0},
				MaxIter:   100,
				Tol:       1e-6,
				Lambda:    lambda,
			}
			if alg == solver.GDFixed {
				c.Alpha = 0.1
			}
			cases = append(cases, c)
		}
	}

	return cases
}

// Filter keeps the cases matching the given problem and algorithm names;
// empty filters match everything.
func Filter(cases []Case, problem, algorithm string) []Case {
	var out []Case
	for _, c := range cases {
		if problem != "" && c.Problem != problem {
			continue
		}
		if algorithm != "" && string(c.Algorithm) != algorithm {
			continue
		}
		out = append(out, c)
	}
	return out
}

// CaseResult is the outcome of one configuration.
type CaseResult struct {
	Case    Case
	Verdict compare.Verdict
	Details *compare.Details
}

// Summary is the batch tri-count.
type Summary struct {
	Pass       int
	Suspicious int
	Fail       int
}

func (s Summary) String() string {
	return fmt.Sprintf("PASS %d, SUSPICIOUS %d, FAIL %d", s.Pass, s.Suspicious, s.Fail)
}

// AnyFailed reports whether the batch should exit non-zero.
func (s Summary) AnyFailed() bool {
	return s.Fail > 0
}

// Runner executes validation batches.
type Runner struct {
	bridge      *bridge.Bridge
	logger      *zap.Logger
	datasetPath string
	out         io.Writer
	verbose     bool
	quiet       bool
}

// Options configures a Runner.
type Options struct {
	Bridge      *bridge.Bridge
	Logger      *zap.Logger
	DatasetPath string
	// Out receives the human-readable report.
	Out     io.Writer
	Verbose bool
	Quiet   bool
}

// New creates a batch runner.
func New(opts Options) *Runner {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	return &Runner{
		bridge:      opts.Bridge,
		logger:      opts.Logger,
		datasetPath: opts.DatasetPath,
		out:         opts.Out,
		verbose:     opts.Verbose,
		quiet:       opts.Quiet,
	}
}

// resolveProblem selects the catalogue entry for a case.
func (r *Runner) resolveProblem(c Case) (*problems.Problem, error) {
	if c.Variant != "" || c.Problem == "logistic-regression" {
		return problems.GetData(c.Problem, c.Variant, r.datasetPath, c.Lambda)
	}
	return problems.Get(c.Problem)
}

// RunCase validates a single configuration: reference run, candidate run,
// comparison. Configuration errors and per-case panics are reported as FAIL
// verdicts so one broken case cannot abort the batch.
func (r *Runner) RunCase(ctx context.Context, c Case) (cr CaseResult) {
	cr = CaseResult{Case: c}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Case panicked",
				zap.String("case", c.Name()),
				zap.Any("panic", rec),
			)
			cr.Verdict = compare.Fail
			cr.Details = &compare.Details{
				Issues: []string{fmt.Sprintf("Internal error: %v", rec)},
			}
		}
	}()

	problem, err := r.resolveProblem(c)
	if err != nil {
		cr.Verdict = compare.Fail
		cr.Details = &compare.Details{
			Issues: []string{fmt.Sprintf("Configuration error: %v", err)},
		}
		return cr
	}

	start := time.Now()
	ref, err := solver.Run(problem, c.Algorithm, solver.RunConfig{
		Initial: c.Initial,
		MaxIter: c.MaxIter,
		Tol:     c.Tol,
		Alpha:   c.Alpha,
	}, r.logger)
	if err != nil {
		cr.Verdict = compare.Fail
		cr.Details = &compare.Details{
			Issues: []string{fmt.Sprintf("Configuration error: %v", err)},
		}
		return cr
	}
	metrics.RunDuration.WithLabelValues("reference", string(c.Algorithm)).
		Observe(time.Since(start).Seconds())

	cand := r.bridge.Run(ctx, bridge.Request{
		Problem:   c.Problem,
		Variant:   c.Variant,
		Algorithm: c.Algorithm,
		Initial:   c.Initial,
		MaxIter:   c.MaxIter,
		Alpha:     c.Alpha,
		Lambda:    c.Lambda,
	})

	verdict, details := compare.Compare(ref, cand, c.Problem)
	cr.Verdict = verdict
	cr.Details = details
	return cr
}

// RunAll executes the batch sequentially and prints the report. The summary
// counts are accumulated in this single pass.
func (r *Runner) RunAll(ctx context.Context, cases []Case) (Summary, []CaseResult) {
	var summary Summary
	results := make([]CaseResult, 0, len(cases))

	if !r.quiet {
		fmt.Fprintf(r.out, "Running %d test cases...\n\n", len(cases))
	}

	for _, c := range cases {
		cr := r.RunCase(ctx, c)
		results = append(results, cr)

		metrics.Verdicts.WithLabelValues(cr.Verdict.String()).Inc()
		switch cr.Verdict {
		case compare.Pass:
			summary.Pass++
		case compare.Suspicious:
			summary.Suspicious++
		case compare.Fail:
			summary.Fail++
		}

		r.report(cr)
	}

	if !r.quiet {
		fmt.Fprintln(r.out)
	}
	fmt.Fprintln(r.out, summary.String())
	return summary, results
}

// report prints one verdict line, with issues when they matter.
func (r *Runner) report(cr CaseResult) {
	if r.quiet {
		return
	}
	fmt.Fprintf(r.out, "%-10s %s\n", cr.Verdict, cr.Case.Name())
	if cr.Verdict != compare.Pass || r.verbose {
		for _, issue := range cr.Details.Issues {
			fmt.Fprintf(r.out, "           - %s\n", issue)
		}
	}
}

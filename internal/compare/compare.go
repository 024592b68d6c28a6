// Package compare classifies agreement between two independently produced
// optimization results into a tiered verdict. The decision policy is an
// ordered first-match rule table; precedence is convergence mismatch, then
// joint divergence, then numeric thresholds.
package compare

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/copyleftdev/XVAL/internal/problems"
	"github.com/copyleftdev/XVAL/internal/solver"
)

// Verdict is the three-level agreement classification, ordered by severity.
type Verdict int

const (
	Pass Verdict = iota
	Suspicious
	Fail
)

// String returns the report token for the verdict.
func (v Verdict) String() string {
	switch v {
	case Pass:
		return "PASS"
	case Suspicious:
		return "SUSPICIOUS"
	default:
		return "FAIL"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Fixed thresholds of the numerical-equivalence contract between the two
// implementations. Deliberately not configurable.
const (
	// lossEps keeps the relative loss difference defined at zero loss.
	lossEps = 1e-10
	// failLossRel and warnLossRel bound the relative final-loss difference.
	failLossRel = 0.10
	warnLossRel = 0.01
	// failPosDiff and warnPosDiff bound the Euclidean final-position gap.
	failPosDiff = 1.0
	warnPosDiff = 0.1
	// warnIterRatio bounds the iteration-count ratio between the two runs.
	warnIterRatio = 3.0
)

// Summary holds one side's headline metrics.
type Summary struct {
	Converged     bool    `json:"converged"`
	Iterations    int     `json:"iterations"`
	FinalLoss     float64 `json:"final_loss"`
	FinalGradNorm float64 `json:"final_grad_norm"`
}

// Details summarizes both inputs and carries the ordered issue list.
type Details struct {
	Reference Summary  `json:"reference"`
	Candidate Summary  `json:"candidate"`
	Issues    []string `json:"issues"`
}

// comparison is the evaluation state threaded through the rule table.
type comparison struct {
	problem     string
	ref, cand   *solver.Result
	relLossDiff float64
	posDiff     float64
}

// rule inspects the comparison and either renders a final verdict (done=true)
// or defers to the next rule. Rules may append issues without terminating.
type rule struct {
	name  string
	apply func(c *comparison, d *Details) (v Verdict, done bool)
}

// rules is the ordered decision table. First match wins.
var rules = []rule{
	{"saddle-both-diverged", saddleBothDiverged},
	{"convergence-mismatch", convergenceMismatch},
	{"both-diverged", bothDiverged},
	{"non-finite-loss", nonFiniteLoss},
	{"loss-gap", lossGap},
	{"position-gap", positionGap},
	{"loss-drift", lossDrift},
	{"iteration-ratio", iterationRatio},
	{"position-drift", positionDrift},
}

// Compare renders the verdict for two results of the same run configuration.
// The verdict severity is symmetric in its inputs; the issue text names the
// reference and candidate roles and is not.
func Compare(ref, cand *solver.Result, problemName string) (Verdict, *Details) {
	c := &comparison{problem: problemName, ref: ref, cand: cand}

	if ref.Converged && cand.Converged {
		c.relLossDiff = math.Abs(ref.FinalLoss-cand.FinalLoss) / (math.Abs(ref.FinalLoss) + lossEps)
		c.posDiff = positionDistance(ref.FinalW, cand.FinalW)
	}

	d := &Details{
		Reference: summarize(ref),
		Candidate: summarize(cand),
	}

	for _, r := range rules {
		if v, done := r.apply(c, d); done {
			return v, d
		}
	}

	if len(d.Issues) > 0 {
		return Suspicious, d
	}
	d.Issues = []string{"All metrics within tolerance"}
	return Pass, d
}

func summarize(r *solver.Result) Summary {
	return Summary{
		Converged:     r.Converged,
		Iterations:    r.Iterations,
		FinalLoss:     r.FinalLoss,
		FinalGradNorm: r.FinalGradNorm,
	}
}

// positionDistance is the Euclidean gap between final positions. A dimension
// mismatch between the two sides is treated as an unbounded gap.
func positionDistance(a, b []float64) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	return floats.Distance(a, b, 2)
}

// saddleBothDiverged passes the designated unbounded problem when both sides
// correctly report non-convergence.
func saddleBothDiverged(c *comparison, d *Details) (Verdict, bool) {
	if c.problem != problems.SaddleName {
		return 0, false
	}
	if !c.ref.Converged && !c.cand.Converged {
		d.Issues = []string{"Both correctly diverged (unbounded problem)"}
		return Pass, true
	}
	return 0, false
}

func convergenceMismatch(c *comparison, d *Details) (Verdict, bool) {
	if c.ref.Converged == c.cand.Converged {
		return 0, false
	}
	d.Issues = append(d.Issues, fmt.Sprintf(
		"Convergence mismatch: reference=%s, candidate=%s",
		convergedWord(c.ref.Converged), convergedWord(c.cand.Converged)))
	return Fail, true
}

func bothDiverged(c *comparison, d *Details) (Verdict, bool) {
	if c.ref.Converged || c.cand.Converged {
		return 0, false
	}
	d.Issues = append(d.Issues, "Both diverged (unexpected for this problem)")
	return Suspicious, true
}

func nonFiniteLoss(c *comparison, d *Details) (Verdict, bool) {
	if isFinite(c.ref.FinalLoss) && isFinite(c.cand.FinalLoss) {
		return 0, false
	}
	d.Issues = append(d.Issues, fmt.Sprintf(
		"Non-finite loss: reference=%v, candidate=%v", c.ref.FinalLoss, c.cand.FinalLoss))
	return Fail, true
}

func lossGap(c *comparison, d *Details) (Verdict, bool) {
	if c.relLossDiff <= failLossRel {
		return 0, false
	}
	d.Issues = append(d.Issues, fmt.Sprintf(
		"Loss differs by %.1f%%: reference=%.6e, candidate=%.6e",
		c.relLossDiff*100, c.ref.FinalLoss, c.cand.FinalLoss))
	return Fail, true
}

func positionGap(c *comparison, d *Details) (Verdict, bool) {
	if c.posDiff <= failPosDiff {
		return 0, false
	}
	d.Issues = append(d.Issues, fmt.Sprintf("Final positions differ by %.4f", c.posDiff))
	return Fail, true
}

// lossDrift records a suspicion for a 1-10%% loss gap without terminating.
func lossDrift(c *comparison, d *Details) (Verdict, bool) {
	if c.relLossDiff > warnLossRel {
		d.Issues = append(d.Issues, fmt.Sprintf(
			"Loss differs by %.2f%%: reference=%.6e, candidate=%.6e",
			c.relLossDiff*100, c.ref.FinalLoss, c.cand.FinalLoss))
	}
	return 0, false
}

// iterationRatio flags runs whose iteration counts differ more than 3x.
// Only meaningful when both sides actually iterated.
func iterationRatio(c *comparison, d *Details) (Verdict, bool) {
	ri, ci := c.ref.Iterations, c.cand.Iterations
	if ri > 0 && ci > 0 {
		ratio := float64(max(ri, ci)) / float64(max(min(ri, ci), 1))
		if ratio > warnIterRatio {
			d.Issues = append(d.Issues, fmt.Sprintf(
				"Iteration count differs %.1fx: reference=%d, candidate=%d", ratio, ri, ci))
		}
	}
	return 0, false
}

func positionDrift(c *comparison, d *Details) (Verdict, bool) {
	if c.posDiff > warnPosDiff && c.posDiff <= failPosDiff {
		d.Issues = append(d.Issues, fmt.Sprintf("Final positions differ by %.4f", c.posDiff))
	}
	return 0, false
}

func convergedWord(ok bool) string {
	if ok {
		return "converged"
	}
	return "diverged"
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

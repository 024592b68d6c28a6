package bridge

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/copyleftdev/XVAL/internal/solver"
)

// The candidate report format, in labeled lines:
//
//	CONVERGED in 5 iterations
//	   Final loss: 1.234567e-07
//	   Final grad norm: 8.92e-06
//	   Final position: [0.000010, 0.000020]
//
// or, on non-convergence:
//
//	DID NOT CONVERGE (reached maxIter=100)
//	   Iterations: 100
//	   Final loss: 3.527540e-10
//	   Final grad norm: 2.95e-5
var (
	convergedRe  = regexp.MustCompile(`(?m)^\s*\W*\s*CONVERGED\b`)
	iterInRe     = regexp.MustCompile(`in (\d+) iterations?`)
	iterAfterRe  = regexp.MustCompile(`after (\d+) iterations?`)
	iterLabelRe  = regexp.MustCompile(`Iterations:\s*(\d+)`)
	lossRe       = regexp.MustCompile(`Final loss:\s*(\S+)`)
	gradNormRe   = regexp.MustCompile(`Final grad norm:\s*(\S+)`)
	positionRe   = regexp.MustCompile(`Final position:\s*\[(.*?)\]`)
	notConverged = []string{"DID NOT CONVERGE", "DIVERGED", "NaN", "Infinity"}
)

// unrunnable is the record synthesized when the candidate produced nothing
// usable. Final position defaults to the initial point.
func unrunnable(initial []float64, message string) *solver.Result {
	w := make([]float64, len(initial))
	copy(w, initial)
	return &solver.Result{
		Converged:     false,
		Iterations:    0,
		FinalLoss:     math.Inf(1),
		FinalW:        w,
		FinalGradNorm: math.Inf(1),
		Message:       message,
	}
}

// ParseOutput reads the candidate's textual report into a result record.
// Any missing or malformed field degrades to the non-convergent default for
// that field instead of failing the whole parse.
func ParseOutput(stdout string, initial []float64) *solver.Result {
	converged := convergedRe.MatchString(stdout)

	iterations := 0
	for _, re := range []*regexp.Regexp{iterInRe, iterAfterRe, iterLabelRe} {
		if m := re.FindStringSubmatch(stdout); m != nil {
			n, err := strconv.Atoi(m[1])
			if err == nil {
				iterations = n
			}
			break
		}
	}

	finalLoss := parseMetric(lossRe, stdout)
	finalGradNorm := parseMetric(gradNormRe, stdout)

	finalW := make([]float64, len(initial))
	copy(finalW, initial)
	if m := positionRe.FindStringSubmatch(stdout); m != nil {
		if pos, ok := parseVector(m[1]); ok {
			finalW = pos
		}
	}

	// Divergence markers or non-finite tokens anywhere override the
	// convergence marker.
	for _, marker := range notConverged {
		if strings.Contains(stdout, marker) {
			converged = false
			break
		}
	}
	if math.IsInf(finalLoss, 0) || math.IsNaN(finalLoss) {
		converged = false
	}

	return &solver.Result{
		Converged:     converged,
		Iterations:    iterations,
		FinalLoss:     finalLoss,
		FinalW:        finalW,
		FinalGradNorm: finalGradNorm,
		Message:       "Parsed from CLI output",
	}
}

// parseMetric extracts a labeled scalar, mapping the NaN and Infinity tokens
// (and anything unparseable) to +Inf.
func parseMetric(re *regexp.Regexp, stdout string) float64 {
	m := re.FindStringSubmatch(stdout)
	if m == nil {
		return math.Inf(1)
	}
	tok := m[1]
	if strings.Contains(tok, "NaN") || strings.Contains(tok, "Infinity") {
		return math.Inf(1)
	}
	v, err := strconv.ParseFloat(strings.TrimRight(tok, ","), 64)
	if err != nil {
		return math.Inf(1)
	}
	return v
}

func parseVector(s string) ([]float64, bool) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}

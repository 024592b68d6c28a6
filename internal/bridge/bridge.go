// Package bridge invokes the candidate implementation out of process and
// parses its textual report back into the shared result shape. Process
// crashes, timeouts and unparseable output are all absorbed into
// non-converged results with infinite metrics so the comparator never needs
// to special-case a broken candidate.
package bridge

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/copyleftdev/XVAL/internal/metrics"
	"github.com/copyleftdev/XVAL/internal/solver"
)

// Config describes how to invoke the candidate CLI.
type Config struct {
	// Command is the executable; Args are prepended before the run flags.
	Command string
	Args    []string
	// Dir is the working directory for the candidate process.
	Dir string
	// Timeout is the hard wall-clock limit per invocation.
	Timeout time.Duration
}

// Request is one run configuration serialized onto the candidate's flags.
type Request struct {
	Problem   string
	Variant   string
	Algorithm solver.Algorithm
	Initial   []float64
	MaxIter   int
	// Alpha, Lambda are forwarded only when positive.
	Alpha  float64
	Lambda float64
}

// Bridge runs candidate invocations.
type Bridge struct {
	cfg    Config
	logger *zap.Logger
}

// New creates a bridge with the given configuration.
func New(cfg Config, logger *zap.Logger) *Bridge {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{cfg: cfg, logger: logger}
}

// commandArgs serializes the request onto the candidate CLI's flag contract.
func (b *Bridge) commandArgs(req Request) []string {
	initial := make([]string, len(req.Initial))
	for i, v := range req.Initial {
		initial[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}

	args := append([]string{}, b.cfg.Args...)
	args = append(args,
		"--problem", req.Problem,
		"--algorithm", string(req.Algorithm),
		"--initial", strings.Join(initial, ","),
		"--maxIter", strconv.Itoa(req.MaxIter),
	)
	if req.Alpha > 0 {
		args = append(args, "--alpha", strconv.FormatFloat(req.Alpha, 'g', -1, 64))
	}
	if req.Lambda > 0 {
		args = append(args, "--lambda", strconv.FormatFloat(req.Lambda, 'g', -1, 64))
	}
	if req.Variant != "" {
		args = append(args, "--variant", req.Variant)
	}
	return args
}

// Run invokes the candidate once. It never returns an error: every failure
// mode becomes a non-converged result carrying the failure text.
func (b *Bridge) Run(ctx context.Context, req Request) *solver.Result {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, b.cfg.Command, b.commandArgs(req)...)
	cmd.Dir = b.cfg.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	metrics.RunDuration.WithLabelValues("candidate", string(req.Algorithm)).
		Observe(time.Since(start).Seconds())

	if ctx.Err() == context.DeadlineExceeded {
		b.logger.Warn("Candidate run timed out",
			zap.String("problem", req.Problem),
			zap.String("algorithm", string(req.Algorithm)),
			zap.Duration("timeout", b.cfg.Timeout),
		)
		metrics.BridgeFailures.Inc()
		return unrunnable(req.Initial, fmt.Sprintf("Timeout after %s", b.cfg.Timeout))
	}
	if err != nil {
		b.logger.Warn("Candidate run failed",
			zap.String("problem", req.Problem),
			zap.String("algorithm", string(req.Algorithm)),
			zap.Error(err),
			zap.String("stderr", truncate(stderr.String(), 512)),
		)
		metrics.BridgeFailures.Inc()
		return unrunnable(req.Initial, fmt.Sprintf("CLI error: %s", strings.TrimSpace(stderr.String())))
	}

	return ParseOutput(stdout.String(), req.Initial)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

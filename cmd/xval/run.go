package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/copyleftdev/XVAL/internal/problems"
	"github.com/copyleftdev/XVAL/internal/solver"
)

var (
	runProblem   string
	runVariant   string
	runAlgorithm string
	runInitial   string
	runMaxIter   int
	runTol       float64
	runAlpha     float64
	runLambda    float64
	runDataset   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one configuration on the reference drivers",
	Long: `Runs a single (problem, algorithm) configuration in process and emits
the textual report format the bridge parses, so this binary can also stand in
as the candidate side of a comparison.`,
	RunE: runSingle,
}

func init() {
	runCmd.Flags().StringVar(&runProblem, "problem", "", "Problem name (required)")
	runCmd.Flags().StringVar(&runVariant, "variant", "", "Margin-classifier variant")
	runCmd.Flags().StringVar(&runAlgorithm, "algorithm", "", "Algorithm token (required)")
	runCmd.Flags().StringVar(&runInitial, "initial", "", "Comma-joined initial position, e.g. 1,1")
	runCmd.Flags().IntVar(&runMaxIter, "maxIter", 100, "Maximum iterations")
	runCmd.Flags().Float64Var(&runTol, "tol", 1e-6, "Gradient-norm tolerance")
	runCmd.Flags().Float64Var(&runAlpha, "alpha", 0, "Fixed step size (gd-fixed)")
	runCmd.Flags().Float64Var(&runLambda, "lambda", 0, "Regularization strength")
	runCmd.Flags().StringVar(&runDataset, "dataset", "", "Dataset path (data-fitted problems)")

	runCmd.MarkFlagRequired("problem")
	runCmd.MarkFlagRequired("algorithm")
	rootCmd.AddCommand(runCmd)
}

func runSingle(cmd *cobra.Command, args []string) error {
	alg, err := solver.ParseAlgorithm(runAlgorithm)
	if err != nil {
		return err
	}

	dataset := runDataset
	if dataset == "" {
		dataset = cfg.Validation.DatasetPath
	}
	lambda := runLambda
	if lambda == 0 {
		lambda = cfg.Validation.Lambda
	}

	var problem *problems.Problem
	if runVariant != "" || runProblem == "logistic-regression" {
		problem, err = problems.GetData(runProblem, runVariant, dataset, lambda)
	} else {
		problem, err = problems.Get(runProblem)
	}
	if err != nil {
		return err
	}

	initial, err := parseInitial(runInitial, problem.Dim)
	if err != nil {
		return err
	}

	result, err := solver.Run(problem, alg, solver.RunConfig{
		Initial: initial,
		MaxIter: runMaxIter,
		Tol:     runTol,
		Alpha:   runAlpha,
	}, logger)
	if err != nil {
		return err
	}

	printReport(cmd, result, runMaxIter)
	return nil
}

// printReport emits the labeled wire format of the bridge contract.
func printReport(cmd *cobra.Command, r *solver.Result, maxIter int) {
	if r.Converged {
		cmd.Printf("CONVERGED in %d iterations\n", r.Iterations)
	} else {
		cmd.Printf("DID NOT CONVERGE (reached maxIter=%d)\n", maxIter)
		cmd.Printf("   Iterations: %d\n", r.Iterations)
	}
	cmd.Printf("   Final loss: %.6e\n", r.FinalLoss)
	cmd.Printf("   Final grad norm: %.6e\n", r.FinalGradNorm)

	pos := make([]string, len(r.FinalW))
	for i, v := range r.FinalW {
		pos[i] = fmt.Sprintf("%.6f", v)
	}
	cmd.Printf("   Final position: [%s]\n", strings.Join(pos, ", "))
}

// parseInitial parses a comma-joined vector, defaulting to the origin.
func parseInitial(s string, dim int) ([]float64, error) {
	if s == "" {
		return make([]float64, dim), nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid initial position %q: %w", s, err)
		}
		out = append(out, v)
	}
	if len(out) != dim {
		return nil, fmt.Errorf("initial position has %d coordinates, problem needs %d", len(out), dim)
	}
	return out, nil
}

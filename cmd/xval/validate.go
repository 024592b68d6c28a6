package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/copyleftdev/XVAL/internal/bridge"
	"github.com/copyleftdev/XVAL/internal/runner"
)

var (
	valProblem   string
	valAlgorithm string
	valDataset   string
	valVerbose   bool
	valQuiet     bool

	valBridgeCmd     string
	valBridgeDir     string
	valBridgeTimeout time.Duration
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run the cross-validation batch",
	Long: `Runs every (problem, algorithm) configuration of the validation
matrix on the reference drivers and the external candidate, compares each
pair, and prints per-case verdicts plus a final PASS/SUSPICIOUS/FAIL summary.
Exits non-zero if any configuration FAILs.`,
	RunE: runValidation,
}

func init() {
	validateCmd.Flags().StringVar(&valProblem, "problem", "", "Run only this problem")
	validateCmd.Flags().StringVar(&valAlgorithm, "algorithm", "", "Run only this algorithm")
	validateCmd.Flags().StringVar(&valDataset, "dataset", "", "Dataset path for data-fitted problems")
	validateCmd.Flags().BoolVar(&valVerbose, "verbose", false, "Show issues for passing cases too")
	validateCmd.Flags().BoolVar(&valQuiet, "quiet", false, "Show only the summary")
	validateCmd.Flags().StringVar(&valBridgeCmd, "bridge-cmd", "", "Candidate command line (overrides BRIDGE_COMMAND/BRIDGE_ARGS)")
	validateCmd.Flags().StringVar(&valBridgeDir, "bridge-dir", "", "Candidate working directory")
	validateCmd.Flags().DurationVar(&valBridgeTimeout, "bridge-timeout", 0, "Per-invocation wall-clock limit")

	rootCmd.AddCommand(validateCmd)
}

func runValidation(cmd *cobra.Command, args []string) error {
	bcfg := bridge.Config{
		Command: cfg.Bridge.Command,
		Args:    cfg.Bridge.Args,
		Dir:     cfg.Bridge.Dir,
		Timeout: cfg.Bridge.Timeout,
	}
	if valBridgeCmd != "" {
		fields := strings.Fields(valBridgeCmd)
		bcfg.Command = fields[0]
		bcfg.Args = fields[1:]
	}
	if valBridgeDir != "" {
		bcfg.Dir = valBridgeDir
	}
	if valBridgeTimeout > 0 {
		bcfg.Timeout = valBridgeTimeout
	}

	dataset := valDataset
	if dataset == "" {
		dataset = cfg.Validation.DatasetPath
	}

	r := runner.New(runner.Options{
		Bridge:      bridge.New(bcfg, logger),
		Logger:      logger,
		DatasetPath: dataset,
		Out:         cmd.OutOrStdout(),
		Verbose:     valVerbose,
		Quiet:       valQuiet,
	})

	cases := runner.Filter(runner.DefaultMatrix(cfg.Validation.Lambda), valProblem, valAlgorithm)
	if len(cases) == 0 {
		return fmt.Errorf("no test cases match the filter criteria")
	}

	summary, _ := r.RunAll(cmd.Context(), cases)
	if summary.AnyFailed() {
		return fmt.Errorf("validation failed: %s", summary)
	}
	return nil
}

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/texopt-project/texopt/internal/config"
	"github.com/texopt-project/texopt/internal/output"
	"github.com/texopt-project/texopt/internal/pipeline"
	"github.com/texopt-project/texopt/internal/verify"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <input-dir> <output-dir>",
	Short: "Process and check every output against its prediction",
	Long: `Run a full analyze and process pass, then independently re-parse every
output header and compare it against what the analysis predicted.

A run is correct when zero mismatches remain. The exit code is non-zero
otherwise.

Examples:
  texopt verify ./Data ./out
  texopt verify ./Data ./out --mode normal`,
	Args: cobra.ExactArgs(2),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	printer := newPrinter()

	if dryRun {
		return &output.CLIError{
			Summary:    "verify cannot run with --dry-run",
			Detail:     "verification needs real encoder output to compare against",
			Suggestion: "Use 'texopt analyze' to preview the plan instead",
			ExitCode:   output.ExitUsageError,
		}
	}

	opt := pipeline.New(cfg, logger, false)

	results, _, err := opt.Analyze(context.Background(), args[0], progressFunc("analyzing"))
	if err != nil {
		return &output.CLIError{
			Summary:  fmt.Sprintf("analysis failed: %s", args[0]),
			Detail:   err.Error(),
			ExitCode: output.ExitGeneral,
		}
	}

	if _, err := opt.Process(context.Background(), args[0], args[1], progressFunc("processing")); err != nil {
		return err
	}

	copyPassthrough := cfg.Regular.CopyPassthrough
	if cfg.Mode == config.ModeNormal {
		copyPassthrough = cfg.Normal.CopyPassthrough
	}
	summary := verify.Outputs(results, args[1], copyPassthrough)

	printer.Header("Verification")
	printer.Info("Checked:  %d", summary.Checked)
	printer.Info("Verified: %d", summary.Verified)
	printer.Info("Skipped:  %d", summary.Skipped)

	if !summary.OK() {
		table := output.NewTable([]string{"FILE", "KIND", "PREDICTED", "ACTUAL"})
		for _, m := range summary.Mismatches {
			table.AddRow([]string{m.File, string(m.Kind), m.Predicted, m.Actual})
		}
		table.Render()
		return &output.CLIError{
			Summary:    fmt.Sprintf("%d predictions not met", len(summary.Mismatches)),
			Suggestion: "Re-run with --verbose to see per-file encoder output",
			ExitCode:   output.ExitVerifyFailed,
		}
	}

	printer.Success("All %d predictions verified", summary.Verified)
	printer.PrintHints("verify")
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/texopt-project/texopt/internal/output"
	"github.com/texopt-project/texopt/internal/pipeline"
	"github.com/texopt-project/texopt/internal/scanner"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <input-dir>",
	Short: "Plan the optimization without touching any file",
	Long: `Analyze every texture under the input directory and print the resulting
plan: target format, target dimensions, and projected size per file.

Nothing is written except the optional JSON report.

Examples:
  texopt analyze ./Data                     # Plan with current settings
  texopt analyze ./Data --report plan.json  # Also export the plan as JSON
  texopt analyze ./Data --files             # Show the per-file plan table
  texopt analyze ./Data --mode normal       # Plan as a normal-map run`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().String("report", "", "write the analysis plan as JSON to this file")
	analyzeCmd.Flags().Bool("files", false, "show the per-file plan table")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	opt := pipeline.New(cfg, logger, dryRun)

	started := time.Now()
	results, stats, err := opt.Analyze(context.Background(), args[0], progressFunc("analyzing"))
	if err != nil {
		return &output.CLIError{
			Summary:  fmt.Sprintf("analysis failed: %s", args[0]),
			Detail:   err.Error(),
			ExitCode: output.ExitGeneral,
		}
	}

	report := opt.BuildAnalysisReport(results)

	showFiles, _ := cmd.Flags().GetBool("files")
	if showFiles {
		printPlanTable(printer, results)
	} else {
		printAnalysisFailures(printer, results)
	}
	printScanStats(printer, stats)
	printAnalysisSummary(printer, report, time.Since(started))

	if reportFile, _ := cmd.Flags().GetString("report"); reportFile != "" {
		if err := report.WriteJSON(reportFile); err != nil {
			return &output.CLIError{
				Summary:  "failed writing report",
				Detail:   err.Error(),
				ExitCode: output.ExitGeneral,
			}
		}
		printer.Success("Report written to %s", reportFile)
	}

	printer.PrintHints("analyze")
	return nil
}

// printPlanTable renders one row per analyzed file.
func printPlanTable(printer *output.Printer, results []pipeline.AnalysisResult) {
	if printer.IsQuiet() {
		return
	}
	printer.Header("Plan")
	table := output.NewTable([]string{"FILE", "FORMAT", "SIZE", "TARGET", "NEW SIZE", "ACTION"})
	for _, r := range results {
		if !r.OK() {
			table.AddRow([]string{r.RelativePath, "-", "-", "-", "-",
				printer.StatusBadge("failed") + " " + r.Error})
			continue
		}
		action := "encode"
		switch {
		case r.Passthrough && r.Rename:
			action = "passthrough (rename)"
		case r.Passthrough:
			action = "passthrough"
		case r.WillResize():
			action = "encode + resize"
		}
		table.AddRow([]string{
			r.RelativePath,
			string(r.Format),
			fmt.Sprintf("%dx%d", r.Width, r.Height),
			string(r.TargetFormat),
			fmt.Sprintf("%dx%d", r.NewWidth, r.NewHeight),
			action,
		})
	}
	table.Render()
}

// printScanStats summarizes the discovery filters.
func printScanStats(printer *output.Printer, stats scanner.Stats) {
	rejected := stats.TGADuplicates + stats.Whitelist + stats.Blacklist + stats.Suffix
	if rejected == 0 {
		return
	}
	printer.Info("Discovery: %d candidates, %d filtered (tga duplicates %d, whitelist %d, blacklist %d, suffix %d)",
		stats.Found, rejected, stats.TGADuplicates, stats.Whitelist, stats.Blacklist, stats.Suffix)
}

// printAnalysisSummary renders the aggregate plan numbers.
func printAnalysisSummary(printer *output.Printer, report pipeline.AnalysisReport, elapsed time.Duration) {
	printer.Header("Analysis Summary")
	printer.Info("Files analyzed:  %d", report.TotalFiles)
	if report.Failed > 0 {
		printer.Warning("Failed:          %d", report.Failed)
	}
	printer.Info("Passthrough:     %d", report.Passthrough)
	printer.Info("Current size:    %s", pipeline.FormatSize(report.CurrentSize))
	printer.Info("Projected size:  %s", pipeline.FormatSize(report.ProjectedSize))
	if saved := report.CurrentSize - report.ProjectedSize; saved > 0 && report.CurrentSize > 0 {
		printer.Info("Projected save:  %s (%.1f%%)",
			pipeline.FormatSize(saved),
			float64(saved)/float64(report.CurrentSize)*100)
	}
	printer.Info("Elapsed:         %s", pipeline.FormatDuration(elapsed))
}

// printAnalysisFailures lists files the analyze phase could not handle.
func printAnalysisFailures(printer *output.Printer, results []pipeline.AnalysisResult) {
	for _, r := range results {
		if !r.OK() {
			printer.Warning("%s: %s", r.RelativePath, r.Error)
		}
	}
}

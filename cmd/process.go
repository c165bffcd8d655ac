package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/texopt-project/texopt/internal/config"
	"github.com/texopt-project/texopt/internal/encoder"
	"github.com/texopt-project/texopt/internal/output"
	"github.com/texopt-project/texopt/internal/pipeline"
)

var processCmd = &cobra.Command{
	Use:   "process <input-dir> <output-dir>",
	Short: "Analyze and re-encode textures into the output directory",
	Long: `Analyze every texture under the input directory and re-encode each one
into the output directory through the external encoder. Passthrough files
are copied or skipped depending on the copy_passthrough settings.

With --dry-run the encoder commands are echoed instead of executed.

Examples:
  texopt process ./Data ./out               # Full run with current settings
  texopt process ./Data ./out --jobs 8      # Cap the worker pool at 8
  texopt process ./Data ./out --dry-run     # Show encoder invocations only
  texopt process ./Data ./out --report run.json`,
	Args: cobra.ExactArgs(2),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().String("report", "", "write the analysis plan as JSON to this file")
}

func runProcess(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	opt := pipeline.New(cfg, logger, dryRun)

	started := time.Now()
	results, _, err := opt.Analyze(context.Background(), args[0], progressFunc("analyzing"))
	if err != nil {
		return &output.CLIError{
			Summary:  fmt.Sprintf("analysis failed: %s", args[0]),
			Detail:   err.Error(),
			ExitCode: output.ExitGeneral,
		}
	}
	printAnalysisFailures(printer, results)

	if reportFile, _ := cmd.Flags().GetString("report"); reportFile != "" {
		if err := opt.BuildAnalysisReport(results).WriteJSON(reportFile); err != nil {
			return &output.CLIError{
				Summary:  "failed writing report",
				Detail:   err.Error(),
				ExitCode: output.ExitGeneral,
			}
		}
	}

	if dryRun {
		printEncoderCommands(printer, results, args[0], args[1])
		printAnalysisSummary(printer, opt.BuildAnalysisReport(results), time.Since(started))
		printer.Info("Dry run: no files were written to %s", args[1])
		return nil
	}

	processed, err := opt.Process(context.Background(), args[0], args[1], progressFunc("processing"))
	if err != nil {
		var cfgErr *pipeline.ConfigurationError
		if errors.As(err, &cfgErr) {
			return &output.CLIError{
				Summary:    "processing refused",
				Detail:     cfgErr.Error(),
				Suggestion: "Run 'texopt analyze <dir>' again with the current settings",
				ExitCode:   output.ExitConfigError,
			}
		}
		return err
	}

	summary := summarizeProcessing(processed)
	printProcessingSummary(printer, summary, time.Since(started))

	if summary.failed > 0 {
		exitCode := output.ExitEncoderError
		if summary.timeouts > 0 {
			exitCode = output.ExitTimeout
		}
		return &output.CLIError{
			Summary:    fmt.Sprintf("%d of %d files failed", summary.failed, len(processed)),
			Suggestion: "Re-run with --verbose for the encoder output of each failure",
			ExitCode:   exitCode,
		}
	}

	printer.Success("Processed %d files into %s", len(processed), args[1])
	printer.PrintHints("process")
	return nil
}

// printEncoderCommands echoes the command line each non-passthrough unit
// would run.
func printEncoderCommands(printer *output.Printer, results []pipeline.AnalysisResult, srcRoot, dstRoot string) {
	client := encoder.NewClient(cfg, logger, true)
	normalMap := cfg.Mode == config.ModeNormal

	for _, r := range results {
		if !r.OK() || r.Passthrough {
			continue
		}
		rel := filepath.FromSlash(r.RelativePath)
		job := encoder.Job{
			Input:       filepath.Join(srcRoot, rel),
			OutputDir:   filepath.Join(dstRoot, filepath.Dir(rel)),
			Target:      r.TargetFormat,
			SkipMipmaps: r.SkipMipmaps,
			NormalMap:   normalMap,
		}
		if r.WillResize() {
			job.Width, job.Height = r.NewWidth, r.NewHeight
		}
		printer.Print("%s %s", cfg.Encoder.Binary, strings.Join(client.Args(job), " "))
	}
}

// processingSummary aggregates per-file processing outcomes.
type processingSummary struct {
	encoded    int
	skipped    int
	failed     int
	timeouts   int
	inputSize  int64
	outputSize int64
	failures   []pipeline.ProcessingResult
}

func summarizeProcessing(results []pipeline.ProcessingResult) processingSummary {
	var s processingSummary
	for _, r := range results {
		switch {
		case !r.Success:
			s.failed++
			if isTimeout(r.Error) {
				s.timeouts++
			}
			s.failures = append(s.failures, r)
		case r.Skipped:
			s.skipped++
		default:
			s.encoded++
			s.inputSize += r.InputSize
			s.outputSize += r.OutputSize
		}
	}
	return s
}

// isTimeout matches the failure detail the encoder attaches on deadline
// (see encoder.Failure.Error).
func isTimeout(detail string) bool {
	return strings.Contains(detail, "timed out")
}

func printProcessingSummary(printer *output.Printer, s processingSummary, elapsed time.Duration) {
	printer.Header("Processing Summary")
	printer.Info("Encoded:      %d", s.encoded)
	printer.Info("Passthrough:  %d", s.skipped)
	if s.failed > 0 {
		printer.Warning("Failed:       %d", s.failed)
		for _, r := range s.failures {
			printer.Warning("  %s: %s", r.RelativePath, r.Error)
		}
	}
	if s.inputSize > 0 {
		printer.Info("Input size:   %s", pipeline.FormatSize(s.inputSize))
		printer.Info("Output size:  %s", pipeline.FormatSize(s.outputSize))
		if saved := s.inputSize - s.outputSize; saved > 0 {
			printer.Info("Saved:        %s (%.1f%%)",
				pipeline.FormatSize(saved),
				float64(saved)/float64(s.inputSize)*100)
		}
	}
	printer.Info("Elapsed:      %s", pipeline.FormatDuration(elapsed))
}

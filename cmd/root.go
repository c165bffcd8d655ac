// Package cmd contains all CLI commands for texopt
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/texopt-project/texopt/internal/config"
	"github.com/texopt-project/texopt/internal/output"
)

var (
	cfgFile  string
	verbose  bool
	quiet    bool
	dryRun   bool
	modeFlag string
	jobsFlag int
	cfg      *config.Settings
	logger   *slog.Logger
	version  = "dev"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "texopt",
	Short: "Batch analyzer and re-encoder for game texture archives",
	Long: `texopt analyzes directories of DDS and TGA textures and re-encodes
them through an external encoder, picking a target format and resolution
per file from its header, its filename role, and its actual alpha usage.

Example usage:
  texopt scan ./Data                  # Show which files would be processed
  texopt analyze ./Data               # Plan without touching anything
  texopt process ./Data ./out         # Analyze and re-encode into ./out
  texopt verify ./Data ./out          # Re-encode and check every prediction
  texopt config                       # Show effective settings`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string for the CLI
func SetVersion(v string) {
	version = v
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .texopt.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "plan only, never invoke the encoder")
	rootCmd.PersistentFlags().StringVar(&modeFlag, "mode", "", "optimization mode (normal|regular)")
	rootCmd.PersistentFlags().IntVar(&jobsFlag, "jobs", 0, "worker count (0 = CPU count - 1)")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("mode", rootCmd.PersistentFlags().Lookup("mode"))
	_ = viper.BindPFlag("parallel.jobs", rootCmd.PersistentFlags().Lookup("jobs"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() error {
	var err error

	// Setup logger
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	// Load configuration
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return &output.CLIError{
			Summary:    "failed loading configuration",
			Detail:     err.Error(),
			Suggestion: "Check .texopt.yaml syntax or use --config flag",
			ExitCode:   output.ExitConfigError,
		}
	}

	// Flag overrides
	if modeFlag != "" {
		cfg.Mode = modeFlag
	}
	if jobsFlag > 0 {
		cfg.Parallel.Jobs = jobsFlag
	}
	if err := config.Validate(cfg); err != nil {
		return &output.CLIError{
			Summary:    "invalid configuration",
			Detail:     err.Error(),
			ExitCode:   output.ExitConfigError,
			Suggestion: "Run 'texopt config' to see the active settings",
		}
	}

	// Update logger based on config
	if cfg.Logging.Level == "debug" || verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}

	logger.Debug("configuration loaded",
		"mode", cfg.Mode,
		"encoder", cfg.Encoder.Binary,
		"fingerprint", cfg.Fingerprint(),
	)

	return nil
}

// newPrinter builds a Printer from the loaded settings plus the global
// quiet flag.
func newPrinter() *output.Printer {
	return output.NewPrinterWithOptions(output.PrinterOptions{
		ColorMode:    output.ColorAuto,
		ConfigColors: cfg != nil && cfg.Output.Colors,
		Quiet:        quiet,
	})
}

// progressFunc returns a per-unit progress callback, or nil when progress
// output is disabled. The callback overwrites a single status line; callers
// must print a newline when the phase finishes.
func progressFunc(label string) func(done, total int, rel string) {
	if quiet || cfg == nil || !cfg.Output.Progress {
		return nil
	}
	return func(done, total int, rel string) {
		fmt.Fprintf(os.Stderr, "\r%s %d/%d %-60.60s", label, done, total, rel)
		if done == total {
			fmt.Fprintln(os.Stderr)
		}
	}
}

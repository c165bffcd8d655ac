package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/texopt-project/texopt/internal/config"
	"github.com/texopt-project/texopt/internal/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Long: `Display the effective texopt settings after merging defaults, the
config file, environment variables, and flags.

Examples:
  texopt config                # Show all result-affecting settings
  texopt config --path         # Show config file path
  texopt config --json         # Output as JSON
  texopt config export out.cfg # Write the flat key=value serialization`,
	RunE: runConfig,
}

var configExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write the flat key=value settings serialization",
	Long: `Write every result-affecting setting as sorted key=value lines. The
sha256 of this serialization is the fingerprint that links an analyze run
to the process phase.`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigExport,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configExportCmd)

	configCmd.Flags().Bool("path", false, "show config file path")
	configCmd.Flags().Bool("json", false, "output as JSON")
}

func runConfig(cmd *cobra.Command, args []string) error {
	printer := newPrinter()

	showPath, _ := cmd.Flags().GetBool("path")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if showPath {
		configFile := config.FileUsed()
		if configFile == "" {
			printer.Info("No config file found (using defaults)")
		} else {
			printer.Info("Config file: %s", configFile)
		}
		return nil
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	}

	// Print configuration as table
	printer.Header("Current Configuration")

	table := output.NewTable([]string{"KEY", "VALUE"})
	for _, kv := range cfg.Export() {
		key, value, _ := strings.Cut(kv, "=")
		table.AddRow([]string{key, value})
	}
	table.Render()

	fmt.Println()
	printer.Info("Settings fingerprint: %s", cfg.Fingerprint())
	printer.PrintHints("config")
	return nil
}

func runConfigExport(cmd *cobra.Command, args []string) error {
	printer := newPrinter()

	data := strings.Join(cfg.Export(), "\n") + "\n"
	if err := os.WriteFile(args[0], []byte(data), 0o644); err != nil {
		return &output.CLIError{
			Summary:  fmt.Sprintf("failed writing %s", args[0]),
			Detail:   err.Error(),
			ExitCode: output.ExitGeneral,
		}
	}

	printer.Success("Settings written to %s (fingerprint %s)", args[0], cfg.Fingerprint())
	return nil
}

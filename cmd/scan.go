package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/texopt-project/texopt/internal/output"
	"github.com/texopt-project/texopt/internal/scanner"
)

var scanCmd = &cobra.Command{
	Use:   "scan <input-dir>",
	Short: "Show which files an optimization run would cover",
	Long: `Walk the input directory with the current filter settings and list the
files a run would process, plus why the rest were dropped.

Examples:
  texopt scan ./Data
  texopt scan ./Data --mode normal   # Only _n/_nh normal maps
  texopt scan ./Data -q              # Statistics only via exit code`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().Bool("stats-only", false, "suppress the file list, print statistics only")
}

func runScan(cmd *cobra.Command, args []string) error {
	printer := newPrinter()

	files, stats, err := scanner.Find(args[0], cfg)
	if err != nil {
		return &output.CLIError{
			Summary:  fmt.Sprintf("scan failed: %s", args[0]),
			Detail:   err.Error(),
			ExitCode: output.ExitGeneral,
		}
	}

	statsOnly, _ := cmd.Flags().GetBool("stats-only")
	if !statsOnly {
		for _, f := range files {
			printer.Print("%s", f)
		}
	}

	printer.Header("Scan Statistics")
	table := output.NewTable([]string{"FILTER", "COUNT"})
	table.AddRow([]string{"candidates found", fmt.Sprintf("%d", stats.Found)})
	table.AddRow([]string{"superseded by TGA source", fmt.Sprintf("%d", stats.TGADuplicates)})
	table.AddRow([]string{"rejected by whitelist", fmt.Sprintf("%d", stats.Whitelist)})
	table.AddRow([]string{"rejected by blacklist", fmt.Sprintf("%d", stats.Blacklist)})
	table.AddRow([]string{"rejected by suffix filter", fmt.Sprintf("%d", stats.Suffix)})
	table.AddRow([]string{"accepted", fmt.Sprintf("%d", stats.Accepted)})
	table.Render()

	printer.PrintHints("scan")
	return nil
}

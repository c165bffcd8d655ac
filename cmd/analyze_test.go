package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/texopt-project/texopt/internal/pipeline"
)

func TestAnalyze_Report(t *testing.T) {
	setupRootTest(t)
	root := fixtureTree(t)
	reportFile := filepath.Join(t.TempDir(), "plan.json")

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"analyze", root, "--report", reportFile})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	analyzeCmd.Flags().Set("report", "")

	data, err := os.ReadFile(reportFile)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}

	var report pipeline.AnalysisReport
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("decoding report: %v", err)
	}

	// icons/ is blacklisted and meshes/ fails the whitelist, leaving the
	// two textures/ files.
	if report.TotalFiles != 2 {
		t.Errorf("TotalFiles = %d, want 2", report.TotalFiles)
	}
	if report.Failed != 0 {
		t.Errorf("Failed = %d, want 0", report.Failed)
	}
	if report.RunID == "" {
		t.Error("expected a run ID in the report")
	}
	if report.Fingerprint == "" {
		t.Error("expected a settings fingerprint in the report")
	}

	// Opaque BC1 sources with full mip chains stay untouched.
	for _, r := range report.Results {
		if !r.Passthrough {
			t.Errorf("%s: expected passthrough, got target %s", r.RelativePath, r.TargetFormat)
		}
	}
}

func TestAnalyze_MissingDir(t *testing.T) {
	setupRootTest(t)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"analyze", filepath.Join(t.TempDir(), "gone")})

	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected error for missing directory, got nil")
	}
}

func TestProcess_DryRun(t *testing.T) {
	setupRootTest(t)
	root := fixtureTree(t)
	out := filepath.Join(t.TempDir(), "out")

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"process", root, out, "--dry-run"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("process --dry-run failed: %v", err)
	}
	dryRun = false

	// Nothing may be written during a dry run.
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("expected no output directory after dry run, stat err = %v", err)
	}
}

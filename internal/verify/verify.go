// Package verify is the correctness harness: after a process run it
// re-parses every output header independently and compares it against
// what the analysis predicted. Zero mismatches is the acceptance bar.
package verify

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/texopt-project/texopt/internal/pipeline"
	"github.com/texopt-project/texopt/internal/plan"
	"github.com/texopt-project/texopt/internal/texture"
)

// Kind classifies a verification mismatch.
type Kind string

const (
	KindMissing   Kind = "MISSING"
	KindReadError Kind = "READ_ERROR"
	KindFormat    Kind = "FORMAT_MISMATCH"
	KindSize      Kind = "SIZE_MISMATCH"
)

// Mismatch is one prediction the output failed to meet.
type Mismatch struct {
	File      string `json:"file"`
	Kind      Kind   `json:"kind"`
	Predicted string `json:"predicted,omitempty"`
	Actual    string `json:"actual,omitempty"`
}

func (m Mismatch) String() string {
	if m.Predicted == "" {
		return fmt.Sprintf("%s: %s", m.File, m.Kind)
	}
	return fmt.Sprintf("%s: %s (predicted %s, actual %s)", m.File, m.Kind, m.Predicted, m.Actual)
}

// Summary is the outcome of a verification pass.
type Summary struct {
	Checked    int        `json:"checked"`
	Verified   int        `json:"verified"`
	Skipped    int        `json:"skipped"` // passthrough units with no expected output
	Mismatches []Mismatch `json:"mismatches,omitempty"`
}

// OK reports whether every checked output matched its prediction.
func (s Summary) OK() bool { return len(s.Mismatches) == 0 }

// Outputs compares analysis predictions against the files under
// outputDir. Passthrough units are only checked when their file was
// copied; with copying disabled they are counted as skipped.
func Outputs(analyses []pipeline.AnalysisResult, outputDir string, copyPassthrough bool) Summary {
	var s Summary

	for _, a := range analyses {
		if !a.OK() {
			continue
		}
		if a.Passthrough && !copyPassthrough {
			s.Skipped++
			continue
		}
		s.Checked++

		path := outputPath(outputDir, a)
		info := texture.ParseFile(path)

		if _, err := os.Stat(path); err != nil {
			s.Mismatches = append(s.Mismatches, Mismatch{File: a.RelativePath, Kind: KindMissing})
			continue
		}
		if !info.Valid() {
			s.Mismatches = append(s.Mismatches, Mismatch{File: a.RelativePath, Kind: KindReadError})
			continue
		}

		if info.Format != a.TargetFormat {
			s.Mismatches = append(s.Mismatches, Mismatch{
				File:      a.RelativePath,
				Kind:      KindFormat,
				Predicted: string(a.TargetFormat),
				Actual:    string(info.Format),
			})
			continue
		}

		if info.Width != a.NewWidth || info.Height != a.NewHeight {
			s.Mismatches = append(s.Mismatches, Mismatch{
				File:      a.RelativePath,
				Kind:      KindSize,
				Predicted: fmt.Sprintf("%dx%d", a.NewWidth, a.NewHeight),
				Actual:    fmt.Sprintf("%dx%d", info.Width, info.Height),
			})
			continue
		}

		s.Verified++
	}
	return s
}

// outputPath resolves where a unit's output must live: TGA inputs gain a
// .dds extension, renamed height maps lose the _nh suffix.
func outputPath(outputDir string, a pipeline.AnalysisResult) string {
	rel := a.RelativePath
	if strings.EqualFold(filepath.Ext(rel), ".tga") {
		rel = rel[:len(rel)-len(filepath.Ext(rel))] + ".dds"
	}
	if a.Rename {
		rel = plan.RenameHeightToNormal(rel)
	}
	return filepath.Join(outputDir, filepath.FromSlash(rel))
}

// Package pipeline orchestrates optimization runs: parallel analysis over
// discovered textures, the analysis cache that links analyze to process,
// and the processing phase that drives the external encoder.
package pipeline

import (
	"github.com/texopt-project/texopt/internal/plan"
	"github.com/texopt-project/texopt/internal/texture"
)

// AnalysisResult is the per-file outcome of the analyze phase. A set
// error marks the file failed; every other field is then meaningless.
type AnalysisResult struct {
	RelativePath  string         `json:"relative_path"`
	FileSize      int64          `json:"file_size"`
	Width         int            `json:"width,omitempty"`
	Height        int            `json:"height,omitempty"`
	Format        texture.Format `json:"format,omitempty"`
	MipCount      int            `json:"mip_count,omitempty"`
	Role          plan.Role      `json:"-"`
	NewWidth      int            `json:"new_width,omitempty"`
	NewHeight     int            `json:"new_height,omitempty"`
	TargetFormat  texture.Format `json:"target_format,omitempty"`
	Passthrough   bool           `json:"passthrough,omitempty"`
	Rename        bool           `json:"rename,omitempty"`
	SkipMipmaps   bool           `json:"skip_mipmaps,omitempty"`
	HasAlpha      bool           `json:"has_alpha,omitempty"`
	AlphaUnused   bool           `json:"alpha_unused,omitempty"`
	PunchThrough  bool           `json:"punch_through,omitempty"`
	ProjectedSize int64          `json:"projected_size,omitempty"`
	Warnings      []string       `json:"warnings,omitempty"`
	Error         string         `json:"error,omitempty"`
}

// OK reports whether analysis succeeded for this file.
func (r AnalysisResult) OK() bool { return r.Error == "" }

// WillResize reports whether the plan changes dimensions.
func (r AnalysisResult) WillResize() bool {
	return r.NewWidth != r.Width || r.NewHeight != r.Height
}

// ProcessingResult is the per-file outcome of the process phase.
type ProcessingResult struct {
	RelativePath string         `json:"relative_path"`
	Success      bool           `json:"success"`
	Skipped      bool           `json:"skipped,omitempty"` // passthrough without copy
	InputSize    int64          `json:"input_size"`
	OutputSize   int64          `json:"output_size,omitempty"`
	OrigWidth    int            `json:"orig_width,omitempty"`
	OrigHeight   int            `json:"orig_height,omitempty"`
	NewWidth     int            `json:"new_width,omitempty"`
	NewHeight    int            `json:"new_height,omitempty"`
	OrigFormat   texture.Format `json:"orig_format,omitempty"`
	NewFormat    texture.Format `json:"new_format,omitempty"`
	Error        string         `json:"error,omitempty"`
}

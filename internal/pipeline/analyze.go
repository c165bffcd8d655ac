package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"github.com/texopt-project/texopt/internal/alpha"
	"github.com/texopt-project/texopt/internal/config"
	"github.com/texopt-project/texopt/internal/plan"
	"github.com/texopt-project/texopt/internal/scanner"
	"github.com/texopt-project/texopt/internal/texture"
)

// analyzer runs the analyze phase for one source tree. Workers share it
// read-only; all mutable aggregates live with the caller.
type analyzer struct {
	cfg    *config.Settings
	engine *plan.Engine
	alpha  alpha.Strategy
	root   string
}

func (a *analyzer) analyzeOne(_ context.Context, rel string) AnalysisResult {
	full := filepath.Join(a.root, filepath.FromSlash(rel))
	result := AnalysisResult{RelativePath: rel}

	fi, err := os.Stat(full)
	if err != nil {
		result.Error = "could not stat file: " + err.Error()
		return result
	}
	result.FileSize = fi.Size()

	info := texture.ParseFile(full)
	if !info.Valid() {
		result.Error = "could not parse header (" + info.WireName + ")"
		return result
	}

	result.Width = info.Width
	result.Height = info.Height
	result.Format = info.Format
	result.MipCount = info.MipCount

	role := plan.RoleRegular
	if a.cfg.Mode == config.ModeNormal {
		role = plan.RoleForPath(rel)
	}
	result.Role = role

	in := plan.Input{
		Path:     rel,
		Info:     info,
		FileSize: fi.Size(),
		Role:     role,
		IsAtlas:  plan.IsAtlas(rel),
	}

	if role == plan.RoleRegular {
		in.SkipMipmaps = scanner.MatchesPattern(rel, a.cfg.Regular.NoMipmapPaths)
		in.HasAlpha = info.Format.HasAlphaChannel()

		if a.cfg.Regular.OptimizeAlpha {
			switch {
			case info.Format == texture.FormatBC1:
				if a.alpha.PunchThrough(full) {
					in.PunchThrough = true
					in.HasAlpha = true
				}
			case in.HasAlpha:
				if !a.alpha.MeaningfulAlpha(full, info.Format) {
					in.HasAlpha = false
					in.AlphaUnused = true
				}
			}
		}
	}

	decision, err := a.engine.Decide(in)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Role = decision.Role
	result.NewWidth = decision.NewWidth
	result.NewHeight = decision.NewHeight
	result.TargetFormat = decision.TargetFormat
	result.Passthrough = decision.Passthrough
	result.Rename = decision.Rename
	result.SkipMipmaps = in.SkipMipmaps
	result.HasAlpha = in.HasAlpha
	result.AlphaUnused = in.AlphaUnused
	result.PunchThrough = in.PunchThrough
	result.ProjectedSize = decision.ProjectedSize
	result.Warnings = decision.Warnings
	return result
}

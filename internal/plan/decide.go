package plan

import (
	"fmt"

	"github.com/texopt-project/texopt/internal/config"
	"github.com/texopt-project/texopt/internal/texture"
)

// Input is everything the decision engine needs about one texture. The
// alpha fields carry the content-verified signal; the caller resolves them
// through the alpha scanner before deciding.
type Input struct {
	Path     string
	Info     texture.Info
	FileSize int64
	Role     Role
	IsAtlas  bool

	// HasAlpha is the final alpha signal after optional content
	// verification.
	HasAlpha bool
	// AlphaUnused marks a format-declared alpha channel found fully
	// opaque by the content scan.
	AlphaUnused bool
	// PunchThrough marks a BC1 source using 1-bit transparency.
	PunchThrough bool
	// SkipMipmaps marks files on a no-mipmap path.
	SkipMipmaps bool
}

// Decision is the engine's verdict for one texture.
type Decision struct {
	// Role after possible mislabel reclassification.
	Role         Role
	TargetFormat texture.Format
	NewWidth     int
	NewHeight    int
	// Passthrough means the source already satisfies the target; no
	// encoder run is needed.
	Passthrough bool
	// Rename asks for the _nh -> _n output rename.
	Rename        bool
	ProjectedSize int64
	Warnings      []string
}

// WillResize reports whether the planned dimensions differ from the source.
func (d Decision) WillResize(info texture.Info) bool {
	return d.NewWidth != info.Width || d.NewHeight != info.Height
}

// Engine is the format decision engine. It is pure: same input and
// settings, same decision.
type Engine struct {
	cfg *config.Settings
}

// NewEngine returns an Engine over the given settings.
func NewEngine(cfg *config.Settings) *Engine {
	return &Engine{cfg: cfg}
}

// Decide runs the decision rules for one texture. Only a DimensionError
// can fail it; every format question has a defined answer.
func (e *Engine) Decide(in Input) (Decision, error) {
	if in.Role == RoleRegular {
		return e.decideRegular(in)
	}
	return e.decideNormalMap(in)
}

// normalMapCompressed lists the compressed formats the normal-map rules
// recognize as reusable sources.
func normalMapCompressed(f texture.Format) bool {
	return f == texture.FormatBC5 || f == texture.FormatBC3 || f == texture.FormatBC1
}

func (e *Engine) decideNormalMap(in Input) (Decision, error) {
	cfg := e.cfg
	w, h, err := Dimensions(in.Info.Width, in.Info.Height, cfg, in.IsAtlas)
	if err != nil {
		return Decision{}, err
	}

	current := in.Info.Format
	willResize := w != in.Info.Width || h != in.Info.Height
	role := in.Role
	d := Decision{Role: role, NewWidth: w, NewHeight: h}

	profile := ProfileFor(role, cfg)
	target := profile.DefaultFormat

	// Mislabel auto-fix: a _nh texture stored without alpha has no height
	// data, treat it as a plain normal map.
	if role == RoleHeight && cfg.Normal.AutoFixMislabel {
		if current == texture.FormatBGR || current == texture.FormatBC5 || current == texture.FormatBC1 {
			role = RoleNormal
			profile = ProfileFor(role, cfg)
			target = profile.DefaultFormat
			d.Role = RoleNormal
			d.Warnings = append(d.Warnings,
				fmt.Sprintf("_nh-labeled texture stored as %s (no alpha), treated as plain normal map", current))
		}
	}

	// Preserve role-appropriate compressed sources when not resizing.
	preserved := false
	if cfg.Normal.PreserveCompressed && !willResize && normalMapCompressed(current) {
		if role == RoleHeight {
			preserved = current == texture.FormatBC3
		} else {
			preserved = current == texture.FormatBC5 || current == texture.FormatBC1
		}
		if preserved {
			target = current
		}
	}

	// Wasted alpha on roles that carry nothing in the channel.
	if !profile.NeedsAlpha && cfg.Normal.OptimizeAlpha && !preserved {
		switch current {
		case texture.FormatBGRA:
			target = profile.DefaultFormat
			d.Warnings = append(d.Warnings,
				fmt.Sprintf("unused alpha in BGRA normal map, re-encoding as %s", target))
		case texture.FormatBC3:
			target = texture.FormatBC1
			d.Warnings = append(d.Warnings, "unused alpha in BC3 normal map, re-encoding as BC1")
		}
	}

	// Small texture override, uncompressed sources only.
	if cfg.Resize.SmallTextureOverride && !normalMapCompressed(current) {
		minDim := w
		if h < minDim {
			minDim = h
		}
		if t := profile.SmallThreshold; t > 0 && minDim <= t {
			target = profile.UncompressedTarget
		}
	}

	d.TargetFormat = target
	d.ProjectedSize = ProjectedSize(w, h, target, false)

	// Passthrough check runs against the original label: a rename is part
	// of the passthrough itself.
	if cfg.Normal.AllowPassthrough && !willResize && normalMapCompressed(current) {
		can, rename := false, false
		switch {
		case in.Role == RoleHeight && cfg.Normal.AutoFixMislabel:
			if current == texture.FormatBC5 || current == texture.FormatBC1 {
				can, rename = true, true
			} else if current == texture.FormatBC3 {
				can = true
			}
		case in.Role == RoleNormal && cfg.Normal.OptimizeAlpha:
			can = current != texture.FormatBC3
		default:
			can = true
		}
		if can {
			d.Passthrough = true
			d.Rename = rename
			d.ProjectedSize = in.FileSize
			if rename {
				d.Warnings = append(d.Warnings, "already optimized, passthrough with _nh to _n rename")
			} else {
				d.Warnings = append(d.Warnings, "already optimized, passthrough")
			}
		}
	}

	return d, nil
}

// regularCompressed lists the compressed formats the regular rules treat
// as reusable sources.
func regularCompressed(f texture.Format) bool {
	return f == texture.FormatBC1 || f == texture.FormatBC2 || f == texture.FormatBC3
}

func (e *Engine) decideRegular(in Input) (Decision, error) {
	cfg := e.cfg
	current := in.Info.Format

	// A8 is a rare alpha-only specialty format; always pass through.
	if current == texture.FormatA8 {
		return Decision{
			Role:          RoleRegular,
			TargetFormat:  texture.FormatA8,
			NewWidth:      in.Info.Width,
			NewHeight:     in.Info.Height,
			Passthrough:   true,
			ProjectedSize: in.FileSize,
			Warnings:      []string{"alpha-only A8 texture, passthrough"},
		}, nil
	}

	w, h, err := Dimensions(in.Info.Width, in.Info.Height, cfg, in.IsAtlas)
	if err != nil {
		return Decision{}, err
	}

	willResize := w != in.Info.Width || h != in.Info.Height
	d := Decision{Role: RoleRegular, NewWidth: w, NewHeight: h}
	profile := ProfileFor(RoleRegular, cfg).WithAlpha(in.HasAlpha)

	if regularCompressed(current) {
		var target texture.Format
		switch {
		case in.AlphaUnused:
			target = texture.FormatBC1
		case in.PunchThrough:
			// 1-bit alpha survives re-encoding best as BC2.
			target = texture.FormatBC2
		case cfg.Regular.PreserveCompressed:
			target = current
		default:
			target = profile.DefaultFormat
		}

		adequateMips := texture.HasAdequateMips(in.Info.Width, in.Info.Height, in.Info.MipCount)
		if cfg.Regular.AllowPassthrough && !willResize && adequateMips && !in.AlphaUnused {
			d.Passthrough = true
			d.TargetFormat = current
			d.ProjectedSize = in.FileSize
			if in.PunchThrough {
				d.Warnings = append(d.Warnings, "passthrough, DXT1a with valid mipmaps")
			} else {
				d.Warnings = append(d.Warnings, fmt.Sprintf("passthrough, already optimized (%s)", current))
			}
			return d, nil
		}

		d.TargetFormat = target
		switch {
		case in.AlphaUnused:
			d.Warnings = append(d.Warnings, fmt.Sprintf("unused alpha (%s to %s)", current, target))
		case in.PunchThrough:
			d.Warnings = append(d.Warnings, "DXT1a detected, upgrading to BC2 to preserve 1-bit alpha")
		case willResize:
			d.Warnings = append(d.Warnings, fmt.Sprintf("reprocessing %s: resize required", current))
		case target != current:
			d.Warnings = append(d.Warnings, fmt.Sprintf("re-encoding %s as %s", current, target))
		default:
			d.Warnings = append(d.Warnings, fmt.Sprintf("reprocessing %s: mipmap regeneration", current))
		}
	} else {
		minDim := w
		if h < minDim {
			minDim = h
		}
		t := profile.SmallThreshold
		if cfg.Resize.SmallTextureOverride && t > 0 && minDim <= t {
			d.TargetFormat = profile.UncompressedTarget
			d.Warnings = append(d.Warnings,
				fmt.Sprintf("small texture (%dpx), keeping uncompressed as %s", minDim, d.TargetFormat))
		} else {
			d.TargetFormat = profile.DefaultFormat
			if !in.HasAlpha && in.AlphaUnused {
				d.Warnings = append(d.Warnings, fmt.Sprintf("unused alpha (%s to BC1/DXT1)", current))
			}
		}
	}

	if in.SkipMipmaps {
		d.Warnings = append(d.Warnings, "no-mipmap path, mipmaps skipped")
	} else if in.Info.MipCount == 1 && max(in.Info.Width, in.Info.Height) > 4 {
		d.Warnings = append(d.Warnings,
			fmt.Sprintf("missing mipmaps (1 of %d), will regenerate", texture.ExpectedMipCount(in.Info.Width, in.Info.Height)))
	}

	d.ProjectedSize = ProjectedSize(w, h, d.TargetFormat, in.SkipMipmaps)
	return d, nil
}

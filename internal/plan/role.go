package plan

import (
	"strings"

	"github.com/texopt-project/texopt/internal/config"
	"github.com/texopt-project/texopt/internal/texture"
)

// Role classifies a texture for the decision engine.
type Role int

const (
	// RoleRegular is a diffuse texture; alpha decides its target format.
	RoleRegular Role = iota
	// RoleNormal is a normal map without a height channel (*_n).
	RoleNormal
	// RoleHeight is a normal map with a height channel in alpha (*_nh).
	RoleHeight
)

func (r Role) String() string {
	switch r {
	case RoleNormal:
		return "normal"
	case RoleHeight:
		return "height"
	default:
		return "regular"
	}
}

// RoleProfile carries the per-role parameters of the decision engine.
type RoleProfile struct {
	Role               Role
	DefaultFormat      texture.Format
	SmallThreshold     int
	UncompressedTarget texture.Format
	NeedsAlpha         bool
}

// ProfileFor builds the effective profile for a role from the settings.
func ProfileFor(role Role, cfg *config.Settings) RoleProfile {
	switch role {
	case RoleNormal:
		return RoleProfile{
			Role:               RoleNormal,
			DefaultFormat:      texture.Format(cfg.Normal.NFormat),
			SmallThreshold:     cfg.Normal.SmallNThreshold,
			UncompressedTarget: texture.FormatBGR,
			NeedsAlpha:         false,
		}
	case RoleHeight:
		return RoleProfile{
			Role:               RoleHeight,
			DefaultFormat:      texture.Format(cfg.Normal.NHFormat),
			SmallThreshold:     cfg.Normal.SmallNHThreshold,
			UncompressedTarget: texture.FormatBGRA,
			NeedsAlpha:         true,
		}
	default:
		return RoleProfile{
			Role:               RoleRegular,
			DefaultFormat:      texture.FormatBC1,
			SmallThreshold:     cfg.Regular.SmallThreshold,
			UncompressedTarget: texture.FormatBGR,
			NeedsAlpha:         false,
		}
	}
}

// WithAlpha refines a regular profile by the resolved alpha signal:
// textures with meaningful alpha target BC3 and stay BGRA when kept
// uncompressed. Normal-map profiles are fixed by suffix and unchanged.
func (p RoleProfile) WithAlpha(hasAlpha bool) RoleProfile {
	if p.Role != RoleRegular || !hasAlpha {
		return p
	}
	p.DefaultFormat = texture.FormatBC3
	p.UncompressedTarget = texture.FormatBGRA
	p.NeedsAlpha = true
	return p
}

// RoleForPath classifies a file by its name suffix. Only meaningful in
// normal-map mode; regular mode treats every file as RoleRegular.
func RoleForPath(path string) Role {
	stem := strings.ToLower(path)
	if i := strings.LastIndexByte(stem, '.'); i >= 0 {
		stem = stem[:i]
	}
	switch {
	case strings.HasSuffix(stem, "_nh"):
		return RoleHeight
	case strings.HasSuffix(stem, "_n"):
		return RoleNormal
	default:
		return RoleRegular
	}
}

// IsAtlas reports whether the filename marks the texture as an atlas.
func IsAtlas(path string) bool {
	return strings.Contains(strings.ToLower(path), "_atlas")
}

// RenameHeightToNormal rewrites a *_nh.dds output path to *_n.dds. Returns
// the path unchanged when the suffix does not match.
func RenameHeightToNormal(path string) string {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, "_nh.dds") {
		return path[:len(path)-7] + "_n.dds"
	}
	return path
}

// Package plan turns a parsed texture header into a processing decision:
// target dimensions, target format, and whether the file can be passed
// through untouched.
package plan

import (
	"fmt"
	"math"

	"github.com/texopt-project/texopt/internal/config"
)

// DimensionError reports non-positive source dimensions. It is a per-file
// error: the batch continues, the file fails.
type DimensionError struct {
	Width  int
	Height int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("invalid source dimensions %dx%d", e.Width, e.Height)
}

// Dimensions plans the output size for a texture. The rules apply in a
// fixed order: atlas protection, scale factor, minimum-resolution revert,
// resolution ceiling, power-of-two rounding. The minimum-resolution floor
// only guards against over-shrinking; it never blocks the ceiling.
func Dimensions(origW, origH int, cfg *config.Settings, isAtlas bool) (int, int, error) {
	if origW <= 0 || origH <= 0 {
		return 0, 0, &DimensionError{Width: origW, Height: origH}
	}

	// Atlases are protected unless downscaling is explicitly enabled.
	if isAtlas && !cfg.Atlas.EnableDownscaling {
		return origW, origH, nil
	}

	w, h := origW, origH

	scale := cfg.Resize.ScaleFactor
	if scale != 1.0 {
		w = int(float64(origW) * scale)
		h = int(float64(origH) * scale)
	}

	// Revert over-shrinking below the floor. Only applies when scaling
	// down; upscales and the ceiling are unaffected.
	if scale < 1.0 && cfg.Resize.MinResolution > 0 {
		if w < cfg.Resize.MinResolution || h < cfg.Resize.MinResolution {
			w, h = origW, origH
		}
	}

	ceiling := cfg.Resize.MaxResolution
	if isAtlas {
		ceiling = cfg.Atlas.MaxResolution
	}
	if ceiling > 0 {
		larger := w
		if h > larger {
			larger = h
		}
		if larger > ceiling {
			ratio := float64(ceiling) / float64(larger)
			w = int(float64(w) * ratio)
			h = int(float64(h) * ratio)
		}
	}

	if cfg.Resize.EnforcePowerOfTwo {
		w = floorPowerOfTwo(w)
		h = floorPowerOfTwo(h)
	}

	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h, nil
}

// floorPowerOfTwo rounds n down to the nearest power of two.
func floorPowerOfTwo(n int) int {
	if n < 1 {
		return 1
	}
	return 1 << uint(math.Floor(math.Log2(float64(n))))
}

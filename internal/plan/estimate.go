package plan

import "github.com/texopt-project/texopt/internal/texture"

// mipOverheadFactor approximates the size of a full mip chain relative to
// the base level (1 + 1/4 + 1/16 + ... -> 4/3).
const mipOverheadFactor = 1.33

// headerOverheadBytes is the legacy DDS header size counted into every
// projection.
const headerOverheadBytes = 128

// ProjectedSize estimates the output file size in bytes for a texture
// re-encoded to the target format at the given dimensions.
func ProjectedSize(w, h int, target texture.Format, skipMipmaps bool) int64 {
	factor := mipOverheadFactor
	if skipMipmaps {
		factor = 1.0
	}
	pixels := float64(w) * float64(h) * factor
	return int64(pixels*float64(target.BitsPerPixel())/8) + headerOverheadBytes
}

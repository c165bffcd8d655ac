package texture

import "math/bits"

// ExpectedMipCount returns the length of a full mip chain for the given
// base dimensions: floor(log2(max(w, h))) + 1.
func ExpectedMipCount(width, height int) int {
	if width <= 0 || height <= 0 {
		return 1
	}
	maxDim := width
	if height > maxDim {
		maxDim = height
	}
	return bits.Len(uint(maxDim))
}

// HasAdequateMips reports whether a texture carries enough mip levels to be
// considered well formed. Lenient on purpose: anything beyond the base
// level counts, and trivially small textures (max dimension <= 4) are
// exempt entirely.
func HasAdequateMips(width, height, mipCount int) bool {
	maxDim := width
	if height > maxDim {
		maxDim = height
	}
	if maxDim <= 4 {
		return true
	}
	return mipCount >= 2
}

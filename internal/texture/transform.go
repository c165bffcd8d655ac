package texture

import (
	"encoding/binary"
	"fmt"
	"os"
)

// Absolute byte offsets used by the in-place transforms.
const (
	offAbsPitch      = 20
	offAbsMipCount   = 28
	offAbsPFFlags    = 80
	offAbsPFFourCC   = 84
	offAbsPFBitCount = 88
	offAbsPFRMask    = 92
	offAbsPFGMask    = 96
	offAbsPFBMask    = 100
	offAbsPFAMask    = 104
)

// dxgiToLegacyFourCC maps the block-compressed DX10 codes the encoder can
// emit back to legacy FourCC values. Engines that predate the extended
// header reject DX10 files outright, so outputs are rewritten to legacy.
var dxgiToLegacyFourCC = map[uint32]uint32{
	71: fourCCDXT1, // BC1_UNORM
	72: fourCCDXT1, // BC1_UNORM_SRGB
	74: fourCCDXT3, // BC2_UNORM
	75: fourCCDXT3, // BC2_UNORM_SRGB
	77: fourCCDXT5, // BC3_UNORM
	78: fourCCDXT5, // BC3_UNORM_SRGB
}

// StripDX10 removes the 20-byte DX10 extension from a DDS buffer,
// rewriting the pixel-format block to the legacy FourCC equivalent.
// Returns the (possibly unchanged) buffer and a warning for DX10 formats
// that have no legacy representation; such files pass through untouched.
func StripDX10(data []byte) ([]byte, string, error) {
	if len(data) < ddsProbeSize {
		return data, "", nil // too small to carry a DX10 header
	}
	if string(data[0:4]) != ddsMagic {
		return nil, "", fmt.Errorf("not a DDS file")
	}
	if binary.LittleEndian.Uint32(data[offAbsPFFourCC:]) != fourCCDX10 {
		return data, "", nil
	}

	dxgi := binary.LittleEndian.Uint32(data[ddsHeaderSize:])
	legacy, ok := dxgiToLegacyFourCC[dxgi]
	if !ok {
		return data, fmt.Sprintf("unexpected DX10 format %s - file unchanged", dxgiName(dxgi)), nil
	}

	out := make([]byte, 0, len(data)-ddsDX10HeaderSize)
	out = append(out, data[:ddsHeaderSize]...)
	out = append(out, data[ddsProbeSize:]...)

	binary.LittleEndian.PutUint32(out[offAbsPFFlags:], ddpfFourCC)
	binary.LittleEndian.PutUint32(out[offAbsPFFourCC:], legacy)
	// Bit count and channel masks are meaningless for compressed formats.
	binary.LittleEndian.PutUint32(out[offAbsPFBitCount:], 0)
	binary.LittleEndian.PutUint32(out[offAbsPFRMask:], 0)
	binary.LittleEndian.PutUint32(out[offAbsPFGMask:], 0)
	binary.LittleEndian.PutUint32(out[offAbsPFBMask:], 0)
	binary.LittleEndian.PutUint32(out[offAbsPFAMask:], 0)

	return out, "", nil
}

// StripDX10File applies StripDX10 to a file in place.
func StripDX10File(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	out, warning, err := StripDX10(data)
	if err != nil {
		return "", err
	}
	if warning != "" || len(out) == len(data) {
		return warning, nil
	}
	return "", os.WriteFile(path, out, 0o644)
}

// ConvertBGRXToBGR24 repacks a B8G8R8X8 buffer as true 24-bit BGR,
// dropping the padding byte from every pixel across the whole mip chain
// and rewriting the header masks and pitch. The encoder emits 32-bit BGRX
// for the BGR target, so this recovers the final 25% of the size win.
func ConvertBGRXToBGR24(data []byte) ([]byte, error) {
	if len(data) < ddsHeaderSize {
		return nil, fmt.Errorf("file too small to be valid DDS")
	}
	if string(data[0:4]) != ddsMagic {
		return nil, fmt.Errorf("not a DDS file")
	}
	if binary.LittleEndian.Uint32(data[offAbsPFFourCC:]) == fourCCDX10 {
		return nil, fmt.Errorf("DX10 header present - strip it first")
	}

	pfFlags := binary.LittleEndian.Uint32(data[offAbsPFFlags:])
	if pfFlags&ddpfRGB == 0 {
		return nil, fmt.Errorf("not an RGB format")
	}
	if bc := binary.LittleEndian.Uint32(data[offAbsPFBitCount:]); bc != 32 {
		return nil, fmt.Errorf("not 32-bit format (found %d-bit)", bc)
	}
	if binary.LittleEndian.Uint32(data[offAbsPFAMask:]) != 0 {
		return nil, fmt.Errorf("has alpha mask - this is BGRA, not BGRX")
	}

	height := int(binary.LittleEndian.Uint32(data[12:]))
	width := int(binary.LittleEndian.Uint32(data[16:]))
	mipCount := int(binary.LittleEndian.Uint32(data[offAbsMipCount:]))
	if mipCount == 0 {
		mipCount = 1
	}

	header := make([]byte, ddsHeaderSize)
	copy(header, data[:ddsHeaderSize])

	pixels := make([]byte, 0, (len(data)-ddsHeaderSize)/4*3)
	src := ddsHeaderSize
	mipW, mipH := width, height
	for level := 0; level < mipCount; level++ {
		mipSize := mipW * mipH * 4
		if src+mipSize > len(data) {
			return nil, fmt.Errorf("incomplete pixel data at mip %d", level)
		}
		for p := src; p < src+mipSize; p += 4 {
			pixels = append(pixels, data[p], data[p+1], data[p+2])
		}
		src += mipSize
		mipW = max(1, mipW/2)
		mipH = max(1, mipH/2)
	}

	binary.LittleEndian.PutUint32(header[offAbsPFBitCount:], 24)
	binary.LittleEndian.PutUint32(header[offAbsPitch:], uint32(width*3))
	binary.LittleEndian.PutUint32(header[offAbsPFRMask:], 0x00FF0000)
	binary.LittleEndian.PutUint32(header[offAbsPFGMask:], 0x0000FF00)
	binary.LittleEndian.PutUint32(header[offAbsPFBMask:], 0x000000FF)
	binary.LittleEndian.PutUint32(header[offAbsPFAMask:], 0)

	return append(header, pixels...), nil
}

// ConvertBGRXToBGR24File applies ConvertBGRXToBGR24 to a file in place.
// Files that are not BGRX are left untouched.
func ConvertBGRXToBGR24File(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if ParseDDS(data).Format != FormatBGR || binary.LittleEndian.Uint32(data[offAbsPFBitCount:]) != 32 {
		return nil
	}
	out, err := ConvertBGRXToBGR24(data)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

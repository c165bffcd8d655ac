// Package texture provides binary header parsing for DDS and TGA texture
// containers, plus small in-place byte transforms on DDS files.
package texture

import (
	"fmt"
	"strconv"
)

// Format is a canonical texture format name as shown to users and used by
// the decision engine. Wire-level names (e.g. "BC1_UNORM") are normalized
// into these via Normalize.
type Format string

const (
	FormatBC1     Format = "BC1/DXT1"
	FormatBC1a    Format = "BC1/DXT1a"
	FormatBC2     Format = "BC2/DXT3"
	FormatBC3     Format = "BC3/DXT5"
	FormatBC4     Format = "BC4"
	FormatBC5     Format = "BC5/ATI2"
	FormatBGRA    Format = "BGRA"
	FormatBGR     Format = "BGR"
	FormatA8      Format = "A8"
	FormatTGARGBA Format = "TGA_RGBA"
	FormatTGARGB  Format = "TGA_RGB"
	FormatTGA     Format = "TGA"
	FormatUnknown Format = "UNKNOWN"
)

// FourCC codes found in the DDS pixel-format block.
const (
	fourCCDXT1 = 0x31545844 // 'DXT1'
	fourCCDXT3 = 0x33545844 // 'DXT3'
	fourCCDXT5 = 0x35545844 // 'DXT5'
	fourCCDX10 = 0x30315844 // 'DX10'
	fourCCATI1 = 0x31495441 // 'ATI1'
	fourCCATI2 = 0x32495441 // 'ATI2'
	fourCCBC4U = 0x55344342 // 'BC4U'
	fourCCBC4S = 0x53344342 // 'BC4S'
	fourCCBC5U = 0x55354342 // 'BC5U'
)

// Pixel format flags from the DDS pixel-format block.
const (
	ddpfAlpha  = 0x000002
	ddpfFourCC = 0x000004
	ddpfRGB    = 0x000040
)

// dxgiFormatNames maps DX10 extended-header format codes to wire names.
// Covers what the optimizer actually encounters; anything else falls back
// to a "DXGI_<n>" string.
var dxgiFormatNames = map[uint32]string{
	0:   "UNKNOWN",
	2:   "R32G32B32A32_FLOAT",
	10:  "R16G16B16A16_FLOAT",
	28:  "R8G8B8A8_UNORM",
	29:  "R8G8B8A8_UNORM_SRGB",
	61:  "R8_UNORM",
	65:  "A8_UNORM",
	71:  "BC1_UNORM",
	72:  "BC1_UNORM_SRGB",
	74:  "BC2_UNORM",
	75:  "BC2_UNORM_SRGB",
	77:  "BC3_UNORM",
	78:  "BC3_UNORM_SRGB",
	80:  "BC4_UNORM",
	81:  "BC4_SNORM",
	83:  "BC5_UNORM",
	84:  "BC5_SNORM",
	85:  "B5G6R5_UNORM",
	86:  "B5G5R5A1_UNORM",
	87:  "B8G8R8A8_UNORM",
	88:  "B8G8R8X8_UNORM",
	91:  "B8G8R8A8_UNORM_SRGB",
	93:  "B8G8R8X8_UNORM_SRGB",
	95:  "BC6H_UF16",
	96:  "BC6H_SF16",
	98:  "BC7_UNORM",
	99:  "BC7_UNORM_SRGB",
	115: "B4G4R4A4_UNORM",
}

// legacyFourCC maps legacy compression codes to wire names.
var legacyFourCC = map[uint32]string{
	fourCCDXT1: "BC1_UNORM",
	fourCCDXT3: "BC2_UNORM",
	fourCCDXT5: "BC3_UNORM",
	fourCCATI1: "BC4_UNORM",
	fourCCBC4U: "BC4_UNORM",
	fourCCBC4S: "BC4_SNORM",
	fourCCATI2: "BC5_UNORM",
	fourCCBC5U: "BC5_UNORM",
}

// normalizeMap maps wire names to canonical formats. Wire names without an
// entry normalize to themselves so rare formats stay visible in reports.
var normalizeMap = map[string]Format{
	"BC1_UNORM":      FormatBC1,
	"BC2_UNORM":      FormatBC2,
	"BC3_UNORM":      FormatBC3,
	"BC4_UNORM":      FormatBC4,
	"BC5_UNORM":      FormatBC5,
	"B8G8R8A8_UNORM": FormatBGRA,
	"B8G8R8X8_UNORM": FormatBGR,
	"B8G8R8_UNORM":   FormatBGR,
	"A8_UNORM":       FormatA8,
	"B5G6R5_UNORM":   "B5G6R5",
	"TGA_RGBA":       FormatTGARGBA,
	"TGA_RGB":        FormatTGARGB,
	"TGA":            FormatTGA,
	"UNKNOWN":        FormatUnknown,
}

// wireNames is the reverse of normalizeMap for canonical formats that have
// a single wire representation.
var wireNames = map[Format]string{
	FormatBC1:     "BC1_UNORM",
	FormatBC2:     "BC2_UNORM",
	FormatBC3:     "BC3_UNORM",
	FormatBC4:     "BC4_UNORM",
	FormatBC5:     "BC5_UNORM",
	FormatBGRA:    "B8G8R8A8_UNORM",
	FormatBGR:     "B8G8R8X8_UNORM",
	FormatA8:      "A8_UNORM",
	FormatTGARGBA: "TGA_RGBA",
	FormatTGARGB:  "TGA_RGB",
}

// Normalize converts a wire-level format name into its canonical Format.
func Normalize(wire string) Format {
	if f, ok := normalizeMap[wire]; ok {
		return f
	}
	return Format(wire)
}

// WireName returns the wire-level name for a canonical format, or the
// format string itself when no dedicated wire name exists.
func (f Format) WireName() string {
	if w, ok := wireNames[f]; ok {
		return w
	}
	return string(f)
}

// IsBlockCompressed reports whether f is one of the fixed-ratio
// block-compressed encodings.
func (f Format) IsBlockCompressed() bool {
	switch f {
	case FormatBC1, FormatBC1a, FormatBC2, FormatBC3, FormatBC4, FormatBC5:
		return true
	}
	return false
}

// HasAlphaChannel reports whether the format declares an alpha channel.
// BC1 is treated as opaque here; 1-bit punch-through alpha is only
// detectable by scanning block payloads (see the alpha package).
func (f Format) HasAlphaChannel() bool {
	switch f {
	case FormatBC1a, FormatBC2, FormatBC3, FormatBGRA, FormatTGARGBA, FormatA8:
		return true
	}
	return false
}

// BitsPerPixel returns the encoded bits per pixel used for output size
// projection. Unknown formats assume 8 bpp like the compressed default.
func (f Format) BitsPerPixel() int {
	switch f {
	case FormatBC1, FormatBC1a:
		return 4
	case FormatBC2, FormatBC3, FormatBC5:
		return 8
	case FormatBC4:
		return 4
	case FormatBGRA, FormatTGARGBA:
		return 32
	case FormatBGR, FormatTGARGB:
		return 24
	case FormatA8:
		return 8
	}
	return 8
}

// fourCCString renders an unrecognized FourCC for diagnostics: printable
// codes as "FOURCC_<ascii>", anything else as "FOURCC_<hex>".
func fourCCString(code uint32) string {
	b := []byte{
		byte(code),
		byte(code >> 8),
		byte(code >> 16),
		byte(code >> 24),
	}
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return fmt.Sprintf("FOURCC_%08X", code)
		}
	}
	return "FOURCC_" + string(b)
}

// dxgiName resolves a DX10 format code to its wire name.
func dxgiName(code uint32) string {
	if name, ok := dxgiFormatNames[code]; ok {
		return name
	}
	return "DXGI_" + strconv.FormatUint(uint64(code), 10)
}

package texture

import (
	"encoding/binary"
	"path/filepath"
	"strings"
)

// TGA header layout: 18 bytes, width at offset 12, height at offset 14,
// pixel depth at offset 16, all little-endian.
const tgaHeaderSize = 18

// ParseTGA parses a TGA header. TGA never carries a mip chain, so MipCount
// is always 1 for a parseable header. Like ParseDDS this is total: any
// malformed input yields FormatUnknown.
func ParseTGA(data []byte) Info {
	if len(data) < tgaHeaderSize {
		return unknownInfo()
	}

	width := int(binary.LittleEndian.Uint16(data[12:]))
	height := int(binary.LittleEndian.Uint16(data[14:]))
	depth := data[16]

	var wire string
	switch depth {
	case 32:
		wire = "TGA_RGBA"
	case 24:
		wire = "TGA_RGB"
	default:
		wire = "TGA"
	}

	return Info{
		Width:    width,
		Height:   height,
		Format:   Normalize(wire),
		WireName: wire,
		MipCount: 1,
	}
}

func isTGAPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".tga")
}

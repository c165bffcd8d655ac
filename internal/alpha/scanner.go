// Package alpha inspects texture pixel data to decide whether a declared
// alpha channel is actually used. Header flags alone routinely lie: plenty
// of BC3/BGRA assets ship fully opaque, and BC1 can smuggle 1-bit
// punch-through alpha that no header field admits to.
//
// The sampling strategy is deliberately pluggable (see Strategy): the
// default scanner reads the base mip level in full, decoding
// block-compressed payloads through the bcn decoder and scanning raw
// channel bytes for uncompressed data. A pixel counts as non-opaque when
// its alpha value is below the scanner threshold.
package alpha

import (
	"encoding/binary"
	"os"

	"github.com/woozymasta/bcn"

	"github.com/texopt-project/texopt/internal/texture"
)

// Strategy decides whether a texture's declared alpha is meaningfully
// used. Implementations must be safe for concurrent use.
type Strategy interface {
	// MeaningfulAlpha reports whether the file's alpha channel carries
	// information. Unreadable or malformed files report true: assuming
	// alpha is the safe direction, it never discards channel data.
	MeaningfulAlpha(path string, format texture.Format) bool

	// PunchThrough reports whether a BC1 file uses the 3-color
	// transparency mode anywhere in its base level.
	PunchThrough(path string) bool
}

// Scanner is the default full-scan Strategy.
type Scanner struct {
	// Threshold is the alpha value below which a pixel is considered
	// non-opaque. 255 means only fully opaque pixels are ignored.
	Threshold uint8
}

// NewScanner returns a Scanner with the given opacity threshold.
func NewScanner(threshold uint8) *Scanner {
	return &Scanner{Threshold: threshold}
}

// MeaningfulAlpha implements Strategy.
func (s *Scanner) MeaningfulAlpha(path string, format texture.Format) bool {
	switch format {
	case texture.FormatBC1, texture.FormatBC1a:
		return s.PunchThrough(path)
	case texture.FormatBC2, texture.FormatBC3:
		return s.scanCompressed(path, format)
	case texture.FormatBGRA:
		return s.scanBGRA(path)
	case texture.FormatTGARGBA:
		return s.scanTGA(path)
	case texture.FormatTGARGB, texture.FormatTGA, texture.FormatBGR:
		return false
	}
	// Unknown format that declares alpha: trust the declaration.
	return format.HasAlphaChannel()
}

// PunchThrough implements Strategy. BC1 blocks are 8 bytes: two RGB565
// endpoints followed by 16 2-bit indices. color0 <= color1 selects the
// 3-color mode where index 3 means transparent black.
func (s *Scanner) PunchThrough(path string) bool {
	info, payload, ok := readBaseLevel(path)
	if !ok {
		return true
	}

	blocks := blockCount(info.Width, info.Height)
	if len(payload) < blocks*8 {
		return true
	}

	for b := 0; b < blocks; b++ {
		off := b * 8
		color0 := binary.LittleEndian.Uint16(payload[off:])
		color1 := binary.LittleEndian.Uint16(payload[off+2:])
		if color0 > color1 {
			continue // 4-color mode, fully opaque
		}
		indices := binary.LittleEndian.Uint32(payload[off+4:])
		// Index 3 has both bits of its 2-bit pair set.
		if indices&(indices>>1)&0x55555555 != 0 {
			return true
		}
	}
	return false
}

// scanCompressed decodes a BC2/BC3 base level to RGBA and scans the alpha
// channel.
func (s *Scanner) scanCompressed(path string, format texture.Format) bool {
	info, payload, ok := readBaseLevel(path)
	if !ok {
		return true
	}

	need := blockCount(info.Width, info.Height) * 16
	if len(payload) < need {
		return true
	}

	var bcnFormat bcn.Format
	switch format {
	case texture.FormatBC2:
		bcnFormat = bcn.FormatDXT3
	default:
		bcnFormat = bcn.FormatDXT5
	}

	img, err := bcn.DecodeImageWithOptions(payload[:need], info.Width, info.Height, bcnFormat, nil)
	if err != nil {
		return true
	}

	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			_, _, _, a := img.At(x, y).RGBA()
			if uint8(a>>8) < s.Threshold {
				return true
			}
		}
	}
	return false
}

// scanBGRA scans the alpha byte of every 4-byte pixel in an uncompressed
// BGRA base level.
func (s *Scanner) scanBGRA(path string) bool {
	info, payload, ok := readBaseLevel(path)
	if !ok {
		return true
	}

	need := info.Width * info.Height * 4
	if len(payload) < need {
		return true
	}
	for i := 3; i < need; i += 4 {
		if payload[i] < s.Threshold {
			return true
		}
	}
	return false
}

// scanTGA scans a 32-bit TGA, handling both uncompressed and RLE packed
// true-color images.
func (s *Scanner) scanTGA(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil || len(data) < 18 {
		return true
	}

	idLength := int(data[0])
	colormapType := data[1]
	imageType := data[2]
	width := int(binary.LittleEndian.Uint16(data[12:]))
	height := int(binary.LittleEndian.Uint16(data[14:]))
	depth := data[16]

	if depth != 32 {
		return false
	}
	if imageType != 2 && imageType != 10 {
		return true
	}

	off := 18 + idLength
	if colormapType == 1 {
		cmLength := int(binary.LittleEndian.Uint16(data[5:]))
		cmSize := int(data[7])
		off += cmLength * ((cmSize + 7) / 8)
	}
	if off > len(data) {
		return true
	}

	totalPixels := width * height

	if imageType == 2 {
		need := totalPixels * 4
		if len(data)-off < need {
			return true
		}
		for i := off + 3; i < off+need; i += 4 {
			if data[i] < s.Threshold {
				return true
			}
		}
		return false
	}

	// RLE packets: high bit selects run-length vs raw, low 7 bits are
	// count-1.
	read := 0
	for read < totalPixels && off < len(data) {
		packet := data[off]
		off++
		count := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			if off+4 > len(data) {
				return true
			}
			if data[off+3] < s.Threshold {
				return true
			}
			off += 4
		} else {
			if off+count*4 > len(data) {
				return true
			}
			for i := 0; i < count; i++ {
				if data[off+i*4+3] < s.Threshold {
					return true
				}
			}
			off += count * 4
		}
		read += count
	}
	return false
}

// readBaseLevel opens a DDS file and returns its parsed header plus the
// payload starting at the first (largest) mip level.
func readBaseLevel(path string) (texture.Info, []byte, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return texture.Info{}, nil, false
	}
	info := texture.ParseDDS(data)
	if !info.Valid() {
		return texture.Info{}, nil, false
	}
	return info, data[texture.DataOffset(data):], true
}

func blockCount(width, height int) int {
	return ((width + 3) / 4) * ((height + 3) / 4)
}

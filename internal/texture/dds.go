package texture

import (
	"encoding/binary"
	"io"
	"os"
)

// DDS layout constants. The main header is 124 bytes following the 4-byte
// magic; the optional DX10 extension adds 20 more.
const (
	ddsMagic          = "DDS "
	ddsHeaderSize     = 128 // magic + main header
	ddsDX10HeaderSize = 20
	ddsProbeSize      = ddsHeaderSize + ddsDX10HeaderSize

	// Offsets within the 124-byte main header (after the magic).
	offHeight   = 8
	offWidth    = 12
	offMipCount = 24
	offPixFmt   = 72
)

// Info is the result of parsing a texture container header. Width and
// Height are zero and Format is FormatUnknown when the header could not be
// parsed; parsing never fails with an error for malformed input.
type Info struct {
	Width    int
	Height   int
	Format   Format
	WireName string
	MipCount int
}

// Valid reports whether the header parsed to usable dimensions.
func (i Info) Valid() bool {
	return i.Width > 0 && i.Height > 0 && i.Format != FormatUnknown
}

// unknownInfo is what every unparseable buffer normalizes to.
func unknownInfo() Info {
	return Info{Format: FormatUnknown, WireName: "UNKNOWN"}
}

// ParseDDS parses a DDS header from the first bytes of a file. The buffer
// should hold at least the first 148 bytes; shorter buffers are handled and
// yield FormatUnknown when below the 128-byte minimum. Pure function of the
// bytes: identical input always yields identical output.
func ParseDDS(data []byte) Info {
	if len(data) < ddsHeaderSize {
		return unknownInfo()
	}
	if string(data[0:4]) != ddsMagic {
		return unknownInfo()
	}

	header := data[4:ddsHeaderSize]
	height := int(binary.LittleEndian.Uint32(header[offHeight:]))
	width := int(binary.LittleEndian.Uint32(header[offWidth:]))

	mipCount := int(binary.LittleEndian.Uint32(header[offMipCount:]))
	if mipCount == 0 {
		// Plenty of files never set the mip count field.
		mipCount = 1
	}

	pfFlags := binary.LittleEndian.Uint32(header[offPixFmt+4:])
	pfFourCC := binary.LittleEndian.Uint32(header[offPixFmt+8:])
	pfBitCount := binary.LittleEndian.Uint32(header[offPixFmt+12:])

	wire := "UNKNOWN"

	switch {
	case pfFourCC == fourCCDX10:
		// Extended header: the DXGI format code sits right after the main
		// header.
		if len(data) >= ddsProbeSize {
			wire = dxgiName(binary.LittleEndian.Uint32(data[ddsHeaderSize:]))
		}

	case pfFlags&ddpfFourCC != 0:
		if name, ok := legacyFourCC[pfFourCC]; ok {
			wire = name
		} else {
			wire = fourCCString(pfFourCC)
		}

	case pfFlags&ddpfRGB != 0:
		switch pfBitCount {
		case 32:
			// The alpha bit-mask distinguishes BGRA from BGRX.
			aMask := binary.LittleEndian.Uint32(header[offPixFmt+28:])
			if aMask != 0 {
				wire = "B8G8R8A8_UNORM"
			} else {
				wire = "B8G8R8X8_UNORM"
			}
		case 24:
			// Not a DXGI format, but 24-bit BGR files exist in the wild.
			wire = "B8G8R8_UNORM"
		case 16:
			wire = classify16Bit(header)
		}

	case pfFlags&ddpfAlpha != 0 && pfBitCount == 8:
		wire = "A8_UNORM"
	}

	return Info{
		Width:    width,
		Height:   height,
		Format:   Normalize(wire),
		WireName: wire,
		MipCount: mipCount,
	}
}

// classify16Bit matches the channel bit-masks of a 16-bit uncompressed
// pixel format block against the known layouts.
func classify16Bit(header []byte) string {
	rMask := binary.LittleEndian.Uint32(header[offPixFmt+16:])
	gMask := binary.LittleEndian.Uint32(header[offPixFmt+20:])
	bMask := binary.LittleEndian.Uint32(header[offPixFmt+24:])

	switch {
	case rMask == 0xF800 && gMask == 0x07E0 && bMask == 0x001F:
		return "B5G6R5_UNORM"
	case rMask == 0x7C00 && gMask == 0x03E0 && bMask == 0x001F:
		return "B5G5R5A1_UNORM"
	case rMask == 0x0F00 && gMask == 0x00F0 && bMask == 0x000F:
		return "B4G4R4A4_UNORM"
	}
	return "RGB16_UNORM"
}

// HasDX10Header reports whether a DDS buffer carries the DX10 extension.
func HasDX10Header(data []byte) bool {
	if len(data) < 88 || string(data[0:4]) != ddsMagic {
		return false
	}
	return binary.LittleEndian.Uint32(data[84:]) == fourCCDX10
}

// DataOffset returns the byte offset of the pixel payload.
func DataOffset(data []byte) int {
	if HasDX10Header(data) {
		return ddsProbeSize
	}
	return ddsHeaderSize
}

// ParseFile reads the probe window from the start of a file and parses it.
// I/O errors and short files yield an unparseable Info, mirroring the
// malformed-bytes behavior.
func ParseFile(path string) Info {
	f, err := os.Open(path)
	if err != nil {
		return unknownInfo()
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, ddsProbeSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		return unknownInfo()
	}
	buf = buf[:n]

	if isTGAPath(path) {
		return ParseTGA(buf)
	}
	return ParseDDS(buf)
}

package texture

import "encoding/binary"

// Header synthesis helpers shared by this package's tests and by the
// pipeline tests. They build minimal but structurally correct DDS and TGA
// buffers; the pixel payload is zeroed unless a test appends its own.

// DDSSpec describes a synthetic DDS header.
type DDSSpec struct {
	Width    int
	Height   int
	MipCount int
	FourCC   uint32 // legacy FourCC; 0 for uncompressed
	DXGI     uint32 // DX10 format code; implies the DX10 extension
	BitCount uint32 // RGB bit count for uncompressed specs
	AMask    uint32 // alpha mask for uncompressed specs
}

// MakeDDS builds a DDS header buffer from the spec.
func MakeDDS(spec DDSSpec) []byte {
	size := ddsHeaderSize
	if spec.DXGI != 0 {
		size = ddsProbeSize
	}
	buf := make([]byte, size)
	copy(buf, ddsMagic)
	binary.LittleEndian.PutUint32(buf[4:], 124) // dwSize
	binary.LittleEndian.PutUint32(buf[12:], uint32(spec.Height))
	binary.LittleEndian.PutUint32(buf[16:], uint32(spec.Width))
	binary.LittleEndian.PutUint32(buf[offAbsMipCount:], uint32(spec.MipCount))
	binary.LittleEndian.PutUint32(buf[76:], 32) // pixel format dwSize

	switch {
	case spec.DXGI != 0:
		binary.LittleEndian.PutUint32(buf[offAbsPFFlags:], ddpfFourCC)
		binary.LittleEndian.PutUint32(buf[offAbsPFFourCC:], fourCCDX10)
		binary.LittleEndian.PutUint32(buf[ddsHeaderSize:], spec.DXGI)
	case spec.FourCC != 0:
		binary.LittleEndian.PutUint32(buf[offAbsPFFlags:], ddpfFourCC)
		binary.LittleEndian.PutUint32(buf[offAbsPFFourCC:], spec.FourCC)
	default:
		binary.LittleEndian.PutUint32(buf[offAbsPFFlags:], ddpfRGB)
		binary.LittleEndian.PutUint32(buf[offAbsPFBitCount:], spec.BitCount)
		binary.LittleEndian.PutUint32(buf[offAbsPFAMask:], spec.AMask)
	}
	return buf
}

// MakeTGA builds a TGA header buffer with the given dimensions and depth.
func MakeTGA(width, height int, depth byte) []byte {
	buf := make([]byte, tgaHeaderSize)
	buf[2] = 2 // uncompressed true-color
	binary.LittleEndian.PutUint16(buf[12:], uint16(width))
	binary.LittleEndian.PutUint16(buf[14:], uint16(height))
	buf[16] = depth
	return buf
}

// Exported FourCC constants for test fixtures.
const (
	TestFourCCDXT1 = fourCCDXT1
	TestFourCCDXT3 = fourCCDXT3
	TestFourCCDXT5 = fourCCDXT5
	TestFourCCATI2 = fourCCATI2
)

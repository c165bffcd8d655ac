package texture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDDS_LegacyFourCC(t *testing.T) {
	tests := []struct {
		name   string
		fourCC uint32
		want   Format
		wire   string
	}{
		{"DXT1", fourCCDXT1, FormatBC1, "BC1_UNORM"},
		{"DXT3", fourCCDXT3, FormatBC2, "BC2_UNORM"},
		{"DXT5", fourCCDXT5, FormatBC3, "BC3_UNORM"},
		{"ATI1", fourCCATI1, FormatBC4, "BC4_UNORM"},
		{"BC4U", fourCCBC4U, FormatBC4, "BC4_UNORM"},
		{"BC4S", fourCCBC4S, Format("BC4_SNORM"), "BC4_SNORM"},
		{"ATI2", fourCCATI2, FormatBC5, "BC5_UNORM"},
		{"BC5U", fourCCBC5U, FormatBC5, "BC5_UNORM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseDDS(MakeDDS(DDSSpec{Width: 256, Height: 128, MipCount: 9, FourCC: tt.fourCC}))
			assert.Equal(t, 256, info.Width)
			assert.Equal(t, 128, info.Height)
			assert.Equal(t, 9, info.MipCount)
			assert.Equal(t, tt.want, info.Format)
			assert.Equal(t, tt.wire, info.WireName)
		})
	}
}

func TestParseDDS_DX10Extension(t *testing.T) {
	tests := []struct {
		name string
		dxgi uint32
		want Format
	}{
		{"BC1_UNORM", 71, FormatBC1},
		{"BC3_UNORM", 77, FormatBC3},
		{"BC5_UNORM", 83, FormatBC5},
		{"BC7_UNORM", 98, Format("BC7_UNORM")},
		{"BGRA", 87, FormatBGRA},
		{"unmapped code", 52, Format("DXGI_52")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseDDS(MakeDDS(DDSSpec{Width: 64, Height: 64, MipCount: 7, DXGI: tt.dxgi}))
			assert.Equal(t, tt.want, info.Format)
		})
	}
}

func TestParseDDS_UncompressedRGB(t *testing.T) {
	// 32-bit with an alpha mask is BGRA, without is BGRX.
	bgra := ParseDDS(MakeDDS(DDSSpec{Width: 32, Height: 32, BitCount: 32, AMask: 0xFF000000}))
	assert.Equal(t, FormatBGRA, bgra.Format)

	bgrx := ParseDDS(MakeDDS(DDSSpec{Width: 32, Height: 32, BitCount: 32}))
	assert.Equal(t, FormatBGR, bgrx.Format)
	assert.Equal(t, "B8G8R8X8_UNORM", bgrx.WireName)

	bgr24 := ParseDDS(MakeDDS(DDSSpec{Width: 32, Height: 32, BitCount: 24}))
	assert.Equal(t, FormatBGR, bgr24.Format)
	assert.Equal(t, "B8G8R8_UNORM", bgr24.WireName)
}

func TestParseDDS_UnknownFourCCStaysDiagnosable(t *testing.T) {
	// 'RXGB' is a real but unsupported swizzled variant; the parser must
	// not fail, just surface the code.
	info := ParseDDS(MakeDDS(DDSSpec{Width: 16, Height: 16, FourCC: 0x42475852}))
	assert.Equal(t, "FOURCC_RXGB", info.WireName)
}

func TestParseDDS_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"truncated", MakeDDS(DDSSpec{Width: 4, Height: 4, FourCC: fourCCDXT1})[:64]},
		{"bad magic", append([]byte("NOPE"), MakeDDS(DDSSpec{Width: 4, Height: 4})[4:]...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseDDS(tt.data)
			assert.Equal(t, FormatUnknown, info.Format)
			assert.False(t, info.Valid())
		})
	}
}

func TestParseDDS_ZeroMipCountTreatedAsOne(t *testing.T) {
	info := ParseDDS(MakeDDS(DDSSpec{Width: 128, Height: 128, MipCount: 0, FourCC: fourCCDXT1}))
	assert.Equal(t, 1, info.MipCount)
}

func TestParseDDS_Deterministic(t *testing.T) {
	data := MakeDDS(DDSSpec{Width: 512, Height: 256, MipCount: 10, FourCC: fourCCDXT5})
	first := ParseDDS(data)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ParseDDS(data))
	}
}

func TestParseTGA(t *testing.T) {
	rgba := ParseTGA(MakeTGA(640, 480, 32))
	require.True(t, rgba.Valid())
	assert.Equal(t, 640, rgba.Width)
	assert.Equal(t, 480, rgba.Height)
	assert.Equal(t, FormatTGARGBA, rgba.Format)
	assert.Equal(t, 1, rgba.MipCount)

	rgb := ParseTGA(MakeTGA(64, 64, 24))
	assert.Equal(t, FormatTGARGB, rgb.Format)

	odd := ParseTGA(MakeTGA(64, 64, 16))
	assert.Equal(t, FormatTGA, odd.Format)

	short := ParseTGA([]byte{0, 1, 2})
	assert.Equal(t, FormatUnknown, short.Format)
}

func TestNormalizeRoundTrip(t *testing.T) {
	// Every code in both mapping tables must normalize to a single
	// canonical name and map back to a wire name that normalizes to the
	// same canonical name.
	for _, wire := range legacyFourCC {
		f := Normalize(wire)
		assert.Equal(t, f, Normalize(f.WireName()), "legacy %s", wire)
	}
	for _, wire := range dxgiFormatNames {
		f := Normalize(wire)
		assert.Equal(t, f, Normalize(f.WireName()), "dxgi %s", wire)
	}
}

func TestHasAdequateMips(t *testing.T) {
	tests := []struct {
		w, h, mips int
		want       bool
	}{
		{1024, 1024, 11, true},
		{1024, 1024, 2, true},
		{1024, 1024, 1, false},
		{4, 4, 1, true}, // trivially small textures are exempt
		{4, 2, 1, true},
		{8, 8, 1, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HasAdequateMips(tt.w, tt.h, tt.mips), "%dx%d mips=%d", tt.w, tt.h, tt.mips)
	}
}

func TestExpectedMipCount(t *testing.T) {
	assert.Equal(t, 11, ExpectedMipCount(1024, 1024))
	assert.Equal(t, 10, ExpectedMipCount(512, 512))
	assert.Equal(t, 11, ExpectedMipCount(1024, 16))
	assert.Equal(t, 1, ExpectedMipCount(1, 1))
	assert.Equal(t, 1, ExpectedMipCount(0, 0))
}

func TestFormatPredicates(t *testing.T) {
	assert.True(t, FormatBC1.IsBlockCompressed())
	assert.True(t, FormatBC5.IsBlockCompressed())
	assert.False(t, FormatBGRA.IsBlockCompressed())
	assert.False(t, FormatTGARGBA.IsBlockCompressed())

	assert.True(t, FormatBC3.HasAlphaChannel())
	assert.True(t, FormatBGRA.HasAlphaChannel())
	assert.False(t, FormatBC1.HasAlphaChannel())
	assert.False(t, FormatBC5.HasAlphaChannel())

	assert.Equal(t, 4, FormatBC1.BitsPerPixel())
	assert.Equal(t, 8, FormatBC3.BitsPerPixel())
	assert.Equal(t, 32, FormatBGRA.BitsPerPixel())
	assert.Equal(t, 24, FormatBGR.BitsPerPixel())
}

// Package format implements the pixel-format catalogue: mapping a FourCC
// code to its average bits-per-pixel and the derived line pitch, plus the
// Bayer phase-rotation helper used by the 2x2/3x3 debayer kernels.
package format

import "fmt"

// FourCC is a 32-bit code identifying a pixel format, packed from four
// ASCII bytes the same way Video4Linux does.
type FourCC uint32

// Format is an immutable (width, height, FourCC) triple describing a
// frame's geometry and pixel layout.
type Format struct {
	Width, Height int
	FourCC        FourCC
}

// MakeFourCC packs four ASCII bytes into a FourCC, little-endian, matching
// the V4L2 convention.
func MakeFourCC(a, b, c, d byte) FourCC {
	return FourCC(a) | FourCC(b)<<8 | FourCC(c)<<16 | FourCC(d)<<24
}

func (f FourCC) String() string {
	b := [4]byte{byte(f), byte(f >> 8), byte(f >> 16), byte(f >> 24)}
	return string(b[:])
}

// Recognised FourCC values.
var (
	RGB1 = MakeFourCC('R', 'G', 'B', '1') // RGB332
	RGBP = MakeFourCC('R', 'G', 'B', 'P') // RGB565 little-endian
	RGBR = MakeFourCC('R', 'G', 'B', 'R') // RGB565 big-endian
	RGB3 = MakeFourCC('R', 'G', 'B', '3') // RGB24
	BX24 = MakeFourCC('B', 'X', '2', '4') // XRGB32
	YUVC = MakeFourCC('Y', 'U', 'V', 'C') // YUV 4:2:0, 12 bpp
	YUV3 = MakeFourCC('Y', 'U', 'V', '3') // YUV24 (4:4:4)
	YUYV = MakeFourCC('Y', 'U', 'Y', 'V') // YUV 4:2:2 packed
	GREY = MakeFourCC('G', 'R', 'E', 'Y') // 8-bit luma
	BA81 = MakeFourCC('B', 'A', '8', '1') // SBGGR8 (alias of BGGR)
	BGGR = MakeFourCC('B', 'G', 'G', 'R')
	GBRG = MakeFourCC('G', 'B', 'R', 'G')
	GRBG = MakeFourCC('G', 'R', 'B', 'G')
	RGGB = MakeFourCC('R', 'G', 'G', 'B') // SRGGB8
	JPEG = MakeFourCC('J', 'P', 'E', 'G')
	QOIF = MakeFourCC('Q', 'O', 'I', 'F')
)

// PLT returns the palette FourCC for the given bit depth (1..8), e.g.
// PLT(4) is "PLT4".
func PLT(depth int) FourCC {
	return MakeFourCC('P', 'L', 'T', '0'+byte(depth))
}

// PaletteDepth returns the bit depth encoded in a PLTn FourCC, or 0, false
// if f is not a palette format.
func PaletteDepth(f FourCC) (depth int, ok bool) {
	b := [4]byte{byte(f), byte(f >> 8), byte(f >> 16), byte(f >> 24)}
	if b[0] != 'P' || b[1] != 'L' || b[2] != 'T' {
		return 0, false
	}
	d := int(b[3] - '0')
	if d < 1 || d > 8 {
		return 0, false
	}
	return d, true
}

var bppTable = map[FourCC]uint8{
	RGB1: 8,
	RGBP: 16,
	RGBR: 16,
	RGB3: 24,
	BX24: 32,
	YUVC: 12,
	YUV3: 24,
	YUYV: 16,
	GREY: 8,
	BA81: 8,
	BGGR: 8,
	GBRG: 8,
	GRBG: 8,
	RGGB: 8,
	JPEG: 0,
	QOIF: 0,
}

func init() {
	for d := 1; d <= 8; d++ {
		bppTable[PLT(d)] = uint8(paletteBpp(d))
	}
}

// paletteBpp returns the average bits-per-pixel a depth-d palette index
// actually occupies once packed into bytes. Depths 1/2/4/8 divide a byte
// evenly and pack dense. Depth 3 is padded out to a 4-bit nibble slot
// (two indices per byte, one zero pad bit each); depths 5/6/7 get one
// index per byte with the unused high bits zeroed. Matches the slot
// width internal/palette's packIndices/unpackIndices actually use.
func paletteBpp(depth int) int {
	perByte := 8 / depth
	return 8 / perByte
}

// Fallback is consulted by Bpp for FourCC values not in the static table.
// Registering one lets a caller extend the catalogue without modifying
// this package, mirroring the standard library's image.RegisterFormat
// registration idiom.
type Fallback func(FourCC) (bpp uint8, ok bool)

var fallback Fallback

// RegisterFallback installs f as the catalogue's fallback resolver for
// unrecognised FourCC values. A nil argument clears any previously
// registered fallback.
func RegisterFallback(f Fallback) { fallback = f }

// Bpp returns the average bits-per-pixel for fourcc. Compressed formats
// (JPEG, QOIF) return 0, meaning variable pitch. Unknown codes are
// resolved through the registered Fallback, if any.
func Bpp(fourcc FourCC) (uint8, error) {
	if bpp, ok := bppTable[fourcc]; ok {
		return bpp, nil
	}
	if fallback != nil {
		if bpp, ok := fallback(fourcc); ok {
			return bpp, nil
		}
	}
	return 0, fmt.Errorf("format: unrecognised fourcc %q", fourcc)
}

// IsVariablePitch reports whether fourcc is a compressed, variable-rate
// format (pitch is meaningless for it).
func IsVariablePitch(fourcc FourCC) bool {
	return fourcc == JPEG || fourcc == QOIF
}

// Pitch returns the number of bytes per row for a width x fourcc image, or
// 0 for variable-pitch formats. bpp values that would make width*bpp not
// divide evenly by 8 are a caller bug; Pitch truncates rather than
// rejecting, since rejection belongs upstream at append time.
func Pitch(width int, fourcc FourCC) (int, error) {
	bpp, err := Bpp(fourcc)
	if err != nil {
		return 0, err
	}
	if bpp == 0 {
		return 0, nil
	}
	return width * int(bpp) / 8, nil
}

// LineDown returns the Bayer CFA phase of the row immediately below a row
// of the given phase: RGGB and GBRG alternate with each other, as do BGGR
// and GRBG. Used by 2x2/3x3 debayer kernels to pick the correct
// interpolation variant on odd output rows and after edge-row mirroring.
func LineDown(bayer FourCC) FourCC {
	switch bayer {
	case RGGB:
		return GBRG
	case GBRG:
		return RGGB
	case BGGR:
		return GRBG
	case GRBG:
		return BGGR
	case BA81:
		return GRBG
	default:
		return bayer
	}
}

// IsBayer reports whether fourcc names one of the four (plus BA81 alias)
// raw Bayer CFA phases.
func IsBayer(fourcc FourCC) bool {
	switch fourcc {
	case RGGB, GBRG, BGGR, GRBG, BA81:
		return true
	default:
		return false
	}
}

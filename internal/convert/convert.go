// Package convert implements the one-to-one pixel-format conversion family:
// window 1, threshold = one input pitch, output pitch = one output line.
// Every conversion reads exactly one input line and writes exactly one
// output line except the 4:2:0 (YUVC) variants, which need a pair of input
// rows to form one chroma sample and so declare window 2.
//
// The RGB<->YUV fixed-point math is grounded on sharpyuv/csp.go's
// ConversionMatrix (16-bit fixed-point RGB->YUV dot product), generalised
// here to Q21 and to the reverse YUV->RGB direction.
package convert

import (
	"fmt"

	"github.com/deepteams/mpix/internal/errno"
	"github.com/deepteams/mpix/internal/format"
	"github.com/deepteams/mpix/internal/pipeline"
)

const q21Shift = 21
const q21Half = 1 << (q21Shift - 1)

// bt709 holds the BT.709 limited-range RGB<->YUV coefficients in Q21 fixed
// point, the same shape as sharpyuv's ConversionMatrix but carried five bits
// wider since mpix has no SIMD width constraint forcing it to 16 bits.
var bt709 = struct {
	rgbToY, rgbToU, rgbToV [4]int64
	yuvToR, yuvToG, yuvToB [4]int64
}{
	rgbToY: [4]int64{q21(0.1826), q21(0.6142), q21(0.0620), 16 << q21Shift},
	rgbToU: [4]int64{q21(-0.1006), q21(-0.3386), q21(0.4392), 128 << q21Shift},
	rgbToV: [4]int64{q21(0.4392), q21(-0.3989), q21(-0.0403), 128 << q21Shift},

	// Inverse matrix (limited range, Y'CbCr -> R'G'B'), rows per output
	// channel: [Y coeff, Cb coeff, Cr coeff, rounding constant].
	yuvToR: [4]int64{q21(1.1644), 0, q21(1.7927), 0},
	yuvToG: [4]int64{q21(1.1644), q21(-0.2132), q21(-0.5329), 0},
	yuvToB: [4]int64{q21(1.1644), q21(2.1124), 0, 0},
}

func q21(f float64) int64 {
	if f >= 0 {
		return int64(f*(1<<q21Shift) + 0.5)
	}
	return int64(f*(1<<q21Shift) - 0.5)
}

func clip8(v int64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

func rgbToYUV(r, g, b byte) (y, u, v byte) {
	ri, gi, bi := int64(r), int64(g), int64(b)
	y = clip8((bt709.rgbToY[0]*ri + bt709.rgbToY[1]*gi + bt709.rgbToY[2]*bi + bt709.rgbToY[3] + q21Half) >> q21Shift)
	u = clip8((bt709.rgbToU[0]*ri + bt709.rgbToU[1]*gi + bt709.rgbToU[2]*bi + bt709.rgbToU[3] + q21Half) >> q21Shift)
	v = clip8((bt709.rgbToV[0]*ri + bt709.rgbToV[1]*gi + bt709.rgbToV[2]*bi + bt709.rgbToV[3] + q21Half) >> q21Shift)
	return
}

func yuvToRGB(y, u, v byte) (r, g, b byte) {
	yi := int64(y) - 16
	ui := int64(u) - 128
	vi := int64(v) - 128
	r = clip8((bt709.yuvToR[0]*yi + bt709.yuvToR[1]*ui + bt709.yuvToR[2]*vi + q21Half) >> q21Shift)
	g = clip8((bt709.yuvToG[0]*yi + bt709.yuvToG[1]*ui + bt709.yuvToG[2]*vi + q21Half) >> q21Shift)
	b = clip8((bt709.yuvToB[0]*yi + bt709.yuvToB[1]*ui + bt709.yuvToB[2]*vi + q21Half) >> q21Shift)
	return
}

// lineFunc converts one input line (width pixels of src) to one output line
// (width pixels of dst). Both slices are exactly one pitch long.
type lineFunc func(width int, src, dst []byte)

// New builds a ready-to-splice convert node for the (src, dst) FourCC pair at
// the given width, or an error if no conversion is known.
func New(width, height int, src, dst format.FourCC) (*pipeline.Node, error) {
	if src == format.YUVC || dst == format.YUVC {
		return newYUVC420(width, height, src, dst)
	}

	fn, ok := lineConverters[pairKey{src, dst}]
	if !ok {
		return nil, errno.Wrap(errno.ENOSYS, fmt.Sprintf("convert: no path %s->%s", src, dst))
	}
	inPitch, err := format.Pitch(width, src)
	if err != nil {
		return nil, errno.Wrap(errno.EINVAL, "convert: input pitch")
	}
	outPitch, err := format.Pitch(width, dst)
	if err != nil {
		return nil, errno.Wrap(errno.EINVAL, "convert: output pitch")
	}

	return &pipeline.Node{
		Name:         fmt.Sprintf("convert(%s->%s)", src, dst),
		InputFourCC:  src,
		OutputFourCC: dst,
		WindowSize:   1,
		Threshold:    inPitch,
		OutputPitch:  outPitch,
		Kernel: func(n *pipeline.Node) error {
			in := n.GetInputLine()
			out := n.GetOutputLine()
			if out == nil {
				return n.Err()
			}
			fn(width, in, out)
			return n.Done()
		},
	}, nil
}

type pairKey struct{ src, dst format.FourCC }

var lineConverters = map[pairKey]lineFunc{
	{format.RGB3, format.RGB1}: rgb24ToRGB332,
	{format.RGB1, format.RGB3}: rgb332ToRGB24,
	{format.RGB3, format.RGBP}: rgb24ToRGB565LE,
	{format.RGBP, format.RGB3}: rgb565LEToRGB24,
	{format.RGB3, format.RGBR}: rgb24ToRGB565BE,
	{format.RGBR, format.RGB3}: rgb565BEToRGB24,
	{format.RGB3, format.BX24}: rgb24ToXRGB32,
	{format.BX24, format.RGB3}: xrgb32ToRGB24,
	{format.RGB3, format.GREY}: rgb24ToGrey,
	{format.GREY, format.RGB3}: greyToRGB24,
	{format.RGB3, format.YUV3}: rgb24ToYUV444,
	{format.YUV3, format.RGB3}: yuv444ToRGB24,
	{format.YUYV, format.RGB3}: yuyvToRGB24,
	{format.RGB3, format.YUYV}: rgb24ToYUYV,
	{format.YUYV, format.YUV3}: yuyvToYUV444,
	{format.YUV3, format.YUYV}: yuv444ToYUYV,
}

func rgb24ToRGB332(width int, src, dst []byte) {
	for i := 0; i < width; i++ {
		r, g, b := src[i*3], src[i*3+1], src[i*3+2]
		dst[i] = (r & 0xE0) | (g&0xE0)>>3 | (b&0xC0)>>6
	}
}

func rgb332ToRGB24(width int, src, dst []byte) {
	for i := 0; i < width; i++ {
		p := src[i]
		r := p & 0xE0
		g := (p << 3) & 0xE0
		b := (p << 6) & 0xC0
		dst[i*3], dst[i*3+1], dst[i*3+2] = r|r>>3|r>>6, g|g>>3|g>>6, b|b>>2|b>>4|b>>6
	}
}

func rgb24ToRGB565LE(width int, src, dst []byte) {
	for i := 0; i < width; i++ {
		r, g, b := src[i*3], src[i*3+1], src[i*3+2]
		v := uint16(r&0xF8)<<8 | uint16(g&0xFC)<<3 | uint16(b>>3)
		dst[i*2], dst[i*2+1] = byte(v), byte(v>>8)
	}
}

func rgb565LEToRGB24(width int, src, dst []byte) {
	for i := 0; i < width; i++ {
		v := uint16(src[i*2]) | uint16(src[i*2+1])<<8
		r := byte(v>>8) & 0xF8
		g := byte(v>>3) & 0xFC
		b := byte(v << 3)
		dst[i*3], dst[i*3+1], dst[i*3+2] = r|r>>5, g|g>>6, b|b>>5
	}
}

func rgb24ToRGB565BE(width int, src, dst []byte) {
	for i := 0; i < width; i++ {
		r, g, b := src[i*3], src[i*3+1], src[i*3+2]
		v := uint16(r&0xF8)<<8 | uint16(g&0xFC)<<3 | uint16(b>>3)
		dst[i*2], dst[i*2+1] = byte(v>>8), byte(v)
	}
}

func rgb565BEToRGB24(width int, src, dst []byte) {
	for i := 0; i < width; i++ {
		v := uint16(src[i*2])<<8 | uint16(src[i*2+1])
		r := byte(v>>8) & 0xF8
		g := byte(v>>3) & 0xFC
		b := byte(v << 3)
		dst[i*3], dst[i*3+1], dst[i*3+2] = r|r>>5, g|g>>6, b|b>>5
	}
}

func rgb24ToXRGB32(width int, src, dst []byte) {
	for i := 0; i < width; i++ {
		dst[i*4] = 0
		dst[i*4+1], dst[i*4+2], dst[i*4+3] = src[i*3], src[i*3+1], src[i*3+2]
	}
}

func xrgb32ToRGB24(width int, src, dst []byte) {
	for i := 0; i < width; i++ {
		dst[i*3], dst[i*3+1], dst[i*3+2] = src[i*4+1], src[i*4+2], src[i*4+3]
	}
}

func rgb24ToGrey(width int, src, dst []byte) {
	for i := 0; i < width; i++ {
		y, _, _ := rgbToYUV(src[i*3], src[i*3+1], src[i*3+2])
		dst[i] = y
	}
}

func greyToRGB24(width int, src, dst []byte) {
	for i := 0; i < width; i++ {
		dst[i*3], dst[i*3+1], dst[i*3+2] = src[i], src[i], src[i]
	}
}

func rgb24ToYUV444(width int, src, dst []byte) {
	for i := 0; i < width; i++ {
		y, u, v := rgbToYUV(src[i*3], src[i*3+1], src[i*3+2])
		dst[i*3], dst[i*3+1], dst[i*3+2] = y, u, v
	}
}

func yuv444ToRGB24(width int, src, dst []byte) {
	for i := 0; i < width; i++ {
		r, g, b := yuvToRGB(src[i*3], src[i*3+1], src[i*3+2])
		dst[i*3], dst[i*3+1], dst[i*3+2] = r, g, b
	}
}

func yuyvToRGB24(width int, src, dst []byte) {
	for i := 0; i < width; i += 2 {
		y0, u, y1, v := src[i*2], src[i*2+1], src[i*2+2], src[i*2+3]
		r0, g0, b0 := yuvToRGB(y0, u, v)
		r1, g1, b1 := yuvToRGB(y1, u, v)
		dst[i*3], dst[i*3+1], dst[i*3+2] = r0, g0, b0
		dst[(i+1)*3], dst[(i+1)*3+1], dst[(i+1)*3+2] = r1, g1, b1
	}
}

func rgb24ToYUYV(width int, src, dst []byte) {
	for i := 0; i < width; i += 2 {
		y0, u0, v0 := rgbToYUV(src[i*3], src[i*3+1], src[i*3+2])
		y1, u1, v1 := rgbToYUV(src[(i+1)*3], src[(i+1)*3+1], src[(i+1)*3+2])
		dst[i*2], dst[i*2+1], dst[i*2+2], dst[i*2+3] = y0, avg(u0, u1), y1, avg(v0, v1)
	}
}

func yuyvToYUV444(width int, src, dst []byte) {
	for i := 0; i < width; i += 2 {
		y0, u, y1, v := src[i*2], src[i*2+1], src[i*2+2], src[i*2+3]
		dst[i*3], dst[i*3+1], dst[i*3+2] = y0, u, v
		dst[(i+1)*3], dst[(i+1)*3+1], dst[(i+1)*3+2] = y1, u, v
	}
}

func yuv444ToYUYV(width int, src, dst []byte) {
	for i := 0; i < width; i += 2 {
		y0, u0, v0 := src[i*3], src[i*3+1], src[i*3+2]
		y1, u1, v1 := src[(i+1)*3], src[(i+1)*3+1], src[(i+1)*3+2]
		dst[i*2], dst[i*2+1], dst[i*2+2], dst[i*2+3] = y0, avg(u0, u1), y1, avg(v0, v1)
	}
}

func avg(a, b byte) byte { return byte((int(a) + int(b) + 1) / 2) }

// newYUVC420 builds the 4:2:0 path: a 2x2 packed macro-block layout
// (Y00 Y01 Y10 Y11 U V per 2x2 source block, 6 bytes for 4 pixels = 12bpp
// exactly), chosen over a whole-frame planar Y/U/V layout because a
// streaming, bounded-window pipeline cannot buffer an entire plane before
// emitting the first byte. Window 2 in both directions: RGB3->YUVC consumes
// a pair of RGB rows per call and emits one row of packed blocks (3*width
// bytes, i.e. two YUVC lines of width*3/2 bytes each); YUVC->RGB3 consumes
// two YUVC lines and emits two RGB rows.
func newYUVC420(width, height int, src, dst format.FourCC) (*pipeline.Node, error) {
	if width%2 != 0 || height%2 != 0 {
		return nil, errno.Wrap(errno.EINVAL, "convert: YUVC requires even width and height")
	}
	if src == format.RGB3 && dst == format.YUVC {
		rowPitch, _ := format.Pitch(width, format.RGB3)
		outPitch := width * 3 / 2
		return &pipeline.Node{
			Name:         "convert(RGB3->YUVC)",
			InputFourCC:  format.RGB3,
			OutputFourCC: format.YUVC,
			Width: width,
			// Height bounds LineOffset, which GetInputLines(2) advances by
			// 2 per call against the RGB3 source's full row count; each
			// call emits two YUVC lines, so the YUVC side has height lines
			// too.
			Height:       height,
			OutputHeight: height,
			WindowSize:   2,
			Threshold:    rowPitch * 2,
			OutputPitch:  outPitch * 2,
			Kernel: func(n *pipeline.Node) error {
				rows := n.GetInputLines(2)
				out := n.GetOutputLine()
				if out == nil {
					return n.Err()
				}
				top, bot := rows[:rowPitch], rows[rowPitch:]
				oi := 0
				for i := 0; i < width; i += 2 {
					y00, u00, v00 := rgbToYUV(top[i*3], top[i*3+1], top[i*3+2])
					y01, u01, v01 := rgbToYUV(top[(i+1)*3], top[(i+1)*3+1], top[(i+1)*3+2])
					y10, u10, v10 := rgbToYUV(bot[i*3], bot[i*3+1], bot[i*3+2])
					y11, u11, v11 := rgbToYUV(bot[(i+1)*3], bot[(i+1)*3+1], bot[(i+1)*3+2])
					out[oi], out[oi+1], out[oi+2], out[oi+3] = y00, y01, y10, y11
					out[oi+4] = avg(avg(u00, u01), avg(u10, u11))
					out[oi+5] = avg(avg(v00, v01), avg(v10, v11))
					oi += 6
				}
				return n.Done()
			},
		}, nil
	}
	if src == format.YUVC && dst == format.RGB3 {
		outPitch, _ := format.Pitch(width, format.RGB3)
		inPitch := width * 3 / 2
		return &pipeline.Node{
			Name:         "convert(YUVC->RGB3)",
			InputFourCC:  format.YUVC,
			OutputFourCC: format.RGB3,
			Width: width,
			// Height bounds LineOffset, which GetInputLines(2) advances by
			// 2 per call (one row of packed blocks); each call emits two
			// RGB rows, so the output has height rows too.
			Height:       height,
			OutputHeight: height,
			WindowSize:   2,
			Threshold:    inPitch * 2,
			OutputPitch:  outPitch * 2,
			Kernel: func(n *pipeline.Node) error {
				in := n.GetInputLines(2)
				out := n.GetOutputLine()
				if out == nil {
					return n.Err()
				}
				ii := 0
				for i := 0; i < width; i += 2 {
					y00, y01, y10, y11 := in[ii], in[ii+1], in[ii+2], in[ii+3]
					u, v := in[ii+4], in[ii+5]
					r, g, b := yuvToRGB(y00, u, v)
					out[i*3], out[i*3+1], out[i*3+2] = r, g, b
					r, g, b = yuvToRGB(y01, u, v)
					out[(i+1)*3], out[(i+1)*3+1], out[(i+1)*3+2] = r, g, b
					r, g, b = yuvToRGB(y10, u, v)
					out[outPitch+i*3], out[outPitch+i*3+1], out[outPitch+i*3+2] = r, g, b
					r, g, b = yuvToRGB(y11, u, v)
					out[outPitch+(i+1)*3], out[outPitch+(i+1)*3+1], out[outPitch+(i+1)*3+2] = r, g, b
					ii += 6
				}
				return n.Done()
			},
		}, nil
	}
	return nil, errno.Wrap(errno.ENOSYS, "convert: no YUVC path for this pair")
}

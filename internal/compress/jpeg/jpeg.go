// Package jpeg implements the variable-rate baseline JPEG encoder family:
// uncompressed RGB24 input (4:4:4, no chroma subsampling — every
// component shares sampling factor 1x1, so one MCU is exactly one 8x8
// block per channel), output FourCC JPEG, pitch 0. Window 8 (one MCU
// row).
//
// The transform-then-quantize-then-entropy-code shape follows
// internal/lossy/encode_quant.go / internal/dsp/transforms.go's DCT
// pipeline, adapted from VP8's integer WHT/DCT to JPEG's floating-point
// FDCT, zig-zag reordering, and Huffman coding. The bit writer follows
// internal/bitio/writer_bool.go's growable-buffer, pending-state shape,
// adapted from VP8's arithmetic coder to a byte-stuffing Huffman bit
// writer (JPEG stuffs 0xFF with a trailing 0x00 rather than using an
// arithmetic coder).
package jpeg

import (
	"math"

	"github.com/deepteams/mpix/internal/errno"
	"github.com/deepteams/mpix/internal/format"
	"github.com/deepteams/mpix/internal/pipeline"
)

// Options controls encoding quality.
type Options struct {
	Quality int // 1..100, default 75
}

var zigzag = [64]int{
	0, 1, 8, 16, 9, 2, 3, 10,
	17, 24, 32, 25, 18, 11, 4, 5,
	12, 19, 26, 33, 40, 48, 41, 34,
	27, 20, 13, 6, 7, 14, 21, 28,
	35, 42, 49, 56, 57, 50, 43, 36,
	29, 22, 15, 23, 30, 37, 44, 51,
	58, 59, 52, 45, 38, 31, 39, 46,
	53, 60, 61, 54, 47, 55, 62, 63,
}

var baseLuma = [64]int{
	16, 11, 10, 16, 24, 40, 51, 61,
	12, 12, 14, 19, 26, 58, 60, 55,
	14, 13, 16, 24, 40, 57, 69, 56,
	14, 17, 22, 29, 51, 87, 80, 62,
	18, 22, 37, 56, 68, 109, 103, 77,
	24, 35, 55, 64, 81, 104, 113, 92,
	49, 64, 78, 87, 103, 121, 120, 101,
	72, 92, 95, 98, 112, 100, 103, 99,
}

var baseChroma = [64]int{
	17, 18, 24, 47, 99, 99, 99, 99,
	18, 21, 26, 66, 99, 99, 99, 99,
	24, 26, 56, 99, 99, 99, 99, 99,
	47, 66, 99, 99, 99, 99, 99, 99,
	99, 99, 99, 99, 99, 99, 99, 99,
	99, 99, 99, 99, 99, 99, 99, 99,
	99, 99, 99, 99, 99, 99, 99, 99,
	99, 99, 99, 99, 99, 99, 99, 99,
}

func scaleTable(base [64]int, quality int) [64]byte {
	if quality < 1 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}
	var scale int
	if quality < 50 {
		scale = 5000 / quality
	} else {
		scale = 200 - quality*2
	}
	var out [64]byte
	for i, b := range base {
		v := (b*scale + 50) / 100
		if v < 1 {
			v = 1
		}
		if v > 255 {
			v = 255
		}
		out[i] = byte(v)
	}
	return out
}

// New builds a JPEG encoder node over a width x height RGB24 source.
// Requires width and height to both be multiples of 8 — the encoder
// does not implement MCU edge padding, a deliberate scope reduction from
// a full baseline encoder's right/bottom-edge replication.
func New(width, height int, opts Options) (*pipeline.Node, error) {
	if width%8 != 0 || height%8 != 0 {
		return nil, errno.Wrap(errno.EINVAL, "jpeg: width and height must be multiples of 8")
	}
	if opts.Quality <= 0 {
		opts.Quality = 75
	}
	pitch, _ := format.Pitch(width, format.RGB3)
	st := newEncState(width, height, opts.Quality)

	return &pipeline.Node{
		Name:         "compress(jpeg)",
		InputFourCC:  format.RGB3,
		OutputFourCC: format.JPEG,
		WindowSize:   8,
		Threshold:    pitch * 8,
		OutputPitch:  0,
		RingBytes:    pitch * 8 * 3,
		State:        st,
		Kernel: func(n *pipeline.Node) error {
			if !st.headerWritten {
				if err := writeHeader(n, st); err != nil {
					n.Fail(err)
					return n.Err()
				}
				st.headerWritten = true
			}

			rows := n.GetInputLines(8)
			if err := st.encodeMCURow(n, rows, pitch); err != nil {
				n.Fail(err)
				return n.Err()
			}

			if n.LineOffset >= n.Height {
				if err := flushTrailer(n, st); err != nil {
					n.Fail(err)
					return n.Err()
				}
			}
			return n.Done()
		},
	}, nil
}

type encState struct {
	width, height int
	quant         [2][64]byte // [0]=luma [1]=chroma
	dc            [3]int      // running DC predictor per component
	bw            *bitWriter
	headerWritten bool
}

func newEncState(width, height, quality int) *encState {
	return &encState{
		width: width, height: height,
		quant: [2][64]byte{scaleTable(baseLuma, quality), scaleTable(baseChroma, quality)},
		bw:    newBitWriter(),
	}
}

func (st *encState) encodeMCURow(n *pipeline.Node, rows []byte, pitch int) error {
	for mx := 0; mx < st.width; mx += 8 {
		var yBlock, cbBlock, crBlock [64]float64
		for by := 0; by < 8; by++ {
			row := rows[by*pitch:]
			for bx := 0; bx < 8; bx++ {
				px := (mx + bx) * 3
				r, g, b := row[px], row[px+1], row[px+2]
				y, cb, cr := rgbToYCbCr(r, g, b)
				idx := by*8 + bx
				yBlock[idx] = float64(y) - 128
				cbBlock[idx] = float64(cb) - 128
				crBlock[idx] = float64(cr) - 128
			}
		}
		if err := st.encodeBlock(&yBlock, 0, 0); err != nil {
			return err
		}
		if err := st.encodeBlock(&cbBlock, 1, 1); err != nil {
			return err
		}
		if err := st.encodeBlock(&crBlock, 1, 2); err != nil {
			return err
		}
	}
	if err := flushBits(n, st.bw); err != nil {
		return err
	}
	return nil
}

func (st *encState) encodeBlock(block *[64]float64, table int, comp int) error {
	fdct8x8(block)
	// st.quant is stored in natural (raster) order, matching block's own
	// layout; q is built in zig-zag scan order for entropy coding.
	var q [64]int32
	for i := 0; i < 64; i++ {
		zz := zigzag[i]
		q[i] = int32(math.Round(block[zz] / float64(st.quant[table][zz])))
	}
	diff := int(q[0]) - st.dc[comp]
	st.dc[comp] = int(q[0])

	dcCodes, acCodes := dcLumaCodes, acLumaCodes
	if table == 1 {
		dcCodes, acCodes = dcChromaCodes, acChromaCodes
	}
	writeDC(st.bw, dcCodes, diff)
	writeAC(st.bw, acCodes, q[1:])
	return nil
}

func rgbToYCbCr(r, g, b byte) (y, cb, cr byte) {
	ri, gi, bi := float64(r), float64(g), float64(b)
	yf := 0.299*ri + 0.587*gi + 0.114*bi
	cbf := -0.168736*ri - 0.331264*gi + 0.5*bi + 128
	crf := 0.5*ri - 0.418688*gi - 0.081312*bi + 128
	return clip8(yf), clip8(cbf), clip8(crf)
}

func clip8(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v + 0.5)
}

// fdct8x8 runs a direct (non-fast) separable 2D forward DCT-II in place.
func fdct8x8(block *[64]float64) {
	var tmp [64]float64
	for v := 0; v < 8; v++ {
		for u := 0; u < 8; u++ {
			var sum float64
			for x := 0; x < 8; x++ {
				sum += block[v*8+x] * math.Cos(float64(2*x+1) * float64(u) * math.Pi / 16)
			}
			tmp[v*8+u] = sum * cu(u)
		}
	}
	for u := 0; u < 8; u++ {
		for v := 0; v < 8; v++ {
			var sum float64
			for y := 0; y < 8; y++ {
				sum += tmp[y*8+u] * math.Cos(float64(2*y+1) * float64(v) * math.Pi / 16)
			}
			block[v*8+u] = sum * cu(v) / 4
		}
	}
}

func cu(u int) float64 {
	if u == 0 {
		return 1 / math.Sqrt2
	}
	return 1
}

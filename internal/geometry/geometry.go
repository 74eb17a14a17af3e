// Package geometry implements the resize, subsample, and crop family:
// window 1, nearest-neighbour row/column index selection for resize and
// subsample, row-skip plus column-slice for crop.
//
// Row selection computes floor(outRow * srcH / dstH) directly for each
// output row — mpix's resize is exact nearest-neighbour rather than a box filter, since a box filter would
// need more lookahead state per output line than the bounded-window
// contract allows.
package geometry

import (
	"github.com/deepteams/mpix/internal/errno"
	"github.com/deepteams/mpix/internal/format"
	"github.com/deepteams/mpix/internal/pipeline"
)

// NewResize builds a nearest-neighbour resize node from srcW x srcH to
// dstW x dstH, RGB24 only: the node's InputFourCC is RGB3, so Append
// rejects it on a chain in any other format.
func NewResize(srcW, srcH, dstW, dstH int) (*pipeline.Node, error) {
	if dstW <= 0 || dstH <= 0 {
		return nil, errno.Wrap(errno.EINVAL, "geometry: destination size must be positive")
	}
	srcPitch, _ := format.Pitch(srcW, format.RGB3)
	dstPitch, _ := format.Pitch(dstW, format.RGB3)

	// srcRowFor(d) = floor(d * srcH / dstH) is the source row output row d
	// samples. It is monotone non-decreasing, so each call consumes one
	// source row and emits every output row (zero, one or several) that
	// samples it.
	st := &resizeState{
		srcW: srcW, srcH: srcH, dstW: dstW, dstH: dstH,
		rowBuf: make([]byte, srcPitch),
	}

	return &pipeline.Node{
		Name:         "geometry(resize)",
		InputFourCC:  format.RGB3,
		OutputFourCC: format.RGB3,
		Width:        dstW,
		// Height is this node's own termination bound, compared against
		// LineOffset — which GetInputLine advances once per source row
		// consumed, not once per destination row produced. It must be
		// srcH, not dstH, or the node would stop (and stall its
		// predecessor against a full output ring) before the last source
		// rows a downsample never samples are drained. OutputHeight
		// carries the real declared height downstream.
		Height:       srcH,
		OutputHeight: dstH,
		WindowSize:   1,
		Threshold:    srcPitch,
		OutputPitch:  dstPitch,
		State:        st,
		Kernel: func(n *pipeline.Node) error {
			row := st.srcRow
			st.rowBuf = append(st.rowBuf[:0], readSrcRow(n, srcPitch)...)
			st.srcRow++
			for st.outRow < dstH && st.srcRowFor(st.outRow) == row {
				out := n.GetOutputLine()
				if out == nil {
					return n.Err()
				}
				resampleRow(st.rowBuf, out, srcW, dstW)
				st.outRow++
				if st.outRow < dstH && st.srcRowFor(st.outRow) == row {
					if err := n.Done(); err != nil {
						return err
					}
				}
			}
			return n.Done()
		},
	}, nil
}

// readSrcRow consumes one source row of the given pitch and advances
// LineOffset by one. The geometry nodes set Width to the destination
// width (what Append hands downstream), so GetInputLine, which sizes a
// line from Width, would read a destination-pitch block instead.
func readSrcRow(n *pipeline.Node, pitch int) []byte {
	n.LineOffset++
	return n.Ring.Read(pitch)
}

type resizeState struct {
	srcW, srcH, dstW, dstH int
	srcRow, outRow         int
	rowBuf                 []byte
}

// srcRowFor returns the source row index output row d samples from.
func (s *resizeState) srcRowFor(d int) int {
	r := d * s.srcH / s.dstH
	if r >= s.srcH {
		r = s.srcH - 1
	}
	return r
}

func resampleRow(src, dst []byte, srcW, dstW int) {
	for x := 0; x < dstW; x++ {
		sx := x * srcW / dstW
		if sx >= srcW {
			sx = srcW - 1
		}
		dst[x*3], dst[x*3+1], dst[x*3+2] = src[sx*3], src[sx*3+1], src[sx*3+2]
	}
}

// NewSubsample builds an integer-factor decimating resize: exact
// nearest-neighbour resize to ceil(srcW/factor) x ceil(srcH/factor),
// exposed separately because the façade's Subsample takes a factor rather
// than a target size. The rows and columns kept are exactly every
// `factor`th one only when the source dimension is a multiple of factor.
func NewSubsample(srcW, srcH, factor int) (*pipeline.Node, error) {
	if factor <= 0 {
		return nil, errno.Wrap(errno.EINVAL, "geometry: subsample factor must be positive")
	}
	dstW := (srcW + factor - 1) / factor
	dstH := (srcH + factor - 1) / factor
	n, err := NewResize(srcW, srcH, dstW, dstH)
	if n != nil {
		n.Name = "geometry(subsample)"
	}
	return n, err
}

// Rect is a crop rectangle in source pixel coordinates.
type Rect struct {
	X, Y, W, H int
}

// NewCrop builds a crop node: skips rows above Y and below Y+H, and slices
// columns [X, X+W) from each kept row. Validated against srcW/srcH at
// construction time (the distilled spec's append-time rectangle check).
func NewCrop(srcW, srcH int, r Rect) (*pipeline.Node, error) {
	if r.X < 0 || r.Y < 0 || r.W <= 0 || r.H <= 0 || r.X+r.W > srcW || r.Y+r.H > srcH {
		return nil, errno.Wrap(errno.ERANGE, "geometry: crop rectangle out of bounds")
	}
	srcPitch, _ := format.Pitch(srcW, format.RGB3)
	dstPitch, _ := format.Pitch(r.W, format.RGB3)
	srcRow := 0

	return &pipeline.Node{
		Name:         "geometry(crop)",
		InputFourCC:  format.RGB3,
		OutputFourCC: format.RGB3,
		Width:        r.W,
		// See NewResize: Height bounds LineOffset (source rows consumed,
		// srcH total), not the cropped row count; rows before Y and after
		// Y+H are still drained, just never written downstream.
		Height:       srcH,
		OutputHeight: r.H,
		WindowSize:   1,
		Threshold:    srcPitch,
		OutputPitch:  dstPitch,
		Kernel: func(n *pipeline.Node) error {
			if srcRow < r.Y || srcRow >= r.Y+r.H {
				readSrcRow(n, srcPitch)
				srcRow++
				return n.Done()
			}
			in := readSrcRow(n, srcPitch)
			srcRow++
			out := n.GetOutputLine()
			if out == nil {
				return n.Err()
			}
			copy(out, in[r.X*3:(r.X+r.W)*3])
			return n.Done()
		},
	}, nil
}

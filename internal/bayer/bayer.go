// Package bayer implements CFA (colour filter array) debayering: 1x1
// (direct replication, no interpolation), 2x2 (row-pair interpolation),
// and 3x3 (centred three-row interpolation). Output is always RGB24 at
// unchanged width/height.
//
// The row-pair shape — two input rows combined into one interpolated
// output row, alternating phase as the next pair is processed — follows
// internal/dsp/upsample.go's UpsampleLinePair (4:2:0 chroma upsampling
// generalised here from a YUV plane pair to a 2x2 Bayer block), and the
// phase alternation uses format.LineDown exactly as that function's
// caller alternates between even/odd chroma row pairs.
package bayer

import (
	"github.com/deepteams/mpix/internal/format"
	"github.com/deepteams/mpix/internal/pipeline"
)

// Window selects the debayer's interpolation neighbourhood.
type Window int

const (
	Replicate Window = 1
	Pair      Window = 2
	Triple    Window = 3
)

// phaseBytes returns the 2x2 CFA pattern's four colour bytes in
// [row0col0, row0col1, row1col0, row1col1] order.
func phaseBytes(phase format.FourCC) [4]byte {
	return [4]byte{byte(phase), byte(phase >> 8), byte(phase >> 16), byte(phase >> 24)}
}

// New builds a debayer node for a width x height CFA frame of the given
// Bayer phase at window size w.
func New(w Window, phase format.FourCC, width, height int) *pipeline.Node {
	switch w {
	case Pair:
		return pairNode(phase, width, height)
	case Triple:
		return tripleNode(phase, width, height)
	default:
		return replicateNode(phase, width, height)
	}
}

// replicateNode assigns every output pixel the CFA sample at its own
// position, duplicated across R, G, and B — the cheapest, lowest-quality
// debayer, window 1.
func replicateNode(phase format.FourCC, width, height int) *pipeline.Node {
	return &pipeline.Node{
		Name:         "bayer(1x1)",
		InputFourCC:  phase,
		OutputFourCC: format.RGB3,
		Width:        width,
		Height:       height,
		WindowSize:   1,
		Threshold:    width,
		OutputPitch:  width * 3,
		Kernel: func(n *pipeline.Node) error {
			in := n.GetInputLine()
			out := n.GetOutputLine()
			if out == nil {
				return n.Err()
			}
			for x := 0; x < width; x++ {
				v := in[x]
				out[x*3], out[x*3+1], out[x*3+2] = v, v, v
			}
			return n.Done()
		},
	}
}

// pairNode consumes two CFA rows per call and interpolates one output row
// pair, halving neither dimension (output has the same width/height as
// input — two full RGB rows emitted for two CFA rows consumed).
func pairNode(phase format.FourCC, width, height int) *pipeline.Node {
	pairIdx := 0
	return &pipeline.Node{
		Name:         "bayer(2x2)",
		InputFourCC:  phase,
		OutputFourCC: format.RGB3,
		Width:        width,
		Height:       height,
		WindowSize:   2,
		Threshold:    width * 2,
		OutputPitch:  width * 3 * 2,
		Kernel: func(n *pipeline.Node) error {
			rows := n.GetInputLines(2)
			out := n.GetOutputLine()
			if out == nil {
				return n.Err()
			}
			top, bot := rows[:width], rows[width:]
			rowPhase := phase
			if pairIdx%2 != 0 {
				rowPhase = format.LineDown(phase)
			}
			pairIdx++
			pb := phaseBytes(rowPhase)
			topOut, botOut := out[:width*3], out[width*3:]

			for x := 0; x < width; x += 2 {
				r, g0, g1, b := sampleBlock(pb, top, bot, x, width)
				writeRGB(topOut, x, r, g0, b)
				writeRGB(topOut, x+1, r, g0, b)
				writeRGB(botOut, x, r, g1, b)
				writeRGB(botOut, x+1, r, g1, b)
			}
			return n.Done()
		},
	}
}

// sampleBlock extracts the R, two G (top/bottom), and B samples of one 2x2
// CFA block starting at column x of the given phase pattern.
func sampleBlock(pb [4]byte, top, bot []byte, x, width int) (r, gTop, gBot, b byte) {
	x1 := x + 1
	if x1 >= width {
		x1 = x
	}
	vals := [4]byte{top[x], top[x1], bot[x], bot[x1]}
	for i, c := range pb {
		switch c {
		case 'R':
			r = vals[i]
		case 'B':
			b = vals[i]
		case 'G':
			if i < 2 {
				gTop = vals[i]
			} else {
				gBot = vals[i]
			}
		}
	}
	return
}

func writeRGB(row []byte, x int, r, g, b byte) {
	row[x*3], row[x*3+1], row[x*3+2] = r, g, b
}

// tripleState retains the one row of vertical context a centred 3-row
// window needs across batches: the previously consumed row, held as the
// "above" neighbour for whichever row is consumed next. Copied out of
// the ring rather than kept as a ring-backed slice, since a later
// compaction can shift it (see internal/ring's compacting design).
type tripleState struct {
	above []byte
}

// tripleNode runs a centred three-row interpolation: each batch consumes
// one new CFA row as the centre of its window, peeks the row below it
// when the image still has one, and uses the previous batch's centre as
// the row above. The top edge mirrors its missing above-row from the
// peeked below-row; the bottom edge, once there is nothing left to peek,
// mirrors its missing below-row from the retained above-row.
func tripleNode(phase format.FourCC, width, height int) *pipeline.Node {
	st := &tripleState{}
	return &pipeline.Node{
		Name:         "bayer(3x3)",
		InputFourCC:  phase,
		OutputFourCC: format.RGB3,
		Width:        width,
		Height:       height,
		WindowSize:   3,
		Threshold:    width * 3,
		OutputPitch:  width * 3,
		Kernel: func(n *pipeline.Node) error {
			for {
				if err := produceTripleRow(n, st, phase, width); err != nil {
					return err
				}
				remaining := n.Height - n.LineOffset
				if remaining == 0 {
					return nil
				}
				// All rows still owed are already sitting in the ring —
				// no further push will ever re-trigger this node via
				// Threshold, so drain the rest now instead of stalling.
				if n.Ring.Tailroom()/width < remaining {
					return nil
				}
			}
		},
	}
}

// produceTripleRow demosaics one output row centred on the CFA row this
// batch consumes.
func produceTripleRow(n *pipeline.Node, st *tripleState, phase format.FourCC, width int) error {
	cur := n.GetInputLine()
	centre := n.LineOffset - 1

	var below []byte
	if centre+1 <= n.Height-1 {
		row := n.PeekInputLine()
		below = make([]byte, len(row))
		copy(below, row)
	}

	out := n.GetOutputLine()
	if out == nil {
		return n.Err()
	}

	above := st.above
	switch {
	case above != nil && below != nil:
		// both neighbours real
	case above == nil && below != nil:
		above = below // top row mirrored by the row below the centre
	case above != nil && below == nil:
		below = above // bottom row mirrored by the row above the centre
	default:
		above, below = cur, cur // window taller than the image
	}

	rowPhase := phase
	if centre%2 == 1 {
		rowPhase = format.LineDown(phase)
	}
	pb := phaseBytes(rowPhase)
	rows := [][]byte{above, cur, below}

	for x := 0; x < width; x++ {
		c := pb[x%2]
		r, g, b := interp3x3(pb, rows, cur, x, width, c)
		writeRGB(out, x, r, g, b)
	}

	curCopy := make([]byte, len(cur))
	copy(curCopy, cur)
	st.above = curCopy
	return n.Done()
}

// interp3x3 fills the two missing channels at (row=mid, col=x) by
// averaging same-colour neighbours in the centred 3x3 window (the row
// above, mid, and the row below).
func interp3x3(pb [4]byte, rows [][]byte, mid []byte, x, width int, here byte) (r, g, b byte) {
	own := mid[x]
	switch here {
	case 'R':
		r = own
		g = avgNeighbors(rows, x, width)
		b = avgNeighbors(rows, x, width)
	case 'B':
		b = own
		g = avgNeighbors(rows, x, width)
		r = avgNeighbors(rows, x, width)
	default: // G
		g = own
		r = avgNeighbors(rows, x, width)
		b = avgNeighbors(rows, x, width)
	}
	return
}

// avgNeighbors box-averages the 3x3 raw-sample neighbourhood at column x
// (edge columns clamp). Without per-pixel phase bookkeeping across all
// nine window cells, a channel mpix didn't directly sample at this pixel
// is approximated by the neighbourhood's overall brightness rather than a
// colour-exact reconstruction — the same fixed-tap-count-over-exactness
// tradeoff internal/dsp/upsample.go's diamond kernel makes for chroma.
func avgNeighbors(rows [][]byte, x, width int) byte {
	var sum, n int
	for _, row := range rows {
		for dx := -1; dx <= 1; dx++ {
			xi := x + dx
			if xi < 0 || xi >= width {
				continue
			}
			sum += int(row[xi])
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return byte(sum / n)
}

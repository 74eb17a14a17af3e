// Package kernel implements the small bounded-window spatial filters:
// identity, sharpen, edge-detect, Gaussian blur (binomial approximation),
// and median, all RGB24-only with window in {3, 5}.
//
// The neighbourhood arithmetic follows a loop-filter tap structure (read a
// small fixed set of neighbour samples into locals, combine with integer
// coefficients, clip once), generalised from a 1-D edge tap to a 2-D
// line-window convolution. Because a row held across kernel calls would
// otherwise alias a ring slice that a later compaction can shift (see
// internal/ring's compacting design), each retained context row is copied
// into a node-owned scratch buffer rather than kept as a ring-backed
// slice.
package kernel

import (
	"github.com/deepteams/mpix/internal/format"
	"github.com/deepteams/mpix/internal/pipeline"
)

// Kind selects a filter.
type Kind int

const (
	Identity Kind = iota
	Sharpen
	EdgeDetect
	Gaussian
	Median
)

func clip8(v int32) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// New builds a kernel-filter node for width x height RGB24 frames. window
// must be 3 or 5; Median and Gaussian accept either, Sharpen/EdgeDetect
// always run at 3, and any other window falls back to 3. Identity is itself an N-line kernel (its output just happens
// not to depend on the neighbours it declares) and so honours window like
// every other Kind rather than collapsing to a 1-line pass-through.
func New(kind Kind, window, width, height int) *pipeline.Node {
	pitch, _ := format.Pitch(width, format.RGB3)
	if (window != 3 && window != 5) || (window == 5 && (kind == Sharpen || kind == EdgeDetect)) {
		window = 3
	}
	return windowNode(kind, window, width, pitch)
}

// taps3/taps5 are the vertical-and-horizontal separable coefficients;
// Gaussian uses the binomial 1-2-1 / 1-4-6-4-1 rows, Sharpen/EdgeDetect
// are a center-heavy and a plain Laplacian-style 3-tap respectively.
var taps3 = map[Kind][3]int32{
	Sharpen:    {-1, 3, -1},
	EdgeDetect: {-1, 2, -1},
	Gaussian:   {1, 2, 1},
}

var divisor3 = map[Kind]int32{
	Sharpen:    1,
	EdgeDetect: 1,
	Gaussian:   4,
}

var taps5 = [5]int32{1, 4, 6, 4, 1}

const divisor5 = int32(16)

// windowState is a centred window assembled from three sources: up to
// half = window/2 previously consumed rows retained as "above" context,
// the row the current batch just consumed as the centre, and up to half
// rows already peeked ahead as "below" context. rows is scratch space
// reused each batch to hand applyVertical/horizontalPass the full
// window in low-to-high order; it is not itself the retained state.
//
// Because a row held across batches would otherwise alias a ring slice
// a later compaction can shift (see internal/ring's compacting design),
// both above and ahead hold node-owned copies, never ring-backed slices.
type windowState struct {
	half  int
	pitch int
	rows  [][]byte // scratch, length window, rebuilt every batch

	above [][]byte // FIFO, oldest first, up to half rows: centre-half..centre-1
	ahead [][]byte // FIFO, nearest first, up to half rows: centre+1..centre+len(ahead)
}

func newWindowState(window, pitch int) *windowState {
	rows := make([][]byte, window)
	for i := range rows {
		rows[i] = make([]byte, pitch)
	}
	return &windowState{half: window / 2, pitch: pitch, rows: rows}
}

// pushAbove records row as the most recent centre, dropping the oldest
// retained row once above already holds half of them.
func (s *windowState) pushAbove(row []byte) {
	cp := make([]byte, len(row))
	copy(cp, row)
	s.above = append(s.above, cp)
	if len(s.above) > s.half {
		s.above = s.above[1:]
	}
}

// aboveAt returns the row k above the centre (k=1 is centre-1), or its
// mirror (centre+k, from ahead) when that row doesn't exist — the
// missing-top-row-replaced-by-row-below-it rule.
func (s *windowState) aboveAt(k int) []byte {
	if k <= len(s.above) {
		return s.above[len(s.above)-k]
	}
	return s.aheadAt(k)
}

// belowAt returns the row k below the centre (k=1 is centre+1), or its
// mirror (centre-k, from above) when that row doesn't exist — the
// missing-bottom-row-replaced-by-row-above-it rule.
func (s *windowState) belowAt(k int) []byte {
	if k <= len(s.ahead) {
		return s.ahead[k-1]
	}
	return s.aboveAt(k)
}

func (s *windowState) aheadAt(k int) []byte {
	if k >= 1 && k <= len(s.ahead) {
		return s.ahead[k-1]
	}
	// Both neighbours out of frame (a window wider than the image);
	// fall back to whatever retained row is closest to the centre.
	if len(s.above) > 0 {
		return s.above[len(s.above)-1]
	}
	return s.rows[len(s.rows)/2]
}

// windowNode implements the centred window protocol: one GetInputLine
// per batch consumes the row the batch produces output for, and up to
// half PeekInputLine calls — issued incrementally, since most of a
// batch's lookahead was already peeked by an earlier batch — extend the
// below-context queue. Edge rows mirror: the top edge borrows its
// missing above-rows from the rows already peeked below it, the bottom
// edge borrows its missing below-rows from retained above-rows, once
// the image runs out of new rows to peek.
func windowNode(kind Kind, window, width, pitch int) *pipeline.Node {
	half := window / 2
	return &pipeline.Node{
		Name:         "kernel(window)",
		InputFourCC:  format.RGB3,
		OutputFourCC: format.RGB3,
		WindowSize:   window,
		Threshold:    window * pitch,
		OutputPitch:  pitch,
		State:        newWindowState(window, pitch),
		Kernel: func(n *pipeline.Node) error {
			st := n.State.(*windowState)
			for {
				if err := produceOneRow(n, st, kind, window, half, width, pitch); err != nil {
					return err
				}
				remaining := n.Height - n.LineOffset
				if remaining == 0 {
					return nil
				}
				// Once every row still owed is already sitting in the
				// ring, no further upstream push will ever arrive to
				// re-trigger this node via Threshold — drain the rest
				// (mirroring the now-permanently-missing bottom rows)
				// right now instead of stalling forever.
				if n.Ring.Tailroom()/pitch < remaining {
					return nil
				}
			}
		},
	}
}

// produceOneRow consumes one centre row, tops up the below-context
// queue, computes and emits one output row, and retires the centre into
// the above-context queue.
func produceOneRow(n *pipeline.Node, st *windowState, kind Kind, window, half, width, pitch int) error {
	cur := n.GetInputLine()
	centre := n.LineOffset - 1
	if len(st.ahead) > 0 {
		st.ahead = st.ahead[1:]
	}

	need := half
	if last := n.Height - 1 - centre; need > last {
		need = last
	}
	for len(st.ahead) < need {
		row := n.PeekInputLine()
		cp := make([]byte, len(row))
		copy(cp, row)
		st.ahead = append(st.ahead, cp)
	}

	out := n.GetOutputLine()
	if out == nil {
		return n.Err()
	}

	for k := 1; k <= half; k++ {
		st.rows[half-k] = st.aboveAt(k)
		st.rows[half+k] = st.belowAt(k)
	}
	st.rows[half] = cur

	vertical := make([]byte, pitch)
	applyVertical(kind, window, st.rows, vertical)
	horizontalPass(kind, window, vertical, out, width)

	st.pushAbove(cur)
	return n.Done()
}

func applyVertical(kind Kind, window int, rows [][]byte, out []byte) {
	if kind == Identity {
		copy(out, rows[window/2])
		return
	}
	if kind == Median {
		medianVertical(rows, out)
		return
	}
	taps := taps3[kind]
	div := divisor3[kind]
	if window == 5 {
		for i := range out {
			var acc int32
			for r := 0; r < 5; r++ {
				acc += taps5[r] * int32(rows[r][i])
			}
			out[i] = clip8(acc / divisor5)
		}
		return
	}
	for i := range out {
		v := taps[0]*int32(rows[0][i]) + taps[1]*int32(rows[1][i]) + taps[2]*int32(rows[2][i])
		out[i] = clip8(v / div)
	}
}

func medianVertical(rows [][]byte, out []byte) {
	n := len(rows)
	buf := make([]byte, n)
	for i := range out {
		for r := 0; r < n; r++ {
			buf[r] = rows[r][i]
		}
		sortBytes(buf)
		out[i] = buf[n/2]
	}
}

func sortBytes(b []byte) {
	for i := 1; i < len(b); i++ {
		for j := i; j > 0 && b[j-1] > b[j]; j-- {
			b[j-1], b[j] = b[j], b[j-1]
		}
	}
}

func horizontalPass(kind Kind, window int, vertical, out []byte, width int) {
	if kind == Identity {
		copy(out, vertical)
		return
	}
	if kind == EdgeDetect {
		// A pure horizontal tap would cancel the vertical gradient, so
		// edge-detect's horizontal pass is the identity.
		copy(out, vertical)
		return
	}
	if kind == Median {
		medianHorizontal(vertical, out, width, window/2)
		return
	}
	taps := taps3[kind]
	div := divisor3[kind]
	if window == 5 {
		for x := 0; x < width; x++ {
			var idx [5]int
			for k := -2; k <= 2; k++ {
				idx[k+2] = clampIndex(x+k, width)
			}
			for ch := 0; ch < 3; ch++ {
				var acc int32
				for k := 0; k < 5; k++ {
					acc += taps5[k] * int32(vertical[idx[k]*3+ch])
				}
				out[x*3+ch] = clip8(acc / divisor5)
			}
		}
		return
	}
	for x := 0; x < width; x++ {
		l, c, r := clampIndex(x-1, width), x, clampIndex(x+1, width)
		for ch := 0; ch < 3; ch++ {
			v := taps[0]*int32(vertical[l*3+ch]) + taps[1]*int32(vertical[c*3+ch]) + taps[2]*int32(vertical[r*3+ch])
			out[x*3+ch] = clip8(v / div)
		}
	}
}

func medianHorizontal(vertical, out []byte, width, half int) {
	window := 2*half + 1
	buf := make([]byte, window)
	for x := 0; x < width; x++ {
		for ch := 0; ch < 3; ch++ {
			for k := -half; k <= half; k++ {
				buf[k+half] = vertical[clampIndex(x+k, width)*3+ch]
			}
			sortBytes(buf)
			out[x*3+ch] = buf[window/2]
		}
	}
}

func clampIndex(i, width int) int {
	if i < 0 {
		return 0
	}
	if i >= width {
		return width - 1
	}
	return i
}

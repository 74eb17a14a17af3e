// Package qoi implements the variable-rate QOI encoder family: RGB24
// input, output FourCC QOIF, pitch 0, window 1 (one row per call).
//
// The per-pixel opcode decision — previous-pixel run vs. a recently-seen
// colour vs. an encoded delta vs. a raw literal — is the same shape as
// internal/lossless/pixorcopy.go's pixel-or-copy token choice (literal,
// cache-index, or back-reference), generalised from VP8L's arbitrary-
// length LZ77-style back-references to QOI's fixed, much smaller opcode
// set (a 2-bit tag plus a handful of small fixed fields).
package qoi

import (
	"github.com/deepteams/mpix/internal/format"
	"github.com/deepteams/mpix/internal/pipeline"
)

const (
	opRGB   = 0xFE
	opRUN   = 0xC0 // bits 0..5: run length - 1 (1..62)
	opIndex = 0x00 // bits 0..5: hash index
	opDiff  = 0x40 // bits 0..1 each: dr,dg,db biased by +2
	opLuma  = 0x80 // bits 0..5: dg biased by +32; next byte: dr-dg, db-dg biased by +8
)

func hashIndex(r, g, b byte) int {
	return int(r*3+g*5+b*7) % 64
}

type encState struct {
	width, height int
	seen          [64][3]byte
	prevR, prevG, prevB byte
	runLen        int
	first         bool
}

// New builds a QOI encoder node over a width x height RGB24 source.
func New(width, height int) *pipeline.Node {
	pitch, _ := format.Pitch(width, format.RGB3)
	st := &encState{width: width, height: height, first: true}

	return &pipeline.Node{
		Name:         "compress(qoi)",
		InputFourCC:  format.RGB3,
		OutputFourCC: format.QOIF,
		WindowSize:   1,
		Threshold:    pitch,
		OutputPitch:  0,
		RingBytes:    pitch * 2,
		State:        st,
		Kernel: func(n *pipeline.Node) error {
			if st.first {
				if err := writeRawBytes(n, qoiHeader(width, height)); err != nil {
					n.Fail(err)
					return n.Err()
				}
				st.first = false
			}

			row := n.GetInputLine()
			var buf []byte
			buf = st.encodeRow(buf, row, width)
			if err := writeRawBytes(n, buf); err != nil {
				n.Fail(err)
				return n.Err()
			}

			if n.LineOffset >= n.Height {
				tail := st.flushRun(nil)
				tail = append(tail, 0, 0, 0, 0, 0, 0, 0, 1) // QOI end marker
				if err := writeRawBytes(n, tail); err != nil {
					n.Fail(err)
					return n.Err()
				}
			}
			return n.Done()
		},
	}
}

func qoiHeader(width, height int) []byte {
	h := make([]byte, 14)
	copy(h[0:4], "qoif")
	h[4] = byte(width >> 24)
	h[5] = byte(width >> 16)
	h[6] = byte(width >> 8)
	h[7] = byte(width)
	h[8] = byte(height >> 24)
	h[9] = byte(height >> 16)
	h[10] = byte(height >> 8)
	h[11] = byte(height)
	h[12] = 3 // channels
	h[13] = 0 // linear/sRGB: unspecified, matches most encoders' default
	return h
}

func (st *encState) flushRun(buf []byte) []byte {
	if st.runLen == 0 {
		return buf
	}
	buf = append(buf, opRUN|byte(st.runLen-1))
	st.runLen = 0
	return buf
}

func (st *encState) encodeRow(buf []byte, row []byte, width int) []byte {
	for x := 0; x < width; x++ {
		r, g, b := row[x*3], row[x*3+1], row[x*3+2]

		if r == st.prevR && g == st.prevG && b == st.prevB {
			st.runLen++
			if st.runLen == 62 {
				buf = st.flushRun(buf)
			}
			continue
		}
		buf = st.flushRun(buf)

		idx := hashIndex(r, g, b)
		if st.seen[idx][0] == r && st.seen[idx][1] == g && st.seen[idx][2] == b {
			buf = append(buf, opIndex|byte(idx))
		} else if dr, dg, db, ok := smallDiff(st.prevR, st.prevG, st.prevB, r, g, b); ok {
			buf = append(buf, opDiff|dr<<4|dg<<2|db)
		} else if dg, drg, dbg, ok := lumaDiff(st.prevR, st.prevG, st.prevB, r, g, b); ok {
			buf = append(buf, opLuma|dg, drg<<4|dbg)
		} else {
			buf = append(buf, opRGB, r, g, b)
		}

		st.seen[idx] = [3]byte{r, g, b}
		st.prevR, st.prevG, st.prevB = r, g, b
	}
	return buf
}

func smallDiff(pr, pg, pb, r, g, b byte) (dr, dg, db byte, ok bool) {
	vr := int8(r) - int8(pr)
	vg := int8(g) - int8(pg)
	vb := int8(b) - int8(pb)
	if vr < -2 || vr > 1 || vg < -2 || vg > 1 || vb < -2 || vb > 1 {
		return 0, 0, 0, false
	}
	return byte(vr + 2), byte(vg + 2), byte(vb + 2), true
}

func lumaDiff(pr, pg, pb, r, g, b byte) (dg, drg, dbg byte, ok bool) {
	vg := int16(g) - int16(pg)
	vrg := (int16(r) - int16(pr)) - vg
	vbg := (int16(b) - int16(pb)) - vg
	if vg < -32 || vg > 31 || vrg < -8 || vrg > 7 || vbg < -8 || vbg > 7 {
		return 0, 0, 0, false
	}
	return byte(vg + 32), byte(vrg + 8), byte(vbg + 8), true
}

func writeRawBytes(n *pipeline.Node, data []byte) error {
	for len(data) > 0 {
		free := n.PeekOutput()
		if len(free) == 0 {
			return errNoSpace(n)
		}
		k := len(data)
		if k > len(free) {
			k = len(free)
		}
		copy(free, data[:k])
		n.CommitOutput(k)
		data = data[k:]
	}
	return nil
}

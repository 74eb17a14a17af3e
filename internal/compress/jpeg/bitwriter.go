package jpeg

import "github.com/deepteams/mpix/internal/pipeline"

// bitWriter accumulates Huffman-coded bits MSB-first into whole bytes,
// byte-stuffing a 0x00 after every literal 0xFF so the entropy-coded
// scan never collides with a marker. Its pending-bits-plus-growable-
// buffer shape follows internal/bitio/writer_bool.go's BoolWriter, with
// the arithmetic range-coder state replaced by plain bit accumulation.
type bitWriter struct {
	buf    []byte
	bitBuf uint32
	nBits  int
}

func newBitWriter() *bitWriter {
	return &bitWriter{buf: make([]byte, 0, 256)}
}

// putBits appends the low n bits of v, MSB first.
func (w *bitWriter) putBits(v uint32, n int) {
	w.bitBuf = (w.bitBuf << uint(n)) | (v & ((1 << uint(n)) - 1))
	w.nBits += n
	for w.nBits >= 8 {
		w.nBits -= 8
		b := byte(w.bitBuf >> uint(w.nBits))
		w.buf = append(w.buf, b)
		if b == 0xFF {
			w.buf = append(w.buf, 0x00)
		}
	}
}

// flushToByte pads the pending partial byte with 1-bits (JPEG convention)
// and emits it.
func (w *bitWriter) flushToByte() {
	if w.nBits == 0 {
		return
	}
	pad := 8 - w.nBits
	w.putBits(uint32(1<<uint(pad))-1, pad)
}

// take returns and clears the accumulated byte buffer.
func (w *bitWriter) take() []byte {
	out := w.buf
	w.buf = make([]byte, 0, 256)
	return out
}

// flushBits drains whatever whole bytes the writer has accumulated out to
// the node's output ring via PeekOutput/CommitOutput, since the entropy
// stream has no fixed per-call size.
func flushBits(n *pipeline.Node, w *bitWriter) error {
	data := w.take()
	if len(data) == 0 {
		return nil
	}
	return writeRaw(n, data)
}

// writeRaw copies data into the successor's free region, growing the
// commit across as many PeekOutput calls as needed (PeekOutput returns
// only the current contiguous free span around the ring's write cursor).
func writeRaw(n *pipeline.Node, data []byte) error {
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

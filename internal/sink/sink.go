// Package sink implements the two terminal node kinds: an in-memory sink
// over a caller-owned destination buffer, and an io.Writer sink that
// drains its ring to an arbitrary writer, retrying short writes exactly
// the way io.Writer's contract requires and os.File.Write's callers in
// cmd/gwebp/main.go (os.Create, then write-until-done) assume.
package sink

import (
	"io"

	"github.com/deepteams/mpix/internal/errno"
	"github.com/deepteams/mpix/internal/pipeline"
	"github.com/deepteams/mpix/internal/ring"
)

// NewBuffer builds an in-memory sink over dst: the chain's final output
// ends up in dst[:n] where n is Builder.Finish's returned byte count.
// fourcc/width/height are left zero so Builder.Append inherits the
// chain's current geometry. The sink never consumes from its ring, so the
// bytes simply accumulate in dst; its threshold is len(dst), and its
// kernel, which runs only once dst is full, just marks the sink finished.
func NewBuffer(dst []byte) *pipeline.Node {
	n := &pipeline.Node{
		Name:       "sink(buffer)",
		WindowSize: 1,
		Threshold:  len(dst),
	}
	n.Ring = ring.NewLinear(dst)
	n.Kernel = func(n *pipeline.Node) error {
		n.LineOffset = n.Height
		return n.Done()
	}
	return n
}

// NewWriter builds a sink that streams every committed byte out to w as
// soon as it arrives, used for cmd/mpix's `write <file>` stage and any
// caller that wants to avoid holding the whole output in memory. Its ring
// is engine-owned (allocated by Builder.Finish like any intermediate
// node) sized by RingBytes.
func NewWriter(w io.Writer, ringBytes int) *pipeline.Node {
	n := &pipeline.Node{
		Name:       "sink(writer)",
		WindowSize: 1,
		Threshold:  1,
		RingBytes:  ringBytes,
	}
	n.Kernel = func(n *pipeline.Node) error {
		data := n.GetAllInput()
		if err := writeAll(w, data); err != nil {
			n.Fail(err)
			return err
		}
		if p := n.Prev(); p != nil {
			n.LineOffset = p.LineOffset
		}
		return n.Done()
	}
	return n
}

// writeAll retries short writes, per io.Writer's contract that "a short
// write without an error must be retried" — a negative byte count is not
// representable in Go's io.Writer, so here the only fatal case is err != nil.
func writeAll(w io.Writer, data []byte) error {
	for len(data) > 0 {
		n, err := w.Write(data)
		if err != nil {
			return errno.Wrap(errno.ENOSPC, "sink: write failed: "+err.Error())
		}
		if n <= 0 {
			return errno.Wrap(errno.ENOSPC, "sink: write made no progress")
		}
		data = data[n:]
	}
	return nil
}

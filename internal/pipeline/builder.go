package pipeline

import (
	"github.com/deepteams/mpix/internal/errno"
	"github.com/deepteams/mpix/internal/format"
	"github.com/deepteams/mpix/internal/ring"
)

// Builder appends, validates, allocates, and tears down a chain of
// operation nodes on behalf of the façade's Image type. It holds no
// pixel-math knowledge: operation-family packages build a ready-to-splice
// *Node (via their own New* constructors) and hand it to Append.
type Builder struct {
	head, tail *Node
	width, height int
	fourcc        format.FourCC
	err           error
}

// NewBuilder starts a chain over an input buffer of the given format. The
// head node's ring is seeded around buf and never allocated by the
// engine; its Kernel copies one line at a time into the first real op's
// (engine-owned, much smaller) ring, exactly like every other node's
// line transfer to its successor — the head is a real pipeline stage,
// not a passthrough, precisely so that a large pre-seeded input never
// has to fit whole inside a downstream op's bounded ring.
func NewBuilder(buf []byte, f format.Format) *Builder {
	b := &Builder{width: f.Width, height: f.Height, fourcc: f.FourCC}
	pitch, _ := format.Pitch(f.Width, f.FourCC)
	head := &Node{
		Name:         "input",
		InputFourCC:  f.FourCC,
		OutputFourCC: f.FourCC,
		Width:        f.Width,
		Height:       f.Height,
		WindowSize:   1,
		Threshold:    pitch,
		OutputPitch:  pitch,
		Ring:         ring.NewLinear(buf),
		Kernel: func(n *Node) error {
			in := n.GetInputLine()
			out := n.GetOutputLine()
			if out == nil {
				return n.Err()
			}
			copy(out, in)
			return n.Done()
		},
	}
	b.head, b.tail = head, head
	return b
}

// Err returns the builder's sticky error, if any.
func (b *Builder) Err() error { return b.err }

// Fail records the builder's sticky error. Only the first call has an
// effect, and subsequent Append/Finish calls short-circuit.
func (b *Builder) Fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Width and Height report the geometry downstream appends will see.
func (b *Builder) Width() int  { return b.width }
func (b *Builder) Height() int { return b.height }

// FourCC reports the format downstream appends must match as their input.
func (b *Builder) FourCC() format.FourCC { return b.fourcc }

// Append splices n onto the end of the chain. n.Width/Height, left at
// zero by the caller, are inherited from the chain's current geometry;
// a non-zero Width/Height marks n as a declared geometry-changer (resize,
// crop, subsample, or a debayer that halves a dimension) and is kept
// as-is. A node whose InputFourCC and OutputFourCC are both zero (the
// sinks) likewise inherits the chain's current FourCC.
func (b *Builder) Append(n *Node) error {
	if b.err != nil {
		return errno.ECANCELED
	}
	if n.InputFourCC == 0 && n.OutputFourCC == 0 {
		n.InputFourCC, n.OutputFourCC = b.fourcc, b.fourcc
	}
	if n.InputFourCC != b.fourcc {
		b.err = errno.Wrap(errno.EINVAL, n.Name+": input format does not match current chain output")
		b.teardownPartial()
		return b.err
	}
	if n.Width == 0 && n.Height == 0 {
		n.Width, n.Height = b.width, b.height
	}

	n.prev = b.tail
	b.tail.next = n
	b.tail = n

	outHeight := n.OutputHeight
	if outHeight == 0 {
		outHeight = n.Height
	}
	b.fourcc = n.OutputFourCC
	b.width, b.height = n.Width, outHeight
	return nil
}

// Finish appends the terminal sink node (ring already set to the caller's
// destination, external/linear), allocates every still-unallocated
// intermediate ring, seeds the head ring, runs the scheduler, and tears
// the pipeline down. It returns the total emitted byte count: the bytes
// the sink's kernel drained plus any still left in the sink's ring.
func (b *Builder) Finish(sink *Node, opts ...Option) (int, error) {
	cfg := config{driver: Run}
	for _, o := range opts {
		o(&cfg)
	}

	if err := b.Append(sink); err != nil {
		return 0, err
	}
	if b.err != nil {
		b.teardownPartial()
		return 0, b.err
	}

	drained := 0
	sinkKernel := sink.Kernel
	sink.Kernel = func(n *Node) error {
		before := n.Ring.Tailroom()
		err := sinkKernel(n)
		drained += before - n.Ring.Tailroom()
		return err
	}

	for n := b.head.next; n != nil; n = n.next {
		if n.Ring == nil {
			size := n.RingBytes
			if size <= 0 {
				size = defaultRingBytes(n)
			}
			n.Ring = ring.NewCircular(size)
			n.OwnsRing = true
		}
	}

	b.head.Ring.SeedFull()
	if b.head.Ring.Cap() < b.head.Threshold {
		b.err = errno.Wrap(errno.ENOSPC, "input ring smaller than head threshold")
		b.teardownAll()
		return 0, b.err
	}

	if err := cfg.driver(b.head); err != nil {
		b.err = err
		b.teardownAll()
		return 0, err
	}

	n := drained + sink.Ring.Tailroom()
	b.teardownAll()
	return n, nil
}

// Close tears down a partially built pipeline without running it, e.g.
// when the caller abandons an Image instead of calling ToBuf.
func (b *Builder) Close() {
	b.teardownAll()
}

func (b *Builder) teardownPartial() {
	for n := b.head; n != nil; {
		next := n.next
		if n != b.head && n.Ring != nil {
			n.Ring.Close()
		}
		n = next
	}
}

func (b *Builder) teardownAll() {
	for n := b.head; n != nil; {
		next := n.next
		if n.Ring != nil {
			n.Ring.Close()
		}
		n = next
	}
	b.head, b.tail = nil, nil
}

// defaultRingBytes sizes an engine-owned ring to the node's own
// consumption threshold plus one extra input line of slack, so the
// producer can stay one line ahead of the consumer without blocking.
func defaultRingBytes(n *Node) int {
	pitch, err := format.Pitch(n.Width, n.InputFourCC)
	if err != nil || pitch == 0 {
		// Variable-pitch input (shouldn't normally reach a ring-sizing
		// decision, since compressors are always the producer side of
		// a ring, not the consumer) — fall back to the threshold alone.
		if n.Threshold > 0 {
			return n.Threshold
		}
		return 4096
	}
	return n.Threshold + pitch
}

// Option configures a Builder.Finish run.
type Option func(*config)

type config struct {
	driver func(*Node) error
}

// WithIterativeScheduler selects the iterative work-queue driver
// instead of the default recursive one. Both produce identical
// observable behaviour; the iterative form trades recursion depth for a
// small heap-allocated queue, useful for very deep chains.
func WithIterativeScheduler() Option {
	return func(c *config) { c.driver = RunIterative }
}

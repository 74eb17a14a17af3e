// Package pipeline implements the core streaming engine: the operation
// node, the chain builder, and the demand-driven scheduler described by
// the mpix design. Operation families (internal/convert, internal/kernel,
// internal/bayer, ...) construct a ready-to-splice *Node directly and
// supply its Kernel closure; this package never imports a pixel-math
// package back.
package pipeline

import (
	"time"

	"github.com/deepteams/mpix/internal/errno"
	"github.com/deepteams/mpix/internal/format"
	"github.com/deepteams/mpix/internal/ring"
)

// KernelFunc is the per-batch worker a Node runs. It must either consume
// exactly one window's worth of input and finish by returning n.Done(), or
// (for variable-rate compressors and the sink) drain everything currently
// available and return n.Done() once. A centred-window kernel is a third
// case: on the final batch it may need to emit more than one row — every
// row still owed once the image stops supplying new lookahead — and so
// may call Done() more than once before returning, each call still
// finishing exactly one output row. A non-nil error that did not come
// from Done aborts the whole pipeline without recursing into the
// successor.
type KernelFunc func(n *Node) error

// Node is the base record shared by every operation family. Family-
// specific parameters and scratch state live behind State, a tagged
// payload the Kernel closure owns and type-asserts — the Go rendition of
// the design note's "tagged variant instead of void-pointer downcast."
type Node struct {
	Name                       string
	InputFourCC, OutputFourCC  format.FourCC
	Width, Height              int
	// OutputHeight is the row count this node declares to whatever
	// Builder.Append splices on afterward. Zero means "same as Height" —
	// true for every node whose output has one row per input row. A node
	// that consumes a different number of input rows than it produces
	// output rows (resize, crop, subsample) sets Height to
	// its own termination bound — the total input rows it will ever pull
	// via GetInputLine(s), since that is what LineOffset counts — and
	// OutputHeight to the row count it actually hands downstream.
	OutputHeight               int
	LineOffset                 int
	WindowSize                 int
	Threshold                  int
	OutputPitch                int // 0 for variable-rate producers
	RingBytes                  int // 0 asks the builder to size the ring automatically
	Ring                       *ring.Ring
	OwnsRing                   bool
	Kernel                     KernelFunc
	State                      any

	Calls int
	Busy  time.Duration

	prev, next *Node
	start      time.Time
	err        error

	sched  scheduler // nil means "drive via the package-level recursive Run"
	queued bool      // iterative scheduler bookkeeping; unused in recursive mode
}

// scheduler lets Done's notion of "drive the successor" be swapped between
// the recursive and iterative forms without either form's
// kernels needing to know which one is active.
type scheduler interface {
	advance(n *Node) error
}

// beginTiming resets the node's start-of-batch timestamp; both the
// recursive and iterative drivers call it before entering a node's
// readiness loop.
func (n *Node) beginTiming() { n.start = time.Now() }

// Next returns the node's successor, or nil at the tail (the sink).
func (n *Node) Next() *Node { return n.next }

// Prev returns the node's predecessor, or nil at the head.
func (n *Node) Prev() *Node { return n.prev }

// Err returns the first runtime error recorded against this node, if any.
func (n *Node) Err() error { return n.err }

// Fail records a sticky runtime error on the node. Only the first call has
// an effect — only the first runtime error recorded against an image sticks.
func (n *Node) Fail(err error) {
	if n.err == nil {
		n.err = err
	}
}

// GetInputLine consumes one pitch-sized block from the node's own ring,
// advancing LineOffset by one.
func (n *Node) GetInputLine() []byte {
	return n.GetInputLines(1)
}

// GetInputLines consumes k contiguous input lines, advancing LineOffset by
// k.
func (n *Node) GetInputLines(k int) []byte {
	pitch, err := format.Pitch(n.Width, n.InputFourCC)
	if err != nil {
		n.Fail(errno.Wrap(errno.EINVAL, n.Name))
		return nil
	}
	data := n.Ring.Read(pitch * k)
	n.LineOffset += k
	return data
}

// PeekInputLine advances the peek cursor by one pitch-sized block without
// consuming it, for upper/lower window context.
func (n *Node) PeekInputLine() []byte {
	return n.PeekInputLines(1)
}

// PeekInputLines advances the peek cursor by k lines without consuming
// them.
func (n *Node) PeekInputLines(k int) []byte {
	pitch, err := format.Pitch(n.Width, n.InputFourCC)
	if err != nil {
		n.Fail(errno.Wrap(errno.EINVAL, n.Name))
		return nil
	}
	return n.Ring.Peek(pitch * k)
}

// GetAllInput consumes every byte currently available in the node's ring,
// for variable-rate compressors that don't work one fixed-size line at a
// time.
func (n *Node) GetAllInput() []byte {
	return n.Ring.ReadAll()
}

// GetOutputLine reserves one successor-pitch block in the successor's
// ring and returns it for the kernel to fill directly.
func (n *Node) GetOutputLine() []byte {
	b, ok := n.next.Ring.Write(n.OutputPitch)
	if !ok {
		n.Fail(errno.Wrap(errno.ENOSPC, n.Name+": output ring exhausted"))
		return nil
	}
	return b
}

// PeekOutput returns the entire contiguous free region of the successor's
// ring, for encoders that don't know their output size up front. Commit
// the bytes actually used with CommitOutput.
func (n *Node) PeekOutput() []byte {
	return n.next.Ring.PeekFreeRegion()
}

// CommitOutput commits exactly the given number of bytes of previously
// peeked output.
func (n *Node) CommitOutput(written int) {
	n.next.Ring.CommitWrite(written)
}

// Done marks the current batch complete: it stops this node's timing
// accumulator, recursively drives the successor, and resumes timing on
// return. Kernels finish by `return n.Done()`.
func (n *Node) Done() error {
	n.Busy += time.Since(n.start)
	n.Calls++
	var err error
	switch {
	case n.sched != nil:
		err = n.sched.advance(n)
	case n.next != nil:
		err = Run(n.next)
	}
	n.start = time.Now()
	return err
}

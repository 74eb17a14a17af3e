package pipeline

import (
	"bytes"
	"testing"

	"github.com/deepteams/mpix/internal/format"
	"github.com/deepteams/mpix/internal/ring"
)

// identityKernel copies one input line straight to the output ring,
// exercising the one-to-one convert family's contract (window 1,
// threshold = one input pitch) without depending on internal/convert.
func identityKernel(n *Node) error {
	in := n.GetInputLine()
	out := n.GetOutputLine()
	if out == nil {
		return n.Err()
	}
	copy(out, in)
	return n.Done()
}

func newIdentityNode(width, height int) *Node {
	pitch, _ := format.Pitch(width, format.RGB3)
	return &Node{
		Name:         "identity",
		InputFourCC:  format.RGB3,
		OutputFourCC: format.RGB3,
		WindowSize:   1,
		Threshold:    pitch,
		OutputPitch:  pitch,
		Kernel:       identityKernel,
	}
}

func newSinkNode(dst []byte, width int) *Node {
	return &Node{
		Name:         "sink",
		InputFourCC:  format.RGB3,
		OutputFourCC: format.RGB3,
		WindowSize:   1,
		Threshold:    1,
		Kernel: func(n *Node) error {
			n.GetAllInput()
			if n.prev != nil {
				n.LineOffset = n.prev.LineOffset
			}
			return n.Done()
		},
	}
}

func TestPipeline_IdentityRoundTrip(t *testing.T) {
	const w, h = 4, 4
	pitch, _ := format.Pitch(w, format.RGB3)
	input := make([]byte, pitch*h)
	for i := range input {
		input[i] = byte(i)
	}

	b := NewBuilder(input, format.Format{Width: w, Height: h, FourCC: format.RGB3})
	op := newIdentityNode(w, h)
	if err := b.Append(op); err != nil {
		t.Fatalf("Append: %v", err)
	}

	dst := make([]byte, pitch*h)
	sink := newSinkNode(dst, w)
	sink.Ring = ring.NewLinear(dst)

	n, err := b.Finish(sink)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if n != len(input) {
		t.Fatalf("Finish returned %d bytes, want %d", n, len(input))
	}
	if !bytes.Equal(dst, input) {
		t.Fatalf("output mismatch:\n got %v\nwant %v", dst, input)
	}
	if op.LineOffset != h {
		t.Fatalf("op.LineOffset = %d, want %d", op.LineOffset, h)
	}
	if sink.LineOffset != h {
		t.Fatalf("sink.LineOffset = %d, want %d", sink.LineOffset, h)
	}
}

func TestPipeline_IterativeSchedulerMatchesRecursive(t *testing.T) {
	const w, h = 4, 8
	pitch, _ := format.Pitch(w, format.RGB3)
	input := make([]byte, pitch*h)
	for i := range input {
		input[i] = byte(i * 3)
	}

	b := NewBuilder(input, format.Format{Width: w, Height: h, FourCC: format.RGB3})
	op := newIdentityNode(w, h)
	if err := b.Append(op); err != nil {
		t.Fatalf("Append: %v", err)
	}
	dst := make([]byte, pitch*h)
	sink := newSinkNode(dst, w)
	sink.Ring = ring.NewLinear(dst)

	n, err := b.Finish(sink, WithIterativeScheduler())
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if n != len(input) || !bytes.Equal(dst, input) {
		t.Fatalf("iterative scheduler produced wrong output: n=%d", n)
	}
}

func TestBuilder_FourCCMismatchSetsStickyError(t *testing.T) {
	const w, h = 2, 2
	input := make([]byte, 2*2*3)
	b := NewBuilder(input, format.Format{Width: w, Height: h, FourCC: format.RGB3})

	bad := newIdentityNode(w, h)
	bad.InputFourCC = format.GREY
	if err := b.Append(bad); err == nil {
		t.Fatal("Append with mismatched InputFourCC should fail")
	}

	dst := make([]byte, 16)
	sink := newSinkNode(dst, w)
	sink.Ring = ring.NewLinear(dst)
	if _, err := b.Finish(sink); err == nil {
		t.Fatal("Finish after a sticky error should fail")
	}
}

func TestBuilder_RingMemoryBoundedByWindowTimesPitch(t *testing.T) {
	const w, h = 64, 480
	pitch, _ := format.Pitch(w, format.RGB3)
	input := make([]byte, pitch*h)

	b := NewBuilder(input, format.Format{Width: w, Height: h, FourCC: format.RGB3})
	op := newIdentityNode(w, h)
	var observedCap int
	base := op.Kernel
	op.Kernel = func(n *Node) error {
		if observedCap == 0 {
			observedCap = n.Ring.Cap()
		}
		return base(n)
	}
	if err := b.Append(op); err != nil {
		t.Fatalf("Append: %v", err)
	}
	dst := make([]byte, pitch*h)
	sink := newSinkNode(dst, w)
	sink.Ring = ring.NewLinear(dst)

	if _, err := b.Finish(sink); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	// The op's ring was sized by defaultRingBytes to threshold+pitch
	// (window_size=1), independent of image height — not threshold*h.
	want := op.Threshold + pitch
	if observedCap != want {
		t.Fatalf("ring capacity = %d, want %d", observedCap, want)
	}
}

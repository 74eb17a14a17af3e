package bayer

import (
	"testing"

	"github.com/deepteams/mpix/internal/format"
	"github.com/deepteams/mpix/internal/pipeline"
	"github.com/deepteams/mpix/internal/ring"
)

func runDebayer(t *testing.T, n *pipeline.Node, cfa []byte, width, height int) []byte {
	t.Helper()
	out := make([]byte, width*height*3)
	b := pipeline.NewBuilder(cfa, format.Format{Width: width, Height: height, FourCC: n.InputFourCC})
	if err := b.Append(n); err != nil {
		t.Fatal(err)
	}
	sink := &pipeline.Node{Name: "sink", InputFourCC: format.RGB3, OutputFourCC: format.RGB3, WindowSize: 1, Threshold: 1,
		Kernel: func(s *pipeline.Node) error { s.GetAllInput(); return s.Done() }}
	sink.Ring = ring.NewLinear(out)
	if _, err := b.Finish(sink); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestReplicateProducesGreyFromUniformCFA(t *testing.T) {
	const w, h = 4, 2
	cfa := make([]byte, w*h)
	for i := range cfa {
		cfa[i] = 200
	}
	n := New(Replicate, format.RGGB, w, h)
	out := runDebayer(t, n, cfa, w, h)
	for i := 0; i < w*h; i++ {
		if out[i*3] != 200 || out[i*3+1] != 200 || out[i*3+2] != 200 {
			t.Fatalf("pixel %d not uniform: %v", i, out[i*3:i*3+3])
		}
	}
}

func TestPairDebayerUniformFieldStaysUniform(t *testing.T) {
	const w, h = 4, 4
	cfa := make([]byte, w*h)
	for i := range cfa {
		cfa[i] = 128
	}
	n := New(Pair, format.RGGB, w, h)
	out := runDebayer(t, n, cfa, w, h)
	for i := 0; i < w*h; i++ {
		for c := 0; c < 3; c++ {
			if out[i*3+c] != 128 {
				t.Fatalf("pixel %d channel %d = %d, want 128", i, c, out[i*3+c])
			}
		}
	}
}

func TestTripleDebayerRuns(t *testing.T) {
	const w, h = 4, 4
	cfa := make([]byte, w*h)
	for i := range cfa {
		cfa[i] = byte(i * 7 % 256)
	}
	n := New(Triple, format.BGGR, w, h)
	out := runDebayer(t, n, cfa, w, h)
	if len(out) != w*h*3 {
		t.Fatalf("output length = %d, want %d", len(out), w*h*3)
	}
}

func TestPhaseBytesMatchFourCCLetters(t *testing.T) {
	pb := phaseBytes(format.RGGB)
	if pb != [4]byte{'R', 'G', 'G', 'B'} {
		t.Fatalf("phaseBytes(RGGB) = %v", pb)
	}
}

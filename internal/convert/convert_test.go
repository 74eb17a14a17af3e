package convert

import (
	"errors"
	"testing"

	"github.com/deepteams/mpix/internal/errno"
	"github.com/deepteams/mpix/internal/format"
	"github.com/deepteams/mpix/internal/pipeline"
	"github.com/deepteams/mpix/internal/ring"
)

func TestRGB24RoundTripThroughRGB565(t *testing.T) {
	const w, h = 4, 1
	src := []byte{10, 20, 30, 200, 100, 50, 0, 0, 0, 255, 255, 255}
	toForward, err := New(w, h, format.RGB3, format.RGBP)
	if err != nil {
		t.Fatal(err)
	}
	out565 := make([]byte, w*2)
	b := pipeline.NewBuilder(src, format.Format{Width: w, Height: h, FourCC: format.RGB3})
	if err := b.Append(toForward); err != nil {
		t.Fatal(err)
	}
	sink := &pipeline.Node{Name: "sink", InputFourCC: format.RGBP, OutputFourCC: format.RGBP, WindowSize: 1, Threshold: 1,
		Kernel: func(n *pipeline.Node) error { n.GetAllInput(); return n.Done() }}
	sink.Ring = ring.NewLinear(out565)
	if _, err := b.Finish(sink); err != nil {
		t.Fatal(err)
	}

	toBack, err := New(w, h, format.RGBP, format.RGB3)
	if err != nil {
		t.Fatal(err)
	}
	out24 := make([]byte, w*3)
	b2 := pipeline.NewBuilder(out565, format.Format{Width: w, Height: h, FourCC: format.RGBP})
	if err := b2.Append(toBack); err != nil {
		t.Fatal(err)
	}
	sink2 := &pipeline.Node{Name: "sink", InputFourCC: format.RGB3, OutputFourCC: format.RGB3, WindowSize: 1, Threshold: 1,
		Kernel: func(n *pipeline.Node) error { n.GetAllInput(); return n.Done() }}
	sink2.Ring = ring.NewLinear(out24)
	if _, err := b2.Finish(sink2); err != nil {
		t.Fatal(err)
	}

	// RGB565 quantizes to 5/6/5 bits; round trip should stay within one
	// quantization step per channel.
	for i := 0; i < w; i++ {
		for c := 0; c < 3; c++ {
			diff := int(src[i*3+c]) - int(out24[i*3+c])
			if diff < 0 {
				diff = -diff
			}
			if diff > 8 {
				t.Fatalf("pixel %d channel %d: %d vs %d", i, c, src[i*3+c], out24[i*3+c])
			}
		}
	}
}

func TestGreyConversionKeepsMidGrey(t *testing.T) {
	const w, h = 2, 1
	src := []byte{128, 128, 128, 64, 64, 64}
	n, err := New(w, h, format.RGB3, format.GREY)
	if err != nil {
		t.Fatal(err)
	}
	out := make([]byte, w)
	b := pipeline.NewBuilder(src, format.Format{Width: w, Height: h, FourCC: format.RGB3})
	if err := b.Append(n); err != nil {
		t.Fatal(err)
	}
	sink := &pipeline.Node{Name: "sink", InputFourCC: format.GREY, OutputFourCC: format.GREY, WindowSize: 1, Threshold: 1,
		Kernel: func(n *pipeline.Node) error { n.GetAllInput(); return n.Done() }}
	sink.Ring = ring.NewLinear(out)
	if _, err := b.Finish(sink); err != nil {
		t.Fatal(err)
	}
	if out[0] < 100 || out[0] > 160 {
		t.Fatalf("grey(128,128,128) = %d, want roughly mid-grey", out[0])
	}
}

func TestNoPathReturnsENOSYS(t *testing.T) {
	if _, err := New(4, 1, format.BA81, format.GREY); !errors.Is(err, errno.ENOSYS) {
		t.Fatalf("expected ENOSYS for unimplemented conversion pair, got %v", err)
	}
}

func TestYUVC420RequiresEvenGeometry(t *testing.T) {
	if _, err := New(3, 2, format.RGB3, format.YUVC); err == nil {
		t.Fatal("expected error for odd width")
	}
	if _, err := New(4, 3, format.RGB3, format.YUVC); err == nil {
		t.Fatal("expected error for odd height")
	}
}

func TestYUVC420RoundTrip(t *testing.T) {
	const w, h = 2, 2
	src := []byte{
		200, 0, 0, 200, 0, 0,
		200, 0, 0, 200, 0, 0,
	}
	toYUVC, err := New(w, h, format.RGB3, format.YUVC)
	if err != nil {
		t.Fatal(err)
	}
	outYUVC := make([]byte, w*h*3/2)
	b := pipeline.NewBuilder(src, format.Format{Width: w, Height: h, FourCC: format.RGB3})
	if err := b.Append(toYUVC); err != nil {
		t.Fatal(err)
	}
	sink := &pipeline.Node{Name: "sink", InputFourCC: format.YUVC, OutputFourCC: format.YUVC, WindowSize: 1, Threshold: 1,
		Kernel: func(n *pipeline.Node) error { n.GetAllInput(); return n.Done() }}
	sink.Ring = ring.NewLinear(outYUVC)
	if _, err := b.Finish(sink); err != nil {
		t.Fatal(err)
	}

	toRGB, err := New(w, h, format.YUVC, format.RGB3)
	if err != nil {
		t.Fatal(err)
	}
	outRGB := make([]byte, w*h*3)
	b2 := pipeline.NewBuilder(outYUVC, format.Format{Width: w, Height: h, FourCC: format.YUVC})
	if err := b2.Append(toRGB); err != nil {
		t.Fatal(err)
	}
	sink2 := &pipeline.Node{Name: "sink", InputFourCC: format.RGB3, OutputFourCC: format.RGB3, WindowSize: 1, Threshold: 1,
		Kernel: func(n *pipeline.Node) error { n.GetAllInput(); return n.Done() }}
	sink2.Ring = ring.NewLinear(outRGB)
	if _, err := b2.Finish(sink2); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < len(src); i++ {
		diff := int(src[i]) - int(outRGB[i])
		if diff < 0 {
			diff = -diff
		}
		if diff > 12 {
			t.Fatalf("byte %d: %d vs %d", i, src[i], outRGB[i])
		}
	}
}

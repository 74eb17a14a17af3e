package jpeg

import (
	"bytes"
	stdjpeg "image/jpeg"
	"testing"

	"github.com/deepteams/mpix/internal/format"
	"github.com/deepteams/mpix/internal/pipeline"
	"github.com/deepteams/mpix/internal/ring"
)

func encode(t *testing.T, width, height int, rgb []byte, opts Options) []byte {
	t.Helper()
	n, err := New(width, height, opts)
	if err != nil {
		t.Fatal(err)
	}
	out := make([]byte, 0, width*height*3)
	buf := make([]byte, width*height*4+1024)
	sink := &pipeline.Node{
		Name: "sink", InputFourCC: format.JPEG, OutputFourCC: format.JPEG,
		WindowSize: 1, Threshold: 1,
		Kernel: func(s *pipeline.Node) error {
			out = append(out, s.GetAllInput()...)
			return s.Done()
		},
	}
	sink.Ring = ring.NewLinear(buf)

	b := pipeline.NewBuilder(rgb, format.Format{Width: width, Height: height, FourCC: format.RGB3})
	if err := b.Append(n); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Finish(sink); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestEncodeProducesDecodableJPEG(t *testing.T) {
	const w, h = 16, 8
	rgb := make([]byte, w*h*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 3
			rgb[i] = byte(x * 16)
			rgb[i+1] = byte(y * 32)
			rgb[i+2] = 128
		}
	}

	out := encode(t, w, h, rgb, Options{Quality: 85})
	if len(out) < 4 || out[0] != 0xFF || out[1] != 0xD8 {
		t.Fatalf("missing SOI marker: %x", out[:4])
	}
	if out[len(out)-2] != 0xFF || out[len(out)-1] != 0xD9 {
		t.Fatalf("missing EOI marker: %x", out[len(out)-2:])
	}

	img, err := stdjpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("standard decoder rejected our stream: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != w || bounds.Dy() != h {
		t.Fatalf("decoded size = %dx%d, want %dx%d", bounds.Dx(), bounds.Dy(), w, h)
	}
}

func TestRejectsNonMultipleOf8Geometry(t *testing.T) {
	if _, err := New(10, 8, Options{}); err == nil {
		t.Fatal("expected error for width not a multiple of 8")
	}
	if _, err := New(8, 10, Options{}); err == nil {
		t.Fatal("expected error for height not a multiple of 8")
	}
}

package mpix_test

import (
	"bytes"
	"errors"
	"image/jpeg"
	"testing"

	"github.com/deepteams/mpix"
)

func solidRGB(w, h int, r, g, b byte) []byte {
	buf := make([]byte, w*h*3)
	for i := 0; i < w*h; i++ {
		buf[i*3], buf[i*3+1], buf[i*3+2] = r, g, b
	}
	return buf
}

func TestResizeThenConvertToGrey(t *testing.T) {
	const w, h = 8, 8
	src := solidRGB(w, h, 200, 100, 50)

	out := make([]byte, 4*4)
	n, err := mpix.FromBuf(src, mpix.Format{Width: w, Height: h, FourCC: mpix.RGB3}).
		Resize(4, 4).
		Convert(mpix.GREY).
		ToBuf(out)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(out) {
		t.Fatalf("expected %d bytes, got %d", len(out), n)
	}
	for _, v := range out {
		if v == 0 {
			t.Fatalf("unexpected zero luma byte in a non-black source: %v", out)
		}
	}
}

func TestUnknownConversionIsSticky(t *testing.T) {
	const w, h = 2, 2
	src := solidRGB(w, h, 1, 2, 3)
	out := make([]byte, 64)

	img := mpix.FromBuf(src, mpix.Format{Width: w, Height: h, FourCC: mpix.RGB3}).
		Convert(mpix.QOIF) // not a registered pixel-format conversion

	if _, err := img.ToBuf(out); !errors.Is(err, mpix.ErrNotImplemented) {
		t.Fatalf("expected ErrNotImplemented, got %v", err)
	}

	// A further call on the same chain must also report the sticky error,
	// not attempt to run a half-built pipeline.
	if _, err := img.JPEGEncode(mpix.JPEGOptions{}).ToBuf(out); !errors.Is(err, mpix.ErrCancelled) && !errors.Is(err, mpix.ErrNotImplemented) {
		t.Fatalf("expected the sticky error to persist, got %v", err)
	}
}

func TestCorrectionBlackLevelViaCtrl(t *testing.T) {
	const w, h = 4, 1
	src := solidRGB(w, h, 50, 50, 50)
	out := make([]byte, w*h*3)

	img := mpix.FromBuf(src, mpix.Format{Width: w, Height: h, FourCC: mpix.RGB3}).Correction()
	if err := img.Ctrl(mpix.SlotBlackLevel, 30); err != nil {
		t.Fatal(err)
	}
	if _, err := img.ToBuf(out); err != nil {
		t.Fatal(err)
	}
	if out[0] != 20 {
		t.Fatalf("expected black level 30 subtracted from 50, got %d", out[0])
	}
}

func TestPaletteRoundTrip(t *testing.T) {
	const w, h = 4, 1
	src := []byte{
		0, 0, 0,
		255, 255, 255,
		250, 2, 1,
		1, 250, 3,
	}
	table := &mpix.Palette{
		FourCC: mpix.PLT(4),
		Table: []byte{
			0, 0, 0,
			255, 255, 255,
			255, 0, 0,
			0, 255, 0,
		},
	}

	packed := make([]byte, 2)
	enc := mpix.FromBuf(src, mpix.Format{Width: w, Height: h, FourCC: mpix.RGB3}).PaletteEncode(4)
	if err := enc.SetPalette(table); err != nil {
		t.Fatal(err)
	}
	if _, err := enc.ToBuf(packed); err != nil {
		t.Fatal(err)
	}

	out := make([]byte, w*3)
	dec := mpix.FromBuf(packed, mpix.Format{Width: w, Height: h, FourCC: mpix.PLT(4)}).PaletteDecode()
	if err := dec.SetPalette(table); err != nil {
		t.Fatal(err)
	}
	if _, err := dec.ToBuf(out); err != nil {
		t.Fatal(err)
	}
	if out[0] != 0 || out[3] != 255 || out[6] != 255 || out[9] != 0 {
		t.Fatalf("palette round trip mismatch: %v", out)
	}
}

func TestJPEGEncodeProducesDecodableImage(t *testing.T) {
	const w, h = 16, 8
	src := make([]byte, w*h*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 3
			src[i], src[i+1], src[i+2] = byte(x*16), byte(y*32), 128
		}
	}
	dst := make([]byte, w*h*4+4096)
	n, err := mpix.FromBuf(src, mpix.Format{Width: w, Height: h, FourCC: mpix.RGB3}).
		JPEGEncode(mpix.JPEGOptions{Quality: 90}).
		ToBuf(dst)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(dst[:n]))
	if err != nil {
		t.Fatalf("produced bytes did not decode as JPEG: %v", err)
	}
	if cfg.Width != w || cfg.Height != h {
		t.Fatalf("decoded geometry %dx%d, want %dx%d", cfg.Width, cfg.Height, w, h)
	}
}

func TestQOIEncodeProducesHeaderAndEndMarker(t *testing.T) {
	const w, h = 4, 4
	src := solidRGB(w, h, 10, 20, 30)
	dst := make([]byte, 14+w*h*4+8)
	n, err := mpix.FromBuf(src, mpix.Format{Width: w, Height: h, FourCC: mpix.RGB3}).
		QOIEncode().
		ToBuf(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(dst[:4]) != "qoif" {
		t.Fatalf("missing qoif magic: %v", dst[:4])
	}
	tail := dst[n-8 : n]
	want := []byte{0, 0, 0, 0, 0, 0, 0, 1}
	if !bytes.Equal(tail, want) {
		t.Fatalf("missing QOI end marker: %v", tail)
	}
}

func TestDebayerRequiresBayerPhase(t *testing.T) {
	const w, h = 4, 4
	src := solidRGB(w, h, 1, 2, 3)
	out := make([]byte, w*h*3)
	_, err := mpix.FromBuf(src, mpix.Format{Width: w, Height: h, FourCC: mpix.RGB3}).
		Debayer(mpix.DebayerReplicate).
		ToBuf(out)
	if !errors.Is(err, mpix.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for debayering a non-Bayer source, got %v", err)
	}
}

func TestIterativeSchedulerMatchesRecursive(t *testing.T) {
	const w, h = 8, 8
	src := solidRGB(w, h, 5, 6, 7)

	outRec := make([]byte, w*h)
	if _, err := mpix.FromBuf(src, mpix.Format{Width: w, Height: h, FourCC: mpix.RGB3}).
		Convert(mpix.GREY).ToBuf(outRec); err != nil {
		t.Fatal(err)
	}

	outIter := make([]byte, w*h)
	if _, err := mpix.FromBuf(src, mpix.Format{Width: w, Height: h, FourCC: mpix.RGB3}).
		Convert(mpix.GREY).ToBuf(outIter, mpix.WithIterativeScheduler()); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(outRec, outIter) {
		t.Fatalf("iterative scheduler diverged from recursive: %v vs %v", outIter, outRec)
	}
}

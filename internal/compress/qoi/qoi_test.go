package qoi

import (
	"testing"

	"github.com/deepteams/mpix/internal/format"
	"github.com/deepteams/mpix/internal/pipeline"
	"github.com/deepteams/mpix/internal/ring"
)

func encode(t *testing.T, width, height int, rgb []byte) []byte {
	t.Helper()
	n := New(width, height)
	out := make([]byte, 0, len(rgb)+64)
	buf := make([]byte, len(rgb)*2+256)
	sink := &pipeline.Node{
		Name: "sink", InputFourCC: format.QOIF, OutputFourCC: format.QOIF,
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

// decodeQOI is a minimal reference decoder used only to check round-trip
// fidelity in tests; it mirrors the opcode table the encoder writes.
func decodeQOI(t *testing.T, data []byte) (width, height int, rgb []byte) {
	t.Helper()
	if len(data) < 14 || string(data[0:4]) != "qoif" {
		t.Fatalf("bad header")
	}
	width = int(data[4])<<24 | int(data[5])<<16 | int(data[6])<<8 | int(data[7])
	height = int(data[8])<<24 | int(data[9])<<16 | int(data[10])<<8 | int(data[11])
	rgb = make([]byte, width*height*3)

	var seen [64][3]byte
	var pr, pg, pb byte
	pos := 14
	px := 0
	for px < width*height && pos < len(data) {
		b0 := data[pos]
		switch {
		case b0 == opRGB:
			pr, pg, pb = data[pos+1], data[pos+2], data[pos+3]
			pos += 4
			rgb[px*3], rgb[px*3+1], rgb[px*3+2] = pr, pg, pb
			seen[hashIndex(pr, pg, pb)] = [3]byte{pr, pg, pb}
			px++
		case b0&0xC0 == opRUN:
			run := int(b0&0x3F) + 1
			for i := 0; i < run; i++ {
				rgb[px*3], rgb[px*3+1], rgb[px*3+2] = pr, pg, pb
				px++
			}
			pos++
		case b0&0xC0 == opIndex:
			idx := b0 & 0x3F
			c := seen[idx]
			pr, pg, pb = c[0], c[1], c[2]
			rgb[px*3], rgb[px*3+1], rgb[px*3+2] = pr, pg, pb
			px++
			pos++
		case b0&0xC0 == opDiff:
			dr := int(b0>>4&0x3) - 2
			dg := int(b0>>2&0x3) - 2
			db := int(b0&0x3) - 2
			pr, pg, pb = byte(int(pr)+dr), byte(int(pg)+dg), byte(int(pb)+db)
			rgb[px*3], rgb[px*3+1], rgb[px*3+2] = pr, pg, pb
			seen[hashIndex(pr, pg, pb)] = [3]byte{pr, pg, pb}
			px++
			pos++
		case b0&0xC0 == opLuma:
			dg := int(b0&0x3F) - 32
			b1 := data[pos+1]
			drg := int(b1>>4&0xF) - 8
			dbg := int(b1&0xF) - 8
			pr = byte(int(pr) + dg + drg)
			pg = byte(int(pg) + dg)
			pb = byte(int(pb) + dg + dbg)
			rgb[px*3], rgb[px*3+1], rgb[px*3+2] = pr, pg, pb
			seen[hashIndex(pr, pg, pb)] = [3]byte{pr, pg, pb}
			px++
			pos += 2
		default:
			t.Fatalf("unknown opcode %#x at %d", b0, pos)
		}
	}
	return width, height, rgb
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	const w, h = 6, 4
	rgb := make([]byte, w*h*3)
	for i := range rgb {
		rgb[i] = byte(i * 7 % 251)
	}
	// force some repeated runs and exact repeats so RUN/INDEX paths fire
	for x := 0; x < 3; x++ {
		rgb[x*3], rgb[x*3+1], rgb[x*3+2] = 10, 20, 30
	}

	out := encode(t, w, h, rgb)
	if string(out[0:4]) != "qoif" {
		t.Fatalf("missing qoif header")
	}
	gotW, gotH, gotRGB := decodeQOI(t, out)
	if gotW != w || gotH != h {
		t.Fatalf("decoded size = %dx%d, want %dx%d", gotW, gotH, w, h)
	}
	for i := range rgb {
		if rgb[i] != gotRGB[i] {
			t.Fatalf("byte %d: got %d want %d", i, gotRGB[i], rgb[i])
		}
	}
}

func TestUniformImageCompressesToRunOpcodes(t *testing.T) {
	const w, h = 8, 8
	rgb := make([]byte, w*h*3)
	for i := 0; i < w*h; i++ {
		rgb[i*3], rgb[i*3+1], rgb[i*3+2] = 5, 5, 5
	}
	out := encode(t, w, h, rgb)
	// header(14) + one LUMA opcode + run opcodes + 8-byte end marker, well
	// under the raw 192-byte pixel payload.
	if len(out) > 14+4+8+8 {
		t.Fatalf("expected heavy run-length compression, got %d bytes", len(out))
	}
}

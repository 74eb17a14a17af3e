// Package palette implements palette encode (RGB24 -> packed n-bit
// indices via nearest colour) and decode (indices -> RGB24 via table
// lookup), window 1 both directions.
//
// Nearest-colour search is grounded on internal/lossless/colorcache.go's
// hash-indexed colour lookup and encode_near.go's quantize-to-nearest
// value approach, generalised from a hash cache (worthwhile only for the
// thousands of distinct colours a lossless image encoder sees) to a
// direct linear scan, since a palette table here is at most 256 entries.
package palette

import (
	"github.com/deepteams/mpix/internal/errno"
	"github.com/deepteams/mpix/internal/format"
	"github.com/deepteams/mpix/internal/pipeline"
)

// Palette is a depth-tagged RGB24 colour table, 2^depth entries.
type Palette struct {
	FourCC format.FourCC // PLT1..PLT8
	Table  []byte        // contiguous RGB24, len == 3 << depth
}

// Binding is the indirection a palette node resolves its table through:
// the façade's Image.SetPalette walks the chain and fills Table in after
// the chain is built but before it is run, so a node constructed before
// the palette is known still has somewhere to find it at first use.
type Binding struct {
	Palette *Palette
}

func depthOf(fourcc format.FourCC) (int, error) {
	d, ok := format.PaletteDepth(fourcc)
	if !ok {
		return 0, errno.Wrap(errno.EINVAL, "palette: not a PLTn fourcc")
	}
	return d, nil
}

// shiftFor returns the bit position of the given slot's index field within
// its byte. Depths 1/2/4/8 divide the byte evenly, so the dense formula
// packs successive slots back-to-back MSB-first. Depth 3 doesn't divide
// evenly; rather than pack two 3-bit fields with no alignment to either
// end, it is padded out to a 4-bit slot (two pixels per byte, one zero
// pad bit above each index). Depths 5/6/7 get one pixel per byte, index
// unshifted in the low bits with the unused high bits left zero.
func shiftFor(depth, slot int) int {
	switch {
	case depth == 3:
		return 4 - 4*slot
	case depth >= 5:
		return 0
	default:
		return 8 - depth*(slot+1)
	}
}

// packIndices writes n indices (each < 1<<depth) into a packed byte
// buffer, depth-dependent slot alignment and padding on the last byte of
// each row (see shiftFor).
func packIndices(indices []byte, depth int) []byte {
	perByte := 8 / depth
	nBytes := (len(indices) + perByte - 1) / perByte
	out := make([]byte, nBytes)
	for i, idx := range indices {
		byteIdx := i / perByte
		slot := i % perByte
		out[byteIdx] |= idx << uint(shiftFor(depth, slot))
	}
	return out
}

func unpackIndices(packed []byte, depth, count int) []byte {
	perByte := 8 / depth
	mask := byte(1<<depth) - 1
	out := make([]byte, count)
	for i := 0; i < count; i++ {
		byteIdx := i / perByte
		slot := i % perByte
		out[i] = (packed[byteIdx] >> uint(shiftFor(depth, slot))) & mask
	}
	return out
}

func nearest(table []byte, r, g, b byte) byte {
	best, bestDist := 0, -1
	for i := 0; i*3 < len(table); i++ {
		dr := int(table[i*3]) - int(r)
		dg := int(table[i*3+1]) - int(g)
		db := int(table[i*3+2]) - int(b)
		d := dr*dr + dg*dg + db*db
		if bestDist == -1 || d < bestDist {
			bestDist, best = d, i
		}
	}
	return byte(best)
}

// NewEncode builds a palette-encode node producing fourcc (PLTn) output
// from RGB24 input. b.Palette must be filled in before the chain runs
// (the façade's SetPalette does this); a nil Palette at first kernel
// invocation is a configuration error, not a runtime one, since it can
// never become non-nil mid-run.
func NewEncode(width, height int, fourcc format.FourCC, b *Binding) (*pipeline.Node, error) {
	depth, err := depthOf(fourcc)
	if err != nil {
		return nil, err
	}
	inPitch, _ := format.Pitch(width, format.RGB3)
	outPitch, _ := format.Pitch(width, fourcc)

	return &pipeline.Node{
		Name:         "palette(encode)",
		InputFourCC:  format.RGB3,
		OutputFourCC: fourcc,
		WindowSize:   1,
		Threshold:    inPitch,
		OutputPitch:  outPitch,
		Kernel: func(n *pipeline.Node) error {
			if b.Palette == nil {
				n.Fail(errno.Wrap(errno.ENOBUFS, "palette: no table bound"))
				return n.Err()
			}
			in := n.GetInputLine()
			out := n.GetOutputLine()
			if out == nil {
				return n.Err()
			}
			indices := make([]byte, width)
			for i := 0; i < width; i++ {
				indices[i] = nearest(b.Palette.Table, in[i*3], in[i*3+1], in[i*3+2])
			}
			copy(out, packIndices(indices, depth))
			return n.Done()
		},
	}, nil
}

// NewDecode builds a palette-decode node producing RGB24 output from PLTn
// input.
func NewDecode(width, height int, fourcc format.FourCC, b *Binding) (*pipeline.Node, error) {
	depth, err := depthOf(fourcc)
	if err != nil {
		return nil, err
	}
	inPitch, _ := format.Pitch(width, fourcc)
	outPitch, _ := format.Pitch(width, format.RGB3)

	return &pipeline.Node{
		Name:         "palette(decode)",
		InputFourCC:  fourcc,
		OutputFourCC: format.RGB3,
		WindowSize:   1,
		Threshold:    inPitch,
		OutputPitch:  outPitch,
		Kernel: func(n *pipeline.Node) error {
			if b.Palette == nil {
				n.Fail(errno.Wrap(errno.ENOBUFS, "palette: no table bound"))
				return n.Err()
			}
			in := n.GetInputLine()
			out := n.GetOutputLine()
			if out == nil {
				return n.Err()
			}
			indices := unpackIndices(in, depth, width)
			for i, idx := range indices {
				out[i*3] = b.Palette.Table[int(idx)*3]
				out[i*3+1] = b.Palette.Table[int(idx)*3+1]
				out[i*3+2] = b.Palette.Table[int(idx)*3+2]
			}
			return n.Done()
		},
	}, nil
}

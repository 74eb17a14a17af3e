// Package correction implements the ISP correction family: black level
// subtraction, per-channel gain, gamma, and a 3x3 colour matrix, all window
// 1 over RGB24 input only.
//
// The gamma LUT is built once per parameter change the same way
// sharpyuv/gamma.go builds its gamma<->linear tables, generalised from a
// fixed sRGB float curve to a caller-adjustable Q10 gamma exponent baked
// into an 8-bit lookup table. The colour matrix multiply follows
// sharpyuv/csp.go's ConversionMatrix fixed-point dot-product shape.
package correction

import (
	"math"

	"github.com/deepteams/mpix/internal/control"
	"github.com/deepteams/mpix/internal/format"
	"github.com/deepteams/mpix/internal/pipeline"
)

const q10Shift = 10
const q10One = 1 << q10Shift

// Params holds every correction's live state in Q10 fixed point; each field
// has a matching control.Slot a façade caller writes through via
// Image.Ctrl / Image.CtrlArray.
type Params struct {
	BlackLevel int32 // 0..255, subtracted before gain
	RedGain    int32 // Q10, 1<<10 = unity
	BlueGain   int32 // Q10
	Gamma      int32 // Q10, 1<<10 = gamma 1.0 (no-op)
	ColorMatrix [9]int32 // Q10, row-major, identity by default

	gammaLUT    [256]byte
	gammaBuilt  int32 // last Gamma value the LUT was built for
}

func clip8(v int32) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// buildGammaLUT rebuilds the 256-entry LUT if Gamma has changed since the
// last kernel invocation, mirroring sharpyuv's once-per-parameter-change
// table construction but re-checked per call instead of sync.Once, since
// Gamma can change many times across one Image's lifetime.
func (p *Params) buildGammaLUT() {
	if p.gammaBuilt == p.Gamma && p.gammaBuilt != 0 {
		return
	}
	g := float64(p.Gamma) / q10One
	if g <= 0 {
		g = 1
	}
	for v := 0; v < 256; v++ {
		norm := float64(v) / 255.0
		p.gammaLUT[v] = clip8(int32(math.Pow(norm, 1.0/g)*255.0 + 0.5))
	}
	p.gammaBuilt = p.Gamma
}

func identityMatrix() [9]int32 {
	return [9]int32{q10One, 0, 0, 0, q10One, 0, 0, 0, q10One}
}

// apply runs black level, gain, gamma, and colour matrix, in that order,
// over one RGB24 pixel.
func (p *Params) apply(r, g, b byte) (byte, byte, byte) {
	ri := int32(r) - p.BlackLevel
	gi := int32(g) - p.BlackLevel
	bi := int32(b) - p.BlackLevel

	ri = (ri * p.RedGain) >> q10Shift
	bi = (bi * p.BlueGain) >> q10Shift

	rr, gg, bb := clip8(ri), clip8(gi), clip8(bi)

	p.buildGammaLUT()
	rr, gg, bb = p.gammaLUT[rr], p.gammaLUT[gg], p.gammaLUT[bb]

	m := p.ColorMatrix
	ri = (int32(m[0])*int32(rr) + int32(m[1])*int32(gg) + int32(m[2])*int32(bb)) >> q10Shift
	gi = (int32(m[3])*int32(rr) + int32(m[4])*int32(gg) + int32(m[5])*int32(bb)) >> q10Shift
	bi = (int32(m[6])*int32(rr) + int32(m[7])*int32(gg) + int32(m[8])*int32(bb)) >> q10Shift

	return clip8(ri), clip8(gi), clip8(bi)
}

// New builds a correction node over width x height RGB24 frames, defaulting
// to unity gain, gamma 1.0, and an identity colour matrix. It registers
// every tunable in tbl so the façade's Image.Ctrl can reach them by slot.
func New(width, height int, tbl *control.Table) *pipeline.Node {
	p := &Params{RedGain: q10One, BlueGain: q10One, Gamma: q10One, ColorMatrix: identityMatrix()}

	tbl.Register(control.SlotBlackLevel, &p.BlackLevel)
	tbl.Register(control.SlotRedGain, &p.RedGain)
	tbl.Register(control.SlotBlueGain, &p.BlueGain)
	tbl.Register(control.SlotGamma, &p.Gamma)
	tbl.RegisterArray(control.SlotColorMatrix, p.ColorMatrix[:])

	pitch, _ := format.Pitch(width, format.RGB3)
	return &pipeline.Node{
		Name:         "correction",
		InputFourCC:  format.RGB3,
		OutputFourCC: format.RGB3,
		WindowSize:   1,
		Threshold:    pitch,
		OutputPitch:  pitch,
		State:        p,
		Kernel: func(n *pipeline.Node) error {
			in := n.GetInputLine()
			out := n.GetOutputLine()
			if out == nil {
				return n.Err()
			}
			params := n.State.(*Params)
			for i := 0; i < width; i++ {
				r, g, b := params.apply(in[i*3], in[i*3+1], in[i*3+2])
				out[i*3], out[i*3+1], out[i*3+2] = r, g, b
			}
			return n.Done()
		},
	}
}

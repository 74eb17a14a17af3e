package mpix

import (
	"io"

	"github.com/deepteams/mpix/internal/bayer"
	"github.com/deepteams/mpix/internal/compress/jpeg"
	"github.com/deepteams/mpix/internal/compress/qoi"
	"github.com/deepteams/mpix/internal/control"
	"github.com/deepteams/mpix/internal/convert"
	"github.com/deepteams/mpix/internal/correction"
	"github.com/deepteams/mpix/internal/errno"
	"github.com/deepteams/mpix/internal/format"
	"github.com/deepteams/mpix/internal/geometry"
	"github.com/deepteams/mpix/internal/kernel"
	"github.com/deepteams/mpix/internal/palette"
	"github.com/deepteams/mpix/internal/pipeline"
	"github.com/deepteams/mpix/internal/registry"
	"github.com/deepteams/mpix/internal/sink"
)

// Format describes a buffer's geometry and pixel layout: a
// (width, height, FourCC) triple.
type Format = format.Format

// FourCC identifies a pixel format.
type FourCC = format.FourCC

// Recognised FourCC values, re-exported from internal/format so callers
// never need to import an internal package to name a format.
var (
	RGB1 = format.RGB1
	RGBP = format.RGBP
	RGBR = format.RGBR
	RGB3 = format.RGB3
	BX24 = format.BX24
	YUVC = format.YUVC
	YUV3 = format.YUV3
	YUYV = format.YUYV
	GREY = format.GREY
	BA81 = format.BA81
	BGGR = format.BGGR
	GBRG = format.GBRG
	GRBG = format.GRBG
	RGGB = format.RGGB
	JPEG = format.JPEG
	QOIF = format.QOIF
)

// PLT returns the palette FourCC for the given bit depth (1..8).
func PLT(depth int) FourCC { return format.PLT(depth) }

// KernelKind selects a spatial filter for Image.Kernel.
type KernelKind = kernel.Kind

const (
	Identity   = kernel.Identity
	Sharpen    = kernel.Sharpen
	EdgeDetect = kernel.EdgeDetect
	Gaussian   = kernel.Gaussian
	Median     = kernel.Median
)

// BayerWindow selects a debayer interpolation neighbourhood for
// Image.Debayer.
type BayerWindow = bayer.Window

const (
	DebayerReplicate = bayer.Replicate
	DebayerPair      = bayer.Pair
	DebayerTriple    = bayer.Triple
)

// Slot names a tunable correction/palette parameter for Image.Ctrl.
type Slot = control.Slot

const (
	SlotBlackLevel  = control.SlotBlackLevel
	SlotRedGain     = control.SlotRedGain
	SlotBlueGain    = control.SlotBlueGain
	SlotGamma       = control.SlotGamma
	SlotColorMatrix = control.SlotColorMatrix
)

// Rect is a crop rectangle in source pixel coordinates.
type Rect = geometry.Rect

// Palette is a depth-tagged RGB24 colour table for PaletteEncode/Decode.
type Palette = palette.Palette

// JPEGOptions controls Image.JPEGEncode.
type JPEGOptions = jpeg.Options

// Option configures how Image.ToBuf/ToWriter drive the pipeline.
type Option = pipeline.Option

// WithIterativeScheduler selects the iterative work-queue scheduler
// instead of the default recursive one, useful for very deep chains
// where stack depth matters. Both drivers produce identical output.
func WithIterativeScheduler() Option { return pipeline.WithIterativeScheduler() }

// paletteReg tracks a palette node's binding so SetPalette can fill it in
// after the chain is built but before it runs.
type paletteReg struct {
	fourcc format.FourCC
	bind   *palette.Binding
}

// Image is a lazily-built operation chain over a source buffer. Every
// method appends one stage and returns the same *Image for chaining; the
// first error encountered anywhere in the chain is sticky — every
// subsequent call becomes a no-op (Ctrl, CtrlArray and SetPalette return
// ErrCancelled) and ToBuf/ToWriter return that first error, surfacing
// the first fatal condition rather than masking it with later ones.
type Image struct {
	b        *pipeline.Builder
	ctrl     control.Table
	palettes []paletteReg
	err      error
}

// FromBuf starts a chain over buf, interpreted as one frame in f's
// format. buf is never copied or freed by the engine; it stays
// caller-owned for the whole chain's lifetime.
func FromBuf(buf []byte, f Format) *Image {
	return &Image{b: pipeline.NewBuilder(buf, f)}
}

// Err returns the chain's sticky error, if any.
func (img *Image) Err() error { return img.err }

func (img *Image) fail(err error) *Image {
	if img.err == nil {
		img.err = err
	}
	return img
}

// cancelled reports whether this call should short-circuit because a
// sticky error already exists.
func (img *Image) cancelled() bool {
	return img.err != nil
}

func (img *Image) append(n *pipeline.Node, err error) *Image {
	if img.cancelled() {
		return img
	}
	if err != nil {
		return img.fail(err)
	}
	if err := img.b.Append(n); err != nil {
		return img.fail(err)
	}
	return img
}

// Convert appends a pixel-format conversion to dst, looked up in
// internal/registry's static FourCC-pair catalogue.
func (img *Image) Convert(dst FourCC) *Image {
	if img.cancelled() {
		return img
	}
	src := img.b.FourCC()
	if _, ok := registry.Lookup(src, dst); !ok {
		return img.fail(ErrNotImplemented)
	}
	n, err := convert.New(img.b.Width(), img.b.Height(), src, dst)
	return img.append(n, err)
}

// Debayer appends a CFA demosaic stage at the given interpolation window.
// The current chain FourCC must be one of the raw Bayer phases.
func (img *Image) Debayer(w BayerWindow) *Image {
	if img.cancelled() {
		return img
	}
	phase := img.b.FourCC()
	if !format.IsBayer(phase) {
		return img.fail(errno.Wrap(errno.EINVAL, "mpix: Debayer requires a raw Bayer phase"))
	}
	n := bayer.New(w, phase, img.b.Width(), img.b.Height())
	return img.append(n, nil)
}

// Kernel appends a spatial filter of the given kind and window (3 or 5;
// Sharpen/EdgeDetect always run at window 3).
func (img *Image) Kernel(kind KernelKind, window int) *Image {
	if img.cancelled() {
		return img
	}
	n := kernel.New(kind, window, img.b.Width(), img.b.Height())
	return img.append(n, nil)
}

// PaletteEncode appends an RGB24 -> PLTn palette-index stage. The table
// itself is supplied later via SetPalette.
func (img *Image) PaletteEncode(depth int) *Image {
	if img.cancelled() {
		return img
	}
	fourcc := format.PLT(depth)
	bind := &palette.Binding{}
	n, err := palette.NewEncode(img.b.Width(), img.b.Height(), fourcc, bind)
	if err == nil {
		img.palettes = append(img.palettes, paletteReg{fourcc: fourcc, bind: bind})
	}
	return img.append(n, err)
}

// PaletteDecode appends a PLTn -> RGB24 stage. The current chain FourCC
// must already be a PLTn format (from a source buffer declared that way,
// or a prior PaletteEncode).
func (img *Image) PaletteDecode() *Image {
	if img.cancelled() {
		return img
	}
	fourcc := img.b.FourCC()
	bind := &palette.Binding{}
	n, err := palette.NewDecode(img.b.Width(), img.b.Height(), fourcc, bind)
	if err == nil {
		img.palettes = append(img.palettes, paletteReg{fourcc: fourcc, bind: bind})
	}
	return img.append(n, err)
}

// Resize appends a nearest-neighbour resize to dstW x dstH.
func (img *Image) Resize(dstW, dstH int) *Image {
	if img.cancelled() {
		return img
	}
	n, err := geometry.NewResize(img.b.Width(), img.b.Height(), dstW, dstH)
	return img.append(n, err)
}

// Subsample appends an integer-factor decimating resize.
func (img *Image) Subsample(factor int) *Image {
	if img.cancelled() {
		return img
	}
	n, err := geometry.NewSubsample(img.b.Width(), img.b.Height(), factor)
	return img.append(n, err)
}

// Crop appends a crop to the given rectangle, validated against the
// chain's current geometry at append time.
func (img *Image) Crop(r Rect) *Image {
	if img.cancelled() {
		return img
	}
	n, err := geometry.NewCrop(img.b.Width(), img.b.Height(), r)
	return img.append(n, err)
}

// Correction appends an ISP correction stage (black level, R/B gain,
// gamma, colour matrix), all tunable afterward via Ctrl/CtrlArray.
func (img *Image) Correction() *Image {
	if img.cancelled() {
		return img
	}
	n := correction.New(img.b.Width(), img.b.Height(), &img.ctrl)
	return img.append(n, nil)
}

// JPEGEncode appends a baseline JPEG encoder stage. Width and height must
// both be multiples of 8.
func (img *Image) JPEGEncode(opts JPEGOptions) *Image {
	if img.cancelled() {
		return img
	}
	n, err := jpeg.New(img.b.Width(), img.b.Height(), opts)
	return img.append(n, err)
}

// QOIEncode appends a QOI encoder stage.
func (img *Image) QOIEncode() *Image {
	if img.cancelled() {
		return img
	}
	n := qoi.New(img.b.Width(), img.b.Height())
	return img.append(n, nil)
}

// Ctrl writes v through the scalar binding registered for slot by an
// earlier Correction stage, ErrNotImplemented if nothing registered it.
func (img *Image) Ctrl(slot Slot, v int32) error {
	if img.cancelled() {
		return ErrCancelled
	}
	b, err := img.ctrl.Lookup(slot)
	if err != nil {
		return err
	}
	return b.Set(v)
}

// CtrlArray writes vs through the array binding registered for slot (the
// 9-element colour matrix).
func (img *Image) CtrlArray(slot Slot, vs []int32) error {
	if img.cancelled() {
		return ErrCancelled
	}
	b, err := img.ctrl.Lookup(slot)
	if err != nil {
		return err
	}
	return b.SetArray(vs)
}

// SetPalette attaches p to every palette stage (encode or decode)
// appended so far whose declared FourCC matches p.FourCC, silently
// skipping mismatches since a chain may carry stages at more than one
// palette depth.
func (img *Image) SetPalette(p *Palette) error {
	if img.cancelled() {
		return ErrCancelled
	}
	for _, reg := range img.palettes {
		if reg.fourcc == p.FourCC {
			reg.bind.Palette = p
		}
	}
	return nil
}

// ToBuf runs the chain, writing output into dst, and returns the number
// of bytes produced.
func (img *Image) ToBuf(dst []byte, opts ...Option) (int, error) {
	if img.cancelled() {
		return 0, img.err
	}
	n, err := img.b.Finish(sink.NewBuffer(dst), opts...)
	if err != nil {
		img.err = err
	}
	return n, err
}

// ToWriter runs the chain, streaming output to w as soon as it is
// produced, and returns the number of bytes written.
func (img *Image) ToWriter(w io.Writer, opts ...Option) (int, error) {
	if img.cancelled() {
		return 0, img.err
	}
	n, err := img.b.Finish(sink.NewWriter(w, 4096), opts...)
	if err != nil {
		img.err = err
	}
	return n, err
}

// Close tears down a partially built chain without running it, for a
// caller that abandons an Image instead of calling ToBuf/ToWriter.
func (img *Image) Close() {
	if img.b != nil {
		img.b.Close()
	}
}

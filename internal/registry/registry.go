// Package registry is the package-init-time FourCC-pair catalogue the
// façade's Convert consults before dispatching to an operation
// family's node constructor, mirroring the standard library's
// image.RegisterFormat static-registration idiom (every supported pairing
// declares itself once, at init, rather than the façade hand-maintaining a
// duplicate allow-list).
package registry

import "github.com/deepteams/mpix/internal/format"

// Family names which operation-family package owns a (src, dst) FourCC
// pairing.
type Family int

const (
	FamilyConvert Family = iota
	FamilyBayer
)

type key struct{ src, dst format.FourCC }

var table = map[key]Family{}

// Register records that src can be turned into dst by the given family.
// Called from each family package's init.
func Register(src, dst format.FourCC, fam Family) {
	table[key{src, dst}] = fam
}

// Lookup reports which family (if any) handles the src->dst pairing.
func Lookup(src, dst format.FourCC) (Family, bool) {
	fam, ok := table[key{src, dst}]
	return fam, ok
}

func init() {
	for _, pair := range [][2]format.FourCC{
		{format.RGB3, format.RGB1}, {format.RGB1, format.RGB3},
		{format.RGB3, format.RGBP}, {format.RGBP, format.RGB3},
		{format.RGB3, format.RGBR}, {format.RGBR, format.RGB3},
		{format.RGB3, format.BX24}, {format.BX24, format.RGB3},
		{format.RGB3, format.GREY}, {format.GREY, format.RGB3},
		{format.RGB3, format.YUV3}, {format.YUV3, format.RGB3},
		{format.YUYV, format.RGB3}, {format.RGB3, format.YUYV},
		{format.YUYV, format.YUV3}, {format.YUV3, format.YUYV},
		{format.RGB3, format.YUVC}, {format.YUVC, format.RGB3},
	} {
		Register(pair[0], pair[1], FamilyConvert)
	}
	for _, phase := range []format.FourCC{format.RGGB, format.GBRG, format.BGGR, format.GRBG, format.BA81} {
		Register(phase, format.RGB3, FamilyBayer)
	}
}

package jpeg

import (
	"github.com/deepteams/mpix/internal/errno"
	"github.com/deepteams/mpix/internal/pipeline"
)

// huffSpec is a JPEG Annex K-style canonical Huffman table: counts[i] is
// the number of codes of length i+1, symbols lists the encoded values in
// canonical order. These are the standard tables used by baseline JPEG
// encoders everywhere — not derived from anything in the source corpus,
// since WebP has no JPEG-compatible entropy table to borrow from.
type huffSpec struct {
	counts  [16]byte
	symbols []byte
}

var dcLuma = huffSpec{
	counts:  [16]byte{0, 1, 5, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0, 0, 0, 0},
	symbols: []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
}

var dcChroma = huffSpec{
	counts:  [16]byte{0, 3, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0, 0},
	symbols: []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
}

var acLuma = huffSpec{
	counts: [16]byte{0, 2, 1, 3, 3, 2, 4, 3, 5, 5, 4, 4, 0, 0, 1, 0x7d},
	symbols: []byte{
		0x01, 0x02, 0x03, 0x00, 0x04, 0x11, 0x05, 0x12,
		0x21, 0x31, 0x41, 0x06, 0x13, 0x51, 0x61, 0x07,
		0x22, 0x71, 0x14, 0x32, 0x81, 0x91, 0xa1, 0x08,
		0x23, 0x42, 0xb1, 0xc1, 0x15, 0x52, 0xd1, 0xf0,
		0x24, 0x33, 0x62, 0x72, 0x82, 0x09, 0x0a, 0x16,
		0x17, 0x18, 0x19, 0x1a, 0x25, 0x26, 0x27, 0x28,
		0x29, 0x2a, 0x34, 0x35, 0x36, 0x37, 0x38, 0x39,
		0x3a, 0x43, 0x44, 0x45, 0x46, 0x47, 0x48, 0x49,
		0x4a, 0x53, 0x54, 0x55, 0x56, 0x57, 0x58, 0x59,
		0x5a, 0x63, 0x64, 0x65, 0x66, 0x67, 0x68, 0x69,
		0x6a, 0x73, 0x74, 0x75, 0x76, 0x77, 0x78, 0x79,
		0x7a, 0x83, 0x84, 0x85, 0x86, 0x87, 0x88, 0x89,
		0x8a, 0x92, 0x93, 0x94, 0x95, 0x96, 0x97, 0x98,
		0x99, 0x9a, 0xa2, 0xa3, 0xa4, 0xa5, 0xa6, 0xa7,
		0xa8, 0xa9, 0xaa, 0xb2, 0xb3, 0xb4, 0xb5, 0xb6,
		0xb7, 0xb8, 0xb9, 0xba, 0xc2, 0xc3, 0xc4, 0xc5,
		0xc6, 0xc7, 0xc8, 0xc9, 0xca, 0xd2, 0xd3, 0xd4,
		0xd5, 0xd6, 0xd7, 0xd8, 0xd9, 0xda, 0xe1, 0xe2,
		0xe3, 0xe4, 0xe5, 0xe6, 0xe7, 0xe8, 0xe9, 0xea,
		0xf1, 0xf2, 0xf3, 0xf4, 0xf5, 0xf6, 0xf7, 0xf8,
		0xf9, 0xfa,
	},
}

var acChroma = huffSpec{
	counts: [16]byte{0, 2, 1, 2, 4, 4, 3, 4, 7, 5, 4, 4, 0, 1, 2, 0x77},
	symbols: []byte{
		0x00, 0x01, 0x02, 0x03, 0x11, 0x04, 0x05, 0x21,
		0x31, 0x06, 0x12, 0x41, 0x51, 0x07, 0x61, 0x71,
		0x13, 0x22, 0x32, 0x81, 0x08, 0x14, 0x42, 0x91,
		0xa1, 0xb1, 0xc1, 0x09, 0x23, 0x33, 0x52, 0xf0,
		0x15, 0x62, 0x72, 0xd1, 0x0a, 0x16, 0x24, 0x34,
		0xe1, 0x25, 0xf1, 0x17, 0x18, 0x19, 0x1a, 0x26,
		0x27, 0x28, 0x29, 0x2a, 0x35, 0x36, 0x37, 0x38,
		0x39, 0x3a, 0x43, 0x44, 0x45, 0x46, 0x47, 0x48,
		0x49, 0x4a, 0x53, 0x54, 0x55, 0x56, 0x57, 0x58,
		0x59, 0x5a, 0x63, 0x64, 0x65, 0x66, 0x67, 0x68,
		0x69, 0x6a, 0x73, 0x74, 0x75, 0x76, 0x77, 0x78,
		0x79, 0x7a, 0x82, 0x83, 0x84, 0x85, 0x86, 0x87,
		0x88, 0x89, 0x8a, 0x92, 0x93, 0x94, 0x95, 0x96,
		0x97, 0x98, 0x99, 0x9a, 0xa2, 0xa3, 0xa4, 0xa5,
		0xa6, 0xa7, 0xa8, 0xa9, 0xaa, 0xb2, 0xb3, 0xb4,
		0xb5, 0xb6, 0xb7, 0xb8, 0xb9, 0xba, 0xc2, 0xc3,
		0xc4, 0xc5, 0xc6, 0xc7, 0xc8, 0xc9, 0xca, 0xd2,
		0xd3, 0xd4, 0xd5, 0xd6, 0xd7, 0xd8, 0xd9, 0xda,
		0xe2, 0xe3, 0xe4, 0xe5, 0xe6, 0xe7, 0xe8, 0xe9,
		0xea, 0xf2, 0xf3, 0xf4, 0xf5, 0xf6, 0xf7, 0xf8,
		0xf9, 0xfa,
	},
}

type huffCode struct {
	code uint32
	size byte
}

// buildCodes derives canonical Huffman codes from a bits/symbols spec
// per the standard JPEG/Annex K generation procedure: assign codes in
// increasing length, incrementing within a length and left-shifting when
// the length increases.
func buildCodes(spec huffSpec) map[byte]huffCode {
	out := make(map[byte]huffCode, len(spec.symbols))
	code := uint32(0)
	k := 0
	for length := 1; length <= 16; length++ {
		n := int(spec.counts[length-1])
		for i := 0; i < n; i++ {
			out[spec.symbols[k]] = huffCode{code: code, size: byte(length)}
			k++
			code++
		}
		code <<= 1
	}
	return out
}

var (
	dcLumaCodes   = buildCodes(dcLuma)
	dcChromaCodes = buildCodes(dcChroma)
	acLumaCodes   = buildCodes(acLuma)
	acChromaCodes = buildCodes(acChroma)
)

// bitSize returns the number of bits needed to represent v in JPEG's
// signed-magnitude category encoding, and the magnitude bits themselves.
func bitSize(v int) (size byte, bitsOut uint32) {
	av := v
	if av < 0 {
		av = -av
	}
	size = 0
	for t := av; t != 0; t >>= 1 {
		size++
	}
	if v < 0 {
		bitsOut = uint32(v+(1<<uint(size))-1) & ((1 << uint(size)) - 1)
	} else {
		bitsOut = uint32(v) & ((1 << uint(size)) - 1)
	}
	return size, bitsOut
}

func writeDC(w *bitWriter, codes map[byte]huffCode, diff int) {
	size, bits := bitSize(diff)
	hc := codes[size]
	w.putBits(hc.code, int(hc.size))
	if size > 0 {
		w.putBits(bits, int(size))
	}
}

// writeAC Huffman-codes the 63 AC coefficients with zero run-length
// encoding: (runlength<<4 | size) symbols, ZRL (0xF0) for 16-zero runs,
// EOB (0x00) once every remaining coefficient is zero.
func writeAC(w *bitWriter, codes map[byte]huffCode, coeffs []int32) {
	run := 0
	for i, c := range coeffs {
		if c == 0 {
			run++
			continue
		}
		for run >= 16 {
			hc := codes[0xF0]
			w.putBits(hc.code, int(hc.size))
			run -= 16
		}
		size, bits := bitSize(int(c))
		sym := byte(run<<4) | size
		hc := codes[sym]
		w.putBits(hc.code, int(hc.size))
		w.putBits(bits, int(size))
		run = 0
		_ = i
	}
	if run > 0 {
		hc := codes[0x00]
		w.putBits(hc.code, int(hc.size))
	}
}

func errNoSpace(n *pipeline.Node) error {
	return errno.Wrap(errno.ENOSPC, n.Name+": output ring exhausted")
}

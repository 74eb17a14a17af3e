package jpeg

import "github.com/deepteams/mpix/internal/pipeline"

// writeHeader emits SOI, APP0 (JFIF), two DQT segments, SOF0, four DHT
// segments and SOS, in that order, directly into the successor's ring via
// PeekOutput/CommitOutput — mirroring how cmd/gwebp/main.go builds a
// container header before any payload bytes exist.
func writeHeader(n *pipeline.Node, st *encState) error {
	var buf []byte
	buf = append(buf, 0xFF, 0xD8) // SOI

	buf = appendAPP0(buf)
	buf = appendDQT(buf, 0, st.quant[0])
	buf = appendDQT(buf, 1, st.quant[1])
	buf = appendSOF0(buf, st.width, st.height)
	buf = appendDHT(buf, 0, dcLuma)
	buf = appendDHT(buf, 0, acLuma, true)
	buf = appendDHT(buf, 1, dcChroma)
	buf = appendDHT(buf, 1, acChroma, true)
	buf = appendSOS(buf)

	return writeRaw(n, buf)
}

// flushTrailer pads out any pending entropy bits and appends EOI.
func flushTrailer(n *pipeline.Node, st *encState) error {
	st.bw.flushToByte()
	if err := flushBits(n, st.bw); err != nil {
		return err
	}
	return writeRaw(n, []byte{0xFF, 0xD9})
}

func be16(buf []byte, v int) []byte {
	return append(buf, byte(v>>8), byte(v))
}

func appendAPP0(buf []byte) []byte {
	buf = append(buf, 0xFF, 0xE0)
	buf = be16(buf, 16) // length includes itself, excludes marker
	buf = append(buf, 'J', 'F', 'I', 'F', 0)
	buf = append(buf, 1, 1)    // version 1.1
	buf = append(buf, 0)      // no density units
	buf = be16(buf, 1)
	buf = be16(buf, 1)
	buf = append(buf, 0, 0) // no thumbnail
	return buf
}

func appendDQT(buf []byte, id int, table [64]byte) []byte {
	buf = append(buf, 0xFF, 0xDB)
	buf = be16(buf, 2+1+64)
	buf = append(buf, byte(id))
	// DQT stores entries in zig-zag scan order; table is natural (raster)
	// order, matching the layout encodeBlock divides by.
	for i := 0; i < 64; i++ {
		buf = append(buf, table[zigzag[i]])
	}
	return buf
}

func appendSOF0(buf []byte, width, height int) []byte {
	buf = append(buf, 0xFF, 0xC0)
	buf = be16(buf, 8+3*3)
	buf = append(buf, 8) // sample precision
	buf = be16(buf, height)
	buf = be16(buf, width)
	buf = append(buf, 3) // 3 components
	// component id, sampling (1x1 for every component: no chroma subsampling), quant table id
	buf = append(buf, 1, 0x11, 0)
	buf = append(buf, 2, 0x11, 1)
	buf = append(buf, 3, 0x11, 1)
	return buf
}

func appendDHT(buf []byte, id int, spec huffSpec, isAC ...bool) []byte {
	class := 0
	if len(isAC) > 0 && isAC[0] {
		class = 1
	}
	n := 0
	for _, c := range spec.counts {
		n += int(c)
	}
	buf = append(buf, 0xFF, 0xC4)
	buf = be16(buf, 2+1+16+n)
	buf = append(buf, byte(class<<4|id))
	buf = append(buf, spec.counts[:]...)
	buf = append(buf, spec.symbols...)
	return buf
}

func appendSOS(buf []byte) []byte {
	buf = append(buf, 0xFF, 0xDA)
	buf = be16(buf, 6+2*3)
	buf = append(buf, 3) // 3 components
	buf = append(buf, 1, 0x00)
	buf = append(buf, 2, 0x11)
	buf = append(buf, 3, 0x11)
	buf = append(buf, 0, 63, 0) // spectral selection / approximation (baseline: 0..63, 0)
	return buf
}

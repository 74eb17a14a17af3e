package format

import "testing"

func TestBpp(t *testing.T) {
	tests := []struct {
		fourcc FourCC
		want   uint8
	}{
		{RGB1, 8},
		{RGBP, 16},
		{RGB3, 24},
		{BX24, 32},
		{YUVC, 12},
		{YUV3, 24},
		{YUYV, 16},
		{GREY, 8},
		{RGGB, 8},
		{PLT(1), 1},
		{PLT(2), 2},
		{PLT(3), 4}, // padded to a 4-bit nibble slot, not 3
		{PLT(4), 4},
		{PLT(5), 8}, // one index per byte, high bits zeroed
		{PLT(6), 8},
		{PLT(7), 8},
		{PLT(8), 8},
	}
	for _, tt := range tests {
		got, err := Bpp(tt.fourcc)
		if err != nil {
			t.Errorf("Bpp(%v) error: %v", tt.fourcc, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Bpp(%v) = %d, want %d", tt.fourcc, got, tt.want)
		}
	}
}

func TestBpp_Compressed(t *testing.T) {
	for _, fourcc := range []FourCC{JPEG, QOIF} {
		got, err := Bpp(fourcc)
		if err != nil {
			t.Fatalf("Bpp(%v) error: %v", fourcc, err)
		}
		if got != 0 {
			t.Errorf("Bpp(%v) = %d, want 0 (variable pitch)", fourcc, got)
		}
		if !IsVariablePitch(fourcc) {
			t.Errorf("IsVariablePitch(%v) = false, want true", fourcc)
		}
	}
}

func TestBpp_Unknown(t *testing.T) {
	unknown := MakeFourCC('Z', 'Z', 'Z', 'Z')
	if _, err := Bpp(unknown); err == nil {
		t.Fatal("Bpp(unknown) should fail without a registered fallback")
	}

	RegisterFallback(func(f FourCC) (uint8, bool) {
		if f == unknown {
			return 10, true
		}
		return 0, false
	})
	defer RegisterFallback(nil)

	got, err := Bpp(unknown)
	if err != nil {
		t.Fatalf("Bpp(unknown) with fallback error: %v", err)
	}
	if got != 10 {
		t.Errorf("Bpp(unknown) = %d, want 10", got)
	}
}

func TestPitch(t *testing.T) {
	p, err := Pitch(16, RGB3)
	if err != nil {
		t.Fatal(err)
	}
	if p != 48 {
		t.Errorf("Pitch(16, RGB3) = %d, want 48", p)
	}

	p, err = Pitch(16, JPEG)
	if err != nil {
		t.Fatal(err)
	}
	if p != 0 {
		t.Errorf("Pitch(16, JPEG) = %d, want 0", p)
	}
}

func TestLineDown(t *testing.T) {
	tests := []struct {
		in, want FourCC
	}{
		{RGGB, GBRG},
		{GBRG, RGGB},
		{BGGR, GRBG},
		{GRBG, BGGR},
	}
	for _, tt := range tests {
		if got := LineDown(tt.in); got != tt.want {
			t.Errorf("LineDown(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
	// Applying LineDown twice must return to the original phase.
	if got := LineDown(LineDown(RGGB)); got != RGGB {
		t.Errorf("LineDown(LineDown(RGGB)) = %v, want RGGB", got)
	}
}

func TestPaletteDepth(t *testing.T) {
	for d := 1; d <= 8; d++ {
		got, ok := PaletteDepth(PLT(d))
		if !ok || got != d {
			t.Errorf("PaletteDepth(PLT(%d)) = %d, %v, want %d, true", d, got, ok, d)
		}
	}
	if _, ok := PaletteDepth(RGB3); ok {
		t.Error("PaletteDepth(RGB3) should not be a palette format")
	}
}

package control

import "testing"

func TestScalarBindingRoundTrip(t *testing.T) {
	var tbl Table
	var gain int32 = 1 << 10
	tbl.Register(SlotRedGain, &gain)

	b, err := tbl.Lookup(SlotRedGain)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Set(2048); err != nil {
		t.Fatal(err)
	}
	if gain != 2048 {
		t.Fatalf("gain = %d, want 2048", gain)
	}
}

func TestArrayBindingLengthMismatch(t *testing.T) {
	var tbl Table
	matrix := make([]int32, 9)
	tbl.RegisterArray(SlotColorMatrix, matrix)

	b, _ := tbl.Lookup(SlotColorMatrix)
	if err := b.SetArray(make([]int32, 4)); err == nil {
		t.Fatal("expected length mismatch error")
	}
	if err := b.SetArray(make([]int32, 9)); err != nil {
		t.Fatal(err)
	}
}

func TestLookupUnregisteredSlotFails(t *testing.T) {
	var tbl Table
	if _, err := tbl.Lookup(SlotGamma); err == nil {
		t.Fatal("expected error for unregistered slot")
	}
}

// Package control implements the named tunable-parameter slots that let a
// caller adjust an already-built chain's ISP corrections and palette table
// without rebuilding it. Rather than bundling every knob into one options
// struct built before processing starts, mpix's chain is built before its
// parameters are known, so each tunable is a late-bound slot a
// correction/palette node registers at Append time and the façade writes
// through by name.
package control

import "github.com/deepteams/mpix/internal/errno"

// Slot names a single tunable control. The zero value, SlotNone, is never a
// valid registration target.
type Slot int

const (
	SlotNone Slot = iota
	SlotBlackLevel
	SlotRedGain
	SlotBlueGain
	SlotGamma
	SlotColorMatrix // 9-element Q10 matrix
	numSlots
)

// NumSlots is the size of the fixed Binding table a façade Image carries.
const NumSlots = int(numSlots)

// Binding is the write-through target a correction or palette node
// registers for one of its slots: Scalar for a single Q10 value, Array for
// the 9-element colour matrix. Exactly one of the two is non-nil.
type Binding struct {
	Scalar *int32
	Array  []int32
}

// Set writes v through a scalar binding.
func (b Binding) Set(v int32) error {
	if b.Scalar == nil {
		return errno.Wrap(errno.ENOSYS, "control: slot is not a scalar")
	}
	*b.Scalar = v
	return nil
}

// SetArray writes vs through an array binding, which must match its length
// exactly (9 for the colour matrix).
func (b Binding) SetArray(vs []int32) error {
	if b.Array == nil {
		return errno.Wrap(errno.ENOSYS, "control: slot is not an array")
	}
	if len(vs) != len(b.Array) {
		return errno.Wrap(errno.EINVAL, "control: array length mismatch")
	}
	copy(b.Array, vs)
	return nil
}

// Table is the fixed-size set of bindings an Image owns, indexed by Slot.
// A zero-value entry (both fields nil) means the slot is unregistered on
// this particular chain.
type Table [NumSlots]Binding

// Register installs a scalar binding for slot, overwriting any prior
// registration — used when a chain has more than one correction node
// bound to the same logical slot (rare, but not disallowed).
func (t *Table) Register(slot Slot, ptr *int32) {
	t[slot] = Binding{Scalar: ptr}
}

// RegisterArray installs an array binding for slot.
func (t *Table) RegisterArray(slot Slot, vs []int32) {
	t[slot] = Binding{Array: vs}
}

// Lookup returns the binding registered for slot, or an ENOSYS error
// (the façade's ErrNotImplemented) if none was registered by any node in
// the chain.
func (t *Table) Lookup(slot Slot) (Binding, error) {
	b := t[slot]
	if b.Scalar == nil && b.Array == nil {
		return Binding{}, errno.Wrap(errno.ENOSYS, "control: slot not present in this chain")
	}
	return b, nil
}

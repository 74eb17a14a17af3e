// Package ring implements the byte-granular single-producer/single-consumer
// FIFO that every pipeline operation reads from and writes into.
//
// Unlike the lock-free SPSC ring buffers used for cross-goroutine hand-off
// (see the wait-free and disruptor-style buffers this package takes its
// cursor discipline from), mpix's scheduler is strictly single-threaded and
// cooperative (one kernel runs at a time, see internal/pipeline), so there
// is no need for atomic cursors or memory fences here — plain ints suffice.
package ring

import "github.com/deepteams/mpix/internal/pool"

// Ring is a byte FIFO with three monotone cursors: Read <= Peek <= Write <=
// len(buf). Read is the consumer position, Peek is a lookahead position
// used by multi-line kernels to see upcoming rows without consuming them,
// and Write is the producer position.
//
// The backing array never grows. When a Write needs more room than the
// unused tail provides, already-consumed bytes before Read are compacted
// out first (a single copy of at most len(buf) bytes); this keeps every
// returned slice backed directly by the ring's storage with no wraparound
// arithmetic, at the cost of an occasional memmove bounded by the ring's
// fixed capacity.
type Ring struct {
	buf               []byte
	read, peek, write int
	heap              bool // true if buf came from the pool and must be released on Close
}

// NewLinear wraps caller-owned memory (the head node's input buffer, or a
// sink's destination buffer). Its storage is never released by Close.
func NewLinear(buf []byte) *Ring {
	return &Ring{buf: buf}
}

// NewCircular allocates an engine-owned ring of the given capacity from the
// shared buffer pool. Close returns its storage to the pool.
func NewCircular(capacity int) *Ring {
	return &Ring{buf: pool.Get(capacity), heap: true}
}

// Close releases engine-owned storage back to the pool. Linear rings are a
// no-op since their storage is caller-owned.
func (r *Ring) Close() {
	if r.heap && r.buf != nil {
		pool.Put(r.buf)
		r.buf = nil
	}
}

// Cap reports the ring's fixed backing capacity.
func (r *Ring) Cap() int { return len(r.buf) }

// Tailroom is the number of unread, already-written bytes available for
// consumption.
func (r *Ring) Tailroom() int { return r.write - r.read }

// Headroom is the number of bytes the producer may still write before
// running out of backing storage (before any compaction).
func (r *Ring) Headroom() int { return len(r.buf) - r.write }

// Peekroom is the number of written-but-not-yet-peeked bytes available for
// lookahead.
func (r *Ring) Peekroom() int { return r.write - r.peek }

// SeedFull marks the entire backing buffer as already written. Used once,
// at pipeline start, to make the head node's caller-supplied input
// immediately available for consumption without a copy.
func (r *Ring) SeedFull() {
	r.write = len(r.buf)
	r.peek = r.write
}

// compact slides unread-but-live bytes ([Read,Write)) down to the start of
// the backing array, reclaiming the space already consumed before Read.
func (r *Ring) compact() {
	if r.read == 0 {
		return
	}
	n := copy(r.buf, r.buf[r.read:r.write])
	r.peek -= r.read
	r.write = n
	r.read = 0
}

// Write reserves n bytes at the write cursor and returns a slice the caller
// fills in directly. Returns ok=false if n exceeds the headroom even after
// compaction.
func (r *Ring) Write(n int) (b []byte, ok bool) {
	if r.Headroom() < n {
		r.compact()
		if r.Headroom() < n {
			return nil, false
		}
	}
	base := r.write
	r.write += n
	return r.buf[base:r.write], true
}

// Read consumes n bytes at the read cursor, advancing Read (and Peek, if it
// had not already moved past them) and returns the consumed bytes.
func (r *Ring) Read(n int) []byte {
	base := r.read
	r.read += n
	if r.peek < r.read {
		r.peek = r.read
	}
	return r.buf[base:r.read]
}

// Peek returns the next n bytes starting at the peek cursor without
// consuming them; only the peek cursor advances.
func (r *Ring) Peek(n int) []byte {
	base := r.peek
	r.peek += n
	return r.buf[base:r.peek]
}

// PeekFreeRegion compacts if needed and returns the entire contiguous
// unwritten region at the tail of the buffer, for producers (variable-rate
// compressors) that don't know their output size until they've produced
// it. Pair with CommitWrite once the actual number of bytes used is known.
func (r *Ring) PeekFreeRegion() []byte {
	r.compact()
	return r.buf[r.write:]
}

// CommitWrite advances the write cursor by n, committing bytes a caller
// previously filled in via the slice returned by PeekFreeRegion.
func (r *Ring) CommitWrite(n int) {
	r.write += n
}

// ReadAll consumes every byte currently available (Tailroom) and returns
// it. Used by variable-rate encoders that don't work one fixed-size line
// at a time.
func (r *Ring) ReadAll() []byte {
	return r.Read(r.Tailroom())
}

// Reset rewinds every cursor to the start of the buffer without touching
// its contents. Used when a pipeline is rebuilt for reuse.
func (r *Ring) Reset() {
	r.read, r.peek, r.write = 0, 0, 0
}

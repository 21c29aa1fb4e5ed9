// Package buffer implements the rolling read buffer and chunked/double
// write buffers used by the session engine. It generalizes the teacher's
// slab-backed Buffer/BufferPool split (api/buffer.go, pool/ring.go) from
// NUMA-aware byte-slab reuse to the framing discipline spec.md §4.A asks
// for: grow-on-demand reads, append-many writes with a free list of
// fixed-size chunks.
package buffer

// RollingBuffer is a growable byte buffer with head/tail cursors. Bytes
// already consumed are only reclaimed (via compact) when forced, so a
// steady-state drain never pays a memmove per read.
type RollingBuffer struct {
	buf  []byte
	head int // write cursor: next byte goes here
	tail int // read cursor: next byte to read starts here
}

// NewRollingBuffer allocates a RollingBuffer with the given initial capacity.
func NewRollingBuffer(initialCap int) *RollingBuffer {
	if initialCap <= 0 {
		initialCap = 4096
	}
	return &RollingBuffer{buf: make([]byte, initialCap)}
}

// Size returns the number of unread bytes currently buffered.
func (r *RollingBuffer) Size() int { return r.head - r.tail }

// Cap returns the buffer's current capacity.
func (r *RollingBuffer) Cap() int { return len(r.buf) }

// WritableTail returns a slice the caller may read socket bytes into.
// Call EnsureWritable first if the returned slice might be empty.
func (r *RollingBuffer) WritableTail() []byte {
	return r.buf[r.head:]
}

// Commit records that n bytes were written into the slice returned by
// WritableTail.
func (r *RollingBuffer) Commit(n int) {
	r.head += n
}

// Readable returns the unread portion of the buffer.
func (r *RollingBuffer) Readable() []byte {
	return r.buf[r.tail:r.head]
}

// Consume drops the first n bytes of Readable() — the parser has copied
// or otherwise dealt with them.
func (r *RollingBuffer) Consume(n int) {
	r.tail += n
	if r.tail == r.head {
		// Fully drained: reset cursors to zero so the next read lands at
		// the front without needing a compact.
		r.head, r.tail = 0, 0
	}
}

// EnsureWritable guarantees WritableTail() returns a non-empty slice,
// per spec.md §4.A growth policy: compact if there is reclaimable space
// at the front, otherwise double capacity — and only double when both
// head == capacity and tail == 0, to avoid unbounded growth under normal
// steady-state draining.
func (r *RollingBuffer) EnsureWritable() {
	if r.head < len(r.buf) {
		return
	}
	if r.tail > 0 {
		r.compact()
		return
	}
	r.grow()
}

// compact memmoves live bytes to offset zero.
func (r *RollingBuffer) compact() {
	n := copy(r.buf, r.buf[r.tail:r.head])
	r.head = n
	r.tail = 0
}

// grow doubles the buffer's capacity.
func (r *RollingBuffer) grow() {
	newCap := len(r.buf) * 2
	if newCap == 0 {
		newCap = 4096
	}
	next := make([]byte, newCap)
	copy(next, r.buf[r.tail:r.head])
	r.head -= r.tail
	r.tail = 0
	r.buf = next
}

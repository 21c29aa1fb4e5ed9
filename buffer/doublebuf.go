package buffer

// DoubleBuffer holds two ChunkedBuffers and an index selecting the
// "current" one that Append targets. Flip returns the current buffer and
// switches to the other, which must be empty — the caller flips exactly
// when it begins a write, so the next Append lands on the idle buffer
// and can proceed without waiting for the in-flight write to finish.
type DoubleBuffer struct {
	free *freeList
	bufs [2]*ChunkedBuffer
	cur  int
}

// NewDoubleBuffer creates a DoubleBuffer with both sides sharing one
// chunk free list.
func NewDoubleBuffer() *DoubleBuffer {
	free := &freeList{}
	return &DoubleBuffer{
		free: free,
		bufs: [2]*ChunkedBuffer{NewChunkedBuffer(free), NewChunkedBuffer(free)},
	}
}

// Append writes to the current buffer.
func (d *DoubleBuffer) Append(p []byte) {
	d.bufs[d.cur].Append(p)
}

// CurrentEmpty reports whether the buffer Append currently targets is empty.
func (d *DoubleBuffer) CurrentEmpty() bool {
	return d.bufs[d.cur].Empty()
}

// Flip returns the current buffer for the caller to drain via a gather
// write, and switches Append to target the other (idle) buffer.
//
// Precondition: the buffer Flip is about to switch to must be empty —
// true whenever the caller only flips once per write-in-flight cycle, as
// the session engine's write loop does.
func (d *DoubleBuffer) Flip() *ChunkedBuffer {
	out := d.bufs[d.cur]
	d.cur = 1 - d.cur
	return out
}

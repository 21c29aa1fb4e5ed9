package buffer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRollingBufferCommitAndConsume(t *testing.T) {
	r := NewRollingBuffer(8)
	n := copy(r.WritableTail(), []byte("hello"))
	r.Commit(n)
	require.Equal(t, 5, r.Size())
	require.Equal(t, []byte("hello"), r.Readable())

	r.Consume(5)
	require.Equal(t, 0, r.Size())
	// Fully drained buffer resets its cursors to the front.
	require.Equal(t, 0, len(r.Readable()))
}

func TestRollingBufferGrowsWhenFullAndNothingReclaimable(t *testing.T) {
	r := NewRollingBuffer(4)
	n := copy(r.WritableTail(), []byte("abcd"))
	r.Commit(n)
	require.Equal(t, 4, r.Cap())

	r.EnsureWritable()
	require.Greater(t, r.Cap(), 4)
	require.Equal(t, []byte("abcd"), r.Readable())
}

func TestRollingBufferCompactsInsteadOfGrowingWhenSpaceReclaimable(t *testing.T) {
	r := NewRollingBuffer(4)
	n := copy(r.WritableTail(), []byte("abcd"))
	r.Commit(n)
	r.Consume(2) // "ab" read, "cd" still pending, 2 bytes reclaimable at front

	r.EnsureWritable()
	require.Equal(t, 4, r.Cap(), "compaction must not grow the buffer")
	require.Equal(t, []byte("cd"), r.Readable())
}

func TestChunkedBufferSpansMultipleChunks(t *testing.T) {
	free := &freeList{}
	b := NewChunkedBuffer(free)
	payload := make([]byte, chunkSize+10)
	for i := range payload {
		payload[i] = byte(i)
	}
	b.Append(payload)

	require.Equal(t, len(payload), b.Size())
	require.Equal(t, payload, b.Bytes())

	var chunks int
	b.ForEach(func([]byte) { chunks++ })
	require.Equal(t, 2, chunks, "payload spanning one chunk boundary must use exactly two chunks")
}

func TestChunkedBufferClearReturnsChunksToFreeList(t *testing.T) {
	free := &freeList{}
	b := NewChunkedBuffer(free)
	b.Append(make([]byte, chunkSize+1))
	require.Nil(t, free.head)

	b.Clear()
	require.True(t, b.Empty())
	require.NotNil(t, free.head, "Clear must return its chunks to the shared free list")
}

func TestDoubleBufferFlipSwitchesTarget(t *testing.T) {
	d := NewDoubleBuffer()
	d.Append([]byte("first"))
	require.False(t, d.CurrentEmpty())

	drained := d.Flip()
	require.Equal(t, []byte("first"), drained.Bytes())
	require.True(t, d.CurrentEmpty(), "Flip must switch Append onto the idle, empty side")

	d.Append([]byte("second"))
	require.Equal(t, []byte("second"), d.Flip().Bytes())
}

package record

import "sync"

// FrameBuffer is the append-only frame log of one capture.
// Once drained it is closed and rejects further chunks.
type FrameBuffer struct {
	mu      sync.Mutex
	chunks  [][]byte
	size    int
	closed  bool
	dropped int
}

// NewFrameBuffer creates an open, empty buffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{chunks: make([][]byte, 0, 64)}
}

// Append adds chunk to the log and reports whether it was accepted.
// The buffer takes ownership of chunk; callers must not modify it afterwards.
func (b *FrameBuffer) Append(chunk []byte) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		b.dropped++
		return false
	}
	b.chunks = append(b.chunks, chunk)
	b.size += len(chunk)
	return true
}

// Drain closes the buffer and returns every chunk appended so far, in order.
// Subsequent calls return nil.
func (b *FrameBuffer) Drain() [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	out := b.chunks
	b.chunks = nil
	return out
}

// Len returns the number of chunks held.
func (b *FrameBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.chunks)
}

// Size returns the number of PCM bytes accepted so far.
func (b *FrameBuffer) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Dropped returns how many chunks were rejected after the buffer closed.
func (b *FrameBuffer) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Closed reports whether Drain has been called.
func (b *FrameBuffer) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

package util

import "sync"

// DefaultBufSize is the per-read buffer size of a relay edge.
const DefaultBufSize = 2048

// BufPool hands out fixed-size byte buffers so that a relay that cycles
// through many sessions reuses edge buffers instead of allocating two
// fresh ones per client.
type BufPool struct {
	size int
	pool sync.Pool
}

// NewBufPool returns a pool of buffers of exactly size bytes.  A size
// ≤ 0 selects [DefaultBufSize].
func NewBufPool(size int) *BufPool {
	if size <= 0 {
		size = DefaultBufSize
	}
	p := &BufPool{size: size}
	p.pool.New = func() interface{} {
		buf := make([]byte, size)
		return &buf
	}
	return p
}

// Size reports the length of every buffer handed out by the pool.
func (p *BufPool) Size() int { return p.size }

// Get retrieves a buffer from the pool.  Callers must return it with
// [BufPool.Put] when finished.
func (p *BufPool) Get() *[]byte {
	return p.pool.Get().(*[]byte)
}

// Put returns a buffer to the pool.  Buffers of a different length
// (or nil) are dropped.
func (p *BufPool) Put(buf *[]byte) {
	if buf == nil || len(*buf) != p.size {
		return
	}
	p.pool.Put(buf)
}

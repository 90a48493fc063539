package queue

import "sync"

// BufferPool provides pooled byte slices for staging a channel payload
// copied out of its slot before it is decoded, avoiding a hot-path
// allocation on every Receive (Send does not use it). Uses size-bucketed pools (1KB, 4KB, 16KB, 64KB) sized
// for typical task-argument and channel-payload encodings; DefaultSlotSize
// is 256 bytes, so most traffic lands in the 1KB bucket and the larger
// buckets only matter for payloads the caller deliberately oversizes.
//
// Uses *[]byte pattern to avoid sync.Pool interface allocation overhead.
const (
	size1k  = 1 * 1024
	size4k  = 4 * 1024
	size16k = 16 * 1024
	size64k = 64 * 1024
)

var globalPool = struct {
	pool1k  sync.Pool
	pool4k  sync.Pool
	pool16k sync.Pool
	pool64k sync.Pool
}{
	pool1k:  sync.Pool{New: func() any { b := make([]byte, size1k); return &b }},
	pool4k:  sync.Pool{New: func() any { b := make([]byte, size4k); return &b }},
	pool16k: sync.Pool{New: func() any { b := make([]byte, size16k); return &b }},
	pool64k: sync.Pool{New: func() any { b := make([]byte, size64k); return &b }},
}

// GetBuffer returns a pooled buffer of at least the requested size. Caller
// must call PutBuffer when done. Payloads larger than 64KB are allocated
// directly and not pooled.
func GetBuffer(size uint32) []byte {
	switch {
	case size <= size1k:
		return (*globalPool.pool1k.Get().(*[]byte))[:size]
	case size <= size4k:
		return (*globalPool.pool4k.Get().(*[]byte))[:size]
	case size <= size16k:
		return (*globalPool.pool16k.Get().(*[]byte))[:size]
	case size <= size64k:
		return (*globalPool.pool64k.Get().(*[]byte))[:size]
	default:
		return make([]byte, size)
	}
}

// PutBuffer returns a buffer to the pool. The buffer's capacity determines
// which pool it goes to; buffers with non-standard capacity are dropped.
func PutBuffer(buf []byte) {
	c := cap(buf)
	buf = buf[:c]
	switch c {
	case size1k:
		globalPool.pool1k.Put(&buf)
	case size4k:
		globalPool.pool4k.Put(&buf)
	case size16k:
		globalPool.pool16k.Put(&buf)
	case size64k:
		globalPool.pool64k.Put(&buf)
	}
}

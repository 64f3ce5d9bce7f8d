package neonhttp

import (
	"github.com/valyala/bytebufferpool"
)

var (
	streamBufferPool   bytebufferpool.Pool
	compressBufferPool bytebufferpool.Pool
)

// acquireStreamBuffer returns an empty byte buffer for a stream body.
//
// The buffer must be returned via releaseStreamBuffer when the stream
// is closed.
func acquireStreamBuffer() *bytebufferpool.ByteBuffer {
	return streamBufferPool.Get()
}

// releaseStreamBuffer returns b to the pool.
//
// b.B mustn't be touched after returning it to the pool.
// Otherwise data races occur.
func releaseStreamBuffer(b *bytebufferpool.ByteBuffer) {
	streamBufferPool.Put(b)
}

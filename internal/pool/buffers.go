// Package pool provides a sync.Pool of fixed 512-byte receive buffers, so
// the server loop's per-datagram read buffer doesn't allocate on every
// request.
package pool

import "sync"

// BufferSize is the fixed receive-buffer size: the maximum UDP datagram
// this proxy's wire codec operates on.
const BufferSize = 512

var bufferPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, BufferSize)
		return &buf
	},
}

// GetBuffer returns a buffer of length and capacity BufferSize. A recycled
// buffer is not zeroed; it still holds whatever its previous user wrote.
func GetBuffer() []byte {
	bufPtr := bufferPool.Get().(*[]byte)
	return (*bufPtr)[:BufferSize]
}

// PutBuffer returns buf to the pool. Buffers of the wrong capacity
// (should never happen, since GetBuffer only ever hands out BufferSize
// buffers) are simply dropped rather than pooled.
func PutBuffer(buf []byte) {
	if cap(buf) != BufferSize {
		return
	}
	buf = buf[:BufferSize]
	bufferPool.Put(&buf)
}

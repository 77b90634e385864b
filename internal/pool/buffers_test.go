package pool

import "testing"

func TestGetBufferSize(t *testing.T) {
	buf := GetBuffer()
	if len(buf) != BufferSize {
		t.Errorf("buffer size = %d, want %d", len(buf), BufferSize)
	}
}

func TestPutBufferRecycles(t *testing.T) {
	buf := GetBuffer()
	copy(buf, []byte("test data"))
	PutBuffer(buf)

	buf2 := GetBuffer()
	if len(buf2) != BufferSize {
		t.Errorf("buffer size = %d, want %d", len(buf2), BufferSize)
	}
}

func TestPutBufferIgnoresWrongCapacity(t *testing.T) {
	// Should not panic, and must not corrupt the pool for later Gets.
	PutBuffer(make([]byte, 100))
	buf := GetBuffer()
	if len(buf) != BufferSize {
		t.Errorf("buffer size = %d, want %d", len(buf), BufferSize)
	}
}

func BenchmarkGetPutBuffer(b *testing.B) {
	for i := 0; i < b.N; i++ {
		buf := GetBuffer()
		PutBuffer(buf)
	}
}

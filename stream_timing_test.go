package neonhttp

import (
	"testing"
)

func BenchmarkStreamWriteChunked1K(b *testing.B) {
	benchmarkStreamWriteChunked(b, 1000, DefaultChunkSize)
}

func BenchmarkStreamWriteChunked64K(b *testing.B) {
	benchmarkStreamWriteChunked(b, 64*1024, DefaultChunkSize)
}

func BenchmarkStreamWriteChunked64KSmallChunks(b *testing.B) {
	benchmarkStreamWriteChunked(b, 64*1024, 128)
}

func benchmarkStreamWriteChunked(b *testing.B, size, chunkSize int) {
	data := createFixedBody(size)
	b.SetBytes(int64(size))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			s, err := NewStream(ModeWPlus)
			if err != nil {
				b.Fatalf("unexpected error: %v", err)
			}
			if _, err = s.WriteChunked(data, chunkSize); err != nil {
				b.Fatalf("unexpected error: %v", err)
			}
			if err = s.Rewind(); err != nil {
				b.Fatalf("unexpected error: %v", err)
			}
			if _, err = s.ReadChunked(chunkSize); err != nil {
				b.Fatalf("unexpected error: %v", err)
			}
			s.Close()
		}
	})
}

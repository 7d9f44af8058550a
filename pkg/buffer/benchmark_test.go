package buffer

import (
	"fmt"
	"testing"
)

// BenchmarkBufferWrite benchmarks buffer Write operations across different configurations.
func BenchmarkBufferWrite(b *testing.B) {
	buf1, err := NewCircularBuffer[int](100, WithOverflowPolicy[int](DropOldest))
	if err != nil {
		b.Fatal(err)
	}
	buf2, err := NewCircularBuffer[int](100, WithOverflowPolicy[int](DropNewest))
	if err != nil {
		b.Fatal(err)
	}
	buf3, err := NewCircularBuffer[int](1000, WithOverflowPolicy[int](DropOldest))
	if err != nil {
		b.Fatal(err)
	}

	benchmarks := []struct {
		name   string
		buffer Buffer[int]
	}{
		{"Circular_100_DropOldest", buf1},
		{"Circular_100_DropNewest", buf2},
		{"Circular_1000_DropOldest", buf3},
	}

	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			buffer := bm.buffer
			defer buffer.Close()

			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				i := 0
				for pb.Next() {
					_ = buffer.Write(i)
					i++
				}
			})
		})
	}
}

// BenchmarkBufferRead benchmarks buffer Read operations.
func BenchmarkBufferRead(b *testing.B) {
	capacities := []int{100, 1000, 10000}

	for _, capacity := range capacities {
		b.Run(fmt.Sprintf("Circular_%d", capacity), func(b *testing.B) {
			buffer, err := NewCircularBuffer[int](capacity)
			if err != nil {
				b.Fatal(err)
			}
			defer buffer.Close()

			for i := 0; i < capacity; i++ {
				_ = buffer.Write(i)
			}

			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					buffer.Read()
				}
			})
		})
	}
}

// BenchmarkBufferReadBatch benchmarks batch read operations.
func BenchmarkBufferReadBatch(b *testing.B) {
	batchSizes := []int{1, 10, 100}

	for _, batchSize := range batchSizes {
		b.Run(fmt.Sprintf("BatchSize_%d", batchSize), func(b *testing.B) {
			buffer, err := NewCircularBuffer[int](1000)
			if err != nil {
				b.Fatal(err)
			}
			defer buffer.Close()

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				for j := 0; j < batchSize; j++ {
					_ = buffer.Write(j)
				}
				buffer.ReadBatch(batchSize)
			}
		})
	}
}

// BenchmarkBufferSnapshot benchmarks snapshot copies at varying fill levels.
func BenchmarkBufferSnapshot(b *testing.B) {
	fillLevels := []int{10, 100, 1000}

	for _, fill := range fillLevels {
		b.Run(fmt.Sprintf("Items_%d", fill), func(b *testing.B) {
			buffer, err := NewCircularBuffer[int](1000)
			if err != nil {
				b.Fatal(err)
			}
			defer buffer.Close()

			for i := 0; i < fill; i++ {
				_ = buffer.Write(i)
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = buffer.Snapshot()
			}
		})
	}
}

package pool

import (
	"testing"
)

// Benchmark allocate / release / sync churn on a warm table
func BenchmarkAddReleaseSync(b *testing.B) {
	const batch = 256
	p := New[[4]int64](WithCapacity(batch))
	handles := make([]*Handle[[4]int64], batch)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		for j := range handles {
			handles[j] = p.Add([4]int64{int64(j)})
		}
		for _, h := range handles {
			h.Release()
		}
		p.Sync()
	}

	b.ReportMetric(float64(batch*b.N), "items/op")
}

// Benchmark weak lookups against a populated table
func BenchmarkGetWeak(b *testing.B) {
	const n = 1024
	p := New[int](WithCapacity(n))
	weaks := make([]WeakHandle[int], n)
	for i := range weaks {
		weaks[i] = p.Add(i).Weak()
	}
	b.ResetTimer()

	sum := 0
	for i := 0; i < b.N; i++ {
		if v, ok := p.Get(weaks[i%n]); ok {
			sum += *v
		}
	}
	_ = sum
}

// Benchmark clone and release traffic through the event queue
func BenchmarkCloneRelease(b *testing.B) {
	p := New[int]()
	h := p.Add(1)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		h.Clone().Release()
		if i%1024 == 1023 {
			p.SyncRefCounts(nil)
		}
	}
	p.Sync()

	b.ReportMetric(float64(2*b.N), "events/op")
}

// Benchmark iteration over a sparse table
func BenchmarkItems(b *testing.B) {
	const n = 4096
	p := New[int](WithCapacity(n))
	for i := 0; i < n; i++ {
		h := p.Add(i)
		if i%3 == 0 {
			h.Release()
		}
	}
	p.Sync()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		total := 0
		for v := range p.Items() {
			total += *v
		}
		_ = total
	}
}

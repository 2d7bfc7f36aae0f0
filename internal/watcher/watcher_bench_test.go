package watcher

import (
	"fmt"
	"testing"
	"time"
)

// BenchmarkDebouncer_Flush benchmarks collapsing a burst into a batch
func BenchmarkDebouncer_Flush(b *testing.B) {
	for _, size := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("events-%d", size), func(b *testing.B) {
			events := make([]ChangeEvent, size)
			for i := range events {
				events[i] = ChangeEvent{Path: fmt.Sprintf("doc%d.yaml", i%50), Type: EventTypeModified}
			}
			d := newDebouncer(time.Hour)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				d.pending = append(d.pending, events...)
				d.flush()
				<-d.output
			}
		})
	}
}

// BenchmarkFilters benchmarks the path filters
func BenchmarkFilters(b *testing.B) {
	exact := ExactFilter("docs/state.yaml")
	paths := []string{"docs/state.yaml", "docs/other.json", "main.go", ".state.yaml.swp"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, p := range paths {
			_ = NoBackupFilter(p) && exact(p)
		}
	}
}

package testutils

import (
	"runtime"
	"time"
)

// TestingT is the subset of testing.TB the goroutine check needs.
type TestingT interface {
	Helper()
	Errorf(format string, args ...interface{})
	Logf(format string, args ...interface{})
	Cleanup(func())
}

// CheckGoroutines records the goroutine count now and, when the test ends,
// fails if more goroutines are still running after a grace period. Tests
// using it must not run in parallel.
func CheckGoroutines(t TestingT, grace time.Duration) {
	t.Helper()

	runtime.GC()
	initial := runtime.NumGoroutine()

	t.Cleanup(func() {
		deadline := time.Now().Add(grace)
		current := runtime.NumGoroutine()
		for current > initial && time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
			current = runtime.NumGoroutine()
		}
		if current > initial {
			t.Errorf("goroutine leak: %d initial, %d current (+%d)", initial, current, current-initial)
			t.Logf("goroutine stack trace:\n%s", stackTrace())
		}
	})
}

func stackTrace() string {
	buf := make([]byte, 64*1024)
	n := runtime.Stack(buf, true)
	return string(buf[:n])
}

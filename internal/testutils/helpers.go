// Package testutils holds helpers shared by the vue-explore test suites.
package testutils

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/luckyadam/vue-explore/internal/document"
	"github.com/luckyadam/vue-explore/internal/reactive"
	"github.com/stretchr/testify/require"
)

// WriteFile writes content to dir/name and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// WriteDocument encodes v as YAML into dir/name.
func WriteDocument(t *testing.T, dir, name string, v any) string {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, document.Encode(&buf, v))
	return WriteFile(t, dir, name, buf.String())
}

// Recorder collects the changes delivered to a watcher or observer.
type Recorder struct {
	mutex   sync.Mutex
	changes []reactive.Change
}

// OnChange implements reactive.Observer.
func (r *Recorder) OnChange(c reactive.Change) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.changes = append(r.changes, c)
}

// Watcher returns a watcher that records into r.
func (r *Recorder) Watcher() *reactive.Watcher {
	return reactive.NewWatcher(r.OnChange)
}

// Changes returns a copy of everything recorded so far.
func (r *Recorder) Changes() []reactive.Change {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([]reactive.Change(nil), r.changes...)
}

// Kinds returns the kind of each recorded change in delivery order.
func (r *Recorder) Kinds() []string {
	changes := r.Changes()
	kinds := make([]string, len(changes))
	for i, c := range changes {
		kinds[i] = c.Kind.String()
	}
	return kinds
}

// Reset forgets every recorded change.
func (r *Recorder) Reset() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.changes = nil
}

// WaitFor polls cond until it holds or the timeout expires.
func WaitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v: %s", timeout, msg)
}

package dirty

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/luckyadam/vue-explore/internal/errors"
	"github.com/luckyadam/vue-explore/internal/logging"
)

// Callback receives the delta of a polled property.
type Callback func(Delta)

// Entry is one registration in the dirty check list.
type Entry struct {
	id       string
	obj      any
	prop     any
	length   bool
	read     accessor
	baseline any
	cb       Callback
}

// ID returns the entry's unique identifier.
func (e *Entry) ID() string { return e.id }

// Prop returns the watched property; nil means the container itself.
func (e *Entry) Prop() any { return e.prop }

// Length reports whether the entry only tracks size changes.
func (e *Entry) Length() bool { return e.length }

// Option configures a Checker.
type Option func(*Checker)

// WithLogger sets the checker's logger.
func WithLogger(logger logging.Logger) Option {
	return func(c *Checker) {
		if logger != nil {
			c.logger = logger.WithComponent("dirty")
		}
	}
}

// WithLocker makes every tick hold l while it reads the polled values.
// Foreign code that mutates those values from another goroutine shares l
// with the checker.
func WithLocker(l sync.Locker) Option {
	return func(c *Checker) {
		c.locker = l
	}
}

// Checker holds the dirty check list and compares snapshots on every tick.
// Registrations and ticks may come from different goroutines.
type Checker struct {
	entries []*Entry
	locker  sync.Locker
	logger  logging.Logger
	mutex   sync.Mutex
}

type firing struct {
	cb    Callback
	delta Delta
}

// NewChecker creates an empty checker.
func NewChecker(opts ...Option) *Checker {
	c := &Checker{
		entries: make([]*Entry, 0),
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Watch records a baseline of obj[prop] and registers cb. It fails when the
// property cannot be addressed or its value cannot be cloned.
func (c *Checker) Watch(obj, prop any, cb Callback) (*Entry, error) {
	read, err := locate(obj, prop)
	if err != nil {
		return nil, err
	}
	var baseline any
	c.guarded(func() {
		current, _ := read()
		baseline, err = Clone(current)
	})
	if err != nil {
		return nil, errors.WrapValidation(err, errors.ErrCodeUncloneable,
			fmt.Sprintf("cannot record baseline for %v", prop))
	}
	return c.add(&Entry{obj: obj, prop: prop, read: read, baseline: baseline, cb: cb}), nil
}

// WatchLength registers cb for size changes of obj[prop] only.
func (c *Checker) WatchLength(obj, prop any, cb Callback) (*Entry, error) {
	read, err := locate(obj, prop)
	if err != nil {
		return nil, err
	}
	var current any
	c.guarded(func() { current, _ = read() })
	if !sized(current) {
		return nil, errors.ErrUnsupportedContainer(fmt.Sprintf("%T", current)).
			WithContext("prop", prop)
	}
	return c.add(&Entry{obj: obj, prop: prop, length: true, read: read, baseline: size(current), cb: cb}), nil
}

func (c *Checker) guarded(fn func()) {
	if c.locker != nil {
		c.locker.Lock()
		defer c.locker.Unlock()
	}
	fn()
}

func (c *Checker) add(e *Entry) *Entry {
	e.id = uuid.Must(uuid.NewV7()).String()

	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries = append(c.entries, e)

	c.logger.Debug(context.Background(), "recorded baseline",
		"entry", e.id, "prop", e.prop, "length", e.length)
	return e
}

// Remove drops a single entry. It reports whether the entry was registered.
func (c *Checker) Remove(e *Entry) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	for i, existing := range c.entries {
		if existing == e {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Unwatch drops every entry registered for obj[prop] and returns how many
// were removed.
func (c *Checker) Unwatch(obj, prop any) int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	kept := c.entries[:0]
	removed := 0
	for _, e := range c.entries {
		if sameTarget(e.obj, obj) && sameTarget(e.prop, prop) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	clear(c.entries[len(kept):])
	c.entries = kept
	return removed
}

// Len returns the number of registered entries.
func (c *Checker) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.entries)
}

// Tick snapshots every entry, compares it with the baseline and fires the
// callbacks of the entries that changed. Baselines are replaced by the new
// snapshot. It returns the number of callbacks fired; snapshot failures are
// combined into the returned error and leave their baseline untouched.
func (c *Checker) Tick(ctx context.Context) (int, error) {
	var (
		fired []firing
		errs  []error
	)

	if err := c.snapshot(ctx, func(e *Entry) {
		delta, changed, err := e.check()
		switch {
		case err != nil:
			errs = append(errs, err)
		case changed && e.cb != nil:
			fired = append(fired, firing{cb: e.cb, delta: delta})
		}
	}); err != nil {
		return 0, err
	}

	for _, f := range fired {
		f.cb(f.delta)
	}

	if len(fired) > 0 {
		c.logger.Debug(ctx, "dirty check fired", "callbacks", len(fired))
	}
	return len(fired), errors.CombineErrors(errs...)
}

func (c *Checker) snapshot(ctx context.Context, visit func(*Entry)) (err error) {
	c.guarded(func() {
		c.mutex.Lock()
		defer c.mutex.Unlock()

		for _, e := range c.entries {
			if err = ctx.Err(); err != nil {
				return
			}
			visit(e)
		}
	})
	return err
}

func (e *Entry) check() (Delta, bool, error) {
	current, _ := e.read()

	if e.length {
		n := size(current)
		old := e.baseline.(int)
		if n == old {
			return Delta{}, false, nil
		}
		e.baseline = n
		return Delta{Old: old, New: n, Changed: []Item{{Key: "length", Value: n}}}, true, nil
	}

	snapshot, err := Clone(current)
	if err != nil {
		return Delta{}, false, errors.WrapValidation(err, errors.ErrCodeUncloneable,
			fmt.Sprintf("cannot snapshot %v", e.prop)).WithContext("entry", e.id)
	}
	delta := Diff(e.baseline, snapshot)
	e.baseline = snapshot
	return delta, !delta.Empty(), nil
}

// Run ticks every interval until ctx is cancelled. Tick failures are logged
// and do not stop the loop.
func (c *Checker) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return errors.NewValidationError(errors.ErrCodeInvalidConfig, "poll interval must be positive").
			WithContext("interval", interval.String())
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := c.Tick(ctx); err != nil && ctx.Err() == nil {
				c.logger.Warn(ctx, err, "dirty check failed")
			}
		}
	}
}

func sameTarget(a, b any) bool {
	return same(reflect.ValueOf(a), reflect.ValueOf(b))
}

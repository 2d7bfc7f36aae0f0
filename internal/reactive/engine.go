package reactive

import (
	"context"
	"reflect"
	"slices"
	"strings"
	"unsafe"

	"github.com/google/uuid"
	"github.com/luckyadam/vue-explore/internal/logging"
)

// DefaultReservedPrefixes mark keys that hold internal bookkeeping and are
// never made reactive.
var DefaultReservedPrefixes = []string{"$", "_"}

// NodeKind distinguishes objects from sequences.
type NodeKind int

const (
	KindObject NodeKind = iota
	KindSequence
)

// String returns the string representation of the NodeKind
func (k NodeKind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindSequence:
		return "sequence"
	default:
		return "unknown"
	}
}

// Record is the per-node observation metadata held in the engine's side table.
type Record struct {
	ID   string
	Kind NodeKind
	// Source is the value originally handed to the engine.
	Source any
	// Node is the observed node; for sequences it is the mutation interceptor.
	Node Node
}

// Node is an observed object or sequence.
type Node interface {
	Record() *Record
	Engine() *Engine
	Len() int
	export(seen map[Node]any) any
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for debug output.
func WithLogger(logger logging.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger.WithComponent("reactive")
		}
	}
}

// WithReservedPrefixes replaces the key prefixes that mark internal fields.
func WithReservedPrefixes(prefixes ...string) Option {
	return func(e *Engine) {
		e.reserved = slices.Clone(prefixes)
	}
}

// WithReentrancyGuard controls whether a write made from inside a node's own
// notification is delivered again. The guard is enabled by default.
func WithReentrancyGuard(enabled bool) Option {
	return func(e *Engine) {
		e.guard = enabled
	}
}

// WithObserver subscribes o to every change.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.Subscribe(o)
	}
}

type identity struct {
	ptr      unsafe.Pointer
	len, cap int
}

type subscription struct {
	id       int
	observer Observer
}

// Engine owns the observation side table, the engine level observers and
// the policy knobs shared by every node it creates.
type Engine struct {
	records   map[identity]*Record
	foreign   map[Node]*Record
	order     []*Record
	observers []subscription
	nextSub   int
	reserved  []string
	guard     bool
	logger    logging.Logger
}

// New creates an engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		records:  make(map[identity]*Record),
		foreign:  make(map[Node]*Record),
		reserved: slices.Clone(DefaultReservedPrefixes),
		guard:    true,
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Observe wraps v and everything reachable from it. Scalars return nil.
// Observing an already observed value returns the existing node.
func (e *Engine) Observe(v any) Node {
	switch val := v.(type) {
	case *Object:
		if val == nil {
			return nil
		}
		if val.engine == e {
			return val
		}
		return e.adopt(val, func() Node { return e.Observe(val.Map()) })
	case *Sequence:
		if val == nil {
			return nil
		}
		if val.engine == e {
			return val
		}
		return e.adopt(val, func() Node { return e.Observe(val.Slice()) })
	case map[string]any:
		if val == nil {
			return nil
		}
		id, _ := identify(val)
		if rec, ok := e.records[id]; ok {
			return rec.Node
		}
		return e.observeObject(val, id)
	case []any:
		id, ok := identify(val)
		if ok {
			if rec, found := e.records[id]; found {
				return rec.Node
			}
		}
		return e.observeSequence(val, val, id, ok)
	case *[]any:
		if val == nil {
			return nil
		}
		id, _ := identify(val)
		if rec, ok := e.records[id]; ok {
			return rec.Node
		}
		return e.observeSequence(val, *val, id, true)
	}
	return nil
}

// Lookup returns the node for an already observed value without observing it.
func (e *Engine) Lookup(v any) Node {
	switch val := v.(type) {
	case *Object:
		if val != nil && val.engine == e {
			return val
		}
		return e.adopted(val)
	case *Sequence:
		if val != nil && val.engine == e {
			return val
		}
		return e.adopted(val)
	}
	id, ok := identify(v)
	if !ok {
		return nil
	}
	if rec, found := e.records[id]; found {
		return rec.Node
	}
	return nil
}

// adopt observes a plain copy of a node owned by another engine, once.
func (e *Engine) adopt(n Node, observe func() Node) Node {
	if rec, ok := e.foreign[n]; ok {
		return rec.Node
	}
	adopted := observe()
	if adopted != nil {
		e.foreign[n] = adopted.Record()
	}
	return adopted
}

func (e *Engine) adopted(n Node) Node {
	if rec, ok := e.foreign[n]; ok {
		return rec.Node
	}
	return nil
}

// Len returns the number of records the engine holds.
func (e *Engine) Len() int {
	return len(e.order)
}

// Records returns every record in the order the values were observed,
// including sequences that had no stable identity to key them by.
func (e *Engine) Records() []*Record {
	return slices.Clone(e.order)
}

// Subscribe registers an engine level observer. The returned func removes it.
func (e *Engine) Subscribe(o Observer) func() {
	if o == nil {
		return func() {}
	}
	e.nextSub++
	id := e.nextSub
	e.observers = append(e.observers, subscription{id: id, observer: o})
	return func() {
		e.observers = slices.DeleteFunc(e.observers, func(s subscription) bool {
			return s.id == id
		})
	}
}

// Reserved reports whether key names an internal field.
func (e *Engine) Reserved(key string) bool {
	for _, prefix := range e.reserved {
		if prefix != "" && strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

func (e *Engine) observeObject(src map[string]any, id identity) *Object {
	obj := &Object{
		engine: e,
		cells:  make(map[string]*Cell, len(src)),
		fields: make(map[string]any),
	}
	obj.record = e.register(id, true, KindObject, src, obj)

	keys := make([]string, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		obj.install(k, src[k])
	}
	return obj
}

func (e *Engine) observeSequence(src any, items []any, id identity, identified bool) *Sequence {
	seq := &Sequence{
		engine: e,
		items:  slices.Clone(items),
	}
	if seq.items == nil {
		seq.items = []any{}
	}
	seq.record = e.register(id, identified, KindSequence, src, seq)
	seq.link(0, len(seq.items))
	return seq
}

func (e *Engine) register(id identity, identified bool, kind NodeKind, src any, node Node) *Record {
	rec := &Record{
		ID:     uuid.Must(uuid.NewV7()).String(),
		Kind:   kind,
		Source: src,
		Node:   node,
	}
	if identified {
		e.records[id] = rec
	}
	e.order = append(e.order, rec)
	e.logger.Debug(context.Background(), "observed value", "kind", kind.String(), "record_id", rec.ID)
	return rec
}

// wrap observes v and returns its node, or v itself when it is a scalar.
func (e *Engine) wrap(v any) any {
	if n := e.Observe(v); n != nil {
		return n
	}
	return v
}

// same reports whether writing next over current would be a no-op.
func (e *Engine) same(current, next any) bool {
	if identical(current, next) {
		return true
	}
	if n := e.Lookup(next); n != nil {
		return identical(current, n)
	}
	return false
}

func (e *Engine) deliver(entries []entry, c Change) {
	if len(entries) == 0 {
		return
	}
	for _, en := range slices.Clone(entries) {
		en.watcher.notify(c)
	}
}

func (e *Engine) emit(c Change) {
	for _, s := range slices.Clone(e.observers) {
		s.observer.OnChange(c)
	}
}

func (e *Engine) suppressed(what string, fields ...interface{}) {
	e.logger.Debug(context.Background(), "suppressed re-entrant notification", append([]interface{}{"node", what}, fields...)...)
}

func identify(v any) (identity, bool) {
	switch val := v.(type) {
	case map[string]any:
		if val == nil {
			return identity{}, false
		}
		return identity{ptr: reflect.ValueOf(val).UnsafePointer(), len: -1, cap: -1}, true
	case *[]any:
		if val == nil {
			return identity{}, false
		}
		return identity{ptr: unsafe.Pointer(val), len: -2, cap: -2}, true
	case []any:
		if cap(val) == 0 {
			return identity{}, false
		}
		return identity{ptr: unsafe.Pointer(unsafe.SliceData(val)), len: len(val), cap: cap(val)}, true
	}
	return identity{}, false
}

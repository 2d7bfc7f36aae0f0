package reactive

import (
	"slices"
)

// Cell is the reactive slot behind one key of an observed object. The
// current value lives in the cell itself; every reactive write to the key
// goes through Set.
type Cell struct {
	owner     *Object
	key       string
	value     any
	entries   []entry
	notifying bool
}

// Key returns the key the cell backs.
func (c *Cell) Key() string {
	return c.key
}

// Get returns the current value. Nested objects and sequences are returned
// as nodes.
func (c *Cell) Get() any {
	return c.value
}

// Set stores v. Writing an identical value does nothing; otherwise v is
// observed, stored, and the change is delivered to the cell's watchers and
// to the engine observers.
func (c *Cell) Set(v any) {
	e := c.owner.engine
	if e.same(c.value, v) {
		return
	}
	old := c.value
	c.value = e.wrap(v)
	retarget(e, c.owner, move{entries: c.entries, left: []any{old}, arrived: []any{c.value}, keyed: true})

	if c.notifying && e.guard {
		e.suppressed("cell", "key", c.key)
		return
	}
	c.notifying = true
	defer func() { c.notifying = false }()

	change := Change{Kind: KindSet, Node: c.owner, Key: c.key, Index: -1, Old: old, New: c.value}
	e.deliver(c.entries, change)
	e.emit(change)
}

// Object is an observed map: a set of reactive cells keyed by field name,
// plus plain internal fields for reserved-prefix keys.
type Object struct {
	engine    *Engine
	record    *Record
	keys      []string
	cells     map[string]*Cell
	fields    map[string]any
	shape     []entry
	notifying bool
}

// Record returns the observation record.
func (o *Object) Record() *Record {
	return o.record
}

// Engine returns the owning engine.
func (o *Object) Engine() *Engine {
	return o.engine
}

// Len returns the number of reactive keys.
func (o *Object) Len() int {
	return len(o.keys)
}

// Keys returns the reactive keys in insertion order.
func (o *Object) Keys() []string {
	return slices.Clone(o.keys)
}

// Has reports whether key exists, reactive or internal.
func (o *Object) Has(key string) bool {
	if _, ok := o.cells[key]; ok {
		return true
	}
	_, ok := o.fields[key]
	return ok
}

// Cell returns the reactive cell for key, or nil.
func (o *Object) Cell(key string) *Cell {
	return o.cells[key]
}

// Get returns the value stored at key, or nil.
func (o *Object) Get(key string) any {
	if c, ok := o.cells[key]; ok {
		return c.value
	}
	return o.fields[key]
}

// Set writes key. Existing reactive keys go through their cell, reserved
// keys are stored as plain fields, and unknown keys are added.
func (o *Object) Set(key string, v any) {
	if c, ok := o.cells[key]; ok {
		c.Set(v)
		return
	}
	if o.engine.Reserved(key) {
		o.fields[key] = v
		return
	}
	o.Add(key, v)
}

// Add defines a new key. It does nothing and returns false when the key
// already exists.
func (o *Object) Add(key string, v any) bool {
	if o.Has(key) {
		return false
	}
	c := o.install(key, v)
	if c == nil {
		return true
	}
	o.reshape(Change{Kind: KindAdd, Node: o, Key: key, Index: -1, New: c.value})
	return true
}

// Delete removes key and releases the watchers that descended into its
// value. It returns false when the key does not exist.
func (o *Object) Delete(key string) bool {
	c, ok := o.cells[key]
	if !ok {
		if _, internal := o.fields[key]; internal {
			delete(o.fields, key)
			return true
		}
		return false
	}
	delete(o.cells, key)
	o.keys = slices.DeleteFunc(o.keys, func(k string) bool { return k == key })
	retarget(o.engine, o, move{entries: c.entries, left: []any{c.value}, keyed: true})
	c.entries = nil
	o.reshape(Change{Kind: KindDelete, Node: o, Key: key, Index: -1, Old: c.value})
	return true
}

// Map returns a plain deep copy of the object.
func (o *Object) Map() map[string]any {
	out, _ := Export(o).(map[string]any)
	return out
}

func (o *Object) export(seen map[Node]any) any {
	out := make(map[string]any, len(o.keys)+len(o.fields))
	seen[o] = out
	for k, v := range o.fields {
		out[k] = v
	}
	for _, k := range o.keys {
		out[k] = export(o.cells[k].value, seen)
	}
	return out
}

// install observes v and creates the cell for key. Reserved keys are stored
// as plain fields and yield a nil cell.
func (o *Object) install(key string, v any) *Cell {
	if o.engine.Reserved(key) {
		o.fields[key] = v
		return nil
	}
	c := &Cell{owner: o, key: key, value: o.engine.wrap(v)}
	o.cells[key] = c
	o.keys = append(o.keys, key)
	return c
}

func (o *Object) reshape(change Change) {
	e := o.engine
	if o.notifying && e.guard {
		e.suppressed("object", "key", change.Key)
		return
	}
	o.notifying = true
	defer func() { o.notifying = false }()

	e.deliver(o.shape, change)
	e.emit(change)
}

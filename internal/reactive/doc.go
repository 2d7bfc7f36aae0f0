// Package reactive implements the observation engine: it turns a plain
// value graph (map[string]any, []any and scalars) into observed nodes whose
// mutations are delivered to watchers without the data owner calling any
// explicit update API.
//
// # Nodes
//
// Engine.Observe walks a value once. Every map becomes an *Object, a set of
// reactive cells keyed by field name, and every slice becomes a *Sequence,
// which owns its element buffer and intercepts the mutating operations
// (Append, Prepend, RemoveFirst, RemoveLast, Splice, Sort, Reverse, SetAt,
// RemoveValue). Values assigned or inserted later are observed on the way
// in, so the whole reachable graph stays reactive.
//
// Observation is idempotent: the engine keeps an identity keyed side table
// from source values to their records, so observing a value twice, or
// meeting it twice through repeated or cyclic references, yields the same
// node.
//
//	e := reactive.New()
//	root := e.Observe(map[string]any{"a": map[string]any{"b": 1}}).(*reactive.Object)
//	inner := root.Get("a").(*reactive.Object)
//	inner.Set("b", 2) // passes through the same write path as root.Set
//
// # Watching
//
// Engine.Watch attaches a *Watcher to one key, a list of keys, or every key
// of a node (prop == nil), optionally descending into children up to a
// depth budget and optionally tracking size changes through length
// subjects. Engine.Unwatch mirrors the same dispatch.
//
// Changes are not propagated to ancestors. A write is delivered to the
// entries registered where it happened and to every engine level Observer;
// subtree coverage comes from watching with a depth budget.
//
// # Concurrency
//
// An Engine is single threaded. All calls complete synchronously and no
// locking is performed; callers that share an engine across goroutines must
// serialise access themselves.
package reactive

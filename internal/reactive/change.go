package reactive

import "fmt"

// ChangeKind identifies what happened to a node.
type ChangeKind int

const (
	// KindSet is a write of a new value to an object key or a sequence index.
	KindSet ChangeKind = iota
	// KindAdd is a key added to an object.
	KindAdd
	// KindDelete is a key removed from an object.
	KindDelete
	// KindSplice is an insertion and/or removal of sequence elements.
	KindSplice
	// KindReorder is a sort or reverse of a sequence.
	KindReorder
	// KindLength is a change of a sequence's size. Old and New hold the lengths.
	KindLength
)

// String returns the string representation of the ChangeKind
func (k ChangeKind) String() string {
	switch k {
	case KindSet:
		return "set"
	case KindAdd:
		return "add"
	case KindDelete:
		return "delete"
	case KindSplice:
		return "splice"
	case KindReorder:
		return "reorder"
	case KindLength:
		return "length"
	default:
		return "unknown"
	}
}

// Change describes one mutation of an observed node.
type Change struct {
	Kind ChangeKind
	// Node is the object or sequence the mutation happened in.
	Node Node
	// Key is set for object changes.
	Key string
	// Index is set for sequence changes and is -1 for object changes.
	Index   int
	Old     any
	New     any
	Added   []any
	Removed []any
}

// String renders a short human readable description.
func (c Change) String() string {
	switch c.Kind {
	case KindSet:
		if c.Index >= 0 {
			return fmt.Sprintf("set [%d]: %v -> %v", c.Index, describe(c.Old), describe(c.New))
		}
		return fmt.Sprintf("set %s: %v -> %v", c.Key, describe(c.Old), describe(c.New))
	case KindAdd:
		return fmt.Sprintf("add %s: %v", c.Key, describe(c.New))
	case KindDelete:
		return fmt.Sprintf("delete %s: %v", c.Key, describe(c.Old))
	case KindSplice:
		return fmt.Sprintf("splice at %d: +%d -%d", c.Index, len(c.Added), len(c.Removed))
	case KindReorder:
		return "reorder"
	case KindLength:
		return fmt.Sprintf("length: %v -> %v", c.Old, c.New)
	default:
		return c.Kind.String()
	}
}

func describe(v any) any {
	switch n := v.(type) {
	case *Object:
		return fmt.Sprintf("object(%d keys)", n.Len())
	case *Sequence:
		return fmt.Sprintf("sequence(%d items)", n.Len())
	default:
		return v
	}
}

// Observer receives every change delivered by an engine, regardless of
// which watchers are registered.
type Observer interface {
	OnChange(c Change)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(c Change)

// OnChange calls f(c).
func (f ObserverFunc) OnChange(c Change) {
	f(c)
}

package script

import (
	"bytes"
	"encoding/json"
	"reflect"
	"slices"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/luckyadam/vue-explore/internal/document"
	"github.com/luckyadam/vue-explore/internal/errors"
	"github.com/luckyadam/vue-explore/internal/reactive"
)

// applyPatch applies an RFC 6902 patch to the node at step.Path. The patch
// runs against a plain copy and the result is written back through the
// node methods, so only the parts that actually changed notify.
func (r *Runner) applyPatch(step Step) error {
	target, err := r.Resolve(step.Path)
	if err != nil {
		return err
	}
	node, ok := target.(reactive.Node)
	if !ok {
		return errors.ErrInvalidPath(step.Path).WithContext("reason", "not an object or sequence")
	}

	ops, err := json.Marshal(step.Value)
	if err != nil {
		return errors.WrapValidation(err, errors.ErrCodeInvalidStep, "cannot encode patch")
	}
	patch, err := jsonpatch.DecodePatch(ops)
	if err != nil {
		return errors.WrapValidation(err, errors.ErrCodeInvalidStep, "invalid json patch")
	}

	current, err := json.Marshal(reactive.Export(node))
	if err != nil {
		return errors.WrapValidation(err, errors.ErrCodeInvalidStep, "cannot encode patch target").
			WithContext("path", step.Path)
	}
	patched, err := patch.Apply(current)
	if err != nil {
		return errors.WrapValidation(err, errors.ErrCodeInvalidStep, "json patch failed").
			WithContext("path", step.Path)
	}

	// Decoding as YAML keeps integers integral.
	next, err := document.Decode(bytes.NewReader(patched))
	if err != nil {
		return err
	}
	return reconcile(node, next, step.Path)
}

// reconcile makes node structurally equal to next.
func reconcile(node reactive.Node, next any, path string) error {
	switch n := node.(type) {
	case *reactive.Object:
		m, ok := next.(map[string]any)
		if !ok {
			return errors.ErrInvalidPath(path).WithContext("reason", "patch changed the node's shape")
		}
		reconcileObject(n, m)
		return nil
	case *reactive.Sequence:
		items, ok := next.([]any)
		if !ok {
			return errors.ErrInvalidPath(path).WithContext("reason", "patch changed the node's shape")
		}
		reconcileSequence(n, items)
		return nil
	}
	return errors.ErrInvalidPath(path)
}

func reconcileObject(obj *reactive.Object, next map[string]any) {
	for _, key := range obj.Keys() {
		if _, ok := next[key]; !ok {
			obj.Delete(key)
		}
	}

	keys := make([]string, 0, len(next))
	for key := range next {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		v := next[key]
		if obj.Engine().Reserved(key) {
			continue
		}
		if !obj.Has(key) {
			obj.Add(key, v)
			continue
		}
		if !reconcileChild(obj.Get(key), v) {
			obj.Set(key, v)
		}
	}
}

func reconcileSequence(seq *reactive.Sequence, next []any) {
	n := min(seq.Len(), len(next))
	for i := 0; i < n; i++ {
		if !reconcileChild(seq.At(i), next[i]) {
			seq.SetAt(i, next[i])
		}
	}
	switch {
	case len(next) > seq.Len():
		seq.Append(next[seq.Len():]...)
	case len(next) < seq.Len():
		seq.Splice(len(next), seq.Len()-len(next))
	}
}

// reconcileChild updates current in place when it is a node of the same
// shape as next, and reports whether current now matches next.
func reconcileChild(current, next any) bool {
	switch c := current.(type) {
	case *reactive.Object:
		if m, ok := next.(map[string]any); ok {
			reconcileObject(c, m)
			return true
		}
		return false
	case *reactive.Sequence:
		if items, ok := next.([]any); ok {
			reconcileSequence(c, items)
			return true
		}
		return false
	}
	return reflect.DeepEqual(current, next)
}

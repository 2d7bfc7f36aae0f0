// Package script applies YAML mutation scripts to an observed document.
//
// A script is a list of steps. Each step names an operation and a dotted
// path into the document, for example:
//
//	- op: watch
//	  props: [items]
//	  track_length: true
//	- op: append
//	  path: items
//	  values: [{name: c}]
//	- op: set
//	  path: items.0.name
//	  value: renamed
//	- op: patch
//	  value:
//	    - {op: replace, path: /items/1/name, value: b2}
//
// Mutations go through the engine's node methods, so every step produces
// the same notifications a program would.
package script

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/luckyadam/vue-explore/internal/document"
	"github.com/luckyadam/vue-explore/internal/errors"
	"github.com/luckyadam/vue-explore/internal/logging"
	"github.com/luckyadam/vue-explore/internal/reactive"
	"gopkg.in/yaml.v3"
)

// Operations understood by Apply.
const (
	OpSet     = "set"
	OpAdd     = "add"
	OpDelete  = "delete"
	OpAppend  = "append"
	OpPrepend = "prepend"
	OpPop     = "pop"
	OpShift   = "shift"
	OpSplice  = "splice"
	OpSort    = "sort"
	OpReverse = "reverse"
	OpSetAt   = "set_at"
	OpRemove  = "remove"
	OpWatch   = "watch"
	OpUnwatch = "unwatch"
	OpPatch   = "patch"
)

// DefaultWatcher names the watcher used by steps that do not name one.
const DefaultWatcher = "default"

// Step is a single scripted operation.
type Step struct {
	Op          string `yaml:"op"`
	Path        string `yaml:"path"`
	Value       any    `yaml:"value"`
	Values      []any  `yaml:"values"`
	Index       int    `yaml:"index"`
	Start       int    `yaml:"start"`
	Count       int    `yaml:"count"`
	Props       []any  `yaml:"props"`
	Depth       *int   `yaml:"depth"`
	TrackLength bool   `yaml:"track_length"`
	Watcher     string `yaml:"watcher"`
}

// String returns a short description of the step
func (s Step) String() string {
	if s.Path == "" {
		return s.Op
	}
	return s.Op + " " + s.Path
}

// Parse decodes a script.
func Parse(r io.Reader) ([]Step, error) {
	var steps []Step
	if err := yaml.NewDecoder(r).Decode(&steps); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, errors.WrapValidation(err, errors.ErrCodeDecode, "cannot decode script")
	}
	for i := range steps {
		steps[i].Value = document.Normalize(steps[i].Value)
		for j, v := range steps[i].Values {
			steps[i].Values[j] = document.Normalize(v)
		}
	}
	return steps, nil
}

// Load reads and decodes the script at path.
func Load(path string) ([]Step, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeDecode, "cannot read script").
			WithContext("path", path)
	}
	return Parse(bytes.NewReader(data))
}

// Sink receives the changes delivered to a named watcher.
type Sink func(watcher string, change reactive.Change)

// Runner applies steps to an observed root.
type Runner struct {
	engine   *reactive.Engine
	root     reactive.Node
	sink     Sink
	depth    int
	watchers map[string]*reactive.Watcher
	logger   logging.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithDefaultDepth sets the depth used by watch steps without one.
func WithDefaultDepth(depth int) Option {
	return func(r *Runner) {
		r.depth = depth
	}
}

// WithLogger sets the runner's logger.
func WithLogger(logger logging.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger.WithComponent("script")
		}
	}
}

// NewRunner creates a runner over root. Changes reaching scripted watchers
// are passed to sink.
func NewRunner(engine *reactive.Engine, root reactive.Node, sink Sink, opts ...Option) *Runner {
	r := &Runner{
		engine:   engine,
		root:     root,
		sink:     sink,
		depth:    reactive.Unlimited,
		watchers: make(map[string]*reactive.Watcher),
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Watcher returns the named watcher, creating it on first use.
func (r *Runner) Watcher(name string) *reactive.Watcher {
	if name == "" {
		name = DefaultWatcher
	}
	if w, ok := r.watchers[name]; ok {
		return w
	}
	w := reactive.NewWatcher(func(c reactive.Change) {
		if r.sink != nil {
			r.sink(name, c)
		}
	})
	r.watchers[name] = w
	return w
}

// Run applies steps in order and stops at the first failure.
func (r *Runner) Run(ctx context.Context, steps []Step) error {
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.Apply(ctx, step); err != nil {
			return errors.Annotate(err, "step", i)
		}
	}
	return nil
}

// Resolve walks a dotted path from the root. The empty path is the root.
func (r *Runner) Resolve(path string) (any, error) {
	var current any = r.root
	if path == "" {
		return current, nil
	}
	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case *reactive.Object:
			if !node.Has(segment) {
				return nil, errors.ErrInvalidPath(path)
			}
			current = node.Get(segment)
		case *reactive.Sequence:
			i, err := strconv.Atoi(segment)
			if err != nil || i < 0 || i >= node.Len() {
				return nil, errors.ErrInvalidPath(path)
			}
			current = node.At(i)
		default:
			return nil, errors.ErrInvalidPath(path)
		}
	}
	return current, nil
}

// Apply performs one step.
func (r *Runner) Apply(ctx context.Context, step Step) error {
	r.logger.Debug(ctx, "applying step", "step", step.String())

	switch step.Op {
	case OpSet, OpAdd, OpDelete:
		return r.applyKeyed(step)
	case OpWatch, OpUnwatch:
		return r.applyWatch(step)
	case OpPatch:
		return r.applyPatch(step)
	case OpAppend, OpPrepend, OpPop, OpShift, OpSplice, OpSort, OpReverse, OpSetAt, OpRemove:
		seq, err := r.sequence(step.Path)
		if err != nil {
			return err
		}
		applySequence(seq, step)
		return nil
	}

	return errors.NewValidationError(errors.ErrCodeInvalidStep, fmt.Sprintf("unknown operation %q", step.Op)).
		WithContext("op", step.Op)
}

func (r *Runner) applyKeyed(step Step) error {
	parentPath, key := split(step.Path)
	if key == "" {
		return errors.ErrInvalidPath(step.Path)
	}
	parent, err := r.Resolve(parentPath)
	if err != nil {
		return err
	}

	switch node := parent.(type) {
	case *reactive.Object:
		switch step.Op {
		case OpSet:
			node.Set(key, step.Value)
		case OpAdd:
			if !node.Add(key, step.Value) {
				r.logger.Debug(context.Background(), "key already defined", "path", step.Path)
			}
		case OpDelete:
			if !node.Delete(key) {
				return errors.ErrInvalidPath(step.Path)
			}
		}
		return nil

	case *reactive.Sequence:
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 {
			return errors.ErrInvalidPath(step.Path)
		}
		switch step.Op {
		case OpSet:
			node.SetAt(i, step.Value)
		case OpAdd:
			node.Splice(i, 0, step.Value)
		case OpDelete:
			if _, ok := node.RemoveAt(i); !ok {
				return errors.ErrInvalidPath(step.Path)
			}
		}
		return nil
	}

	return errors.ErrInvalidPath(step.Path)
}

func applySequence(seq *reactive.Sequence, step Step) {
	switch step.Op {
	case OpAppend:
		seq.Append(step.Values...)
	case OpPrepend:
		seq.Prepend(step.Values...)
	case OpPop:
		seq.RemoveLast()
	case OpShift:
		seq.RemoveFirst()
	case OpSplice:
		seq.Splice(step.Start, step.Count, step.Values...)
	case OpSort:
		seq.Sort(nil)
	case OpReverse:
		seq.Reverse()
	case OpSetAt:
		seq.SetAt(step.Index, step.Value)
	case OpRemove:
		seq.RemoveValue(step.Value)
	}
}

func (r *Runner) applyWatch(step Step) error {
	target, err := r.Resolve(step.Path)
	if err != nil {
		return err
	}
	node, ok := target.(reactive.Node)
	if !ok {
		return errors.ErrInvalidPath(step.Path).WithContext("reason", "not an object or sequence")
	}

	var prop any
	if len(step.Props) > 0 {
		prop = step.Props
	}
	w := r.Watcher(step.Watcher)

	if step.Op == OpUnwatch {
		r.engine.Unwatch(node, prop, w)
		return nil
	}

	depth := r.depth
	if step.Depth != nil {
		depth = *step.Depth
	}
	opts := []reactive.WatchOption{reactive.WithDepth(depth)}
	if step.TrackLength {
		opts = append(opts, reactive.WithLengthTracking())
	}
	r.engine.Watch(node, prop, w, opts...)
	return nil
}

func (r *Runner) sequence(path string) (*reactive.Sequence, error) {
	target, err := r.Resolve(path)
	if err != nil {
		return nil, err
	}
	seq, ok := target.(*reactive.Sequence)
	if !ok {
		return nil, errors.ErrInvalidPath(path).WithContext("reason", "not a sequence")
	}
	return seq, nil
}

func split(path string) (parent, key string) {
	i := strings.LastIndex(path, ".")
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}

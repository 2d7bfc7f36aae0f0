// Package filter selects which notifications the command line prints.
//
// A filter is a boolean expr-lang expression evaluated against an Event,
// for example:
//
//	kind == "set" && key == "count"
//	watcher == "list" || len(added) > 0
package filter

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/luckyadam/vue-explore/internal/errors"
)

// Event is the environment a filter expression sees.
type Event struct {
	Watcher string `expr:"watcher"`
	Kind    string `expr:"kind"`
	Key     string `expr:"key"`
	Index   int    `expr:"index"`
	Old     any    `expr:"old"`
	New     any    `expr:"new"`
	Added   []any  `expr:"added"`
	Removed []any  `expr:"removed"`
}

// Filter is a compiled expression.
type Filter struct {
	source  string
	program *vm.Program
}

// Compile parses source. An empty source yields a nil filter that matches
// everything.
func Compile(source string) (*Filter, error) {
	if source == "" {
		return nil, nil
	}
	program, err := expr.Compile(source, expr.Env(Event{}), expr.AsBool())
	if err != nil {
		return nil, errors.WrapValidation(err, errors.ErrCodeInvalidFilter, "cannot compile filter").
			WithContext("filter", source)
	}
	return &Filter{source: source, program: program}, nil
}

// Match evaluates the filter against ev.
func (f *Filter) Match(ev Event) (bool, error) {
	if f == nil {
		return true, nil
	}
	out, err := expr.Run(f.program, ev)
	if err != nil {
		return false, errors.WrapValidation(err, errors.ErrCodeInvalidFilter, "filter evaluation failed").
			WithContext("filter", f.source)
	}
	ok, _ := out.(bool)
	return ok, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.source
}

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/luckyadam/vue-explore/internal/dirty"
	"github.com/luckyadam/vue-explore/internal/filter"
	"github.com/luckyadam/vue-explore/internal/reactive"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kinds reported for polling deltas.
const (
	kindDelta  = "delta"
	kindLength = "length"
)

var kindColors = map[string]*color.Color{
	reactive.KindSet.String():     color.New(color.FgYellow),
	reactive.KindAdd.String():     color.New(color.FgGreen),
	reactive.KindDelete.String():  color.New(color.FgRed),
	reactive.KindSplice.String():  color.New(color.FgCyan),
	reactive.KindReorder.String(): color.New(color.FgMagenta),
	kindLength:                    color.New(color.FgBlue),
	kindDelta:                     color.New(color.FgYellow, color.Bold),
}

// Printer writes notifications as colored text lines or JSON lines. It is
// safe for concurrent use.
type Printer struct {
	mutex  sync.Mutex
	out    io.Writer
	format string
	filter *filter.Filter
	title  cases.Caser
	faint  *color.Color
}

// record is the JSON form of a notification.
type record struct {
	Watcher string `json:"watcher"`
	Kind    string `json:"kind"`
	Key     string `json:"key,omitempty"`
	Index   *int   `json:"index,omitempty"`
	Old     any    `json:"old,omitempty"`
	New     any    `json:"new,omitempty"`
	Added   []any  `json:"added,omitempty"`
	Removed []any  `json:"removed,omitempty"`
	Changed []any  `json:"changed,omitempty"`
}

// NewPrinter creates a printer. A nil filter prints everything.
func NewPrinter(out io.Writer, format string, f *filter.Filter) *Printer {
	return &Printer{
		out:    out,
		format: format,
		filter: f,
		title:  cases.Title(language.English),
		faint:  color.New(color.Faint),
	}
}

// PrintChange reports a change delivered to the named watcher.
func (p *Printer) PrintChange(watcher string, c reactive.Change) error {
	rec := record{
		Watcher: watcher,
		Kind:    c.Kind.String(),
		Key:     c.Key,
		Old:     reactive.Export(c.Old),
		New:     reactive.Export(c.New),
		Added:   exportAll(c.Added),
		Removed: exportAll(c.Removed),
	}
	if c.Index >= 0 {
		index := c.Index
		rec.Index = &index
	}
	return p.print(rec, describeChange(c))
}

// PrintDelta reports a polling delta for the named entry.
func (p *Printer) PrintDelta(name string, length bool, d dirty.Delta) error {
	rec := record{
		Watcher: name,
		Kind:    kindDelta,
		Key:     name,
		Added:   items(d.Added),
		Removed: items(d.Removed),
		Changed: items(d.Changed),
	}
	detail := d.String()
	if length {
		rec.Kind = kindLength
		rec.Old, rec.New = d.Old, d.New
		rec.Changed = nil
		detail = fmt.Sprintf("%v -> %v", d.Old, d.New)
	}
	return p.print(rec, detail)
}

func (p *Printer) print(rec record, detail string) error {
	ok, err := p.filter.Match(filter.Event{
		Watcher: rec.Watcher,
		Kind:    rec.Kind,
		Key:     rec.Key,
		Index:   indexOf(rec.Index),
		Old:     rec.Old,
		New:     rec.New,
		Added:   rec.Added,
		Removed: rec.Removed,
	})
	if err != nil || !ok {
		return err
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.format == "json" {
		return json.NewEncoder(p.out).Encode(rec)
	}

	heading := p.title.String(rec.Kind)
	if c, ok := kindColors[rec.Kind]; ok {
		heading = c.Sprint(heading)
	}
	_, err = fmt.Fprintf(p.out, "%s %s %s\n", p.faint.Sprintf("[%s]", rec.Watcher), heading, detail)
	return err
}

func describeChange(c reactive.Change) string {
	switch c.Kind {
	case reactive.KindSet:
		where := c.Key
		if c.Index >= 0 {
			where = fmt.Sprintf("[%d]", c.Index)
		}
		return fmt.Sprintf("%s: %s -> %s", where, render(c.Old), render(c.New))
	case reactive.KindAdd:
		return fmt.Sprintf("%s: %s", c.Key, render(c.New))
	case reactive.KindDelete:
		return fmt.Sprintf("%s: %s", c.Key, render(c.Old))
	case reactive.KindSplice:
		return fmt.Sprintf("at %d: +%s -%s", c.Index, render(c.Added), render(c.Removed))
	case reactive.KindReorder:
		if c.Node == nil {
			return ""
		}
		return fmt.Sprintf("%d items", c.Node.Len())
	case reactive.KindLength:
		return fmt.Sprintf("%v -> %v", c.Old, c.New)
	}
	return c.String()
}

// render prints a value in JSON flow style.
func render(v any) string {
	switch list := v.(type) {
	case []any:
		v = exportAll(list)
		if v == nil {
			v = []any{}
		}
	default:
		v = reactive.Export(v)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func exportAll(values []any) []any {
	if len(values) == 0 {
		return nil
	}
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = reactive.Export(v)
	}
	return out
}

func items(list []dirty.Item) []any {
	if len(list) == 0 {
		return nil
	}
	out := make([]any, len(list))
	for i, item := range list {
		if item.Key == nil {
			out[i] = item.Value
			continue
		}
		out[i] = map[string]any{"key": fmt.Sprint(item.Key), "value": item.Value}
	}
	return out
}

func indexOf(index *int) int {
	if index == nil {
		return -1
	}
	return *index
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// writeSection prints a titled block, e.g. the final document.
func (p *Printer) writeSection(title, body string) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	heading := p.title.String(title)
	if _, err := fmt.Fprintln(p.out, color.New(color.Bold).Sprint(heading+":")); err != nil {
		return err
	}
	_, err := io.WriteString(p.out, strings.TrimRight(body, "\n")+"\n")
	return err
}

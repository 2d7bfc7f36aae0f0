// Package document decodes YAML and JSON documents into the plain value
// graph the engine observes: map[string]any, []any and scalars.
package document

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/luckyadam/vue-explore/internal/errors"
	"gopkg.in/yaml.v3"
)

// Load reads and decodes the document at path.
func Load(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeDecode, "cannot read document").
			WithContext("path", path)
	}
	doc, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Annotate(err, "path", path)
	}
	return doc, nil
}

// Decode parses a single document from r. An empty input decodes to nil.
func Decode(r io.Reader) (any, error) {
	var doc any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, errors.WrapValidation(err, errors.ErrCodeDecode, "cannot decode document")
	}
	return Normalize(doc), nil
}

// Encode writes v as YAML. Nodes must be exported to plain values first.
func Encode(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return errors.WrapIO(err, errors.ErrCodeDecode, "cannot encode document")
	}
	return enc.Close()
}

// Normalize rewrites map[any]any and typed containers produced by decoders
// into map[string]any and []any so every container can be observed.
func Normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			val[k] = Normalize(item)
		}
		return val
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = Normalize(item)
		}
		return out
	case []any:
		for i, item := range val {
			val[i] = Normalize(item)
		}
		return val
	}
	return v
}

// Sync rewrites dst in place so it holds the same content as src. Nested
// maps, and slices of equal length, are updated rather than replaced so
// their identity survives a reload.
func Sync(dst, src map[string]any) {
	for k := range dst {
		if _, ok := src[k]; !ok {
			delete(dst, k)
		}
	}
	for k, v := range src {
		dst[k] = merge(dst[k], v)
	}
}

func merge(dst, src any) any {
	switch s := src.(type) {
	case map[string]any:
		if d, ok := dst.(map[string]any); ok && d != nil {
			Sync(d, s)
			return d
		}
	case []any:
		if d, ok := dst.([]any); ok && len(d) == len(s) && d != nil {
			for i := range s {
				d[i] = merge(d[i], s[i])
			}
			return d
		}
	}
	return src
}

//go:build property

package errors

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestWrapProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(2468)
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	codes := gen.OneConstOf(ErrCodeUncloneable, ErrCodeInvalidPath, ErrCodeInvalidStep, ErrCodeDecode, ErrCodeWatch)

	properties.Property("every wrapped code stays visible", prop.ForAll(
		func(layers []string) bool {
			var err error = errors.New("root")
			for _, code := range layers {
				err = WrapValidation(err, code, "layer")
			}
			for _, code := range layers {
				if !HasCode(err, code) {
					return false
				}
			}
			return len(Chain(err)) == len(layers)+1
		},
		gen.SliceOf(codes),
	))

	properties.Property("combining keeps every non-nil error", prop.ForAll(
		func(messages []string) bool {
			errs := make([]error, 0, len(messages)*2)
			for _, msg := range messages {
				errs = append(errs, errors.New(msg), nil)
			}
			combined := CombineErrors(errs...)
			if len(messages) == 0 {
				return combined == nil
			}
			for _, e := range errs {
				if e != nil && !errors.Is(combined, e) {
					return false
				}
			}
			return len(messages) == 1 || HasCode(combined, ErrCodeMultiple)
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}

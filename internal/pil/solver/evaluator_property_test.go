package solver

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/vybium/pil-witgen/internal/pil/expr"
	"github.com/vybium/pil-witgen/internal/pil/field"
)

// TestFixedColumnShiftInvariant is SPEC_FULL.md §8 invariant 3: for a
// fixed column c of length L, evaluating c at row r is c.values[r mod
// L], and evaluating c' at row r is c.values[(r+1) mod L]. White-box
// (package solver) so it can drive evaluatePolyRef directly, isolated
// from the identity-level Current/Next row selection the solver's
// public ComputeNextRow entangles it with.
func TestFixedColumnShiftInvariant(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("c at row r and c' at row r read the expected wrapped index", prop.ForAll(
		func(length int, r uint64) bool {
			values := make([]field.Element, length)
			for i := range values {
				values[i] = field.FromInt64(int64(i) * 7)
			}
			fd := NewFixedData(nil, map[string][]field.Element{"c": values}, nil, false)
			s := New(fd, nil, nil, nil)
			s.nextRow = r

			plain, err := s.evaluatePolyRef(expr.PolyRef{AbsoluteName: "c"}, Next)
			if err != nil {
				return false
			}
			plainValue, ok := plain.ConstantValue()
			if !ok || !plainValue.Equal(values[r%uint64(length)]) {
				return false
			}

			shifted, err := s.evaluatePolyRef(expr.PolyRef{AbsoluteName: "c", Next: true}, Next)
			if err != nil {
				return false
			}
			shiftedValue, ok := shifted.ConstantValue()
			return ok && shiftedValue.Equal(values[(r+1)%uint64(length)])
		},
		gen.IntRange(1, 32),
		gen.UInt64Range(0, 1000),
	))

	properties.TestingRun(t)
}

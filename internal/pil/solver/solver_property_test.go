package solver_test

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/vybium/pil-witgen/internal/pil/ast"
	"github.com/vybium/pil-witgen/internal/pil/expr"
	"github.com/vybium/pil-witgen/internal/pil/field"
	"github.com/vybium/pil-witgen/internal/pil/model"
	"github.com/vybium/pil-witgen/internal/pil/solver"
)

// TestTerminationBoundInvariant is SPEC_FULL.md §8 invariant 5: for n
// witness columns, ComputeNextRow converges within n+1 fixed-point
// passes. The identity chain is deliberately ordered worst-case
// (column i depends on column i-1, listed before its dependency is
// solved) so each pass resolves at most one new column.
func TestTerminationBoundInvariant(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("a reverse-order dependency chain of n columns converges within n+1 passes", prop.ForAll(
		func(n int) bool {
			witnesses := make([]solver.WitnessColumn, n)
			for i := 0; i < n; i++ {
				witnesses[i] = solver.WitnessColumn{Name: fmt.Sprintf("w%d", i), ID: i}
			}

			identities := make([]model.Identity, 0, n)
			for i := n - 1; i >= 1; i-- {
				// w_i - w_{i-1} - 1 = 0
				identities = append(identities, model.Identity{Left: model.SelectedExpressions{
					Selector: expr.Binary{
						Left:  expr.Binary{Left: polyRef(fmt.Sprintf("w%d", i), false), Op: ast.Sub, Right: polyRef(fmt.Sprintf("w%d", i-1), false)},
						Op:    ast.Sub,
						Right: expr.NumberFromInt64(1),
					},
				}})
			}
			// w_0 - 5 = 0
			identities = append(identities, model.Identity{Left: model.SelectedExpressions{
				Selector: expr.Binary{Left: polyRef("w0", false), Op: ast.Sub, Right: expr.NumberFromInt64(5)},
			}})

			fd := solver.NewFixedData(witnesses, nil, nil, false)
			s := solver.New(fd, identities, nil, nil, solver.WithMaxIterationsPerRow(n+1))

			row, err := s.ComputeNextRow(0)
			if err != nil {
				return false
			}
			for i, v := range row {
				if !v.Equal(field.FromInt64(5 + int64(i))) {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t)
}

// TestSolverDeterminismInvariant is SPEC_FULL.md §8 invariant 6: given
// the same identities, fixed data, and machine set, ComputeNextRow
// emits a bit-identical row sequence on every independent run.
func TestSolverDeterminismInvariant(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("the same identities and fixed data emit the same row sequence every run", prop.ForAll(
		func(numRows int) bool {
			// a' - a - 1 = 0
			identity := model.Identity{Left: model.SelectedExpressions{
				Selector: expr.Binary{
					Left:  expr.Binary{Left: polyRef("Main.a", true), Op: ast.Sub, Right: polyRef("Main.a", false)},
					Op:    ast.Sub,
					Right: expr.NumberFromInt64(1),
				},
			}}

			run := func() [][]field.Element {
				fd := solver.NewFixedData([]solver.WitnessColumn{{Name: "Main.a", ID: 0}}, nil, nil, false)
				s := solver.New(fd, []model.Identity{identity}, nil, nil)
				rows := make([][]field.Element, numRows)
				for r := 0; r < numRows; r++ {
					row, err := s.ComputeNextRow(uint64(r))
					if err != nil {
						return nil
					}
					rows[r] = row
				}
				return rows
			}

			first, second := run(), run()
			if first == nil || second == nil || len(first) != len(second) {
				return false
			}
			for i := range first {
				if len(first[i]) != len(second[i]) {
					return false
				}
				for j := range first[i] {
					if !first[i][j].Equal(second[i][j]) {
						return false
					}
				}
			}
			return true
		},
		gen.IntRange(1, 15),
	))

	properties.TestingRun(t)
}

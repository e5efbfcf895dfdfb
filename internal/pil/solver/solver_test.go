package solver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vybium/pil-witgen/internal/pil/affine"
	"github.com/vybium/pil-witgen/internal/pil/ast"
	"github.com/vybium/pil-witgen/internal/pil/expr"
	"github.com/vybium/pil-witgen/internal/pil/field"
	"github.com/vybium/pil-witgen/internal/pil/machine"
	"github.com/vybium/pil-witgen/internal/pil/model"
	"github.com/vybium/pil-witgen/internal/pil/solver"
)

func polyRef(name string, next bool) expr.Expression {
	return expr.PolyRef{AbsoluteName: name, Next: next}
}

func TestComputeNextRowSolvesSimpleLinearIdentity(t *testing.T) {
	// a - 5 = 0
	identity := model.Identity{Left: model.SelectedExpressions{
		Selector: expr.Binary{Left: polyRef("Main.a", false), Op: ast.Sub, Right: expr.NumberFromInt64(5)},
	}}

	fd := solver.NewFixedData(
		[]solver.WitnessColumn{{Name: "Main.a", ID: 0}},
		nil, nil, false,
	)
	s := solver.New(fd, []model.Identity{identity}, nil, nil)

	row, err := s.ComputeNextRow(0)
	require.NoError(t, err)
	assert.True(t, row[0].Equal(field.FromInt64(5)))
}

func TestComputeNextRowPropagatesShiftedIdentityAcrossRows(t *testing.T) {
	// a' - a - 1 = 0: a counts up by one every row, starting from 0 (row
	// 0's unresolved "current" reference is tolerated and defaults to
	// zero, per SPEC_FULL.md §4.5 step 3).
	identity := model.Identity{Left: model.SelectedExpressions{
		Selector: expr.Binary{
			Left: expr.Binary{Left: polyRef("Main.a", true), Op: ast.Sub, Right: polyRef("Main.a", false)},
			Op:   ast.Sub,
			Right: expr.NumberFromInt64(1),
		},
	}}

	fd := solver.NewFixedData(
		[]solver.WitnessColumn{{Name: "Main.a", ID: 0}},
		nil, nil, false,
	)
	s := solver.New(fd, []model.Identity{identity}, nil, nil)

	row0, err := s.ComputeNextRow(0)
	require.NoError(t, err)
	assert.True(t, row0[0].Equal(field.Zero()))

	row1, err := s.ComputeNextRow(1)
	require.NoError(t, err)
	assert.True(t, row1[0].Equal(field.One()))

	row2, err := s.ComputeNextRow(2)
	require.NoError(t, err)
	assert.True(t, row2[0].Equal(field.FromInt64(2)))
}

func TestComputeNextRowFailsFatallyPastRowZero(t *testing.T) {
	// a + b = 0 has two unknowns on every row, so no row can solve it:
	// the failure is tolerated at row 0 and fatal at row 1.
	identity := model.Identity{Left: model.SelectedExpressions{
		Selector: expr.Binary{Left: polyRef("Main.a", false), Op: ast.Add, Right: polyRef("Main.b", false)},
	}}

	fd := solver.NewFixedData(
		[]solver.WitnessColumn{{Name: "Main.a", ID: 0}, {Name: "Main.b", ID: 1}},
		nil, nil, false,
	)
	s := solver.New(fd, []model.Identity{identity}, nil, nil)

	_, err := s.ComputeNextRow(0)
	require.NoError(t, err) // tolerated at row 0

	_, err = s.ComputeNextRow(1)
	assert.Error(t, err)
}

// claimAllMachine claims every lookup it is offered, assigning whatever
// values its caller configured it with.
type claimAllMachine struct {
	assignments []machine.Assignment
}

func (m *claimAllMachine) ProcessPlookup(fd machine.FixedData, kind ast.IdentityKind, left []affine.Expression, right model.SelectedExpressions) (machine.LookupReturn, error) {
	return machine.AssignedReturn(m.assignments), nil
}

func (m *claimAllMachine) WitnessColValues(fd machine.FixedData) map[string][]field.Element {
	return nil
}

func TestComputeNextRowDispatchesPlookupToMachine(t *testing.T) {
	identity := model.Identity{
		Kind: ast.Plookup,
		Left: model.SelectedExpressions{Expressions: []expr.Expression{polyRef("Main.a", false)}},
		Right: model.SelectedExpressions{Expressions: []expr.Expression{expr.NumberFromInt64(0)}},
	}

	fd := solver.NewFixedData(
		[]solver.WitnessColumn{{Name: "Main.a", ID: 0}},
		nil, nil, false,
	)
	m := &claimAllMachine{assignments: []machine.Assignment{{ID: 0, Value: field.FromInt64(42)}}}
	s := solver.New(fd, nil, []model.Identity{identity}, []machine.Machine{m})

	row, err := s.ComputeNextRow(0)
	require.NoError(t, err)
	assert.True(t, row[0].Equal(field.FromInt64(42)))
}

// notApplicableMachine always declines, optionally recording how many
// times it was asked (used to check verbose bookkeeping re-dispatch).
type notApplicableMachine struct {
	calls int
}

func (m *notApplicableMachine) ProcessPlookup(fd machine.FixedData, kind ast.IdentityKind, left []affine.Expression, right model.SelectedExpressions) (machine.LookupReturn, error) {
	m.calls++
	return machine.NotApplicableReturn(), nil
}

func (m *notApplicableMachine) WitnessColValues(fd machine.FixedData) map[string][]field.Element {
	return nil
}

func TestComputeNextRowVerboseBookkeepingDoesNotChangeTheBoundAssignment(t *testing.T) {
	identity := model.Identity{
		Kind:  ast.Plookup,
		Left:  model.SelectedExpressions{Expressions: []expr.Expression{polyRef("Main.a", false)}},
		Right: model.SelectedExpressions{Expressions: []expr.Expression{expr.NumberFromInt64(0)}},
	}

	fd := solver.NewFixedData(
		[]solver.WitnessColumn{{Name: "Main.a", ID: 0}},
		nil, nil, true, // verbose
	)
	decliner := &notApplicableMachine{}
	winner := &claimAllMachine{assignments: []machine.Assignment{{ID: 0, Value: field.FromInt64(42)}}}
	s := solver.New(fd, nil, []model.Identity{identity}, []machine.Machine{decliner, winner})

	row, err := s.ComputeNextRow(0)
	require.NoError(t, err)
	assert.True(t, row[0].Equal(field.FromInt64(42)))
	assert.Equal(t, 2, decliner.calls) // once in the main dispatch, once via bookkeeping re-dispatch
}

func TestComputeNextRowRejectsNonBooleanSelector(t *testing.T) {
	identity := model.Identity{
		Kind:  ast.Plookup,
		Left:  model.SelectedExpressions{Selector: expr.NumberFromInt64(2), Expressions: []expr.Expression{polyRef("Main.a", false)}},
		Right: model.SelectedExpressions{Expressions: []expr.Expression{expr.NumberFromInt64(0)}},
	}

	fd := solver.NewFixedData(
		[]solver.WitnessColumn{{Name: "Main.a", ID: 0}},
		nil, nil, false,
	)
	s := solver.New(fd, nil, []model.Identity{identity}, nil)

	_, err := s.ComputeNextRow(1)
	assert.Error(t, err)
}

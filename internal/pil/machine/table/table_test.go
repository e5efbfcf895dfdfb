package table_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vybium/pil-witgen/internal/pil/affine"
	"github.com/vybium/pil-witgen/internal/pil/ast"
	"github.com/vybium/pil-witgen/internal/pil/field"
	"github.com/vybium/pil-witgen/internal/pil/machine"
	"github.com/vybium/pil-witgen/internal/pil/machine/table"
	"github.com/vybium/pil-witgen/internal/pil/model"
)

func TestRangeTableResolvesKnownValueAsMembership(t *testing.T) {
	m := table.NewRangeTable(8)
	left := []affine.Expression{affine.NewConstant(field.FromUint64(5))}

	ret, err := m.ProcessPlookup(nil, ast.Plookup, left, model.SelectedExpressions{})
	require.NoError(t, err)
	assert.Equal(t, machine.Assigned, ret.Kind)
	assert.Empty(t, ret.Assignments)
}

func TestRangeTableRejectsOutOfRangeValue(t *testing.T) {
	m := table.NewRangeTable(8)
	left := []affine.Expression{affine.NewConstant(field.FromUint64(9))}

	_, err := m.ProcessPlookup(nil, ast.Plookup, left, model.SelectedExpressions{})
	assert.Error(t, err)
}

func TestXORTableDerivesUnknownOutput(t *testing.T) {
	m := table.NewXORTable(2)
	left := []affine.Expression{
		affine.NewConstant(field.FromUint64(1)),
		affine.NewConstant(field.FromUint64(2)),
		affine.NewVariable(0),
	}

	ret, err := m.ProcessPlookup(nil, ast.Plookup, left, model.SelectedExpressions{})
	require.NoError(t, err)
	require.Equal(t, machine.Assigned, ret.Kind)
	require.Len(t, ret.Assignments, 1)
	assert.Equal(t, 0, ret.Assignments[0].ID)
	assert.True(t, ret.Assignments[0].Value.Equal(field.FromUint64(3)))
}

func TestBitTableIsAmbiguousWithNoKnownColumns(t *testing.T) {
	m := table.NewBitTable()
	left := []affine.Expression{affine.NewVariable(0)}

	ret, err := m.ProcessPlookup(nil, ast.Plookup, left, model.SelectedExpressions{})
	require.NoError(t, err)
	assert.Equal(t, machine.NotApplicable, ret.Kind)
}

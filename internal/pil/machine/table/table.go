// Package table adapts the teacher's Plookup-style lookup table
// (protocols/lookup.go's LookupTable/CreateRangeTable/CreateXORTable
// membership-check idea) into a machine.Machine: a black-box resolver
// over an explicit tuple table, used for range checks, bit/XOR tables,
// and small cross-table arguments (SPEC_FULL.md §4.4).
package table

import (
	"fmt"

	"github.com/vybium/pil-witgen/internal/pil/affine"
	"github.com/vybium/pil-witgen/internal/pil/ast"
	"github.com/vybium/pil-witgen/internal/pil/field"
	"github.com/vybium/pil-witgen/internal/pil/machine"
	"github.com/vybium/pil-witgen/internal/pil/model"
)

// Machine resolves a plookup identity against a fixed set of tuple
// rows: Rows[i] has one field element per column, in the same order as
// the identity's left-hand expressions.
type Machine struct {
	Rows [][]field.Element
}

// NewRangeTable builds a Machine whose single column enumerates
// [0, max), for range-check identities (mirrors CreateRangeTable).
func NewRangeTable(max uint64) *Machine {
	rows := make([][]field.Element, max)
	for i := uint64(0); i < max; i++ {
		rows[i] = []field.Element{field.FromUint64(i)}
	}
	return &Machine{Rows: rows}
}

// NewBitTable builds a Machine whose single column is {0, 1} (mirrors
// CreateBitTable).
func NewBitTable() *Machine {
	return &Machine{Rows: [][]field.Element{{field.Zero()}, {field.One()}}}
}

// NewXORTable builds a three-column Machine of (a, b, a xor b) rows
// for every pair of bits-wide inputs a, b in [0, 2^bits) (mirrors
// CreateXORTable, generalized beyond a single hardcoded bit width).
func NewXORTable(bits uint) *Machine {
	n := uint64(1) << bits
	rows := make([][]field.Element, 0, n*n)
	for a := uint64(0); a < n; a++ {
		for b := uint64(0); b < n; b++ {
			rows = append(rows, []field.Element{
				field.FromUint64(a), field.FromUint64(b), field.FromUint64(a ^ b),
			})
		}
	}
	return &Machine{Rows: rows}
}

// ProcessPlookup implements machine.Machine. It evaluates the already
// constant columns of left against every row; if the constant columns
// narrow the candidates to exactly one row, any still-unknown column
// gets assigned from it. If every column is already constant, the row
// is only checked for membership and no assignment is produced.
func (m *Machine) ProcessPlookup(fd machine.FixedData, kind ast.IdentityKind, left []affine.Expression, right model.SelectedExpressions) (machine.LookupReturn, error) {
	if len(m.Rows) == 0 || len(left) != len(m.Rows[0]) {
		return machine.NotApplicableReturn(), nil
	}

	type known struct {
		ok    bool
		value field.Element
	}
	values := make([]known, len(left))
	allConstant := true
	for i, e := range left {
		if v, ok := e.ConstantValue(); ok {
			values[i] = known{ok: true, value: v}
		} else {
			allConstant = false
		}
	}

	var candidates [][]field.Element
	for _, row := range m.Rows {
		matches := true
		for i, k := range values {
			if k.ok && !row[i].Equal(k.value) {
				matches = false
				break
			}
		}
		if matches {
			candidates = append(candidates, row)
		}
	}

	if len(candidates) == 0 {
		return machine.LookupReturn{}, fmt.Errorf("no table row matches the known columns of this lookup")
	}

	if allConstant {
		return machine.AssignedReturn(nil), nil
	}

	if len(candidates) > 1 {
		return machine.NotApplicableReturn(), nil
	}

	row := candidates[0]
	var assignments []machine.Assignment
	for i, e := range left {
		if values[i].ok {
			continue
		}
		id, _, ok := e.Solve()
		if !ok {
			return machine.NotApplicableReturn(), nil
		}
		assignments = append(assignments, machine.Assignment{ID: id, Value: row[i]})
	}
	return machine.AssignedReturn(assignments), nil
}

// WitnessColValues implements machine.Machine. This table machine owns
// no witness columns of its own.
func (m *Machine) WitnessColValues(fd machine.FixedData) map[string][]field.Element {
	return nil
}

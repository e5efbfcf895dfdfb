// Package machine defines the lookup/permutation collaborator contract
// (SPEC_FULL.md §4.4). Machines are external, black-box constraint
// providers; only their interface is specified here.
package machine

import (
	"github.com/vybium/pil-witgen/internal/pil/affine"
	"github.com/vybium/pil-witgen/internal/pil/ast"
	"github.com/vybium/pil-witgen/internal/pil/field"
	"github.com/vybium/pil-witgen/internal/pil/model"
)

// Assignment binds a witness-column id to a concrete value.
type Assignment struct {
	ID    int
	Value field.Element
}

// ReturnKind classifies a machine's response to ProcessPlookup.
type ReturnKind int

const (
	// NotApplicable means this machine does not recognize the lookup;
	// the solver should try the next one.
	NotApplicable ReturnKind = iota
	// Assigned means this machine asserts the given values for the row.
	Assigned
)

// String renders a ReturnKind for diagnostic logging.
func (k ReturnKind) String() string {
	switch k {
	case Assigned:
		return "assigned"
	case NotApplicable:
		return "not_applicable"
	default:
		return "unknown"
	}
}

// LookupReturn is a machine's response to one ProcessPlookup call.
type LookupReturn struct {
	Kind        ReturnKind
	Assignments []Assignment
}

// NotApplicableReturn is the canonical "I don't recognize this" answer.
func NotApplicableReturn() LookupReturn { return LookupReturn{Kind: NotApplicable} }

// AssignedReturn wraps a set of binding assignments.
func AssignedReturn(assignments []Assignment) LookupReturn {
	return LookupReturn{Kind: Assigned, Assignments: assignments}
}

// FixedData is the read-only context machines evaluate lookups against.
// It mirrors solver.FixedData's shape without creating an import cycle;
// the solver package's FixedData satisfies this interface.
type FixedData interface {
	WitnessID(name string) (int, bool)
	FixedColumn(name string) ([]field.Element, bool)
	Scalar(name string) (field.Element, bool)
}

// Machine resolves Plookup and Permutation identities the solver cannot
// discharge itself, and may contribute witness columns of its own once
// all rows are solved (SPEC_FULL.md §4.4).
type Machine interface {
	// ProcessPlookup is handed the affine evaluation of the left side's
	// expressions (possibly containing unknowns) and the untouched right
	// side. kind distinguishes Plookup from Permutation.
	ProcessPlookup(fd FixedData, kind ast.IdentityKind, left []affine.Expression, right model.SelectedExpressions) (LookupReturn, error)

	// WitnessColValues is called once after all rows are solved, letting
	// the machine contribute any witness columns it internally maintained.
	WitnessColValues(fd FixedData) map[string][]field.Element
}

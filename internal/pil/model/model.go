// Package model holds the analyzer's output shapes: declarations,
// identities, and the fully-assembled Analyzed program (SPEC_FULL.md §3,
// §6). These are consumed by the fixed-column generator, the machine
// registry, and the solver.
package model

import (
	"math/big"

	"github.com/vybium/pil-witgen/internal/pil/ast"
	"github.com/vybium/pil-witgen/internal/pil/expr"
)

// DegreeType indexes rows of the trace table.
type DegreeType = uint64

// Polynomial is a single declared committed, constant, or intermediate
// polynomial.
type Polynomial struct {
	ID           int
	AbsoluteName string
	Kind         ast.PolyKind
	Degree       DegreeType
	Length       *uint64 // non-nil when this is an array polynomial
}

// IsArray reports whether the declaration carries an array length.
func (p Polynomial) IsArray() bool {
	return p.Length != nil
}

// SelectedExpressions is one side of a lookup/permutation identity: an
// optional selector and the list of expressions it gates.
type SelectedExpressions struct {
	Selector    expr.Expression // nil means "no selector, always active"
	Expressions []expr.Expression
}

// Identity is a single normalized identity: either a polynomial identity
// (E = 0, carried in Left.Selector) or a lookup/permutation identity
// between Left and Right.
type Identity struct {
	Kind  ast.IdentityKind
	Left  SelectedExpressions
	Right SelectedExpressions
}

// Analyzed is the complete output of the analyzer: a normalized
// constraint model ready for fixed-column generation and solving.
type Analyzed struct {
	// Constants are process-global, not namespaced (SPEC_FULL.md §3).
	Constants map[string]*big.Int
	// Declarations is keyed by absolute_name.
	Declarations         map[string]*Polynomial
	PolynomialIdentities []Identity
	PlookupIdentities    []Identity
	// Degrees is each namespace's declared trace length, keyed by
	// namespace name (SPEC_FULL.md §3).
	Degrees map[string]DegreeType
}

// CommitmentCount returns the number of committed (witness) polynomials.
func (a *Analyzed) CommitmentCount() int { return a.countKind(ast.Committed) }

// IntermediateCount returns the number of intermediate polynomials.
func (a *Analyzed) IntermediateCount() int { return a.countKind(ast.Intermediate) }

// ConstantCount returns the number of constant (fixed) polynomials.
func (a *Analyzed) ConstantCount() int { return a.countKind(ast.Constant) }

func (a *Analyzed) countKind(k ast.PolyKind) int {
	n := 0
	for _, p := range a.Declarations {
		if p.Kind == k {
			n++
		}
	}
	return n
}

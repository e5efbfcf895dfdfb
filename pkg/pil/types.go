package pil

import (
	"github.com/vybium/pil-witgen/internal/pil/affine"
	"github.com/vybium/pil-witgen/internal/pil/ast"
	"github.com/vybium/pil-witgen/internal/pil/config"
	"github.com/vybium/pil-witgen/internal/pil/field"
	"github.com/vybium/pil-witgen/internal/pil/machine"
	"github.com/vybium/pil-witgen/internal/pil/model"
	"github.com/vybium/pil-witgen/internal/pil/query"
	"github.com/vybium/pil-witgen/internal/pil/solver"
)

// FieldElement is a single element of the scalar field every identity
// and witness value is ultimately reduced into.
type FieldElement = field.Element

// DegreeType indexes rows of the trace table.
type DegreeType = model.DegreeType

// Analyzed is the normalized output of Analyze: resolved constants,
// polynomial declarations and identities, ready for fixed-column
// generation and solving.
type Analyzed = model.Analyzed

// Polynomial is a single declared committed, constant, or intermediate
// polynomial.
type Polynomial = model.Polynomial

// Identity is a single normalized polynomial or lookup/permutation
// identity.
type Identity = model.Identity

// AffineExpression is the sparse Σ cᵢ·xᵢ + k representation the solver
// reduces every identity to.
type AffineExpression = affine.Expression

// Statement is a single top-level PIL statement, as produced by the
// (external) parser.
type Statement = ast.Statement

// Expr is a source-level expression, as produced by the (external)
// parser.
type Expr = ast.Expr

// FileLoader resolves one include for the analyzer; see ast.FileLoader.
type FileLoader = ast.FileLoader

// QueryExpression is a witness-query grammar node (SPEC_FULL.md §4.6).
type QueryExpression = query.Expression

// Machine resolves lookup/permutation identities the solver cannot
// discharge itself.
type Machine = machine.Machine

// Assignment binds a witness-column id to a concrete value.
type Assignment = machine.Assignment

// WitnessColumn is one committed polynomial's solver-facing metadata.
type WitnessColumn = solver.WitnessColumn

// FixedData is the solver's immutable input context.
type FixedData = solver.FixedData

// QueryCallback answers an interpolated witness query.
type QueryCallback = solver.QueryCallback

// Config controls one analyze-and-solve run.
type Config = config.Config

// DefaultConfig returns the solver's default knobs.
func DefaultConfig() *Config {
	return config.DefaultConfig()
}

// NewFixedData builds a FixedData, indexing witnesses by name.
func NewFixedData(witnesses []WitnessColumn, fixedColumns map[string][]FieldElement, scalars map[string]FieldElement, verbose bool) *FixedData {
	return solver.NewFixedData(witnesses, fixedColumns, scalars, verbose)
}

// IsPowerOfTwo reports whether n is a power of two. Trace degrees are
// conventionally powers of two so a fixed-column generator's evaluation
// domain can use an FFT-friendly size.
func IsPowerOfTwo(n uint64) bool {
	return config.IsPowerOfTwo(n)
}

// Log2 computes the base-2 logarithm of a power-of-two n, or -1 if n is
// not a power of two.
func Log2(n uint64) int {
	return config.Log2(n)
}

// NextPowerOfTwo returns the smallest power of two >= n.
func NextPowerOfTwo(n uint64) uint64 {
	return config.NextPowerOfTwo(n)
}

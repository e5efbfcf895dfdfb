// Package solver implements the row-by-row witness solver (SPEC_FULL.md
// §4.3, §4.5): given the analyzer's normalized model, a machine registry,
// and precomputed fixed columns, it iteratively deduces witness values by
// reducing each identity to affine form and solving for a single unknown.
package solver

import (
	"github.com/vybium/pil-witgen/internal/pil/field"
	"github.com/vybium/pil-witgen/internal/pil/query"
)

// WitnessColumn is one committed polynomial's solver-facing metadata: its
// declared name, its dense id (index into current/next row state), and
// an optional interactive query expression (SPEC_FULL.md §3, §4.6).
type WitnessColumn struct {
	Name  string
	ID    int
	Query *query.Expression
}

// FixedData is the solver's immutable input: the witness column list,
// the precomputed fixed (constant) column values, and the scalar
// constant table, all already reduced into field elements by the
// (external) fixed-column generator (SPEC_FULL.md §3, §6).
type FixedData struct {
	Witnesses    []WitnessColumn
	FixedColumns map[string][]field.Element
	Scalars      map[string]field.Element
	Verbose      bool

	witnessIDs map[string]int
}

// NewFixedData builds a FixedData, indexing witnesses by name.
func NewFixedData(witnesses []WitnessColumn, fixedColumns map[string][]field.Element, scalars map[string]field.Element, verbose bool) *FixedData {
	ids := make(map[string]int, len(witnesses))
	for _, w := range witnesses {
		ids[w.Name] = w.ID
	}
	return &FixedData{
		Witnesses:    witnesses,
		FixedColumns: fixedColumns,
		Scalars:      scalars,
		Verbose:      verbose,
		witnessIDs:   ids,
	}
}

// WitnessID implements machine.FixedData.
func (fd *FixedData) WitnessID(name string) (int, bool) {
	id, ok := fd.witnessIDs[name]
	return id, ok
}

// FixedColumn implements machine.FixedData.
func (fd *FixedData) FixedColumn(name string) ([]field.Element, bool) {
	v, ok := fd.FixedColumns[name]
	return v, ok
}

// Scalar implements machine.FixedData.
func (fd *FixedData) Scalar(name string) (field.Element, bool) {
	v, ok := fd.Scalars[name]
	return v, ok
}

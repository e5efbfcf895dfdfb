// Package pil provides a PIL (Polynomial Identity Language) semantic
// analyzer and witness solver for zero-knowledge arithmetic circuits.
//
// # Scope
//
// pil takes already-parsed PIL statements (lexing and parsing PIL
// source text is out of scope; see FileLoader) and:
//
//   - resolves namespaces, folds compile-time constant expressions, and
//     assigns numeric identities to every declared polynomial
//     (Analyze);
//   - deduces witness column values row by row via a fixed-point pass
//     over each identity, delegating lookup and permutation checks to
//     caller-supplied Machine implementations (NewSolver, ComputeRow).
//
// # Quick Start
//
// Analyzing a program and solving its trace one row at a time:
//
//	analyzed, err := pil.Analyze(rootPath, loader)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fixedData := pil.NewFixedData(witnesses, fixedColumns, scalars, false)
//	s := pil.NewSolver(fixedData, analyzed, machines)
//
//	for r := pil.DegreeType(0); r < degree; r++ {
//		row, err := pil.ComputeRow(s, r)
//		if err != nil {
//			log.Fatal(err)
//		}
//		// consume row
//	}
//
// # Architecture
//
//   - pkg/pil/: public API (this package)
//   - internal/pil/: private implementation (not importable)
//
// Implementation details in internal/ can be refactored without
// breaking the public API.
package pil

package pil

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/vybium/pil-witgen/internal/pil/analyzer"
	"github.com/vybium/pil-witgen/internal/pil/solver"
)

// AnalyzerOption configures an Analyze run.
type AnalyzerOption = analyzer.Option

// SolverOption configures a Solver.
type SolverOption = solver.Option

// WithAnalyzerLogger overrides the analyzer's default (disabled) logger.
func WithAnalyzerLogger(log zerolog.Logger) AnalyzerOption {
	return analyzer.WithLogger(log)
}

// WithSolverLogger overrides the solver's default (disabled) logger.
func WithSolverLogger(log zerolog.Logger) SolverOption {
	return solver.WithLogger(log)
}

// WithQueryCallback registers the callback used to answer interactive
// witness queries (SPEC_FULL.md §4.6).
func WithQueryCallback(cb QueryCallback) SolverOption {
	return solver.WithQueryCallback(cb)
}

// WithMaxIterationsPerRow overrides the fixed-point loop's iteration
// safety cap.
func WithMaxIterationsPerRow(n int) SolverOption {
	return solver.WithMaxIterationsPerRow(n)
}

// SolverOptionsFromConfig derives the solver options a Config controls,
// for callers that build a Config once (SPEC_FULL.md §6) rather than
// passing each knob individually.
func SolverOptionsFromConfig(cfg *Config) []SolverOption {
	return []SolverOption{WithMaxIterationsPerRow(cfg.MaxIterationsPerRow)}
}

// Analyze reads the PIL program rooted at rootPath through loader and
// produces the normalized Analyzed model (SPEC_FULL.md §4.1). loader
// supplies parsed statements for the root file and every file it
// includes; this package performs no lexing or parsing of its own.
func Analyze(rootPath string, loader FileLoader, opts ...AnalyzerOption) (*Analyzed, error) {
	a, err := analyzer.Analyze(rootPath, loader, opts...)
	if err != nil {
		code := ErrAnalysis
		var aerr *analyzer.Error
		if errors.As(err, &aerr) && aerr.Code == analyzer.ErrNotImplemented {
			code = ErrNotImplemented
		}
		return nil, &Error{Code: code, Message: "analysis failed", Cause: err}
	}
	return a, nil
}

// Solver is the per-row witness deduction loop (SPEC_FULL.md §4.5).
type Solver = solver.Solver

// NewSolver builds a Solver for the given analyzed program, fixed data,
// and machine registry.
func NewSolver(fixedData *FixedData, analyzed *Analyzed, machines []Machine, opts ...SolverOption) *Solver {
	return solver.New(fixedData, analyzed.PolynomialIdentities, analyzed.PlookupIdentities, machines, opts...)
}

// ComputeRow solves row r and returns its concrete field-element
// values, wrapping any solver failure as an *Error.
func ComputeRow(s *Solver, r DegreeType) ([]FieldElement, error) {
	row, err := s.ComputeNextRow(r)
	if err != nil {
		return nil, &Error{Code: ErrSolve, Message: "could not solve row", Cause: err}
	}
	return row, nil
}

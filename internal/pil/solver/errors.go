package solver

import (
	"fmt"
	"strings"
)

// Code classifies a solver failure (SPEC_FULL.md §7).
type Code int

const (
	// ErrUnknown is a catch-all for unclassified solver failures.
	ErrUnknown Code = iota
	// ErrPreviousValueUnknown: a current-row reference to a witness column
	// that was never pinned down when its row was solved. Tolerated at
	// row 0 like every other identity failure; fatal on later rows.
	ErrPreviousValueUnknown
	// ErrNextNextReference: an expression shifts a reference that is
	// already itself a next-row reference (p'' has no meaning here).
	ErrNextNextReference
	// ErrUnknownReference: a polynomial reference names neither a known
	// witness column nor a known fixed column.
	ErrUnknownReference
	// ErrNonlinear: an identity reduced to a product of two unknowns,
	// which the affine representation cannot express.
	ErrNonlinear
	// ErrDivision: division by a non-constant or by zero.
	ErrDivision
	// ErrExponent: a `^` exponent was not a row-constant value, or did
	// not fit the range repeated multiplication can unfold.
	ErrExponent
	// ErrInvalidConstraint: a polynomial identity reduced to a nonzero
	// constant; it can never be satisfied by any witness assignment.
	ErrInvalidConstraint
	// ErrCouldNotSolve: a polynomial identity reduced to an affine
	// expression with more than one unknown. (Zero unknowns with a
	// nonzero constant is reported as ErrInvalidConstraint instead.)
	ErrCouldNotSolve
	// ErrSelectorNotBoolean: a plookup/permutation selector did not
	// evaluate to exactly 0 or 1.
	ErrSelectorNotBoolean
	// ErrNoMatchingMachine: no registered machine claimed a lookup.
	ErrNoMatchingMachine
	// ErrNoQueryAnswer: the query callback had no answer for a witness
	// query.
	ErrNoQueryAnswer
	// ErrRowFailed: row evaluation did not converge (SPEC_FULL.md §4.5
	// step 3); carries the accumulated per-identity failure reasons and a
	// dump of the row's known/unknown witness values.
	ErrRowFailed
)

// Error is the solver's error type. Reasons and Dump are populated only
// on ErrRowFailed, where they form the diagnostic abort report.
type Error struct {
	Code    Code
	Message string
	Reasons []string
	Dump    []string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.Reasons) > 0 {
		b.WriteString("\nfailure reasons:\n")
		for _, r := range e.Reasons {
			fmt.Fprintf(&b, "  - %s\n", r)
		}
	}
	if len(e.Dump) > 0 {
		b.WriteString("row state:\n")
		for _, d := range e.Dump {
			fmt.Fprintf(&b, "  %s\n", d)
		}
	}
	return b.String()
}

func newErr(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

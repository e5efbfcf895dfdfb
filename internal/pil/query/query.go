// Package query implements the interactive witness-query grammar and its
// interpolation into a query string (SPEC_FULL.md §4.6). Query
// expressions extend the base PIL expression language with Tuple, String,
// and a LocalVariableReference bound to the current row number.
package query

import (
	"fmt"
	"strings"

	"github.com/vybium/pil-witgen/internal/pil/expr"
)

// Expression is a query expression node.
type Expression interface {
	queryNode()
}

// Base wraps an ordinary normalized expression, evaluable the same way a
// polynomial identity's expression would be.
type Base struct {
	Expr expr.Expression
}

func (Base) queryNode() {}

// Tuple groups several query expressions, formatted comma-separated.
type Tuple struct {
	Items []Expression
}

func (Tuple) queryNode() {}

// String is a literal string, formatted with escaping.
type String struct {
	Value string
}

func (String) queryNode() {}

// LocalVariableReference is bound to the current row number. Only index
// 0 is supported (SPEC_FULL.md §4.6).
type LocalVariableReference struct {
	Index int
}

func (LocalVariableReference) queryNode() {}

// EvalBaseConstant attempts to reduce a wrapped base expression to a
// constant and format it, returning ok=false when it is not constant
// (not an error — the caller should try the recursive fallback).
type EvalBaseConstant func(e expr.Expression) (formatted string, ok bool, err error)

// Interpolate renders q into its query string, recursively formatting
// Tuple/String/LocalVariableReference and deferring to evalConst for any
// wrapped base expression (SPEC_FULL.md §4.6).
func Interpolate(q Expression, rowNumber uint64, evalConst EvalBaseConstant) (string, error) {
	switch n := q.(type) {
	case Base:
		s, ok, err := evalConst(n.Expr)
		if err != nil {
			return "", err
		}
		if ok {
			return s, nil
		}
		return "", fmt.Errorf("cannot handle / evaluate %s", n.Expr)

	case Tuple:
		parts := make([]string, len(n.Items))
		for i, item := range n.Items {
			s, err := Interpolate(item, rowNumber, evalConst)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return strings.Join(parts, ", "), nil

	case String:
		escaped := strings.ReplaceAll(n.Value, `\`, `\\`)
		escaped = strings.ReplaceAll(escaped, `"`, `\"`)
		return fmt.Sprintf("\"%s\"", escaped), nil

	case LocalVariableReference:
		if n.Index != 0 {
			return "", fmt.Errorf("unsupported local variable reference %d", n.Index)
		}
		return fmt.Sprintf("%d", rowNumber), nil

	default:
		return "", fmt.Errorf("unrecognized query expression kind %T", q)
	}
}

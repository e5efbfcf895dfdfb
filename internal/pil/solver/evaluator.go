package solver

import (
	"fmt"

	"github.com/vybium/pil-witgen/internal/pil/affine"
	"github.com/vybium/pil-witgen/internal/pil/ast"
	"github.com/vybium/pil-witgen/internal/pil/expr"
	"github.com/vybium/pil-witgen/internal/pil/field"
)

// Row distinguishes which row of the trace an expression is evaluated
// against, independent of whether the expression itself carries a shift
// (SPEC_FULL.md §4.3).
type Row int

const (
	// Current is the last committed row (nextRow - 1).
	Current Row = iota
	// Next is the row being solved (nextRow).
	Next
)

// evaluate reduces e to an affine expression over witness-column ids,
// resolving constants and fixed-column lookups to concrete field
// elements and leaving genuinely unknown witness references as affine
// variables (SPEC_FULL.md §4.2, §4.3).
func (s *Solver) evaluate(e expr.Expression, row Row) (affine.Expression, error) {
	switch n := e.(type) {
	case expr.Constant:
		v, ok := s.fixedData.Scalar(n.Name)
		if !ok {
			return affine.Expression{}, fmt.Errorf("unknown constant %%%s", n.Name)
		}
		return affine.NewConstant(v), nil

	case expr.Number:
		return affine.NewConstant(field.FromBigInt(n.Value)), nil

	case expr.PolyRef:
		return s.evaluatePolyRef(n, row)

	case expr.Binary:
		left, err := s.evaluate(n.Left, row)
		if err != nil {
			return affine.Expression{}, err
		}
		right, err := s.evaluate(n.Right, row)
		if err != nil {
			return affine.Expression{}, err
		}
		return s.evalBinary(left, n.Op, right)

	case expr.Unary:
		v, err := s.evaluate(n.Operand, row)
		if err != nil {
			return affine.Expression{}, err
		}
		switch n.Op {
		case ast.Neg:
			return v.MulByConstant(field.FromInt64(-1)), nil
		default:
			return affine.Expression{}, fmt.Errorf("unsupported unary operator %s", n.Op)
		}

	default:
		return affine.Expression{}, fmt.Errorf("unsupported expression kind %T", e)
	}
}

func (s *Solver) evalBinary(left affine.Expression, op ast.BinaryOp, right affine.Expression) (affine.Expression, error) {
	switch op {
	case ast.Add:
		return left.Add(right), nil

	case ast.Sub:
		return left.Sub(right), nil

	case ast.Mul:
		v, err := left.Mul(right)
		if err != nil {
			return affine.Expression{}, newErr(ErrNonlinear, "%s", err.Error())
		}
		return v, nil

	case ast.Div:
		rc, ok := right.ConstantValue()
		if !ok {
			return affine.Expression{}, newErr(ErrDivision, "division by a non-constant expression")
		}
		if rc.IsZero() {
			return affine.Expression{}, newErr(ErrDivision, "division by zero")
		}
		return left.MulByConstant(rc.Inverse()), nil

	case ast.Pow:
		return s.evalPow(left, right)

	default:
		return affine.Expression{}, fmt.Errorf("unsupported binary operator %s", op)
	}
}

// evalPow unfolds x^n by repeated multiplication. The exponent must be
// row-constant; Mul itself rejects any step that would require
// multiplying two still-symbolic expressions together, which correctly
// limits unfolding a symbolic base to exponents 0 and 1 (SPEC_FULL.md
// §4.2, resolving the ambiguity spec.md §9 leaves open).
func (s *Solver) evalPow(base affine.Expression, exponent affine.Expression) (affine.Expression, error) {
	ec, ok := exponent.ConstantValue()
	if !ok {
		return affine.Expression{}, newErr(ErrExponent, "exponent in ^ must be a row-constant value")
	}
	n := ec.BigInt()
	if n.Sign() < 0 || !n.IsUint64() {
		return affine.Expression{}, newErr(ErrExponent, "exponent %s out of range", n.String())
	}
	count := n.Uint64()

	result := affine.NewConstant(field.One())
	for i := uint64(0); i < count; i++ {
		v, err := result.Mul(base)
		if err != nil {
			return affine.Expression{}, newErr(ErrNonlinear, "cannot unfold ^%d of a non-constant base: %s", count, err)
		}
		result = v
	}
	return result, nil
}

func (s *Solver) evaluatePolyRef(n expr.PolyRef, row Row) (affine.Expression, error) {
	key := n.AbsoluteName
	if n.Index != nil {
		key = fmt.Sprintf("%s[%d]", key, *n.Index)
	}

	if id, ok := s.fixedData.WitnessID(key); ok {
		return s.evaluateWitness(id, n.Next, row)
	}

	values, ok := s.fixedData.FixedColumn(key)
	if !ok {
		return affine.Expression{}, newErr(ErrUnknownReference, "unknown polynomial reference %s", key)
	}
	length := uint64(len(values))
	if length == 0 {
		return affine.Expression{}, fmt.Errorf("fixed column %s has zero length", key)
	}

	var r uint64
	switch row {
	case Current:
		r = (s.nextRow + length - 1) % length
	case Next:
		r = s.nextRow % length
	}
	if n.Next {
		r = (r + 1) % length
	}
	return affine.NewConstant(values[r]), nil
}

// evaluateWitness implements the Current/Next shift semantics of
// SPEC_FULL.md §4.3: a plain reference on the Current row must already
// be known; a reference landing on the Next row (whether via an
// explicit shift or because the whole identity evaluates there) may
// still be unknown, in which case it becomes an affine variable; and a
// shifted reference that would itself land beyond the Next row (p''
// via Next-row evaluation of p') is never meaningful.
func (s *Solver) evaluateWitness(id int, shifted bool, row Row) (affine.Expression, error) {
	switch {
	case !shifted && row == Current:
		c := s.current[id]
		if !c.known {
			return affine.Expression{}, newErr(ErrPreviousValueUnknown, "value of %s in the current row is not yet known", s.witnessName(id))
		}
		return affine.NewConstant(c.value), nil

	case (!shifted && row == Next) || (shifted && row == Current):
		c := s.next[id]
		if c.known {
			return affine.NewConstant(c.value), nil
		}
		return affine.NewVariable(id), nil

	default: // shifted && row == Next
		return affine.Expression{}, newErr(ErrNextNextReference, "%s' references the next-next row when evaluating on the next row", s.witnessName(id))
	}
}

func (s *Solver) witnessName(id int) string {
	return s.fixedData.Witnesses[id].Name
}

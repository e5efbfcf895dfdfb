// Package expr defines the normalized expression tree the analyzer emits.
// Every sub-expression whose operands are compile-time-resolvable has
// already been collapsed into a Number by the time a value of this type
// exists (SPEC_FULL.md §3 invariant).
package expr

import (
	"fmt"
	"math/big"

	"github.com/vybium/pil-witgen/internal/pil/ast"
)

// Expression is a normalized, post-analysis expression node. It is a
// closed sum type over the five cases below.
type Expression interface {
	fmt.Stringer
	exprNode()
}

// Constant references a process-global scalar constant by name.
type Constant struct {
	Name string
}

func (Constant) exprNode() {}
func (c Constant) String() string { return "%" + c.Name }

// PolyRef references a (possibly array-indexed, possibly shifted)
// polynomial by its fully-namespaced absolute name.
type PolyRef struct {
	AbsoluteName string
	Index        *uint64 // nil if not an array reference
	Next         bool
}

func (PolyRef) exprNode() {}
func (p PolyRef) String() string {
	s := p.AbsoluteName
	if p.Index != nil {
		s = fmt.Sprintf("%s[%d]", s, *p.Index)
	}
	if p.Next {
		s += "'"
	}
	return s
}

// Number is a compile-time-resolved integer. It stays an arbitrary
// precision *big.Int up to the point the solver reduces it into a field
// element (SPEC_FULL.md §3, resolving the overflow caveat in spec.md §9).
type Number struct {
	Value *big.Int
}

func (Number) exprNode() {}
func (n Number) String() string { return n.Value.String() }

// Binary is a binary operation over two normalized sub-expressions.
type Binary struct {
	Left  Expression
	Op    ast.BinaryOp
	Right Expression
}

func (Binary) exprNode() {}
func (b Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

// Unary is a unary operation over a normalized sub-expression.
type Unary struct {
	Op      ast.UnaryOp
	Operand Expression
}

func (Unary) exprNode() {}
func (u Unary) String() string {
	return fmt.Sprintf("%s%s", u.Op, u.Operand)
}

// NumberFromInt64 is a convenience constructor for literal folding.
func NumberFromInt64(v int64) Number {
	return Number{Value: big.NewInt(v)}
}

// ContainsNextRef reports whether expression e contains any shifted
// polynomial reference p'. This determines which row (Current vs Next)
// a polynomial identity is evaluated on (SPEC_FULL.md §4.3).
func ContainsNextRef(e Expression) bool {
	switch n := e.(type) {
	case PolyRef:
		return n.Next
	case Binary:
		return ContainsNextRef(n.Left) || ContainsNextRef(n.Right)
	case Unary:
		return ContainsNextRef(n.Operand)
	default:
		return false
	}
}

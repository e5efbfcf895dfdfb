// Package affine implements the sparse affine-expression algebra the
// solver reduces every identity to: Σ cᵢ·xᵢ + k over witness-column ids
// (SPEC_FULL.md §3, §4.2).
package affine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bits-and-blooms/bitset"

	"github.com/vybium/pil-witgen/internal/pil/field"
)

// Expression is Σ cᵢ·xᵢ + k. ids tracks which witness-column ids carry a
// nonzero coefficient; ids.NextSet always yields ids in increasing order,
// so iteration (and therefore the single-unknown check in Solve, and any
// diagnostic formatting) is deterministic regardless of map order.
type Expression struct {
	coeffs map[int]field.Element
	ids    *bitset.BitSet
	k      field.Element
}

// NewConstant builds the affine expression that is simply the constant k.
func NewConstant(k field.Element) Expression {
	return Expression{coeffs: map[int]field.Element{}, ids: bitset.New(0), k: k}
}

// NewVariable builds the affine expression 1·x_id + 0.
func NewVariable(id int) Expression {
	bs := bitset.New(uint(id + 1))
	bs.Set(uint(id))
	return Expression{
		coeffs: map[int]field.Element{id: field.One()},
		ids:    bs,
		k:      field.Zero(),
	}
}

func (e Expression) sortedIDs() []int {
	ids := make([]int, 0, len(e.coeffs))
	for i, ok := e.ids.NextSet(0); ok; i, ok = e.ids.NextSet(i + 1) {
		ids = append(ids, int(i))
	}
	return ids
}

func (e Expression) combine(o Expression, negate bool) Expression {
	allIDs := e.ids.Clone()
	allIDs.InPlaceUnion(o.ids)

	result := Expression{coeffs: map[int]field.Element{}, ids: bitset.New(0)}
	for i, ok := allIDs.NextSet(0); ok; i, ok = allIDs.NextSet(i + 1) {
		id := int(i)
		left := e.coeffs[id]
		right := o.coeffs[id]
		var c field.Element
		if negate {
			c = left.Sub(right)
		} else {
			c = left.Add(right)
		}
		if !c.IsZero() {
			result.coeffs[id] = c
			result.ids.Set(i)
		}
	}
	if negate {
		result.k = e.k.Sub(o.k)
	} else {
		result.k = e.k.Add(o.k)
	}
	return result
}

// Add returns e + o.
func (e Expression) Add(o Expression) Expression { return e.combine(o, false) }

// Sub returns e - o.
func (e Expression) Sub(o Expression) Expression { return e.combine(o, true) }

// MulByConstant returns e scaled by a known field-element constant c.
func (e Expression) MulByConstant(c field.Element) Expression {
	if c.IsZero() {
		return NewConstant(field.Zero())
	}
	result := Expression{coeffs: map[int]field.Element{}, ids: bitset.New(0), k: e.k.Mul(c)}
	for i, ok := e.ids.NextSet(0); ok; i, ok = e.ids.NextSet(i + 1) {
		id := int(i)
		v := e.coeffs[id].Mul(c)
		if !v.IsZero() {
			result.coeffs[id] = v
			result.ids.Set(i)
		}
	}
	return result
}

// Mul multiplies two affine expressions. This is only legal when at
// least one operand is constant; multiplying two genuinely symbolic
// expressions would be nonlinear, which this affine representation
// cannot express (SPEC_FULL.md §4.2, §9).
func (e Expression) Mul(o Expression) (Expression, error) {
	if e.IsConstant() {
		return o.MulByConstant(e.k), nil
	}
	if o.IsConstant() {
		return e.MulByConstant(o.k), nil
	}
	return Expression{}, fmt.Errorf("cannot multiply two non-constant affine expressions")
}

// IsConstant reports whether every coefficient is zero.
func (e Expression) IsConstant() bool {
	return len(e.coeffs) == 0
}

// ConstantValue returns (k, true) when the expression is constant.
func (e Expression) ConstantValue() (field.Element, bool) {
	if e.IsConstant() {
		return e.k, true
	}
	return field.Zero(), false
}

// IsInvalid reports whether the expression is a nonzero constant: an
// identity reduced to this shape can never be satisfied.
func (e Expression) IsInvalid() bool {
	return e.IsConstant() && !e.k.IsZero()
}

// Solve returns (id, value, true) when exactly one coefficient c is
// nonzero and the expression has the shape c·x + k = 0, i.e. x = -k/c.
func (e Expression) Solve() (id int, value field.Element, ok bool) {
	if e.ids.Count() != 1 {
		return 0, field.Zero(), false
	}
	i, _ := e.ids.NextSet(0)
	id = int(i)
	c := e.coeffs[id]
	value = e.k.Neg().Mul(c.Inverse())
	return id, value, true
}

// Format renders the expression for diagnostics, using name to resolve
// witness-column ids to their declared names.
func (e Expression) Format(name func(id int) string) string {
	ids := e.sortedIDs()
	sort.Ints(ids)

	var terms []string
	for _, id := range ids {
		c := e.coeffs[id]
		if c.Equal(field.One()) {
			terms = append(terms, name(id))
		} else {
			terms = append(terms, fmt.Sprintf("%s * %s", c.String(), name(id)))
		}
	}
	if !e.k.IsZero() || len(terms) == 0 {
		terms = append(terms, e.k.String())
	}
	return strings.Join(terms, " + ")
}

// Package field provides the finite-field arithmetic used by the analyzer
// and solver. The concrete field is the BLS12-377 scalar field, the same
// field the rest of the gnark-crypto powered corpus builds its circuits
// over; PIL programs are written against whichever field their target
// proof system uses, and a fixed scalar field is what every identity,
// affine expression, and row value below ultimately gets reduced into.
package field

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
)

// Element is a single field element. The zero Value is the additive
// identity, matching fr.Element's zero value.
type Element struct {
	v fr.Element
}

// Zero returns the additive identity.
func Zero() Element {
	return Element{}
}

// One returns the multiplicative identity.
func One() Element {
	var e Element
	e.v.SetOne()
	return e
}

// FromInt64 builds a field element from a signed 64-bit integer.
func FromInt64(x int64) Element {
	var e Element
	e.v.SetInt64(x)
	return e
}

// FromUint64 builds a field element from an unsigned 64-bit integer.
func FromUint64(x uint64) Element {
	var e Element
	e.v.SetUint64(x)
	return e
}

// FromBigInt reduces an arbitrary-precision integer (which may be negative
// or wider than the field modulus) into a field element.
func FromBigInt(x *big.Int) Element {
	var e Element
	e.v.SetBigInt(x)
	return e
}

// BigInt returns the canonical non-negative representative of e.
func (e Element) BigInt() *big.Int {
	var out big.Int
	e.v.BigInt(&out)
	return &out
}

// Add returns e + o.
func (e Element) Add(o Element) Element {
	var r Element
	r.v.Add(&e.v, &o.v)
	return r
}

// Sub returns e - o.
func (e Element) Sub(o Element) Element {
	var r Element
	r.v.Sub(&e.v, &o.v)
	return r
}

// Mul returns e * o.
func (e Element) Mul(o Element) Element {
	var r Element
	r.v.Mul(&e.v, &o.v)
	return r
}

// Neg returns -e.
func (e Element) Neg() Element {
	var r Element
	r.v.Neg(&e.v)
	return r
}

// Inverse returns e^-1. Callers must not invoke this on a zero element;
// IsZero should be checked first (mirrors AffineExpression.solve()'s
// precondition that the coefficient being divided by is nonzero).
func (e Element) Inverse() Element {
	var r Element
	r.v.Inverse(&e.v)
	return r
}

// IsZero reports whether e is the additive identity.
func (e Element) IsZero() bool {
	return e.v.IsZero()
}

// Equal reports whether e and o represent the same field element.
func (e Element) Equal(o Element) bool {
	return e.v.Equal(&o.v)
}

// String renders the canonical decimal representation of e.
func (e Element) String() string {
	return e.v.String()
}

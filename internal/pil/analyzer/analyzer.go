// Package analyzer implements the PIL semantic analyzer (SPEC_FULL.md
// §4.1): it resolves namespaces, evaluates compile-time constant
// expressions, assigns numeric identities to polynomials, and emits a
// normalized constraint model (model.Analyzed) for the fixed-column
// generator and the witness solver.
package analyzer

import (
	"fmt"
	"math"
	"math/big"

	"github.com/rs/zerolog"

	"github.com/vybium/pil-witgen/internal/pil/ast"
	"github.com/vybium/pil-witgen/internal/pil/expr"
	"github.com/vybium/pil-witgen/internal/pil/model"
)

// Option configures an analyzer run.
type Option func(*analyzer)

// WithLogger overrides the default (disabled) logger.
func WithLogger(log zerolog.Logger) Option {
	return func(a *analyzer) { a.log = log }
}

type analyzer struct {
	loader ast.FileLoader
	log    zerolog.Logger

	namespace string
	degree    model.DegreeType

	constants        map[string]*big.Int
	declarations     map[string]*model.Polynomial
	namespaceDegrees map[string]model.DegreeType

	polynomialIdentities []model.Identity
	plookupIdentities    []model.Identity

	processed map[string]bool
	curDir    string

	committedCounter    int
	constantCounter     int
	intermediateCounter int
}

// Analyze reads the program rooted at rootPath through loader and
// produces the normalized Analyzed model, or the first fatal error
// encountered (SPEC_FULL.md §4.1, §7).
func Analyze(rootPath string, loader ast.FileLoader, opts ...Option) (*model.Analyzed, error) {
	a := &analyzer{
		loader:       loader,
		log:          zerolog.Nop(),
		namespace:    "Global",
		constants:        map[string]*big.Int{},
		declarations:     map[string]*model.Polynomial{},
		namespaceDegrees: map[string]model.DegreeType{},
		processed:        map[string]bool{},
	}
	for _, opt := range opts {
		opt(a)
	}

	if err := a.processFile("", rootPath); err != nil {
		return nil, err
	}

	return &model.Analyzed{
		Constants:            a.constants,
		Declarations:         a.declarations,
		PolynomialIdentities: a.polynomialIdentities,
		PlookupIdentities:    a.plookupIdentities,
		Degrees:              a.namespaceDegrees,
	}, nil
}

func (a *analyzer) processFile(fromDir, path string) error {
	canonical, dir, statements, err := a.loader.Load(fromDir, path)
	if err != nil {
		return wrapErr(ErrIncludeFailed, path, "failed to load file", err)
	}
	if a.processed[canonical] {
		return nil
	}
	a.processed[canonical] = true
	a.log.Debug().Str("path", canonical).Msg("analyzing file")

	savedDir := a.curDir
	a.curDir = dir
	for _, st := range statements {
		if err := a.dispatch(st); err != nil {
			a.curDir = savedDir
			return err
		}
	}
	a.curDir = savedDir
	return nil
}

func (a *analyzer) dispatch(st ast.Statement) error {
	switch s := st.(type) {
	case ast.Include:
		return a.processFile(a.curDir, s.Path)
	case ast.Namespace:
		return a.handleNamespace(s)
	case ast.ConstantDefinition:
		return a.handleConstantDefinition(s)
	case ast.PolynomialDeclaration:
		return a.handlePolynomialDeclaration(s)
	case ast.PolynomialDefinition:
		return newErr(ErrNotImplemented, s.Name, "polynomial definitions are not yet implemented")
	case ast.PolynomialIdentity:
		return a.handlePolynomialIdentity(s)
	case ast.PlookupIdentity:
		return a.handlePlookupIdentity(s)
	default:
		return newErr(ErrUnknown, fmt.Sprintf("%T", st), "unrecognized statement kind")
	}
}

func (a *analyzer) handleNamespace(s ast.Namespace) error {
	degree, err := a.evalConstRequired(s.Degree, "namespace "+s.Name+" degree")
	if err != nil {
		return err
	}
	if degree.Sign() < 0 || !degree.IsUint64() {
		return newErr(ErrUnresolvableExpression, "namespace "+s.Name, "degree must be a non-negative integer")
	}
	a.degree = degree.Uint64()
	a.namespace = s.Name
	a.namespaceDegrees[s.Name] = a.degree
	return nil
}

func (a *analyzer) handleConstantDefinition(s ast.ConstantDefinition) error {
	if _, exists := a.constants[s.Name]; exists {
		return newErr(ErrDuplicateConstant, s.Name, "duplicate constant definition")
	}
	v, err := a.evalConstRequired(s.Value, "constant "+s.Name)
	if err != nil {
		return err
	}
	a.constants[s.Name] = v
	return nil
}

func (a *analyzer) handlePolynomialDeclaration(s ast.PolynomialDeclaration) error {
	counter := a.counterFor(s.Kind)
	for _, pn := range s.Polynomials {
		id := *counter
		*counter++

		absoluteName := a.namespace + "." + pn.Name
		if _, exists := a.declarations[absoluteName]; exists {
			return newErr(ErrDuplicateDeclaration, absoluteName, "duplicate polynomial declaration")
		}

		var length *uint64
		if pn.ArraySize != nil {
			size, err := a.evalConstRequired(pn.ArraySize, "array size of "+absoluteName)
			if err != nil {
				return err
			}
			if size.Sign() < 0 || !size.IsUint64() {
				return newErr(ErrUnresolvableExpression, absoluteName, "array size must be a non-negative integer")
			}
			v := size.Uint64()
			length = &v
		}

		a.declarations[absoluteName] = &model.Polynomial{
			ID:           id,
			AbsoluteName: absoluteName,
			Kind:         s.Kind,
			Degree:       a.degree,
			Length:       length,
		}
	}
	return nil
}

func (a *analyzer) counterFor(k ast.PolyKind) *int {
	switch k {
	case ast.Committed:
		return &a.committedCounter
	case ast.Constant:
		return &a.constantCounter
	default:
		return &a.intermediateCounter
	}
}

// handlePolynomialIdentity folds a polynomial identity's expression. An
// identity whose expression has already fully collapsed to Number(0) is
// dropped: it can never fail at any row and need not be solved for
// (SPEC_FULL.md "Supplemented Features" §1, grounded on powdr's
// analyzer::mod.rs not special-casing this, but commit_evaluator treating
// an all-constant-zero affine expression as a trivial success every row —
// we short-circuit at analysis time instead of re-deriving it every row).
// A collapsed nonzero constant can never be satisfied by any row and is
// rejected immediately rather than deferred to the solver.
func (a *analyzer) handlePolynomialIdentity(s ast.PolynomialIdentity) error {
	e, err := a.processExpr(s.Expression)
	if err != nil {
		return err
	}
	if n, ok := e.(expr.Number); ok {
		if n.Value.Sign() != 0 {
			return newErr(ErrInvalidIdentity, n.String(), "constant polynomial identity is nonzero and can never be satisfied")
		}
		return nil
	}
	a.polynomialIdentities = append(a.polynomialIdentities, model.Identity{
		Kind: ast.Polynomial,
		Left: model.SelectedExpressions{Selector: e},
	})
	return nil
}

func (a *analyzer) handlePlookupIdentity(s ast.PlookupIdentity) error {
	left, err := a.processSelectedExpressions(s.Left)
	if err != nil {
		return err
	}
	right, err := a.processSelectedExpressions(s.Right)
	if err != nil {
		return err
	}
	a.plookupIdentities = append(a.plookupIdentities, model.Identity{
		Kind:  s.Kind,
		Left:  left,
		Right: right,
	})
	return nil
}

func (a *analyzer) processSelectedExpressions(s ast.SelectedExpressions) (model.SelectedExpressions, error) {
	var out model.SelectedExpressions
	if s.Selector != nil {
		sel, err := a.processExpr(s.Selector)
		if err != nil {
			return out, err
		}
		out.Selector = sel
	}
	out.Expressions = make([]expr.Expression, len(s.Expressions))
	for i, e := range s.Expressions {
		pe, err := a.processExpr(e)
		if err != nil {
			return out, err
		}
		out.Expressions[i] = pe
	}
	return out, nil
}

// processExpr recursively transforms a source expression into a
// normalized one (SPEC_FULL.md §4.1).
func (a *analyzer) processExpr(e ast.Expr) (expr.Expression, error) {
	switch n := e.(type) {
	case ast.ConstantRef:
		if _, ok := a.constants[n.Name]; !ok {
			return nil, newErr(ErrUndefinedConstant, n.Name, "undefined constant")
		}
		return expr.Constant{Name: n.Name}, nil

	case ast.Number:
		return expr.Number{Value: big.NewInt(n.Value)}, nil

	case ast.PolyRef:
		var index *uint64
		if n.Index != nil {
			v, err := a.evalConstRequired(n.Index, "array index of "+n.Name)
			if err != nil {
				return nil, err
			}
			if v.Sign() < 0 || !v.IsUint64() {
				return nil, newErr(ErrUnresolvableExpression, n.Name, "array index must be a non-negative integer")
			}
			u := v.Uint64()
			index = &u
		}
		namespace := n.Namespace
		if namespace == "" {
			namespace = a.namespace
		}
		return expr.PolyRef{AbsoluteName: namespace + "." + n.Name, Index: index, Next: n.Next}, nil

	case ast.Binary:
		if v, ok, err := a.tryEvalConst(n); err != nil {
			return nil, err
		} else if ok {
			return expr.Number{Value: v}, nil
		}
		left, err := a.processExpr(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := a.processExpr(n.Right)
		if err != nil {
			return nil, err
		}
		return expr.Binary{Left: left, Op: n.Op, Right: right}, nil

	case ast.Unary:
		if v, ok, err := a.tryEvalConst(n); err != nil {
			return nil, err
		} else if ok {
			return expr.Number{Value: v}, nil
		}
		operand, err := a.processExpr(n.Operand)
		if err != nil {
			return nil, err
		}
		return expr.Unary{Op: n.Op, Operand: operand}, nil

	default:
		return nil, newErr(ErrUnknown, fmt.Sprintf("%T", e), "unrecognized expression kind")
	}
}

// evalConstRequired evaluates e at compile time, turning "not resolvable"
// into a fatal error tagged with context (used for namespace degrees,
// array sizes, and constant definitions — all places spec.md requires a
// number).
func (a *analyzer) evalConstRequired(e ast.Expr, context string) (*big.Int, error) {
	v, ok, err := a.tryEvalConst(e)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, newErr(ErrUnresolvableExpression, context, "expression does not reduce to a compile-time constant")
	}
	return v, nil
}

// tryEvalConst attempts to evaluate e to a compile-time constant. It
// returns ok=false (no error) when e contains a polynomial reference,
// which is simply not compile-time evaluable and propagates upward as
// "not resolvable" rather than a fault. Any other failure (undefined
// constant, non-exact division, out-of-range exponent) is always fatal,
// even if some other part of the surrounding expression could not fold
// for an unrelated, non-error reason.
func (a *analyzer) tryEvalConst(e ast.Expr) (*big.Int, bool, error) {
	switch n := e.(type) {
	case ast.ConstantRef:
		v, ok := a.constants[n.Name]
		if !ok {
			return nil, false, newErr(ErrUndefinedConstant, n.Name, "undefined constant")
		}
		return new(big.Int).Set(v), true, nil

	case ast.Number:
		return big.NewInt(n.Value), true, nil

	case ast.PolyRef:
		return nil, false, nil

	case ast.Binary:
		l, lok, err := a.tryEvalConst(n.Left)
		if err != nil {
			return nil, false, err
		}
		r, rok, err := a.tryEvalConst(n.Right)
		if err != nil {
			return nil, false, err
		}
		if !lok || !rok {
			return nil, false, nil
		}
		v, err := evalBinary(l, n.Op, r)
		if err != nil {
			return nil, false, err
		}
		return v, true, nil

	case ast.Unary:
		v, ok, err := a.tryEvalConst(n.Operand)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, nil
		}
		switch n.Op {
		case ast.Neg:
			return new(big.Int).Neg(v), true, nil
		default:
			return nil, false, newErr(ErrUnknown, n.Op.String(), "unrecognized unary operator")
		}

	default:
		return nil, false, newErr(ErrUnknown, fmt.Sprintf("%T", e), "unrecognized expression kind")
	}
}

// evalBinary performs compile-time arithmetic using arbitrary-precision
// integers, eliminating the silent fixed-width overflow spec.md §9 flags
// as a known limitation. Division that does not divide exactly is
// rejected (the Resolved Open Question in SPEC_FULL.md §9), rather than
// silently truncating towards zero.
func evalBinary(l *big.Int, op ast.BinaryOp, r *big.Int) (*big.Int, error) {
	switch op {
	case ast.Add:
		return new(big.Int).Add(l, r), nil
	case ast.Sub:
		return new(big.Int).Sub(l, r), nil
	case ast.Mul:
		return new(big.Int).Mul(l, r), nil
	case ast.Div:
		if r.Sign() == 0 {
			return nil, newErr(ErrNonExactDivision, fmt.Sprintf("%s / %s", l, r), "division by zero")
		}
		q, rem := new(big.Int).QuoRem(l, r, new(big.Int))
		if rem.Sign() != 0 {
			return nil, newErr(ErrNonExactDivision, fmt.Sprintf("%s / %s", l, r), "compile-time division is not exact")
		}
		return q, nil
	case ast.Pow:
		if r.Sign() < 0 {
			return nil, newErr(ErrExponentOutOfRange, r.String(), "exponent must be non-negative")
		}
		if !r.IsUint64() || r.Uint64() > math.MaxUint32 {
			return nil, newErr(ErrExponentOutOfRange, r.String(), "exponent must fit in 32 bits")
		}
		return new(big.Int).Exp(l, r, nil), nil
	default:
		return nil, newErr(ErrUnknown, op.String(), "unrecognized binary operator")
	}
}

package main

import (
	"fmt"
	"path/filepath"

	"github.com/vybium/pil-witgen/internal/pil/ast"
)

// StoredExpr is a serializable counterpart to ast.Expr. Since lexing
// and parsing PIL source text is out of scope (SPEC_FULL.md §1), this
// CLI accepts an already-parsed program as CBOR: whatever upstream
// parser exists can emit this shape directly instead of PIL text.
type StoredExpr struct {
	Kind      string      `cbor:"kind"`
	Name      string      `cbor:"name,omitempty"`
	Namespace string      `cbor:"namespace,omitempty"`
	Index     *StoredExpr `cbor:"index,omitempty"`
	Next      bool        `cbor:"next,omitempty"`
	Value     int64       `cbor:"value,omitempty"`
	Left      *StoredExpr `cbor:"left,omitempty"`
	Op        string      `cbor:"op,omitempty"`
	Right     *StoredExpr `cbor:"right,omitempty"`
	Operand   *StoredExpr `cbor:"operand,omitempty"`
}

func (e *StoredExpr) toAST() (ast.Expr, error) {
	if e == nil {
		return nil, nil
	}
	switch e.Kind {
	case "const":
		return ast.ConstantRef{Name: e.Name}, nil
	case "polyref":
		index, err := e.Index.toAST()
		if err != nil {
			return nil, err
		}
		return ast.PolyRef{Namespace: e.Namespace, Name: e.Name, Index: index, Next: e.Next}, nil
	case "number":
		return ast.Number{Value: e.Value}, nil
	case "binary":
		left, err := e.Left.toAST()
		if err != nil {
			return nil, err
		}
		right, err := e.Right.toAST()
		if err != nil {
			return nil, err
		}
		op, err := binaryOpFromString(e.Op)
		if err != nil {
			return nil, err
		}
		return ast.Binary{Left: left, Op: op, Right: right}, nil
	case "unary":
		operand, err := e.Operand.toAST()
		if err != nil {
			return nil, err
		}
		return ast.Unary{Op: ast.Neg, Operand: operand}, nil
	default:
		return nil, fmt.Errorf("unrecognized stored expression kind %q", e.Kind)
	}
}

func binaryOpFromString(s string) (ast.BinaryOp, error) {
	switch s {
	case "+":
		return ast.Add, nil
	case "-":
		return ast.Sub, nil
	case "*":
		return ast.Mul, nil
	case "/":
		return ast.Div, nil
	case "^":
		return ast.Pow, nil
	default:
		return 0, fmt.Errorf("unrecognized binary operator %q", s)
	}
}

// StoredPolyName mirrors ast.PolynomialName.
type StoredPolyName struct {
	Name      string      `cbor:"name"`
	ArraySize *StoredExpr `cbor:"array_size,omitempty"`
}

// StoredSelectedExpressions mirrors ast.SelectedExpressions.
type StoredSelectedExpressions struct {
	Selector    *StoredExpr  `cbor:"selector,omitempty"`
	Expressions []StoredExpr `cbor:"expressions"`
}

func (s *StoredSelectedExpressions) toAST() (ast.SelectedExpressions, error) {
	selector, err := s.Selector.toAST()
	if err != nil {
		return ast.SelectedExpressions{}, err
	}
	exprs := make([]ast.Expr, len(s.Expressions))
	for i := range s.Expressions {
		e, err := s.Expressions[i].toAST()
		if err != nil {
			return ast.SelectedExpressions{}, err
		}
		exprs[i] = e
	}
	return ast.SelectedExpressions{Selector: selector, Expressions: exprs}, nil
}

// StoredStatement is a serializable counterpart to ast.Statement,
// discriminated by Kind.
type StoredStatement struct {
	Kind string `cbor:"kind"`

	// include
	Path string `cbor:"path,omitempty"`

	// namespace / constdef
	Name   string      `cbor:"name,omitempty"`
	Degree *StoredExpr `cbor:"degree,omitempty"`
	Value  *StoredExpr `cbor:"value,omitempty"`

	// polydecl
	PolyKind    string           `cbor:"poly_kind,omitempty"`
	Polynomials []StoredPolyName `cbor:"polynomials,omitempty"`

	// polyident
	Expression *StoredExpr `cbor:"expression,omitempty"`

	// plookup
	LookupKind string                     `cbor:"lookup_kind,omitempty"`
	Left       *StoredSelectedExpressions `cbor:"left,omitempty"`
	Right      *StoredSelectedExpressions `cbor:"right,omitempty"`
}

func (s StoredStatement) toAST() (ast.Statement, error) {
	switch s.Kind {
	case "include":
		return ast.Include{Path: s.Path}, nil

	case "namespace":
		degree, err := s.Degree.toAST()
		if err != nil {
			return nil, err
		}
		return ast.Namespace{Name: s.Name, Degree: degree}, nil

	case "constdef":
		value, err := s.Value.toAST()
		if err != nil {
			return nil, err
		}
		return ast.ConstantDefinition{Name: s.Name, Value: value}, nil

	case "polydecl":
		kind, err := polyKindFromString(s.PolyKind)
		if err != nil {
			return nil, err
		}
		names := make([]ast.PolynomialName, len(s.Polynomials))
		for i, pn := range s.Polynomials {
			arraySize, err := pn.ArraySize.toAST()
			if err != nil {
				return nil, err
			}
			names[i] = ast.PolynomialName{Name: pn.Name, ArraySize: arraySize}
		}
		return ast.PolynomialDeclaration{Kind: kind, Polynomials: names}, nil

	case "polyident":
		e, err := s.Expression.toAST()
		if err != nil {
			return nil, err
		}
		return ast.PolynomialIdentity{Expression: e}, nil

	case "plookup":
		kind, err := identityKindFromString(s.LookupKind)
		if err != nil {
			return nil, err
		}
		left, err := s.Left.toAST()
		if err != nil {
			return nil, err
		}
		right, err := s.Right.toAST()
		if err != nil {
			return nil, err
		}
		return ast.PlookupIdentity{Kind: kind, Left: left, Right: right}, nil

	default:
		return nil, fmt.Errorf("unrecognized stored statement kind %q", s.Kind)
	}
}

func polyKindFromString(s string) (ast.PolyKind, error) {
	switch s {
	case "committed":
		return ast.Committed, nil
	case "constant":
		return ast.Constant, nil
	default:
		return 0, fmt.Errorf("unrecognized polynomial kind %q", s)
	}
}

func identityKindFromString(s string) (ast.IdentityKind, error) {
	switch s {
	case "plookup":
		return ast.Plookup, nil
	case "permutation":
		return ast.Permutation, nil
	default:
		return 0, fmt.Errorf("unrecognized lookup kind %q", s)
	}
}

// StoredFile is one parsed source file's statements, plus the
// directory subsequent includes from it should resolve against.
type StoredFile struct {
	Dir        string            `cbor:"dir"`
	Statements []StoredStatement `cbor:"statements"`
}

// Program is a whole already-parsed PIL program: every file reachable
// from the root, keyed by its canonical (root-relative, slash-joined)
// path.
type Program struct {
	RootPath string                `cbor:"root_path"`
	Files    map[string]StoredFile `cbor:"files"`
}

// fileLoader implements ast.FileLoader over an in-memory Program,
// standing in for the (out-of-scope) parser.
type fileLoader struct {
	program *Program
}

func newFileLoader(p *Program) *fileLoader {
	return &fileLoader{program: p}
}

func (l *fileLoader) Load(fromDir, includePath string) (string, string, []ast.Statement, error) {
	resolved := includePath
	if fromDir != "" && !filepath.IsAbs(includePath) {
		resolved = filepath.Join(fromDir, includePath)
	}
	resolved = filepath.ToSlash(filepath.Clean(resolved))

	stored, ok := l.program.Files[resolved]
	if !ok {
		return "", "", nil, fmt.Errorf("no stored file for %q (resolved from %q + %q)", resolved, fromDir, includePath)
	}

	statements := make([]ast.Statement, len(stored.Statements))
	for i, ss := range stored.Statements {
		st, err := ss.toAST()
		if err != nil {
			return "", "", nil, fmt.Errorf("file %s, statement %d: %w", resolved, i, err)
		}
		statements[i] = st
	}
	return resolved, stored.Dir, statements, nil
}

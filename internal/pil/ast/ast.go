// Package ast defines the surface the analyzer consumes from the parser.
// Lexing and parsing PIL source text is explicitly out of scope for this
// module (see SPEC_FULL.md §1 Non-goals): nothing here reads bytes from
// disk or tokenizes anything. This package only fixes the shape of the
// statements and expressions a parser hands to the analyzer, and the
// FileLoader seam through which the analyzer asks for an included file's
// statements without performing the I/O or parsing itself.
package ast

// BinaryOp is a binary operator appearing in a source expression.
type BinaryOp int

const (
	Add BinaryOp = iota
	Sub
	Mul
	Div
	Pow
)

func (op BinaryOp) String() string {
	switch op {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Div:
		return "/"
	case Pow:
		return "^"
	default:
		return "?"
	}
}

// UnaryOp is a unary operator appearing in a source expression.
type UnaryOp int

const (
	Neg UnaryOp = iota
)

func (op UnaryOp) String() string {
	switch op {
	case Neg:
		return "-"
	default:
		return "?"
	}
}

// PolyKind distinguishes the three kinds of polynomial declaration. Each
// kind has its own sequential id counter, global across the whole
// analyzed program (see SPEC_FULL.md §3, scenario S2).
type PolyKind int

const (
	Committed PolyKind = iota
	Constant
	Intermediate
)

func (k PolyKind) String() string {
	switch k {
	case Committed:
		return "committed"
	case Constant:
		return "constant"
	case Intermediate:
		return "intermediate"
	default:
		return "unknown"
	}
}

// IdentityKind distinguishes a plain polynomial identity from the two
// lookup-style identities.
type IdentityKind int

const (
	Polynomial IdentityKind = iota
	Plookup
	Permutation
)

// Expr is a source-level expression, as handed down by the parser. It is
// a closed sum type: every concrete case below implements exprNode so
// that only expressions defined in this package satisfy the interface.
type Expr interface {
	exprNode()
}

// ConstantRef references a global (non-namespaced) scalar constant.
type ConstantRef struct {
	Name string
}

func (ConstantRef) exprNode() {}

// PolyRef references a polynomial, optionally array-indexed, optionally
// shifted to the next row, optionally namespace-qualified.
type PolyRef struct {
	Namespace string // empty means "current namespace"
	Name      string
	Index     Expr // nil if not an array reference
	Next      bool
}

func (PolyRef) exprNode() {}

// Number is an integer literal.
type Number struct {
	Value int64
}

func (Number) exprNode() {}

// Binary is a binary operation over two sub-expressions.
type Binary struct {
	Left  Expr
	Op    BinaryOp
	Right Expr
}

func (Binary) exprNode() {}

// Unary is a unary operation over a sub-expression.
type Unary struct {
	Op      UnaryOp
	Operand Expr
}

func (Unary) exprNode() {}

// PolynomialName is one declared name within a Commit/Constant
// declaration statement, with an optional array size expression.
type PolynomialName struct {
	Name      string
	ArraySize Expr // nil if not an array
}

// SelectedExpressions is one side of a lookup/permutation identity.
type SelectedExpressions struct {
	Selector    Expr // nil means "always selected"
	Expressions []Expr
}

// Statement is a single top-level PIL statement, as produced by the
// parser. Only the kinds recognized by SPEC_FULL.md §6 are represented.
type Statement interface {
	stmtNode()
}

// Include pulls in another file, resolved relative to the including
// file's directory.
type Include struct {
	Path string
}

func (Include) stmtNode() {}

// Namespace opens a new namespace with a given degree (trace length)
// expression, evaluated at compile time.
type Namespace struct {
	Name   string
	Degree Expr
}

func (Namespace) stmtNode() {}

// ConstantDefinition defines a process-global scalar constant.
type ConstantDefinition struct {
	Name  string
	Value Expr
}

func (ConstantDefinition) stmtNode() {}

// PolynomialDeclaration declares one or more committed or constant
// polynomials in the current namespace.
type PolynomialDeclaration struct {
	Kind        PolyKind // Committed or Constant only
	Polynomials []PolynomialName
}

func (PolynomialDeclaration) stmtNode() {}

// PolynomialDefinition declares an intermediate polynomial bound to a
// defining expression. Reserved: the analyzer recognizes but does not
// implement this statement kind (SPEC_FULL.md §6).
type PolynomialDefinition struct {
	Name  string
	Value Expr
}

func (PolynomialDefinition) stmtNode() {}

// PolynomialIdentity asserts that an expression vanishes on every row.
type PolynomialIdentity struct {
	Expression Expr
}

func (PolynomialIdentity) stmtNode() {}

// PlookupIdentity asserts a lookup or permutation relation between two
// selected-expression groups.
type PlookupIdentity struct {
	Kind  IdentityKind // Plookup or Permutation
	Left  SelectedExpressions
	Right SelectedExpressions
}

func (PlookupIdentity) stmtNode() {}

// FileLoader resolves one include, relative to the directory of the
// including file, and returns the statements the (external) parser
// produced for it along with the canonical path used for include-guard
// deduplication and the directory subsequent includes from that file
// should be resolved against. This is the seam that keeps file I/O and
// parsing mechanics out of the analyzer (SPEC_FULL.md §1 Non-goals).
type FileLoader interface {
	// Load parses the file at includePath (resolved relative to fromDir,
	// or treated as a root path when fromDir is empty) and returns its
	// canonical (deduplication) path, the directory it lives in, and its
	// statements.
	Load(fromDir, includePath string) (canonicalPath, dir string, statements []Statement, err error)
}

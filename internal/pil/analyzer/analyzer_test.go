package analyzer_test

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vybium/pil-witgen/internal/pil/analyzer"
	"github.com/vybium/pil-witgen/internal/pil/ast"
)

// fakeLoader is a minimal in-memory ast.FileLoader: statements are
// pre-built ast.Statement trees keyed by a path, standing in for the
// (out-of-scope) parser.
type fakeLoader struct {
	files map[string][]ast.Statement
}

func newFakeLoader(files map[string][]ast.Statement) *fakeLoader {
	return &fakeLoader{files: files}
}

func (l *fakeLoader) Load(fromDir, includePath string) (string, string, []ast.Statement, error) {
	key := includePath
	if fromDir != "" {
		key = fromDir + "/" + includePath
	}
	statements, ok := l.files[key]
	if !ok {
		return "", "", nil, fmt.Errorf("fakeLoader: no file %q", key)
	}
	return key, key, statements, nil
}

func number(v int64) ast.Expr { return ast.Number{Value: v} }

func TestConstantFoldingAndNamespaceResolution(t *testing.T) {
	loader := newFakeLoader(map[string][]ast.Statement{
		"root": {
			ast.ConstantDefinition{Name: "N", Value: number(5)},
			ast.Namespace{Name: "Main", Degree: ast.ConstantRef{Name: "N"}},
			ast.PolynomialDeclaration{Kind: ast.Committed, Polynomials: []ast.PolynomialName{{Name: "a"}}},
			ast.PolynomialIdentity{Expression: ast.Binary{
				Left: ast.PolyRef{Name: "a"},
				Op:   ast.Sub,
				Right: ast.Binary{Left: number(2), Op: ast.Add, Right: number(3)},
			}},
		},
	})

	analyzed, err := analyzer.Analyze("root", loader)
	require.NoError(t, err)

	assert.Equal(t, int64(5), analyzed.Constants["N"].Int64())

	decl, ok := analyzed.Declarations["Main.a"]
	require.True(t, ok)
	assert.Equal(t, ast.Committed, decl.Kind)
	assert.Equal(t, 0, decl.ID)
	assert.Equal(t, uint64(5), decl.Degree)

	assert.Equal(t, uint64(5), analyzed.Degrees["Main"])
	require.Len(t, analyzed.PolynomialIdentities, 1)
}

func TestDegenerateZeroIdentityIsDropped(t *testing.T) {
	loader := newFakeLoader(map[string][]ast.Statement{
		"root": {
			ast.Namespace{Name: "Main", Degree: number(4)},
			ast.PolynomialIdentity{Expression: ast.Binary{Left: number(2), Op: ast.Sub, Right: number(2)}},
		},
	})

	analyzed, err := analyzer.Analyze("root", loader)
	require.NoError(t, err)
	assert.Empty(t, analyzed.PolynomialIdentities)
}

func TestUnsatisfiableConstantIdentityIsFatal(t *testing.T) {
	loader := newFakeLoader(map[string][]ast.Statement{
		"root": {
			ast.Namespace{Name: "Main", Degree: number(4)},
			ast.PolynomialIdentity{Expression: ast.Binary{Left: number(3), Op: ast.Sub, Right: number(1)}},
		},
	})

	_, err := analyzer.Analyze("root", loader)
	assert.Error(t, err)
}

func TestDuplicateConstantIsFatal(t *testing.T) {
	loader := newFakeLoader(map[string][]ast.Statement{
		"root": {
			ast.ConstantDefinition{Name: "N", Value: number(1)},
			ast.ConstantDefinition{Name: "N", Value: number(2)},
		},
	})

	_, err := analyzer.Analyze("root", loader)
	assert.Error(t, err)
}

func TestDuplicatePolynomialDeclarationIsFatal(t *testing.T) {
	loader := newFakeLoader(map[string][]ast.Statement{
		"root": {
			ast.Namespace{Name: "Main", Degree: number(4)},
			ast.PolynomialDeclaration{Kind: ast.Committed, Polynomials: []ast.PolynomialName{{Name: "a"}}},
			ast.PolynomialDeclaration{Kind: ast.Committed, Polynomials: []ast.PolynomialName{{Name: "a"}}},
		},
	})

	_, err := analyzer.Analyze("root", loader)
	assert.Error(t, err)
}

func TestIncludeGuardRunsEachFileOnce(t *testing.T) {
	loader := newFakeLoader(map[string][]ast.Statement{
		"root": {
			ast.Include{Path: "shared"},
			ast.Include{Path: "shared"}, // second include must be a no-op
			ast.Namespace{Name: "Main", Degree: ast.ConstantRef{Name: "N"}},
		},
		"root/shared": {
			ast.ConstantDefinition{Name: "N", Value: number(8)},
		},
	})

	analyzed, err := analyzer.Analyze("root", loader)
	require.NoError(t, err)
	assert.Equal(t, int64(8), analyzed.Constants["N"].Int64())
	assert.Equal(t, uint64(8), analyzed.Degrees["Main"])
}

func TestNonExactDivisionIsFatal(t *testing.T) {
	loader := newFakeLoader(map[string][]ast.Statement{
		"root": {
			ast.ConstantDefinition{Name: "N", Value: ast.Binary{Left: number(7), Op: ast.Div, Right: number(2)}},
		},
	})

	_, err := analyzer.Analyze("root", loader)
	assert.Error(t, err)
}

func TestFingerprintIsDeterministic(t *testing.T) {
	build := func() map[string][]ast.Statement {
		return map[string][]ast.Statement{
			"root": {
				ast.ConstantDefinition{Name: "N", Value: number(16)},
				ast.Namespace{Name: "Main", Degree: ast.ConstantRef{Name: "N"}},
				ast.PolynomialDeclaration{Kind: ast.Committed, Polynomials: []ast.PolynomialName{{Name: "a"}, {Name: "b"}}},
				ast.PolynomialIdentity{Expression: ast.Binary{
					Left:  ast.PolyRef{Name: "a", Next: true},
					Op:    ast.Sub,
					Right: ast.PolyRef{Name: "b"},
				}},
			},
		}
	}

	first, err := analyzer.Analyze("root", newFakeLoader(build()))
	require.NoError(t, err)
	second, err := analyzer.Analyze("root", newFakeLoader(build()))
	require.NoError(t, err)

	assert.Equal(t, first.Fingerprint(), second.Fingerprint())
}

// TestAnalyzeIsStructurallyDeterministic goes a level below
// TestFingerprintIsDeterministic: two independently-analyzed runs of the
// same source must produce not just equal fingerprints but deeply equal
// declarations and identities, so a fingerprint collision can never mask
// a real divergence.
func TestAnalyzeIsStructurallyDeterministic(t *testing.T) {
	build := func() map[string][]ast.Statement {
		return map[string][]ast.Statement{
			"root": {
				ast.ConstantDefinition{Name: "N", Value: number(16)},
				ast.Namespace{Name: "Main", Degree: ast.ConstantRef{Name: "N"}},
				ast.PolynomialDeclaration{Kind: ast.Committed, Polynomials: []ast.PolynomialName{{Name: "a"}, {Name: "b"}}},
				ast.PolynomialIdentity{Expression: ast.Binary{
					Left:  ast.PolyRef{Name: "a", Next: true},
					Op:    ast.Sub,
					Right: ast.PolyRef{Name: "b"},
				}},
			},
		}
	}

	first, err := analyzer.Analyze("root", newFakeLoader(build()))
	require.NoError(t, err)
	second, err := analyzer.Analyze("root", newFakeLoader(build()))
	require.NoError(t, err)

	bigIntCmp := cmp.Comparer(func(x, y *big.Int) bool {
		if x == nil || y == nil {
			return x == y
		}
		return x.Cmp(y) == 0
	})

	if diff := cmp.Diff(first, second, bigIntCmp); diff != "" {
		t.Errorf("two analyses of identical source diverged (-first +second):\n%s", diff)
	}
}

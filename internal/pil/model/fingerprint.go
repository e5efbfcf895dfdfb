package model

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Fingerprint hashes a canonical serialization of a, letting callers
// verify Testable Property #6 (determinism) across repeated analyzer
// runs without diffing full trees (SPEC_FULL.md §4.1).
func (a *Analyzed) Fingerprint() string {
	var b strings.Builder

	names := make([]string, 0, len(a.Constants))
	for name := range a.Constants {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "const %s = %s\n", name, a.Constants[name].String())
	}

	nsNames := make([]string, 0, len(a.Degrees))
	for name := range a.Degrees {
		nsNames = append(nsNames, name)
	}
	sort.Strings(nsNames)
	for _, name := range nsNames {
		fmt.Fprintf(&b, "namespace %s degree=%d\n", name, a.Degrees[name])
	}

	declNames := make([]string, 0, len(a.Declarations))
	for name := range a.Declarations {
		declNames = append(declNames, name)
	}
	sort.Strings(declNames)
	for _, name := range declNames {
		p := a.Declarations[name]
		fmt.Fprintf(&b, "decl %s kind=%d id=%d degree=%d\n", name, p.Kind, p.ID, p.Degree)
	}

	for i, id := range a.PolynomialIdentities {
		fmt.Fprintf(&b, "poly[%d] %s\n", i, id.Left.Selector)
	}
	for i, id := range a.PlookupIdentities {
		fmt.Fprintf(&b, "lookup[%d] kind=%d left=%v right=%v\n", i, id.Kind, id.Left.Expressions, id.Right.Expressions)
	}

	h := sha3.Sum256([]byte(b.String()))
	return fmt.Sprintf("%x", h)
}

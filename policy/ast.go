// Package policy implements the boolean policy grammar: template rendering,
// parsing rendered policies into a tree, and evaluating them against an
// attribute set by direct boolean evaluation or by monotone-span-program
// satisfiability.
package policy

import (
	"strings"

	"github.com/pkg/errors"
)

// Node is a parsed policy tree: AND/OR/NOT nodes over attribute leaves.
type Node interface {
	node()
}

type Attr struct {
	Name string
}

type Not struct {
	X Node
}

type And struct {
	Kids []Node
}

type Or struct {
	Kids []Node
}

func (Attr) node() {}
func (Not) node()  {}
func (And) node()  {}
func (Or) node()   {}

const (
	tokAnd = "AND"
	tokOr  = "OR"
	tokNot = "NOT"
)

func tokenize(s string) []string {
	var toks []string
	var word strings.Builder
	flush := func() {
		if word.Len() > 0 {
			toks = append(toks, word.String())
			word.Reset()
		}
	}
	for _, r := range s {
		switch r {
		case '(', ')':
			flush()
			toks = append(toks, string(r))
		case ' ', '\t', '\n', '\r':
			flush()
		default:
			word.WriteRune(r)
		}
	}
	flush()
	return toks
}

// Parse builds the tree for a rendered policy. Operator keywords are
// case-sensitive and OR binds looser than AND: "a AND b OR c" parses as
// "(a AND b) OR c". A leading NOT negates the whole remaining
// sub-expression. Unresolved template placeholders parse as ordinary
// attribute leaves, which no principal can ever hold.
func Parse(policy string) (Node, error) {
	toks := tokenize(policy)
	if len(toks) == 0 {
		return nil, errors.Errorf("policy: empty expression in %q", policy)
	}
	return parseExpr(toks)
}

func parseExpr(toks []string) (Node, error) {
	if len(toks) == 0 {
		return nil, errors.New("policy: empty sub-expression")
	}

	if toks[0] == tokNot {
		inner, err := parseExpr(toks[1:])
		if err != nil {
			return nil, err
		}
		return Not{X: inner}, nil
	}

	if parts, err := splitTop(toks, tokOr); err != nil {
		return nil, err
	} else if len(parts) > 1 {
		return parseParts(parts, func(kids []Node) Node { return Or{Kids: kids} })
	}

	if parts, err := splitTop(toks, tokAnd); err != nil {
		return nil, err
	} else if len(parts) > 1 {
		return parseParts(parts, func(kids []Node) Node { return And{Kids: kids} })
	}

	if toks[0] == "(" && closingIndex(toks) == len(toks)-1 {
		return parseExpr(toks[1 : len(toks)-1])
	}

	if len(toks) == 1 {
		t := toks[0]
		if t == tokAnd || t == tokOr || t == tokNot || t == "(" || t == ")" {
			return nil, errors.Errorf("policy: operator %q where an attribute is expected", t)
		}
		return Attr{Name: t}, nil
	}

	return nil, errors.Errorf("policy: malformed expression near %q", strings.Join(toks, " "))
}

func parseParts(parts [][]string, join func([]Node) Node) (Node, error) {
	kids := make([]Node, len(parts))
	for i, part := range parts {
		kid, err := parseExpr(part)
		if err != nil {
			return nil, err
		}
		kids[i] = kid
	}
	return join(kids), nil
}

// splitTop splits the token stream on every occurrence of op at parenthesis
// depth zero. An unbalanced stream or an operator at a boundary is a parse
// error.
func splitTop(toks []string, op string) ([][]string, error) {
	var parts [][]string
	depth, start := 0, 0
	for i, t := range toks {
		switch t {
		case "(":
			depth++
		case ")":
			depth--
			if depth < 0 {
				return nil, errors.New("policy: unbalanced parentheses")
			}
		case op:
			if depth == 0 {
				if i == start {
					return nil, errors.Errorf("policy: %s with a missing operand", op)
				}
				parts = append(parts, toks[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, errors.New("policy: unbalanced parentheses")
	}
	if start == len(toks) && len(parts) > 0 {
		return nil, errors.Errorf("policy: %s with a missing operand", op)
	}
	parts = append(parts, toks[start:])
	return parts, nil
}

// closingIndex returns the index of the parenthesis matching toks[0].
func closingIndex(toks []string) int {
	depth := 0
	for i, t := range toks {
		switch t {
		case "(":
			depth++
		case ")":
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

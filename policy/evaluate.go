package policy

import (
	"sort"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
)

// Decision is the outcome of evaluating a policy against an attribute set.
// Any failure to parse or evaluate yields Satisfied=false with Err set, never
// a grant. Missing lists the policy leaves absent from the attribute set and
// is advisory only: a policy can be satisfied while Missing is non-empty.
type Decision struct {
	Satisfied bool
	Missing   []string
	Err       error
}

// Evaluator answers access questions for rendered policies. Parsed trees are
// cached per policy text, so repeated checks against the same policy skip the
// parser.
type Evaluator struct {
	trees *cache.Cache
}

func NewEvaluator() *Evaluator {
	return &Evaluator{
		trees: cache.New(30*time.Minute, 10*time.Minute),
	}
}

func (e *Evaluator) tree(policy string) (Node, error) {
	if cached, ok := e.trees.Get(policy); ok {
		return cached.(Node), nil
	}
	n, err := Parse(policy)
	if err != nil {
		return nil, err
	}
	e.trees.Set(policy, n, cache.DefaultExpiration)
	return n, nil
}

// Evaluate checks whether the attribute set satisfies the rendered policy.
func (e *Evaluator) Evaluate(policy string, attrs []string) (d Decision) {
	defer func() {
		if r := recover(); r != nil {
			d = Decision{Err: errors.Errorf("policy: evaluation panic: %v", r)}
		}
	}()

	n, err := e.tree(policy)
	if err != nil {
		return Decision{Err: err}
	}

	held := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		held[a] = true
	}

	missing := make(map[string]bool)
	collectMissing(n, held, missing)

	return Decision{
		Satisfied: eval(n, held),
		Missing:   sortedKeys(missing),
	}
}

// Satisfies is Evaluate collapsed to the grant bit.
func (e *Evaluator) Satisfies(policy string, attrs []string) bool {
	return e.Evaluate(policy, attrs).Satisfied
}

func eval(n Node, held map[string]bool) bool {
	switch x := n.(type) {
	case Attr:
		return held[x.Name]
	case Not:
		return !eval(x.X, held)
	case And:
		for _, kid := range x.Kids {
			if !eval(kid, held) {
				return false
			}
		}
		return true
	case Or:
		for _, kid := range x.Kids {
			if eval(kid, held) {
				return true
			}
		}
		return false
	}
	return false
}

func collectMissing(n Node, held, missing map[string]bool) {
	switch x := n.(type) {
	case Attr:
		if !held[x.Name] {
			missing[x.Name] = true
		}
	case Not:
		collectMissing(x.X, held, missing)
	case And:
		for _, kid := range x.Kids {
			collectMissing(kid, held, missing)
		}
	case Or:
		for _, kid := range x.Kids {
			collectMissing(kid, held, missing)
		}
	}
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

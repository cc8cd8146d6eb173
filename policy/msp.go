package policy

import (
	"github.com/fentec-project/bn256"
	"github.com/fentec-project/gofe/abe"

	"github.com/medishare/cpabe-core/lsss"
)

// Prune compiles a monotone policy to a span program and returns the minimal
// subset of attrs that satisfies it. Negations are outside the monotone
// fragment, so NOT-bearing policies fail here even when Evaluate accepts
// them. Any compilation or solving failure reports unsatisfiable.
func Prune(policy string, attrs []string) ([]string, bool) {
	msp, err := abe.BooleanToMSP(policy, false)
	if err != nil {
		return nil, false
	}
	return lsss.Prune(msp, attrs, bn256.Order)
}

// Package lsss implements linear secret sharing over a monotone span
// program: splitting a secret into per-row shares and recomputing the
// reconstruction coefficients for a satisfying attribute set.
package lsss

import (
	"math/big"
	"sort"

	"github.com/fentec-project/gofe/abe"
	"github.com/fentec-project/gofe/data"
	"github.com/fentec-project/gofe/sample"
	"github.com/pkg/errors"
)

// Share computes λ = M·v with v[0] = s and the remaining entries of v
// sampled uniformly, returning one share per MSP row keyed by row index.
func Share(msp *abe.MSP, s *big.Int, p *big.Int) (map[int]*big.Int, error) {
	if msp == nil || len(msp.Mat) == 0 {
		return nil, errors.New("lsss: empty span program")
	}
	sampler := sample.NewUniform(p)
	v, err := data.NewRandomVector(msp.Mat.Cols(), sampler)
	if err != nil {
		return nil, errors.Wrap(err, "lsss: sampling sharing vector")
	}
	v[0] = new(big.Int).Set(s)

	lambda, err := msp.Mat.MulVec(v)
	if err != nil {
		return nil, errors.Wrap(err, "lsss: computing M*v")
	}

	shares := make(map[int]*big.Int, len(lambda))
	for i, li := range lambda {
		shares[i] = new(big.Int).Mod(li, p)
	}
	return shares, nil
}

// ReconstructCoefficients solves w^T * M_I = (1, 0, ..., 0) over the rows I
// whose attribute appears in attrs, so that Σ w_i·λ_i = s. The returned map
// is keyed by the original row indices. An unsolvable system means the
// attribute set does not satisfy the span program.
func ReconstructCoefficients(msp *abe.MSP, attrs []string, p *big.Int) (map[int]*big.Int, error) {
	if msp == nil || len(msp.Mat) == 0 {
		return nil, errors.New("lsss: empty span program")
	}
	held := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		held[a] = true
	}

	sub := make(data.Matrix, 0, len(msp.Mat))
	rows := make([]int, 0, len(msp.Mat))
	for i, attr := range msp.RowToAttrib {
		if held[attr] {
			sub = append(sub, msp.Mat[i])
			rows = append(rows, i)
		}
	}
	if len(sub) == 0 {
		return nil, errors.New("lsss: no span program row matches the attribute set")
	}

	cols := msp.Mat.Cols()
	target := make(data.Vector, cols)
	target[0] = big.NewInt(1)
	for j := 1; j < cols; j++ {
		target[j] = big.NewInt(0)
	}

	w, err := data.GaussianEliminationSolver(sub.Transpose(), target, p)
	if err != nil {
		return nil, errors.Wrap(err, "lsss: system is not solvable")
	}

	coeffs := make(map[int]*big.Int, len(w))
	for k, wi := range w {
		coeffs[rows[k]] = new(big.Int).Mod(wi, p)
	}
	return coeffs, nil
}

// Prune reports whether attrs satisfy the span program and, if so, returns
// the sorted subset of attributes that actually contributes to a satisfying
// row combination (rows whose reconstruction coefficient is nonzero).
func Prune(msp *abe.MSP, attrs []string, p *big.Int) ([]string, bool) {
	coeffs, err := ReconstructCoefficients(msp, attrs, p)
	if err != nil {
		return nil, false
	}
	used := make(map[string]bool)
	for i, wi := range coeffs {
		if wi.Sign() != 0 {
			used[msp.RowToAttrib[i]] = true
		}
	}
	subset := make([]string, 0, len(used))
	for a := range used {
		subset = append(subset, a)
	}
	sort.Strings(subset)
	return subset, true
}

// Package waters11 implements the universe-bounded CP-ABE scheme used by the
// authorization center. Attributes are slot indices in [1, UniSize] assigned
// by the attribute registry; slot 0 is reserved for scheme-internal use.
package waters11

import (
	"math/big"
	"strconv"

	"github.com/fentec-project/bn256"
	"github.com/fentec-project/gofe/abe"
	"github.com/fentec-project/gofe/sample"
	"github.com/pkg/errors"

	"github.com/medishare/cpabe-core/lsss"
)

type Waters11 struct {
	P       *big.Int
	UniSize int
}

func NewWaters11(uniSize int) (*Waters11, error) {
	if uniSize < 1 {
		return nil, errors.Errorf("waters11: universe size %d, need at least 1", uniSize)
	}
	return &Waters11{
		P:       bn256.Order,
		UniSize: uniSize,
	}, nil
}

type PubKey struct {
	G1       *bn256.G1
	G2       *bn256.G2
	Ga1      *bn256.G1 // g1^a
	Ga2      *bn256.G2 // g2^a, only for pairing
	EggAlpha *bn256.GT // e(g1,g2)^alpha
	U1       map[int]*bn256.G1 // slot elements
	U2       map[int]*bn256.G2 // same slots in G2, only for pairing
}

type MasterKey struct {
	Alpha *big.Int
}

// Setup samples fresh scheme parameters. Two calls produce incompatible
// PK/MSK pairs; the keystore guards against accidental re-setup.
func (w *Waters11) Setup() (*PubKey, *MasterKey, error) {
	sampler := sample.NewUniformRange(big.NewInt(1), w.P)

	alpha, err := sampler.Sample()
	if err != nil {
		return nil, nil, errors.Wrap(err, "waters11: sampling alpha")
	}
	a, err := sampler.Sample()
	if err != nil {
		return nil, nil, errors.Wrap(err, "waters11: sampling a")
	}

	g1 := new(bn256.G1).ScalarBaseMult(big.NewInt(1))
	g2 := new(bn256.G2).ScalarBaseMult(big.NewInt(1))

	u1 := make(map[int]*bn256.G1, w.UniSize)
	u2 := make(map[int]*bn256.G2, w.UniSize)
	for i := 1; i <= w.UniSize; i++ {
		zi, err := sampler.Sample()
		if err != nil {
			return nil, nil, errors.Wrapf(err, "waters11: sampling slot %d", i)
		}
		u1[i] = new(bn256.G1).ScalarBaseMult(zi)
		u2[i] = new(bn256.G2).ScalarBaseMult(zi)
	}

	egg := bn256.Pair(g1, g2)
	return &PubKey{
			G1:       g1,
			G2:       g2,
			Ga1:      new(bn256.G1).ScalarMult(g1, a),
			Ga2:      new(bn256.G2).ScalarMult(g2, a),
			EggAlpha: new(bn256.GT).ScalarMult(egg, alpha),
			U1:       u1,
			U2:       u2,
		}, &MasterKey{
			Alpha: alpha,
		}, nil
}

type SecretKey struct {
	Attrs []int
	K2    *bn256.G2 // g2^alpha * (g2^a)^t
	L2    *bn256.G2 // g2^t
	Kx2   map[int]*bn256.G2 // u_x^t per held slot
}

// KeyGen derives a secret key bound to exactly the supplied slot set. The
// caller must pass a PK and MSK originating from the same Setup call.
func (w *Waters11) KeyGen(pk *PubKey, msk *MasterKey, attrs []int) (*SecretKey, error) {
	if len(attrs) == 0 {
		return nil, errors.New("waters11: empty attribute list, refusing to issue a key that satisfies nothing")
	}
	for _, x := range attrs {
		if x < 1 || x > w.UniSize {
			return nil, errors.Errorf("waters11: attribute %d outside universe [1, %d]", x, w.UniSize)
		}
	}

	sampler := sample.NewUniformRange(big.NewInt(1), w.P)
	t, err := sampler.Sample()
	if err != nil {
		return nil, errors.Wrap(err, "waters11: sampling t")
	}

	k2 := new(bn256.G2).ScalarMult(pk.G2, msk.Alpha)
	k2.Add(k2, new(bn256.G2).ScalarMult(pk.Ga2, t))

	kx2 := make(map[int]*bn256.G2, len(attrs))
	for _, x := range attrs {
		ux2 := pk.U2[x]
		if ux2 == nil {
			return nil, errors.Errorf("waters11: no slot element for attribute %d", x)
		}
		kx2[x] = new(bn256.G2).ScalarMult(ux2, t)
	}

	return &SecretKey{
		Attrs: append([]int(nil), attrs...),
		K2:    k2,
		L2:    new(bn256.G2).ScalarMult(pk.G2, t),
		Kx2:   kx2,
	}, nil
}

type Ciphertext struct {
	C   *bn256.GT         // m * e(g1,g2)^{alpha s}
	Cp  *bn256.G1         // g1^s
	Ci  map[int]*bn256.G1 // per row: (g1^a)^{lambda_i} * u_{rho(i)}^{-r_i}
	Di  map[int]*bn256.G1 // per row: g1^{r_i}
	MSP *abe.MSP          // rows labelled with decimal slot indices
}

// Encrypt blinds m under the access structure msp, whose rows must be
// labelled with decimal slot indices (the registry-rewritten policy).
func (w *Waters11) Encrypt(pk *PubKey, m *bn256.GT, msp *abe.MSP) (*Ciphertext, error) {
	sampler := sample.NewUniformRange(big.NewInt(1), w.P)
	s, err := sampler.Sample()
	if err != nil {
		return nil, errors.Wrap(err, "waters11: sampling s")
	}
	shares, err := lsss.Share(msp, s, w.P)
	if err != nil {
		return nil, err
	}

	ci := make(map[int]*bn256.G1, len(shares))
	di := make(map[int]*bn256.G1, len(shares))
	for i, li := range shares {
		x, convErr := strconv.Atoi(msp.RowToAttrib[i])
		if convErr != nil || x < 1 || x > w.UniSize {
			return nil, errors.Errorf("waters11: policy row %d names %q, want a slot index in [1, %d]",
				i, msp.RowToAttrib[i], w.UniSize)
		}
		ux1 := pk.U1[x]
		if ux1 == nil {
			return nil, errors.Errorf("waters11: no slot element for attribute %d", x)
		}
		ri, err := sampler.Sample()
		if err != nil {
			return nil, errors.Wrapf(err, "waters11: sampling r for row %d", i)
		}
		riNeg := new(big.Int).Sub(w.P, ri)
		riNeg.Mod(riNeg, w.P)

		c := new(bn256.G1).ScalarMult(pk.Ga1, li)
		c.Add(c, new(bn256.G1).ScalarMult(ux1, riNeg))
		ci[i] = c
		di[i] = new(bn256.G1).ScalarMult(pk.G1, ri)
	}

	return &Ciphertext{
		C:   new(bn256.GT).Add(m, new(bn256.GT).ScalarMult(pk.EggAlpha, s)),
		Cp:  new(bn256.G1).ScalarMult(pk.G1, s),
		Ci:  ci,
		Di:  di,
		MSP: msp,
	}, nil
}

// Decrypt recovers m when the key's slot set satisfies the ciphertext's
// access structure. A key from a different Setup call yields a wrong
// message, detected downstream by the content-key check failing.
func (w *Waters11) Decrypt(pk *PubKey, ct *Ciphertext, sk *SecretKey) (*bn256.GT, error) {
	attrStrs := make([]string, len(sk.Attrs))
	for i, x := range sk.Attrs {
		attrStrs[i] = strconv.Itoa(x)
	}
	coeffs, err := lsss.ReconstructCoefficients(ct.MSP, attrStrs, w.P)
	if err != nil {
		return nil, errors.Wrap(err, "waters11: attribute set does not satisfy the policy")
	}

	// e(g1^s, K2) = e(g1,g2)^{s(alpha + a t)}
	num := bn256.Pair(ct.Cp, sk.K2)

	// prod over satisfying rows of [e(Ci, L2) * e(Di, Kx2)]^{w_i} = e(g1,g2)^{a t s}
	prod := new(bn256.GT).ScalarBaseMult(big.NewInt(0))
	for i, wi := range coeffs {
		if wi.Sign() == 0 {
			continue
		}
		x, convErr := strconv.Atoi(ct.MSP.RowToAttrib[i])
		if convErr != nil {
			return nil, errors.Errorf("waters11: policy row %d names %q, want a slot index", i, ct.MSP.RowToAttrib[i])
		}
		kx2 := sk.Kx2[x]
		if kx2 == nil {
			return nil, errors.Errorf("waters11: key holds no component for slot %d", x)
		}
		term := bn256.Pair(ct.Ci[i], sk.L2)
		term.Add(term, bn256.Pair(ct.Di[i], kx2))
		prod.Add(prod, new(bn256.GT).ScalarMult(term, wi))
	}

	blind := new(bn256.GT).Add(num, new(bn256.GT).Neg(prod)) // e(g1,g2)^{alpha s}
	return new(bn256.GT).Add(ct.C, new(bn256.GT).Neg(blind)), nil
}

// RandomMessage samples a fresh GT element to encapsulate; the content key
// handed to the AES-GCM layer is derived from it via codec.DeriveContentKey.
func (w *Waters11) RandomMessage(pk *PubKey) (*bn256.GT, error) {
	sampler := sample.NewUniformRange(big.NewInt(1), w.P)
	k, err := sampler.Sample()
	if err != nil {
		return nil, errors.Wrap(err, "waters11: sampling message exponent")
	}
	return new(bn256.GT).ScalarMult(pk.EggAlpha, k), nil
}

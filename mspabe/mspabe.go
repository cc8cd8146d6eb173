// Package mspabe implements the large-universe boolean-policy CP-ABE scheme.
// Attributes are opaque strings, including parametrized forms such as
// "family_members:P123"; access structures are monotone span programs built
// from the boolean policy grammar, so ciphertexts carry the rendered policy
// they were encrypted under.
package mspabe

import (
	"crypto/sha256"
	"math/big"

	"github.com/fentec-project/bn256"
	"github.com/fentec-project/gofe/abe"
	"github.com/fentec-project/gofe/sample"
	"github.com/pkg/errors"

	"github.com/medishare/cpabe-core/lsss"
)

type MSPABE struct {
	P *big.Int
}

func NewMSPABE() *MSPABE {
	return &MSPABE{
		P: bn256.Order,
	}
}

type PubKey struct {
	G1       *bn256.G1
	G2       *bn256.G2
	Ga1      *bn256.G1 // g1^a
	Ga2      *bn256.G2 // g2^a, only for pairing
	EggAlpha *bn256.GT // e(g1,g2)^alpha
}

type MasterKey struct {
	Alpha *big.Int
}

// hashToScalar maps an attribute name into Z_p.
func hashToScalar(attr string, p *big.Int) *big.Int {
	h := sha256.Sum256([]byte(attr))
	z := new(big.Int).SetBytes(h[:])
	return z.Mod(z, p)
}

// slot elements are derived from the attribute name, so keygen and encrypt
// agree on them without a bounded universe.
func (m *MSPABE) slotG1(attr string) *bn256.G1 {
	return new(bn256.G1).ScalarBaseMult(hashToScalar(attr, m.P))
}

func (m *MSPABE) slotG2(attr string) *bn256.G2 {
	return new(bn256.G2).ScalarBaseMult(hashToScalar(attr, m.P))
}

func (m *MSPABE) Setup() (*PubKey, *MasterKey, error) {
	sampler := sample.NewUniformRange(big.NewInt(1), m.P)

	alpha, err := sampler.Sample()
	if err != nil {
		return nil, nil, errors.Wrap(err, "mspabe: sampling alpha")
	}
	a, err := sampler.Sample()
	if err != nil {
		return nil, nil, errors.Wrap(err, "mspabe: sampling a")
	}

	g1 := new(bn256.G1).ScalarBaseMult(big.NewInt(1))
	g2 := new(bn256.G2).ScalarBaseMult(big.NewInt(1))
	egg := bn256.Pair(g1, g2)

	return &PubKey{
			G1:       g1,
			G2:       g2,
			Ga1:      new(bn256.G1).ScalarMult(g1, a),
			Ga2:      new(bn256.G2).ScalarMult(g2, a),
			EggAlpha: new(bn256.GT).ScalarMult(egg, alpha),
		}, &MasterKey{
			Alpha: alpha,
		}, nil
}

type SecretKey struct {
	Attrs []string
	K2    *bn256.G2 // g2^alpha * (g2^a)^t
	L2    *bn256.G2 // g2^t
	Kx2   map[string]*bn256.G2 // slot^t per held attribute
}

// KeyGen derives a secret key bound to exactly the supplied attribute set.
// Effective names ("base:instance") must be resolved before the call.
func (m *MSPABE) KeyGen(pk *PubKey, msk *MasterKey, attrs []string) (*SecretKey, error) {
	if len(attrs) == 0 {
		return nil, errors.New("mspabe: empty attribute list, refusing to issue a key that satisfies nothing")
	}
	for _, attr := range attrs {
		if attr == "" {
			return nil, errors.New("mspabe: blank attribute name")
		}
	}

	sampler := sample.NewUniformRange(big.NewInt(1), m.P)
	t, err := sampler.Sample()
	if err != nil {
		return nil, errors.Wrap(err, "mspabe: sampling t")
	}

	k2 := new(bn256.G2).ScalarMult(pk.G2, msk.Alpha)
	k2.Add(k2, new(bn256.G2).ScalarMult(pk.Ga2, t))

	kx2 := make(map[string]*bn256.G2, len(attrs))
	for _, attr := range attrs {
		kx2[attr] = new(bn256.G2).ScalarMult(m.slotG2(attr), t)
	}

	return &SecretKey{
		Attrs: append([]string(nil), attrs...),
		K2:    k2,
		L2:    new(bn256.G2).ScalarMult(pk.G2, t),
		Kx2:   kx2,
	}, nil
}

type Ciphertext struct {
	Policy string // rendered policy the message was encrypted under
	C      *bn256.GT
	Cp     *bn256.G1         // g1^s
	Ci     map[int]*bn256.G1 // per row: (g1^a)^{lambda_i} * slot_{rho(i)}^{-r_i}
	Di     map[int]*bn256.G1 // per row: g1^{r_i}
	MSP    *abe.MSP
}

// Encrypt blinds m under the rendered boolean policy. Malformed policies are
// rejected before any cryptographic work.
func (m *MSPABE) Encrypt(pk *PubKey, msg *bn256.GT, policy string) (*Ciphertext, error) {
	msp, err := abe.BooleanToMSP(policy, false)
	if err != nil {
		return nil, errors.Wrapf(err, "mspabe: malformed policy %q", policy)
	}

	sampler := sample.NewUniformRange(big.NewInt(1), m.P)
	s, err := sampler.Sample()
	if err != nil {
		return nil, errors.Wrap(err, "mspabe: sampling s")
	}
	shares, err := lsss.Share(msp, s, m.P)
	if err != nil {
		return nil, err
	}

	ci := make(map[int]*bn256.G1, len(shares))
	di := make(map[int]*bn256.G1, len(shares))
	for i, li := range shares {
		attr := msp.RowToAttrib[i]
		ri, err := sampler.Sample()
		if err != nil {
			return nil, errors.Wrapf(err, "mspabe: sampling r for row %d", i)
		}
		riNeg := new(big.Int).Sub(m.P, ri)
		riNeg.Mod(riNeg, m.P)

		c := new(bn256.G1).ScalarMult(pk.Ga1, li)
		c.Add(c, new(bn256.G1).ScalarMult(m.slotG1(attr), riNeg))
		ci[i] = c
		di[i] = new(bn256.G1).ScalarMult(pk.G1, ri)
	}

	return &Ciphertext{
		Policy: policy,
		C:      new(bn256.GT).Add(msg, new(bn256.GT).ScalarMult(pk.EggAlpha, s)),
		Cp:     new(bn256.G1).ScalarMult(pk.G1, s),
		Ci:     ci,
		Di:     di,
		MSP:    msp,
	}, nil
}

// Decrypt recovers the message when the key's attribute set satisfies the
// embedded policy.
func (m *MSPABE) Decrypt(pk *PubKey, ct *Ciphertext, sk *SecretKey) (*bn256.GT, error) {
	coeffs, err := lsss.ReconstructCoefficients(ct.MSP, sk.Attrs, m.P)
	if err != nil {
		return nil, errors.Wrapf(err, "mspabe: attribute set does not satisfy policy %q", ct.Policy)
	}

	num := bn256.Pair(ct.Cp, sk.K2)

	prod := new(bn256.GT).ScalarBaseMult(big.NewInt(0))
	for i, wi := range coeffs {
		if wi.Sign() == 0 {
			continue
		}
		attr := ct.MSP.RowToAttrib[i]
		kx2 := sk.Kx2[attr]
		if kx2 == nil {
			return nil, errors.Errorf("mspabe: key holds no component for attribute %q", attr)
		}
		term := bn256.Pair(ct.Ci[i], sk.L2)
		term.Add(term, bn256.Pair(ct.Di[i], kx2))
		prod.Add(prod, new(bn256.GT).ScalarMult(term, wi))
	}

	blind := new(bn256.GT).Add(num, new(bn256.GT).Neg(prod))
	return new(bn256.GT).Add(ct.C, new(bn256.GT).Neg(blind)), nil
}

// RandomMessage samples a fresh GT element to encapsulate.
func (m *MSPABE) RandomMessage(pk *PubKey) (*bn256.GT, error) {
	sampler := sample.NewUniformRange(big.NewInt(1), m.P)
	k, err := sampler.Sample()
	if err != nil {
		return nil, errors.Wrap(err, "mspabe: sampling message exponent")
	}
	return new(bn256.GT).ScalarMult(pk.EggAlpha, k), nil
}

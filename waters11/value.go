package waters11

import (
	"strconv"

	"github.com/fentec-project/bn256"
	"github.com/pkg/errors"

	"github.com/medishare/cpabe-core/codec"
)

// Codec trees for the persisted/transported forms of the key material.
// Slot sequences are ordered, index i holding slot i+1.

func (pk *PubKey) Value() codec.Value {
	u1 := make([]codec.Value, len(pk.U1))
	u2 := make([]codec.Value, len(pk.U2))
	for i := 1; i <= len(pk.U1); i++ {
		u1[i-1] = pk.U1[i]
		u2[i-1] = pk.U2[i]
	}
	return map[string]codec.Value{
		"g1":        pk.G1,
		"g2":        pk.G2,
		"ga1":       pk.Ga1,
		"ga2":       pk.Ga2,
		"egg_alpha": pk.EggAlpha,
		"u1":        u1,
		"u2":        u2,
	}
}

func PubKeyFromValue(v codec.Value) (*PubKey, error) {
	m, err := codec.AsMap(v)
	if err != nil {
		return nil, errors.Wrap(err, "waters11: decoding public parameters")
	}
	pk := &PubKey{}
	if pk.G1, err = codec.AsG1(m["g1"]); err != nil {
		return nil, err
	}
	if pk.G2, err = codec.AsG2(m["g2"]); err != nil {
		return nil, err
	}
	if pk.Ga1, err = codec.AsG1(m["ga1"]); err != nil {
		return nil, err
	}
	if pk.Ga2, err = codec.AsG2(m["ga2"]); err != nil {
		return nil, err
	}
	if pk.EggAlpha, err = codec.AsGT(m["egg_alpha"]); err != nil {
		return nil, err
	}
	u1Seq, err := codec.AsSeq(m["u1"])
	if err != nil {
		return nil, err
	}
	u2Seq, err := codec.AsSeq(m["u2"])
	if err != nil {
		return nil, err
	}
	if len(u1Seq) != len(u2Seq) {
		return nil, errors.Errorf("waters11: slot sequences disagree, %d vs %d", len(u1Seq), len(u2Seq))
	}
	pk.U1 = make(map[int]*bn256.G1, len(u1Seq))
	pk.U2 = make(map[int]*bn256.G2, len(u2Seq))
	for i := range u1Seq {
		if pk.U1[i+1], err = codec.AsG1(u1Seq[i]); err != nil {
			return nil, errors.Wrapf(err, "waters11: slot %d", i+1)
		}
		if pk.U2[i+1], err = codec.AsG2(u2Seq[i]); err != nil {
			return nil, errors.Wrapf(err, "waters11: slot %d", i+1)
		}
	}
	return pk, nil
}

func (msk *MasterKey) Value() codec.Value {
	return map[string]codec.Value{
		"alpha": msk.Alpha,
	}
}

func MasterKeyFromValue(v codec.Value) (*MasterKey, error) {
	m, err := codec.AsMap(v)
	if err != nil {
		return nil, errors.Wrap(err, "waters11: decoding master secret")
	}
	alpha, err := codec.AsScalar(m["alpha"])
	if err != nil {
		return nil, err
	}
	return &MasterKey{Alpha: alpha}, nil
}

func (sk *SecretKey) Value() codec.Value {
	attrs := make([]codec.Value, len(sk.Attrs))
	kx2 := make(map[string]codec.Value, len(sk.Kx2))
	for i, x := range sk.Attrs {
		attrs[i] = strconv.Itoa(x)
	}
	for x, el := range sk.Kx2 {
		kx2[strconv.Itoa(x)] = el
	}
	return map[string]codec.Value{
		"attrs": attrs,
		"k2":    sk.K2,
		"l2":    sk.L2,
		"kx2":   kx2,
	}
}

func SecretKeyFromValue(v codec.Value) (*SecretKey, error) {
	m, err := codec.AsMap(v)
	if err != nil {
		return nil, errors.Wrap(err, "waters11: decoding secret key")
	}
	sk := &SecretKey{}
	if sk.K2, err = codec.AsG2(m["k2"]); err != nil {
		return nil, err
	}
	if sk.L2, err = codec.AsG2(m["l2"]); err != nil {
		return nil, err
	}
	attrSeq, err := codec.AsSeq(m["attrs"])
	if err != nil {
		return nil, err
	}
	sk.Attrs = make([]int, len(attrSeq))
	for i, av := range attrSeq {
		s, err := codec.AsString(av)
		if err != nil {
			return nil, err
		}
		if sk.Attrs[i], err = strconv.Atoi(s); err != nil {
			return nil, errors.Errorf("waters11: bad slot index %q in key", s)
		}
	}
	kxMap, err := codec.AsMap(m["kx2"])
	if err != nil {
		return nil, err
	}
	sk.Kx2 = make(map[int]*bn256.G2, len(kxMap))
	for key, ev := range kxMap {
		x, convErr := strconv.Atoi(key)
		if convErr != nil {
			return nil, errors.Errorf("waters11: bad slot index %q in key", key)
		}
		if sk.Kx2[x], err = codec.AsG2(ev); err != nil {
			return nil, errors.Wrapf(err, "waters11: slot %d", x)
		}
	}
	return sk, nil
}

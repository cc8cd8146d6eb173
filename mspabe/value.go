package mspabe

import (
	"github.com/fentec-project/bn256"
	"github.com/pkg/errors"

	"github.com/medishare/cpabe-core/codec"
)

func (pk *PubKey) Value() codec.Value {
	return map[string]codec.Value{
		"g1":        pk.G1,
		"g2":        pk.G2,
		"ga1":       pk.Ga1,
		"ga2":       pk.Ga2,
		"egg_alpha": pk.EggAlpha,
	}
}

func PubKeyFromValue(v codec.Value) (*PubKey, error) {
	m, err := codec.AsMap(v)
	if err != nil {
		return nil, errors.Wrap(err, "mspabe: decoding public parameters")
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
		return nil, errors.Wrap(err, "mspabe: decoding master secret")
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
	for i, attr := range sk.Attrs {
		attrs[i] = attr
	}
	for attr, el := range sk.Kx2 {
		kx2[attr] = el
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
		return nil, errors.Wrap(err, "mspabe: decoding secret key")
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
	sk.Attrs = make([]string, len(attrSeq))
	for i, av := range attrSeq {
		if sk.Attrs[i], err = codec.AsString(av); err != nil {
			return nil, err
		}
	}
	kxMap, err := codec.AsMap(m["kx2"])
	if err != nil {
		return nil, err
	}
	sk.Kx2 = make(map[string]*bn256.G2, len(kxMap))
	for attr, ev := range kxMap {
		if sk.Kx2[attr], err = codec.AsG2(ev); err != nil {
			return nil, errors.Wrapf(err, "mspabe: attribute %q", attr)
		}
	}
	return sk, nil
}

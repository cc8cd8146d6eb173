package codec

import (
	"math/big"

	"github.com/fentec-project/bn256"
	"github.com/pkg/errors"
)

// Typed accessors for decoded trees. A leaf that degraded to an error
// marker during decoding surfaces here, where the structure is load-bearing.

func AsMap(v Value) (map[string]Value, error) {
	m, ok := v.(map[string]Value)
	if !ok {
		return nil, errors.Errorf("codec: want mapping, got %T", v)
	}
	return m, nil
}

func AsSeq(v Value) ([]Value, error) {
	s, ok := v.([]Value)
	if !ok {
		return nil, errors.Errorf("codec: want sequence, got %T", v)
	}
	return s, nil
}

func AsG1(v Value) (*bn256.G1, error) {
	el, ok := v.(*bn256.G1)
	if !ok {
		return nil, markerErr(v, "G1 element")
	}
	return el, nil
}

func AsG2(v Value) (*bn256.G2, error) {
	el, ok := v.(*bn256.G2)
	if !ok {
		return nil, markerErr(v, "G2 element")
	}
	return el, nil
}

func AsGT(v Value) (*bn256.GT, error) {
	el, ok := v.(*bn256.GT)
	if !ok {
		return nil, markerErr(v, "GT element")
	}
	return el, nil
}

func AsScalar(v Value) (*big.Int, error) {
	z, ok := v.(*big.Int)
	if !ok {
		return nil, markerErr(v, "scalar")
	}
	return z, nil
}

func AsString(v Value) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", errors.Errorf("codec: want string, got %T", v)
	}
	return s, nil
}

func markerErr(v Value, want string) error {
	if b, ok := v.(*Blob); ok && b.Kind == KindError {
		return errors.Errorf("codec: want %s, leaf degraded: %s", want, b.Data)
	}
	return errors.Errorf("codec: want %s, got %T", want, v)
}

// Package codec serializes nested mapping/sequence structures whose leaves
// are pairing-group elements, producing a form suitable for storage and for
// a base64/JSON transport envelope. The transform is total: leaves that
// cannot be converted degrade to a textual error marker instead of failing,
// so a partially describable structure stays transportable for diagnostics.
package codec

import (
	"crypto/sha256"
	"fmt"
	"math/big"

	"github.com/fentec-project/bn256"
)

// Value is a nested structure of map[string]Value, []Value, group elements
// (*bn256.G1/G2/GT), scalars (*big.Int) and plain primitives.
type Value interface{}

// Leaf kinds carried by a Blob.
const (
	KindG1     = "g1"
	KindG2     = "g2"
	KindGT     = "gt"
	KindScalar = "zr"
	KindError  = "error"
)

// Blob is a serialized leaf: a marshalled group element, a scalar in
// big-endian bytes, or an error marker describing an unconvertible leaf.
type Blob struct {
	Kind string `json:"kind"`
	Data []byte `json:"data"`
}

func errorBlob(format string, args ...interface{}) *Blob {
	return &Blob{Kind: KindError, Data: []byte(fmt.Sprintf(format, args...))}
}

// IsErrorMarker reports whether v is a degradation marker produced by
// Serialize or Deserialize. Callers for whom the fully structured form is
// load-bearing must check their trees with ErrorMarkers.
func IsErrorMarker(v Value) bool {
	b, ok := v.(*Blob)
	return ok && b.Kind == KindError
}

// ErrorMarkers walks a tree and collects every degradation marker in it.
func ErrorMarkers(v Value) []string {
	var out []string
	walkMarkers(v, &out)
	return out
}

func walkMarkers(v Value, out *[]string) {
	switch t := v.(type) {
	case map[string]Value:
		for _, e := range t {
			walkMarkers(e, out)
		}
	case []Value:
		for _, e := range t {
			walkMarkers(e, out)
		}
	case *Blob:
		if t.Kind == KindError {
			*out = append(*out, string(t.Data))
		}
	}
}

// Serialize recursively converts group-element leaves into Blobs. Mapping
// keys and sequence order are preserved verbatim; primitives pass through
// unchanged; anything else becomes an error marker. Pure, never fails.
func Serialize(v Value) Value {
	switch t := v.(type) {
	case map[string]Value:
		out := make(map[string]Value, len(t))
		for k, e := range t {
			out[k] = Serialize(e)
		}
		return out
	case []Value:
		out := make([]Value, len(t))
		for i, e := range t {
			out[i] = Serialize(e)
		}
		return out
	case *bn256.G1:
		return &Blob{Kind: KindG1, Data: t.Marshal()}
	case *bn256.G2:
		return &Blob{Kind: KindG2, Data: t.Marshal()}
	case *bn256.GT:
		return &Blob{Kind: KindGT, Data: t.Marshal()}
	case *big.Int:
		return &Blob{Kind: KindScalar, Data: t.Bytes()}
	case *Blob:
		return t
	case nil, string, bool, int, int64, float64:
		return t
	default:
		return errorBlob("codec: unserializable leaf of type %T", v)
	}
}

// Deserialize is the inverse of Serialize. Blobs whose payload fails to
// unmarshal into their group degrade back to an error marker; primitives
// pass through unchanged.
func Deserialize(v Value) Value {
	switch t := v.(type) {
	case map[string]Value:
		out := make(map[string]Value, len(t))
		for k, e := range t {
			out[k] = Deserialize(e)
		}
		return out
	case []Value:
		out := make([]Value, len(t))
		for i, e := range t {
			out[i] = Deserialize(e)
		}
		return out
	case *Blob:
		return deserializeBlob(t)
	default:
		return t
	}
}

func deserializeBlob(b *Blob) Value {
	switch b.Kind {
	case KindG1:
		el := new(bn256.G1)
		if _, err := el.Unmarshal(b.Data); err != nil {
			return errorBlob("codec: bad G1 payload: %v", err)
		}
		return el
	case KindG2:
		el := new(bn256.G2)
		if _, err := el.Unmarshal(b.Data); err != nil {
			return errorBlob("codec: bad G2 payload: %v", err)
		}
		return el
	case KindGT:
		el := new(bn256.GT)
		if _, err := el.Unmarshal(b.Data); err != nil {
			return errorBlob("codec: bad GT payload: %v", err)
		}
		return el
	case KindScalar:
		return new(big.Int).SetBytes(b.Data)
	case KindError:
		return b
	default:
		return errorBlob("codec: unknown leaf kind %q", b.Kind)
	}
}

// DeriveContentKey hashes a GT encapsulation down to the 32-byte content
// key handed to the client-side AES-GCM layer.
func DeriveContentKey(m *bn256.GT) []byte {
	sum := sha256.Sum256(m.Marshal())
	return sum[:]
}

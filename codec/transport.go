package codec

import (
	"encoding/base64"
	"encoding/json"

	"github.com/pkg/errors"
)

// EncodeTransport serializes a tree and wraps it in a JSON envelope with
// base64-encoded binary leaves, the form keys and secret keys travel in.
func EncodeTransport(v Value) ([]byte, error) {
	data, err := json.Marshal(toJSON(Serialize(v)))
	if err != nil {
		return nil, errors.Wrap(err, "codec: encoding transport envelope")
	}
	return data, nil
}

// DecodeTransport reverses EncodeTransport: base64 decode, then
// group-deserialize. The result must be checked with ErrorMarkers before
// use when the structured form is load-bearing.
func DecodeTransport(data []byte) (Value, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "codec: decoding transport envelope")
	}
	return Deserialize(fromJSON(raw)), nil
}

func toJSON(v Value) interface{} {
	switch t := v.(type) {
	case map[string]Value:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = toJSON(e)
		}
		return out
	case []Value:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = toJSON(e)
		}
		return out
	case *Blob:
		return map[string]interface{}{
			"kind": t.Kind,
			"data": base64.StdEncoding.EncodeToString(t.Data),
		}
	default:
		return t
	}
}

func fromJSON(v interface{}) Value {
	switch t := v.(type) {
	case map[string]interface{}:
		if b, ok := blobFromJSON(t); ok {
			return b
		}
		out := make(map[string]Value, len(t))
		for k, e := range t {
			out[k] = fromJSON(e)
		}
		return out
	case []interface{}:
		out := make([]Value, len(t))
		for i, e := range t {
			out[i] = fromJSON(e)
		}
		return out
	default:
		return t
	}
}

func blobFromJSON(m map[string]interface{}) (*Blob, bool) {
	if len(m) != 2 {
		return nil, false
	}
	kind, ok := m["kind"].(string)
	if !ok || !knownKind(kind) {
		return nil, false
	}
	enc, ok := m["data"].(string)
	if !ok {
		return nil, false
	}
	data, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return nil, false
	}
	return &Blob{Kind: kind, Data: data}, true
}

// knownKind keeps ordinary user maps that happen to carry "kind"/"data" keys
// from being mistaken for serialized leaves.
func knownKind(kind string) bool {
	switch kind {
	case KindG1, KindG2, KindGT, KindScalar, KindError:
		return true
	}
	return false
}

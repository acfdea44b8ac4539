package problem

import (
	"encoding/json"
	"math"
	"net/url"
)

// fromMembers reconstructs a document from the full member map of a decoded
// object. Standard members are consumed by name with kind checks; the residue
// is handed to the extension payload's own decoder.
func fromMembers[Ext any](members map[string]any) (Details[Ext], error) {
	var d Details[Ext]

	if value, ok := take(members, "type"); ok {
		raw, ok := value.(string)
		if !ok {
			return Details[Ext]{}, &SchemaError{Field: "type", Kind: "string"}
		}
		t, err := ParseType(raw)
		if err != nil {
			return Details[Ext]{}, &SchemaError{Field: "type", Kind: "URI reference", err: err}
		}
		d.Type = t
	}
	if value, ok := take(members, "status"); ok {
		code, ok := intFromAny(value)
		if !ok {
			return Details[Ext]{}, &SchemaError{Field: "status", Kind: "integer"}
		}
		d.Status = code
	}
	if value, ok := take(members, "title"); ok {
		raw, ok := value.(string)
		if !ok {
			return Details[Ext]{}, &SchemaError{Field: "title", Kind: "string"}
		}
		d.Title = raw
	}
	if value, ok := take(members, "detail"); ok {
		raw, ok := value.(string)
		if !ok {
			return Details[Ext]{}, &SchemaError{Field: "detail", Kind: "string"}
		}
		d.Detail = raw
	}
	if value, ok := take(members, "instance"); ok {
		raw, ok := value.(string)
		if !ok {
			return Details[Ext]{}, &SchemaError{Field: "instance", Kind: "string"}
		}
		uri, err := url.Parse(raw)
		if err != nil {
			return Details[Ext]{}, &SchemaError{Field: "instance", Kind: "URI reference", err: err}
		}
		d.Instance = uri
	}

	if err := decodeExtensions(members, &d.Extensions); err != nil {
		return Details[Ext]{}, &ExtensionDecodeError{err: err}
	}
	return d, nil
}

// take removes a member from the map. Explicit null members count as absent,
// matching the omit-on-encode behaviour.
func take(members map[string]any, name string) (any, bool) {
	value, ok := members[name]
	if !ok {
		return nil, false
	}
	delete(members, name)
	if value == nil {
		return nil, false
	}
	return value, true
}

// decodeExtensions round-trips the residual members through JSON so the
// payload type's own decoding rules apply: a map collects everything, a
// struct matches its declared fields and ignores the rest.
func decodeExtensions(residue map[string]any, extensions any) error {
	raw, err := json.Marshal(residue)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, extensions)
}

// intFromAny accepts the integer shapes JSON and XML decoding produce.
// Fractional or out-of-range numbers are rejected.
func intFromAny(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		if v > math.MaxInt32 || v < math.MinInt32 {
			return 0, false
		}
		return int(v), true
	case float64:
		if v != math.Trunc(v) || v > math.MaxInt32 || v < math.MinInt32 {
			return 0, false
		}
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return intFromAny(n)
	default:
		return 0, false
	}
}

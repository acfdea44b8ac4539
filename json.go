package problem

import (
	"encoding/json"

	"github.com/perimeterx/marshmallow"
)

// ContentTypeJSON is the registered media type for JSON problem documents.
const ContentTypeJSON = "application/problem+json"

// MarshalJSON flattens the document into a single JSON object: the present
// standard members in order, then the extension members at the same level.
// Absent members are omitted, never emitted as null.
func (d Details[Ext]) MarshalJSON() ([]byte, error) {
	fields, err := d.Fields()
	if err != nil {
		return nil, err
	}
	return appendJSONObject(make([]byte, 0, 128), fields), nil
}

// UnmarshalJSON splits a flat problem object back into standard members and
// the typed extension payload.
func (d *Details[Ext]) UnmarshalJSON(data []byte) error {
	decoded, err := DecodeJSON[Ext](data)
	if err != nil {
		return err
	}
	*d = decoded
	return nil
}

// DecodeJSON decodes a JSON problem document. The five standard members are
// extracted by name with strict kind checks; whatever remains is decoded into
// Ext under that type's own rules. Malformed input yields a *DecodeError,
// a mistyped standard member a *SchemaError, and a failing extension decode
// an *ExtensionDecodeError.
func DecodeJSON[Ext any](data []byte) (Details[Ext], error) {
	members, err := marshmallow.Unmarshal(data, &struct{}{})
	if err != nil {
		return Details[Ext]{}, &DecodeError{Format: JSON, err: err}
	}
	return fromMembers[Ext](members)
}

func appendJSONObject(dst []byte, fields []Field) []byte {
	dst = append(dst, '{')
	for i, f := range fields {
		if i > 0 {
			dst = append(dst, ',')
		}
		name, _ := json.Marshal(f.Name)
		dst = append(dst, name...)
		dst = append(dst, ':')
		dst = append(dst, f.Value...)
	}
	return append(dst, '}')
}

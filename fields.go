package problem

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Field is one member of the flattened wire representation of a problem
// document. Codecs for every format consume the same ordered field list, so
// flattening is never reimplemented per format.
type Field struct {
	Name  string
	Value json.RawMessage
}

// Problem is the non-generic view of a problem document consumed by the
// response renderer and the middleware package. Every Details value
// implements it.
type Problem interface {
	// Fields returns the flattened, ordered members of the document.
	Fields() ([]Field, error)
	// StatusCode returns the status member, or zero when unset.
	StatusCode() int
}

// reservedNames are the member names claimed by RFC 9457. Extension members
// carrying one of these names are dropped: the standard members always win.
var reservedNames = map[string]bool{
	"type":     true,
	"status":   true,
	"title":    true,
	"detail":   true,
	"instance": true,
}

// Fields flattens the document into its ordered wire members: the present
// standard members first (type, status, title, detail, instance), then the
// extension members in their own marshalled order. An unset type is omitted
// entirely; consumers assume "about:blank".
func (d Details[Ext]) Fields() ([]Field, error) {
	fields := make([]Field, 0, 8)

	if !d.Type.IsZero() {
		raw, err := json.Marshal(d.Type.String())
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Name: "type", Value: raw})
	}
	if d.Status != 0 {
		fields = append(fields, Field{Name: "status", Value: json.RawMessage(strconv.Itoa(d.Status))})
	}
	if d.Title != "" {
		raw, err := json.Marshal(d.Title)
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Name: "title", Value: raw})
	}
	if d.Detail != "" {
		raw, err := json.Marshal(d.Detail)
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Name: "detail", Value: raw})
	}
	if d.Instance != nil {
		raw, err := json.Marshal(d.Instance.String())
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Name: "instance", Value: raw})
	}

	extensions, err := extensionFields(d.Extensions)
	if err != nil {
		return nil, err
	}
	for _, f := range extensions {
		if reservedNames[f.Name] {
			continue
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// extensionFields marshals the extension payload and explodes the resulting
// object into ordered members. A payload marshalling to null or to an empty
// object contributes nothing.
func extensionFields(extensions any) ([]Field, error) {
	raw, err := json.Marshal(extensions)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] != '{' {
		return nil, fmt.Errorf("problem: extensions of type %T must marshal to a JSON object", extensions)
	}
	return parseObjectFields(trimmed)
}

// parseObjectFields walks a JSON object and returns its members in document
// order, each value kept as raw JSON.
func parseObjectFields(raw []byte) ([]Field, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	var fields []Field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("problem: unexpected object key %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		fields = append(fields, Field{Name: name, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return fields, nil
}

// parseArrayItems walks a JSON array and returns its items as raw JSON.
func parseArrayItems(raw []byte) ([]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}

	var items []json.RawMessage
	for dec.More() {
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		items = append(items, value)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return items, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != want {
		return fmt.Errorf("problem: expected %q, got %v", want, tok)
	}
	return nil
}

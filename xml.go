package problem

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"strconv"
	"strings"
)

// ContentTypeXML is the registered media type for XML problem documents.
const ContentTypeXML = "application/problem+xml"

// xmlNamespace is the problem element namespace from RFC 7807 appendix A.
const xmlNamespace = "urn:ietf:rfc:7807"

// MarshalXML encodes the document per RFC 7807 appendix A: one child element
// per flattened member under a namespaced problem element, with JSON objects
// becoming nested elements, arrays repeated <i> elements, and scalars text.
// The ordered field list is built first; flattening is never expressed
// through XML nesting itself.
func (d Details[Ext]) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	fields, err := d.Fields()
	if err != nil {
		return err
	}
	return writeProblemElement(e, fields)
}

// UnmarshalXML decodes an appendix A problem element.
func (d *Details[Ext]) UnmarshalXML(dec *xml.Decoder, start xml.StartElement) error {
	var node xmlNode
	if err := dec.DecodeElement(&node, &start); err != nil {
		return &DecodeError{Format: XML, err: err}
	}
	decoded, err := detailsFromXML[Ext](node)
	if err != nil {
		return err
	}
	*d = decoded
	return nil
}

// DecodeXML decodes an XML problem document. Standard members receive the
// same kind checks as in JSON. Scalars beyond the standard five are re-typed
// by shape (integer, float, boolean, else string); stricter typing of
// extension members is up to Ext's own decoding, as everything is text on
// the XML wire.
func DecodeXML[Ext any](data []byte) (Details[Ext], error) {
	var node xmlNode
	if err := xml.Unmarshal(data, &node); err != nil {
		return Details[Ext]{}, &DecodeError{Format: XML, err: err}
	}
	return detailsFromXML[Ext](node)
}

func writeProblemElement(e *xml.Encoder, fields []Field) error {
	start := xml.StartElement{
		Name: xml.Name{Local: "problem"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "xmlns"}, Value: xmlNamespace}},
	}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, f := range fields {
		if err := writeXMLValue(e, f.Name, f.Value); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

func writeXMLValue(e *xml.Encoder, name string, raw json.RawMessage) error {
	start := xml.StartElement{Name: xml.Name{Local: name}}
	if err := e.EncodeToken(start); err != nil {
		return err
	}

	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		// empty element
	case trimmed[0] == '{':
		members, err := parseObjectFields(trimmed)
		if err != nil {
			return err
		}
		for _, m := range members {
			if err := writeXMLValue(e, m.Name, m.Value); err != nil {
				return err
			}
		}
	case trimmed[0] == '[':
		items, err := parseArrayItems(trimmed)
		if err != nil {
			return err
		}
		for _, item := range items {
			if err := writeXMLValue(e, "i", item); err != nil {
				return err
			}
		}
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		if err := e.EncodeToken(xml.CharData(s)); err != nil {
			return err
		}
	default:
		if err := e.EncodeToken(xml.CharData(trimmed)); err != nil {
			return err
		}
	}

	return e.EncodeToken(start.End())
}

func encodeXMLFields(fields []Field) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	if err := writeProblemElement(enc, fields); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type xmlNode struct {
	XMLName  xml.Name
	Text     string    `xml:",chardata"`
	Children []xmlNode `xml:",any"`
}

func detailsFromXML[Ext any](root xmlNode) (Details[Ext], error) {
	members := make(map[string]any, len(root.Children))
	for _, child := range root.Children {
		name := child.XMLName.Local
		switch name {
		case "type", "title", "detail", "instance":
			// Declared string kinds keep their exact text; nested content
			// falls through to the kind check in fromMembers.
			if len(child.Children) == 0 {
				members[name] = child.Text
				continue
			}
		}
		members[name] = xmlValue(child)
	}
	return fromMembers[Ext](members)
}

func xmlValue(node xmlNode) any {
	if len(node.Children) == 0 {
		return scalarFromText(node.Text)
	}

	items := true
	for _, child := range node.Children {
		if child.XMLName.Local != "i" {
			items = false
			break
		}
	}
	if items {
		values := make([]any, 0, len(node.Children))
		for _, child := range node.Children {
			values = append(values, xmlValue(child))
		}
		return values
	}

	object := make(map[string]any, len(node.Children))
	for _, child := range node.Children {
		object[child.XMLName.Local] = xmlValue(child)
	}
	return object
}

// scalarFromText recovers JSON scalar kinds lost by the text-only XML wire.
func scalarFromText(text string) any {
	probe := strings.TrimSpace(text)
	if n, err := strconv.ParseInt(probe, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(probe, 64); err == nil {
		return f
	}
	if probe == "true" || probe == "false" {
		return probe == "true"
	}
	return text
}

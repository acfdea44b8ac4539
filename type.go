package problem

import "net/url"

// BlankType is the URI assumed for problem documents that carry no type
// member, per RFC 9457 section 3.1.1.
const BlankType = "about:blank"

// Type identifies a problem type by URI reference. The zero value is unset
// and renders as "about:blank"; unset types are omitted from encoded output.
type Type struct {
	uri *url.URL
}

// NewType wraps an already parsed URI reference.
func NewType(uri *url.URL) Type {
	return Type{uri: uri}
}

// ParseType parses a URI reference into a problem type.
func ParseType(raw string) (Type, error) {
	uri, err := url.Parse(raw)
	if err != nil {
		return Type{}, err
	}
	return Type{uri: uri}, nil
}

// MustParseType is ParseType for statically known URIs. It panics when the
// reference does not parse.
func MustParseType(raw string) Type {
	t, err := ParseType(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// IsZero reports whether the type is unset.
func (t Type) IsZero() bool {
	return t.uri == nil
}

// URI returns the underlying URI reference, or nil when unset.
func (t Type) URI() *url.URL {
	return t.uri
}

// String renders the URI reference, or "about:blank" when unset.
func (t Type) String() string {
	if t.uri == nil {
		return BlankType
	}
	return t.uri.String()
}

// Package problem implements RFC 9457 (formerly RFC 7807) problem details
// documents with strongly typed extension members.
//
// A Details value carries the five standard members plus an arbitrary
// extension payload. Extension members are flattened into the same top-level
// object as the standard members on encode and split back out on decode, so
//
//	problem.WithExtensions(problem.FromStatus(403), CreditInfo{Balance: 30})
//
// serialises to a single flat object. Details implements error, which lets a
// handler return a problem document through an ordinary error path and have
// the middleware package render it at the response boundary.
package problem

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// NoExtensions is the extension payload of a problem document that carries no
// extension members. It contributes nothing to encoded output.
type NoExtensions struct{}

// Map holds dynamic extension members when no dedicated payload type exists.
type Map map[string]any

// Details is an RFC 9457 problem details document. Zero-valued members are
// treated as unset and never appear in encoded output.
//
// Details values are immutable by convention: the With methods return updated
// copies, so a single value may be encoded concurrently without
// synchronisation.
type Details[Ext any] struct {
	Type       Type
	Status     int
	Title      string
	Detail     string
	Instance   *url.URL
	Extensions Ext
}

// New returns an empty problem document with no extension members.
func New() Details[NoExtensions] {
	return Details[NoExtensions]{}
}

// FromStatus returns a problem document for the given status code with the
// title set to the canonical reason phrase.
func FromStatus(code int) Details[NoExtensions] {
	return Details[NoExtensions]{Status: code, Title: http.StatusText(code)}
}

// WithType returns a copy with the type member set.
func (d Details[Ext]) WithType(t Type) Details[Ext] {
	d.Type = t
	return d
}

// WithStatus returns a copy with the status member set.
func (d Details[Ext]) WithStatus(code int) Details[Ext] {
	d.Status = code
	return d
}

// WithTitle returns a copy with the title member set.
func (d Details[Ext]) WithTitle(title string) Details[Ext] {
	d.Title = title
	return d
}

// WithDetail returns a copy with the detail member set.
func (d Details[Ext]) WithDetail(detail string) Details[Ext] {
	d.Detail = detail
	return d
}

// WithInstance returns a copy with the instance member set.
func (d Details[Ext]) WithInstance(instance *url.URL) Details[Ext] {
	d.Instance = instance
	return d
}

// WithExtensions returns a copy of d carrying the given extension payload.
// The extension type of the returned document is the type of the payload;
// this is a free function because Go methods cannot introduce type
// parameters.
func WithExtensions[Ext, NewExt any](d Details[Ext], extensions NewExt) Details[NewExt] {
	return Details[NewExt]{
		Type:       d.Type,
		Status:     d.Status,
		Title:      d.Title,
		Detail:     d.Detail,
		Instance:   d.Instance,
		Extensions: extensions,
	}
}

// StatusCode returns the status member, or zero when unset.
func (d Details[Ext]) StatusCode() int {
	return d.Status
}

// Error renders the document as "[type status] title: detail". The title
// falls back to the canonical reason phrase when only a status is set.
func (d Details[Ext]) Error() string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(d.Type.String())
	if d.Status != 0 {
		fmt.Fprintf(&b, " %d]", d.Status)
	} else {
		b.WriteByte(']')
	}

	title := d.Title
	if title == "" && d.Status != 0 {
		title = http.StatusText(d.Status)
	}
	if title != "" {
		b.WriteByte(' ')
		b.WriteString(title)
	}
	if d.Detail != "" {
		if title != "" {
			b.WriteByte(':')
		}
		b.WriteByte(' ')
		b.WriteString(d.Detail)
	}
	return b.String()
}

package problem

import (
	"net/url"

	"github.com/google/uuid"
)

// NewInstanceURN returns a unique urn:uuid reference identifying one problem
// occurrence, for servers that track occurrences without a dereferenceable
// instance URI.
func NewInstanceURN() *url.URL {
	return &url.URL{Scheme: "urn", Opaque: "uuid:" + uuid.NewString()}
}

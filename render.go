package problem

import (
	"net/http"

	"github.com/munnerz/goautoneg"
)

// Format selects a wire encoding for problem documents.
type Format int

const (
	// JSON is the application/problem+json encoding, always available.
	JSON Format = iota
	// XML is the optional application/problem+xml encoding.
	XML
)

// ContentType returns the registered problem media type for the format.
func (f Format) ContentType() string {
	if f == XML {
		return ContentTypeXML
	}
	return ContentTypeJSON
}

func (f Format) String() string {
	if f == XML {
		return "xml"
	}
	return "json"
}

// acceptable lists the media types negotiated onto each format.
var acceptable = map[Format][]string{
	JSON: {ContentTypeJSON, "application/json"},
	XML:  {ContentTypeXML, "application/xml", "text/xml"},
}

func (f Format) matches(mediaType string) bool {
	if mediaType == "*/*" || mediaType == "application/*" {
		return true
	}
	for _, alias := range acceptable[f] {
		if alias == mediaType {
			return true
		}
	}
	return false
}

// Encode renders the document body in the given format.
func Encode(f Format, p Problem) ([]byte, error) {
	fields, err := p.Fields()
	if err != nil {
		return nil, err
	}
	if f == XML {
		return encodeXMLFields(fields)
	}
	return appendJSONObject(make([]byte, 0, 128), fields), nil
}

// Logger is the subset of logging behaviour the renderer needs. Satisfied by
// zap's SugaredLogger.
type Logger interface {
	Errorw(msg string, keysAndValues ...any)
}

// Recorder observes rendered problem responses, typically backed by the
// metrics package.
type Recorder interface {
	ObserveProblem(format string, status int)
}

// Renderer writes problem documents as HTTP responses, negotiating the
// encoding from the caller's Accept header.
type Renderer struct {
	formats       []Format
	defaultStatus int
	logger        Logger
	recorder      Recorder
}

// Option configures optional renderer behaviour.
type Option func(*Renderer)

// WithFormats sets the formats available to content negotiation, in
// preference order. JSON only by default.
func WithFormats(formats ...Format) Option {
	return func(rn *Renderer) {
		if len(formats) > 0 {
			rn.formats = formats
		}
	}
}

// WithDefaultStatus overrides the status used for documents without one.
func WithDefaultStatus(code int) Option {
	return func(rn *Renderer) {
		if code > 0 {
			rn.defaultStatus = code
		}
	}
}

// WithLogger attaches a logger for encode failures.
func WithLogger(logger Logger) Option {
	return func(rn *Renderer) {
		rn.logger = logger
	}
}

// WithRecorder attaches a recorder observing every rendered response.
func WithRecorder(recorder Recorder) Option {
	return func(rn *Renderer) {
		rn.recorder = recorder
	}
}

// NewRenderer builds a renderer. Without options it serves JSON only and
// falls back to status 500 for documents that carry no status member.
func NewRenderer(opts ...Option) *Renderer {
	rn := &Renderer{
		formats:       []Format{JSON},
		defaultStatus: http.StatusInternalServerError,
	}
	for _, opt := range opts {
		opt(rn)
	}
	return rn
}

// Negotiate selects the response format for an Accept header: the first
// available format matching the ranked preferences wins. When nothing
// matches, JSON is chosen if available, else the first configured format.
// Negotiation never fails.
func (rn *Renderer) Negotiate(accept string) Format {
	for _, clause := range goautoneg.ParseAccept(accept) {
		mediaType := clause.Type + "/" + clause.SubType
		for _, f := range rn.formats {
			if f.matches(mediaType) {
				return f
			}
		}
	}
	for _, f := range rn.formats {
		if f == JSON {
			return JSON
		}
	}
	return rn.formats[0]
}

// Write renders p as a problem response. A nil request selects the default
// format. The status line comes from the document, or the configured default
// when unset.
func (rn *Renderer) Write(w http.ResponseWriter, r *http.Request, p Problem) {
	accept := ""
	if r != nil {
		accept = r.Header.Get("Accept")
	}
	format := rn.Negotiate(accept)

	status := p.StatusCode()
	if status == 0 {
		status = rn.defaultStatus
	}

	body, err := Encode(format, p)
	if err != nil {
		if rn.logger != nil {
			rn.logger.Errorw("encode problem response", "format", format.String(), "error", err)
		}
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(status)
	_, _ = w.Write(body)

	if rn.recorder != nil {
		rn.recorder.ObserveProblem(format.String(), status)
	}
}

var defaultRenderer = NewRenderer()

// Write renders p with the default JSON-only renderer.
func Write(w http.ResponseWriter, r *http.Request, p Problem) {
	defaultRenderer.Write(w, r, p)
}

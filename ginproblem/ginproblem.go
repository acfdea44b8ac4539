// Package ginproblem renders problem details documents from gin handlers.
package ginproblem

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"github.com/theroutercompany/problem"
)

// JSON is a gin render.Render that writes a problem document with the
// application/problem+json media type.
type JSON struct {
	Problem problem.Problem
}

var _ render.Render = JSON{}

// WriteContentType sets the problem+json media type unless one is already set.
func (r JSON) WriteContentType(w http.ResponseWriter) {
	header := w.Header()
	if val := header["Content-Type"]; len(val) == 0 {
		header["Content-Type"] = []string{problem.ContentTypeJSON}
	}
}

// Render writes the encoded problem document.
func (r JSON) Render(w http.ResponseWriter) error {
	r.WriteContentType(w)
	body, err := problem.Encode(problem.JSON, r.Problem)
	if err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}

// Abort terminates the request with the problem's status code, or 500 when
// the document carries none, and renders the document.
func Abort(c *gin.Context, p problem.Problem) {
	status := http.StatusInternalServerError
	if p != nil && p.StatusCode() != 0 {
		status = p.StatusCode()
	}
	c.Abort()
	c.Render(status, JSON{Problem: p})
}

// AbortStatus terminates the request with a problem built from the status
// code, title, and detail.
func AbortStatus(c *gin.Context, code int, title, detail string) {
	p := problem.FromStatus(code)
	if title != "" {
		p = p.WithTitle(title)
	}
	if detail != "" {
		p = p.WithDetail(detail)
	}
	Abort(c, p)
}

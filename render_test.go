package problem

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNegotiatePrefersRankedFormats(t *testing.T) {
	rn := NewRenderer(WithFormats(JSON, XML))

	cases := []struct {
		accept string
		want   Format
	}{
		{"application/problem+json", JSON},
		{"application/problem+xml", XML},
		{"application/json", JSON},
		{"application/xml", XML},
		{"text/xml", XML},
		{"application/problem+xml;q=1.0, application/problem+json;q=0.5", XML},
		{"application/problem+json;q=0.5, application/problem+xml;q=1.0", XML},
		{"*/*", JSON},
		{"", JSON},
		{"text/html", JSON},
	}

	for _, tc := range cases {
		if got := rn.Negotiate(tc.accept); got != tc.want {
			t.Fatalf("accept %q: expected %s, got %s", tc.accept, tc.want, got)
		}
	}
}

func TestNegotiateFallsBackToOnlyConfiguredFormat(t *testing.T) {
	rn := NewRenderer(WithFormats(XML))

	if got := rn.Negotiate("application/problem+json"); got != XML {
		t.Fatalf("expected XML fallback, got %s", got)
	}
}

func TestWriteSetsStatusAndContentType(t *testing.T) {
	rn := NewRenderer()
	rec := httptest.NewRecorder()

	rn.Write(rec, nil, FromStatus(http.StatusForbidden).WithDetail("no credit"))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != ContentTypeJSON {
		t.Fatalf("expected %s, got %s", ContentTypeJSON, ct)
	}
	if !strings.Contains(rec.Body.String(), `"detail":"no credit"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestWriteDefaultsStatusTo500(t *testing.T) {
	rn := NewRenderer()
	rec := httptest.NewRecorder()

	rn.Write(rec, nil, New().WithTitle("t"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
}

func TestWriteHonorsConfiguredDefaultStatus(t *testing.T) {
	rn := NewRenderer(WithDefaultStatus(http.StatusBadGateway))
	rec := httptest.NewRecorder()

	rn.Write(rec, nil, New())

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", rec.Code)
	}
}

func TestWriteNegotiatesXML(t *testing.T) {
	rn := NewRenderer(WithFormats(JSON, XML))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "application/problem+xml")

	rn.Write(rec, req, New().WithTitle("t"))

	if ct := rec.Header().Get("Content-Type"); ct != ContentTypeXML {
		t.Fatalf("expected %s, got %s", ContentTypeXML, ct)
	}
	if !strings.Contains(rec.Body.String(), "<title>t</title>") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

type recorderStub struct {
	format string
	status int
	calls  int
}

func (r *recorderStub) ObserveProblem(format string, status int) {
	r.format = format
	r.status = status
	r.calls++
}

func TestWriteNotifiesRecorder(t *testing.T) {
	stub := &recorderStub{}
	rn := NewRenderer(WithRecorder(stub))
	rec := httptest.NewRecorder()

	rn.Write(rec, nil, FromStatus(http.StatusNotFound))

	if stub.calls != 1 || stub.format != "json" || stub.status != http.StatusNotFound {
		t.Fatalf("unexpected recorder state: %+v", stub)
	}
}

func TestPackageLevelWrite(t *testing.T) {
	rec := httptest.NewRecorder()

	Write(rec, nil, FromStatus(http.StatusTeapot))

	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected status 418, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != ContentTypeJSON {
		t.Fatalf("expected %s, got %s", ContentTypeJSON, ct)
	}
}

package xds

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/adlnet/edlm-portal-backend/internal/pkg/logger"
	"github.com/adlnet/edlm-portal-backend/internal/platform/extapi"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestCourseTitle(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		want     string
		wantKind extapi.Kind
	}{
		{name: "ok", status: 200, body: `{"p2881-core":{"Title":"Intro to SAPR","Code":"X1"}}`, want: "Intro to SAPR"},
		{name: "not found", status: 404, wantKind: extapi.KindNotFound},
		{name: "missing core", status: 200, body: `{"meta":{}}`, wantKind: extapi.KindMalformedResponse},
		{name: "not json", status: 200, body: `oops`, wantKind: extapi.KindMalformedResponse},
		{name: "unauthorized", status: 401, wantKind: extapi.KindUpstreamUnavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var path string
			c, err := New(logger.Nop(), extapi.Config{BaseURL: "https://xds.example/api/"}, &http.Client{
				Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
					path = req.URL.Path
					return &http.Response{StatusCode: tc.status, Body: io.NopCloser(strings.NewReader(tc.body)), Header: make(http.Header)}, nil
				}),
			})
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			got, err := c.CourseTitle(context.Background(), "abc123")
			if path != "/api/experiences/abc123" {
				t.Fatalf("path: got=%q", path)
			}
			if tc.wantKind != "" {
				if extapi.KindOf(err) != tc.wantKind {
					t.Fatalf("kind: want=%s got=%s (%v)", tc.wantKind, extapi.KindOf(err), err)
				}
				return
			}
			if err != nil || got != tc.want {
				t.Fatalf("CourseTitle: want=%q got=%q err=%v", tc.want, got, err)
			}
		})
	}
}

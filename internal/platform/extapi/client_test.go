package extapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/adlnet/edlm-portal-backend/internal/pkg/logger"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestAPIRoot(t *testing.T) {
	cases := map[string]string{
		"https://elrr.example":      "https://elrr.example/api/",
		"https://elrr.example/":     "https://elrr.example/api/",
		"https://elrr.example/api":  "https://elrr.example/api/",
		"https://elrr.example/api/": "https://elrr.example/api/",
	}
	for in, want := range cases {
		if got := APIRoot(in); got != want {
			t.Fatalf("APIRoot(%q): want=%q got=%q", in, want, got)
		}
	}
}

func TestDoSendsBearerAndBody(t *testing.T) {
	var gotAuth, gotURL, gotBody string
	c, err := New(logger.Nop(), "elrr", Config{BaseURL: "http://elrr", Token: "secret"}, &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			gotAuth = req.Header.Get("Authorization")
			gotURL = req.URL.String()
			b, _ := io.ReadAll(req.Body)
			gotBody = string(b)
			return &http.Response{StatusCode: 201, Body: io.NopCloser(strings.NewReader(`{"id":"x"}`)), Header: make(http.Header)}, nil
		}),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	resp, err := c.Do(context.Background(), "create_goal", http.MethodPost, "goal", nil, map[string]string{"name": "n"})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("status: want=201 got=%d", resp.StatusCode)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("auth: want=%q got=%q", "Bearer secret", gotAuth)
	}
	if gotURL != "http://elrr/api/goal" {
		t.Fatalf("url: want=%q got=%q", "http://elrr/api/goal", gotURL)
	}
	if !strings.Contains(gotBody, `"name":"n"`) {
		t.Fatalf("body: got=%q", gotBody)
	}
}

func TestDoTransportErrorIsUpstreamUnavailable(t *testing.T) {
	c, _ := New(logger.Nop(), "xds", Config{BaseURL: "http://xds"}, &http.Client{
		Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("dial tcp: refused")
		}),
	})
	_, err := c.Do(context.Background(), "get_experience", http.MethodGet, "experiences/1", nil, nil)
	if !IsKind(err, KindUpstreamUnavailable) {
		t.Fatalf("kind: want=%s got=%s (%v)", KindUpstreamUnavailable, KindOf(err), err)
	}
}

func TestDoHonorsTimeout(t *testing.T) {
	c, _ := New(logger.Nop(), "eccr", Config{BaseURL: "http://eccr", Timeout: 20 * time.Millisecond}, &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			<-req.Context().Done()
			return nil, req.Context().Err()
		}),
	})
	_, err := c.Do(context.Background(), "get_item", http.MethodGet, "data/a/b", nil, nil)
	if !IsKind(err, KindUpstreamUnavailable) {
		t.Fatalf("kind: want=%s got=%s", KindUpstreamUnavailable, KindOf(err))
	}
}

func TestKindOfWrapped(t *testing.T) {
	base := NewError(KindRemoteNotFound, "elrr", "get_goal", 404, "", nil)
	wrapped := errors.Join(errors.New("ctx"), base)
	if KindOf(wrapped) != KindRemoteNotFound {
		t.Fatalf("KindOf: want=%s got=%s", KindRemoteNotFound, KindOf(wrapped))
	}
	if KindOf(errors.New("plain")) != "" {
		t.Fatalf("KindOf plain: want empty")
	}
}

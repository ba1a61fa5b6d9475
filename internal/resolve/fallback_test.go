package resolve

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRenderServiceResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/resolve" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("url"); got != "https://site.example.com/movie/1" {
			t.Errorf("url param = %q", got)
		}
		fmt.Fprint(w, `{"sources": [
			{"label": "hls", "url": "https://cdn.example.com/v.m3u8"},
			{"url": "https://cdn.example.com/v2.m3u8"},
			{"label": "broken", "url": ""}
		]}`)
	}))
	defer srv.Close()

	got, err := NewRenderService(srv.URL).Resolve(context.Background(), "https://site.example.com/movie/1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2 (empty URL dropped): %v", len(got), got)
	}
	if got[0].Label != "hls" {
		t.Errorf("label = %q, want hls", got[0].Label)
	}
	if got[1].Label != "dynamic" {
		t.Errorf("unlabelled source = %q, want default dynamic", got[1].Label)
	}
}

func TestRenderServiceErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := NewRenderService(srv.URL).Resolve(context.Background(), "https://x/p"); err == nil {
		t.Error("expected an error on non-2xx status")
	}

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not json")
	}))
	defer bad.Close()

	if _, err := NewRenderService(bad.URL).Resolve(context.Background(), "https://x/p"); err == nil {
		t.Error("expected an error on a malformed response")
	}
}

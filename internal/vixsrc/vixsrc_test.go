package vixsrc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestPageURLs(t *testing.T) {
	c := New("vixsrc.to", "it")

	if got, want := c.MovieURL(603), "https://vixsrc.to/movie/603?lang=it"; got != want {
		t.Errorf("MovieURL = %q, want %q", got, want)
	}
	if got, want := c.EpisodeURL(1399, 2, 5), "https://vixsrc.to/tv/1399/2/5/?lang=it"; got != want {
		t.Errorf("EpisodeURL = %q, want %q", got, want)
	}
}

func TestExtractManifestPlaylistURL(t *testing.T) {
	html := `<script>player.src("https://vixsrc.to/playlist/12345?token=abc&expires=999")</script>`
	got, err := ExtractManifest(html)
	if err != nil {
		t.Fatalf("ExtractManifest: %v", err)
	}
	if want := "https://vixsrc.to/playlist/12345?token=abc&expires=999"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExtractManifestTokenBlock(t *testing.T) {
	html := `<script>
	window.masterPlaylist = {
		params: {
			'token': 'tok123',
			'expires': '1757000000',
		},
		url: 'https://vixsrc.example/master',
	}
	window.canPlayFHD = true
	</script>`

	got, err := ExtractManifest(html)
	if err != nil {
		t.Fatalf("ExtractManifest: %v", err)
	}

	u, err := url.Parse(got)
	if err != nil {
		t.Fatalf("parsing result: %v", err)
	}
	q := u.Query()
	if q.Get("token") != "tok123" || q.Get("expires") != "1757000000" {
		t.Errorf("query = %q, want token and expires carried over", u.RawQuery)
	}
	if q.Get("h") != "1" {
		t.Errorf("query = %q, want h=1 when FHD is available", u.RawQuery)
	}
}

func TestExtractManifestNoFHD(t *testing.T) {
	html := `'token': 'tok', 'expires': '1', url: 'https://vixsrc.example/master', } window.canPlayFHD = false`
	got, err := ExtractManifest(html)
	if err != nil {
		t.Fatalf("ExtractManifest: %v", err)
	}
	if strings.Contains(got, "h=1") {
		t.Errorf("got %q, h=1 must be absent without FHD", got)
	}
}

func TestExtractManifestNotFound(t *testing.T) {
	_, err := ExtractManifest("<html>no player here</html>")
	if !errors.Is(err, ErrManifestNotFound) {
		t.Errorf("err = %v, want ErrManifestNotFound", err)
	}
}

func TestManifestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<script>play("https://vixsrc.to/playlist/7?token=x&expires=1")</script>`)
	}))
	defer srv.Close()

	c := New("vixsrc.to", "it")
	got, err := c.Manifest(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Manifest: %v", err)
	}
	if want := "https://vixsrc.to/playlist/7?token=x&expires=1"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestManifestFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	c := New("vixsrc.to", "it")
	if _, err := c.Manifest(context.Background(), srv.URL); err == nil {
		t.Error("expected an error on non-2xx player page")
	}
}

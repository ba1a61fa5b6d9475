package bot

import (
	"strings"
	"testing"
)

func TestPlayPayloadRoundTrip(t *testing.T) {
	data := playPayload("https://cdn.example.com/hls/master.m3u8", "Dune")
	gotURL, gotTitle, ok := parsePlayPayload(data)
	if !ok {
		t.Fatal("parsePlayPayload rejected its own payload")
	}
	if gotURL != "https://cdn.example.com/hls/master.m3u8" {
		t.Errorf("url = %q", gotURL)
	}
	if gotTitle != "Dune" {
		t.Errorf("title = %q", gotTitle)
	}
}

func TestPlayPayloadDropsTitleOverCap(t *testing.T) {
	u := "https://cdn.example.com/v/long.m3u8"
	data := playPayload(u, strings.Repeat("x", 80))
	if len(data) > 64 {
		t.Fatalf("payload length %d exceeds 64", len(data))
	}
	gotURL, gotTitle, ok := parsePlayPayload(data)
	if !ok || gotURL != u {
		t.Fatalf("url lost when title dropped: %q", gotURL)
	}
	if gotTitle != "" {
		t.Errorf("title should have been dropped, got %q", gotTitle)
	}
}

func TestPlayPayloadTruncatesLongURL(t *testing.T) {
	u := "https://cdn.example.com/" + strings.Repeat("a", 200)
	data := playPayload(u, "t")
	if len(data) > 64 {
		t.Fatalf("payload length %d exceeds 64", len(data))
	}
	if !strings.HasPrefix(data, "play:") {
		t.Fatalf("prefix lost: %q", data)
	}
}

func TestParsePlayPayloadRejectsOtherPrefix(t *testing.T) {
	if _, _, ok := parsePlayPayload("TMDB|3"); ok {
		t.Error("non-play payload accepted")
	}
}

func TestResolvableURLRe(t *testing.T) {
	cases := []struct {
		url  string
		want bool
	}{
		{"https://vixsrc.to/api/sources/123", true},
		{"https://vixsrc.to/token/abc", true},
		{"https://host/stream/5", true},
		{"https://host/ajax/embed", true},
		{"https://cdn.example.com/hls/master.m3u8", false},
		{"https://host/video.mp4", false},
	}
	for _, c := range cases {
		if got := resolvableURLRe.MatchString(c.url); got != c.want {
			t.Errorf("resolvableURLRe(%q) = %v, want %v", c.url, got, c.want)
		}
	}
}

func TestHLSURLRe(t *testing.T) {
	cases := []struct {
		url  string
		want bool
	}{
		{"https://cdn/master.m3u8", true},
		{"https://cdn/master.m3u8?token=x", true},
		{"https://cdn/master.m3u8.bak", false},
		{"https://cdn/video.mp4", false},
	}
	for _, c := range cases {
		if got := hlsURLRe.MatchString(c.url); got != c.want {
			t.Errorf("hlsURLRe(%q) = %v, want %v", c.url, got, c.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("hello", 10); got != "hello" {
		t.Errorf("truncate short = %q", got)
	}
	if got := truncate("hello world", 5); got != "hello" {
		t.Errorf("truncate long = %q", got)
	}
}

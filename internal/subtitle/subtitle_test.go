package subtitle

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPickLanguage(t *testing.T) {
	tests := []struct {
		name      string
		available []string
		preferred string
		want      string
	}{
		{"exact match", []string{"en", "it"}, "it", "it"},
		{"case insensitive", []string{"EN", "IT"}, "it", "IT"},
		{"prefix match", []string{"en-US", "it-IT"}, "it", "it-IT"},
		{"reverse prefix", []string{"en", "it"}, "it-IT", "it"},
		{"no match", []string{"en", "de"}, "ja", ""},
		{"empty preference", []string{"en"}, "", ""},
		{"nothing available", nil, "it", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PickLanguage(tt.available, tt.preferred); got != tt.want {
				t.Errorf("PickLanguage(%v, %q) = %q, want %q", tt.available, tt.preferred, got, tt.want)
			}
		})
	}
}

func TestFindSidecar(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"movie.tmp.it.vtt", "movie.tmp.it.srt", "other.srt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("sub"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	got, ok := FindSidecar(dir, "movie.tmp")
	if !ok {
		t.Fatal("expected a sidecar to be found")
	}
	if filepath.Base(got) != "movie.tmp.it.srt" {
		t.Errorf("got %q, want the srt preferred over vtt", got)
	}

	if _, ok := FindSidecar(dir, "absent"); ok {
		t.Error("expected no sidecar for an unmatched base")
	}
	if _, ok := FindSidecar(filepath.Join(dir, "nope"), "x"); ok {
		t.Error("expected no sidecar for a missing directory")
	}
}

// Package subtitle handles subtitle language matching and sidecar file
// discovery for the download/remux flow.
package subtitle

import (
	"os"
	"path/filepath"
	"strings"
)

// PickLanguage returns the best match for a preferred language among the
// available tags. Exact match wins, then prefix match either way; "" means
// no acceptable match.
func PickLanguage(available []string, preferred string) string {
	if preferred == "" || len(available) == 0 {
		return ""
	}

	pref := strings.ToLower(preferred)
	for _, lang := range available {
		if strings.ToLower(lang) == pref {
			return lang
		}
	}
	for _, lang := range available {
		l := strings.ToLower(lang)
		if strings.HasPrefix(l, pref) || strings.HasPrefix(pref, l) {
			return lang
		}
	}
	return ""
}

// FindSidecar locates a subtitle file written next to a download, matching
// the download's base name. SRT is preferred over VTT.
func FindSidecar(dir, base string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}

	for _, ext := range []string{".srt", ".vtt"} {
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			name := e.Name()
			if strings.HasPrefix(name, base) && strings.HasSuffix(strings.ToLower(name), ext) {
				return filepath.Join(dir, name), true
			}
		}
	}
	return "", false
}

// Package hls parses adaptive-streaming master playlists into variant
// streams and alternate audio/subtitle language sets.
package hls

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"vixbot/internal/httputil"
)

var (
	resolutionRe = regexp.MustCompile(`RESOLUTION=(\d+x\d+)`)
	bandwidthRe  = regexp.MustCompile(`BANDWIDTH=(\d+)`)
	languageRe   = regexp.MustCompile(`LANGUAGE="([^"]+)"`)
)

// Variant is one stream entry of a master playlist, in order of appearance.
type Variant struct {
	URI        string
	Resolution string // "N/A" when the manifest omits it
	Bandwidth  int
}

// Manifest is the parsed view of a master playlist.
type Manifest struct {
	Variants []Variant
	Audios   []string // sorted language tags
	Subs     []string // sorted language tags
}

// Parse scans manifest text line by line. A #EXT-X-STREAM-INF line yields a
// variant whose URI is the following line; a #EXT-X-MEDIA line of type AUDIO
// or SUBTITLES contributes its language tag ("und" when absent) to the
// corresponding set.
func Parse(text string) Manifest {
	lines := strings.Split(text, "\n")

	var variants []Variant
	audios := make(map[string]struct{})
	subs := make(map[string]struct{})

	for i, line := range lines {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "#EXT-X-STREAM-INF"):
			v := Variant{Resolution: "N/A"}
			if m := resolutionRe.FindStringSubmatch(line); m != nil {
				v.Resolution = m[1]
			}
			if m := bandwidthRe.FindStringSubmatch(line); m != nil {
				v.Bandwidth, _ = strconv.Atoi(m[1])
			}
			if i+1 < len(lines) {
				v.URI = strings.TrimSpace(lines[i+1])
			}
			variants = append(variants, v)

		case strings.HasPrefix(line, "#EXT-X-MEDIA"):
			if strings.Contains(line, "TYPE=AUDIO") {
				audios[mediaLanguage(line)] = struct{}{}
			}
			if strings.Contains(line, "TYPE=SUBTITLES") {
				subs[mediaLanguage(line)] = struct{}{}
			}
		}
	}

	return Manifest{
		Variants: variants,
		Audios:   sortedKeys(audios),
		Subs:     sortedKeys(subs),
	}
}

// ResolveVariantURI makes a variant URI absolute against its manifest URL.
func ResolveVariantURI(manifestURL, uri string) string {
	return httputil.NormalizeURL(manifestURL, uri)
}

func mediaLanguage(line string) string {
	if m := languageRe.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	return "und"
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

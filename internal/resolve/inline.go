package resolve

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"vixbot/internal/httputil"
	"vixbot/internal/media"
)

var (
	// mediaURLRe matches a direct media file URL with any trailing path or
	// query, captured greedily until whitespace or a quote/angle character.
	mediaURLRe = regexp.MustCompile(`https?://[^\s'"<>]+?\.(?:mp4|m3u8|webm)[^\s'"<>]*`)

	// tokenRe matches token assignments in inline scripts:
	// token: 'abc' or token = "abc".
	tokenRe = regexp.MustCompile(`token\s*[:=]\s*['"]([A-Za-z0-9_.-]+)['"]`)

	// endpointRe matches auxiliary JSON endpoints referenced in page text.
	endpointRe = regexp.MustCompile(`https?://[^\s'"<>]+?/(?:sources|ajax|stream)[^\s'"<>]*`)

	// sourcesRe matches the narrower /sources endpoints probed inside iframes.
	sourcesRe = regexp.MustCompile(`https?://[^\s'"<>]+?/sources[^\s'"<>]*`)

	// directMediaRe decides whether a URL itself is a playable file.
	directMediaRe = regexp.MustCompile(`\.(mp4|m3u8|webm)(\?|$)`)
)

// isDirectMedia reports whether the URL points at a media file directly.
func isDirectMedia(url string) bool {
	return directMediaRe.MatchString(url)
}

// extractTags collects src attributes from <video> and <source> elements,
// normalized against the page URL.
func extractTags(html, pageURL string) []media.Candidate {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var out []media.Candidate
	doc.Find("video source").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok && src != "" {
			out = append(out, media.Candidate{
				URL:   httputil.NormalizeURL(pageURL, src),
				Label: "video-source",
			})
		}
	})
	doc.Find("video").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok && src != "" {
			out = append(out, media.Candidate{
				URL:   httputil.NormalizeURL(pageURL, src),
				Label: "video-tag",
			})
		}
	})
	return out
}

// scanText collects every direct media URL in raw text under one label.
func scanText(text, label string) []media.Candidate {
	var out []media.Candidate
	for _, m := range mediaURLRe.FindAllString(text, -1) {
		out = append(out, media.Candidate{URL: m, Label: label})
	}
	return out
}

// pairTokens extracts token assignments and media file URLs from page text
// and synthesizes signed URLs. Every file URL without auth parameters is
// paired with every discovered token; the cross-product is intentional
// over-generation that downstream deduplication bounds. A file that already
// carries token= or auth= is emitted as-is.
func pairTokens(text string) []media.Candidate {
	var tokens []string
	for _, m := range tokenRe.FindAllStringSubmatch(text, -1) {
		tokens = append(tokens, m[1])
	}
	files := mediaURLRe.FindAllString(text, -1)

	var out []media.Candidate
	for _, f := range files {
		if strings.Contains(f, "token=") || strings.Contains(f, "auth=") {
			out = append(out, media.Candidate{URL: f, Label: "file-with-token"})
			continue
		}
		for _, tok := range tokens {
			sep := "?"
			if strings.Contains(f, "?") {
				sep = "&"
			}
			out = append(out, media.Candidate{URL: f + sep + "token=" + tok, Label: "file+token"})
		}
	}
	return out
}

// findEndpoints returns the distinct candidate JSON endpoints in page text.
func findEndpoints(text string) []string {
	return uniqueStrings(endpointRe.FindAllString(text, -1))
}

// findSourcesEndpoints returns the distinct /sources endpoints in page text.
func findSourcesEndpoints(text string) []string {
	return uniqueStrings(sourcesRe.FindAllString(text, -1))
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

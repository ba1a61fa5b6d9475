// Package vixsrc builds embed page URLs for the vixsrc streaming site and
// extracts playlist manifests from its player pages.
package vixsrc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"vixbot/internal/httputil"
)

// ErrManifestNotFound means the player page carried neither a ready playlist
// URL nor the token block needed to build one.
var ErrManifestNotFound = errors.New("no playlist manifest found in page")

const fetchTimeout = 12 * time.Second

var (
	// playlistRe matches a ready-made playlist URL embedded in the page.
	playlistRe = regexp.MustCompile(`https?://[^\s'"<>]+?/playlist/[0-9]+\?[^\s'"<>]+`)

	// tokenBlockRe matches the player bootstrap block carrying the signed
	// playlist parameters and the FHD capability flag.
	tokenBlockRe = regexp.MustCompile(`(?s)token':\s*'(?P<token>[^']+)',\s*'expires':\s*'(?P<expires>[^']+)',.*?url:\s*'(?P<url>[^']+)',\s*}\s*window\.canPlayFHD\s*=\s*(?P<fhd>false|true)`)
)

// Client talks to one vixsrc domain.
type Client struct {
	domain string
	lang   string
	httpc  *http.Client
}

// New creates a Client for a domain (e.g. "vixsrc.to") and a preferred
// content language passed on every page URL.
func New(domain, lang string) *Client {
	return &Client{
		domain: domain,
		lang:   lang,
		httpc:  httputil.NewClient(fetchTimeout),
	}
}

func (c *Client) baseURL() string {
	return "https://" + c.domain
}

// MovieURL returns the embed page URL for a movie.
func (c *Client) MovieURL(tmdbID int64) string {
	return fmt.Sprintf("%s/movie/%d?lang=%s", c.baseURL(), tmdbID, url.QueryEscape(c.lang))
}

// EpisodeURL returns the embed page URL for a TV episode.
func (c *Client) EpisodeURL(tmdbID int64, season, episode int) string {
	return fmt.Sprintf("%s/tv/%d/%d/%d/?lang=%s", c.baseURL(), tmdbID, season, episode, url.QueryEscape(c.lang))
}

// Manifest fetches a player page and extracts its playlist manifest URL.
func (c *Client) Manifest(ctx context.Context, pageURL string) (string, error) {
	html, err := httputil.FetchText(ctx, c.httpc, pageURL, c.baseURL())
	if err != nil {
		return "", fmt.Errorf("fetching player page: %w", err)
	}
	return ExtractManifest(html)
}

// MovieManifest resolves the manifest for a movie by TMDB ID.
func (c *Client) MovieManifest(ctx context.Context, tmdbID int64) (string, error) {
	return c.Manifest(ctx, c.MovieURL(tmdbID))
}

// EpisodeManifest resolves the manifest for one episode by TMDB ID.
func (c *Client) EpisodeManifest(ctx context.Context, tmdbID int64, season, episode int) (string, error) {
	return c.Manifest(ctx, c.EpisodeURL(tmdbID, season, episode))
}

// ExtractManifest pulls the playlist manifest URL out of player page HTML.
// A fully-formed /playlist/ URL wins; otherwise the signed parameters from
// the player bootstrap block are reassembled onto the raw playlist URL, with
// h=1 appended when the page advertises FHD capability.
func ExtractManifest(html string) (string, error) {
	if m := playlistRe.FindString(html); m != "" {
		return m, nil
	}

	m := tokenBlockRe.FindStringSubmatch(html)
	if m == nil {
		return "", ErrManifestNotFound
	}

	var token, expires, rawURL, fhd string
	for i, name := range tokenBlockRe.SubexpNames() {
		switch name {
		case "token":
			token = m[i]
		case "expires":
			expires = m[i]
		case "url":
			rawURL = m[i]
		case "fhd":
			fhd = m[i]
		}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing playlist URL: %w", err)
	}

	q := u.Query()
	q.Set("token", token)
	q.Set("expires", expires)
	if fhd == "true" {
		q.Set("h", "1")
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// Package tmdb is a client for the TMDB catalog API. It covers only what
// the bot consumes: title search, detail lookup, and season/episode listing.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"

	"vixbot/internal/httputil"
	"vixbot/internal/media"
)

const (
	baseURL      = "https://api.themoviedb.org/3"
	imageBaseURL = "https://image.tmdb.org/t/p"
	posterSize   = "w500"
)

// Client talks to the TMDB v3 API.
type Client struct {
	apiKey   string
	language string
	httpc    *http.Client
}

// NewClient creates a Client. A nil httpc gets a hardened default.
func NewClient(apiKey, language string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = httputil.NewClient(15 * time.Second)
	}
	return &Client{
		apiKey:   apiKey,
		language: language,
		httpc:    httpc,
	}
}

// PosterURL returns the full image URL for a poster path, or "" when empty.
func PosterURL(path string) string {
	if path == "" {
		return ""
	}
	return imageBaseURL + "/" + posterSize + path
}

// endpoint builds a full API URL with the key and language applied.
func (c *Client) endpoint(p string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	params.Set("language", c.language)
	return baseURL + p + "?" + params.Encode()
}

// doGET performs a GET with retry on transient failures. Client errors
// (4xx) are not retried.
func (c *Client) doGET(ctx context.Context, endpoint string, v any) error {
	return retry.Do(
		func() error { return c.fetchJSON(ctx, endpoint, v) },
		retry.Attempts(3),
		retry.Delay(300*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
}

func (c *Client) fetchJSON(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return retry.Unrecoverable(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return fmt.Errorf("tmdb request failed: %s", resp.Status)
	}
	if resp.StatusCode >= 400 {
		return retry.Unrecoverable(fmt.Errorf("tmdb request failed: %s", resp.Status))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return retry.Unrecoverable(fmt.Errorf("decoding tmdb response: %w", err))
	}
	return nil
}

type searchResponse struct {
	Results []struct {
		ID           int64  `json:"id"`
		Title        string `json:"title"`
		Name         string `json:"name"`
		Overview     string `json:"overview"`
		PosterPath   string `json:"poster_path"`
		ReleaseDate  string `json:"release_date"`
		FirstAirDate string `json:"first_air_date"`
	} `json:"results"`
}

// Search returns catalog matches for a title, movie and TV searched through
// their dedicated endpoints.
func (c *Client) Search(ctx context.Context, kind media.MediaType, query string) ([]media.SearchResult, error) {
	p := "/search/movie"
	if kind == media.TV {
		p = "/search/tv"
	}

	var resp searchResponse
	params := url.Values{"query": []string{query}}
	if err := c.doGET(ctx, c.endpoint(p, params), &resp); err != nil {
		return nil, fmt.Errorf("searching %q: %w", query, err)
	}

	results := make([]media.SearchResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		title := r.Title
		if title == "" {
			title = r.Name
		}
		date := r.ReleaseDate
		if date == "" {
			date = r.FirstAirDate
		}
		results = append(results, media.SearchResult{
			ID:       r.ID,
			Title:    title,
			Type:     kind,
			Overview: r.Overview,
			Poster:   PosterURL(r.PosterPath),
			Date:     date,
		})
	}
	return results, nil
}

type tvDetailResponse struct {
	Name         string `json:"name"`
	OriginalName string `json:"original_name"`
	Seasons      []struct {
		SeasonNumber int    `json:"season_number"`
		Name         string `json:"name"`
		EpisodeCount int    `json:"episode_count"`
	} `json:"seasons"`
}

// Seasons returns the real seasons of a show, specials (season 0) excluded.
func (c *Client) Seasons(ctx context.Context, tmdbID int64) ([]media.Season, error) {
	var resp tvDetailResponse
	if err := c.doGET(ctx, c.endpoint(fmt.Sprintf("/tv/%d", tmdbID), nil), &resp); err != nil {
		return nil, fmt.Errorf("getting seasons: %w", err)
	}

	var seasons []media.Season
	for _, s := range resp.Seasons {
		if s.SeasonNumber <= 0 {
			continue
		}
		seasons = append(seasons, media.Season{
			Number:       s.SeasonNumber,
			Name:         s.Name,
			EpisodeCount: s.EpisodeCount,
		})
	}
	return seasons, nil
}

type seasonResponse struct {
	Episodes []struct {
		EpisodeNumber int    `json:"episode_number"`
		Name          string `json:"name"`
	} `json:"episodes"`
}

// Episodes returns the episodes of one season.
func (c *Client) Episodes(ctx context.Context, tmdbID int64, season int) ([]media.Episode, error) {
	var resp seasonResponse
	if err := c.doGET(ctx, c.endpoint(fmt.Sprintf("/tv/%d/season/%d", tmdbID, season), nil), &resp); err != nil {
		return nil, fmt.Errorf("getting episodes: %w", err)
	}

	var episodes []media.Episode
	for _, ep := range resp.Episodes {
		if ep.EpisodeNumber == 0 {
			continue
		}
		episodes = append(episodes, media.Episode{Number: ep.EpisodeNumber, Title: ep.Name})
	}
	return episodes, nil
}

// Title builds a display title for a movie or one episode. Lookups are
// best-effort: on failure a synthetic name based on the ID is returned.
func (c *Client) Title(ctx context.Context, kind media.MediaType, tmdbID int64, season, episode int) string {
	if kind == media.Movie {
		var resp struct {
			Title         string `json:"title"`
			OriginalTitle string `json:"original_title"`
		}
		if err := c.doGET(ctx, c.endpoint(fmt.Sprintf("/movie/%d", tmdbID), nil), &resp); err != nil {
			return fmt.Sprintf("movie_%d", tmdbID)
		}
		if resp.Title != "" {
			return resp.Title
		}
		if resp.OriginalTitle != "" {
			return resp.OriginalTitle
		}
		return fmt.Sprintf("movie_%d", tmdbID)
	}

	name := fmt.Sprintf("series_%d", tmdbID)
	var show tvDetailResponse
	if err := c.doGET(ctx, c.endpoint(fmt.Sprintf("/tv/%d", tmdbID), nil), &show); err == nil {
		if show.Name != "" {
			name = show.Name
		} else if show.OriginalName != "" {
			name = show.OriginalName
		}
	}

	epName := fmt.Sprintf("Episode %d", episode)
	var ep struct {
		Name string `json:"name"`
	}
	if err := c.doGET(ctx, c.endpoint(fmt.Sprintf("/tv/%d/season/%d/episode/%d", tmdbID, season, episode), nil), &ep); err == nil && ep.Name != "" {
		epName = ep.Name
	}

	return fmt.Sprintf("%s - S%dE%d - %s", name, season, episode, epName)
}

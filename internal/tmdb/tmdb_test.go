package tmdb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"vixbot/internal/media"
)

// roundTripFunc lets a test stand in for the TMDB API without a listener.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func newFakeClient(rt roundTripFunc) *Client {
	return NewClient("test-key", "it-IT", &http.Client{Transport: rt})
}

func TestSearchMovies(t *testing.T) {
	c := newFakeClient(func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/3/search/movie" {
			t.Errorf("path = %q, want /3/search/movie", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("api_key") != "test-key" || q.Get("language") != "it-IT" || q.Get("query") != "dune" {
			t.Errorf("query = %v", q)
		}
		return jsonResponse(200, `{"results": [
			{"id": 438631, "title": "Dune", "overview": "desert planet", "poster_path": "/p.jpg", "release_date": "2021-09-15"}
		]}`), nil
	})

	got, err := c.Search(context.Background(), media.Movie, "dune")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}
	r := got[0]
	if r.ID != 438631 || r.Title != "Dune" || r.Type != media.Movie || r.Date != "2021-09-15" {
		t.Errorf("result = %+v", r)
	}
	if r.Poster != "https://image.tmdb.org/t/p/w500/p.jpg" {
		t.Errorf("poster = %q", r.Poster)
	}
}

func TestSearchTVUsesNameFields(t *testing.T) {
	c := newFakeClient(func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/3/search/tv" {
			t.Errorf("path = %q, want /3/search/tv", r.URL.Path)
		}
		return jsonResponse(200, `{"results": [
			{"id": 1399, "name": "Game of Thrones", "first_air_date": "2011-04-17"}
		]}`), nil
	})

	got, err := c.Search(context.Background(), media.TV, "thrones")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got[0].Title != "Game of Thrones" || got[0].Date != "2011-04-17" || got[0].Poster != "" {
		t.Errorf("result = %+v", got[0])
	}
}

func TestRetryOnServerError(t *testing.T) {
	var calls int32
	c := newFakeClient(func(r *http.Request) (*http.Response, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return jsonResponse(503, `{}`), nil
		}
		return jsonResponse(200, `{"results": []}`), nil
	})

	if _, err := c.Search(context.Background(), media.Movie, "x"); err != nil {
		t.Fatalf("Search after retries: %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("made %d requests, want 3", n)
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls int32
	c := newFakeClient(func(r *http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return jsonResponse(404, `{}`), nil
	})

	if _, err := c.Search(context.Background(), media.Movie, "x"); err == nil {
		t.Fatal("expected an error on 404")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("made %d requests, want 1 (4xx must not be retried)", n)
	}
}

func TestSeasonsFiltersSpecials(t *testing.T) {
	c := newFakeClient(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"name": "Show", "seasons": [
			{"season_number": 0, "name": "Specials", "episode_count": 3},
			{"season_number": 1, "name": "Season 1", "episode_count": 10}
		]}`), nil
	})

	got, err := c.Seasons(context.Background(), 1399)
	if err != nil {
		t.Fatalf("Seasons: %v", err)
	}
	if len(got) != 1 || got[0].Number != 1 || got[0].EpisodeCount != 10 {
		t.Errorf("seasons = %+v, want season 1 only", got)
	}
}

func TestEpisodes(t *testing.T) {
	c := newFakeClient(func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/3/tv/1399/season/2" {
			t.Errorf("path = %q", r.URL.Path)
		}
		return jsonResponse(200, `{"episodes": [
			{"episode_number": 1, "name": "The North Remembers"},
			{"episode_number": 2, "name": "The Night Lands"}
		]}`), nil
	})

	got, err := c.Episodes(context.Background(), 1399, 2)
	if err != nil {
		t.Fatalf("Episodes: %v", err)
	}
	if len(got) != 2 || got[0].Title != "The North Remembers" {
		t.Errorf("episodes = %+v", got)
	}
}

func TestTitleEpisodeFormat(t *testing.T) {
	c := newFakeClient(func(r *http.Request) (*http.Response, error) {
		switch {
		case r.URL.Path == "/3/tv/1399":
			return jsonResponse(200, `{"name": "Game of Thrones"}`), nil
		case strings.Contains(r.URL.Path, "/episode/"):
			return jsonResponse(200, `{"name": "Blackwater"}`), nil
		}
		return jsonResponse(404, `{}`), nil
	})

	got := c.Title(context.Background(), media.TV, 1399, 2, 9)
	if want := "Game of Thrones - S2E9 - Blackwater"; got != want {
		t.Errorf("Title = %q, want %q", got, want)
	}
}

func TestTitleFallsBackOnFailure(t *testing.T) {
	c := newFakeClient(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(404, `{}`), nil
	})

	if got := c.Title(context.Background(), media.Movie, 42, 0, 0); got != "movie_42" {
		t.Errorf("movie fallback = %q, want movie_42", got)
	}
	got := c.Title(context.Background(), media.TV, 43, 1, 2)
	if want := "series_43 - S1E2 - Episode 2"; got != want {
		t.Errorf("tv fallback = %q, want %q", got, want)
	}
}

func TestPosterURLEmpty(t *testing.T) {
	if got := PosterURL(""); got != "" {
		t.Errorf("PosterURL(\"\") = %q, want empty", got)
	}
}

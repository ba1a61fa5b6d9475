// Package media defines shared types for the vixbot application.
package media

import "time"

// MediaType represents whether content is a movie or TV show.
type MediaType int

const (
	Movie MediaType = iota
	TV
)

func (m MediaType) String() string {
	switch m {
	case Movie:
		return "movie"
	case TV:
		return "tv"
	default:
		return "unknown"
	}
}

// ParseMediaType maps the catalog discriminator strings to a MediaType.
func ParseMediaType(s string) (MediaType, bool) {
	switch s {
	case "movie":
		return Movie, true
	case "tv":
		return TV, true
	default:
		return Movie, false
	}
}

// Candidate is a single resolved media URL with a provenance label.
// The URL is always absolute; the label records which extraction strategy
// produced it and is not unique.
type Candidate struct {
	URL   string
	Label string
}

// SearchResult represents a single catalog search result.
type SearchResult struct {
	ID       int64     // Catalog (TMDB) ID
	Title    string    // Display title
	Type     MediaType // Movie or TV
	Overview string    // Short synopsis
	Poster   string    // Full poster image URL, empty when none
	Date     string    // Release date or first air date
}

// Season represents a TV show season.
type Season struct {
	Number       int
	Name         string
	EpisodeCount int
}

// Episode represents a TV show episode.
type Episode struct {
	Number int
	Title  string
}

// DownloadEntry represents a completed download recorded in history.
type DownloadEntry struct {
	ID        int64
	Title     string
	Type      MediaType
	Season    int // 0 for movies
	Episode   int // 0 for movies
	Path      string
	Size      int64
	CreatedAt time.Time
}

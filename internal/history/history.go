// Package history records completed downloads in a local sqlite database.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"vixbot/internal/media"
)

const schema = `
CREATE TABLE IF NOT EXISTS downloads (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	tmdb_id INTEGER NOT NULL,
	title TEXT NOT NULL,
	media_type TEXT NOT NULL,
	season INTEGER NOT NULL DEFAULT 0,
	episode INTEGER NOT NULL DEFAULT 0,
	path TEXT NOT NULL,
	size INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL
);`

// Store persists download records.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Add records one completed download.
func (s *Store) Add(entry media.DownloadEntry) error {
	created := entry.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT INTO downloads (tmdb_id, title, media_type, season, episode, path, size, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Title, entry.Type.String(), entry.Season, entry.Episode,
		entry.Path, entry.Size, created,
	)
	if err != nil {
		return fmt.Errorf("recording download: %w", err)
	}
	return nil
}

// Recent returns the most recent downloads, newest first.
func (s *Store) Recent(limit int) ([]media.DownloadEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT tmdb_id, title, media_type, season, episode, path, size, created_at
		 FROM downloads ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []media.DownloadEntry
	for rows.Next() {
		var e media.DownloadEntry
		var kind string
		if err := rows.Scan(&e.ID, &e.Title, &kind, &e.Season, &e.Episode, &e.Path, &e.Size, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		if t, ok := media.ParseMediaType(kind); ok {
			e.Type = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

package history

import (
	"path/filepath"
	"testing"
	"time"

	"vixbot/internal/media"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddAndRecent(t *testing.T) {
	s := openTestStore(t)

	older := media.DownloadEntry{
		ID:        603,
		Title:     "The Matrix",
		Type:      media.Movie,
		Path:      "/videos/movie/The Matrix/The Matrix.mkv",
		Size:      1 << 30,
		CreatedAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	newer := media.DownloadEntry{
		ID:        1399,
		Title:     "Game of Thrones - S2E9 - Blackwater",
		Type:      media.TV,
		Season:    2,
		Episode:   9,
		Path:      "/videos/TV/Game of Thrones/S2/Blackwater.mkv",
		Size:      2 << 30,
		CreatedAt: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	for _, e := range []media.DownloadEntry{older, newer} {
		if err := s.Add(e); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	got, err := s.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Recent returned %d entries, want 2", len(got))
	}
	if got[0].ID != newer.ID {
		t.Errorf("newest first: got ID %d, want %d", got[0].ID, newer.ID)
	}
	if got[0].Type != media.TV || got[0].Season != 2 || got[0].Episode != 9 {
		t.Errorf("episode fields lost: %+v", got[0])
	}
	if got[1].Type != media.Movie {
		t.Errorf("got[1].Type = %v, want Movie", got[1].Type)
	}
	if got[1].Path != older.Path || got[1].Size != older.Size {
		t.Errorf("path/size lost: %+v", got[1])
	}
}

func TestAddFillsCreatedAt(t *testing.T) {
	s := openTestStore(t)

	if err := s.Add(media.DownloadEntry{ID: 1, Title: "Dune", Type: media.Movie, Path: "/x"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	got, err := s.Recent(1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 1 || got[0].CreatedAt.IsZero() {
		t.Fatal("zero CreatedAt was not filled in")
	}
}

func TestRecentLimit(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		err := s.Add(media.DownloadEntry{
			ID: int64(i), Title: "t", Type: media.Movie, Path: "/x",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	got, err := s.Recent(3)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Recent(3) returned %d entries", len(got))
	}
	if got[0].ID != 4 {
		t.Errorf("got[0].ID = %d, want 4", got[0].ID)
	}

	// Non-positive limits fall back to the default.
	got, err = s.Recent(0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("Recent(0) returned %d entries, want all 5", len(got))
	}
}

func TestRecentEmpty(t *testing.T) {
	s := openTestStore(t)
	got, err := s.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Recent on empty store returned %d entries", len(got))
	}
}

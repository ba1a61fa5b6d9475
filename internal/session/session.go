// Package session tracks per-user selection state for the sequential
// search -> mode -> season -> episode -> quality -> audio -> subtitle ->
// confirm flow. One state exists per user at most; a new search overwrites
// whatever was in progress.
package session

import (
	"sync"

	"vixbot/internal/hls"
	"vixbot/internal/media"
)

// Step is the position of a user inside the selection flow.
type Step int

const (
	StepIdle Step = iota
	StepTitleChoice
	StepMode
	StepSeason
	StepEpisodeOrRange
	StepQuality
	StepAudio
	StepSubtitle
	StepConfirm
	StepRunning
)

func (s Step) String() string {
	switch s {
	case StepIdle:
		return "idle"
	case StepTitleChoice:
		return "awaiting_title_choice"
	case StepMode:
		return "awaiting_mode"
	case StepSeason:
		return "awaiting_season"
	case StepEpisodeOrRange:
		return "awaiting_episode_or_range"
	case StepQuality:
		return "awaiting_quality"
	case StepAudio:
		return "awaiting_audio"
	case StepSubtitle:
		return "awaiting_subtitle"
	case StepConfirm:
		return "awaiting_confirmation"
	case StepRunning:
		return "running"
	default:
		return "unknown"
	}
}

// Mode is the download scope chosen for a series.
type Mode int

const (
	ModeSingle Mode = iota
	ModeRange
	ModeSeason
	ModeAll
)

func (m Mode) String() string {
	switch m {
	case ModeSingle:
		return "single"
	case ModeRange:
		return "range"
	case ModeSeason:
		return "season"
	case ModeAll:
		return "all"
	default:
		return "unknown"
	}
}

// ParseMode maps a callback payload token back to a Mode.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "single":
		return ModeSingle, true
	case "range":
		return ModeRange, true
	case "season":
		return ModeSeason, true
	case "all":
		return ModeAll, true
	default:
		return ModeSingle, false
	}
}

// EpisodeRef identifies one episode queued for download.
type EpisodeRef struct {
	Season  int
	Episode int
}

// AvailableEpisode is an episode whose manifest was successfully probed.
type AvailableEpisode struct {
	Number   int
	Title    string
	Manifest string
}

// State is the in-progress selection of one user. It is created on search
// initiation and cleared on cancellation, completion or error.
type State struct {
	Step Step
	Kind media.MediaType

	// Quick-stream flow: candidates are presented as play buttons instead
	// of entering the download option sequence.
	Watch bool

	Results []media.SearchResult
	Chosen  *media.SearchResult

	Mode      Mode
	Season    int
	Available []AvailableEpisode
	Episodes  []EpisodeRef

	// ManifestURL is the exemplar manifest the option prompts are built
	// from; per-episode manifests are re-resolved at download time.
	ManifestURL string
	Manifest    hls.Manifest

	VariantIdx  int // index into Manifest.Variants, -1 for default
	AudioLang   string
	SubLang     string
	SubDownload bool
	BurnSubs    bool
}

// NewState returns a State positioned at the start of the flow.
func NewState(kind media.MediaType) *State {
	return &State{Step: StepIdle, Kind: kind, VariantIdx: -1}
}

// Store holds per-user selection state. Implementations must be safe for
// concurrent use; semantics are last write wins.
type Store interface {
	Get(userID int64) (*State, bool)
	Put(userID int64, st *State)
	Delete(userID int64)
}

// MemoryStore is the in-process Store used by the bot.
type MemoryStore struct {
	mu sync.RWMutex
	m  map[int64]*State
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[int64]*State)}
}

func (s *MemoryStore) Get(userID int64) (*State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.m[userID]
	return st, ok
}

func (s *MemoryStore) Put(userID int64, st *State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[userID] = st
}

func (s *MemoryStore) Delete(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, userID)
}

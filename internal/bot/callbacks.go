package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"vixbot/internal/media"
	"vixbot/internal/session"
	"vixbot/internal/telegram"
)

// handleCallback routes a button press to the transition for the payload's
// prefix. Unknown payloads are ignored.
func (b *Bot) handleCallback(ctx context.Context, cb *telegram.CallbackQuery) {
	if cb.Message == nil {
		return
	}
	data := cb.Data

	switch {
	case data == "CANCEL":
		b.clear(cb.From.ID)
		b.editCallback(ctx, cb, "Operation cancelled.")

	case data == "MENU_SEARCH":
		b.editCallback(ctx, cb, "Use /search <movie|tv> <title> to find content.")

	case data == "MENU_HELP":
		b.editCallback(ctx, cb, helpText)

	case strings.HasPrefix(data, "play:"):
		b.handlePlay(ctx, cb)

	case strings.HasPrefix(data, "TMDB|"):
		b.handleTitleChoice(ctx, cb)

	case strings.HasPrefix(data, "MODE|"):
		b.handleModeChoice(ctx, cb)

	case strings.HasPrefix(data, "SEASON|"):
		b.handleSeasonChoice(ctx, cb)

	case strings.HasPrefix(data, "EP|"):
		b.handleEpisodeChoice(ctx, cb)

	case strings.HasPrefix(data, "SEQ|"):
		b.handleSequence(ctx, cb)

	default:
		logrus.WithField("data", data).Debug("unrecognized callback payload")
	}
}

// editCallback rewrites the message the button was attached to.
func (b *Bot) editCallback(ctx context.Context, cb *telegram.CallbackQuery, text string) {
	b.edit(ctx, cb.Message.Chat.ID, cb.Message.MessageID, text, nil)
}

func (b *Bot) editCallbackKB(ctx context.Context, cb *telegram.CallbackQuery, text string, kb *telegram.InlineKeyboardMarkup) {
	b.edit(ctx, cb.Message.Chat.ID, cb.Message.MessageID, text, kb)
}

// handleTitleChoice binds the selected search result. Movies go straight
// to manifest extraction; series continue with the download-mode prompt.
func (b *Bot) handleTitleChoice(ctx context.Context, cb *telegram.CallbackQuery) {
	st, ok := b.state(cb.From.ID)
	if !ok || st.Step != session.StepTitleChoice {
		b.editCallback(ctx, cb, "This selection has expired. Start over with /search.")
		return
	}
	idx, err := strconv.Atoi(strings.TrimPrefix(cb.Data, "TMDB|"))
	if err != nil || idx < 0 || idx >= len(st.Results) {
		b.clear(cb.From.ID)
		b.editCallback(ctx, cb, "Invalid selection.")
		return
	}
	chosen := st.Results[idx]
	st.Chosen = &chosen

	if st.Kind == media.Movie {
		manifest, err := b.vix.MovieManifest(ctx, chosen.ID)
		if err != nil {
			logrus.WithError(err).Debug("movie manifest extraction failed")
			b.clear(cb.From.ID)
			b.editCallback(ctx, cb, "No stream manifest found for this movie.")
			return
		}
		st.ManifestURL = manifest
		b.sessions.Put(cb.From.ID, st)
		b.presentQuality(ctx, cb.Message.Chat.ID, cb.From.ID, st)
		return
	}

	st.Step = session.StepMode
	b.sessions.Put(cb.From.ID, st)
	kb := &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		telegram.Row(telegram.InlineKeyboardButton{Text: "Single episode", CallbackData: "MODE|single"}),
		telegram.Row(telegram.InlineKeyboardButton{Text: "Episode range", CallbackData: "MODE|range"}),
		telegram.Row(telegram.InlineKeyboardButton{Text: "Full season", CallbackData: "MODE|season"}),
		telegram.Row(telegram.InlineKeyboardButton{Text: "Entire series", CallbackData: "MODE|all"}),
		cancelRow(),
	}}
	b.editCallbackKB(ctx, cb, "Choose a download mode for the series:", kb)
}

func (b *Bot) handleModeChoice(ctx context.Context, cb *telegram.CallbackQuery) {
	st, ok := b.state(cb.From.ID)
	if !ok || st.Step != session.StepMode || st.Chosen == nil {
		b.editCallback(ctx, cb, "This selection has expired. Start over with /search.")
		return
	}
	mode, ok := session.ParseMode(strings.TrimPrefix(cb.Data, "MODE|"))
	if !ok {
		b.editCallback(ctx, cb, "Invalid selection.")
		return
	}
	st.Mode = mode

	if mode == session.ModeAll {
		b.sessions.Put(cb.From.ID, st)
		b.editCallback(ctx, cb, "Collecting the episode list for the whole series...")
		b.prepareAllEpisodes(ctx, cb, st)
		return
	}

	seasons, err := b.tmdb.Seasons(ctx, st.Chosen.ID)
	if err != nil || len(seasons) == 0 {
		b.clear(cb.From.ID)
		b.editCallback(ctx, cb, "No seasons found for this series.")
		return
	}
	var rows [][]telegram.InlineKeyboardButton
	for _, s := range seasons {
		rows = append(rows, telegram.Row(telegram.InlineKeyboardButton{
			Text:         fmt.Sprintf("S%d", s.Number),
			CallbackData: fmt.Sprintf("SEASON|%d", s.Number),
		}))
	}
	rows = append(rows, cancelRow())

	st.Step = session.StepSeason
	b.sessions.Put(cb.From.ID, st)
	b.editCallbackKB(ctx, cb, "Pick a season:", &telegram.InlineKeyboardMarkup{InlineKeyboard: rows})
}

// handleSeasonChoice probes manifest availability for every episode of the
// chosen season, then branches per download mode.
func (b *Bot) handleSeasonChoice(ctx context.Context, cb *telegram.CallbackQuery) {
	st, ok := b.state(cb.From.ID)
	if !ok || st.Step != session.StepSeason || st.Chosen == nil {
		b.editCallback(ctx, cb, "This selection has expired. Start over with /search.")
		return
	}
	season, err := strconv.Atoi(strings.TrimPrefix(cb.Data, "SEASON|"))
	if err != nil {
		b.editCallback(ctx, cb, "Invalid selection.")
		return
	}
	st.Season = season

	b.editCallback(ctx, cb, fmt.Sprintf("Checking availability for season %d...", season))
	available := b.probeSeason(ctx, st.Chosen.ID, season)
	if len(available) == 0 {
		b.clear(cb.From.ID)
		b.reply(ctx, cb.Message.Chat.ID, "No episodes of this season are available.")
		return
	}
	st.Available = available

	switch st.Mode {
	case session.ModeSingle:
		var rows [][]telegram.InlineKeyboardButton
		for _, ep := range available {
			rows = append(rows, telegram.Row(telegram.InlineKeyboardButton{
				Text:         fmt.Sprintf("S%dE%d - %s", season, ep.Number, ep.Title),
				CallbackData: fmt.Sprintf("EP|%d|%d", season, ep.Number),
			}))
		}
		rows = append(rows, cancelRow())
		st.Step = session.StepEpisodeOrRange
		b.sessions.Put(cb.From.ID, st)
		if _, err := b.tg.SendMessage(ctx, cb.Message.Chat.ID, "Pick an episode:",
			&telegram.InlineKeyboardMarkup{InlineKeyboard: rows}); err != nil {
			logrus.WithError(err).Warn("sendMessage failed")
		}

	case session.ModeRange:
		st.Step = session.StepEpisodeOrRange
		b.sessions.Put(cb.From.ID, st)
		b.reply(ctx, cb.Message.Chat.ID, "Send two numbers separated by a space: <start> <end> (e.g. 1 5)")

	case session.ModeSeason:
		for _, ep := range available {
			st.Episodes = append(st.Episodes, session.EpisodeRef{Season: season, Episode: ep.Number})
		}
		st.ManifestURL = available[0].Manifest
		b.sessions.Put(cb.From.ID, st)
		b.presentQuality(ctx, cb.Message.Chat.ID, cb.From.ID, st)

	default:
		b.clear(cb.From.ID)
		b.reply(ctx, cb.Message.Chat.ID, "Unexpected step. Cancelled.")
	}
}

func (b *Bot) handleEpisodeChoice(ctx context.Context, cb *telegram.CallbackQuery) {
	st, ok := b.state(cb.From.ID)
	if !ok || st.Step != session.StepEpisodeOrRange || st.Chosen == nil {
		b.editCallback(ctx, cb, "This selection has expired. Start over with /search.")
		return
	}
	parts := strings.Split(cb.Data, "|")
	if len(parts) != 3 {
		b.editCallback(ctx, cb, "Invalid selection.")
		return
	}
	season, err1 := strconv.Atoi(parts[1])
	episode, err2 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil {
		b.editCallback(ctx, cb, "Invalid selection.")
		return
	}

	manifest := ""
	for _, ep := range st.Available {
		if ep.Number == episode {
			manifest = ep.Manifest
			break
		}
	}
	if manifest == "" {
		manifest, _ = b.vix.EpisodeManifest(ctx, st.Chosen.ID, season, episode)
	}
	if manifest == "" {
		b.clear(cb.From.ID)
		b.editCallback(ctx, cb, "Could not extract a manifest for that episode.")
		return
	}

	st.Season = season
	st.Episodes = []session.EpisodeRef{{Season: season, Episode: episode}}
	st.ManifestURL = manifest
	b.sessions.Put(cb.From.ID, st)
	b.presentQuality(ctx, cb.Message.Chat.ID, cb.From.ID, st)
}

// prepareAllEpisodes probes every season of the series.
func (b *Bot) prepareAllEpisodes(ctx context.Context, cb *telegram.CallbackQuery, st *session.State) {
	seasons, err := b.tmdb.Seasons(ctx, st.Chosen.ID)
	if err != nil || len(seasons) == 0 {
		b.clear(cb.From.ID)
		b.reply(ctx, cb.Message.Chat.ID, "No seasons found for this series.")
		return
	}

	var refs []session.EpisodeRef
	exemplar := ""
	for _, s := range seasons {
		for _, ep := range b.probeSeason(ctx, st.Chosen.ID, s.Number) {
			refs = append(refs, session.EpisodeRef{Season: s.Number, Episode: ep.Number})
			if exemplar == "" {
				exemplar = ep.Manifest
			}
		}
	}
	if len(refs) == 0 {
		b.clear(cb.From.ID)
		b.reply(ctx, cb.Message.Chat.ID, "No episodes of this series are available.")
		return
	}

	st.Episodes = refs
	st.ManifestURL = exemplar
	b.sessions.Put(cb.From.ID, st)
	b.presentQuality(ctx, cb.Message.Chat.ID, cb.From.ID, st)
}

// probeSeason returns the episodes of one season that have an extractable
// manifest. Per-episode failures are skipped.
func (b *Bot) probeSeason(ctx context.Context, tmdbID int64, season int) []session.AvailableEpisode {
	episodes, err := b.tmdb.Episodes(ctx, tmdbID, season)
	if err != nil {
		logrus.WithError(err).Debug("episode listing failed")
		return nil
	}
	var available []session.AvailableEpisode
	for _, ep := range episodes {
		manifest, err := b.vix.EpisodeManifest(ctx, tmdbID, season, ep.Number)
		if err != nil {
			continue
		}
		title := ep.Title
		if title == "" {
			title = fmt.Sprintf("Episode %d", ep.Number)
		}
		available = append(available, session.AvailableEpisode{
			Number:   ep.Number,
			Title:    title,
			Manifest: manifest,
		})
	}
	return available
}

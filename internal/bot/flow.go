package bot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"vixbot/internal/download"
	"vixbot/internal/hls"
	"vixbot/internal/media"
	"vixbot/internal/session"
	"vixbot/internal/telegram"
)

// presentQuality parses the exemplar manifest and starts the option
// sequence: quality, audio, subtitles, confirmation.
func (b *Bot) presentQuality(ctx context.Context, chatID, userID int64, st *session.State) {
	b.reply(ctx, chatID, "Inspecting the manifest for quality, audio and subtitles...")

	text, err := b.fetchManifestText(ctx, st.ManifestURL)
	if err != nil {
		logrus.WithError(err).Debug("manifest fetch failed")
		b.clear(userID)
		b.reply(ctx, chatID, "Could not read the stream manifest.")
		return
	}
	st.Manifest = hls.Parse(text)

	var rows [][]telegram.InlineKeyboardButton
	if len(st.Manifest.Variants) > 0 {
		for i, v := range st.Manifest.Variants {
			label := v.Resolution
			if label == "" || label == "N/A" {
				label = fmt.Sprintf("variant %d", i)
			}
			rows = append(rows, telegram.Row(telegram.InlineKeyboardButton{
				Text:         label,
				CallbackData: fmt.Sprintf("SEQ|VAR|%d", i),
			}))
		}
	} else {
		rows = append(rows, telegram.Row(telegram.InlineKeyboardButton{
			Text:         "Default quality",
			CallbackData: "SEQ|VAR|-1",
		}))
	}

	st.Step = session.StepQuality
	b.sessions.Put(userID, st)
	if _, err := b.tg.SendMessage(ctx, chatID, "Pick a video quality:",
		&telegram.InlineKeyboardMarkup{InlineKeyboard: rows}); err != nil {
		logrus.WithError(err).Warn("sendMessage failed")
	}
}

// handleSequence routes SEQ|VAR, SEQ|AUD, SEQ|SUB, SEQ|TOG and SEQ|DO.
func (b *Bot) handleSequence(ctx context.Context, cb *telegram.CallbackQuery) {
	st, ok := b.state(cb.From.ID)
	if !ok {
		b.editCallback(ctx, cb, "This selection has expired. Start over with /search.")
		return
	}
	parts := strings.SplitN(cb.Data, "|", 3)
	if len(parts) != 3 {
		b.editCallback(ctx, cb, "Invalid selection.")
		return
	}

	switch parts[1] {
	case "VAR":
		b.handleQualityChoice(ctx, cb, st, parts[2])
	case "AUD":
		b.handleAudioChoice(ctx, cb, st, parts[2])
	case "SUB":
		b.handleSubtitleChoice(ctx, cb, st, parts[2])
	case "TOG":
		b.handleToggle(ctx, cb, st, parts[2])
	case "DO":
		if parts[2] == "START" {
			b.editCallback(ctx, cb, "Starting the download with the selected options...")
			b.runDownloads(ctx, cb.Message.Chat.ID, cb.From.ID, st)
		}
	default:
		b.editCallback(ctx, cb, "Unrecognized action.")
	}
}

func (b *Bot) handleQualityChoice(ctx context.Context, cb *telegram.CallbackQuery, st *session.State, arg string) {
	if st.Step != session.StepQuality {
		b.editCallback(ctx, cb, "This selection has expired. Start over with /search.")
		return
	}
	idx, err := strconv.Atoi(arg)
	if err != nil {
		b.editCallback(ctx, cb, "Invalid selection.")
		return
	}
	if idx >= 0 && idx < len(st.Manifest.Variants) {
		st.VariantIdx = idx
		b.editCallback(ctx, cb, "Quality selected: "+st.Manifest.Variants[idx].Resolution)
	} else {
		st.VariantIdx = -1
		b.editCallback(ctx, cb, "Default quality selected.")
	}

	var rows [][]telegram.InlineKeyboardButton
	if len(st.Manifest.Audios) > 0 {
		for _, a := range st.Manifest.Audios {
			rows = append(rows, telegram.Row(telegram.InlineKeyboardButton{
				Text:         a,
				CallbackData: "SEQ|AUD|" + a,
			}))
		}
	} else {
		rows = append(rows, telegram.Row(telegram.InlineKeyboardButton{
			Text:         "Default audio",
			CallbackData: "SEQ|AUD|und",
		}))
	}

	st.Step = session.StepAudio
	b.sessions.Put(cb.From.ID, st)
	if _, err := b.tg.SendMessage(ctx, cb.Message.Chat.ID, "Pick an audio language:",
		&telegram.InlineKeyboardMarkup{InlineKeyboard: rows}); err != nil {
		logrus.WithError(err).Warn("sendMessage failed")
	}
}

func (b *Bot) handleAudioChoice(ctx context.Context, cb *telegram.CallbackQuery, st *session.State, lang string) {
	if st.Step != session.StepAudio {
		b.editCallback(ctx, cb, "This selection has expired. Start over with /search.")
		return
	}
	st.AudioLang = lang
	b.editCallback(ctx, cb, "Audio selected: "+lang)

	var rows [][]telegram.InlineKeyboardButton
	if len(st.Manifest.Subs) > 0 {
		for _, s := range st.Manifest.Subs {
			rows = append(rows, telegram.Row(telegram.InlineKeyboardButton{
				Text:         s,
				CallbackData: "SEQ|SUB|" + s,
			}))
		}
		rows = append(rows, telegram.Row(telegram.InlineKeyboardButton{
			Text:         "No subtitles",
			CallbackData: "SEQ|SUB|NONE",
		}))
	} else {
		rows = append(rows, telegram.Row(telegram.InlineKeyboardButton{
			Text:         "No subtitles available",
			CallbackData: "SEQ|SUB|NONE",
		}))
	}

	st.Step = session.StepSubtitle
	b.sessions.Put(cb.From.ID, st)
	if _, err := b.tg.SendMessage(ctx, cb.Message.Chat.ID, "Pick a subtitle language:",
		&telegram.InlineKeyboardMarkup{InlineKeyboard: rows}); err != nil {
		logrus.WithError(err).Warn("sendMessage failed")
	}
}

func (b *Bot) handleSubtitleChoice(ctx context.Context, cb *telegram.CallbackQuery, st *session.State, lang string) {
	if st.Step != session.StepSubtitle {
		b.editCallback(ctx, cb, "This selection has expired. Start over with /search.")
		return
	}
	if lang == "NONE" {
		st.SubLang = ""
		st.SubDownload = false
		b.editCallback(ctx, cb, "Subtitles disabled.")
	} else {
		st.SubLang = lang
		st.SubDownload = true
		b.editCallback(ctx, cb, "Subtitles selected: "+lang)
	}

	st.Step = session.StepConfirm
	b.sessions.Put(cb.From.ID, st)
	if _, err := b.tg.SendMessage(ctx, cb.Message.Chat.ID,
		"Final options. Toggle as needed, then start the download:", confirmKeyboard(st)); err != nil {
		logrus.WithError(err).Warn("sendMessage failed")
	}
}

func (b *Bot) handleToggle(ctx context.Context, cb *telegram.CallbackQuery, st *session.State, arg string) {
	if st.Step != session.StepConfirm {
		b.editCallback(ctx, cb, "This selection has expired. Start over with /search.")
		return
	}
	switch arg {
	case "SUB":
		st.SubDownload = !st.SubDownload
	case "BURN":
		st.BurnSubs = !st.BurnSubs
	default:
		b.editCallback(ctx, cb, "Unrecognized action.")
		return
	}
	b.sessions.Put(cb.From.ID, st)
	b.editCallbackKB(ctx, cb, "Confirm the options:", confirmKeyboard(st))
}

func confirmKeyboard(st *session.State) *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		telegram.Row(telegram.InlineKeyboardButton{
			Text:         "Download subtitles: " + yesNo(st.SubDownload),
			CallbackData: "SEQ|TOG|SUB",
		}),
		telegram.Row(telegram.InlineKeyboardButton{
			Text:         "Burn in subtitles: " + yesNo(st.BurnSubs),
			CallbackData: "SEQ|TOG|BURN",
		}),
		telegram.Row(telegram.InlineKeyboardButton{
			Text:         "Start download",
			CallbackData: "SEQ|DO|START",
		}),
	}}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// downloadItem is one movie or episode queued by the runner.
type downloadItem struct {
	manifest string
	title    string
	season   int
	episode  int
}

// runDownloads executes the queued items sequentially, uploading each
// finished file when it fits the transport's size limit.
func (b *Bot) runDownloads(ctx context.Context, chatID, userID int64, st *session.State) {
	st.Step = session.StepRunning
	b.sessions.Put(userID, st)
	defer b.clear(userID)

	variantURI := ""
	if st.VariantIdx >= 0 && st.VariantIdx < len(st.Manifest.Variants) {
		variantURI = hls.ResolveVariantURI(st.ManifestURL, st.Manifest.Variants[st.VariantIdx].URI)
	}

	items := b.buildQueue(ctx, st)
	if len(items) == 0 {
		b.reply(ctx, chatID, "Nothing to download.")
		return
	}
	b.reply(ctx, chatID, fmt.Sprintf("Starting %d download(s). Audio: %s, subtitles: %s, burn-in: %s.",
		len(items), orDefault(st.AudioLang), yesNo(st.SubDownload), yesNo(st.BurnSubs)))

	sentAny := false
	for i, item := range items {
		if item.manifest == "" {
			b.reply(ctx, chatID, fmt.Sprintf("No manifest for %s, skipping.", item.title))
			continue
		}
		b.reply(ctx, chatID, fmt.Sprintf("(%d/%d) Downloading: %s", i+1, len(items), item.title))

		opts := download.Options{
			ManifestURL: item.manifest,
			Title:       item.title,
			Kind:        st.Kind,
			Season:      item.season,
			AudioLang:   st.AudioLang,
			SubLang:     st.SubLang,
			SubDownload: st.SubDownload,
			BurnSubs:    st.BurnSubs,
		}
		// The chosen variant only matches the exemplar manifest's layout.
		if item.manifest == st.ManifestURL {
			opts.VariantURI = variantURI
		}
		if st.Kind == media.Movie {
			opts.SeriesTitle = item.title
		} else {
			opts.SeriesTitle = strings.SplitN(item.title, " - ", 2)[0]
		}

		path, err := b.downloads.Run(ctx, opts)
		if err != nil {
			var toolErr *download.ToolError
			if errors.As(err, &toolErr) && toolErr.Path != "" {
				b.reply(ctx, chatID, fmt.Sprintf("Delivery failed for %s. Partial file at: %s", item.title, toolErr.Path))
			} else {
				b.reply(ctx, chatID, "Download failed for: "+item.title)
			}
			logrus.WithError(err).WithField("title", item.title).Error("download failed")
			continue
		}

		b.record(st, item, path)
		if b.deliver(ctx, chatID, path, item.title) {
			sentAny = true
		}
		time.Sleep(time.Second)
	}

	if sentAny {
		b.reply(ctx, chatID, "All done.")
	} else {
		b.reply(ctx, chatID, "No files were sent. Check the logs.")
	}
}

// buildQueue expands the session's selection into concrete download items,
// re-resolving per-episode manifests at download time.
func (b *Bot) buildQueue(ctx context.Context, st *session.State) []downloadItem {
	if st.Kind == media.Movie {
		title := "movie"
		if st.Chosen != nil {
			title = b.tmdb.Title(ctx, media.Movie, st.Chosen.ID, 0, 0)
		}
		return []downloadItem{{manifest: st.ManifestURL, title: title}}
	}

	var items []downloadItem
	for _, ref := range st.Episodes {
		manifest, err := b.vix.EpisodeManifest(ctx, st.Chosen.ID, ref.Season, ref.Episode)
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"season": ref.Season, "episode": ref.Episode,
			}).Debug("per-episode manifest extraction failed")
			manifest = ""
		}
		items = append(items, downloadItem{
			manifest: manifest,
			title:    b.tmdb.Title(ctx, media.TV, st.Chosen.ID, ref.Season, ref.Episode),
			season:   ref.Season,
			episode:  ref.Episode,
		})
	}
	return items
}

// deliver uploads a finished file, or reports its on-disk path when it is
// too large for the transport.
func (b *Bot) deliver(ctx context.Context, chatID int64, path, title string) bool {
	info, err := os.Stat(path)
	if err != nil {
		b.reply(ctx, chatID, "Download finished but the file is missing: "+path)
		return false
	}
	if info.Size() > telegram.MaxUploadSize {
		b.reply(ctx, chatID, fmt.Sprintf("%s is too large to upload. Saved at: %s", title, path))
		return false
	}
	if err := b.tg.UploadVideo(ctx, chatID, path, title); err != nil {
		logrus.WithError(err).Warn("video upload failed")
		b.reply(ctx, chatID, fmt.Sprintf("Could not send the file. Saved at: %s", path))
		return false
	}
	return true
}

// record writes a history entry for a completed download.
func (b *Bot) record(st *session.State, item downloadItem, path string) {
	if b.hist == nil || st.Chosen == nil {
		return
	}
	size := int64(0)
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}
	entry := media.DownloadEntry{
		ID:      st.Chosen.ID,
		Title:   item.title,
		Type:    st.Kind,
		Season:  item.season,
		Episode: item.episode,
		Path:    path,
		Size:    size,
	}
	if err := b.hist.Add(entry); err != nil {
		logrus.WithError(err).Warn("recording download history failed")
	}
}

func orDefault(s string) string {
	if s == "" {
		return "default"
	}
	return s
}

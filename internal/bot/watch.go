package bot

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"vixbot/internal/media"
	"vixbot/internal/session"
	"vixbot/internal/telegram"
)

// handleWatch is the quick-stream path: find the best title match, resolve
// stream candidates from its embed page and offer them as play buttons.
func (b *Bot) handleWatch(ctx context.Context, msg *telegram.Message, args []string) {
	if len(args) == 0 {
		b.reply(ctx, msg.Chat.ID, "Usage: /watch <title>")
		return
	}
	title := strings.Join(args, " ")
	b.reply(ctx, msg.Chat.ID, fmt.Sprintf("Searching for: %s ...", title))

	chosen, ok := b.bestMatch(ctx, title)
	if !ok {
		b.reply(ctx, msg.Chat.ID, "No catalog results found.")
		return
	}

	if chosen.Type == media.TV {
		st := session.NewState(media.TV)
		st.Step = session.StepEpisodeOrRange
		st.Watch = true
		st.Chosen = &chosen
		b.sessions.Put(msg.From.ID, st)
		b.reply(ctx, msg.Chat.ID,
			fmt.Sprintf("Found series: %s\nSend season and episode separated by a space (e.g. 1 1)", chosen.Title))
		return
	}

	pageURL := b.vix.MovieURL(chosen.ID)
	b.presentCandidates(ctx, msg.Chat.ID, pageURL, &chosen)
}

// bestMatch searches movies first, then series, returning the top result.
func (b *Bot) bestMatch(ctx context.Context, title string) (media.SearchResult, bool) {
	for _, kind := range []media.MediaType{media.Movie, media.TV} {
		results, err := b.tmdb.Search(ctx, kind, title)
		if err != nil {
			logrus.WithError(err).Debug("catalog search failed")
			continue
		}
		if len(results) > 0 {
			return results[0], true
		}
	}
	return media.SearchResult{}, false
}

// handleWatchEpisodeInput reads "<season> <episode>" for a series watch.
func (b *Bot) handleWatchEpisodeInput(ctx context.Context, msg *telegram.Message, st *session.State) {
	m := seasonEpisodeRe.FindStringSubmatch(msg.Text)
	if m == nil {
		b.reply(ctx, msg.Chat.ID, "Invalid format. Send: <season> <episode> (e.g. 1 1)")
		return
	}
	season, _ := strconv.Atoi(m[1])
	episode, _ := strconv.Atoi(m[2])
	b.clear(msg.From.ID)

	pageURL := b.vix.EpisodeURL(st.Chosen.ID, season, episode)
	b.presentCandidates(ctx, msg.Chat.ID, pageURL, st.Chosen)
}

// presentCandidates resolves an embed page and offers play buttons for the
// first dozen candidates plus a link to the page itself.
func (b *Bot) presentCandidates(ctx context.Context, chatID int64, pageURL string, info *media.SearchResult) {
	b.reply(ctx, chatID, "Extracting stream sources...")

	candidates, err := b.resolveCandidates(ctx, pageURL)
	if err != nil || len(candidates) == 0 {
		b.reply(ctx, chatID, "No sources found for this title.")
		return
	}

	shown := candidates
	if len(shown) > 12 {
		shown = shown[:12]
	}
	var rows [][]telegram.InlineKeyboardButton
	for _, c := range shown {
		label := c.Label
		if label == "" {
			label = c.URL
		}
		if len(label) > 39 {
			label = label[:36] + "..."
		}
		rows = append(rows, telegram.Row(telegram.InlineKeyboardButton{
			Text:         label,
			CallbackData: playPayload(c.URL, info.Title),
		}))
	}
	rows = append(rows, telegram.Row(telegram.InlineKeyboardButton{Text: "Open page", URL: pageURL}))
	kb := &telegram.InlineKeyboardMarkup{InlineKeyboard: rows}

	caption := fmt.Sprintf("%s\n\n%s", info.Title, truncate(info.Overview, 300))
	if info.Poster != "" {
		if err := b.tg.SendPhoto(ctx, chatID, info.Poster, caption); err != nil {
			logrus.WithError(err).Debug("sendPhoto failed")
		}
	} else {
		b.reply(ctx, chatID, caption)
	}
	if _, err := b.tg.SendMessage(ctx, chatID, "Pick a source to play:", kb); err != nil {
		logrus.WithError(err).Warn("sendMessage failed")
	}
}

var (
	resolvableURLRe = regexp.MustCompile(`/(sources|token|stream|ajax)/`)
	hlsURLRe        = regexp.MustCompile(`\.m3u8(\?|$)`)
)

// handlePlay delivers one chosen candidate: endpoint-style URLs are
// re-resolved first, HLS manifests go out as plain links, anything else is
// sent as a video with a link fallback.
func (b *Bot) handlePlay(ctx context.Context, cb *telegram.CallbackQuery) {
	videoURL, title, ok := parsePlayPayload(cb.Data)
	if !ok || videoURL == "" {
		b.editCallback(ctx, cb, "Invalid video URL.")
		return
	}
	chatID := cb.Message.Chat.ID

	finalURL := videoURL
	if resolvableURLRe.MatchString(videoURL) {
		if resolved := b.engine.Scan(ctx, videoURL); len(resolved) > 0 {
			finalURL = resolved[0].URL
		}
	}

	if hlsURLRe.MatchString(finalURL) {
		b.reply(ctx, chatID, "HLS link: "+finalURL)
	} else {
		caption := "Playing"
		if title != "" {
			caption = "Playing: " + title
		}
		if err := b.tg.SendVideo(ctx, chatID, finalURL, caption); err != nil {
			logrus.WithError(err).Warn("sendVideo failed")
			b.reply(ctx, chatID, "Could not send the video directly. Here is the link:\n"+finalURL)
		}
	}
	b.editCallback(ctx, cb, "Stream sent.")
}

// playPayload encodes a play callback. Telegram caps callback data at 64
// bytes; the title is dropped first, then the payload truncated, matching
// how buttons for very long URLs are allowed to degrade.
func playPayload(videoURL, title string) string {
	p := "play:" + url.QueryEscape(videoURL)
	if title != "" {
		withTitle := p + ":" + url.QueryEscape(title)
		if len(withTitle) <= 64 {
			return withTitle
		}
	}
	if len(p) > 64 {
		p = p[:64]
	}
	return p
}

func parsePlayPayload(data string) (videoURL, title string, ok bool) {
	if !strings.HasPrefix(data, "play:") {
		return "", "", false
	}
	parts := strings.SplitN(data, ":", 3)
	if len(parts) > 1 {
		if u, err := url.QueryUnescape(parts[1]); err == nil {
			videoURL = u
		}
	}
	if len(parts) > 2 {
		if t, err := url.QueryUnescape(parts[2]); err == nil {
			title = t
		}
	}
	return videoURL, title, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

package bot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"vixbot/internal/media"
	"vixbot/internal/resolve"
	"vixbot/internal/session"
	"vixbot/internal/telegram"
)

const helpText = `Commands:
/search <movie|tv> <title> - search the catalog and download
/watch <title> - quick search and stream a source link
/history - list recent downloads
/start - show this menu`

func (b *Bot) handleCommand(ctx context.Context, msg *telegram.Message) {
	fields := strings.Fields(msg.Text)
	cmd := strings.TrimPrefix(fields[0], "/")
	if i := strings.Index(cmd, "@"); i >= 0 {
		cmd = cmd[:i]
	}
	args := fields[1:]

	switch cmd {
	case "start":
		kb := &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
			telegram.Row(telegram.InlineKeyboardButton{Text: "Search movies/series", CallbackData: "MENU_SEARCH"}),
			telegram.Row(telegram.InlineKeyboardButton{Text: "Help", CallbackData: "MENU_HELP"}),
		}}
		if _, err := b.tg.SendMessage(ctx, msg.Chat.ID, "Hi! What would you like to do?", kb); err != nil {
			logrus.WithError(err).Warn("sendMessage failed")
		}

	case "search":
		b.handleSearch(ctx, msg, args)

	case "watch":
		b.handleWatch(ctx, msg, args)

	case "history":
		b.handleHistory(ctx, msg)

	default:
		b.reply(ctx, msg.Chat.ID, "Unknown command. Use /search to find content.")
	}
}

func (b *Bot) handleSearch(ctx context.Context, msg *telegram.Message, args []string) {
	if len(args) < 2 {
		b.reply(ctx, msg.Chat.ID, "Usage: /search <movie|tv> <title>")
		return
	}
	kind, ok := media.ParseMediaType(args[0])
	if !ok {
		b.reply(ctx, msg.Chat.ID, "First argument must be movie or tv.")
		return
	}
	title := strings.Join(args[1:], " ")

	results, err := b.tmdb.Search(ctx, kind, title)
	if err != nil {
		logrus.WithError(err).Error("catalog search failed")
		b.reply(ctx, msg.Chat.ID, "Search failed, try again later.")
		return
	}
	if len(results) == 0 {
		b.reply(ctx, msg.Chat.ID, "No results found.")
		return
	}
	if len(results) > 8 {
		results = results[:8]
	}

	st := session.NewState(kind)
	st.Step = session.StepTitleChoice
	st.Results = results
	b.sessions.Put(msg.From.ID, st)

	var rows [][]telegram.InlineKeyboardButton
	for i, r := range results {
		label := r.Title
		if r.Date != "" {
			label = fmt.Sprintf("%s (%s)", r.Title, r.Date)
		}
		rows = append(rows, telegram.Row(telegram.InlineKeyboardButton{
			Text:         label,
			CallbackData: fmt.Sprintf("TMDB|%d", i),
		}))
	}
	rows = append(rows, cancelRow())
	kb := &telegram.InlineKeyboardMarkup{InlineKeyboard: rows}
	if _, err := b.tg.SendMessage(ctx, msg.Chat.ID, "Pick a result:", kb); err != nil {
		logrus.WithError(err).Warn("sendMessage failed")
	}
}

func (b *Bot) handleHistory(ctx context.Context, msg *telegram.Message) {
	if b.hist == nil {
		b.reply(ctx, msg.Chat.ID, "History is not enabled.")
		return
	}
	entries, err := b.hist.Recent(10)
	if err != nil {
		logrus.WithError(err).Error("history query failed")
		b.reply(ctx, msg.Chat.ID, "Could not read history.")
		return
	}
	if len(entries) == 0 {
		b.reply(ctx, msg.Chat.ID, "No downloads yet.")
		return
	}
	var sb strings.Builder
	sb.WriteString("Recent downloads:\n")
	for _, e := range entries {
		if e.Type == media.TV {
			fmt.Fprintf(&sb, "- %s S%dE%d (%s)\n", e.Title, e.Season, e.Episode, e.CreatedAt.Format("2006-01-02"))
		} else {
			fmt.Fprintf(&sb, "- %s (%s)\n", e.Title, e.CreatedAt.Format("2006-01-02"))
		}
	}
	b.reply(ctx, msg.Chat.ID, sb.String())
}

var (
	seasonEpisodeRe = regexp.MustCompile(`^\s*(\d+)\s+(\d+)\s*$`)
)

// handleText routes free-form input according to the user's current step.
func (b *Bot) handleText(ctx context.Context, msg *telegram.Message) {
	st, ok := b.state(msg.From.ID)
	if !ok {
		b.reply(ctx, msg.Chat.ID, "Use /search or /watch to get started.")
		return
	}

	switch {
	case st.Step == session.StepEpisodeOrRange && st.Watch:
		b.handleWatchEpisodeInput(ctx, msg, st)
	case st.Step == session.StepEpisodeOrRange && st.Mode == session.ModeRange:
		b.handleRangeInput(ctx, msg, st)
	default:
		b.reply(ctx, msg.Chat.ID, "Use /search to get started.")
	}
}

// handleRangeInput reads "<start> <end>" and selects episodes in that span.
// Malformed input re-prompts without discarding the session.
func (b *Bot) handleRangeInput(ctx context.Context, msg *telegram.Message, st *session.State) {
	parts := strings.Fields(msg.Text)
	if len(parts) < 2 {
		b.reply(ctx, msg.Chat.ID, "Invalid format. Send: <start> <end>")
		return
	}
	start, err1 := strconv.Atoi(parts[0])
	end, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		b.reply(ctx, msg.Chat.ID, "Invalid numbers. Send: <start> <end>")
		return
	}

	var selected []session.EpisodeRef
	for _, ep := range st.Available {
		if ep.Number >= start && ep.Number <= end {
			selected = append(selected, session.EpisodeRef{Season: st.Season, Episode: ep.Number})
		}
	}
	if len(selected) == 0 {
		b.clear(msg.From.ID)
		b.reply(ctx, msg.Chat.ID, "No episodes in that range.")
		return
	}

	st.Episodes = selected
	st.ManifestURL = st.Available[0].Manifest
	b.sessions.Put(msg.From.ID, st)
	b.presentQuality(ctx, msg.Chat.ID, msg.From.ID, st)
}

// resolveCandidates runs the resolution engine over an embed page URL.
func (b *Bot) resolveCandidates(ctx context.Context, pageURL string) ([]media.Candidate, error) {
	candidates, err := b.engine.Resolve(ctx, pageURL)
	if err != nil && !errors.Is(err, resolve.ErrNoCandidates) {
		logrus.WithError(err).WithField("url", pageURL).Debug("resolve failed")
	}
	return candidates, err
}

func cancelRow() []telegram.InlineKeyboardButton {
	return telegram.Row(telegram.InlineKeyboardButton{Text: "Cancel", CallbackData: "CANCEL"})
}

// Package bot wires the Telegram transport to the catalog, the resolution
// engine and the downloader. Each update is handled end-to-end by one
// goroutine; per-user selection state lives in the session store.
package bot

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"vixbot/internal/config"
	"vixbot/internal/download"
	"vixbot/internal/history"
	"vixbot/internal/httputil"
	"vixbot/internal/resolve"
	"vixbot/internal/session"
	"vixbot/internal/telegram"
	"vixbot/internal/tmdb"
	"vixbot/internal/vixsrc"
)

// Bot is the long-polling dispatcher.
type Bot struct {
	tg        *telegram.Client
	tmdb      *tmdb.Client
	vix       *vixsrc.Client
	engine    *resolve.Engine
	sessions  session.Store
	downloads *download.Downloader
	hist      *history.Store
	cfg       *config.Config
	httpc     *http.Client
}

// New assembles a Bot from its collaborators. hist may be nil when history
// recording is disabled.
func New(tg *telegram.Client, catalog *tmdb.Client, vix *vixsrc.Client,
	engine *resolve.Engine, dl *download.Downloader, hist *history.Store,
	cfg *config.Config) *Bot {
	return &Bot{
		tg:        tg,
		tmdb:      catalog,
		vix:       vix,
		engine:    engine,
		sessions:  session.NewMemoryStore(),
		downloads: dl,
		hist:      hist,
		cfg:       cfg,
		httpc:     httputil.NewClient(15 * time.Second),
	}
}

// Run polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	pollTimeout := time.Duration(b.cfg.PollTimeout) * time.Second
	var offset int64

	logrus.Info("bot started, polling for updates")
	for {
		updates, err := b.tg.GetUpdates(ctx, offset, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logrus.WithError(err).Warn("getUpdates failed, retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(3 * time.Second):
			}
			continue
		}

		for _, up := range updates {
			if up.UpdateID >= offset {
				offset = up.UpdateID + 1
			}
			go b.handleUpdate(ctx, up)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, up telegram.Update) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("panic", r).Error("update handler panicked")
		}
	}()

	switch {
	case up.Message != nil && up.Message.From != nil:
		msg := up.Message
		if !b.cfg.Allowed(msg.From.ID) {
			b.reply(ctx, msg.Chat.ID, "Not authorized.")
			return
		}
		if strings.HasPrefix(msg.Text, "/") {
			b.handleCommand(ctx, msg)
		} else {
			b.handleText(ctx, msg)
		}

	case up.CallbackQuery != nil && up.CallbackQuery.From != nil:
		cb := up.CallbackQuery
		if err := b.tg.AnswerCallbackQuery(ctx, cb.ID); err != nil {
			logrus.WithError(err).Debug("answerCallbackQuery failed")
		}
		if !b.cfg.Allowed(cb.From.ID) {
			return
		}
		b.handleCallback(ctx, cb)
	}
}

// reply sends a plain message, logging delivery failures.
func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if _, err := b.tg.SendMessage(ctx, chatID, text, nil); err != nil {
		logrus.WithError(err).Warn("sendMessage failed")
	}
}

// edit rewrites a previously sent message, falling back to a fresh send.
func (b *Bot) edit(ctx context.Context, chatID, messageID int64, text string, kb *telegram.InlineKeyboardMarkup) {
	if err := b.tg.EditMessageText(ctx, chatID, messageID, text, kb); err != nil {
		logrus.WithError(err).Debug("editMessageText failed, sending new message")
		if _, err := b.tg.SendMessage(ctx, chatID, text, kb); err != nil {
			logrus.WithError(err).Warn("sendMessage failed")
		}
	}
}

// state returns the current session for a user, if any.
func (b *Bot) state(userID int64) (*session.State, bool) {
	return b.sessions.Get(userID)
}

// clear drops a user's session.
func (b *Bot) clear(userID int64) {
	b.sessions.Delete(userID)
}

// fetchManifestText downloads the HLS master manifest body.
func (b *Bot) fetchManifestText(ctx context.Context, manifestURL string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	return httputil.FetchText(reqCtx, b.httpc, manifestURL, "")
}

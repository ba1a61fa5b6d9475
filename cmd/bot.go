package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"vixbot/internal/bot"
	"vixbot/internal/config"
	"vixbot/internal/download"
	"vixbot/internal/history"
	"vixbot/internal/resolve"
	"vixbot/internal/telegram"
	"vixbot/internal/tmdb"
	"vixbot/internal/vixsrc"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Telegram bot (default command)",
	RunE:  botRun,
}

func botRun(cmd *cobra.Command, args []string) error {
	if cfg.BotToken == "" {
		return fmt.Errorf("bot token not set: export %s or add it to a .env file", config.EnvBotToken)
	}
	if cfg.TMDBAPIKey == "" {
		return fmt.Errorf("TMDB API key not set: export %s or add it to a .env file", config.EnvTMDBAPIKey)
	}

	downloadDir, err := cfg.ExpandDownloadDir()
	if err != nil {
		return fmt.Errorf("resolving download directory: %w", err)
	}

	var hist *history.Store
	if dbPath, err := config.HistoryDBPath(); err == nil {
		hist, err = history.Open(dbPath)
		if err != nil {
			logrus.WithError(err).Warn("history disabled, database unavailable")
			hist = nil
		}
	}
	if hist != nil {
		defer hist.Close()
	}

	vix := vixsrc.New(cfg.VixDomain, cfg.Language)
	engine := resolve.NewEngine(resolve.NewFetcher("https://"+cfg.VixDomain+"/"), newResolver())

	b := bot.New(
		telegram.NewClient(cfg.BotToken),
		tmdb.NewClient(cfg.TMDBAPIKey, cfg.Language, nil),
		vix,
		engine,
		download.New(downloadDir),
		hist,
		cfg,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := b.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("bot stopped: %w", err)
	}
	logrus.Info("bot shut down")
	return nil
}

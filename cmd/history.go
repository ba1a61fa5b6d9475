package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"vixbot/internal/config"
	"vixbot/internal/history"
	"vixbot/internal/media"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent downloads",
	RunE:  historyRun,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of entries to show")
}

func historyRun(cmd *cobra.Command, args []string) error {
	dbPath, err := config.HistoryDBPath()
	if err != nil {
		return fmt.Errorf("locating history database: %w", err)
	}
	store, err := history.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer store.Close()

	entries, err := store.Recent(historyLimit)
	if err != nil {
		return fmt.Errorf("reading history: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("No download history.")
		return nil
	}

	for _, e := range entries {
		when := e.CreatedAt.Format("2006-01-02 15:04")
		if e.Type == media.TV {
			fmt.Printf("%s  %s S%dE%d\n    %s\n", when, e.Title, e.Season, e.Episode, e.Path)
		} else {
			fmt.Printf("%s  %s\n    %s\n", when, e.Title, e.Path)
		}
	}
	return nil
}

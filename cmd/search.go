package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"vixbot/internal/config"
	"vixbot/internal/media"
	"vixbot/internal/tmdb"
)

var searchCmd = &cobra.Command{
	Use:   "search <movie|tv> <title>",
	Short: "Search the TMDB catalog",
	Args:  cobra.MinimumNArgs(2),
	RunE:  searchRun,
}

func searchRun(cmd *cobra.Command, args []string) error {
	kind, ok := media.ParseMediaType(args[0])
	if !ok {
		return fmt.Errorf("first argument must be movie or tv, got %q", args[0])
	}
	if cfg.TMDBAPIKey == "" {
		return fmt.Errorf("TMDB API key not set: export %s or add it to a .env file", config.EnvTMDBAPIKey)
	}

	query := strings.Join(args[1:], " ")
	catalog := tmdb.NewClient(cfg.TMDBAPIKey, cfg.Language, nil)

	results, err := catalog.Search(cmd.Context(), kind, query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	for _, r := range results {
		date := r.Date
		if date == "" {
			date = "unknown"
		}
		fmt.Printf("%8d  %-6s  %s (%s)\n", r.ID, r.Type, r.Title, date)
	}
	return nil
}

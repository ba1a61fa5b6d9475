package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vixbot/internal/resolve"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <page-url>",
	Short: "Run the resolution pipeline against an embed page",
	Args:  cobra.ExactArgs(1),
	RunE:  resolveRun,
}

func resolveRun(cmd *cobra.Command, args []string) error {
	engine := resolve.NewEngine(resolve.NewFetcher("https://"+cfg.VixDomain+"/"), newResolver())

	candidates, err := engine.Resolve(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("resolving %s: %w", args[0], err)
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(candidates)
	}

	for _, c := range candidates {
		fmt.Printf("%-20s %s\n", c.Label, c.URL)
	}
	return nil
}

// newResolver returns the dynamic fallback client, or nil when no resolver
// service is configured.
func newResolver() resolve.DynamicResolver {
	if cfg.ResolverBase == "" {
		return nil
	}
	return resolve.NewRenderService(cfg.ResolverBase)
}

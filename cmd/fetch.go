package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/nestbox/internal/usecase"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetches active repositories once and outputs them as JSON",
	Long:  `Runs a single fetch for the configured organization and prints the recently active repositories, with a summary, in JSON format.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg, logger := loadSettings(cmd)

		collector := usecase.NewCollector(newGateway(cfg, logger), logger)
		repos, err := collector.ActiveRepositories(ctx, cfg.Organization, cfg.StaleDays)
		if err != nil {
			fail("Failed to fetch repositories: %v", err)
		}

		now := time.Now().UTC()
		report := usecase.Report{
			Organization: cfg.Organization,
			GeneratedAt:  now,
			StaleDays:    cfg.StaleDays,
			Repositories: repos,
			Summary:      usecase.Summarize(repos, now),
		}

		// Marshal the results into a pretty-printed JSON string.
		jsonData, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			fail("Failed to marshal results to JSON: %v", err)
		}
		fmt.Println(string(jsonData))
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}

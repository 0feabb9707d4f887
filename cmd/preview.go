package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/nestbox/internal/render"
	"github.com/naka-gawa/nestbox/internal/usecase"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Prints the frames of one pass to the terminal",
	Long:  `Fetches once and prints the content of every frame as a terminal card instead of driving the panel. Useful while adjusting the config on a workstation.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg, logger := loadSettings(cmd)
		width, _ := cmd.Flags().GetInt("width")

		collector := usecase.NewCollector(newGateway(cfg, logger), logger)
		repos, err := collector.ActiveRepositories(ctx, cfg.Organization, cfg.StaleDays)
		if err != nil {
			fail("Failed to fetch repositories: %v", err)
		}
		if len(repos) == 0 {
			fmt.Printf("No repositories in %s with commits in the last %d days.\n", cfg.Organization, cfg.StaleDays)
			return
		}

		now := time.Now()
		for _, repo := range repos {
			fmt.Println(render.Card(repo, now, width, render.DefaultMaxLines))
		}
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().Int("width", 60, "Card width in terminal columns")
}

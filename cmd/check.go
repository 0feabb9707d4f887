package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/nestbox/internal/gateway"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verifies the token and organization against the GitHub API",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		cfg, logger := loadSettings(cmd)

		if cfg.Token == "" {
			fmt.Fprintln(os.Stderr, "Warning: GITHUB_TOKEN environment variable is not set.")
		}
		var inspector gateway.Inspector = newGateway(cfg, logger)

		var org *gateway.OrgInfo
		var rate *gateway.RateInfo

		// Both lookups are independent, so run them concurrently.
		eg, egCtx := errgroup.WithContext(ctx)
		eg.Go(func() error {
			var err error
			org, err = inspector.LookupOrganization(egCtx, cfg.Organization)
			return err
		})
		eg.Go(func() error {
			var err error
			rate, err = inspector.RateLimit(egCtx)
			return err
		})
		if err := eg.Wait(); err != nil {
			fail("Check failed: %v", err)
		}

		fmt.Printf("organization: %s (%s), %d public repositories\n", org.Login, org.Name, org.PublicRepos)
		fmt.Printf("graphql quota: %d/%d, resets %s\n", rate.Remaining, rate.Limit, rate.ResetAt.Local().Format(time.RFC1123))
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

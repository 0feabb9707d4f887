// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/naka-gawa/nestbox/internal/config"
	"github.com/naka-gawa/nestbox/internal/gateway"
)

var rootCmd = &cobra.Command{
	Use:   "nestbox",
	Short: "An e-paper dashboard for GitHub organization activity.",
	Long: `nestbox polls GitHub for the public repositories of an organization and
shows each recently active one on an e-paper panel: open issues, open pull
requests, stars and the latest commit on the default branch.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file (default ./"+config.DefaultFile+" if present)")
	rootCmd.PersistentFlags().StringP("org", "o", "", "GitHub organization to show")
	rootCmd.PersistentFlags().Int("stale-days", 0, "Hide repositories without commits in this many days")
	rootCmd.PersistentFlags().String("device", "", "Display device model, e.g. epd4in2_V2")
}

// fail prints an error and terminates the process.
func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// loadSettings merges the config file, the environment and the command line flags.
func loadSettings(cmd *cobra.Command) (config.Config, *logrus.Logger) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		fail("Failed to load config: %v", err)
	}

	flags := cmd.Flags()
	if flags.Changed("org") {
		cfg.Organization, _ = flags.GetString("org")
	}
	if flags.Changed("stale-days") {
		cfg.StaleDays, _ = flags.GetInt("stale-days")
	}
	if flags.Changed("device") {
		cfg.Device, _ = flags.GetString("device")
	}
	if err := cfg.Validate(); err != nil {
		fail("Invalid config: %v", err)
	}

	verbose, _ := flags.GetBool("verbose")
	return cfg, newLogger(cfg.LogLevel, verbose)
}

func newLogger(level string, verbose bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logger.WithField("log_level", level).Warn("unknown log level, using info")
		lvl = logrus.InfoLevel
	}
	if verbose {
		lvl = logrus.DebugLevel
	}
	logger.SetLevel(lvl)
	return logger
}

func newGateway(cfg config.Config, logger *logrus.Logger) *gateway.GitHubGateway {
	gw, err := gateway.NewGitHubGateway(gateway.Options{
		Token:      cfg.Token,
		GraphQLURL: cfg.GraphQLURL,
		RESTURL:    cfg.RESTURL,
		Timeout:    cfg.Timeout,
	}, logger)
	if err != nil {
		fail("Failed to create GitHub gateway: %v", err)
	}
	return gw
}

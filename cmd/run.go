package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/nestbox/internal/display"
	"github.com/naka-gawa/nestbox/internal/render"
	"github.com/naka-gawa/nestbox/internal/usecase"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Shows active repositories on the e-paper panel until interrupted",
	Long: `Fetches the organization's recently active repositories, writes one frame
per repository to the panel with a pause between frames, then fetches again.
SIGINT and SIGTERM stop the loop after the current step.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, logger := loadSettings(cmd)

		device, err := display.LookupDevice(cfg.Device)
		if err != nil {
			fail("Unsupported device %q (supported: %v)", cfg.Device, display.Models())
		}
		layout, err := render.NewLayout(device.Bounds(), render.Options{
			FontPath: cfg.FontPath,
			ImageDir: cfg.ImageDir,
		})
		if err != nil {
			fail("Failed to prepare layout: %v", err)
		}
		defer layout.Close()

		panel, err := display.NewFilePanel(device, cfg.OutputPath, logger)
		if err != nil {
			fail("Failed to open panel: %v", err)
		}

		collector := usecase.NewCollector(newGateway(cfg, logger), logger)
		runner := usecase.NewRunner(collector, layout, panel, usecase.RunnerConfig{
			Organization: cfg.Organization,
			StaleDays:    cfg.StaleDays,
			Interval:     cfg.Interval,
		}, logger)

		logger.WithField("org", cfg.Organization).WithField("device", device.Model).Info("starting dashboard")
		if err := runner.Run(ctx); err != nil {
			logger.WithError(err).Error("dashboard stopped")
			os.Exit(1)
		}
		logger.Info("dashboard stopped")
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

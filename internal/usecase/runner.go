package usecase

import (
	"context"
	"image"
	"time"

	"emperror.dev/errors"
	"github.com/sirupsen/logrus"

	"github.com/naka-gawa/nestbox/internal/domain"
)

// Source lists the repositories to show during one pass.
type Source interface {
	ActiveRepositories(ctx context.Context, org string, staleDays int) ([]domain.RepoSummary, error)
}

// Composer lays a repository out as one frame.
type Composer interface {
	Compose(repo domain.RepoSummary, now time.Time) (image.Image, error)
}

// Panel is the display a frame is written to.
type Panel interface {
	Write(ctx context.Context, frame image.Image) error
}

// RunnerConfig holds the fixed parameters of the display loop.
type RunnerConfig struct {
	Organization string
	StaleDays    int
	// Interval is the pause after every frame.
	Interval time.Duration
}

// Runner drives the fetch-then-render loop. It owns its composer and
// panel exclusively for as long as Run executes.
type Runner struct {
	source   Source
	composer Composer
	panel    Panel
	cfg      RunnerConfig
	logger   logrus.FieldLogger
	now      func() time.Time
}

// NewRunner creates a new Runner instance.
func NewRunner(source Source, composer Composer, panel Panel, cfg RunnerConfig, logger logrus.FieldLogger) *Runner {
	return &Runner{
		source:   source,
		composer: composer,
		panel:    panel,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Run shows every active repository in turn, re-fetching after each full
// pass, until ctx is cancelled. Cancellation returns nil; any fetch,
// compose or panel error stops the loop and is returned.
func (r *Runner) Run(ctx context.Context) error {
	for {
		repos, err := r.source.ActiveRepositories(ctx, r.cfg.Organization, r.cfg.StaleDays)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "failed to fetch repositories")
		}

		if len(repos) == 0 {
			r.logger.WithField("org", r.cfg.Organization).Info("no recently active repositories")
			if !r.pause(ctx) {
				return nil
			}
			continue
		}

		for _, repo := range repos {
			if err := r.show(ctx, repo); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			r.logger.Info("sleeping...")
			if !r.pause(ctx) {
				return nil
			}
		}
	}
}

func (r *Runner) show(ctx context.Context, repo domain.RepoSummary) error {
	frame, err := r.composer.Compose(repo, r.now())
	if err != nil {
		return errors.Wrapf(err, "failed to compose frame for %s", repo.Name)
	}
	if err := r.panel.Write(ctx, frame); err != nil {
		return errors.Wrapf(err, "failed to write frame for %s", repo.Name)
	}
	r.logger.WithFields(logrus.Fields{
		"repo":  repo.Name,
		"stars": repo.StarCount,
	}).Info("frame written")
	return nil
}

// pause waits one interval and reports false if ctx ended first.
func (r *Runner) pause(ctx context.Context) bool {
	timer := time.NewTimer(r.cfg.Interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

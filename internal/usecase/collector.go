// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"time"

	"emperror.dev/errors"
	"github.com/sirupsen/logrus"

	"github.com/naka-gawa/nestbox/internal/domain"
	"github.com/naka-gawa/nestbox/internal/gateway"
)

const (
	// ErrInvalidOrganization is returned when no organization name is given.
	ErrInvalidOrganization = errors.Sentinel("organization name must not be empty")
	// ErrInvalidStaleDays is returned for a non-positive staleness window.
	ErrInvalidStaleDays = errors.Sentinel("stale days must be positive")
)

// Collector is the use case for listing recently active repositories.
type Collector struct {
	fetcher gateway.Fetcher
	logger  logrus.FieldLogger
	now     func() time.Time
}

// NewCollector creates a new Collector instance.
func NewCollector(fetcher gateway.Fetcher, logger logrus.FieldLogger) *Collector {
	return &Collector{
		fetcher: fetcher,
		logger:  logger,
		now:     time.Now,
	}
}

// ActiveRepositories fetches the repositories of org and drops every one
// whose last commit is older than staleDays days. The order returned by
// the fetcher is kept.
func (c *Collector) ActiveRepositories(ctx context.Context, org string, staleDays int) ([]domain.RepoSummary, error) {
	if org == "" {
		return nil, ErrInvalidOrganization
	}
	if staleDays <= 0 {
		return nil, errors.WithDetails(ErrInvalidStaleDays, "stale_days", staleDays)
	}

	repos, err := c.fetcher.FetchRepositories(ctx, org)
	if err != nil {
		return nil, err
	}

	cutoff := c.now().Add(-time.Duration(staleDays) * 24 * time.Hour)
	active := FilterActive(repos, cutoff)

	c.logger.WithFields(logrus.Fields{
		"org":    org,
		"cutoff": cutoff.Format(time.RFC3339),
	}).Debugf("%d repos with recent commits", len(active))
	return active, nil
}

// FilterActive keeps the repositories committed to at or after cutoff.
func FilterActive(repos []domain.RepoSummary, cutoff time.Time) []domain.RepoSummary {
	active := make([]domain.RepoSummary, 0, len(repos))
	for _, repo := range repos {
		if repo.LastCommitAt.Before(cutoff) {
			continue
		}
		active = append(active, repo)
	}
	return active
}

package usecase

import (
	"time"

	"github.com/montanaflynn/stats"

	"github.com/naka-gawa/nestbox/internal/domain"
)

// Report is the machine readable result of a single fetch.
type Report struct {
	Organization string               `json:"organization"`
	GeneratedAt  time.Time            `json:"generated_at"`
	StaleDays    int                  `json:"stale_days"`
	Repositories []domain.RepoSummary `json:"repositories"`
	Summary      Summary              `json:"summary"`
}

// Summary aggregates a list of active repositories.
type Summary struct {
	Count             int     `json:"count"`
	TotalStars        int     `json:"total_stars"`
	OpenIssues        int     `json:"open_issues"`
	OpenPullRequests  int     `json:"open_pull_requests"`
	MedianCommitHours float64 `json:"median_commit_age_hours"`
	MeanCommitHours   float64 `json:"mean_commit_age_hours"`
}

// Summarize totals the counters of repos and the spread of their commit ages at now.
func Summarize(repos []domain.RepoSummary, now time.Time) Summary {
	s := Summary{Count: len(repos)}
	if len(repos) == 0 {
		return s
	}

	ages := make(stats.Float64Data, 0, len(repos))
	for _, repo := range repos {
		s.TotalStars += repo.StarCount
		s.OpenIssues += repo.IssueCount
		s.OpenPullRequests += repo.PullRequestCount
		ages = append(ages, repo.CommitAge(now).Hours())
	}

	// Errors only occur for empty input, which is handled above.
	s.MedianCommitHours, _ = stats.Median(ages)
	s.MeanCommitHours, _ = stats.Mean(ages)
	s.MedianCommitHours, _ = stats.Round(s.MedianCommitHours, 1)
	s.MeanCommitHours, _ = stats.Round(s.MeanCommitHours, 1)
	return s
}

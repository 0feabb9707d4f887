// Package render turns a repository summary into the text and bitmap shown on the panel.
package render

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/naka-gawa/nestbox/internal/domain"
)

// Contents is the text of every block of one frame.
type Contents struct {
	Title            string
	IssueCount       string
	PullRequestCount string
	StarCount        string
	LastCommit       string
	Message          string
}

// NewContents fills the layout blocks for repo as seen at now.
func NewContents(repo domain.RepoSummary, now time.Time) Contents {
	return Contents{
		Title:            repo.Name,
		IssueCount:       FormatCount(repo.IssueCount),
		PullRequestCount: FormatCount(repo.PullRequestCount),
		StarCount:        FormatCount(repo.StarCount),
		LastCommit:       fmt.Sprintf("%s - %s", repo.LastCommitHash, FormatAge(repo.LastCommitAt, now)),
		Message:          fmt.Sprintf("%s - %s", repo.LastCommitAuthor, repo.LastCommitMessage),
	}
}

// FormatCount renders n with thousands separators, e.g. 1234 as "1,234".
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// FormatAge renders how long before now then was, e.g. "3 days ago".
func FormatAge(then, now time.Time) string {
	return humanize.RelTime(then, now, "ago", "from now")
}

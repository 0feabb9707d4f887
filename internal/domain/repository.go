// Package domain contains the core data structures and domain logic for the application.
package domain

import "time"

// ShortHashLength is the number of leading commit id characters shown on the panel.
const ShortHashLength = 7

// RepoSummary holds the activity of a single repository as of one fetch.
// It is the core domain entity of this application.
type RepoSummary struct {
	Name              string    `json:"name"`
	IssueCount        int       `json:"issue_count"`
	PullRequestCount  int       `json:"pull_request_count"`
	StarCount         int       `json:"star_count"`
	LastCommitAt      time.Time `json:"last_commit_at"`
	LastCommitHash    string    `json:"last_commit_hash"`
	LastCommitMessage string    `json:"last_commit_message"`
	LastCommitAuthor  string    `json:"last_commit_author"`
}

// CommitAge returns how long ago the last commit was made, relative to now.
func (r RepoSummary) CommitAge(now time.Time) time.Duration {
	return now.Sub(r.LastCommitAt)
}

// ShortHash truncates a commit id to ShortHashLength characters.
// Shorter ids are returned unchanged.
func ShortHash(oid string) string {
	if len(oid) <= ShortHashLength {
		return oid
	}
	return oid[:ShortHashLength]
}

// AuthorLabel prefers the platform handle of a commit author over the
// free-text name recorded in the commit.
func AuthorLabel(login, name string) string {
	if login != "" {
		return "@" + login
	}
	return name
}

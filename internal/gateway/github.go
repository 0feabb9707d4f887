// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"net/http"
	"time"

	"emperror.dev/errors"
	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/naka-gawa/nestbox/internal/domain"
)

// RepositoryPageSize is the number of repositories requested per query.
const RepositoryPageSize = 100

// ErrNoCommits is returned for a repository without a default branch or
// without any commit on it.
const ErrNoCommits = errors.Sentinel("repository has no commits on its default branch")

// Fetcher defines the behavior of a gateway for fetching repository activity from GitHub.
type Fetcher interface {
	FetchRepositories(ctx context.Context, org string) ([]domain.RepoSummary, error)
}

// Inspector reports on the credential and organization a gateway is configured for.
type Inspector interface {
	LookupOrganization(ctx context.Context, org string) (*OrgInfo, error)
	RateLimit(ctx context.Context) (*RateInfo, error)
}

// OrgInfo is the subset of organization metadata shown by the check command.
type OrgInfo struct {
	Login       string `json:"login"`
	Name        string `json:"name"`
	PublicRepos int    `json:"public_repos"`
}

// RateInfo is the remaining GraphQL quota of the configured token.
type RateInfo struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
}

// Options configures NewGitHubGateway.
type Options struct {
	Token string
	// GraphQLURL overrides the public GraphQL endpoint, e.g. for GitHub Enterprise.
	GraphQLURL string
	// RESTURL overrides the public REST endpoint.
	RESTURL string
	Timeout time.Duration
}

// GitHubGateway is the concrete implementation of the Fetcher and Inspector interfaces.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        logrus.FieldLogger
}

type commitNode struct {
	CommittedDate githubv4.DateTime
	Oid           string
	Message       string
	Author        struct {
		User struct {
			Login string
		}
		Name string
	}
}

type repositoryNode struct {
	Name   string
	Issues struct {
		TotalCount int
	} `graphql:"issues(states: OPEN)"`
	PullRequests struct {
		TotalCount int
	} `graphql:"pullRequests(states: OPEN)"`
	StargazerCount   int
	DefaultBranchRef struct {
		Target struct {
			Commit struct {
				History struct {
					Edges []struct {
						Node commitNode
					}
				} `graphql:"history(first: 1)"`
			} `graphql:"... on Commit"`
		}
	}
}

// orgRepositoriesQuery asks for the public repositories of an organization
// together with the newest commit on each default branch.
type orgRepositoriesQuery struct {
	Organization struct {
		Repositories struct {
			Edges []struct {
				Node repositoryNode
			}
		} `graphql:"repositories(first: $numRepos, privacy: PUBLIC)"`
	} `graphql:"organization(login: $organization)"`
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(opts Options, logger logrus.FieldLogger) (*GitHubGateway, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create rate limit waiter")
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
	httpClient := &http.Client{
		Timeout: opts.Timeout,
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}

	graphqlClient := githubv4.NewClient(httpClient)
	if opts.GraphQLURL != "" {
		graphqlClient = githubv4.NewEnterpriseClient(opts.GraphQLURL, httpClient)
	}
	restClient := github.NewClient(httpClient)
	if opts.RESTURL != "" {
		restClient, err = restClient.WithEnterpriseURLs(opts.RESTURL, opts.RESTURL)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid REST endpoint %q", opts.RESTURL)
		}
	}

	return &GitHubGateway{
		restClient:    restClient,
		graphqlClient: graphqlClient,
		logger:        logger,
	}, nil
}

// FetchRepositories returns one summary per public repository of org, in
// the order GitHub lists them. Repositories without commits are skipped.
func (g *GitHubGateway) FetchRepositories(ctx context.Context, org string) ([]domain.RepoSummary, error) {
	variables := map[string]interface{}{
		"organization": githubv4.String(org),
		"numRepos":     githubv4.Int(RepositoryPageSize),
	}

	var q orgRepositoriesQuery
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return nil, errors.Wrapf(err, "failed to query repositories of %s", org)
	}

	edges := q.Organization.Repositories.Edges
	g.logger.WithField("org", org).Debugf("%d repos in GitHub response", len(edges))

	repos := make([]domain.RepoSummary, 0, len(edges))
	for _, edge := range edges {
		repo, err := toSummary(edge.Node)
		if err != nil {
			if errors.Is(err, ErrNoCommits) {
				g.logger.WithField("repo", edge.Node.Name).Warn("skipping repository without commits")
				continue
			}
			return nil, err
		}
		repos = append(repos, repo)
	}
	return repos, nil
}

func toSummary(node repositoryNode) (domain.RepoSummary, error) {
	history := node.DefaultBranchRef.Target.Commit.History.Edges
	if len(history) == 0 {
		return domain.RepoSummary{}, errors.WithDetails(ErrNoCommits, "repo", node.Name)
	}
	commit := history[0].Node

	return domain.RepoSummary{
		Name:              node.Name,
		IssueCount:        node.Issues.TotalCount,
		PullRequestCount:  node.PullRequests.TotalCount,
		StarCount:         node.StargazerCount,
		LastCommitAt:      commit.CommittedDate.UTC(),
		LastCommitHash:    domain.ShortHash(commit.Oid),
		LastCommitMessage: commit.Message,
		LastCommitAuthor:  domain.AuthorLabel(commit.Author.User.Login, commit.Author.Name),
	}, nil
}

// LookupOrganization fetches organization metadata through the REST API.
func (g *GitHubGateway) LookupOrganization(ctx context.Context, org string) (*OrgInfo, error) {
	o, _, err := g.restClient.Organizations.Get(ctx, org)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to look up organization %s", org)
	}
	return &OrgInfo{
		Login:       o.GetLogin(),
		Name:        o.GetName(),
		PublicRepos: o.GetPublicRepos(),
	}, nil
}

// RateLimit reports the GraphQL quota left for the configured token.
func (g *GitHubGateway) RateLimit(ctx context.Context) (*RateInfo, error) {
	limits, _, err := g.restClient.RateLimit.Get(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch rate limit")
	}
	rate := limits.GetGraphQL()
	if rate == nil {
		return nil, errors.New("rate limit response has no graphql quota")
	}
	return &RateInfo{
		Limit:     rate.Limit,
		Remaining: rate.Remaining,
		ResetAt:   rate.Reset.Time,
	}, nil
}

// Package github talks to the GitHub REST API via the go-github library,
// mapping API types onto the review domain model.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/reviewbot/prr/internal/adapter/httpx"
	"github.com/reviewbot/prr/internal/config"
	"github.com/reviewbot/prr/internal/domain"
)

const serviceName = "github"

// Client wraps go-github for the single repository under review.
type Client struct {
	gh     *gh.Client
	owner  string
	repo   string
	logger httpx.Logger
}

// NewClient creates a GitHub client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with PAT auth)
func NewClient(cfg config.GitHubConfig) (*Client, error) {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient).WithAuthToken(cfg.Token)

	if cfg.BaseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parsing github base URL: %w", err)
		}
		client.BaseURL = u
	}

	return &Client{gh: client, owner: cfg.Owner, repo: cfg.Repo}, nil
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base
// URL. This constructor is intended for testing, allowing injection of an
// httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, owner, repo string) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &Client{gh: client, owner: owner, repo: repo}, nil
}

// SetLogger wires a structured logger into the client.
func (c *Client) SetLogger(logger httpx.Logger) {
	c.logger = logger
}

// Repository returns the owner/repo slug the client is bound to.
func (c *Client) Repository() string {
	return c.owner + "/" + c.repo
}

// GetPullRequest fetches a single pull request by number.
func (c *Client) GetPullRequest(ctx context.Context, number int) (*domain.PullRequest, error) {
	pr, resp, err := c.gh.PullRequests.Get(ctx, c.owner, c.repo, number)
	if err != nil {
		return nil, mapAPIError(fmt.Sprintf("fetching PR #%d", number), err)
	}
	c.logRateLimit(ctx, fmt.Sprintf("pulls/%d", number), resp, 1)

	mapped := mapPullRequest(pr)
	return &mapped, nil
}

// ListOpenPullRequests returns all open pull requests, oldest first, so a
// capped --all run reviews the PRs that have waited longest. Pagination is
// handled automatically.
func (c *Client) ListOpenPullRequests(ctx context.Context) ([]domain.PullRequest, error) {
	opts := &gh.PullRequestListOptions{
		State:       "open",
		Sort:        "created",
		Direction:   "asc",
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	var all []domain.PullRequest
	for {
		prs, resp, err := c.gh.PullRequests.List(ctx, c.owner, c.repo, opts)
		if err != nil {
			return nil, mapAPIError(fmt.Sprintf("listing open PRs (page %d)", opts.Page), err)
		}
		c.logRateLimit(ctx, "pulls", resp, len(prs))

		for _, pr := range prs {
			all = append(all, mapPullRequest(pr))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// ListFiles returns the changed files of a pull request, with patches.
// Pagination is handled automatically.
func (c *Client) ListFiles(ctx context.Context, number int) ([]domain.ChangedFile, error) {
	opts := &gh.ListOptions{PerPage: 100}

	var files []domain.ChangedFile
	for {
		commitFiles, resp, err := c.gh.PullRequests.ListFiles(ctx, c.owner, c.repo, number, opts)
		if err != nil {
			return nil, mapAPIError(fmt.Sprintf("listing files for PR #%d (page %d)", number, opts.Page), err)
		}
		c.logRateLimit(ctx, fmt.Sprintf("pulls/%d/files", number), resp, len(commitFiles))

		for _, cf := range commitFiles {
			files = append(files, mapChangedFile(cf))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return files, nil
}

// GetFileContent fetches the full content of a file at the given ref.
func (c *Client) GetFileContent(ctx context.Context, path, ref string) (string, error) {
	fileContent, _, resp, err := c.gh.Repositories.GetContents(ctx, c.owner, c.repo, path,
		&gh.RepositoryContentGetOptions{Ref: ref})
	if err != nil {
		return "", mapAPIError(fmt.Sprintf("fetching content of %s@%s", path, ref), err)
	}
	c.logRateLimit(ctx, "contents/"+path, resp, 1)

	if fileContent == nil {
		return "", fmt.Errorf("%s is a directory, not a file", path)
	}

	content, err := fileContent.GetContent()
	if err != nil {
		return "", fmt.Errorf("decoding content of %s: %w", path, err)
	}
	return content, nil
}

// mapPullRequest converts a go-github PullRequest to the domain type. It uses
// GetXxx() helper methods exclusively to avoid nil pointer panics.
func mapPullRequest(pr *gh.PullRequest) domain.PullRequest {
	return domain.PullRequest{
		Number:  pr.GetNumber(),
		Title:   pr.GetTitle(),
		Author:  pr.GetUser().GetLogin(),
		State:   pr.GetState(),
		BaseRef: pr.GetBase().GetRef(),
		HeadRef: pr.GetHead().GetRef(),
		HeadSHA: pr.GetHead().GetSHA(),
		HTMLURL: pr.GetHTMLURL(),
	}
}

// mapChangedFile converts a go-github CommitFile to the domain type.
func mapChangedFile(cf *gh.CommitFile) domain.ChangedFile {
	return domain.ChangedFile{
		Path:      cf.GetFilename(),
		OldPath:   cf.GetPreviousFilename(),
		Status:    cf.GetStatus(),
		Patch:     cf.GetPatch(),
		Additions: cf.GetAdditions(),
		Deletions: cf.GetDeletions(),
	}
}

// logRateLimit records the GitHub API rate limit status after each call.
func (c *Client) logRateLimit(ctx context.Context, endpoint string, resp *gh.Response, count int) {
	if c.logger == nil || resp == nil {
		return
	}

	c.logger.LogDebug(ctx, "github api call", map[string]interface{}{
		"endpoint":       endpoint,
		"count":          count,
		"rate_remaining": resp.Rate.Remaining,
		"rate_limit":     resp.Rate.Limit,
	})

	if resp.Rate.Limit > 0 && resp.Rate.Remaining < 100 {
		c.logger.LogWarning(ctx, "github rate limit low", map[string]interface{}{
			"remaining": resp.Rate.Remaining,
			"reset_in":  time.Until(resp.Rate.Reset.Time).Round(time.Second).String(),
		})
	}
}

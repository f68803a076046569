package github

import (
	"context"
	"fmt"

	gh "github.com/google/go-github/v82/github"

	"github.com/reviewbot/prr/internal/domain"
)

// PostIssueComment adds a PR-level comment via the Issues API.
func (c *Client) PostIssueComment(ctx context.Context, number int, body string) error {
	comment := &gh.IssueComment{Body: gh.Ptr(body)}
	_, resp, err := c.gh.Issues.CreateComment(ctx, c.owner, c.repo, number, comment)
	if err != nil {
		return mapAPIError(fmt.Sprintf("commenting on PR #%d", number), err)
	}
	c.logRateLimit(ctx, fmt.Sprintf("issues/%d/comments", number), resp, 1)
	return nil
}

// CreateReview submits a review with an optional set of inline comments.
// event must be APPROVE, REQUEST_CHANGES, or COMMENT.
func (c *Client) CreateReview(ctx context.Context, number int, event, body string, comments []domain.InlineComment) error {
	review := &gh.PullRequestReviewRequest{
		Event: gh.Ptr(event),
		Body:  gh.Ptr(body),
	}

	for _, ic := range comments {
		review.Comments = append(review.Comments, &gh.DraftReviewComment{
			Path: gh.Ptr(ic.Path),
			Line: gh.Ptr(ic.Line),
			Side: gh.Ptr("RIGHT"),
			Body: gh.Ptr(ic.Body),
		})
	}

	_, resp, err := c.gh.PullRequests.CreateReview(ctx, c.owner, c.repo, number, review)
	if err != nil {
		return mapAPIError(fmt.Sprintf("creating review on PR #%d", number), err)
	}
	c.logRateLimit(ctx, fmt.Sprintf("pulls/%d/reviews", number), resp, 1)
	return nil
}

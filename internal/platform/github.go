package platform

import (
	"context"
	"fmt"

	"github.com/XiaoConstantine/dspy-go/pkg/logging"
	"github.com/XiaoConstantine/scrutiny/internal/diff"
	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
)

// GitHubAdapter reviews pull requests through the GitHub REST API.
// Comments anchor by ordinal position within the diff body.
type GitHubAdapter struct {
	client   *github.Client
	owner    string
	repo     string
	prNumber int
}

// NewGitHub creates an authenticated adapter for one pull request.
func NewGitHub(ctx context.Context, token, owner, repo string, prNumber int) *GitHubAdapter {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	return &GitHubAdapter{
		client:   github.NewClient(tc),
		owner:    owner,
		repo:     repo,
		prNumber: prNumber,
	}
}

func (g *GitHubAdapter) Name() string { return "github" }

func (g *GitHubAdapter) Capabilities() Capabilities {
	return Capabilities{
		SupportsReactions:    true,
		SupportsReviewStates: true,
		SupportsCaching:      true,
		SupportsAutoFixPR:    true,
	}
}

func (g *GitHubAdapter) GetDiff(ctx context.Context) (string, error) {
	raw, _, err := g.client.PullRequests.GetRaw(ctx, g.owner, g.repo, g.prNumber,
		github.RawOptions{Type: github.Diff})
	if err != nil {
		return "", fmt.Errorf("failed to fetch PR diff: %w", err)
	}
	return raw, nil
}

func (g *GitHubAdapter) GetChangedFiles(ctx context.Context) ([]string, error) {
	var paths []string
	opts := &github.ListOptions{PerPage: 100}
	for {
		files, resp, err := g.client.PullRequests.ListFiles(ctx, g.owner, g.repo, g.prNumber, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list PR files: %w", err)
		}
		for _, f := range files {
			paths = append(paths, f.GetFilename())
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return paths, nil
}

func (g *GitHubAdapter) GetExistingComments(ctx context.Context) ([]ExistingComment, error) {
	var existing []ExistingComment
	opts := &github.PullRequestListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		comments, resp, err := g.client.PullRequests.ListComments(ctx, g.owner, g.repo, g.prNumber, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list PR comments: %w", err)
		}
		for _, c := range comments {
			line := c.GetLine()
			if line == 0 {
				line = c.GetOriginalLine()
			}
			existing = append(existing, ExistingComment{
				FilePath: c.GetPath(),
				Line:     line,
				ID:       c.GetID(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return existing, nil
}

func (g *GitHubAdapter) HeadRevision(ctx context.Context) (string, error) {
	pr, _, err := g.client.PullRequests.Get(ctx, g.owner, g.repo, g.prNumber)
	if err != nil {
		return "", fmt.Errorf("failed to get PR details: %w", err)
	}
	return pr.GetHead().GetSHA(), nil
}

func (g *GitHubAdapter) PostReview(ctx context.Context, summary string, comments []InlineComment, rec Recommendation) error {
	logger := logging.GetLogger()

	drafts := make([]*github.DraftReviewComment, 0, len(comments))
	for i := range comments {
		c := comments[i]
		drafts = append(drafts, &github.DraftReviewComment{
			Path:     github.Ptr(c.FilePath),
			Position: github.Ptr(c.Anchor),
			Body:     github.Ptr(c.Body),
		})
	}

	review := &github.PullRequestReviewRequest{
		Body:     github.Ptr(summary),
		Event:    github.Ptr(reviewEvent(rec)),
		Comments: drafts,
	}
	_, _, err := g.client.PullRequests.CreateReview(ctx, g.owner, g.repo, g.prNumber, review)
	if err == nil {
		return nil
	}
	if len(drafts) == 0 {
		return fmt.Errorf("failed to create review: %w", err)
	}

	// The batch call rejects the whole review when any single anchor is
	// stale. Fall back to posting comments one by one so a bad anchor
	// cannot sink the rest of the batch.
	logger.Warn(ctx, "Batch review failed (%v), posting %d comments individually", err, len(drafts))
	posted := 0
	for _, draft := range drafts {
		_, _, cerr := g.client.PullRequests.CreateReview(ctx, g.owner, g.repo, g.prNumber,
			&github.PullRequestReviewRequest{
				Event:    github.Ptr("COMMENT"),
				Comments: []*github.DraftReviewComment{draft},
			})
		if cerr != nil {
			logger.Warn(ctx, "Skipping comment on %s position %d: %v",
				draft.GetPath(), draft.GetPosition(), cerr)
			continue
		}
		posted++
	}
	if posted == 0 {
		return fmt.Errorf("failed to create review: %w", err)
	}
	if summary != "" {
		_, _, serr := g.client.PullRequests.CreateReview(ctx, g.owner, g.repo, g.prNumber,
			&github.PullRequestReviewRequest{
				Body:  github.Ptr(summary),
				Event: github.Ptr(reviewEvent(rec)),
			})
		if serr != nil {
			return fmt.Errorf("failed to post review summary: %w", serr)
		}
	}
	return nil
}

func (g *GitHubAdapter) PostNotice(ctx context.Context, body string) error {
	_, _, err := g.client.Issues.CreateComment(ctx, g.owner, g.repo, g.prNumber,
		&github.IssueComment{Body: github.Ptr(body)})
	if err != nil {
		return fmt.Errorf("failed to post notice: %w", err)
	}
	return nil
}

func (g *GitHubAdapter) CalculateCommentAnchor(fd *diff.FileDiff, targetLine, window int) (int, bool) {
	return diff.MapToAnchor(fd, targetLine, diff.AnchorDiffPosition, window)
}

func reviewEvent(rec Recommendation) string {
	switch rec {
	case RecommendApprove:
		return "APPROVE"
	case RecommendRequestChanges:
		return "REQUEST_CHANGES"
	default:
		return "COMMENT"
	}
}

var _ SourceAdapter = (*GitHubAdapter)(nil)

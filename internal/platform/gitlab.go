package platform

import (
	"context"
	"fmt"
	"strings"

	"github.com/XiaoConstantine/dspy-go/pkg/logging"
	"github.com/XiaoConstantine/scrutiny/internal/diff"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

// GitLabAdapter reviews merge requests through the GitLab API.
// Comments anchor directly by new-file line number on a discussion
// position, so no reactions or review states are available.
type GitLabAdapter struct {
	client  *gitlab.Client
	project string
	mrIID   int
}

// NewGitLab creates an authenticated adapter for one merge request.
// project is the "namespace/name" path; baseURL may be empty for
// gitlab.com.
func NewGitLab(token, baseURL, project string, mrIID int) (*GitLabAdapter, error) {
	var opts []gitlab.ClientOptionFunc
	if baseURL != "" {
		opts = append(opts, gitlab.WithBaseURL(baseURL))
	}
	client, err := gitlab.NewClient(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gitlab client: %w", err)
	}
	return &GitLabAdapter{client: client, project: project, mrIID: mrIID}, nil
}

func (g *GitLabAdapter) Name() string { return "gitlab" }

func (g *GitLabAdapter) Capabilities() Capabilities {
	return Capabilities{SupportsCaching: true}
}

func (g *GitLabAdapter) listDiffs(ctx context.Context) ([]*gitlab.MergeRequestDiff, error) {
	var all []*gitlab.MergeRequestDiff
	opts := &gitlab.ListMergeRequestDiffsOptions{
		ListOptions: gitlab.ListOptions{PerPage: 100},
	}
	for {
		diffs, resp, err := g.client.MergeRequests.ListMergeRequestDiffs(
			g.project, g.mrIID, opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to list MR diffs: %w", err)
		}
		all = append(all, diffs...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

func (g *GitLabAdapter) GetDiff(ctx context.Context) (string, error) {
	diffs, err := g.listDiffs(ctx)
	if err != nil {
		return "", err
	}
	// GitLab returns per-file patches without the git header line, so
	// reassemble a standard unified diff the parser understands.
	var sb strings.Builder
	for _, d := range diffs {
		oldPath := d.OldPath
		if oldPath == "" {
			oldPath = d.NewPath
		}
		newPath := d.NewPath
		if newPath == "" {
			newPath = d.OldPath
		}
		fmt.Fprintf(&sb, "diff --git a/%s b/%s\n", oldPath, newPath)
		fmt.Fprintf(&sb, "--- a/%s\n", oldPath)
		fmt.Fprintf(&sb, "+++ b/%s\n", newPath)
		sb.WriteString(d.Diff)
		if d.Diff != "" && !strings.HasSuffix(d.Diff, "\n") {
			sb.WriteByte('\n')
		}
	}
	return sb.String(), nil
}

func (g *GitLabAdapter) GetChangedFiles(ctx context.Context) ([]string, error) {
	diffs, err := g.listDiffs(ctx)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(diffs))
	for _, d := range diffs {
		path := d.NewPath
		if path == "" {
			path = d.OldPath
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (g *GitLabAdapter) GetExistingComments(ctx context.Context) ([]ExistingComment, error) {
	var existing []ExistingComment
	opts := &gitlab.ListMergeRequestNotesOptions{
		ListOptions: gitlab.ListOptions{PerPage: 100},
	}
	for {
		notes, resp, err := g.client.Notes.ListMergeRequestNotes(
			g.project, g.mrIID, opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to list MR notes: %w", err)
		}
		for _, note := range notes {
			if note.Position == nil {
				continue
			}
			existing = append(existing, ExistingComment{
				FilePath: note.Position.NewPath,
				Line:     note.Position.NewLine,
				ID:       int64(note.ID),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return existing, nil
}

func (g *GitLabAdapter) HeadRevision(ctx context.Context) (string, error) {
	mr, _, err := g.client.MergeRequests.GetMergeRequest(
		g.project, g.mrIID, nil, gitlab.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to get MR details: %w", err)
	}
	return mr.SHA, nil
}

func (g *GitLabAdapter) PostReview(ctx context.Context, summary string, comments []InlineComment, rec Recommendation) error {
	logger := logging.GetLogger()

	mr, _, err := g.client.MergeRequests.GetMergeRequest(
		g.project, g.mrIID, nil, gitlab.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to get MR details: %w", err)
	}
	if mr.DiffRefs == (gitlab.MergeRequest{}).DiffRefs {
		return fmt.Errorf("MR %d has no diff refs", g.mrIID)
	}

	// Discussions post one at a time; a rejected position is logged
	// and skipped so the rest of the batch still lands.
	posted := 0
	for _, c := range comments {
		pos := &gitlab.PositionOptions{
			BaseSHA:      gitlab.Ptr(mr.DiffRefs.BaseSha),
			StartSHA:     gitlab.Ptr(mr.DiffRefs.StartSha),
			HeadSHA:      gitlab.Ptr(mr.DiffRefs.HeadSha),
			NewPath:      gitlab.Ptr(c.FilePath),
			NewLine:      gitlab.Ptr(c.Anchor),
			PositionType: gitlab.Ptr("text"),
		}
		_, _, err := g.client.Discussions.CreateMergeRequestDiscussion(
			g.project, g.mrIID,
			&gitlab.CreateMergeRequestDiscussionOptions{
				Body:     gitlab.Ptr(c.Body),
				Position: pos,
			},
			gitlab.WithContext(ctx))
		if err != nil {
			logger.Warn(ctx, "Skipping comment on %s line %d: %v", c.FilePath, c.Anchor, err)
			continue
		}
		posted++
	}
	if posted == 0 && len(comments) > 0 {
		return fmt.Errorf("all %d inline comments were rejected", len(comments))
	}

	if summary != "" {
		body := fmt.Sprintf("%s\n\n**Recommendation:** %s", summary, rec)
		if err := g.PostNotice(ctx, body); err != nil {
			return err
		}
	}
	return nil
}

func (g *GitLabAdapter) PostNotice(ctx context.Context, body string) error {
	_, _, err := g.client.Notes.CreateMergeRequestNote(
		g.project, g.mrIID,
		&gitlab.CreateMergeRequestNoteOptions{Body: gitlab.Ptr(body)},
		gitlab.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to post note: %w", err)
	}
	return nil
}

func (g *GitLabAdapter) CalculateCommentAnchor(fd *diff.FileDiff, targetLine, window int) (int, bool) {
	return diff.MapToAnchor(fd, targetLine, diff.AnchorNewLine, window)
}

var _ SourceAdapter = (*GitLabAdapter)(nil)

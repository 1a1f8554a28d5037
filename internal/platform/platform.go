// Package platform abstracts the source-hosting service a review runs
// against. The two concrete adapters differ in how comments anchor to
// a diff (ordinal diff position on GitHub, new-file line on GitLab);
// downstream code selects an adapter once and never branches on type.
package platform

import (
	"context"
	"errors"
	"strings"

	"github.com/XiaoConstantine/scrutiny/internal/diff"
	"github.com/google/go-github/v68/github"
)

// Capabilities gates optional pipeline stages per platform.
type Capabilities struct {
	SupportsReactions    bool
	SupportsReviewStates bool
	SupportsCaching      bool
	SupportsAutoFixPR    bool
}

// Recommendation is the aggregate review verdict.
type Recommendation string

const (
	RecommendApprove        Recommendation = "approve"
	RecommendRequestChanges Recommendation = "request-changes"
	RecommendComment        Recommendation = "comment"
)

// ExistingComment is a previously posted inline comment, fetched for
// duplicate suppression only.
type ExistingComment struct {
	FilePath string
	Line     int
	ID       int64
}

// InlineComment is one resolved comment ready for posting. Anchor is
// platform-specific: a diff position or a new-file line number. Line
// keeps the original new-file coordinate for duplicate bookkeeping.
type InlineComment struct {
	FilePath string
	Line     int
	Anchor   int
	Body     string
}

// SourceAdapter is implemented once per hosting platform.
type SourceAdapter interface {
	Name() string
	Capabilities() Capabilities

	GetDiff(ctx context.Context) (string, error)
	GetChangedFiles(ctx context.Context) ([]string, error)
	GetExistingComments(ctx context.Context) ([]ExistingComment, error)
	HeadRevision(ctx context.Context) (string, error)

	// PostReview publishes the summary plus inline comments. A failure
	// on one inline comment is isolated: it is logged and skipped and
	// the rest of the batch still posts.
	PostReview(ctx context.Context, summary string, comments []InlineComment, rec Recommendation) error

	// PostNotice publishes a standalone comment, used for the
	// nothing-to-review notice and the failure notice.
	PostNotice(ctx context.Context, body string) error

	// CalculateCommentAnchor resolves a new-file line to this
	// platform's comment anchor, or false when unresolvable.
	CalculateCommentAnchor(fd *diff.FileDiff, targetLine, window int) (int, bool)
}

// IsRateLimit reports whether err looks like an upstream rate-limit
// signal (HTTP 429 or a rate-limit-flavored message). Only these
// errors are worth retrying with backoff.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	var rle *github.RateLimitError
	if errors.As(err, &rle) {
		return true
	}
	var arle *github.AbuseRateLimitError
	if errors.As(err, &arle) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, hint := range []string{"429", "rate limit", "too many requests", "resource_exhausted", "quota exceeded", "overloaded"} {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}

package review

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/XiaoConstantine/dspy-go/pkg/logging"
	"github.com/XiaoConstantine/scrutiny/internal/cache"
	"github.com/XiaoConstantine/scrutiny/internal/chunk"
	"github.com/XiaoConstantine/scrutiny/internal/config"
	"github.com/XiaoConstantine/scrutiny/internal/diff"
	"github.com/XiaoConstantine/scrutiny/internal/jsonrepair"
	"github.com/XiaoConstantine/scrutiny/internal/llm"
	"github.com/XiaoConstantine/scrutiny/internal/platform"
)

const defaultInterChunkPause = time.Second

const emptyReviewNotice = "🤖 Automated review skipped: no reviewable files in this change " +
	"(everything matched the skip rules or ignore patterns)."

// ConfirmFunc is asked before posting. Returning false aborts the post
// without error; the console wires an interactive prompt here.
type ConfirmFunc func(summary string, comments []platform.InlineComment, rec platform.Recommendation) (bool, error)

// Pipeline runs one review end to end against a source adapter and a
// model client. Chunks are submitted strictly in order, one at a time.
type Pipeline struct {
	cfg     config.Config
	adapter platform.SourceAdapter
	model   llm.ModelClient

	cache   *cache.ReviewCache
	confirm ConfirmFunc
	dryRun  bool
	pause   time.Duration
}

// Option configures optional pipeline behavior.
type Option func(*Pipeline)

// WithCache enables revision caching; it still only takes effect when
// the adapter reports SupportsCaching.
func WithCache(c *cache.ReviewCache) Option {
	return func(p *Pipeline) { p.cache = c }
}

// WithConfirm installs a pre-post confirmation hook.
func WithConfirm(fn ConfirmFunc) Option {
	return func(p *Pipeline) { p.confirm = fn }
}

// WithDryRun suppresses all posting; the run otherwise proceeds fully.
func WithDryRun(dry bool) Option {
	return func(p *Pipeline) { p.dryRun = dry }
}

// WithInterChunkPause overrides the pause between chunk submissions.
func WithInterChunkPause(d time.Duration) Option {
	return func(p *Pipeline) { p.pause = d }
}

// New assembles a pipeline. The adapter and model are required; cache,
// confirmation and dry-run are opt-in.
func New(cfg config.Config, adapter platform.SourceAdapter, model llm.ModelClient, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:     cfg,
		adapter: adapter,
		model:   model,
		pause:   defaultInterChunkPause,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Result is what one run produced.
type Result struct {
	Skipped        bool
	SkipReason     string
	Summary        string
	Findings       []Finding
	Recommendation platform.Recommendation
	CommentsPosted int
	Metrics        *RunMetrics
}

// Run executes the full review state machine. A nil error means the
// run completed or was skipped deliberately; fatal errors come back
// after a failure notice has been posted.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	logger := logging.GetLogger()
	metrics := NewRunMetrics()
	res := &Result{Metrics: metrics, Recommendation: platform.RecommendComment}

	if !p.cfg.Enabled {
		res.Skipped = true
		res.SkipReason = "reviews disabled by configuration"
		return res, nil
	}

	head := p.checkCache(ctx, res)
	if res.Skipped {
		return res, nil
	}

	var diffText string
	err := retryWithBackoff(ctx, "diff fetch", func() error {
		var ferr error
		diffText, ferr = p.adapter.GetDiff(ctx)
		return ferr
	})
	if err != nil {
		return res, p.fail(ctx, "diff fetch", err)
	}

	filtered := diff.StripIgnored(diffText)
	files := diff.Parse(filtered)
	metrics.FilesConsidered.Store(int64(len(files)))

	kept, keptDiff := p.selectFiles(ctx, filtered, files)
	if len(kept) == 0 {
		logger.Info(ctx, "No reviewable files after filtering")
		if !p.dryRun {
			if nerr := p.adapter.PostNotice(ctx, emptyReviewNotice); nerr != nil {
				logger.Warn(ctx, "Failed to post empty-review notice: %v", nerr)
			}
		}
		res.Skipped = true
		res.SkipReason = "no reviewable files"
		return res, nil
	}
	metrics.FilesReviewed.Store(int64(len(kept)))

	if len(keptDiff) > p.cfg.ChunkSize {
		logger.Warn(ctx, "Diff is %d bytes, above the %d-byte budget; reviewing in chunks",
			len(keptDiff), p.cfg.ChunkSize)
	}
	chunks := chunk.Split(keptDiff, kept, p.cfg.ChunkSize)

	var findings []Finding
	var recs []platform.Recommendation
	var summaries []string
	for i, c := range chunks {
		if i > 0 {
			select {
			case <-time.After(p.pause):
			case <-ctx.Done():
				return res, ctx.Err()
			}
		}
		logger.Info(ctx, "Reviewing chunk %d/%d (%d files, %d bytes)",
			i+1, len(chunks), len(c.Files), len(c.Diff))
		batch, berr := p.reviewChunk(ctx, c, metrics)
		if berr != nil {
			return res, p.fail(ctx, fmt.Sprintf("chunk %d/%d", i+1, len(chunks)), berr)
		}
		findings = append(findings, batch.Findings...)
		recs = append(recs, normalizeRecommendation(batch.Recommendation))
		if s := strings.TrimSpace(batch.Summary); s != "" {
			summaries = append(summaries, s)
		}
	}
	metrics.FindingsReported.Store(int64(len(findings)))

	findings = filterBySeverity(findings, p.cfg)
	res.Findings = findings
	res.Recommendation = aggregateRecommendation(recs, findings)
	res.Summary = strings.Join(summaries, "\n\n")

	if p.cfg.SeverityThreshold.Enabled && p.cfg.SeverityThreshold.SkipCleanPRs && len(findings) == 0 {
		logger.Info(ctx, "Clean change and skipCleanPRs is set, not posting")
		res.Skipped = true
		res.SkipReason = "no findings at or above threshold"
		return res, nil
	}

	comments := p.resolveComments(ctx, findings, kept, metrics)

	if p.confirm != nil {
		ok, cerr := p.confirm(res.Summary, comments, res.Recommendation)
		if cerr != nil {
			return res, fmt.Errorf("confirmation failed: %w", cerr)
		}
		if !ok {
			res.Skipped = true
			res.SkipReason = "declined at confirmation"
			return res, nil
		}
	}
	if p.dryRun {
		res.Skipped = true
		res.SkipReason = "dry run"
		return res, nil
	}

	err = retryWithBackoff(ctx, "review post", func() error {
		return p.adapter.PostReview(ctx, res.Summary, comments, res.Recommendation)
	})
	if err != nil {
		return res, p.fail(ctx, "review post", err)
	}
	metrics.CommentsPosted.Store(int64(len(comments)))
	res.CommentsPosted = len(comments)

	p.recordCache(ctx, head)

	logger.Info(ctx, "Review complete: %d comments posted, %d duplicates suppressed, %d anchors dropped",
		len(comments), metrics.DuplicatesSuppressed.Load(), metrics.AnchorsDropped.Load())
	return res, nil
}

// checkCache skips the run when the head revision was already
// reviewed. Cache trouble never blocks a review.
func (p *Pipeline) checkCache(ctx context.Context, res *Result) string {
	if p.cache == nil || !p.adapter.Capabilities().SupportsCaching {
		return ""
	}
	logger := logging.GetLogger()

	var head string
	err := retryWithBackoff(ctx, "head revision lookup", func() error {
		var herr error
		head, herr = p.adapter.HeadRevision(ctx)
		return herr
	})
	if err != nil {
		logger.Warn(ctx, "Could not resolve head revision, skipping cache check: %v", err)
		return ""
	}

	seen, err := p.cache.Contains(head)
	if err != nil {
		logger.Warn(ctx, "Cache read failed, proceeding without it: %v", err)
		return head
	}
	if seen {
		logger.Info(ctx, "Revision %s already reviewed, skipping", head)
		res.Skipped = true
		res.SkipReason = fmt.Sprintf("revision %s already reviewed", head)
	}
	return head
}

func (p *Pipeline) recordCache(ctx context.Context, head string) {
	if head == "" || p.cache == nil || !p.adapter.Capabilities().SupportsCaching {
		return
	}
	if err := p.cache.Record(head); err != nil {
		logging.GetLogger().Warn(ctx, "Failed to record reviewed revision: %v", err)
	}
}

// selectFiles applies the static skip rules, the configured ignore
// patterns and the file cap, and rebuilds the diff text for the
// surviving files.
func (p *Pipeline) selectFiles(ctx context.Context, diffText string, files []*diff.FileDiff) ([]*diff.FileDiff, string) {
	logger := logging.GetLogger()

	keep := make(map[string]bool, len(files))
	var kept []*diff.FileDiff
	for _, fd := range files {
		path := fd.NewPath
		if shouldSkipFile(path) || matchesIgnorePattern(path, p.cfg.IgnorePatterns) {
			logger.Debug(ctx, "Skipping %s (filtered)", path)
			continue
		}
		if p.cfg.MaxFilesPerReview > 0 && len(kept) >= p.cfg.MaxFilesPerReview {
			logger.Warn(ctx, "File cap of %d reached, remaining files not reviewed",
				p.cfg.MaxFilesPerReview)
			break
		}
		keep[path] = true
		kept = append(kept, fd)
	}
	if len(kept) == len(files) {
		return kept, diffText
	}

	var sb strings.Builder
	for _, section := range chunk.SplitSections(diffText) {
		if keep[chunk.SectionPath(section)] {
			sb.WriteString(section)
		}
	}
	return kept, sb.String()
}

// reviewChunk submits one chunk and decodes the model's JSON answer,
// repairing it when the model wrapped or mangled the object.
func (p *Pipeline) reviewChunk(ctx context.Context, c chunk.Chunk, metrics *RunMetrics) (*ReviewBatch, error) {
	metrics.ChunksSubmitted.Inc()

	req := llm.Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   buildUserPrompt(c),
		MaxTokens:    p.cfg.MaxTokens,
		Temperature:  p.cfg.Temperature,
	}
	var resp *llm.Response
	err := retryWithBackoff(ctx, "model call", func() error {
		var serr error
		resp, serr = p.model.Submit(ctx, req)
		return serr
	})
	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}
	metrics.PromptTokens.Add(int64(resp.PromptTokens))
	metrics.CompletionTokens.Add(int64(resp.CompletionTokens))

	var batch ReviewBatch
	if uerr := jsonrepair.Unmarshal(extractJSONBlock(resp.Content), &batch); uerr != nil {
		return nil, fmt.Errorf("unusable model response: %w", uerr)
	}
	for i := range batch.Findings {
		batch.Findings[i].Severity = ParseSeverity(string(batch.Findings[i].Severity))
	}
	return &batch, nil
}

// resolveComments drops duplicates of existing comments, maps each
// remaining finding to a platform anchor and renders the bodies.
// Findings without a resolvable anchor are counted and dropped.
func (p *Pipeline) resolveComments(ctx context.Context, findings []Finding, files []*diff.FileDiff, metrics *RunMetrics) []platform.InlineComment {
	logger := logging.GetLogger()

	var existing []platform.ExistingComment
	err := retryWithBackoff(ctx, "comment listing", func() error {
		var lerr error
		existing, lerr = p.adapter.GetExistingComments(ctx)
		return lerr
	})
	if err != nil {
		logger.Warn(ctx, "Could not list existing comments, duplicate suppression disabled: %v", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, c := range existing {
		seen[commentKey(c.FilePath, c.Line)] = true
	}

	byPath := make(map[string]*diff.FileDiff, len(files))
	for _, fd := range files {
		byPath[fd.NewPath] = fd
	}

	var comments []platform.InlineComment
	for _, f := range findings {
		if seen[commentKey(f.File, f.Line)] {
			metrics.DuplicatesSuppressed.Inc()
			logger.Debug(ctx, "Suppressing duplicate for %s:%d", f.File, f.Line)
			continue
		}
		fd := byPath[f.File]
		if fd == nil {
			metrics.AnchorsDropped.Inc()
			logger.Warn(ctx, "Dropping finding for %s:%d: file not in reviewed set", f.File, f.Line)
			continue
		}
		anchor, ok := p.adapter.CalculateCommentAnchor(fd, f.Line, p.cfg.AnchorWindow)
		if !ok {
			metrics.AnchorsDropped.Inc()
			logger.Warn(ctx, "Dropping finding for %s:%d: no diff anchor within %d lines",
				f.File, f.Line, p.cfg.AnchorWindow)
			continue
		}
		comments = append(comments, platform.InlineComment{
			FilePath: f.File,
			Line:     f.Line,
			Anchor:   anchor,
			Body:     formatCommentBody(f),
		})
	}
	return comments
}

// fail posts a single marked failure notice and wraps the error. A
// partial review is never left behind.
func (p *Pipeline) fail(ctx context.Context, stage string, err error) error {
	logger := logging.GetLogger()
	logger.Error(ctx, "Review run failed during %s: %v", stage, err)
	if !p.dryRun {
		notice := fmt.Sprintf("⚠️ **Automated review failed** during %s: %v\n\n"+
			"No review was posted. Re-run once the underlying issue is resolved.", stage, err)
		if nerr := p.adapter.PostNotice(ctx, notice); nerr != nil {
			logger.Warn(ctx, "Could not post failure notice: %v", nerr)
		}
	}
	return fmt.Errorf("%s: %w", stage, err)
}

func commentKey(file string, line int) string {
	return fmt.Sprintf("%s:%d", file, line)
}

// extractJSONBlock returns the first balanced {...} region of text,
// skipping brackets inside string literals. With no closing brace the
// tail from the first brace is returned so truncation repair can run.
func extractJSONBlock(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return text
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return text[start:]
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/XiaoConstantine/dspy-go/pkg/logging"
	"github.com/XiaoConstantine/scrutiny/internal/platform"
	"github.com/XiaoConstantine/scrutiny/internal/review"
	"github.com/briandowns/spinner"
	"github.com/logrusorgru/aurora"
	"github.com/mattn/go-isatty"
)

// Console handles user-facing output separate from logging.
type Console struct {
	w       io.Writer
	logger  *logging.Logger
	spinner *spinner.Spinner
	color   bool

	mu sync.Mutex
}

type SpinnerConfig struct {
	Color   string
	Speed   time.Duration
	CharSet []string
	Prefix  string
	Suffix  string
}

func DefaultSpinnerConfig() SpinnerConfig {
	return SpinnerConfig{
		Color:   "cyan",
		Speed:   100 * time.Millisecond,
		CharSet: spinner.CharSets[14],
		Prefix:  "Processing ",
	}
}

// PromptOptions configures how the confirmation prompt behaves.
type PromptOptions struct {
	Message  string
	Default  bool
	HelpText string
}

func NewConsole(w io.Writer, logger *logging.Logger, cfg *SpinnerConfig) *Console {
	if cfg == nil {
		defaultCfg := DefaultSpinnerConfig()
		cfg = &defaultCfg
	}

	s := spinner.New(cfg.CharSet, cfg.Speed)
	s.Prefix = cfg.Prefix
	s.Suffix = cfg.Suffix
	if err := s.Color(cfg.Color); err != nil {
		logger.Warn(context.Background(), "Failed to set spinner color: %v", err)
	}

	color := true
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd())
	}

	return &Console{
		w:       w,
		logger:  logger,
		color:   color,
		spinner: s,
	}
}

func (c *Console) StartSpinner(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.spinner.Suffix = fmt.Sprintf(" %s", message)
	c.spinner.Start()
}

func (c *Console) StopSpinner() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.spinner.Active() {
		c.spinner.Stop()
	}
}

// WithSpinner runs fn behind a spinner, stopping it on completion or
// context cancellation.
func (c *Console) WithSpinner(ctx context.Context, message string, fn func() error) error {
	c.StartSpinner(message)
	defer c.StopSpinner()

	errCh := make(chan error, 1)
	go func() {
		errCh <- fn()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Console) Confirm(opts PromptOptions) (bool, error) {
	prompt := &survey.Confirm{
		Message: opts.Message,
		Default: opts.Default,
		Help:    opts.HelpText,
	}

	surveyOpts := []survey.AskOpt{
		survey.WithIcons(func(icons *survey.IconSet) {
			if c.color {
				icons.Question.Text = "?"
				icons.Question.Format = "cyan+b"
				icons.Help.Format = "blue"
			}
		}),
	}

	// Piped input means nobody can answer; take the default.
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return opts.Default, nil
	}

	var response bool
	err := survey.AskOne(prompt, &response, surveyOpts...)
	if err == terminal.InterruptErr {
		if c.color {
			c.println(aurora.Red("\n✖ Operation cancelled").String())
		} else {
			c.println("\n✖ Operation cancelled")
		}
		return false, nil
	}

	return response, err
}

func (c *Console) ConfirmReviewPost(commentCount int) (bool, error) {
	message := fmt.Sprintf("Post %d review comment", commentCount)
	if commentCount != 1 {
		message += "s"
	}
	message += "?"

	return c.Confirm(PromptOptions{
		Message:  message,
		Default:  false,
		HelpText: "This will publish the review shown above",
	})
}

func (c *Console) StartReview(platformName, target string, fileCount int) {
	c.printHeader(fmt.Sprintf("Reviewing %s", target))
	c.printFields(map[string]interface{}{
		"Platform": platformName,
		"Files":    fmt.Sprintf("%d files changed", fileCount),
	})
	c.println()
}

// ShowPreview prints the review exactly as it would be posted.
func (c *Console) ShowPreview(summary string, comments []platform.InlineComment, rec platform.Recommendation) {
	c.printHeader("Review Preview")

	if summary != "" {
		c.println(summary)
		c.println()
	}
	c.printf("Recommendation: %s\n", rec)

	if len(comments) == 0 {
		c.println("\nNo inline comments.")
		return
	}

	c.println("\nInline Comments:")
	for _, comment := range comments {
		location := fmt.Sprintf("%s:%d", comment.FilePath, comment.Line)
		if c.color {
			location = aurora.Bold(location).String()
		}
		c.printf("%s (anchor %d)\n", location, comment.Anchor)
		c.println(indent(comment.Body, 2))
		c.println()
	}
}

func (c *Console) ShowSummary(res *review.Result) {
	c.printHeader("Review Summary")

	bySeverity := make(map[review.Severity]int)
	for _, f := range res.Findings {
		bySeverity[f.Severity]++
	}
	if len(bySeverity) == 0 {
		c.println("✨ No issues found")
	}
	for _, severity := range []review.Severity{
		review.SeverityCritical,
		review.SeverityWarning,
		review.SeveritySuggestion,
		review.SeverityNitpick,
	} {
		if count := bySeverity[severity]; count > 0 {
			c.printf("%s %s: %d\n", c.severityIcon(severity), severity, count)
		}
	}

	m := res.Metrics
	c.println()
	c.printFields(map[string]interface{}{
		"Files reviewed":  m.FilesReviewed.Load(),
		"Chunks":          m.ChunksSubmitted.Load(),
		"Comments posted": res.CommentsPosted,
		"Duplicates":      m.DuplicatesSuppressed.Load(),
		"Dropped anchors": m.AnchorsDropped.Load(),
		"Tokens (est.)":   m.TotalTokens(),
		"Duration":        m.Duration().Round(time.Millisecond),
		"Run":             m.RunID,
	})
}

func (c *Console) ReviewComplete() {
	if c.color {
		c.println(aurora.Green("\n✓ Review completed successfully").String())
	} else {
		c.println("\n✓ Review completed successfully")
	}
}

func (c *Console) ReviewSkipped(reason string) {
	if c.color {
		c.printf("%s %s\n", aurora.Yellow("\n⊘ Review skipped:").String(), reason)
	} else {
		c.printf("\n⊘ Review skipped: %s\n", reason)
	}
}

// Helper methods

func (c *Console) severityIcon(severity review.Severity) string {
	if !c.color {
		return "[" + string(severity) + "]"
	}

	switch severity {
	case review.SeverityCritical:
		return aurora.Red("●").String()
	case review.SeverityWarning:
		return aurora.Yellow("●").String()
	case review.SeveritySuggestion:
		return aurora.Blue("●").String()
	default:
		return "●"
	}
}

func (c *Console) printFields(fields map[string]interface{}) {
	maxKeyLen := 0
	for k := range fields {
		if len(k) > maxKeyLen {
			maxKeyLen = len(k)
		}
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		label := fmt.Sprintf("%-*s", maxKeyLen, k)
		if c.color {
			label = aurora.Blue(label).String()
		}
		c.printf("%s : %v\n", label, fields[k])
	}
}

func (c *Console) printHeader(text string) {
	if c.color {
		text = aurora.Bold(text).String()
	}
	c.printf("\n=== %s ===\n", text)
}

func (c *Console) println(a ...interface{}) {
	fmt.Fprintln(c.w, a...)
}

func (c *Console) printf(format string, a ...interface{}) {
	fmt.Fprintf(c.w, format, a...)
}

// indent adds spaces to the start of each line.
func indent(s string, spaces int) string {
	prefix := strings.Repeat(" ", spaces)
	return prefix + strings.ReplaceAll(s, "\n", "\n"+prefix)
}

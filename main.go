package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/XiaoConstantine/dspy-go/pkg/core"
	"github.com/XiaoConstantine/dspy-go/pkg/logging"
	"github.com/XiaoConstantine/scrutiny/internal/cache"
	"github.com/XiaoConstantine/scrutiny/internal/config"
	"github.com/XiaoConstantine/scrutiny/internal/llm"
	"github.com/XiaoConstantine/scrutiny/internal/platform"
	"github.com/XiaoConstantine/scrutiny/internal/review"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type options struct {
	platform string

	owner    string
	repo     string
	prNumber int

	project   string
	mrIID     int
	gitlabURL string

	githubToken string
	gitlabToken string
	apiKey      string

	model      string
	configPath string

	yes     bool
	dryRun  bool
	noCache bool
	debug   bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "scrutiny",
		Short: "Automated code review for pull and merge requests",
		Long: `scrutiny fetches the diff of a pull or merge request, sends it to a
generative model in file-aligned chunks and posts the findings back as
inline review comments anchored to the diff.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.platform, "platform", "github", "Hosting platform: github or gitlab")
	flags.StringVar(&opts.owner, "owner", "", "Repository owner (github)")
	flags.StringVar(&opts.repo, "repo", "", "Repository name (github)")
	flags.IntVar(&opts.prNumber, "pr", 0, "Pull request number (github)")
	flags.StringVar(&opts.project, "project", "", "Project path namespace/name (gitlab)")
	flags.IntVar(&opts.mrIID, "mr", 0, "Merge request IID (gitlab)")
	flags.StringVar(&opts.gitlabURL, "gitlab-url", "", "GitLab base URL for self-hosted instances")
	flags.StringVar(&opts.githubToken, "github-token", "", "GitHub token (defaults to GITHUB_TOKEN)")
	flags.StringVar(&opts.gitlabToken, "gitlab-token", "", "GitLab token (defaults to GITLAB_TOKEN)")
	flags.StringVar(&opts.apiKey, "api-key", "", "Model API key (defaults to the provider's env vars)")
	flags.StringVar(&opts.model, "model", "", "Model id, e.g. anthropic:claude-3-7-sonnet or gemini:gemini-2.0-flash")
	flags.StringVar(&opts.configPath, "config", "", "Config file path (default .scrutiny.yml)")
	flags.BoolVarP(&opts.yes, "yes", "y", false, "Post without asking for confirmation")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Run the review but never post")
	flags.BoolVar(&opts.noCache, "no-cache", false, "Ignore the reviewed-revision cache")
	flags.BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	return cmd
}

func run(opts *options) error {
	// A local .env is a convenience, not a requirement.
	_ = godotenv.Load()

	logLevel := logging.INFO
	if opts.debug {
		logLevel = logging.DEBUG
	}
	output := logging.NewConsoleOutput(true, logging.WithColor(true))
	logger := logging.NewLogger(logging.Config{
		Severity: logLevel,
		Outputs:  []logging.Output{output},
	})
	logging.SetLogger(logger)

	ctx := core.WithExecutionState(context.Background())

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.model != "" {
		cfg.Model = opts.model
	}

	adapter, owner, repo, err := buildAdapter(ctx, opts)
	if err != nil {
		return err
	}

	model, err := llm.New(ctx, cfg.Model, opts.apiKey)
	if err != nil {
		return err
	}
	logger.Debug(ctx, "Using model %s via %s adapter", model.Name(), adapter.Name())

	console := NewConsole(os.Stdout, logger, nil)

	pipelineOpts := []review.Option{review.WithDryRun(opts.dryRun)}
	if !opts.noCache && adapter.Capabilities().SupportsCaching {
		c, cerr := cache.Open(owner, repo)
		if cerr != nil {
			logger.Warn(ctx, "Review cache unavailable: %v", cerr)
		} else {
			pipelineOpts = append(pipelineOpts, review.WithCache(c))
		}
	}
	if !opts.yes && !opts.dryRun {
		pipelineOpts = append(pipelineOpts, review.WithConfirm(
			func(summary string, comments []platform.InlineComment, rec platform.Recommendation) (bool, error) {
				console.StopSpinner()
				console.ShowPreview(summary, comments, rec)
				return console.ConfirmReviewPost(len(comments))
			}))
	}

	changed, cerr := adapter.GetChangedFiles(ctx)
	if cerr != nil {
		logger.Warn(ctx, "Could not list changed files: %v", cerr)
	}
	console.StartReview(adapter.Name(), reviewTarget(opts), len(changed))

	pipeline := review.New(cfg, adapter, model, pipelineOpts...)
	var res *review.Result
	err = console.WithSpinner(ctx, "Reviewing changes", func() error {
		var rerr error
		res, rerr = pipeline.Run(ctx)
		return rerr
	})
	if err != nil {
		logger.Error(ctx, "Review failed: %v", err)
		return err
	}

	console.ShowSummary(res)
	if res.Skipped {
		console.ReviewSkipped(res.SkipReason)
	} else {
		console.ReviewComplete()
	}
	return nil
}

func buildAdapter(ctx context.Context, opts *options) (platform.SourceAdapter, string, string, error) {
	switch opts.platform {
	case "github":
		token := opts.githubToken
		if token == "" {
			token = os.Getenv("GITHUB_TOKEN")
		}
		if token == "" || opts.owner == "" || opts.repo == "" || opts.prNumber == 0 {
			return nil, "", "", fmt.Errorf("github reviews need --github-token (or GITHUB_TOKEN), --owner, --repo and --pr")
		}
		return platform.NewGitHub(ctx, token, opts.owner, opts.repo, opts.prNumber), opts.owner, opts.repo, nil

	case "gitlab":
		token := opts.gitlabToken
		if token == "" {
			token = os.Getenv("GITLAB_TOKEN")
		}
		if token == "" || opts.project == "" || opts.mrIID == 0 {
			return nil, "", "", fmt.Errorf("gitlab reviews need --gitlab-token (or GITLAB_TOKEN), --project and --mr")
		}
		adapter, err := platform.NewGitLab(token, opts.gitlabURL, opts.project, opts.mrIID)
		if err != nil {
			return nil, "", "", err
		}
		namespace, name := splitProject(opts.project)
		return adapter, namespace, name, nil

	default:
		return nil, "", "", fmt.Errorf("unsupported platform %q (expected github or gitlab)", opts.platform)
	}
}

// splitProject turns "group/sub/name" into cache coordinates.
func splitProject(project string) (string, string) {
	idx := strings.LastIndex(project, "/")
	if idx < 0 {
		return project, project
	}
	namespace := strings.ReplaceAll(project[:idx], "/", "_")
	return namespace, project[idx+1:]
}

func reviewTarget(opts *options) string {
	if opts.platform == "gitlab" {
		return fmt.Sprintf("%s!%d", opts.project, opts.mrIID)
	}
	return fmt.Sprintf("%s/%s#%d", opts.owner, opts.repo, opts.prNumber)
}

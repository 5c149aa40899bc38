package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/sizeimpact/pkg/github"
	"github.com/Sumatoshi-tech/sizeimpact/pkg/observability"
	"github.com/Sumatoshi-tech/sizeimpact/pkg/report"
)

type githubCommand struct {
	dryRun bool

	getenv    func(string) string
	newClient func(token, apiURL string) github.CommentAPI
}

// NewGitHubCommand creates the github subcommand.
func NewGitHubCommand() *cobra.Command {
	return newGitHubCommandWithDeps(os.Getenv, func(token, apiURL string) github.CommentAPI {
		return github.NewClient(token, github.WithBaseURL(apiURL))
	})
}

func newGitHubCommandWithDeps(
	getenv func(string) string,
	newClient func(token, apiURL string) github.CommentAPI,
) *cobra.Command {
	gc := &githubCommand{getenv: getenv, newClient: newClient}

	cmd := &cobra.Command{
		Use:   "github <base> <head>",
		Short: "Publish the size impact as a pull request comment",
		Long: `Render the size impact of two snapshots and post it on the pull request of
the running GitHub Actions pull_request workflow. A comment written by a
previous run is updated in place.

The pull request is read from GITHUB_EVENT_NAME, GITHUB_REPOSITORY,
GITHUB_REF, GITHUB_BASE_REF and GITHUB_HEAD_REF. The token comes from
GITHUB_TOKEN, or github.token in the config file.`,
		Args: cobra.ExactArgs(2),
		RunE: gc.run,
	}

	cmd.Flags().BoolVar(&gc.dryRun, "dry-run", false, "Print the comment and its diff against the current one without publishing")

	return cmd
}

func (gc *githubCommand) run(cmd *cobra.Command, args []string) error {
	sess, err := setup(cmd, observability.ModeCLI)
	if err != nil {
		return err
	}
	defer sess.close()

	ctx, span := sess.span(cmd)
	defer span.End()

	opts, err := github.OptionsFromEnv(gc.envWithToken(sess.cfg.GitHub.Token))
	if err != nil {
		return err
	}

	base, head, err := sess.loadPair(ctx, args)
	if err != nil {
		return err
	}

	doc := buildDocument(ctx, sess, base, head)

	body := report.RenderComment(doc, report.CommentOptions{
		Base:        opts.PullRequest.Base,
		Head:        opts.PullRequest.Head,
		GeneratedBy: sess.cfg.Report.GeneratedBy,
	})

	client := gc.newClient(opts.Token, sess.cfg.GitHub.APIURL)

	if gc.dryRun {
		return previewComment(ctx, cmd.OutOrStdout(), client, opts.PullRequest, body)
	}

	result, err := github.Publish(ctx, client, opts.PullRequest, body, sess.logger)
	if err != nil {
		return err
	}

	action := "created"
	if result.Updated {
		action = "updated"
	}

	fmt.Fprintf(cmd.OutOrStdout(), "comment %s: %s\n", action, result.Comment.HTMLURL)

	return nil
}

// envWithToken falls back to the configured token when GITHUB_TOKEN is unset.
func (gc *githubCommand) envWithToken(token string) func(string) string {
	return func(key string) string {
		value := gc.getenv(key)
		if key == "GITHUB_TOKEN" && value == "" {
			return token
		}

		return value
	}
}

// previewComment prints the comment body followed by a diff against the
// comment a real run would update.
func previewComment(ctx context.Context, w io.Writer, api github.CommentAPI, pr github.PullRequest, body string) error {
	if body == "" {
		return github.ErrEmptyComment
	}

	existing, err := api.FindComment(ctx, pr, report.CommentMarker)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, body)
	fmt.Fprintln(w)

	if existing == nil {
		fmt.Fprintf(w, "no existing comment on %s, a new one would be created\n", pr.URL())

		return nil
	}

	if existing.Body == body {
		fmt.Fprintf(w, "comment %s is up to date\n", existing.HTMLURL)

		return nil
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(existing.Body, body, false))

	fmt.Fprintf(w, "comment %s would change:\n%s\n", existing.HTMLURL, dmp.DiffPrettyText(diffs))

	return nil
}

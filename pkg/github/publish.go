package github

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"github.com/Sumatoshi-tech/sizeimpact/pkg/report"
)

// ErrEmptyComment is returned when there is nothing to publish, for example
// because a snapshot file was empty.
var ErrEmptyComment = errors.New("pull request comment would be empty")

// CommentAPI is the part of Client used by Publish.
type CommentAPI interface {
	FindComment(ctx context.Context, pr PullRequest, re *regexp.Regexp) (*Comment, error)
	CreateComment(ctx context.Context, pr PullRequest, body string) (Comment, error)
	UpdateComment(ctx context.Context, pr PullRequest, id int64, body string) (Comment, error)
}

// Result describes what Publish did.
type Result struct {
	Comment Comment
	Updated bool
}

// Publish updates the size impact comment of the pull request, or creates it
// when none exists yet.
func Publish(ctx context.Context, api CommentAPI, pr PullRequest, body string, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if strings.TrimSpace(body) == "" {
		logger.WarnContext(ctx, "aborting because the pull request comment would be empty",
			"pull_request", pr.URL())

		return Result{}, ErrEmptyComment
	}

	logger.DebugContext(ctx, "searching existing comment", "pull_request", pr.URL())

	existing, err := api.FindComment(ctx, pr, report.CommentMarker)
	if err != nil {
		return Result{}, err
	}

	if existing != nil {
		logger.DebugContext(ctx, "comment found, updating it", "comment", existing.HTMLURL)

		comment, updateErr := api.UpdateComment(ctx, pr, existing.ID, body)
		if updateErr != nil {
			return Result{}, updateErr
		}

		logger.InfoContext(ctx, "comment updated", "comment", comment.HTMLURL)

		return Result{Comment: comment, Updated: true}, nil
	}

	logger.DebugContext(ctx, "comment not found, creating a comment")

	comment, err := api.CreateComment(ctx, pr, body)
	if err != nil {
		return Result{}, err
	}

	logger.InfoContext(ctx, "comment created", "comment", comment.HTMLURL)

	return Result{Comment: comment}, nil
}

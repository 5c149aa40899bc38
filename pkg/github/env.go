// Package github publishes size impact reports as pull request comments.
package github

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Errors returned by OptionsFromEnv.
var (
	ErrNotInAction       = errors.New("missing GITHUB_EVENT_NAME, not running in a github action")
	ErrNotPullRequest    = errors.New("github action event is not pull_request")
	ErrMissingRepository = errors.New("missing GITHUB_REPOSITORY")
	ErrMissingRef        = errors.New("missing GITHUB_REF")
	ErrInvalidRef        = errors.New("cannot get pull request number from GITHUB_REF")
	ErrMissingBaseRef    = errors.New("missing GITHUB_BASE_REF")
	ErrMissingHeadRef    = errors.New("missing GITHUB_HEAD_REF")
	ErrMissingToken      = errors.New("missing GITHUB_TOKEN")
)

const (
	pullRequestEvent = "pull_request"
	pullRefPrefix    = "refs/pull/"
)

// PullRequest identifies a pull request and its branches.
type PullRequest struct {
	Owner  string
	Repo   string
	Number int
	Base   string
	Head   string
}

// URL returns the web address of the pull request.
func (pr PullRequest) URL() string {
	return fmt.Sprintf("https://github.com/%s/%s/pull/%d", pr.Owner, pr.Repo, pr.Number)
}

// Options is what a pull_request workflow run provides.
type Options struct {
	PullRequest PullRequest
	Token       string
}

// OptionsFromEnv reads the pull request context of a GitHub Actions run.
// getenv is usually os.Getenv.
func OptionsFromEnv(getenv func(string) string) (Options, error) {
	eventName := getenv("GITHUB_EVENT_NAME")
	if eventName == "" {
		return Options{}, ErrNotInAction
	}

	if eventName != pullRequestEvent {
		return Options{}, fmt.Errorf("%w: got %q", ErrNotPullRequest, eventName)
	}

	repository := getenv("GITHUB_REPOSITORY")
	if repository == "" {
		return Options{}, ErrMissingRepository
	}

	owner, repo, ok := strings.Cut(repository, "/")
	if !ok || owner == "" || repo == "" {
		return Options{}, fmt.Errorf("%w: malformed value %q", ErrMissingRepository, repository)
	}

	ref := getenv("GITHUB_REF")
	if ref == "" {
		return Options{}, ErrMissingRef
	}

	number, err := pullRequestNumber(ref)
	if err != nil {
		return Options{}, err
	}

	base := getenv("GITHUB_BASE_REF")
	if base == "" {
		return Options{}, ErrMissingBaseRef
	}

	head := getenv("GITHUB_HEAD_REF")
	if head == "" {
		return Options{}, ErrMissingHeadRef
	}

	token := getenv("GITHUB_TOKEN")
	if token == "" {
		return Options{}, ErrMissingToken
	}

	return Options{
		PullRequest: PullRequest{Owner: owner, Repo: repo, Number: number, Base: base, Head: head},
		Token:       token,
	}, nil
}

// pullRequestNumber extracts N from "refs/pull/N/merge".
func pullRequestNumber(ref string) (int, error) {
	_, after, found := strings.Cut(ref, pullRefPrefix)
	if !found {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}

	numberStr, _, found := strings.Cut(after, "/")
	if !found {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}

	number, err := strconv.Atoi(numberStr)
	if err != nil || number <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}

	return number, nil
}

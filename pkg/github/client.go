package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	// DefaultAPIURL is the public GitHub REST endpoint.
	DefaultAPIURL = "https://api.github.com"

	commentsPerPage = 100
	defaultMaxTries = 3
	defaultTimeout  = 30 * time.Second
	maxErrorBody    = 4096
)

// APIError is a non-2xx response of the GitHub API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github api: status %d: %s", e.Status, e.Message)
}

// retryable reports whether the request may succeed when sent again.
func (e *APIError) retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= http.StatusInternalServerError
}

// Comment is an issue comment.
type Comment struct {
	ID      int64  `json:"id"`
	Body    string `json:"body"`
	HTMLURL string `json:"html_url"`
}

// Client talks to the GitHub REST API v3.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	newBackOff func() backoff.BackOff
	maxTries   uint
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at another API root, such as GitHub Enterprise.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRetry sets the backoff policy and attempt count for transient failures.
func WithRetry(newBackOff func() backoff.BackOff, maxTries uint) ClientOption {
	return func(c *Client) {
		c.newBackOff = newBackOff
		c.maxTries = maxTries
	}
}

// NewClient returns a client authenticated with token.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultAPIURL,
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		maxTries:   defaultMaxTries,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// FindComment returns the first comment of the pull request whose body
// matches re, or nil when there is none.
func (c *Client) FindComment(ctx context.Context, pr PullRequest, re *regexp.Regexp) (*Comment, error) {
	for page := 1; ; page++ {
		path := fmt.Sprintf("/repos/%s/%s/issues/%d/comments?per_page=%d&page=%d",
			pr.Owner, pr.Repo, pr.Number, commentsPerPage, page)

		var comments []Comment

		err := c.do(ctx, http.MethodGet, path, nil, &comments)
		if err != nil {
			return nil, fmt.Errorf("list comments: %w", err)
		}

		for i := range comments {
			if re.MatchString(comments[i].Body) {
				return &comments[i], nil
			}
		}

		if len(comments) < commentsPerPage {
			return nil, nil
		}
	}
}

// CreateComment posts a new comment on the pull request.
func (c *Client) CreateComment(ctx context.Context, pr PullRequest, body string) (Comment, error) {
	path := fmt.Sprintf("/repos/%s/%s/issues/%d/comments", pr.Owner, pr.Repo, pr.Number)

	var comment Comment

	err := c.do(ctx, http.MethodPost, path, map[string]string{"body": body}, &comment)
	if err != nil {
		return Comment{}, fmt.Errorf("create comment: %w", err)
	}

	return comment, nil
}

// UpdateComment replaces the body of an existing comment.
func (c *Client) UpdateComment(ctx context.Context, pr PullRequest, id int64, body string) (Comment, error) {
	path := fmt.Sprintf("/repos/%s/%s/issues/comments/%d", pr.Owner, pr.Repo, id)

	var comment Comment

	err := c.do(ctx, http.MethodPatch, path, map[string]string{"body": body}, &comment)
	if err != nil {
		return Comment{}, fmt.Errorf("update comment %d: %w", id, err)
	}

	return comment, nil
}

// do sends one API request, retrying rate limits and server errors.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var payload []byte

	if in != nil {
		var err error

		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	operation := func() (struct{}, error) {
		err := c.send(ctx, method, path, payload, out)

		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.retryable() {
			return struct{}{}, backoff.Permanent(err)
		}

		return struct{}{}, err
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(c.maxTries),
	)

	return err
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("build request: %w", err))
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("Authorization", "Bearer "+c.token)

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(resp.Body)}
	}

	if out == nil {
		return nil
	}

	decodeErr := json.NewDecoder(resp.Body).Decode(out)
	if decodeErr != nil {
		return backoff.Permanent(fmt.Errorf("decode response: %w", decodeErr))
	}

	return nil
}

// errorMessage extracts the "message" field of a GitHub error body, falling
// back to the raw text.
func errorMessage(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))

	var parsed struct {
		Message string `json:"message"`
	}

	if json.Unmarshal(data, &parsed) == nil && parsed.Message != "" {
		return parsed.Message
	}

	return strings.TrimSpace(string(data))
}

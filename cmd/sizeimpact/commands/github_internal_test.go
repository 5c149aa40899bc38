package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/sizeimpact/pkg/github"
)

type fakeCommentAPI struct {
	existing *github.Comment
	created  []string
	updated  map[int64]string
}

func (f *fakeCommentAPI) FindComment(_ context.Context, _ github.PullRequest, re *regexp.Regexp) (*github.Comment, error) {
	if f.existing != nil && re.MatchString(f.existing.Body) {
		return f.existing, nil
	}

	return nil, nil
}

func (f *fakeCommentAPI) CreateComment(_ context.Context, _ github.PullRequest, body string) (github.Comment, error) {
	f.created = append(f.created, body)

	return github.Comment{ID: 7, Body: body, HTMLURL: "https://github.com/acme/web/pull/42#issuecomment-7"}, nil
}

func (f *fakeCommentAPI) UpdateComment(_ context.Context, _ github.PullRequest, id int64, body string) (github.Comment, error) {
	if f.updated == nil {
		f.updated = make(map[int64]string)
	}

	f.updated[id] = body

	return github.Comment{ID: id, Body: body, HTMLURL: f.existing.HTMLURL}, nil
}

func actionEnv(token string) func(string) string {
	env := map[string]string{
		"GITHUB_EVENT_NAME": "pull_request",
		"GITHUB_REPOSITORY": "acme/web",
		"GITHUB_REF":        "refs/pull/42/merge",
		"GITHUB_BASE_REF":   "main",
		"GITHUB_HEAD_REF":   "feature",
		"GITHUB_TOKEN":      token,
	}

	return func(key string) string { return env[key] }
}

func writeSnapshots(t *testing.T, config string) (cfgPath, basePath, headPath string) {
	t.Helper()

	dir := t.TempDir()

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		return path
	}

	return write("config.yaml", config),
		write("base.json", `{"dist": {"trackingConfig": {"**/*": true}, "report": {"app.js": {"hash": "a1", "size": 1000}}}}`),
		write("head.json", `{"dist": {"trackingConfig": {"**/*": true}, "report": {"app.js": {"hash": "a2", "size": 1600}}}}`)
}

func runGitHub(
	t *testing.T,
	api *fakeCommentAPI,
	getenv func(string) string,
	args ...string,
) (string, string, error) {
	t.Helper()

	var gotToken, gotURL string

	cmd := newGitHubCommandWithDeps(getenv, func(token, apiURL string) github.CommentAPI {
		gotToken, gotURL = token, apiURL

		return api
	})

	root := NewRootCommand()
	for _, sub := range root.Commands() {
		if sub.Name() == "github" {
			root.RemoveCommand(sub)
		}
	}

	root.AddCommand(cmd)

	var stdout bytes.Buffer

	root.SetOut(&stdout)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"github"}, args...))

	err := root.Execute()

	return stdout.String(), gotToken + " " + gotURL, err
}

func TestGitHubCommand_CreatesComment(t *testing.T) {
	t.Parallel()

	cfgPath, basePath, headPath := writeSnapshots(t, "")
	api := &fakeCommentAPI{}

	stdout, client, err := runGitHub(t, api, actionEnv("secret"), basePath, headPath, "--config", cfgPath)
	require.NoError(t, err)

	require.Len(t, api.created, 1)
	assert.Contains(t, api.created[0], "Overall size impact on main merging feature: +600 B")
	assert.Contains(t, api.created[0], "Generated by")
	assert.Contains(t, stdout, "comment created: https://github.com/acme/web/pull/42#issuecomment-7")
	assert.Equal(t, "secret "+github.DefaultAPIURL, client)
}

func TestGitHubCommand_UpdatesComment(t *testing.T) {
	t.Parallel()

	cfgPath, basePath, headPath := writeSnapshots(t, "report:\n  generated_by: false\n")
	api := &fakeCommentAPI{existing: &github.Comment{
		ID:      99,
		Body:    "<h4>Overall size impact on main merging feature: +1 B</h4>",
		HTMLURL: "https://github.com/acme/web/pull/42#issuecomment-99",
	}}

	stdout, _, err := runGitHub(t, api, actionEnv("secret"), basePath, headPath, "--config", cfgPath)
	require.NoError(t, err)

	assert.Empty(t, api.created)
	require.Contains(t, api.updated, int64(99))
	assert.NotContains(t, api.updated[99], "Generated by")
	assert.Contains(t, stdout, "comment updated: https://github.com/acme/web/pull/42#issuecomment-99")
}

func TestGitHubCommand_TokenFromConfig(t *testing.T) {
	t.Parallel()

	cfgPath, basePath, headPath := writeSnapshots(t,
		"github:\n  token: from-config\n  api_url: https://ghe.example.com/api/v3\n")
	api := &fakeCommentAPI{}

	_, client, err := runGitHub(t, api, actionEnv(""), basePath, headPath, "--config", cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "from-config https://ghe.example.com/api/v3", client)
}

func TestGitHubCommand_NotInAction(t *testing.T) {
	t.Parallel()

	cfgPath, basePath, headPath := writeSnapshots(t, "")
	api := &fakeCommentAPI{}

	_, _, err := runGitHub(t, api, func(string) string { return "" }, basePath, headPath, "--config", cfgPath)
	require.ErrorIs(t, err, github.ErrNotInAction)
	assert.Empty(t, api.created)
}

func TestGitHubCommand_DryRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		existing *github.Comment
		want     string
	}{
		{
			name: "new comment",
			want: "no existing comment on https://github.com/acme/web/pull/42, a new one would be created",
		},
		{
			name: "changed comment",
			existing: &github.Comment{
				ID:      5,
				Body:    "<h4>Overall size impact on main merging feature: +1 B</h4>",
				HTMLURL: "https://github.com/acme/web/pull/42#issuecomment-5",
			},
			want: "comment https://github.com/acme/web/pull/42#issuecomment-5 would change:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfgPath, basePath, headPath := writeSnapshots(t, "")
			api := &fakeCommentAPI{existing: tt.existing}

			stdout, _, err := runGitHub(t, api, actionEnv("secret"), basePath, headPath, "--config", cfgPath, "--dry-run")
			require.NoError(t, err)

			assert.Contains(t, stdout, "Overall size impact on main merging feature: +600 B")
			assert.Contains(t, stdout, tt.want)
			assert.Empty(t, api.created)
			assert.Empty(t, api.updated)
		})
	}
}

func TestPreviewComment_UpToDate(t *testing.T) {
	t.Parallel()

	body := "<h4>Overall size impact on main merging feature: 0 B</h4>"
	api := &fakeCommentAPI{existing: &github.Comment{ID: 1, Body: body, HTMLURL: "https://example.com/c/1"}}

	var out bytes.Buffer

	err := previewComment(context.Background(), &out, api, github.PullRequest{Owner: "acme", Repo: "web", Number: 1}, body)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "comment https://example.com/c/1 is up to date")
}

func TestPreviewComment_Empty(t *testing.T) {
	t.Parallel()

	err := previewComment(context.Background(), &bytes.Buffer{}, &fakeCommentAPI{}, github.PullRequest{}, "")
	require.ErrorIs(t, err, github.ErrEmptyComment)
}

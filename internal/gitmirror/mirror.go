// Package gitmirror keeps local working copies of remote repositories up
// to date by shelling out to the git binary. Every invocation targets an
// explicit path (clone destination or -C directory); the process working
// directory is never changed.
package gitmirror

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"strings"

	apperrors "github.com/kurihiro0119/github-org-archive/internal/errors"
)

// Actions reported by Sync.
const (
	ActionCloned = "cloned"
	ActionPulled = "pulled"
)

// Mirror ensures a local working copy exists and is current.
type Mirror interface {
	// Sync clones url into dest when dest does not exist, otherwise pulls
	// inside it. It returns the action taken.
	Sync(ctx context.Context, cloneURL, dest string) (string, error)

	// WikiURL derives the wiki repository URL from a clone URL.
	WikiURL(cloneURL string) string
}

// GitMirror implements Mirror with the git binary and an access token
// embedded into clone URLs.
type GitMirror struct {
	token  string
	runGit func(ctx context.Context, args []string) (string, error)
}

// New creates a mirror authenticating with the given token.
func New(token string) *GitMirror {
	m := &GitMirror{token: token}
	m.runGit = m.execGit
	return m
}

// Sync clones or pulls the repository at cloneURL into dest.
func (m *GitMirror) Sync(ctx context.Context, cloneURL, dest string) (string, error) {
	if _, err := os.Stat(dest); os.IsNotExist(err) {
		if err := m.git(ctx, "clone", m.authURL(cloneURL), dest); err != nil {
			return ActionCloned, err
		}
		return ActionCloned, nil
	}
	if err := m.git(ctx, "-C", dest, "pull"); err != nil {
		return ActionPulled, err
	}
	return ActionPulled, nil
}

// WikiURL derives the wiki repository URL from a clone URL.
func (m *GitMirror) WikiURL(cloneURL string) string {
	return strings.TrimSuffix(cloneURL, ".git") + ".wiki.git"
}

// authURL embeds the token into the clone URL userinfo.
func (m *GitMirror) authURL(cloneURL string) string {
	if m.token == "" {
		return cloneURL
	}
	u, err := url.Parse(cloneURL)
	if err != nil {
		return cloneURL
	}
	u.User = url.User(m.token)
	return u.String()
}

func (m *GitMirror) git(ctx context.Context, args ...string) error {
	stderr, err := m.runGit(ctx, args)
	if err != nil {
		msg := fmt.Sprintf("git %s: %s", m.redact(strings.Join(args, " ")), strings.TrimSpace(stderr))
		return apperrors.NewGitError(msg, err)
	}
	return nil
}

// execGit runs git and captures stderr so failures carry a diagnostic.
func (m *GitMirror) execGit(ctx context.Context, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.String(), err
}

// redact strips the token from anything destined for logs or errors.
func (m *GitMirror) redact(s string) string {
	if m.token == "" {
		return s
	}
	return strings.ReplaceAll(s, m.token, "***")
}

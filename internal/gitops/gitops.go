// Package gitops keeps a billing data directory under git so every change to
// the book is a commit.
package gitops

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Author is the identity used for commits made by billing.
type Author struct {
	Name  string
	Email string
}

// Repo is a git working tree rooted at Dir.
type Repo struct {
	Dir    string
	Author Author
}

// Open returns a Repo for dir. It does not check that dir is a repository.
func Open(dir string, author Author) *Repo {
	return &Repo{Dir: dir, Author: author}
}

// IsRepo reports whether dir is the root of a git repository.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// Init creates the repository if it does not exist yet.
func (r *Repo) Init(ctx context.Context) error {
	if IsRepo(r.Dir) {
		return nil
	}
	if _, err := r.git(ctx, "init", "--quiet"); err != nil {
		return fmt.Errorf("git init: %w", err)
	}
	return nil
}

// Commit stages paths (everything when none are given) and commits them.
// Returns the short hash, or "" when there was nothing to commit.
func (r *Repo) Commit(ctx context.Context, message string, paths ...string) (string, error) {
	args := []string{"add", "-A"}
	if len(paths) > 0 {
		args = append(args, "--")
		args = append(args, paths...)
	}
	if _, err := r.git(ctx, args...); err != nil {
		return "", fmt.Errorf("git add: %w", err)
	}

	// diff --cached --quiet exits 0 when the index matches HEAD.
	if _, err := r.git(ctx, "diff", "--cached", "--quiet"); err == nil && r.hasHead(ctx) {
		return "", nil
	}

	author := fmt.Sprintf("%s <%s>", r.Author.Name, r.Author.Email)
	if _, err := r.git(ctx, "commit", "--quiet", "-m", message, "--author", author); err != nil {
		return "", fmt.Errorf("git commit: %w", err)
	}

	out, err := r.git(ctx, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func (r *Repo) hasHead(ctx context.Context) bool {
	_, err := r.git(ctx, "rev-parse", "--verify", "--quiet", "HEAD")
	return err == nil
}

func (r *Repo) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.Dir
	// The committer identity may be unset on fresh machines and CI.
	cmd.Env = append(os.Environ(),
		"GIT_COMMITTER_NAME="+r.Author.Name,
		"GIT_COMMITTER_EMAIL="+r.Author.Email,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s: %w", strings.TrimSpace(stderr.String()), err)
	}
	return stdout.String(), nil
}

// Package github stores notes as files in a GitHub repository.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
)

type Config struct {
	Token          string
	Owner          string
	Repo           string
	Branch         string
	CommitterName  string
	CommitterEmail string
	// APIURL overrides https://api.github.com/, e.g. for GitHub Enterprise.
	APIURL  string
	Timeout time.Duration
}

type Store struct {
	client    *github.Client
	owner     string
	repo      string
	branch    string
	committer *github.CommitAuthor
	logger    *slog.Logger
}

func New(cfg Config, logger *slog.Logger) (*Store, error) {
	client := github.NewClient(&http.Client{Timeout: cfg.Timeout}).WithAuthToken(cfg.Token)

	if cfg.APIURL != "" {
		base, err := url.Parse(strings.TrimRight(cfg.APIURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parse api url: %w", err)
		}
		client.BaseURL = base
	}

	return &Store{
		client: client,
		owner:  cfg.Owner,
		repo:   cfg.Repo,
		branch: cfg.Branch,
		committer: &github.CommitAuthor{
			Name:  github.String(cfg.CommitterName),
			Email: github.String(cfg.CommitterEmail),
		},
		logger: logger.With("component", "github", "repo", cfg.Owner+"/"+cfg.Repo),
	}, nil
}

// PutFile creates path in the repository with a single commit. An existing
// file at path is an error.
func (s *Store) PutFile(ctx context.Context, path, content string) (string, error) {
	name := path[strings.LastIndex(path, "/")+1:]

	opts := &github.RepositoryContentFileOptions{
		Message:   github.String("Add note: " + strings.TrimSuffix(name, ".md")),
		Content:   []byte(content),
		Committer: s.committer,
	}
	if s.branch != "" {
		opts.Branch = github.String(s.branch)
	}

	resp, _, err := s.client.Repositories.CreateFile(ctx, s.owner, s.repo, escapePath(path), opts)
	if err != nil {
		return "", fmt.Errorf("create %s in %s/%s: %w", path, s.owner, s.repo, err)
	}

	ref := path
	if resp != nil && resp.Content != nil && resp.Content.GetHTMLURL() != "" {
		ref = resp.Content.GetHTMLURL()
	}

	s.logger.Debug("file committed", "path", path, "ref", ref)
	return ref, nil
}

// escapePath escapes each segment of path. go-github splices the path into the
// request URL as is, so '#', '%' and '?' would otherwise be misread.
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

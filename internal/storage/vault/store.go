// Package vault stores notes in a local markdown vault, optionally versioned with git.
package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

type Config struct {
	Path        string
	Git         bool
	AuthorName  string
	AuthorEmail string
}

// Store writes one file per note under a root directory. Writes are
// serialized so git never sees two commits racing for the index.
type Store struct {
	root   string
	git    bool
	author [2]string
	mu     sync.Mutex
	logger *slog.Logger
}

func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	root, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve vault path: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}

	s := &Store{
		root:   root,
		git:    cfg.Git,
		author: [2]string{cfg.AuthorName, cfg.AuthorEmail},
		logger: logger.With("component", "vault", "root", root),
	}

	if s.git {
		if _, err := os.Stat(filepath.Join(root, ".git")); errors.Is(err, os.ErrNotExist) {
			if _, err := s.run(ctx, "init"); err != nil {
				return nil, err
			}
			s.logger.Info("initialized git repository")
		}
	}

	return s, nil
}

// PutFile creates path under the vault root and returns the absolute file
// path. An existing file at path is an error.
func (s *Store) PutFile(ctx context.Context, path, content string) (string, error) {
	rel := filepath.FromSlash(path)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("path %q escapes the vault", path)
	}
	full := filepath.Join(s.root, rel)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create dir for %s: %w", path, err)
	}

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		os.Remove(full)
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("close %s: %w", path, err)
	}

	if s.git {
		if err := s.commit(ctx, rel); err != nil {
			_, _ = s.run(context.WithoutCancel(ctx), "reset", "-q", "--", rel)
			os.Remove(full)
			return "", err
		}
	}

	s.logger.Debug("file written", "path", full)
	return full, nil
}

func (s *Store) commit(ctx context.Context, rel string) error {
	if _, err := s.run(ctx, "add", "--", rel); err != nil {
		return err
	}

	msg := "Add note: " + strings.TrimSuffix(filepath.Base(rel), ".md")
	args := []string{"commit", "-q", "-m", msg, "--", rel}
	if s.author[0] != "" {
		args = append([]string{"-c", "user.name=" + s.author[0], "-c", "user.email=" + s.author[1]}, args...)
	}

	_, err := s.run(ctx, args...)
	return err
}

func (s *Store) run(ctx context.Context, args ...string) (string, error) {
	s.logger.Debug("executing git", "args", args)

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = s.root

	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}

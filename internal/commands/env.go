package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/cleared-dev/billing/internal/config"
	"github.com/cleared-dev/billing/internal/gitops"
	"github.com/cleared-dev/billing/internal/logging"
	"github.com/cleared-dev/billing/internal/sources"
)

// env is everything a command needs from an initialized data directory.
type env struct {
	dir    string
	cfg    *config.Config
	logger *zap.Logger
}

func loadEnv(g *globalFlags) (*env, error) {
	dir, err := filepath.Abs(g.repo)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	if err := config.LoadDotEnv(".env", filepath.Join(dir, ".env")); err != nil {
		return nil, err
	}
	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	if err != nil {
		return nil, fmt.Errorf("%w (run billing init first?)", err)
	}

	level, format := cfg.Log.Level, cfg.Log.Format
	if g.logLevel != "" {
		level = g.logLevel
	}
	if g.logFormat != "" {
		format = g.logFormat
	}
	logger, err := logging.New(level, format)
	if err != nil {
		return nil, err
	}
	return &env{dir: dir, cfg: cfg, logger: logger}, nil
}

func (e *env) close() {
	_ = e.logger.Sync()
}

func (e *env) open(ctx context.Context) (*sources.Set, error) {
	return sources.Open(ctx, e.cfg, e.dir, e.logger)
}

// commit records changed book files in git when auto-commit is on and the
// book lives in the data directory. Failures are logged, the book change
// itself has already succeeded.
func (e *env) commit(set *sources.Set, message string, files ...string) {
	if set.Kind != config.SourceCSV || !e.cfg.Git.AutoCommit || !gitops.IsRepo(e.dir) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo := gitops.Open(e.dir, gitops.Author{Name: e.cfg.Git.AuthorName, Email: e.cfg.Git.AuthorEmail})
	hash, err := repo.Commit(ctx, message, files...)
	if err != nil {
		e.logger.Warn("git commit failed", zap.String("message", message), zap.Error(err))
		return
	}
	if hash != "" {
		e.logger.Debug("committed", zap.String("hash", hash), zap.String("message", message))
	}
}

func parseDateFlag(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s %q: want YYYY-MM-DD", name, value)
	}
	return t, nil
}

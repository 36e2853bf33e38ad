package inventoryfeed

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// fileLoader reads feeds from a local directory.
type fileLoader struct {
	dir    string
	logger zerolog.Logger
}

// NewFileLoader creates a loader resolving feed names under dir.
func NewFileLoader(dir string, logger zerolog.Logger) Loader {
	return &fileLoader{
		dir:    dir,
		logger: logger.With().Str("component", "feed-file-loader").Logger(),
	}
}

// Load opens dir/name. Names may not escape dir.
func (l *fileLoader) Load(ctx context.Context, name string) (*Feed, error) {
	path, err := l.resolve(name)
	if err != nil {
		return nil, err
	}

	l.logger.Info().Str("file", path).Msg("loading inventory feed")

	file, err := os.Open(path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to open inventory feed")
		return nil, fmt.Errorf("failed to open inventory feed %s: %w", path, err)
	}
	defer file.Close()

	feed, err := Parse(ctx, name, file)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to parse inventory feed")
		return nil, err
	}

	l.logger.Info().
		Str("file", path).
		Int("updates", len(feed.Updates)).
		Int("rejected", len(feed.Rejected)).
		Msg("inventory feed loaded")

	return feed, nil
}

func (l *fileLoader) resolve(name string) (string, error) {
	clean := filepath.Clean("/" + name)
	if clean == "/" {
		return "", fmt.Errorf("invalid feed name %q", name)
	}
	return filepath.Join(l.dir, clean), nil
}

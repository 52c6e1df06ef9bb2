package github

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// Fetcher reads Camel XML documents from GitHub repositories.
type Fetcher struct {
	ghClient *GHClient
	logger   *slog.Logger
}

// NewFetcher creates a new GitHub document fetcher. A nil client shells out to
// the installed gh CLI.
func NewFetcher(client *GHClient, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = NewGHClient()
	}
	return &Fetcher{
		ghClient: client,
		logger:   logger.With("component", "github_fetcher"),
	}
}

// Fetch retrieves the raw document bytes.
func (f *Fetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	log := f.logger.With(slog.String("source", source))

	if !IsGitHubURL(source) {
		return nil, fmt.Errorf("not a GitHub URL: %s", source)
	}

	log.Info("Fetching document from GitHub")

	content, err := f.ghClient.FetchFile(ctx, source)
	if err != nil {
		log.Error("Failed to fetch file from GitHub", slog.Any("error", err))
		return nil, fmt.Errorf("failed to fetch file from GitHub: %w", err)
	}

	log.Info("Fetched document from GitHub", slog.Int("bytes", len(content)))
	return content, nil
}

// LoadConfig reads a configuration file from either a GitHub URL or the
// local filesystem.
func LoadConfig(ctx context.Context, path string) ([]byte, error) {
	if IsGitHubURL(path) {
		content, err := NewGHClient().FetchFile(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch config from GitHub: %w", err)
		}
		return content, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

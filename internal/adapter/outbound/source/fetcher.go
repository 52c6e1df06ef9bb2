// Package source loads Camel XML documents from local files, http(s) URLs
// and github:// references.
package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"

	"github.com/i2y/camelconv/internal/adapter/outbound/github"
)

// maxDocumentSize bounds remote reads.
const maxDocumentSize = 32 << 20

// Fetcher implements usecase.DocumentSource.
type Fetcher struct {
	httpClient *http.Client
	gh         *github.Fetcher
	logger     *slog.Logger
}

// NewFetcher creates a Fetcher. A nil client selects http.DefaultClient and a
// nil gh fetcher disables github:// sources.
func NewFetcher(client *http.Client, gh *github.Fetcher, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{
		httpClient: client,
		gh:         gh,
		logger:     logger.With("component", "document_fetcher"),
	}
}

// Fetch loads a document from a URL, a github:// reference or a local file
// path.
func (f *Fetcher) Fetch(ctx context.Context, src string) ([]byte, error) {
	log := f.logger.With(slog.String("source", src))

	if github.IsGitHubURL(src) {
		if f.gh == nil {
			return nil, fmt.Errorf("github sources are not enabled: %s", src)
		}
		return f.gh.Fetch(ctx, src)
	}

	u, parseErr := url.ParseRequestURI(src)
	if parseErr == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return f.fetchURL(ctx, log, src)
	}
	if parseErr == nil && u.Scheme == "file" {
		src = u.Path
	}

	log.Debug("Reading local file")
	data, err := os.ReadFile(src)
	if err != nil {
		log.Error("Failed to read document from file", slog.Any("error", err))
		return nil, fmt.Errorf("failed to read document from file %s: %w", src, err)
	}
	log.Info("Read document", slog.Int("bytes", len(data)))
	return data, nil
}

func (f *Fetcher) fetchURL(ctx context.Context, log *slog.Logger, src string) ([]byte, error) {
	log.Debug("Fetching from URL")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", src, err)
	}
	req.Header.Set("Accept", "application/xml, text/xml, */*")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		log.Error("Failed to fetch document from URL", slog.Any("error", err))
		return nil, fmt.Errorf("failed to fetch document from URL %s: %w", src, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn("Received non-OK status code from URL", slog.String("status", resp.Status), slog.Int("status_code", resp.StatusCode))
		return nil, fmt.Errorf("failed to fetch document from URL %s: status %s", src, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		log.Error("Failed to read response body from URL", slog.Any("error", err))
		return nil, fmt.Errorf("failed to read response body from %s: %w", src, err)
	}
	if len(data) > maxDocumentSize {
		return nil, fmt.Errorf("document at %s exceeds %d bytes", src, maxDocumentSize)
	}
	log.Info("Fetched document", slog.Int("bytes", len(data)))
	return data, nil
}

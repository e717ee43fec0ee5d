package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/sandevgo/medichat/internal/core"
	"github.com/sandevgo/medichat/pkg/retry"
)

const defaultFetchTimeout = 15 * time.Second

var ErrUnsupportedURL = errors.New("only http and https urls can be fetched")

var contentTypeExt = map[string]string{
	"application/pdf": ".pdf",
	"text/html":       ".html",
	"text/markdown":   ".md",
	"text/plain":      ".txt",
}

// Fetcher downloads web documents into a Library.
type Fetcher struct {
	lib     *Library
	client  *http.Client
	retrier *retry.Retrier
}

func NewFetcher(lib *Library, retrier *retry.Retrier) *Fetcher {
	if retrier == nil {
		retrier = retry.NewDefaultRetrier()
	}
	return &Fetcher{
		lib:     lib,
		client:  &http.Client{Timeout: defaultFetchTimeout},
		retrier: retrier,
	}
}

// IngestURL fetches rawURL and ingests the body. Server errors and 429 are
// retried; other 4xx responses are not.
func (f *Fetcher) IngestURL(ctx context.Context, rawURL string) (Document, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Document{}, fmt.Errorf("%w: %q", ErrUnsupportedURL, rawURL)
	}

	var (
		data        []byte
		contentType string
	)
	err = f.retrier.Do(ctx, func() error {
		data, contentType, err = f.get(ctx, u.String())
		return err
	})
	if err != nil {
		return Document{}, err
	}

	return f.lib.Ingest(ctx, documentName(u, contentType), data)
}

func (f *Fetcher) get(ctx context.Context, target string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", retry.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("User-Agent", core.AppUserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		err := fmt.Errorf("failed to fetch url: HTTP %d", resp.StatusCode)
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, "", retry.Permanent(err)
		}
		return nil, "", err
	}

	limit := f.lib.cfg.MaxFileBytes
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, "", retry.Permanent(fmt.Errorf("%w: %s is larger than %d bytes", ErrFileTooLarge, target, limit))
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// documentName keeps a supported extension from the url path, otherwise
// derives one from the content type.
func documentName(u *url.URL, contentType string) string {
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		name = u.Host
	}
	if _, err := DetectType(name); err == nil {
		return name
	}

	mediaType, _, _ := mime.ParseMediaType(contentType)
	ext, ok := contentTypeExt[mediaType]
	if !ok {
		ext = ".html"
	}
	return name + ext
}

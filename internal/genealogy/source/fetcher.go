package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"lineage/internal/genealogy/tree"
)

// maxDocumentBytes bounds how much of a source document is read.
const maxDocumentBytes = 64 << 20

// Fetcher retrieves and decodes the record document.
type Fetcher interface {
	Fetch(ctx context.Context) ([]tree.Record, error)
}

// HTTPFetcher loads the document with a GET request.
type HTTPFetcher struct {
	url    string
	client *http.Client
}

// NewHTTPFetcher returns a fetcher for url. A zero timeout means no client timeout.
func NewHTTPFetcher(url string, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{url: url, client: &http.Client{Timeout: timeout}}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context) ([]tree.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, unavailable("build request: %v", err)
	}
	req.Header.Set("Accept", "application/json, application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, unavailable("get %s: %v", f.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, unavailable("get %s: status %d", f.url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, unavailable("read body: %v", err)
	}
	return DecodeBytes(body)
}

// String identifies the source in logs.
func (f *HTTPFetcher) String() string {
	return f.url
}

// FileFetcher loads the document from the local filesystem.
type FileFetcher struct {
	path string
}

// NewFileFetcher returns a fetcher for path.
func NewFileFetcher(path string) *FileFetcher {
	return &FileFetcher{path: path}
}

// Fetch implements Fetcher.
func (f *FileFetcher) Fetch(ctx context.Context) ([]tree.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("%v", err)
	}
	file, err := os.Open(f.path)
	if err != nil {
		return nil, unavailable("open %s: %v", f.path, err)
	}
	defer file.Close()

	body, err := io.ReadAll(io.LimitReader(file, maxDocumentBytes))
	if err != nil {
		return nil, unavailable("read %s: %v", f.path, err)
	}
	return DecodeBytes(body)
}

// String identifies the source in logs.
func (f *FileFetcher) String() string {
	return f.path
}

// IsUnavailable reports whether err means the source could not be reached.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrSourceUnavailable)
}

// IsMalformed reports whether err means the source was not a record collection.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedSource)
}

var (
	_ Fetcher      = (*HTTPFetcher)(nil)
	_ Fetcher      = (*FileFetcher)(nil)
	_ fmt.Stringer = (*HTTPFetcher)(nil)
	_ fmt.Stringer = (*FileFetcher)(nil)
)

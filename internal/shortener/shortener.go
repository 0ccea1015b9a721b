// Package shortener turns long presigned URLs into short aliases via an is.gd-compatible API.
package shortener

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrShorten is returned (wrapped) for any failed shortening attempt.
var ErrShorten = errors.New("shorten url")

// Shortener returns a short alias for a URL.
type Shortener interface {
	Shorten(ctx context.Context, longURL string) (string, error)
}

// IsGd calls the is.gd "simple" API: GET {endpoint}?format=simple&url=...
type IsGd struct {
	endpoint string
	client   *http.Client
}

var _ Shortener = (*IsGd)(nil)

// NewIsGd returns a client with a traced transport and the given timeout.
func NewIsGd(endpoint string, timeout time.Duration) *IsGd {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &IsGd{
		endpoint: endpoint,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (s *IsGd) Shorten(ctx context.Context, longURL string) (string, error) {
	u, err := url.Parse(s.endpoint)
	if err != nil {
		return "", fmt.Errorf("%w: invalid endpoint: %v", ErrShorten, err)
	}
	q := u.Query()
	q.Set("format", "simple")
	q.Set("url", longURL)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrShorten, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrShorten, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrShorten, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", ErrShorten, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	short := strings.TrimSpace(string(body))
	if !strings.HasPrefix(short, "http://") && !strings.HasPrefix(short, "https://") {
		return "", fmt.Errorf("%w: unexpected response %q", ErrShorten, short)
	}
	return short, nil
}

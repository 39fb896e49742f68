// Package network performs the worker's outbound fetches against the
// upstream static host.
package network

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AmonBrollo/FlashLingo/internal/domain"
)

// Mode selects the HTTP cache semantics of a fetch.
type Mode int

const (
	// ModeDefault lets intermediaries answer from their caches.
	ModeDefault Mode = iota
	// ModeReload forces a network round trip, ignoring any HTTP cache.
	ModeReload
)

// Fetcher retrieves a request from the network. Transport failures are
// returned as errors; any HTTP status is returned as a response.
type Fetcher interface {
	Fetch(ctx context.Context, req *http.Request, mode Mode) (*domain.Response, error)
}

// HTTPFetcher fetches public-origin URLs from an upstream static host.
type HTTPFetcher struct {
	client   *http.Client
	origin   *url.URL
	upstream *url.URL
}

// DefaultTimeout bounds a single upstream round trip.
const DefaultTimeout = 30 * time.Second

// NewHTTPFetcher creates an HTTPFetcher. Requests whose URL belongs to
// origin are sent to upstream instead; a nil client uses a client with
// DefaultTimeout.
func NewHTTPFetcher(client *http.Client, origin, upstream *url.URL) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &HTTPFetcher{client: client, origin: origin, upstream: upstream}
}

// Fetch performs a single GET round trip. No retries.
func (f *HTTPFetcher) Fetch(ctx context.Context, req *http.Request, mode Mode) (*domain.Response, error) {
	target := f.rewrite(req.URL)

	out, err := http.NewRequestWithContext(ctx, req.Method, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", req.URL, err)
	}
	for _, h := range []string{"Accept", "Accept-Language", "User-Agent"} {
		if v := req.Header.Get(h); v != "" {
			out.Header.Set(h, v)
		}
	}
	if mode == ModeReload {
		out.Header.Set("Cache-Control", "no-cache")
		out.Header.Set("Pragma", "no-cache")
	}

	resp, err := f.client.Do(out)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", req.URL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", req.URL, err)
	}

	return &domain.Response{
		URL:    req.URL.String(),
		Status: resp.StatusCode,
		Header: resp.Header.Clone(),
		Body:   body,
	}, nil
}

// rewrite maps a public-origin URL onto the upstream host.
func (f *HTTPFetcher) rewrite(u *url.URL) *url.URL {
	if f.upstream == nil || f.origin == nil {
		return u
	}
	if u.Scheme != f.origin.Scheme || u.Host != f.origin.Host {
		return u
	}
	out := *u
	out.Scheme = f.upstream.Scheme
	out.Host = f.upstream.Host
	out.Path = joinPath(f.upstream.Path, u.Path)
	out.RawPath = ""
	out.Fragment = ""
	return &out
}

// joinPath appends p to the upstream base path with exactly one slash
// between them, matching how pass-through requests are proxied.
func joinPath(base, p string) string {
	switch {
	case base == "" || base == "/":
		return p
	case p == "":
		return base
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(p, "/")
}

// NewRequest builds a GET request for rawURL, used for prefetch and install
// where there is no incoming request to clone.
func NewRequest(ctx context.Context, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", rawURL, err)
	}
	return req, nil
}

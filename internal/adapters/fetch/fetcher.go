// Package fetch provides streaming HTTP downloads with retry, circuit breaking
// and directory index parsing for remote version sources.
package fetch

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/cenk/backoff"
	"github.com/rs/dnscache"
	"go.trai.ch/igniter/internal/core/domain"
	"go.trai.ch/igniter/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	defaultMaxRetries = 3
	defaultBaseDelay  = 500 * time.Millisecond
	maxIndexSize      = 8 << 20
	maxErrorBody      = 1024
)

// Fetcher downloads artifacts and directory listings over HTTP.
type Fetcher struct {
	client     *http.Client
	userAgent  string
	maxRetries int
	baseDelay  time.Duration
	timeout    time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxRetries sets the maximum retry attempts.
func WithMaxRetries(n int) Option {
	return func(f *Fetcher) {
		f.maxRetries = n
	}
}

// WithBaseDelay sets the initial delay of the exponential backoff.
func WithBaseDelay(d time.Duration) Option {
	return func(f *Fetcher) {
		f.baseDelay = d
	}
}

// WithTimeout bounds HEAD and index requests as a whole and downloads up to the response headers.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// NewFetcher creates a new Fetcher with the given options.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		userAgent:  "igniter",
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		timeout:    domain.DefaultHTTPTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = &http.Client{Transport: newTransport(f.timeout)}
	}
	return f
}

// newTransport dials through a DNS cache so repeated probes against one mirror skip lookups.
func newTransport(timeout time.Duration) *http.Transport {
	resolver := &dnscache.Resolver{}
	dialer := &net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
	}

	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, port, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, err
			}
			ips, err := resolver.LookupHost(ctx, host)
			if err != nil {
				return nil, err
			}
			var lastErr error
			for _, ip := range ips {
				conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
				if err == nil {
					return conn, nil
				}
				lastErr = err
			}
			return nil, zerr.With(zerr.Wrap(lastErr, "failed to dial any resolved IP"), "host", host)
		},
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// Fetch downloads the artifact at url. The caller must close the returned Artifact.Body.
// Rate limiting and server errors are retried with exponential backoff.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*ports.Artifact, error) {
	var artifact *ports.Artifact
	err := f.retry(ctx, func() error {
		var err error
		artifact, err = f.doFetch(ctx, url)
		return err
	})
	if err != nil {
		return nil, err
	}
	return artifact, nil
}

func (f *Fetcher) retry(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.baseDelay
	b.MaxElapsedTime = 0
	b.Reset()

	for attempt := 0; ; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		if !retryable(err) || attempt >= f.maxRetries {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.NextBackOff()):
		}
	}
}

func retryable(err error) bool {
	return errors.Is(err, domain.ErrRateLimited) || errors.Is(err, domain.ErrUpstreamDown)
}

func (f *Fetcher) newRequest(ctx context.Context, method, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to create request"), "url", url)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "*/*")
	return req, nil
}

func (f *Fetcher) doFetch(ctx context.Context, url string) (*ports.Artifact, error) {
	req, err := f.newRequest(ctx, http.MethodGet, url)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to fetch artifact"), "url", url)
	}

	if err := statusError(resp, url); err != nil {
		return nil, err
	}

	return &ports.Artifact{
		Body:        resp.Body,
		Size:        contentLength(resp),
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// statusError closes the body and classifies any non-200 response.
func statusError(resp *http.Response, url string) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	var err error
	switch {
	case resp.StatusCode == http.StatusNotFound:
		err = zerr.Wrap(domain.ErrArtifactNotFound, "remote returned 404")
	case resp.StatusCode == http.StatusTooManyRequests:
		err = zerr.Wrap(domain.ErrRateLimited, "remote returned 429")
	case resp.StatusCode >= http.StatusInternalServerError:
		err = zerr.With(zerr.Wrap(domain.ErrUpstreamDown, "remote server error"), "status", resp.StatusCode)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		err = zerr.With(zerr.With(zerr.New("unexpected status "+strconv.Itoa(resp.StatusCode)), "status", resp.StatusCode), "body", string(body))
	}
	_ = resp.Body.Close()
	return zerr.With(err, "url", url)
}

func contentLength(resp *http.Response) int64 {
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		if n, err := strconv.ParseInt(cl, 10, 64); err == nil {
			return n
		}
	}
	return -1
}

// Head returns the size and content type of the artifact at url without downloading it.
func (f *Fetcher) Head(ctx context.Context, url string) (ports.ArtifactInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := f.newRequest(ctx, http.MethodHead, url)
	if err != nil {
		return ports.ArtifactInfo{}, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return ports.ArtifactInfo{}, zerr.With(zerr.Wrap(err, "head request failed"), "url", url)
	}
	if err := statusError(resp, url); err != nil {
		return ports.ArtifactInfo{}, err
	}
	_ = resp.Body.Close()

	return ports.ArtifactInfo{
		Size:        contentLength(resp),
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// Index downloads the HTML listing at url and returns the absolute URLs of the links
// that point below it.
func (f *Fetcher) Index(ctx context.Context, url string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var links []string
	err := f.retry(ctx, func() error {
		artifact, err := f.doFetch(ctx, url)
		if err != nil {
			return err
		}
		defer artifact.Body.Close() //nolint:errcheck // Read-only body

		links, err = ParseIndex(url, io.LimitReader(artifact.Body, maxIndexSize))
		return err
	})
	if err != nil {
		return nil, err
	}
	return links, nil
}

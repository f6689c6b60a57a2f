package httpclient

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"
)

const maxBodySize = 10 << 20 // 10 MiB

// Client issues GET/HEAD requests with timeouts, redirect limits and
// transparent gzip/deflate/br decoding, consulting the conditional
// cache before and after each fetch.
type Client struct {
	cache          *Cache
	transport      *http.Transport
	connectTimeout time.Duration
	defaults       Options
}

func NewClient(cache *Cache, defaults Options) *Client {
	connectTimeout := defaults.ConnectTimeout
	if connectTimeout == 0 {
		connectTimeout = 10 * time.Second
	}

	return &Client{
		cache:          cache,
		transport:      newTransport(connectTimeout),
		connectTimeout: connectTimeout,
		defaults:       defaults,
	}
}

func newTransport(connectTimeout time.Duration) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout: connectTimeout,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		TLSHandshakeTimeout: 10 * time.Second,
		MaxIdleConns:        20,
		IdleConnTimeout:     90 * time.Second,
		// Compression is negotiated and decoded by hand so that br is
		// covered alongside gzip and deflate.
		DisableCompression: true,
	}
}

// Get fetches a URL, consulting the cache per the options.
func (c *Client) Get(ctx context.Context, rawURL string, opts Options) FetchResult {
	return c.fetch(ctx, http.MethodGet, rawURL, c.merged(opts))
}

// Head performs a lightweight existence/metadata check. The cache is
// never consulted or updated.
func (c *Client) Head(ctx context.Context, rawURL string, opts Options) FetchResult {
	merged := c.merged(opts)
	merged.UseCache = false
	return c.fetch(ctx, http.MethodHead, rawURL, merged)
}

func (c *Client) fetch(ctx context.Context, method, rawURL string, opts Options) FetchResult {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return failure(fmt.Errorf("invalid URL: %w", err))
	}
	if err := checkScheme(parsed); err != nil {
		return failure(err)
	}

	useCache := opts.UseCache && method == http.MethodGet && c.cache != nil

	var stale *Entry
	var staleBody []byte
	if useCache {
		entry, body, err := c.cache.Get(rawURL)
		if err != nil {
			slog.Warn("Cache read failed", "url", rawURL, "error", err)
		} else if entry != nil {
			if c.cache.IsFresh(entry, opts.CacheTTL) {
				return FetchResult{
					OK:        true,
					Status:    entry.Status,
					Headers:   entry.Headers,
					Body:      body,
					FinalURL:  entry.FinalURL,
					FromCache: true,
				}
			}
			stale = entry
			staleBody = body
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return failure(fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("User-Agent", opts.UserAgent)
	req.Header.Set("Accept", opts.Accept)
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	if opts.AcceptLanguage != "" {
		req.Header.Set("Accept-Language", opts.AcceptLanguage)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	if stale != nil {
		if stale.ETag != "" {
			req.Header.Set("If-None-Match", stale.ETag)
		}
		if stale.LastModified != "" {
			req.Header.Set("If-Modified-Since", stale.LastModified)
		}
	}

	// A connect timeout differing from the client-wide one gets a
	// dedicated transport; the shared one keeps its connection pool.
	transport := c.transport
	if opts.ConnectTimeout != c.connectTimeout {
		transport = newTransport(opts.ConnectTimeout)
	}

	httpClient := &http.Client{
		Transport: transport,
		Timeout:   opts.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= opts.MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", opts.MaxRedirects)
			}
			return checkScheme(req.URL)
		},
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return failure(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified && stale != nil {
		if err := c.cache.Touch(rawURL, time.Now()); err != nil {
			slog.Warn("Cache touch failed", "url", rawURL, "error", err)
		}
		return FetchResult{
			OK:          true,
			Status:      stale.Status,
			Headers:     stale.Headers,
			Body:        staleBody,
			FinalURL:    stale.FinalURL,
			FromCache:   true,
			Revalidated: true,
		}
	}

	headers := flattenHeaders(resp.Header)
	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	body, err := decodeBody(resp, headers)
	if err != nil {
		return failure(fmt.Errorf("failed to read response body: %w", err))
	}

	result := FetchResult{
		OK:       true,
		Status:   resp.StatusCode,
		Headers:  headers,
		Body:     body,
		FinalURL: finalURL,
	}

	if useCache && resp.StatusCode >= 200 && resp.StatusCode < 400 && len(body) > 0 {
		entry := Entry{
			Status:       resp.StatusCode,
			Headers:      headers,
			FinalURL:     finalURL,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
			FetchedAt:    time.Now(),
		}
		if err := c.cache.Put(rawURL, entry, body); err != nil {
			slog.Warn("Cache write failed", "url", rawURL, "error", err)
		}
	}

	return result
}

func (c *Client) merged(opts Options) Options {
	if opts.Timeout == 0 {
		opts.Timeout = c.defaults.Timeout
	}
	if opts.Timeout == 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = c.connectTimeout
	}
	if opts.MaxRedirects == 0 {
		opts.MaxRedirects = c.defaults.MaxRedirects
	}
	if opts.MaxRedirects == 0 {
		opts.MaxRedirects = 5
	}
	if opts.UserAgent == "" {
		opts.UserAgent = c.defaults.UserAgent
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Pagecast/1.0"
	}
	if opts.Accept == "" {
		opts.Accept = c.defaults.Accept
	}
	if opts.Accept == "" {
		opts.Accept = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	}
	if opts.AcceptLanguage == "" {
		opts.AcceptLanguage = c.defaults.AcceptLanguage
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = c.defaults.CacheTTL
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = 15 * time.Minute
	}
	return opts
}

// checkScheme restricts transport to HTTP/HTTPS; file://, ftp:// and
// friends are rejected before any connection is made.
func checkScheme(u *url.URL) error {
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return nil
	default:
		return fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
}

func flattenHeaders(h http.Header) map[string]string {
	headers := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}
	return headers
}

// decodeBody reads the response, reversing any content encoding and
// transcoding text bodies to UTF-8.
func decodeBody(resp *http.Response, headers map[string]string) ([]byte, error) {
	var reader io.Reader = io.LimitReader(resp.Body, maxBodySize)

	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		gz, err := gzip.NewReader(reader)
		if err != nil {
			return nil, fmt.Errorf("bad gzip stream: %w", err)
		}
		defer gz.Close()
		reader = gz
		delete(headers, "Content-Encoding")
	case "deflate":
		fl := flate.NewReader(reader)
		defer fl.Close()
		reader = fl
		delete(headers, "Content-Encoding")
	case "br":
		reader = brotli.NewReader(reader)
		delete(headers, "Content-Encoding")
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	contentType := resp.Header.Get("Content-Type")
	if isHTMLContent(contentType) {
		decoded, err := charset.NewReader(bytes.NewReader(body), contentType)
		if err == nil {
			if utf8Body, err := io.ReadAll(decoded); err == nil {
				body = utf8Body
			}
		}
	}

	return body, nil
}

// isHTMLContent limits charset transcoding to HTML bodies. XML and JSON
// carry their own encoding declarations, which would no longer match
// the bytes after a transcode; their parsers decode for themselves.
func isHTMLContent(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "html")
}

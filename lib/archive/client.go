// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive fetches puzzle inputs from the remote archive.
//
// The only operation is [Client.Fetch]: GET <base>/<year>/day/<day>/input
// with a fixed User-Agent and the session token carried as a cookie.
// The body is streamed into the caller's writer byte for byte. Any
// transport failure or non-2xx status is a fetch failure; there are no
// retries here, the cache retries on the next independent open.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/gzhttp"

	"github.com/bureau-foundation/aocfs/lib/calendar"
	"github.com/bureau-foundation/aocfs/lib/netutil"
	"github.com/bureau-foundation/aocfs/lib/secret"
)

const (
	// DefaultBaseURL is the archive's public endpoint.
	DefaultBaseURL = "https://adventofcode.com"

	// DefaultUserAgent identifies aocfs to the archive operators, as
	// they ask automated clients to do.
	DefaultUserAgent = "aocfs (+https://github.com/bureau-foundation/aocfs)"

	// DefaultTimeout bounds one fetch, headers and body included.
	DefaultTimeout = 30 * time.Second

	// MaxInputSize bounds one puzzle input. Real inputs are tens of
	// kilobytes.
	MaxInputSize int64 = 16 << 20
)

// ErrStatus is wrapped by Fetch errors caused by a non-2xx response.
var ErrStatus = errors.New("unexpected HTTP status")

// Options configures a Client.
type Options struct {
	// BaseURL is the archive root. Empty uses DefaultBaseURL.
	BaseURL string

	// Session is the session cookie value. Required. The Client
	// borrows it; the caller closes it after the Client is done.
	Session *secret.Buffer

	// UserAgent overrides DefaultUserAgent.
	UserAgent string

	// Timeout overrides DefaultTimeout.
	Timeout time.Duration

	// Transport is the underlying round tripper. Nil uses
	// http.DefaultTransport. It is always wrapped for transparent
	// gzip/zstd response decoding.
	Transport http.RoundTripper

	// Logger receives diagnostic messages. If nil, errors are
	// logged to stderr.
	Logger *slog.Logger
}

// Client fetches puzzle inputs. It is safe for concurrent use.
type Client struct {
	baseURL   *url.URL
	session   *secret.Buffer
	userAgent string
	http      *http.Client
	logger    *slog.Logger
}

// NewClient validates options and returns a Client.
func NewClient(options Options) (*Client, error) {
	if options.Session == nil {
		return nil, fmt.Errorf("session is required")
	}
	if options.BaseURL == "" {
		options.BaseURL = DefaultBaseURL
	}
	if options.UserAgent == "" {
		options.UserAgent = DefaultUserAgent
	}
	if options.Timeout <= 0 {
		options.Timeout = DefaultTimeout
	}
	if options.Transport == nil {
		options.Transport = http.DefaultTransport
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
	}

	baseURL, err := url.Parse(strings.TrimRight(options.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if baseURL.Scheme != "http" && baseURL.Scheme != "https" {
		return nil, fmt.Errorf("base URL %q must be http or https", options.BaseURL)
	}

	return &Client{
		baseURL:   baseURL,
		session:   options.Session,
		userAgent: options.UserAgent,
		http: &http.Client{
			Transport: gzhttp.Transport(options.Transport),
			Timeout:   options.Timeout,
		},
		logger: options.Logger,
	}, nil
}

// InputURL returns the URL of the input at coordinate.
func (c *Client) InputURL(coordinate calendar.Coordinate) string {
	return c.baseURL.JoinPath(
		fmt.Sprint(coordinate.Year), "day", fmt.Sprint(coordinate.Day), "input",
	).String()
}

// Fetch downloads the input at coordinate into dst and returns the
// number of bytes written. On error, dst may hold a partial payload;
// discarding it is the caller's job.
func (c *Client) Fetch(ctx context.Context, coordinate calendar.Coordinate, dst io.Writer) (int64, error) {
	if !coordinate.IsInput() {
		return 0, fmt.Errorf("%v is not a puzzle input", coordinate)
	}
	inputURL := c.InputURL(coordinate)

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, inputURL, nil)
	if err != nil {
		return 0, fmt.Errorf("building request for %s: %w", inputURL, err)
	}
	request.Header.Set("User-Agent", c.userAgent)
	request.AddCookie(&http.Cookie{Name: "session", Value: sessionValue(c.session.String())})

	response, err := c.http.Do(request)
	if err != nil {
		c.logger.Error("input request failed", "url", inputURL, "error", err)
		return 0, fmt.Errorf("requesting %s: %w", inputURL, err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		body := netutil.ErrorBody(response.Body)
		c.logger.Error("input request rejected",
			"url", inputURL,
			"status", response.StatusCode,
			"body", body,
		)
		return 0, fmt.Errorf("requesting %s: %w %d: %s", inputURL, ErrStatus, response.StatusCode, body)
	}

	written, err := netutil.CopyResponse(dst, response.Body, MaxInputSize)
	if err != nil {
		c.logger.Error("input download failed", "url", inputURL, "bytes", written, "error", err)
		return written, fmt.Errorf("downloading %s: %w", inputURL, err)
	}

	c.logger.Debug("input downloaded", "url", inputURL, "bytes", written)
	return written, nil
}

// sessionValue accepts a token pasted either bare or as the full
// "session=..." cookie pair.
func sessionValue(token string) string {
	return strings.TrimPrefix(token, "session=")
}

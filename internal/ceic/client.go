// Package ceic is a small client for the CEIC data REST API.
//
// It covers the calls the explorer needs: session login, search by source
// and a concurrent paged fetch of every series' metadata.
package ceic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	apperrors "github.com/wexinc/sourcecheck/internal/errors"
	"github.com/wexinc/sourcecheck/internal/logging"
)

// Default client settings.
const (
	DefaultBaseURL     = "https://api.ceicdata.com/v2"
	DefaultTimeout     = 30 * time.Second
	DefaultPageSize    = 100
	DefaultConcurrency = 4
	DefaultMaxRetries  = 3
)

// Options configures a Client.
type Options struct {
	BaseURL     string
	Timeout     time.Duration
	PageSize    int
	Concurrency int
	MaxRetries  int

	// HTTPClient overrides the transport, mostly for tests.
	HTTPClient *http.Client
	// InitialInterval is the first retry delay. Zero uses the backoff default.
	InitialInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: o.Timeout}
	}
	return o
}

// Client is an authenticated CEIC session. It is safe for concurrent use.
type Client struct {
	opts     Options
	username string

	mu    sync.RWMutex
	token string
}

// Login authenticates and returns a client bound to the new session.
// Empty credentials fail without touching the network.
func Login(ctx context.Context, opts Options, username, password string) (*Client, error) {
	if username == "" || password == "" {
		return nil, apperrors.MissingCredentials()
	}

	c := &Client{opts: opts.withDefaults(), username: username}

	var resp envelope[loginResponse]
	err := c.do(ctx, http.MethodPost, "/login", nil, loginRequest{Username: username, Password: password}, &resp)
	if err != nil {
		var ae *apperrors.AppError
		if errors.As(err, &ae) && errors.Is(ae.Kind, apperrors.ErrAPI) {
			status, _ := strconv.Atoi(ae.Details["status"])
			if status == http.StatusUnauthorized || status == http.StatusForbidden {
				return nil, apperrors.AuthFailed(username, err)
			}
		}
		return nil, err
	}
	if resp.Data.Session == "" {
		return nil, apperrors.AuthFailed(username, errors.New("login response carried no session"))
	}

	c.token = resp.Data.Session
	logging.Info("ceic login succeeded", "username", username, "base_url", c.opts.BaseURL)
	return c, nil
}

// NewWithToken returns a client for an existing session token.
func NewWithToken(opts Options, username, token string) *Client {
	return &Client{opts: opts.withDefaults(), username: username, token: token}
}

// Username returns the account the client logged in with.
func (c *Client) Username() string {
	return c.username
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.opts.BaseURL
}

// PageSize returns the number of items requested per search page.
func (c *Client) PageSize() int {
	return c.opts.PageSize
}

// LoggedIn reports whether the client still holds a session token.
func (c *Client) LoggedIn() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token != ""
}

// Logout drops the session token. Further calls fail with ClientNotInitialized.
func (c *Client) Logout() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
	logging.Info("ceic logout", "username", c.username)
}

func (c *Client) currentToken() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == "" {
		return "", apperrors.ClientNotInitialized()
	}
	return c.token, nil
}

// do performs one API call, retrying transient failures, and decodes the
// JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.opts.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
	}

	var last error
	attempt := 0
	operation := func() (struct{}, error) {
		attempt++
		err := c.attempt(ctx, method, endpoint, path, payload, out)
		if err == nil {
			return struct{}{}, nil
		}
		last = err
		if ctx.Err() != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		if !apperrors.IsRetryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		logging.Warn("ceic request failed, retrying", "path", path, "attempt", attempt, "error", err)

		var ra *retryAfter
		if errors.As(err, &ra) && ra.seconds > 0 {
			return struct{}{}, backoff.RetryAfter(ra.seconds)
		}
		return struct{}{}, err
	}

	eb := backoff.NewExponentialBackOff()
	if c.opts.InitialInterval > 0 {
		eb.InitialInterval = c.opts.InitialInterval
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(uint(c.opts.MaxRetries)+1),
	)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return apperrors.ContextCancelled(strings.TrimPrefix(path, "/")).WithCause(ctx.Err())
	}
	if last != nil {
		var ra *retryAfter
		if errors.As(last, &ra) {
			return ra.err
		}
		return last
	}
	return err
}

// retryAfter carries a rate-limit error together with the server's hint.
type retryAfter struct {
	err     *apperrors.AppError
	seconds int
}

func (r *retryAfter) Error() string { return r.err.Error() }
func (r *retryAfter) Unwrap() error { return r.err }

func (c *Client) attempt(ctx context.Context, method, endpoint, path string, payload []byte, out any) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		var ne net.Error
		if ctx.Err() == nil && errors.As(err, &ne) && ne.Timeout() {
			return apperrors.OperationTimeout(strings.TrimPrefix(path, "/"), time.Since(start)).WithCause(err)
		}
		return apperrors.NetworkUnavailable(req.URL.Host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return &retryAfter{err: apperrors.RateLimited(time.Duration(secs) * time.Second), seconds: secs}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return apperrors.APIStatus(path, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrap(err, apperrors.ErrAPI, fmt.Sprintf("decode %s response", path))
	}
	return nil
}

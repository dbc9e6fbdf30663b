// Package supabase is a store.Client for a hosted Supabase project: GoTrue
// for auth, PostgREST for tables.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/vitaup/VitaUpBack/internal/store"
	"go.uber.org/zap"
)

const maxErrorBody = 4096

type Options struct {
	URL     string
	AnonKey string

	HTTPClient *http.Client
	Logger     *zap.Logger
	// RefreshMargin is how long before expiry the session gets refreshed.
	RefreshMargin time.Duration
	// AutoRefreshInterval enables the background refresher when positive.
	AutoRefreshInterval time.Duration
	// ReadAttempts bounds retries of idempotent table reads.
	ReadAttempts uint
	Now          func() time.Time
}

type Client struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	logger     *zap.Logger
	opts       Options

	session store.SessionHolder

	// refreshMu serializes token refreshes so concurrent callers share one.
	refreshMu sync.Mutex

	stop      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

var _ store.Client = (*Client)(nil)

func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.URL) == "" {
		return nil, errors.New("supabase url is required")
	}
	if strings.TrimSpace(opts.AnonKey) == "" {
		return nil, errors.New("supabase anon key is required")
	}
	if _, err := url.Parse(opts.URL); err != nil {
		return nil, fmt.Errorf("parse supabase url: %w", err)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.RefreshMargin <= 0 {
		opts.RefreshMargin = time.Minute
	}
	if opts.ReadAttempts == 0 {
		opts.ReadAttempts = 3
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	c := &Client{
		baseURL:    strings.TrimRight(opts.URL, "/"),
		anonKey:    opts.AnonKey,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger.Named("supabase"),
		opts:       opts,
		stop:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	if opts.AutoRefreshInterval > 0 {
		go c.autoRefresh(opts.AutoRefreshInterval)
	} else {
		close(c.stopped)
	}
	return c, nil
}

func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.stop)
		<-c.stopped
	})
	return nil
}

// bearer is the token table requests run under: the user's access token
// when signed in, the anon key otherwise.
func (c *Client) bearer() string {
	if session := c.session.Current(); session != nil {
		return session.AccessToken
	}
	return c.anonKey
}

type request struct {
	method  string
	path    string
	query   url.Values
	body    any
	bearer  string
	headers map[string]string
}

// do sends the request and decodes a JSON response into out when out is
// non-nil. Non-2xx responses become *store.APIError.
func (c *Client) do(ctx context.Context, r request, out any) error {
	endpoint := c.baseURL + r.path
	if len(r.query) > 0 {
		endpoint += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("marshal %s body: %w", r.path, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", r.path, err)
	}
	req.Header.Set("apikey", c.anonKey)
	bearer := r.bearer
	if bearer == "" {
		bearer = c.anonKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range r.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return decodeError(resp.StatusCode, raw)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", r.path, err)
	}
	return nil
}

// doRead retries idempotent requests on transport errors and 5xx answers.
func (c *Client) doRead(ctx context.Context, r request, out any) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := c.do(ctx, r, out)
		if err == nil {
			return struct{}{}, nil
		}
		var apiErr *store.APIError
		if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(c.opts.ReadAttempts),
	)
	return err
}

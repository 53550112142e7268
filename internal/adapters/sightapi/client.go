// Package sightapi is the client for the sight-review REST API: submitting,
// updating, reading and deleting reviews of arena seat views.
//
// Every operation is bounded by a timeout (DefaultTimeout unless changed with
// WithTimeout) and fails with exactly one *Error whose Message can be shown to
// users as is. Nothing is retried or cached.
package sightapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"conkiri_sight/internal/adapters/observability"
)

const (
	serviceLabel = "sightapi"
	userAgent    = "conkiri-sight/1.0"
	maxBodyBytes = 10 << 20
)

// Doer sends a request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is safe for concurrent use.
type Client struct {
	base    string
	ep      Endpoints
	hc      Doer
	timeout time.Duration
	rl      *rate.Limiter
	headers http.Header
	log     zerolog.Logger
}

type Option func(*Client)

func WithEndpoints(e Endpoints) Option { return func(c *Client) { c.ep = e } }

// WithHTTPClient replaces the transport, e.g. with one carrying cookies.
func WithHTTPClient(d Doer) Option { return func(c *Client) { c.hc = d } }

func WithTimeout(d time.Duration) Option { return func(c *Client) { c.timeout = d } }

// WithRateLimit caps outgoing requests per second. rps <= 0 disables it.
func WithRateLimit(rps int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.rl = nil
			return
		}
		c.rl = rate.NewLimiter(rate.Limit(rps), rps)
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers.Add(key, value) }
}

func WithLogger(l zerolog.Logger) Option { return func(c *Client) { c.log = l } }

// New returns a client for the API served at base (scheme and host, e.g.
// "https://conkiri.example").
func New(base string, opts ...Option) (*Client, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("base URL must be absolute http(s), got %q", base)
	}
	c := &Client{
		base:    strings.TrimRight(base, "/"),
		ep:      DefaultEndpoints(),
		hc:      &http.Client{},
		timeout: DefaultTimeout,
		headers: make(http.Header),
		log:     log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Endpoints() Endpoints { return c.ep }

// ---- Internals ----

type response struct {
	status int
	body   []byte
}

type request struct {
	op          string
	method      string
	path        string
	body        []byte
	contentType string
}

// call is the boundary of every exported operation: whatever fn returns or
// panics with leaves as a single *Error.
func (c *Client) call(op string, fn func() error) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = unknownError(v)
		}
		if err == nil {
			return
		}
		e := normalize(err)
		c.log.Warn().
			Str("op", op).
			Str("kind", e.Kind.String()).
			Int("status", e.Status).
			AnErr("cause", e.Err).
			Msg(e.Message)
		err = e
	}()
	return fn()
}

// send dispatches r under the client timeout. Non-2xx responses come back as
// KindServer errors.
func (c *Client) send(ctx context.Context, r request) (response, error) {
	return c.sendWithin(ctx, r, c.timeout)
}

// The rate-limit wait counts against the timeout.
func (c *Client) sendWithin(ctx context.Context, r request, timeout time.Duration) (response, error) {
	reqID := uuid.NewString()
	start := time.Now()
	res, err := withTimeout(ctx, timeout, func(ctx context.Context) (response, error) {
		if c.rl != nil {
			// the limiter fails early when the wait would outlast the deadline
			if err := c.rl.Wait(ctx); err != nil {
				return response{}, fmt.Errorf("%w: rate limit: %w", errTimedOut, err)
			}
		}

		var body io.Reader
		if r.body != nil {
			body = bytes.NewReader(r.body)
		}
		req, err := http.NewRequestWithContext(ctx, r.method, c.base+r.path, body)
		if err != nil {
			return response{}, err
		}
		for k, vs := range c.headers {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("X-Request-ID", reqID)
		if r.contentType != "" {
			req.Header.Set("Content-Type", r.contentType)
		}

		resp, err := c.hc.Do(req)
		if err != nil {
			return response{}, err
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return response{}, err
		}
		return response{status: resp.StatusCode, body: b}, nil
	})
	dur := time.Since(start)
	observability.ObserveExternal(serviceLabel, r.op, res.status, dur)
	c.log.Debug().
		Str("op", r.op).
		Str("method", r.method).
		Str("path", r.path).
		Int("status", res.status).
		Dur("duration", dur).
		Str("request_id", reqID).
		Msg("sightapi request")

	if err != nil {
		return response{}, err
	}
	if res.status < 200 || res.status > 299 {
		return response{}, serverError(res.status, res.body)
	}
	return res, nil
}

func decodeJSON(b []byte, out any) error {
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

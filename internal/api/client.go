package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

// Client talks to the snappy REST API
type Client struct {
	baseURL string
	http    *fasthttp.Client
	timeout time.Duration
	log     zerolog.Logger
}

// New creates a client for the API rooted at baseURL
func New(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http: &fasthttp.Client{
			Name:                "snappy-client",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Minute,
		},
		timeout: timeout,
		log:     logger.With().Str("component", "api").Logger(),
	}
}

// BaseURL returns the API root the client was created with
func (c *Client) BaseURL() string { return c.baseURL }

// envelope is the status/msg pair most endpoints wrap their payload in
type envelope struct {
	Status *bool  `json:"status"`
	Msg    string `json:"msg"`
}

// rejected reports whether the server refused the request. Some endpoints
// answer without a status field at all; strict decides how those count.
func (e envelope) rejected(strict bool) bool {
	if e.Status == nil {
		return strict
	}
	return !*e.Status
}

// do performs one JSON request. in may be nil; out may be nil. The raw body is
// returned so callers can decode an envelope alongside out.
func (c *Client) do(ctx context.Context, op, method, path, token string, in, out any) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(method)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	if token != "" {
		req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+token)
	}
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", op, err)
		}
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	start := time.Now()
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		c.log.Debug().Err(err).Str("op", op).Msg("[api] request failed")
		if errors.Is(err, fasthttp.ErrTimeout) && ctx.Err() != nil {
			err = ctx.Err()
		}
		return nil, &TransportError{Op: op, Err: err}
	}

	// resp is released on return, so keep our own copy of the body
	body := append([]byte(nil), resp.Body()...)
	code := resp.StatusCode()
	c.log.Debug().
		Str("op", op).
		Str("method", method).
		Str("path", path).
		Int("status", code).
		Dur("took", time.Since(start)).
		Msg("[api] request")

	if code < 200 || code > 299 {
		var env envelope
		_ = json.Unmarshal(body, &env)
		return body, &StatusError{Op: op, Code: code, Msg: env.Msg}
	}
	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return body, &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return body, nil
}

// call performs a request whose response carries a status envelope and fails
// with a ServerError when the server rejects it.
func (c *Client) call(ctx context.Context, op, method, path string, strict bool, in, out any) error {
	body, err := c.do(ctx, op, method, path, "", in, out)
	if err != nil {
		return err
	}
	var env envelope
	if len(body) > 0 {
		if err := json.Unmarshal(body, &env); err != nil {
			// bare arrays and similar carry no envelope
			env = envelope{}
		}
	}
	if env.rejected(strict) {
		return &ServerError{Op: op, Msg: env.Msg}
	}
	return nil
}

package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/httpcall/client/diag"
)

// Get fetches url and decodes a 2xx payload as shape. A nil c uses
// [Default]. Failures never escape: inspect the returned [Response].
func Get[T any](ctx context.Context, c *Client, url string, shape Shape[T], opts ...CallOption) Response[T] {
	return dispatch(ctx, c, http.MethodGet, url, nil, shape, opts)
}

// Head issues a HEAD request. The response never carries data.
func Head(ctx context.Context, c *Client, url string, opts ...CallOption) Response[Unit] {
	return dispatch(ctx, c, http.MethodHead, url, nil, NoPayload(), opts)
}

// Post sends body to url and decodes a 2xx payload as shape.
func Post[T any](ctx context.Context, c *Client, url string, body Body, shape Shape[T], opts ...CallOption) Response[T] {
	return dispatch(ctx, c, http.MethodPost, url, body, shape, opts)
}

// dispatch runs one call. Every path, panics included, ends in the
// returned envelope.
func dispatch[T any](ctx context.Context, c *Client, method, rawURL string, body Body, shape Shape[T], optFns []CallOption) (resp Response[T]) {
	if c == nil {
		c = Default()
	}

	id := nextRequestID()
	start := time.Now()

	var (
		settings callOpts
		span     trace.Span
	)

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("recovered panic in http call", "id", id, "method", method, "panic", r)
			resp = fault[T](id, fmt.Errorf("%w: %v", ErrPanic, r))
		}
		resp.noPayload = shape.kind == kindNone

		finish(c, span, method, start, settings.logResponse, resp)
	}()

	ctx, span = c.startSpan(ctx, method, id, shape.kind.String())

	for _, opt := range optFns {
		if err := opt(&settings); err != nil {
			return fault[T](id, fmt.Errorf("%w: %w", ErrInvalidOption, err))
		}
	}
	if shape.err != nil {
		return fault[T](id, fmt.Errorf("%w: %w", ErrInvalidOption, shape.err))
	}

	target := BuildURL(rawURL, settings.query)

	req, curlData, err := c.newRequest(ctx, method, target, body, settings)
	if err != nil {
		return fault[T](id, err)
	}

	if settings.logRequest {
		c.sink.Outbound(id, diag.Curl(method, target, req.Header, curlData))
	}

	hr, err := c.c.Do(req)
	if err != nil {
		return fault[T](id, fmt.Errorf("exec http do: %w", err))
	}

	return decodeResponse(ctx, c, id, hr, shape)
}

// finish closes the span and reports resp to the recorder and, when asked,
// the sink. A panic in any of them is logged and leaves resp untouched.
func finish[T any](c *Client, span trace.Span, method string, start time.Time, logResponse bool, resp Response[T]) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("recovered panic in http call bookkeeping", "id", resp.ID, "method", method, "panic", r)
		}
	}()

	if span != nil {
		endSpan(span, resp.Code, resp.Err)
	}
	if c.recorder != nil {
		c.recorder.ObserveCall(method, resp.Code, time.Since(start))
	}
	if logResponse {
		c.sink.Inbound(resp.ID, envelope(resp).String())
	}
}

// newRequest builds the request and its headers. It also returns the
// curl flag describing the body.
func (c *Client) newRequest(ctx context.Context, method, target string, body Body, settings callOpts) (*http.Request, string, error) {
	var p payload
	if body != nil {
		var err error
		if p, err = body.encode(c.codec); err != nil {
			return nil, "", err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, p.r)
	if err != nil {
		if closer, ok := p.r.(io.Closer); ok {
			closer.Close()
		}
		return nil, "", fmt.Errorf("instantiating request: %w", err)
	}

	applyHeaders(req.Header, settings.headers, settings.auth)
	if p.contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", p.contentType)
	}

	c.stampTrace(ctx, req)

	return req, p.curl, nil
}

// decodeResponse builds the envelope of a received response and releases
// its body.
func decodeResponse[T any](ctx context.Context, c *Client, id uint64, hr *http.Response, shape Shape[T]) Response[T] {
	if hr.Body == nil {
		hr.Body = http.NoBody
	}

	discardBody := true
	defer func() {
		if discardBody {
			if _, err := io.Copy(io.Discard, hr.Body); err != nil {
				c.logger.Error("failed to discard unused body", "id", id, "error", err)
			}
		}
		if err := hr.Body.Close(); err != nil {
			c.logger.Error("failed to close response body", "id", id, "error", err)
		}
	}()

	resp := Response[T]{
		Code:    hr.StatusCode,
		Message: reason(hr),
		Header:  hr.Header,
		ID:      id,
	}

	if hr.StatusCode < 200 || hr.StatusCode > 299 {
		b, err := io.ReadAll(io.LimitReader(hr.Body, maxErrBodySize))
		if err != nil {
			b = []byte("unable to read body")
		}
		resp.ErrorBody = string(b)

		return resp
	}

	data, ok, err := shape.decode(ctx, c, hr)
	if err != nil {
		discardBody = false
		return fault[T](id, fmt.Errorf("%w: %w", ErrDecode, err))
	}

	resp.Data, resp.HasData = data, ok

	return resp
}

// reason returns the reason phrase of the status line.
func reason(hr *http.Response) string {
	if r := strings.TrimSpace(strings.TrimPrefix(hr.Status, strconv.Itoa(hr.StatusCode))); r != "" {
		return r
	}

	return http.StatusText(hr.StatusCode)
}

func envelope[T any](r Response[T]) diag.Envelope {
	e := diag.Envelope{
		ID:        r.ID,
		Code:      r.Code,
		Message:   r.Message,
		Header:    r.Header,
		ErrorBody: r.ErrorBody,
	}
	if r.Err != nil {
		e.Error = r.Err.Error()
	}
	if r.HasData {
		e.Data = r.Data
	}

	return e
}

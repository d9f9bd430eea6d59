package client

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/adamwoolhether/httpcall/client/diag"
	"github.com/adamwoolhether/httpcall/client/throttle"
)

const (
	// DefaultTimeout bounds a whole call, decoding included.
	DefaultTimeout = 30 * time.Second
	// DefaultConnectTimeout bounds dialing on the default transport.
	DefaultConnectTimeout = 40 * time.Second
)

// CallRecorder observes finished calls. code is [NoStatus] for faults.
type CallRecorder interface {
	ObserveCall(method string, code int, elapsed time.Duration)
}

// Client wraps the std-lib *http.Client together with everything a call
// needs besides its arguments. It is safe for concurrent use and should
// not be modified after [Build].
type Client struct {
	c               *http.Client
	logger          *slog.Logger
	codec           Codec
	sink            diag.Sink
	tracer          trace.Tracer
	recorder        CallRecorder
	requestIDHeader string
	tempDir         string
}

// Build constructs a [Client], applying each option in order. Any option
// error aborts construction.
func Build(optFns ...Option) (*Client, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	client := &Client{
		logger:          slog.Default(),
		codec:           JSONCodec{},
		sink:            diag.Console(os.Stdout),
		tracer:          noop.NewTracerProvider().Tracer("httpcall"),
		recorder:        opts.recorder,
		requestIDHeader: opts.requestIDHeader,
		tempDir:         opts.tempDir,
	}

	if opts.logger != nil {
		client.logger = opts.logger
	}
	if opts.codec != nil {
		client.codec = opts.codec
	}
	if opts.sink != nil {
		client.sink = opts.sink
	}
	if opts.tracer != nil {
		client.tracer = opts.tracer
	}

	hc := &http.Client{Timeout: DefaultTimeout}
	if opts.client != nil {
		cpy := *opts.client
		hc = &cpy
	}

	if opts.timeout != nil {
		hc.Timeout = *opts.timeout
	}

	if opts.noFollowRedirects {
		hc.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	var transport http.RoundTripper
	switch {
	case opts.rt != nil:
		transport = opts.rt
	case opts.client != nil && opts.client.Transport != nil:
		transport = opts.client.Transport
	default:
		connect := DefaultConnectTimeout
		if opts.connectTimeout != nil {
			connect = *opts.connectTimeout
		}
		transport = defaultTransport(connect)
	}
	if opts.userAgent != "" {
		transport = userAgent{value: opts.userAgent, base: transport}
	}
	if opts.throttle != nil {
		rt, err := throttle.NewRoundTripper(*opts.throttle, func() *slog.Logger { return client.logger }, transport)
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		transport = rt
	}
	hc.Transport = transport

	client.c = hc

	return client, nil
}

// defaultTransport clones http.DefaultTransport with its own dial timeout.
func defaultTransport(connect time.Duration) http.RoundTripper {
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return http.DefaultTransport
	}

	t := base.Clone()
	t.DialContext = (&net.Dialer{
		Timeout:   connect,
		KeepAlive: 30 * time.Second,
	}).DialContext

	return t
}

// HTTPClient returns the underlying client.
func (c *Client) HTTPClient() *http.Client {
	return c.c
}

var defaultClient atomic.Pointer[Client]

// Default returns the client used by calls given a nil *Client. Unless
// replaced with [SetDefault] it is built with no options.
func Default() *Client {
	if c := defaultClient.Load(); c != nil {
		return c
	}

	c, err := Build()
	if err != nil {
		panic(fmt.Sprintf("building default client: %v", err))
	}
	defaultClient.CompareAndSwap(nil, c)

	return defaultClient.Load()
}

// SetDefault replaces the default client for calls issued afterwards. It
// is meant for program startup. A nil c restores the built-in default.
func SetDefault(c *Client) {
	defaultClient.Store(c)
}

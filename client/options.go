package client

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/httpcall/client/diag"
	"github.com/adamwoolhether/httpcall/client/throttle"
)

// Option is a functional option for configuring a [Client] via [Build].
type Option func(*options) error
type options struct {
	client            *http.Client
	rt                http.RoundTripper
	timeout           *time.Duration
	connectTimeout    *time.Duration
	userAgent         string
	throttle          *throttle.Config
	noFollowRedirects bool
	logger            *slog.Logger
	codec             Codec
	sink              diag.Sink
	tracer            trace.Tracer
	recorder          CallRecorder
	requestIDHeader   string
	tempDir           string
}

// WithClient uses a copy of hc instead of a fresh [http.Client].
func WithClient(hc *http.Client) Option {
	return func(c *options) error {
		if hc == nil {
			return errors.New("client must not be nil")
		}
		c.client = hc
		return nil
	}
}

// WithTransport sets a custom [http.RoundTripper] as the base transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *options) error {
		if rt == nil {
			return errors.New("transport must not be nil")
		}
		c.rt = rt
		return nil
	}
}

// WithTimeout sets the overall call timeout on the underlying [http.Client].
// Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *options) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		c.timeout = &d
		return nil
	}
}

// WithConnectTimeout bounds dialing. It only applies to the default
// transport.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *options) error {
		if d < 0 {
			return errors.New("connect timeout must not be negative")
		}
		c.connectTimeout = &d
		return nil
	}
}

// WithUserAgent adds a persistent User-Agent header to all outgoing requests.
func WithUserAgent(header string) Option {
	return func(c *options) error {
		c.userAgent = header
		return nil
	}
}

// WithThrottle enables token-bucket rate limiting with the given requests per second and burst capacity.
func WithThrottle(rps, burst int) Option {
	return func(c *options) error {
		if rps <= 0 || burst <= 0 {
			return fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, throttle.ErrMustNotBeZero)
		}
		c.throttle = &throttle.Config{RPS: rps, Burst: burst}
		return nil
	}
}

// WithHostThrottle is [WithThrottle] with a separate bucket per host.
func WithHostThrottle(rps, burst int) Option {
	return func(c *options) error {
		if err := WithThrottle(rps, burst)(c); err != nil {
			return err
		}
		c.throttle.PerHost = true
		return nil
	}
}

// WithNoFollowRedirects prevents the [Client] from following HTTP redirects.
func WithNoFollowRedirects() Option {
	return func(c *options) error {
		c.noFollowRedirects = true
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(c *options) error {
		c.logger = logger
		return nil
	}
}

// WithCodec replaces the JSON [Codec] used for [JSONBody] and [JSON] shapes.
func WithCodec(codec Codec) Option {
	return func(c *options) error {
		if codec == nil {
			return errors.New("codec must not be nil")
		}
		c.codec = codec
		return nil
	}
}

// WithJSONNumb tells the default codec to use [json.Decoder.UseNumber],
// preserving number precision as [json.Number] instead of float64.
func WithJSONNumb() Option {
	return func(c *options) error {
		c.codec = JSONCodec{UseNumber: true}
		return nil
	}
}

// WithSink sends diagnostics lines to sink instead of stdout.
func WithSink(sink diag.Sink) Option {
	return func(c *options) error {
		if sink == nil {
			return errors.New("sink must not be nil")
		}
		c.sink = sink
		return nil
	}
}

// WithTracer records a client span per call.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *options) error {
		c.tracer = tracer
		return nil
	}
}

// WithMetrics reports every finished call to rec.
func WithMetrics(rec CallRecorder) Option {
	return func(c *options) error {
		c.recorder = rec
		return nil
	}
}

// WithRequestIDHeader stamps every request with a correlation id in the
// header name, the trace id when tracing is live or a fresh uuid
// otherwise. A header set by the caller is left alone. Calls carry no
// correlation header by default.
func WithRequestIDHeader(name string) Option {
	return func(c *options) error {
		c.requestIDHeader = name
		return nil
	}
}

// WithTempDir sets where [TempFile] shapes create their files.
func WithTempDir(dir string) Option {
	return func(c *options) error {
		c.tempDir = dir
		return nil
	}
}

// userAgent is an http.RoundTripper, enabling the persistent User-Agent header.
type userAgent struct {
	value string
	base  http.RoundTripper
}

func (ua userAgent) RoundTrip(r *http.Request) (*http.Response, error) {
	cpy := r.Clone(r.Context())
	cpy.Header.Set("User-Agent", ua.value)
	return ua.base.RoundTrip(cpy)
}

// CallOption is a functional option for a single call.
type CallOption func(*callOpts) error

type callOpts struct {
	query       []QueryPart
	headers     map[string]string
	auth        Auth
	logRequest  bool
	logResponse bool
}

// WithQuery appends m to the URL in key order, see [BuildURL].
func WithQuery(m map[string]string) CallOption {
	return func(opts *callOpts) error {
		opts.query = append(opts.query, SortedQuery(m)...)
		return nil
	}
}

// WithOrderedQuery appends parts to the URL in the given order.
func WithOrderedQuery(parts ...QueryPart) CallOption {
	return func(opts *callOpts) error {
		opts.query = append(opts.query, parts...)
		return nil
	}
}

// WithHeaders adds headers to the request. Entries with an empty key or
// value are skipped.
func WithHeaders(headers map[string]string) CallOption {
	return func(opts *callOpts) error {
		if opts.headers == nil {
			opts.headers = make(map[string]string, len(headers))
		}
		maps.Copy(opts.headers, headers)
		return nil
	}
}

// WithAuth sets the authentication header, replacing any header of the
// same name. The header key must not be empty; the value may be.
func WithAuth(auth Auth) CallOption {
	return func(opts *callOpts) error {
		if auth == nil {
			return errors.New("auth must not be nil")
		}
		if k, _ := auth.Header(); k == "" {
			return errors.New("auth header key must not be empty")
		}
		opts.auth = auth
		return nil
	}
}

// WithLogRequest writes the request as a curl command to the client's sink.
func WithLogRequest() CallOption {
	return func(opts *callOpts) error {
		opts.logRequest = true
		return nil
	}
}

// WithLogResponse writes the finished envelope to the client's sink.
func WithLogResponse() CallOption {
	return func(opts *callOpts) error {
		opts.logResponse = true
		return nil
	}
}

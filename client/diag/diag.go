// Package diag writes the optional request and response traces of calls.
//
// Each call emits at most two lines sharing its request id: an outbound
// curl command when the request is sent, and an inbound JSON view of the
// response envelope when the call completes. Lines go to a [Sink];
// [Console] is the default.
package diag

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"strings"
	"sync"
)

// Sink receives diagnostics lines. Implementations must be safe for
// concurrent use.
type Sink interface {
	Outbound(id uint64, line string)
	Inbound(id uint64, line string)
}

// Writer returns a Sink writing "(id) line" to w without colour.
func Writer(w io.Writer) Sink {
	return &writerSink{w: w}
}

type writerSink struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *writerSink) Outbound(id uint64, line string) { s.write(id, line) }
func (s *writerSink) Inbound(id uint64, line string)  { s.write(id, line) }

func (s *writerSink) write(id uint64, line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "(%d) %s\n", id, line)
}

// Slog returns a Sink logging each line at debug level.
func Slog(logger *slog.Logger) Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return slogSink{logger: logger}
}

type slogSink struct {
	logger *slog.Logger
}

func (s slogSink) Outbound(id uint64, line string) {
	s.logger.Debug("http call outbound", "id", id, "request", line)
}

func (s slogSink) Inbound(id uint64, line string) {
	s.logger.Debug("http call inbound", "id", id, "response", line)
}

// Curl renders a request as a curl command line. data is a curl body flag
// such as "-d '{}'" and may be empty. Headers are listed in key order.
func Curl(method, url string, header http.Header, data string) string {
	var b strings.Builder
	b.WriteString("curl -X ")
	b.WriteString(method)

	for _, k := range slices.Sorted(maps.Keys(header)) {
		for _, v := range header[k] {
			fmt.Fprintf(&b, " -H '%s: %s'", k, v)
		}
	}

	if data != "" {
		b.WriteByte(' ')
		b.WriteString(data)
	}

	fmt.Fprintf(&b, " '%s'", url)

	return b.String()
}

// Envelope is the inbound view of a finished call.
type Envelope struct {
	ID        uint64      `json:"id"`
	Code      int         `json:"code"`
	Message   string      `json:"message,omitempty"`
	Error     string      `json:"error,omitempty"`
	Header    http.Header `json:"headers,omitempty"`
	Data      any         `json:"data,omitempty"`
	ErrorBody string      `json:"errorBody,omitempty"`
}

// String pretty prints e as JSON. Byte payloads are summarised by size.
func (e Envelope) String() string {
	if b, ok := e.Data.([]byte); ok {
		e.Data = fmt.Sprintf("<%d bytes>", len(b))
	}

	out, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", e)
	}

	return string(out)
}

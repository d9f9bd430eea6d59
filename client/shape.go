package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/adamwoolhether/httpcall/client/download"
)

type kind int

const (
	kindJSON kind = iota
	kindBytes
	kindText
	kindFile
	kindNone
)

func (k kind) String() string {
	switch k {
	case kindBytes:
		return "bytes"
	case kindText:
		return "text"
	case kindFile:
		return "file"
	case kindNone:
		return "none"
	default:
		return "json"
	}
}

// Shape selects how a successful response payload becomes Response.Data.
// The zero value decodes JSON into T.
type Shape[T any] struct {
	kind   kind
	schema *gojsonschema.Schema
	dlOpts []download.Option

	// err is an option failure, reported when the shape is used.
	err error
}

// JSONOption customizes a [JSON] shape.
type JSONOption func(*jsonOpts) error

type jsonOpts struct {
	schema *gojsonschema.Schema
}

// WithSchema validates the payload against the JSON Schema document
// schema before it is decoded.
func WithSchema(schema string) JSONOption {
	return func(o *jsonOpts) error {
		s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
		if err != nil {
			return fmt.Errorf("compiling schema: %w", err)
		}
		o.schema = s
		return nil
	}
}

// JSON decodes the payload into T with the client's [Codec]. An empty
// payload leaves the data absent.
func JSON[T any](opts ...JSONOption) Shape[T] {
	var o jsonOpts
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return Shape[T]{err: err}
		}
	}

	return Shape[T]{kind: kindJSON, schema: o.schema}
}

// Bytes keeps the whole payload in memory.
func Bytes() Shape[[]byte] {
	return Shape[[]byte]{kind: kindBytes}
}

// Text keeps the whole payload as a string.
func Text() Shape[string] {
	return Shape[string]{kind: kindText}
}

// TempFile streams the payload to a new file in the client's temp
// directory. The caller owns the file and must remove it.
func TempFile(opts ...download.Option) Shape[download.File] {
	return Shape[download.File]{kind: kindFile, dlOpts: opts}
}

// NoPayload discards the payload.
func NoPayload() Shape[Unit] {
	return Shape[Unit]{kind: kindNone}
}

// decode turns a 2xx response into data. ok is false when the payload
// was absent.
func (s Shape[T]) decode(ctx context.Context, c *Client, resp *http.Response) (data T, ok bool, err error) {
	if s.kind == kindNone {
		return data, false, nil
	}

	if s.kind == kindFile {
		length := resp.ContentLength
		if resp.Body == http.NoBody {
			length = -1
		}

		f, err := download.ToTemp(ctx, resp.Body, length, c.tempDir, c.logger, s.dlOpts...)
		if err != nil {
			return data, false, fmt.Errorf("spooling to temp file: %w", err)
		}

		return convert[T](f)
	}

	if resp.Body == nil || resp.Body == http.NoBody {
		return data, false, nil
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return data, false, fmt.Errorf("reading body: %w", err)
	}

	switch s.kind {
	case kindBytes:
		return convert[T](b)
	case kindText:
		return convert[T](string(b))
	}

	if len(bytes.TrimSpace(b)) == 0 {
		return data, false, nil
	}

	if s.schema != nil {
		if err := checkSchema(s.schema, b); err != nil {
			return data, false, err
		}
	}

	if err := c.codec.Unmarshal(b, &data); err != nil {
		return data, false, err
	}

	return data, true, nil
}

func convert[T any](v any) (T, bool, error) {
	data, ok := v.(T)
	if !ok {
		return data, false, fmt.Errorf("cannot assign %T to %T", v, data)
	}

	return data, true, nil
}

func checkSchema(schema *gojsonschema.Schema, b []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(b))
	if err != nil {
		return fmt.Errorf("validating schema: %w", err)
	}

	if !result.Valid() {
		descs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			descs = append(descs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrSchemaMismatch, strings.Join(descs, "; "))
	}

	return nil
}

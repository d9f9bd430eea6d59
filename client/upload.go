package client

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/adamwoolhether/httpcall/internal/validate"
)

// DefaultUploadAlias is the form field name of an [UploadPart] unless
// overridden with [WithAlias].
const DefaultUploadAlias = "file"

// Source is the content of an [UploadPart].
type Source interface {
	open() (io.ReadCloser, error)
}

type pathSource string

func (p pathSource) open() (io.ReadCloser, error) {
	return os.Open(string(p))
}

type bytesSource []byte

func (b bytesSource) open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b)), nil
}

type readerSource struct {
	r io.Reader
}

func (s readerSource) open() (io.ReadCloser, error) {
	if rc, ok := s.r.(io.ReadCloser); ok {
		return rc, nil
	}

	return io.NopCloser(s.r), nil
}

// FromPath reads the part from a file, opened when the body is encoded.
func FromPath(path string) Source {
	if path == "" {
		return nil
	}
	return pathSource(path)
}

// FromBytes reads the part from memory.
func FromBytes(b []byte) Source {
	return bytesSource(b)
}

// FromReader reads the part from r, once. If r is an io.ReadCloser it
// is closed after the part is written.
func FromReader(r io.Reader) Source {
	if r == nil {
		return nil
	}
	return readerSource{r: r}
}

// UploadPart is a single file sent as multipart/form-data by [Upload].
type UploadPart struct {
	src         Source
	contentType string
	name        string
	alias       string
}

// UploadOption customizes an [UploadPart].
type UploadOption func(*uploadFields) error

type uploadFields struct {
	Source      Source `json:"source" validate:"required"`
	ContentType string `json:"contentType" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Alias       string `json:"alias" validate:"required"`
}

// WithAlias sets the form field name of the part.
func WithAlias(alias string) UploadOption {
	return func(s *uploadFields) error {
		if alias == "" {
			return errors.New("alias must not be empty")
		}
		s.Alias = alias
		return nil
	}
}

// NewUpload describes a file part named name with MIME type contentType.
func NewUpload(src Source, contentType, name string, opts ...UploadOption) (UploadPart, error) {
	fields := uploadFields{
		Source:      src,
		ContentType: contentType,
		Name:        name,
		Alias:       DefaultUploadAlias,
	}

	for _, opt := range opts {
		if err := opt(&fields); err != nil {
			return UploadPart{}, fmt.Errorf("applying upload option: %w", err)
		}
	}

	if err := validate.Check(fields); err != nil {
		return UploadPart{}, fmt.Errorf("validating upload: %w", err)
	}

	return UploadPart{
		src:         fields.Source,
		contentType: fields.ContentType,
		name:        fields.Name,
		alias:       fields.Alias,
	}, nil
}

func (u UploadPart) ContentType() string { return u.contentType }
func (u UploadPart) Name() string        { return u.name }
func (u UploadPart) Alias() string       { return u.alias }

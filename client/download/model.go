package download

import (
	"errors"
	"fmt"
	"os"
)

var (
	ErrContentLengthMismatch = errors.New("content length mismatch")
	ErrChecksumMismatch      = errors.New("checksum mismatch")
	ErrDownloadCancelled     = errors.New("download cancelled")
)

// Error wraps a sentinel error with additional detail.
type Error struct {
	Detail string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// File is a spooled payload on disk. It is not removed automatically.
type File struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Open opens the file for reading.
func (f File) Open() (*os.File, error) {
	return os.Open(f.Path)
}

// Remove deletes the file from disk.
func (f File) Remove() error {
	return os.Remove(f.Path)
}

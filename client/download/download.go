package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// BufferSize is the size of the intermediate buffer used while copying
// a payload to disk.
const BufferSize = 8 << 10 // 8KB

// DefaultPattern names spooled files, see os.CreateTemp.
const DefaultPattern = "http.*.cache"

// ToTemp streams body into a new uniquely named file in dir, or the
// default temp directory when dir is empty. The file exists on success
// even when body is empty. On any error the file is removed.
func ToTemp(ctx context.Context, body io.Reader, contentLength int64, dir string, logger *slog.Logger, optFns ...Option) (File, error) {
	opts := options{pattern: DefaultPattern}
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return File{}, fmt.Errorf("applying option: %w", err)
		}
	}

	if logger == nil {
		logger = slog.Default()
	}

	file, err := os.CreateTemp(dir, opts.pattern)
	if err != nil {
		return File{}, fmt.Errorf("creating temp file: %w", err)
	}

	var successful bool
	defer func() {
		if err := file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			logger.Error("defer closing temp file", "error", err)
		}
		if !successful {
			if err := os.Remove(file.Name()); err != nil {
				logger.Error("failed to remove temp file", "path", file.Name(), "error", err)
			}
		}
	}()

	// Hide io.ReaderFrom on *os.File so io.CopyBuffer goes through buf.
	var writer io.Writer = struct{ io.Writer }{file}
	if opts.checksum != nil {
		writer = io.MultiWriter(writer, opts.checksum)
	}

	if opts.progress {
		writer = &progressWriter{
			w:         writer,
			logger:    logger.With("path", file.Name()),
			total:     contentLength,
			startTime: time.Now(),
		}
	}

	var n int64
	if body != nil {
		buf := make([]byte, BufferSize)
		n, err = io.CopyBuffer(writer, &contextReader{ctx: ctx, r: body}, buf)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return File{}, fmt.Errorf("%w: %w", ErrDownloadCancelled, err)
			}

			return File{}, fmt.Errorf("copying body: %w", err)
		}
	}

	if contentLength >= 0 && n != contentLength {
		return File{}, &Error{
			Err:    ErrContentLengthMismatch,
			Detail: fmt.Sprintf("expected %d bytes, got %d", contentLength, n),
		}
	}

	if err := opts.checksum.Verify(); err != nil {
		return File{}, err
	}

	if err := file.Sync(); err != nil {
		return File{}, fmt.Errorf("syncing temp file: %w", err)
	}
	if err := file.Close(); err != nil {
		return File{}, fmt.Errorf("closing temp file: %w", err)
	}

	successful = true

	return File{Path: file.Name(), Size: n}, nil
}

// contextReader fails reads once ctx is done. It also hides io.WriterTo
// on the wrapped reader.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}

	return cr.r.Read(p)
}

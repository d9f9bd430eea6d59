package client

import (
	"hash"

	"github.com/adamwoolhether/httpcall/client/download"
)

// -------------------------------------------------------------------------
// Type aliases - re-export user-facing types from [download].
// -------------------------------------------------------------------------

type (
	// TempFileResult is the data of a [TempFile] shape.
	TempFileResult = download.File

	// DownloadError wraps a sentinel error with additional detail.
	DownloadError = download.Error

	// DownloadOption customizes a [TempFile] shape.
	DownloadOption = download.Option
)

// -------------------------------------------------------------------------
// Sentinel errors
// -------------------------------------------------------------------------

var (
	// ErrContentLengthMismatch indicates the byte count did not match Content-Length.
	ErrContentLengthMismatch = download.ErrContentLengthMismatch

	// ErrChecksumMismatch indicates the file checksum did not match the expected value.
	ErrChecksumMismatch = download.ErrChecksumMismatch

	// ErrDownloadCancelled indicates the spool was cancelled via context.
	ErrDownloadCancelled = download.ErrDownloadCancelled
)

// -------------------------------------------------------------------------
// Download option forwarding functions
// -------------------------------------------------------------------------

// WithChecksum enables checksum validation of the spooled file.
// h is a [hash.Hash] instance (e.g. sha256.New()), and expected is the
// hex-encoded expected checksum string.
func WithChecksum(h hash.Hash, expected string) DownloadOption {
	return download.WithChecksum(h, expected)
}

// WithProgress enables periodic spool progress logging.
func WithProgress() DownloadOption { return download.WithProgress() }

// WithPattern overrides the temp file name pattern.
func WithPattern(pattern string) DownloadOption { return download.WithPattern(pattern) }

// Package download spools HTTP response payloads into freshly created,
// uniquely named temporary files, with optional checksum validation and
// progress reporting.
//
// # Spooling a Payload
//
// [ToTemp] copies the body through a fixed-size buffer so large payloads
// never sit in memory, then returns the resulting [File]:
//
//	f, err := download.ToTemp(ctx, resp.Body, resp.ContentLength, "", logger,
//		download.WithChecksum(sha256.New(), expectedHex),
//	)
//	defer f.Remove()
//
// The file is left on disk on success; removing it is the caller's job.
// On any failure the partial file is removed before returning.
//
// Most callers reach this package through the TempFile result shape of
// [github.com/adamwoolhether/httpcall/client].
package download

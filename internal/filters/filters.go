// Package filters provides input filters that turn a raw dump stream into
// the plain XML the parser consumes.
//
// A dump arrives either as plain XML or wrapped in a compression layer.
// NewReader composes the right decompressor with a byte order mark filter,
// so the rest of the module never sees either concern.
package filters

import (
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/mwdump/mwdump/format"
)

// NewReader returns a reader that decodes r according to f. Any leading
// byte order mark is consumed, and UTF-16 input carrying one is converted
// to UTF-8. Unrecognized formats pass through unchanged.
//
// Closing the returned reader releases the decompressor's state but never
// closes r; the caller keeps ownership of the underlying stream.
func NewReader(r io.Reader, f format.Format) (io.ReadCloser, error) {
	var (
		decoded io.Reader
		closer  io.Closer
	)

	switch f {
	case format.Bzip2:
		decoded = bzip2.NewReader(r)
	case format.Gzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		decoded = zr
		closer = zr
	default:
		decoded = r
	}

	// BOMOverride decodes according to a byte order mark when one is
	// present and falls back to passing bytes through when not.
	decoded = transform.NewReader(decoded, unicode.BOMOverride(transform.Nop))

	return &reader{r: decoded, closer: closer}, nil
}

// reader pairs the decoded stream with whatever needs closing behind it.
type reader struct {
	r      io.Reader
	closer io.Closer
}

func (fr *reader) Read(p []byte) (int, error) {
	return fr.r.Read(p)
}

// Close releases the decompressor. It is safe to call more than once.
func (fr *reader) Close() error {
	if fr.closer == nil {
		return nil
	}
	err := fr.closer.Close()
	fr.closer = nil
	return err
}

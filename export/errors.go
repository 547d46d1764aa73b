package export

import "fmt"

// Position locates a point in the input stream for diagnostics. It is
// purely informational; no parser behavior depends on its value.
type Position struct {
	// Offset is the byte offset reported by the decoder, measured on the
	// decoded (decompressed) stream.
	Offset int64
}

func (p Position) String() string {
	return fmt.Sprintf("offset %d", p.Offset)
}

// FormatError reports input that is well-formed XML but does not have the
// shape of a supported export dump: a wrong root element, a missing or
// repeated field, a leaf element holding markup instead of text.
type FormatError struct {
	Pos    Position
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid dump format at %s: %s", e.Pos, e.Reason)
}

// NotSupportedError reports input that is valid under the export schema but
// uses the one feature this parser deliberately rejects: a page carrying
// more than one revision.
type NotSupportedError struct {
	Pos Position
}

func (e *NotSupportedError) Error() string {
	return fmt.Sprintf("page has more than one revision at %s; only single-revision dumps are supported", e.Pos)
}

// SourceError wraps a failure of the underlying token stream, either
// malformed XML or an I/O error from the reader.
type SourceError struct {
	Err error
}

func (e *SourceError) Error() string {
	return "reading dump: " + e.Err.Error()
}

func (e *SourceError) Unwrap() error {
	return e.Err
}
